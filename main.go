package main

import "github.com/driftware/vaultindex/cmd"

func main() {
	cmd.Execute()
}
