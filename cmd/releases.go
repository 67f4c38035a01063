package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var releasesCmd = &cobra.Command{
	Use:   "releases",
	Short: "Show the manifest's release table",
	Long: `Show the manifest's release table: one row per factory generation,
oldest first. Yanked slots keep their index but show no factory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		w := newTable(cmd.OutOrStdout())
		fmt.Fprintln(w, "RELEASE\tAPI\tFACTORY\tBLUEPRINT")
		for _, rel := range e.Store.Releases() {
			if rel.Factory.IsZero() {
				fmt.Fprintf(w, "%d\t-\t(yanked)\t-\n", rel.Index)
				continue
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", rel.Index, rel.APIVersion, rel.Factory, rel.Blueprint)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(releasesCmd)
}
