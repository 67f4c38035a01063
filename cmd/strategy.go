package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var strategyCmd = &cobra.Command{
	Use:   "strategy",
	Short: "Link strategies to assets",
}

var (
	strategyAddStrategy string
	strategyAddAsset    string
)

var strategyAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Link a deployed strategy to an asset",
	Long: `Link a deployed strategy to an asset. The strategy's release index
comes from its self-reported API version; unmapped versions land on
release 0.

Examples:
  vaultindex strategy add --strategy 0x... --asset 0x...`,
	RunE: func(cmd *cobra.Command, args []string) error {
		strategy, err := parseAddressFlag("strategy", strategyAddStrategy)
		if err != nil {
			return err
		}
		asset, err := parseAddressFlag("asset", strategyAddAsset)
		if err != nil {
			return err
		}

		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		rec, err := e.Service.NewStrategy(cmd.Context(), strategy, asset)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "added strategy %s (asset %s, release %d, api %s)\n",
			rec.Address, rec.Asset, rec.Release, rec.APIVersion)
		return nil
	},
}

func init() {
	strategyAddCmd.Flags().StringVar(&strategyAddStrategy, "strategy", "", "strategy address to link")
	strategyAddCmd.Flags().StringVar(&strategyAddAsset, "asset", "", "underlying asset address")

	strategyCmd.AddCommand(strategyAddCmd)
	rootCmd.AddCommand(strategyCmd)
}
