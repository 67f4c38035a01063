package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/driftware/vaultindex/internal/registry/domain"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed assets, vaults, and strategies",
}

var (
	listAsset   string
	listRelease int64
)

var listAssetsCmd = &cobra.Command{
	Use:   "assets",
	Short: "List every registered asset in first-use order",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		ctx := cmd.Context()
		assets, err := e.Service.Assets(ctx)
		if err != nil {
			return err
		}

		w := newTable(cmd.OutOrStdout())
		fmt.Fprintln(w, "ASSET\tVAULTS\tSTRATEGIES")
		for _, asset := range assets {
			numVaults, err := e.Service.NumVaults(ctx, asset)
			if err != nil {
				return err
			}
			numStrategies, err := e.Service.NumStrategies(ctx, asset)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s\t%d\t%d\n", asset, numVaults, numStrategies)
		}
		return w.Flush()
	},
}

var listVaultsCmd = &cobra.Command{
	Use:   "vaults",
	Short: "List indexed vaults",
	Long: `List indexed vaults, for one asset or across all of them.

Examples:
  vaultindex list vaults
  vaultindex list vaults --asset 0x...
  vaultindex list vaults --asset 0x... --release 2`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		return listRecords(cmd.Context(), cmd.OutOrStdout(), "VAULT",
			func(ctx context.Context, asset domain.Address) ([]domain.VaultRecord, error) {
				if listRelease >= 0 {
					return e.Service.VaultsByRelease(ctx, asset, uint64(listRelease))
				}
				return e.Service.Vaults(ctx, asset)
			},
			e.Service.Assets)
	},
}

var listStrategiesCmd = &cobra.Command{
	Use:   "strategies",
	Short: "List indexed strategies",
	Long: `List indexed strategies, for one asset or across all of them.

Examples:
  vaultindex list strategies
  vaultindex list strategies --asset 0x... --release 1`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		return listRecords(cmd.Context(), cmd.OutOrStdout(), "STRATEGY",
			func(ctx context.Context, asset domain.Address) ([]domain.StrategyRecord, error) {
				if listRelease >= 0 {
					return e.Service.StrategiesByRelease(ctx, asset, uint64(listRelease))
				}
				return e.Service.Strategies(ctx, asset)
			},
			e.Service.Assets)
	},
}

// listRecords renders vault or strategy rows, restricted to --asset when
// set, otherwise walking every asset in first-use order.
func listRecords[R domain.VaultRecord | domain.StrategyRecord](
	ctx context.Context,
	out io.Writer,
	header string,
	fetch func(context.Context, domain.Address) ([]R, error),
	allAssets func(context.Context) ([]domain.Address, error),
) error {
	var assets []domain.Address
	if listAsset != "" {
		asset, err := parseAddressFlag("asset", listAsset)
		if err != nil {
			return err
		}
		assets = []domain.Address{asset}
	} else {
		var err error
		assets, err = allAssets(ctx)
		if err != nil {
			return err
		}
	}

	w := newTable(out)
	fmt.Fprintf(w, "%s\tASSET\tRELEASE\tAPI\tREGISTERED\n", header)
	for _, asset := range assets {
		records, err := fetch(ctx, asset)
		if err != nil {
			return err
		}
		for _, rec := range records {
			row := domain.VaultRecord(rec)
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
				row.Address, row.Asset, row.Release, row.APIVersion,
				row.RegisteredAt.Format(time.RFC3339))
		}
	}
	return w.Flush()
}

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
}

func init() {
	listCmd.PersistentFlags().StringVar(&listAsset, "asset", "", "restrict to one asset address")
	listCmd.PersistentFlags().Int64Var(&listRelease, "release", -1, "restrict to one release index")

	listCmd.AddCommand(listAssetsCmd)
	listCmd.AddCommand(listVaultsCmd)
	listCmd.AddCommand(listStrategiesCmd)
	rootCmd.AddCommand(listCmd)
}
