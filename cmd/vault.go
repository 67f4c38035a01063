package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/driftware/vaultindex/internal/registry/domain"
)

var vaultCmd = &cobra.Command{
	Use:   "vault",
	Short: "Deploy or adopt vaults",
}

var (
	vaultNewAsset        string
	vaultNewName         string
	vaultNewSymbol       string
	vaultNewRoleManager  string
	vaultNewProfitUnlock uint64
	vaultNewReleaseDelta uint64
)

var vaultNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Deploy a new vault through a release's factory and index it",
	Long: `Deploy a new vault through a release's factory and record it in the
registry.

--release-delta counts back from the latest release: 0 deploys on the
latest, 1 on the one before it, and so on.

Examples:
  vaultindex vault new --asset 0x... --name "USDC Vault" --symbol vUSDC --role-manager 0x...
  vaultindex vault new --asset 0x... --name "USDC Legacy" --symbol vUSDCl --role-manager 0x... --release-delta 1`,
	RunE: func(cmd *cobra.Command, args []string) error {
		asset, err := parseAddressFlag("asset", vaultNewAsset)
		if err != nil {
			return err
		}
		roleManager, err := parseAddressFlag("role-manager", vaultNewRoleManager)
		if err != nil {
			return err
		}

		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		rec, err := e.Service.NewVault(cmd.Context(), domain.VaultParams{
			Asset:               asset,
			Name:                vaultNewName,
			Symbol:              vaultNewSymbol,
			RoleManager:         roleManager,
			ProfitMaxUnlockTime: vaultNewProfitUnlock,
			ReleaseDelta:        vaultNewReleaseDelta,
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "deployed vault %s (asset %s, release %d, api %s)\n",
			rec.Address, rec.Asset, rec.Release, rec.APIVersion)
		return nil
	},
}

var (
	vaultRegisterVault        string
	vaultRegisterAsset        string
	vaultRegisterReleaseDelta uint64
)

var vaultRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Adopt an externally deployed vault into the registry",
	Long: `Adopt an already-deployed vault into the registry. The vault's
bytecode must match the release's blueprint byte for byte; anything else
is rejected.

Examples:
  vaultindex vault register --vault 0x... --asset 0x...
  vaultindex vault register --vault 0x... --asset 0x... --release-delta 1`,
	RunE: func(cmd *cobra.Command, args []string) error {
		vault, err := parseAddressFlag("vault", vaultRegisterVault)
		if err != nil {
			return err
		}
		asset, err := parseAddressFlag("asset", vaultRegisterAsset)
		if err != nil {
			return err
		}

		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		rec, err := e.Service.RegisterVault(cmd.Context(), vault, asset, vaultRegisterReleaseDelta)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "registered vault %s (asset %s, release %d, api %s)\n",
			rec.Address, rec.Asset, rec.Release, rec.APIVersion)
		return nil
	},
}

// parseAddressFlag wraps address parsing with the flag name for error
// messages.
func parseAddressFlag(flag, raw string) (domain.Address, error) {
	if raw == "" {
		return domain.ZeroAddress, fmt.Errorf("--%s is required", flag)
	}
	addr, err := domain.ParseAddress(raw)
	if err != nil {
		return domain.ZeroAddress, fmt.Errorf("--%s: %w", flag, err)
	}
	return addr, nil
}

func init() {
	vaultNewCmd.Flags().StringVar(&vaultNewAsset, "asset", "", "underlying asset address")
	vaultNewCmd.Flags().StringVar(&vaultNewName, "name", "", "vault name")
	vaultNewCmd.Flags().StringVar(&vaultNewSymbol, "symbol", "", "vault share symbol")
	vaultNewCmd.Flags().StringVar(&vaultNewRoleManager, "role-manager", "", "role manager address")
	vaultNewCmd.Flags().Uint64Var(&vaultNewProfitUnlock, "profit-max-unlock", 0, "profit max unlock time in seconds")
	vaultNewCmd.Flags().Uint64Var(&vaultNewReleaseDelta, "release-delta", 0, "releases back from latest (0 = latest)")

	vaultRegisterCmd.Flags().StringVar(&vaultRegisterVault, "vault", "", "vault address to adopt")
	vaultRegisterCmd.Flags().StringVar(&vaultRegisterAsset, "asset", "", "underlying asset address")
	vaultRegisterCmd.Flags().Uint64Var(&vaultRegisterReleaseDelta, "release-delta", 0, "releases back from latest (0 = latest)")

	vaultCmd.AddCommand(vaultNewCmd)
	vaultCmd.AddCommand(vaultRegisterCmd)
	rootCmd.AddCommand(vaultCmd)
}
