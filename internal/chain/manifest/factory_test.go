package manifest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/driftware/vaultindex/internal/registry/domain"
)

func testParams(t *testing.T) domain.VaultParams {
	t.Helper()
	return domain.VaultParams{
		Asset:       mustAddr(t, "0x00000000000000000000000000000000000000a1"),
		Name:        "USDC Vault",
		Symbol:      "vUSDC",
		RoleManager: mustAddr(t, "0x00000000000000000000000000000000000000c1"),
	}
}

func TestDialer_Dial(t *testing.T) {
	store := testStore(t)
	dialer := NewDialer(store)
	ctx := context.Background()

	factory, err := dialer.Dial(ctx, mustAddr(t, factoryV3))
	require.NoError(t, err)

	apiVersion, err := factory.APIVersion(ctx)
	require.NoError(t, err)
	require.Equal(t, "3.0.2", apiVersion)

	blueprint, err := factory.VaultBlueprint(ctx)
	require.NoError(t, err)
	require.Equal(t, mustAddr(t, blueprintV3), blueprint)
}

func TestDialer_Dial_Unknown(t *testing.T) {
	store := testStore(t)
	dialer := NewDialer(store)

	_, err := dialer.Dial(context.Background(), mustAddr(t, strategyOne))
	require.ErrorIs(t, err, ErrUnknownFactory)

	_, err = dialer.Dial(context.Background(), domain.ZeroAddress)
	require.ErrorIs(t, err, ErrUnknownFactory, "The zero address should never dial")
}

func TestDeployVault_MaterializesBlueprintCode(t *testing.T) {
	store := testStore(t)
	dialer := NewDialer(store)
	ctx := context.Background()

	factory, err := dialer.Dial(ctx, mustAddr(t, factoryV3))
	require.NoError(t, err)

	vault, err := factory.DeployVault(ctx, testParams(t))
	require.NoError(t, err)
	require.False(t, vault.IsZero(), "Deployed vault should have a non-zero address")

	vaultCode, err := store.CodeAt(ctx, vault)
	require.NoError(t, err)
	blueprintCode, err := store.CodeAt(ctx, mustAddr(t, blueprintV3))
	require.NoError(t, err)
	require.Equal(t, blueprintCode, vaultCode, "Deployed vault should carry the blueprint bytecode")
}

func TestDeployVault_RepeatedParamsGetDistinctAddresses(t *testing.T) {
	store := testStore(t)
	dialer := NewDialer(store)
	ctx := context.Background()

	factory, err := dialer.Dial(ctx, mustAddr(t, factoryV3))
	require.NoError(t, err)

	first, err := factory.DeployVault(ctx, testParams(t))
	require.NoError(t, err)
	second, err := factory.DeployVault(ctx, testParams(t))
	require.NoError(t, err)
	require.NotEqual(t, first, second, "Identical params should still yield distinct vaults")
}

func TestDeployVault_ValidatesParams(t *testing.T) {
	store := testStore(t)
	dialer := NewDialer(store)
	ctx := context.Background()

	factory, err := dialer.Dial(ctx, mustAddr(t, factoryV3))
	require.NoError(t, err)

	params := testParams(t)
	params.Name = ""
	_, err = factory.DeployVault(ctx, params)
	require.ErrorIs(t, err, domain.ErrEmptyName)
}

func TestDeriveAddress_Deterministic(t *testing.T) {
	factory := mustAddr(t, factoryV3)
	params := testParams(t)

	require.Equal(t, deriveAddress(factory, params, 0), deriveAddress(factory, params, 0))
	require.NotEqual(t, deriveAddress(factory, params, 0), deriveAddress(factory, params, 1))

	other := params
	other.Symbol = "vUSDC2"
	require.NotEqual(t, deriveAddress(factory, params, 0), deriveAddress(factory, other, 0))
}
