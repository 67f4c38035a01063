package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/driftware/vaultindex/internal/registry/domain"
)

// setupTestRepo creates a new DB and returns the repository for testing.
// The DB is closed when the test completes.
func setupTestRepo(t *testing.T) domain.Repository {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "registry.db")
	db, err := NewDB(dbPath)
	require.NoError(t, err, "Failed to create test database")
	t.Cleanup(func() { db.Close() })
	return db.RegistryRepository()
}

func testAddr(t require.TestingT, n byte) domain.Address {
	var a domain.Address
	a[19] = n
	require.False(t, a.IsZero(), "test address must not be zero")
	return a
}

func testVault(t require.TestingT, addr, asset domain.Address, release uint64) domain.VaultRecord {
	return domain.VaultRecord{
		ID:           uuid.NewString(),
		Address:      addr,
		Asset:        asset,
		Release:      release,
		APIVersion:   "3.0.2",
		RegisteredAt: time.Now().Truncate(time.Second),
	}
}

func testStrategy(t require.TestingT, addr, asset domain.Address, release uint64) domain.StrategyRecord {
	return domain.StrategyRecord{
		ID:           uuid.NewString(),
		Address:      addr,
		Asset:        asset,
		Release:      release,
		APIVersion:   "3.0.2",
		RegisteredAt: time.Now().Truncate(time.Second),
	}
}

func TestRegistryRepository_AddVault_RoundTrip(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	asset := testAddr(t, 0xA0)
	rec := testVault(t, testAddr(t, 0x01), asset, 2)

	err := repo.AddVault(ctx, rec)
	require.NoError(t, err, "AddVault should succeed")

	vaults, err := repo.Vaults(ctx, asset)
	require.NoError(t, err)
	require.Len(t, vaults, 1)
	require.Equal(t, rec.ID, vaults[0].ID)
	require.Equal(t, rec.Address, vaults[0].Address)
	require.Equal(t, rec.Asset, vaults[0].Asset)
	require.Equal(t, rec.Release, vaults[0].Release)
	require.Equal(t, rec.APIVersion, vaults[0].APIVersion)
	require.Equal(t, rec.RegisteredAt.Unix(), vaults[0].RegisteredAt.Unix())
}

func TestRegistryRepository_AddVault_RegistersAssetOnce(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	asset := testAddr(t, 0xA0)
	require.NoError(t, repo.AddVault(ctx, testVault(t, testAddr(t, 0x01), asset, 0)))
	require.NoError(t, repo.AddVault(ctx, testVault(t, testAddr(t, 0x02), asset, 0)))
	require.NoError(t, repo.AddStrategy(ctx, testStrategy(t, testAddr(t, 0x03), asset, 0)))

	assets, err := repo.Assets(ctx)
	require.NoError(t, err)
	require.Equal(t, []domain.Address{asset}, assets, "Asset should be registered exactly once")

	count, err := repo.NumAssets(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestRegistryRepository_Assets_FirstUseOrder(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	first := testAddr(t, 0xA2)
	second := testAddr(t, 0xA1)
	require.NoError(t, repo.AddVault(ctx, testVault(t, testAddr(t, 0x01), first, 0)))
	require.NoError(t, repo.AddStrategy(ctx, testStrategy(t, testAddr(t, 0x02), second, 0)))

	assets, err := repo.Assets(ctx)
	require.NoError(t, err)
	require.Equal(t, []domain.Address{first, second}, assets, "Assets should be in first-use order, not address order")
}

func TestRegistryRepository_AddVault_Duplicate(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	asset := testAddr(t, 0xA0)
	vault := testAddr(t, 0x01)
	require.NoError(t, repo.AddVault(ctx, testVault(t, vault, asset, 0)))

	err := repo.AddVault(ctx, testVault(t, vault, asset, 1))
	require.ErrorIs(t, err, domain.ErrAlreadyRegistered, "Same vault address for the same asset should be rejected")

	count, err := repo.NumVaults(ctx, asset)
	require.NoError(t, err)
	require.Equal(t, 1, count, "Rejected duplicate should leave no partial state")
}

func TestRegistryRepository_AddVault_SameAddressDifferentAssets(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	vault := testAddr(t, 0x01)
	require.NoError(t, repo.AddVault(ctx, testVault(t, vault, testAddr(t, 0xA0), 0)))
	require.NoError(t, repo.AddVault(ctx, testVault(t, vault, testAddr(t, 0xA1), 0)),
		"Uniqueness is per asset, not global")
}

func TestRegistryRepository_AddVault_ZeroAddresses(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	err := repo.AddVault(ctx, testVault(t, domain.ZeroAddress, testAddr(t, 0xA0), 0))
	require.ErrorIs(t, err, domain.ErrZeroVault)

	err = repo.AddVault(ctx, testVault(t, testAddr(t, 0x01), domain.ZeroAddress, 0))
	require.ErrorIs(t, err, domain.ErrZeroAsset)

	err = repo.AddStrategy(ctx, testStrategy(t, domain.ZeroAddress, testAddr(t, 0xA0), 0))
	require.ErrorIs(t, err, domain.ErrZeroStrategy)
}

func TestRegistryRepository_VaultsByRelease(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	asset := testAddr(t, 0xA0)
	v0 := testVault(t, testAddr(t, 0x01), asset, 0)
	v1 := testVault(t, testAddr(t, 0x02), asset, 1)
	v2 := testVault(t, testAddr(t, 0x03), asset, 1)
	for _, rec := range []domain.VaultRecord{v0, v1, v2} {
		require.NoError(t, repo.AddVault(ctx, rec))
	}

	rel0, err := repo.VaultsByRelease(ctx, asset, 0)
	require.NoError(t, err)
	require.Len(t, rel0, 1)
	require.Equal(t, v0.Address, rel0[0].Address)

	rel1, err := repo.VaultsByRelease(ctx, asset, 1)
	require.NoError(t, err)
	require.Len(t, rel1, 2)
	require.Equal(t, v1.Address, rel1[0].Address)
	require.Equal(t, v2.Address, rel1[1].Address)

	rel2, err := repo.VaultsByRelease(ctx, asset, 2)
	require.NoError(t, err)
	require.Empty(t, rel2, "Unknown release should return an empty list, not an error")
}

func TestRegistryRepository_StrategiesByRelease(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	asset := testAddr(t, 0xA0)
	s0 := testStrategy(t, testAddr(t, 0x01), asset, 0)
	s1 := testStrategy(t, testAddr(t, 0x02), asset, 3)
	require.NoError(t, repo.AddStrategy(ctx, s0))
	require.NoError(t, repo.AddStrategy(ctx, s1))

	rel3, err := repo.StrategiesByRelease(ctx, asset, 3)
	require.NoError(t, err)
	require.Len(t, rel3, 1)
	require.Equal(t, s1.Address, rel3[0].Address)

	count, err := repo.NumStrategies(ctx, asset)
	require.NoError(t, err)
	require.Equal(t, 2, count, "NumStrategies should count strategies, not vaults")
}

func TestRegistryRepository_AssetIsUsed(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	asset := testAddr(t, 0xA0)
	used, err := repo.AssetIsUsed(ctx, asset)
	require.NoError(t, err)
	require.False(t, used, "Fresh asset should not be used")

	require.NoError(t, repo.AddStrategy(ctx, testStrategy(t, testAddr(t, 0x01), asset, 0)))

	used, err = repo.AssetIsUsed(ctx, asset)
	require.NoError(t, err)
	require.True(t, used, "Asset with a registration should be used")
}

func TestRegistryRepository_EmptyAsset(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	asset := testAddr(t, 0xA0)

	vaults, err := repo.Vaults(ctx, asset)
	require.NoError(t, err)
	require.Empty(t, vaults)

	count, err := repo.NumVaults(ctx, asset)
	require.NoError(t, err)
	require.Zero(t, count)

	strategies, err := repo.Strategies(ctx, asset)
	require.NoError(t, err)
	require.Empty(t, strategies)
}

func TestRegistryRepository_AllVaults(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	assetA := testAddr(t, 0xA0)
	assetB := testAddr(t, 0xA1)
	require.NoError(t, repo.AddVault(ctx, testVault(t, testAddr(t, 0x01), assetA, 0)))
	require.NoError(t, repo.AddVault(ctx, testVault(t, testAddr(t, 0x02), assetA, 1)))
	require.NoError(t, repo.AddVault(ctx, testVault(t, testAddr(t, 0x03), assetB, 0)))

	all, err := repo.AllVaults(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Len(t, all[assetA], 2)
	require.Len(t, all[assetB], 1)
}

func TestRegistryRepository_AllStrategies(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	asset := testAddr(t, 0xA0)
	require.NoError(t, repo.AddStrategy(ctx, testStrategy(t, testAddr(t, 0x01), asset, 0)))

	all, err := repo.AllStrategies(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Len(t, all[asset], 1)
}

// TestRegistryRepository_FlatListIsUnionOfReleaseSublists checks that the
// flat vault list always equals the concatenation of the per-release
// sublists, regardless of insertion order across releases.
func TestRegistryRepository_FlatListIsUnionOfReleaseSublists(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	asset := testAddr(t, 0xA0)
	next := byte(1)

	rapid.Check(t, func(rt *rapid.T) {
		release := rapid.Uint64Range(0, 3).Draw(rt, "release")
		require.NoError(rt, repo.AddVault(ctx, testVault(rt, testAddr(rt, next), asset, release)))
		next++

		flat, err := repo.Vaults(ctx, asset)
		require.NoError(rt, err)

		var byRelease []domain.VaultRecord
		for r := uint64(0); r <= 3; r++ {
			sub, err := repo.VaultsByRelease(ctx, asset, r)
			require.NoError(rt, err)
			byRelease = append(byRelease, sub...)
		}
		require.ElementsMatch(rt, flat, byRelease,
			"per-release sublists should partition the flat list")

		count, err := repo.NumVaults(ctx, asset)
		require.NoError(rt, err)
		require.Len(rt, flat, count)
	})
}
