package domain

import "context"

// ReleaseSource exposes the protocol's release registry: an ordered list
// of factory generations, plus a lookup from API version string to
// release index. Implementations may be backed by a deployment manifest
// or by a live chain client.
type ReleaseSource interface {
	// NumReleases returns the number of known releases. Release indexes
	// run from 0 to NumReleases()-1; the highest index is the latest.
	NumReleases(ctx context.Context) (uint64, error)

	// Factory returns the factory address for a release index.
	// ZeroAddress means the release is unregistered.
	Factory(ctx context.Context, release uint64) (Address, error)

	// ReleaseTarget resolves an API version string to its release index.
	// ok is false when the version string is unmapped.
	ReleaseTarget(ctx context.Context, apiVersion string) (release uint64, ok bool, err error)
}

// VaultFactory is a handle to one release's factory contract.
type VaultFactory interface {
	// APIVersion returns the factory's API version string.
	APIVersion(ctx context.Context) (string, error)

	// VaultBlueprint returns the address holding the release's reference
	// vault bytecode, used for clone verification.
	VaultBlueprint(ctx context.Context) (Address, error)

	// DeployVault deploys a new vault and returns its address.
	DeployVault(ctx context.Context, params VaultParams) (Address, error)
}

// FactoryDialer binds a VaultFactory handle to a factory address
// resolved from the release source.
type FactoryDialer interface {
	Dial(ctx context.Context, factory Address) (VaultFactory, error)
}

// CodeReader reads the deployed bytecode at an address. Deployed code is
// immutable, so implementations are free to cache aggressively.
type CodeReader interface {
	CodeAt(ctx context.Context, addr Address) ([]byte, error)
}

// StrategyReader queries a strategy contract for its self-reported API
// version. Strategies and vaults spell this query differently in the
// on-chain contracts, so the strategy-side lookup gets its own port.
type StrategyReader interface {
	APIVersion(ctx context.Context, strategy Address) (string, error)
}

// Repository is the append-only persistence port for the registry index.
// Implementations must be safe for concurrent use.
type Repository interface {
	// AddVault appends a vault record to the asset's flat and per-release
	// lists, registering the asset on first use. Returns
	// ErrAlreadyRegistered if the vault address is already indexed for
	// the asset. The whole append is atomic.
	AddVault(ctx context.Context, rec VaultRecord) error

	// AddStrategy appends a strategy record, with the same semantics as
	// AddVault.
	AddStrategy(ctx context.Context, rec StrategyRecord) error

	// Assets returns every asset ever registered, in first-use order.
	Assets(ctx context.Context) ([]Address, error)

	// NumAssets returns the number of registered assets.
	NumAssets(ctx context.Context) (int, error)

	// AssetIsUsed reports whether the asset has at least one vault or
	// strategy registered against it.
	AssetIsUsed(ctx context.Context, asset Address) (bool, error)

	// Vaults returns the asset's vaults in registration order.
	Vaults(ctx context.Context, asset Address) ([]VaultRecord, error)

	// VaultsByRelease returns the asset's vaults for one release index,
	// in registration order.
	VaultsByRelease(ctx context.Context, asset Address, release uint64) ([]VaultRecord, error)

	// NumVaults returns the number of vaults registered for the asset.
	NumVaults(ctx context.Context, asset Address) (int, error)

	// Strategies returns the asset's strategies in registration order.
	Strategies(ctx context.Context, asset Address) ([]StrategyRecord, error)

	// StrategiesByRelease returns the asset's strategies for one release
	// index, in registration order.
	StrategiesByRelease(ctx context.Context, asset Address, release uint64) ([]StrategyRecord, error)

	// NumStrategies returns the number of strategies registered for the
	// asset.
	NumStrategies(ctx context.Context, asset Address) (int, error)

	// AllVaults returns every vault list keyed by asset. Intended for
	// off-process consumers; the result is unbounded.
	AllVaults(ctx context.Context) (map[Address][]VaultRecord, error)

	// AllStrategies returns every strategy list keyed by asset.
	AllStrategies(ctx context.Context) (map[Address][]StrategyRecord, error)

	// Close releases any resources held by the repository.
	Close() error
}
