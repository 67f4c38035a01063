// Package repository provides the in-memory implementation of the
// registry's persistence port. The durable implementation lives in
// internal/infrastructure/sqlite.
package repository

import (
	"context"
	"sync"

	"github.com/driftware/vaultindex/internal/registry/domain"
)

// memoryRepository is a thread-safe in-memory implementation of
// domain.Repository. Used by tests and read-only dry runs.
type memoryRepository struct {
	mu sync.RWMutex

	assets    []domain.Address
	assetUsed map[domain.Address]bool

	vaults          map[domain.Address][]domain.VaultRecord
	vaultsByRelease map[domain.Address]map[uint64][]domain.VaultRecord

	strategies          map[domain.Address][]domain.StrategyRecord
	strategiesByRelease map[domain.Address]map[uint64][]domain.StrategyRecord
}

// NewMemory creates an empty in-memory repository.
func NewMemory() domain.Repository {
	return &memoryRepository{
		assetUsed:           make(map[domain.Address]bool),
		vaults:              make(map[domain.Address][]domain.VaultRecord),
		vaultsByRelease:     make(map[domain.Address]map[uint64][]domain.VaultRecord),
		strategies:          make(map[domain.Address][]domain.StrategyRecord),
		strategiesByRelease: make(map[domain.Address]map[uint64][]domain.StrategyRecord),
	}
}

// registerAsset adds the asset to the global list on first use.
// Callers must hold the write lock.
func (r *memoryRepository) registerAsset(asset domain.Address) {
	if r.assetUsed[asset] {
		return
	}
	r.assetUsed[asset] = true
	r.assets = append(r.assets, asset)
}

// AddVault appends a vault record, registering the asset on first use.
func (r *memoryRepository) AddVault(_ context.Context, rec domain.VaultRecord) error {
	if rec.Address.IsZero() {
		return domain.ErrZeroVault
	}
	if rec.Asset.IsZero() {
		return domain.ErrZeroAsset
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.vaults[rec.Asset] {
		if existing.Address == rec.Address {
			return domain.ErrAlreadyRegistered
		}
	}

	r.vaults[rec.Asset] = append(r.vaults[rec.Asset], rec)
	byRelease := r.vaultsByRelease[rec.Asset]
	if byRelease == nil {
		byRelease = make(map[uint64][]domain.VaultRecord)
		r.vaultsByRelease[rec.Asset] = byRelease
	}
	byRelease[rec.Release] = append(byRelease[rec.Release], rec)

	r.registerAsset(rec.Asset)
	return nil
}

// AddStrategy appends a strategy record, registering the asset on first use.
func (r *memoryRepository) AddStrategy(_ context.Context, rec domain.StrategyRecord) error {
	if rec.Address.IsZero() {
		return domain.ErrZeroStrategy
	}
	if rec.Asset.IsZero() {
		return domain.ErrZeroAsset
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.strategies[rec.Asset] {
		if existing.Address == rec.Address {
			return domain.ErrAlreadyRegistered
		}
	}

	r.strategies[rec.Asset] = append(r.strategies[rec.Asset], rec)
	byRelease := r.strategiesByRelease[rec.Asset]
	if byRelease == nil {
		byRelease = make(map[uint64][]domain.StrategyRecord)
		r.strategiesByRelease[rec.Asset] = byRelease
	}
	byRelease[rec.Release] = append(byRelease[rec.Release], rec)

	r.registerAsset(rec.Asset)
	return nil
}

// Assets returns every registered asset in first-use order.
func (r *memoryRepository) Assets(_ context.Context) ([]domain.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Address, len(r.assets))
	copy(out, r.assets)
	return out, nil
}

// NumAssets returns the number of registered assets.
func (r *memoryRepository) NumAssets(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.assets), nil
}

// AssetIsUsed reports whether the asset has any registrations.
func (r *memoryRepository) AssetIsUsed(_ context.Context, asset domain.Address) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.assetUsed[asset], nil
}

// Vaults returns the asset's vaults in registration order.
func (r *memoryRepository) Vaults(_ context.Context, asset domain.Address) ([]domain.VaultRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.VaultRecord, len(r.vaults[asset]))
	copy(out, r.vaults[asset])
	return out, nil
}

// VaultsByRelease returns the asset's vaults for one release index.
func (r *memoryRepository) VaultsByRelease(_ context.Context, asset domain.Address, release uint64) ([]domain.VaultRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	recs := r.vaultsByRelease[asset][release]
	out := make([]domain.VaultRecord, len(recs))
	copy(out, recs)
	return out, nil
}

// NumVaults returns the number of vaults registered for the asset.
func (r *memoryRepository) NumVaults(_ context.Context, asset domain.Address) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.vaults[asset]), nil
}

// Strategies returns the asset's strategies in registration order.
func (r *memoryRepository) Strategies(_ context.Context, asset domain.Address) ([]domain.StrategyRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.StrategyRecord, len(r.strategies[asset]))
	copy(out, r.strategies[asset])
	return out, nil
}

// StrategiesByRelease returns the asset's strategies for one release index.
func (r *memoryRepository) StrategiesByRelease(_ context.Context, asset domain.Address, release uint64) ([]domain.StrategyRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	recs := r.strategiesByRelease[asset][release]
	out := make([]domain.StrategyRecord, len(recs))
	copy(out, recs)
	return out, nil
}

// NumStrategies returns the number of strategies registered for the asset.
func (r *memoryRepository) NumStrategies(_ context.Context, asset domain.Address) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.strategies[asset]), nil
}

// AllVaults returns every vault list keyed by asset.
func (r *memoryRepository) AllVaults(_ context.Context) (map[domain.Address][]domain.VaultRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[domain.Address][]domain.VaultRecord, len(r.vaults))
	for asset, recs := range r.vaults {
		cp := make([]domain.VaultRecord, len(recs))
		copy(cp, recs)
		out[asset] = cp
	}
	return out, nil
}

// AllStrategies returns every strategy list keyed by asset.
func (r *memoryRepository) AllStrategies(_ context.Context) (map[domain.Address][]domain.StrategyRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[domain.Address][]domain.StrategyRecord, len(r.strategies))
	for asset, recs := range r.strategies {
		cp := make([]domain.StrategyRecord, len(recs))
		copy(cp, recs)
		out[asset] = cp
	}
	return out, nil
}

// Close is a no-op for the in-memory repository.
func (r *memoryRepository) Close() error {
	return nil
}
