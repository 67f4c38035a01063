package sqlite

import (
	"fmt"
	"time"

	"github.com/driftware/vaultindex/internal/registry/domain"
)

// recordModel is the database row shared by the vaults and strategies
// tables. Addresses are stored as 0x-prefixed lowercase hex, timestamps
// as Unix seconds.
type recordModel struct {
	ID           string
	Address      string
	Asset        string
	ReleaseIndex int64
	APIVersion   string
	RegisteredAt int64
}

func vaultToModel(rec domain.VaultRecord) recordModel {
	return recordModel{
		ID:           rec.ID,
		Address:      rec.Address.String(),
		Asset:        rec.Asset.String(),
		ReleaseIndex: int64(rec.Release),
		APIVersion:   rec.APIVersion,
		RegisteredAt: rec.RegisteredAt.Unix(),
	}
}

func strategyToModel(rec domain.StrategyRecord) recordModel {
	return recordModel{
		ID:           rec.ID,
		Address:      rec.Address.String(),
		Asset:        rec.Asset.String(),
		ReleaseIndex: int64(rec.Release),
		APIVersion:   rec.APIVersion,
		RegisteredAt: rec.RegisteredAt.Unix(),
	}
}

func (m recordModel) toVault() (domain.VaultRecord, error) {
	address, err := domain.ParseAddress(m.Address)
	if err != nil {
		return domain.VaultRecord{}, fmt.Errorf("corrupt vault address %q: %w", m.Address, err)
	}
	asset, err := domain.ParseAddress(m.Asset)
	if err != nil {
		return domain.VaultRecord{}, fmt.Errorf("corrupt asset address %q: %w", m.Asset, err)
	}
	return domain.VaultRecord{
		ID:           m.ID,
		Address:      address,
		Asset:        asset,
		Release:      uint64(m.ReleaseIndex),
		APIVersion:   m.APIVersion,
		RegisteredAt: time.Unix(m.RegisteredAt, 0),
	}, nil
}

func (m recordModel) toStrategy() (domain.StrategyRecord, error) {
	address, err := domain.ParseAddress(m.Address)
	if err != nil {
		return domain.StrategyRecord{}, fmt.Errorf("corrupt strategy address %q: %w", m.Address, err)
	}
	asset, err := domain.ParseAddress(m.Asset)
	if err != nil {
		return domain.StrategyRecord{}, fmt.Errorf("corrupt asset address %q: %w", m.Asset, err)
	}
	return domain.StrategyRecord{
		ID:           m.ID,
		Address:      address,
		Asset:        asset,
		Release:      uint64(m.ReleaseIndex),
		APIVersion:   m.APIVersion,
		RegisteredAt: time.Unix(m.RegisteredAt, 0),
	}, nil
}
