package domain

import (
	"errors"
	"time"
)

// Parameter validation errors
var (
	ErrZeroAsset       = errors.New("asset address cannot be zero")
	ErrZeroVault       = errors.New("vault address cannot be zero")
	ErrZeroStrategy    = errors.New("strategy address cannot be zero")
	ErrZeroRoleManager = errors.New("role manager address cannot be zero")
	ErrEmptyName       = errors.New("vault name cannot be empty")
	ErrEmptySymbol     = errors.New("vault symbol cannot be empty")
)

// VaultParams carries the inputs for deploying a new vault through a
// release's factory.
type VaultParams struct {
	Asset               Address
	Name                string
	Symbol              string
	RoleManager         Address
	ProfitMaxUnlockTime uint64 // seconds
	ReleaseDelta        uint64 // 0 = latest release
}

// Validate checks the parameters a factory requires. The release delta is
// range-checked against the release source at call time, not here.
func (p VaultParams) Validate() error {
	if p.Asset.IsZero() {
		return ErrZeroAsset
	}
	if p.Name == "" {
		return ErrEmptyName
	}
	if p.Symbol == "" {
		return ErrEmptySymbol
	}
	if p.RoleManager.IsZero() {
		return ErrZeroRoleManager
	}
	return nil
}

// VaultRecord is an indexed vault. Records are append-only: once stored,
// the association between vault, asset, and release never changes.
type VaultRecord struct {
	ID           string // uuid assigned at registration
	Address      Address
	Asset        Address
	Release      uint64
	APIVersion   string
	RegisteredAt time.Time
}

// StrategyRecord is an indexed strategy. The release index is derived
// from the strategy's self-reported API version string.
type StrategyRecord struct {
	ID           string // uuid assigned at registration
	Address      Address
	Asset        Address
	Release      uint64
	APIVersion   string
	RegisteredAt time.Time
}
