package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/driftware/vaultindex/internal/registry/domain"
)

// Addr returns a deterministic non-zero test address.
func Addr(n byte) domain.Address {
	var a domain.Address
	a[19] = n
	if a.IsZero() {
		a[18] = 1
	}
	return a
}

// MustParseAddr parses a hex address, failing the test on error.
func MustParseAddr(t require.TestingT, raw string) domain.Address {
	addr, err := domain.ParseAddress(raw)
	require.NoError(t, err, "failed to parse test address")
	return addr
}

// Builder accumulates registry records and inserts them in order.
type Builder struct {
	t          *testing.T
	repo       domain.Repository
	vaults     []domain.VaultRecord
	strategies []domain.StrategyRecord
}

// NewBuilder creates a builder over the given repository.
func NewBuilder(t *testing.T, repo domain.Repository) *Builder {
	t.Helper()
	return &Builder{t: t, repo: repo}
}

// WithVault adds a vault registration with optional configuration.
func (b *Builder) WithVault(vault, asset domain.Address, opts ...RecordOption) *Builder {
	rec := defaultRecord(vault, asset)
	for _, opt := range opts {
		opt(&rec)
	}
	b.vaults = append(b.vaults, domain.VaultRecord(rec))
	return b
}

// WithStrategy adds a strategy registration with optional configuration.
func (b *Builder) WithStrategy(strategy, asset domain.Address, opts ...RecordOption) *Builder {
	rec := defaultRecord(strategy, asset)
	for _, opt := range opts {
		opt(&rec)
	}
	b.strategies = append(b.strategies, domain.StrategyRecord(rec))
	return b
}

// Build inserts all accumulated records.
func (b *Builder) Build() {
	b.t.Helper()
	ctx := context.Background()
	for _, rec := range b.vaults {
		require.NoError(b.t, b.repo.AddVault(ctx, rec), "failed to insert vault %s", rec.Address)
	}
	for _, rec := range b.strategies {
		require.NoError(b.t, b.repo.AddStrategy(ctx, rec), "failed to insert strategy %s", rec.Address)
	}
}
