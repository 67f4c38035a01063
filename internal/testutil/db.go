// Package testutil provides shared fixtures for registry tests: address
// helpers, a record builder, and canned manifests.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/driftware/vaultindex/internal/infrastructure/sqlite"
	"github.com/driftware/vaultindex/internal/registry/domain"
)

// NewTestDB opens a migrated registry database in a temp directory. The
// database is closed when the test completes.
func NewTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "registry.db")
	db, err := sqlite.NewDB(dbPath)
	require.NoError(t, err, "Failed to create test database")
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// NewTestRepository opens a migrated registry database and returns its
// repository.
func NewTestRepository(t *testing.T) domain.Repository {
	t.Helper()
	return NewTestDB(t).RegistryRepository()
}
