package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/driftware/vaultindex/internal/chain/manifest"
)

// Well-known addresses used by the canned manifest.
const (
	FactoryV301   = "0x00000000000000000000000000000000000000f1"
	FactoryV302   = "0x00000000000000000000000000000000000000f2"
	BlueprintV301 = "0x00000000000000000000000000000000000000b1"
	BlueprintV302 = "0x00000000000000000000000000000000000000b2"
	StrategyV302  = "0x00000000000000000000000000000000000000e2"
)

// TwoReleaseManifest returns a manifest document with two releases
// (3.0.1 and 3.0.2) and one known strategy on the latest release.
func TwoReleaseManifest() string {
	return `releases:
  - factory: "` + FactoryV301 + `"
    api_version: "3.0.1"
    blueprint: "` + BlueprintV301 + `"
  - factory: "` + FactoryV302 + `"
    api_version: "3.0.2"
    blueprint: "` + BlueprintV302 + `"
code:
  "` + BlueprintV301 + `": "60806040"
  "` + BlueprintV302 + `": "60806041"
strategies:
  "` + StrategyV302 + `": "3.0.2"
`
}

// WriteManifest writes a manifest to a temp file and returns its path.
func WriteManifest(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "manifest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0600), "failed to write test manifest")
	return path
}

// NewManifestStore builds a chain store from the canned two-release
// manifest.
func NewManifestStore(t *testing.T) *manifest.Store {
	t.Helper()
	doc, err := manifest.Parse([]byte(TwoReleaseManifest()))
	require.NoError(t, err, "canned manifest should parse")
	store, err := manifest.NewStore(doc, t.TempDir())
	require.NoError(t, err, "canned manifest should validate")
	return store
}
