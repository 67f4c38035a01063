package manifest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/driftware/vaultindex/internal/registry/domain"
)

// countingCodeReader records how many CodeAt calls reach the backend.
type countingCodeReader struct {
	code  map[domain.Address][]byte
	calls int
}

func (r *countingCodeReader) CodeAt(ctx context.Context, addr domain.Address) ([]byte, error) {
	r.calls++
	return r.code[addr], nil
}

func TestCachedCodeReader_CachesNonEmptyCode(t *testing.T) {
	addr := mustAddr(t, blueprintV3)
	backend := &countingCodeReader{code: map[domain.Address][]byte{addr: {0x60, 0x80}}}
	reader := NewCachedCodeReader(backend, false)
	ctx := context.Background()

	code, err := reader.CodeAt(ctx, addr)
	require.NoError(t, err)
	require.Equal(t, []byte{0x60, 0x80}, code)

	_, err = reader.CodeAt(ctx, addr)
	require.NoError(t, err)
	require.Equal(t, 1, backend.calls, "Second read should come from the cache")
}

func TestCachedCodeReader_DoesNotCacheEmptyCode(t *testing.T) {
	addr := mustAddr(t, blueprintV3)
	backend := &countingCodeReader{code: map[domain.Address][]byte{}}
	reader := NewCachedCodeReader(backend, false)
	ctx := context.Background()

	code, err := reader.CodeAt(ctx, addr)
	require.NoError(t, err)
	require.Empty(t, code)

	// Code lands at the address after the first read, as with a local
	// deployment. The reader must see it.
	backend.code[addr] = []byte{0x60, 0x80}
	code, err = reader.CodeAt(ctx, addr)
	require.NoError(t, err)
	require.Equal(t, []byte{0x60, 0x80}, code, "Empty result must not shadow later deployments")
	require.Equal(t, 2, backend.calls)
}

func TestCachedCodeReader_SkipCache(t *testing.T) {
	addr := mustAddr(t, blueprintV3)
	backend := &countingCodeReader{code: map[domain.Address][]byte{addr: {0x60}}}
	reader := NewCachedCodeReader(backend, true)
	ctx := context.Background()

	_, err := reader.CodeAt(ctx, addr)
	require.NoError(t, err)
	_, err = reader.CodeAt(ctx, addr)
	require.NoError(t, err)
	require.Equal(t, 2, backend.calls, "Disabled cache should call through every time")
}

type countingStrategyReader struct {
	versions map[domain.Address]string
	calls    int
}

func (r *countingStrategyReader) APIVersion(ctx context.Context, strategy domain.Address) (string, error) {
	r.calls++
	apiVersion, ok := r.versions[strategy]
	if !ok {
		return "", ErrUnknownStrategy
	}
	return apiVersion, nil
}

func TestCachedStrategyReader_CachesVersions(t *testing.T) {
	addr := mustAddr(t, strategyOne)
	backend := &countingStrategyReader{versions: map[domain.Address]string{addr: "3.0.2"}}
	reader := NewCachedStrategyReader(backend, false)
	ctx := context.Background()

	apiVersion, err := reader.APIVersion(ctx, addr)
	require.NoError(t, err)
	require.Equal(t, "3.0.2", apiVersion)

	_, err = reader.APIVersion(ctx, addr)
	require.NoError(t, err)
	require.Equal(t, 1, backend.calls)
}

func TestCachedStrategyReader_DoesNotCacheFailures(t *testing.T) {
	addr := mustAddr(t, strategyOne)
	backend := &countingStrategyReader{versions: map[domain.Address]string{}}
	reader := NewCachedStrategyReader(backend, false)
	ctx := context.Background()

	_, err := reader.APIVersion(ctx, addr)
	require.ErrorIs(t, err, ErrUnknownStrategy)

	backend.versions[addr] = "3.0.2"
	apiVersion, err := reader.APIVersion(ctx, addr)
	require.NoError(t, err)
	require.Equal(t, "3.0.2", apiVersion, "A strategy added later should resolve")
}
