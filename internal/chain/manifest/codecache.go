package manifest

import (
	"context"
	"time"

	"github.com/driftware/vaultindex/internal/cachemanager"
	"github.com/driftware/vaultindex/internal/registry/domain"
)

// codeTTL is how long cached lookups live. Bytecode and API versions are
// immutable once deployed, so the TTL only bounds memory, not staleness.
const codeTTL = time.Hour

// CachedCodeReader wraps a CodeReader in an in-memory cache. Empty
// results are never cached: an address with no code yet may gain code
// when a deployment lands.
type CachedCodeReader struct {
	inner domain.CodeReader
	cache cachemanager.CacheManager[string, []byte]
	skip  bool
}

func NewCachedCodeReader(inner domain.CodeReader, skipCache bool) *CachedCodeReader {
	return &CachedCodeReader{
		inner: inner,
		cache: cachemanager.NewInMemoryCacheManager[string, []byte](
			"bytecode", cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval),
		skip: skipCache,
	}
}

var _ domain.CodeReader = (*CachedCodeReader)(nil)

func (c *CachedCodeReader) CodeAt(ctx context.Context, addr domain.Address) ([]byte, error) {
	if c.skip {
		return c.inner.CodeAt(ctx, addr)
	}

	key := addr.String()
	if code, ok := c.cache.Get(ctx, key); ok {
		return code, nil
	}

	code, err := c.inner.CodeAt(ctx, addr)
	if err != nil {
		return nil, err
	}
	if len(code) > 0 {
		c.cache.Set(ctx, key, code, codeTTL)
	}
	return code, nil
}

// CachedStrategyReader wraps a StrategyReader in a read-through cache.
// Failed lookups are not cached, so a strategy added to the manifest
// later resolves on the next call.
type CachedStrategyReader struct {
	cache *cachemanager.ReadThroughCache[string, string, domain.Address]
}

func NewCachedStrategyReader(inner domain.StrategyReader, skipCache bool) *CachedStrategyReader {
	manager := cachemanager.NewInMemoryCacheManager[string, string](
		"strategy_api_version", cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval)
	return &CachedStrategyReader{
		cache: cachemanager.NewReadThroughCache[string, string, domain.Address](
			manager,
			func(ctx context.Context, strategy domain.Address) (string, error) {
				return inner.APIVersion(ctx, strategy)
			},
			skipCache,
		),
	}
}

var _ domain.StrategyReader = (*CachedStrategyReader)(nil)

func (c *CachedStrategyReader) APIVersion(ctx context.Context, strategy domain.Address) (string, error) {
	return c.cache.Get(ctx, strategy.String(), strategy, codeTTL)
}
