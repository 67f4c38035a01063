package manifest

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/driftware/vaultindex/internal/log"
	"github.com/driftware/vaultindex/internal/registry/domain"
)

// release is a parsed ReleaseEntry. A zero factory marks a yanked
// release slot: it keeps its index but cannot be dialed or deployed to.
type release struct {
	factory    domain.Address
	blueprint  domain.Address
	apiVersion string
}

// Store is the in-process chain view assembled from a manifest. It
// implements the registry's ReleaseSource, CodeReader, and
// StrategyReader ports; the local factory writes dry-run deployments
// back into the code map so adoption checks see them.
type Store struct {
	mu         sync.RWMutex
	releases   []release
	code       map[domain.Address][]byte
	strategies map[domain.Address]string
	nonce      uint64
}

// NewStore validates a manifest document and builds a Store from it.
// File references in the code section are resolved relative to baseDir.
func NewStore(doc *Document, baseDir string) (*Store, error) {
	s := &Store{}
	state, err := buildState(doc, baseDir)
	if err != nil {
		return nil, err
	}
	s.releases, s.code, s.strategies = state.releases, state.code, state.strategies
	return s, nil
}

// Open loads the manifest at path and builds a Store from it.
func Open(path string) (*Store, error) {
	doc, err := Load(path)
	if err != nil {
		return nil, err
	}
	return NewStore(doc, filepath.Dir(path))
}

type storeState struct {
	releases   []release
	code       map[domain.Address][]byte
	strategies map[domain.Address]string
}

func buildState(doc *Document, baseDir string) (storeState, error) {
	var state storeState
	if len(doc.Releases) == 0 {
		return state, ErrNoReleases
	}

	state.code = make(map[domain.Address][]byte, len(doc.Code))
	for raw, entry := range doc.Code {
		addr, err := domain.ParseAddress(raw)
		if err != nil {
			return state, fmt.Errorf("code section address %q: %w", raw, err)
		}
		if _, dup := state.code[addr]; dup {
			return state, fmt.Errorf("duplicate code entry for %s", addr)
		}
		code, err := entry.bytecode(baseDir)
		if err != nil {
			return state, fmt.Errorf("code for %s: %w", addr, err)
		}
		state.code[addr] = code
	}

	state.releases = make([]release, 0, len(doc.Releases))
	for i, entry := range doc.Releases {
		rel, err := parseRelease(entry, state.code)
		if err != nil {
			return state, fmt.Errorf("release %d: %w", i, err)
		}
		state.releases = append(state.releases, rel)
	}

	state.strategies = make(map[domain.Address]string, len(doc.Strategies))
	for raw, apiVersion := range doc.Strategies {
		addr, err := domain.ParseAddress(raw)
		if err != nil {
			return state, fmt.Errorf("strategies section address %q: %w", raw, err)
		}
		if apiVersion == "" {
			return state, fmt.Errorf("strategy %s has an empty api_version", addr)
		}
		state.strategies[addr] = apiVersion
	}

	return state, nil
}

func parseRelease(entry ReleaseEntry, code map[domain.Address][]byte) (release, error) {
	var rel release

	// An empty factory field marks a yanked slot.
	if entry.Factory != "" {
		factory, err := domain.ParseAddress(entry.Factory)
		if err != nil {
			return rel, fmt.Errorf("factory address %q: %w", entry.Factory, err)
		}
		rel.factory = factory
	}
	if rel.factory.IsZero() {
		return rel, nil
	}

	if entry.APIVersion == "" {
		return rel, fmt.Errorf("factory %s has no api_version", rel.factory)
	}
	rel.apiVersion = entry.APIVersion

	blueprint, err := domain.ParseAddress(entry.Blueprint)
	if err != nil {
		return rel, fmt.Errorf("blueprint address %q: %w", entry.Blueprint, err)
	}
	if blueprint.IsZero() {
		return rel, fmt.Errorf("factory %s has a zero blueprint", rel.factory)
	}
	if len(code[blueprint]) == 0 {
		return rel, fmt.Errorf("blueprint %s: %w", blueprint, ErrNoBlueprintCode)
	}
	rel.blueprint = blueprint

	return rel, nil
}

// Reload atomically replaces the store's contents with a fresh document.
// Bytecode materialized by local deployments is discarded.
func (s *Store) Reload(doc *Document, baseDir string) error {
	state, err := buildState(doc, baseDir)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.releases, s.code, s.strategies = state.releases, state.code, state.strategies
	log.Info(log.CatChain, "manifest reloaded", "releases", len(state.releases), "code_entries", len(state.code))
	return nil
}

// ReloadFromFile reloads the store from the manifest at path.
func (s *Store) ReloadFromFile(path string) error {
	doc, err := Load(path)
	if err != nil {
		return err
	}
	return s.Reload(doc, filepath.Dir(path))
}

// NumReleases implements domain.ReleaseSource.
func (s *Store) NumReleases(ctx context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.releases)), nil
}

// Factory implements domain.ReleaseSource. Out-of-range and yanked
// releases both report the zero address.
func (s *Store) Factory(ctx context.Context, releaseIdx uint64) (domain.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if releaseIdx >= uint64(len(s.releases)) {
		return domain.ZeroAddress, nil
	}
	return s.releases[releaseIdx].factory, nil
}

// ReleaseTarget implements domain.ReleaseSource, mapping an API version
// string to the index of the first release that carries it.
func (s *Store) ReleaseTarget(ctx context.Context, apiVersion string) (uint64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i, rel := range s.releases {
		if rel.apiVersion == apiVersion {
			return uint64(i), true, nil
		}
	}
	return 0, false, nil
}

// CodeAt implements domain.CodeReader. Addresses without bytecode report
// empty code rather than an error, matching chain semantics.
func (s *Store) CodeAt(ctx context.Context, addr domain.Address) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	code := s.code[addr]
	out := make([]byte, len(code))
	copy(out, code)
	return out, nil
}

// APIVersion implements domain.StrategyReader over the manifest's
// strategies section.
func (s *Store) APIVersion(ctx context.Context, strategy domain.Address) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	apiVersion, ok := s.strategies[strategy]
	if !ok {
		return "", fmt.Errorf("strategy %s: %w", strategy, ErrUnknownStrategy)
	}
	return apiVersion, nil
}

// ReleaseInfo is one row of the manifest's release table.
type ReleaseInfo struct {
	Index      uint64
	Factory    domain.Address
	Blueprint  domain.Address
	APIVersion string
}

// Releases returns the manifest's release table in index order.
func (s *Store) Releases() []ReleaseInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ReleaseInfo, 0, len(s.releases))
	for i, rel := range s.releases {
		out = append(out, ReleaseInfo{
			Index:      uint64(i),
			Factory:    rel.factory,
			Blueprint:  rel.blueprint,
			APIVersion: rel.apiVersion,
		})
	}
	return out
}

// releaseByFactory finds the release dialable at a factory address.
func (s *Store) releaseByFactory(factory domain.Address) (release, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if factory.IsZero() {
		return release{}, false
	}
	for _, rel := range s.releases {
		if rel.factory == factory {
			return rel, true
		}
	}
	return release{}, false
}

// materialize writes bytecode at a freshly derived address, failing on
// collision with an existing entry.
func (s *Store) materialize(addr domain.Address, code []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.code[addr]) > 0 {
		return fmt.Errorf("address %s already has bytecode", addr)
	}
	s.code[addr] = code
	return nil
}

// nextNonce hands out deployment nonces for address derivation.
func (s *Store) nextNonce() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.nonce
	s.nonce++
	return n
}
