package manifest

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/driftware/vaultindex/internal/log"
	"github.com/driftware/vaultindex/internal/registry/domain"
)

// Dialer implements domain.FactoryDialer over the store's release list.
type Dialer struct {
	store *Store
}

func NewDialer(store *Store) *Dialer {
	return &Dialer{store: store}
}

var _ domain.FactoryDialer = (*Dialer)(nil)

// Dial returns a factory handle for an address listed in the manifest.
func (d *Dialer) Dial(ctx context.Context, factory domain.Address) (domain.VaultFactory, error) {
	rel, ok := d.store.releaseByFactory(factory)
	if !ok {
		return nil, fmt.Errorf("factory %s: %w", factory, ErrUnknownFactory)
	}
	return &localFactory{store: d.store, rel: rel}, nil
}

// localFactory is a deterministic dry-run factory. DeployVault derives
// the vault address from the deployment inputs and materializes the
// release's blueprint bytecode at it, so a later adoption check on the
// deployed vault sees a byte-for-byte blueprint match.
type localFactory struct {
	store *Store
	rel   release
}

var _ domain.VaultFactory = (*localFactory)(nil)

func (f *localFactory) APIVersion(ctx context.Context) (string, error) {
	return f.rel.apiVersion, nil
}

func (f *localFactory) VaultBlueprint(ctx context.Context) (domain.Address, error) {
	return f.rel.blueprint, nil
}

func (f *localFactory) DeployVault(ctx context.Context, params domain.VaultParams) (domain.Address, error) {
	if err := params.Validate(); err != nil {
		return domain.ZeroAddress, err
	}

	blueprintCode, err := f.store.CodeAt(ctx, f.rel.blueprint)
	if err != nil {
		return domain.ZeroAddress, err
	}
	if len(blueprintCode) == 0 {
		return domain.ZeroAddress, fmt.Errorf("blueprint %s: %w", f.rel.blueprint, ErrNoBlueprintCode)
	}

	vault := deriveAddress(f.rel.factory, params, f.store.nextNonce())
	if err := f.store.materialize(vault, blueprintCode); err != nil {
		return domain.ZeroAddress, fmt.Errorf("deploy vault: %w", err)
	}

	log.Info(log.CatChain, "vault deployed",
		"vault", vault.String(),
		"factory", f.rel.factory.String(),
		"api_version", f.rel.apiVersion,
	)
	return vault, nil
}

// deriveAddress hashes the deployment inputs down to a vault address.
// The nonce keeps repeated deployments with identical params distinct.
func deriveAddress(factory domain.Address, params domain.VaultParams, nonce uint64) domain.Address {
	h := sha256.New()
	h.Write(factory.Bytes())
	h.Write(params.Asset.Bytes())
	h.Write([]byte(params.Name))
	h.Write([]byte{0})
	h.Write([]byte(params.Symbol))
	h.Write([]byte{0})
	h.Write(params.RoleManager.Bytes())
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], nonce)
	h.Write(buf[:])

	var addr domain.Address
	copy(addr[:], h.Sum(nil)[:20])
	return addr
}
