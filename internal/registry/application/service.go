// Package application wires the registry's domain ports into the three
// registration operations and the read surface.
package application

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/driftware/vaultindex/internal/log"
	"github.com/driftware/vaultindex/internal/pubsub"
	"github.com/driftware/vaultindex/internal/registry/domain"
)

// Config holds the collaborators a Service is wired against.
type Config struct {
	Repository domain.Repository
	Releases   domain.ReleaseSource
	Factories  domain.FactoryDialer
	Code       domain.CodeReader
	Strategies domain.StrategyReader

	// EventLog is optional; when nil, events are only published in-process.
	EventLog EventLog

	// Tracer is optional; when nil, a no-op tracer is used.
	Tracer trace.Tracer

	// Clock is optional; when nil, time.Now is used.
	Clock func() time.Time
}

// Service implements the registry operations: vault creation through a
// release's factory, adoption of externally deployed vaults, and
// strategy linking, plus the read accessors.
//
// A single mutex serializes the mutating operations, external calls
// included, so a collaborator calling back into the service cannot
// interleave with an in-flight registration.
type Service struct {
	mu sync.Mutex

	repo       domain.Repository
	releases   domain.ReleaseSource
	factories  domain.FactoryDialer
	code       domain.CodeReader
	strategies domain.StrategyReader

	broker   *pubsub.Broker[EventPayload]
	eventLog EventLog
	tracer   trace.Tracer
	clock    func() time.Time
}

// NewService creates a registry service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if cfg.Releases == nil {
		return nil, fmt.Errorf("release source is required")
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("vaultindex")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		repo:       cfg.Repository,
		releases:   cfg.Releases,
		factories:  cfg.Factories,
		code:       cfg.Code,
		strategies: cfg.Strategies,
		broker:     pubsub.NewBroker[EventPayload](),
		eventLog:   cfg.EventLog,
		tracer:     tracer,
		clock:      clock,
	}, nil
}

// Subscribe returns a channel of registry events. The subscription is
// cleaned up when ctx is cancelled.
func (s *Service) Subscribe(ctx context.Context) <-chan Event {
	return s.broker.Subscribe(ctx)
}

// Close shuts down the service's event broker.
func (s *Service) Close() {
	s.broker.Close()
}

// resolveFactory resolves a release delta to a release index and its
// factory address. Callers must hold s.mu.
func (s *Service) resolveFactory(ctx context.Context, releaseDelta uint64) (uint64, domain.Address, error) {
	numReleases, err := s.releases.NumReleases(ctx)
	if err != nil {
		return 0, domain.ZeroAddress, fmt.Errorf("query release count: %w", err)
	}
	if numReleases == 0 || releaseDelta >= numReleases {
		return 0, domain.ZeroAddress, &domain.UnknownReleaseError{Delta: releaseDelta}
	}

	target := numReleases - 1 - releaseDelta
	factory, err := s.releases.Factory(ctx, target)
	if err != nil {
		return 0, domain.ZeroAddress, fmt.Errorf("query factory for release %d: %w", target, err)
	}
	if factory.IsZero() {
		return 0, domain.ZeroAddress, &domain.UnknownReleaseError{Delta: releaseDelta, Release: target, Yanked: true}
	}
	return target, factory, nil
}

// NewVault deploys a new vault through the resolved release's factory
// and indexes it. ReleaseDelta 0 targets the latest release; a positive
// delta targets an older one. Fails with ErrUnknownRelease when the
// resolved release has no registered factory.
func (s *Service) NewVault(ctx context.Context, params domain.VaultParams) (domain.VaultRecord, error) {
	ctx, span := s.tracer.Start(ctx, "registry.NewVault", trace.WithAttributes(
		attribute.String("asset", params.Asset.String()),
		attribute.Int64("release_delta", int64(params.ReleaseDelta)),
	))
	defer span.End()

	rec, err := s.newVault(ctx, params)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return domain.VaultRecord{}, err
	}
	span.SetAttributes(attribute.String("vault", rec.Address.String()))
	return rec, nil
}

func (s *Service) newVault(ctx context.Context, params domain.VaultParams) (domain.VaultRecord, error) {
	if err := params.Validate(); err != nil {
		return domain.VaultRecord{}, err
	}
	if s.factories == nil {
		return domain.VaultRecord{}, fmt.Errorf("factory dialer not configured")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	release, factoryAddr, err := s.resolveFactory(ctx, params.ReleaseDelta)
	if err != nil {
		return domain.VaultRecord{}, err
	}

	factory, err := s.factories.Dial(ctx, factoryAddr)
	if err != nil {
		return domain.VaultRecord{}, fmt.Errorf("dial factory %s: %w", factoryAddr, err)
	}

	apiVersion, err := factory.APIVersion(ctx)
	if err != nil {
		return domain.VaultRecord{}, fmt.Errorf("query factory api version: %w", err)
	}

	vault, err := factory.DeployVault(ctx, params)
	if err != nil {
		return domain.VaultRecord{}, fmt.Errorf("deploy vault: %w", err)
	}

	rec := domain.VaultRecord{
		ID:           uuid.NewString(),
		Address:      vault,
		Asset:        params.Asset,
		Release:      release,
		APIVersion:   apiVersion,
		RegisteredAt: s.clock(),
	}
	if err := s.repo.AddVault(ctx, rec); err != nil {
		return domain.VaultRecord{}, fmt.Errorf("index vault %s: %w", vault, err)
	}

	log.Info(log.CatRegistry, "vault created",
		"vault", vault, "asset", params.Asset, "release", release, "api_version", apiVersion)
	s.publish(ctx, EventVaultCreated, EventPayload{
		Address:    vault,
		Asset:      params.Asset,
		APIVersion: apiVersion,
	})
	return rec, nil
}

// RegisterVault adopts a vault deployed outside this service, for
// example directly through a factory. The bytecode at the vault address
// must be byte-for-byte identical to the resolved release's blueprint,
// otherwise the call fails with ErrNotAClone.
func (s *Service) RegisterVault(ctx context.Context, vault, asset domain.Address, releaseDelta uint64) (domain.VaultRecord, error) {
	ctx, span := s.tracer.Start(ctx, "registry.RegisterVault", trace.WithAttributes(
		attribute.String("vault", vault.String()),
		attribute.String("asset", asset.String()),
	))
	defer span.End()

	rec, err := s.registerVault(ctx, vault, asset, releaseDelta)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return domain.VaultRecord{}, err
	}
	return rec, nil
}

func (s *Service) registerVault(ctx context.Context, vault, asset domain.Address, releaseDelta uint64) (domain.VaultRecord, error) {
	if vault.IsZero() {
		return domain.VaultRecord{}, domain.ErrZeroVault
	}
	if asset.IsZero() {
		return domain.VaultRecord{}, domain.ErrZeroAsset
	}
	if s.factories == nil || s.code == nil {
		return domain.VaultRecord{}, fmt.Errorf("factory dialer and code reader not configured")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	release, factoryAddr, err := s.resolveFactory(ctx, releaseDelta)
	if err != nil {
		return domain.VaultRecord{}, err
	}

	factory, err := s.factories.Dial(ctx, factoryAddr)
	if err != nil {
		return domain.VaultRecord{}, fmt.Errorf("dial factory %s: %w", factoryAddr, err)
	}

	blueprint, err := factory.VaultBlueprint(ctx)
	if err != nil {
		return domain.VaultRecord{}, fmt.Errorf("query vault blueprint: %w", err)
	}

	blueprintCode, err := s.code.CodeAt(ctx, blueprint)
	if err != nil {
		return domain.VaultRecord{}, fmt.Errorf("read blueprint code at %s: %w", blueprint, err)
	}
	if len(blueprintCode) == 0 {
		return domain.VaultRecord{}, fmt.Errorf("no bytecode at blueprint %s", blueprint)
	}
	vaultCode, err := s.code.CodeAt(ctx, vault)
	if err != nil {
		return domain.VaultRecord{}, fmt.Errorf("read vault code at %s: %w", vault, err)
	}
	if !bytes.Equal(vaultCode, blueprintCode) {
		return domain.VaultRecord{}, &domain.NotACloneError{Vault: vault, Blueprint: blueprint}
	}

	apiVersion, err := factory.APIVersion(ctx)
	if err != nil {
		return domain.VaultRecord{}, fmt.Errorf("query factory api version: %w", err)
	}

	rec := domain.VaultRecord{
		ID:           uuid.NewString(),
		Address:      vault,
		Asset:        asset,
		Release:      release,
		APIVersion:   apiVersion,
		RegisteredAt: s.clock(),
	}
	if err := s.repo.AddVault(ctx, rec); err != nil {
		return domain.VaultRecord{}, fmt.Errorf("index vault %s: %w", vault, err)
	}

	// Adoption publishes no event; only NewVault announces creations.
	log.Info(log.CatRegistry, "vault registered",
		"vault", vault, "asset", asset, "release", release, "api_version", apiVersion)
	return rec, nil
}

// NewStrategy indexes a strategy against an asset. The release index is
// derived from the strategy's self-reported API version string; an
// unmapped version resolves to release 0.
func (s *Service) NewStrategy(ctx context.Context, strategy, asset domain.Address) (domain.StrategyRecord, error) {
	ctx, span := s.tracer.Start(ctx, "registry.NewStrategy", trace.WithAttributes(
		attribute.String("strategy", strategy.String()),
		attribute.String("asset", asset.String()),
	))
	defer span.End()

	rec, err := s.newStrategy(ctx, strategy, asset)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return domain.StrategyRecord{}, err
	}
	return rec, nil
}

func (s *Service) newStrategy(ctx context.Context, strategy, asset domain.Address) (domain.StrategyRecord, error) {
	if strategy.IsZero() {
		return domain.StrategyRecord{}, domain.ErrZeroStrategy
	}
	if asset.IsZero() {
		return domain.StrategyRecord{}, domain.ErrZeroAsset
	}
	if s.strategies == nil {
		return domain.StrategyRecord{}, fmt.Errorf("strategy reader not configured")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	apiVersion, err := s.strategies.APIVersion(ctx, strategy)
	if err != nil {
		return domain.StrategyRecord{}, fmt.Errorf("query strategy api version: %w", err)
	}

	release, ok, err := s.releases.ReleaseTarget(ctx, apiVersion)
	if err != nil {
		return domain.StrategyRecord{}, fmt.Errorf("resolve release for api version %q: %w", apiVersion, err)
	}
	if !ok {
		// Unmapped versions fall back to release 0, matching the
		// on-chain registry's mapping default.
		release = 0
		log.Warn(log.CatRegistry, "strategy api version unmapped, defaulting to release 0",
			"strategy", strategy, "api_version", apiVersion)
	}

	rec := domain.StrategyRecord{
		ID:           uuid.NewString(),
		Address:      strategy,
		Asset:        asset,
		Release:      release,
		APIVersion:   apiVersion,
		RegisteredAt: s.clock(),
	}
	if err := s.repo.AddStrategy(ctx, rec); err != nil {
		return domain.StrategyRecord{}, fmt.Errorf("index strategy %s: %w", strategy, err)
	}

	log.Info(log.CatRegistry, "strategy added",
		"strategy", strategy, "asset", asset, "release", release, "api_version", apiVersion)
	s.publish(ctx, EventStrategyAdded, EventPayload{
		Address:    strategy,
		Asset:      asset,
		APIVersion: apiVersion,
	})
	return rec, nil
}

// publish broadcasts an event and appends it to the durable log when
// one is configured. Log append failures do not fail the registration,
// which has already committed.
func (s *Service) publish(ctx context.Context, eventType pubsub.EventType, payload EventPayload) {
	event := s.broker.Publish(eventType, payload)
	if s.eventLog == nil {
		return
	}
	if err := s.eventLog.Append(ctx, event); err != nil {
		log.ErrorErr(log.CatEvents, "append event to durable log", err,
			"event_id", event.ID, "type", event.Type)
	}
}

// NumAssets returns the number of assets with at least one registration.
func (s *Service) NumAssets(ctx context.Context) (int, error) {
	return s.repo.NumAssets(ctx)
}

// Assets returns every registered asset in first-use order.
func (s *Service) Assets(ctx context.Context) ([]domain.Address, error) {
	return s.repo.Assets(ctx)
}

// NumVaults returns the number of vaults registered for the asset.
func (s *Service) NumVaults(ctx context.Context, asset domain.Address) (int, error) {
	return s.repo.NumVaults(ctx, asset)
}

// NumStrategies returns the number of strategies registered for the asset.
func (s *Service) NumStrategies(ctx context.Context, asset domain.Address) (int, error) {
	return s.repo.NumStrategies(ctx, asset)
}

// Vaults returns the asset's vaults in registration order.
func (s *Service) Vaults(ctx context.Context, asset domain.Address) ([]domain.VaultRecord, error) {
	return s.repo.Vaults(ctx, asset)
}

// VaultsByRelease returns the asset's vaults for one release index.
func (s *Service) VaultsByRelease(ctx context.Context, asset domain.Address, release uint64) ([]domain.VaultRecord, error) {
	return s.repo.VaultsByRelease(ctx, asset, release)
}

// Strategies returns the asset's strategies in registration order.
func (s *Service) Strategies(ctx context.Context, asset domain.Address) ([]domain.StrategyRecord, error) {
	return s.repo.Strategies(ctx, asset)
}

// StrategiesByRelease returns the asset's strategies for one release index.
func (s *Service) StrategiesByRelease(ctx context.Context, asset domain.Address, release uint64) ([]domain.StrategyRecord, error) {
	return s.repo.StrategiesByRelease(ctx, asset, release)
}

// AllVaults returns every vault list keyed by asset. Intended for
// off-process consumers; the result is unbounded.
func (s *Service) AllVaults(ctx context.Context) (map[domain.Address][]domain.VaultRecord, error) {
	return s.repo.AllVaults(ctx)
}

// AllStrategies returns every strategy list keyed by asset.
func (s *Service) AllStrategies(ctx context.Context) (map[domain.Address][]domain.StrategyRecord, error) {
	return s.repo.AllStrategies(ctx)
}

// Events returns the most recent durable events, oldest first.
func (s *Service) Events(ctx context.Context, limit int) ([]Event, error) {
	if s.eventLog == nil {
		return nil, nil
	}
	return s.eventLog.List(ctx, limit)
}

// EventsSince returns the durable events appended after the given event
// id, oldest first. The durable log is shared across processes, so a
// follower polling this sees registrations made by other instances.
func (s *Service) EventsSince(ctx context.Context, sinceID string) ([]Event, error) {
	if s.eventLog == nil {
		return nil, nil
	}
	return s.eventLog.ListSince(ctx, sinceID)
}
