package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/driftware/vaultindex/internal/registry/domain"
)

// recordColumns is the list of columns to select for vault and strategy
// queries.
const recordColumns = `id, address, asset, release_index, api_version, registered_at`

// registryRepository implements domain.Repository using SQLite.
type registryRepository struct {
	db *sql.DB
}

func newRegistryRepository(db *sql.DB) *registryRepository {
	return &registryRepository{db: db}
}

// Ensure registryRepository implements domain.Repository.
var _ domain.Repository = (*registryRepository)(nil)

// scanRecord scans a row into a recordModel.
func scanRecord(scanner interface{ Scan(...any) error }) (recordModel, error) {
	var m recordModel
	err := scanner.Scan(&m.ID, &m.Address, &m.Asset, &m.ReleaseIndex, &m.APIVersion, &m.RegisteredAt)
	return m, err
}

// addRecord inserts a row into table and registers the asset, all in
// one transaction.
func (r *registryRepository) addRecord(ctx context.Context, table string, m recordModel) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM `+table+` WHERE asset = ? AND address = ?)`,
		m.Asset, m.Address,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check existing registration: %w", err)
	}
	if exists {
		return domain.ErrAlreadyRegistered
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO `+table+` (`+recordColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.Address, m.Asset, m.ReleaseIndex, m.APIVersion, m.RegisteredAt,
	)
	if err != nil {
		return fmt.Errorf("insert into %s: %w", table, err)
	}

	// First use registers the asset; later registrations are no-ops.
	_, err = tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO assets (address) VALUES (?)`,
		m.Asset,
	)
	if err != nil {
		return fmt.Errorf("register asset: %w", err)
	}

	return tx.Commit()
}

// AddVault appends a vault record, registering the asset on first use.
func (r *registryRepository) AddVault(ctx context.Context, rec domain.VaultRecord) error {
	if rec.Address.IsZero() {
		return domain.ErrZeroVault
	}
	if rec.Asset.IsZero() {
		return domain.ErrZeroAsset
	}
	return r.addRecord(ctx, "vaults", vaultToModel(rec))
}

// AddStrategy appends a strategy record, registering the asset on first use.
func (r *registryRepository) AddStrategy(ctx context.Context, rec domain.StrategyRecord) error {
	if rec.Address.IsZero() {
		return domain.ErrZeroStrategy
	}
	if rec.Asset.IsZero() {
		return domain.ErrZeroAsset
	}
	return r.addRecord(ctx, "strategies", strategyToModel(rec))
}

// Assets returns every registered asset in first-use order.
func (r *registryRepository) Assets(ctx context.Context) ([]domain.Address, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT address FROM assets ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var assets []domain.Address
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan asset row: %w", err)
		}
		asset, err := domain.ParseAddress(raw)
		if err != nil {
			return nil, fmt.Errorf("corrupt asset address %q: %w", raw, err)
		}
		assets = append(assets, asset)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate asset rows: %w", err)
	}
	return assets, nil
}

// NumAssets returns the number of registered assets.
func (r *registryRepository) NumAssets(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM assets`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count assets: %w", err)
	}
	return count, nil
}

// AssetIsUsed reports whether the asset has any registrations.
func (r *registryRepository) AssetIsUsed(ctx context.Context, asset domain.Address) (bool, error) {
	var used bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM assets WHERE address = ?)`,
		asset.String(),
	).Scan(&used)
	if err != nil {
		return false, fmt.Errorf("check asset use: %w", err)
	}
	return used, nil
}

func (r *registryRepository) queryRecords(ctx context.Context, table, where string, args ...any) ([]recordModel, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM `+table+` WHERE `+where+` ORDER BY seq`, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	var models []recordModel
	for rows.Next() {
		m, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s row: %w", table, err)
		}
		models = append(models, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s rows: %w", table, err)
	}
	return models, nil
}

func toVaults(models []recordModel) ([]domain.VaultRecord, error) {
	recs := make([]domain.VaultRecord, 0, len(models))
	for _, m := range models {
		rec, err := m.toVault()
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func toStrategies(models []recordModel) ([]domain.StrategyRecord, error) {
	recs := make([]domain.StrategyRecord, 0, len(models))
	for _, m := range models {
		rec, err := m.toStrategy()
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// Vaults returns the asset's vaults in registration order.
func (r *registryRepository) Vaults(ctx context.Context, asset domain.Address) ([]domain.VaultRecord, error) {
	models, err := r.queryRecords(ctx, "vaults", "asset = ?", asset.String())
	if err != nil {
		return nil, err
	}
	return toVaults(models)
}

// VaultsByRelease returns the asset's vaults for one release index.
func (r *registryRepository) VaultsByRelease(ctx context.Context, asset domain.Address, release uint64) ([]domain.VaultRecord, error) {
	models, err := r.queryRecords(ctx, "vaults", "asset = ? AND release_index = ?", asset.String(), int64(release))
	if err != nil {
		return nil, err
	}
	return toVaults(models)
}

// NumVaults returns the number of vaults registered for the asset.
func (r *registryRepository) NumVaults(ctx context.Context, asset domain.Address) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM vaults WHERE asset = ?`, asset.String(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count vaults: %w", err)
	}
	return count, nil
}

// Strategies returns the asset's strategies in registration order.
func (r *registryRepository) Strategies(ctx context.Context, asset domain.Address) ([]domain.StrategyRecord, error) {
	models, err := r.queryRecords(ctx, "strategies", "asset = ?", asset.String())
	if err != nil {
		return nil, err
	}
	return toStrategies(models)
}

// StrategiesByRelease returns the asset's strategies for one release index.
func (r *registryRepository) StrategiesByRelease(ctx context.Context, asset domain.Address, release uint64) ([]domain.StrategyRecord, error) {
	models, err := r.queryRecords(ctx, "strategies", "asset = ? AND release_index = ?", asset.String(), int64(release))
	if err != nil {
		return nil, err
	}
	return toStrategies(models)
}

// NumStrategies returns the number of strategies registered for the asset.
func (r *registryRepository) NumStrategies(ctx context.Context, asset domain.Address) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM strategies WHERE asset = ?`, asset.String(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count strategies: %w", err)
	}
	return count, nil
}

// AllVaults returns every vault list keyed by asset.
func (r *registryRepository) AllVaults(ctx context.Context) (map[domain.Address][]domain.VaultRecord, error) {
	models, err := r.queryRecords(ctx, "vaults", "1 = 1")
	if err != nil {
		return nil, err
	}
	out := make(map[domain.Address][]domain.VaultRecord)
	for _, m := range models {
		rec, err := m.toVault()
		if err != nil {
			return nil, err
		}
		out[rec.Asset] = append(out[rec.Asset], rec)
	}
	return out, nil
}

// AllStrategies returns every strategy list keyed by asset.
func (r *registryRepository) AllStrategies(ctx context.Context) (map[domain.Address][]domain.StrategyRecord, error) {
	models, err := r.queryRecords(ctx, "strategies", "1 = 1")
	if err != nil {
		return nil, err
	}
	out := make(map[domain.Address][]domain.StrategyRecord)
	for _, m := range models {
		rec, err := m.toStrategy()
		if err != nil {
			return nil, err
		}
		out[rec.Asset] = append(out[rec.Asset], rec)
	}
	return out, nil
}

// Close is a no-op because the connection is owned by the DB struct.
func (r *registryRepository) Close() error {
	return nil
}
