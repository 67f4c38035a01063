package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/driftware/vaultindex/internal/pubsub"
	"github.com/driftware/vaultindex/internal/registry/application"
	"github.com/driftware/vaultindex/internal/registry/domain"
)

// eventLog implements application.EventLog using SQLite. Appends are
// idempotent on the event id so a replayed publish is not double-stored.
type eventLog struct {
	db *sql.DB
}

func newEventLog(db *sql.DB) *eventLog {
	return &eventLog{db: db}
}

var _ application.EventLog = (*eventLog)(nil)

// Append persists an event to the durable log.
func (l *eventLog) Append(ctx context.Context, event application.Event) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO events (id, type, address, asset, api_version, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		event.ID,
		string(event.Type),
		event.Payload.Address.String(),
		event.Payload.Asset.String(),
		event.Payload.APIVersion,
		event.Timestamp.Unix(),
	)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// List returns the most recent events, oldest first, up to limit.
// limit <= 0 means no limit.
func (l *eventLog) List(ctx context.Context, limit int) ([]application.Event, error) {
	query := `SELECT id, type, address, asset, api_version, created_at FROM events ORDER BY seq`
	var args []any
	if limit > 0 {
		// Take the newest rows, then flip back to oldest-first order.
		query = `SELECT id, type, address, asset, api_version, created_at FROM (
			SELECT seq, id, type, address, asset, api_version, created_at
			FROM events ORDER BY seq DESC LIMIT ?
		) ORDER BY seq`
		args = append(args, limit)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return scanEvents(rows)
}

// ListSince returns the events appended after the event with the given
// id, oldest first. An empty or unknown id returns the whole log.
func (l *eventLog) ListSince(ctx context.Context, sinceID string) ([]application.Event, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, type, address, asset, api_version, created_at FROM events
		 WHERE seq > COALESCE((SELECT seq FROM events WHERE id = ?), 0)
		 ORDER BY seq`, sinceID)
	if err != nil {
		return nil, fmt.Errorf("list events since %q: %w", sinceID, err)
	}
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]application.Event, error) {
	defer func() { _ = rows.Close() }()

	var events []application.Event
	for rows.Next() {
		var (
			event          application.Event
			typ            string
			address, asset string
			createdAt      int64
			err            error
		)
		if err = rows.Scan(&event.ID, &typ, &address, &asset, &event.Payload.APIVersion, &createdAt); err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		event.Type = pubsub.EventType(typ)
		if event.Payload.Address, err = domain.ParseAddress(address); err != nil {
			return nil, fmt.Errorf("corrupt event address %q: %w", address, err)
		}
		if event.Payload.Asset, err = domain.ParseAddress(asset); err != nil {
			return nil, fmt.Errorf("corrupt event asset %q: %w", asset, err)
		}
		event.Timestamp = time.Unix(createdAt, 0)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event rows: %w", err)
	}
	return events, nil
}
