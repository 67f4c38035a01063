package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/driftware/vaultindex/internal/registry/domain"
)

// record is the builder's working form of a registration. VaultRecord
// and StrategyRecord share a shape, so one option set serves both.
type record domain.VaultRecord

func defaultRecord(address, asset domain.Address) record {
	return record{
		ID:           uuid.NewString(),
		Address:      address,
		Asset:        asset,
		Release:      0,
		APIVersion:   "3.0.2",
		RegisteredAt: time.Now().Truncate(time.Second),
	}
}

// RecordOption configures a registration during builder setup.
type RecordOption func(*record)

// WithRelease sets the record's release index.
func WithRelease(release uint64) RecordOption {
	return func(r *record) { r.Release = release }
}

// WithAPIVersion sets the record's API version string.
func WithAPIVersion(apiVersion string) RecordOption {
	return func(r *record) { r.APIVersion = apiVersion }
}

// WithID sets the record's id instead of a generated uuid.
func WithID(id string) RecordOption {
	return func(r *record) { r.ID = id }
}

// WithRegisteredAt sets the record's registration time.
func WithRegisteredAt(at time.Time) RecordOption {
	return func(r *record) { r.RegisteredAt = at }
}
