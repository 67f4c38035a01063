// Package domain holds the core types for the vault registry index.
//
// It follows the repo's domain-layer conventions: pure Go with standard
// library imports only, value objects (Address), record entities
// (VaultRecord, StrategyRecord), sentinel errors, and the ports the
// application layer is wired against (Repository, ReleaseSource,
// VaultFactory, CodeReader, StrategyReader).
//
// The index is append-only. Every per-asset flat list is the
// insertion-ordered union of that asset's per-release sublists, and an
// asset joins the global asset list exactly once, on first use. These
// invariants are enforced by the repositories and checked by the
// property tests in the application package.
package domain
