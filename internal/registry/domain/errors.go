package domain

import (
	"errors"
	"fmt"
)

// Registration errors
var (
	// ErrUnknownRelease is returned when the resolved release index has no
	// registered factory (release delta out of range, or a zero-address
	// factory at the target index).
	ErrUnknownRelease = errors.New("unknown release")

	// ErrNotAClone is returned when the bytecode at a vault address is not
	// byte-for-byte identical to the target release's blueprint bytecode.
	ErrNotAClone = errors.New("vault is not a blueprint clone")

	// ErrAlreadyRegistered is returned when an address is already indexed
	// for the given asset. The index is append-only, so a second
	// registration can never be reconciled with the first.
	ErrAlreadyRegistered = errors.New("address already registered for asset")

	// ErrNilRecord is returned when a nil or zero-valued record is handed
	// to a repository.
	ErrNilRecord = errors.New("record cannot be empty")
)

// UnknownReleaseError wraps ErrUnknownRelease with the release delta the
// caller asked for and, when the delta was in range, the index it
// resolved to.
type UnknownReleaseError struct {
	Delta   uint64 // releases back from latest, as requested
	Release uint64 // resolved index, meaningful only when Yanked
	Yanked  bool   // the resolved slot exists but carries no factory
}

func (e *UnknownReleaseError) Error() string {
	if e.Yanked {
		return fmt.Sprintf("unknown release %d: no factory registered (delta %d from latest)", e.Release, e.Delta)
	}
	return fmt.Sprintf("unknown release: delta %d is past the oldest release", e.Delta)
}

// Unwrap makes errors.Is(err, ErrUnknownRelease) hold.
func (e *UnknownReleaseError) Unwrap() error {
	return ErrUnknownRelease
}

// NotACloneError wraps ErrNotAClone with the addresses that were compared.
type NotACloneError struct {
	Vault     Address
	Blueprint Address
}

func (e *NotACloneError) Error() string {
	return fmt.Sprintf("bytecode at %s does not match blueprint %s", e.Vault, e.Blueprint)
}

// Unwrap makes errors.Is(err, ErrNotAClone) hold.
func (e *NotACloneError) Unwrap() error {
	return ErrNotAClone
}
