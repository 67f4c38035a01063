package domain

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidAddress is returned when an address string cannot be parsed.
var ErrInvalidAddress = errors.New("invalid address")

// AddressLength is the byte length of a contract or account address.
const AddressLength = 20

// Address is a 20-byte contract or account identifier.
type Address [AddressLength]byte

// ZeroAddress marks an unregistered slot.
var ZeroAddress Address

// ParseAddress parses a 0x-prefixed 40-digit hex string. Mixed case is
// accepted; anything else is rejected with ErrInvalidAddress.
func ParseAddress(s string) (Address, error) {
	if !strings.HasPrefix(s, "0x") {
		return ZeroAddress, fmt.Errorf("%w: missing 0x prefix: %q", ErrInvalidAddress, s)
	}
	raw, err := hex.DecodeString(s[2:])
	if err != nil {
		return ZeroAddress, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	if len(raw) != AddressLength {
		return ZeroAddress, fmt.Errorf("%w: got %d bytes, want %d: %q", ErrInvalidAddress, len(raw), AddressLength, s)
	}

	var addr Address
	copy(addr[:], raw)
	return addr, nil
}

// String renders the address as 0x-prefixed lowercase hex.
func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// IsZero reports whether the address is the zero sentinel.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

// Bytes returns a copy of the raw address bytes.
func (a Address) Bytes() []byte {
	b := make([]byte, len(a))
	copy(b, a[:])
	return b
}
