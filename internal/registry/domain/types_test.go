package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testAddr(t *testing.T, s string) Address {
	t.Helper()
	addr, err := ParseAddress(s)
	require.NoError(t, err)
	return addr
}

func TestVaultParams_Validate(t *testing.T) {
	asset := testAddr(t, "0x00000000000000000000000000000000000000a1")
	manager := testAddr(t, "0x00000000000000000000000000000000000000b1")

	valid := VaultParams{
		Asset:       asset,
		Name:        "Vault A",
		Symbol:      "vA",
		RoleManager: manager,
	}

	tests := []struct {
		name    string
		mutate  func(*VaultParams)
		wantErr error
	}{
		{"valid", func(p *VaultParams) {}, nil},
		{"zero asset", func(p *VaultParams) { p.Asset = ZeroAddress }, ErrZeroAsset},
		{"empty name", func(p *VaultParams) { p.Name = "" }, ErrEmptyName},
		{"empty symbol", func(p *VaultParams) { p.Symbol = "" }, ErrEmptySymbol},
		{"zero role manager", func(p *VaultParams) { p.RoleManager = ZeroAddress }, ErrZeroRoleManager},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantErr == nil {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestUnknownReleaseError_Unwraps(t *testing.T) {
	outOfRange := &UnknownReleaseError{Delta: 7}
	require.ErrorIs(t, outOfRange, ErrUnknownRelease)
	require.Contains(t, outOfRange.Error(), "delta 7")

	yanked := &UnknownReleaseError{Delta: 1, Release: 2, Yanked: true}
	require.ErrorIs(t, yanked, ErrUnknownRelease)
	require.Contains(t, yanked.Error(), "release 2")
	require.Contains(t, yanked.Error(), "delta 1")
}

func TestNotACloneError_Unwraps(t *testing.T) {
	vault := testAddr(t, "0x00000000000000000000000000000000000000c1")
	blueprint := testAddr(t, "0x00000000000000000000000000000000000000d1")

	err := &NotACloneError{Vault: vault, Blueprint: blueprint}
	require.ErrorIs(t, err, ErrNotAClone)
	require.Contains(t, err.Error(), vault.String())
	require.Contains(t, err.Error(), blueprint.String())
}
