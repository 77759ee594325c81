package domain_test

import (
	"testing"

	"github.com/mpurse-network/mpurse-daemon/internal/core/domain"
	"github.com/stretchr/testify/require"
)

func TestIncrementAccountName(t *testing.T) {
	p := domain.NewPreferences(false, "")
	require.Equal(t, "Account 1", p.IncrementAccountName("Account", 1))

	p.AddIdentity(domain.Identity{Address: "a", Name: "Account 1"})
	p.AddIdentity(domain.Identity{Address: "b", Name: "Account 2"})
	p.AddIdentity(domain.Identity{Address: "c", Name: "Account 4"})

	require.Equal(t, "Account 3", p.IncrementAccountName("Account", 1))
	require.Equal(t, "Account 3", p.IncrementAccountName("Account", 3))
	require.Equal(t, "Account 5", p.IncrementAccountName("Account", 4))
	require.Equal(t, "Wallet 1", p.IncrementAccountName("Wallet", 1))
}

func TestAddIdentityKeepsAddressesUnique(t *testing.T) {
	p := domain.NewPreferences(false, "")

	require.True(t, p.AddIdentity(domain.Identity{Address: "a", Name: "first"}))
	require.False(t, p.AddIdentity(domain.Identity{Address: "a", Name: "second"}))
	require.Len(t, p.Identities, 1)

	identity, ok := p.GetIdentity("a")
	require.True(t, ok)
	require.Equal(t, "first", identity.Name)
}

func TestSetName(t *testing.T) {
	p := domain.NewPreferences(false, "")
	p.AddIdentity(domain.Identity{Address: "a", Name: "Account 1"})
	p.AddIdentity(domain.Identity{Address: "b", Name: "Account 2"})

	require.NoError(t, p.SetName("a", "Savings"))
	identity, _ := p.GetIdentity("a")
	require.Equal(t, "Savings", identity.Name)

	tests := []struct {
		name        string
		address     string
		newName     string
		expectedErr error
	}{
		{"unknown address", "c", "Other", domain.ErrAccountNotFound},
		{"empty name", "a", "", domain.ErrEmptyName},
		{"duplicate name", "a", "Account 2", domain.ErrDuplicateName},
		{"same name", "b", "Account 2", domain.ErrDuplicateName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := p.SetName(tt.address, tt.newName)
			require.ErrorIs(t, err, tt.expectedErr)
		})
	}
}

func TestRemoveIdentity(t *testing.T) {
	p := domain.NewPreferences(true, "ja")
	p.AddIdentity(domain.Identity{Address: "a", Name: "Account 1"})
	p.AddIdentity(domain.Identity{Address: "b", Name: "Account 2"})

	p.RemoveIdentity("a")
	require.Len(t, p.Identities, 1)
	_, ok := p.GetIdentity("a")
	require.False(t, ok)
	require.False(t, p.HasName("Account 1"))
}

func TestCopyPreferences(t *testing.T) {
	p := domain.NewPreferences(true, "ja")
	p.AddIdentity(domain.Identity{Address: "a", Name: "Account 1"})

	cp := p.Copy()
	require.NoError(t, cp.SetName("a", "Renamed"))

	identity, _ := p.GetIdentity("a")
	require.Equal(t, "Account 1", identity.Name)
	require.True(t, cp.IsAdvancedModeEnabled)
	require.Equal(t, "ja", cp.Lang)
}
