package domain

import "context"

// VaultRepository persists the single StoredVault record. Writes replace
// the whole record.
type VaultRepository interface {
	// GetVault returns the stored record, ErrVaultNotFound if none.
	GetVault(ctx context.Context) (*StoredVault, error)
	// SaveVault replaces the stored record.
	SaveVault(ctx context.Context, vault *StoredVault) error
	// UpdatePreferences replaces the preferences of the stored record, if
	// any, leaving the rest untouched. It's a no-op if nothing is stored.
	UpdatePreferences(
		ctx context.Context,
		updateFn func(p *Preferences) (*Preferences, error),
	) error
	// PurgeVault removes everything stored.
	PurgeVault(ctx context.Context) error
}
