package inmemory

import (
	"context"
	"sync"

	"github.com/mpurse-network/mpurse-daemon/internal/core/domain"
)

// VaultRepositoryImpl represents an in memory storage
type VaultRepositoryImpl struct {
	store *vaultStore
}

// NewVaultRepositoryImpl returns a new empty VaultRepositoryImpl
func NewVaultRepositoryImpl() domain.VaultRepository {
	return &VaultRepositoryImpl{
		store: &vaultStore{
			locker: &sync.Mutex{},
		},
	}
}

func (r *VaultRepositoryImpl) GetVault(
	_ context.Context,
) (*domain.StoredVault, error) {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	if r.store.vault == nil {
		return nil, domain.ErrVaultNotFound
	}
	return copyVault(r.store.vault), nil
}

func (r *VaultRepositoryImpl) SaveVault(
	_ context.Context, vault *domain.StoredVault,
) error {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	r.store.vault = copyVault(vault)
	return nil
}

func (r *VaultRepositoryImpl) UpdatePreferences(
	_ context.Context,
	updateFn func(p *domain.Preferences) (*domain.Preferences, error),
) error {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	if r.store.vault == nil {
		return nil
	}

	vault := copyVault(r.store.vault)
	if vault.Preferences == nil {
		vault.Preferences = domain.NewPreferences(false, "")
	}
	updatedPreferences, err := updateFn(vault.Preferences)
	if err != nil {
		return err
	}
	vault.Preferences = updatedPreferences

	r.store.vault = vault
	return nil
}

func (r *VaultRepositoryImpl) PurgeVault(_ context.Context) error {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	r.store.vault = nil
	return nil
}

func copyVault(vault *domain.StoredVault) *domain.StoredVault {
	cp := *vault
	if vault.Preferences != nil {
		cp.Preferences = vault.Preferences.Copy()
	}
	if vault.Vault != nil {
		blob := *vault.Vault
		cp.Vault = &blob
	}
	return &cp
}
