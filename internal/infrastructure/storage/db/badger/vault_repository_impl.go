package dbbadger

import (
	"context"

	"github.com/mpurse-network/mpurse-daemon/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

// the wallet persists a single record.
const vaultKey = "vault"

type vaultRepositoryImpl struct {
	store *badgerhold.Store
}

// NewVaultRepositoryImpl returns a badger implementation of
// domain.VaultRepository.
func NewVaultRepositoryImpl(store *badgerhold.Store) domain.VaultRepository {
	return vaultRepositoryImpl{store}
}

func (r vaultRepositoryImpl) GetVault(
	_ context.Context,
) (*domain.StoredVault, error) {
	var vault domain.StoredVault
	if err := r.store.Get(vaultKey, &vault); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, domain.ErrVaultNotFound
		}
		return nil, err
	}
	return &vault, nil
}

func (r vaultRepositoryImpl) SaveVault(
	_ context.Context, vault *domain.StoredVault,
) error {
	return r.store.Upsert(vaultKey, *vault)
}

func (r vaultRepositoryImpl) UpdatePreferences(
	_ context.Context,
	updateFn func(p *domain.Preferences) (*domain.Preferences, error),
) error {
	tx := r.store.Badger().NewTransaction(true)
	defer tx.Discard()

	var vault domain.StoredVault
	if err := r.store.TxGet(tx, vaultKey, &vault); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil
		}
		return err
	}

	preferences := domain.NewPreferences(false, "")
	if vault.Preferences != nil {
		preferences = vault.Preferences
	}
	updatedPreferences, err := updateFn(preferences)
	if err != nil {
		return err
	}
	vault.Preferences = updatedPreferences

	if err := r.store.TxUpsert(tx, vaultKey, vault); err != nil {
		return err
	}
	return tx.Commit()
}

func (r vaultRepositoryImpl) PurgeVault(_ context.Context) error {
	if err := r.store.Delete(vaultKey, domain.StoredVault{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil
		}
		return err
	}
	return nil
}
