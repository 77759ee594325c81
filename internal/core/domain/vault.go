package domain

import (
	"encoding/json"
	"fmt"

	"github.com/mpurse-network/mpurse-daemon/pkg/wallet"
)

// CurrentVaultVersion is the schema version written on every save.
const CurrentVaultVersion = 4

// VaultBlob is the encrypted part of the persisted record.
type VaultBlob struct {
	Data     string `json:"data"`
	Checksum string `json:"checksum"`
}

// StoredVault is the single record persisted by the wallet.
type StoredVault struct {
	Version     int          `json:"version"`
	Preferences *Preferences `json:"preferences"`
	Vault       *VaultBlob   `json:"vault,omitempty"`
}

// NewStoredVault encrypts the given vault data with the password and returns
// the record to persist at the current schema version.
func NewStoredVault(
	preferences *Preferences, data VaultData, password string,
) (*StoredVault, error) {
	buf, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	cypherText, err := wallet.Encrypt(wallet.EncryptOpts{
		PlainText:  string(buf),
		Passphrase: password,
	})
	if err != nil {
		return nil, err
	}
	checksum, err := wallet.Checksum(password)
	if err != nil {
		return nil, err
	}

	return &StoredVault{
		Version:     CurrentVaultVersion,
		Preferences: preferences.Copy(),
		Vault: &VaultBlob{
			Data:     cypherText,
			Checksum: checksum,
		},
	}, nil
}

// HasVault returns whether the record carries an encrypted vault. Records
// with preferences only are left by settings saved before registration.
func (v *StoredVault) HasVault() bool {
	return v != nil && v.Vault != nil &&
		len(v.Vault.Data) > 0 && len(v.Vault.Checksum) > 0
}

// VerifyPassword checks the password against the stored checksum before
// any decryption is attempted.
func (v *StoredVault) VerifyPassword(password string) error {
	if !v.HasVault() {
		return ErrVaultNotFound
	}
	ok, err := wallet.VerifyChecksum(v.Vault.Checksum, password)
	if err != nil || !ok {
		return ErrUnlockFailed
	}
	return nil
}

// Open verifies the password and decrypts the vault. The returned record
// keeps the stored version, it's up to the caller to Migrate it.
func (v *StoredVault) Open(password string) (*VersionedRecord, error) {
	if err := v.VerifyPassword(password); err != nil {
		return nil, err
	}

	var (
		plaintext string
		err       error
	)
	if wallet.IsLegacyCypherText(v.Vault.Data) {
		plaintext, err = wallet.DecryptLegacy(wallet.DecryptLegacyOpts{
			CypherText: v.Vault.Data,
			Passphrase: password,
		})
	} else {
		plaintext, err = wallet.Decrypt(wallet.DecryptOpts{
			CypherText: v.Vault.Data,
			Passphrase: password,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt vault: %w", err)
	}

	var data VaultData
	if err := json.Unmarshal([]byte(plaintext), &data); err != nil {
		return nil, fmt.Errorf("failed to parse vault: %w", err)
	}
	if data.Hdkey == nil {
		return nil, fmt.Errorf("failed to parse vault: missing hdkey")
	}
	if data.PrivateKeys == nil {
		data.PrivateKeys = make([]string, 0)
	}

	preferences := NewPreferences(false, "")
	if v.Preferences != nil {
		preferences = v.Preferences.Copy()
	}

	return &VersionedRecord{
		Version:     v.Version,
		Preferences: *preferences,
		Data:        data,
	}, nil
}
