package domain

import (
	"encoding/hex"

	"github.com/mpurse-network/mpurse-daemon/pkg/wallet"
)

// ImportedAccountIndex is the derivation index of accounts created from an
// imported private key.
const ImportedAccountIndex = -1

// Account is a spendable key of the keyring. Accounts are never mutated
// after creation.
type Account struct {
	Index   int
	Address string
	key     *wallet.Key
}

// IsImported returns whether the account comes from an imported WIF rather
// than from the HD seed.
func (a *Account) IsImported() bool {
	return a.Index == ImportedAccountIndex
}

// Key returns the signing key of the account.
func (a *Account) Key() *wallet.Key {
	return a.key
}

// PublicKey returns the hex encoded public key of the account.
func (a *Account) PublicKey() string {
	return hex.EncodeToString(a.key.SerializedPublicKey())
}

// WIF ...
func (a *Account) WIF() string {
	return a.key.WIF()
}
