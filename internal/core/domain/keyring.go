package domain

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/mpurse-network/mpurse-daemon/pkg/wallet"
)

// Hdkey is the HD metadata needed to regenerate the derived accounts.
type Hdkey struct {
	SeedVersion      wallet.SeedVersion `json:"seedVersion"`
	BasePath         string             `json:"basePath"`
	Mnemonic         string             `json:"mnemonic"`
	NumberOfAccounts int                `json:"numberOfAccounts"`
}

// VaultData is the plaintext content of the encrypted vault.
type VaultData struct {
	Hdkey       *Hdkey   `json:"hdkey"`
	PrivateKeys []string `json:"privatekeys"`
}

// InitKeyringOpts is the struct given to Keyring.Initialize method.
type InitKeyringOpts struct {
	Mnemonic         string
	SeedVersion      wallet.SeedVersion
	BasePath         string
	NumberOfAccounts int
	PrivateKeys      []string
}

func (o InitKeyringOpts) validate() error {
	if len(o.Mnemonic) <= 0 {
		return wallet.ErrNullMnemonic
	}
	if !o.SeedVersion.IsValid() {
		return ErrUnsupportedSeedVersion
	}
	if len(o.BasePath) <= 0 {
		return wallet.ErrNullDerivationPath
	}
	if o.NumberOfAccounts < 0 {
		return fmt.Errorf("number of accounts must not be negative")
	}
	return nil
}

// Keyring owns the accounts of the wallet, HD-derived ones first followed by
// the imported ones, in insertion order. No two accounts share an address.
type Keyring struct {
	network     *chaincfg.Params
	hdkey       Hdkey
	wallet      *wallet.Wallet
	privateKeys []string
	accounts    []*Account
}

// NewKeyring returns an empty keyring for the given network.
func NewKeyring(net *chaincfg.Params) *Keyring {
	if net == nil {
		net = &wallet.MainNetParams
	}
	return &Keyring{
		network:     net,
		privateKeys: make([]string, 0),
		accounts:    make([]*Account, 0),
	}
}

// Initialize drops every account and regenerates them from the given seed
// and imported keys.
func (k *Keyring) Initialize(opts InitKeyringOpts) error {
	if err := opts.validate(); err != nil {
		return err
	}

	w, err := wallet.NewWalletFromMnemonic(wallet.NewWalletFromMnemonicOpts{
		Mnemonic:    opts.Mnemonic,
		SeedVersion: opts.SeedVersion,
		Network:     k.network,
	})
	if err != nil {
		return err
	}

	accounts := make([]*Account, 0, opts.NumberOfAccounts+len(opts.PrivateKeys))
	keyring := &Keyring{network: k.network, wallet: w, accounts: accounts}

	for i := 0; i < opts.NumberOfAccounts; i++ {
		key, err := w.DeriveSigningKey(wallet.DeriveSigningKeyOpts{
			BasePath: opts.BasePath,
			Index:    uint32(i),
		})
		if err != nil {
			return err
		}
		keyring.setAccount(key, i)
	}

	privateKeys := make([]string, 0, len(opts.PrivateKeys))
	for _, wif := range opts.PrivateKeys {
		key, err := wallet.KeyFromWIF(wif, k.network)
		if err != nil {
			return err
		}
		keyring.setAccount(key, ImportedAccountIndex)
		privateKeys = append(privateKeys, wif)
	}

	k.wallet = w
	k.hdkey = Hdkey{
		SeedVersion:      opts.SeedVersion,
		BasePath:         opts.BasePath,
		Mnemonic:         opts.Mnemonic,
		NumberOfAccounts: opts.NumberOfAccounts,
	}
	k.privateKeys = privateKeys
	k.accounts = keyring.accounts
	return nil
}

// Serialize returns the plaintext snapshot to be encrypted into the vault.
func (k *Keyring) Serialize() VaultData {
	hdkey := k.hdkey
	privateKeys := make([]string, len(k.privateKeys))
	copy(privateKeys, k.privateKeys)
	return VaultData{
		Hdkey:       &hdkey,
		PrivateKeys: privateKeys,
	}
}

// Hdkey returns a copy of the HD metadata.
func (k *Keyring) Hdkey() Hdkey {
	return k.hdkey
}

// Mnemonic ...
func (k *Keyring) Mnemonic() string {
	return k.hdkey.Mnemonic
}

// Network ...
func (k *Keyring) Network() *chaincfg.Params {
	return k.network
}

// AddAccount derives the account at index NumberOfAccounts and appends it.
// The counter grows even if the derived address was already held.
func (k *Keyring) AddAccount() (*Account, error) {
	if k.wallet == nil {
		return nil, wallet.ErrNullMnemonic
	}

	index := k.hdkey.NumberOfAccounts
	key, err := k.wallet.DeriveSigningKey(wallet.DeriveSigningKeyOpts{
		BasePath: k.hdkey.BasePath,
		Index:    uint32(index),
	})
	if err != nil {
		return nil, err
	}

	k.setAccount(key, index)
	k.hdkey.NumberOfAccounts++
	return k.GetAccount(key.Address())
}

// ImportAccount adds the account of the given WIF. It fails with
// ErrDuplicateKey if the key is already held by some account.
func (k *Keyring) ImportAccount(wif string) (*Account, error) {
	key, err := wallet.KeyFromWIF(wif, k.network)
	if err != nil {
		return nil, err
	}
	if k.containsKey(key) {
		return nil, ErrDuplicateKey
	}

	k.setAccount(key, ImportedAccountIndex)
	k.privateKeys = append(k.privateKeys, wif)
	return k.GetAccount(key.Address())
}

// RemoveAccount drops the account with the given address. If the account was
// imported its WIF is dropped too. HD accounts come back at the next
// Initialize since NumberOfAccounts is left untouched.
func (k *Keyring) RemoveAccount(address string) error {
	account, err := k.GetAccount(address)
	if err != nil {
		return err
	}
	if len(k.accounts) <= 1 {
		return ErrLastAccount
	}

	privateKeys := make([]string, 0, len(k.privateKeys))
	for _, wif := range k.privateKeys {
		key, err := wallet.KeyFromWIF(wif, k.network)
		if err == nil && key.Equal(account.key) {
			continue
		}
		privateKeys = append(privateKeys, wif)
	}

	accounts := make([]*Account, 0, len(k.accounts)-1)
	for _, a := range k.accounts {
		if a.Address != address {
			accounts = append(accounts, a)
		}
	}

	k.privateKeys = privateKeys
	k.accounts = accounts
	return nil
}

// ContainsPrivateKey returns whether some account holds the key encoded by
// the given WIF. Keys are compared decoded.
func (k *Keyring) ContainsPrivateKey(wif string) (bool, error) {
	key, err := wallet.KeyFromWIF(wif, k.network)
	if err != nil {
		return false, err
	}
	return k.containsKey(key), nil
}

// GetPrivateKey returns the WIF of the account with the given address, or an
// empty string if not found.
func (k *Keyring) GetPrivateKey(address string) string {
	account, err := k.GetAccount(address)
	if err != nil {
		return ""
	}
	return account.WIF()
}

// GetAccount ...
func (k *Keyring) GetAccount(address string) (*Account, error) {
	for _, a := range k.accounts {
		if a.Address == address {
			return a, nil
		}
	}
	return nil, ErrAccountNotFound
}

// GetAccounts returns the accounts in insertion order.
func (k *Keyring) GetAccounts() []*Account {
	accounts := make([]*Account, len(k.accounts))
	copy(accounts, k.accounts)
	return accounts
}

// SignTransaction signs the given tx with the key of the account identified
// by address.
func (k *Keyring) SignTransaction(
	ctx context.Context,
	txHex, address string,
	fetcher wallet.PrevOutputFetcher,
) (string, error) {
	account, err := k.GetAccount(address)
	if err != nil {
		return "", err
	}
	return account.key.SignTransaction(ctx, wallet.SignTransactionOpts{
		TxHex:   txHex,
		Fetcher: fetcher,
	})
}

// SignMessage signs the given message with the key of the account
// identified by address.
func (k *Keyring) SignMessage(message, address string) (string, error) {
	account, err := k.GetAccount(address)
	if err != nil {
		return "", err
	}
	return account.key.SignMessage(message)
}

func (k *Keyring) setAccount(key *wallet.Key, index int) {
	address := key.Address()
	for _, a := range k.accounts {
		if a.Address == address {
			return
		}
	}
	k.accounts = append(k.accounts, &Account{
		Index:   index,
		Address: address,
		key:     key,
	})
}

func (k *Keyring) containsKey(key *wallet.Key) bool {
	for _, a := range k.accounts {
		if a.key.Equal(key) {
			return true
		}
	}
	return false
}
