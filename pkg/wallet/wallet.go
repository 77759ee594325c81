package wallet

import (
	"errors"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
)

var (
	// ErrNullNetwork ...
	ErrNullNetwork = errors.New("network params are null")
	// ErrNullMnemonic ...
	ErrNullMnemonic = errors.New("mnemonic must not be null")
	// ErrNullSeed ...
	ErrNullSeed = errors.New("seed must not be null")
	// ErrNullPassphrase ...
	ErrNullPassphrase = errors.New("passphrase must not be null")
	// ErrNullPlainText ...
	ErrNullPlainText = errors.New("text to encrypt must not be null")
	// ErrNullCypherText ...
	ErrNullCypherText = errors.New("cypher to decrypt must not be null")
	// ErrNullDerivationPath ...
	ErrNullDerivationPath = errors.New("derivation path must not be null")
	// ErrNullTransaction ...
	ErrNullTransaction = errors.New("transaction hex must not be null")
	// ErrNullPrevOutFetcher ...
	ErrNullPrevOutFetcher = errors.New(
		"a previous output fetcher is required to sign multisig inputs",
	)

	// ErrUnknownNetwork ...
	ErrUnknownNetwork = errors.New("unknown network")
	// ErrUnsupportedSeedVersion is returned for seed versions that cannot be
	// turned into a seed, Electrum2 included.
	ErrUnsupportedSeedVersion = errors.New("unsupported seed version")
	// ErrInvalidMnemonic ...
	ErrInvalidMnemonic = errors.New("mnemonic is invalid")
	// ErrInvalidEncoding is returned for malformed WIF and base58 strings.
	ErrInvalidEncoding = errors.New("invalid encoding")
	// ErrInvalidCypherText ...
	ErrInvalidCypherText = errors.New("cypher must be in base64 format")
	// ErrInvalidPassphrase is returned when a cypher can't be opened with the
	// given passphrase.
	ErrInvalidPassphrase = errors.New("invalid passphrase")
	// ErrInvalidChecksum ...
	ErrInvalidChecksum = errors.New("malformed passphrase checksum")
	// ErrInvalidDerivationPath ...
	ErrInvalidDerivationPath = errors.New("invalid derivation path")
	// ErrInvalidTransaction ...
	ErrInvalidTransaction = errors.New("transaction must be a valid hex encoded tx")
	// ErrInvalidSignature ...
	ErrInvalidSignature = errors.New("signature must be a base64 compact signature")
	// ErrInvalidPrevOutput ...
	ErrInvalidPrevOutput = errors.New("previous output script is not multisig")
	// ErrUnknownScriptType is returned when an input spends a script that
	// can't be classified.
	ErrUnknownScriptType = errors.New("unknown script type")

	// ErrMalformedDerivationPath ...
	ErrMalformedDerivationPath = errors.New(
		"path must not start or end with a '/' and " +
			"can optionally start with 'm/' for absolute paths",
	)
)

// Wallet holds the HD master key derived from a mnemonic and lets derive
// the account keys below it.
type Wallet struct {
	seedVersion SeedVersion
	masterKey   *hdkeychain.ExtendedKey
	network     *chaincfg.Params
}

// NewWalletFromMnemonicOpts is the struct given to the NewWalletFromMnemonic
// method
type NewWalletFromMnemonicOpts struct {
	Mnemonic    string
	SeedVersion SeedVersion
	Network     *chaincfg.Params
}

func (o NewWalletFromMnemonicOpts) validate() error {
	if len(o.Mnemonic) <= 0 {
		return ErrNullMnemonic
	}
	if !o.SeedVersion.IsValid() {
		return ErrUnsupportedSeedVersion
	}
	if o.Network == nil {
		return ErrNullNetwork
	}
	return nil
}

// NewWalletFromMnemonic turns the mnemonic into a seed according to the seed
// version and builds the HD master key out of it.
func NewWalletFromMnemonic(opts NewWalletFromMnemonicOpts) (*Wallet, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	seed, err := DeriveSeed(opts.Mnemonic, opts.SeedVersion)
	if err != nil {
		return nil, err
	}
	masterKey, err := NewMasterKey(seed, opts.Network)
	if err != nil {
		return nil, err
	}

	return &Wallet{
		seedVersion: opts.SeedVersion,
		masterKey:   masterKey,
		network:     opts.Network,
	}, nil
}

// NewMasterKey returns the BIP32 master key for the given seed.
func NewMasterKey(seed []byte, net *chaincfg.Params) (*hdkeychain.ExtendedKey, error) {
	if len(seed) <= 0 {
		return nil, ErrNullSeed
	}
	if net == nil {
		return nil, ErrNullNetwork
	}
	return hdkeychain.NewMaster(seed, net)
}

// SeedVersion returns the seed version the wallet was created with.
func (w *Wallet) SeedVersion() SeedVersion {
	return w.seedVersion
}

// Network returns the params of the network the wallet derives keys for.
func (w *Wallet) Network() *chaincfg.Params {
	return w.network
}
