package wallet

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tyler-smith/go-bip39"
	"github.com/tyler-smith/go-bip39/wordlists"
	"golang.org/x/text/unicode/norm"
)

const (
	electrum1Mnemonic = "hardly point goal hallway patience key stone difference ready caught listen fact"
	electrum1Seed     = "8edad31a95e7d59f8837667510d75a4d"
	bip39Mnemonic     = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
)

func TestElectrum1WordList(t *testing.T) {
	require.Len(t, electrum1Words, 1626)
	require.Len(t, electrum1Indexes, 1626)
}

func TestDeriveSeed(t *testing.T) {
	seed, err := DeriveSeed(electrum1Mnemonic, SeedVersionElectrum1)
	require.NoError(t, err)
	require.Equal(t, electrum1Seed, hex.EncodeToString(seed))

	// case and spacing don't matter
	seed, err = DeriveSeed(
		"  HARDLY point goal\thallway patience key stone difference ready caught listen fact ",
		SeedVersionElectrum1,
	)
	require.NoError(t, err)
	require.Equal(t, electrum1Seed, hex.EncodeToString(seed))

	seed, err = DeriveSeed(bip39Mnemonic, SeedVersionBip39)
	require.NoError(t, err)
	require.Len(t, seed, 64)
}

func TestDeriveSeedComposedMnemonic(t *testing.T) {
	bip39Lock.Lock()
	bip39.SetWordList(wordlists.Spanish)
	mnemonic, err := bip39.NewMnemonic(make([]byte, 16))
	bip39.SetWordList(wordlists.English)
	bip39Lock.Unlock()
	require.NoError(t, err)

	composed := norm.NFC.String(mnemonic)
	require.NotEqual(t, mnemonic, composed)

	seed, err := DeriveSeed(mnemonic, SeedVersionBip39)
	require.NoError(t, err)
	composedSeed, err := DeriveSeed(composed, SeedVersionBip39)
	require.NoError(t, err)
	require.Equal(t, seed, composedSeed)
}

func TestFailingDeriveSeed(t *testing.T) {
	tests := []struct {
		mnemonic string
		version  SeedVersion
		err      error
	}{
		{"", SeedVersionElectrum1, ErrNullMnemonic},
		{electrum1Mnemonic, SeedVersionElectrum2, ErrUnsupportedSeedVersion},
		{electrum1Mnemonic, SeedVersion("Electrum3"), ErrUnsupportedSeedVersion},
		{"hardly point", SeedVersionElectrum1, ErrInvalidMnemonic},
		{"hardly point notaword", SeedVersionElectrum1, ErrInvalidMnemonic},
		{"abandon abandon abandon", SeedVersionBip39, ErrInvalidMnemonic},
		{electrum1Mnemonic, SeedVersionBip39, ErrInvalidMnemonic},
	}
	for _, tt := range tests {
		_, err := DeriveSeed(tt.mnemonic, tt.version)
		assert.Equal(t, tt.err, err)
	}
}

func TestElectrum1RoundTrip(t *testing.T) {
	entropy, _ := hex.DecodeString(electrum1Seed)
	words, err := electrum1EntropyToWords(entropy)
	require.NoError(t, err)
	require.Equal(t, electrum1Mnemonic, strings.Join(words, " "))

	decoded, err := electrum1WordsToEntropy(words)
	require.NoError(t, err)
	require.Equal(t, entropy, decoded)
}

func TestNewMnemonic(t *testing.T) {
	tests := []struct {
		opts     NewMnemonicOpts
		numWords int
	}{
		{NewMnemonicOpts{SeedVersion: SeedVersionElectrum1}, 12},
		{NewMnemonicOpts{SeedVersion: SeedVersionBip39}, 12},
		{NewMnemonicOpts{SeedVersion: SeedVersionBip39, Language: "JAPANESE"}, 12},
		{NewMnemonicOpts{SeedVersion: SeedVersionBip39, Language: "SPANISH"}, 12},
		{NewMnemonicOpts{SeedVersion: SeedVersionBip39, Language: "KLINGON"}, 12},
	}
	for _, tt := range tests {
		mnemonic, err := NewMnemonic(tt.opts)
		require.NoError(t, err)
		require.Len(t, strings.Fields(mnemonic), tt.numWords)

		seed, err := DeriveSeed(mnemonic, tt.opts.SeedVersion)
		require.NoError(t, err)
		require.NotEmpty(t, seed)
	}
}

func TestFailingNewMnemonic(t *testing.T) {
	_, err := NewMnemonic(NewMnemonicOpts{SeedVersion: SeedVersionElectrum2})
	assert.Equal(t, ErrUnsupportedSeedVersion, err)

	_, err = NewMnemonic(NewMnemonicOpts{})
	assert.Equal(t, ErrUnsupportedSeedVersion, err)
}

func TestParseSeedVersion(t *testing.T) {
	v, err := ParseSeedVersion("Bip39")
	require.NoError(t, err)
	require.Equal(t, SeedVersionBip39, v)

	_, err = ParseSeedVersion("bip39")
	require.Equal(t, ErrUnsupportedSeedVersion, err)
}
