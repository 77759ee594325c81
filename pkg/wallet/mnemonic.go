package wallet

import (
	"strings"
	"sync"

	"github.com/tyler-smith/go-bip39"
	"github.com/tyler-smith/go-bip39/wordlists"
	"golang.org/x/text/unicode/norm"
)

// SeedVersion tells how a mnemonic is turned into a seed.
type SeedVersion string

const (
	SeedVersionElectrum1 SeedVersion = "Electrum1"
	SeedVersionElectrum2 SeedVersion = "Electrum2"
	SeedVersionBip39     SeedVersion = "Bip39"
)

// IsValid returns whether the seed version is a known one. Electrum2 is
// known but not supported.
func (v SeedVersion) IsValid() bool {
	switch v {
	case SeedVersionElectrum1, SeedVersionElectrum2, SeedVersionBip39:
		return true
	default:
		return false
	}
}

// ParseSeedVersion ...
func ParseSeedVersion(str string) (SeedVersion, error) {
	v := SeedVersion(str)
	if !v.IsValid() {
		return "", ErrUnsupportedSeedVersion
	}
	return v, nil
}

var (
	// bip39 keeps the word list as package state.
	bip39Lock = &sync.Mutex{}

	bip39WordLists = map[string][]string{
		"CHINESE":  wordlists.ChineseSimplified,
		"ENGLISH":  wordlists.English,
		"FRENCH":   wordlists.French,
		"ITALIAN":  wordlists.Italian,
		"JAPANESE": wordlists.Japanese,
		"KOREAN":   wordlists.Korean,
		"SPANISH":  wordlists.Spanish,
	}
	bip39Languages = []string{
		"ENGLISH", "JAPANESE", "SPANISH", "FRENCH", "ITALIAN", "KOREAN", "CHINESE",
	}
)

// NewMnemonicOpts is the struct given to the NewMnemonic method
type NewMnemonicOpts struct {
	SeedVersion SeedVersion
	// Language selects the BIP39 word list. Unknown or empty values fall back
	// to english.
	Language string
}

func (o NewMnemonicOpts) validate() error {
	switch o.SeedVersion {
	case SeedVersionElectrum1, SeedVersionBip39:
		return nil
	default:
		return ErrUnsupportedSeedVersion
	}
}

// NewMnemonic returns a new random mnemonic of 128 bits of entropy for the
// given seed version.
func NewMnemonic(opts NewMnemonicOpts) (string, error) {
	if err := opts.validate(); err != nil {
		return "", err
	}

	if opts.SeedVersion == SeedVersionElectrum1 {
		entropy, err := bip39.NewEntropy(128)
		if err != nil {
			return "", err
		}
		words, err := electrum1EntropyToWords(entropy)
		if err != nil {
			return "", err
		}
		return strings.Join(words, " "), nil
	}

	return newBip39Mnemonic(opts.Language)
}

// DeriveSeed turns the mnemonic into the bytes fed to the HD master key.
func DeriveSeed(mnemonic string, version SeedVersion) ([]byte, error) {
	if len(strings.TrimSpace(mnemonic)) <= 0 {
		return nil, ErrNullMnemonic
	}

	switch version {
	case SeedVersionElectrum1:
		words := strings.Fields(strings.ToLower(mnemonic))
		return electrum1WordsToEntropy(words)
	case SeedVersionBip39:
		return bip39Seed(mnemonic)
	default:
		return nil, ErrUnsupportedSeedVersion
	}
}

func newBip39Mnemonic(language string) (string, error) {
	list, ok := bip39WordLists[strings.ToUpper(language)]
	if !ok {
		list = wordlists.English
	}

	entropy, err := bip39.NewEntropy(128)
	if err != nil {
		return "", err
	}

	bip39Lock.Lock()
	defer bip39Lock.Unlock()
	defer bip39.SetWordList(wordlists.English)

	bip39.SetWordList(list)
	return bip39.NewMnemonic(entropy)
}

func bip39Seed(mnemonic string) ([]byte, error) {
	// Word lists are NFKD, typed phrases may be NFC.
	mnemonic = strings.Join(strings.Fields(norm.NFKD.String(mnemonic)), " ")
	if !isBip39MnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}
	return bip39.NewSeed(mnemonic, ""), nil
}

func isBip39MnemonicValid(mnemonic string) bool {
	bip39Lock.Lock()
	defer bip39Lock.Unlock()
	defer bip39.SetWordList(wordlists.English)

	for _, lang := range bip39Languages {
		bip39.SetWordList(bip39WordLists[lang])
		if bip39.IsMnemonicValid(mnemonic) {
			return true
		}
	}
	return false
}
