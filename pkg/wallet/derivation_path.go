package wallet

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
)

// DefaultBasePath is the path template of Electrum1 wallets, account index
// is appended to it.
const DefaultBasePath = "m/0'/0/"

// DerivationPath is the internal representation of a hierarchical
// deterministic key path
type DerivationPath []uint32

// AccountDerivationPath builds the path of the account at index by appending
// the index to basePath, ie. "m/0'/0/" and 3 give "m/0'/0/3".
func AccountDerivationPath(basePath string, index uint32) (DerivationPath, error) {
	return ParseDerivationPath(basePath + strconv.FormatUint(uint64(index), 10))
}

// ParseDerivationPath converts a derivation path string to the
// internal binary representation
func ParseDerivationPath(strPath string) (DerivationPath, error) {
	if strings.TrimSpace(strPath) == "" {
		return nil, ErrNullDerivationPath
	}

	elems := strings.Split(strPath, "/")
	for _, e := range elems {
		if strings.TrimSpace(e) == "" {
			return nil, ErrMalformedDerivationPath
		}
	}
	if strings.TrimSpace(elems[0]) == "m" {
		elems = elems[1:]
	}
	if len(elems) <= 0 {
		return nil, ErrMalformedDerivationPath
	}

	path := make(DerivationPath, 0, len(elems))
	for _, elem := range elems {
		elem = strings.TrimSpace(elem)
		var offset uint32
		if strings.HasSuffix(elem, "'") || strings.HasSuffix(elem, "h") {
			offset = hdkeychain.HardenedKeyStart
			elem = strings.TrimSpace(elem[:len(elem)-1])
		}

		value, err := strconv.ParseUint(elem, 0, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid elem '%s'", ErrInvalidDerivationPath, elem)
		}
		if value > uint64(math.MaxUint32-offset) {
			return nil, fmt.Errorf(
				"%w: elem %d out of range", ErrInvalidDerivationPath, value,
			)
		}
		path = append(path, offset+uint32(value))
	}

	return path, nil
}

// String converts a binary derivation path to its canonical representation
func (path DerivationPath) String() string {
	if len(path) <= 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("m")
	for _, component := range path {
		hardened := component >= hdkeychain.HardenedKeyStart
		if hardened {
			component -= hdkeychain.HardenedKeyStart
		}
		fmt.Fprintf(&b, "/%d", component)
		if hardened {
			b.WriteString("'")
		}
	}
	return b.String()
}
