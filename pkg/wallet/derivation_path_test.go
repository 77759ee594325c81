package wallet

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDerivationPath(t *testing.T) {
	h := uint32(hdkeychain.HardenedKeyStart)
	tests := []struct {
		input  string
		output DerivationPath
		err    error
	}{
		{"m/0'/0/0", DerivationPath{h, 0, 0}, nil},
		{"m/0'/0/15", DerivationPath{h, 0, 15}, nil},
		{"m/44'/22'/0'/0/0", DerivationPath{h + 44, h + 22, h, 0, 0}, nil},
		{"m/44h/22h/0h/0/1", DerivationPath{h + 44, h + 22, h, 0, 1}, nil},
		{"m/0x2c'/0x16'/0'/0/0", DerivationPath{h + 44, h + 22, h, 0, 0}, nil},
		{"0'/0/0", DerivationPath{h, 0, 0}, nil},
		{"0", DerivationPath{0}, nil},
		{" m / 0 ' / 0 / 3 ", DerivationPath{h, 0, 3}, nil},

		{"", nil, ErrNullDerivationPath},
		{"m", nil, ErrMalformedDerivationPath},
		{"m/", nil, ErrMalformedDerivationPath},
		{"m/0'/0/", nil, ErrMalformedDerivationPath},
		{"/0'/0/0", nil, ErrMalformedDerivationPath},
		{"m/2147483648'", nil, ErrInvalidDerivationPath},
		{"m/-1", nil, ErrInvalidDerivationPath},
		{"m/abc", nil, ErrInvalidDerivationPath},
	}
	for _, tt := range tests {
		path, err := ParseDerivationPath(tt.input)
		if tt.err != nil {
			assert.ErrorIs(t, err, tt.err, tt.input)
			continue
		}
		assert.NoError(t, err, tt.input)
		assert.Equal(t, tt.output, path, tt.input)
	}
}

func TestAccountDerivationPath(t *testing.T) {
	path, err := AccountDerivationPath(DefaultBasePath, 7)
	require.NoError(t, err)
	require.Equal(t, "m/0'/0/7", path.String())

	path, err = AccountDerivationPath("m/44'/22'/0'/0/", 0)
	require.NoError(t, err)
	require.Equal(t, "m/44'/22'/0'/0/0", path.String())
}
