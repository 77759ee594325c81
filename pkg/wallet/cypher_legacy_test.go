package wallet

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecryptLegacy(t *testing.T) {
	tests := []struct {
		cypherText string
		passphrase string
		expected   string
	}{
		{
			"U2FsdGVkX1+H8hp3g/qkBw+m+Ws8Hs6pOVORr4FPnvE=",
			"password",
			"hello",
		},
		{
			"U2FsdGVkX1/XCKktl5wgC6P9juUvE6pKMOyCUZR+6Jg2fczqCt6EDl5uNYnKx56lblUp1GyJLfAk41EBMUzpVNBDHKbhpZ6X/kGul1jZ8QEho6zGXtdGVaCHuYqjc42eLrELO9wEXAOyDg1r7HRjFHf13b83POlff9M1Vh5T5HF1qpNDuZXnPbkAbAQIlYPrKbQcMxKbBzfsV6GzIZcNQQ==",
			"password",
			`{"hdkey":{"mnemonic":"hardly point goal hallway patience key stone difference ready caught listen fact","numberOfAccounts":2},"privatekeys":[]}`,
		},
	}

	for _, tt := range tests {
		require.True(t, IsLegacyCypherText(tt.cypherText))
		plaintext, err := DecryptLegacy(DecryptLegacyOpts{
			CypherText: tt.cypherText,
			Passphrase: tt.passphrase,
		})
		require.NoError(t, err)
		require.Equal(t, tt.expected, plaintext)
	}
}

func TestFailingDecryptLegacy(t *testing.T) {
	tests := []struct {
		opts        DecryptLegacyOpts
		expectedErr error
	}{
		{
			DecryptLegacyOpts{Passphrase: "password"},
			ErrNullCypherText,
		},
		{
			DecryptLegacyOpts{CypherText: "U2FsdGVkX1+H8hp3g/qkBw+m+Ws8Hs6pOVORr4FPnvE="},
			ErrNullPassphrase,
		},
		{
			DecryptLegacyOpts{CypherText: "aGVsbG8=", Passphrase: "password"},
			ErrInvalidCypherText,
		},
		{
			DecryptLegacyOpts{CypherText: "U2FsdGVkX1+H8hp3", Passphrase: "password"},
			ErrInvalidCypherText,
		},
	}

	for _, tt := range tests {
		_, err := DecryptLegacy(tt.opts)
		require.ErrorIs(t, err, tt.expectedErr)
	}
}
