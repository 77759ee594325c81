package wallet

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"encoding/base64"
	"strings"
)

const (
	legacyMagic   = "Salted__"
	legacySaltLen = 8
	legacyKeyLen  = 32
)

// IsLegacyCypherText returns whether the ciphertext has the OpenSSL salted
// format of vaults written by older versions.
func IsLegacyCypherText(cypherText string) bool {
	// base64 of "Salted__"
	return strings.HasPrefix(cypherText, "U2FsdGVkX1")
}

// DecryptLegacyOpts is the struct given to DecryptLegacy method
type DecryptLegacyOpts struct {
	CypherText string
	Passphrase string
}

func (o DecryptLegacyOpts) validate() error {
	if len(o.CypherText) <= 0 {
		return ErrNullCypherText
	}
	if len(o.Passphrase) <= 0 {
		return ErrNullPassphrase
	}
	if !IsLegacyCypherText(o.CypherText) {
		return ErrInvalidCypherText
	}
	return nil
}

// DecryptLegacy decrypts an AES-256-CBC ciphertext in OpenSSL salted format,
// with key and iv derived through EVP_BytesToKey (MD5, one round).
// The scheme has no authentication, a wrong passphrase is detected only
// through the padding.
func DecryptLegacy(opts DecryptLegacyOpts) (string, error) {
	if err := opts.validate(); err != nil {
		return "", err
	}

	data, err := base64.StdEncoding.DecodeString(opts.CypherText)
	if err != nil {
		return "", ErrInvalidCypherText
	}
	if len(data) < len(legacyMagic)+legacySaltLen+aes.BlockSize {
		return "", ErrInvalidCypherText
	}
	salt := data[len(legacyMagic) : len(legacyMagic)+legacySaltLen]
	text := data[len(legacyMagic)+legacySaltLen:]
	if len(text)%aes.BlockSize != 0 {
		return "", ErrInvalidCypherText
	}

	key, iv := evpBytesToKey([]byte(opts.Passphrase), salt)
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	plaintext := make([]byte, len(text))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, text)

	plaintext, err = pkcs7Unpad(plaintext)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

func evpBytesToKey(passphrase, salt []byte) ([]byte, []byte) {
	var (
		derived []byte
		block   []byte
	)
	for len(derived) < legacyKeyLen+aes.BlockSize {
		h := md5.New()
		h.Write(block)
		h.Write(passphrase)
		h.Write(salt)
		block = h.Sum(nil)
		derived = append(derived, block...)
	}
	return derived[:legacyKeyLen], derived[legacyKeyLen : legacyKeyLen+aes.BlockSize]
}

func pkcs7Unpad(buf []byte) ([]byte, error) {
	if len(buf) == 0 {
		return nil, ErrInvalidPassphrase
	}
	padLen := int(buf[len(buf)-1])
	if padLen == 0 || padLen > aes.BlockSize || padLen > len(buf) {
		return nil, ErrInvalidPassphrase
	}
	padding := bytes.Repeat([]byte{byte(padLen)}, padLen)
	if !bytes.Equal(buf[len(buf)-padLen:], padding) {
		return nil, ErrInvalidPassphrase
	}
	return buf[:len(buf)-padLen], nil
}
