package wallet

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"strings"

	"golang.org/x/crypto/scrypt"
)

const (
	saltLen         = 32
	checksumPrefix  = "$scrypt$"
	checksumKeySize = 32
)

// ScryptCost is the N parameter of every scrypt derivation of this package.
// Tests lower it to keep them fast.
var ScryptCost = 1 << 15

// EncryptOpts is the struct given to Encrypt method
type EncryptOpts struct {
	PlainText  string
	Passphrase string
}

func (o EncryptOpts) validate() error {
	if len(o.PlainText) <= 0 {
		return ErrNullPlainText
	}
	if len(o.Passphrase) <= 0 {
		return ErrNullPassphrase
	}
	return nil
}

// Encrypt encrypts (with AES-256-GCM) a plaintext with a key derived from
// the provided passphrase
func Encrypt(opts EncryptOpts) (string, error) {
	if err := opts.validate(); err != nil {
		return "", err
	}

	key, salt, err := DeriveKey([]byte(opts.Passphrase), nil)
	if err != nil {
		return "", err
	}

	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err = rand.Read(nonce); err != nil {
		return "", err
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(opts.PlainText), nil)
	ciphertext = append(ciphertext, salt...)

	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// DecryptOpts is the struct given to Decrypt method
type DecryptOpts struct {
	CypherText string
	Passphrase string
}

func (o DecryptOpts) validate() error {
	if len(o.CypherText) <= 0 {
		return ErrNullCypherText
	}
	data, err := base64.StdEncoding.DecodeString(o.CypherText)
	if err != nil || len(data) <= saltLen {
		return ErrInvalidCypherText
	}
	if len(o.Passphrase) <= 0 {
		return ErrNullPassphrase
	}
	return nil
}

// Decrypt opens a cyphertext produced by Encrypt. A wrong passphrase makes
// the authentication fail with ErrInvalidPassphrase.
func Decrypt(opts DecryptOpts) (string, error) {
	if err := opts.validate(); err != nil {
		return "", err
	}

	data, _ := base64.StdEncoding.DecodeString(opts.CypherText)
	salt, data := data[len(data)-saltLen:], data[:len(data)-saltLen]

	key, _, err := DeriveKey([]byte(opts.Passphrase), salt)
	if err != nil {
		return "", err
	}

	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}
	if len(data) < gcm.NonceSize() {
		return "", ErrInvalidCypherText
	}
	nonce, text := data[:gcm.NonceSize()], data[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, text, nil)
	if err != nil {
		return "", ErrInvalidPassphrase
	}
	return string(plaintext), nil
}

// DeriveKey derives a 32 byte array key from a custom passhprase. A random
// salt is generated if the given one is nil.
func DeriveKey(passphrase, salt []byte) ([]byte, []byte, error) {
	if salt == nil {
		salt = make([]byte, saltLen)
		if _, err := rand.Read(salt); err != nil {
			return nil, nil, err
		}
	}
	key, err := scrypt.Key(passphrase, salt, ScryptCost, 8, 1, checksumKeySize)
	if err != nil {
		return nil, nil, err
	}
	return key, salt, nil
}

// Checksum returns a salted scrypt digest of the passphrase in the form
// $scrypt$<salt>$<hash>, both base64 encoded.
func Checksum(passphrase string) (string, error) {
	if len(passphrase) <= 0 {
		return "", ErrNullPassphrase
	}
	hash, salt, err := DeriveKey([]byte(passphrase), nil)
	if err != nil {
		return "", err
	}
	return checksumPrefix +
		base64.StdEncoding.EncodeToString(salt) + "$" +
		base64.StdEncoding.EncodeToString(hash), nil
}

// LegacyChecksum is the unsalted base64(sha256(passphrase)) digest of
// vaults written by older versions.
func LegacyChecksum(passphrase string) string {
	hash := sha256.Sum256([]byte(passphrase))
	return base64.StdEncoding.EncodeToString(hash[:])
}

// IsLegacyChecksum ...
func IsLegacyChecksum(checksum string) bool {
	return !strings.HasPrefix(checksum, checksumPrefix)
}

// VerifyChecksum checks the passphrase against a checksum made by either
// Checksum or LegacyChecksum.
func VerifyChecksum(checksum, passphrase string) (bool, error) {
	if IsLegacyChecksum(checksum) {
		expected := LegacyChecksum(passphrase)
		return subtle.ConstantTimeCompare([]byte(checksum), []byte(expected)) == 1, nil
	}

	parts := strings.Split(strings.TrimPrefix(checksum, checksumPrefix), "$")
	if len(parts) != 2 {
		return false, ErrInvalidChecksum
	}
	salt, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil || len(salt) <= 0 {
		return false, ErrInvalidChecksum
	}
	hash, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return false, ErrInvalidChecksum
	}

	derived, _, err := DeriveKey([]byte(passphrase), salt)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare(hash, derived) == 1, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	blockCipher, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(blockCipher)
}
