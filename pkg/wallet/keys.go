package wallet

import (
	"bytes"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/chaincfg"
)

// Key is a private key bound to a network. It knows how to encode itself as
// WIF and as a P2PKH address.
type Key struct {
	wif *btcutil.WIF
	net *chaincfg.Params
}

// NewKey wraps the given private key. Keys derived from a seed are always
// compressed.
func NewKey(privateKey *btcec.PrivateKey, net *chaincfg.Params) (*Key, error) {
	if net == nil {
		return nil, ErrNullNetwork
	}
	wif, err := btcutil.NewWIF(privateKey, net, true)
	if err != nil {
		return nil, err
	}
	return &Key{wif, net}, nil
}

// KeyFromWIF decodes a WIF string for the given network.
func KeyFromWIF(str string, net *chaincfg.Params) (*Key, error) {
	if net == nil {
		return nil, ErrNullNetwork
	}
	_, version, err := base58.CheckDecode(str)
	if err != nil || !isPrivateKeyIDForNet(version, net) {
		return nil, ErrInvalidEncoding
	}
	wif, err := btcutil.DecodeWIF(str)
	if err != nil {
		return nil, ErrInvalidEncoding
	}
	// re-encode with the current version byte.
	wif, err = btcutil.NewWIF(wif.PrivKey, net, wif.CompressPubKey)
	if err != nil {
		return nil, err
	}
	return &Key{wif, net}, nil
}

// DeriveSigningKeyOpts is the struct given to DeriveSigningKey method
type DeriveSigningKeyOpts struct {
	BasePath string
	Index    uint32
}

func (o DeriveSigningKeyOpts) validate() error {
	if len(o.BasePath) <= 0 {
		return ErrNullDerivationPath
	}
	_, err := AccountDerivationPath(o.BasePath, o.Index)
	return err
}

// DeriveSigningKey derives the key at basePath + index.
func (w *Wallet) DeriveSigningKey(opts DeriveSigningKeyOpts) (*Key, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	path, _ := AccountDerivationPath(opts.BasePath, opts.Index)
	hdNode := w.masterKey
	for _, step := range path {
		var err error
		hdNode, err = hdNode.Derive(step)
		if err != nil {
			return nil, err
		}
	}

	privateKey, err := hdNode.ECPrivKey()
	if err != nil {
		return nil, err
	}
	return NewKey(privateKey, w.network)
}

// PrivateKey ...
func (k *Key) PrivateKey() *btcec.PrivateKey {
	return k.wif.PrivKey
}

// PublicKey ...
func (k *Key) PublicKey() *btcec.PublicKey {
	return k.wif.PrivKey.PubKey()
}

// SerializedPublicKey returns the public key in the form (compressed or
// not) its address commits to.
func (k *Key) SerializedPublicKey() []byte {
	return k.wif.SerializePubKey()
}

// IsCompressed ...
func (k *Key) IsCompressed() bool {
	return k.wif.CompressPubKey
}

// WIF returns the key in wallet import format.
func (k *Key) WIF() string {
	return k.wif.String()
}

// Address returns the P2PKH address of the key.
func (k *Key) Address() string {
	addr, _ := btcutil.NewAddressPubKeyHash(
		btcutil.Hash160(k.SerializedPublicKey()), k.net,
	)
	return addr.EncodeAddress()
}

// Network ...
func (k *Key) Network() *chaincfg.Params {
	return k.net
}

// Equal compares the private scalars, encoding details like the WIF version
// byte don't matter.
func (k *Key) Equal(other *Key) bool {
	if other == nil {
		return false
	}
	return bytes.Equal(k.wif.PrivKey.Serialize(), other.wif.PrivKey.Serialize())
}

// DecodeBase58Check decodes a base58check string and returns the version
// byte followed by the payload.
func DecodeBase58Check(str string) ([]byte, error) {
	payload, version, err := base58.CheckDecode(str)
	if err != nil {
		return nil, ErrInvalidEncoding
	}
	return append([]byte{version}, payload...), nil
}
