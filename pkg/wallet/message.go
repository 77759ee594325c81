package wallet

import (
	"bytes"
	"encoding/base64"

	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// MessageHash returns the double sha256 of the magic-prefixed message.
func MessageHash(message string) []byte {
	var buf bytes.Buffer
	// bytes.Buffer never fails on write.
	_ = wire.WriteVarString(&buf, 0, MessageMagic)
	_ = wire.WriteVarString(&buf, 0, message)
	return chainhash.DoubleHashB(buf.Bytes())
}

// SignMessage returns the base64 compact signature of message.
func (k *Key) SignMessage(message string) (string, error) {
	sig, err := ecdsa.SignCompact(
		k.PrivateKey(), MessageHash(message), k.IsCompressed(),
	)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}

// VerifyMessage recovers the public key from the signature and checks that
// its address is the given one.
func VerifyMessage(
	address, message, signature string, net *chaincfg.Params,
) (bool, error) {
	if net == nil {
		return false, ErrNullNetwork
	}
	sig, err := base64.StdEncoding.DecodeString(signature)
	if err != nil || len(sig) != 65 {
		return false, ErrInvalidSignature
	}

	pubkey, compressed, err := ecdsa.RecoverCompact(sig, MessageHash(message))
	if err != nil {
		return false, nil
	}

	serialized := pubkey.SerializeUncompressed()
	if compressed {
		serialized = pubkey.SerializeCompressed()
	}
	addr, err := btcutil.NewAddressPubKeyHash(btcutil.Hash160(serialized), net)
	if err != nil {
		return false, err
	}
	return addr.EncodeAddress() == address, nil
}
