package wallet

import (
	"strings"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/wire"
)

const (
	// MessageMagic is the prefix of every signed message digest.
	MessageMagic = "Monacoin Signed Message:\n"

	// legacyMainNetPrivateKeyID is the WIF version byte used by early
	// Monacoin releases, still accepted when decoding.
	legacyMainNetPrivateKeyID = 178
)

var (
	// MainNetParams defines the Monacoin main network.
	MainNetParams = chaincfg.Params{
		Name:             "mainnet",
		Net:              wire.BitcoinNet(0xdbb6c0fb),
		DefaultPort:      "9401",
		Bech32HRPSegwit:  "mona",
		PubKeyHashAddrID: 50,
		ScriptHashAddrID: 55,
		PrivateKeyID:     176,
		HDPrivateKeyID:   [4]byte{0x04, 0x88, 0xad, 0xe4},
		HDPublicKeyID:    [4]byte{0x04, 0x88, 0xb2, 0x1e},
		HDCoinType:       22,
	}

	// TestNetParams defines the Monacoin test network.
	TestNetParams = chaincfg.Params{
		Name:             "testnet",
		Net:              wire.BitcoinNet(0xdcb7c1fc),
		DefaultPort:      "19403",
		Bech32HRPSegwit:  "tmona",
		PubKeyHashAddrID: 111,
		ScriptHashAddrID: 117,
		PrivateKeyID:     239,
		HDPrivateKeyID:   [4]byte{0x04, 0x35, 0x83, 0x94},
		HDPublicKeyID:    [4]byte{0x04, 0x35, 0x87, 0xcf},
		HDCoinType:       1,
	}
)

// NetworkFromString returns the params of the network with the given name.
// Accepted names are mainnet (or livenet) and testnet.
func NetworkFromString(name string) (*chaincfg.Params, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", MainNetParams.Name, "livenet":
		return &MainNetParams, nil
	case TestNetParams.Name:
		return &TestNetParams, nil
	default:
		return nil, ErrUnknownNetwork
	}
}

func isPrivateKeyIDForNet(id byte, net *chaincfg.Params) bool {
	if id == net.PrivateKeyID {
		return true
	}
	return net.Name == MainNetParams.Name && id == legacyMainNetPrivateKeyID
}
