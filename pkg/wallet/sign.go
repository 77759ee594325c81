package wallet

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// PrevOutput is the output spent by a transaction input.
type PrevOutput struct {
	Script []byte
	Value  int64
}

// PrevOutputFetcher looks up an output by outpoint. It's required to sign
// inputs that spend partially signed bare multisig outputs, since their
// scriptSig no longer carries the spent script.
type PrevOutputFetcher interface {
	FetchPrevOutput(
		ctx context.Context, txHash string, index uint32,
	) (*PrevOutput, error)
}

// SignTransactionOpts is the struct given to SignTransaction method
type SignTransactionOpts struct {
	TxHex   string
	Fetcher PrevOutputFetcher
}

func (o SignTransactionOpts) validate() error {
	if len(o.TxHex) <= 0 {
		return ErrNullTransaction
	}
	if _, err := hex.DecodeString(o.TxHex); err != nil {
		return ErrInvalidTransaction
	}
	return nil
}

// SignTransaction adds the key's signature to every input it can spend and
// returns the resulting tx in hex format. Inputs are expected to carry the
// script of the spent output in place of the scriptSig. Inputs that belong
// to other keys or are already finalized are left untouched.
func (k *Key) SignTransaction(
	ctx context.Context, opts SignTransactionOpts,
) (string, error) {
	if err := opts.validate(); err != nil {
		return "", err
	}

	buf, _ := hex.DecodeString(opts.TxHex)
	tx := wire.NewMsgTx(wire.TxVersion)
	if err := tx.Deserialize(bytes.NewReader(buf)); err != nil {
		return "", ErrInvalidTransaction
	}

	signer := txSigner{k, tx, opts.Fetcher}
	for i, in := range tx.TxIn {
		script := in.SignatureScript
		scriptType := ClassifyScript(script)

		var err error
		switch scriptType {
		case PubKeyOut:
			err = signer.signPubKeyInput(ctx, i, script)
		case PubKeyHashOut:
			err = signer.signPubKeyHashInput(ctx, i, script)
		case MultiSigOut:
			err = signer.signMultiSigInput(ctx, i, script, nil)
		case MultiSigIn:
			err = signer.signPartialMultiSigInput(ctx, i, script)
		case ScriptHashOut, DataOut, PubKeyIn, PubKeyHashIn, ScriptHashIn:
		default:
			disasm, _ := txscript.DisasmString(script)
			return "", fmt.Errorf(
				"%w: input %d [%s](%s)", ErrUnknownScriptType, i, scriptType, disasm,
			)
		}
		if err != nil {
			return "", fmt.Errorf("input %d: %w", i, err)
		}
	}

	var out bytes.Buffer
	if err := tx.Serialize(&out); err != nil {
		return "", err
	}
	return hex.EncodeToString(out.Bytes()), nil
}

type txSigner struct {
	key     *Key
	tx      *wire.MsgTx
	fetcher PrevOutputFetcher
}

func (s txSigner) signPubKeyInput(_ context.Context, i int, prevScript []byte) error {
	pushes, _ := pushedData(prevScript)
	if len(pushes) <= 0 ||
		!bytes.Equal(pushes[0], s.key.SerializedPublicKey()) {
		return nil
	}

	sig, err := txscript.RawTxInSignature(
		s.tx, i, prevScript, txscript.SigHashAll, s.key.PrivateKey(),
	)
	if err != nil {
		return err
	}
	script, err := txscript.NewScriptBuilder().AddData(sig).Script()
	if err != nil {
		return err
	}
	s.tx.TxIn[i].SignatureScript = script
	return nil
}

func (s txSigner) signPubKeyHashInput(_ context.Context, i int, prevScript []byte) error {
	pushes, _ := pushedData(prevScript)
	pubkeyHash := btcutil.Hash160(s.key.SerializedPublicKey())
	if len(pushes) <= 0 || !bytes.Equal(pushes[0], pubkeyHash) {
		return nil
	}

	script, err := txscript.SignatureScript(
		s.tx, i, prevScript, txscript.SigHashAll, s.key.PrivateKey(),
		s.key.IsCompressed(),
	)
	if err != nil {
		return err
	}
	s.tx.TxIn[i].SignatureScript = script
	return nil
}

// signMultiSigInput adds the key's signature to the ones already present,
// the resulting scriptSig lists them in the order of the script's pubkeys.
func (s txSigner) signMultiSigInput(
	_ context.Context, i int, prevScript []byte, existingSigs [][]byte,
) error {
	info, err := ExtractMultiSigInfo(prevScript)
	if err != nil {
		return err
	}

	keyIndex := -1
	for j, pubkey := range info.PublicKeys {
		if pubkey.IsEqual(s.key.PublicKey()) {
			keyIndex = j
			break
		}
	}
	if keyIndex < 0 {
		return nil
	}

	sigs := s.normalizeSignatures(i, prevScript, info.PublicKeys, existingSigs)
	if sigs[keyIndex] == nil {
		sig, err := txscript.RawTxInSignature(
			s.tx, i, prevScript, txscript.SigHashAll, s.key.PrivateKey(),
		)
		if err != nil {
			return err
		}
		sigs[keyIndex] = sig
	}

	builder := txscript.NewScriptBuilder().AddOp(txscript.OP_0)
	count := 0
	for _, sig := range sigs {
		if sig == nil || count >= info.Threshold {
			continue
		}
		builder.AddData(sig)
		count++
	}
	script, err := builder.Script()
	if err != nil {
		return err
	}
	s.tx.TxIn[i].SignatureScript = script
	return nil
}

func (s txSigner) signPartialMultiSigInput(
	ctx context.Context, i int, scriptSig []byte,
) error {
	if s.fetcher == nil {
		return ErrNullPrevOutFetcher
	}

	outpoint := s.tx.TxIn[i].PreviousOutPoint
	prevout, err := s.fetcher.FetchPrevOutput(
		ctx, outpoint.Hash.String(), outpoint.Index,
	)
	if err != nil {
		return err
	}
	if txscript.GetScriptClass(prevout.Script) != txscript.MultiSigTy {
		return ErrInvalidPrevOutput
	}

	pushes, _ := pushedData(scriptSig)
	// skip the leading OP_0.
	return s.signMultiSigInput(ctx, i, prevout.Script, pushes[1:])
}

// normalizeSignatures matches every given signature with the public key
// that verifies it, unmatched signatures are dropped.
func (s txSigner) normalizeSignatures(
	i int, prevScript []byte, pubkeys []*btcec.PublicKey, sigs [][]byte,
) [][]byte {
	ordered := make([][]byte, len(pubkeys))
	for _, sig := range sigs {
		if len(sig) <= 1 {
			continue
		}
		hashType := txscript.SigHashType(sig[len(sig)-1])
		parsed, err := ecdsa.ParseDERSignature(sig[:len(sig)-1])
		if err != nil {
			continue
		}
		hash, err := txscript.CalcSignatureHash(prevScript, hashType, s.tx, i)
		if err != nil {
			continue
		}
		for j, pubkey := range pubkeys {
			if ordered[j] == nil && parsed.Verify(hash, pubkey) {
				ordered[j] = sig
				break
			}
		}
	}
	return ordered
}

// pushedData returns the data of every push of the script, skipping
// any non push opcode.
func pushedData(script []byte) ([][]byte, error) {
	data := make([][]byte, 0)
	tokenizer := txscript.MakeScriptTokenizer(0, script)
	for tokenizer.Next() {
		if tokenizer.Opcode() > txscript.OP_16 {
			continue
		}
		data = append(data, tokenizer.Data())
	}
	return data, tokenizer.Err()
}
