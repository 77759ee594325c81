package wallet

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/txscript"
)

// ScriptType is the classification of the script found in the scriptSig
// slot of an unsigned input. Unsigned inputs carry the script of the output
// they spend, partially signed ones carry their current scriptSig.
type ScriptType int

const (
	UnknownScript ScriptType = iota
	PubKeyOut
	PubKeyHashOut
	MultiSigOut
	ScriptHashOut
	DataOut
	PubKeyIn
	PubKeyHashIn
	MultiSigIn
	ScriptHashIn
)

var scriptTypeNames = map[ScriptType]string{
	UnknownScript: "Unknown",
	PubKeyOut:     "Pay to public key",
	PubKeyHashOut: "Pay to public key hash",
	MultiSigOut:   "Pay to multisig",
	ScriptHashOut: "Pay to script hash",
	DataOut:       "Data push",
	PubKeyIn:      "Spend from public key",
	PubKeyHashIn:  "Spend from public key hash",
	MultiSigIn:    "Spend from multisig",
	ScriptHashIn:  "Spend from script hash",
}

func (t ScriptType) String() string {
	if name, ok := scriptTypeNames[t]; ok {
		return name
	}
	return scriptTypeNames[UnknownScript]
}

// ClassifyScript returns the type of script. Output templates take
// precedence over input ones.
func ClassifyScript(script []byte) ScriptType {
	switch txscript.GetScriptClass(script) {
	case txscript.PubKeyTy:
		return PubKeyOut
	case txscript.PubKeyHashTy:
		return PubKeyHashOut
	case txscript.MultiSigTy:
		return MultiSigOut
	case txscript.ScriptHashTy:
		return ScriptHashOut
	case txscript.NullDataTy:
		return DataOut
	}

	pushes, ok := scriptPushes(script)
	if !ok || len(pushes) <= 0 {
		return UnknownScript
	}

	switch {
	case len(pushes) == 1 && isSignature(pushes[0].data):
		return PubKeyIn
	case len(pushes) == 2 && isSignature(pushes[0].data) &&
		isPublicKey(pushes[1].data):
		return PubKeyHashIn
	case isMultiSigIn(pushes):
		return MultiSigIn
	}

	redeemScript := pushes[len(pushes)-1].data
	if len(redeemScript) > 0 &&
		txscript.GetScriptClass(redeemScript) != txscript.NonStandardTy {
		return ScriptHashIn
	}
	return UnknownScript
}

// MultiSigInfo holds the public keys and the number of required signatures
// of a bare multisig script.
type MultiSigInfo struct {
	Threshold  int
	PublicKeys []*btcec.PublicKey
}

// ExtractMultiSigInfo parses "OP_m <pubkey>... OP_n OP_CHECKMULTISIG".
func ExtractMultiSigInfo(script []byte) (*MultiSigInfo, error) {
	type chunk struct {
		opcode byte
		data   []byte
	}
	chunks := make([]chunk, 0)
	tokenizer := txscript.MakeScriptTokenizer(0, script)
	for tokenizer.Next() {
		chunks = append(chunks, chunk{tokenizer.Opcode(), tokenizer.Data()})
	}
	if err := tokenizer.Err(); err != nil {
		return nil, err
	}

	if len(chunks) < 4 ||
		chunks[len(chunks)-1].opcode != txscript.OP_CHECKMULTISIG {
		return nil, ErrInvalidPrevOutput
	}
	numKeys, ok := smallInt(chunks[len(chunks)-2].opcode)
	if !ok || numKeys <= 0 || len(chunks) != numKeys+3 {
		return nil, ErrInvalidPrevOutput
	}
	threshold, ok := smallInt(chunks[0].opcode)
	if !ok || threshold <= 0 || threshold > numKeys {
		return nil, ErrInvalidPrevOutput
	}

	keys := make([]*btcec.PublicKey, 0, numKeys)
	for _, c := range chunks[1 : len(chunks)-2] {
		key, err := btcec.ParsePubKey(c.data)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidPrevOutput, err)
		}
		keys = append(keys, key)
	}

	return &MultiSigInfo{threshold, keys}, nil
}

type push struct {
	opcode byte
	data   []byte
}

// scriptPushes returns the pushes of a push-only script.
func scriptPushes(script []byte) ([]push, bool) {
	if !txscript.IsPushOnlyScript(script) {
		return nil, false
	}
	pushes := make([]push, 0)
	tokenizer := txscript.MakeScriptTokenizer(0, script)
	for tokenizer.Next() {
		pushes = append(pushes, push{tokenizer.Opcode(), tokenizer.Data()})
	}
	if tokenizer.Err() != nil {
		return nil, false
	}
	return pushes, true
}

func isMultiSigIn(pushes []push) bool {
	if len(pushes) < 2 || pushes[0].opcode != txscript.OP_0 {
		return false
	}
	for _, p := range pushes[1:] {
		if !isSignature(p.data) {
			return false
		}
	}
	return true
}

// isSignature checks the shape of a DER signature with the trailing sighash
// type byte.
func isSignature(data []byte) bool {
	if len(data) < 9 || len(data) > 73 {
		return false
	}
	return data[0] == 0x30 && int(data[1]) == len(data)-3
}

func isPublicKey(data []byte) bool {
	switch len(data) {
	case 33:
		return data[0] == 0x02 || data[0] == 0x03
	case 65:
		return data[0] == 0x04
	default:
		return false
	}
}

func smallInt(opcode byte) (int, bool) {
	if opcode == txscript.OP_0 {
		return 0, true
	}
	if opcode >= txscript.OP_1 && opcode <= txscript.OP_16 {
		return int(opcode-txscript.OP_1) + 1, true
	}
	return 0, false
}
