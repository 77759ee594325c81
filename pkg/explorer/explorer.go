package explorer

import (
	"context"
	"encoding/json"

	"github.com/mpurse-network/mpurse-daemon/pkg/wallet"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidArgument is returned for malformed request params, before
	// any request is made.
	ErrInvalidArgument = NewError("Invalid argument")
	// ErrAPIDead is returned when the remote API answers with something that
	// is not JSON.
	ErrAPIDead = NewError("api dead")
)

// Error is a failure reported by the remote API. Body is the JSON object
// returned by the API, and it's meant to be handed over as is to who made the
// request.
type Error struct {
	Body json.RawMessage
}

// NewError returns an Error with body {"error": msg}.
func NewError(msg string) *Error {
	body, _ := json.Marshal(map[string]string{"error": msg})
	return &Error{body}
}

func (e *Error) Error() string {
	payload := struct {
		Error   interface{} `json:"error"`
		Message string      `json:"message"`
	}{}
	if err := json.Unmarshal(e.Body, &payload); err == nil {
		if msg, ok := payload.Error.(string); ok && msg != "" {
			return msg
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return string(e.Body)
}

// ScriptPubKey is the output script and value of a transaction output.
type ScriptPubKey struct {
	Hex   string
	Value decimal.Decimal
}

// Satoshis returns the value of the output in base units.
func (s ScriptPubKey) Satoshis() int64 {
	return s.Value.Shift(8).IntPart()
}

// CreateSendOpts is the struct given to CreateSend method
type CreateSendOpts struct {
	Source           string `json:"source"`
	Destination      string `json:"destination"`
	Asset            string `json:"asset"`
	Quantity         int64  `json:"quantity"`
	Memo             string `json:"memo"`
	MemoIsHex        bool   `json:"memo_is_hex"`
	FeePerKb         int64  `json:"fee_per_kb"`
	DisableUtxoLocks bool   `json:"disable_utxo_locks"`
}

// Service is the remote API giving access to the chain and to the
// counterparty protocol, it's also able to broadcast transactions.
type Service interface {
	wallet.PrevOutputFetcher

	// Mpchain calls a REST endpoint of the API. Params must be a JSON object.
	Mpchain(ctx context.Context, method string, params json.RawMessage) (json.RawMessage, error)
	// CounterBlock makes a JSON-RPC call to counterblock and returns its
	// result.
	CounterBlock(ctx context.Context, method string, params json.RawMessage) (json.RawMessage, error)
	// CounterParty makes a JSON-RPC call to counterparty through counterblock.
	CounterParty(ctx context.Context, method string, params json.RawMessage) (json.RawMessage, error)

	GetAddressInfo(ctx context.Context, address string) (json.RawMessage, error)
	GetAsset(ctx context.Context, asset string) (json.RawMessage, error)
	GetBalances(ctx context.Context, address string, page, limit int) (json.RawMessage, error)
	GetMempool(ctx context.Context, address string, page, limit int) (json.RawMessage, error)
	// SendTx broadcasts the given tx in hex format.
	SendTx(ctx context.Context, txHex string) (json.RawMessage, error)
	// CreateSend builds an unsigned counterparty send transaction.
	CreateSend(ctx context.Context, opts CreateSendOpts) (json.RawMessage, error)
	// GetScriptPubKey returns the output script and value of the given output.
	GetScriptPubKey(ctx context.Context, txHash string, vout uint32) (*ScriptPubKey, error)
}
