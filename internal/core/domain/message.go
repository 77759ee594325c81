package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// RequestKind is the type of a message exchanged with a page.
type RequestKind string

const (
	KindInit         RequestKind = "mpurse.init"
	KindAddress      RequestKind = "mpurse.address"
	KindSendAsset    RequestKind = "mpurse.send.asset"
	KindSignTx       RequestKind = "mpurse.sign.tx"
	KindSignMessage  RequestKind = "mpurse.sign.message"
	KindSendRawTx    RequestKind = "mpurse.send.tx.raw"
	KindMpchain      RequestKind = "mpurse.mpchain"
	KindCounterBlock RequestKind = "mpurse.counterblock"
	KindCounterParty RequestKind = "mpurse.counterparty"

	KindLoginState   RequestKind = "mpurse.state.login"
	KindAddressState RequestKind = "mpurse.state.address"
)

// IsValid returns whether pages are allowed to send this kind of message.
func (k RequestKind) IsValid() bool {
	switch k {
	case KindInit, KindAddress, KindSendAsset, KindSignTx, KindSignMessage,
		KindSendRawTx, KindMpchain, KindCounterBlock, KindCounterParty:
		return true
	default:
		return false
	}
}

// IsProxy returns whether the message is a passthrough to the remote API.
func (k RequestKind) IsProxy() bool {
	return k == KindMpchain || k == KindCounterBlock || k == KindCounterParty
}

// Target returns the target a request of this kind is queued with when it
// needs user interaction.
func (k RequestKind) Target() RequestTarget {
	switch k {
	case KindSendAsset:
		return TargetSend
	case KindSignTx, KindSendRawTx:
		return TargetTransaction
	case KindSignMessage:
		return TargetSignature
	default:
		return TargetAddress
	}
}

// RequiresConfirmation returns whether every request of this kind must be
// confirmed by the user, even for approved origins.
func (k RequestKind) RequiresConfirmation() bool {
	return k.Target() != TargetAddress
}

// RequestID is the correlation id chosen by a page, normalized to its
// canonical string form. Numbers are formatted like javascript does, so
// 1, 1.0 and "1" are the same id.
type RequestID string

// BroadcastID is the id of unsolicited messages.
const BroadcastID RequestID = "0"

// NewRequestID returns the canonical id of a number.
func NewRequestID(n float64) RequestID {
	return RequestID(formatNumber(n))
}

// UnmarshalJSON accepts both numbers and strings.
func (id *RequestID) UnmarshalJSON(buf []byte) error {
	buf = bytes.TrimSpace(buf)
	if len(buf) <= 0 || bytes.Equal(buf, []byte("null")) {
		return ErrInvalidRequestID
	}
	if buf[0] == '"' {
		var str string
		if err := json.Unmarshal(buf, &str); err != nil {
			return ErrInvalidRequestID
		}
		*id = RequestID(str)
		return nil
	}

	var n float64
	if err := json.Unmarshal(buf, &n); err != nil {
		return ErrInvalidRequestID
	}
	*id = NewRequestID(n)
	return nil
}

// MarshalJSON writes numeric ids back as numbers.
func (id RequestID) MarshalJSON() ([]byte, error) {
	var n float64
	if err := json.Unmarshal([]byte(id), &n); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id RequestID) String() string {
	return string(id)
}

func formatNumber(n float64) string {
	abs := math.Abs(n)
	if abs == 0 {
		return "0"
	}
	if abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	str := strconv.FormatFloat(n, 'e', -1, 64)
	str = strings.Replace(str, "e-0", "e-", 1)
	return strings.Replace(str, "e+0", "e+", 1)
}

// SendAssetPayload ...
type SendAssetPayload struct {
	To        string          `json:"to"`
	Asset     string          `json:"asset"`
	Amount    decimal.Decimal `json:"amount"`
	MemoType  string          `json:"memoType"`
	MemoValue string          `json:"memoValue"`
}

// TransactionPayload is the payload of both sign and send raw tx requests.
type TransactionPayload struct {
	Tx string `json:"tx"`
}

// SignMessagePayload ...
type SignMessagePayload struct {
	Message string `json:"message"`
}

// ProxyPayload is the payload of remote API passthrough requests.
type ProxyPayload struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

// ErrorPayload is the data of failed responses.
type ErrorPayload struct {
	Error string `json:"error"`
}

// LoginStatePayload ...
type LoginStatePayload struct {
	IsUnlocked bool `json:"isUnlocked"`
}

// AddressStatePayload ...
type AddressStatePayload struct {
	Address string `json:"address"`
}

// InboundMessage is a message received from a page. Payload holds the typed
// payload of the message kind, nil for kinds without payload.
type InboundMessage struct {
	Type    RequestKind
	ID      RequestID
	Origin  string
	Payload interface{}
}

type rawInboundMessage struct {
	Type   RequestKind     `json:"type"`
	ID     RequestID       `json:"id"`
	Origin string          `json:"origin"`
	Data   json.RawMessage `json:"data"`
}

// DecodeInboundMessage parses a page message. For unknown kinds the message
// is returned along with ErrUnknownMessageType so that the error can be
// delivered on the same id.
func DecodeInboundMessage(buf []byte) (*InboundMessage, error) {
	raw := rawInboundMessage{}
	if err := json.Unmarshal(buf, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedMessage, err)
	}

	msg := &InboundMessage{
		Type:   raw.Type,
		ID:     raw.ID,
		Origin: raw.Origin,
	}
	if !raw.Type.IsValid() {
		return msg, ErrUnknownMessageType
	}

	var payload interface{}
	switch raw.Type {
	case KindInit, KindAddress:
		return msg, nil
	case KindSendAsset:
		payload = &SendAssetPayload{}
	case KindSignTx, KindSendRawTx:
		payload = &TransactionPayload{}
	case KindSignMessage:
		payload = &SignMessagePayload{}
	default:
		payload = &ProxyPayload{}
	}

	if len(raw.Data) <= 0 || bytes.Equal(raw.Data, []byte("null")) {
		return msg, fmt.Errorf("%w: missing data", ErrMalformedMessage)
	}
	if err := json.Unmarshal(raw.Data, payload); err != nil {
		return msg, fmt.Errorf("%w: %s", ErrMalformedMessage, err)
	}
	msg.Payload = payload
	return msg, nil
}

// OutboundMessage is a message sent to a page.
type OutboundMessage struct {
	Type RequestKind `json:"type"`
	ID   RequestID   `json:"id"`
	Data interface{} `json:"data"`
}

// NewErrorMessage ...
func NewErrorMessage(kind RequestKind, id RequestID, err error) OutboundMessage {
	return OutboundMessage{
		Type: kind,
		ID:   id,
		Data: ErrorPayload{err.Error()},
	}
}

// NewLoginStateMessage ...
func NewLoginStateMessage(isUnlocked bool) OutboundMessage {
	return OutboundMessage{
		Type: KindLoginState,
		ID:   BroadcastID,
		Data: LoginStatePayload{isUnlocked},
	}
}

// NewAddressStateMessage ...
func NewAddressStateMessage(address string) OutboundMessage {
	return OutboundMessage{
		Type: KindAddressState,
		ID:   BroadcastID,
		Data: AddressStatePayload{address},
	}
}
