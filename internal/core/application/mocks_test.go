package application_test

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/mpurse-network/mpurse-daemon/internal/core/domain"
	"github.com/mpurse-network/mpurse-daemon/internal/core/ports"
	"github.com/mpurse-network/mpurse-daemon/pkg/explorer"
	"github.com/mpurse-network/mpurse-daemon/pkg/wallet"
	"github.com/stretchr/testify/mock"
)

type mockExplorer struct {
	mock.Mock
}

func (m *mockExplorer) FetchPrevOutput(
	ctx context.Context, txHash string, index uint32,
) (*wallet.PrevOutput, error) {
	args := m.Called(ctx, txHash, index)

	var res *wallet.PrevOutput
	if a := args.Get(0); a != nil {
		res = a.(*wallet.PrevOutput)
	}
	return res, args.Error(1)
}

func (m *mockExplorer) Mpchain(
	ctx context.Context, method string, params json.RawMessage,
) (json.RawMessage, error) {
	args := m.Called(ctx, method, params)
	return rawMessage(args.Get(0)), args.Error(1)
}

func (m *mockExplorer) CounterBlock(
	ctx context.Context, method string, params json.RawMessage,
) (json.RawMessage, error) {
	args := m.Called(ctx, method, params)
	return rawMessage(args.Get(0)), args.Error(1)
}

func (m *mockExplorer) CounterParty(
	ctx context.Context, method string, params json.RawMessage,
) (json.RawMessage, error) {
	args := m.Called(ctx, method, params)
	return rawMessage(args.Get(0)), args.Error(1)
}

func (m *mockExplorer) GetAddressInfo(
	ctx context.Context, address string,
) (json.RawMessage, error) {
	args := m.Called(ctx, address)
	return rawMessage(args.Get(0)), args.Error(1)
}

func (m *mockExplorer) GetAsset(
	ctx context.Context, asset string,
) (json.RawMessage, error) {
	args := m.Called(ctx, asset)
	return rawMessage(args.Get(0)), args.Error(1)
}

func (m *mockExplorer) GetBalances(
	ctx context.Context, address string, page, limit int,
) (json.RawMessage, error) {
	args := m.Called(ctx, address, page, limit)
	return rawMessage(args.Get(0)), args.Error(1)
}

func (m *mockExplorer) GetMempool(
	ctx context.Context, address string, page, limit int,
) (json.RawMessage, error) {
	args := m.Called(ctx, address, page, limit)
	return rawMessage(args.Get(0)), args.Error(1)
}

func (m *mockExplorer) SendTx(
	ctx context.Context, txHex string,
) (json.RawMessage, error) {
	args := m.Called(ctx, txHex)
	return rawMessage(args.Get(0)), args.Error(1)
}

func (m *mockExplorer) CreateSend(
	ctx context.Context, opts explorer.CreateSendOpts,
) (json.RawMessage, error) {
	args := m.Called(ctx, opts)
	return rawMessage(args.Get(0)), args.Error(1)
}

func (m *mockExplorer) GetScriptPubKey(
	ctx context.Context, txHash string, vout uint32,
) (*explorer.ScriptPubKey, error) {
	args := m.Called(ctx, txHash, vout)

	var res *explorer.ScriptPubKey
	if a := args.Get(0); a != nil {
		res = a.(*explorer.ScriptPubKey)
	}
	return res, args.Error(1)
}

func rawMessage(i interface{}) json.RawMessage {
	if i == nil {
		return nil
	}
	switch v := i.(type) {
	case string:
		return json.RawMessage(v)
	default:
		return v.(json.RawMessage)
	}
}

// mockChannel records every message sent to the page.
type mockChannel struct {
	id     string
	origin string

	lock     *sync.Mutex
	messages []domain.OutboundMessage
}

func newMockChannel(id, origin string) *mockChannel {
	return &mockChannel{
		id:       id,
		origin:   origin,
		lock:     &sync.Mutex{},
		messages: make([]domain.OutboundMessage, 0),
	}
}

func (c *mockChannel) ID() string {
	return c.id
}

func (c *mockChannel) Origin() string {
	return c.origin
}

func (c *mockChannel) Send(msg domain.OutboundMessage) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.messages = append(c.messages, msg)
	return nil
}

func (c *mockChannel) Messages() []domain.OutboundMessage {
	c.lock.Lock()
	defer c.lock.Unlock()

	messages := make([]domain.OutboundMessage, len(c.messages))
	copy(messages, c.messages)
	return messages
}

// MessagesOfType returns the messages of the given kind, in order.
func (c *mockChannel) MessagesOfType(kind domain.RequestKind) []domain.OutboundMessage {
	messages := make([]domain.OutboundMessage, 0)
	for _, msg := range c.Messages() {
		if msg.Type == kind {
			messages = append(messages, msg)
		}
	}
	return messages
}

// Reply returns the last message sent with the given kind and id, if any.
func (c *mockChannel) Reply(
	kind domain.RequestKind, id domain.RequestID,
) (domain.OutboundMessage, bool) {
	messages := c.Messages()
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Type == kind && messages[i].ID == id {
			return messages[i], true
		}
	}
	return domain.OutboundMessage{}, false
}

type mockNotifier struct {
	lock   *sync.Mutex
	events []ports.UIEvent
}

func newMockNotifier() *mockNotifier {
	return &mockNotifier{lock: &sync.Mutex{}}
}

func (n *mockNotifier) Notify(event ports.UIEvent) {
	n.lock.Lock()
	defer n.lock.Unlock()

	n.events = append(n.events, event)
}

func (n *mockNotifier) EventsOfType(eventType ports.UIEventType) []ports.UIEvent {
	n.lock.Lock()
	defer n.lock.Unlock()

	events := make([]ports.UIEvent, 0)
	for _, e := range n.events {
		if e.Type == eventType {
			events = append(events, e)
		}
	}
	return events
}
