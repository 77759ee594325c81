package application_test

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/mpurse-network/mpurse-daemon/internal/core/application"
	"github.com/mpurse-network/mpurse-daemon/internal/core/domain"
	"github.com/mpurse-network/mpurse-daemon/internal/core/ports"
	"github.com/mpurse-network/mpurse-daemon/pkg/explorer"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	goodOrigin = "https://good.example"
	evilOrigin = "https://evil.example"
)

func TestBrokerInit(t *testing.T) {
	session, _, _ := newTestSession(t)
	broker := newTestBroker(t, session, &mockExplorer{})

	ch := newMockChannel("ch1", "")
	broker.HandleMessage(ch, pageMessage(domain.KindInit, 1, goodOrigin, ""))

	reply, ok := ch.Reply(domain.KindInit, "1")
	require.True(t, ok)
	require.Equal(t, domain.LoginStatePayload{IsUnlocked: false}, reply.Data)

	// Login state changes are broadcast to every channel.
	err := session.Unlock(ctx, testPassword)
	require.NoError(t, err)
	err = session.SaveNewPassphrase(ctx, application.SaveNewPassphraseOpts{
		Passphrase:  testMnemonic,
		SeedVersion: "Electrum1",
	})
	require.NoError(t, err)

	updates := ch.MessagesOfType(domain.KindLoginState)
	require.NotEmpty(t, updates)
	last := updates[len(updates)-1]
	require.Equal(t, domain.BroadcastID, last.ID)
	require.Equal(t, domain.LoginStatePayload{IsUnlocked: true}, last.Data)

	// Address changes only reach approved origins.
	require.Empty(t, ch.MessagesOfType(domain.KindAddressState))
}

func TestBrokerAddressApproval(t *testing.T) {
	session, _, notifier := newRegisteredSession(t)
	broker := newTestBroker(t, session, &mockExplorer{})

	ch := newMockChannel("ch1", "")
	broker.HandleMessage(ch, pageMessage(domain.KindInit, 1, goodOrigin, ""))
	broker.HandleMessage(ch, pageMessage(domain.KindAddress, 2, goodOrigin, ""))

	_, ok := ch.Reply(domain.KindAddress, "2")
	require.False(t, ok)
	require.Equal(t, 1, session.PendingRequestsCount())
	require.NotEmpty(t, notifier.EventsOfType(ports.EventPopupRequested))

	request, ok := session.GetPendingRequest(nil)
	require.True(t, ok)
	require.Equal(t, domain.TargetApprove, request.Target)
	require.Equal(t, domain.RequestID("2"), request.ID)
	require.Equal(t, goodOrigin, request.Origin)

	stillQueued := session.ApproveOrigin(goodOrigin, "2")
	require.False(t, stillQueued)
	require.Zero(t, session.PendingRequestsCount())

	reply, ok := ch.Reply(domain.KindAddress, "2")
	require.True(t, ok)
	require.Equal(t, domain.AddressStatePayload{Address: testAddresses[0]}, reply.Data)

	pendingEvents := notifier.EventsOfType(ports.EventPendingRequestsChanged)
	require.Equal(t, ports.PendingRequestsPayload{Count: 0},
		pendingEvents[len(pendingEvents)-1].Data)

	// Approved origins are answered right away.
	broker.HandleMessage(ch, pageMessage(domain.KindAddress, 3, goodOrigin, ""))
	reply, ok = ch.Reply(domain.KindAddress, "3")
	require.True(t, ok)
	require.Equal(t, domain.AddressStatePayload{Address: testAddresses[0]}, reply.Data)

	// And receive address updates.
	_, err := session.CreateAccount(ctx, "Account 2")
	require.NoError(t, err)
	updates := ch.MessagesOfType(domain.KindAddressState)
	require.Len(t, updates, 1)
	require.Equal(t, domain.AddressStatePayload{Address: testAddresses[1]}, updates[0].Data)
}

func TestBrokerRequestsNeedConfirmation(t *testing.T) {
	session, _, _ := newRegisteredSession(t)
	broker := newTestBroker(t, session, &mockExplorer{})

	ch := newMockChannel("ch1", "")
	broker.HandleMessage(ch, pageMessage(
		domain.KindSendAsset, 1, evilOrigin,
		`{"to":"MGGSBUwJS3VdPtgrdFSJHa7mqcPJ6cj2gE","asset":"MONA","amount":"1.5","memoType":"no","memoValue":""}`,
	))

	request, ok := session.GetPendingRequest(nil)
	require.True(t, ok)
	require.Equal(t, domain.TargetApprove, request.Target)

	stillQueued := session.ApproveOrigin(evilOrigin, "1")
	require.True(t, stillQueued)

	id := domain.RequestID("1")
	request, ok = session.GetPendingRequest(&id)
	require.True(t, ok)
	require.Equal(t, domain.TargetSend, request.Target)
	payload, ok := request.Data.(*domain.SendAssetPayload)
	require.True(t, ok)
	require.Equal(t, "MONA", payload.Asset)
	require.Equal(t, "1.5", payload.Amount.String())

	// Approved origins still need confirmation for every action.
	broker.HandleMessage(ch, pageMessage(
		domain.KindSignMessage, 2, evilOrigin, `{"message":"hello"}`,
	))
	request, ok = session.GetPendingRequest(nil)
	require.True(t, ok)
	require.Equal(t, domain.TargetSignature, request.Target)
	require.Equal(t, domain.RequestID("2"), request.ID)
	require.Equal(t, 2, session.PendingRequestsCount())

	err := session.ShiftRequest(true, "1", json.RawMessage(`{"txHash":"abcd"}`))
	require.NoError(t, err)
	reply, ok := ch.Reply(domain.KindSendAsset, "1")
	require.True(t, ok)
	require.Equal(t, json.RawMessage(`{"txHash":"abcd"}`), reply.Data)

	err = session.ShiftRequest(false, "2", nil)
	require.NoError(t, err)
	reply, ok = ch.Reply(domain.KindSignMessage, "2")
	require.True(t, ok)
	require.Equal(t, domain.ErrorPayload{Error: "Unknown Error"}, reply.Data)

	err = session.ShiftRequest(true, "1", nil)
	require.ErrorIs(t, err, domain.ErrRequestNotFound)
	err = session.ShiftRequest(false, "1", nil)
	require.NoError(t, err)

	_, ok = session.GetPendingRequest(nil)
	require.False(t, ok)
}

func TestBrokerCancelRequests(t *testing.T) {
	tests := []struct {
		name   string
		cancel func(t *testing.T, session *application.Session)
	}{
		{
			name: "lock",
			cancel: func(_ *testing.T, session *application.Session) {
				session.Lock()
			},
		},
		{
			name: "address change",
			cancel: func(t *testing.T, session *application.Session) {
				_, err := session.CreateAccount(ctx, "Account 2")
				require.NoError(t, err)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, _, _ := newRegisteredSession(t)
			broker := newTestBroker(t, session, &mockExplorer{})

			alice := newMockChannel("alice", goodOrigin)
			bob := newMockChannel("bob", evilOrigin)
			broker.HandleMessage(alice, pageMessage(
				domain.KindSignTx, 1, "", `{"tx":"0100"}`,
			))
			broker.HandleMessage(bob, pageMessage(
				domain.KindSendRawTx, 1, "", `{"tx":"0100"}`,
			))
			broker.HandleMessage(bob, pageMessage(domain.KindAddress, 2, "", ""))
			require.Equal(t, 3, session.PendingRequestsCount())

			tt.cancel(t, session)
			require.Zero(t, session.PendingRequestsCount())

			cancelled := domain.ErrorPayload{Error: "User Cancelled"}
			reply, ok := alice.Reply(domain.KindSignTx, "1")
			require.True(t, ok)
			require.Equal(t, cancelled, reply.Data)
			reply, ok = bob.Reply(domain.KindSendRawTx, "1")
			require.True(t, ok)
			require.Equal(t, cancelled, reply.Data)
			reply, ok = bob.Reply(domain.KindAddress, "2")
			require.True(t, ok)
			require.Equal(t, cancelled, reply.Data)
		})
	}
}

func TestBrokerLockRevokesApprovals(t *testing.T) {
	session, _, _ := newRegisteredSession(t)
	broker := newTestBroker(t, session, &mockExplorer{})

	ch := newMockChannel("ch1", goodOrigin)
	broker.HandleMessage(ch, pageMessage(domain.KindAddress, 1, "", ""))
	session.ApproveOrigin(goodOrigin, "1")
	require.True(t, session.IsApprovedOrigin(goodOrigin))

	session.Lock()
	require.False(t, session.IsApprovedOrigin(goodOrigin))

	broker.HandleMessage(ch, pageMessage(domain.KindAddress, 2, "", ""))
	require.Equal(t, 1, session.PendingRequestsCount())
}

func TestBrokerDisconnect(t *testing.T) {
	session, _, _ := newRegisteredSession(t)
	broker := newTestBroker(t, session, &mockExplorer{})

	alice := newMockChannel("alice", goodOrigin)
	bob := newMockChannel("bob", evilOrigin)
	broker.HandleMessage(alice, pageMessage(domain.KindSignMessage, 1, "", `{"message":"a"}`))
	broker.HandleMessage(bob, pageMessage(domain.KindSignMessage, 1, "", `{"message":"b"}`))
	require.Equal(t, 2, session.PendingRequestsCount())

	broker.Disconnect("alice")
	require.Equal(t, 1, session.PendingRequestsCount())

	request, ok := session.GetPendingRequest(nil)
	require.True(t, ok)
	require.Equal(t, evilOrigin, request.Origin)

	// Nothing is delivered to disconnected pages.
	session.Lock()
	_, ok = alice.Reply(domain.KindSignMessage, "1")
	require.False(t, ok)
	_, ok = bob.Reply(domain.KindSignMessage, "1")
	require.True(t, ok)
}

func TestBrokerChannelOrigin(t *testing.T) {
	session, _, _ := newRegisteredSession(t)
	broker := newTestBroker(t, session, &mockExplorer{})

	// The origin authenticated by the transport wins over the claimed one.
	ch := newMockChannel("ch1", evilOrigin)
	broker.HandleMessage(ch, pageMessage(domain.KindAddress, 1, goodOrigin, ""))

	request, ok := session.GetPendingRequest(nil)
	require.True(t, ok)
	require.Equal(t, evilOrigin, request.Origin)

	// Channels without a transport origin can't switch to another one after
	// the first message.
	session.ApproveOrigin(goodOrigin, "")
	other := newMockChannel("ch2", "")
	broker.HandleMessage(other, pageMessage(domain.KindInit, 1, evilOrigin, ""))
	broker.HandleMessage(other, pageMessage(domain.KindAddress, 2, goodOrigin, ""))

	_, ok = other.Reply(domain.KindAddress, "2")
	require.False(t, ok)
	id := domain.RequestID("2")
	request, ok = session.GetPendingRequest(&id)
	require.True(t, ok)
	require.Equal(t, evilOrigin, request.Origin)
}

func TestBrokerApprovalReplayCount(t *testing.T) {
	session, _, notifier := newRegisteredSession(t)
	broker := newTestBroker(t, session, &mockExplorer{})

	ch := newMockChannel("ch1", goodOrigin)
	broker.HandleMessage(ch, pageMessage(domain.KindAddress, 1, "", ""))
	broker.HandleMessage(ch, pageMessage(domain.KindAddress, 2, "", ""))
	require.Equal(t, 2, session.PendingRequestsCount())

	before := len(notifier.EventsOfType(ports.EventPendingRequestsChanged))
	session.ApproveOrigin(goodOrigin, "1")

	events := notifier.EventsOfType(ports.EventPendingRequestsChanged)[before:]
	require.Len(t, events, 2)
	require.Equal(t, ports.PendingRequestsPayload{Count: 1}, events[0].Data)
	require.Equal(t, ports.PendingRequestsPayload{Count: 0}, events[1].Data)

	for _, id := range []domain.RequestID{"1", "2"} {
		_, ok := ch.Reply(domain.KindAddress, id)
		require.True(t, ok)
	}
}

func TestBrokerInvalidMessages(t *testing.T) {
	session, _, _ := newRegisteredSession(t)
	broker := newTestBroker(t, session, &mockExplorer{})

	ch := newMockChannel("ch1", goodOrigin)
	broker.HandleMessage(ch, pageMessage("mpurse.unknown", 1, "", ""))
	reply, ok := ch.Reply("mpurse.unknown", "1")
	require.True(t, ok)
	require.Equal(t, domain.ErrorPayload{Error: "Unknown message type"}, reply.Data)

	broker.HandleMessage(ch, pageMessage(domain.KindSignTx, 2, "", ""))
	reply, ok = ch.Reply(domain.KindSignTx, "2")
	require.True(t, ok)
	require.IsType(t, domain.ErrorPayload{}, reply.Data)

	broker.HandleMessage(ch, []byte("not json"))
	require.Len(t, ch.Messages(), 2)
	require.Zero(t, session.PendingRequestsCount())
}

func TestBrokerProxy(t *testing.T) {
	session, _, _ := newRegisteredSession(t)

	apiErr := &explorer.Error{Body: json.RawMessage(`{"code":-32000,"message":"boom"}`)}
	explorerSvc := &mockExplorer{}
	explorerSvc.On("Mpchain", mock.Anything, "balance", mock.Anything).
		Return(`{"balance":"1.0"}`, nil)
	explorerSvc.On("CounterBlock", mock.Anything, "get_assets_info", mock.Anything).
		Return(nil, apiErr)
	explorerSvc.On("CounterParty", mock.Anything, "get_balances", mock.Anything).
		Return(nil, fmt.Errorf("connection refused"))

	broker := newTestBroker(t, session, explorerSvc)

	ch := newMockChannel("ch1", goodOrigin)
	broker.HandleMessage(ch, pageMessage(
		domain.KindMpchain, 1, "", `{"method":"balance","params":{"address":"M","asset":"MONA"}}`,
	))
	// Proxies of non approved origins wait for the approval.
	require.Equal(t, 1, session.PendingRequestsCount())
	session.ApproveOrigin(goodOrigin, "1")

	broker.HandleMessage(ch, pageMessage(
		domain.KindCounterBlock, 2, "", `{"method":"get_assets_info","params":{}}`,
	))
	broker.HandleMessage(ch, pageMessage(
		domain.KindCounterParty, 3, "", `{"method":"get_balances","params":{}}`,
	))

	require.Eventually(t, func() bool {
		return len(ch.Messages()) == 3
	}, 2*time.Second, 10*time.Millisecond)

	reply, _ := ch.Reply(domain.KindMpchain, "1")
	require.Equal(t, json.RawMessage(`{"balance":"1.0"}`), reply.Data)
	reply, _ = ch.Reply(domain.KindCounterBlock, "2")
	require.Equal(t, apiErr.Body, reply.Data)
	reply, _ = ch.Reply(domain.KindCounterParty, "3")
	require.Equal(t, domain.ErrorPayload{Error: "connection refused"}, reply.Data)

	explorerSvc.AssertExpectations(t)
}

func newTestBroker(
	t *testing.T, session *application.Session, explorerSvc *mockExplorer,
) *application.Broker {
	broker, err := application.NewBroker(session, explorerSvc)
	require.NoError(t, err)
	t.Cleanup(broker.Close)
	return broker
}

func pageMessage(kind domain.RequestKind, id int, origin, data string) []byte {
	msg := map[string]interface{}{
		"type":   kind,
		"id":     id,
		"origin": origin,
	}
	if data != "" {
		msg["data"] = json.RawMessage(data)
	}
	buf, _ := json.Marshal(msg)
	return buf
}
