package application

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/mpurse-network/mpurse-daemon/internal/core/domain"
	"github.com/mpurse-network/mpurse-daemon/internal/core/ports"
	"github.com/mpurse-network/mpurse-daemon/pkg/explorer"
	log "github.com/sirupsen/logrus"
)

// Broker routes the messages sent by pages. Requests that need the user are
// queued in the session, the others are answered right away as long as the
// page's origin is approved.
type Broker struct {
	session  *Session
	explorer explorer.Service

	ctx    context.Context
	cancel context.CancelFunc
	wg     *sync.WaitGroup
}

// NewBroker returns a broker bound to the given session.
func NewBroker(session *Session, explorerSvc explorer.Service) (*Broker, error) {
	if session == nil {
		return nil, ErrNullSession
	}
	if explorerSvc == nil {
		return nil, ErrNullExplorer
	}

	ctx, cancel := context.WithCancel(context.Background())
	b := &Broker{
		session:  session,
		explorer: explorerSvc,
		ctx:      ctx,
		cancel:   cancel,
		wg:       &sync.WaitGroup{},
	}

	session.lock.Lock()
	session.executor = b
	session.lock.Unlock()

	return b, nil
}

// HandleMessage processes a raw message received from the given channel.
// Messages that can't be decoded are answered with an error, unless not
// even their id can be read.
func (b *Broker) HandleMessage(ch ports.Channel, buf []byte) {
	msg, err := domain.DecodeInboundMessage(buf)
	if err != nil {
		label := "malformed"
		if errors.Is(err, domain.ErrUnknownMessageType) {
			label = "unknown"
		}
		requestsCounter.WithLabelValues(label).Inc()

		// Without an id there's no way to correlate a reply.
		if msg == nil {
			log.WithError(err).Debugf("dropped message from channel %s", ch.ID())
			return
		}
		b.reply(ch, msg, domain.ErrorPayload{Error: err.Error()})
		return
	}
	requestsCounter.WithLabelValues(string(msg.Type)).Inc()

	if origin := ch.Origin(); origin != "" {
		msg.Origin = origin
	}

	b.session.lock.Lock()
	defer b.session.lock.Unlock()

	// A channel keeps the origin of its first message.
	b.session.registerChannel(ch, msg.Origin)
	msg.Origin = b.session.channelOrigin(ch.ID())

	switch {
	case msg.Type == domain.KindInit:
		b.execute(ch, msg)
	case msg.Type.RequiresConfirmation():
		b.session.pushRequest(msg.Type.Target(), ch.ID(), msg)
	case b.session.isApprovedOrigin(msg.Origin):
		b.execute(ch, msg)
	default:
		b.session.pushRequest(domain.TargetAddress, ch.ID(), msg)
	}
}

// Disconnect forgets the channel and silently drops its pending requests.
func (b *Broker) Disconnect(channelID string) {
	b.session.lock.Lock()
	defer b.session.lock.Unlock()

	b.session.unregisterChannel(channelID)
}

// Close aborts the explorer requests in flight and waits for them to return.
func (b *Broker) Close() {
	b.cancel()
	b.wg.Wait()
}

func (b *Broker) execute(ch ports.Channel, msg *domain.InboundMessage) {
	switch msg.Type {
	case domain.KindInit:
		b.reply(ch, msg, domain.LoginStatePayload{
			IsUnlocked: b.session.isUnlocked,
		})
	case domain.KindAddress:
		b.reply(ch, msg, domain.AddressStatePayload{
			Address: b.session.preferences.SelectedAddress,
		})
	default:
		if !msg.Type.IsProxy() {
			b.reply(ch, msg, domain.ErrorPayload{
				Error: domain.ErrUnknownMessageType.Error(),
			})
			return
		}
		b.wg.Add(1)
		go b.proxy(ch, msg)
	}
}

func (b *Broker) proxy(ch ports.Channel, msg *domain.InboundMessage) {
	defer b.wg.Done()

	payload, ok := msg.Payload.(*domain.ProxyPayload)
	if !ok {
		b.reply(ch, msg, domain.ErrorPayload{Error: domain.ErrMalformedMessage.Error()})
		return
	}

	var (
		result json.RawMessage
		err    error
	)
	switch msg.Type {
	case domain.KindMpchain:
		result, err = b.explorer.Mpchain(b.ctx, payload.Method, payload.Params)
	case domain.KindCounterBlock:
		result, err = b.explorer.CounterBlock(b.ctx, payload.Method, payload.Params)
	case domain.KindCounterParty:
		result, err = b.explorer.CounterParty(b.ctx, payload.Method, payload.Params)
	}
	if err != nil {
		b.reply(ch, msg, errorData(err))
		return
	}
	b.reply(ch, msg, result)
}

func (b *Broker) reply(
	ch ports.Channel, msg *domain.InboundMessage, data interface{},
) {
	if err := ch.Send(domain.OutboundMessage{
		Type: msg.Type,
		ID:   msg.ID,
		Data: data,
	}); err != nil {
		log.WithError(err).Debugf("failed to reply to channel %s", ch.ID())
	}
}

// errorData returns what is delivered to a page in place of a result when
// the remote API fails. API errors are forwarded as they are.
func errorData(err error) interface{} {
	apiErr := &explorer.Error{}
	if errors.As(err, &apiErr) && len(apiErr.Body) > 0 {
		return apiErr.Body
	}
	return domain.ErrorPayload{Error: err.Error()}
}
