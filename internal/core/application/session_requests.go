package application

import (
	"encoding/json"

	"github.com/hashicorp/go-multierror"
	"github.com/mpurse-network/mpurse-daemon/internal/core/domain"
	"github.com/mpurse-network/mpurse-daemon/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

// requestExecutor replies to the requests that don't need the user. It's
// always called with the session lock held.
type requestExecutor interface {
	execute(ch ports.Channel, msg *domain.InboundMessage)
}

type pageChannel struct {
	ports.Channel
	origin string
}

// GetPendingRequest returns the request with the given id, or the most
// recent one if id is nil. Requests of origins not approved yet are hidden
// behind an approval placeholder.
func (s *Session) GetPendingRequest(
	id *domain.RequestID,
) (*domain.PendingRequest, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	var (
		request *domain.PendingRequest
		ok      bool
	)
	if id == nil {
		request, ok = s.requests.Head()
	} else {
		request, ok = s.requests.Get(*id)
	}
	if !ok {
		return nil, false
	}

	if !s.isApprovedOrigin(request.Origin) {
		return request.ApprovalPlaceholder(), true
	}
	cp := *request
	return &cp, true
}

// PendingRequestsCount ...
func (s *Session) PendingRequestsCount() int {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.requests.Len()
}

// ShiftRequest removes the request with the given id and delivers the
// user's decision to the page that sent it. Rejecting a request that is
// not queued is not an error.
func (s *Session) ShiftRequest(
	isSuccessful bool, id domain.RequestID, result json.RawMessage,
) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	request, ok := s.requests.Remove(id)
	if !ok {
		if isSuccessful {
			return domain.ErrRequestNotFound
		}
		return nil
	}
	s.pendingRequestsChanged()

	if err := s.deliver(request.ChannelID, domain.OutboundMessage{
		Type: request.Type,
		ID:   request.ID,
		Data: domain.ResolutionData(isSuccessful, result),
	}); err != nil {
		log.WithError(err).Warnf(
			"failed to deliver resolution of request %s", request.ID,
		)
	}
	return nil
}

// ApproveOrigin grants the origin access to the account address and
// replays its queued requests that don't need further confirmation.
// It returns whether the request with the given id is still queued.
func (s *Session) ApproveOrigin(origin string, id domain.RequestID) bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.approvedOrigins.Add(origin) {
		s.executePendingRequests()
	}
	return s.requests.Contains(id)
}

// IsApprovedOrigin ...
func (s *Session) IsApprovedOrigin(origin string) bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.isApprovedOrigin(origin)
}

func (s *Session) isApprovedOrigin(origin string) bool {
	return s.approvedOrigins.Contains(origin)
}

func (s *Session) executePendingRequests() {
	if s.executor == nil {
		return
	}

	for _, request := range s.requests.All() {
		if request.Target != domain.TargetAddress ||
			!s.isApprovedOrigin(request.Origin) {
			continue
		}

		r := request
		s.requests.RemoveIf(func(p *domain.PendingRequest) bool { return p == r })
		if ch, ok := s.channels[r.ChannelID]; ok {
			s.executor.execute(ch, r.Message())
		}
		s.pendingRequestsChanged()
	}
}

func (s *Session) registerChannel(ch ports.Channel, origin string) {
	if _, ok := s.channels[ch.ID()]; ok {
		return
	}
	s.channels[ch.ID()] = &pageChannel{ch, origin}
	connectedChannelsGauge.Set(float64(len(s.channels)))
}

// channelOrigin returns the origin the channel was registered with.
func (s *Session) channelOrigin(id string) string {
	if ch, ok := s.channels[id]; ok {
		return ch.origin
	}
	return ""
}

func (s *Session) unregisterChannel(id string) {
	if _, ok := s.channels[id]; !ok {
		return
	}
	delete(s.channels, id)
	connectedChannelsGauge.Set(float64(len(s.channels)))

	if removed := s.requests.RemoveByChannel(id); len(removed) > 0 {
		s.pendingRequestsChanged()
	}
}

func (s *Session) pushRequest(
	target domain.RequestTarget, channelID string, msg *domain.InboundMessage,
) {
	s.requests.Push(domain.NewPendingRequest(target, channelID, msg))
	s.pendingRequestsChanged()
	s.notify(ports.EventPopupRequested, nil)
}

func (s *Session) deliver(channelID string, msg domain.OutboundMessage) error {
	ch, ok := s.channels[channelID]
	if !ok {
		return ErrChannelNotFound
	}
	return ch.Send(msg)
}

// broadcast sends an unsolicited update to the pages. Address updates are
// only sent to approved origins.
func (s *Session) broadcast(msg domain.OutboundMessage) {
	for _, ch := range s.channels {
		if msg.Type == domain.KindAddressState && !s.isApprovedOrigin(ch.origin) {
			continue
		}
		if err := ch.Send(msg); err != nil {
			log.WithError(err).Debugf("failed to send %s to channel %s", msg.Type, ch.ID())
		}
	}
}

func (s *Session) cancelAllRequests() {
	cancelled := s.requests.Clear()
	if len(cancelled) <= 0 {
		return
	}

	var result *multierror.Error
	for _, request := range cancelled {
		if err := s.deliver(
			request.ChannelID,
			domain.NewErrorMessage(request.Type, request.ID, domain.ErrUserCancelled),
		); err != nil {
			result = multierror.Append(result, err)
		}
	}
	s.pendingRequestsChanged()

	if err := result.ErrorOrNil(); err != nil {
		log.WithError(err).Warn("failed to notify some cancelled requests")
	}
}

func (s *Session) pendingRequestsChanged() {
	count := s.requests.Len()
	pendingRequestsGauge.Set(float64(count))
	s.notify(ports.EventPendingRequestsChanged, ports.PendingRequestsPayload{
		Count: count,
	})
}
