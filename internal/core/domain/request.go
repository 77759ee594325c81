package domain

import "encoding/json"

// RequestTarget tells the UI which screen resolves a pending request.
type RequestTarget string

const (
	TargetAddress     RequestTarget = ""
	TargetSend        RequestTarget = "send"
	TargetTransaction RequestTarget = "transaction"
	TargetSignature   RequestTarget = "signature"
	TargetApprove     RequestTarget = "approve"
)

// PendingRequest is a page request waiting for the user.
type PendingRequest struct {
	Target    RequestTarget `json:"target"`
	ChannelID string        `json:"-"`
	Type      RequestKind   `json:"type"`
	ID        RequestID     `json:"id"`
	Origin    string        `json:"origin"`
	Data      interface{}   `json:"data"`
}

// NewPendingRequest queues the given page message for the user.
func NewPendingRequest(
	target RequestTarget, channelID string, msg *InboundMessage,
) *PendingRequest {
	return &PendingRequest{
		Target:    target,
		ChannelID: channelID,
		Type:      msg.Type,
		ID:        msg.ID,
		Origin:    msg.Origin,
		Data:      msg.Payload,
	}
}

// ApprovalPlaceholder returns the request the UI is given in place of this
// one while its origin is not approved.
func (r *PendingRequest) ApprovalPlaceholder() *PendingRequest {
	return &PendingRequest{
		Target: TargetApprove,
		ID:     r.ID,
		Origin: r.Origin,
	}
}

// Message returns the page message the request was created from.
func (r *PendingRequest) Message() *InboundMessage {
	return &InboundMessage{
		Type:    r.Type,
		ID:      r.ID,
		Origin:  r.Origin,
		Payload: r.Data,
	}
}

// ResolutionData returns the data delivered to the page when a request is
// resolved by the user. Unsuccessful results that don't carry an error are
// turned into a generic one.
func ResolutionData(isSuccessful bool, result json.RawMessage) interface{} {
	if isSuccessful {
		if len(result) <= 0 {
			return nil
		}
		return result
	}

	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(result, &fields); err == nil {
		if _, ok := fields["error"]; ok {
			return result
		}
	}
	return ErrorPayload{ErrUnknown.Error()}
}

// RequestQueue holds the pending requests, most recent first. Ids are
// compared in their canonical string form. It's not safe for concurrent
// use.
type RequestQueue struct {
	requests []*PendingRequest
}

// NewRequestQueue ...
func NewRequestQueue() *RequestQueue {
	return &RequestQueue{make([]*PendingRequest, 0)}
}

// Push adds the request in front of the queue.
func (q *RequestQueue) Push(r *PendingRequest) {
	q.requests = append([]*PendingRequest{r}, q.requests...)
}

// Len ...
func (q *RequestQueue) Len() int {
	return len(q.requests)
}

// Head returns the most recent request.
func (q *RequestQueue) Head() (*PendingRequest, bool) {
	if len(q.requests) <= 0 {
		return nil, false
	}
	return q.requests[0], true
}

// Get returns the most recent request with the given id.
func (q *RequestQueue) Get(id RequestID) (*PendingRequest, bool) {
	i := q.indexOf(id)
	if i < 0 {
		return nil, false
	}
	return q.requests[i], true
}

// Contains ...
func (q *RequestQueue) Contains(id RequestID) bool {
	return q.indexOf(id) >= 0
}

// Remove drops and returns the most recent request with the given id.
func (q *RequestQueue) Remove(id RequestID) (*PendingRequest, bool) {
	i := q.indexOf(id)
	if i < 0 {
		return nil, false
	}
	r := q.requests[i]
	q.requests = append(q.requests[:i:i], q.requests[i+1:]...)
	return r, true
}

// RemoveByChannel drops and returns every request of the given channel.
func (q *RequestQueue) RemoveByChannel(channelID string) []*PendingRequest {
	return q.RemoveIf(func(r *PendingRequest) bool {
		return r.ChannelID == channelID
	})
}

// All returns a snapshot of the queue, most recent first.
func (q *RequestQueue) All() []*PendingRequest {
	requests := make([]*PendingRequest, len(q.requests))
	copy(requests, q.requests)
	return requests
}

// Clear empties the queue and returns the dropped requests.
func (q *RequestQueue) Clear() []*PendingRequest {
	requests := q.requests
	q.requests = make([]*PendingRequest, 0)
	return requests
}

func (q *RequestQueue) indexOf(id RequestID) int {
	for i, r := range q.requests {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// RemoveIf drops and returns every request matching the predicate.
func (q *RequestQueue) RemoveIf(fn func(*PendingRequest) bool) []*PendingRequest {
	kept := make([]*PendingRequest, 0, len(q.requests))
	removed := make([]*PendingRequest, 0)
	for _, r := range q.requests {
		if fn(r) {
			removed = append(removed, r)
			continue
		}
		kept = append(kept, r)
	}
	q.requests = kept
	return removed
}
