package ports

import "github.com/mpurse-network/mpurse-daemon/internal/core/domain"

// Channel is the connection with a page. Messages are delivered in the
// order they are sent and Send must be safe for concurrent use.
type Channel interface {
	ID() string
	// Origin is the origin the transport authenticated for the page, if any.
	// When empty, the origin claimed by each message is used instead.
	Origin() string
	Send(msg domain.OutboundMessage) error
}
