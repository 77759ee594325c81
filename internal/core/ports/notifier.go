package ports

// UIEventType ...
type UIEventType string

const (
	EventLoginStateChanged      UIEventType = "login-state-changed"
	EventAddressChanged         UIEventType = "address-changed"
	EventPendingRequestsChanged UIEventType = "pending-requests-changed"
	EventPopupRequested         UIEventType = "popup-requested"
)

// UIEvent is a notification for the user interface.
type UIEvent struct {
	Type UIEventType `json:"type"`
	Data interface{} `json:"data"`
}

// Notifier delivers UI events to whoever is listening. Notify must not
// block.
type Notifier interface {
	Notify(event UIEvent)
}

// PendingRequestsPayload is the data of EventPendingRequestsChanged events.
type PendingRequestsPayload struct {
	Count int `json:"count"`
}
