package httpinterface

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mpurse-network/mpurse-daemon/internal/infrastructure/notifier"
	log "github.com/sirupsen/logrus"
)

const (
	eventsWriteWait  = 10 * time.Second
	eventsPingPeriod = 30 * time.Second
)

type eventsHandler struct {
	notifier notifier.Service
	upgrader websocket.Upgrader
}

// ServeHTTP streams UI events to the connected client until either side
// closes the connection.
func (h *eventsHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	conn, err := h.upgrader.Upgrade(w, req, nil)
	if err != nil {
		log.WithError(err).Debug("failed to upgrade events connection")
		return
	}
	defer conn.Close()

	id, events := h.notifier.Subscribe()
	defer h.notifier.Unsubscribe(id)

	quitChan := make(chan struct{})
	go func() {
		defer close(quitChan)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(eventsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				conn.WriteControl(
					websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
					time.Now().Add(eventsWriteWait),
				)
				return
			}
			conn.SetWriteDeadline(time.Now().Add(eventsWriteWait))
			if err := conn.WriteJSON(event); err != nil {
				log.WithError(err).Debugf("failed to write event to subscriber %s", id)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(eventsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-quitChan:
			return
		}
	}
}
