package wsinterface

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mpurse-network/mpurse-daemon/internal/core/domain"
	log "github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20
	sendBufferSize = 64
)

var (
	// ErrChannelClosed is returned when sending to a disconnected page.
	ErrChannelClosed = errors.New("channel is closed")
	// ErrChannelFull is returned when the page doesn't keep up with the
	// messages sent to it. The connection is closed in that case.
	ErrChannelFull = errors.New("channel send buffer is full")
)

// channel is the websocket connection with a page. Outbound messages are
// queued and written by a single goroutine so that Send can be used
// concurrently and keeps ordering.
type channel struct {
	id     string
	origin string
	conn   *websocket.Conn

	sendChan  chan domain.OutboundMessage
	quitChan  chan struct{}
	closeOnce *sync.Once
}

func newChannel(conn *websocket.Conn, origin string) *channel {
	return &channel{
		id:        uuid.New().String(),
		origin:    origin,
		conn:      conn,
		sendChan:  make(chan domain.OutboundMessage, sendBufferSize),
		quitChan:  make(chan struct{}),
		closeOnce: &sync.Once{},
	}
}

func (c *channel) ID() string {
	return c.id
}

func (c *channel) Origin() string {
	return c.origin
}

func (c *channel) Send(msg domain.OutboundMessage) error {
	select {
	case <-c.quitChan:
		return ErrChannelClosed
	default:
	}

	select {
	case c.sendChan <- msg:
		return nil
	case <-c.quitChan:
		return ErrChannelClosed
	default:
		log.Warnf("channel %s send buffer is full, disconnecting", c.id)
		c.close()
		return ErrChannelFull
	}
}

func (c *channel) close() {
	c.closeOnce.Do(func() {
		close(c.quitChan)
		c.conn.Close()
	})
}

// readLoop forwards every received frame to handle until the connection
// drops.
func (c *channel) readLoop(handle func(buf []byte)) {
	defer c.close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, buf, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(
				err, websocket.CloseGoingAway, websocket.CloseNormalClosure,
			) {
				log.WithError(err).Debugf("channel %s closed unexpectedly", c.id)
			}
			return
		}
		handle(buf)
	}
}

func (c *channel) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case msg := <-c.sendChan:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				log.WithError(err).Debugf("failed to write to channel %s", c.id)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.quitChan:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			)
			return
		}
	}
}
