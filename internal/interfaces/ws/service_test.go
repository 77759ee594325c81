package wsinterface

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mpurse-network/mpurse-daemon/internal/core/domain"
	"github.com/mpurse-network/mpurse-daemon/internal/core/ports"
	"github.com/stretchr/testify/require"
)

// echoHandler replies to every message with its raw content on the same
// id and records the disconnected channels.
type echoHandler struct {
	lock         *sync.Mutex
	origins      []string
	disconnected []string
}

func newEchoHandler() *echoHandler {
	return &echoHandler{lock: &sync.Mutex{}}
}

func (h *echoHandler) HandleMessage(ch ports.Channel, buf []byte) {
	h.lock.Lock()
	h.origins = append(h.origins, ch.Origin())
	h.lock.Unlock()

	var msg struct {
		ID domain.RequestID `json:"id"`
	}
	json.Unmarshal(buf, &msg)

	ch.Send(domain.OutboundMessage{
		Type: domain.KindInit,
		ID:   msg.ID,
		Data: json.RawMessage(buf),
	})
}

func (h *echoHandler) Disconnect(channelID string) {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.disconnected = append(h.disconnected, channelID)
}

func (h *echoHandler) disconnectedCount() int {
	h.lock.Lock()
	defer h.lock.Unlock()

	return len(h.disconnected)
}

func TestServeWs(t *testing.T) {
	handler := newEchoHandler()
	svc, server := newTestServer(t, ServiceOpts{Handler: handler})

	conn := dial(t, server, "https://example.com")

	// Numeric ids go back as numbers, string ids as strings.
	tests := []struct {
		message  string
		expected string
	}{
		{
			`{"type":"mpurse.init","id":1}`,
			`{"type":"mpurse.init","id":1,"data":{"type":"mpurse.init","id":1}}`,
		},
		{
			`{"type":"mpurse.init","id":"abc"}`,
			`{"type":"mpurse.init","id":"abc","data":{"type":"mpurse.init","id":"abc"}}`,
		},
	}
	for _, tt := range tests {
		err := conn.WriteMessage(websocket.TextMessage, []byte(tt.message))
		require.NoError(t, err)

		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, buf, err := conn.ReadMessage()
		require.NoError(t, err)
		require.JSONEq(t, tt.expected, string(buf))
	}

	handler.lock.Lock()
	require.Equal(t, []string{"https://example.com", "https://example.com"}, handler.origins)
	handler.lock.Unlock()
	require.Equal(t, 1, svc.channelsCount())

	conn.Close()
	require.Eventually(t, func() bool {
		return handler.disconnectedCount() == 1 && svc.channelsCount() == 0
	}, 5*time.Second, 10*time.Millisecond)
}

func TestAllowedOrigins(t *testing.T) {
	_, server := newTestServer(t, ServiceOpts{
		Handler:        newEchoHandler(),
		AllowedOrigins: []string{"https://allowed.com"},
	})

	conn := dial(t, server, "https://allowed.com")
	conn.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	header := http.Header{"Origin": []string{"https://denied.com"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Clients that don't tell their origin are refused too.
	_, resp, err = websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestInvalidServiceOpts(t *testing.T) {
	tests := []struct {
		name string
		opts ServiceOpts
	}{
		{"missing handler", ServiceOpts{Port: 9945}},
		{"invalid port", ServiceOpts{Port: -1, Handler: newEchoHandler()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewService(tt.opts)
			require.Error(t, err)
		})
	}
}

func TestChannelSendAfterClose(t *testing.T) {
	handler := newEchoHandler()
	svc, server := newTestServer(t, ServiceOpts{Handler: handler})

	dial(t, server, "")
	require.Eventually(t, func() bool {
		return svc.channelsCount() == 1
	}, 5*time.Second, 10*time.Millisecond)

	svc.lock.Lock()
	var ch *channel
	for _, c := range svc.channels {
		ch = c
	}
	svc.lock.Unlock()

	svc.Stop()
	require.ErrorIs(t, ch.Send(domain.NewLoginStateMessage(true)), ErrChannelClosed)
	require.Equal(t, 1, handler.disconnectedCount())
}

func newTestServer(
	t *testing.T, opts ServiceOpts,
) (*service, *httptest.Server) {
	svc, err := newService(opts)
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(svc.serveWs))
	t.Cleanup(server.Close)
	return svc, server
}

func dial(t *testing.T, server *httptest.Server, origin string) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}
