package wsinterface

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set"
	"github.com/gorilla/websocket"
	"github.com/mpurse-network/mpurse-daemon/internal/core/ports"
	interfaces "github.com/mpurse-network/mpurse-daemon/internal/interfaces"
	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 5 * time.Second

// MessageHandler processes the messages received from the pages.
type MessageHandler interface {
	HandleMessage(ch ports.Channel, buf []byte)
	Disconnect(channelID string)
}

type ServiceOpts struct {
	Port int
	// AllowedOrigins restricts the pages allowed to connect. Any origin is
	// accepted if empty.
	AllowedOrigins []string
	Handler        MessageHandler
}

func (o ServiceOpts) validate() error {
	if o.Port < 0 || o.Port > 65535 {
		return fmt.Errorf("invalid listening port %d", o.Port)
	}
	if o.Handler == nil {
		return fmt.Errorf("message handler must not be null")
	}
	return nil
}

func (o ServiceOpts) address() string {
	return fmt.Sprintf(":%d", o.Port)
}

type service struct {
	opts           ServiceOpts
	allowedOrigins mapset.Set
	upgrader       websocket.Upgrader
	server         *http.Server

	lock     *sync.Mutex
	channels map[string]*channel
	wg       *sync.WaitGroup
}

// NewService returns the websocket server the pages connect to.
func NewService(opts ServiceOpts) (interfaces.Service, error) {
	return newService(opts)
}

func newService(opts ServiceOpts) (*service, error) {
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("invalid opts: %s", err)
	}

	allowedOrigins := mapset.NewSet()
	for _, origin := range opts.AllowedOrigins {
		allowedOrigins.Add(origin)
	}

	s := &service{
		opts:           opts,
		allowedOrigins: allowedOrigins,
		lock:           &sync.Mutex{},
		channels:       make(map[string]*channel),
		wg:             &sync.WaitGroup{},
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	return s, nil
}

func (s *service) Start() error {
	lis, err := net.Listen("tcp", s.opts.address())
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.serveWs)
	s.server = &http.Server{Handler: mux}

	go func() {
		if err := s.server.Serve(lis); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("page interface stopped unexpectedly")
		}
	}()

	log.Infof("page interface listening on %s", lis.Addr())
	return nil
}

func (s *service) Stop() {
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.server.Shutdown(ctx)
	}

	s.lock.Lock()
	for _, ch := range s.channels {
		ch.close()
	}
	s.lock.Unlock()

	s.wg.Wait()
	log.Debug("disabled page interface")
}

// checkOrigin accepts any page if no origin is configured, otherwise only
// the listed ones. Requests without Origin header are refused then.
func (s *service) checkOrigin(req *http.Request) bool {
	if s.allowedOrigins.Cardinality() <= 0 {
		return true
	}
	return s.allowedOrigins.Contains(req.Header.Get("Origin"))
}

func (s *service) serveWs(w http.ResponseWriter, req *http.Request) {
	conn, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		log.WithError(err).Debug("failed to upgrade page connection")
		return
	}

	ch := newChannel(conn, req.Header.Get("Origin"))
	s.addChannel(ch)
	log.Debugf("page connected on channel %s (origin: %s)", ch.id, ch.origin)

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		ch.writeLoop()
	}()
	go func() {
		defer s.wg.Done()
		ch.readLoop(func(buf []byte) {
			s.opts.Handler.HandleMessage(ch, buf)
		})
		s.removeChannel(ch.id)
		s.opts.Handler.Disconnect(ch.id)
		log.Debugf("page disconnected from channel %s", ch.id)
	}()
}

func (s *service) addChannel(ch *channel) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.channels[ch.id] = ch
}

func (s *service) removeChannel(id string) {
	s.lock.Lock()
	defer s.lock.Unlock()

	delete(s.channels, id)
}

func (s *service) channelsCount() int {
	s.lock.Lock()
	defer s.lock.Unlock()

	return len(s.channels)
}
