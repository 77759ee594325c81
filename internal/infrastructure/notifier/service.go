package notifier

import (
	"sync"

	"github.com/google/uuid"
	"github.com/mpurse-network/mpurse-daemon/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

// DefaultBufferSize is the number of events kept for a subscriber that is
// not reading fast enough. Further events are dropped for that subscriber.
const DefaultBufferSize = 32

// Service fans UI events out to every subscriber.
type Service interface {
	ports.Notifier
	// Subscribe registers a new listener and returns its id and the channel
	// where events are delivered. The channel is closed by Unsubscribe or
	// Close.
	Subscribe() (string, <-chan ports.UIEvent)
	Unsubscribe(id string)
	SubscribersCount() int
	Close()
}

type service struct {
	lock        *sync.RWMutex
	subscribers map[string]chan ports.UIEvent
	bufferSize  int
	closed      bool
}

// NewService returns a notifier buffering up to bufferSize events per
// subscriber. A non positive size defaults to DefaultBufferSize.
func NewService(bufferSize int) Service {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &service{
		lock:        &sync.RWMutex{},
		subscribers: make(map[string]chan ports.UIEvent),
		bufferSize:  bufferSize,
	}
}

func (s *service) Notify(event ports.UIEvent) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	for id, ch := range s.subscribers {
		select {
		case ch <- event:
		default:
			log.Debugf("subscriber %s is lagging behind, dropped %s event", id, event.Type)
		}
	}
}

func (s *service) Subscribe() (string, <-chan ports.UIEvent) {
	s.lock.Lock()
	defer s.lock.Unlock()

	id := uuid.New().String()
	ch := make(chan ports.UIEvent, s.bufferSize)
	if s.closed {
		close(ch)
		return id, ch
	}

	s.subscribers[id] = ch
	log.Debugf("added ui subscriber %s", id)
	return id, ch
}

func (s *service) Unsubscribe(id string) {
	s.lock.Lock()
	defer s.lock.Unlock()

	ch, ok := s.subscribers[id]
	if !ok {
		return
	}
	close(ch)
	delete(s.subscribers, id)
	log.Debugf("removed ui subscriber %s", id)
}

func (s *service) SubscribersCount() int {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return len(s.subscribers)
}

func (s *service) Close() {
	s.lock.Lock()
	defer s.lock.Unlock()

	for id, ch := range s.subscribers {
		close(ch)
		delete(s.subscribers, id)
	}
	s.closed = true
}
