package clock

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/tetsuo/smpte/framerate"
)

var (
	// ErrSubscriberExists is returned when Subscribe is called with a duplicate id.
	ErrSubscriberExists = errors.New("clock: subscriber id already exists")

	// ErrSubscriberNotFound is returned when Unsubscribe is called with unknown id.
	ErrSubscriberNotFound = errors.New("clock: subscriber id not found")

	// ErrNilChannel is returned when Subscribe is called with a nil channel.
	ErrNilChannel = errors.New("clock: subscriber channel cannot be nil")

	// ErrClosed is returned when subscribing to a closed clock.
	ErrClosed = errors.New("clock: closed")
)

// EventKind identifies a notification.
type EventKind int

const (
	// EventFrameRateReady is sent when the frame rate is set or calibrated.
	EventFrameRateReady EventKind = iota + 1
	// EventDropFrameChanged is sent when the drop-frame setting flips.
	EventDropFrameChanged
	// EventFrameRateError is sent when calibration fails and the default stays in use.
	EventFrameRateError
)

func (k EventKind) String() string {
	switch k {
	case EventFrameRateReady:
		return "framerateready"
	case EventDropFrameChanged:
		return "dropframechanged"
	case EventFrameRateError:
		return "framerateerror"
	}
	return "unknown"
}

// Event is a snapshot of the clock taken when the notification was raised.
type Event struct {
	Kind      EventKind
	FrameRate float64 // effective frame rate, default included
	DropFrame bool
	Err       error // set for EventFrameRateError

	// Set when the event comes from Calibrate.
	Source  framerate.Source
	TrackID uint32
}

// Subscribe registers ch to receive events. Delivery never blocks: an event
// is dropped for a subscriber whose channel is full.
func (c *Clock) Subscribe(id string, ch chan<- Event) error {
	return c.subs.add(id, ch)
}

// Unsubscribe removes a subscriber by id.
func (c *Clock) Unsubscribe(id string) error {
	return c.subs.remove(id)
}

// Dropped returns how many events could not be delivered to id.
func (c *Clock) Dropped(id string) uint64 {
	return c.subs.dropped(id)
}

type subscriber struct {
	ch      chan<- Event
	dropped atomic.Uint64
}

type subscribers struct {
	mu     sync.RWMutex
	m      map[string]*subscriber
	closed bool
}

func (s *subscribers) init() {
	s.m = make(map[string]*subscriber)
}

func (s *subscribers) add(id string, ch chan<- Event) error {
	if ch == nil {
		return ErrNilChannel
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if _, exists := s.m[id]; exists {
		return ErrSubscriberExists
	}
	s.m[id] = &subscriber{ch: ch}
	return nil
}

func (s *subscribers) remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.m[id]; !exists {
		return ErrSubscriberNotFound
	}
	delete(s.m, id)
	return nil
}

func (s *subscribers) dropped(id string) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sub, ok := s.m[id]; ok {
		return sub.dropped.Load()
	}
	return 0
}

func (s *subscribers) publish(ev Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return
	}
	for _, sub := range s.m {
		select {
		case sub.ch <- ev:
		default:
			sub.dropped.Add(1)
		}
	}
}

// close is idempotent. Subscriber channels are left open; they belong to
// the subscribers.
func (s *subscribers) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
