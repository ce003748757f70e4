package session

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/arcana-network/roastnode/cache"
	"github.com/arcana-network/roastnode/common"
	"github.com/arcana-network/roastnode/messages"
)

// EventBufferCap bounds how many events a paused stream holds before the
// oldest is shed. Dropping is acceptable: clients re-hydrate full state on
// their next login.
const EventBufferCap = 100

// ClientSession is the per-logged-in-participant object: identity, session
// id, expiry and the one-way event stream with its paused-state buffer.
//
// SendEvent is called under the coordinator's request lock while Attach and
// Lost arrive from transport goroutines, so the session guards its own
// stream state.
type ClientSession struct {
	Participant common.Identifier
	ID          string

	mu        sync.Mutex
	expiry    common.Expiry
	out       chan messages.Event
	buffer    *cache.RingBuffer[messages.Event]
	closed    bool
	onLost    func(*ClientSession)
	keepStop  chan struct{}
	onDropped func()
}

func New(participant common.Identifier, id string, expiry common.Expiry) *ClientSession {
	return &ClientSession{
		Participant: participant,
		ID:          id,
		expiry:      expiry,
		buffer:      cache.NewRingBuffer[messages.Event](EventBufferCap),
	}
}

func (s *ClientSession) GetExpiry() common.Expiry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expiry
}

func (s *ClientSession) SetExpiry(e common.Expiry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expiry = e
}

// OnLostStream registers the hook run when the subscriber departs. In
// practice this removes the session from server state and runs the
// end-session side effects.
func (s *ClientSession) OnLostStream(fn func(*ClientSession)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onLost = fn
}

// OnDroppedEvent registers a hook fired once per event shed at buffer
// capacity; telemetry counts these.
func (s *ClientSession) OnDroppedEvent(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onDropped = fn
}

// SendEvent delivers ev in FIFO order: straight to the stream while a
// subscriber keeps up, to the ring buffer while the stream is paused or
// backed up. Never blocks.
func (s *ClientSession) SendEvent(ev messages.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.out == nil || s.buffer.Len() > 0 {
		s.bufferLocked(ev)
		s.flushLocked()
		return
	}
	select {
	case s.out <- ev:
	default:
		s.bufferLocked(ev)
	}
}

func (s *ClientSession) bufferLocked(ev messages.Event) {
	if !s.buffer.Push(ev) && s.onDropped != nil {
		s.onDropped()
	}
}

func (s *ClientSession) flushLocked() {
	if s.out == nil {
		return
	}
	buffered := s.buffer.Flush()
	for i, ev := range buffered {
		select {
		case s.out <- ev:
		default:
			for _, rest := range buffered[i:] {
				s.bufferLocked(rest)
			}
			return
		}
	}
}

// Attach hands the event stream to a subscriber, flushing anything buffered
// while the stream was paused. A second Attach replaces the first: the old
// channel is closed and the stream restarts on the new one.
func (s *ClientSession) Attach() <-chan messages.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.out != nil {
		close(s.out)
	}
	s.out = make(chan messages.Event, EventBufferCap)
	s.flushLocked()
	return s.out
}

// Lost marks the stream gone and runs the lost-stream hook. Equivalent to
// session termination.
func (s *ClientSession) Lost() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.out = nil
	hook := s.onLost
	s.mu.Unlock()

	if hook != nil {
		hook(s)
	}
}

// Close shuts the event sink and stops keepalive delivery. Idempotent.
func (s *ClientSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.out != nil {
		close(s.out)
		s.out = nil
	}
	if s.keepStop != nil {
		close(s.keepStop)
		s.keepStop = nil
	}
}

// StartKeepalive emits a KeepaliveEvent at the given frequency until the
// session closes.
func (s *ClientSession) StartKeepalive(freq time.Duration) {
	s.mu.Lock()
	if s.closed || s.keepStop != nil || freq <= 0 {
		s.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	s.keepStop = stop
	s.mu.Unlock()

	go func() {
		ticker := time.NewTicker(freq)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.SendEvent(messages.KeepaliveEvent{})
			case <-stop:
				return
			}
		}
	}()
	log.WithFields(log.Fields{
		"Participant": s.Participant,
		"Freq":        freq,
	}).Debug("session keepalive started")
}
