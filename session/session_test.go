package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/arcana-network/roastnode/common"
	"github.com/arcana-network/roastnode/messages"
)

func newTestSession() *ClientSession {
	return New("id1", "sid-1", common.ExpiresIn(time.Minute))
}

func drain(ch <-chan messages.Event) []messages.Event {
	var out []messages.Event
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, ev)
		default:
			return out
		}
	}
}

func TestSession_BuffersWhilePaused(t *testing.T) {
	s := newTestSession()

	s.SendEvent(messages.ParticipantStatusEvent{ID: "id2", LoggedIn: true})
	s.SendEvent(messages.DkgRejectEvent{Name: "k", Participant: "id3"})

	ch := s.Attach()
	got := drain(ch)
	assert.Len(t, got, 2)
	assert.Equal(t, messages.ParticipantStatusEventKind, got[0].EventKind())
	assert.Equal(t, messages.DkgRejectEventKind, got[1].EventKind())
}

func TestSession_BufferedBeforeLive(t *testing.T) {
	s := newTestSession()
	s.SendEvent(messages.DkgRejectEvent{Name: "old", Participant: "id2"})

	ch := s.Attach()
	s.SendEvent(messages.DkgRejectEvent{Name: "new", Participant: "id2"})

	got := drain(ch)
	assert.Len(t, got, 2)
	assert.Equal(t, "old", got[0].(messages.DkgRejectEvent).Name)
	assert.Equal(t, "new", got[1].(messages.DkgRejectEvent).Name)
}

func TestSession_DropsOldestAtCapacity(t *testing.T) {
	s := newTestSession()
	dropped := 0
	s.OnDroppedEvent(func() { dropped++ })

	for i := 0; i < EventBufferCap+5; i++ {
		s.SendEvent(messages.SignaturesFailureEvent{RequestID: messages.RequestID(string(rune('a' + i%26)))})
	}

	ch := s.Attach()
	got := drain(ch)
	assert.Len(t, got, EventBufferCap)
	assert.Equal(t, 5, dropped)
}

func TestSession_LostRunsHook(t *testing.T) {
	s := newTestSession()
	var lost *ClientSession
	s.OnLostStream(func(cs *ClientSession) { lost = cs })

	s.Attach()
	s.Lost()

	assert.Equal(t, s, lost)
}

func TestSession_CloseIsIdempotent(t *testing.T) {
	s := newTestSession()
	ch := s.Attach()

	s.Close()
	s.Close()

	_, open := <-ch
	assert.False(t, open)

	// After close, events go nowhere and Lost no longer fires the hook.
	fired := false
	s.OnLostStream(func(*ClientSession) { fired = true })
	s.SendEvent(messages.KeepaliveEvent{})
	s.Lost()
	assert.False(t, fired)
}

func TestSession_KeepaliveDelivers(t *testing.T) {
	s := newTestSession()
	ch := s.Attach()
	s.StartKeepalive(10 * time.Millisecond)
	defer s.Close()

	select {
	case ev := <-ch:
		assert.Equal(t, messages.KeepaliveEventKind, ev.EventKind())
	case <-time.After(time.Second):
		t.Fatal("Should deliver a keepalive event")
	}
}
