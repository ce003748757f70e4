package server

import (
	"net/http"
	"time"

	"github.com/avast/retry-go"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/arcana-network/roastnode/coordinator"
	"github.com/arcana-network/roastnode/messages"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

const streamWriteTimeout = 10 * time.Second

// eventStreamHandler serves the one long-lived unidirectional event stream
// of a session. Opening the stream with an unknown session id fails before
// the upgrade; a departing subscriber marks the session lost.
func eventStreamHandler(core *coordinator.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid := r.URL.Query().Get("session_id")
		sess, ok := core.SessionByID(sid)
		if !ok {
			http.Error(w, "unknown session", http.StatusNotFound)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.WithError(err).Error("event stream upgrade failed")
			return
		}
		defer conn.Close()

		events := sess.Attach()
		log.WithField("Participant", sess.Participant).Debug("event stream attached")

		// The stream is one-way; reads only surface the close.
		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case ev, open := <-events:
				if !open {
					// Session ended server side; tell the peer and go.
					deadline := time.Now().Add(streamWriteTimeout)
					_ = conn.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
					return
				}
				if err := writeEvent(conn, ev); err != nil {
					log.WithError(err).WithField("Participant", sess.Participant).
						Warn("event stream write failed")
					sess.Lost()
					return
				}
			case <-closed:
				sess.Lost()
				return
			}
		}
	}
}

// writeEvent pushes one envelope, retrying transient write errors before
// the stream is declared lost.
func writeEvent(conn *websocket.Conn, ev messages.Event) error {
	envelope, err := messages.WrapEvent(ev)
	if err != nil {
		return err
	}
	return retry.Do(
		func() error {
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			return conn.WriteJSON(envelope)
		},
		retry.Attempts(3),
		retry.Delay(50*time.Millisecond),
		retry.LastErrorOnly(true),
	)
}
