package registry

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// sendBuffer is the per-session outbound queue depth. A session that falls
// this far behind is considered failed and gets dropped from the fan-out.
const sendBuffer = 64

// Conn is the transport surface a Session writes to. *websocket.Conn
// satisfies it; tests substitute an in-memory sink.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	Close() error
}

// ErrSessionClosed reports a send to a session whose writer has shut down.
var ErrSessionClosed = errors.New("session closed")

// ErrSlowSession reports a send that found the outbound queue full.
var ErrSlowSession = errors.New("session send queue full")

// Session is one connected participant. It is created on a successful
// handshake and owned by the Registry until removal.
type Session struct {
	ID          string
	DisplayName string
	JoinedAt    time.Time

	conn Conn
	send chan []byte

	mu     sync.Mutex
	closed bool
}

// NewSession wraps an accepted connection and starts its write pump.
// DisplayName may be empty; the presence tracker assigns one on admission.
func NewSession(id, displayName string, conn Conn) *Session {
	s := &Session{
		ID:          id,
		DisplayName: displayName,
		JoinedAt:    time.Now(),
		conn:        conn,
		send:        make(chan []byte, sendBuffer),
	}
	go s.writePump()
	return s
}

func (s *Session) writePump() {
	defer s.conn.Close()
	for msg := range s.send {
		if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// Send queues data for delivery. It never blocks: a full queue or a closed
// session returns an error instead.
func (s *Session) Send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	select {
	case s.send <- data:
		return nil
	default:
		return ErrSlowSession
	}
}

// Close shuts down the write pump. Safe to call more than once. When normal
// is true a close frame with the normal-closure code is written first, so
// the peer sees a clean shutdown rather than a dropped connection.
func (s *Session) Close(normal bool) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if normal {
		// Write the close frame before stopping the pump; once the send
		// channel closes the pump tears the connection down.
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	}
	close(s.send)
	s.mu.Unlock()
}
