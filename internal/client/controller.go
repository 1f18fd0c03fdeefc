// Package client implements the relay client: a session controller that
// owns the connection, classifies inbound frames into typed events, and
// retries after abnormal disconnects with a bounded, fixed-interval policy.
package client

import (
	"encoding/json"
	"errors"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/chatwire/chatwire/internal/protocol"
)

// State is the controller's connection state.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateReconnecting
	StateClosed // terminal: user disconnect or clean peer shutdown
	StateFailed // terminal: reconnection attempts exhausted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateReconnecting:
		return "reconnecting"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

var (
	// ErrAuthRequired means Connect was called without a token; no network
	// attempt is made in that case.
	ErrAuthRequired = errors.New("auth token required")

	// ErrNormalClosure is returned by Transport.ReadMessage when the peer
	// closed the connection with the normal close code.
	ErrNormalClosure = errors.New("connection closed normally")

	// ErrReconnectExhausted means the attempt cap was reached without a
	// successful open. Surfaced to the UI as a "connection lost" condition.
	ErrReconnectExhausted = errors.New("connection lost, please reconnect")

	// ErrNotConnected reports a send while the session is not open.
	ErrNotConnected = errors.New("not connected")
)

// Transport is one live connection. ReadMessage blocks until a frame or an
// error; a peer close with the normal code surfaces as ErrNormalClosure.
type Transport interface {
	ReadMessage() ([]byte, error)
	WriteMessage(data []byte) error
	Close(normal bool) error
}

// Dialer opens a Transport. The controller is tested against a fake Dialer;
// production code uses the gorilla-backed one in this package.
type Dialer interface {
	Dial(url string) (Transport, error)
}

// Options bound the reconnection policy. Zero values take the defaults of
// 5 attempts spaced 3 seconds apart.
type Options struct {
	MaxAttempts   int
	RetryInterval time.Duration
}

// Controller owns the client side of a relay session.
type Controller struct {
	url    string
	token  string
	name   string
	dialer Dialer
	cap    int
	every  time.Duration

	events chan Event

	mu      sync.Mutex
	state   State
	attempt int
	tr      Transport
	timer   *time.Timer
	gen     int // bumped per connection; stale read loops check it and bow out
}

// New builds a controller for the relay at rawURL (e.g. "ws://host:8080/ws").
// name is the optional self-chosen display name sent on connect.
func New(rawURL, token, name string, dialer Dialer, opts Options) *Controller {
	if opts.MaxAttempts == 0 {
		opts.MaxAttempts = 5
	}
	if opts.RetryInterval == 0 {
		opts.RetryInterval = 3 * time.Second
	}
	return &Controller{
		url:    rawURL,
		token:  token,
		name:   name,
		dialer: dialer,
		cap:    opts.MaxAttempts,
		every:  opts.RetryInterval,
		events: make(chan Event, 64),
		state:  StateIdle,
	}
}

// Events is the channel the UI consumes.
func (c *Controller) Events() <-chan Event {
	return c.events
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect starts the session. Without a token it fails immediately and
// makes no network attempt.
func (c *Controller) Connect() error {
	if c.token == "" {
		return ErrAuthRequired
	}

	c.mu.Lock()
	switch c.state {
	case StateConnecting, StateOpen, StateReconnecting:
		c.mu.Unlock()
		return nil
	}
	c.state = StateConnecting
	c.attempt = 0
	c.mu.Unlock()

	c.emit(StateEvent{State: StateConnecting})
	go c.dial()
	return nil
}

// Disconnect closes the session with a normal close code. It cancels any
// pending reconnection timer; an explicit disconnect always wins over an
// in-flight reconnection attempt.
func (c *Controller) Disconnect() {
	c.mu.Lock()
	switch c.state {
	case StateIdle, StateClosed, StateFailed:
		c.mu.Unlock()
		return
	}
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	tr := c.tr
	c.tr = nil
	c.state = StateClosed
	c.gen++
	c.mu.Unlock()

	if tr != nil {
		tr.Close(true)
	}
	c.emit(StateEvent{State: StateClosed})
}

// SendChat sends a chat body. The legacy transport path carries the body as
// raw text; identity and timestamp are stamped by the relay.
func (c *Controller) SendChat(body string) error {
	tr, err := c.openTransport()
	if err != nil {
		return err
	}
	return tr.WriteMessage([]byte(body))
}

// SendTyping signals that we started or stopped composing.
func (c *Controller) SendTyping(active bool) error {
	tr, err := c.openTransport()
	if err != nil {
		return err
	}
	kind := protocol.KindTypingStart
	if !active {
		kind = protocol.KindTypingStop
	}
	data, err := json.Marshal(protocol.Event{Type: kind})
	if err != nil {
		return err
	}
	return tr.WriteMessage(data)
}

func (c *Controller) openTransport() (Transport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateOpen || c.tr == nil {
		return nil, ErrNotConnected
	}
	return c.tr, nil
}

func (c *Controller) connectURL() string {
	q := url.Values{}
	q.Set("token", c.token)
	if c.name != "" {
		q.Set("name", c.name)
	}
	return c.url + "?" + q.Encode()
}

func (c *Controller) dial() {
	tr, err := c.dialer.Dial(c.connectURL())

	c.mu.Lock()
	if c.state != StateConnecting {
		// Disconnect won the race while we were dialing.
		c.mu.Unlock()
		if err == nil {
			tr.Close(true)
		}
		return
	}
	if err != nil {
		c.scheduleReconnectLocked(err)
		return
	}

	c.tr = tr
	c.state = StateOpen
	c.attempt = 0
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	c.emit(StateEvent{State: StateOpen})
	go c.readLoop(tr, gen)
}

func (c *Controller) readLoop(tr Transport, gen int) {
	for {
		data, err := tr.ReadMessage()
		if err == nil {
			c.dispatch(data)
			continue
		}

		c.mu.Lock()
		if c.gen != gen || c.state != StateOpen {
			// A newer connection or an explicit disconnect already owns
			// the state machine.
			c.mu.Unlock()
			return
		}
		c.tr = nil
		if errors.Is(err, ErrNormalClosure) {
			c.state = StateClosed
			c.mu.Unlock()
			tr.Close(false)
			c.emit(StateEvent{State: StateClosed})
			return
		}
		tr.Close(false)
		c.scheduleReconnectLocked(err)
		return
	}
}

// scheduleReconnectLocked is called with the mutex held after an abnormal
// closure or failed dial; it unlocks before emitting. At most one timer is
// outstanding at any time.
func (c *Controller) scheduleReconnectLocked(cause error) {
	if c.attempt >= c.cap {
		c.state = StateFailed
		c.timer = nil
		c.mu.Unlock()
		c.emit(StateEvent{State: StateFailed, Err: ErrReconnectExhausted})
		return
	}
	c.attempt++
	attempt := c.attempt
	c.state = StateReconnecting
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.every, c.redial)
	c.mu.Unlock()

	c.emit(StateEvent{State: StateReconnecting, Attempt: attempt, Err: cause})
}

func (c *Controller) redial() {
	c.mu.Lock()
	if c.state != StateReconnecting {
		c.mu.Unlock()
		return
	}
	c.state = StateConnecting
	c.timer = nil
	attempt := c.attempt
	c.mu.Unlock()

	c.emit(StateEvent{State: StateConnecting, Attempt: attempt})
	c.dial()
}

// dispatch classifies one inbound frame by its own type field and hands the
// typed event to the UI. Malformed and unknown frames are logged and
// dropped without a state transition.
func (c *Controller) dispatch(data []byte) {
	var raw protocol.RawEvent
	if err := json.Unmarshal(data, &raw); err != nil || raw.Type == "" {
		log.Printf("dropped frame: %s", data)
		return
	}

	switch raw.Type {
	case protocol.KindChat:
		body, err := raw.ChatBody()
		if err != nil {
			log.Printf("dropped chat frame: %v", err)
			return
		}
		c.emit(ChatEvent{Sender: raw.Sender, Body: body, SentAt: raw.SentAt()})

	case protocol.KindPresenceJoin, protocol.KindPresenceLeave:
		var p protocol.PresencePayload
		if err := json.Unmarshal(raw.Payload, &p); err != nil {
			log.Printf("dropped presence frame: %v", err)
			return
		}
		c.emit(PresenceEvent{
			DisplayName: p.DisplayName,
			Text:        p.Text,
			Joined:      raw.Type == protocol.KindPresenceJoin,
		})

	case protocol.KindTypingStart, protocol.KindTypingStop:
		var p protocol.TypingPayload
		if err := json.Unmarshal(raw.Payload, &p); err != nil {
			log.Printf("dropped typing frame: %v", err)
			return
		}
		c.emit(TypingEvent{
			DisplayName: p.DisplayName,
			Active:      raw.Type == protocol.KindTypingStart,
		})

	case protocol.KindIdentityAssigned:
		var p protocol.IdentityPayload
		if err := json.Unmarshal(raw.Payload, &p); err != nil {
			log.Printf("dropped identity frame: %v", err)
			return
		}
		c.emit(IdentityEvent{DisplayName: p.DisplayName})

	case protocol.KindHistorySnapshot:
		var p protocol.HistoryPayload
		if err := json.Unmarshal(raw.Payload, &p); err != nil {
			log.Printf("dropped history frame: %v", err)
			return
		}
		msgs := make([]ChatEvent, 0, len(p.Events))
		for _, ev := range p.Events {
			if ev.Type != protocol.KindChat {
				continue
			}
			body, err := ev.ChatBody()
			if err != nil {
				continue
			}
			msgs = append(msgs, ChatEvent{Sender: ev.Sender, Body: body, SentAt: ev.SentAt()})
		}
		c.emit(HistoryEvent{Messages: msgs})

	default:
		log.Printf("dropped frame of unknown kind %q", raw.Type)
	}
}

func (c *Controller) emit(ev Event) {
	select {
	case c.events <- ev:
	default:
		// UI not draining; dropping beats blocking the read loop.
		log.Printf("event channel full, dropping %T", ev)
	}
}
