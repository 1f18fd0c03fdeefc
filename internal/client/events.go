package client

import "time"

// Event is a typed occurrence delivered to the UI over the controller's
// event channel. The UI consumes the channel instead of registering
// callbacks, so there is exactly one subscriber and one ordering.
type Event interface{ event() }

// StateEvent reports a state-machine transition. Attempt is the current
// reconnection attempt number while reconnecting; Err carries the cause for
// Reconnecting and Failed transitions.
type StateEvent struct {
	State   State
	Attempt int
	Err     error
}

// IdentityEvent delivers the display name the relay assigned to us.
type IdentityEvent struct {
	DisplayName string
}

// ChatEvent is a chat message from the relay (possibly our own echo).
type ChatEvent struct {
	Sender string
	Body   string
	SentAt time.Time
}

// PresenceEvent reports another participant joining or leaving.
type PresenceEvent struct {
	DisplayName string
	Text        string
	Joined      bool
}

// TypingEvent reports a typing indicator change for a participant.
type TypingEvent struct {
	DisplayName string
	Active      bool
}

// HistoryEvent delivers the recent-message snapshot, oldest first.
type HistoryEvent struct {
	Messages []ChatEvent
}

func (StateEvent) event()    {}
func (IdentityEvent) event() {}
func (ChatEvent) event()     {}
func (PresenceEvent) event() {}
func (TypingEvent) event()   {}
func (HistoryEvent) event()  {}
