// Package protocol defines the wire events exchanged between the relay and
// its clients. Both sides share these types; the server encodes Event values
// and clients decode them through RawEvent.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// Kind identifies the kind of wire event.
type Kind string

const (
	KindChat             Kind = "chat"
	KindPresenceJoin     Kind = "presence_join"
	KindPresenceLeave    Kind = "presence_leave"
	KindTypingStart      Kind = "typing_start"
	KindTypingStop       Kind = "typing_stop"
	KindIdentityAssigned Kind = "identity_assigned"
	KindHistorySnapshot  Kind = "history_snapshot"
)

// Event is the envelope for all wire events. Sender and Timestamp are only
// populated for chat events; Timestamp is RFC 3339 and assigned at the point
// of send, not receipt.
type Event struct {
	Type      Kind   `json:"type"`
	Payload   any    `json:"payload,omitempty"`
	Sender    string `json:"sender,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// RawEvent mirrors Event with the payload left undecoded, for receivers that
// dispatch on Type before unmarshalling the variant.
type RawEvent struct {
	Type      Kind            `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Sender    string          `json:"sender,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
}

// PresencePayload carries a join or leave notification. Text is the rendered
// announcement; Reason tags leaves as "normal" or "error".
type PresencePayload struct {
	DisplayName string `json:"displayName"`
	Text        string `json:"text,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// TypingPayload carries a typing indicator change.
type TypingPayload struct {
	DisplayName string `json:"displayName"`
}

// IdentityPayload tells a newly admitted session its display name.
type IdentityPayload struct {
	DisplayName string `json:"displayName"`
}

// HistoryPayload carries recent chat events, oldest first.
type HistoryPayload struct {
	Events []RawEvent `json:"events"`
}

// Leave reasons.
const (
	ReasonNormal = "normal"
	ReasonError  = "error"
)

// NewChat builds a chat event stamped with the current send time.
func NewChat(sender, body string, sentAt time.Time) Event {
	return Event{
		Type:      KindChat,
		Payload:   body,
		Sender:    sender,
		Timestamp: sentAt.UTC().Format(time.RFC3339),
	}
}

// ChatBody decodes the chat payload of a raw event.
func (r RawEvent) ChatBody() (string, error) {
	var body string
	if err := json.Unmarshal(r.Payload, &body); err != nil {
		return "", fmt.Errorf("chat payload: %w", err)
	}
	return body, nil
}

// SentAt parses the chat timestamp. A missing or malformed timestamp yields
// the zero time, not an error; display layers fall back to receipt time.
func (r RawEvent) SentAt() time.Time {
	t, err := time.Parse(time.RFC3339, r.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}
