package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Inbound is a client-originated frame normalized to a single shape. Two
// shapes coexist on the wire: the legacy transport sends the chat body as
// bare text, and typing signals arrive as a {type, payload} envelope. All
// downstream routing works on Inbound and never re-branches on shape.
type Inbound struct {
	Kind Kind
	Body string // chat body, empty for typing signals
}

// ParseInbound normalizes a client frame. Frames that decode as a JSON
// object carrying a "type" field take the envelope path; any other text is
// the legacy chat shape. Unknown kinds and kinds only the server may
// produce are errors so the router can drop the frame.
func ParseInbound(raw []byte) (Inbound, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return Inbound{}, fmt.Errorf("empty frame")
	}

	if strings.HasPrefix(trimmed, "{") {
		var env RawEvent
		if err := json.Unmarshal(raw, &env); err != nil {
			return Inbound{}, fmt.Errorf("malformed envelope: %w", err)
		}
		if env.Type == "" {
			return Inbound{}, fmt.Errorf("envelope missing type")
		}
		switch env.Type {
		case KindTypingStart, KindTypingStop:
			return Inbound{Kind: env.Type}, nil
		case KindChat:
			body, err := env.ChatBody()
			if err != nil {
				return Inbound{}, err
			}
			if body == "" {
				return Inbound{}, fmt.Errorf("empty chat body")
			}
			return Inbound{Kind: KindChat, Body: body}, nil
		case KindPresenceJoin, KindPresenceLeave, KindIdentityAssigned, KindHistorySnapshot:
			return Inbound{}, fmt.Errorf("server-originated kind %q from client", env.Type)
		default:
			return Inbound{}, fmt.Errorf("unknown kind %q", env.Type)
		}
	}

	// Legacy path: the whole frame is the chat body.
	return Inbound{Kind: KindChat, Body: string(raw)}, nil
}
