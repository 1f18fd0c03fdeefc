// Package relay implements the server side of the chat relay: fan-out
// broadcasting, presence tracking, typing aggregation, inbound routing and
// the websocket endpoint that ties them to connections.
package relay

import (
	"encoding/json"
	"log"

	"github.com/chatwire/chatwire/internal/protocol"
	"github.com/chatwire/chatwire/internal/registry"
)

// Broadcaster fans an event out to every live session. The event is
// serialized once; delivery is best-effort per session and one failing send
// never aborts delivery to the rest of the snapshot.
type Broadcaster struct {
	reg *registry.Registry

	// Dropped is invoked with the session id when a send fails and the
	// session is taken out of the fan-out. The server wires this to the
	// presence departure path so the leave announcement still happens.
	Dropped func(sessionID string)
}

func NewBroadcaster(reg *registry.Registry) *Broadcaster {
	return &Broadcaster{reg: reg}
}

// Publish delivers ev to every session not in excluding.
func (b *Broadcaster) Publish(ev protocol.Event, excluding ...string) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("broadcast marshal error: %v", err)
		return
	}

	b.reg.ForEach(func(s *registry.Session) {
		if err := s.Send(data); err != nil {
			log.Printf("send to %s (%s) failed, dropping session: %v", s.DisplayName, s.ID, err)
			if b.Dropped != nil {
				b.Dropped(s.ID)
			}
		}
	}, excluding...)
}

// SendTo delivers ev to a single session, bypassing the registry snapshot.
// Used for events addressed to one participant, like identity assignment
// and the history snapshot.
func (b *Broadcaster) SendTo(s *registry.Session, ev protocol.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return s.Send(data)
}
