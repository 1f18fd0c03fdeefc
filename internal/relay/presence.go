package relay

import (
	"log"
	"sync"

	"github.com/chatwire/chatwire/internal/names"
	"github.com/chatwire/chatwire/internal/protocol"
	"github.com/chatwire/chatwire/internal/registry"
)

// Presence derives join and leave events from registry membership changes.
// Admission and name assignment happen under one lock so two sessions
// connecting at the same instant cannot both claim a free name.
type Presence struct {
	reg *registry.Registry
	bc  *Broadcaster

	mu sync.Mutex
}

func NewPresence(reg *registry.Registry, bc *Broadcaster) *Presence {
	return &Presence{reg: reg, bc: bc}
}

// Admit registers the session, assigning a display name if the transport
// did not supply one. The new session alone receives identity_assigned;
// everyone else receives presence_join.
func (p *Presence) Admit(s *registry.Session) {
	p.mu.Lock()
	if s.DisplayName == "" || p.reg.NameTaken(s.DisplayName) {
		s.DisplayName = names.Pick(p.reg.NameTaken)
	}
	p.reg.Add(s)
	p.mu.Unlock()

	if err := p.bc.SendTo(s, protocol.Event{
		Type:    protocol.KindIdentityAssigned,
		Payload: protocol.IdentityPayload{DisplayName: s.DisplayName},
	}); err != nil {
		log.Printf("identity send to %s failed: %v", s.ID, err)
	}

	p.bc.Publish(protocol.Event{
		Type: protocol.KindPresenceJoin,
		Payload: protocol.PresencePayload{
			DisplayName: s.DisplayName,
			Text:        s.DisplayName + " has joined.",
		},
	}, s.ID)

	log.Printf("session %s admitted as %s", s.ID, s.DisplayName)
}

// Depart removes the session and announces the leave to everyone remaining.
// Registry removal is idempotent, so a session whose connection reports
// both an error and a close still produces exactly one announcement.
func (p *Presence) Depart(sessionID, reason string) {
	s := p.reg.Remove(sessionID)
	if s == nil {
		return
	}
	s.Close(false)

	text := s.DisplayName + " has left."
	if reason == protocol.ReasonError {
		text += " (connection error)"
	}
	p.bc.Publish(protocol.Event{
		Type: protocol.KindPresenceLeave,
		Payload: protocol.PresencePayload{
			DisplayName: s.DisplayName,
			Text:        text,
			Reason:      reason,
		},
	})

	log.Printf("session %s (%s) departed: %s", s.ID, s.DisplayName, reason)
}
