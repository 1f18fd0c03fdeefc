package relay

import (
	"log"
	"time"

	"github.com/chatwire/chatwire/internal/protocol"
	"github.com/chatwire/chatwire/internal/registry"
)

// Router decodes inbound frames and dispatches them. Malformed and unknown
// frames are dropped with a log line; nothing a client sends can close the
// connection from here.
type Router struct {
	bc     *Broadcaster
	typing *Typing
	now    func() time.Time
}

func NewRouter(bc *Broadcaster, typing *Typing) *Router {
	return &Router{bc: bc, typing: typing, now: time.Now}
}

// Route normalizes raw and dispatches it on behalf of from. Chat broadcasts
// echo back to the sender as delivery confirmation, so no exclusion is
// applied there. The sender identity and timestamp always come from the
// session and the send instant, never from the frame.
func (r *Router) Route(raw []byte, from *registry.Session) {
	in, err := protocol.ParseInbound(raw)
	if err != nil {
		log.Printf("dropped frame from %s: %v", from.DisplayName, err)
		return
	}

	switch in.Kind {
	case protocol.KindChat:
		r.bc.Publish(protocol.NewChat(from.DisplayName, in.Body, r.now()))
	case protocol.KindTypingStart:
		r.typing.SignalStart(from.DisplayName, from.ID)
	case protocol.KindTypingStop:
		r.typing.SignalStop(from.DisplayName, from.ID)
	}
}
