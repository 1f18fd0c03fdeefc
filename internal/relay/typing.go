package relay

import (
	"context"
	"sync"
	"time"

	"github.com/chatwire/chatwire/internal/protocol"
)

// Typing holds ephemeral "is typing" state per display name, independent of
// message history. Entries expire after ttl; a background sweep broadcasts
// the implied typing_stop for clients that went silent without sending one.
type Typing struct {
	bc    *Broadcaster
	ttl   time.Duration
	sweep time.Duration
	now   func() time.Time

	mu      sync.Mutex
	entries map[string]time.Time // display name → last signal time
}

func NewTyping(bc *Broadcaster, ttl, sweep time.Duration) *Typing {
	return &Typing{
		bc:      bc,
		ttl:     ttl,
		sweep:   sweep,
		now:     time.Now,
		entries: make(map[string]time.Time),
	}
}

// Start runs the eviction sweep until ctx is done.
func (t *Typing) Start(ctx context.Context) {
	ticker := time.NewTicker(t.sweep)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.sweepOnce()
		}
	}
}

// SignalStart refreshes the entry for displayName. Only a newly inserted
// entry is announced; repeated signals just push the eviction deadline out.
// The sender's own session is excluded from the announcement.
func (t *Typing) SignalStart(displayName, sessionID string) {
	t.mu.Lock()
	_, known := t.entries[displayName]
	t.entries[displayName] = t.now()
	t.mu.Unlock()

	if known {
		return
	}
	t.bc.Publish(protocol.Event{
		Type:    protocol.KindTypingStart,
		Payload: protocol.TypingPayload{DisplayName: displayName},
	}, sessionID)
}

// SignalStop removes the entry if present and announces the stop.
func (t *Typing) SignalStop(displayName, sessionID string) {
	t.mu.Lock()
	_, known := t.entries[displayName]
	delete(t.entries, displayName)
	t.mu.Unlock()

	if !known {
		return
	}
	t.bc.Publish(protocol.Event{
		Type:    protocol.KindTypingStop,
		Payload: protocol.TypingPayload{DisplayName: displayName},
	}, sessionID)
}

// Active returns the display names currently marked as typing.
func (t *Typing) Active() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.entries))
	for name := range t.entries {
		out = append(out, name)
	}
	return out
}

func (t *Typing) sweepOnce() {
	cutoff := t.now().Add(-t.ttl)

	t.mu.Lock()
	var evicted []string
	for name, last := range t.entries {
		if last.Before(cutoff) {
			delete(t.entries, name)
			evicted = append(evicted, name)
		}
	}
	t.mu.Unlock()

	for _, name := range evicted {
		t.bc.Publish(protocol.Event{
			Type:    protocol.KindTypingStop,
			Payload: protocol.TypingPayload{DisplayName: name},
		})
	}
}
