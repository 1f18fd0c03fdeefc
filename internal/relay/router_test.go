package relay

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/chatwire/chatwire/internal/protocol"
	"github.com/chatwire/chatwire/internal/registry"
)

func newRouterFixture() (*Router, *registry.Registry, *Typing) {
	reg := registry.New()
	bc := NewBroadcaster(reg)
	typ := NewTyping(bc, 3*time.Second, time.Second)
	return NewRouter(bc, typ), reg, typ
}

func TestRouteLegacyChatEchoesToSender(t *testing.T) {
	r, reg, _ := newRouterFixture()

	sender, senderConn := addSession(reg, "s1", "ada")
	_, otherConn := addSession(reg, "s2", "grace")

	r.now = func() time.Time { return time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC) }
	r.Route([]byte("hello"), sender)

	// Chat broadcasts echo to the sender as confirmation.
	for _, conn := range []*fakeConn{senderConn, otherConn} {
		waitForFrames(t, conn, 1)
		ev := conn.events(t)[0]
		if ev.Type != protocol.KindChat {
			t.Fatalf("event type = %q, want chat", ev.Type)
		}
		if ev.Sender != "ada" {
			t.Errorf("sender = %q, want ada", ev.Sender)
		}
		if ev.Timestamp != "2024-06-01T10:00:00Z" {
			t.Errorf("timestamp = %q, want send instant", ev.Timestamp)
		}
		body, err := ev.ChatBody()
		if err != nil || body != "hello" {
			t.Errorf("body = %q (%v), want hello", body, err)
		}
	}
}

func TestRouteStructuredTyping(t *testing.T) {
	r, reg, typ := newRouterFixture()
	sender, _ := addSession(reg, "s1", "ada")

	r.Route([]byte(`{"type":"typing_start","payload":{}}`), sender)
	if active := typ.Active(); len(active) != 1 || active[0] != "ada" {
		t.Fatalf("Active() = %v, want [ada]", active)
	}

	r.Route([]byte(`{"type":"typing_stop"}`), sender)
	if len(typ.Active()) != 0 {
		t.Errorf("Active() = %v, want empty after stop", typ.Active())
	}
}

func TestRouteDropsMalformedAndServerOnly(t *testing.T) {
	r, reg, _ := newRouterFixture()
	sender, _ := addSession(reg, "s1", "ada")
	_, observer := addSession(reg, "s2", "grace")

	tests := []string{
		`{"type":"presence_join","payload":{"displayName":"mallory"}}`,
		`{"type":"identity_assigned","payload":{"displayName":"root"}}`,
		`{"type":"wibble"}`,
		`{"broken`,
		``,
	}
	for _, raw := range tests {
		r.Route([]byte(raw), sender)
	}

	time.Sleep(30 * time.Millisecond)
	if got := len(observer.events(t)); got != 0 {
		t.Errorf("observer received %d events from dropped frames, want 0: %v", got, observer.events(t))
	}
}

func TestRouteIgnoresSpoofedSender(t *testing.T) {
	r, reg, _ := newRouterFixture()
	sender, _ := addSession(reg, "s1", "ada")
	_, observer := addSession(reg, "s2", "grace")

	// A structured chat frame cannot override the session identity.
	frame, _ := json.Marshal(map[string]any{
		"type":    "chat",
		"payload": "hi",
		"sender":  "mallory",
	})
	r.Route(frame, sender)

	waitForFrames(t, observer, 1)
	if got := observer.events(t)[0].Sender; got != "ada" {
		t.Errorf("sender = %q, want session identity ada", got)
	}
}
