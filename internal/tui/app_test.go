package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/chatwire/chatwire/internal/client"
)

func TestTypingLine(t *testing.T) {
	tests := []struct {
		name   string
		typing map[string]bool
		want   string
	}{
		{
			name:   "nobody typing",
			typing: map[string]bool{},
			want:   " ",
		},
		{
			name:   "one person",
			typing: map[string]bool{"ada": true},
			want:   "ada is typing...",
		},
		{
			name:   "two people sorted",
			typing: map[string]bool{"grace": true, "ada": true},
			want:   "ada and grace are typing...",
		},
		{
			name:   "crowd",
			typing: map[string]bool{"ada": true, "grace": true, "lin": true},
			want:   "several people are typing...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := typingLine(tt.typing)
			if !strings.Contains(got, strings.TrimSpace(tt.want)) && got != tt.want {
				t.Errorf("typingLine() = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestSenderColorStable(t *testing.T) {
	first := senderColor("ada")
	for i := 0; i < 10; i++ {
		if senderColor("ada") != first {
			t.Fatal("senderColor should be deterministic per name")
		}
	}
}

func TestFormatChatLine(t *testing.T) {
	line := formatChatLine(client.ChatEvent{
		Sender: "ada",
		Body:   "hello world",
		SentAt: time.Date(2024, 6, 1, 10, 2, 0, 0, time.UTC),
	})
	if !strings.Contains(line, "ada") {
		t.Errorf("line %q missing sender", line)
	}
	if !strings.Contains(line, "hello world") {
		t.Errorf("line %q missing body", line)
	}
}

func TestHandleRelayEventTracksTyping(t *testing.T) {
	m := New(client.New("ws://x/ws", "tok", "", nil, client.Options{}))

	m = m.handleRelayEvent(client.TypingEvent{DisplayName: "grace", Active: true})
	if !m.typing["grace"] {
		t.Fatal("typing_start should mark grace as typing")
	}

	m = m.handleRelayEvent(client.TypingEvent{DisplayName: "grace", Active: false})
	if m.typing["grace"] {
		t.Fatal("typing_stop should clear grace")
	}

	// A leave clears any stale typing state for that participant.
	m = m.handleRelayEvent(client.TypingEvent{DisplayName: "lin", Active: true})
	m = m.handleRelayEvent(client.PresenceEvent{DisplayName: "lin", Text: "lin has left."})
	if m.typing["lin"] {
		t.Fatal("presence_leave should clear typing state")
	}
}

func TestHandleRelayEventIdentity(t *testing.T) {
	m := New(client.New("ws://x/ws", "tok", "", nil, client.Options{}))
	m = m.handleRelayEvent(client.IdentityEvent{DisplayName: "brisk-otter"})
	if m.myName != "brisk-otter" {
		t.Errorf("myName = %q, want brisk-otter", m.myName)
	}
	if len(m.lines) != 1 {
		t.Errorf("expected a system line announcing the identity")
	}
}
