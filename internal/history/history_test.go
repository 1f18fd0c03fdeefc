package history

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRecent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("limit"); got != "25" {
			t.Errorf("limit = %q, want 25", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"type":"chat","payload":"first","sender":"ada","timestamp":"2024-06-01T10:00:00Z"},
			{"type":"chat","payload":"second","sender":"grace","timestamp":"2024-06-01T10:01:00Z"}
		]`))
	}))
	defer ts.Close()

	events, err := NewClient(ts.URL, 25).Recent()
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	body, err := events[0].ChatBody()
	if err != nil || body != "first" {
		t.Errorf("events[0] body = %q (%v), want first", body, err)
	}
	if events[1].Sender != "grace" {
		t.Errorf("events[1] sender = %q, want grace", events[1].Sender)
	}
}

func TestRecentHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()

	if _, err := NewClient(ts.URL, 10).Recent(); err == nil {
		t.Fatal("expected error on 500 response")
	}
}

func TestRecentMalformedBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"not":"a list"}`))
	}))
	defer ts.Close()

	if _, err := NewClient(ts.URL, 10).Recent(); err == nil {
		t.Fatal("expected decode error")
	}
}
