package names

import (
	"strings"
	"testing"
)

func TestRandomFormat(t *testing.T) {
	for i := 0; i < 50; i++ {
		name := Random()
		parts := strings.Split(name, "-")
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			t.Fatalf("Random() = %q, want adjective-animal", name)
		}
	}
}

func TestPickAvoidsTaken(t *testing.T) {
	used := map[string]bool{}
	for i := 0; i < 100; i++ {
		name := Pick(func(n string) bool { return used[n] })
		if used[name] {
			t.Fatalf("Pick returned already-taken name %q", name)
		}
		used[name] = true
	}
}

func TestPickCounterFallback(t *testing.T) {
	// Everything without a numeric suffix is taken, so Pick must fall back
	// to the counter path and still terminate with a free name.
	taken := func(n string) bool {
		parts := strings.Split(n, "-")
		return len(parts) < 3
	}

	name := Pick(taken)
	if taken(name) {
		t.Fatalf("Pick returned taken name %q", name)
	}
	parts := strings.Split(name, "-")
	if len(parts) != 3 {
		t.Fatalf("expected counter-suffixed name, got %q", name)
	}
	if parts[2] != "2" {
		t.Errorf("counter should start at 2, got %q", name)
	}
}
