package registry

import (
	"sync"
	"testing"
	"time"
)

// fakeConn is an in-memory Conn that records written frames.
type fakeConn struct {
	mu     sync.Mutex
	frames [][]byte
	closed bool
	fail   bool
}

func (f *fakeConn) WriteMessage(_ int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return ErrSessionClosed
	}
	f.frames = append(f.frames, data)
	return nil
}

func (f *fakeConn) WriteControl(int, []byte, time.Time) error { return nil }

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) frameCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

func newTestSession(id, name string) (*Session, *fakeConn) {
	conn := &fakeConn{}
	return NewSession(id, name, conn), conn
}

func TestAddRemove(t *testing.T) {
	r := New()
	s, _ := newTestSession("s1", "ada")

	r.Add(s)
	if r.Len() != 1 {
		t.Fatalf("Len = %d, want 1", r.Len())
	}

	removed := r.Remove("s1")
	if removed != s {
		t.Fatal("Remove should return the registered session")
	}
	if r.Len() != 0 {
		t.Fatalf("Len after remove = %d, want 0", r.Len())
	}
}

func TestRemoveIdempotent(t *testing.T) {
	r := New()
	s, _ := newTestSession("s1", "ada")
	r.Add(s)

	if r.Remove("s1") == nil {
		t.Fatal("first Remove should return the session")
	}
	if r.Remove("s1") != nil {
		t.Error("second Remove should return nil")
	}
	if r.Remove("never-added") != nil {
		t.Error("Remove of unknown id should return nil")
	}
}

func TestNameTaken(t *testing.T) {
	r := New()
	s, _ := newTestSession("s1", "ada")
	r.Add(s)

	if !r.NameTaken("ada") {
		t.Error("NameTaken(ada) = false, want true")
	}
	if r.NameTaken("grace") {
		t.Error("NameTaken(grace) = true, want false")
	}
}

func TestForEachExcluding(t *testing.T) {
	r := New()
	for _, id := range []string{"s1", "s2", "s3"} {
		s, _ := newTestSession(id, id)
		r.Add(s)
	}

	var visited []string
	r.ForEach(func(s *Session) { visited = append(visited, s.ID) }, "s2")

	if len(visited) != 2 {
		t.Fatalf("visited %d sessions, want 2", len(visited))
	}
	for _, id := range visited {
		if id == "s2" {
			t.Error("excluded session was visited")
		}
	}
}

func TestForEachSnapshotToleratesMutation(t *testing.T) {
	r := New()
	for _, id := range []string{"s1", "s2", "s3"} {
		s, _ := newTestSession(id, id)
		r.Add(s)
	}

	count := 0
	r.ForEach(func(s *Session) {
		count++
		// Mutating the registry mid-iteration must not panic and must not
		// change the snapshot already taken.
		r.Remove(s.ID)
		extra, _ := newTestSession("extra-"+s.ID, "x")
		r.Add(extra)
	})

	if count != 3 {
		t.Errorf("visited %d sessions, want 3 from the snapshot", count)
	}
}

func TestConcurrentForEachAndMutation(t *testing.T) {
	r := New()
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				id := string(rune('a'+i)) + "-session"
				s, _ := newTestSession(id, id)
				r.Add(s)
				r.ForEach(func(*Session) {})
				r.Remove(id)
			}
		}(i)
	}
	wg.Wait()
}

func TestSessionSendDeliversViaWritePump(t *testing.T) {
	s, conn := newTestSession("s1", "ada")

	if err := s.Send([]byte("one")); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := s.Send([]byte("two")); err != nil {
		t.Fatalf("Send: %v", err)
	}

	waitFor(t, func() bool { return conn.frameCount() == 2 })
}

func TestSessionSendAfterClose(t *testing.T) {
	s, conn := newTestSession("s1", "ada")
	s.Close(false)

	if err := s.Send([]byte("late")); err != ErrSessionClosed {
		t.Errorf("Send after close = %v, want ErrSessionClosed", err)
	}
	waitFor(t, func() bool {
		conn.mu.Lock()
		defer conn.mu.Unlock()
		return conn.closed
	})
}

func TestSessionCloseTwice(t *testing.T) {
	s, _ := newTestSession("s1", "ada")
	s.Close(true)
	s.Close(false) // must not panic on the already-closed channel
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
