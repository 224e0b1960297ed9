package session

import "testing"

func TestManagerID(t *testing.T) {
	m := NewManager()

	id := m.ID()
	if id == "" {
		t.Fatal("expected a session id at startup")
	}

	// Stable across calls
	if m.ID() != id {
		t.Error("session id changed without New")
	}

	if m.StartedAt().IsZero() {
		t.Error("expected a start time")
	}
}

func TestManagerNew(t *testing.T) {
	m := NewManager()

	old := m.ID()
	fresh := m.New()

	if fresh == old {
		t.Error("New returned the previous session id")
	}
	if m.ID() != fresh {
		t.Errorf("expected active id %s, got %s", fresh, m.ID())
	}
}
