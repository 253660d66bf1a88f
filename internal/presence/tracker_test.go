package presence

import (
	"testing"

	"github.com/google/uuid"
)

func TestJoinThenLeave(t *testing.T) {
	tr := NewTracker()
	p1 := uuid.New()

	tr.Join(p1, "Alice")
	if name, ok := tr.Lookup(p1); !ok || name != "Alice" {
		t.Fatalf("Lookup = %q, %v", name, ok)
	}
	if got := tr.Leave(p1); got != "Alice" {
		t.Errorf("Leave = %q, want Alice", got)
	}
	if tr.Len() != 0 {
		t.Errorf("Len = %d after leave, want 0", tr.Len())
	}
}

func TestLeaveUnknown(t *testing.T) {
	tr := NewTracker()
	p1, p2 := uuid.New(), uuid.New()
	tr.Join(p1, "Alice")

	if got := tr.Leave(p2); got != UnknownName {
		t.Errorf("Leave(unknown) = %q, want %q", got, UnknownName)
	}
	if tr.Len() != 1 {
		t.Errorf("unknown leave removed an entry: Len = %d", tr.Len())
	}
}

func TestRejoinReplacesName(t *testing.T) {
	tr := NewTracker()
	p1 := uuid.New()
	tr.Join(p1, "Alice")
	tr.Join(p1, "Alice2")

	if tr.Len() != 1 {
		t.Fatalf("Len = %d, want 1", tr.Len())
	}
	if got := tr.Leave(p1); got != "Alice2" {
		t.Errorf("Leave = %q, want Alice2", got)
	}
}

func TestDuplicateDisplayNames(t *testing.T) {
	tr := NewTracker()
	a, b := uuid.New(), uuid.New()
	tr.Join(a, "Steve")
	tr.Join(b, "Steve")

	if got := tr.Leave(a); got != "Steve" {
		t.Errorf("Leave(a) = %q", got)
	}
	if _, ok := tr.Lookup(b); !ok {
		t.Error("leaving a must not remove b")
	}
	tr.Reset()
	if tr.Len() != 0 {
		t.Error("Reset should clear the tracker")
	}
}
