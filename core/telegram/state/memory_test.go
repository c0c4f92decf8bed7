package state

import "testing"

func TestMemoryManagerStates(t *testing.T) {
	m := NewMemoryManager()

	if m.HasState(1) {
		t.Error("fresh manager should have no state")
	}
	if got := m.GetState(1); got != StateIdle {
		t.Errorf("GetState = %q, want idle", got)
	}

	m.SetState(1, State("awaiting_code"))
	if !m.InProgress(1) {
		t.Error("InProgress should be true after SetState")
	}
	if got := m.GetState(1); got != State("awaiting_code") {
		t.Errorf("GetState = %q, want awaiting_code", got)
	}
	if m.InProgress(2) {
		t.Error("state must not leak between users")
	}

	m.ClearState(1)
	if m.InProgress(1) {
		t.Error("InProgress should be false after ClearState")
	}
}

func TestMemoryManagerIdleIsNotInProgress(t *testing.T) {
	m := NewMemoryManager()
	m.SetState(7, StateIdle)
	if m.InProgress(7) {
		t.Error("explicit idle state must not count as in progress")
	}
}
