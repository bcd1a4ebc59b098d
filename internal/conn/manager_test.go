package conn

import "testing"

type fakeWriter struct{}

func (fakeWriter) WriteMessage(int, []byte) error { return nil }

func TestAddAndByPlayer(t *testing.T) {
	m := NewManager()
	c := &Conn{SessionID: "s1", PlayerID: "p1", Role: RolePlayer, Socket: fakeWriter{}}
	m.Add(c)

	got, ok := m.ByPlayer("p1")
	if !ok || got != c {
		t.Fatalf("expected to find connection for p1")
	}
	if len(m.All()) != 1 {
		t.Fatalf("expected 1 registered connection, got %d", len(m.All()))
	}
}

func TestRemoveRetainsPlayerDisconnectedMidMatch(t *testing.T) {
	m := NewManager()
	c := &Conn{SessionID: "s1", PlayerID: "p1", Role: RolePlayer, Socket: fakeWriter{}}
	m.Add(c)

	m.Remove(c, true)

	if _, ok := m.ByPlayer("p1"); ok {
		t.Fatalf("expected connection removed from the live registry")
	}
	if !m.DisconnectedInGame("p1") {
		t.Fatalf("expected p1 retained as disconnected-in-game")
	}
	if !m.AnyValidityBroken() {
		t.Fatalf("expected validity broken after a mid-match disconnect")
	}
	if c.State() != StateDisconnected {
		t.Fatalf("expected connection state to become Disconnected, got %v", c.State())
	}
}

func TestRemoveOutsideMatchDoesNotBreakValidity(t *testing.T) {
	m := NewManager()
	c := &Conn{SessionID: "s1", PlayerID: "p1", Role: RolePlayer, Socket: fakeWriter{}}
	m.Add(c)

	m.Remove(c, false)

	if m.DisconnectedInGame("p1") {
		t.Fatalf("expected no disconnected-in-game retention outside a running match")
	}
	if m.AnyValidityBroken() {
		t.Fatalf("expected validity to remain intact")
	}
}

func TestSpectatorRemovalNeverAffectsValidity(t *testing.T) {
	m := NewManager()
	c := &Conn{SessionID: "s1", Role: RoleSpectator, Socket: fakeWriter{}}
	m.Add(c)

	m.Remove(c, true)

	if m.AnyValidityBroken() {
		t.Fatalf("expected spectator disconnect to never affect validity")
	}
}

func TestSetStateAndStateRoundTrip(t *testing.T) {
	c := &Conn{SessionID: "s1"}
	if c.State() != StateLobby {
		t.Fatalf("expected new connection to start in Lobby, got %v", c.State())
	}
	c.SetState(StatePlaying)
	if c.State() != StatePlaying {
		t.Fatalf("expected state to transition to Playing, got %v", c.State())
	}
}
