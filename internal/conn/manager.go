// Package conn tracks connection lifecycle: acceptance, role classification
// (player vs spectator), and the lobby -> playing -> ended state machine
// (§4.E).
package conn

import (
	"sync"

	"github.com/INIT-SGGW/HackArena2.0-MonoTanks/internal/action"
	"github.com/INIT-SGGW/HackArena2.0-MonoTanks/internal/proto"
	"github.com/INIT-SGGW/HackArena2.0-MonoTanks/internal/world"
)

// Role classifies a connection at handshake time.
type Role int

const (
	RolePlayer Role = iota
	RoleSpectator
)

// LifecycleState is the participant's position in the match state machine.
type LifecycleState int

const (
	StateLobby LifecycleState = iota
	StatePlaying
	StateEnded
	StateDisconnected
)

// Writer is the minimal socket write surface a Conn needs; satisfied by
// *websocket.Conn (internal/netio/ws binds it).
type Writer interface {
	WriteMessage(messageType int, data []byte) error
}

// Conn is one accepted connection's full context: identity, socket, wire
// codec, and its admitted-action slot when it's a player.
type Conn struct {
	SessionID string
	PlayerID  world.PlayerID // empty for spectators
	Role      Role
	Codec     proto.Codec
	Socket    Writer

	mu    sync.Mutex
	state LifecycleState
	Slot  *action.Slot // nil for spectators
}

// State returns the connection's current lifecycle state.
func (c *Conn) State() LifecycleState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetState transitions the connection; callers hold no other lock.
func (c *Conn) SetState(s LifecycleState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Manager owns every accepted connection for one match and the
// disconnected-in-game retention list used for final results (§4.E, §7).
type Manager struct {
	mu                 sync.RWMutex
	conns              map[string]*Conn
	disconnectedInGame map[world.PlayerID]bool
}

// NewManager returns an empty connection registry.
func NewManager() *Manager {
	return &Manager{
		conns:              make(map[string]*Conn),
		disconnectedInGame: make(map[world.PlayerID]bool),
	}
}

// Add registers a newly accepted connection.
func (m *Manager) Add(c *Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conns[c.SessionID] = c
}

// Remove transitions c to Disconnected and, if it was a player in a running
// match, retains it in the disconnected-in-game list for results.
func (m *Manager) Remove(c *Conn, matchRunning bool) {
	c.SetState(StateDisconnected)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.conns, c.SessionID)
	if c.Role == RolePlayer && matchRunning {
		m.disconnectedInGame[c.PlayerID] = true
	}
}

// DisconnectedInGame reports whether id disconnected mid-match.
func (m *Manager) DisconnectedInGame(id world.PlayerID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.disconnectedInGame[id]
}

// All returns a snapshot slice of every currently-registered connection.
func (m *Manager) All() []*Conn {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Conn, 0, len(m.conns))
	for _, c := range m.conns {
		out = append(out, c)
	}
	return out
}

// ByPlayer looks up the connection currently bound to a player id, if any.
func (m *Manager) ByPlayer(id world.PlayerID) (*Conn, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.conns {
		if c.Role == RolePlayer && c.PlayerID == id {
			return c, true
		}
	}
	return nil, false
}

// AnyValidityBroken reports whether any player disconnected mid-match,
// which flags the replay result file as invalid (§4.H).
func (m *Manager) AnyValidityBroken() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.disconnectedInGame) > 0
}
