// Package ws upgrades HTTP handshakes to full-duplex text-frame
// connections and feeds inbound frames to the action dispatcher (§4.E,
// §4.F).
package ws

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/INIT-SGGW/HackArena2.0-MonoTanks/internal/conn"
	"github.com/INIT-SGGW/HackArena2.0-MonoTanks/internal/proto"
	"github.com/INIT-SGGW/HackArena2.0-MonoTanks/internal/world"
)

// Hub is the minimal surface the handler needs from the match coordinator,
// kept narrow so this package doesn't import the root server package.
type Hub struct {
	JoinCode      string
	MaxPlayers    int
	Manager       *conn.Manager
	OnJoin        func(c *conn.Conn, nickname string, isBot bool) (world.PlayerID, []byte, error)
	OnSpectator   func(c *conn.Conn) []byte
	OnFrame       func(c *conn.Conn, kind proto.Kind, payload []byte)
	OnDisconnect  func(c *conn.Conn)
	MatchRunning  func() bool
}

// Handler upgrades handshakes and runs the read loop for each connection.
type Handler struct {
	hub      *Hub
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewHandler builds a Handler bound to hub.
func NewHandler(hub *Hub, log zerolog.Logger) *Handler {
	return &Handler{
		hub: hub,
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ServeSpectator handles the /spectator path (§6).
func (h *Handler) ServeSpectator(w http.ResponseWriter, r *http.Request) {
	if !h.checkJoinCode(w, r) {
		return
	}
	socket, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("spectator upgrade failed")
		return
	}

	format := enumFormat(r)
	c := &conn.Conn{
		SessionID: uuid.NewString(),
		Role:      conn.RoleSpectator,
		Codec:     proto.Codec{Format: format},
		Socket:    socket,
	}
	c.SetState(conn.StateLobby)
	h.hub.Manager.Add(c)

	initial := h.hub.OnSpectator(c)
	if initial != nil {
		if err := socket.WriteMessage(websocket.TextMessage, initial); err != nil {
			h.hub.Manager.Remove(c, h.hub.MatchRunning())
			return
		}
	}
	h.readLoop(c, socket)
}

// ServePlayer handles the / path (§6).
func (h *Handler) ServePlayer(w http.ResponseWriter, r *http.Request) {
	if !h.checkJoinCode(w, r) {
		return
	}
	if countPlayers(h.hub.Manager) >= h.hub.MaxPlayers {
		http.Error(w, "player slots full", http.StatusTooManyRequests)
		return
	}

	nickname := r.URL.Query().Get("nickname")
	isBot := r.URL.Query().Get("type") == "bot"

	socket, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("player upgrade failed")
		return
	}

	format := enumFormat(r)
	c := &conn.Conn{
		SessionID: uuid.NewString(),
		Role:      conn.RolePlayer,
		Codec:     proto.Codec{Format: format},
		Socket:    socket,
	}
	c.SetState(conn.StateLobby)

	playerID, initial, err := h.hub.OnJoin(c, nickname, isBot)
	if err != nil {
		socket.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error()))
		socket.Close()
		return
	}
	c.PlayerID = playerID
	h.hub.Manager.Add(c)

	if err := socket.WriteMessage(websocket.TextMessage, initial); err != nil {
		h.hub.Manager.Remove(c, h.hub.MatchRunning())
		return
	}
	h.readLoop(c, socket)
}

func (h *Handler) readLoop(c *conn.Conn, socket *websocket.Conn) {
	defer func() {
		h.hub.Manager.Remove(c, h.hub.MatchRunning())
		h.hub.OnDisconnect(c)
		socket.Close()
	}()

	for {
		_, raw, err := socket.ReadMessage()
		if err != nil {
			return
		}
		kind, payload, err := proto.Decode(raw)
		if err != nil {
			h.log.Debug().Err(err).Str("session", c.SessionID).Msg("discarding malformed frame")
			frame, encErr := c.Codec.Encode(proto.KindInvalidPacketUsageError, proto.InvalidPacketUsageError{Reason: err.Error()})
			if encErr == nil {
				socket.WriteMessage(websocket.TextMessage, frame)
			}
			continue
		}
		h.hub.OnFrame(c, kind, payload)
	}
}

func (h *Handler) checkJoinCode(w http.ResponseWriter, r *http.Request) bool {
	if h.hub.JoinCode == "" {
		return true
	}
	if r.URL.Query().Get("joinCode") != h.hub.JoinCode {
		http.Error(w, "invalid join code", http.StatusUnauthorized)
		return false
	}
	return true
}

func countPlayers(m *conn.Manager) int {
	n := 0
	for _, c := range m.All() {
		if c.Role == conn.RolePlayer {
			n++
		}
	}
	return n
}

func enumFormat(r *http.Request) proto.EnumFormat {
	if r.URL.Query().Get("enumSerializationFormat") == "string" {
		return proto.EnumAsString
	}
	return proto.EnumAsInt
}
