// Package server ties the connection manager, simulation world, view
// renderer, action dispatcher, tick scheduler, and replay journal together
// into one running match, the root coordinator (§2, §4.G).
package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/INIT-SGGW/HackArena2.0-MonoTanks/internal/action"
	"github.com/INIT-SGGW/HackArena2.0-MonoTanks/internal/conn"
	"github.com/INIT-SGGW/HackArena2.0-MonoTanks/internal/journal"
	"github.com/INIT-SGGW/HackArena2.0-MonoTanks/internal/proto"
	"github.com/INIT-SGGW/HackArena2.0-MonoTanks/internal/render"
	"github.com/INIT-SGGW/HackArena2.0-MonoTanks/internal/sim"
	"github.com/INIT-SGGW/HackArena2.0-MonoTanks/internal/telemetry"
	"github.com/INIT-SGGW/HackArena2.0-MonoTanks/internal/telemetry/metrics"
	"github.com/INIT-SGGW/HackArena2.0-MonoTanks/internal/world"
	"github.com/INIT-SGGW/HackArena2.0-MonoTanks/logging"
)

// HubConfig bundles everything the Hub needs to construct a match.
type HubConfig struct {
	MaxPlayers        int
	MaxTicks          int
	JoinCode          string
	Sandbox           bool
	EagerBroadcast    bool
	BroadcastInterval time.Duration
	WorldConfig       world.Config

	ReplayPath      string
	ReplayOverwrite bool
	Competitive     bool

	// Metrics is a lightweight counter sink independent of the Prometheus
	// registry, typically backed by the logging router's own event counts
	// (see internal/app.Run). Nil is treated as a no-op sink.
	Metrics telemetry.Metrics
}

// Hub is the authoritative coordinator for one match from lobby through
// end-of-game (§4.E, §4.G).
type Hub struct {
	cfg       HubConfig
	manager   *conn.Manager
	logger    telemetry.Logger
	metrics   *metrics.Metrics
	counters  telemetry.Metrics
	publisher logging.Publisher

	mu               sync.Mutex
	world            *world.World
	status           action.GameStatus
	currentStateID   string
	stateCounter     uint64
	playerOrder      []world.PlayerID
	nicknames        map[world.PlayerID]string
	isBot            map[world.PlayerID]bool

	journal *journal.Writer
	loop    *sim.Loop
}

// NewHub constructs a Hub ready to accept connections; the simulation world
// itself is constructed lazily, once enough players have joined (lobby
// phase, §4.E). A nil publisher is replaced with a no-op one so callers need
// not special-case logging-disabled setups.
func NewHub(cfg HubConfig, logger telemetry.Logger, m *metrics.Metrics, publisher logging.Publisher) *Hub {
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	counters := cfg.Metrics
	if counters == nil {
		counters = telemetry.WrapMetrics(nil)
	}
	return &Hub{
		cfg:       cfg,
		manager:   conn.NewManager(),
		logger:    logger,
		metrics:   m,
		counters:  counters,
		publisher: publisher,
		status:    action.StatusLobby,
		nicknames: make(map[world.PlayerID]string),
		isBot:     make(map[world.PlayerID]bool),
		loop:      sim.NewLoop(cfg.BroadcastInterval, cfg.EagerBroadcast),
	}
}

// Manager exposes the connection registry to the HTTP layer.
func (h *Hub) Manager() *conn.Manager { return h.manager }

// MatchRunning reports whether the simulation is currently ticking.
func (h *Hub) MatchRunning() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status == action.StatusRunning
}

// Status returns a health-check snapshot (tick number, connection count).
func (h *Hub) Status() (tick, connections int) {
	h.mu.Lock()
	w := h.world
	h.mu.Unlock()
	if w != nil {
		tick = w.Tick
	}
	return tick, len(h.manager.All())
}

// Join admits a new player during the lobby phase. It returns the assigned
// player id and the encoded LobbyData frame to send immediately after the
// handshake. Once enough players have joined, the match starts.
func (h *Hub) Join(c *conn.Conn, nickname string, isBot bool) (world.PlayerID, []byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.status != action.StatusLobby {
		return "", nil, fmt.Errorf("match already in progress")
	}
	if len(h.playerOrder) >= h.cfg.MaxPlayers {
		return "", nil, fmt.Errorf("player slots full")
	}

	id := world.PlayerID(fmt.Sprintf("player-%d", len(h.playerOrder)+1))
	if nickname == "" {
		nickname = string(id)
	}
	h.playerOrder = append(h.playerOrder, id)
	h.nicknames[id] = nickname
	h.isBot[id] = isBot
	c.Slot = action.NewSlot()

	lobby := h.lobbyData(&id)
	frame, err := c.Codec.Encode(proto.KindLobbyData, lobby)
	if err != nil {
		return "", nil, err
	}

	if len(h.playerOrder) == h.cfg.MaxPlayers {
		h.startMatchLocked()
	}

	h.publisher.Publish(context.Background(), logging.Event{
		Type:     "player_joined",
		Time:     time.Now(),
		Actor:    logging.EntityRef{ID: string(id), Kind: logging.EntityKindPlayer},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryGameplay,
		Payload:  map[string]any{"nickname": nickname, "isBot": isBot},
	})
	return id, frame, nil
}

// Spectate returns the initial frame for a spectator connection.
func (h *Hub) Spectate(c *conn.Conn) []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	lobby := h.lobbyData(nil)
	frame, _ := c.Codec.Encode(proto.KindLobbyData, lobby)
	return frame
}

func (h *Hub) lobbyData(selfID *world.PlayerID) proto.LobbyData {
	players := make([]proto.LobbyPlayer, 0, len(h.playerOrder))
	for _, id := range h.playerOrder {
		color := uint32(0)
		if h.world != nil {
			if p, ok := h.world.Players[id]; ok {
				color = p.Color
			}
		}
		players = append(players, proto.LobbyPlayer{ID: string(id), Nickname: h.nicknames[id], Color: color})
	}
	var idStr *string
	if selfID != nil {
		s := string(*selfID)
		idStr = &s
	}
	return proto.LobbyData{
		PlayerID: idStr,
		Players:  players,
		Settings: proto.LobbySettings{
			GridDimension:     h.cfg.WorldConfig.Dim,
			NumberOfPlayers:   h.cfg.MaxPlayers,
			Seed:              h.cfg.WorldConfig.Seed,
			BroadcastInterval: h.cfg.BroadcastInterval.Milliseconds(),
			Ticks:             h.cfg.MaxTicks,
			Sandbox:           h.cfg.Sandbox,
			EagerBroadcast:    h.cfg.EagerBroadcast,
		},
	}
}

// startMatchLocked constructs the world and flips status to Running. Caller
// holds h.mu.
func (h *Hub) startMatchLocked() {
	h.world = world.New(h.cfg.WorldConfig, h.playerOrder, h.nicknames, h.isBot)
	h.status = action.StatusRunning
	h.journal = journal.New(h.cfg.ReplayPath, h.cfg.ReplayOverwrite, h.cfg.Competitive, h.lobbyData(nil))
	h.currentStateID = h.newStateID()
}

func (h *Hub) newStateID() string {
	h.stateCounter++
	return fmt.Sprintf("gs-%d", h.stateCounter)
}

// HandleFrame routes one decoded inbound frame to the dispatcher (§4.F) or
// handles Ping/Pong directly.
func (h *Hub) HandleFrame(c *conn.Conn, kind proto.Kind, payload []byte) {
	if kind == proto.KindPing {
		frame, err := c.Codec.Encode(proto.KindPong, struct{}{})
		if err == nil {
			c.Socket.WriteMessage(1, frame)
		}
		return
	}

	h.mu.Lock()
	status := h.status
	stateID := h.currentStateID
	h.mu.Unlock()

	rejection, invalid := action.Dispatch(c.Slot, c.Role == conn.RolePlayer, status, stateID, kind, payload)
	if rejection != action.Accepted {
		if h.metrics != nil {
			h.metrics.DroppedActions.WithLabelValues(rejectionLabel(rejection)).Inc()
		}
		h.publisher.Publish(context.Background(), logging.Event{
			Type:     "action_rejected",
			Time:     time.Now(),
			Actor:    logging.EntityRef{ID: string(c.PlayerID), Kind: logging.EntityKindPlayer},
			Severity: logging.SeverityDebug,
			Category: logging.CategorySystem,
			Payload:  map[string]any{"reason": rejectionLabel(rejection), "kind": string(kind)},
		})
	}
	if invalid != nil {
		frame, err := c.Codec.Encode(proto.KindInvalidPacketUsageError, invalid)
		if err == nil {
			c.Socket.WriteMessage(1, frame)
		}
	}
	if rejection == action.Accepted && h.cfg.EagerBroadcast {
		h.maybeFireEager()
	}
}

func rejectionLabel(r action.Rejection) string {
	switch r {
	case action.RejectedRateLimited:
		return "rate_limited"
	case action.RejectedNotPlayerOrNotRunning:
		return "not_player_or_not_running"
	case action.RejectedAlreadyActed:
		return "already_acted"
	case action.RejectedStaleGameState:
		return "stale_game_state"
	case action.RejectedInvalidPayload:
		return "invalid_payload"
	default:
		return "unknown"
	}
}

// maybeFireEager checks whether every alive bot has replied for the
// in-flight game-state id and, if so, fires the eager-broadcast signal
// (§4.G step 7, §5).
func (h *Hub) maybeFireEager() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.world == nil {
		return
	}
	for _, id := range h.playerOrder {
		p := h.world.Players[id]
		if p == nil || !p.HasTank() {
			continue
		}
		if !h.isBot[id] {
			// A live human player exists; eager broadcast only fires once
			// every alive player is a bot (§4.G step 7).
			return
		}
		c, ok := h.manager.ByPlayer(id)
		if !ok || c.Slot == nil || !c.Slot.HasActedForCurrentGameState() {
			return
		}
	}
	h.loop.Eager.Fire()
}

// Disconnect unbinds a connection; if it was a player mid-match, the player
// is retained for final results (handled by conn.Manager.Remove, already
// called by the netio layer before this hook).
func (h *Hub) Disconnect(c *conn.Conn) {
	h.logger.Printf("connection %s disconnected (role=%v)", c.SessionID, c.Role)
	h.publisher.Publish(context.Background(), logging.Event{
		Type:     "connection_disconnected",
		Time:     time.Now(),
		Actor:    logging.EntityRef{ID: string(c.PlayerID), Kind: logging.EntityKindPlayer},
		Severity: logging.SeverityInfo,
		Category: logging.CategorySystem,
		Payload:  map[string]any{"sessionId": c.SessionID, "role": fmt.Sprintf("%v", c.Role)},
	})
}

// Run drives the tick scheduler until ctx is cancelled or the match ends
// (§4.G). It blocks; callers should run it in its own goroutine.
func (h *Hub) Run(ctx context.Context) {
	h.loop.OnOverrun = func(elapsed, budget time.Duration) {
		h.logger.Printf("tick overrun: elapsed=%s budget=%s", elapsed, budget)
		if h.metrics != nil {
			h.metrics.TickOverruns.Inc()
		}
		h.publisher.Publish(ctx, logging.Event{
			Type:     "tick_overrun",
			Time:     time.Now(),
			Actor:    logging.EntityRef{Kind: logging.EntityKindWorld},
			Severity: logging.SeverityWarn,
			Category: logging.CategorySystem,
			Payload:  map[string]any{"elapsedMs": elapsed.Milliseconds(), "budgetMs": budget.Milliseconds()},
		})
	}
	h.loop.Run(ctx, h.tick)
	// Loop.Run returns either because tick() already ended the match
	// normally (endMatch already ran and finishMatch below is a no-op) or
	// because ctx was cancelled mid-match (SIGINT/SIGTERM, SUPPLEMENTED
	// FEATURES graceful shutdown) — finalize the journal and notify
	// connections in that second case.
	h.endMatchAbnormal()
}

// tick executes one full iteration of §4.G: simulate, render, broadcast,
// journal, and report whether the match has ended.
func (h *Hub) tick(ctx context.Context) bool {
	h.mu.Lock()
	if h.status != action.StatusRunning {
		h.mu.Unlock()
		return false
	}
	w := h.world
	if w.Tick >= h.cfg.MaxTicks {
		h.mu.Unlock()
		h.endMatch()
		return true
	}

	start := time.Now()
	actions := h.drainActions()
	events := w.Step(actions)
	tickNum := uint64(w.Tick)

	h.currentStateID = h.newStateID()
	for _, id := range h.playerOrder {
		if c, ok := h.manager.ByPlayer(id); ok && c.Slot != nil {
			c.Slot.ClearGameStateFlag()
		}
	}
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.TickDuration.Observe(time.Since(start).Seconds())
		h.metrics.Connections.Set(float64(len(h.manager.All())))
	}
	h.counters.Add("ticks_total", 1)

	h.publishKillEvents(ctx, tickNum, events)
	h.broadcast(ctx)
	return false
}

// publishKillEvents turns the tick pipeline's kill facts (§4.C phases 2-4)
// into combat-category log events.
func (h *Hub) publishKillEvents(ctx context.Context, tick uint64, events world.TickEvents) {
	for _, k := range events.Kills {
		h.publisher.Publish(ctx, logging.Event{
			Type:     "tank_killed",
			Tick:     tick,
			Time:     time.Now(),
			Actor:    logging.EntityRef{ID: string(k.Attacker), Kind: logging.EntityKindPlayer},
			Targets:  []logging.EntityRef{{ID: string(k.Victim), Kind: logging.EntityKindPlayer}},
			Severity: logging.SeverityInfo,
			Category: logging.CategoryCombat,
		})
	}
}

func (h *Hub) drainActions() map[world.PlayerID]world.Action {
	out := make(map[world.PlayerID]world.Action)
	for _, c := range h.manager.All() {
		if c.Role != conn.RolePlayer || c.Slot == nil {
			continue
		}
		if act := c.Slot.Drain(); act != nil {
			out[c.PlayerID] = act
		}
	}
	return out
}

// broadcast renders and sends a per-recipient snapshot to every open
// connection using a bounded-concurrency worker group (§4.G step 5, §5).
func (h *Hub) broadcast(ctx context.Context) {
	h.mu.Lock()
	w := h.world
	stateID := h.currentStateID
	h.mu.Unlock()

	conns := h.manager.All()
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(16)

	for _, c := range conns {
		c := c
		g.Go(func() error {
			var r render.Recipient
			if c.Role == conn.RoleSpectator {
				r = render.Recipient{Spectator: true}
			} else {
				r = render.Recipient{PlayerID: c.PlayerID}
			}
			h.mu.Lock()
			gs := render.Render(w, r, stateID)
			h.mu.Unlock()

			frame, err := c.Codec.Encode(proto.KindGameState, gs)
			if err != nil {
				return nil
			}
			if err := c.Socket.WriteMessage(1, frame); err != nil {
				h.manager.Remove(c, true)
			}
			return nil
		})
	}
	_ = g.Wait()

	if h.metrics != nil {
		h.metrics.Broadcasts.Add(float64(len(conns)))
	}
	h.counters.Add("broadcasts_total", uint64(len(conns)))

	if h.journal != nil && h.journal.Enabled() {
		h.mu.Lock()
		snap := render.Render(w, render.Recipient{Spectator: true}, "")
		h.mu.Unlock()
		h.journal.Append(snap)
	}
}

// endMatch finalizes a match that ran its full course (§4.G step 8): ranks
// players, sends GameEnd with final standings to every connection, and
// finalizes the replay journal.
func (h *Hub) endMatch() {
	h.finishMatch(proto.KindGameEnd)
}

// endMatchAbnormal finalizes a match cut short by a server shutdown (§7
// fatal/abnormal termination, SUPPLEMENTED FEATURES graceful shutdown): the
// same ranking and journal finalize as endMatch, but connections are
// notified with GameEnded rather than a completed GameEnd. A no-op if the
// match already ended normally.
func (h *Hub) endMatchAbnormal() {
	h.finishMatch(proto.KindGameEnded)
}

func (h *Hub) finishMatch(kind proto.Kind) {
	h.mu.Lock()
	if h.status == action.StatusEnded {
		h.mu.Unlock()
		return
	}
	h.status = action.StatusEnded
	w := h.world
	order := append([]world.PlayerID(nil), h.playerOrder...)
	h.mu.Unlock()

	end := proto.GameEnd{}
	if w != nil {
		type ranked struct {
			id    world.PlayerID
			score int
			kills int
		}
		list := make([]ranked, 0, len(order))
		for _, id := range order {
			p, ok := w.Players[id]
			if !ok {
				continue
			}
			list = append(list, ranked{id: id, score: p.Score, kills: p.Kills})
		}
		for i := 0; i < len(list); i++ {
			for j := i + 1; j < len(list); j++ {
				if list[j].score > list[i].score {
					list[i], list[j] = list[j], list[i]
				}
			}
		}
		for _, r := range list {
			end.Players = append(end.Players, proto.GameEndPlayer{
				ID: string(r.id), Nickname: h.nicknames[r.id], Score: r.score, Kills: r.kills,
			})
		}
	}

	for _, c := range h.manager.All() {
		frame, err := c.Codec.Encode(kind, end)
		if err == nil {
			c.Socket.WriteMessage(1, frame)
		}
		c.SetState(conn.StateEnded)
	}

	if h.journal != nil {
		if err := h.journal.Finalize(end, !h.manager.AnyValidityBroken()); err != nil {
			h.logger.Printf("journal finalize failed: %v", err)
		}
	}

	eventType, severity := logging.EventType("match_ended"), logging.SeverityInfo
	if kind == proto.KindGameEnded {
		eventType, severity = logging.EventType("match_ended_abnormal"), logging.SeverityWarn
	}
	h.publisher.Publish(context.Background(), logging.Event{
		Type:     eventType,
		Time:     time.Now(),
		Actor:    logging.EntityRef{Kind: logging.EntityKindWorld},
		Severity: severity,
		Category: logging.CategoryGameplay,
		Payload:  end,
	})
}
