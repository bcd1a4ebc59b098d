// Package action decodes, validates, and admits per-tick client actions
// (§4.F). It owns admission policy only; the effects of an admitted action
// are executed by internal/world during the tick pipeline.
package action

import (
	"encoding/json"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"github.com/INIT-SGGW/HackArena2.0-MonoTanks/internal/proto"
	"github.com/INIT-SGGW/HackArena2.0-MonoTanks/internal/world"
)

// Slot is the per-connection admitted-action buffer (§5): single-writer
// (the I/O worker via Submit), single-reader (the tick worker via Drain).
type Slot struct {
	mu                          sync.Mutex
	limiter                     *rate.Limiter
	hasActedThisTick            bool
	hasActedForCurrentGameState bool
	pending                     world.Action
}

// NewSlot builds a slot with a token-bucket flood guard ahead of the
// one-action-per-tick admission rule. A client that floods the socket still
// only ever gets one action admitted per tick, but the limiter keeps a
// malicious client from burning CPU on decode/validate for every frame.
func NewSlot() *Slot {
	return &Slot{limiter: rate.NewLimiter(rate.Limit(30), 30)}
}

// Rejection is the taxonomy of admission outcomes an action can hit (§7).
type Rejection int

const (
	Accepted Rejection = iota
	RejectedRateLimited
	RejectedNotPlayerOrNotRunning
	RejectedAlreadyActed
	RejectedStaleGameState
	RejectedInvalidPayload
)

// GameStatus is the minimal state the dispatcher needs to know about the
// match to apply the "not Running" rejection rule.
type GameStatus int

const (
	StatusLobby GameStatus = iota
	StatusRunning
	StatusEnded
)

// Dispatch decodes and admits one inbound frame's action against s. It
// returns the rejection outcome and, for RejectedInvalidPayload or a
// semantic enum error, the InvalidPacketUsageError payload to send back.
func Dispatch(s *Slot, isPlayer bool, status GameStatus, currentGameStateID string, kind proto.Kind, payload json.RawMessage) (Rejection, *proto.InvalidPacketUsageError) {
	if !isPlayer || status != StatusRunning {
		return RejectedNotPlayerOrNotRunning, nil
	}
	if !s.limiter.Allow() {
		return RejectedRateLimited, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hasActedThisTick {
		return RejectedAlreadyActed, nil
	}

	// Staleness is checked against a raw peek at gameStateId before the
	// body is enum-decoded, so a stale action is dropped silently even
	// when it also carries an invalid enum value (§4.F order, §7).
	if gameStateID, err := peekGameStateID(payload); err == nil && gameStateID != "" && gameStateID != currentGameStateID {
		return RejectedStaleGameState, nil
	}

	act, _, err := decodeAction(kind, payload)
	if err != nil {
		return RejectedInvalidPayload, &proto.InvalidPacketUsageError{Reason: err.Error()}
	}

	s.pending = act
	s.hasActedThisTick = true
	s.hasActedForCurrentGameState = true
	return Accepted, nil
}

// Drain returns the admitted action (nil if none) and clears the per-tick
// flag, ready for the next tick's admission window. The eager-broadcast flag
// is cleared separately by ClearGameStateFlag.
func (s *Slot) Drain() world.Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	act := s.pending
	s.pending = nil
	s.hasActedThisTick = false
	return act
}

// HasActedForCurrentGameState reports whether this slot's player has
// already replied to the game-state id currently in flight, used by the
// eager-broadcast check (§4.G step 7).
func (s *Slot) HasActedForCurrentGameState() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasActedForCurrentGameState
}

// ClearGameStateFlag resets the eager-broadcast flag once a new game-state
// id has been issued.
func (s *Slot) ClearGameStateFlag() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hasActedForCurrentGameState = false
}

// peekGameStateID reads just the gameStateId field, common to every action
// payload shape, without validating the rest of the body.
func peekGameStateID(payload json.RawMessage) (string, error) {
	var probe struct {
		GameStateID string `json:"gameStateId"`
	}
	if err := json.Unmarshal(payload, &probe); err != nil {
		return "", err
	}
	return probe.GameStateID, nil
}

func decodeAction(kind proto.Kind, payload json.RawMessage) (world.Action, string, error) {
	switch kind {
	case proto.KindMovement:
		var m proto.Movement
		if err := json.Unmarshal(payload, &m); err != nil {
			return nil, "", fmt.Errorf("decode movement: %w", err)
		}
		dir, err := parseMoveDirection(m.Direction)
		if err != nil {
			return nil, "", err
		}
		return world.MoveAction{Direction: dir}, m.GameStateID, nil

	case proto.KindRotation:
		var r proto.Rotation
		if err := json.Unmarshal(payload, &r); err != nil {
			return nil, "", fmt.Errorf("decode rotation: %w", err)
		}
		act := world.RotateAction{}
		if r.TankRotation != nil {
			rot, err := parseRotation(*r.TankRotation)
			if err != nil {
				return nil, "", err
			}
			act.Tank = &rot
		}
		if r.TurretRotation != nil {
			rot, err := parseRotation(*r.TurretRotation)
			if err != nil {
				return nil, "", err
			}
			act.Turret = &rot
		}
		return act, r.GameStateID, nil

	case proto.KindAbilityUse:
		var a proto.AbilityUse
		if err := json.Unmarshal(payload, &a); err != nil {
			return nil, "", fmt.Errorf("decode abilityUse: %w", err)
		}
		kind, err := parseAbilityKind(a.AbilityType)
		if err != nil {
			return nil, "", err
		}
		return world.AbilityAction{Kind: kind}, a.GameStateID, nil

	default:
		return nil, "", fmt.Errorf("unrecognized action packet type %s", kind)
	}
}

func parseMoveDirection(s string) (world.MoveDirection, error) {
	switch s {
	case "forward":
		return world.MoveForward, nil
	case "backward":
		return world.MoveBackward, nil
	default:
		return 0, fmt.Errorf("unknown movement direction %q", s)
	}
}

func parseRotation(s string) (world.Rotation, error) {
	switch s {
	case "left":
		return world.RotateLeft, nil
	case "right":
		return world.RotateRight, nil
	default:
		return 0, fmt.Errorf("unknown rotation %q", s)
	}
}

func parseAbilityKind(s string) (world.AbilityKind, error) {
	switch s {
	case "fireBullet":
		return world.AbilityFireBullet, nil
	case "fireDoubleBullet":
		return world.AbilityFireDoubleBullet, nil
	case "useLaser":
		return world.AbilityUseLaser, nil
	case "dropMine":
		return world.AbilityDropMine, nil
	case "useRadar":
		return world.AbilityUseRadar, nil
	default:
		return 0, fmt.Errorf("unknown ability type %q", s)
	}
}
