package action

import (
	"encoding/json"
	"testing"

	"github.com/INIT-SGGW/HackArena2.0-MonoTanks/internal/proto"
)

func movementPayload(t *testing.T, gameStateID string) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(proto.Movement{Direction: "forward", GameStateID: gameStateID})
	if err != nil {
		t.Fatalf("marshal movement: %v", err)
	}
	return raw
}

func TestDispatchAcceptsFirstActionOfTick(t *testing.T) {
	s := NewSlot()
	rej, invalid := Dispatch(s, true, StatusRunning, "gs-1", proto.KindMovement, movementPayload(t, "gs-1"))
	if rej != Accepted || invalid != nil {
		t.Fatalf("expected acceptance, got rejection=%v invalid=%v", rej, invalid)
	}
	if act := s.Drain(); act == nil {
		t.Fatalf("expected drained action to be non-nil")
	}
}

func TestDispatchRejectsSecondActionSameTick(t *testing.T) {
	s := NewSlot()
	if rej, _ := Dispatch(s, true, StatusRunning, "gs-1", proto.KindMovement, movementPayload(t, "gs-1")); rej != Accepted {
		t.Fatalf("expected first action accepted, got %v", rej)
	}
	rej, _ := Dispatch(s, true, StatusRunning, "gs-1", proto.KindMovement, movementPayload(t, "gs-1"))
	if rej != RejectedAlreadyActed {
		t.Fatalf("expected second action rejected as already-acted, got %v", rej)
	}
}

func TestDispatchRejectsStaleGameState(t *testing.T) {
	s := NewSlot()
	rej, _ := Dispatch(s, true, StatusRunning, "gs-2", proto.KindMovement, movementPayload(t, "gs-1"))
	if rej != RejectedStaleGameState {
		t.Fatalf("expected stale game state rejection, got %v", rej)
	}
}

func TestDispatchRejectsWhenNotRunningOrNotPlayer(t *testing.T) {
	s := NewSlot()
	if rej, _ := Dispatch(s, false, StatusRunning, "gs-1", proto.KindMovement, movementPayload(t, "gs-1")); rej != RejectedNotPlayerOrNotRunning {
		t.Fatalf("expected rejection for non-player, got %v", rej)
	}
	if rej, _ := Dispatch(s, true, StatusLobby, "gs-1", proto.KindMovement, movementPayload(t, "gs-1")); rej != RejectedNotPlayerOrNotRunning {
		t.Fatalf("expected rejection while lobby, got %v", rej)
	}
}

func TestDispatchDropsStaleActionSilentlyEvenWithInvalidEnum(t *testing.T) {
	s := NewSlot()
	raw, _ := json.Marshal(proto.Movement{Direction: "sideways", GameStateID: "gs-1"})
	rej, invalid := Dispatch(s, true, StatusRunning, "gs-2", proto.KindMovement, raw)
	if rej != RejectedStaleGameState {
		t.Fatalf("expected staleness to take priority over enum validation, got %v", rej)
	}
	if invalid != nil {
		t.Fatalf("expected a stale action to be dropped silently, got %v", invalid)
	}
}

func TestDispatchRejectsInvalidEnumValue(t *testing.T) {
	s := NewSlot()
	raw, _ := json.Marshal(proto.Movement{Direction: "sideways", GameStateID: "gs-1"})
	rej, invalid := Dispatch(s, true, StatusRunning, "gs-1", proto.KindMovement, raw)
	if rej != RejectedInvalidPayload {
		t.Fatalf("expected invalid payload rejection, got %v", rej)
	}
	if invalid == nil {
		t.Fatalf("expected an InvalidPacketUsageError to be returned")
	}
}

func TestDrainClearsPendingAndPerTickFlag(t *testing.T) {
	s := NewSlot()
	Dispatch(s, true, StatusRunning, "gs-1", proto.KindMovement, movementPayload(t, "gs-1"))
	s.Drain()
	if act := s.Drain(); act != nil {
		t.Fatalf("expected second drain to return nil, got %v", act)
	}

	rej, _ := Dispatch(s, true, StatusRunning, "gs-1", proto.KindMovement, movementPayload(t, "gs-1"))
	if rej != Accepted {
		t.Fatalf("expected a new action to be admissible after drain, got %v", rej)
	}
}

func TestGameStateFlagTracksReplyForEagerBroadcast(t *testing.T) {
	s := NewSlot()
	if s.HasActedForCurrentGameState() {
		t.Fatalf("expected fresh slot to not have acted yet")
	}
	Dispatch(s, true, StatusRunning, "gs-1", proto.KindMovement, movementPayload(t, "gs-1"))
	if !s.HasActedForCurrentGameState() {
		t.Fatalf("expected slot to report having acted for gs-1")
	}
	s.ClearGameStateFlag()
	if s.HasActedForCurrentGameState() {
		t.Fatalf("expected flag cleared after ClearGameStateFlag")
	}
}
