package proto

import (
	"encoding/json"
	"testing"
)

func TestCodecRoundTripIntFormat(t *testing.T) {
	c := Codec{Format: EnumAsInt}
	raw, err := c.Encode(KindMovement, Movement{Direction: "forward", GameStateID: "gs-1"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	kind, payload, err := Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if kind != KindMovement {
		t.Fatalf("expected KindMovement, got %v", kind)
	}
	var m Movement
	if err := json.Unmarshal(payload, &m); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if m.Direction != "forward" || m.GameStateID != "gs-1" {
		t.Fatalf("unexpected payload after round trip: %+v", m)
	}
}

func TestCodecRoundTripStringFormat(t *testing.T) {
	c := Codec{Format: EnumAsString}
	raw, err := c.Encode(KindAbilityUse, AbilityUse{AbilityType: "fireBullet", GameStateID: "gs-7"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	kind, _, err := Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if kind != KindAbilityUse {
		t.Fatalf("expected KindAbilityUse, got %v", kind)
	}
}

func TestParseKindRejectsUnknown(t *testing.T) {
	if _, ok := ParseKind("not-a-real-kind"); ok {
		t.Fatalf("expected unknown kind string to fail to parse")
	}
	if _, ok := ParseKind(float64(999)); ok {
		t.Fatalf("expected unknown kind ordinal to fail to parse")
	}
}
