package world

import "testing"

func TestZoneCaptureProgression(t *testing.T) {
	z := &Zone{ID: 'A', X: 0, Y: 0, W: 1, H: 1}
	counts := map[PlayerID]int{"p1": 1}

	advanceZone(z, counts, 3)
	if z.Status != ZoneBeingCaptured || z.Progress != 1 {
		t.Fatalf("tick 1: expected BeingCaptured(p1,1), got status=%v progress=%d", z.Status, z.Progress)
	}

	advanceZone(z, counts, 3)
	advanceZone(z, counts, 3)
	if z.Status != ZoneCaptured || z.Holder != "p1" {
		t.Fatalf("tick 3: expected Captured(p1), got status=%v holder=%s", z.Status, z.Holder)
	}
}

func TestZoneContestedOnEqualOverlap(t *testing.T) {
	z := &Zone{ID: 'A', X: 0, Y: 0, W: 1, H: 1}
	counts := map[PlayerID]int{"p1": 1, "p2": 1}

	advanceZone(z, counts, 3)
	if z.Status != ZoneBeingContested {
		t.Fatalf("expected contested on equal overlap, got %v", z.Status)
	}
}

func TestZoneRetakeCycle(t *testing.T) {
	z := &Zone{ID: 'A', X: 0, Y: 0, W: 1, H: 1, Status: ZoneCaptured, Holder: "p1"}

	advanceZone(z, map[PlayerID]int{"p2": 1}, 2)
	if z.Status != ZoneBeingRetaken || z.Attacker != "p2" {
		t.Fatalf("expected BeingRetaken(p2,p1,1), got status=%v attacker=%s", z.Status, z.Attacker)
	}

	advanceZone(z, map[PlayerID]int{"p2": 1}, 2)
	if z.Status != ZoneCaptured || z.Holder != "p2" {
		t.Fatalf("expected capture flip to p2, got status=%v holder=%s", z.Status, z.Holder)
	}
}

func TestZoneEmptyDecaysToNeutral(t *testing.T) {
	z := &Zone{ID: 'A', X: 0, Y: 0, W: 1, H: 1, Status: ZoneBeingCaptured, Holder: "p1", Progress: 1}
	advanceZone(z, map[PlayerID]int{}, 3)
	if z.Status != ZoneNeutral {
		t.Fatalf("expected decay to Neutral at progress 0, got %v", z.Status)
	}
}
