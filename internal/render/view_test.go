package render

import (
	"testing"

	"github.com/INIT-SGGW/HackArena2.0-MonoTanks/internal/proto"
	"github.com/INIT-SGGW/HackArena2.0-MonoTanks/internal/world"
)

func findBullet(gs proto.GameState) *proto.EntityView {
	for _, row := range gs.Map.Tiles {
		for _, tile := range row {
			for i, ev := range tile {
				if ev.Kind == "bullet" {
					return &tile[i]
				}
			}
		}
	}
	return nil
}

func newTestWorld(t *testing.T) *world.World {
	t.Helper()
	cfg := world.DefaultConfig()
	cfg.Dim = 16
	cfg.Seed = 1
	ids := []world.PlayerID{"p1", "p2"}
	nicknames := map[world.PlayerID]string{"p1": "alice", "p2": "bob"}
	return world.New(cfg, ids, nicknames, map[world.PlayerID]bool{})
}

func TestSpectatorSeesEveryTank(t *testing.T) {
	w := newTestWorld(t)
	gs := Render(w, Recipient{Spectator: true}, "")

	if gs.ID != nil {
		t.Fatalf("expected spectator snapshot to omit game state id")
	}
	found := 0
	for _, row := range gs.Map.Tiles {
		for _, tile := range row {
			for _, ev := range tile {
				if ev.Kind == "tank" {
					found++
					if ev.Health == nil {
						t.Fatalf("expected spectator to see tank health")
					}
					if ev.TurretDirection == "" {
						t.Fatalf("expected tank view to carry turret direction")
					}
				}
			}
		}
	}
	if found != len(w.Players) {
		t.Fatalf("expected %d tanks rendered, got %d", len(w.Players), found)
	}
}

func TestPlayerOnlySeesOwnTankOutsideVisibility(t *testing.T) {
	w := newTestWorld(t)
	self := w.Players["p1"]
	for y := range self.Visibility {
		for x := range self.Visibility[y] {
			self.Visibility[y][x] = false
		}
	}

	gs := Render(w, Recipient{PlayerID: "p1"}, "gs-1")
	if gs.ID == nil || *gs.ID != "gs-1" {
		t.Fatalf("expected player snapshot to carry the game state id")
	}

	tanksSeen := 0
	for _, row := range gs.Map.Tiles {
		for _, tile := range row {
			for _, ev := range tile {
				if ev.Kind == "tank" {
					tanksSeen++
					if ev.OwnerID != "p1" {
						t.Fatalf("expected the invisible opponent tank to be hidden, saw owner %s", ev.OwnerID)
					}
				}
			}
		}
	}
	if tanksSeen != 1 {
		t.Fatalf("expected exactly the owner's own tank visible, saw %d", tanksSeen)
	}
}

func TestOtherPlayerTankHidesHealthAndInventory(t *testing.T) {
	w := newTestWorld(t)
	self := w.Players["p1"]
	other := w.Players["p2"]
	for y := range self.Visibility {
		for x := range self.Visibility[y] {
			self.Visibility[y][x] = true
		}
	}

	gs := Render(w, Recipient{PlayerID: "p1"}, "gs-1")
	for _, row := range gs.Map.Tiles {
		for _, tile := range row {
			for _, ev := range tile {
				if ev.Kind == "tank" && ev.OwnerID == string(other.ID) {
					if ev.Health != nil {
						t.Fatalf("expected an opposing tank's health to be hidden from a player recipient")
					}
					if ev.BulletCount != nil {
						t.Fatalf("expected an opposing tank's bullet count to be hidden from a player recipient")
					}
				}
			}
		}
	}
}

func TestBulletFilteredForPlayersOmitsShooterAndDamage(t *testing.T) {
	w := newTestWorld(t)
	w.Bullets = append(w.Bullets, &world.Bullet{ID: 1, X: 3, Y: 3, Speed: 1, Damage: 20, ShooterID: "p2"})
	self := w.Players["p1"]
	for y := range self.Visibility {
		for x := range self.Visibility[y] {
			self.Visibility[y][x] = true
		}
	}

	gsSpectator := Render(w, Recipient{Spectator: true}, "")
	gsPlayer := Render(w, Recipient{PlayerID: "p1"}, "gs-1")

	specBullet := findBullet(gsSpectator)
	if specBullet == nil || specBullet.Damage == nil {
		t.Fatalf("expected spectator bullet view to include damage")
	}

	playerBullet := findBullet(gsPlayer)
	if playerBullet == nil {
		t.Fatalf("expected the bullet to still be visible to the player")
	}
	if playerBullet.Damage != nil || playerBullet.ShooterID != "" {
		t.Fatalf("expected player bullet view to omit damage and shooter id, got %+v", playerBullet)
	}
}
