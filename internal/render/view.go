// Package render projects a world.World into the per-recipient snapshot
// shapes clients see, following the visibility matrix in §4.D as data
// rather than as polymorphic converters (§9 design note).
package render

import (
	"sort"

	"github.com/INIT-SGGW/HackArena2.0-MonoTanks/internal/proto"
	"github.com/INIT-SGGW/HackArena2.0-MonoTanks/internal/world"
)

// Recipient identifies who a snapshot is being rendered for.
type Recipient struct {
	Spectator bool
	PlayerID  world.PlayerID // ignored when Spectator is true
}

// Render produces the GameState payload for recipient r. gameStateID is the
// current tick's opaque token; it is attached only for player recipients
// (GameState.ForPlayer, §4.D).
func Render(w *world.World, r Recipient, gameStateID string) proto.GameState {
	gs := proto.GameState{
		Tick:    w.Tick,
		Players: renderPlayers(w),
		Map:     renderMap(w, r),
	}
	if !r.Spectator {
		id := gameStateID
		gs.ID = &id
	}
	return gs
}

func renderPlayers(w *world.World) []proto.PlayerView {
	ids := sortedPlayerIDs(w)
	views := make([]proto.PlayerView, 0, len(ids))
	for _, id := range ids {
		p := w.Players[id]
		views = append(views, proto.PlayerView{
			ID:       string(p.ID),
			Nickname: p.Nickname,
			Color:    p.Color,
			Score:    p.Score,
			Kills:    p.Kills,
		})
	}
	return views
}

func sortedPlayerIDs(w *world.World) []world.PlayerID {
	ids := make([]world.PlayerID, 0, len(w.Players))
	for id := range w.Players {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func renderMap(w *world.World, r Recipient) proto.MapView {
	dim := w.Cfg.Dim
	tiles := make([][][]proto.EntityView, dim)
	for y := 0; y < dim; y++ {
		tiles[y] = make([][]proto.EntityView, dim)
	}

	var self *world.Player
	if !r.Spectator {
		self = w.Players[r.PlayerID]
	}

	for id, p := range w.Players {
		if p.Tank == nil || p.Tank.IsDead() {
			continue
		}
		if !visibleTo(w, r, self, p.Tank.X, p.Tank.Y) {
			continue
		}
		ev := tankView(p, id == r.PlayerID, r.Spectator)
		x, y := p.Tank.X, p.Tank.Y
		tiles[y][x] = append(tiles[y][x], ev)
	}

	if r.Spectator {
		for _, b := range w.Bullets {
			x, y := clampTile(b.X, dim), clampTile(b.Y, dim)
			tiles[y][x] = append(tiles[y][x], bulletView(b))
		}
		for _, l := range w.Lasers {
			for _, tile := range l.Tiles {
				tiles[tile.Y][tile.X] = append(tiles[tile.Y][tile.X], laserView(l))
			}
		}
		for _, m := range w.Mines {
			tiles[m.Y][m.X] = append(tiles[m.Y][m.X], mineView(m))
		}
	} else {
		for _, b := range w.Bullets {
			x, y := clampTile(b.X, dim), clampTile(b.Y, dim)
			if visibleTo(w, r, self, x, y) {
				tiles[y][x] = append(tiles[y][x], bulletViewFiltered(b))
			}
		}
		for _, l := range w.Lasers {
			for _, tile := range l.Tiles {
				if visibleTo(w, r, self, tile.X, tile.Y) {
					tiles[tile.Y][tile.X] = append(tiles[tile.Y][tile.X], laserViewFiltered(l))
				}
			}
		}
		for _, m := range w.Mines {
			if visibleTo(w, r, self, m.X, m.Y) {
				tiles[m.Y][m.X] = append(tiles[m.Y][m.X], mineViewFiltered(m))
			}
		}
	}

	zones := make([]proto.ZoneView, 0, len(w.Grid.Zones))
	for _, z := range w.Grid.Zones {
		zones = append(zones, zoneView(z))
	}

	mv := proto.MapView{Tiles: tiles, Zones: zones}
	if !r.Spectator && self != nil {
		mv.Visibility = self.Visibility
	}
	return mv
}

// visibleTo reports whether tile (x,y) should appear for this recipient:
// spectators see everything; a player sees their own tank always and other
// tiles only within their visibility grid (§4.D).
func visibleTo(w *world.World, r Recipient, self *world.Player, x, y int) bool {
	if r.Spectator {
		return true
	}
	if self == nil {
		return false
	}
	if self.HasTank() && self.Tank.X == x && self.Tank.Y == y {
		return true
	}
	if y < 0 || y >= len(self.Visibility) || x < 0 || x >= len(self.Visibility[y]) {
		return false
	}
	return self.Visibility[y][x]
}

func clampTile(v float64, dim int) int {
	t := int(v + 0.5)
	if t < 0 {
		return 0
	}
	if t >= dim {
		return dim - 1
	}
	return t
}

func tankView(p *world.Player, owner, spectator bool) proto.EntityView {
	t := p.Tank
	ev := proto.EntityView{
		Kind:            "tank",
		X:               float64(t.X),
		Y:               float64(t.Y),
		Direction:       t.Direction.String(),
		TurretDirection: t.Turret.Direction.String(),
		OwnerID:         string(p.ID),
	}
	if spectator || owner {
		h := t.Health
		ev.Health = &h
		ev.SecondaryItem = secondaryItemName(t.SecondaryItem)
		bc := t.Turret.BulletCount
		ev.BulletCount = &bc
	}
	return ev
}

func secondaryItemName(t world.SecondaryItemType) string {
	switch t {
	case world.ItemLaser:
		return "laser"
	case world.ItemDoubleBullet:
		return "doubleBullet"
	case world.ItemRadar:
		return "radar"
	case world.ItemMine:
		return "mine"
	default:
		return "none"
	}
}

func bulletView(b *world.Bullet) proto.EntityView {
	dmg := b.Damage
	speed := b.Speed
	return proto.EntityView{
		Kind: "bullet", ID: b.ID, X: b.X, Y: b.Y,
		Direction: b.Direction.String(), Damage: &dmg,
		ShooterID: string(b.ShooterID), Speed: &speed,
	}
}

// bulletViewFiltered strips damage/shooterId for non-spectator recipients,
// who may see the bullet's id/speed/direction but never its owner (§4.D).
func bulletViewFiltered(b *world.Bullet) proto.EntityView {
	speed := b.Speed
	return proto.EntityView{
		Kind: "bullet", ID: b.ID, X: b.X, Y: b.Y,
		Direction: b.Direction.String(), Speed: &speed,
	}
}

func laserView(l *world.Laser) proto.EntityView {
	dmg := l.Damage
	return proto.EntityView{Kind: "laser", ID: l.ID, ShooterID: string(l.ShooterID), Damage: &dmg}
}

func laserViewFiltered(l *world.Laser) proto.EntityView {
	return proto.EntityView{Kind: "laser", ID: l.ID}
}

func mineView(m *world.Mine) proto.EntityView {
	dmg := m.Damage
	return proto.EntityView{Kind: "mine", ID: m.ID, X: float64(m.X), Y: float64(m.Y), OwnerID: string(m.OwnerID), Damage: &dmg}
}

func mineViewFiltered(m *world.Mine) proto.EntityView {
	return proto.EntityView{Kind: "mine", ID: m.ID, X: float64(m.X), Y: float64(m.Y)}
}

func zoneView(z *world.Zone) proto.ZoneView {
	return proto.ZoneView{
		ID: string(z.ID), X: z.X, Y: z.Y, W: z.W, H: z.H,
		Status: zoneStatusName(z.Status), Holder: string(z.Holder),
		Attacker: string(z.Attacker), Progress: z.Progress,
	}
}

func zoneStatusName(s world.ZoneStatus) string {
	switch s {
	case world.ZoneNeutral:
		return "neutral"
	case world.ZoneBeingCaptured:
		return "beingCaptured"
	case world.ZoneCaptured:
		return "captured"
	case world.ZoneBeingContested:
		return "beingContested"
	case world.ZoneBeingRetaken:
		return "beingRetaken"
	default:
		return "unknown"
	}
}
