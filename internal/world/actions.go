package world

// MoveDirection is forward/backward relative to the tank's current facing.
type MoveDirection int

const (
	MoveForward MoveDirection = iota
	MoveBackward
)

// AbilityKind selects which secondary/primary ability an AbilityAction uses.
type AbilityKind int

const (
	AbilityFireBullet AbilityKind = iota
	AbilityFireDoubleBullet
	AbilityUseLaser
	AbilityDropMine
	AbilityUseRadar
)

// Action is one admitted per-tick action, applied during phase 1 of the
// tick pipeline (§4.C). Implementations mutate the world directly; the
// dispatcher (internal/action) is responsible for admission, this package
// only executes what has already been accepted.
type Action interface {
	apply(w *World, actor *Player)
}

// MoveAction advances or retreats the tank one tile along its facing.
type MoveAction struct {
	Direction MoveDirection
}

func (a MoveAction) apply(w *World, actor *Player) {
	if !actor.HasTank() || actor.Tank.stunnedFor(StunMovement) {
		return
	}
	t := actor.Tank
	dx, dy := t.Direction.Delta()
	if a.Direction == MoveBackward {
		dx, dy = -dx, -dy
	}
	nx, ny := t.X+dx, t.Y+dy
	if w.Grid.Blocked(nx, ny) || w.tankAt(nx, ny) != nil {
		return
	}
	t.SetPosition(nx, ny)
}

// RotateAction turns the tank hull and/or turret; either may be absent.
type RotateAction struct {
	Tank   *Rotation
	Turret *Rotation
}

func (a RotateAction) apply(w *World, actor *Player) {
	if !actor.HasTank() {
		return
	}
	t := actor.Tank
	if a.Tank != nil {
		t.Rotate(*a.Tank)
	}
	if a.Turret != nil {
		t.Turret.Rotate(*a.Turret, t)
	}
}

// AbilityAction fires the tank's primary weapon or consumes a secondary
// item.
type AbilityAction struct {
	Kind AbilityKind
}

func (a AbilityAction) apply(w *World, actor *Player) {
	if !actor.HasTank() {
		return
	}
	t := actor.Tank
	switch a.Kind {
	case AbilityFireBullet:
		if t.Turret.TryShoot(t) {
			w.spawnBullet(t, w.Cfg.BulletDamage, false)
		}
	case AbilityFireDoubleBullet:
		if t.TryUseSecondary(ItemDoubleBullet) && t.Turret.TryShoot(t) {
			w.spawnBullet(t, w.Cfg.DoubleBulletDamage, true)
		}
	case AbilityUseLaser:
		if t.TryUseSecondary(ItemLaser) {
			w.spawnLaser(t)
		}
	case AbilityDropMine:
		if t.TryDropMine() {
			w.spawnMine(t)
		}
	case AbilityUseRadar:
		if t.TryUseRadar() {
			actor.UsingRadarThisTick = true
		}
	}
}

func (w *World) tankAt(x, y int) *Tank {
	for _, p := range w.Players {
		if p.HasTank() && p.Tank.X == x && p.Tank.Y == y {
			return p.Tank
		}
	}
	return nil
}

func (w *World) spawnBullet(t *Tank, damage int, double bool) {
	dx, dy := t.Direction.Delta()
	w.Bullets = append(w.Bullets, &Bullet{
		ID:        w.nextID(),
		X:         float64(t.X) + float64(dx),
		Y:         float64(t.Y) + float64(dy),
		Speed:     w.Cfg.BulletSpeed,
		Direction: t.Direction,
		Damage:    damage,
		ShooterID: t.OwnerID,
		Double:    double,
	})
}

func (w *World) spawnLaser(t *Tank) {
	tiles := laserPath(w.Grid, t.X, t.Y, t.Direction)
	w.Lasers = append(w.Lasers, &Laser{
		ID:              w.nextID(),
		Tiles:           tiles,
		RemainingTicks:  w.Cfg.LaserLifetimeTicks,
		ShooterID:       t.OwnerID,
		Damage:          w.Cfg.LaserDamage,
		damagedThisTick: make(map[PlayerID]bool),
	})
}

func (w *World) spawnMine(t *Tank) {
	w.Mines = append(w.Mines, &Mine{
		ID:                    w.nextID(),
		X:                     t.X,
		Y:                     t.Y,
		Damage:                w.Cfg.MineDamage,
		BlastRadius:           w.Cfg.MineBlastRadius,
		OwnerID:               t.OwnerID,
		ExplodeRemainingTicks: -1,
	})
}

// laserPath walks from the tank's muzzle tile in dir until it hits a wall.
func laserPath(g *Grid, x, y int, dir Direction) []Tile {
	dx, dy := dir.Delta()
	var tiles []Tile
	cx, cy := x+dx, y+dy
	for !g.Blocked(cx, cy) {
		tiles = append(tiles, Tile{X: cx, Y: cy})
		cx += dx
		cy += dy
	}
	return tiles
}
