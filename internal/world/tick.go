package world

import "sort"

// TickEvents accumulates facts produced during a tick that the caller (the
// scheduler, §4.G) needs but that don't belong on the world itself: the
// tanks destroyed this tick, for logging. Kept as an explicit return value
// rather than a module-global event buffer (§9).
type TickEvents struct {
	Kills []KillEvent
}

// KillEvent records a tank destruction for logging/metrics.
type KillEvent struct {
	Victim   PlayerID
	Attacker PlayerID
}

// Step runs phases 1-10 of the tick pipeline (§4.C) against the admitted
// actions map, then advances w.Tick. The caller owns the world lock for the
// duration of this call (§5 single-writer model).
func (w *World) Step(actions map[PlayerID]Action) TickEvents {
	var ev TickEvents

	w.phase1Actions(actions)
	w.phase2Bullets(&ev)
	w.phase3Lasers(&ev)
	w.phase4Mines(&ev)
	w.phase5Stuns()
	w.phase6Regen()
	w.phase7Respawn()
	w.phase8Visibility()
	w.phase9Zones()
	w.phase10Pickups()

	for _, p := range w.Players {
		p.UsingRadarThisTick = false
	}

	w.Tick++
	return ev
}

// phase1Actions applies admitted actions in a deterministic but
// unpredictable order: sorted by nickname, then shuffled with the match
// PRNG (§4.C phase 1).
func (w *World) phase1Actions(actions map[PlayerID]Action) {
	ids := make([]PlayerID, 0, len(actions))
	for id := range actions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return w.Players[ids[i]].Nickname < w.Players[ids[j]].Nickname
	})
	w.Rng.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})

	for _, id := range ids {
		actor, ok := w.Players[id]
		if !ok {
			continue
		}
		actions[id].apply(w, actor)
	}
}

// phase2Bullets advances each bullet by Speed tiles, resolving wall,
// tank, and mutual-bullet collisions in unit sub-steps to avoid tunnelling
// (§4.C phase 2).
func (w *World) phase2Bullets(ev *TickEvents) {
	alive := make([]*Bullet, 0, len(w.Bullets))
	destroyed := make(map[int]bool)

	steps := 0
	remaining := make(map[int]float64, len(w.Bullets))
	for _, b := range w.Bullets {
		remaining[b.ID] = b.Speed
	}

	for {
		anyLeft := false
		for _, b := range remaining {
			if b > 0 {
				anyLeft = true
				break
			}
		}
		if !anyLeft || steps > w.Cfg.Dim+2 {
			break
		}
		steps++

		prevPos := make(map[int][2]float64, len(w.Bullets))

		for _, b := range w.Bullets {
			if destroyed[b.ID] || remaining[b.ID] <= 0 {
				continue
			}
			step := remaining[b.ID]
			if step > 1 {
				step = 1
			}
			remaining[b.ID] -= step

			dx, dy := b.Direction.Delta()
			prevTankSwapX, prevTankSwapY := b.X, b.Y
			prevPos[b.ID] = [2]float64{prevTankSwapX, prevTankSwapY}
			b.X += float64(dx) * step
			b.Y += float64(dy) * step

			tx, ty := int(b.X+0.5), int(b.Y+0.5)

			if w.Grid.Blocked(tx, ty) {
				destroyed[b.ID] = true
				continue
			}

			if tank := w.tankAt(tx, ty); tank != nil {
				w.damageBullet(b, tank, ev)
				destroyed[b.ID] = true
				continue
			}
			if tank := w.tankSwappedInto(tx, ty, int(prevTankSwapX+0.5), int(prevTankSwapY+0.5)); tank != nil {
				w.damageBullet(b, tank, ev)
				destroyed[b.ID] = true
				continue
			}
		}

		for i, a := range w.Bullets {
			if destroyed[a.ID] {
				continue
			}
			for _, b := range w.Bullets[i+1:] {
				if destroyed[b.ID] {
					continue
				}
				if sameTile(a, b) || swapped(a, b, prevPos) {
					destroyed[a.ID] = true
					destroyed[b.ID] = true
				}
			}
		}
	}

	for _, b := range w.Bullets {
		if !destroyed[b.ID] {
			alive = append(alive, b)
		}
	}
	w.Bullets = alive
}

func (w *World) damageBullet(b *Bullet, tank *Tank, ev *TickEvents) {
	attacker := w.playerTank(b.ShooterID)
	res := tank.TakeDamage(b.Damage, attacker)
	if res.Killed {
		w.awardKill(ev, tank.OwnerID, b.ShooterID)
	}
}

// awardKill records a kill event for logging (§4.C) and credits the
// attacker's Player.Kills counter (§4.B: "on kill awards +1 kill").
func (w *World) awardKill(ev *TickEvents, victim, attacker PlayerID) {
	ev.Kills = append(ev.Kills, KillEvent{Victim: victim, Attacker: attacker})
	if p, ok := w.Players[attacker]; ok {
		p.Kills++
	}
}

func (w *World) playerTank(id PlayerID) *Tank {
	if p, ok := w.Players[id]; ok {
		return p.Tank
	}
	return nil
}

// tankSwappedInto detects the "tank and bullet swapped tiles" case using
// the tank's PreviousX/Y against the bullet's destination tile this step.
func (w *World) tankSwappedInto(tx, ty, fromX, fromY int) *Tank {
	for _, p := range w.Players {
		if !p.HasTank() {
			continue
		}
		t := p.Tank
		if t.PreviousX == tx && t.PreviousY == ty && t.X == fromX && t.Y == fromY {
			return t
		}
	}
	return nil
}

func sameTile(a, b *Bullet) bool {
	return int(a.X+0.5) == int(b.X+0.5) && int(a.Y+0.5) == int(b.Y+0.5)
}

// swapped mirrors tankSwappedInto for bullet-bullet pairs: two bullets that
// crossed paths mid-step land on each other's previous tile without ever
// sharing a rounded tile this step.
func swapped(a, b *Bullet, prev map[int][2]float64) bool {
	ap, ok := prev[a.ID]
	if !ok {
		return false
	}
	bp, ok := prev[b.ID]
	if !ok {
		return false
	}
	ax, ay := int(a.X+0.5), int(a.Y+0.5)
	bx, by := int(b.X+0.5), int(b.Y+0.5)
	apx, apy := int(ap[0]+0.5), int(ap[1]+0.5)
	bpx, bpy := int(bp[0]+0.5), int(bp[1]+0.5)
	return apx == bx && apy == by && bpx == ax && bpy == ay
}

// phase3Lasers decrements lifetime and damages any tank standing on a laser
// tile, at most once per tank per tick per laser (§4.C phase 3, Open
// Question: damage applies for every tick the laser exists over the tile).
func (w *World) phase3Lasers(ev *TickEvents) {
	alive := make([]*Laser, 0, len(w.Lasers))
	for _, l := range w.Lasers {
		l.RemainingTicks--
		for id := range l.damagedThisTick {
			delete(l.damagedThisTick, id)
		}
		for _, tile := range l.Tiles {
			tank := w.tankAt(tile.X, tile.Y)
			if tank == nil || l.damagedThisTick[tank.OwnerID] {
				continue
			}
			l.damagedThisTick[tank.OwnerID] = true
			attacker := w.playerTank(l.ShooterID)
			res := tank.TakeDamage(l.Damage, attacker)
			if res.Killed {
				w.awardKill(ev, tank.OwnerID, l.ShooterID)
			}
		}
		if l.RemainingTicks > 0 {
			alive = append(alive, l)
		}
	}
	w.Lasers = alive
}

// phase4Mines advances the fade timer on detonated mines and detonates
// armed mines a non-owner tank steps on (§4.C phase 4).
func (w *World) phase4Mines(ev *TickEvents) {
	alive := make([]*Mine, 0, len(w.Mines))
	for _, m := range w.Mines {
		if !m.Armed() {
			m.ExplodeRemainingTicks--
			if m.ExplodeRemainingTicks > 0 {
				alive = append(alive, m)
			}
			continue
		}

		victim := w.tankAt(m.X, m.Y)
		if victim != nil && victim.OwnerID != m.OwnerID {
			w.detonateMine(m, ev)
			m.ExplodeRemainingTicks = w.Cfg.MineFadeTicks
		}
		alive = append(alive, m)
	}
	w.Mines = alive
}

func (w *World) detonateMine(m *Mine, ev *TickEvents) {
	owner := w.playerTank(m.OwnerID)
	for _, p := range w.Players {
		if !p.HasTank() {
			continue
		}
		t := p.Tank
		if chebyshev(t.X-m.X, t.Y-m.Y) <= m.BlastRadius {
			res := t.TakeDamage(m.Damage, owner)
			if res.Killed {
				w.awardKill(ev, t.OwnerID, m.OwnerID)
			}
		}
	}
}

func chebyshev(dx, dy int) int {
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	if dx > dy {
		return dx
	}
	return dy
}

// phase5Stuns decrements every tank's active stun effects (§4.C phase 5).
func (w *World) phase5Stuns() {
	for _, p := range w.Players {
		if p.Tank != nil {
			p.Tank.TickStuns()
		}
	}
}

// phase6Regen advances turret ammo regeneration (§4.C phase 6).
func (w *World) phase6Regen() {
	for _, p := range w.Players {
		if p.HasTank() {
			p.Tank.Turret.RegenAmmo(w.Cfg.BulletRegenTicks, w.Cfg.MaxBullets)
		}
	}
}

// phase7Respawn counts down and respawns dead tanks at a free spawn point
// (§4.C phase 7).
func (w *World) phase7Respawn() {
	for _, p := range w.Players {
		if p.Tank == nil || !p.Tank.IsDead() || p.Disconnected {
			continue
		}
		p.RemainingTicksToRegenBullet--
		if p.RemainingTicksToRegenBullet > 0 {
			continue
		}
		spawn := w.freeSpawn()
		p.Tank = NewTank(p.ID, spawn.X, spawn.Y, Direction(w.Rng.Intn(4)), w.Cfg.MaxBullets)
		p.RemainingTicksToRegenBullet = w.Cfg.RespawnTicks
	}
}

func (w *World) freeSpawn() Tile {
	for _, s := range w.Grid.Spawns {
		if w.tankAt(s.X, s.Y) == nil {
			return s
		}
	}
	return w.Grid.Spawns[w.Rng.Intn(len(w.Grid.Spawns))]
}

// phase9Zones applies the capture-state transition table and awards score
// (§4.C phase 9).
func (w *World) phase9Zones() {
	for _, z := range w.Grid.Zones {
		counts := zoneOccupants(z, w.Players)
		advanceZone(z, counts, w.Cfg.CaptureTicks)
		if holder, ok := z.scoreHolder(); ok {
			if p, exists := w.Players[holder]; exists {
				p.Score++
			}
		}
	}
}

// phase10Pickups grants map items to living tanks with no held item
// standing on the item tile (§4.C phase 10).
func (w *World) phase10Pickups() {
	remaining := w.Items[:0]
	for _, it := range w.Items {
		tank := w.tankAt(it.X, it.Y)
		if tank != nil && tank.SecondaryItem == ItemNone {
			tank.SecondaryItem = it.Type
			continue
		}
		remaining = append(remaining, it)
	}
	w.Items = remaining
}
