package world

// phase8Visibility recomputes each living player's visibility grid from
// their tank's position and turret facing, or grants an all-true grid for
// one tick if radar was used (§4.C phase 8).
func (w *World) phase8Visibility() {
	for _, p := range w.Players {
		if p.Tank == nil || p.Tank.IsDead() {
			clearGrid(p.Visibility)
			continue
		}
		if p.UsingRadarThisTick {
			fillGrid(p.Visibility)
			continue
		}
		w.computeVisibility(p)
	}
}

// computeVisibility marks a forward-facing cone along the turret direction
// out to VisibilityRange, blocked by walls, plus the tank's own tile and
// its four neighbours which are always visible regardless of facing.
func (w *World) computeVisibility(p *Player) {
	clearGrid(p.Visibility)
	t := p.Tank

	set := func(x, y int) {
		if w.Grid.InBounds(x, y) {
			p.Visibility[y][x] = true
		}
	}

	set(t.X, t.Y)
	for _, d := range []Direction{Up, Right, Down, Left} {
		dx, dy := d.Delta()
		set(t.X+dx, t.Y+dy)
	}

	perpX, perpY := perpendicular(t.Turret.Direction)
	dx, dy := t.Turret.Direction.Delta()
	cx, cy := t.X, t.Y
	for r := 1; r <= w.Cfg.VisibilityRange; r++ {
		cx += dx
		cy += dy
		if w.Grid.Blocked(cx, cy) {
			set(cx, cy)
			break
		}
		width := r / 2
		for o := -width; o <= width; o++ {
			set(cx+perpX*o, cy+perpY*o)
		}
	}
}

func perpendicular(d Direction) (int, int) {
	dx, dy := d.Delta()
	return -dy, dx
}

func clearGrid(g [][]bool) {
	for _, row := range g {
		for i := range row {
			row[i] = false
		}
	}
}

func fillGrid(g [][]bool) {
	for _, row := range g {
		for i := range row {
			row[i] = true
		}
	}
}
