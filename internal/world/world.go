package world

import "math/rand"

// Config bundles the tunables a match is constructed and stepped with.
type Config struct {
	Dim                 int
	MaxBullets          int
	BulletSpeed         float64
	BulletDamage        int
	DoubleBulletDamage  int
	LaserDamage         int
	LaserLifetimeTicks  int
	MineDamage          int
	MineBlastRadius     int
	MineFadeTicks       int
	CaptureTicks        int
	BulletRegenTicks    int
	RespawnTicks        int
	VisibilityRange     int
	Seed                uint64
}

// DefaultConfig mirrors the constants a MonoTanks match ships with when no
// override is supplied via CLI flags or config file.
func DefaultConfig() Config {
	return Config{
		Dim:                defaultDim,
		MaxBullets:         defaultMaxBullets,
		BulletSpeed:        defaultBulletSpeed,
		BulletDamage:       defaultBulletDamage,
		DoubleBulletDamage: doubleBulletDamage,
		LaserDamage:        defaultLaserDamage,
		LaserLifetimeTicks: 3,
		MineDamage:         defaultMineDamage,
		MineBlastRadius:    defaultMineBlastRadius,
		MineFadeTicks:      3,
		CaptureTicks:       defaultCaptureTicks,
		BulletRegenTicks:   defaultBulletRegenTicks,
		RespawnTicks:       defaultRespawnTicks,
		VisibilityRange:    defaultVisibilityRange,
	}
}

// World is the authoritative, single-writer game state for one match (§3).
// It is mutated exclusively by the tick worker (§5); every other reader must
// go through a rendered snapshot (internal/render).
type World struct {
	Cfg    Config
	Grid   *Grid
	Rng    *rand.Rand

	Players map[PlayerID]*Player
	Bullets []*Bullet
	Lasers  []*Laser
	Mines   []*Mine
	Items   []*Item

	nextEntityID int
	Tick         int
}

// New constructs a world for the given player ids, generating the grid,
// zones, and spawn assignment deterministically from cfg.Seed (§3
// lifecycle). Player order determines spawn assignment order.
func New(cfg Config, playerIDs []PlayerID, nicknames map[PlayerID]string, isBot map[PlayerID]bool) *World {
	rng := rand.New(rand.NewSource(int64(cfg.Seed)))
	grid := generateGrid(cfg.Dim, rng)

	w := &World{
		Cfg:     cfg,
		Grid:    grid,
		Rng:     rng,
		Players: make(map[PlayerID]*Player, len(playerIDs)),
	}

	for i, id := range playerIDs {
		spawn := grid.Spawns[i%len(grid.Spawns)]
		p := &Player{
			ID:       id,
			Nickname: nicknames[id],
			IsBot:    isBot[id],
			Color:    paletteColor(i),

			RemainingTicksToRegenBullet: cfg.RespawnTicks,
		}
		p.Tank = NewTank(id, spawn.X, spawn.Y, Direction(rng.Intn(4)), cfg.MaxBullets)
		p.Visibility = newVisibilityGrid(cfg.Dim)
		w.Players[id] = p
	}
	return w
}

// nextID hands out a match-unique integer id for bullets/lasers/mines.
func (w *World) nextID() int {
	w.nextEntityID++
	return w.nextEntityID
}

// paletteColor picks a stable, visually distinct 24-bit RGB color per spawn
// slot rather than drawing from the PRNG, so colors don't depend on seed.
func paletteColor(i int) uint32 {
	palette := []uint32{0xE63946, 0x1D3557, 0x2A9D8F, 0xF4A261}
	return palette[i%len(palette)]
}

func newVisibilityGrid(dim int) [][]bool {
	g := make([][]bool, dim)
	for y := range g {
		g[y] = make([]bool, dim)
	}
	return g
}

// generateGrid builds a walled, zoned, spawn-pointed map from seed rng. The
// layout algorithm is intentionally simple: a border wall (implicit, per
// §3), a sparse field of interior wall blocks, a handful of rectangular
// zones tiled across the map, and one spawn point per map corner region.
func generateGrid(dim int, rng *rand.Rand) *Grid {
	g := &Grid{Dim: dim}
	g.walls = make([][]WallState, dim)
	for y := range g.walls {
		g.walls[y] = make([]WallState, dim)
	}

	interiorWalls := dim * dim / 20
	for i := 0; i < interiorWalls; i++ {
		x := rng.Intn(dim)
		y := rng.Intn(dim)
		g.setWall(x, y, WallSolid)
	}

	zoneIDs := []byte{'A', 'B', 'C', 'D'}
	zoneSize := dim / 4
	if zoneSize < 2 {
		zoneSize = 2
	}
	mid := dim / 2
	offsets := [][2]int{
		{mid - zoneSize - 1, mid - zoneSize - 1},
		{mid + 1, mid - zoneSize - 1},
		{mid - zoneSize - 1, mid + 1},
		{mid + 1, mid + 1},
	}
	for i, off := range offsets {
		z := &Zone{ID: zoneIDs[i], X: off[0], Y: off[1], W: zoneSize, H: zoneSize}
		if z.X < 0 {
			z.X = 0
		}
		if z.Y < 0 {
			z.Y = 0
		}
		for y := z.Y; y < z.Y+z.H && y < dim; y++ {
			for x := z.X; x < z.X+z.W && x < dim; x++ {
				g.setWall(x, y, WallNone)
			}
		}
		g.Zones = append(g.Zones, z)
	}

	margin := 1
	g.Spawns = []Tile{
		{X: margin, Y: margin},
		{X: dim - 1 - margin, Y: margin},
		{X: margin, Y: dim - 1 - margin},
		{X: dim - 1 - margin, Y: dim - 1 - margin},
	}
	for _, s := range g.Spawns {
		g.setWall(s.X, s.Y, WallNone)
	}
	return g
}
