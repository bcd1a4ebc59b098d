package world

// SecondaryItemType is the one-shot capability a tank may hold.
type SecondaryItemType int

const (
	ItemNone SecondaryItemType = iota
	ItemLaser
	ItemDoubleBullet
	ItemRadar
	ItemMine
)

// StunKind is a bitmask of actions a stun effect blocks.
type StunKind int

const (
	StunMovement StunKind = 1 << iota
	StunRotation
	StunAbilityUse
)

// StunAll blocks every action kind.
const StunAll = StunMovement | StunRotation | StunAbilityUse

// StunEffect is a time-limited restriction on a tank, keyed by its source
// (e.g. mine id) so multiple sources can overlap independently.
type StunEffect struct {
	Kind            StunKind
	RemainingTicks  int
}

// PlayerID identifies a participant across the match.
type PlayerID string

// DamageResult reports the outcome of a damage or heal application, per the
// "explicit return values instead of event emission" design (§9).
type DamageResult struct {
	DamageTaken int
	Killed      bool
}

// Tank is a player's vehicle. A dead tank has X=Y=-1 and Health=0 (§3
// invariant); it is restored to a spawn point by the respawn phase.
type Tank struct {
	X, Y             int
	PreviousX, PreviousY int
	Direction        Direction
	Health           int
	OwnerID          PlayerID
	Turret           Turret
	SecondaryItem    SecondaryItemType
	Stuns            map[string]*StunEffect
}

// NewTank constructs a tank at a spawn point with full health, no stuns, and
// a full turret magazine of maxBullets rounds.
func NewTank(owner PlayerID, x, y int, dir Direction, maxBullets int) *Tank {
	return &Tank{
		X: x, Y: y,
		PreviousX: x, PreviousY: y,
		Direction: dir,
		Health:    maxTankHealth,
		OwnerID:   owner,
		Turret:    Turret{Direction: dir, BulletCount: maxBullets},
		Stuns:     make(map[string]*StunEffect),
	}
}

// IsDead reports whether the tank has been destroyed.
func (t *Tank) IsDead() bool {
	return t.Health <= 0
}

// stunnedFor reports whether any active stun blocks the given action kind.
func (t *Tank) stunnedFor(kind StunKind) bool {
	for _, s := range t.Stuns {
		if s.RemainingTicks > 0 && s.Kind&kind != 0 {
			return true
		}
	}
	return false
}

// Rotate turns the tank's facing by r, a no-op while rotation-stunned or dead.
func (t *Tank) Rotate(r Rotation) {
	if t.IsDead() || t.stunnedFor(StunRotation) {
		return
	}
	t.Direction = r.Apply(t.Direction)
}

// SetPosition moves the tank to (x,y), recording the prior tile so bullet
// resolution can detect a swap collision across the tick boundary (§4.C
// phase 2).
func (t *Tank) SetPosition(x, y int) {
	t.PreviousX, t.PreviousY = t.X, t.Y
	t.X, t.Y = x, y
}

// TakeDamage applies n points of damage, saturating at 0. On kill, the
// attacker (if any and alive) is healed by killHealAmount; the kill itself is
// credited to the attacker's Player by the caller (World.awardKill).
func (t *Tank) TakeDamage(n int, attacker *Tank) DamageResult {
	if t.IsDead() {
		return DamageResult{}
	}
	applied := n
	if applied > t.Health {
		applied = t.Health
	}
	t.Health -= applied
	killed := t.Health <= 0
	if killed {
		t.Health = 0
		t.X, t.Y = -1, -1
		if attacker != nil && !attacker.IsDead() {
			attacker.Heal(killHealAmount)
		}
	}
	return DamageResult{DamageTaken: applied, Killed: killed}
}

// Heal restores n health, capped at maxTankHealth. Rejected on a dead tank;
// respawn is the only path back to life.
func (t *Tank) Heal(n int) {
	if t.IsDead() {
		return
	}
	t.Health += n
	if t.Health > maxTankHealth {
		t.Health = maxTankHealth
	}
}

// Stun records or refreshes a stun effect keyed by source.
func (t *Tank) Stun(source string, kind StunKind, ticks int) {
	t.Stuns[source] = &StunEffect{Kind: kind, RemainingTicks: ticks}
}

// TickStuns decrements every active stun's remaining ticks and drops expired
// entries (§4.C phase 5).
func (t *Tank) TickStuns() {
	for src, s := range t.Stuns {
		s.RemainingTicks--
		if s.RemainingTicks <= 0 {
			delete(t.Stuns, src)
		}
	}
}

// TryUseRadar consumes a held radar item, returning whether it fired. Gated
// by ability-use stun and item presence.
func (t *Tank) TryUseRadar() bool {
	if t.IsDead() || t.stunnedFor(StunAbilityUse) || t.SecondaryItem != ItemRadar {
		return false
	}
	t.SecondaryItem = ItemNone
	return true
}

// TryDropMine consumes a held mine item, returning whether it fired.
func (t *Tank) TryDropMine() bool {
	if t.IsDead() || t.stunnedFor(StunAbilityUse) || t.SecondaryItem != ItemMine {
		return false
	}
	t.SecondaryItem = ItemNone
	return true
}

// TryUseSecondary consumes the held item if it matches want, e.g. laser or
// double bullet, both of which act through the turret rather than the tank
// directly but still gate on the same stun/possession rule.
func (t *Tank) TryUseSecondary(want SecondaryItemType) bool {
	if t.IsDead() || t.stunnedFor(StunAbilityUse) || t.SecondaryItem != want {
		return false
	}
	t.SecondaryItem = ItemNone
	return true
}

// Turret is the rotating weapon mount on a tank.
type Turret struct {
	Direction           Direction
	BulletCount         int
	BulletRegenProgress int
}

// Rotate turns the turret independent of the tank hull.
func (tu *Turret) Rotate(r Rotation, tank *Tank) {
	if tank.IsDead() || tank.stunnedFor(StunRotation) {
		return
	}
	tu.Direction = r.Apply(tu.Direction)
}

// TryShoot consumes one round if available and the tank is not ability-use
// stunned. Returns whether a bullet may be spawned.
func (tu *Turret) TryShoot(tank *Tank) bool {
	if tank.IsDead() || tank.stunnedFor(StunAbilityUse) || tu.BulletCount <= 0 {
		return false
	}
	tu.BulletCount--
	return true
}

// RegenAmmo advances the regen counter and grants a round at threshold,
// never exceeding maxBullets (§4.C phase 6).
func (tu *Turret) RegenAmmo(thresholdTicks, maxBullets int) {
	if tu.BulletCount >= maxBullets {
		tu.BulletRegenProgress = 0
		return
	}
	tu.BulletRegenProgress++
	if tu.BulletRegenProgress >= thresholdTicks {
		tu.BulletCount++
		tu.BulletRegenProgress = 0
	}
}

// Bullet is a projectile in flight.
type Bullet struct {
	ID        int
	X, Y      float64
	Speed     float64
	Direction Direction
	Damage    int
	ShooterID PlayerID
	Double    bool
}

// Laser is a straight line of tiles that damages any tank standing on them
// for as long as it exists.
type Laser struct {
	ID                int
	Tiles             []Tile
	RemainingTicks    int
	ShooterID         PlayerID
	Damage            int
	damagedThisTick   map[PlayerID]bool
}

// Mine is a hazard dropped by a tank; armed (ExplodeRemainingTicks == -1)
// until a non-owner tank steps on it, then fading for a fixed duration.
type Mine struct {
	ID                    int
	X, Y                  int
	Damage                int
	BlastRadius           int
	OwnerID               PlayerID
	ExplodeRemainingTicks int // -1 while armed
}

// Armed reports whether the mine has not yet detonated.
func (m *Mine) Armed() bool {
	return m.ExplodeRemainingTicks < 0
}

// Item is a pickup on the map awaiting a tank with no held secondary item.
type Item struct {
	X, Y int
	Type SecondaryItemType
}

// Player is match-scoped identity and score bookkeeping independent of the
// tank it currently controls (§9 breaks the Player/Tank cycle by id lookup).
type Player struct {
	ID                          PlayerID
	Nickname                    string
	Color                       uint32
	IsBot                       bool
	Score                       int
	Kills                       int
	RemainingTicksToRegenBullet int
	UsingRadarThisTick          bool
	Disconnected                bool
	DisconnectedInGame          bool
	Tank                        *Tank
	Visibility                  [][]bool
}

// HasTank reports whether the player currently controls a living tank.
func (p *Player) HasTank() bool {
	return p.Tank != nil && !p.Tank.IsDead()
}
