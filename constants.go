package server

import "time"

// Tunables that mirror the defaults a HackArena MonoTanks match ships with.
// Per-match values live in WorldConfig, filled by world.DefaultConfig from
// internal/world's own copies of these values and by config.Defaults; no
// code in this package reads the constants below.
const (
	ProtocolVersion = 1

	writeWait         = 10 * time.Second
	heartbeatInterval = 2 * time.Second
	disconnectAfter   = 3 * heartbeatInterval

	defaultTickRate          = 15
	defaultBroadcastInterval = time.Second / defaultTickRate
	defaultDim               = 24
	defaultMaxTicks          = 3000
	defaultMaxBullets        = 3
	defaultBulletSpeed       = 1.0
	defaultBulletDamage      = 20
	doubleBulletDamage       = 40
	defaultLaserDamage       = 80
	defaultMineDamage        = 60
	defaultMineBlastRadius   = 1
	defaultCaptureTicks      = 30
	defaultBulletRegenTicks  = 20
	defaultRespawnTicks      = 20
	defaultVisibilityRange   = 7
	killHealAmount           = 40
	maxTankHealth            = 100
)
