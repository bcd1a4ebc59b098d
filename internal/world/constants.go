package world

const (
	defaultDim              = 24
	defaultMaxBullets       = 3
	defaultBulletSpeed      = 1.0
	defaultBulletDamage     = 20
	doubleBulletDamage      = 40
	defaultLaserDamage      = 80
	defaultMineDamage       = 60
	defaultMineBlastRadius  = 1
	defaultCaptureTicks     = 30
	defaultBulletRegenTicks = 20
	defaultRespawnTicks     = 20
	defaultVisibilityRange  = 7
	killHealAmount          = 40
	maxTankHealth           = 100
)
