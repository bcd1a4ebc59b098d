package world

import "testing"

func TestTankTakeDamageSaturatesAndKills(t *testing.T) {
	attacker := NewTank("p1", 0, 0, Up, 3)
	victim := NewTank("p2", 5, 5, Down, 3)
	victim.Health = 20

	res := victim.TakeDamage(30, attacker)

	if !res.Killed {
		t.Fatalf("expected kill, got %+v", res)
	}
	if res.DamageTaken != 20 {
		t.Fatalf("expected damage taken to saturate at 20, got %d", res.DamageTaken)
	}
	if victim.Health != 0 {
		t.Fatalf("expected health 0, got %d", victim.Health)
	}
	if victim.X != -1 || victim.Y != -1 {
		t.Fatalf("expected dead tank at (-1,-1), got (%d,%d)", victim.X, victim.Y)
	}
	if attacker.Health != maxTankHealth {
		t.Fatalf("expected attacker healed to cap %d, got %d", maxTankHealth, attacker.Health)
	}
}

func TestTankHealRejectedWhenDead(t *testing.T) {
	tank := NewTank("p1", 0, 0, Up, 3)
	tank.TakeDamage(200, nil)
	tank.Heal(50)
	if tank.Health != 0 {
		t.Fatalf("expected dead tank to reject heal, got health=%d", tank.Health)
	}
}

func TestTankRotateBlockedByStun(t *testing.T) {
	tank := NewTank("p1", 0, 0, Up, 3)
	tank.Stun("mine-1", StunRotation, 3)
	tank.Rotate(RotateRight)
	if tank.Direction != Up {
		t.Fatalf("expected rotation blocked by stun, direction=%v", tank.Direction)
	}
}

func TestTurretTryShootConsumesAmmo(t *testing.T) {
	tank := NewTank("p1", 0, 0, Up, 1)
	if !tank.Turret.TryShoot(tank) {
		t.Fatalf("expected first shot to succeed")
	}
	if tank.Turret.TryShoot(tank) {
		t.Fatalf("expected second shot to fail with no ammo left")
	}
}

func TestTurretRegenAmmoGrantsRoundAtThreshold(t *testing.T) {
	turret := &Turret{BulletCount: 0}
	for i := 0; i < 5; i++ {
		turret.RegenAmmo(5, 3)
	}
	if turret.BulletCount != 1 {
		t.Fatalf("expected 1 round after threshold, got %d", turret.BulletCount)
	}
	if turret.BulletRegenProgress != 0 {
		t.Fatalf("expected progress reset after grant, got %d", turret.BulletRegenProgress)
	}
}

func TestTankStunExpires(t *testing.T) {
	tank := NewTank("p1", 0, 0, Up, 3)
	tank.Stun("mine-1", StunMovement, 1)
	tank.TickStuns()
	if len(tank.Stuns) != 0 {
		t.Fatalf("expected stun to expire after one tick, got %+v", tank.Stuns)
	}
}

func TestTryUseRadarRequiresItem(t *testing.T) {
	tank := NewTank("p1", 0, 0, Up, 3)
	if tank.TryUseRadar() {
		t.Fatalf("expected radar use to fail without the item")
	}
	tank.SecondaryItem = ItemRadar
	if !tank.TryUseRadar() {
		t.Fatalf("expected radar use to succeed with the item held")
	}
	if tank.SecondaryItem != ItemNone {
		t.Fatalf("expected item consumed after use")
	}
}
