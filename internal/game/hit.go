package game

import (
	"math/rand"

	"github.com/l2kgo/server/internal/world"
)

// Hand-tuned combat constants, kept verbatim from the reference ruleset.
const (
	hitChanceBase     = 88
	hitChancePerPoint = 2
	hitChanceMin      = 28
	hitChanceMax      = 98

	accuracySideBonus = 1.1
	accuracyBackBonus = 1.3

	critSideBonus = 1.1
	critBackBonus = 1.2

	damageSideBonus = 1.1
	damageBackBonus = 1.2

	physicalAttackBase = 70

	shieldBonusVsBow    = 30
	shieldBonusVsDagger = 12
)

// Hit is one resolved swing before it is applied.
type Hit struct {
	TargetID int32
	Damage   int32
	Soulshot bool
	Critical bool
	Blocked  bool
	Avoided  bool
}

// rollHit resolves accuracy, shield, critical and damage for one swing
// from attacker against target. powerDivider splits the damage across
// the sub-hits of a multi-hit swing: a dual swing rolls twice with
// divider 2 so both halves together carry one swing's power.
func (s *Service) rollHit(attacker, target *world.Actor, soulshot bool, powerDivider int32) Hit {
	h := Hit{TargetID: target.ID, Soulshot: soulshot}
	as := attacker.Stats()
	ts := target.Stats()

	side := attacker.IsOnSideOf(target)
	back := attacker.IsBehind(target)

	accuracy := float64(as.Accuracy)
	if back {
		accuracy *= accuracyBackBonus
	} else if side {
		accuracy *= accuracySideBonus
	}
	chance := hitChanceBase + hitChancePerPoint*(accuracy-float64(ts.Evasion))
	if chance < hitChanceMin {
		chance = hitChanceMin
	} else if chance > hitChanceMax {
		chance = hitChanceMax
	}
	if float64(rand.Intn(100)) >= chance {
		h.Avoided = true
		return h
	}

	if ts.ShieldRate > 0 && !back {
		blockChance := ts.ShieldRate
		switch as.Weapon {
		case world.WeaponBow:
			blockChance += shieldBonusVsBow
		case world.WeaponDagger, world.WeaponDual:
			blockChance += shieldBonusVsDagger
		}
		if int32(rand.Intn(100)) < blockChance {
			h.Blocked = true
		}
	}

	critRate := float64(as.CritRate)
	if back {
		critRate *= critBackBonus
	} else if side {
		critRate *= critSideBonus
	}
	h.Critical = float64(rand.Intn(1000)) < critRate

	h.Damage = s.rollDamage(as, ts, h, side, back)
	if powerDivider > 1 {
		h.Damage /= powerDivider
	}
	return h
}

// rollDamage computes the damage of a landed swing.
func (s *Service) rollDamage(as, ts world.CombatStats, h Hit, side, back bool) int32 {
	pAtk := float64(as.PAtk)
	if h.Soulshot {
		pAtk *= 2
	}
	pDef := float64(ts.PDef)
	if h.Blocked {
		pDef += float64(ts.ShieldDef)
	}
	if pDef < 1 {
		pDef = 1
	}

	dmg := physicalAttackBase * pAtk / pDef
	if back {
		dmg *= damageBackBonus
	} else if side {
		dmg *= damageSideBonus
	}

	// Weapon variance band: +-RandomCoeff percent around the mean.
	if as.RandomCoeff > 0 {
		band := float64(as.RandomCoeff) / 100
		dmg *= 1 - band + rand.Float64()*2*band
	}

	if h.Critical {
		dmg = dmg*2 + float64(as.CritDamage)
	}
	if dmg < 0 {
		dmg = 0
	}
	return int32(dmg)
}
