package game

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/l2kgo/server/internal/proto"
	"github.com/l2kgo/server/internal/world"
)

// Attack timing constants, kept verbatim from the reference ruleset. The
// numerators are in microseconds; dividing by attack speed yields the
// delay in milliseconds.
const (
	attackDelayBase  = 470_000
	bowReuseBase     = 499_500
	arrowSpeedPerMs  = 0.9 // projectile flight, units per millisecond
	attackPollPeriod = 50 * time.Millisecond
)

// LaunchAttack starts the attack loop against target as the attacker's
// action.
func (s *Service) LaunchAttack(attacker, target *world.Actor) {
	s.tasks.LaunchAction(attacker.ID, "attack", func(ctx context.Context) {
		s.runAttack(ctx, attacker, target)
	})
}

// runAttack is the melee/ranged auto-attack loop: close in, wait for the
// swing cooldown, run one attack cycle, repeat until someone dies or the
// action is replaced.
func (s *Service) runAttack(ctx context.Context, attacker, target *world.Actor) {
	attacker.SetAttacking(true)
	defer attacker.SetAttacking(false)

	for {
		if ctx.Err() != nil || attacker.IsDead() {
			return
		}
		if target.IsDead() || !s.world.Exists(target.ID) {
			return
		}

		reach := attacker.Stats().AttackRange
		if !attacker.Pos().Within2D(target.Pos(), reach) {
			switch s.moveToward(ctx, attacker, target, reach) {
			case moveArrived:
				continue
			case moveBlocked:
				s.systemMessage(attacker.ID, proto.MsgTargetOutOfRange)
				s.hub.SendTo(attacker.ID, proto.ActionFailed{})
				return
			default:
				return
			}
		}

		if !s.waitForSwing(ctx, attacker) {
			return
		}

		// The swing itself is not abandoned mid-cycle: once started, the
		// hit lands and the cooldown stands even if the action is being
		// replaced.
		if !s.attackCycle(context.WithoutCancel(ctx), attacker, target) {
			return
		}
	}
}

// waitForSwing polls until the attacker's swing cooldown has elapsed.
func (s *Service) waitForSwing(ctx context.Context, attacker *world.Actor) bool {
	for {
		wait := time.Until(attacker.NextAttackAt())
		if wait <= 0 {
			return true
		}
		if wait > attackPollPeriod {
			wait = attackPollPeriod
		}
		if !sleep(ctx, wait) {
			return false
		}
	}
}

// attackCycle performs one full swing by weapon kind. Returns false when
// the loop must stop (out of ammo, target vanished).
func (s *Service) attackCycle(ctx context.Context, attacker, target *world.Actor) bool {
	attacker.SetHeading(attacker.Pos().HeadingTo(target.Pos()))

	st := attacker.Stats()
	atkSpd := st.AtkSpd
	if atkSpd < 1 {
		atkSpd = 1
	}
	cycle := time.Duration(attackDelayBase/atkSpd) * time.Millisecond
	attacker.SetNextAttackAt(time.Now().Add(cycle))

	switch st.Weapon {
	case world.WeaponBow:
		return s.bowCycle(ctx, attacker, target, atkSpd)
	case world.WeaponDual, world.WeaponFist:
		// One swing, two sub-hits splitting its power. Both are rolled
		// up front and announced in a single packet, then land spaced a
		// third of the cycle apart.
		hits := []Hit{
			s.rollHit(attacker, target, false, 2),
			s.rollHit(attacker, target, false, 2),
		}
		s.broadcastNear(attacker.Pos(), attackPacket(attacker.ID, hits...))
		if !sleep(ctx, cycle/3) {
			return false
		}
		for _, hit := range hits {
			s.applyHit(attacker, target, hit)
			if !sleep(ctx, cycle/3) {
				return false
			}
		}
		return true
	case world.WeaponPole:
		// Sweep over the front arc is not implemented yet. The cycle is
		// consumed but no hit lands.
		s.systemText(attacker.ID, "Pole attack is not implemented yet")
		s.hub.SendTo(attacker.ID, proto.ActionFailed{})
		return false
	default:
		s.performHit(attacker, target)
		return sleep(ctx, cycle)
	}
}

// bowCycle consumes an arrow, flies the projectile and applies the hit on
// arrival. Bow reuse replaces the melee cooldown.
func (s *Service) bowCycle(ctx context.Context, attacker, target *world.Actor, atkSpd int32) bool {
	reuse := time.Duration(bowReuseBase/atkSpd) * time.Millisecond
	attacker.SetNextAttackAt(time.Now().Add(reuse))

	c := s.world.FindCharacter(attacker.ID)
	if c != nil {
		if mpCost := attacker.Stats().WeaponMPCost; mpCost > 0 {
			if !c.SpendMP(mpCost) {
				s.systemMessage(c.ID, proto.MsgNotEnoughMP)
				s.hub.SendTo(c.ID, proto.ActionFailed{})
				return false
			}
			s.sendStatus(attacker)
		}
		arrowID := s.items.ArrowID()
		arrow := c.Inv.FindByTemplate(arrowID)
		if arrow == nil {
			s.systemMessage(c.ID, proto.MsgNotEnoughArrows)
			s.hub.SendTo(c.ID, proto.ActionFailed{})
			return false
		}
		if _, err := c.Inv.Remove(arrow.ID, 1); err != nil {
			s.systemMessage(c.ID, proto.MsgNotEnoughArrows)
			return false
		}
	}

	hit := s.rollHit(attacker, target, false, 1)
	s.broadcastNear(attacker.Pos(), attackPacket(attacker.ID, hit))

	flight := time.Duration(attacker.Pos().Distance2D(target.Pos())/arrowSpeedPerMs) * time.Millisecond
	if !sleep(ctx, flight) {
		return false
	}
	s.applyHit(attacker, target, hit)
	return sleep(ctx, reuse-flight)
}

// performHit rolls, broadcasts and applies one swing immediately.
func (s *Service) performHit(attacker, target *world.Actor) {
	hit := s.rollHit(attacker, target, false, 1)
	s.broadcastNear(attacker.Pos(), attackPacket(attacker.ID, hit))
	s.applyHit(attacker, target, hit)
}

// attackPacket folds the rolled hits of one swing into its broadcast.
func attackPacket(attackerID int32, hits ...Hit) proto.Attack {
	pkt := proto.Attack{AttackerID: attackerID}
	for _, h := range hits {
		pkt.Hits = append(pkt.Hits, proto.AttackHit{
			TargetID: h.TargetID,
			Damage:   h.Damage,
			Soulshot: h.Soulshot,
			Critical: h.Critical,
			Blocked:  h.Blocked,
			Missed:   h.Avoided,
		})
	}
	return pkt
}

// applyHit turns a resolved swing into damage and side messages. A
// sub-hit after a lethal one finds the target already dead and does
// nothing.
func (s *Service) applyHit(attacker, target *world.Actor, hit Hit) {
	if target.IsDead() {
		return
	}
	if hit.Avoided {
		s.systemMessage(target.ID, proto.MsgAvoidedAttack)
		s.markFighting(attacker, target)
		return
	}
	if hit.Blocked {
		s.systemMessage(target.ID, proto.MsgShieldDefended)
	}
	if hit.Critical {
		s.systemMessage(attacker.ID, proto.MsgCriticalHit)
	}
	s.ApplyDamage(attacker, target, hit.Damage)
}

// ApplyDamage routes dmg into the target: players burn CP before HP, NPCs
// record the attacker's share in the kill ledger. Exactly one caller
// observes the death and runs the kill path.
func (s *Service) ApplyDamage(attacker, target *world.Actor, dmg int32) {
	if dmg < 0 {
		dmg = 0
	}
	s.markFighting(attacker, target)

	if npc := s.world.FindNpc(target.ID); npc != nil {
		hp, _ := npc.HP()
		if dmg > hp {
			npc.RecordOverhit(dmg - hp)
			npc.RecordDamage(attacker.ID, hp)
		} else {
			npc.RecordDamage(attacker.ID, dmg)
		}
		_, died := npc.ReduceHP(dmg)
		s.sendStatus(target)
		if died {
			s.killNpc(attacker, npc)
		}
		return
	}

	c := s.world.FindCharacter(target.ID)
	hpDmg := dmg
	if c != nil {
		hpDmg = c.ReduceCP(dmg)
		if ac := s.world.FindCharacter(attacker.ID); ac != nil {
			s.markPvp(ac, c)
		}
	}
	_, died := target.ReduceHP(hpDmg)
	s.sendStatus(target)
	if died && c != nil {
		s.killCharacter(attacker, c)
	}
}

// markFighting puts both sides into combat state.
func (s *Service) markFighting(attacker, target *world.Actor) {
	s.tracker.markFighting(attacker.ID)
	s.tracker.markFighting(target.ID)
}

// killCharacter runs the player death path once.
func (s *Service) killCharacter(killer *world.Actor, victim *world.Character) {
	s.log.Info("character died",
		zap.Int32("killer_id", killer.ID),
		zap.Int32("victim_id", victim.ID))

	s.tasks.CancelAction(victim.ID)
	s.tracker.drop(victim.ID)
	s.world.ClearTarget(&victim.Actor)
	s.broadcastNear(victim.Pos(), proto.Die{ID: victim.ID})
	s.systemMessage(victim.ID, proto.MsgYouDied)

	if kc := s.world.FindCharacter(killer.ID); kc != nil && kc.ID != victim.ID {
		s.grantPlayerKill(kc, victim)
	}
}
