package game

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/l2kgo/server/internal/data"
	"github.com/l2kgo/server/internal/proto"
	"github.com/l2kgo/server/internal/world"
)

// castTimeCoefficient is the baseline speed: a skill's cast and reuse
// times are in milliseconds at speed 333.
const castTimeCoefficient = 333

// UseSkill validates and launches a skill cast as the caster's action.
func (s *Service) UseSkill(caster *world.Character, skillID, targetID int32) {
	skill := s.skills.Get(skillID)
	if skill == nil {
		s.hub.SendTo(caster.ID, proto.ActionFailed{})
		return
	}
	if skill.Kind == data.SkillKindToggle {
		// Toggle skills are not implemented yet.
		s.log.Debug("toggle skill refused", zap.Int32("skill_id", skillID))
		s.hub.SendTo(caster.ID, proto.ActionFailed{})
		return
	}
	s.tasks.LaunchAction(caster.ID, "skill", func(ctx context.Context) {
		s.runCast(ctx, caster, skill, targetID)
	})
}

func (s *Service) runCast(ctx context.Context, caster *world.Character, skill *data.SkillTemplate, targetID int32) {
	target, ok := s.validateCast(caster, skill, targetID)
	if !ok {
		return
	}

	// Close the distance first, then check everything again: the target
	// may have died or the cooldown may have been spent on the way.
	if skill.CastRange > 0 && !caster.Pos().Within2D(target.Pos(), skill.CastRange) {
		if s.moveToward(ctx, &caster.Actor, target, skill.CastRange) != moveArrived {
			return
		}
		if target, ok = s.validateCast(caster, skill, targetID); !ok {
			return
		}
	}

	if !s.spendCastResources(caster, skill) {
		return
	}

	cast, reuse := castTiming(skill, caster.Stats())

	// The cooldown starts when the cast starts. A cancelled cast does
	// not refund it, so spamming the action cannot squeeze extra casts
	// into one reuse window.
	s.setCooldown(caster.ID, skill.SkillID, reuse)

	// Resources are paid and the gesture has begun: the cast is
	// committed. The delay and the effect run to completion even if the
	// action is being replaced.
	ctx = context.WithoutCancel(ctx)

	caster.SetHeading(caster.Pos().HeadingTo(target.Pos()))
	s.broadcastNear(caster.Pos(), proto.CastStarted{
		CasterID: caster.ID, TargetID: target.ID, SkillID: skill.SkillID,
		CastMs: int32(cast / time.Millisecond),
	})

	sleep(ctx, cast)
	s.finishCast(ctx, caster, skill, target)
}

// castTiming derives the cast gesture length and the reuse delay from
// the caster's speed stats. Magic skills scale with casting speed,
// physical ones with attack speed.
func castTiming(skill *data.SkillTemplate, st world.CombatStats) (cast, reuse time.Duration) {
	spd := st.AtkSpd
	if skill.Magic {
		spd = st.CastSpd
	}
	if spd < 1 {
		spd = castTimeCoefficient
	}
	cast = time.Duration(int64(skill.CastTime)*castTimeCoefficient/int64(spd)) * time.Millisecond
	reuse = time.Duration(int64(skill.ReuseMs)*castTimeCoefficient/int64(spd)) * time.Millisecond
	return cast, reuse
}

// validateCast is the predicate chain gating a cast attempt. Each
// refusal carries its specific system message plus an action-failed
// notice.
func (s *Service) validateCast(caster *world.Character, skill *data.SkillTemplate, targetID int32) (*world.Actor, bool) {
	if caster.IsDead() {
		return nil, false
	}
	refuse := func(msgID int32) (*world.Actor, bool) {
		if msgID != 0 {
			s.systemMessage(caster.ID, msgID)
		}
		s.hub.SendTo(caster.ID, proto.ActionFailed{})
		return nil, false
	}
	if len(skill.WeaponKinds) > 0 && !weaponAllowed(skill, caster.Stats().Weapon) {
		return refuse(0)
	}
	if until, on := s.cooldownUntil(caster.ID, skill.SkillID); on && time.Now().Before(until) {
		return refuse(proto.MsgSkillNotReady)
	}
	if hp, _ := caster.HP(); skill.HPCost > 0 && hp <= skill.HPCost {
		return refuse(proto.MsgNotEnoughHP)
	}
	if mp, _ := caster.MP(); mp < skill.MPCost {
		return refuse(proto.MsgNotEnoughMP)
	}
	if skill.ConsumeItemID != 0 && caster.Inv.CountOf(skill.ConsumeItemID) < skill.ConsumeCount {
		return refuse(proto.MsgNotEnoughItems)
	}

	var target *world.Actor
	switch skill.TargetKind {
	case data.SkillTargetSelf:
		target = &caster.Actor
	default:
		if targetID == caster.ID {
			if skill.TargetKind != data.SkillTargetFriend {
				return refuse(proto.MsgCannotUseOnSelf)
			}
			target = &caster.Actor
		} else {
			target = s.world.FindActor(targetID)
		}
		if target == nil {
			return refuse(0)
		}
		if target.IsDead() {
			return refuse(proto.MsgIncorrectTarget)
		}
	}
	return target, true
}

var weaponKindNames = map[world.WeaponKind]string{
	world.WeaponFist:   data.WeaponKindFist,
	world.WeaponSword:  data.WeaponKindSword,
	world.WeaponDagger: data.WeaponKindDagger,
	world.WeaponBlunt:  data.WeaponKindBlunt,
	world.WeaponBow:    data.WeaponKindBow,
	world.WeaponPole:   data.WeaponKindPole,
	world.WeaponDual:   data.WeaponKindDual,
}

func weaponAllowed(skill *data.SkillTemplate, w world.WeaponKind) bool {
	for _, k := range skill.WeaponKinds {
		if k == weaponKindNames[w] {
			return true
		}
	}
	return false
}

func (s *Service) spendCastResources(caster *world.Character, skill *data.SkillTemplate) bool {
	if !caster.SpendMP(skill.MPCost) {
		s.systemMessage(caster.ID, proto.MsgNotEnoughMP)
		return false
	}
	if skill.HPCost > 0 {
		// Validation keeps the cost below current HP; dying here means a
		// concurrent hit landed in between, and death handling must run.
		if _, died := caster.ReduceHP(skill.HPCost); died {
			s.killCharacter(&caster.Actor, caster)
			return false
		}
	}
	if skill.ConsumeItemID != 0 && skill.ConsumeCount > 0 {
		it := caster.Inv.FindByTemplate(skill.ConsumeItemID)
		if it == nil {
			s.systemMessage(caster.ID, proto.MsgNotEnoughItems)
			return false
		}
		remaining, err := caster.Inv.Remove(it.ID, skill.ConsumeCount)
		if err != nil {
			s.systemMessage(caster.ID, proto.MsgNotEnoughItems)
			return false
		}
		op := proto.ItemOp{Op: proto.ItemOpModify, ItemID: it.ID, TemplateID: it.TemplateID, Count: remaining}
		if remaining == 0 {
			op = proto.ItemOp{Op: proto.ItemOpRemove, ItemID: it.ID}
		}
		s.hub.SendTo(caster.ID, proto.ItemUpdate{Ops: []proto.ItemOp{op}})
	}
	s.sendStatus(&caster.Actor)
	return true
}

// finishCast applies the skill effect.
func (s *Service) finishCast(_ context.Context, caster *world.Character, skill *data.SkillTemplate, target *world.Actor) {
	if target.IsDead() && skill.Kind == data.SkillKindDamage {
		return
	}
	s.broadcastNear(caster.Pos(), proto.CastLaunched{
		CasterID: caster.ID, TargetID: target.ID, SkillID: skill.SkillID,
	})

	switch skill.Kind {
	case data.SkillKindDamage:
		dmg := s.rollSkillDamage(caster, target, skill)
		s.ApplyDamage(&caster.Actor, target, dmg)
	case data.SkillKindHeal:
		target.RestoreHP(skill.Power)
		s.sendStatus(target)
	case data.SkillKindBuff:
		// Stat modifiers land here once the buff book exists; for now
		// the cast resolves visually only.
	}
}

// rollSkillDamage derives magic damage from skill power against the
// target's defence.
func (s *Service) rollSkillDamage(caster *world.Character, target *world.Actor, skill *data.SkillTemplate) int32 {
	pDef := target.Stats().PDef
	if pDef < 1 {
		pDef = 1
	}
	dmg := physicalAttackBase * (caster.Stats().PAtk + skill.Power) / pDef
	if dmg < 1 {
		dmg = 1
	}
	return dmg
}

func (s *Service) setCooldown(actorID, skillID int32, reuse time.Duration) {
	if reuse <= 0 {
		return
	}
	s.cdMu.Lock()
	s.cooldowns[cooldownKey{actorID, skillID}] = time.Now().Add(reuse)
	s.cdMu.Unlock()
}

func (s *Service) cooldownUntil(actorID, skillID int32) (time.Time, bool) {
	s.cdMu.Lock()
	defer s.cdMu.Unlock()
	until, ok := s.cooldowns[cooldownKey{actorID, skillID}]
	return until, ok
}
