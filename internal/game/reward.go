package game

import (
	"math"
	"math/rand"

	"go.uber.org/zap"

	"github.com/l2kgo/server/internal/proto"
	"github.com/l2kgo/server/internal/world"
)

const (
	// levelGapGrace is the level advantage tolerated before the exp
	// share starts shrinking.
	levelGapGrace = 9
	// levelGapFactor shrinks the share per level past the grace band.
	levelGapFactor = 5.0 / 6.0
	// overhitExpCap bounds the overhit bonus at a quarter of the base
	// share.
	overhitExpCap = 0.25
	// dropScatterRadius spreads corpse drops around the kill.
	dropScatterRadius = 70
)

// killNpc runs the NPC death path once: rewards, drops, corpse, respawn.
func (s *Service) killNpc(killer *world.Actor, npc *world.Npc) {
	s.tasks.CancelAction(npc.ID)
	s.tracker.drop(npc.ID)
	s.world.ClearTarget(&npc.Actor)
	s.broadcastNear(npc.Pos(), proto.Die{ID: npc.ID})

	s.shareRewards(killer, npc)
	s.rollDrops(npc)
	s.scheduleRespawn(npc)
}

// shareRewards splits the NPC's exp and sp among everyone in the kill
// ledger by damage dealt, with the overhit bonus going to the killer.
func (s *Service) shareRewards(killer *world.Actor, npc *world.Npc) {
	shares, overhit := npc.DamageShares()
	var total int64
	for _, dmg := range shares {
		total += dmg
	}
	if total <= 0 {
		return
	}
	_, maxHP := npc.HP()

	for attackerID, dmg := range shares {
		c := s.world.FindCharacter(attackerID)
		if c == nil || c.IsDead() {
			continue
		}
		fraction := float64(dmg) / float64(total)
		exp := float64(npc.ExpReward) * fraction * s.cfg.Rates.ExpRate
		sp := float64(npc.SPReward) * fraction * s.cfg.Rates.SPRate

		if gap := int(c.Level() - npc.Level()); gap > levelGapGrace {
			penalty := math.Pow(levelGapFactor, float64(gap-levelGapGrace))
			exp *= penalty
			sp *= penalty
		}

		if attackerID == killer.ID && overhit > 0 && maxHP > 0 {
			bonus := float64(overhit) / float64(maxHP)
			if bonus > overhitExpCap {
				bonus = overhitExpCap
			}
			exp += exp * bonus
			s.systemMessage(c.ID, proto.MsgOverhit)
		}

		s.grantExpSP(c, int64(exp), int64(sp))
	}
}

// grantExpSP credits exp and sp and levels the character up while the
// threshold is crossed. Level up fully heals.
func (s *Service) grantExpSP(c *world.Character, exp, sp int64) {
	if exp <= 0 && sp <= 0 {
		return
	}
	newExp, _ := c.AddExpSP(exp, sp)
	s.hub.SendTo(c.ID, proto.ExpSpGained{Exp: exp, SP: sp})
	s.systemMessage(c.ID, proto.MsgEarnedExp)

	leveled := false
	for newExp >= expForLevel(c.Level()+1) {
		c.SetLevel(c.Level() + 1)
		leveled = true
	}
	if leveled {
		c.FullHeal()
		s.sendStatus(&c.Actor)
		s.broadcastNear(c.Pos(), proto.LevelUp{ID: c.ID, Level: c.Level()})
		s.log.Info("level up", zap.Int32("char_id", c.ID), zap.Int16("level", c.Level()))
	}
}

// expForLevel is the cumulative experience required to reach a level.
func expForLevel(level int16) int64 {
	l := int64(level)
	return l * l * l * 100
}

// grantPlayerKill settles karma and PK count after a player kill. Killing
// a clean, unflagged player is murder; killing a flagged or karma-bearing
// one is not.
func (s *Service) grantPlayerKill(killer, victim *world.Character) {
	if victim.Karma() > 0 {
		victim.AddKarma(-s.cfg.Pvp.KarmaDropPerDeath)
		return
	}
	if victim.InPvp() {
		return
	}
	killer.AddKarma(s.cfg.Pvp.KarmaPerKill)
	pk := killer.IncPKCount()
	s.broadcastNear(killer.Pos(), proto.PvpStatus{
		ID: killer.ID, Pvp: killer.InPvp(), Karma: killer.Karma(), PKCount: pk,
	})
}

// rollDrops rolls the NPC's drop table and scatters the results on the
// ground around the corpse.
func (s *Service) rollDrops(npc *world.Npc) {
	if s.drops == nil {
		return
	}
	pos := npc.Pos()
	for _, entry := range s.drops.Get(npc.TemplateID) {
		if rand.Float64() >= entry.Chance*s.cfg.Rates.DropRate {
			continue
		}
		count := entry.Min
		if entry.Max > entry.Min {
			count += rand.Int63n(entry.Max - entry.Min + 1)
		}
		tmpl := s.items.Get(entry.ItemID)
		if tmpl == nil {
			continue
		}
		at := world.Position{
			X: pos.X + rand.Int31n(dropScatterRadius*2+1) - dropScatterRadius,
			Y: pos.Y + rand.Int31n(dropScatterRadius*2+1) - dropScatterRadius,
		}
		at.Z = s.geo.NearestZ(at.X, at.Y, pos.Z)
		g := &world.GroundItem{
			Object:     world.Object{ID: world.NextObjectID(), Name: tmpl.Name},
			TemplateID: tmpl.ItemID,
			Count:      count,
			Stackable:  tmpl.Stackable,
			Weight:     tmpl.Weight,
			Pos:        at,
		}
		s.world.Add(g)
		s.broadcastNear(at, proto.DropItem{DropperID: npc.ID, ItemID: g.ID, Pos: at})
	}
}
