package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l2kgo/server/internal/proto"
	"github.com/l2kgo/server/internal/world"
)

func TestAttackRequestSelectsThenAttacks(t *testing.T) {
	s := newTestService(t)
	c := addChar(s, 1, 0, 0, fastStats())
	npc := addNpc(s, 2, 30, 0, 100_000)
	ch := s.hub.Register(c.ID)

	// First click only selects.
	s.AttackRequest(c, npc.ID)
	assert.Equal(t, npc.ID, c.TargetID())
	assert.False(t, s.tasks.HasAction(c.ID))

	pkts := drain(ch)
	var selected bool
	for _, pkt := range pkts {
		if ts, ok := pkt.(proto.TargetSelected); ok && ts.TargetID == npc.ID {
			selected = true
		}
	}
	require.True(t, selected)

	// Second click on the same target opens fire.
	s.AttackRequest(c, npc.ID)
	require.Eventually(t, func() bool {
		hp, max := npc.HP()
		return hp < max
	}, 3*time.Second, 20*time.Millisecond)
}

func TestMeleeKillGrantsRewards(t *testing.T) {
	s := newTestService(t)
	c := addChar(s, 1, 0, 0, fastStats())
	npc := addNpc(s, 2, 30, 0, 900)

	s.world.SetTarget(&c.Actor, &npc.Actor)
	s.LaunchAttack(&c.Actor, &npc.Actor)

	require.Eventually(t, npc.IsDead, 3*time.Second, 20*time.Millisecond)
	require.Eventually(t, func() bool {
		return c.Exp() > 0
	}, time.Second, 10*time.Millisecond)
	assert.Positive(t, c.SP())

	// The corpse stays targetable until the body is removed.
	assert.Equal(t, npc.ID, c.TargetID())
	assert.Zero(t, npc.TargetID())
}

func TestBowWithoutArrowsStopsAttacking(t *testing.T) {
	s := newTestService(t)
	st := fastStats()
	st.Weapon = world.WeaponBow
	st.AttackRange = 500
	c := addChar(s, 1, 0, 0, st)
	npc := addNpc(s, 2, 100, 0, 100_000)
	ch := s.hub.Register(c.ID)

	s.LaunchAttack(&c.Actor, &npc.Actor)

	require.Eventually(t, func() bool {
		return !s.tasks.HasAction(c.ID)
	}, 3*time.Second, 20*time.Millisecond)

	pkts := drain(ch)
	assert.True(t, hasSystemMessage(pkts, proto.MsgNotEnoughArrows))

	hp, max := npc.HP()
	assert.Equal(t, max, hp)
}

func TestBowConsumesArrowsPerShot(t *testing.T) {
	s := newTestService(t)
	st := fastStats()
	st.Weapon = world.WeaponBow
	st.AttackRange = 500
	c := addChar(s, 1, 0, 0, st)
	c.Inv.Add(arrowTemplateID, 3, true, 1)
	npc := addNpc(s, 2, 100, 0, 100_000)

	s.LaunchAttack(&c.Actor, &npc.Actor)

	// Three arrows, then the loop stops by itself.
	require.Eventually(t, func() bool {
		return !s.tasks.HasAction(c.ID)
	}, 5*time.Second, 20*time.Millisecond)
	assert.Zero(t, c.Inv.CountOf(arrowTemplateID))
}

func TestDualSwingSplitsDamageAcrossSubHits(t *testing.T) {
	s := newTestService(t)
	st := fastStats()
	st.Weapon = world.WeaponDual
	c := addChar(s, 1, 0, 0, st)
	npc := addNpc(s, 2, 30, 0, 100_000)
	ch := s.hub.Register(c.ID)

	s.attackCycle(context.Background(), &c.Actor, &npc.Actor)

	// One attack packet per swing, carrying both sub-hits at half the
	// single-weapon damage each.
	var attacks []proto.Attack
	for _, pkt := range drain(ch) {
		if atk, ok := pkt.(proto.Attack); ok {
			attacks = append(attacks, atk)
		}
	}
	require.Len(t, attacks, 1)
	require.Len(t, attacks[0].Hits, 2)
	for _, hit := range attacks[0].Hits {
		assert.True(t, hit.Missed || hit.Damage == 350)
	}

	hp, max := npc.HP()
	lost := max - hp
	assert.LessOrEqual(t, lost, int32(700))
	assert.Zero(t, lost%350)
}

func TestBowConsumesManaPerShot(t *testing.T) {
	s := newTestService(t)
	st := fastStats()
	st.Weapon = world.WeaponBow
	st.AttackRange = 500
	st.WeaponMPCost = 60
	c := addChar(s, 1, 0, 0, st)
	c.Inv.Add(arrowTemplateID, 10, true, 1)
	npc := addNpc(s, 2, 100, 0, 100_000)
	ch := s.hub.Register(c.ID)

	s.LaunchAttack(&c.Actor, &npc.Actor)

	// 100 MP funds one shot at 60 MP each; the second is refused and
	// the loop stops without touching another arrow.
	require.Eventually(t, func() bool {
		return !s.tasks.HasAction(c.ID)
	}, 5*time.Second, 20*time.Millisecond)

	mp, _ := c.MP()
	assert.Equal(t, int32(40), mp)
	assert.Equal(t, int64(9), c.Inv.CountOf(arrowTemplateID))
	assert.True(t, hasSystemMessage(drain(ch), proto.MsgNotEnoughMP))
}

func TestPoleSwingRefusedAsUnimplemented(t *testing.T) {
	s := newTestService(t)
	st := fastStats()
	st.Weapon = world.WeaponPole
	c := addChar(s, 1, 0, 0, st)
	npc := addNpc(s, 2, 30, 0, 100_000)
	ch := s.hub.Register(c.ID)

	s.LaunchAttack(&c.Actor, &npc.Actor)

	require.Eventually(t, func() bool {
		return !s.tasks.HasAction(c.ID)
	}, 3*time.Second, 20*time.Millisecond)

	hp, max := npc.HP()
	assert.Equal(t, max, hp)

	var notice bool
	for _, pkt := range drain(ch) {
		if sm, ok := pkt.(proto.SystemMessage); ok && sm.Text != "" {
			notice = true
		}
	}
	assert.True(t, notice)
}

func TestUnreachableTargetReportsOutOfRange(t *testing.T) {
	s := newTestService(t)
	st := fastStats()
	st.Speed = 0
	c := addChar(s, 1, 0, 0, st)
	npc := addNpc(s, 2, 500, 0, 100_000)
	ch := s.hub.Register(c.ID)

	s.LaunchAttack(&c.Actor, &npc.Actor)

	require.Eventually(t, func() bool {
		return !s.tasks.HasAction(c.ID)
	}, 3*time.Second, 20*time.Millisecond)
	assert.True(t, hasSystemMessage(drain(ch), proto.MsgTargetOutOfRange))
}

func TestConcurrentDamageKillsOnce(t *testing.T) {
	s := newTestService(t)
	a := addChar(s, 1, 0, 0, fastStats())
	b := addChar(s, 2, 10, 0, fastStats())
	npc := addNpc(s, 3, 30, 0, 5000)

	var wg sync.WaitGroup
	for _, attacker := range []*world.Character{a, b} {
		wg.Add(1)
		go func(att *world.Character) {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				s.ApplyDamage(&att.Actor, &npc.Actor, 200)
			}
		}(attacker)
	}
	wg.Wait()

	require.True(t, npc.IsDead())
	hp, _ := npc.HP()
	assert.Zero(t, hp)

	// The reward pool is paid out exactly once and never exceeds the
	// template reward plus the overhit bonus.
	total := a.Exp() + b.Exp()
	assert.Positive(t, total)
	assert.LessOrEqual(t, total, int64(float64(npc.ExpReward)*(1+overhitExpCap))+1)

	// A second kill path cannot run: the ledger is already drained.
	shares, _ := npc.DamageShares()
	assert.Empty(t, shares)
}

func TestPlayerDamageBurnsCPFirst(t *testing.T) {
	s := newTestService(t)
	attacker := addChar(s, 1, 0, 0, fastStats())
	victim := addChar(s, 2, 30, 0, fastStats())

	s.ApplyDamage(&attacker.Actor, &victim.Actor, 60)

	cp, _ := victim.CP()
	hp, maxHP := victim.HP()
	assert.Equal(t, int32(40), cp)
	assert.Equal(t, maxHP, hp)

	s.ApplyDamage(&attacker.Actor, &victim.Actor, 60)
	cp, _ = victim.CP()
	hp, _ = victim.HP()
	assert.Zero(t, cp)
	assert.Equal(t, maxHP-20, hp)
}

func TestAttackingPlayerRaisesPvpFlag(t *testing.T) {
	s := newTestService(t)
	attacker := addChar(s, 1, 0, 0, fastStats())
	victim := addChar(s, 2, 30, 0, fastStats())

	s.ApplyDamage(&attacker.Actor, &victim.Actor, 10)

	assert.True(t, attacker.InPvp())
	assert.False(t, victim.InPvp())
	assert.True(t, s.InCombat(attacker.ID))
	assert.True(t, s.InCombat(victim.ID))
}

func TestDeathClearsCombatState(t *testing.T) {
	s := newTestService(t)
	killer := addChar(s, 1, 0, 0, fastStats())
	victim := addChar(s, 2, 30, 0, fastStats())

	s.ApplyDamage(&killer.Actor, &victim.Actor, 10)
	require.True(t, s.InCombat(victim.ID))

	s.ApplyDamage(&killer.Actor, &victim.Actor, 10_000)

	// The fight ends for the dead side immediately, not at flag expiry.
	require.True(t, victim.IsDead())
	assert.False(t, s.InCombat(victim.ID))
	assert.True(t, s.InCombat(killer.ID))
}

func TestKillingCleanPlayerGrantsKarma(t *testing.T) {
	s := newTestService(t)
	killer := addChar(s, 1, 0, 0, fastStats())
	victim := addChar(s, 2, 30, 0, fastStats())

	s.ApplyDamage(&killer.Actor, &victim.Actor, 10_000)

	require.True(t, victim.IsDead())
	assert.Equal(t, s.cfg.Pvp.KarmaPerKill, killer.Karma())
	assert.Equal(t, int32(1), killer.PKCount())
}

func TestKillingFlaggedPlayerIsClean(t *testing.T) {
	s := newTestService(t)
	killer := addChar(s, 1, 0, 0, fastStats())
	victim := addChar(s, 2, 30, 0, fastStats())

	// The victim swung first, so it carries the pvp flag.
	s.ApplyDamage(&victim.Actor, &killer.Actor, 10)
	require.True(t, victim.InPvp())

	s.ApplyDamage(&killer.Actor, &victim.Actor, 10_000)

	require.True(t, victim.IsDead())
	assert.Zero(t, killer.Karma())
	assert.Zero(t, killer.PKCount())
}

func TestDamageNeverNegative(t *testing.T) {
	s := newTestService(t)
	// A defender with absurd defence against a weak attacker.
	weak := world.CombatStats{PAtk: 1, PDef: 1, Accuracy: 100, AtkSpd: 300, AttackRange: 40}
	tank := world.CombatStats{PAtk: 1, PDef: 1_000_000, Accuracy: 100, AtkSpd: 300, AttackRange: 40}
	attacker := addChar(s, 1, 0, 0, weak)
	defender := addChar(s, 2, 30, 0, tank)

	for i := 0; i < 50; i++ {
		hit := s.rollHit(&attacker.Actor, &defender.Actor, false, 1)
		assert.GreaterOrEqual(t, hit.Damage, int32(0))
	}
}

func TestPositionalDamageBonuses(t *testing.T) {
	s := newTestService(t)
	as := world.CombatStats{PAtk: 100}
	ts := world.CombatStats{PDef: 10}

	front := s.rollDamage(as, ts, Hit{}, false, false)
	side := s.rollDamage(as, ts, Hit{}, true, false)
	back := s.rollDamage(as, ts, Hit{}, false, true)

	assert.Equal(t, int32(700), front)
	assert.Equal(t, int32(770), side)
	assert.Equal(t, int32(840), back)
}
