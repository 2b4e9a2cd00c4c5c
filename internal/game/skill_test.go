package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l2kgo/server/internal/data"
	"github.com/l2kgo/server/internal/proto"
	"github.com/l2kgo/server/internal/world"
)

func TestDamageSkillLandsAfterCast(t *testing.T) {
	s := newTestService(t)
	caster := addChar(s, 1, 0, 0, fastStats())
	npc := addNpc(s, 2, 100, 0, 100_000)

	s.UseSkill(caster, 1201, npc.ID)

	require.Eventually(t, func() bool {
		hp, max := npc.HP()
		return hp < max
	}, 3*time.Second, 10*time.Millisecond)

	// MP was spent up front.
	mp, maxMP := caster.MP()
	assert.Equal(t, maxMP-10, mp)
}

func TestCommittedCastCompletesDespiteReplacement(t *testing.T) {
	s := newTestService(t)
	caster := addChar(s, 1, 0, 0, fastStats())
	npc := addNpc(s, 2, 100, 0, 100_000)
	ch := s.hub.Register(caster.ID)

	// Start a cast and replace it mid-gesture. MP is already spent, so
	// the committed cast runs to completion; the retry sees the
	// cooldown and lands nothing extra.
	s.UseSkill(caster, 1201, npc.ID)
	require.Eventually(t, func() bool {
		_, on := s.cooldownUntil(caster.ID, 1201)
		return on
	}, time.Second, 5*time.Millisecond)

	s.UseSkill(caster, 1201, npc.ID)

	require.Eventually(t, func() bool {
		hp, max := npc.HP()
		return hp == max-1050
	}, 3*time.Second, 10*time.Millisecond)

	mp, maxMP := caster.MP()
	assert.Equal(t, maxMP-10, mp)
	assert.True(t, hasSystemMessage(drain(ch), proto.MsgSkillNotReady))
}

func TestCastTimingScalesBySkillClass(t *testing.T) {
	st := world.CombatStats{AtkSpd: 666, CastSpd: 333}
	magic := &data.SkillTemplate{Magic: true, CastTime: 300, ReuseMs: 5000}
	phys := &data.SkillTemplate{CastTime: 300, ReuseMs: 5000}

	mCast, mReuse := castTiming(magic, st)
	assert.Equal(t, 300*time.Millisecond, mCast)
	assert.Equal(t, 5*time.Second, mReuse)

	// Physical skills key off attack speed instead.
	pCast, pReuse := castTiming(phys, st)
	assert.Equal(t, 150*time.Millisecond, pCast)
	assert.Equal(t, 2500*time.Millisecond, pReuse)
}

func TestHealSkillRestoresHP(t *testing.T) {
	s := newTestService(t)
	caster := addChar(s, 1, 0, 0, fastStats())
	caster.ReduceHP(200)

	s.UseSkill(caster, 1011, 0)

	require.Eventually(t, func() bool {
		hp, max := caster.HP()
		return hp == max-200+50
	}, 3*time.Second, 10*time.Millisecond)
}

func TestCastRefusedWithoutMP(t *testing.T) {
	s := newTestService(t)
	caster := addChar(s, 1, 0, 0, fastStats())
	caster.SpendMP(95)
	npc := addNpc(s, 2, 100, 0, 100_000)
	ch := s.hub.Register(caster.ID)

	s.UseSkill(caster, 1201, npc.ID)

	require.Eventually(t, func() bool {
		return !s.tasks.HasAction(caster.ID)
	}, time.Second, 10*time.Millisecond)
	assert.True(t, hasSystemMessage(drain(ch), proto.MsgNotEnoughMP))
	hp, max := npc.HP()
	assert.Equal(t, max, hp)
}

func TestCastRefusedWithWrongWeapon(t *testing.T) {
	s := newTestService(t)
	caster := addChar(s, 1, 0, 0, fastStats()) // sword in hand
	npc := addNpc(s, 2, 30, 0, 100_000)
	ch := s.hub.Register(caster.ID)

	s.UseSkill(caster, 16, npc.ID)

	require.Eventually(t, func() bool {
		return !s.tasks.HasAction(caster.ID)
	}, time.Second, 10*time.Millisecond)
	assert.True(t, hasActionFailed(drain(ch)))
	hp, max := npc.HP()
	assert.Equal(t, max, hp)
}

func TestCastRefusedWithoutHP(t *testing.T) {
	s := newTestService(t)
	caster := addChar(s, 1, 0, 0, fastStats())
	caster.ReduceHP(980)
	ch := s.hub.Register(caster.ID)

	s.UseSkill(caster, 1157, 0)

	require.Eventually(t, func() bool {
		return !s.tasks.HasAction(caster.ID)
	}, time.Second, 10*time.Millisecond)
	assert.True(t, hasSystemMessage(drain(ch), proto.MsgNotEnoughHP))
	assert.False(t, caster.IsDead())
}

func TestCastSpendsHPCost(t *testing.T) {
	s := newTestService(t)
	caster := addChar(s, 1, 0, 0, fastStats())

	s.UseSkill(caster, 1157, 0)

	require.Eventually(t, func() bool {
		hp, max := caster.HP()
		return hp == max-50
	}, 3*time.Second, 10*time.Millisecond)
}

func TestCastConsumesRequiredItem(t *testing.T) {
	s := newTestService(t)
	caster := addChar(s, 1, 0, 0, fastStats())
	ch := s.hub.Register(caster.ID)

	// No spirit ore in the bag: refused outright.
	s.UseSkill(caster, 2031, 0)
	require.Eventually(t, func() bool {
		return !s.tasks.HasAction(caster.ID)
	}, time.Second, 10*time.Millisecond)
	assert.True(t, hasSystemMessage(drain(ch), proto.MsgNotEnoughItems))

	caster.Inv.Add(1061, 2, true, 7)
	s.UseSkill(caster, 2031, 0)
	require.Eventually(t, func() bool {
		return caster.Inv.CountOf(1061) == 1
	}, 3*time.Second, 10*time.Millisecond)
}

func TestOffensiveSkillCannotTargetSelf(t *testing.T) {
	s := newTestService(t)
	caster := addChar(s, 1, 0, 0, fastStats())
	ch := s.hub.Register(caster.ID)

	s.UseSkill(caster, 1201, caster.ID)

	require.Eventually(t, func() bool {
		return !s.tasks.HasAction(caster.ID)
	}, time.Second, 10*time.Millisecond)
	assert.True(t, hasSystemMessage(drain(ch), proto.MsgCannotUseOnSelf))
	hp, max := caster.HP()
	assert.Equal(t, max, hp)
}

func TestFriendSkillRefusedOnDeadTarget(t *testing.T) {
	s := newTestService(t)
	caster := addChar(s, 1, 0, 0, fastStats())
	ally := addChar(s, 2, 30, 0, fastStats())
	ally.ReduceCP(10_000)
	ally.ReduceHP(10_000)
	require.True(t, ally.IsDead())
	ch := s.hub.Register(caster.ID)

	s.UseSkill(caster, 1401, ally.ID)

	require.Eventually(t, func() bool {
		return !s.tasks.HasAction(caster.ID)
	}, time.Second, 10*time.Millisecond)
	assert.True(t, hasSystemMessage(drain(ch), proto.MsgIncorrectTarget))
}

func TestToggleSkillRefused(t *testing.T) {
	s := newTestService(t)
	caster := addChar(s, 1, 0, 0, fastStats())
	ch := s.hub.Register(caster.ID)

	s.UseSkill(caster, 1301, 0)

	assert.False(t, s.tasks.HasAction(caster.ID))
	assert.True(t, hasActionFailed(drain(ch)))
}

func TestUnknownSkillFails(t *testing.T) {
	s := newTestService(t)
	caster := addChar(s, 1, 0, 0, fastStats())

	s.UseSkill(caster, 9999, 0)
	assert.False(t, s.tasks.HasAction(caster.ID))
}
