package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l2kgo/server/internal/data"
	"github.com/l2kgo/server/internal/world"
)

func TestExpSharedByDamageDealt(t *testing.T) {
	s := newTestService(t)
	heavy := addChar(s, 1, 0, 0, fastStats())
	light := addChar(s, 2, 10, 0, fastStats())
	npc := addNpc(s, 3, 30, 0, 1000)

	npc.RecordDamage(heavy.ID, 750)
	npc.RecordDamage(light.ID, 250)

	s.shareRewards(&heavy.Actor, npc)

	assert.Equal(t, int64(750), heavy.Exp())
	assert.Equal(t, int64(250), light.Exp())
}

func TestLevelGapShrinksExp(t *testing.T) {
	s := newTestService(t)
	c := addChar(s, 1, 0, 0, fastStats())
	c.SetLevel(20) // npc is level 8, gap 12 is past the grace band
	npc := addNpc(s, 2, 30, 0, 1000)

	npc.RecordDamage(c.ID, 1000)
	s.shareRewards(&c.Actor, npc)

	// (5/6)^3 of 1000.
	assert.Less(t, c.Exp(), int64(1000))
	assert.Equal(t, int64(578), c.Exp())
}

func TestOverhitBonusCapped(t *testing.T) {
	s := newTestService(t)
	c := addChar(s, 1, 0, 0, fastStats())
	npc := addNpc(s, 2, 30, 0, 1000)

	npc.RecordDamage(c.ID, 1000)
	npc.RecordOverhit(900) // 90% of max HP, far past the cap

	s.shareRewards(&c.Actor, npc)
	assert.Equal(t, int64(1250), c.Exp())
}

func TestLevelUpOnExpThreshold(t *testing.T) {
	s := newTestService(t)
	c := addChar(s, 1, 0, 0, fastStats())
	c.ReduceHP(500)

	// Level 11 needs 11^3 * 100 = 133100 cumulative exp.
	s.grantExpSP(c, 140_000, 10)

	assert.Equal(t, int16(11), c.Level())

	// Levelling fully heals.
	hp, maxHP := c.HP()
	assert.Equal(t, maxHP, hp)
}

func TestKillRollsDropsOntoGround(t *testing.T) {
	s := newTestService(t)
	s.drops = data.NewDropTable([]data.DropEntry{
		{NpcID: 20001, ItemID: 1061, Min: 2, Max: 2, Chance: 1.0},
	})
	npc := addNpc(s, 1, 0, 0, 100)

	s.rollDrops(npc)

	drops := groundItemsNear(s, npc.Pos())
	require.Len(t, drops, 1)
	assert.Equal(t, int32(1061), drops[0].TemplateID)
	assert.Equal(t, int64(2), drops[0].Count)

	// Scatter stays within the drop radius.
	assert.LessOrEqual(t, npc.Pos().Distance2D(drops[0].Pos), float64(dropScatterRadius)*1.5)
}

func TestRegenPostureMultipliers(t *testing.T) {
	s := newTestService(t)
	sitting := addChar(s, 1, 0, 0, fastStats())
	standing := addChar(s, 2, 0, 0, fastStats())
	sitting.ReduceHP(500)
	standing.ReduceHP(500)
	sitting.SetPosture(world.PostureSitting)

	s.regenerate(sitting)
	s.regenerate(standing)

	sitHP, _ := sitting.HP()
	standHP, _ := standing.HP()
	assert.Greater(t, sitHP, standHP)

	// Level 10: base 8, sitting x1.5 = 12, standing x1.1 = 8.
	assert.Equal(t, int32(512), sitHP)
	assert.Equal(t, int32(508), standHP)
}

func TestRegenHalvedInCombat(t *testing.T) {
	s := newTestService(t)
	c := addChar(s, 1, 0, 0, fastStats())
	c.ReduceHP(500)
	s.tracker.markFighting(c.ID)

	s.regenerate(c)
	hp, _ := c.HP()

	// Standing in combat: base 8 x1.1 x0.5 = 4.
	assert.Equal(t, int32(504), hp)
}

func TestDeadCharacterDoesNotRegen(t *testing.T) {
	s := newTestService(t)
	c := addChar(s, 1, 0, 0, fastStats())
	c.ReduceHP(10_000)

	s.regenerate(c)
	hp, _ := c.HP()
	assert.Zero(t, hp)
}
