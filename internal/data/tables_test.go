package data

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYaml(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadNpcTable(t *testing.T) {
	p := writeYaml(t, "npc_list.yaml", `
npcs:
  - npc_id: 20001
    name: Gremlin
    level: 1
    hp: 62
    aggro: false
    exp: 29
    sp: 2
  - npc_id: 20130
    name: Orc
    level: 8
    hp: 186
    aggro: true
    ai_script: default
`)
	tbl, err := LoadNpcTable(p)
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Count())

	orc := tbl.Get(20130)
	require.NotNil(t, orc)
	assert.True(t, orc.Aggro)
	assert.Equal(t, "default", orc.AIScript)
	assert.Nil(t, tbl.Get(99999))
}

func TestLoadSpawnList(t *testing.T) {
	p := writeYaml(t, "spawn_list.yaml", `
spawns:
  - npc_id: 20001
    x: -84254
    y: 244610
    z: -3730
    count: 6
    random_radius: 400
    respawn_delay: 30
`)
	spawns, err := LoadSpawnList(p)
	require.NoError(t, err)
	require.Len(t, spawns, 1)
	assert.Equal(t, int32(-84254), spawns[0].X)
	assert.Equal(t, 6, spawns[0].Count)
	assert.Equal(t, 30, spawns[0].RespawnDelay)
}

func TestLoadItemTablePicksArrow(t *testing.T) {
	p := writeYaml(t, "item_list.yaml", `
items:
  - item_id: 57
    name: Adena
    kind: etc
    stackable: true
  - item_id: 17
    name: Wooden Arrow
    kind: etc
    stackable: true
    is_arrow: true
  - item_id: 2
    name: Long Sword
    kind: weapon
    weapon_kind: sword
    p_atk: 24
    atk_spd: 379
`)
	tbl, err := LoadItemTable(p)
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.Count())
	assert.Equal(t, int32(17), tbl.ArrowID())

	sword := tbl.Get(2)
	require.NotNil(t, sword)
	assert.Equal(t, int32(24), sword.PAtk)
	assert.False(t, sword.Stackable)
}

func TestLoadSkillTable(t *testing.T) {
	p := writeYaml(t, "skill_list.yaml", `
skills:
  - skill_id: 1177
    name: Wind Strike
    kind: damage
    target_kind: enemy
    mp_cost: 10
    power: 22
    cast_range: 600
    cast_time: 1332
    reuse_ms: 2000
`)
	tbl, err := LoadSkillTable(p)
	require.NoError(t, err)
	sk := tbl.Get(1177)
	require.NotNil(t, sk)
	assert.Equal(t, SkillKindDamage, sk.Kind)
	assert.Equal(t, int32(2000), sk.ReuseMs)
}

func TestLoadDropTableGroupsByNpc(t *testing.T) {
	p := writeYaml(t, "drop_list.yaml", `
drops:
  - npc_id: 20001
    item_id: 57
    min: 10
    max: 25
    chance: 0.7
  - npc_id: 20001
    item_id: 1061
    min: 1
    max: 1
    chance: 0.05
`)
	tbl, err := LoadDropTable(p)
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Count())
	assert.Len(t, tbl.Get(20001), 2)
	assert.Empty(t, tbl.Get(99999))
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := LoadNpcTable(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
