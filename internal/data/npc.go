package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// NpcTemplate holds static data for an NPC type loaded from YAML.
type NpcTemplate struct {
	NpcID       int32  `yaml:"npc_id"`
	Name        string `yaml:"name"`
	Level       int16  `yaml:"level"`
	HP          int32  `yaml:"hp"`
	MP          int32  `yaml:"mp"`
	PAtk        int32  `yaml:"p_atk"`
	PDef        int32  `yaml:"p_def"`
	Accuracy    int32  `yaml:"accuracy"`
	Evasion     int32  `yaml:"evasion"`
	CritRate    int32  `yaml:"crit_rate"`
	AtkSpd      int32  `yaml:"atk_spd"`
	Speed       int32  `yaml:"speed"`
	AttackRange int32  `yaml:"attack_range"`
	Aggro       bool   `yaml:"aggro"`
	Exp         int64  `yaml:"exp"`
	SP          int64  `yaml:"sp"`
	AIScript    string `yaml:"ai_script"` // Lua entry name, empty = default
}

// SpawnEntry defines where and how many NPCs to spawn.
type SpawnEntry struct {
	NpcID        int32 `yaml:"npc_id"`
	X            int32 `yaml:"x"`
	Y            int32 `yaml:"y"`
	Z            int32 `yaml:"z"`
	Count        int   `yaml:"count"`
	RandomRadius int32 `yaml:"random_radius"`
	RespawnDelay int   `yaml:"respawn_delay"` // seconds
}

type npcListFile struct {
	Npcs []NpcTemplate `yaml:"npcs"`
}

type spawnListFile struct {
	Spawns []SpawnEntry `yaml:"spawns"`
}

// NpcTable holds all NPC templates indexed by NpcID.
type NpcTable struct {
	templates map[int32]*NpcTemplate
}

// LoadNpcTable loads NPC templates from a YAML file.
func LoadNpcTable(path string) (*NpcTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read npc_list: %w", err)
	}
	var f npcListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse npc_list: %w", err)
	}
	t := &NpcTable{templates: make(map[int32]*NpcTemplate, len(f.Npcs))}
	for i := range f.Npcs {
		npc := &f.Npcs[i]
		t.templates[npc.NpcID] = npc
	}
	return t, nil
}

// NewNpcTable builds a table from templates directly.
func NewNpcTable(templates []NpcTemplate) *NpcTable {
	t := &NpcTable{templates: make(map[int32]*NpcTemplate, len(templates))}
	for i := range templates {
		npc := &templates[i]
		t.templates[npc.NpcID] = npc
	}
	return t
}

// Get returns an NPC template by ID, or nil if not found.
func (t *NpcTable) Get(npcID int32) *NpcTemplate {
	return t.templates[npcID]
}

// Count returns the number of loaded templates.
func (t *NpcTable) Count() int {
	return len(t.templates)
}

// LoadSpawnList loads spawn entries from a YAML file.
func LoadSpawnList(path string) ([]SpawnEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spawn_list: %w", err)
	}
	var f spawnListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse spawn_list: %w", err)
	}
	return f.Spawns, nil
}
