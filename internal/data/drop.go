package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DropEntry is one possible drop from an NPC.
type DropEntry struct {
	NpcID    int32   `yaml:"npc_id"`
	ItemID   int32   `yaml:"item_id"`
	Min      int64   `yaml:"min"`
	Max      int64   `yaml:"max"`
	Chance   float64 `yaml:"chance"` // 0.0-1.0 before rate scaling
}

type dropListFile struct {
	Drops []DropEntry `yaml:"drops"`
}

// DropTable holds drop entries grouped by NPC ID.
type DropTable struct {
	drops map[int32][]DropEntry
	count int
}

// LoadDropTable loads drop entries from a YAML file.
func LoadDropTable(path string) (*DropTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read drop_list: %w", err)
	}
	var f dropListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse drop_list: %w", err)
	}
	t := &DropTable{drops: make(map[int32][]DropEntry)}
	for _, d := range f.Drops {
		t.drops[d.NpcID] = append(t.drops[d.NpcID], d)
		t.count++
	}
	return t, nil
}

// NewDropTable builds a table from entries directly. Used by tests.
func NewDropTable(entries []DropEntry) *DropTable {
	t := &DropTable{drops: make(map[int32][]DropEntry)}
	for _, d := range entries {
		t.drops[d.NpcID] = append(t.drops[d.NpcID], d)
		t.count++
	}
	return t
}

// Get returns the drop entries for an NPC, or nil.
func (t *DropTable) Get(npcID int32) []DropEntry {
	return t.drops[npcID]
}

// Count returns the number of loaded entries.
func (t *DropTable) Count() int {
	return t.count
}
