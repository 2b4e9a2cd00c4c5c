package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Weapon kind names as they appear in YAML.
const (
	WeaponKindFist   = "fist"
	WeaponKindSword  = "sword"
	WeaponKindDagger = "dagger"
	WeaponKindBlunt  = "blunt"
	WeaponKindBow    = "bow"
	WeaponKindPole   = "pole"
	WeaponKindDual   = "dual"
)

// ItemTemplate holds static data for an item type loaded from YAML.
type ItemTemplate struct {
	ItemID      int32  `yaml:"item_id"`
	Name        string `yaml:"name"`
	Kind        string `yaml:"kind"` // weapon, armor, etc
	WeaponKind  string `yaml:"weapon_kind,omitempty"`
	PAtk        int32  `yaml:"p_atk,omitempty"`
	PDef        int32  `yaml:"p_def,omitempty"`
	AtkSpd      int32  `yaml:"atk_spd,omitempty"`
	AttackRange int32  `yaml:"attack_range,omitempty"`
	MPCost      int32  `yaml:"mp_cost,omitempty"` // drained per shot, bows only
	RandomCoeff int32  `yaml:"random_coeff,omitempty"` // damage variance band, per cent
	Stackable   bool   `yaml:"stackable"`
	Weight      int32  `yaml:"weight"`
	Price       int64  `yaml:"price"`
	IsArrow     bool   `yaml:"is_arrow,omitempty"`
}

type itemListFile struct {
	Items []ItemTemplate `yaml:"items"`
}

// ItemTable holds all item templates indexed by ItemID.
type ItemTable struct {
	templates map[int32]*ItemTemplate
	arrowID   int32
}

// LoadItemTable loads item templates from one or more YAML files.
func LoadItemTable(paths ...string) (*ItemTable, error) {
	t := &ItemTable{templates: make(map[int32]*ItemTemplate)}
	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		var f itemListFile
		if err := yaml.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		for i := range f.Items {
			it := &f.Items[i]
			t.templates[it.ItemID] = it
			if it.IsArrow && t.arrowID == 0 {
				t.arrowID = it.ItemID
			}
		}
	}
	return t, nil
}

// NewItemTable builds a table from templates directly. Used by tests.
func NewItemTable(items []ItemTemplate) *ItemTable {
	t := &ItemTable{templates: make(map[int32]*ItemTemplate, len(items))}
	for i := range items {
		it := &items[i]
		t.templates[it.ItemID] = it
		if it.IsArrow && t.arrowID == 0 {
			t.arrowID = it.ItemID
		}
	}
	return t
}

// Get returns an item template by ID, or nil if not found.
func (t *ItemTable) Get(itemID int32) *ItemTemplate {
	return t.templates[itemID]
}

// ArrowID returns the template ID bows consume, or 0 when none is loaded.
func (t *ItemTable) ArrowID() int32 {
	return t.arrowID
}

// Count returns the number of loaded templates.
func (t *ItemTable) Count() int {
	return len(t.templates)
}
