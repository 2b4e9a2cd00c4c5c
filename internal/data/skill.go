package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Skill kinds as they appear in YAML.
const (
	SkillKindDamage = "damage"
	SkillKindHeal   = "heal"
	SkillKindBuff   = "buff"
	SkillKindToggle = "toggle"
)

// Skill target kinds.
const (
	SkillTargetEnemy  = "enemy"
	SkillTargetFriend = "friend"
	SkillTargetSelf   = "self"
)

// SkillTemplate holds static data for a skill loaded from YAML.
// Magic skills scale their cast and reuse times with casting speed,
// physical ones with attack speed.
type SkillTemplate struct {
	SkillID       int32    `yaml:"skill_id"`
	Name          string   `yaml:"name"`
	Level         int16    `yaml:"level"`
	Kind          string   `yaml:"kind"`
	TargetKind    string   `yaml:"target_kind"`
	Magic         bool     `yaml:"magic"`
	WeaponKinds   []string `yaml:"weapon_kinds,omitempty"` // empty = any weapon
	MPCost        int32    `yaml:"mp_cost"`
	HPCost        int32    `yaml:"hp_cost"`
	ConsumeItemID int32    `yaml:"consume_item_id,omitempty"`
	ConsumeCount  int64    `yaml:"consume_count,omitempty"`
	Power         int32    `yaml:"power"`
	CastRange     int32    `yaml:"cast_range"`
	CastTime      int32    `yaml:"cast_time"` // base units, scaled by caster speed
	ReuseMs       int32    `yaml:"reuse_ms"`
}

type skillListFile struct {
	Skills []SkillTemplate `yaml:"skills"`
}

// SkillTable holds all skill templates indexed by SkillID.
type SkillTable struct {
	templates map[int32]*SkillTemplate
}

// LoadSkillTable loads skill templates from a YAML file.
func LoadSkillTable(path string) (*SkillTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read skill_list: %w", err)
	}
	var f skillListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse skill_list: %w", err)
	}
	t := &SkillTable{templates: make(map[int32]*SkillTemplate, len(f.Skills))}
	for i := range f.Skills {
		sk := &f.Skills[i]
		t.templates[sk.SkillID] = sk
	}
	return t, nil
}

// NewSkillTable builds a table from templates directly. Used by tests.
func NewSkillTable(skills []SkillTemplate) *SkillTable {
	t := &SkillTable{templates: make(map[int32]*SkillTemplate, len(skills))}
	for i := range skills {
		sk := &skills[i]
		t.templates[sk.SkillID] = sk
	}
	return t
}

// Get returns a skill template by ID, or nil if not found.
func (t *SkillTable) Get(skillID int32) *SkillTemplate {
	return t.templates[skillID]
}

// Count returns the number of loaded templates.
func (t *SkillTable) Count() int {
	return len(t.templates)
}
