package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TerrainZone is an axis-aligned rectangle of terrain. Unlisted ground is
// walkable at the reference height.
type TerrainZone struct {
	X1       int32 `yaml:"x1"`
	Y1       int32 `yaml:"y1"`
	X2       int32 `yaml:"x2"`
	Y2       int32 `yaml:"y2"`
	Z        int32 `yaml:"z"`
	Walkable bool  `yaml:"walkable"`
}

type terrainFile struct {
	Zones []TerrainZone `yaml:"zones"`
}

// TerrainTable holds the loaded terrain zones.
type TerrainTable struct {
	zones []TerrainZone
}

// LoadTerrainTable loads terrain zones from a YAML file.
func LoadTerrainTable(path string) (*TerrainTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read terrain_list: %w", err)
	}
	var f terrainFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse terrain_list: %w", err)
	}
	return &TerrainTable{zones: f.Zones}, nil
}

// NewTerrainTable builds a table from zones directly. Used by tests.
func NewTerrainTable(zones []TerrainZone) *TerrainTable {
	return &TerrainTable{zones: zones}
}

// Walkable reports whether (x, y) is outside every blocked zone.
func (t *TerrainTable) Walkable(x, y int32) bool {
	for i := range t.zones {
		z := &t.zones[i]
		if !z.Walkable && x >= z.X1 && x <= z.X2 && y >= z.Y1 && y <= z.Y2 {
			return false
		}
	}
	return true
}

// ZAt returns the floor height at (x, y) nearest to refZ.
func (t *TerrainTable) ZAt(x, y, refZ int32) int32 {
	best := refZ
	bestDiff := int32(-1)
	for i := range t.zones {
		z := &t.zones[i]
		if !z.Walkable || x < z.X1 || x > z.X2 || y < z.Y1 || y > z.Y2 {
			continue
		}
		diff := z.Z - refZ
		if diff < 0 {
			diff = -diff
		}
		if bestDiff < 0 || diff < bestDiff {
			best = z.Z
			bestDiff = diff
		}
	}
	return best
}

// Count returns the number of loaded zones.
func (t *TerrainTable) Count() int {
	return len(t.zones)
}
