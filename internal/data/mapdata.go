package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ZoneInfo holds named-zone metadata for a rectangular region of the
// world, loaded from YAML (spec.md §3.3 "Created by template
// instantiation" extends to zone metadata, not just NPC/item templates).
// The teacher's per-map tile-flag file (one binary blob per named map) has
// no equivalent here: this spec's world is a single MapW x MapH grid
// (repo.MapW/MapH), and per-tile flags already live on repo.Tile itself,
// populated by internal/persist — this loader covers only the
// data-driven zone rectangles (safety/combat/lab-restricted) that sit on
// top of that grid.
type ZoneInfo struct {
	Name   string `yaml:"name"`
	X0     int32  `yaml:"x0"`
	Y0     int32  `yaml:"y0"`
	X1     int32  `yaml:"x1"`
	Y1     int32  `yaml:"y1"`
	Safety bool   `yaml:"safety"`
	Combat bool   `yaml:"combat"`
}

type zoneListFile struct {
	Zones []ZoneInfo `yaml:"zones"`
}

// ZoneTable holds all loaded zone rectangles.
type ZoneTable struct {
	zones []ZoneInfo
}

// LoadZoneTable loads zone metadata from a YAML file.
func LoadZoneTable(path string) (*ZoneTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read zone list: %w", err)
	}
	var f zoneListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse zone list: %w", err)
	}
	return &ZoneTable{zones: f.Zones}, nil
}

// Count returns the number of loaded zones.
func (t *ZoneTable) Count() int { return len(t.zones) }

// At returns the first zone containing (x, y), or nil.
func (t *ZoneTable) At(x, y int32) *ZoneInfo {
	for i := range t.zones {
		z := &t.zones[i]
		if x >= z.X0 && x <= z.X1 && y >= z.Y0 && y <= z.Y1 {
			return z
		}
	}
	return nil
}

// IsSafetyZone reports whether (x, y) falls within a safety zone.
func (t *ZoneTable) IsSafetyZone(x, y int32) bool {
	z := t.At(x, y)
	return z != nil && z.Safety
}

// IsCombatZone reports whether (x, y) falls within a combat zone.
func (t *ZoneTable) IsCombatZone(x, y int32) bool {
	z := t.At(x, y)
	return z != nil && z.Combat
}
