package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ItemTemplate holds static data for an item type loaded from YAML,
// trimmed to the fields repo.Item's instantiation needs (spec.md §3.1,
// §3.3 "Created by template instantiation").
type ItemTemplate struct {
	TemplateID int32  `yaml:"template_id"`
	Name       string `yaml:"name"`
	GfxID      int32  `yaml:"gfx_id"`

	Placement uint32 `yaml:"placement"` // repo.ItemPlacement bitmask
	MoveBlock bool   `yaml:"move_block"`
	Light     int32  `yaml:"light"`

	Str, Dex, Con, Wis, Int, Cha int32

	Damage int32 `yaml:"damage"`
	Weight int32 `yaml:"weight"`

	Stackable bool `yaml:"stackable"`

	AgeInactiveMax int32 `yaml:"age_inactive_max"` // ground decay, ticks; 0 = never
}

type itemListFile struct {
	Items []ItemTemplate `yaml:"items"`
}

// ItemTable holds all item templates indexed by TemplateID, loaded from
// one or more YAML files (the teacher splits weapon/armor/etcitem into
// separate files; this loader keeps that split as a caller convenience,
// merging all of them into one table).
type ItemTable struct {
	templates map[int32]*ItemTemplate
}

// LoadItemTable loads and merges item templates from one or more YAML
// files.
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
			item := &f.Items[i]
			t.templates[item.TemplateID] = item
		}
	}
	return t, nil
}

// Get returns an item template by ID, or nil if not found.
func (t *ItemTable) Get(templateID int32) *ItemTemplate {
	return t.templates[templateID]
}

// Count returns the number of loaded templates.
func (t *ItemTable) Count() int {
	return len(t.templates)
}
