package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// NpcTemplate holds static data for an NPC type loaded from YAML, trimmed
// to the fields repo.Character's six-tuple attribute layout and
// driver.Scratch actually consume (spec.md §3.3 "Created by template
// instantiation").
type NpcTemplate struct {
	NpcID   int32  `yaml:"npc_id"`
	Name    string `yaml:"name"`
	GfxID   int32  `yaml:"gfx_id"`
	Level   int16  `yaml:"level"`
	Driver  string `yaml:"driver"` // "guard", "monster", "patrol" — maps to driver.Kind
	Team    int32  `yaml:"team"`   // driver.MonsterScratch.Team

	HP  int32 `yaml:"hp"`
	MP  int32 `yaml:"mp"`
	AC  int16 `yaml:"ac"`
	Str int32 `yaml:"str"`
	Dex int32 `yaml:"dex"`
	Con int32 `yaml:"con"`
	Wis int32 `yaml:"wis"`
	Int int32 `yaml:"int"`
	Cha int32 `yaml:"cha"`

	Exp    int32 `yaml:"exp"`
	Align  int32 `yaml:"align"`
	Undead bool  `yaml:"undead"`
	Agro   bool  `yaml:"agro"`

	AtkSpeed     int16 `yaml:"atk_speed"`
	PassiveSpeed int16 `yaml:"passive_speed"`
}

// SpawnEntry defines where and how many NPCs to spawn.
type SpawnEntry struct {
	NpcID        int32 `yaml:"npc_id"`
	MapID        int16 `yaml:"map_id"`
	X            int32 `yaml:"x"`
	Y            int32 `yaml:"y"`
	Count        int   `yaml:"count"`
	RandomX      int32 `yaml:"randomx"`
	RandomY      int32 `yaml:"randomy"`
	Heading      int16 `yaml:"heading"`
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
