package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// WorldObjects are the placed things a shard seeds at boot: monster spawn
// areas, trigger areas, and NPCs.
type WorldObjects struct {
	Spawns   []SpawnEntry
	Triggers []TriggerEntry
	NPCs     []NPCEntry
}

type SpawnEntry struct {
	MapID     int `yaml:"map"`
	MonsterID int `yaml:"monster"`
	MaxBeings int `yaml:"max_beings"`
	// SpawnRate is spawns per minute.
	SpawnRate int `yaml:"spawn_rate"`
	X         int `yaml:"x"`
	Y         int `yaml:"y"`
	W         int `yaml:"w"`
	H         int `yaml:"h"`
}

type TriggerEntry struct {
	MapID int    `yaml:"map"`
	Kind  string `yaml:"kind"` // "warp" or "script"
	X     int    `yaml:"x"`
	Y     int    `yaml:"y"`
	W     int    `yaml:"w"`
	H     int    `yaml:"h"`

	TargetMap int `yaml:"target_map"`
	TargetX   int `yaml:"target_x"`
	TargetY   int `yaml:"target_y"`

	ScriptArg int  `yaml:"script_arg"`
	Once      bool `yaml:"once"`
}

type NPCEntry struct {
	MapID    int    `yaml:"map"`
	ScriptID int    `yaml:"script_id"`
	Name     string `yaml:"name"`
	X        int    `yaml:"x"`
	Y        int    `yaml:"y"`
}

type worldObjectsFile struct {
	Spawns   []SpawnEntry   `yaml:"spawn_areas"`
	Triggers []TriggerEntry `yaml:"trigger_areas"`
	NPCs     []NPCEntry     `yaml:"npcs"`
}

// LoadWorldObjects reads the placement file. A missing file is an empty
// world, not an error.
func LoadWorldObjects(path string) (*WorldObjects, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &WorldObjects{}, nil
		}
		return nil, fmt.Errorf("read world objects %s: %w", path, err)
	}
	var f worldObjectsFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse world objects %s: %w", path, err)
	}
	for _, tr := range f.Triggers {
		if tr.Kind != "warp" && tr.Kind != "script" {
			return nil, fmt.Errorf("world objects %s: unknown trigger kind %q", path, tr.Kind)
		}
	}
	return &WorldObjects{Spawns: f.Spawns, Triggers: f.Triggers, NPCs: f.NPCs}, nil
}
