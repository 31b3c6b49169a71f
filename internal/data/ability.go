package data

import (
	"fmt"
	"os"

	"github.com/emberfall/server/internal/scripting"
	"gopkg.in/yaml.v3"
)

// AbilityTarget says what an ability is aimed at.
type AbilityTarget int

const (
	TargetBeing AbilityTarget = iota
	TargetPoint
)

// AbilityInfo is the immutable definition of one ability.
type AbilityInfo struct {
	ID       int
	Category string
	Name     string

	Rechargeable bool
	// RechargeAttribute's modified value is added to current points each
	// tick while recharging.
	RechargeAttribute int
	// CooldownAttribute's modified value arms the global cooldown on use.
	CooldownAttribute int
	NeededPoints      int
	Autoconsume       bool
	Target            AbilityTarget

	// Callback slots bound by scripts at startup.
	RechargedRef scripting.Ref
	UseRef       scripting.Ref
}

type AbilityTable struct {
	infos map[int]*AbilityInfo
}

func (t *AbilityTable) Get(id int) *AbilityInfo {
	if t == nil {
		return nil
	}
	return t.infos[id]
}
func (t *AbilityTable) Count() int { return len(t.infos) }

// BindUse attaches the use callback to an ability; scripts call this via
// the bridge during load.
func (t *AbilityTable) BindUse(id int, ref scripting.Ref) bool {
	info, ok := t.infos[id]
	if ok {
		info.UseRef = ref
	}
	return ok
}

func (t *AbilityTable) BindRecharged(id int, ref scripting.Ref) bool {
	info, ok := t.infos[id]
	if ok {
		info.RechargedRef = ref
	}
	return ok
}

type abilityFile struct {
	Abilities []struct {
		ID           int    `yaml:"id"`
		Category     string `yaml:"category"`
		Name         string `yaml:"name"`
		Rechargeable bool   `yaml:"rechargeable"`
		RechargeAttr int    `yaml:"recharge_attribute"`
		CooldownAttr int    `yaml:"cooldown_attribute"`
		NeededPoints int    `yaml:"needed_points"`
		Autoconsume  bool   `yaml:"autoconsume"`
		Target       string `yaml:"target"`
	} `yaml:"abilities"`
}

func LoadAbilityTable(path string) (*AbilityTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read abilities %s: %w", path, err)
	}
	var f abilityFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse abilities %s: %w", path, err)
	}

	t := &AbilityTable{infos: make(map[int]*AbilityInfo, len(f.Abilities))}
	for _, a := range f.Abilities {
		target := TargetBeing
		switch a.Target {
		case "", "being":
		case "point":
			target = TargetPoint
		default:
			return nil, fmt.Errorf("ability %d: unknown target %q", a.ID, a.Target)
		}
		if _, dup := t.infos[a.ID]; dup {
			return nil, fmt.Errorf("ability %d: duplicate definition", a.ID)
		}
		t.infos[a.ID] = &AbilityInfo{
			ID:                a.ID,
			Category:          a.Category,
			Name:              a.Name,
			Rechargeable:      a.Rechargeable,
			RechargeAttribute: a.RechargeAttr,
			CooldownAttribute: a.CooldownAttr,
			NeededPoints:      a.NeededPoints,
			Autoconsume:       a.Autoconsume,
			Target:            target,
		}
	}
	return t, nil
}
