package data

import (
	"fmt"
	"os"

	"github.com/emberfall/server/internal/combat"
	"gopkg.in/yaml.v3"
)

// ItemClass is the immutable definition of one item type. Only the fields
// the core reads are modeled; full item semantics live in the data files
// and scripts.
type ItemClass struct {
	ID        int
	Name      string
	Stackable bool
	// EquipSlot is the equip slot type this item fills, -1 when not
	// equippable.
	EquipSlot int
	// Attack granted while equipped, nil for non-weapons.
	Attack *combat.AttackInfo
	// Modifiers applied to attributes while equipped: attribute id → value.
	Modifiers map[int]float64
}

type ItemTable struct {
	classes map[int]*ItemClass
}

func (t *ItemTable) Get(id int) *ItemClass {
	if t == nil {
		return nil
	}
	return t.classes[id]
}
func (t *ItemTable) Count() int { return len(t.classes) }

type itemFile struct {
	Items []struct {
		ID        int             `yaml:"id"`
		Name      string          `yaml:"name"`
		Stackable bool            `yaml:"stackable"`
		EquipSlot *int            `yaml:"equip_slot"`
		Modifiers map[int]float64 `yaml:"modifiers"`
		Attack    *struct {
			ID       int `yaml:"id"`
			Base     int `yaml:"base"`
			Delta    int `yaml:"delta"`
			CTH      int `yaml:"cth"`
			Range    int `yaml:"range"`
			Skill    int `yaml:"skill"`
			Warmup   int `yaml:"warmup"`
			Cooldown int `yaml:"cooldown"`
			Reuse    int `yaml:"reuse"`
			Priority int `yaml:"priority"`
		} `yaml:"attack"`
	} `yaml:"items"`
}

func LoadItemTable(path string) (*ItemTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read items %s: %w", path, err)
	}
	var f itemFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse items %s: %w", path, err)
	}

	t := &ItemTable{classes: make(map[int]*ItemClass, len(f.Items))}
	for _, it := range f.Items {
		c := &ItemClass{
			ID:        it.ID,
			Name:      it.Name,
			Stackable: it.Stackable,
			EquipSlot: -1,
			Modifiers: it.Modifiers,
		}
		if it.EquipSlot != nil {
			c.EquipSlot = *it.EquipSlot
		}
		if a := it.Attack; a != nil {
			c.Attack = &combat.AttackInfo{
				Damage: combat.Damage{
					ID:    a.ID,
					Skill: a.Skill,
					Base:  a.Base,
					Delta: a.Delta,
					CTH:   a.CTH,
					Type:  combat.DamagePhysical,
					Range: a.Range,
				},
				WarmupTime:   a.Warmup,
				CooldownTime: a.Cooldown,
				ReuseTime:    a.Reuse,
				Priority:     a.Priority,
			}
		}
		if _, dup := t.classes[c.ID]; dup {
			return nil, fmt.Errorf("item %d: duplicate definition", c.ID)
		}
		t.classes[c.ID] = c
	}
	return t, nil
}
