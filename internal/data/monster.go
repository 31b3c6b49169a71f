package data

import (
	"fmt"
	"math/rand"
	"os"

	"github.com/emberfall/server/internal/combat"
	"gopkg.in/yaml.v3"
)

// Drop is one entry of a monster's loot table. Probability is per ten
// thousand, rolled independently per drop.
type Drop struct {
	ItemID      int
	Probability int
}

// MonsterClass is the immutable definition shared by all instances of one
// monster species.
type MonsterClass struct {
	ID   int
	Name string
	Exp  int
	Size int
	// Speed in pixels per tick.
	Speed int
	// StrollRange bounds idle wandering, in pixels; zero pins the monster.
	StrollRange int
	// TrackRange is how far the monster pursues attackers, in pixels.
	TrackRange int
	Aggressive bool

	// Attributes seed the instance's attribute bases.
	Attributes map[int]float64

	Attacks []*combat.AttackInfo
	Drops   []Drop
}

// RandomDrops rolls the loot table and returns the item ids dropped.
func (c *MonsterClass) RandomDrops(rng *rand.Rand) []int {
	var items []int
	for _, d := range c.Drops {
		if rng.Intn(10000) < d.Probability {
			items = append(items, d.ItemID)
		}
	}
	return items
}

// MonsterTable indexes monster classes by id.
type MonsterTable struct {
	classes map[int]*MonsterClass
}

func (t *MonsterTable) Get(id int) *MonsterClass {
	if t == nil {
		return nil
	}
	return t.classes[id]
}
func (t *MonsterTable) Count() int { return len(t.classes) }

type monsterFile struct {
	Monsters []struct {
		ID          int             `yaml:"id"`
		Name        string          `yaml:"name"`
		Exp         int             `yaml:"exp"`
		Size        int             `yaml:"size"`
		Speed       int             `yaml:"speed"`
		StrollRange int             `yaml:"stroll_range"`
		TrackRange  int             `yaml:"track_range"`
		Aggressive  bool            `yaml:"aggressive"`
		Attributes  map[int]float64 `yaml:"attributes"`
		Attacks     []struct {
			ID       int  `yaml:"id"`
			Base     int  `yaml:"base"`
			Delta    int  `yaml:"delta"`
			CTH      int  `yaml:"cth"`
			Range    int  `yaml:"range"`
			Skill    int  `yaml:"skill"`
			Element  int  `yaml:"element"`
			Magical  bool `yaml:"magical"`
			Warmup   int  `yaml:"warmup"`
			Cooldown int  `yaml:"cooldown"`
			Reuse    int  `yaml:"reuse"`
			Priority int  `yaml:"priority"`
		} `yaml:"attacks"`
		Drops []struct {
			ItemID      int `yaml:"item_id"`
			Probability int `yaml:"probability"`
		} `yaml:"drops"`
	} `yaml:"monsters"`
}

// LoadMonsterTable reads the monster definition file.
func LoadMonsterTable(path string) (*MonsterTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read monsters %s: %w", path, err)
	}
	var mf monsterFile
	if err := yaml.Unmarshal(raw, &mf); err != nil {
		return nil, fmt.Errorf("parse monsters %s: %w", path, err)
	}

	t := &MonsterTable{classes: make(map[int]*MonsterClass, len(mf.Monsters))}
	for _, m := range mf.Monsters {
		c := &MonsterClass{
			ID:          m.ID,
			Name:        m.Name,
			Exp:         m.Exp,
			Size:        m.Size,
			Speed:       m.Speed,
			StrollRange: m.StrollRange,
			TrackRange:  m.TrackRange,
			Aggressive:  m.Aggressive,
			Attributes:  m.Attributes,
		}
		for _, a := range m.Attacks {
			dtype := combat.DamagePhysical
			if a.Magical {
				dtype = combat.DamageMagical
			}
			c.Attacks = append(c.Attacks, &combat.AttackInfo{
				Damage: combat.Damage{
					ID:      a.ID,
					Skill:   a.Skill,
					Base:    a.Base,
					Delta:   a.Delta,
					CTH:     a.CTH,
					Element: combat.Element(a.Element),
					Type:    dtype,
					Range:   a.Range,
				},
				WarmupTime:   a.Warmup,
				CooldownTime: a.Cooldown,
				ReuseTime:    a.Reuse,
				Priority:     a.Priority,
			})
		}
		for _, d := range m.Drops {
			c.Drops = append(c.Drops, Drop{ItemID: d.ItemID, Probability: d.Probability})
		}
		if _, dup := t.classes[c.ID]; dup {
			return nil, fmt.Errorf("monster %d: duplicate definition", c.ID)
		}
		t.classes[c.ID] = c
	}
	return t, nil
}
