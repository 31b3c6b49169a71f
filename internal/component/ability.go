package component

import "github.com/emberfall/server/internal/data"

// AbilityValue is the live state of one known ability.
type AbilityValue struct {
	CurrentPoints int
	Info          *data.AbilityInfo
	// recharged latches so the recharged callback fires once per fill.
	Recharged bool
}

// Abilities holds an entity's known abilities and the shared global
// cooldown armed on each use.
type Abilities struct {
	Values map[int]*AbilityValue
	// GlobalCooldown blocks all ability use while positive.
	GlobalCooldown int
}

func NewAbilities() *Abilities {
	return &Abilities{Values: make(map[int]*AbilityValue, 4)}
}

// Give teaches the ability, idempotently.
func (a *Abilities) Give(info *data.AbilityInfo) {
	if _, known := a.Values[info.ID]; known {
		return
	}
	a.Values[info.ID] = &AbilityValue{Info: info}
}

func (a *Abilities) Take(id int) { delete(a.Values, id) }

func (a *Abilities) Get(id int) (*AbilityValue, bool) {
	v, ok := a.Values[id]
	return v, ok
}
