package combat

import (
	"math/rand"

	"github.com/emberfall/server/internal/attribute"
)

// Resolver computes hit point losses from Damage against a target's
// attribute set. The rand source is injected so tests are deterministic.
type Resolver struct {
	rng *rand.Rand
}

func NewResolver(rng *rand.Rand) *Resolver {
	return &Resolver{rng: rng}
}

// Resolve returns the HP loss to apply, zero on a miss. It does not touch
// the target's attributes; the combat system applies the result.
func (r *Resolver) Resolve(dmg Damage, target *attribute.Set) int {
	hpLoss := dmg.Base
	if dmg.Delta > 0 {
		hpLoss += r.rng.Intn(dmg.Delta + 1)
	}

	switch dmg.Type {
	case DamagePhysical:
		dodge := int(target.Modified(attribute.Dodge))
		if dodge < 0 {
			dodge = 0
		}
		cth := dmg.CTH
		if cth < 0 {
			cth = 0
		}
		if !dmg.TrueStrike && r.rng.Intn(dodge+1) > r.rng.Intn(cth+1) {
			return 0
		}
		defense := target.Modified(attribute.Defense)
		scaled := float64(hpLoss) * (1.0 - (0.0159375*defense)/(1.0+0.017*defense))
		hpLoss = int(scaled) + r.rng.Intn(hpLoss/16+1)
	case DamageMagical:
		vuln := target.Modified(attribute.VulnerabilityBase + int(dmg.Element))
		if vuln > 0 {
			hpLoss = int(float64(hpLoss) * vuln)
		}
	case DamageDirect:
		// Base plus the lucky roll, unmitigated.
	default:
		return 0
	}

	if hpLoss < 0 {
		hpLoss = 0
	}
	return hpLoss
}
