package combat

// Element indexes the elemental vulnerability block of the attribute table.
type Element int

const (
	ElementNeutral Element = iota
	ElementFire
	ElementWater
	ElementEarth
	ElementAir
	NBElements
)

// DamageType selects the resolution formula.
type DamageType int

const (
	DamagePhysical DamageType = iota
	DamageMagical
	DamageDirect
	DamageOther
)

// Damage describes the severity and nature of one attack hit.
type Damage struct {
	// ID of the attack, echoed to clients for animation.
	ID int
	// Skill credited with the experience for this damage.
	Skill int
	Base  int
	// Delta is the additional damage on a lucky roll.
	Delta int
	// CTH is the chance to hit, opposed by the target's dodge attribute.
	CTH     int
	Element Element
	Type    DamageType
	// TrueStrike bypasses the dodge calculation.
	TrueStrike bool
	// Range is the maximum use distance in pixels.
	Range int
}
