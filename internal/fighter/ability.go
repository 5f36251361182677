package fighter

// Ability identifies one entry of the fixed special-ability catalog.
// The set is closed: adding an ability means adding a constant here and an
// entry to the combat dispatch table.
type Ability int

const (
	AbilityNone Ability = iota
	AlterEgoBurst
	EgoShield
	ShadowClone
	HealingLight
	BerserkerRage
	TimeSlow
	SoulStrike
	PhoenixRising
	RelicOfExo
	EgosBlessing
	Cleansing
	RaiseTheDead
	WarriorsCall
	DropTheBeat
	CallToArms
	Airstrike
	DivineIntervention
	GreatWill
	ToxicFumes
	Freikugel
	Bloodlust
	BladeOfTheOldWorld
	SpectralExonorator
	AxisCleave
	KimJiHoonCombo

	abilityCount
)

var abilityNames = [abilityCount]string{
	AbilityNone:        "",
	AlterEgoBurst:      "Alter Ego Burst",
	EgoShield:          "Ego Shield",
	ShadowClone:        "Shadow Clone",
	HealingLight:       "Healing Light",
	BerserkerRage:      "Berserker Rage",
	TimeSlow:           "Time Slow",
	SoulStrike:         "Soul Strike",
	PhoenixRising:      "Phoenix Rising",
	RelicOfExo:         "Relic of Exo",
	EgosBlessing:       "Ego's Blessing",
	Cleansing:          "Cleansing",
	RaiseTheDead:       "Raise the Dead",
	WarriorsCall:       "Warrior's Call",
	DropTheBeat:        "Drop the Beat",
	CallToArms:         "Call to Arms",
	Airstrike:          "Airstrike",
	DivineIntervention: "Divine Intervention",
	GreatWill:          "Great Will",
	ToxicFumes:         "Toxic Fumes",
	Freikugel:          "Freikugel",
	Bloodlust:          "Bloodlust",
	BladeOfTheOldWorld: "Blade of the Old World",
	SpectralExonorator: "Spectral Exonorator",
	AxisCleave:         "Axis Cleave",
	KimJiHoonCombo:     "Kim Ji Hoon Combo",
}

// String returns the display name of the ability.
func (a Ability) String() string {
	if !a.Valid() {
		return "Unknown"
	}
	return abilityNames[a]
}

// Valid reports whether a is a catalog entry.
func (a Ability) Valid() bool {
	return a > AbilityNone && a < abilityCount
}

// Catalog returns every ability in catalog order.
// The order is significant: ability selection indexes into it.
func Catalog() []Ability {
	out := make([]Ability, 0, abilityCount-1)
	for a := AlterEgoBurst; a < abilityCount; a++ {
		out = append(out, a)
	}
	return out
}

// ParseAbility looks an ability up by its display name.
func ParseAbility(name string) (Ability, bool) {
	for a := AlterEgoBurst; a < abilityCount; a++ {
		if abilityNames[a] == name {
			return a, true
		}
	}
	return AbilityNone, false
}
