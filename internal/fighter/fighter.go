// Package fighter derives deterministic combatant profiles from identity strings.
//
// Everything here is pure: the same name and scale always produce the same
// Fighter, with no clock or global randomness involved.
package fighter

import (
	"math"
	"unicode/utf16"
)

// Stat ranges produced by Generate.
const (
	BaseHP      = 80
	BaseAttack  = 15
	BaseDefense = 5
	BaseSpeed   = 10
	BaseCrit    = 0.1

	HPRange      = 40
	AttackRange  = 10
	DefenseRange = 10
	SpeedRange   = 10
	CritRange    = 0.2
)

// RankedScale is the fixed aura percentage used by ranked duels.
const RankedScale = 90

// AbilitySlots is how many abilities each fighter carries.
const AbilitySlots = 2

// Fighter is one combatant for the duration of a session.
// HP, Attack, Defense and Speed are mutated in place by the combat engine.
type Fighter struct {
	ID   string
	Name string

	HP         int
	MaxHP      int
	Attack     int
	Defense    int
	Speed      int
	CritChance float64

	Abilities [AbilitySlots]Ability

	// Aura is the percentage the stats were scaled from.
	Aura int
}

// Alive reports whether the fighter still has hp left.
func (f *Fighter) Alive() bool {
	return f.HP > 0
}

// MissingHP returns how much hp the fighter has lost.
func (f *Fighter) MissingHP() int {
	return f.MaxHP - f.HP
}

// Heal restores up to amount hp without exceeding MaxHP and returns the
// amount actually restored.
func (f *Fighter) Heal(amount int) int {
	if amount <= 0 {
		return 0
	}
	before := f.HP
	f.HP = min(f.HP+amount, f.MaxHP)
	return f.HP - before
}

// TakeDamage removes hp, clamping at zero, and returns the hp actually lost.
func (f *Fighter) TakeDamage(amount int) int {
	if amount <= 0 {
		return 0
	}
	before := f.HP
	f.HP = max(0, f.HP-amount)
	return before - f.HP
}

type options struct {
	scale    int
	hasScale bool
}

// Option customises Generate.
type Option func(*options)

// WithScale forces the aura percentage instead of deriving it from the name.
func WithScale(percent int) Option {
	return func(o *options) {
		o.scale = percent
		o.hasScale = true
	}
}

// Generate builds the fighter for id using name as the deterministic seed.
func Generate(id, name string, opts ...Option) Fighter {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	percent := AuraPercentage(name)
	if o.hasScale {
		percent = o.scale
	}

	m := Multiplier(percent)
	hp := BaseHP + int(math.Floor(m*HPRange))

	return Fighter{
		ID:         id,
		Name:       name,
		HP:         hp,
		MaxHP:      hp,
		Attack:     BaseAttack + int(math.Floor(m*AttackRange)),
		Defense:    BaseDefense + int(math.Floor(m*DefenseRange)),
		Speed:      BaseSpeed + int(math.Floor(m*SpeedRange)),
		CritChance: BaseCrit + m*CritRange,
		Abilities:  pickAbilities(name),
		Aura:       percent,
	}
}

// Multiplier maps an aura percentage in [-100, 100] onto [0, 1].
func Multiplier(percent int) float64 {
	return math.Max(0, math.Min(1, float64(percent+100)/200))
}

// Hash is a 31-multiplier polynomial rolling hash over the UTF-16 code units
// of s, wrapping at 2^32.
func Hash(s string) uint32 {
	var h uint32
	for _, unit := range utf16.Encode([]rune(s)) {
		h = h*31 + uint32(unit)
	}
	return h
}

// pickAbilities draws AbilitySlots distinct abilities from the catalog using
// a name-seeded linear congruential sequence.
func pickAbilities(name string) [AbilitySlots]Ability {
	rng := newLCG(uint64(Hash(name)) + 1000)
	pool := Catalog()

	var picked [AbilitySlots]Ability
	for i := range picked {
		idx := int(rng.next() * float64(len(pool)))
		picked[i] = pool[idx]
		pool = append(pool[:idx], pool[idx+1:]...)
	}
	return picked
}

const (
	lcgMultiplier = 9301
	lcgIncrement  = 49297
	lcgModulus    = 233280
)

// lcg is the classic 9301/49297/233280 generator. It is kept separate from
// the combat RNG so ability selection never depends on battle randomness.
type lcg struct {
	seed uint64
}

func newLCG(seed uint64) *lcg {
	return &lcg{seed: seed}
}

// next returns a value in [0, 1).
func (l *lcg) next() float64 {
	l.seed = (l.seed*lcgMultiplier + lcgIncrement) % lcgModulus
	return float64(l.seed) / lcgModulus
}
