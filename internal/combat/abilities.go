package combat

import (
	"fmt"
	"math"

	"github.com/vovakirdan/deathbattle/internal/fighter"
)

// Mitigation factors applied to the defender's defense.
const (
	defaultDefenseFactor = 0.5
	relicDefenseFactor   = 0.3
	soulDefenseFactor    = 0.4
)

// Effect is what an ability did, before the defender's mitigation.
type Effect struct {
	Ability fighter.Ability

	// Damage is the raw damage before defense is applied. Zero means the
	// ability dealt no damage at all.
	Damage int

	// Healed is hp the attacker restored; SelfDamage is hp it paid.
	Healed     int
	SelfDamage int

	// Hits counts bombers, clones or strikes for narration.
	Hits int

	// Narration is a key into the presentation layer's text tables.
	Narration string
}

type abilitySpec struct {
	summary       string
	unblockable   bool
	defenseFactor float64
	apply         func(att, def *fighter.Fighter, rng Rand) Effect
}

// abilityTable is exhaustive over fighter.Catalog; see TestAbilityTableComplete.
var abilityTable = map[fighter.Ability]abilitySpec{
	fighter.AlterEgoBurst: {summary: "Strikes for 150% attack.", apply: func(att, _ *fighter.Fighter, _ Rand) Effect {
		return Effect{Damage: scaled(att.Attack, 1.5), Narration: "ability.alter_ego_burst"}
	}},
	fighter.EgoShield: {summary: "Raises defense by 10.", apply: func(att, _ *fighter.Fighter, _ Rand) Effect {
		att.Defense += 10
		return Effect{Narration: "ability.ego_shield"}
	}},
	fighter.ShadowClone: {summary: "Gains 1 attack, then strikes for 120% attack.", apply: func(att, _ *fighter.Fighter, _ Rand) Effect {
		att.Attack++
		return Effect{Damage: scaled(att.Attack, 1.2), Narration: "ability.shadow_clone"}
	}},
	fighter.HealingLight: {summary: "Restores 30% of max hp.", apply: func(att, _ *fighter.Fighter, _ Rand) Effect {
		return Effect{Healed: att.Heal(scaled(att.MaxHP, 0.3)), Narration: "ability.healing_light"}
	}},
	fighter.BerserkerRage: {summary: "Gains 6 attack and loses 2 defense.", apply: func(att, _ *fighter.Fighter, _ Rand) Effect {
		att.Attack += 6
		att.Defense = lowerStat(att.Defense, 2)
		return Effect{Narration: "ability.berserker_rage"}
	}},
	fighter.TimeSlow: {summary: "Gains 6 speed.", apply: func(att, _ *fighter.Fighter, _ Rand) Effect {
		att.Speed += 6
		return Effect{Narration: "ability.time_slow"}
	}},
	fighter.SoulStrike: {summary: "Strikes for 130% attack through 40% of defense and steals 1 speed.", defenseFactor: soulDefenseFactor, apply: func(att, def *fighter.Fighter, _ Rand) Effect {
		att.Speed++
		def.Speed = lowerStat(def.Speed, 1)
		return Effect{Damage: scaled(att.Attack, 1.3), Narration: "ability.soul_strike"}
	}},
	fighter.PhoenixRising: {summary: "Below 30% hp restores 15% of max hp, otherwise strikes for 120% attack and gains 1 defense.", apply: func(att, _ *fighter.Fighter, _ Rand) Effect {
		if float64(att.HP) < float64(att.MaxHP)*0.3 {
			return Effect{Healed: att.Heal(scaled(att.MaxHP, 0.15)), Narration: "ability.phoenix_rising.heal"}
		}
		dmg := scaled(att.Attack, 1.2)
		att.Defense++
		return Effect{Damage: dmg, Narration: "ability.phoenix_rising.strike"}
	}},
	fighter.RelicOfExo: {summary: "Strikes for 140% attack through 30% of defense.", defenseFactor: relicDefenseFactor, apply: func(att, _ *fighter.Fighter, _ Rand) Effect {
		return Effect{Damage: scaled(att.Attack, 1.4), Narration: "ability.relic_of_exo"}
	}},
	fighter.EgosBlessing: {summary: "Gains 2 attack, defense and speed.", apply: func(att, _ *fighter.Fighter, _ Rand) Effect {
		att.Attack += 2
		att.Defense += 2
		att.Speed += 2
		return Effect{Narration: "ability.egos_blessing"}
	}},
	fighter.Cleansing: {summary: "Restores 15% of max hp and gains 1 speed.", apply: func(att, _ *fighter.Fighter, _ Rand) Effect {
		healed := att.Heal(scaled(att.MaxHP, 0.15))
		att.Speed++
		return Effect{Healed: healed, Narration: "ability.cleansing"}
	}},
	fighter.RaiseTheDead: {summary: "Below 25% hp restores half of max hp, otherwise strikes for 110% attack.", apply: func(att, _ *fighter.Fighter, _ Rand) Effect {
		if float64(att.HP) < float64(att.MaxHP)*0.25 {
			return Effect{Healed: att.Heal(scaled(att.MaxHP, 0.5)), Narration: "ability.raise_the_dead.revive"}
		}
		return Effect{Damage: scaled(att.Attack, 1.1), Narration: "ability.raise_the_dead.strike"}
	}},
	fighter.WarriorsCall: {summary: "Gains 4 attack.", apply: func(att, _ *fighter.Fighter, _ Rand) Effect {
		att.Attack += 4
		return Effect{Narration: "ability.warriors_call"}
	}},
	fighter.DropTheBeat: {summary: "Lowers the opponent's attack, defense and speed by 1.", apply: func(_, def *fighter.Fighter, _ Rand) Effect {
		def.Speed = lowerStat(def.Speed, 1)
		def.Attack = lowerStat(def.Attack, 1)
		def.Defense = lowerStat(def.Defense, 1)
		return Effect{Narration: "ability.drop_the_beat"}
	}},
	fighter.CallToArms: {summary: "Strikes for 130% attack and restores 10 hp.", apply: func(att, _ *fighter.Fighter, _ Rand) Effect {
		dmg := scaled(att.Attack, 1.3)
		return Effect{Damage: dmg, Healed: att.Heal(10), Narration: "ability.call_to_arms"}
	}},
	fighter.Airstrike: {summary: "Calls in 1 to 5 unblockable bombers.", unblockable: true, apply: func(att, _ *fighter.Fighter, rng Rand) Effect {
		bombers := rng.IntN(5) + 1
		return Effect{Damage: scaled(att.Attack, 1.8/5) * bombers, Hits: bombers, Narration: "ability.airstrike"}
	}},
	fighter.DivineIntervention: {summary: "Above half hp restores 10% and gains 6 defense, otherwise restores 25% and gains 3 defense.", apply: func(att, _ *fighter.Fighter, _ Rand) Effect {
		if att.HP > att.MaxHP/2 {
			healed := att.Heal(scaled(att.MaxHP, 0.1))
			att.Defense += 6
			return Effect{Healed: healed, Narration: "ability.divine_intervention.fortify"}
		}
		healed := att.Heal(scaled(att.MaxHP, 0.25))
		att.Defense += 3
		return Effect{Healed: healed, Narration: "ability.divine_intervention.mend"}
	}},
	fighter.GreatWill: {summary: "Unblockable strike that grows with missing hp.", unblockable: true, apply: func(att, _ *fighter.Fighter, _ Rand) Effect {
		dmg := int(math.Floor(float64(att.Attack) + float64(att.MissingHP())*0.35))
		return Effect{Damage: dmg, Narration: "ability.great_will"}
	}},
	fighter.ToxicFumes: {summary: "Gains 3 defense and 3 speed.", apply: func(att, _ *fighter.Fighter, _ Rand) Effect {
		att.Defense += 3
		att.Speed += 3
		return Effect{Narration: "ability.toxic_fumes"}
	}},
	fighter.Freikugel: {summary: "Pays 10% of max hp for a fixed 35 damage shot.", apply: func(att, _ *fighter.Fighter, _ Rand) Effect {
		cost := scaled(att.MaxHP, 0.1)
		if att.HP > cost {
			return Effect{Damage: 35, SelfDamage: att.TakeDamage(cost), Narration: "ability.freikugel"}
		}
		return Effect{Damage: scaled(att.Attack, 1.1), Narration: "ability.freikugel.misfire"}
	}},
	fighter.Bloodlust: {summary: "Strikes for 80% attack and heals most of the damage dealt.", apply: func(att, _ *fighter.Fighter, _ Rand) Effect {
		dmg := scaled(att.Attack, 0.8)
		return Effect{Damage: dmg, Healed: att.Heal(scaled(dmg, 0.9)), Narration: "ability.bloodlust"}
	}},
	fighter.BladeOfTheOldWorld: {summary: "Strikes for 160% attack and loses 1 defense.", apply: func(att, _ *fighter.Fighter, _ Rand) Effect {
		dmg := scaled(att.Attack, 1.6)
		att.Defense = lowerStat(att.Defense, 1)
		return Effect{Damage: dmg, Narration: "ability.blade_of_the_old_world"}
	}},
	fighter.SpectralExonorator: {summary: "Strips 2 defense, then strikes for 125% attack.", apply: func(att, def *fighter.Fighter, _ Rand) Effect {
		def.Defense = lowerStat(def.Defense, 2)
		return Effect{Damage: scaled(att.Attack, 1.25), Narration: "ability.spectral_exonorator"}
	}},
	fighter.AxisCleave: {summary: "Strikes for attack plus 10% of the opponent's max hp.", apply: func(att, def *fighter.Fighter, _ Rand) Effect {
		return Effect{Damage: att.Attack + scaled(def.MaxHP, 0.1), Narration: "ability.axis_cleave"}
	}},
	fighter.KimJiHoonCombo: {summary: "Three quick strikes of 50% attack each.", apply: func(att, _ *fighter.Fighter, _ Rand) Effect {
		const strikes = 3
		return Effect{Damage: scaled(att.Attack, 0.5) * strikes, Hits: strikes, Narration: "ability.kim_ji_hoon_combo"}
	}},
}

func lookup(a fighter.Ability) abilitySpec {
	spec, ok := abilityTable[a]
	if !ok {
		panic(fmt.Sprintf("combat: unknown ability %d", a))
	}
	return spec
}

// Resolve applies ability a, mutating attacker and defender in place, and
// returns the raw effect. Unknown abilities are a caller bug and panic.
func Resolve(a fighter.Ability, attacker, defender *fighter.Fighter, rng Rand) Effect {
	eff := lookup(a).apply(attacker, defender, rng)
	eff.Ability = a
	return eff
}

// Summary describes what a does in one line.
func Summary(a fighter.Ability) string {
	return lookup(a).summary
}

// Unblockable reports whether the block branch must be skipped for a.
func Unblockable(a fighter.Ability) bool {
	if a == fighter.AbilityNone {
		return false
	}
	return lookup(a).unblockable
}

// DefenseFactor returns the share of the defender's defense that mitigates a.
func DefenseFactor(a fighter.Ability) float64 {
	if f := lookup(a).defenseFactor; f > 0 {
		return f
	}
	return defaultDefenseFactor
}

// Mitigate reduces raw ability damage by the defender's defense using the
// ability's factor, flooring at 1.
func Mitigate(a fighter.Ability, raw, defense int) int {
	reduction := int(math.Floor(float64(defense) * DefenseFactor(a)))
	return max(1, raw-reduction)
}

func scaled(v int, factor float64) int {
	return int(math.Floor(float64(v) * factor))
}

// lowerStat decrements a stat, never below 1.
func lowerStat(v, by int) int {
	return max(1, v-by)
}
