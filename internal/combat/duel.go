// Package combat resolves duels between two fighters.
//
// A Duel owns its fighters for the length of the battle and advances one turn
// per Step. All randomness comes from the injected Rand so that a scripted
// source reproduces a battle exactly.
package combat

import (
	"context"
	"fmt"
	"math"

	"github.com/vovakirdan/deathbattle/internal/fighter"
)

// Tuning defaults.
const (
	DefaultMaxTurns      = 55
	DefaultAbilityChance = 0.25

	critMultiplier = 1.8
	baseDodge      = 0.15
	dodgePerSpeed  = 0.01
	blockWindow    = 0.15
)

// Options tunes a Duel.
type Options struct {
	MaxTurns      int
	AbilityChance float64
}

// DefaultOptions returns the standard duel rules.
func DefaultOptions() Options {
	return Options{
		MaxTurns:      DefaultMaxTurns,
		AbilityChance: DefaultAbilityChance,
	}
}

// Result is the final state of a concluded duel.
type Result struct {
	Winner     *fighter.Fighter
	Loser      *fighter.Fighter
	Turns      int
	ForcedStop bool
}

// Duel is the turn engine state machine: Ongoing until a fighter drops to
// zero hp or the turn cap is reached.
type Duel struct {
	f1, f2 *fighter.Fighter
	// order[0] moves first.
	order [2]*fighter.Fighter
	rng   Rand
	opts  Options

	turn      int
	attacker  int
	concluded bool
	result    Result
}

// NewDuel sets up a battle between f1 and f2. The faster fighter moves first;
// on equal speed f1 does.
func NewDuel(f1, f2 *fighter.Fighter, rng Rand, opts Options) *Duel {
	if f1 == nil || f2 == nil || f1 == f2 {
		panic("combat: duel needs two distinct fighters")
	}
	checkFighter(f1)
	checkFighter(f2)
	if opts.MaxTurns <= 0 {
		opts.MaxTurns = DefaultMaxTurns
	}
	if opts.AbilityChance < 0 || opts.AbilityChance > 1 {
		panic(fmt.Sprintf("combat: ability chance %v out of range", opts.AbilityChance))
	}

	d := &Duel{f1: f1, f2: f2, rng: rng, opts: opts}
	d.order = [2]*fighter.Fighter{f1, f2}
	if f2.Speed > f1.Speed {
		d.order = [2]*fighter.Fighter{f2, f1}
	}
	d.finishIfDone()
	return d
}

// First returns the fighter who takes the opening turn.
func (d *Duel) First() *fighter.Fighter {
	return d.order[0]
}

// Turn returns the number of turns resolved so far.
func (d *Duel) Turn() int {
	return d.turn
}

// Concluded reports whether the duel has reached a terminal state.
func (d *Duel) Concluded() bool {
	return d.concluded
}

// Result returns the outcome. Only valid once Concluded is true.
func (d *Duel) Result() Result {
	if !d.concluded {
		panic("combat: result requested before the duel concluded")
	}
	return d.result
}

// Step resolves one turn and returns its event. Stepping a concluded duel
// is a caller bug.
func (d *Duel) Step() BattleEvent {
	if d.concluded {
		panic("combat: step on a concluded duel")
	}

	att := d.order[d.attacker]
	def := d.order[1-d.attacker]
	d.turn++

	var ev BattleEvent
	if d.rng.Float64() < d.opts.AbilityChance {
		ev = d.abilityTurn(att, def)
	} else {
		ev = d.basicTurn(att, def)
	}

	checkFighter(att)
	checkFighter(def)

	ev.Turn = d.turn
	ev.AttackerID = att.ID
	ev.DefenderID = def.ID
	ev.AttackerHP = att.HP
	ev.DefenderHP = def.HP
	ev.Fighter1HP = d.f1.HP
	ev.Fighter2HP = d.f2.HP

	d.attacker = 1 - d.attacker
	d.finishIfDone()
	return ev
}

// Run steps the duel to completion, handing each event to emit in order.
// A non-nil error from emit or a cancelled ctx stops the battle early.
func (d *Duel) Run(ctx context.Context, emit func(BattleEvent) error) (Result, error) {
	for !d.concluded {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		if err := emit(d.Step()); err != nil {
			return Result{}, err
		}
	}
	return d.result, nil
}

// abilityTurn resolves an ability. Abilities skip the dodge and block rolls
// entirely, so every Unblockable ability lands; only basicTurn can block.
func (d *Duel) abilityTurn(att, def *fighter.Fighter) BattleEvent {
	ability := att.Abilities[d.rng.IntN(fighter.AbilitySlots)]
	eff := Resolve(ability, att, def, d.rng)

	ev := BattleEvent{
		Action:     ActionAbility,
		Ability:    ability,
		Narration:  eff.Narration,
		Healed:     eff.Healed,
		SelfDamage: eff.SelfDamage,
		Hits:       eff.Hits,
	}
	if eff.Damage > 0 {
		ev.Damage = Mitigate(ability, eff.Damage, def.Defense)
		def.TakeDamage(ev.Damage)
	}
	return ev
}

func (d *Duel) basicTurn(att, def *fighter.Fighter) BattleEvent {
	dmg := att.Attack
	crit := d.rng.Float64() < att.CritChance
	if crit {
		dmg = int(math.Floor(float64(dmg) * critMultiplier))
	}

	dodge := baseDodge + dodgePerSpeed*float64(max(0, def.Speed-att.Speed))
	roll := d.rng.Float64()

	switch {
	case roll < dodge:
		return BattleEvent{Action: ActionDodge, Crit: crit, Narration: "attack.dodge"}
	case roll < dodge+blockWindow:
		// Basic attacks carry no ability and are always blockable.
		dealt := max(1, dmg-def.Defense)
		def.TakeDamage(dealt)
		return BattleEvent{Action: ActionBlock, Crit: crit, Damage: dealt, Narration: "attack.block"}
	default:
		dealt := max(1, dmg-def.Defense/2)
		def.TakeDamage(dealt)
		key := "attack.hit"
		if crit {
			key = "attack.crit"
		}
		return BattleEvent{Action: ActionAttack, Crit: crit, Damage: dealt, Narration: key}
	}
}

func (d *Duel) finishIfDone() {
	first, second := d.order[0], d.order[1]
	switch {
	case !second.Alive():
		d.conclude(first, second, false)
	case !first.Alive():
		d.conclude(second, first, false)
	case d.turn >= d.opts.MaxTurns:
		// Strictly lower hp loses; an exact tie goes against the fighter
		// who moved second.
		if first.HP < second.HP {
			d.conclude(second, first, true)
		} else {
			d.conclude(first, second, true)
		}
	}
}

func (d *Duel) conclude(winner, loser *fighter.Fighter, forced bool) {
	d.concluded = true
	d.result = Result{Winner: winner, Loser: loser, Turns: d.turn, ForcedStop: forced}
}

func checkFighter(f *fighter.Fighter) {
	if f.HP < 0 || f.HP > f.MaxHP {
		panic(fmt.Sprintf("combat: fighter %q hp %d outside [0, %d]", f.ID, f.HP, f.MaxHP))
	}
	for _, a := range f.Abilities {
		if !a.Valid() {
			panic(fmt.Sprintf("combat: fighter %q carries unknown ability %d", f.ID, a))
		}
	}
}
