package combat

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/vovakirdan/deathbattle/internal/fighter"
)

// scriptedRand replays fixed values; it panics when a script runs dry so a
// test notices unexpected rolls.
type scriptedRand struct {
	floats []float64
	ints   []int
	loop   bool
}

func (r *scriptedRand) Float64() float64 {
	if len(r.floats) == 0 {
		panic("scriptedRand: out of floats")
	}
	v := r.floats[0]
	if r.loop {
		r.floats = append(r.floats[1:], v)
	} else {
		r.floats = r.floats[1:]
	}
	return v
}

func (r *scriptedRand) IntN(n int) int {
	if len(r.ints) == 0 {
		panic("scriptedRand: out of ints")
	}
	v := r.ints[0]
	r.ints = r.ints[1:]
	if v >= n {
		panic("scriptedRand: int out of range")
	}
	return v
}

func newFighter(id string, hp, maxHP, atk, def, spd int) *fighter.Fighter {
	return &fighter.Fighter{
		ID:         id,
		Name:       id,
		HP:         hp,
		MaxHP:      maxHP,
		Attack:     atk,
		Defense:    def,
		Speed:      spd,
		CritChance: 0.1,
		Abilities:  [fighter.AbilitySlots]fighter.Ability{fighter.AlterEgoBurst, fighter.EgoShield},
	}
}

func TestScriptedBasicAttack(t *testing.T) {
	att := newFighter("att", 100, 100, 20, 5, 10)
	def := newFighter("def", 1, 100, 15, 0, 0)

	// no ability, no crit, defense roll above dodge and block windows
	rng := &scriptedRand{floats: []float64{0.5, 0.99, 0.99}}
	d := NewDuel(att, def, rng, DefaultOptions())

	if d.First() != att {
		t.Fatalf("Expected faster fighter to move first")
	}

	ev := d.Step()
	if ev.Action != ActionAttack {
		t.Errorf("Expected action attack, got %s", ev.Action)
	}
	if ev.Damage != 20 {
		t.Errorf("Expected damage 20, got %d", ev.Damage)
	}
	if ev.Crit {
		t.Error("Expected no crit")
	}
	if ev.DefenderHP != 0 || def.HP != 0 {
		t.Errorf("Expected defender hp 0, got %d", def.HP)
	}
	if ev.AttackerID != "att" || ev.DefenderID != "def" || ev.Turn != 1 {
		t.Errorf("Unexpected event header: %+v", ev)
	}

	if !d.Concluded() {
		t.Fatal("Expected duel to conclude")
	}
	res := d.Result()
	if res.Winner != att || res.Loser != def || res.Turns != 1 || res.ForcedStop {
		t.Errorf("Unexpected result: %+v", res)
	}
}

func TestCritDodgeBlock(t *testing.T) {
	tests := []struct {
		name   string
		floats []float64
		action Action
		damage int
		crit   bool
	}{
		// 20*1.8 = 36, minus floor(5/2)
		{"crit hit", []float64{0.5, 0.05, 0.99}, ActionAttack, 34, true},
		{"dodge", []float64{0.5, 0.5, 0.1}, ActionDodge, 0, false},
		{"block", []float64{0.5, 0.5, 0.2}, ActionBlock, 15, false},
		{"crit block", []float64{0.5, 0.01, 0.29}, ActionBlock, 31, true},
		{"full hit", []float64{0.5, 0.5, 0.3}, ActionAttack, 18, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			att := newFighter("att", 100, 100, 20, 5, 10)
			def := newFighter("def", 100, 100, 15, 5, 0)
			d := NewDuel(att, def, &scriptedRand{floats: tt.floats}, DefaultOptions())

			ev := d.Step()
			if ev.Action != tt.action || ev.Damage != tt.damage || ev.Crit != tt.crit {
				t.Errorf("Expected %s/%d/%v, got %s/%d/%v",
					tt.action, tt.damage, tt.crit, ev.Action, ev.Damage, ev.Crit)
			}
			if def.HP != 100-tt.damage {
				t.Errorf("Expected defender hp %d, got %d", 100-tt.damage, def.HP)
			}
		})
	}
}

func TestDodgeWidensWithSpeedGap(t *testing.T) {
	def := newFighter("def", 100, 100, 15, 5, 20)
	att := newFighter("att", 100, 100, 20, 5, 10)

	// def is faster and opens; att's reply faces a 0.25 dodge window.
	rng := &scriptedRand{floats: []float64{
		0.5, 0.5, 0.1, // def attacks, att dodges
		0.5, 0.5, 0.24, // att attacks, dodge window 0.25
	}}
	d := NewDuel(def, att, rng, DefaultOptions())
	if d.First() != def {
		t.Fatal("Expected faster fighter to move first")
	}
	d.Step()
	ev := d.Step()
	if ev.AttackerID != "att" || ev.Action != ActionDodge {
		t.Errorf("Expected att's attack to be dodged, got %+v", ev)
	}
}

func TestAbilityTurnMitigation(t *testing.T) {
	att := newFighter("att", 100, 100, 20, 5, 10)
	att.Abilities = [fighter.AbilitySlots]fighter.Ability{fighter.RelicOfExo, fighter.AlterEgoBurst}
	def := newFighter("def", 100, 100, 15, 8, 0)

	rng := &scriptedRand{floats: []float64{0.1}, ints: []int{0}}
	d := NewDuel(att, def, rng, DefaultOptions())
	ev := d.Step()

	// 1.4*20 = 28, reduced by floor(8*0.3) = 2
	if ev.Action != ActionAbility || ev.Ability != fighter.RelicOfExo {
		t.Fatalf("Expected Relic of Exo, got %s/%s", ev.Action, ev.Ability)
	}
	if ev.Damage != 26 || def.HP != 74 {
		t.Errorf("Expected 26 damage, got %d (hp %d)", ev.Damage, def.HP)
	}
	if ev.Narration != "ability.relic_of_exo" {
		t.Errorf("Unexpected narration %q", ev.Narration)
	}
}

func TestUnblockableAbilitySkipsDefenseRoll(t *testing.T) {
	att := newFighter("att", 100, 100, 20, 5, 10)
	att.Abilities = [fighter.AbilitySlots]fighter.Ability{fighter.Airstrike, fighter.EgoShield}
	def := newFighter("def", 100, 100, 15, 8, 0)

	// One float for the ability roll only; a dodge or block roll would
	// exhaust the script and panic.
	rng := &scriptedRand{floats: []float64{0.1}, ints: []int{0, 2}}
	ev := NewDuel(att, def, rng, DefaultOptions()).Step()

	if !Unblockable(ev.Ability) {
		t.Fatalf("Expected an unblockable ability, got %s", ev.Ability)
	}
	// 3 bombers of floor(20*0.36) = 7, reduced by floor(8*0.5) = 4
	if ev.Action != ActionAbility || ev.Hits != 3 || ev.Damage != 17 {
		t.Errorf("Expected 3 bombers for 17 damage, got %s with %d hits for %d", ev.Action, ev.Hits, ev.Damage)
	}
}

func TestZeroDamageAbility(t *testing.T) {
	att := newFighter("att", 100, 100, 20, 5, 10)
	def := newFighter("def", 100, 100, 15, 8, 0)

	// second slot is Ego Shield
	rng := &scriptedRand{floats: []float64{0.1}, ints: []int{1}}
	d := NewDuel(att, def, rng, DefaultOptions())
	ev := d.Step()
	if ev.Ability != fighter.EgoShield || ev.Damage != 0 || def.HP != 100 {
		t.Errorf("Expected harmless Ego Shield, got %+v", ev)
	}
	if att.Defense != 15 {
		t.Errorf("Expected defense 15, got %d", att.Defense)
	}
}

func TestTurnCapForcedStop(t *testing.T) {
	a := newFighter("a", 100, 100, 10, 50, 10)
	b := newFighter("b", 100, 100, 10, 50, 5)

	// every turn: basic attack, no crit, block for 1 damage
	rng := &scriptedRand{floats: []float64{0.26}, loop: true}
	d := NewDuel(a, b, rng, DefaultOptions())

	var events []BattleEvent
	res, err := d.Run(context.Background(), func(ev BattleEvent) error {
		events = append(events, ev)
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(events) != DefaultMaxTurns || res.Turns != DefaultMaxTurns {
		t.Fatalf("Expected %d turns, got %d events/%d turns", DefaultMaxTurns, len(events), res.Turns)
	}
	for i, ev := range events {
		if ev.Turn != i+1 {
			t.Fatalf("event %d has turn %d", i, ev.Turn)
		}
		if ev.Action != ActionBlock || ev.Damage != 1 {
			t.Fatalf("turn %d: expected block for 1, got %s/%d", ev.Turn, ev.Action, ev.Damage)
		}
	}
	// a moved 28 times, b 27 times
	if a.HP != 73 || b.HP != 72 {
		t.Errorf("Expected hp 73/72, got %d/%d", a.HP, b.HP)
	}
	if !res.ForcedStop || res.Winner != a || res.Loser != b {
		t.Errorf("Expected forced stop with b defeated, got %+v", res)
	}
}

func TestTurnCapTieGoesAgainstSecondMover(t *testing.T) {
	a := newFighter("a", 100, 100, 10, 50, 10)
	b := newFighter("b", 100, 100, 10, 50, 10)

	rng := &scriptedRand{floats: []float64{0.26}, loop: true}
	d := NewDuel(a, b, rng, Options{MaxTurns: 2, AbilityChance: DefaultAbilityChance})
	res, err := d.Run(context.Background(), func(BattleEvent) error { return nil })
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if a.HP != b.HP {
		t.Fatalf("Expected a tie, got %d/%d", a.HP, b.HP)
	}
	if res.Loser != b || !res.ForcedStop {
		t.Errorf("Expected b to lose the tie, got %+v", res)
	}
}

func TestRunStopsOnEmitError(t *testing.T) {
	a := newFighter("a", 100, 100, 10, 50, 10)
	b := newFighter("b", 100, 100, 10, 50, 5)
	d := NewDuel(a, b, &scriptedRand{floats: []float64{0.26}, loop: true}, DefaultOptions())

	stop := errors.New("stop")
	calls := 0
	_, err := d.Run(context.Background(), func(BattleEvent) error {
		calls++
		if calls == 3 {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) {
		t.Errorf("Expected emit error, got %v", err)
	}
	if d.Turn() != 3 || d.Concluded() {
		t.Errorf("Expected duel paused at turn 3, got turn %d concluded=%v", d.Turn(), d.Concluded())
	}
}

func TestRandomDuelsRespectFloorAndCap(t *testing.T) {
	for seed := uint64(0); seed < 300; seed++ {
		f1 := fighter.Generate("p1", "fighter-one")
		f2 := fighter.Generate("p2", "fighter-two")
		rng := rand.New(rand.NewPCG(seed, seed*7+1))
		d := NewDuel(&f1, &f2, rng, DefaultOptions())

		res, err := d.Run(context.Background(), func(ev BattleEvent) error {
			if ev.Fighter1HP < 0 || ev.Fighter2HP < 0 || ev.AttackerHP < 0 || ev.DefenderHP < 0 {
				t.Fatalf("seed %d: negative hp in %+v", seed, ev)
			}
			if ev.Fighter1HP > f1.MaxHP || ev.Fighter2HP > f2.MaxHP {
				t.Fatalf("seed %d: hp above max in %+v", seed, ev)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		if res.Turns > DefaultMaxTurns {
			t.Fatalf("seed %d: %d turns", seed, res.Turns)
		}
		if !res.ForcedStop && res.Loser.HP != 0 {
			t.Fatalf("seed %d: loser alive without forced stop", seed)
		}
		if res.ForcedStop && res.Loser.HP > res.Winner.HP {
			t.Fatalf("seed %d: forced stop picked the healthier loser", seed)
		}
	}
}

func TestStepAfterConclusionPanics(t *testing.T) {
	a := newFighter("a", 100, 100, 10, 5, 10)
	b := newFighter("b", 0, 100, 10, 5, 5)
	d := NewDuel(a, b, &scriptedRand{}, DefaultOptions())
	if !d.Concluded() {
		t.Fatal("Expected a duel with a dead fighter to start concluded")
	}
	defer func() {
		if recover() == nil {
			t.Error("Expected panic on Step after conclusion")
		}
	}()
	d.Step()
}

func TestNegativeHPPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Expected panic for negative hp")
		}
	}()
	NewDuel(newFighter("a", -1, 100, 10, 5, 10), newFighter("b", 10, 100, 10, 5, 5), &scriptedRand{}, DefaultOptions())
}
