package roulette

import (
	"fmt"
	"sort"
)

// Strategy picks moves for an automated player.
type Strategy interface {
	Choose(s State) Action
}

// StrategyFunc adapts a function to Strategy.
type StrategyFunc func(s State) Action

func (f StrategyFunc) Choose(s State) Action { return f(s) }

// Reckless always fires at the opponent.
var Reckless = StrategyFunc(func(State) Action { return ActionShoot })

// Gambler fires at itself whenever allowed to earn the bonus turn.
var Gambler = StrategyFunc(func(s State) Action {
	if s.CanShootSelf {
		return ActionShootSelf
	}
	return ActionShoot
})

// Random picks uniformly among the legal moves.
func Random(rng Rand) Strategy {
	return StrategyFunc(func(s State) Action {
		moves := []Action{ActionShoot, ActionPass}
		if s.CanShootSelf {
			moves = append(moves, ActionShootSelf)
		}
		return moves[rng.IntN(len(moves))]
	})
}

// ParseStrategy resolves a strategy by name. rng is only used by "random".
func ParseStrategy(name string, rng Rand) (Strategy, error) {
	switch name {
	case "reckless":
		return Reckless, nil
	case "gambler":
		return Gambler, nil
	case "random":
		return Random(rng), nil
	}
	return nil, fmt.Errorf("roulette: unknown strategy %q (want one of %v)", name, StrategyNames())
}

// StrategyNames lists the names ParseStrategy accepts.
func StrategyNames() []string {
	names := []string{"reckless", "gambler", "random"}
	sort.Strings(names)
	return names
}
