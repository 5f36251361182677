// Package roulette implements the six-chamber elimination game.
//
// A Game is a pure state machine: it knows nothing about clocks or players'
// transport. Turn and game timeouts are enforced by whoever drives it, which
// calls Timeout when a player takes too long.
package roulette

import (
	"errors"
	"fmt"
)

// Chambers is the cylinder size.
const Chambers = 6

// Action is a player's move.
type Action string

const (
	ActionShoot     Action = "shoot"
	ActionShootSelf Action = "shoot_self"
	ActionPass      Action = "pass"
)

// ParseAction maps a move name to an Action. "skip" is accepted for pass.
func ParseAction(s string) (Action, bool) {
	switch s {
	case "shoot":
		return ActionShoot, true
	case "shoot_self", "self":
		return ActionShootSelf, true
	case "pass", "skip":
		return ActionPass, true
	}
	return "", false
}

// Cause records how the loser died.
type Cause string

const (
	CauseShot     Cause = "shot"
	CauseShotSelf Cause = "shot_self"
)

var (
	ErrNotYourTurn     = errors.New("roulette: not your turn")
	ErrShootSelfLocked = errors.New("roulette: cannot shoot self twice in a row")
	ErrGameOver        = errors.New("roulette: game is over")
	ErrUnknownAction   = errors.New("roulette: unknown action")
)

// Rand picks the bullet's chamber.
type Rand interface {
	IntN(n int) int
}

// RoundEvent describes one resolved move or timeout.
type RoundEvent struct {
	// Round counts player moves; timeouts do not advance it.
	Round      int
	PlayerID   string
	OpponentID string
	Action     Action

	// Chamber is the 1-based chamber the move was made on.
	Chamber int
	Fired   bool
	// BonusTurn is set when the player survived a self-shot and moves again.
	BonusTurn bool
	TimedOut  bool

	// NextPlayerID is empty once the game is over.
	NextPlayerID string
	Narration    string
}

// Result is the final state of a finished game.
type Result struct {
	WinnerID string
	LoserID  string
	Turns    int
	Chamber  int
	Cause    Cause
}

// State is a read-only view for whoever picks the next move.
type State struct {
	Player       string
	Opponent     string
	Chamber      int
	Round        int
	BonusTurn    bool
	CanShootSelf bool
}

// Game is one elimination match between two players.
type Game struct {
	players [2]string
	current int

	bullet int
	slot   int
	bonus  bool
	turns  int

	over   bool
	result Result
}

// New loads the cylinder and hands the gun to inviter.
func New(inviter, target string, rng Rand) *Game {
	if inviter == target {
		panic("roulette: a player cannot face themself")
	}
	bullet := rng.IntN(Chambers)
	if bullet < 0 || bullet >= Chambers {
		panic(fmt.Sprintf("roulette: bullet chamber %d out of range", bullet))
	}
	return &Game{
		players: [2]string{inviter, target},
		bullet:  bullet,
	}
}

// Current returns the player holding the gun.
func (g *Game) Current() string { return g.players[g.current] }

// Opponent returns the player waiting.
func (g *Game) Opponent() string { return g.players[1-g.current] }

// Chamber returns the 1-based chamber that fires next.
func (g *Game) Chamber() int { return g.slot + 1 }

// Turns returns how many moves have been made.
func (g *Game) Turns() int { return g.turns }

// Over reports whether someone has been shot.
func (g *Game) Over() bool { return g.over }

// Result returns the outcome. Only valid once Over is true.
func (g *Game) Result() Result {
	if !g.over {
		panic("roulette: result requested before the game ended")
	}
	return g.result
}

// State returns a snapshot for the current player.
func (g *Game) State() State {
	return State{
		Player:       g.Current(),
		Opponent:     g.Opponent(),
		Chamber:      g.Chamber(),
		Round:        g.turns,
		BonusTurn:    g.bonus,
		CanShootSelf: !g.bonus,
	}
}

// Play resolves a move by player.
func (g *Game) Play(player string, a Action) (RoundEvent, error) {
	if g.over {
		return RoundEvent{}, ErrGameOver
	}
	if player != g.Current() {
		return RoundEvent{}, ErrNotYourTurn
	}
	switch a {
	case ActionShoot, ActionPass:
	case ActionShootSelf:
		if g.bonus {
			return RoundEvent{}, ErrShootSelfLocked
		}
	default:
		return RoundEvent{}, fmt.Errorf("%w: %q", ErrUnknownAction, a)
	}

	g.turns++
	ev := RoundEvent{
		Round:      g.turns,
		PlayerID:   g.Current(),
		OpponentID: g.Opponent(),
		Action:     a,
		Chamber:    g.Chamber(),
	}

	switch a {
	case ActionShoot:
		if g.slot == g.bullet {
			ev.Fired = true
			ev.Narration = "roulette.shoot.death"
			g.finish(g.Current(), g.Opponent(), CauseShot)
			break
		}
		ev.Narration = "roulette.shoot.click"
		g.slot++
		g.pass()
	case ActionShootSelf:
		if g.slot == g.bullet {
			ev.Fired = true
			ev.Narration = "roulette.shoot_self.death"
			g.finish(g.Opponent(), g.Current(), CauseShotSelf)
			break
		}
		ev.Narration = "roulette.shoot_self.click"
		g.slot++
		g.bonus = true
		ev.BonusTurn = true
	case ActionPass:
		ev.Narration = "roulette.pass"
		g.pass()
	}

	if !g.over {
		ev.NextPlayerID = g.Current()
	}
	return ev, nil
}

// Timeout passes the gun after the current player ran out of time.
func (g *Game) Timeout() (RoundEvent, error) {
	if g.over {
		return RoundEvent{}, ErrGameOver
	}
	ev := RoundEvent{
		Round:      g.turns,
		PlayerID:   g.Current(),
		OpponentID: g.Opponent(),
		Chamber:    g.Chamber(),
		TimedOut:   true,
		Narration:  "roulette.timeout",
	}
	g.pass()
	ev.NextPlayerID = g.Current()
	return ev, nil
}

func (g *Game) pass() {
	g.current = 1 - g.current
	g.bonus = false
}

func (g *Game) finish(winner, loser string, cause Cause) {
	g.over = true
	g.result = Result{
		WinnerID: winner,
		LoserID:  loser,
		Turns:    g.turns,
		Chamber:  g.slot + 1,
		Cause:    cause,
	}
}
