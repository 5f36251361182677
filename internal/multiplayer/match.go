package multiplayer

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vovakirdan/deathbattle/internal/combat"
	"github.com/vovakirdan/deathbattle/internal/roulette"
)

// ErrMovesClosed is returned when the move channel closes mid-game.
var ErrMovesClosed = errors.New("multiplayer: move channel closed")

// Pacer imposes the delay between duel turns. Turn 0 is the wait before the
// first turn.
type Pacer interface {
	Wait(ctx context.Context, turn int) error
}

// PacerFunc adapts a function to Pacer.
type PacerFunc func(ctx context.Context, turn int) error

func (f PacerFunc) Wait(ctx context.Context, turn int) error { return f(ctx, turn) }

// NoPacing runs turns back to back.
var NoPacing = PacerFunc(func(context.Context, int) error { return nil })

// FixedPacing waits start before the first turn and perTurn between turns.
func FixedPacing(start, perTurn time.Duration) Pacer {
	return PacerFunc(func(ctx context.Context, turn int) error {
		d := perTurn
		if turn == 0 {
			d = start
		}
		if d <= 0 {
			return nil
		}
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-t.C:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}

// duelMatch drives a combat.Duel, forwarding each turn as it resolves.
type duelMatch struct {
	id    SessionID
	duel  *combat.Duel
	sink  EventSink
	pacer Pacer
	span  trace.Span
}

func (m *duelMatch) run(ctx context.Context) (combat.Result, error) {
	if err := m.pacer.Wait(ctx, 0); err != nil {
		return combat.Result{}, err
	}
	for !m.duel.Concluded() {
		ev := m.duel.Step()
		m.span.AddEvent("turn", trace.WithAttributes(
			attribute.Int("turn", ev.Turn),
			attribute.String("attacker", ev.AttackerID),
			attribute.String("action", string(ev.Action)),
			attribute.String("ability", abilityName(ev)),
			attribute.Int("damage", ev.Damage),
		))
		m.sink.Send(TurnEvent{SessionID: m.id, Battle: ev})

		if m.duel.Concluded() {
			break
		}
		if err := m.pacer.Wait(ctx, ev.Turn); err != nil {
			return combat.Result{}, err
		}
	}
	return m.duel.Result(), nil
}

func abilityName(ev combat.BattleEvent) string {
	if ev.Action != combat.ActionAbility {
		return ""
	}
	return ev.Ability.String()
}

// eliminationMatch drives a roulette.Game from submitted moves, passing the
// gun when a player runs out of time.
type eliminationMatch struct {
	id          SessionID
	game        *roulette.Game
	moves       <-chan Move
	sink        EventSink
	span        trace.Span
	turnTimeout time.Duration
	deadline    time.Time
}

// run returns StatusCompleted once someone is shot or StatusGameTimedOut when
// the game is still going at the deadline.
func (m *eliminationMatch) run(ctx context.Context) (Status, error) {
	gameTimer := time.NewTimer(time.Until(m.deadline))
	defer gameTimer.Stop()
	turnTimer := time.NewTimer(m.turnTimeout)
	defer turnTimer.Stop()

	m.announceTurn()
	for !m.game.Over() {
		select {
		case mv, ok := <-m.moves:
			if !ok {
				return 0, ErrMovesClosed
			}
			ev, err := m.game.Play(string(mv.Player), mv.Action)
			if err != nil {
				m.sink.Send(MoveRejectedEvent{SessionID: m.id, Player: mv.Player, Action: mv.Action, Err: err})
				continue
			}
			m.record(ev)
			if !m.game.Over() {
				resetTimer(turnTimer, m.turnTimeout)
				m.announceTurn()
			}

		case <-turnTimer.C:
			ev, err := m.game.Timeout()
			if err != nil {
				return 0, err
			}
			m.record(ev)
			turnTimer.Reset(m.turnTimeout)
			m.announceTurn()

		case <-gameTimer.C:
			m.span.AddEvent("game timeout")
			return StatusGameTimedOut, nil

		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	return StatusCompleted, nil
}

func (m *eliminationMatch) announceTurn() {
	m.sink.Send(YourMoveEvent{
		SessionID: m.id,
		State:     m.game.State(),
		Deadline:  time.Now().Add(m.turnTimeout),
	})
}

func (m *eliminationMatch) record(ev roulette.RoundEvent) {
	m.span.AddEvent("round", trace.WithAttributes(
		attribute.Int("round", ev.Round),
		attribute.String("player", ev.PlayerID),
		attribute.String("action", string(ev.Action)),
		attribute.Int("chamber", ev.Chamber),
		attribute.Bool("fired", ev.Fired),
		attribute.Bool("timed_out", ev.TimedOut),
	))
	m.sink.Send(RoundEvent{SessionID: m.id, Round: ev})
}

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}
