package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/vovakirdan/deathbattle/internal/multiplayer"
	"github.com/vovakirdan/deathbattle/internal/random"
	"github.com/vovakirdan/deathbattle/internal/roulette"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want multiplayer.Kind
		err  bool
	}{
		{"duel", multiplayer.KindDuel, false},
		{"battle", multiplayer.KindDuel, false},
		{"roulette", multiplayer.KindElimination, false},
		{"russian", multiplayer.KindElimination, false},
		{"chess", "", true},
	}
	for _, tt := range tests {
		got, err := parseKind(tt.in)
		if (err != nil) != tt.err {
			t.Errorf("parseKind(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseKind(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestHeadlessRankedDuel(t *testing.T) {
	c := multiplayer.NewCoordinator(multiplayer.DefaultCoordinatorConfig(), multiplayer.NewLockRegistry(),
		multiplayer.WithRandSource(random.FixedSource(11)))

	var out bytes.Buffer
	req := multiplayer.DuelRequest{Arena: "local", Initiator: "alice", Fighter1: "alice", Fighter2: "bob", Ranked: true}
	res, err := c.RunDuel(context.Background(), req, multiplayer.Tee(acceptAll(), newPrinter(&out)))
	if err != nil {
		t.Fatal(err)
	}
	if err := sessionError(res); err != nil {
		t.Fatalf("Expected a completed duel, got %v", err)
	}

	text := out.String()
	for _, want := range []string{"moves first", "T01 ", "wins with", "(seed 11)"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected output to contain %q:\n%s", want, text)
		}
	}
}

func TestHeadlessRoulette(t *testing.T) {
	c := multiplayer.NewCoordinator(multiplayer.DefaultCoordinatorConfig(), multiplayer.NewLockRegistry(),
		multiplayer.WithRandSource(random.FixedSource(5)))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var out bytes.Buffer
	moves := make(chan multiplayer.Move)
	rng := random.New(6)
	sink := multiplayer.Tee(
		multiplayer.NewBot(ctx, "alice", mustStrategy(t, "gambler", rng), moves),
		multiplayer.NewBot(ctx, "bob", mustStrategy(t, "random", rng), moves),
		newPrinter(&out),
	)
	res, err := c.RunElimination(ctx, multiplayer.EliminationRequest{
		Arena: "local", Inviter: "alice", Target: "bob", Moves: moves,
	}, sink)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != multiplayer.StatusCompleted {
		t.Fatalf("Expected completed game, got %s", res.Status)
	}
	if !strings.Contains(out.String(), "survives!") {
		t.Errorf("Expected a result line, got:\n%s", out.String())
	}
}

func TestSessionError(t *testing.T) {
	if err := sessionError(multiplayer.Result{Status: multiplayer.StatusDeclined}); err == nil {
		t.Error("Expected declined session to be an error")
	}
	busy := multiplayer.Result{Status: multiplayer.StatusBusy, Reason: multiplayer.ReasonParticipantBusy}
	if err := sessionError(busy); err == nil || !strings.Contains(err.Error(), multiplayer.ReasonParticipantBusy.String()) {
		t.Errorf("Expected the busy reason in the error, got %v", err)
	}
	if err := (ended{run: context.Canceled}).err(); err != nil {
		t.Errorf("Expected cancellation to be dropped, got %v", err)
	}
	if err := (ended{res: multiplayer.Result{Status: multiplayer.StatusRejected}, run: errors.New("bad request")}).err(); err == nil || err.Error() != "bad request" {
		t.Errorf("Expected the run error, got %v", err)
	}
}

func TestWatchedSessionSeesRejection(t *testing.T) {
	c := multiplayer.NewCoordinator(multiplayer.DefaultCoordinatorConfig(), multiplayer.NewLockRegistry())
	session := multiplayer.NewChannelSession(multiplayer.NewSessionID(), 4)

	_, err := c.RunDuel(context.Background(), multiplayer.DuelRequest{Arena: "local", Fighter1: "alice", Fighter2: "alice"}, session)
	if err == nil {
		t.Fatal("Expected self-duel to be rejected")
	}
	select {
	case evt := <-session.Events():
		end, ok := evt.(multiplayer.SessionEndedEvent)
		if !ok || end.Status != multiplayer.StatusRejected {
			t.Errorf("Expected a rejected end event, got %+v", evt)
		}
	default:
		t.Fatal("Expected the view to receive an end event")
	}
}

func mustStrategy(t *testing.T, name string, rng roulette.Rand) roulette.Strategy {
	t.Helper()
	s, err := roulette.ParseStrategy(name, rng)
	if err != nil {
		t.Fatal(err)
	}
	return s
}
