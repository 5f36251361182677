package multiplayer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/vovakirdan/deathbattle/internal/fighter"
	"github.com/vovakirdan/deathbattle/internal/random"
	"github.com/vovakirdan/deathbattle/internal/roulette"
)

type recordingSink struct {
	mu     sync.Mutex
	events []SessionEvent
	onSend func(SessionEvent)
}

func (s *recordingSink) Send(evt SessionEvent) {
	s.mu.Lock()
	s.events = append(s.events, evt)
	s.mu.Unlock()
	if s.onSend != nil {
		s.onSend(evt)
	}
}

func (s *recordingSink) all() []SessionEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SessionEvent(nil), s.events...)
}

type memoryOutcomes struct {
	mu       sync.Mutex
	outcomes []Outcome
	err      error
}

func (m *memoryOutcomes) SaveOutcome(_ context.Context, o Outcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.outcomes = append(m.outcomes, o)
	return nil
}

func respondAll(d Decision) func(SessionEvent) {
	return func(evt SessionEvent) {
		if req, ok := evt.(ConsentRequestedEvent); ok {
			_ = req.Consent.Respond(req.Inviter, Accept)
			_ = req.Consent.Respond(req.Target, d)
		}
	}
}

func newTestCoordinator(cfg CoordinatorConfig, opts ...Option) (*Coordinator, *memoryOutcomes) {
	outcomes := &memoryOutcomes{}
	opts = append([]Option{WithOutcomeSink(outcomes), WithRandSource(random.FixedSource(7))}, opts...)
	return NewCoordinator(cfg, NewLockRegistry(), opts...), outcomes
}

func TestRunDuelCasual(t *testing.T) {
	c, outcomes := newTestCoordinator(DefaultCoordinatorConfig())
	sink := &recordingSink{}

	res, err := c.RunDuel(context.Background(), DuelRequest{
		Arena: "arena", Initiator: "watcher", Fighter1: "alice", Fighter2: "bob",
	}, sink)
	if err != nil {
		t.Fatalf("RunDuel: %v", err)
	}
	if res.Status != StatusCompleted || res.Outcome == nil || res.Consent != nil {
		t.Fatalf("Unexpected result %+v", res)
	}

	events := sink.all()
	if _, ok := events[0].(DuelStartedEvent); !ok {
		t.Fatalf("Expected DuelStartedEvent first, got %T", events[0])
	}
	end, ok := events[len(events)-1].(SessionEndedEvent)
	if !ok || end.Status != StatusCompleted || end.Outcome == nil {
		t.Fatalf("Expected SessionEndedEvent last, got %T", events[len(events)-1])
	}

	turns := 0
	for _, evt := range events[1 : len(events)-1] {
		te, ok := evt.(TurnEvent)
		if !ok {
			t.Fatalf("Unexpected event %T mid-battle", evt)
		}
		turns++
		if te.Battle.Turn != turns {
			t.Fatalf("Turn events out of order: got %d, want %d", te.Battle.Turn, turns)
		}
	}
	if turns != res.Outcome.Turns {
		t.Errorf("Expected %d turn events, got %d", res.Outcome.Turns, turns)
	}

	o := res.Outcome
	if o.WinnerID == o.LoserID || (o.WinnerID != "alice" && o.WinnerID != "bob") {
		t.Errorf("Unexpected winner/loser %s/%s", o.WinnerID, o.LoserID)
	}
	if o.WinnerHP <= 0 && !o.ForcedStop {
		t.Errorf("Winner has no hp left: %+v", o)
	}
	if o.Seed != 7 || o.Kind != KindDuel || o.Ranked {
		t.Errorf("Unexpected outcome metadata %+v", o)
	}

	if len(outcomes.outcomes) != 1 || outcomes.outcomes[0].SessionID != res.SessionID {
		t.Errorf("Expected outcome to be saved once, got %+v", outcomes.outcomes)
	}
	if c.Locks().IsLocked("arena", KindDuel) || c.Locks().IsParticipantBusy("alice") {
		t.Error("Expected lock to be released after the duel")
	}
}

func TestRunDuelDeterministicWithFixedSeed(t *testing.T) {
	run := func() Outcome {
		c, _ := newTestCoordinator(DefaultCoordinatorConfig())
		res, err := c.RunDuel(context.Background(), DuelRequest{Arena: "x", Fighter1: "alice", Fighter2: "bob"}, DiscardSink)
		if err != nil {
			t.Fatal(err)
		}
		return *res.Outcome
	}
	a, b := run(), run()
	if a.WinnerID != b.WinnerID || a.Turns != b.Turns || a.WinnerHP != b.WinnerHP {
		t.Errorf("Expected identical replays, got %+v and %+v", a, b)
	}
}

func TestRunDuelRejections(t *testing.T) {
	cfg := DefaultCoordinatorConfig()
	cfg.RankedArenas = []ArenaID{"home"}
	c, _ := newTestCoordinator(cfg)

	tests := []struct {
		name   string
		req    DuelRequest
		reason Reason
	}{
		{"same fighter", DuelRequest{Arena: "home", Fighter1: "a", Fighter2: "a"}, ReasonSameParticipant},
		{"empty fighter", DuelRequest{Arena: "home", Fighter1: "a"}, ReasonMissingParticipant},
		{"ranked by outsider", DuelRequest{Arena: "home", Initiator: "c", Fighter1: "a", Fighter2: "b", Ranked: true}, ReasonNotParticipant},
		{"ranked elsewhere", DuelRequest{Arena: "away", Initiator: "a", Fighter1: "a", Fighter2: "b", Ranked: true}, ReasonRankedNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &recordingSink{}
			res, err := c.RunDuel(context.Background(), tt.req, sink)
			if !IsRejection(err, tt.reason) {
				t.Errorf("Expected rejection %q, got %v", tt.reason, err)
			}
			if res.Status != StatusRejected || res.Reason != tt.reason {
				t.Errorf("Expected rejected result, got %+v", res)
			}
			events := sink.all()
			if len(events) != 1 {
				t.Fatalf("Expected only the end event, got %d events", len(events))
			}
			end, ok := events[0].(SessionEndedEvent)
			if !ok || end.Status != StatusRejected || end.Reason != tt.reason || end.Err == nil {
				t.Errorf("Expected rejected SessionEndedEvent, got %+v", events[0])
			}
			if c.Locks().Len() != 0 {
				t.Error("Rejected request left a lock behind")
			}
		})
	}
}

func TestRunDuelBusy(t *testing.T) {
	c, _ := newTestCoordinator(DefaultCoordinatorConfig())
	c.Locks().Acquire("arena", KindDuel, []ParticipantID{"x", "y"})
	c.Locks().Acquire("other", KindElimination, []ParticipantID{"bob", "z"})

	tests := []struct {
		name   string
		req    DuelRequest
		reason Reason
	}{
		{"arena held", DuelRequest{Arena: "arena", Fighter1: "alice", Fighter2: "carol"}, ReasonArenaBusy},
		{"participant held", DuelRequest{Arena: "free", Fighter1: "alice", Fighter2: "bob"}, ReasonParticipantBusy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &recordingSink{}
			res, err := c.RunDuel(context.Background(), tt.req, sink)
			if err != nil {
				t.Fatalf("Expected busy without an error, got %v", err)
			}
			if res.Status != StatusBusy || res.Reason != tt.reason {
				t.Errorf("Expected busy with %q, got %+v", tt.reason, res)
			}
			events := sink.all()
			if len(events) != 1 {
				t.Fatalf("Expected only the end event, got %d events", len(events))
			}
			if end, ok := events[0].(SessionEndedEvent); !ok || end.Status != StatusBusy || end.Reason != tt.reason {
				t.Errorf("Expected busy SessionEndedEvent, got %+v", events[0])
			}
		})
	}
}

func TestRunDuelRankedConsent(t *testing.T) {
	c, outcomes := newTestCoordinator(DefaultCoordinatorConfig())
	sink := &recordingSink{onSend: respondAll(Accept)}

	res, err := c.RunDuel(context.Background(), DuelRequest{
		Arena: "arena", Initiator: "alice", Fighter1: "alice", Fighter2: "bob", Ranked: true,
	}, sink)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != StatusCompleted || res.Consent == nil || !res.Consent.OK() {
		t.Fatalf("Unexpected result %+v", res)
	}

	events := sink.all()
	if _, ok := events[0].(ConsentRequestedEvent); !ok {
		t.Fatalf("Expected consent request first, got %T", events[0])
	}
	if _, ok := events[1].(ConsentResolvedEvent); !ok {
		t.Fatalf("Expected consent resolution second, got %T", events[1])
	}
	started, ok := events[2].(DuelStartedEvent)
	if !ok {
		t.Fatalf("Expected duel start third, got %T", events[2])
	}
	if started.Fighter1.Aura != fighter.RankedScale || started.Fighter2.Aura != fighter.RankedScale {
		t.Errorf("Expected ranked scale, got %d/%d", started.Fighter1.Aura, started.Fighter2.Aura)
	}
	if !outcomes.outcomes[0].Ranked {
		t.Error("Expected ranked outcome")
	}
}

func TestRunDuelRankedDeclined(t *testing.T) {
	c, outcomes := newTestCoordinator(DefaultCoordinatorConfig())
	sink := &recordingSink{onSend: respondAll(Decline)}

	res, err := c.RunDuel(context.Background(), DuelRequest{
		Arena: "arena", Initiator: "bob", Fighter1: "alice", Fighter2: "bob", Ranked: true,
	}, sink)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != StatusDeclined || res.Outcome != nil || res.Consent.DeclinedBy != "bob" {
		t.Errorf("Unexpected result %+v", res)
	}
	if len(outcomes.outcomes) != 0 {
		t.Error("Declined session saved an outcome")
	}
	if c.Locks().IsLocked("arena", KindDuel) {
		t.Error("Declined session kept its lock")
	}
	events := sink.all()
	if end, ok := events[len(events)-1].(SessionEndedEvent); !ok || end.Status != StatusDeclined {
		t.Errorf("Expected declined SessionEndedEvent last, got %+v", events[len(events)-1])
	}
}

func TestRunDuelConsentTimeout(t *testing.T) {
	cfg := DefaultCoordinatorConfig()
	cfg.ConsentTimeout = 20 * time.Millisecond
	c, _ := newTestCoordinator(cfg)

	res, err := c.RunDuel(context.Background(), DuelRequest{
		Arena: "arena", Initiator: "alice", Fighter1: "alice", Fighter2: "bob", Ranked: true,
	}, DiscardSink)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != StatusConsentTimedOut {
		t.Errorf("Expected consent timeout, got %s", res.Status)
	}
	if c.Locks().Len() != 0 {
		t.Error("Timed out session kept its lock")
	}
}

func TestRunDuelReleasesLockOnPanic(t *testing.T) {
	c, _ := newTestCoordinator(DefaultCoordinatorConfig())
	sink := SinkFunc(func(evt SessionEvent) {
		if _, ok := evt.(TurnEvent); ok {
			panic("presenter exploded")
		}
	})

	func() {
		defer func() {
			if p := recover(); p != "presenter exploded" {
				t.Errorf("Expected panic to propagate, got %v", p)
			}
		}()
		_, _ = c.RunDuel(context.Background(), DuelRequest{Arena: "arena", Fighter1: "alice", Fighter2: "bob"}, sink)
	}()

	if c.Locks().IsLocked("arena", KindDuel) || c.Locks().IsParticipantBusy("alice") {
		t.Error("Expected lock released after panic")
	}
}

func TestRunDuelPacerError(t *testing.T) {
	stop := errors.New("stop")
	pacer := PacerFunc(func(_ context.Context, turn int) error {
		if turn == 2 {
			return stop
		}
		return nil
	})
	c, outcomes := newTestCoordinator(DefaultCoordinatorConfig(), WithPacer(pacer))
	sink := &recordingSink{}

	res, err := c.RunDuel(context.Background(), DuelRequest{Arena: "arena", Fighter1: "alice", Fighter2: "bob"}, sink)
	if !errors.Is(err, stop) {
		t.Fatalf("Expected pacer error, got %v", err)
	}
	if res.Status != StatusFailed {
		t.Errorf("Expected failed status, got %s", res.Status)
	}
	events := sink.all()
	end, ok := events[len(events)-1].(SessionEndedEvent)
	if !ok || end.Status != StatusFailed || !errors.Is(end.Err, stop) {
		t.Errorf("Expected failed SessionEndedEvent last, got %+v", events[len(events)-1])
	}
	if len(outcomes.outcomes) != 0 || c.Locks().Len() != 0 {
		t.Error("Aborted session left an outcome or lock behind")
	}
}

func TestRunDuelSaveError(t *testing.T) {
	c, outcomes := newTestCoordinator(DefaultCoordinatorConfig())
	outcomes.err = errors.New("disk full")

	res, err := c.RunDuel(context.Background(), DuelRequest{Arena: "arena", Fighter1: "alice", Fighter2: "bob"}, DiscardSink)
	if err == nil || !errors.Is(err, outcomes.err) {
		t.Fatalf("Expected save error, got %v", err)
	}
	if res.Status != StatusCompleted || res.Outcome == nil {
		t.Errorf("Expected the result despite the save error, got %+v", res)
	}
}

func TestRunDuelNamerErrorEndsSession(t *testing.T) {
	lookup := errors.New("directory offline")
	c, _ := newTestCoordinator(DefaultCoordinatorConfig(),
		WithNamer(NamerFunc(func(context.Context, ParticipantID) (string, error) { return "", lookup })))
	sink := &recordingSink{}

	res, err := c.RunDuel(context.Background(), DuelRequest{Arena: "arena", Fighter1: "alice", Fighter2: "bob"}, sink)
	if !errors.Is(err, lookup) {
		t.Fatalf("Expected namer error, got %v", err)
	}
	if res.Status != StatusFailed {
		t.Errorf("Expected failed status, got %s", res.Status)
	}
	events := sink.all()
	if len(events) != 1 {
		t.Fatalf("Expected only the end event, got %d events", len(events))
	}
	if end, ok := events[0].(SessionEndedEvent); !ok || end.Status != StatusFailed || !errors.Is(end.Err, lookup) {
		t.Errorf("Expected failed SessionEndedEvent, got %+v", events[0])
	}
	if c.Locks().Len() != 0 {
		t.Error("Failed session kept its lock")
	}
}

func TestConcurrentDuelsSameArena(t *testing.T) {
	c, _ := newTestCoordinator(DefaultCoordinatorConfig(),
		WithPacer(FixedPacing(20*time.Millisecond, 0)))

	var wg sync.WaitGroup
	results := make([]Result, 8)
	errs := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := DuelRequest{
				Arena:    "arena",
				Fighter1: ParticipantID(fmt.Sprintf("a%d", i)),
				Fighter2: ParticipantID(fmt.Sprintf("b%d", i)),
			}
			results[i], errs[i] = c.RunDuel(context.Background(), req, DiscardSink)
		}(i)
	}
	wg.Wait()

	completed := 0
	for i := range results {
		switch {
		case errs[i] == nil && results[i].Status == StatusCompleted:
			completed++
		case errs[i] == nil && results[i].Status == StatusBusy && results[i].Reason == ReasonArenaBusy:
		default:
			t.Errorf("duel %d: unexpected %+v / %v", i, results[i], errs[i])
		}
	}
	if completed < 1 {
		t.Error("Expected at least one duel to complete")
	}
}

func TestRunEliminationComplete(t *testing.T) {
	c, outcomes := newTestCoordinator(DefaultCoordinatorConfig())
	moves := make(chan Move, 4)
	sink := &recordingSink{onSend: func(evt SessionEvent) {
		respondAll(Accept)(evt)
		if ym, ok := evt.(YourMoveEvent); ok {
			moves <- Move{Player: ParticipantID(ym.State.Player), Action: roulette.ActionShoot}
		}
	}}

	res, err := c.RunElimination(context.Background(), EliminationRequest{
		Arena: "arena", Inviter: "alice", Target: "bob", Moves: moves,
	}, sink)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != StatusCompleted || res.Outcome == nil {
		t.Fatalf("Unexpected result %+v", res)
	}
	o := res.Outcome
	if o.Cause != roulette.CauseShot || o.Chamber < 1 || o.Chamber > roulette.Chambers || o.Turns != o.Chamber {
		t.Errorf("Unexpected outcome %+v", o)
	}
	if o.WinnerName != string(o.WinnerID) {
		t.Errorf("Expected names resolved, got %+v", o)
	}

	rounds := 0
	for _, evt := range sink.all() {
		if re, ok := evt.(RoundEvent); ok {
			rounds++
			if re.Round.Round != rounds {
				t.Fatalf("Round events out of order")
			}
		}
	}
	if rounds != o.Turns {
		t.Errorf("Expected %d rounds, got %d", o.Turns, rounds)
	}
	if len(outcomes.outcomes) != 1 || c.Locks().Len() != 0 {
		t.Error("Expected one saved outcome and no locks")
	}
}

func TestRunEliminationRejectsBadMoves(t *testing.T) {
	c, _ := newTestCoordinator(DefaultCoordinatorConfig())
	moves := make(chan Move, 8)
	first := true
	sink := &recordingSink{onSend: func(evt SessionEvent) {
		respondAll(Accept)(evt)
		if ym, ok := evt.(YourMoveEvent); ok {
			if first {
				first = false
				moves <- Move{Player: ParticipantID(ym.State.Opponent), Action: roulette.ActionShoot}
			}
			moves <- Move{Player: ParticipantID(ym.State.Player), Action: roulette.ActionShoot}
		}
	}}

	_, err := c.RunElimination(context.Background(), EliminationRequest{
		Arena: "arena", Inviter: "alice", Target: "bob", Moves: moves,
	}, sink)
	if err != nil {
		t.Fatal(err)
	}
	var rejected []MoveRejectedEvent
	for _, evt := range sink.all() {
		if mr, ok := evt.(MoveRejectedEvent); ok {
			rejected = append(rejected, mr)
		}
	}
	if len(rejected) != 1 || !errors.Is(rejected[0].Err, roulette.ErrNotYourTurn) || rejected[0].Player != "bob" {
		t.Errorf("Expected one not-your-turn rejection for bob, got %+v", rejected)
	}
}

func TestRunEliminationTimeouts(t *testing.T) {
	cfg := DefaultCoordinatorConfig()
	cfg.TurnTimeout = 10 * time.Millisecond
	cfg.GameTimeout = 80 * time.Millisecond
	c, outcomes := newTestCoordinator(cfg)
	sink := &recordingSink{onSend: respondAll(Accept)}

	res, err := c.RunElimination(context.Background(), EliminationRequest{
		Arena: "arena", Inviter: "alice", Target: "bob", Moves: make(chan Move),
	}, sink)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != StatusGameTimedOut {
		t.Fatalf("Expected game timeout, got %s", res.Status)
	}

	timeouts := 0
	for _, evt := range sink.all() {
		if re, ok := evt.(RoundEvent); ok && re.Round.TimedOut {
			timeouts++
		}
	}
	if timeouts == 0 {
		t.Error("Expected turn timeouts to pass the gun")
	}
	if len(outcomes.outcomes) != 0 || c.Locks().Len() != 0 {
		t.Error("Timed out game left an outcome or lock behind")
	}
}

func TestRunEliminationKeepsLockPastLockTimeout(t *testing.T) {
	cfg := DefaultCoordinatorConfig()
	cfg.ConsentTimeout = 180 * time.Millisecond
	cfg.TurnTimeout = 40 * time.Millisecond
	cfg.GameTimeout = 400 * time.Millisecond
	locks := NewLockRegistry(WithLockTimeout(200 * time.Millisecond))
	c := NewCoordinator(cfg, locks, WithRandSource(random.FixedSource(7)))

	// Consent arrives late, so the game itself starts close to the lock timeout.
	sink := &recordingSink{onSend: func(evt SessionEvent) {
		if req, ok := evt.(ConsentRequestedEvent); ok {
			go func() {
				time.Sleep(150 * time.Millisecond)
				_ = req.Consent.Respond(req.Inviter, Accept)
				_ = req.Consent.Respond(req.Target, Accept)
			}()
		}
	}}

	type run struct {
		res Result
		err error
	}
	done := make(chan run, 1)
	start := time.Now()
	go func() {
		res, err := c.RunElimination(context.Background(), EliminationRequest{
			Arena: "arena", Inviter: "alice", Target: "bob", Moves: make(chan Move),
		}, sink)
		done <- run{res, err}
	}()

	time.Sleep(300 * time.Millisecond)
	if !locks.IsLocked("arena", KindElimination) {
		t.Error("Expected the running game to keep its arena lock")
	}
	if locks.Acquire("arena", KindElimination, []ParticipantID{"carol", "dave"}) {
		t.Error("Expected a second game in the arena to be refused")
	}
	if locks.Acquire("elsewhere", KindElimination, []ParticipantID{"alice", "carol"}) {
		t.Error("Expected a busy player to be refused")
	}

	r := <-done
	elapsed := time.Since(start)
	if r.err != nil {
		t.Fatal(r.err)
	}
	if r.res.Status != StatusGameTimedOut {
		t.Fatalf("Expected game timeout, got %s", r.res.Status)
	}
	// Counted from consent the game would run until about 550ms.
	if elapsed > 500*time.Millisecond {
		t.Errorf("Expected the game limit to count from locking, took %v", elapsed)
	}
	if locks.Len() != 0 {
		t.Error("Expected lock released")
	}
}

func TestRunEliminationRequiresConsent(t *testing.T) {
	c, _ := newTestCoordinator(DefaultCoordinatorConfig())
	sink := &recordingSink{onSend: respondAll(Decline)}

	res, err := c.RunElimination(context.Background(), EliminationRequest{
		Arena: "arena", Inviter: "alice", Target: "bob", Moves: make(chan Move),
	}, sink)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != StatusDeclined {
		t.Errorf("Expected declined, got %s", res.Status)
	}

	res, err = c.RunElimination(context.Background(), EliminationRequest{
		Arena: "arena", Inviter: "alice", Target: "alice", Moves: make(chan Move),
	}, sink)
	if !IsRejection(err, ReasonSameParticipant) || res.Status != StatusRejected {
		t.Errorf("Expected self-play rejection, got %+v / %v", res, err)
	}
}

func TestRunEliminationMovesClosed(t *testing.T) {
	c, _ := newTestCoordinator(DefaultCoordinatorConfig())
	moves := make(chan Move)
	close(moves)
	sink := &recordingSink{onSend: respondAll(Accept)}

	_, err := c.RunElimination(context.Background(), EliminationRequest{
		Arena: "arena", Inviter: "alice", Target: "bob", Moves: moves,
	}, sink)
	if !errors.Is(err, ErrMovesClosed) {
		t.Errorf("Expected ErrMovesClosed, got %v", err)
	}
	events := sink.all()
	if end, ok := events[len(events)-1].(SessionEndedEvent); !ok || end.Status != StatusFailed {
		t.Errorf("Expected failed SessionEndedEvent last, got %+v", events[len(events)-1])
	}
	if c.Locks().Len() != 0 {
		t.Error("Expected lock released")
	}
}
