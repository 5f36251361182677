package multiplayer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vovakirdan/deathbattle/internal/combat"
	"github.com/vovakirdan/deathbattle/internal/fighter"
	"github.com/vovakirdan/deathbattle/internal/random"
	"github.com/vovakirdan/deathbattle/internal/roulette"
	"github.com/vovakirdan/deathbattle/internal/telemetry"
)

// CoordinatorConfig holds configuration for the coordinator.
type CoordinatorConfig struct {
	ConsentTimeout time.Duration // How long invitees have to accept
	TurnTimeout    time.Duration // Elimination: time before the gun passes
	GameTimeout    time.Duration // Elimination: limit on the whole game

	Duel        combat.Options
	RankedScale int

	// RankedArenas restricts ranked duels to these arenas. Empty allows all.
	RankedArenas []ArenaID
}

// DefaultCoordinatorConfig returns the standard rules.
func DefaultCoordinatorConfig() CoordinatorConfig {
	return CoordinatorConfig{
		ConsentTimeout: DefaultConsentTimeout,
		TurnTimeout:    30 * time.Second,
		GameTimeout:    5 * time.Minute,
		Duel:           combat.DefaultOptions(),
		RankedScale:    fighter.RankedScale,
	}
}

// Reason classifies a rejected request.
type Reason int

const (
	ReasonSameParticipant Reason = iota
	ReasonNotParticipant
	ReasonRankedNotAllowed
	ReasonArenaBusy
	ReasonParticipantBusy
	ReasonMissingParticipant
)

func (r Reason) String() string {
	switch r {
	case ReasonSameParticipant:
		return "a participant cannot face themself"
	case ReasonNotParticipant:
		return "ranked sessions must be started by a participant"
	case ReasonRankedNotAllowed:
		return "ranked sessions are not allowed in this arena"
	case ReasonArenaBusy:
		return "a session of this kind is already running in the arena"
	case ReasonParticipantBusy:
		return "a participant is already in a session"
	case ReasonMissingParticipant:
		return "participant id is empty"
	default:
		return "rejected"
	}
}

// RejectionError is returned when a request fails validation. No lock has
// been taken when it is returned. Contention is not an error; it ends the
// call with StatusBusy instead.
type RejectionError struct {
	Kind   Kind
	Reason Reason
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("multiplayer: %s rejected: %s", e.Kind, e.Reason)
}

// IsRejection reports whether err is a RejectionError for reason.
func IsRejection(err error, reason Reason) bool {
	var rej *RejectionError
	return errors.As(err, &rej) && rej.Reason == reason
}

// DuelRequest asks for a deathbattle between Fighter1 and Fighter2.
type DuelRequest struct {
	Arena     ArenaID
	Initiator ParticipantID
	Fighter1  ParticipantID
	Fighter2  ParticipantID
	Ranked    bool
}

// EliminationRequest asks for a roulette game; Inviter holds the gun first.
type EliminationRequest struct {
	Arena   ArenaID
	Inviter ParticipantID
	Target  ParticipantID

	// Moves delivers both players' actions.
	Moves <-chan Move
}

// Result describes how RunDuel or RunElimination ended.
type Result struct {
	SessionID SessionID
	Status    Status
	// Reason is set when Status is StatusRejected or StatusBusy.
	Reason  Reason
	Consent *ConsentResult
	Outcome *Outcome
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the coordinator's logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// WithOutcomeSink sets where completed outcomes are saved.
func WithOutcomeSink(s OutcomeSink) Option {
	return func(c *Coordinator) { c.outcomes = s }
}

// WithNamer sets the identity resolver.
func WithNamer(n Namer) Option {
	return func(c *Coordinator) { c.namer = n }
}

// WithPacer sets the inter-turn delay policy for duels.
func WithPacer(p Pacer) Option {
	return func(c *Coordinator) { c.pacer = p }
}

// WithRandSource sets where session RNGs come from.
func WithRandSource(s random.Source) Option {
	return func(c *Coordinator) { c.rngs = s }
}

// WithTracer sets the tracer for session spans.
func WithTracer(t trace.Tracer) Option {
	return func(c *Coordinator) { c.tracer = t }
}

// Coordinator runs sessions against a shared LockRegistry. Each Run call
// occupies the calling goroutine until the session ends; independent
// sessions may run concurrently.
type Coordinator struct {
	config   CoordinatorConfig
	locks    *LockRegistry
	outcomes OutcomeSink // Optional, can be nil
	namer    Namer
	pacer    Pacer
	rngs     random.Source
	logger   *log.Logger
	tracer   trace.Tracer
}

// NewCoordinator creates a coordinator using locks for exclusion.
func NewCoordinator(cfg CoordinatorConfig, locks *LockRegistry, opts ...Option) *Coordinator {
	if cfg.ConsentTimeout <= 0 {
		cfg.ConsentTimeout = DefaultConsentTimeout
	}
	def := DefaultCoordinatorConfig()
	if cfg.TurnTimeout <= 0 {
		cfg.TurnTimeout = def.TurnTimeout
	}
	if cfg.GameTimeout <= 0 {
		cfg.GameTimeout = def.GameTimeout
	}
	if cfg.Duel.MaxTurns <= 0 {
		cfg.Duel = def.Duel
	}

	c := &Coordinator{
		config: cfg,
		locks:  locks,
		namer:  IdentityNamer,
		pacer:  NoPacing,
		rngs:   random.CryptoSource{},
		logger: log.New(io.Discard),
		tracer: telemetry.Tracer("multiplayer"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Locks returns the registry, for read-only pre-checks by callers.
func (c *Coordinator) Locks() *LockRegistry {
	return c.locks
}

// RunDuel validates req, locks the arena, collects consent for ranked duels,
// then fights to completion, sending every event to sink as it happens.
func (c *Coordinator) RunDuel(ctx context.Context, req DuelRequest, sink EventSink) (Result, error) {
	id := NewSessionID()
	res := Result{SessionID: id}
	if err := c.validateDuel(req); err != nil {
		c.logger.Info("duel rejected", "session", id, "arena", req.Arena, "initiator", req.Initiator, "reason", err)
		return c.reject(sink, res, err)
	}
	participants := []ParticipantID{req.Fighter1, req.Fighter2}
	lease, reason, ok := c.acquire(req.Arena, KindDuel, participants)
	if !ok {
		c.logger.Info("duel busy", "session", id, "arena", req.Arena, "reason", reason)
		return c.busy(sink, res, reason)
	}
	defer c.release(lease, id, req.Arena, KindDuel)
	sink = leaseSink{EventSink: sink, lease: lease}

	ctx, span := c.tracer.Start(ctx, "session.duel", trace.WithAttributes(
		attribute.String("session", string(id)),
		attribute.String("arena", string(req.Arena)),
		attribute.Bool("ranked", req.Ranked),
	))
	defer span.End()

	c.logger.Info("duel starting", "session", id, "arena", req.Arena,
		"fighter1", req.Fighter1, "fighter2", req.Fighter2, "ranked", req.Ranked)

	if req.Ranked {
		cr := c.collectConsent(ctx, id, KindDuel, true, req.Fighter1, req.Fighter2, sink)
		res.Consent = &cr
		if !cr.OK() {
			res.Status = consentStatus(cr)
			sink.Send(SessionEndedEvent{SessionID: id, Status: res.Status})
			span.SetAttributes(attribute.String("status", res.Status.String()))
			return res, nil
		}
	}

	names, err := c.resolveNames(ctx, req.Fighter1, req.Fighter2)
	if err != nil {
		return c.fail(span, sink, res, err)
	}
	rng, seed, err := c.rngs.NewRand()
	if err != nil {
		return c.fail(span, sink, res, fmt.Errorf("seed duel: %w", err))
	}

	var opts []fighter.Option
	if req.Ranked {
		opts = append(opts, fighter.WithScale(c.config.RankedScale))
	}
	f1 := fighter.Generate(string(req.Fighter1), names[0], opts...)
	f2 := fighter.Generate(string(req.Fighter2), names[1], opts...)

	duel := combat.NewDuel(&f1, &f2, rng, c.config.Duel)
	sink.Send(DuelStartedEvent{
		SessionID: id,
		Arena:     req.Arena,
		Ranked:    req.Ranked,
		Fighter1:  f1,
		Fighter2:  f2,
		FirstID:   duel.First().ID,
		Seed:      seed,
	})

	m := &duelMatch{id: id, duel: duel, sink: sink, pacer: c.pacer, span: span}
	battle, err := m.run(ctx)
	if err != nil {
		return c.fail(span, sink, res, err)
	}

	out := Outcome{
		SessionID:   id,
		Arena:       req.Arena,
		Kind:        KindDuel,
		Ranked:      req.Ranked,
		WinnerID:    ParticipantID(battle.Winner.ID),
		LoserID:     ParticipantID(battle.Loser.ID),
		WinnerName:  battle.Winner.Name,
		LoserName:   battle.Loser.Name,
		Turns:       battle.Turns,
		WinnerHP:    battle.Winner.HP,
		WinnerMaxHP: battle.Winner.MaxHP,
		ForcedStop:  battle.ForcedStop,
		Seed:        seed,
		FinishedAt:  time.Now(),
	}
	return c.complete(ctx, span, res, out, sink)
}

// RunElimination validates req, locks the arena, collects consent from both
// players and then plays roulette using moves from req.Moves.
func (c *Coordinator) RunElimination(ctx context.Context, req EliminationRequest, sink EventSink) (Result, error) {
	if req.Moves == nil {
		panic("multiplayer: elimination request without a move channel")
	}
	id := NewSessionID()
	res := Result{SessionID: id}
	if err := validatePair(KindElimination, req.Inviter, req.Target); err != nil {
		c.logger.Info("elimination rejected", "session", id, "arena", req.Arena, "inviter", req.Inviter, "reason", err)
		return c.reject(sink, res, err)
	}
	participants := []ParticipantID{req.Inviter, req.Target}
	lease, reason, ok := c.acquire(req.Arena, KindElimination, participants)
	if !ok {
		c.logger.Info("elimination busy", "session", id, "arena", req.Arena, "reason", reason)
		return c.busy(sink, res, reason)
	}
	// The game limit covers consent too, counted from the moment of locking.
	deadline := time.Now().Add(c.config.GameTimeout)
	defer c.release(lease, id, req.Arena, KindElimination)
	sink = leaseSink{EventSink: sink, lease: lease}

	ctx, span := c.tracer.Start(ctx, "session.elimination", trace.WithAttributes(
		attribute.String("session", string(id)),
		attribute.String("arena", string(req.Arena)),
	))
	defer span.End()

	c.logger.Info("elimination starting", "session", id, "arena", req.Arena,
		"inviter", req.Inviter, "target", req.Target)

	cr := c.collectConsent(ctx, id, KindElimination, false, req.Inviter, req.Target, sink)
	res.Consent = &cr
	if !cr.OK() {
		res.Status = consentStatus(cr)
		sink.Send(SessionEndedEvent{SessionID: id, Status: res.Status})
		span.SetAttributes(attribute.String("status", res.Status.String()))
		return res, nil
	}

	names, err := c.resolveNames(ctx, req.Inviter, req.Target)
	if err != nil {
		return c.fail(span, sink, res, err)
	}
	rng, seed, err := c.rngs.NewRand()
	if err != nil {
		return c.fail(span, sink, res, fmt.Errorf("seed elimination: %w", err))
	}

	game := roulette.New(string(req.Inviter), string(req.Target), rng)
	sink.Send(EliminationStartedEvent{
		SessionID:   id,
		Arena:       req.Arena,
		Inviter:     req.Inviter,
		Target:      req.Target,
		Names:       map[ParticipantID]string{req.Inviter: names[0], req.Target: names[1]},
		TurnTimeout: c.config.TurnTimeout,
	})

	m := &eliminationMatch{
		id:          id,
		game:        game,
		moves:       req.Moves,
		sink:        sink,
		span:        span,
		turnTimeout: c.config.TurnTimeout,
		deadline:    deadline,
	}
	status, err := m.run(ctx)
	if err != nil {
		return c.fail(span, sink, res, err)
	}
	if status != StatusCompleted {
		c.logger.Info("elimination timed out", "session", id, "turns", game.Turns())
		res.Status = status
		sink.Send(SessionEndedEvent{SessionID: id, Status: status})
		span.SetAttributes(attribute.String("status", status.String()))
		return res, nil
	}

	gr := game.Result()
	name := func(p string) string {
		if ParticipantID(p) == req.Inviter {
			return names[0]
		}
		return names[1]
	}
	out := Outcome{
		SessionID:  id,
		Arena:      req.Arena,
		Kind:       KindElimination,
		WinnerID:   ParticipantID(gr.WinnerID),
		LoserID:    ParticipantID(gr.LoserID),
		WinnerName: name(gr.WinnerID),
		LoserName:  name(gr.LoserID),
		Turns:      gr.Turns,
		Chamber:    gr.Chamber,
		Cause:      gr.Cause,
		Seed:       seed,
		FinishedAt: time.Now(),
	}
	return c.complete(ctx, span, res, out, sink)
}

func (c *Coordinator) validateDuel(req DuelRequest) error {
	if err := validatePair(KindDuel, req.Fighter1, req.Fighter2); err != nil {
		return err
	}
	if !req.Ranked {
		return nil
	}
	if req.Initiator != req.Fighter1 && req.Initiator != req.Fighter2 {
		return &RejectionError{Kind: KindDuel, Reason: ReasonNotParticipant}
	}
	if len(c.config.RankedArenas) > 0 && !slices.Contains(c.config.RankedArenas, req.Arena) {
		return &RejectionError{Kind: KindDuel, Reason: ReasonRankedNotAllowed}
	}
	return nil
}

func validatePair(kind Kind, a, b ParticipantID) error {
	if a == "" || b == "" {
		return &RejectionError{Kind: kind, Reason: ReasonMissingParticipant}
	}
	if a == b {
		return &RejectionError{Kind: kind, Reason: ReasonSameParticipant}
	}
	return nil
}

// acquire takes the session lock. When it cannot, the reason names what is
// held, whether that was visible up front or lost in a race with a
// concurrent acquire.
func (c *Coordinator) acquire(arena ArenaID, kind Kind, participants []ParticipantID) (*Lease, Reason, bool) {
	if reason, held := c.contention(arena, kind, participants); held {
		return nil, reason, false
	}
	if lease, ok := c.locks.AcquireLease(arena, kind, participants); ok {
		return lease, 0, true
	}
	if reason, held := c.contention(arena, kind, participants); held {
		return nil, reason, false
	}
	// The winner of the race already finished.
	return nil, ReasonArenaBusy, false
}

func (c *Coordinator) contention(arena ArenaID, kind Kind, participants []ParticipantID) (Reason, bool) {
	if c.locks.IsLocked(arena, kind) {
		return ReasonArenaBusy, true
	}
	for _, p := range participants {
		if c.locks.IsParticipantBusy(p) {
			return ReasonParticipantBusy, true
		}
	}
	return 0, false
}

// reject ends a request that failed validation.
func (c *Coordinator) reject(sink EventSink, res Result, err error) (Result, error) {
	res.Status = StatusRejected
	var rej *RejectionError
	if errors.As(err, &rej) {
		res.Reason = rej.Reason
	}
	sink.Send(SessionEndedEvent{SessionID: res.SessionID, Status: res.Status, Reason: res.Reason, Err: err})
	return res, err
}

// busy ends a request whose arena or participants are held elsewhere.
func (c *Coordinator) busy(sink EventSink, res Result, reason Reason) (Result, error) {
	res.Status = StatusBusy
	res.Reason = reason
	sink.Send(SessionEndedEvent{SessionID: res.SessionID, Status: res.Status, Reason: reason})
	return res, nil
}

// leaseSink renews the session lock around every event, so a session that
// keeps producing events never loses its lock to the expiry sweep.
type leaseSink struct {
	EventSink
	lease *Lease
}

func (s leaseSink) Send(evt SessionEvent) {
	s.lease.Renew()
	s.EventSink.Send(evt)
	// Send may block on a slow reader.
	s.lease.Renew()
}

// release frees the lock. It runs on every exit path, including panics,
// which are logged and re-raised once the lock is gone.
func (c *Coordinator) release(lease *Lease, id SessionID, arena ArenaID, kind Kind) {
	lease.Release()
	if p := recover(); p != nil {
		c.logger.Error("session aborted", "session", id, "arena", arena, "kind", kind, "panic", p)
		panic(p)
	}
	c.logger.Debug("released lock", "session", id, "arena", arena, "kind", kind)
}

func (c *Coordinator) collectConsent(ctx context.Context, id SessionID, kind Kind, ranked bool, inviter, target ParticipantID, sink EventSink) ConsentResult {
	consent := NewConsent(inviter, target, c.config.ConsentTimeout)
	sink.Send(ConsentRequestedEvent{
		SessionID: id,
		Kind:      kind,
		Ranked:    ranked,
		Inviter:   inviter,
		Target:    target,
		Deadline:  consent.Deadline(),
		Consent:   consent,
	})

	cr := consent.Wait(ctx)
	c.logger.Debug("consent resolved", "session", id, "status", cr.Status, "declined_by", cr.DeclinedBy)
	sink.Send(ConsentResolvedEvent{SessionID: id, Result: cr})
	return cr
}

func consentStatus(cr ConsentResult) Status {
	if cr.Status == ConsentDeclined {
		return StatusDeclined
	}
	return StatusConsentTimedOut
}

func (c *Coordinator) resolveNames(ctx context.Context, a, b ParticipantID) ([2]string, error) {
	var names [2]string
	for i, id := range []ParticipantID{a, b} {
		name, err := c.namer.DisplayName(ctx, id)
		if err != nil {
			return names, fmt.Errorf("resolve name for %s: %w", id, err)
		}
		names[i] = name
	}
	return names, nil
}

func (c *Coordinator) complete(ctx context.Context, span trace.Span, res Result, out Outcome, sink EventSink) (Result, error) {
	res.Status = StatusCompleted
	res.Outcome = &out

	span.SetAttributes(
		attribute.String("status", res.Status.String()),
		attribute.String("winner", string(out.WinnerID)),
		attribute.Int("turns", out.Turns),
		attribute.Bool("forced_stop", out.ForcedStop),
	)
	c.logger.Info("session finished", "session", out.SessionID, "kind", out.Kind,
		"winner", out.WinnerID, "loser", out.LoserID, "turns", out.Turns, "forced_stop", out.ForcedStop)

	var err error
	if c.outcomes != nil {
		if saveErr := c.outcomes.SaveOutcome(ctx, out); saveErr != nil {
			c.logger.Error("failed to save outcome", "session", out.SessionID, "err", saveErr)
			span.RecordError(saveErr)
			err = fmt.Errorf("save outcome: %w", saveErr)
		}
	}

	sink.Send(SessionEndedEvent{SessionID: out.SessionID, Status: StatusCompleted, Outcome: &out})
	return res, err
}

func (c *Coordinator) fail(span trace.Span, sink EventSink, res Result, err error) (Result, error) {
	res.Status = StatusFailed
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	c.logger.Error("session failed", "session", res.SessionID, "err", err)
	sink.Send(SessionEndedEvent{SessionID: res.SessionID, Status: res.Status, Err: err})
	return res, err
}
