package multiplayer

import (
	"time"

	"github.com/vovakirdan/deathbattle/internal/combat"
	"github.com/vovakirdan/deathbattle/internal/fighter"
	"github.com/vovakirdan/deathbattle/internal/roulette"
)

// SessionEvent represents an event pushed from a running session to its sink.
type SessionEvent interface {
	sessionEvent()
}

// ConsentRequestedEvent asks both participants to accept. Answers go to
// Consent.Respond.
type ConsentRequestedEvent struct {
	SessionID SessionID
	Kind      Kind
	Ranked    bool
	Inviter   ParticipantID
	Target    ParticipantID
	Deadline  time.Time
	Consent   *Consent
}

func (ConsentRequestedEvent) sessionEvent() {}

// ConsentResolvedEvent reports the end of the invitation.
type ConsentResolvedEvent struct {
	SessionID SessionID
	Result    ConsentResult
}

func (ConsentResolvedEvent) sessionEvent() {}

// DuelStartedEvent is sent once fighters are generated, before the first turn.
type DuelStartedEvent struct {
	SessionID SessionID
	Arena     ArenaID
	Ranked    bool
	Fighter1  fighter.Fighter
	Fighter2  fighter.Fighter
	FirstID   string
	Seed      uint64
}

func (DuelStartedEvent) sessionEvent() {}

// TurnEvent carries one resolved duel turn.
type TurnEvent struct {
	SessionID SessionID
	Battle    combat.BattleEvent
}

func (TurnEvent) sessionEvent() {}

// EliminationStartedEvent is sent when the cylinder is loaded.
type EliminationStartedEvent struct {
	SessionID   SessionID
	Arena       ArenaID
	Inviter     ParticipantID
	Target      ParticipantID
	Names       map[ParticipantID]string
	TurnTimeout time.Duration
}

func (EliminationStartedEvent) sessionEvent() {}

// YourMoveEvent tells the current player it is their turn.
type YourMoveEvent struct {
	SessionID SessionID
	State     roulette.State
	Deadline  time.Time
}

func (YourMoveEvent) sessionEvent() {}

// RoundEvent carries one resolved elimination move or turn timeout.
type RoundEvent struct {
	SessionID SessionID
	Round     roulette.RoundEvent
}

func (RoundEvent) sessionEvent() {}

// MoveRejectedEvent is sent when a submitted move is illegal.
type MoveRejectedEvent struct {
	SessionID SessionID
	Player    ParticipantID
	Action    roulette.Action
	Err       error
}

func (MoveRejectedEvent) sessionEvent() {}

// SessionEndedEvent is the last event of every RunDuel and RunElimination
// call, including rejected and failed ones.
type SessionEndedEvent struct {
	SessionID SessionID
	Status    Status
	// Reason is set when Status is StatusRejected or StatusBusy.
	Reason Reason
	// Err is set when Status is StatusRejected or StatusFailed.
	Err error
	// Outcome is nil unless Status is StatusCompleted.
	Outcome *Outcome
}

func (SessionEndedEvent) sessionEvent() {}

// Move is a player's submitted elimination action.
type Move struct {
	Player ParticipantID
	Action roulette.Action
}
