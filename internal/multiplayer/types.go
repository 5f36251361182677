// Package multiplayer runs two-player arena sessions.
// It owns the arena and participant locks, the consent handshake and the
// session lifecycle; the engines themselves live in combat and roulette.
package multiplayer

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vovakirdan/deathbattle/internal/roulette"
)

// ArenaID scopes sessions, e.g. a chat room. One session per kind may run
// in an arena at a time.
type ArenaID string

// ParticipantID is the opaque identity of a player supplied by the caller.
type ParticipantID string

// SessionID uniquely identifies one session run.
type SessionID string

// NewSessionID returns a random session identifier.
func NewSessionID() SessionID {
	return SessionID(uuid.NewString())
}

// Kind is the session category used as part of the lock key.
type Kind string

const (
	KindDuel        Kind = "battle"
	KindElimination Kind = "russian"
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindDuel:
		return "Deathbattle"
	case KindElimination:
		return "Russian Roulette"
	default:
		return "Unknown"
	}
}

// Status is how a session ended.
type Status int

const (
	// StatusCompleted means the engine ran to a winner.
	StatusCompleted Status = iota

	// StatusDeclined means a participant refused to play.
	StatusDeclined

	// StatusConsentTimedOut means nobody answered the invitation in time.
	StatusConsentTimedOut

	// StatusBusy means the arena or a participant is held by another
	// session. Result.Reason says which.
	StatusBusy

	// StatusGameTimedOut means an elimination game hit its overall time limit.
	StatusGameTimedOut

	// StatusRejected means the request failed validation; no lock was taken.
	StatusRejected

	// StatusFailed means the session stopped on an error after locking.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusDeclined:
		return "declined"
	case StatusConsentTimedOut:
		return "consent timed out"
	case StatusBusy:
		return "busy"
	case StatusGameTimedOut:
		return "game timed out"
	case StatusRejected:
		return "rejected"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the final record of a completed session, handed to the
// OutcomeSink for persistence.
type Outcome struct {
	SessionID SessionID
	Arena     ArenaID
	Kind      Kind
	Ranked    bool

	WinnerID   ParticipantID
	LoserID    ParticipantID
	WinnerName string
	LoserName  string

	Turns       int
	WinnerHP    int
	WinnerMaxHP int
	ForcedStop  bool

	// Chamber and Cause are only set for elimination games.
	Chamber int
	Cause   roulette.Cause

	Seed       uint64
	FinishedAt time.Time
}

// OutcomeSink receives completed outcomes. storage.Store implements it.
type OutcomeSink interface {
	SaveOutcome(ctx context.Context, o Outcome) error
}

// Namer resolves participant ids to display names.
type Namer interface {
	DisplayName(ctx context.Context, id ParticipantID) (string, error)
}

// NamerFunc adapts a function to Namer.
type NamerFunc func(ctx context.Context, id ParticipantID) (string, error)

func (f NamerFunc) DisplayName(ctx context.Context, id ParticipantID) (string, error) {
	return f(ctx, id)
}

// IdentityNamer uses the participant id as the display name.
var IdentityNamer = NamerFunc(func(_ context.Context, id ParticipantID) (string, error) {
	return string(id), nil
})
