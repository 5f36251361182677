package multiplayer

import (
	"context"
	"errors"
	"sync"
	"time"
)

// DefaultConsentTimeout is how long both participants have to accept.
const DefaultConsentTimeout = 15 * time.Second

var (
	ErrNotParticipant  = errors.New("multiplayer: not a participant of this invitation")
	ErrAlreadyAccepted = errors.New("multiplayer: already accepted")
	ErrConsentResolved = errors.New("multiplayer: invitation already resolved")
)

// Decision is a participant's answer to an invitation.
type Decision int

const (
	Accept Decision = iota
	Decline
)

// ConsentStatus is the state of an invitation.
type ConsentStatus int

const (
	ConsentPending ConsentStatus = iota
	ConsentAccepted
	ConsentDeclined
	ConsentTimedOut
)

func (s ConsentStatus) String() string {
	switch s {
	case ConsentPending:
		return "pending"
	case ConsentAccepted:
		return "accepted"
	case ConsentDeclined:
		return "declined"
	case ConsentTimedOut:
		return "timed out"
	default:
		return "unknown"
	}
}

// ConsentResult is what Wait resolved to.
type ConsentResult struct {
	Status ConsentStatus

	// DeclinedBy is set when Status is ConsentDeclined.
	DeclinedBy ParticipantID

	// Accepted lists who accepted before resolution, in response order.
	Accepted []ParticipantID
}

// OK reports whether both participants accepted.
func (r ConsentResult) OK() bool {
	return r.Status == ConsentAccepted
}

// Consent is a two-party invitation: Pending until both accept, one declines
// or the deadline passes.
type Consent struct {
	participants [2]ParticipantID
	deadline     time.Time
	now          func() time.Time

	mu         sync.Mutex
	status     ConsentStatus
	accepted   []ParticipantID
	declinedBy ParticipantID
	resolved   chan struct{}
}

// NewConsent opens an invitation for a and b that expires after timeout.
func NewConsent(a, b ParticipantID, timeout time.Duration) *Consent {
	if timeout <= 0 {
		timeout = DefaultConsentTimeout
	}
	return &Consent{
		participants: [2]ParticipantID{a, b},
		deadline:     time.Now().Add(timeout),
		now:          time.Now,
		resolved:     make(chan struct{}),
	}
}

// Participants returns the two invited participants.
func (c *Consent) Participants() [2]ParticipantID {
	return c.participants
}

// Deadline returns when the invitation times out.
func (c *Consent) Deadline() time.Time {
	return c.deadline
}

// Respond records id's decision. Responses from anyone but the two
// participants are rejected without changing state.
func (c *Consent) Respond(id ParticipantID, d Decision) error {
	if id != c.participants[0] && id != c.participants[1] {
		return ErrNotParticipant
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status == ConsentPending && !c.now().Before(c.deadline) {
		c.resolveLocked(ConsentTimedOut)
	}
	if c.status != ConsentPending {
		return ErrConsentResolved
	}

	switch d {
	case Decline:
		c.declinedBy = id
		c.resolveLocked(ConsentDeclined)
	case Accept:
		for _, p := range c.accepted {
			if p == id {
				return ErrAlreadyAccepted
			}
		}
		c.accepted = append(c.accepted, id)
		if len(c.accepted) == len(c.participants) {
			c.resolveLocked(ConsentAccepted)
		}
	}
	return nil
}

// Wait blocks until the invitation resolves, the deadline passes or ctx is
// done. A cancelled ctx resolves the invitation as timed out.
func (c *Consent) Wait(ctx context.Context) ConsentResult {
	timer := time.NewTimer(time.Until(c.deadline))
	defer timer.Stop()

	select {
	case <-c.resolved:
	case <-timer.C:
	case <-ctx.Done():
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status == ConsentPending {
		c.resolveLocked(ConsentTimedOut)
	}
	return c.resultLocked()
}

// Done is closed once the invitation resolves.
func (c *Consent) Done() <-chan struct{} {
	return c.resolved
}

// Result returns the current state without blocking.
func (c *Consent) Result() ConsentResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resultLocked()
}

func (c *Consent) resolveLocked(s ConsentStatus) {
	c.status = s
	close(c.resolved)
}

func (c *Consent) resultLocked() ConsentResult {
	return ConsentResult{
		Status:     c.status,
		DeclinedBy: c.declinedBy,
		Accepted:   append([]ParticipantID(nil), c.accepted...),
	}
}
