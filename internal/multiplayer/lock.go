package multiplayer

import (
	"io"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultLockTimeout is how long a lock lives without being released or
// renewed.
const DefaultLockTimeout = 5 * time.Minute

// Lock is a live claim on an arena for one kind of session.
type Lock struct {
	Arena        ArenaID
	Kind         Kind
	Participants []ParticipantID
	AcquiredAt   time.Time
	RenewedAt    time.Time // expiry counts from here

	id uint64
}

type lockKey struct {
	arena ArenaID
	kind  Kind
}

// LockRegistry enforces at most one live lock per (arena, kind) and at most
// one live lock per participant. All methods are safe for concurrent use.
type LockRegistry struct {
	timeout time.Duration
	now     func() time.Time
	logger  *log.Logger

	mu     sync.Mutex
	nextID uint64
	locks  map[lockKey]*Lock
	busy   map[ParticipantID]lockKey
}

// LockOption configures a LockRegistry.
type LockOption func(*LockRegistry)

// WithLockTimeout sets how long an unreleased lock stays live.
func WithLockTimeout(d time.Duration) LockOption {
	return func(r *LockRegistry) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) LockOption {
	return func(r *LockRegistry) {
		r.now = now
	}
}

// WithLockLogger sets the logger used for expiry sweeps.
func WithLockLogger(l *log.Logger) LockOption {
	return func(r *LockRegistry) {
		r.logger = l
	}
}

// NewLockRegistry creates an empty registry.
func NewLockRegistry(opts ...LockOption) *LockRegistry {
	r := &LockRegistry{
		timeout: DefaultLockTimeout,
		now:     time.Now,
		logger:  log.New(io.Discard),
		locks:   make(map[lockKey]*Lock),
		busy:    make(map[ParticipantID]lockKey),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Acquire claims (arena, kind) for participants. It returns false without
// side effects if the arena already has a live lock of that kind or any
// participant is held by another live lock.
func (r *LockRegistry) Acquire(arena ArenaID, kind Kind, participants []ParticipantID) bool {
	_, ok := r.acquire(arena, kind, participants)
	return ok
}

// Lease is the handle returned by AcquireLease.
type Lease struct {
	registry *LockRegistry
	key      lockKey
	id       uint64
	once     sync.Once
}

// AcquireLease is Acquire returning a handle whose Release only frees this
// particular lock, never a newer one taken after this one expired.
func (r *LockRegistry) AcquireLease(arena ArenaID, kind Kind, participants []ParticipantID) (*Lease, bool) {
	l, ok := r.acquire(arena, kind, participants)
	if !ok {
		return nil, false
	}
	return &Lease{registry: r, key: lockKey{arena, kind}, id: l.id}, true
}

// Renew restarts the expiry clock of the lease's lock. It returns false if
// the lock already expired or was released, in which case nothing changes.
func (l *Lease) Renew() bool {
	r := l.registry
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked()
	cur, ok := r.locks[l.key]
	if !ok || cur.id != l.id {
		return false
	}
	cur.RenewedAt = r.now()
	return true
}

// Release frees the lease's lock if it is still the one held. Safe to call
// more than once.
func (l *Lease) Release() {
	l.once.Do(func() {
		r := l.registry
		r.mu.Lock()
		defer r.mu.Unlock()
		if cur, ok := r.locks[l.key]; ok && cur.id == l.id {
			r.removeLocked(l.key)
		}
	})
}

func (r *LockRegistry) acquire(arena ArenaID, kind Kind, participants []ParticipantID) (*Lock, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sweepLocked()

	key := lockKey{arena, kind}
	if _, taken := r.locks[key]; taken {
		return nil, false
	}

	seen := make(map[ParticipantID]bool, len(participants))
	ids := make([]ParticipantID, 0, len(participants))
	for _, p := range participants {
		if _, held := r.busy[p]; held {
			return nil, false
		}
		if !seen[p] {
			seen[p] = true
			ids = append(ids, p)
		}
	}

	r.nextID++
	now := r.now()
	l := &Lock{
		Arena:        arena,
		Kind:         kind,
		Participants: ids,
		AcquiredAt:   now,
		RenewedAt:    now,
		id:           r.nextID,
	}
	r.locks[key] = l
	for _, p := range ids {
		r.busy[p] = key
	}
	return l, true
}

// Release frees (arena, kind) and its participants. Releasing an arena that
// is not locked is a no-op.
func (r *LockRegistry) Release(arena ArenaID, kind Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(lockKey{arena, kind})
	r.sweepLocked()
}

// IsLocked reports whether (arena, kind) has a live lock.
func (r *LockRegistry) IsLocked(arena ArenaID, kind Kind) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked()
	_, ok := r.locks[lockKey{arena, kind}]
	return ok
}

// IsParticipantBusy reports whether id is held by any live lock.
func (r *LockRegistry) IsParticipantBusy(id ParticipantID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked()
	_, ok := r.busy[id]
	return ok
}

// Snapshot returns copies of all live locks grouped by arena, each arena's
// locks ordered by kind.
func (r *LockRegistry) Snapshot() map[ArenaID][]Lock {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked()

	out := make(map[ArenaID][]Lock)
	for key, l := range r.locks {
		cp := *l
		cp.Participants = append([]ParticipantID(nil), l.Participants...)
		out[key.arena] = append(out[key.arena], cp)
	}
	for arena := range out {
		locks := out[arena]
		sort.Slice(locks, func(i, j int) bool { return locks[i].Kind < locks[j].Kind })
	}
	return out
}

// Len returns the number of live locks.
func (r *LockRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked()
	return len(r.locks)
}

// sweepLocked drops expired locks. Must be called with mu held.
func (r *LockRegistry) sweepLocked() {
	now := r.now()
	for key, l := range r.locks {
		idle := now.Sub(l.RenewedAt)
		if idle > r.timeout {
			r.logger.Info("cleaning up expired lock",
				"arena", key.arena, "kind", key.kind,
				"age", now.Sub(l.AcquiredAt).Round(time.Second), "idle", idle.Round(time.Second))
			r.removeLocked(key)
		}
	}
}

func (r *LockRegistry) removeLocked(key lockKey) {
	l, ok := r.locks[key]
	if !ok {
		return
	}
	for _, p := range l.Participants {
		if r.busy[p] == key {
			delete(r.busy, p)
		}
	}
	delete(r.locks, key)
}
