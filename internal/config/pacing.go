package config

import (
	"fmt"
	"time"

	"github.com/vovakirdan/deathbattle/internal/multiplayer"
)

// Pacing is a named delay preset for watched duels.
type Pacing string

const (
	PacingInstant Pacing = "instant"
	PacingFast    Pacing = "fast"
	PacingNormal  Pacing = "normal"
	PacingSlow    Pacing = "slow"
)

// ParsePacing validates a preset name.
func ParsePacing(s string) (Pacing, error) {
	switch p := Pacing(s); p {
	case PacingInstant, PacingFast, PacingNormal, PacingSlow:
		return p, nil
	case "":
		return PacingNormal, nil
	}
	return "", fmt.Errorf("config: unknown pacing %q", s)
}

// Delays returns the wait before the first turn and between turns.
func (p Pacing) Delays() (start, perTurn time.Duration) {
	switch p {
	case PacingInstant:
		return 0, 0
	case PacingFast:
		return 500 * time.Millisecond, 400 * time.Millisecond
	case PacingSlow:
		return 3 * time.Second, 2 * time.Second
	default:
		return 1500 * time.Millisecond, 1 * time.Second
	}
}

// Pacer returns the preset as a duel pacer.
func (p Pacing) Pacer() multiplayer.Pacer {
	start, perTurn := p.Delays()
	if start == 0 && perTurn == 0 {
		return multiplayer.NoPacing
	}
	return multiplayer.FixedPacing(start, perTurn)
}
