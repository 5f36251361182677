package config

import (
	_ "embed"
	"time"

	"github.com/vovakirdan/deathbattle/internal/combat"
	"github.com/vovakirdan/deathbattle/internal/fighter"
	"github.com/vovakirdan/deathbattle/internal/multiplayer"
)

//go:embed defaults/arena.yaml
var defaultArenaYAML []byte

// DefaultArenaConfig returns the default arena configuration.
func DefaultArenaConfig() ArenaConfig {
	return ArenaConfig{
		Locks: LockConfig{
			Timeout: multiplayer.DefaultLockTimeout,
		},
		Consent: ConsentConfig{
			Timeout: multiplayer.DefaultConsentTimeout,
		},
		Duel: DuelConfig{
			MaxTurns:      combat.DefaultMaxTurns,
			AbilityChance: combat.DefaultAbilityChance,
			RankedScale:   fighter.RankedScale,
			Pacing:        PacingNormal,
		},
		Elimination: EliminationConfig{
			TurnTimeout: 30 * time.Second,
			GameTimeout: 5 * time.Minute,
		},
		Storage: StorageConfig{
			Path: "~/.deathbattle/arena.db",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
