// Package config provides YAML-based arena configuration with environment
// overrides.
package config

import (
	"time"

	"github.com/vovakirdan/deathbattle/internal/combat"
	"github.com/vovakirdan/deathbattle/internal/multiplayer"
)

// ArenaConfig contains every tunable of the arena.
type ArenaConfig struct {
	Locks        LockConfig        `yaml:"locks"`
	Consent      ConsentConfig     `yaml:"consent"`
	Duel         DuelConfig        `yaml:"duel"`
	Elimination  EliminationConfig `yaml:"elimination"`
	RankedArenas []string          `yaml:"ranked_arenas" env:"DEATHBATTLE_RANKED_ARENAS" envSeparator:","`
	Storage      StorageConfig     `yaml:"storage"`
	Telemetry    TelemetryConfig   `yaml:"telemetry"`
	Log          LogConfig         `yaml:"log"`
}

// LockConfig defines arena lock parameters.
type LockConfig struct {
	Timeout time.Duration `yaml:"timeout" env:"DEATHBATTLE_LOCK_TIMEOUT"` // Stale locks are swept after this
}

// ConsentConfig defines how long invitees have to respond.
type ConsentConfig struct {
	Timeout time.Duration `yaml:"timeout" env:"DEATHBATTLE_CONSENT_TIMEOUT"`
}

// DuelConfig defines deathbattle rules.
type DuelConfig struct {
	MaxTurns      int     `yaml:"max_turns"      env:"DEATHBATTLE_MAX_TURNS"`
	AbilityChance float64 `yaml:"ability_chance" env:"DEATHBATTLE_ABILITY_CHANCE"` // 0.0 - 1.0
	RankedScale   int     `yaml:"ranked_scale"   env:"DEATHBATTLE_RANKED_SCALE"`   // Aura percentage used in ranked duels
	Pacing        Pacing  `yaml:"pacing"         env:"DEATHBATTLE_PACING"`         // "instant", "fast", "normal" or "slow"
}

// EliminationConfig defines roulette timing.
type EliminationConfig struct {
	TurnTimeout time.Duration `yaml:"turn_timeout" env:"DEATHBATTLE_TURN_TIMEOUT"`
	GameTimeout time.Duration `yaml:"game_timeout" env:"DEATHBATTLE_GAME_TIMEOUT"`
}

// StorageConfig locates the outcome database.
type StorageConfig struct {
	Path string `yaml:"path" env:"DEATHBATTLE_DB_PATH"`
}

// TelemetryConfig toggles trace export.
type TelemetryConfig struct {
	Enabled bool `yaml:"enabled" env:"DEATHBATTLE_OTEL_ENABLED"`
}

// LogConfig sets the log level.
type LogConfig struct {
	Level string `yaml:"level" env:"DEATHBATTLE_LOG_LEVEL"`
}

// Coordinator converts the arena rules into coordinator settings.
func (c ArenaConfig) Coordinator() multiplayer.CoordinatorConfig {
	arenas := make([]multiplayer.ArenaID, 0, len(c.RankedArenas))
	for _, a := range c.RankedArenas {
		arenas = append(arenas, multiplayer.ArenaID(a))
	}
	return multiplayer.CoordinatorConfig{
		ConsentTimeout: c.Consent.Timeout,
		TurnTimeout:    c.Elimination.TurnTimeout,
		GameTimeout:    c.Elimination.GameTimeout,
		Duel: combat.Options{
			MaxTurns:      c.Duel.MaxTurns,
			AbilityChance: c.Duel.AbilityChance,
		},
		RankedScale:  c.Duel.RankedScale,
		RankedArenas: arenas,
	}
}
