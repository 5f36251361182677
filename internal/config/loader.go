package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/vovakirdan/deathbattle/internal/fighter"
)

const fileName = "arena.yaml"

// Load loads the arena configuration and applies DEATHBATTLE_* environment
// overrides on top.
// Search order: customPath -> ~/.deathbattle/arena.yaml -> ./configs/arena.yaml -> embedded default
func Load(customPath string) (ArenaConfig, error) {
	cfg, err := loadFile(customPath)
	if err != nil {
		return cfg, err
	}
	if err := ApplyEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadFile(customPath string) (ArenaConfig, error) {
	// Keys missing from the file keep their defaults.
	cfg := DefaultArenaConfig()

	// Try custom path first
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config %s: %w", customPath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", customPath, err)
		}
		return cfg, nil
	}

	// Try user config directory
	if userCfgPath := userConfigPath(fileName); userCfgPath != "" {
		if data, err := os.ReadFile(userCfgPath); err == nil {
			if err := yaml.Unmarshal(data, &cfg); err == nil {
				return cfg, nil
			}
			cfg = DefaultArenaConfig()
		}
	}

	// Try local configs directory
	if data, err := os.ReadFile(filepath.Join("configs", fileName)); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err == nil {
			return cfg, nil
		}
		cfg = DefaultArenaConfig()
	}

	// Use embedded default YAML
	if err := yaml.Unmarshal(defaultArenaYAML, &cfg); err != nil {
		return DefaultArenaConfig(), nil // Fallback to hardcoded if embed fails
	}
	return cfg, nil
}

// ApplyEnv overrides cfg with any DEATHBATTLE_* variables that are set.
func ApplyEnv(cfg *ArenaConfig) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("config: parse env: %w", err)
	}
	return nil
}

// Validate rejects values the engine cannot run with.
func (c ArenaConfig) Validate() error {
	var errs []error
	if c.Duel.MaxTurns <= 0 {
		errs = append(errs, fmt.Errorf("duel.max_turns must be positive, got %d", c.Duel.MaxTurns))
	}
	if c.Duel.AbilityChance < 0 || c.Duel.AbilityChance > 1 {
		errs = append(errs, fmt.Errorf("duel.ability_chance must be within [0, 1], got %v", c.Duel.AbilityChance))
	}
	if c.Duel.RankedScale < fighter.MinAura || c.Duel.RankedScale > fighter.MaxAura {
		errs = append(errs, fmt.Errorf("duel.ranked_scale must be within [%d, %d], got %d",
			fighter.MinAura, fighter.MaxAura, c.Duel.RankedScale))
	}
	if _, err := ParsePacing(string(c.Duel.Pacing)); err != nil {
		errs = append(errs, err)
	}
	for _, t := range []struct {
		name string
		d    time.Duration
	}{
		{"locks.timeout", c.Locks.Timeout},
		{"consent.timeout", c.Consent.Timeout},
		{"elimination.turn_timeout", c.Elimination.TurnTimeout},
		{"elimination.game_timeout", c.Elimination.GameTimeout},
	} {
		if t.d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", t.name))
		}
	}
	// A session renews its lock on every event, so each silent gap must end
	// before the lock can expire.
	if c.Consent.Timeout >= c.Locks.Timeout {
		errs = append(errs, fmt.Errorf("consent.timeout (%v) must be shorter than locks.timeout (%v)",
			c.Consent.Timeout, c.Locks.Timeout))
	}
	if c.Elimination.TurnTimeout >= c.Locks.Timeout {
		errs = append(errs, fmt.Errorf("elimination.turn_timeout (%v) must be shorter than locks.timeout (%v)",
			c.Elimination.TurnTimeout, c.Locks.Timeout))
	}
	if start, perTurn := c.Duel.Pacing.Delays(); max(start, perTurn) >= c.Locks.Timeout {
		errs = append(errs, fmt.Errorf("duel.pacing %q waits longer than locks.timeout (%v)",
			c.Duel.Pacing, c.Locks.Timeout))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// userConfigPath returns the path to user config file, or empty if home is unavailable.
func userConfigPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".deathbattle", filename)
}
