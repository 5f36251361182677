// Package main provides the CLI entry point for the deathbattle arena.
//
// Usage:
//
//	arena duel <fighter1> <fighter2>      - Run a deathbattle
//	arena roulette <player> <opponent>    - Play Russian Roulette
//	arena profile <name>                  - Show a fighter's stats and record
//	arena abilities                       - List the ability catalog
//	arena leaderboard                     - Show the leaderboards
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/deathbattle/internal/config"
	"github.com/vovakirdan/deathbattle/internal/multiplayer"
	"github.com/vovakirdan/deathbattle/internal/random"
	"github.com/vovakirdan/deathbattle/internal/storage"
	"github.com/vovakirdan/deathbattle/internal/telemetry"
)

var (
	flagConfig string
	flagDBPath string
	flagSeed   uint64
	flagArena  string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "arena",
	Short: "Deathbattle arena - seeded duels and Russian Roulette in your terminal",
	Long: `Deathbattle pits two named fighters against each other in a seeded,
turn-based duel, or hands two players a six-chamber revolver.

Fighter stats are derived from the name alone, so the same name always
brings the same fighter. Results are saved to a local leaderboard.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to a custom arena config YAML")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to the outcome database (overrides config)")
	rootCmd.PersistentFlags().Uint64Var(&flagSeed, "seed", 0, "Fixed session seed for replays (0 = random)")
	rootCmd.PersistentFlags().StringVar(&flagArena, "arena", "local", "Arena the session runs in")

	rootCmd.AddCommand(duelCmd)
	rootCmd.AddCommand(rouletteCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(abilitiesCmd)
	rootCmd.AddCommand(leaderboardCmd)
}

// app bundles everything a command needs to run sessions.
type app struct {
	cfg    config.ArenaConfig
	logger *log.Logger
	store  *storage.Store
	coord  *multiplayer.Coordinator

	shutdown func(context.Context) error
}

// setup loads configuration and opens storage. A missing .env file is not an
// error.
func setup(ctx context.Context) (*app, error) {
	_ = godotenv.Load()

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagDBPath != "" {
		cfg.Storage.Path = flagDBPath
	}

	logger := newLogger(cfg.Log.Level)

	shutdown, err := telemetry.Setup(ctx, cfg.Telemetry.Enabled)
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}

	store, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		_ = shutdown(ctx)
		return nil, err
	}

	locks := multiplayer.NewLockRegistry(
		multiplayer.WithLockTimeout(cfg.Locks.Timeout),
		multiplayer.WithLockLogger(logger.WithPrefix("locks")),
	)
	opts := []multiplayer.Option{
		multiplayer.WithLogger(logger.WithPrefix("arena")),
		multiplayer.WithOutcomeSink(store),
		multiplayer.WithPacer(cfg.Duel.Pacing.Pacer()),
		multiplayer.WithTracer(telemetry.Tracer("arena")),
	}
	if flagSeed != 0 {
		opts = append(opts, multiplayer.WithRandSource(random.FixedSource(flagSeed)))
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		coord:    multiplayer.NewCoordinator(cfg.Coordinator(), locks, opts...),
		shutdown: shutdown,
	}, nil
}

func (a *app) Close(ctx context.Context) {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("close storage", "err", err)
	}
	if err := a.shutdown(ctx); err != nil {
		a.logger.Warn("flush traces", "err", err)
	}
}

func newLogger(level string) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "deathbattle",
	})
	if lvl, err := log.ParseLevel(level); err == nil {
		logger.SetLevel(lvl)
	}
	return logger
}

// terminalSize returns the size of stdout, falling back to 80x24.
func terminalSize() (int, int) {
	width, height := 80, 24
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		width, height = w, h
	}
	return width, height
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
