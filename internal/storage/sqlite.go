// Package storage provides SQLite-based persistence for arena outcomes.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vovakirdan/deathbattle/internal/multiplayer"
	"github.com/vovakirdan/deathbattle/internal/roulette"
)

const timeLayout = "2006-01-02 15:04:05"

// Store manages the SQLite database connection for outcome persistence.
type Store struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	// Create parent directories
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS duel_outcomes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL UNIQUE,
			arena TEXT NOT NULL,
			ranked INTEGER NOT NULL DEFAULT 0,
			winner_id TEXT NOT NULL,
			loser_id TEXT NOT NULL,
			winner_name TEXT NOT NULL,
			loser_name TEXT NOT NULL,
			turns INTEGER NOT NULL,
			winner_hp INTEGER NOT NULL,
			winner_max_hp INTEGER NOT NULL,
			forced_stop INTEGER NOT NULL DEFAULT 0,
			seed INTEGER NOT NULL,
			finished_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_duel_outcomes_winner ON duel_outcomes(winner_id, ranked);
		CREATE INDEX IF NOT EXISTS idx_duel_outcomes_loser ON duel_outcomes(loser_id, ranked);

		CREATE TABLE IF NOT EXISTS elimination_outcomes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL UNIQUE,
			arena TEXT NOT NULL,
			winner_id TEXT NOT NULL,
			loser_id TEXT NOT NULL,
			winner_name TEXT NOT NULL,
			loser_name TEXT NOT NULL,
			turns INTEGER NOT NULL,
			chamber INTEGER NOT NULL,
			cause TEXT NOT NULL,
			seed INTEGER NOT NULL,
			finished_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_elimination_outcomes_winner ON elimination_outcomes(winner_id);
		CREATE INDEX IF NOT EXISTS idx_elimination_outcomes_loser ON elimination_outcomes(loser_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveOutcome implements multiplayer.OutcomeSink.
func (s *Store) SaveOutcome(ctx context.Context, o multiplayer.Outcome) error {
	finished := o.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}
	at := finished.UTC().Format(timeLayout)

	var err error
	switch o.Kind {
	case multiplayer.KindDuel:
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO duel_outcomes
			 (session_id, arena, ranked, winner_id, loser_id, winner_name, loser_name,
			  turns, winner_hp, winner_max_hp, forced_stop, seed, finished_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			o.SessionID, o.Arena, o.Ranked, o.WinnerID, o.LoserID, o.WinnerName, o.LoserName,
			o.Turns, o.WinnerHP, o.WinnerMaxHP, o.ForcedStop, int64(o.Seed), at,
		)
	case multiplayer.KindElimination:
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO elimination_outcomes
			 (session_id, arena, winner_id, loser_id, winner_name, loser_name,
			  turns, chamber, cause, seed, finished_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			o.SessionID, o.Arena, o.WinnerID, o.LoserID, o.WinnerName, o.LoserName,
			o.Turns, o.Chamber, o.Cause, int64(o.Seed), at,
		)
	default:
		return fmt.Errorf("storage: unknown outcome kind %q", o.Kind)
	}
	if err != nil {
		return fmt.Errorf("storage: cannot save %s outcome: %w", o.Kind, err)
	}
	return nil
}

// Ensure Store implements OutcomeSink
var _ multiplayer.OutcomeSink = (*Store)(nil)

const duelColumns = `session_id, arena, ranked, winner_id, loser_id, winner_name, loser_name,
	turns, winner_hp, winner_max_hp, forced_stop, seed, finished_at`

const eliminationColumns = `session_id, arena, winner_id, loser_id, winner_name, loser_name,
	turns, chamber, cause, seed, finished_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanDuel(row scanner) (multiplayer.Outcome, error) {
	o := multiplayer.Outcome{Kind: multiplayer.KindDuel}
	var seed int64
	var finished any
	err := row.Scan(&o.SessionID, &o.Arena, &o.Ranked, &o.WinnerID, &o.LoserID, &o.WinnerName, &o.LoserName,
		&o.Turns, &o.WinnerHP, &o.WinnerMaxHP, &o.ForcedStop, &seed, &finished)
	o.Seed = uint64(seed)
	o.FinishedAt = parseTime(finished)
	return o, err
}

func scanElimination(row scanner) (multiplayer.Outcome, error) {
	o := multiplayer.Outcome{Kind: multiplayer.KindElimination}
	var seed int64
	var cause string
	var finished any
	err := row.Scan(&o.SessionID, &o.Arena, &o.WinnerID, &o.LoserID, &o.WinnerName, &o.LoserName,
		&o.Turns, &o.Chamber, &cause, &seed, &finished)
	o.Cause = roulette.Cause(cause)
	o.Seed = uint64(seed)
	o.FinishedAt = parseTime(finished)
	return o, err
}

// parseTime handles both time.Time and string datetimes.
func parseTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse(timeLayout, t); err == nil {
			return parsed
		}
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

// OutcomeBySession retrieves a saved outcome. Returns nil if none exists.
func (s *Store) OutcomeBySession(ctx context.Context, id multiplayer.SessionID) (*multiplayer.Outcome, error) {
	o, err := scanDuel(s.db.QueryRowContext(ctx,
		`SELECT `+duelColumns+` FROM duel_outcomes WHERE session_id = ?`, id))
	if err == nil {
		return &o, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("storage: cannot query outcome: %w", err)
	}

	o, err = scanElimination(s.db.QueryRowContext(ctx,
		`SELECT `+eliminationColumns+` FROM elimination_outcomes WHERE session_id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query outcome: %w", err)
	}
	return &o, nil
}

// RecentOutcomes retrieves the most recent outcomes of kind, newest first.
func (s *Store) RecentOutcomes(ctx context.Context, kind multiplayer.Kind, limit int) ([]multiplayer.Outcome, error) {
	if limit <= 0 {
		limit = 20
	}

	var query string
	var scan func(scanner) (multiplayer.Outcome, error)
	switch kind {
	case multiplayer.KindDuel:
		query = `SELECT ` + duelColumns + ` FROM duel_outcomes ORDER BY finished_at DESC, id DESC LIMIT ?`
		scan = scanDuel
	case multiplayer.KindElimination:
		query = `SELECT ` + eliminationColumns + ` FROM elimination_outcomes ORDER BY finished_at DESC, id DESC LIMIT ?`
		scan = scanElimination
	default:
		return nil, fmt.Errorf("storage: unknown outcome kind %q", kind)
	}

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []multiplayer.Outcome
	for rows.Next() {
		o, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		outcomes = append(outcomes, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return outcomes, nil
}
