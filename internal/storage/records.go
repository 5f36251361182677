package storage

import (
	"context"
	"fmt"

	"github.com/vovakirdan/deathbattle/internal/multiplayer"
)

// Record is a participant's aggregated results for one kind of session.
type Record struct {
	ParticipantID multiplayer.ParticipantID
	Name          string
	Wins          int
	Losses        int

	// Score ranks the leaderboard. For duels each win counts by the share of
	// hp the winner kept, i.e. wins times the average winning hp ratio. For
	// elimination games it is the plain win count.
	Score float64
}

// Games returns the number of sessions played.
func (r Record) Games() int { return r.Wins + r.Losses }

// WinRate returns wins over games, or 0 before the first game.
func (r Record) WinRate() float64 {
	if r.Games() == 0 {
		return 0
	}
	return float64(r.Wins) / float64(r.Games())
}

// results flattens an outcome table into one row per participant per session.
// The ranked filter applies to duels only.
func results(kind multiplayer.Kind, ranked bool) (string, []any, error) {
	switch kind {
	case multiplayer.KindDuel:
		return `
			SELECT winner_id AS pid, winner_name AS name, 1 AS win,
			       CASE WHEN winner_max_hp > 0 THEN CAST(winner_hp AS REAL) / winner_max_hp ELSE 0 END AS score
			FROM duel_outcomes WHERE ranked = ?
			UNION ALL
			SELECT loser_id, loser_name, 0, 0.0 FROM duel_outcomes WHERE ranked = ?`, []any{ranked, ranked}, nil
	case multiplayer.KindElimination:
		return `
			SELECT winner_id AS pid, winner_name AS name, 1 AS win, 1.0 AS score
			FROM elimination_outcomes
			UNION ALL
			SELECT loser_id, loser_name, 0, 0.0 FROM elimination_outcomes`, nil, nil
	}
	return "", nil, fmt.Errorf("storage: unknown outcome kind %q", kind)
}

// Leaderboard returns the top participants by score.
func (s *Store) Leaderboard(ctx context.Context, kind multiplayer.Kind, ranked bool, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 10
	}
	inner, args, err := results(kind, ranked)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT pid, MAX(name), SUM(win), COUNT(*) - SUM(win), SUM(score)
		 FROM (`+inner+`)
		 GROUP BY pid
		 ORDER BY SUM(score) DESC, SUM(win) DESC, pid
		 LIMIT ?`,
		append(args, limit)...,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query leaderboard: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ParticipantID, &r.Name, &r.Wins, &r.Losses, &r.Score); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return records, nil
}

// FighterRecord returns one participant's results. A participant with no
// games gets a zero Record carrying only the id.
func (s *Store) FighterRecord(ctx context.Context, id multiplayer.ParticipantID, kind multiplayer.Kind, ranked bool) (Record, error) {
	r := Record{ParticipantID: id}
	inner, args, err := results(kind, ranked)
	if err != nil {
		return r, err
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(name), ''), COALESCE(SUM(win), 0), COUNT(*) - COALESCE(SUM(win), 0), COALESCE(SUM(score), 0)
		 FROM (`+inner+`)
		 WHERE pid = ?`,
		append(args, id)...,
	).Scan(&r.Name, &r.Wins, &r.Losses, &r.Score)
	if err != nil {
		return r, fmt.Errorf("storage: cannot query record: %w", err)
	}
	return r, nil
}
