package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jonathan/placement-matcher/internal/history"
	"github.com/jonathan/placement-matcher/internal/types"
)

var _ history.Store = (*DB)(nil)

// Record appends one scored candidate
func (db *DB) Record(ctx context.Context, jdID string, c types.CandidateRecord, score int, gap string) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO candidate_scores (jd_id, candidate_name, score, gap, skills, experience, certifications, timestamp)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		jdID, c.DisplayName(), score, gap,
		history.JoinList(c.Skills), c.Experience, history.JoinList(c.Certifications),
		db.opts.Time(),
	)
	if err != nil {
		return fmt.Errorf("failed to record score for %s: %w", c.DisplayName(), err)
	}
	return nil
}

// HistoricalScores returns the scores recorded for jdID inside the retention window
func (db *DB) HistoricalScores(ctx context.Context, jdID string) ([]int, error) {
	query := `SELECT score FROM candidate_scores WHERE jd_id = $1`
	args := []any{jdID}
	if cutoff := db.opts.Cutoff(); !cutoff.IsZero() {
		query += ` AND timestamp >= $2`
		args = append(args, cutoff)
	}

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query historical scores: %w", err)
	}
	defer rows.Close()

	scores := []int{}
	for rows.Next() {
		var score int32
		if err := rows.Scan(&score); err != nil {
			return nil, fmt.Errorf("failed to scan score: %w", err)
		}
		scores = append(scores, int(score))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read historical scores: %w", err)
	}
	return scores, nil
}

// Records returns rows for jdID newest first
func (db *DB) Records(ctx context.Context, jdID string, limit int) ([]types.HistoricalScoreRecord, error) {
	query := `SELECT id, jd_id, candidate_name, score, gap, skills, experience, certifications, timestamp
		 FROM candidate_scores
		 WHERE jd_id = $1
		 ORDER BY timestamp DESC, id DESC`
	args := []any{jdID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list score records: %w", err)
	}
	defer rows.Close()

	records := []types.HistoricalScoreRecord{}
	for rows.Next() {
		var r types.HistoricalScoreRecord
		var score int32
		if err := rows.Scan(&r.ID, &r.JDID, &r.CandidateName, &score, &r.Gap,
			&r.Skills, &r.Experience, &r.Certifications, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan score record: %w", err)
		}
		r.Score = int(score)
		r.Timestamp = r.Timestamp.UTC()
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read score records: %w", err)
	}
	return records, nil
}

// Prune deletes rows recorded before olderThan
func (db *DB) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	tag, err := db.pool.Exec(ctx, `DELETE FROM candidate_scores WHERE timestamp < $1`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to prune score history: %w", err)
	}
	return tag.RowsAffected(), nil
}
