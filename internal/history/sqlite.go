package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jonathan/placement-matcher/internal/types"
	_ "modernc.org/sqlite"
)

// timestampLayout is fixed width so that stored timestamps sort lexically
const timestampLayout = "2006-01-02 15:04:05.000000"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS candidate_scores (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	jd_id          TEXT NOT NULL,
	candidate_name TEXT NOT NULL,
	score          INTEGER NOT NULL,
	gap            TEXT NOT NULL DEFAULT '',
	skills         TEXT NOT NULL DEFAULT '',
	experience     TEXT NOT NULL DEFAULT '',
	certifications TEXT NOT NULL DEFAULT '',
	timestamp      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_jd_id ON candidate_scores(jd_id);
`

// SQLiteStore keeps the score history in an embedded SQLite file
type SQLiteStore struct {
	db   *sql.DB
	opts Options
}

// OpenSQLite opens (or creates) the history database at path. ":memory:" gives a private in-memory database.
func OpenSQLite(ctx context.Context, path string, opts Options) (*SQLiteStore, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create history directory %s: %w", dir, err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	// Single writer; concurrent appends serialize on the one connection
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}
	return &SQLiteStore{db: db, opts: opts}, nil
}

// Record appends one scored candidate
func (s *SQLiteStore) Record(ctx context.Context, jdID string, c types.CandidateRecord, score int, gap string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO candidate_scores (jd_id, candidate_name, score, gap, skills, experience, certifications, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		jdID, c.DisplayName(), score, gap,
		JoinList(c.Skills), c.Experience, JoinList(c.Certifications),
		s.opts.Time().Format(timestampLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to record score for %s: %w", c.DisplayName(), err)
	}
	return nil
}

// HistoricalScores returns the scores recorded for jdID inside the retention window
func (s *SQLiteStore) HistoricalScores(ctx context.Context, jdID string) ([]int, error) {
	query := `SELECT score FROM candidate_scores WHERE jd_id = ?`
	args := []any{jdID}
	if cutoff := s.opts.Cutoff(); !cutoff.IsZero() {
		query += ` AND timestamp >= ?`
		args = append(args, cutoff.Format(timestampLayout))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query historical scores: %w", err)
	}
	defer rows.Close()

	scores := []int{}
	for rows.Next() {
		var score int
		if err := rows.Scan(&score); err != nil {
			return nil, fmt.Errorf("failed to scan score: %w", err)
		}
		scores = append(scores, score)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read historical scores: %w", err)
	}
	return scores, nil
}

// Records returns rows for jdID newest first
func (s *SQLiteStore) Records(ctx context.Context, jdID string, limit int) ([]types.HistoricalScoreRecord, error) {
	query := `SELECT id, jd_id, candidate_name, score, gap, skills, experience, certifications, timestamp
		FROM candidate_scores WHERE jd_id = ? ORDER BY timestamp DESC, id DESC`
	args := []any{jdID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query score records: %w", err)
	}
	defer rows.Close()

	records := []types.HistoricalScoreRecord{}
	for rows.Next() {
		var r types.HistoricalScoreRecord
		var ts string
		if err := rows.Scan(&r.ID, &r.JDID, &r.CandidateName, &r.Score, &r.Gap,
			&r.Skills, &r.Experience, &r.Certifications, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan score record: %w", err)
		}
		r.Timestamp, err = time.ParseInLocation(timestampLayout, ts, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("failed to parse timestamp %q: %w", ts, err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read score records: %w", err)
	}
	return records, nil
}

// Prune deletes rows recorded before olderThan
func (s *SQLiteStore) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM candidate_scores WHERE timestamp < ?`,
		olderThan.UTC().Format(timestampLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prune score history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned rows: %w", err)
	}
	return n, nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
