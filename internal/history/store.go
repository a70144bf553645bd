// Package history persists candidate scores per job description and derives the adaptive
// minimum score from them.
package history

import (
	"context"
	"strings"
	"time"

	"github.com/jonathan/placement-matcher/internal/types"
)

// Store is an append-only log of candidate scores keyed by job description id
type Store interface {
	// Record appends one scored candidate
	Record(ctx context.Context, jdID string, c types.CandidateRecord, score int, gap string) error
	// HistoricalScores returns every score recorded for jdID inside the retention window
	HistoricalScores(ctx context.Context, jdID string) ([]int, error)
	// Records returns up to limit rows for jdID, newest first (limit <= 0 means all)
	Records(ctx context.Context, jdID string, limit int) ([]types.HistoricalScoreRecord, error)
	// Prune deletes rows older than olderThan and returns how many were removed
	Prune(ctx context.Context, olderThan time.Time) (int64, error)
	Close() error
}

// Options configure a Store
type Options struct {
	// Retention limits HistoricalScores to rows newer than now-Retention; zero keeps everything
	Retention time.Duration
	// Now defaults to time.Now
	Now func() time.Time
}

// Time returns the current time in UTC from Now, or from the wall clock
func (o Options) Time() time.Time {
	if o.Now != nil {
		return o.Now().UTC()
	}
	return time.Now().UTC()
}

// Cutoff returns the oldest timestamp HistoricalScores considers, or the zero time
func (o Options) Cutoff() time.Time {
	if o.Retention <= 0 {
		return time.Time{}
	}
	return o.Time().Add(-o.Retention)
}

// JoinList renders a list column the way rows store it
func JoinList(items []string) string {
	return strings.Join(items, ", ")
}
