package history

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jonathan/placement-matcher/internal/types"
)

// MemoryStore keeps the history in process memory. Rows are lost on exit.
type MemoryStore struct {
	mu     sync.Mutex
	rows   []types.HistoricalScoreRecord
	nextID int64
	opts   Options
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore(opts Options) *MemoryStore {
	return &MemoryStore{opts: opts, nextID: 1}
}

// Record appends one scored candidate
func (s *MemoryStore) Record(ctx context.Context, jdID string, c types.CandidateRecord, score int, gap string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rows = append(s.rows, types.HistoricalScoreRecord{
		ID:             s.nextID,
		JDID:           jdID,
		CandidateName:  c.DisplayName(),
		Score:          score,
		Gap:            gap,
		Skills:         JoinList(c.Skills),
		Experience:     c.Experience,
		Certifications: JoinList(c.Certifications),
		Timestamp:      s.opts.Time(),
	})
	s.nextID++
	return nil
}

// HistoricalScores returns the scores recorded for jdID inside the retention window
func (s *MemoryStore) HistoricalScores(ctx context.Context, jdID string) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.opts.Cutoff()
	scores := []int{}
	for _, r := range s.rows {
		if r.JDID == jdID && !r.Timestamp.Before(cutoff) {
			scores = append(scores, r.Score)
		}
	}
	return scores, nil
}

// Records returns rows for jdID newest first
func (s *MemoryStore) Records(ctx context.Context, jdID string, limit int) ([]types.HistoricalScoreRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	records := []types.HistoricalScoreRecord{}
	for _, r := range s.rows {
		if r.JDID == jdID {
			records = append(records, r)
		}
	}
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Timestamp.Equal(records[j].Timestamp) {
			return records[i].ID > records[j].ID
		}
		return records[i].Timestamp.After(records[j].Timestamp)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// Prune deletes rows recorded before olderThan
func (s *MemoryStore) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.rows[:0]
	var removed int64
	for _, r := range s.rows {
		if r.Timestamp.Before(olderThan) {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	s.rows = kept
	return removed, nil
}

// Close is a no-op
func (s *MemoryStore) Close() error {
	return nil
}
