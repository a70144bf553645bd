package shortlist

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonathan/placement-matcher/internal/history"
	"github.com/jonathan/placement-matcher/internal/llm"
	"github.com/jonathan/placement-matcher/internal/types"
)

// MockLLMClient implements llm.Client for testing
type MockLLMClient struct {
	mu               sync.Mutex
	calls            int
	GenerateJSONFunc func(ctx context.Context, prompt string, tier llm.ModelTier) (string, error)
}

func (m *MockLLMClient) GenerateContent(context.Context, string, llm.ModelTier) (string, error) {
	return "", errors.New("not used")
}

func (m *MockLLMClient) GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.GenerateJSONFunc != nil {
		return m.GenerateJSONFunc(ctx, prompt, tier)
	}
	return `{"score": 70, "gaps": []}`, nil
}

func (m *MockLLMClient) GetModel(llm.ModelTier) string { return "mock-model" }

func (m *MockLLMClient) Close() error { return nil }

func (m *MockLLMClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mapStore is an in-memory cache.Store
type mapStore struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]time.Duration
}

func newMapStore() *mapStore {
	return &mapStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (s *mapStore) Get(_ context.Context, key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

func (s *mapStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	s.ttls[key] = ttl
}

// scriptedScorer returns fixed verdicts by candidate name
type scriptedScorer struct {
	mu       sync.Mutex
	verdicts map[string]string
	inFlight int
	peak     int
	delay    time.Duration
}

func (s *scriptedScorer) Score(_ context.Context, _ string, _ types.JobDescriptionSummary, c types.CandidateRecord) string {
	s.mu.Lock()
	s.inFlight++
	if s.inFlight > s.peak {
		s.peak = s.inFlight
	}
	s.mu.Unlock()

	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight--
	return s.verdicts[c.DisplayName()]
}

// failingStore wraps a MemoryStore and fails selected operations
type failingStore struct {
	*history.MemoryStore
	failRead   bool
	failRecord bool
}

func (f *failingStore) HistoricalScores(ctx context.Context, jdID string) ([]int, error) {
	if f.failRead {
		return nil, errors.New("database is locked")
	}
	return f.MemoryStore.HistoricalScores(ctx, jdID)
}

func (f *failingStore) Record(ctx context.Context, jdID string, c types.CandidateRecord, score int, gap string) error {
	if f.failRecord {
		return errors.New("disk full")
	}
	return f.MemoryStore.Record(ctx, jdID, c, score, gap)
}
