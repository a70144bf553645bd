package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonathan/placement-matcher/internal/history"
	"github.com/jonathan/placement-matcher/internal/matching"
	"github.com/jonathan/placement-matcher/internal/server/ratelimit"
	"github.com/jonathan/placement-matcher/internal/summarize"
	"github.com/jonathan/placement-matcher/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMatcher struct {
	opts   matching.MatchOptions
	result *types.MatchResult
	err    error
}

func (f *fakeMatcher) Match(_ context.Context, _ types.CandidateRecord, _ types.JobDescriptionSummary, opts matching.MatchOptions) (*types.MatchResult, error) {
	f.opts = opts
	return f.result, f.err
}

type fakeShortlister struct {
	jdID       string
	filters    types.FilterSet
	candidates []types.CandidateRecord
	calls      int
	err        error
}

func (f *fakeShortlister) Shortlist(_ context.Context, jdID string, _ types.JobDescriptionSummary, candidates []types.CandidateRecord, filters types.FilterSet) (*types.ShortlistResult, error) {
	f.calls++
	f.jdID = jdID
	f.filters = filters
	f.candidates = candidates
	if f.err != nil {
		return nil, f.err
	}
	return &types.ShortlistResult{
		JDID:            jdID,
		DynamicMinScore: 55,
		Evaluated:       len(candidates),
		Leaderboard: []types.LeaderboardEntry{
			{Name: candidates[0].DisplayName(), Score: 88, Gap: "None", Skills: []string{"Go"}, Certifications: []string{}},
		},
	}, nil
}

func (f *fakeShortlister) Statistics(_ context.Context, jdID string, minScore int) (types.ScoreStatistics, float64, int, error) {
	f.jdID = jdID
	return types.ScoreStatistics{Mean: 70, Median: 72, Std: 5, SuggestedMinScore: 65}, float64(minScore), 3, f.err
}

type fakeSummarizer struct {
	summary types.JobDescriptionSummary
	calls   int
	err     error
}

func (f *fakeSummarizer) Summarize(_ context.Context, _ string) (types.JobDescriptionSummary, error) {
	f.calls++
	return f.summary, f.err
}

func newTestServer(t *testing.T, deps Dependencies) http.Handler {
	t.Helper()
	if deps.RateLimiter == nil {
		deps.RateLimiter = ratelimit.NewLimiter(&ratelimit.Config{Enabled: false})
	}
	deps.Defaults.Filters = types.DefaultFilters()
	return New(Config{Port: 0}, deps).Handler()
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func testCandidates() []map[string]any {
	return []map[string]any{
		{"name": "Asha", "skills": []string{"Go", "Kubernetes"}, "experience": "5 years", "certifications": []string{"CKA"}},
	}
}

func testJD() map[string]any {
	return map[string]any{"skills": []string{"Go", "Kubernetes"}, "experience": "3+ years"}
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, Dependencies{})
	rec, body := doJSON(t, h, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestIDPropagated(t *testing.T) {
	h := newTestServer(t, Dependencies{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
}

func TestCORSPreflight(t *testing.T) {
	h := newTestServer(t, Dependencies{})
	req := httptest.NewRequest(http.MethodOptions, "/api/match-resume", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestMatchResume(t *testing.T) {
	matcher := &fakeMatcher{result: &types.MatchResult{
		Sections: map[types.SectionKey]types.SectionScore{
			types.SectionSkills: {Score: 80, Weighted: 32, Weight: 40},
		},
		FinalMatchScore: 32,
		Explanation:     "embedding",
	}}
	h := newTestServer(t, Dependencies{Matcher: matcher, Defaults: Defaults{UseLLM: true}})

	t.Run("defaults applied", func(t *testing.T) {
		rec, body := doJSON(t, h, http.MethodPost, "/api/match-resume", map[string]any{
			"parsed_cv":     testCandidates()[0],
			"summarized_jd": testJD(),
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "success", body["status"])
		result := body["match_result"].(map[string]any)
		assert.InDelta(t, 32.0, result["final_match_score"], 0.001)
		assert.True(t, matcher.opts.UseLLM)
		assert.Equal(t, types.DefaultWeights(), matcher.opts.Weights)
	})

	t.Run("request options override", func(t *testing.T) {
		rec, _ := doJSON(t, h, http.MethodPost, "/api/match-resume", map[string]any{
			"parsed_cv":     testCandidates()[0],
			"summarized_jd": testJD(),
			"weights":       map[string]float64{"skills": 1},
			"use_llm":       false,
		})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.False(t, matcher.opts.UseLLM)
		assert.Equal(t, types.WeightSet{types.SectionSkills: 1}, matcher.opts.Weights)
	})

	t.Run("missing cv", func(t *testing.T) {
		rec, body := doJSON(t, h, http.MethodPost, "/api/match-resume", map[string]any{
			"summarized_jd": testJD(),
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "error", body["status"])
		assert.Contains(t, body["message"], "ParsedCV")
	})

	t.Run("malformed body", func(t *testing.T) {
		rec, body := doJSON(t, h, http.MethodPost, "/api/match-resume", "{not json")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, body["message"], "invalid request body")
	})

	t.Run("invalid weights", func(t *testing.T) {
		matcher.err = types.ErrInvalidWeights
		defer func() { matcher.err = nil }()
		rec, _ := doJSON(t, h, http.MethodPost, "/api/match-resume", map[string]any{
			"parsed_cv":     testCandidates()[0],
			"summarized_jd": testJD(),
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestShortlistCandidates(t *testing.T) {
	t.Run("generates jd id and applies default filters", func(t *testing.T) {
		sl := &fakeShortlister{}
		h := newTestServer(t, Dependencies{Shortlister: sl})
		rec, body := doJSON(t, h, http.MethodPost, "/api/shortlist-candidates", map[string]any{
			"jd_summary": testJD(),
			"candidates": testCandidates(),
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "success", body["status"])
		assert.True(t, strings.HasPrefix(sl.jdID, "jd_"))
		assert.Len(t, sl.jdID, 11)
		assert.Equal(t, sl.jdID, body["jd_id"])
		assert.Equal(t, types.DefaultFilters(), sl.filters)
		assert.InDelta(t, 55.0, body["dynamic_min_score"], 0.001)
		leaderboard := body["leaderboard"].([]any)
		require.Len(t, leaderboard, 1)
		assert.Equal(t, "Asha", leaderboard[0].(map[string]any)["name"])
	})

	t.Run("explicit jd id and filters", func(t *testing.T) {
		sl := &fakeShortlister{}
		h := newTestServer(t, Dependencies{Shortlister: sl})
		rec, body := doJSON(t, h, http.MethodPost, "/api/shortlist-candidates", map[string]any{
			"jd_id":      "jd_backend",
			"jd_summary": testJD(),
			"candidates": testCandidates(),
			"filters":    map[string]any{"min_score": 70, "require_cert": true, "top_n": 3},
		})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "jd_backend", body["jd_id"])
		assert.Equal(t, types.FilterSet{MinScore: 70, RequireCert: true, TopN: 3}, sl.filters)
	})

	t.Run("no candidates", func(t *testing.T) {
		sl := &fakeShortlister{}
		h := newTestServer(t, Dependencies{Shortlister: sl})
		rec, body := doJSON(t, h, http.MethodPost, "/api/shortlist-candidates", map[string]any{
			"jd_summary": testJD(),
			"candidates": []any{},
		})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "error", body["status"])
		assert.Equal(t, "No candidates provided", body["message"])
		assert.Equal(t, []any{}, body["leaderboard"])
		assert.Zero(t, sl.calls)
	})

	t.Run("missing jd summary", func(t *testing.T) {
		h := newTestServer(t, Dependencies{Shortlister: &fakeShortlister{}})
		rec, _ := doJSON(t, h, http.MethodPost, "/api/shortlist-candidates", map[string]any{
			"candidates": testCandidates(),
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("history failure", func(t *testing.T) {
		sl := &fakeShortlister{err: errors.New("database is locked")}
		h := newTestServer(t, Dependencies{Shortlister: sl})
		rec, body := doJSON(t, h, http.MethodPost, "/api/shortlist-candidates", map[string]any{
			"jd_summary": testJD(),
			"candidates": testCandidates(),
		})
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, body["message"], "database is locked")
	})
}

func TestSummarizeJD(t *testing.T) {
	sum := &fakeSummarizer{summary: types.JobDescriptionSummary{Skills: types.List("Go")}}
	h := newTestServer(t, Dependencies{Summarizer: sum})

	rec, body := doJSON(t, h, http.MethodPost, "/api/summarize-jd", map[string]any{
		"job_description": "We need a Go engineer",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", body["status"])
	assert.True(t, strings.HasPrefix(body["jd_id"].(string), "jd_"))
	summary := body["summary"].(map[string]any)
	assert.Equal(t, []any{"Go"}, summary["skills"])

	t.Run("errors map to status codes", func(t *testing.T) {
		tests := []struct {
			name string
			err  error
			want int
		}{
			{"provider down", &summarize.APICallError{Message: "boom"}, http.StatusServiceUnavailable},
			{"bad reply", &summarize.ParseError{Message: "not json"}, http.StatusBadGateway},
			{"empty text", &summarize.ValidationError{Message: "empty", Field: "job_description"}, http.StatusBadRequest},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				sum.err = tt.err
				rec, _ := doJSON(t, h, http.MethodPost, "/api/summarize-jd", map[string]any{
					"job_description": "text",
				})
				assert.Equal(t, tt.want, rec.Code)
			})
		}
		sum.err = nil
	})

	t.Run("missing text", func(t *testing.T) {
		rec, _ := doJSON(t, h, http.MethodPost, "/api/summarize-jd", map[string]any{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestBatchProcess(t *testing.T) {
	t.Run("summarizes then shortlists", func(t *testing.T) {
		sum := &fakeSummarizer{summary: types.JobDescriptionSummary{Skills: types.List("Go")}}
		sl := &fakeShortlister{}
		h := newTestServer(t, Dependencies{Summarizer: sum, Shortlister: sl})

		rec, body := doJSON(t, h, http.MethodPost, "/api/batch-process", map[string]any{
			"job_description": "We need a Go engineer",
			"candidates":      testCandidates(),
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, 1, sum.calls)
		assert.Equal(t, 1, sl.calls)
		assert.Equal(t, sl.jdID, body["jd_id"])
		assert.NotNil(t, body["summary"])
		assert.Len(t, body["leaderboard"], 1)
	})

	t.Run("no candidates rejected before summarizing", func(t *testing.T) {
		sum := &fakeSummarizer{}
		h := newTestServer(t, Dependencies{Summarizer: sum, Shortlister: &fakeShortlister{}})

		rec, body := doJSON(t, h, http.MethodPost, "/api/batch-process", map[string]any{
			"job_description": "We need a Go engineer",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, body["message"], "No candidates provided")
		assert.Zero(t, sum.calls)
	})
}

func TestStatistics(t *testing.T) {
	sl := &fakeShortlister{}
	h := newTestServer(t, Dependencies{Shortlister: sl})

	rec, body := doJSON(t, h, http.MethodGet, "/api/jobs/jd_abc/statistics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "jd_abc", sl.jdID)
	assert.InDelta(t, 3.0, body["count"], 0.001)
	assert.InDelta(t, float64(types.DefaultFilters().MinScore), body["dynamic_min_score"], 0.001)
	stats := body["statistics"].(map[string]any)
	assert.InDelta(t, 70.0, stats["mean"], 0.001)
}

func TestScores(t *testing.T) {
	store := history.NewMemoryStore(history.Options{})
	ctx := context.Background()
	for i, name := range []string{"Asha", "Ben", "Chen"} {
		require.NoError(t, store.Record(ctx, "jd_abc", types.CandidateRecord{Name: name}, 60+i, "None"))
	}
	h := newTestServer(t, Dependencies{History: store})

	t.Run("newest first", func(t *testing.T) {
		rec, body := doJSON(t, h, http.MethodGet, "/api/jobs/jd_abc/scores?limit=2", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.InDelta(t, 2.0, body["count"], 0.001)
		scores := body["scores"].([]any)
		assert.Equal(t, "Chen", scores[0].(map[string]any)["candidate_name"])
	})

	t.Run("unknown job is empty", func(t *testing.T) {
		rec, body := doJSON(t, h, http.MethodGet, "/api/jobs/jd_none/scores", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []any{}, body["scores"])
	})

	for _, limit := range []string{"0", "abc", "1001", "-3"} {
		t.Run("invalid limit "+limit, func(t *testing.T) {
			rec, _ := doJSON(t, h, http.MethodGet, "/api/jobs/jd_abc/scores?limit="+limit, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestUnavailableDependencies(t *testing.T) {
	h := newTestServer(t, Dependencies{})
	rec, body := doJSON(t, h, http.MethodPost, "/api/summarize-jd", map[string]any{"job_description": "x"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "error", body["status"])

	rec, _ = doJSON(t, h, http.MethodGet, "/api/jobs/jd_abc/scores", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAuthOnAPIRoutes(t *testing.T) {
	jwtSvc := setupTestJWTService(t, time.Hour)
	token, err := jwtSvc.GenerateToken("portal", 0)
	require.NoError(t, err)

	h := newTestServer(t, Dependencies{
		Summarizer:     &fakeSummarizer{summary: types.JobDescriptionSummary{Skills: types.List("Go")}},
		TokenValidator: jwtSvc.AsTokenValidator(),
	})

	rec, _ := doJSON(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code, "health stays public")

	rec, body := doJSON(t, h, http.MethodPost, "/api/summarize-jd", map[string]any{"job_description": "x"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Unauthorized", body["message"])

	req := httptest.NewRequest(http.MethodPost, "/api/summarize-jd", strings.NewReader(`{"job_description":"x"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	authed := httptest.NewRecorder()
	h.ServeHTTP(authed, req)
	assert.Equal(t, http.StatusOK, authed.Code, authed.Body.String())
}

func TestRateLimitResponse(t *testing.T) {
	limiter := ratelimit.NewLimiter(&ratelimit.Config{
		Enabled:       true,
		DefaultLimit:  100,
		DefaultWindow: time.Minute,
		EndpointConfigs: []ratelimit.EndpointConfig{
			{Path: "/api/summarize-jd", Method: "POST", Limit: 1, Window: time.Minute, Burst: 1},
		},
	})
	defer limiter.Stop()
	h := newTestServer(t, Dependencies{
		Summarizer:  &fakeSummarizer{summary: types.JobDescriptionSummary{Skills: types.List("Go")}},
		RateLimiter: limiter,
	})

	rec, _ := doJSON(t, h, http.MethodPost, "/api/summarize-jd", map[string]any{"job_description": "x"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))

	rec, body := doJSON(t, h, http.MethodPost, "/api/summarize-jd", map[string]any{"job_description": "x"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "error", body["status"])
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestExtractClientID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "10.0.0.7:5123"
	assert.Equal(t, "10.0.0.7", extractClientID(req))

	req.RemoteAddr = "no-port"
	assert.Equal(t, "no-port", extractClientID(req))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &ErrValidation{Field: "limit", Message: "bad"}, http.StatusBadRequest},
		{"not found", &ErrNotFound{Resource: "job", ID: "jd_1"}, http.StatusNotFound},
		{"unavailable", &ErrUnavailable{Service: "llm", Cause: errors.New("down")}, http.StatusServiceUnavailable},
		{"weights", types.ErrInvalidWeights, http.StatusBadRequest},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}
