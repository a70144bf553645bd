package server

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/jonathan/placement-matcher/internal/logging"
	"github.com/jonathan/placement-matcher/internal/matching"
	"github.com/jonathan/placement-matcher/internal/types"
	"go.uber.org/zap"
)

const (
	defaultScoresLimit = 50
	maxScoresLimit     = 1000
)

// newJDID generates a short job description id
func newJDID() string {
	return "jd_" + uuid.NewString()[:8]
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMatchResume(w http.ResponseWriter, r *http.Request) {
	if s.deps.Matcher == nil {
		s.errorFromErr(w, &ErrUnavailable{Service: "matcher"})
		return
	}
	var req types.MatchRequest
	if err := decode(w, r, &req); err != nil {
		s.errorFromErr(w, err)
		return
	}

	opts := matching.MatchOptions{Weights: req.Weights, UseLLM: s.deps.Defaults.UseLLM}
	if opts.Weights == nil {
		opts.Weights = s.deps.Defaults.Weights
	}
	if req.UseLLM != nil {
		opts.UseLLM = *req.UseLLM
	}

	result, err := s.deps.Matcher.Match(r.Context(), *req.ParsedCV, *req.SummarizedJD, opts)
	if err != nil {
		s.errorFromErr(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":       "success",
		"match_result": result,
	})
}

func (s *Server) handleShortlist(w http.ResponseWriter, r *http.Request) {
	if s.deps.Shortlister == nil {
		s.errorFromErr(w, &ErrUnavailable{Service: "shortlister"})
		return
	}
	var req types.ShortlistRequest
	if err := decode(w, r, &req); err != nil {
		s.errorFromErr(w, err)
		return
	}

	jdID := req.JDID
	if jdID == "" {
		jdID = newJDID()
	}

	if len(req.Candidates) == 0 {
		s.jsonResponse(w, http.StatusOK, map[string]any{
			"status":      "error",
			"message":     "No candidates provided",
			"jd_id":       jdID,
			"leaderboard": []types.LeaderboardEntry{},
		})
		return
	}

	filters := types.FiltersOr(req.Filters, s.deps.Defaults.Filters)
	result, err := s.deps.Shortlister.Shortlist(r.Context(), jdID, *req.JDSummary, req.Candidates, filters)
	if err != nil {
		s.errorFromErr(w, err)
		return
	}

	s.logger.Info("shortlist complete",
		zap.String(logging.FieldJDID, jdID),
		zap.Int("evaluated", result.Evaluated),
		zap.Int("shortlisted", len(result.Leaderboard)))

	s.jsonResponse(w, http.StatusOK, shortlistBody(result))
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	if s.deps.Summarizer == nil {
		s.errorFromErr(w, &ErrUnavailable{Service: "summarizer"})
		return
	}
	var req types.SummarizeRequest
	if err := decode(w, r, &req); err != nil {
		s.errorFromErr(w, err)
		return
	}

	summary, err := s.deps.Summarizer.Summarize(r.Context(), req.JobDescription)
	if err != nil {
		s.errorFromErr(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":  "success",
		"jd_id":   newJDID(),
		"summary": summary,
	})
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	if s.deps.Summarizer == nil || s.deps.Shortlister == nil {
		s.errorFromErr(w, &ErrUnavailable{Service: "batch processing"})
		return
	}
	var req types.BatchRequest
	if err := decode(w, r, &req); err != nil {
		s.errorFromErr(w, err)
		return
	}
	if len(req.Candidates) == 0 {
		s.errorFromErr(w, &ErrValidation{Field: "candidates", Message: "No candidates provided"})
		return
	}

	summary, err := s.deps.Summarizer.Summarize(r.Context(), req.JobDescription)
	if err != nil {
		s.errorFromErr(w, err)
		return
	}

	jdID := newJDID()
	filters := types.FiltersOr(req.Filters, s.deps.Defaults.Filters)
	result, err := s.deps.Shortlister.Shortlist(r.Context(), jdID, summary, req.Candidates, filters)
	if err != nil {
		s.errorFromErr(w, err)
		return
	}

	body := shortlistBody(result)
	body["summary"] = summary
	s.jsonResponse(w, http.StatusOK, body)
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	if s.deps.Shortlister == nil {
		s.errorFromErr(w, &ErrUnavailable{Service: "shortlister"})
		return
	}
	jdID := r.PathValue("jd_id")

	stats, dynamicMin, count, err := s.deps.Shortlister.Statistics(r.Context(), jdID, s.deps.Defaults.Filters.MinScore)
	if err != nil {
		s.errorFromErr(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":            "success",
		"jd_id":             jdID,
		"count":             count,
		"statistics":        stats,
		"dynamic_min_score": dynamicMin,
	})
}

func (s *Server) handleScores(w http.ResponseWriter, r *http.Request) {
	if s.deps.History == nil {
		s.errorFromErr(w, &ErrUnavailable{Service: "score history"})
		return
	}
	jdID := r.PathValue("jd_id")

	limit := defaultScoresLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxScoresLimit {
			s.errorFromErr(w, &ErrValidation{Field: "limit", Message: "limit must be between 1 and 1000"})
			return
		}
		limit = n
	}

	records, err := s.deps.History.Records(r.Context(), jdID, limit)
	if err != nil {
		s.errorFromErr(w, err)
		return
	}
	if records == nil {
		records = []types.HistoricalScoreRecord{}
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status": "success",
		"jd_id":  jdID,
		"count":  len(records),
		"scores": records,
	})
}

func shortlistBody(result *types.ShortlistResult) map[string]any {
	leaderboard := result.Leaderboard
	if leaderboard == nil {
		leaderboard = []types.LeaderboardEntry{}
	}
	return map[string]any{
		"status":            "success",
		"message":           "Shortlisting complete",
		"jd_id":             result.JDID,
		"dynamic_min_score": result.DynamicMinScore,
		"statistics":        result.Statistics,
		"evaluated":         result.Evaluated,
		"leaderboard":       leaderboard,
	}
}
