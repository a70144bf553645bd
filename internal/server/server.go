// Package server provides the HTTP REST API for candidate matching and shortlisting.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/placement-matcher/internal/history"
	"github.com/jonathan/placement-matcher/internal/logging"
	"github.com/jonathan/placement-matcher/internal/matching"
	"github.com/jonathan/placement-matcher/internal/server/middleware"
	"github.com/jonathan/placement-matcher/internal/server/ratelimit"
	"github.com/jonathan/placement-matcher/internal/types"
	"go.uber.org/zap"
)

// maxBodyBytes bounds request bodies
const maxBodyBytes = 10 << 20

// Matcher scores one candidate against one job description
type Matcher interface {
	Match(ctx context.Context, cv types.CandidateRecord, jd types.JobDescriptionSummary, opts matching.MatchOptions) (*types.MatchResult, error)
}

// Shortlister ranks candidates and reports score history
type Shortlister interface {
	Shortlist(ctx context.Context, jdID string, jd types.JobDescriptionSummary, candidates []types.CandidateRecord, f types.FilterSet) (*types.ShortlistResult, error)
	Statistics(ctx context.Context, jdID string, minScore int) (types.ScoreStatistics, float64, int, error)
}

// Summarizer reduces a job description to section requirements
type Summarizer interface {
	Summarize(ctx context.Context, text string) (types.JobDescriptionSummary, error)
}

// Config holds server configuration
type Config struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CORSOrigin      string
}

// Defaults are applied to requests that leave options out
type Defaults struct {
	Weights types.WeightSet
	UseLLM  bool
	Filters types.FilterSet
}

// Dependencies are the services behind the handlers
type Dependencies struct {
	Matcher     Matcher
	Shortlister Shortlister
	Summarizer  Summarizer
	History     history.Store
	// TokenValidator enables bearer auth on /api/ routes when set
	TokenValidator middleware.TokenValidator
	RateLimiter    *ratelimit.Limiter
	Defaults       Defaults
	Logger         *zap.Logger
}

// Server represents the HTTP server
type Server struct {
	httpServer      *http.Server
	deps            Dependencies
	corsOrigin      string
	shutdownTimeout time.Duration
	rateLimiter     *ratelimit.Limiter
	logger          *zap.Logger
}

// New creates a new server instance
func New(cfg Config, deps Dependencies) *Server {
	logger := logging.OrNop(deps.Logger)
	if deps.RateLimiter == nil {
		deps.RateLimiter = ratelimit.NewLimiter(&ratelimit.Config{Enabled: false})
	}
	if deps.Defaults.Weights == nil {
		deps.Defaults.Weights = types.DefaultWeights()
	}
	if cfg.CORSOrigin == "" {
		cfg.CORSOrigin = "*"
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}

	s := &Server{
		deps:            deps,
		corsOrigin:      cfg.CORSOrigin,
		shutdownTimeout: cfg.ShutdownTimeout,
		rateLimiter:     deps.RateLimiter,
		logger:          logger,
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the routed handler with the middleware chain applied
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /api/match-resume", s.handleMatchResume)
	mux.HandleFunc("POST /api/shortlist-candidates", s.handleShortlist)
	mux.HandleFunc("POST /api/summarize-jd", s.handleSummarize)
	mux.HandleFunc("POST /api/batch-process", s.handleBatch)
	mux.HandleFunc("GET /api/jobs/{jd_id}/statistics", s.handleStatistics)
	mux.HandleFunc("GET /api/jobs/{jd_id}/scores", s.handleScores)

	return s.withRateLimit(s.withLogging(s.withCORS(s.withAuth(mux))))
}

// Start listens until ctx is cancelled or SIGINT/SIGTERM arrives, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.rateLimiter.Stop()
	s.logger.Info("server stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.corsOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withAuth requires a bearer token on /api/ routes when a validator is configured
func (s *Server) withAuth(next http.Handler) http.Handler {
	if s.deps.TokenValidator == nil {
		return next
	}
	protected := middleware.AuthMiddleware(s.deps.TokenValidator)(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			protected.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for access logs
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withLogging assigns a request id and writes one access log line per request
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("took", time.Since(start)),
			zap.String(logging.FieldRequestID, requestID))
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(extractClientID(r), r.URL.Path, r.Method)
		setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// extractClientID uses the IP address from RemoteAddr.
func extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]any{
		"status":  "error",
		"message": "Rate limit exceeded. Please try again later.",
		"limit":   info.Limit,
	}
	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Seconds()) + 1
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}

	s.logger.Warn("rate limit exceeded", zap.Int("limit", info.Limit))
	s.jsonResponse(w, http.StatusTooManyRequests, response)
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// errorResponse writes an error envelope
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]any{"status": "error", "message": message})
}

// errorFromErr writes err with the status HTTPStatus assigns it
func (s *Server) errorFromErr(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Int("status", status), zap.Error(err))
	}
	message := err.Error()
	if status == http.StatusBadRequest {
		message = validationMessage(err)
	}
	s.errorResponse(w, status, message)
}

// decode reads a JSON body into v and runs its validation
func decode(w http.ResponseWriter, r *http.Request, v interface{ Validate() error }) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &ErrValidation{Message: "invalid request body: " + err.Error()}
	}
	return v.Validate()
}
