package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonathan/placement-matcher/internal/cache"
	"github.com/jonathan/placement-matcher/internal/config"
	"github.com/jonathan/placement-matcher/internal/db"
	"github.com/jonathan/placement-matcher/internal/embedding"
	"github.com/jonathan/placement-matcher/internal/history"
	"github.com/jonathan/placement-matcher/internal/llm"
	"github.com/jonathan/placement-matcher/internal/logging"
	"github.com/jonathan/placement-matcher/internal/matching"
	"github.com/jonathan/placement-matcher/internal/shortlist"
	"github.com/jonathan/placement-matcher/internal/summarize"
	"github.com/jonathan/placement-matcher/internal/textnorm"
	"go.uber.org/zap"
)

// app holds the services shared by every command
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	llm     llm.Client
	cache   cache.Store
	closers []func() error
}

// newApp loads the configuration and builds the shared services
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	return newAppFromConfig(ctx, cfg, logger)
}

func newAppFromConfig(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logging.OrNop(logger)}

	store, closeCache := cache.Open(ctx, cfg.Cache.RedisURL, cfg.Cache.MaxEntries, cfg.Cache.TTL, a.logger)
	a.cache = store
	a.closers = append(a.closers, closeCache)

	if key := cfg.LLM.APIKey(); key != "" {
		clientCfg, err := cfg.LLM.ClientConfig()
		if err != nil {
			return nil, err
		}
		client, err := llm.NewClient(ctx, clientCfg, key, a.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create LLM client: %w", err)
		}
		a.llm = client
		a.closers = append(a.closers, client.Close)
		a.logger = logging.WithProvider(a.logger, string(clientCfg.Provider), clientCfg.GetModel(llm.TierStandard))
	} else {
		a.logger.Warn("no API key for LLM provider; verdicts and summaries are unavailable",
			zap.String(logging.FieldProvider, cfg.LLM.Provider))
	}
	return a, nil
}

// Close releases resources in reverse order of acquisition
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	_ = a.logger.Sync()
	return errors.Join(errs...)
}

func (a *app) embedder(ctx context.Context) (*embedding.CachedEmbedder, error) {
	var provider embedding.Provider
	switch a.cfg.Embedding.Provider {
	case "gemini":
		p, err := embedding.NewGeminiProvider(ctx, a.cfg.LLM.GeminiAPIKey, a.cfg.Embedding.Model, a.cfg.Embedding.Dimension)
		if err != nil {
			return nil, fmt.Errorf("failed to create embedding provider: %w", err)
		}
		provider = p
	default:
		provider = embedding.NewHashingProvider(a.cfg.Embedding.Dimension)
	}
	return embedding.NewCachedEmbedder(provider, a.cache, a.logger), nil
}

func (a *app) matcher(ctx context.Context) (*matching.Matcher, error) {
	emb, err := a.embedder(ctx)
	if err != nil {
		return nil, err
	}
	var llmScorer matching.LLMScorer
	if a.llm != nil {
		llmScorer = matching.NewLLMSectionScorer(a.llm, a.logger)
	}
	scorer := matching.NewSectionScorer(emb, llmScorer, a.logger)
	return matching.NewMatcher(textnorm.New(0), scorer, a.logger), nil
}

// history opens the configured score store; the caller closes it
func (a *app) history(ctx context.Context) (history.Store, error) {
	opts := history.Options{Retention: a.cfg.History.Retention}
	switch a.cfg.History.Driver {
	case "memory":
		return history.NewMemoryStore(opts), nil
	case "postgres":
		store, err := db.Connect(ctx, a.cfg.History.DatabaseURL, opts)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		store, err := history.OpenSQLite(ctx, a.cfg.History.Path, opts)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}

func (a *app) engine(store history.Store) *shortlist.Engine {
	scorer := shortlist.NewCandidateScorer(a.llm, a.cache, a.logger)
	return shortlist.NewEngine(scorer, store, a.cfg.Shortlist.Concurrency, a.logger)
}

func (a *app) summarizer() *summarize.Summarizer {
	return summarize.New(a.llm, a.logger)
}
