// Package app wires configuration into the shared components used by the
// server, the CLI and the scheduler.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/comment-insights/internal/analysis"
	"github.com/comment-insights/internal/batch"
	"github.com/comment-insights/internal/config"
	"github.com/comment-insights/internal/export/sheets"
	"github.com/comment-insights/internal/jobs"
	"github.com/comment-insights/internal/llm"
	"github.com/comment-insights/internal/models"
	"github.com/comment-insights/internal/storage"
	"github.com/comment-insights/internal/storage/postgres"
	"github.com/comment-insights/internal/storage/sqlite"
	"github.com/comment-insights/internal/youtube"
	"github.com/comment-insights/pkg/logger"
	"github.com/comment-insights/pkg/ratelimit"
)

// App holds the wired components. YouTube, Chain, Exporter and Jobs are
// nil when their configuration is missing.
type App struct {
	Config    *config.Config
	Log       *logger.Logger
	Limiter   *ratelimit.MultiLimiter
	Repo      storage.Repository
	YouTube   *youtube.Client
	Heuristic *analysis.Heuristic
	Chain     *llm.Chain
	Pacer     batch.Pacer
	Exporter  *sheets.Exporter
	Jobs      *jobs.Runner
}

// NewLogger builds the process logger from config
func NewLogger(cfg config.LoggingConfig) *logger.Logger {
	return logger.New(logger.Config{
		Level:  cfg.Level,
		Format: cfg.Format,
		Output: cfg.Output,
	})
}

// New wires every component from cfg
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	a := &App{
		Config:    cfg,
		Log:       log,
		Limiter:   NewLimiter(cfg),
		Heuristic: analysis.NewHeuristic(log),
	}
	a.Pacer = NewPacer(cfg.Batch, a.Limiter)

	repo, err := OpenRepository(ctx, cfg.Database, log)
	if err != nil {
		return nil, err
	}
	a.Repo = repo

	if cfg.RequireYouTube() == nil {
		a.YouTube, err = youtube.NewClient(ctx, cfg.YouTube, a.Limiter, log)
		if err != nil {
			repo.Close()
			return nil, err
		}
	} else {
		log.Warn().Msg("No YouTube credentials configured; requests must supply api_key")
	}

	a.Chain, err = NewChain(cfg, a.Limiter, log)
	if err != nil {
		repo.Close()
		return nil, err
	}

	a.Exporter, err = sheets.New(ctx, cfg.Export.Sheets, log)
	if err != nil {
		repo.Close()
		return nil, fmt.Errorf("sheets exporter: %w", err)
	}

	if a.YouTube != nil {
		opts := jobs.Options{}
		if a.Chain != nil {
			opts.LLM = batch.New[models.LLMAnalysis](a.YouTube, llm.NewStrategy(a.Chain), a.BatchOptions(), log)
		}
		if a.Exporter != nil {
			opts.Exporter = a.Exporter
		}
		a.Jobs = jobs.NewRunner(repo, a.YouTube,
			batch.New[models.VideoAnalysis](a.YouTube, a.Heuristic, a.BatchOptions(), log),
			opts, log)
	}

	return a, nil
}

// BatchOptions returns the orchestrator options from config
func (a *App) BatchOptions() batch.Options {
	return batch.Options{Pacer: a.Pacer, MaxComments: a.Config.YouTube.MaxComments}
}

// ForKey returns a YouTube client using a caller-supplied API key. It shares
// the configured rate limits.
func (a *App) ForKey(ctx context.Context, apiKey string) (*youtube.Client, error) {
	if a.YouTube != nil {
		return a.YouTube.WithAPIKey(ctx, apiKey)
	}
	cfg := a.Config.YouTube
	cfg.APIKey = apiKey
	cfg.AccessToken = ""
	return youtube.NewClient(ctx, cfg, a.Limiter, a.Log)
}

// Close stops background jobs and closes storage
func (a *App) Close() error {
	if a.Jobs != nil {
		a.Jobs.Close()
	}
	if a.Repo != nil {
		return a.Repo.Close()
	}
	return nil
}

// NewLimiter builds the shared rate limiter set
func NewLimiter(cfg *config.Config) *ratelimit.MultiLimiter {
	limits := ratelimit.Limits{
		YouTubeRequestsPerSecond: cfg.RateLimit.YouTubeRequestsPerSecond,
		LLMRequestsPerMinute:     cfg.RateLimit.LLMRequestsPerMinute,
	}
	if d := cfg.Batch.PacingInterval; d > 0 {
		limits.PacingPerSecond = float64(time.Second) / float64(d)
	}
	return ratelimit.NewLimiter(limits)
}

// NewPacer picks the inter-video pacing strategy. Bucket pacing falls back
// to the fixed interval when the limiter has no pacing bucket.
func NewPacer(cfg config.BatchConfig, limiter *ratelimit.MultiLimiter) batch.Pacer {
	switch {
	case cfg.Pacing == "bucket" && limiter != nil && limiter.Has(ratelimit.LimiterPacing):
		return batch.NewLimiterPacer(limiter)
	default:
		if cfg.PacingInterval <= 0 {
			return batch.NoPacing
		}
		return batch.FixedInterval(cfg.PacingInterval)
	}
}

// OpenRepository opens and migrates the configured store
func OpenRepository(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (storage.Repository, error) {
	var (
		repo storage.Repository
		err  error
	)
	switch cfg.Driver {
	case "postgres":
		log.Info().Msg("Using PostgreSQL storage")
		repo, err = postgres.New(ctx, cfg.DSN)
	default:
		log.Info().Str("dsn", cfg.DSN).Msg("Using SQLite storage")
		repo, err = sqlite.New(cfg.DSN)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := repo.Migrate(); err != nil {
		repo.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return repo, nil
}

// NewChain builds the model fallback chain. It returns nil when no
// provider has an API key.
func NewChain(cfg *config.Config, limiter *ratelimit.MultiLimiter, log *logger.Logger) (*llm.Chain, error) {
	backends := make(map[string]llm.ChatBackend)
	if cfg.LLM.OpenRouter.APIKey != "" {
		backends[llm.ProviderOpenRouter] = llm.NewOpenRouter(cfg.LLM.OpenRouter, cfg.LLM.Timeout, limiter, log)
	}
	if cfg.LLM.Anthropic.APIKey != "" {
		backends[llm.ProviderAnthropic] = llm.NewAnthropic(cfg.LLM.Anthropic, limiter, log)
	}
	if len(backends) == 0 {
		log.Info().Msg("No LLM provider configured; llm analyzer disabled")
		return nil, nil
	}

	candidates, err := llm.ParseCandidates(cfg.LLM.Models)
	if err != nil {
		return nil, err
	}
	return llm.NewChain(backends, candidates, llm.ChainOptions{
		MaxPromptComments: cfg.LLM.MaxPromptComments,
		MaxCommentWords:   cfg.LLM.MaxCommentWords,
	}, log), nil
}
