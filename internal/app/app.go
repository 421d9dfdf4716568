// Package app wires configuration into the services both binaries use.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/p-n-ai/core-knowledge/internal/ai"
	"github.com/p-n-ai/core-knowledge/internal/generator"
	"github.com/p-n-ai/core-knowledge/internal/history"
	"github.com/p-n-ai/core-knowledge/internal/platform/cache"
	"github.com/p-n-ai/core-knowledge/internal/platform/config"
	"github.com/p-n-ai/core-knowledge/internal/platform/database"
	"github.com/p-n-ai/core-knowledge/internal/questions"
)

// App holds the wired services. DB and Cache are nil when not configured.
type App struct {
	Config    *config.Config
	Router    *ai.Router
	Budget    *ai.TokenBudget
	DB        *database.DB
	Cache     *cache.Cache
	History   history.Store
	Generator *generator.Service
}

// New connects to every configured backend. A missing database keeps
// history in memory; a missing cache keeps questions in memory.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{
		Config:  cfg,
		Router:  NewRouter(cfg.AI),
		Budget:  ai.NewTokenBudget(cfg.AI.TokenBudget),
		History: history.NewMemoryRecorder(),
	}

	var qcache questions.Cache = questions.NewMemoryCache()
	if cfg.Cache.URL != "" {
		c, err := cache.New(ctx, cfg.Cache.URL)
		if err != nil {
			return nil, fmt.Errorf("connecting to cache: %w", err)
		}
		a.Cache = c
		qcache = questions.NewRedisCache(c, cfg.Cache.TTL)
		slog.Info("question cache connected")
	}

	if cfg.Database.URL != "" {
		db, err := database.New(ctx, cfg.Database)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
		a.DB = db
		rec := history.NewPostgresRecorder(db.Pool)
		if err := rec.EnsureSchema(ctx); err != nil {
			a.Close()
			return nil, err
		}
		a.History = rec
		slog.Info("run history connected")
	}

	var completer ai.Completer
	if a.Router.HasProvider() {
		completer = a.Router
		slog.Info("AI providers registered", "providers", a.Router.Names())
	} else {
		slog.Info("no AI provider configured, questions will use templates")
	}

	a.Generator = generator.New(cfg.Paths.LessonResources,
		generator.WithSpecDir(cfg.Paths.Specification),
		generator.WithOutputDir(cfg.Paths.OutputDir),
		generator.WithRecorder(a.History),
		generator.WithQuestions(questions.NewGenerator(completer,
			questions.WithBudget(a.Budget),
			questions.WithCache(qcache),
		)),
	)
	return a, nil
}

// NewRouter registers the configured providers in fallback order:
// OpenAI first, then Ollama.
func NewRouter(cfg config.AIConfig) *ai.Router {
	r := ai.NewRouter()
	client := &http.Client{Timeout: cfg.Timeout}
	if cfg.OpenAI.APIKey != "" {
		r.Register("openai", ai.NewOpenAIProvider(cfg.OpenAI.APIKey,
			ai.WithBaseURL(cfg.OpenAI.BaseURL),
			ai.WithModel(cfg.OpenAI.Model),
			ai.WithHTTPClient(client),
		))
	}
	if cfg.Ollama.Enabled {
		r.Register("ollama", ai.NewOllamaProvider(cfg.Ollama.URL,
			ai.WithOllamaModel(cfg.Ollama.Model),
			ai.WithOllamaHTTPClient(client),
		))
	}
	return r
}

// Ready checks every configured backend. The AI check passes when at
// least one provider is healthy.
func (a *App) Ready(ctx context.Context) map[string]error {
	checks := map[string]error{}
	if a.DB != nil {
		checks["database"] = a.DB.HealthCheck(ctx)
	}
	if a.Cache != nil {
		checks["cache"] = a.Cache.HealthCheck(ctx)
	}
	if a.Router != nil && a.Router.HasProvider() {
		var errs []error
		healthy := false
		for name, err := range a.Router.HealthCheck(ctx) {
			if err == nil {
				healthy = true
				continue
			}
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
		if !healthy {
			checks["ai"] = errors.Join(errs...)
		} else {
			checks["ai"] = nil
		}
	}
	return checks
}

// Close releases backend connections.
func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			slog.Warn("closing cache", "error", err)
		}
	}
}
