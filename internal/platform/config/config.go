// Package config loads application configuration from environment variables.
// All variables use the REVIEW_ prefix.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/p-n-ai/core-knowledge/internal/allocation"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Cache      CacheConfig
	AI         AIConfig
	Access     AccessConfig
	Log        LogConfig
	Paths      PathsConfig
	Allocation AllocationConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int
	Host string
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig holds PostgreSQL settings for run history. An empty URL
// disables history persistence.
type DatabaseConfig struct {
	URL      string
	MaxConns int
	MinConns int
}

// CacheConfig holds Redis/Dragonfly settings for the question cache. An
// empty URL keeps the cache in memory.
type CacheConfig struct {
	URL string
	TTL time.Duration
}

// AIConfig holds question-writing provider settings.
type AIConfig struct {
	OpenAI      OpenAIConfig
	Ollama      OllamaConfig
	TokenBudget int64 // per unit; 0 is unlimited
	Timeout     time.Duration
}

// OpenAIConfig holds OpenAI (or compatible) provider settings.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// OllamaConfig holds self-hosted Ollama settings.
type OllamaConfig struct {
	Enabled bool
	URL     string
	Model   string
}

// AccessConfig protects the HTTP API with a shared PIN. PINHash is a
// bcrypt hash; empty disables the check.
type AccessConfig struct {
	PINHash string
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
}

// PathsConfig locates the inputs and outputs on disk.
type PathsConfig struct {
	LessonResources string
	TermCalendar    string
	Specification   string
	OutputDir       string
}

// AllocationConfig holds engine defaults.
type AllocationConfig struct {
	Repetition string
	MaxWeeks   int
}

// Load reads configuration from environment variables with REVIEW_ prefix.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("REVIEW_SERVER_PORT", 8080),
			Host: envStr("REVIEW_SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			URL:      envStr("REVIEW_DATABASE_URL", ""),
			MaxConns: envInt("REVIEW_DATABASE_MAX_CONNS", 10),
			MinConns: envInt("REVIEW_DATABASE_MIN_CONNS", 1),
		},
		Cache: CacheConfig{
			URL: envStr("REVIEW_CACHE_URL", ""),
			TTL: time.Duration(envInt("REVIEW_CACHE_TTL_HOURS", 720)) * time.Hour,
		},
		AI: AIConfig{
			OpenAI: OpenAIConfig{
				APIKey:  envStr("REVIEW_AI_OPENAI_API_KEY", ""),
				BaseURL: envStr("REVIEW_AI_OPENAI_BASE_URL", "https://api.openai.com/v1"),
				Model:   envStr("REVIEW_AI_OPENAI_MODEL", "gpt-4o-mini"),
			},
			Ollama: OllamaConfig{
				Enabled: envBool("REVIEW_AI_OLLAMA_ENABLED", false),
				URL:     envStr("REVIEW_AI_OLLAMA_URL", "http://localhost:11434"),
				Model:   envStr("REVIEW_AI_OLLAMA_MODEL", "llama3:8b"),
			},
			TokenBudget: int64(envInt("REVIEW_AI_TOKEN_BUDGET", 0)),
			Timeout:     time.Duration(envInt("REVIEW_AI_TIMEOUT_SECONDS", 60)) * time.Second,
		},
		Access: AccessConfig{
			PINHash: envStr("REVIEW_ACCESS_PIN_HASH", ""),
		},
		Log: LogConfig{
			Level:  envStr("REVIEW_LOG_LEVEL", "info"),
			Format: envStr("REVIEW_LOG_FORMAT", "json"),
		},
		Paths: PathsConfig{
			LessonResources: envStr("REVIEW_LESSON_RESOURCES", "./Lesson Resources"),
			TermCalendar:    envStr("REVIEW_TERM_CALENDAR", "./term.json"),
			Specification:   envStr("REVIEW_SPEC_DIR", "./spec/aqa_combined"),
			OutputDir:       envStr("REVIEW_OUTPUT_DIR", "."),
		},
		Allocation: AllocationConfig{
			Repetition: envStr("REVIEW_ALLOCATION_REPETITION", "none"),
			MaxWeeks:   envInt("REVIEW_ALLOCATION_MAX_WEEKS", 0),
		},
	}

	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("REVIEW_SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("REVIEW_DATABASE_MIN_CONNS (%d) exceeds REVIEW_DATABASE_MAX_CONNS (%d)", c.Database.MinConns, c.Database.MaxConns)
	}
	if _, err := c.Log.level(); err != nil {
		return err
	}
	if f := strings.ToLower(c.Log.Format); f != "json" && f != "text" {
		return fmt.Errorf("REVIEW_LOG_FORMAT must be 'json' or 'text', got %q", c.Log.Format)
	}
	if _, err := allocation.ParseRepetition(c.Allocation.Repetition); err != nil {
		return fmt.Errorf("REVIEW_ALLOCATION_REPETITION: %w", err)
	}
	if c.Allocation.MaxWeeks < 0 {
		return fmt.Errorf("REVIEW_ALLOCATION_MAX_WEEKS must not be negative, got %d", c.Allocation.MaxWeeks)
	}
	if c.Access.PINHash != "" && !strings.HasPrefix(c.Access.PINHash, "$2") {
		return fmt.Errorf("REVIEW_ACCESS_PIN_HASH must be a bcrypt hash")
	}
	if c.AI.TokenBudget < 0 {
		return fmt.Errorf("REVIEW_AI_TOKEN_BUDGET must not be negative")
	}
	return nil
}

// HasAIProvider returns true if at least one AI provider is configured.
func (c *Config) HasAIProvider() bool {
	return c.AI.OpenAI.APIKey != "" || c.AI.Ollama.Enabled
}

// RepetitionPolicy returns the parsed allocation repetition policy.
func (c *Config) RepetitionPolicy() allocation.Repetition {
	rep, err := allocation.ParseRepetition(c.Allocation.Repetition)
	if err != nil {
		return allocation.RepeatNone
	}
	return rep
}

func (l LogConfig) level() (slog.Level, error) {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("REVIEW_LOG_LEVEL must be debug, info, warn or error, got %q", l.Level)
}

// Logger builds the process logger writing to w.
func (l LogConfig) Logger(w io.Writer) *slog.Logger {
	level, _ := l.level()
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(l.Format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return strings.EqualFold(v, "true") || v == "1"
	}
	return fallback
}
