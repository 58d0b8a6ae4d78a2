package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/leofalp/agentloop/providers/ai"
	"github.com/leofalp/agentloop/providers/ai/middleware"
	"github.com/leofalp/agentloop/providers/ai/openai"
	"github.com/leofalp/agentloop/providers/checkpoint"
	"github.com/leofalp/agentloop/providers/checkpoint/inmemory"
	"github.com/leofalp/agentloop/providers/checkpoint/pgcheckpoint"
	"github.com/leofalp/agentloop/providers/observability"
	"github.com/leofalp/agentloop/providers/observability/logrusobs"
	"github.com/leofalp/agentloop/providers/observability/slogobs"
)

// Observer builds the configured observability backend writing to w. The
// returned logger is used by the provider logging middleware.
func (c *Config) Observer(w io.Writer, component string) (observability.Provider, *slog.Logger) {
	if c.Log.Backend == "logrus" {
		logger := logrus.New()
		logger.SetOutput(w)
		if level, err := logrus.ParseLevel(c.Log.Level); err == nil {
			logger.SetLevel(level)
		}
		if slogobs.ParseFormat(c.Log.Format) == slogobs.FormatJSON {
			logger.SetFormatter(&logrus.JSONFormatter{})
		}
		slogger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slogobs.ParseLevel(c.Log.Level)}))
		return logrusobs.New(logger, component), slogger.With("component", component)
	}

	observer := slogobs.New(
		slogobs.WithOutput(w),
		slogobs.WithFormat(slogobs.ParseFormat(c.Log.Format)),
		slogobs.WithLevel(slogobs.ParseLevel(c.Log.Level)),
	)
	return observer, observer.Logger().With("component", component)
}

// Provider builds the OpenAI backend wrapped in retry and logging middleware.
func (c *Config) Provider(logger *slog.Logger) ai.Provider {
	backend := openai.New(
		openai.WithAPIKey(c.OpenAI.APIKey),
		openai.WithBaseURL(c.OpenAI.BaseURL),
		openai.WithModel(c.Model),
	)

	middlewares := []middleware.Middleware{middleware.Logging(logger, middleware.LogLevelStandard)}
	if c.MaxRetries > 0 {
		middlewares = append(middlewares, middleware.Retry(middleware.RetryConfig{MaxRetries: c.MaxRetries}))
	}
	return middleware.Chain(backend, middlewares...)
}

// Store opens the checkpoint store: PostgreSQL when a database URL is set,
// memory otherwise. release closes the connection pool.
func (c *Config) Store(ctx context.Context) (store checkpoint.Store, release func(), err error) {
	if c.DatabaseURL == "" {
		return inmemory.New(), func() {}, nil
	}

	pool, err := pgxpool.New(ctx, c.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("config: connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("config: ping database: %w", err)
	}

	pg := pgcheckpoint.New(pool)
	if err := pg.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return pg, pool.Close, nil
}

// MustLoad loads the configuration or exits with a message on stderr.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return cfg
}
