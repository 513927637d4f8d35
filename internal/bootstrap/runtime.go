// Package bootstrap opens the external resources the API server runs on.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"

	"xchangez/internal/cache"
	"xchangez/internal/config"
	"xchangez/internal/database"
	"xchangez/internal/events"
	"xchangez/internal/featureflags"
	"xchangez/internal/middleware"
	"xchangez/internal/observability"
	"xchangez/internal/server"
	"xchangez/internal/storage"
)

// Options control runtime initialization behavior.
type Options struct {
	// SkipSchema leaves the database schema untouched on connect.
	SkipSchema bool
	// ServiceVersion is reported on exported spans.
	ServiceVersion string
}

// Runtime bundles the server dependencies with the hooks that release them.
type Runtime struct {
	Deps server.Deps

	shutdownTracing func(context.Context) error
}

// InitRuntime configures logging and tracing, then connects the database,
// Redis, the media sink, feature flags and the feed event publisher.
// Redis and RabbitMQ are optional: when unreachable the server runs without them.
func InitRuntime(cfg *config.Config, opts Options) (*Runtime, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	middleware.InitLogger(cfg.Env)
	slog.SetDefault(middleware.Logger)

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "xchangez-api",
		ServiceVersion: opts.ServiceVersion,
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("tracing init failed: %w", err)
	}

	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: !opts.SkipSchema})
	if err != nil {
		_ = shutdownTracing(context.Background())
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// May leave a nil client when Redis is unreachable.
	cache.InitRedis(cfg.RedisURL)

	flags, err := featureflags.LoadFile(cfg.FeatureFlagsFile, cfg.FeatureFlags)
	if err != nil {
		_ = shutdownTracing(context.Background())
		return nil, fmt.Errorf("feature flags: %w", err)
	}

	var publisher events.Publisher = events.Noop{}
	if cfg.RabbitMQURL != "" {
		rabbit, err := events.DialRabbit(cfg.RabbitMQURL)
		if err != nil {
			log.Printf("RabbitMQ warning: %v (feed events disabled)", err)
		} else {
			publisher = rabbit
		}
	}

	return &Runtime{
		Deps: server.Deps{
			DB:     db,
			Redis:  cache.GetClient(),
			Sink:   storage.NewFileSystem(cfg.MediaRoot, cfg.MediaBaseURL),
			Flags:  flags,
			Events: publisher,
		},
		shutdownTracing: shutdownTracing,
	}, nil
}

// Close flushes pending spans. Database, Redis and the publisher are closed by the server.
func (r *Runtime) Close(ctx context.Context) error {
	if r == nil || r.shutdownTracing == nil {
		return nil
	}
	return r.shutdownTracing(ctx)
}
