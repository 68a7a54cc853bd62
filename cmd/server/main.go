// Package main is the entry point for the fundlens analysis server.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fundlens/fundlens/internal/api"
	"github.com/fundlens/fundlens/internal/cache"
	"github.com/fundlens/fundlens/internal/config"
	"github.com/fundlens/fundlens/internal/embedding"
	"github.com/fundlens/fundlens/internal/market"
	"github.com/fundlens/fundlens/internal/metrics"
	"github.com/fundlens/fundlens/internal/observability"
	"github.com/fundlens/fundlens/internal/ranking"
	"github.com/fundlens/fundlens/internal/session"
	"github.com/fundlens/fundlens/internal/similarity"
	"github.com/fundlens/fundlens/internal/store"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to configuration file")
	flag.Parse()

	bootLogger := observability.NewLogger(observability.LoggerConfig{
		Output:     os.Stdout,
		JSONFormat: true,
	})

	cfgManager, err := config.NewManager(*configPath, bootLogger.Slog())
	if err != nil {
		bootLogger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	cfg := cfgManager.Get()

	logger := observability.NewLogger(observability.LoggerConfig{
		Level:      observability.ParseLevel(cfg.Logging.Level),
		Output:     os.Stdout,
		JSONFormat: cfg.Logging.Format != "text",
	})
	logger.Info("starting fundlens", "version", "0.1.0")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := cfgManager.Watch(ctx); err != nil {
		logger.Warn("config hot-reload disabled", "error", err)
	}

	tracerProvider, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: cfg.Tracing.ServiceName,
		SampleRate:  cfg.Tracing.SampleRate,
		Insecure:    cfg.Tracing.Insecure,
	})
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}

	// Storage backends. A configured database promotes both the analysis
	// store and the session registry to PostgreSQL; Redis optionally takes
	// over the content cache.
	var db *sql.DB
	if cfg.Database.DSN != "" {
		db, err = store.Open(ctx, cfg.Database.DSN)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := store.EnsureSchema(ctx, db); err != nil {
			logger.Error("failed to apply schema", "error", err)
			os.Exit(1)
		}
	}

	var analysisStore store.Store
	var sessions session.Registry
	if db != nil {
		analysisStore = store.NewPostgresStore(db)
		sessions = session.NewPostgresRegistry(session.Config{TTL: cfg.Session.TTL}, db, analysisStore)
		logger.Info("using postgres storage")
	} else {
		memStore := store.NewMemoryStore()
		analysisStore = memStore
		sessions = session.NewMemoryRegistry(session.Config{TTL: cfg.Session.TTL}, memStore)
		logger.Info("using in-memory storage")
	}

	cacheStore, err := buildCache(cfg, db, logger)
	if err != nil {
		logger.Error("failed to initialize cache", "error", err)
		os.Exit(1)
	}
	defer cacheStore.Close()

	var embedder embedding.Embedder
	if cfg.Embedding.Enabled {
		embedder, err = embedding.NewOpenAIEmbedder(embedding.OpenAIConfig{
			APIKey:    cfg.Embedding.APIKey,
			APIBase:   cfg.Embedding.APIBase,
			Model:     cfg.Embedding.Model,
			Dimension: cfg.Embedding.Dimension,
			Timeout:   cfg.Embedding.Timeout,
		})
		if err != nil {
			logger.Error("failed to initialize embedder", "error", err)
			os.Exit(1)
		}
		logger.Info("embedding enabled", "model", cfg.Embedding.Model)
	} else {
		logger.Info("embedding disabled; similarity queries will be unavailable")
	}

	quotes := market.NewCachedProvider(market.NewStaticProvider(nil), cfg.Market.QuoteTTL)
	defer quotes.Close()

	handler := api.NewHandler(api.HandlerConfig{
		Logger:     logger,
		Sessions:   sessions,
		Store:      analysisStore,
		Cache:      cacheStore,
		Rankings:   ranking.NewEngine(analysisStore),
		Similarity: similarity.NewEngine(analysisStore),
		Embedder:   embedder,
		Market:     quotes,
		Tracer:     tracerProvider.Tracer(),
		CacheTTL:   cfg.Cache.DefaultTTL,
	})

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	if cfg.Metrics.Enabled {
		mux.Handle("GET "+cfg.Metrics.Path, promhttp.Handler())
	}

	var httpHandler http.Handler = mux
	httpHandler = metrics.Middleware(httpHandler)
	httpHandler = observability.RequestIDMiddleware(httpHandler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	if cfg.Cache.SweepInterval > 0 {
		go runSweeper(ctx, cfg.Cache.SweepInterval, cacheStore, sessions, logger)
	}

	go func() {
		logger.Info("server listening", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		logger.Error("tracer shutdown error", "error", err)
	}

	cfgManager.Close()
	logger.Info("server stopped")
}

func buildCache(cfg *config.Config, db *sql.DB, logger *observability.Logger) (cache.Store, error) {
	var inner cache.Store
	switch {
	case cfg.Redis.Enabled:
		redisStore, err := cache.NewRedisStore(cache.RedisConfig{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			Namespace: cfg.Redis.Namespace,
		})
		if err != nil {
			return nil, err
		}
		inner = redisStore
		logger.Info("using redis cache", "addr", cfg.Redis.Addr)
	case db != nil:
		inner = cache.NewPostgresStore(db)
		logger.Info("using postgres cache")
	default:
		inner = cache.NewMemoryStore()
		logger.Info("using in-memory cache")
	}
	return cache.NewInstrumentedStore(inner), nil
}
