package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	apiConfig "property_projection/pkg/api/config"
	"property_projection/pkg/api/middleware"
	apiProjection "property_projection/pkg/api/projection"
	"property_projection/pkg/core/assumption"
	"property_projection/pkg/core/config"
	"property_projection/pkg/core/insight"
	"property_projection/pkg/core/llm"
	"property_projection/pkg/core/logging"
	"property_projection/pkg/core/pipeline"
	"property_projection/pkg/core/store"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Presets
	scenarios := assumption.NewScenarioSet()
	n, err := scenarios.LoadDir(cfg.Assumptions.PresetsDir)
	if err != nil {
		return fmt.Errorf("load presets: %w", err)
	}
	log.Info("presets loaded", zap.Int("custom", n), zap.String("dir", cfg.Assumptions.PresetsDir))

	// Storage: Postgres when configured, Redis or files otherwise
	var portfolios apiProjection.PortfolioLoader
	if cfg.Database.URL != "" {
		if err := store.InitDB(ctx, cfg.Database.URL); err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx, store.GetPool()); err != nil {
			return err
		}
		portfolios = store.NewPortfolioRepo(store.GetPool())
		log.Info("database connected")
	}

	var cache pipeline.Cache
	if cfg.Cache.RedisAddr != "" {
		rc := store.NewRedisProjectionCache(cfg.Cache.RedisAddr, cfg.Cache.RedisTTL)
		defer rc.Close()
		if err := rc.Ping(ctx); err != nil {
			log.Warn("redis unreachable, cache reads will miss", zap.String("addr", cfg.Cache.RedisAddr), zap.Error(err))
		}
		cache = rc
	} else {
		fc, err := store.NewProjectionCache(store.GetPool(), cfg.Cache.Dir)
		if err != nil {
			return err
		}
		cache = fc
	}

	// Insight provider
	provider, err := llm.NewProvider(cfg.Insight.Provider, cfg.Insight.Model, firstNonEmpty(cfg.Insight.APIKey, os.Getenv("GEMINI_API_KEY")))
	if errors.Is(err, llm.ErrMissingAPIKey) {
		log.Warn("no api key for insight provider, using template commentary", zap.String("provider", cfg.Insight.Provider))
		provider = llm.TemplateProvider{}
	} else if err != nil {
		return err
	}

	orch := pipeline.NewOrchestrator(pipeline.Config{
		Projection:     cfg.ProjectionOptions(),
		MilestoneBasis: cfg.Projection.MilestoneBasis,
		Concurrency:    cfg.Projection.Concurrency,
	}, cache, log)

	mux := http.NewServeMux()
	apiProjection.NewHandler(orch, scenarios, insight.NewCommentator(provider, log), portfolios, cache, log).Register(mux)
	apiConfig.NewHandler(cfg, scenarios).Register(mux)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	var handler http.Handler = mux
	if cfg.Server.RateLimitPerMinute > 0 {
		limiter := middleware.NewRateLimiter(cfg.Server.RateLimitPerMinute, cfg.Server.RateLimitBurst)
		defer limiter.Stop()
		handler = middleware.RateLimit(limiter, handler)
	}
	handler = middleware.RequestLog(log, handler)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("api server starting",
			zap.String("addr", server.Addr),
			zap.Strings("routes", []string{
				"POST /api/projection",
				"POST /api/projection/report",
				"POST /api/projection/insight",
				"POST /api/portfolio",
				"GET  /api/assumptions/presets",
				"POST /api/assumptions/presets",
				"GET  /api/assumptions/presets/{name}",
				"DELETE /api/assumptions/presets/{name}",
				"GET  /api/config",
				"GET  /healthz",
			}))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
		log.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("server exited")
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
