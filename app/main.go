package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/news-hub/app/api"
	"github.com/lysyi3m/news-hub/app/catalog"
	"github.com/lysyi3m/news-hub/app/cfg"
	"github.com/lysyi3m/news-hub/app/database"
	"github.com/lysyi3m/news-hub/app/feed"
	"github.com/lysyi3m/news-hub/app/fragment"
	"github.com/lysyi3m/news-hub/app/settings"
	"github.com/lysyi3m/news-hub/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting News Hub server", "version", cfg.GetVersion())

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to connect to database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

	feedRepo := database.NewFeedRepository(db)
	articleRepo := database.NewArticleRepository(db)
	settingsService := settings.NewService(database.NewSettingsRepository(db))

	ctx := context.Background()

	if err := settingsService.Seed(ctx, appCfg.IngestionURL); err != nil {
		slog.Warn("Failed to seed ingestion URL", "url", appCfg.IngestionURL, "error", err)
	}

	store, closeStore, err := newFragmentStore(ctx, appCfg, db)
	if err != nil {
		slog.Error("Failed to initialize fragment cache", "backend", appCfg.CacheBackend, "error", err)
		os.Exit(1)
	}
	defer closeStore()
	slog.Info("Fragment cache ready", "backend", appCfg.CacheBackend)

	httpClient := &http.Client{}

	fragments := fragment.NewCache(store,
		fragment.NewFeedClient(httpClient, appCfg.UserAgent, appCfg.GetFetchTimeout()),
		fragment.NewRenderer(), settingsService)

	configCache := feed.NewConfigCache(appCfg.FeedsDir)
	if err := configCache.Run(); err != nil {
		slog.Error("Failed to load feed configurations", "dir", appCfg.FeedsDir, "error", err)
		os.Exit(1)
	}
	slog.Info("Feed configurations loaded", "dir", appCfg.FeedsDir, "count", configCache.GetConfigCount())

	scheduler := tasks.NewScheduler(configCache, tasks.Dependencies{
		FeedRepo:         feedRepo,
		ArticleRepo:      articleRepo,
		HTTPClient:       httpClient,
		Parser:           feed.NewParser(),
		Filterer:         feed.NewFilterer(),
		Summarizer:       feed.NewSummarizer(),
		Scorer:           feed.NewScorer(),
		ContentExtractor: feed.NewContentExtractor(),
		UserAgent:        appCfg.UserAgent,
		MinScore:         appCfg.MinRelevanceScore,
	})
	scheduler.Start()
	defer scheduler.Stop()

	var cacheHealth api.HealthReporter
	if reporter, ok := store.(api.HealthReporter); ok {
		cacheHealth = reporter
	}

	handler := api.NewHandler(configCache, feedRepo, articleRepo, catalog.NewService(articleRepo),
		fragments, settingsService, scheduler, cacheHealth, appCfg.MinRelevanceScore)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      api.NewServer(handler, appCfg.APIAccessKey),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port, "base_url", appCfg.BaseUrl)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}
}

// newFragmentStore selects the fragment cache backend. The returned close
// function is always safe to call.
func newFragmentStore(ctx context.Context, appCfg *cfg.Cfg, db *database.DB) (fragment.Store, func(), error) {
	switch appCfg.CacheBackend {
	case "redis":
		store, err := fragment.NewRedisStore(ctx, appCfg.RedisAddr)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			if err := store.Close(); err != nil {
				slog.Warn("Failed to close redis client", "error", err)
			}
		}, nil
	case "sqlite":
		return database.NewTransientRepository(db), func() {}, nil
	default:
		return fragment.NewMemoryStore(), func() {}, nil
	}
}
