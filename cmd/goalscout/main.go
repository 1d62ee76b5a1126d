package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Vodeneev/goalscout/internal/analyzer"
	"github.com/Vodeneev/goalscout/internal/pkg/cache"
	"github.com/Vodeneev/goalscout/internal/pkg/config"
	"github.com/Vodeneev/goalscout/internal/pkg/feed"
	"github.com/Vodeneev/goalscout/internal/pkg/logging"
	"github.com/Vodeneev/goalscout/internal/pkg/storage"
)

const (
	defaultConfigPath = "configs/local.yaml"
)

func main() {
	fmt.Println("Starting goalscout...")

	var configPath string
	var addr string

	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = defaultConfigPath
	}

	flag.StringVar(&configPath, "config", defaultConfig, "Path to config file (can be set via CONFIG_PATH env var)")
	flag.StringVar(&addr, "addr", "", "HTTP listen address, overrides server.addr (e.g. :8080)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}

	if _, err := logging.SetupLogger(&cfg.Logging, "goalscout"); err != nil {
		log.Printf("Warning: failed to setup logging: %v, continuing with default logger", err)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("goalscout: invalid config: %v", err)
	}

	backend, closeBackend, err := newCacheBackend(cfg)
	if err != nil {
		log.Fatalf("goalscout: failed to initialize cache: %v", err)
	}
	defer closeBackend()
	c := cache.New(backend, cfg.Cache.KeyPrefix)

	source := feed.NewCached(feed.NewFootballData(&cfg.FootballData), c, cfg.Cache)

	profiles := analyzer.NewProfileBuilder(source, c, cfg.Cache.Profiles).
		WithRecentMatches(cfg.Analyzer.RecentMatches)
	h2h := analyzer.NewHeadToHeadAnalyzer(source, c, cfg.Cache.HeadToHead, cfg.Analyzer.H2HScanMatches)
	engine := analyzer.NewEngine(profiles, h2h, analyzer.EngineOptions{
		H2HLimit:       cfg.Analyzer.H2HLimit,
		DefaultMarkets: parseMarkets(cfg.Analyzer.DefaultMarkets),
	})
	screener := analyzer.NewScreener(source, profiles, analyzer.ScreenOptions{
		WindowDays:    cfg.Screener.WindowDays,
		MaxCandidates: cfg.Screener.MaxCandidates,
		ShortlistSize: cfg.Screener.ShortlistSize,
	})

	deps := analyzer.ServerDeps{
		Engine:         engine,
		HeadToHead:     h2h,
		Screener:       screener,
		Fixtures:       source,
		Cache:          c,
		ShortlistTTL:   cfg.Cache.Shortlist,
		WindowDays:     cfg.Screener.WindowDays,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Alerts: analyzer.AlertOptions{
			MinEV:        cfg.Telegram.AlertMinEV,
			ReferenceOdd: cfg.Telegram.ReferenceOdd,
		},
	}

	var historyStore analyzer.HistoryStore
	if cfg.Postgres.DSN != "" {
		pg, err := storage.NewPostgresHistory(&cfg.Postgres)
		if err != nil {
			log.Fatalf("goalscout: failed to initialize PostgreSQL history: %v", err)
		}
		defer func() {
			if err := pg.Close(); err != nil {
				slog.Error("Failed to close PostgreSQL history", "error", err)
			}
		}()
		historyStore = pg
		deps.PersistedHistory = pg
		slog.Info("PostgreSQL history enabled")
	}
	deps.Session = analyzer.NewSession(cfg.Analyzer.HistorySize, historyStore)

	if odds := feed.NewOddsAPI(&cfg.OddsAPI); odds.Configured() {
		deps.Odds = odds
		slog.Info("Bookmaker odds enabled", "base_url", cfg.OddsAPI.BaseURL)
	}

	if cfg.TelegramEnabled() {
		notifier, err := analyzer.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			slog.Error("Failed to create Telegram notifier, alerts disabled", "error", err)
		} else {
			deps.Notifier = notifier
			slog.Info("Telegram notifier enabled", "chat_id", cfg.Telegram.ChatID)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Received shutdown signal, stopping goalscout...")
		cancel()
	}()

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           analyzer.NewServer(deps).Routes(),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("HTTP server listening", "addr", cfg.Server.Addr, "cache", cfg.Cache.Backend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("HTTP server error", "error", err)
		os.Exit(1)
	}

	slog.Info("goalscout stopped")
}

func newCacheBackend(cfg *config.Config) (cache.Backend, func(), error) {
	if cfg.Cache.Backend != "redis" {
		return cache.NewMemory(), func() {}, nil
	}
	r, err := storage.NewRedisCache(&cfg.Cache)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("Redis cache enabled", "addr", cfg.Cache.RedisAddr)
	return r, func() {
		if err := r.Close(); err != nil {
			slog.Error("Failed to close Redis cache", "error", err)
		}
	}, nil
}

func parseMarkets(names []string) []analyzer.Market {
	markets := make([]analyzer.Market, 0, len(names))
	for _, name := range names {
		m, ok := analyzer.ParseMarket(name)
		if !ok {
			slog.Warn("Ignoring unknown default market", "market", name)
			continue
		}
		markets = append(markets, m)
	}
	return markets
}
