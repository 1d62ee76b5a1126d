package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Vodeneev/goalscout/internal/analyzer"
	"github.com/Vodeneev/goalscout/internal/pkg/cache"
	"github.com/Vodeneev/goalscout/internal/pkg/config"
	"github.com/Vodeneev/goalscout/internal/pkg/feed"
	"github.com/Vodeneev/goalscout/internal/pkg/logging"
)

// screen runs a single screening pass and prints the shortlist as JSON.
func main() {
	var configPath string
	var notify bool
	flag.StringVar(&configPath, "config", "configs/local.yaml", "Path to config file")
	flag.BoolVar(&notify, "notify", false, "Send the shortlist to the configured Telegram chat")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if _, err := logging.SetupLogger(&cfg.Logging, "screen"); err != nil {
		log.Printf("Warning: failed to setup logging: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	c := cache.New(cache.NewMemory(), cfg.Cache.KeyPrefix)
	source := feed.NewCached(feed.NewFootballData(&cfg.FootballData), c, cfg.Cache)
	profiles := analyzer.NewProfileBuilder(source, c, cfg.Cache.Profiles).
		WithRecentMatches(cfg.Analyzer.RecentMatches)
	screener := analyzer.NewScreener(source, profiles, analyzer.ScreenOptions{
		WindowDays:    cfg.Screener.WindowDays,
		MaxCandidates: cfg.Screener.MaxCandidates,
		ShortlistSize: cfg.Screener.ShortlistSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	shortlist, err := screener.Screen(ctx, nil)
	if err != nil {
		log.Fatalf("Screening failed: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(shortlist); err != nil {
		log.Fatalf("Failed to encode shortlist: %v", err)
	}

	if !notify {
		return
	}
	if !cfg.TelegramEnabled() {
		log.Fatalf("-notify requires telegram.bot_token and telegram.chat_id")
	}
	notifier, err := analyzer.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	if err != nil {
		log.Fatalf("Failed to create Telegram notifier: %v", err)
	}
	if err := notifier.SendShortlist(ctx, shortlist); err != nil {
		log.Fatalf("Failed to send shortlist: %v", err)
	}
	fmt.Fprintf(os.Stderr, "Sent %d fixtures to Telegram\n", len(shortlist))
}
