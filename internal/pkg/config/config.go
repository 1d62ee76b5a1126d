package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrMissingFootballDataKey is returned by Validate when no feed credentials are configured.
var ErrMissingFootballDataKey = errors.New("football_data.api_key is required (or FOOTBALL_DATA_API_KEY env var)")

type Config struct {
	Logging      LoggingConfig      `yaml:"logging"`
	Server       ServerConfig       `yaml:"server"`
	FootballData FootballDataConfig `yaml:"football_data"`
	OddsAPI      OddsAPIConfig      `yaml:"odds_api"`
	Cache        CacheConfig        `yaml:"cache"`
	Postgres     PostgresConfig     `yaml:"postgres"`
	Analyzer     AnalyzerConfig     `yaml:"analyzer"`
	Screener     ScreenerConfig     `yaml:"screener"`
	Telegram     TelegramConfig     `yaml:"telegram"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

type ServerConfig struct {
	Addr              string        `yaml:"addr"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	AllowedOrigins    []string      `yaml:"allowed_origins"`
}

type FootballDataConfig struct {
	BaseURL      string        `yaml:"base_url"`
	APIKey       string        `yaml:"api_key"`
	Timeout      time.Duration `yaml:"timeout"`
	Competitions []string      `yaml:"competitions"` // allow-list of competition names
}

type OddsAPIConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Regions string        `yaml:"regions"`
	Markets string        `yaml:"markets"`
	Timeout time.Duration `yaml:"timeout"`
}

// CacheConfig selects the cache backend and the TTL per cached table.
type CacheConfig struct {
	Backend       string        `yaml:"backend"` // "memory" or "redis"
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	KeyPrefix     string        `yaml:"key_prefix"`
	Competitions  time.Duration `yaml:"competitions_ttl"`
	Fixtures      time.Duration `yaml:"fixtures_ttl"`
	Profiles      time.Duration `yaml:"profiles_ttl"`
	HeadToHead    time.Duration `yaml:"h2h_ttl"`
	Shortlist     time.Duration `yaml:"shortlist_ttl"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"` // optional: persists analysis history when set
}

type AnalyzerConfig struct {
	HistorySize    int      `yaml:"history_size"`
	RecentMatches  int      `yaml:"recent_matches"`
	H2HScanMatches int      `yaml:"h2h_scan_matches"`
	H2HLimit       int      `yaml:"h2h_limit"`
	DefaultMarkets []string `yaml:"default_markets"`
}

type ScreenerConfig struct {
	WindowDays    int `yaml:"window_days"`
	MaxCandidates int `yaml:"max_candidates"`
	ShortlistSize int `yaml:"shortlist_size"`
}

type TelegramConfig struct {
	BotToken     string  `yaml:"bot_token"`
	ChatID       int64   `yaml:"chat_id"`
	AlertMinEV   float64 `yaml:"alert_min_ev"`
	ReferenceOdd float64 `yaml:"reference_odd"`
}

func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyEnv()
	config.applyDefaults()
	return &config, nil
}

// Default returns a config with every default applied and env overrides read.
func Default() *Config {
	var config Config
	config.applyEnv()
	config.applyDefaults()
	return &config
}

// Validate reports missing configuration that must be caught before the service starts.
func (c *Config) Validate() error {
	if c.FootballData.APIKey == "" {
		return ErrMissingFootballDataKey
	}
	if c.Cache.Backend != "memory" && c.Cache.Backend != "redis" {
		return fmt.Errorf("cache.backend must be memory or redis, got %q", c.Cache.Backend)
	}
	if c.Cache.Backend == "redis" && c.Cache.RedisAddr == "" {
		return fmt.Errorf("cache.redis_addr is required when cache.backend is redis")
	}
	return nil
}

// TelegramEnabled reports whether notifier credentials are present.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != 0
}

func (c *Config) applyEnv() {
	if v := os.Getenv("FOOTBALL_DATA_API_KEY"); v != "" {
		c.FootballData.APIKey = v
	}
	if v := os.Getenv("ODDS_API_KEY"); v != "" {
		c.OddsAPI.APIKey = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.RedisAddr = v
		c.Cache.Backend = "redis"
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		c.Postgres.DSN = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		if chatID, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Telegram.ChatID = chatID
		}
	}
}

// DefaultCompetitions is the allow-list used when none is configured.
var DefaultCompetitions = []string{
	"Premier League", "Primera Division", "Serie A", "Bundesliga",
	"Ligue 1", "Primeira Liga", "Eredivisie", "Jupiler Pro League",
	"Scottish Premiership",
	"UEFA Champions League", "UEFA Europa League", "UEFA Conference League",
}

// DefaultMarkets are analysed when a request does not select any.
var DefaultMarkets = []string{"btts", "over25", "over15", "under35", "second_half_more"}

func (c *Config) applyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}

	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadHeaderTimeout <= 0 {
		c.Server.ReadHeaderTimeout = 5 * time.Second
	}

	if c.FootballData.BaseURL == "" {
		c.FootballData.BaseURL = "https://api.football-data.org/v4"
	}
	if c.FootballData.Timeout <= 0 {
		c.FootballData.Timeout = 15 * time.Second
	}
	if len(c.FootballData.Competitions) == 0 {
		c.FootballData.Competitions = append([]string(nil), DefaultCompetitions...)
	}

	if c.OddsAPI.BaseURL == "" {
		c.OddsAPI.BaseURL = "https://api.the-odds-api.com/v4"
	}
	if c.OddsAPI.Regions == "" {
		c.OddsAPI.Regions = "eu"
	}
	if c.OddsAPI.Markets == "" {
		c.OddsAPI.Markets = "h2h,totals"
	}
	if c.OddsAPI.Timeout <= 0 {
		c.OddsAPI.Timeout = 10 * time.Second
	}

	if c.Cache.Backend == "" {
		c.Cache.Backend = "memory"
	}
	if c.Cache.KeyPrefix == "" {
		c.Cache.KeyPrefix = "goalscout:"
	}
	if c.Cache.Competitions <= 0 {
		c.Cache.Competitions = time.Hour
	}
	if c.Cache.Fixtures <= 0 {
		c.Cache.Fixtures = 10 * time.Minute
	}
	if c.Cache.Profiles <= 0 {
		c.Cache.Profiles = time.Hour
	}
	if c.Cache.HeadToHead <= 0 {
		c.Cache.HeadToHead = time.Hour
	}
	if c.Cache.Shortlist <= 0 {
		c.Cache.Shortlist = 30 * time.Minute
	}

	if c.Analyzer.HistorySize <= 0 {
		c.Analyzer.HistorySize = 200
	}
	if c.Analyzer.RecentMatches <= 0 {
		c.Analyzer.RecentMatches = 10
	}
	if c.Analyzer.H2HScanMatches <= 0 {
		c.Analyzer.H2HScanMatches = 20
	}
	if c.Analyzer.H2HLimit <= 0 {
		c.Analyzer.H2HLimit = 5
	}
	if len(c.Analyzer.DefaultMarkets) == 0 {
		c.Analyzer.DefaultMarkets = append([]string(nil), DefaultMarkets...)
	}

	if c.Screener.WindowDays <= 0 {
		c.Screener.WindowDays = 7
	}
	if c.Screener.MaxCandidates <= 0 {
		c.Screener.MaxCandidates = 12
	}
	if c.Screener.ShortlistSize <= 0 {
		c.Screener.ShortlistSize = 6
	}

	if c.Telegram.AlertMinEV <= 0 {
		c.Telegram.AlertMinEV = 0.1
	}
	if c.Telegram.ReferenceOdd <= 0 {
		c.Telegram.ReferenceOdd = 2.0
	}
}
