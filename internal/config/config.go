package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	DefaultLimit        = 5
	DefaultConcurrency  = 4
	DefaultFetchTimeout = 10 * time.Second
	DefaultUserAgent    = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:146.0) Gecko/20100101 Firefox/146.0"

	// DefaultRequestTimeout bounds one HTTP request, including a full
	// aggregation behind /api/articles and the feed endpoints.
	DefaultRequestTimeout = 2 * time.Minute
)

type Config struct {
	App        AppConfig        `toml:"app"`
	Storage    StorageConfig    `toml:"storage"`
	Server     ServerConfig     `toml:"server"`
	Aggregator AggregatorConfig `toml:"aggregator"`
	Scraper    ScraperConfig    `toml:"scraper"`
	Log        LogConfig        `toml:"log"`
}

type AppConfig struct {
	Name string `toml:"name"`
}

type StorageConfig struct {
	Type string `toml:"type"`
	Path string `toml:"path"`
	DSN  string `toml:"dsn"`
}

type ServerConfig struct {
	Enabled        *bool  `toml:"enabled"`
	Address        string `toml:"address"`
	FeedTitle      string `toml:"feed_title"`
	FeedLink       string `toml:"feed_link"`
	RequestTimeout string `toml:"request_timeout"`
}

func (s ServerConfig) Timeout() time.Duration {
	return ParseDuration(s.RequestTimeout, DefaultRequestTimeout)
}

func (s ServerConfig) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

func (s *ServerConfig) Disable() {
	disabled := false
	s.Enabled = &disabled
}

type AggregatorConfig struct {
	DefaultLimit    int    `toml:"default_limit"`
	Concurrency     int    `toml:"concurrency"`
	FetchTimeout    string `toml:"fetch_timeout"`
	StrictAlignment bool   `toml:"strict_alignment"`
}

func (a AggregatorConfig) Timeout() time.Duration {
	return ParseDuration(a.FetchTimeout, DefaultFetchTimeout)
}

type ScraperConfig struct {
	UserAgent string `toml:"user_agent"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Load reads the TOML file at path. A missing file yields the defaults.
// Environment overrides are applied before validation.
func Load(path string) (*Config, error) {
	var config Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	applyEnv(&config)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// LoadEnv loads .env style files into the process environment. Missing
// files are ignored.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}

	existing := make([]string, 0, len(paths))
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}

	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

func Default() *Config {
	var config Config
	// defaults cannot fail validation
	_ = validateConfig(&config)
	return &config
}

func applyEnv(config *Config) {
	overrides := map[string]*string{
		"HERALD_STORAGE_TYPE":   &config.Storage.Type,
		"HERALD_STORAGE_PATH":   &config.Storage.Path,
		"HERALD_STORAGE_DSN":    &config.Storage.DSN,
		"HERALD_SERVER_ADDRESS": &config.Server.Address,
		"HERALD_LOG_LEVEL":      &config.Log.Level,
	}

	for key, field := range overrides {
		if val, ok := os.LookupEnv(key); ok && val != "" {
			*field = val
		}
	}
}

func validateConfig(config *Config) error {
	if config.App.Name == "" {
		config.App.Name = "herald"
	}

	if config.Storage.Type == "" {
		config.Storage.Type = "sqlite"
	}
	config.Storage.Type = strings.ToLower(config.Storage.Type)

	switch config.Storage.Type {
	case "sqlite":
		if config.Storage.Path == "" {
			config.Storage.Path = "./herald.db"
		}
	case "postgres":
		if config.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for postgres storage")
		}
	default:
		return fmt.Errorf("unsupported storage type: %s", config.Storage.Type)
	}

	if config.Server.Address == "" {
		config.Server.Address = ":8080"
	}

	if config.Server.FeedTitle == "" {
		config.Server.FeedTitle = "Herald"
	}

	if config.Server.FeedLink == "" {
		config.Server.FeedLink = "http://localhost/"
	}

	if config.Server.RequestTimeout == "" {
		config.Server.RequestTimeout = DefaultRequestTimeout.String()
	}
	requestTimeout, err := time.ParseDuration(config.Server.RequestTimeout)
	if err != nil {
		return fmt.Errorf("invalid server.request_timeout: %w", err)
	}
	if requestTimeout <= 0 {
		return fmt.Errorf("server.request_timeout must be positive")
	}

	if config.Aggregator.DefaultLimit == 0 {
		config.Aggregator.DefaultLimit = DefaultLimit
	}
	if config.Aggregator.DefaultLimit < 0 {
		return fmt.Errorf("aggregator.default_limit must be a positive number")
	}

	if config.Aggregator.Concurrency == 0 {
		config.Aggregator.Concurrency = DefaultConcurrency
	}
	if config.Aggregator.Concurrency < 0 {
		return fmt.Errorf("aggregator.concurrency must be a positive number")
	}

	if config.Aggregator.FetchTimeout == "" {
		config.Aggregator.FetchTimeout = DefaultFetchTimeout.String()
	}
	fetchTimeout, err := time.ParseDuration(config.Aggregator.FetchTimeout)
	if err != nil {
		return fmt.Errorf("invalid aggregator.fetch_timeout: %w", err)
	}
	if fetchTimeout <= 0 {
		return fmt.Errorf("aggregator.fetch_timeout must be positive")
	}

	if config.Scraper.UserAgent == "" {
		config.Scraper.UserAgent = DefaultUserAgent
	}

	if config.Log.Level == "" {
		config.Log.Level = "info"
	}

	if config.Log.Format == "" {
		config.Log.Format = "text"
	}

	return nil
}

func ParseDuration(value string, defaultValue time.Duration) time.Duration {
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
