package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the configuration file used when --config is not given.
const DefaultPath = "configs/cinedesk.yaml"

// Config represents the main application configuration
type Config struct {
	// Movie catalog API
	Catalog CatalogConfig `yaml:"catalog"`

	// Terminal UI behavior
	UI UIConfig `yaml:"ui"`

	// Frontends
	Telegram *TelegramConfig `yaml:"telegram,omitempty"`

	// Application settings
	App AppConfig `yaml:"app"`
}

// CatalogConfig holds the REST API connection settings
type CatalogConfig struct {
	BaseURL           string        `yaml:"base_url"`
	Timeout           time.Duration `yaml:"timeout"`
	MaxAttempts       int           `yaml:"max_attempts"`        // 1 = no retry
	RequestsPerSecond float64       `yaml:"requests_per_second"` // 0 = unlimited
	CacheTTL          time.Duration `yaml:"cache_ttl"`           // 0 = disabled
}

// UIConfig holds terminal UI settings
type UIConfig struct {
	SearchDebounce    time.Duration `yaml:"search_debounce"`
	DateLayout        string        `yaml:"date_layout"`
	SurfaceListErrors bool          `yaml:"surface_list_errors"`
}

// TelegramConfig holds Telegram bot configuration
type TelegramConfig struct {
	BotToken       string  `yaml:"bot_token"`
	AllowedUserIDs []int64 `yaml:"allowed_user_ids,omitempty"`
}

// AppConfig holds application-level settings
type AppConfig struct {
	LogLevel      string `yaml:"log_level"` // "debug", "info", "warn", "error"
	LogFile       string `yaml:"log_file"`  // empty = no log file
	LogMaxSizeMB  int    `yaml:"log_max_size_mb"`
	LogMaxBackups int    `yaml:"log_max_backups"`
	LogMaxAgeDays int    `yaml:"log_max_age_days"`
}

// Default returns a configuration pointing at a local development server.
func Default() Config {
	return Config{
		Catalog: CatalogConfig{
			BaseURL:     "http://localhost:8000",
			Timeout:     30 * time.Second,
			MaxAttempts: 1,
		},
		UI: UIConfig{
			SearchDebounce: 300 * time.Millisecond,
			DateLayout:     "1/2/2006",
		},
		App: AppConfig{
			LogLevel: "info",
		},
	}
}

// Load loads configuration from a YAML file with environment variable overrides.
// A .env file in the working directory is loaded first when present.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return finish(&cfg)
}

// LoadOrDefault behaves like Load, but a missing file at DefaultPath yields
// the defaults (still subject to .env and environment overrides). Any other
// missing path is an error.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, fs.ErrNotExist) || filepath.Clean(path) != filepath.Clean(DefaultPath) {
		return nil, err
	}
	def := Default()
	return finish(&def)
}

func finish(cfg *Config) (*Config, error) {
	// Missing .env is fine; real values come from the environment.
	_ = godotenv.Load()

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides overrides config values with environment variables
func (c *Config) applyEnvOverrides() {
	// Catalog
	if v := os.Getenv("CINEDESK_BASE_URL"); v != "" {
		c.Catalog.BaseURL = v
	}
	if v := os.Getenv("CINEDESK_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Catalog.Timeout = d
		}
	}
	if v := os.Getenv("CINEDESK_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Catalog.MaxAttempts = n
		}
	}

	// Telegram
	if v := os.Getenv("CINEDESK_TELEGRAM_BOT_TOKEN"); v != "" {
		if c.Telegram == nil {
			c.Telegram = &TelegramConfig{}
		}
		c.Telegram.BotToken = v
	}

	// App
	if v := os.Getenv("CINEDESK_LOG_LEVEL"); v != "" {
		c.App.LogLevel = v
	}
	if v := os.Getenv("CINEDESK_LOG_FILE"); v != "" {
		c.App.LogFile = v
	}
}

// Validate validates the configuration and fills unset defaults
func (c *Config) Validate() error {
	if c.Catalog.BaseURL == "" {
		return fmt.Errorf("catalog.base_url is required")
	}
	if err := validateURL("catalog.base_url", c.Catalog.BaseURL); err != nil {
		return err
	}
	c.Catalog.BaseURL = strings.TrimRight(c.Catalog.BaseURL, "/")

	if c.Catalog.Timeout < 0 {
		return fmt.Errorf("catalog.timeout must not be negative")
	}
	if c.Catalog.RequestsPerSecond < 0 {
		return fmt.Errorf("catalog.requests_per_second must not be negative")
	}
	if c.Catalog.CacheTTL < 0 {
		return fmt.Errorf("catalog.cache_ttl must not be negative")
	}
	if c.UI.SearchDebounce < 0 {
		return fmt.Errorf("ui.search_debounce must not be negative")
	}

	if c.Telegram != nil && c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required when telegram is configured")
	}

	switch strings.ToLower(c.App.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("app.log_level must be one of debug, info, warn, error")
	}

	// Set defaults
	if c.Catalog.Timeout == 0 {
		c.Catalog.Timeout = 30 * time.Second
	}
	if c.Catalog.MaxAttempts < 1 {
		c.Catalog.MaxAttempts = 1
	}
	if c.UI.SearchDebounce == 0 {
		c.UI.SearchDebounce = 300 * time.Millisecond
	}
	if c.UI.DateLayout == "" {
		c.UI.DateLayout = "1/2/2006"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}

	return nil
}

func validateURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", field, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https", field)
	}
	if u.Host == "" {
		return fmt.Errorf("%s is missing host", field)
	}
	return nil
}
