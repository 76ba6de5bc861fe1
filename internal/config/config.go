// Package config provides configuration loading and validation for the
// radar CLI and server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/internship-radar/internal/enrich"
	"github.com/jonathan/internship-radar/internal/scheduler"
)

// Defaults applied by Load and MergeWithDefaults
const (
	DefaultPort   = 8080
	DefaultAppURL = "http://localhost:8080"
)

// Config holds process settings. Values come from the environment (Load) or
// a JSON file (LoadFile); missing file values are filled from the environment
// with MergeWithDefaults.
type Config struct {
	// Storage
	DatabaseURL string `json:"database_url,omitempty" validate:"omitempty,url"` // PostgreSQL connection URL
	RedisURL    string `json:"redis_url,omitempty" validate:"omitempty,url"`    // Enrichment cache, optional

	// Secrets. CronSecret guards /cron/*, SyncSecret guards /jobs/sync and
	// SigningSecret signs unsubscribe tokens.
	CronSecret    string `json:"cron_secret,omitempty"`
	SyncSecret    string `json:"sync_secret,omitempty"`
	SigningSecret string `json:"signing_secret,omitempty"`
	TelegramToken string `json:"telegram_token,omitempty"`
	TokenTTLHours int    `json:"token_ttl_hours,omitempty" validate:"gte=0"`
	APIKey        string `json:"api_key,omitempty"` // Bearer token for read endpoints, optional

	// Server
	AppURL string `json:"app_url,omitempty" validate:"omitempty,url"` // Base URL for unsubscribe links
	Port   int    `json:"port,omitempty" validate:"gte=0,lte=65535"`

	// Schedules, standard 5-field cron. Empty disables the job.
	ScrapeCron  string `json:"scrape_cron,omitempty"`
	RefreshCron string `json:"refresh_cron,omitempty"`
	DigestCron  string `json:"digest_cron,omitempty"`

	// Enrichment
	UseBrowser         bool           `json:"use_browser,omitempty"` // Render postings with headless Chrome
	DateEnrich         bool           `json:"date_enrich"`
	DescriptionEnrich  bool           `json:"description_enrich"`
	DateOptions        enrich.Options `json:"date_options"`
	DescriptionOptions enrich.Options `json:"description_options"`
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisURL:           os.Getenv("REDIS_URL"),
		CronSecret:         os.Getenv("CRON_SECRET"),
		SyncSecret:         os.Getenv("JOBS_SYNC_SECRET"),
		SigningSecret:      os.Getenv("EMAIL_SIGNING_SECRET"),
		TelegramToken:      os.Getenv("TELEGRAM_BOT_TOKEN"),
		TokenTTLHours:      getEnvInt("UNSUBSCRIBE_TOKEN_TTL_HOURS", 0),
		APIKey:             os.Getenv("API_KEY"),
		AppURL:             getEnv("APP_URL", DefaultAppURL),
		Port:               getEnvInt("PORT", DefaultPort),
		ScrapeCron:         getEnv("SCRAPE_CRON", scheduler.DefaultScrapeSpec),
		RefreshCron:        os.Getenv("REFRESH_CRON"),
		DigestCron:         os.Getenv("DIGEST_CRON"),
		UseBrowser:         os.Getenv("FETCH_USE_BROWSER") == "true",
		DateEnrich:         enrich.Enabled("JOB_POSTED_ENRICH"),
		DescriptionEnrich:  enrich.Enabled("JOB_DESC_ENRICH"),
		DateOptions:        enrich.DateOptionsFromEnv(),
		DescriptionOptions: enrich.DescriptionOptionsFromEnv(),
	}
}

// LoadFile loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks field formats and that every cron schedule parses
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	for _, spec := range []string{c.ScrapeCron, c.RefreshCron, c.DigestCron} {
		if err := scheduler.ValidateSpec(spec); err != nil {
			return fmt.Errorf("config error: %w", err)
		}
	}
	return nil
}

// RequireDatabase returns an error when no database URL is configured
func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required but not set")
	}
	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from
// defaults. Boolean switches cannot distinguish unset from false, so the
// receiver's values always win for them.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	mergeString(&result.DatabaseURL, defaults.DatabaseURL)
	mergeString(&result.RedisURL, defaults.RedisURL)
	mergeString(&result.CronSecret, defaults.CronSecret)
	mergeString(&result.SyncSecret, defaults.SyncSecret)
	mergeString(&result.SigningSecret, defaults.SigningSecret)
	mergeString(&result.TelegramToken, defaults.TelegramToken)
	mergeString(&result.APIKey, defaults.APIKey)
	mergeString(&result.AppURL, defaults.AppURL)
	mergeString(&result.ScrapeCron, defaults.ScrapeCron)
	mergeString(&result.RefreshCron, defaults.RefreshCron)
	mergeString(&result.DigestCron, defaults.DigestCron)

	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.TokenTTLHours == 0 {
		result.TokenTTLHours = defaults.TokenTTLHours
	}
	if result.DateOptions == (enrich.Options{}) {
		result.DateOptions = defaults.DateOptions
	}
	if result.DescriptionOptions == (enrich.Options{}) {
		result.DescriptionOptions = defaults.DescriptionOptions
	}

	return result
}

func mergeString(dst *string, fallback string) {
	if *dst == "" {
		*dst = fallback
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
