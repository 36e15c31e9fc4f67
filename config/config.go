package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"

	"sjsage522/projectwatcher/pkg/errors"
)

// Config represents the application configuration
type Config struct {
	// Listing source
	ListingURL  string
	CookiesFile string
	BlockTime   time.Duration

	// Files
	SecretsFile  string
	SettingsFile string

	// Ingestion
	CrawlInterval time.Duration
	RetryDelay    time.Duration
	MaxProjects   int

	// Display
	PageSize int

	// Memcache configuration
	MemcacheAddr string

	// Redis configuration
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamMaxLength int

	// Telegram configuration
	TelegramToken  string
	TelegramChatID int64

	// Alerts
	AlertSound bool

	// Metrics
	MetricsAddr string

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	crawlInterval, _ := strconv.Atoi(getEnv("CRAWL_INTERVAL_SECONDS", "60"))
	retryDelay, _ := strconv.Atoi(getEnv("RETRY_DELAY_SECONDS", "2"))
	blockTime, _ := strconv.Atoi(getEnv("BLOCK_TIME_SECONDS", "300"))
	maxProjects, _ := strconv.Atoi(getEnv("MAX_PROJECTS", "1000"))
	pageSize, _ := strconv.Atoi(getEnv("PAGE_SIZE", "20"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	redisStreamMaxLength, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAX_LENGTH", "1000"))
	telegramChatID, _ := strconv.ParseInt(getEnv("TELEGRAM_CHAT_ID", "0"), 10, 64)
	alertSound, _ := strconv.ParseBool(getEnv("ALERT_SOUND", "true"))

	return &Config{
		ListingURL:           getEnv("LISTING_URL", "https://www.99freelas.com.br/projects"),
		CookiesFile:          getEnv("COOKIES_FILE", "cookies.json"),
		BlockTime:            time.Duration(blockTime) * time.Second,
		SecretsFile:          getEnv("SECRETS_FILE", ".secrets.toml"),
		SettingsFile:         getEnv("SETTINGS_FILE", DefaultSettingsPath()),
		CrawlInterval:        time.Duration(crawlInterval) * time.Second,
		RetryDelay:           time.Duration(retryDelay) * time.Second,
		MaxProjects:          maxProjects,
		PageSize:             pageSize,
		MemcacheAddr:         os.Getenv("MEMCACHE_ADDR"),
		RedisAddr:            os.Getenv("REDIS_ADDR"),
		RedisDB:              redisDB,
		RedisStream:          getEnv("REDIS_STREAM", "projects"),
		RedisStreamMaxLength: redisStreamMaxLength,
		TelegramToken:        os.Getenv("TELEGRAM_TOKEN"),
		TelegramChatID:       telegramChatID,
		AlertSound:           alertSound,
		MetricsAddr:          os.Getenv("METRICS_ADDR"),
		Environment:          getEnv("PROJECTWATCH_ENVIRONMENT", "development"),
	}
}

// Validate checks the values the ingestion loop depends on
func (c *Config) Validate() error {
	u, err := url.Parse(c.ListingURL)
	if err != nil {
		return errors.NewConfiguration("invalid LISTING_URL", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.NewConfiguration(fmt.Sprintf("LISTING_URL must be an absolute http(s) url, got %q", c.ListingURL), nil)
	}
	if c.MaxProjects <= 0 {
		return errors.NewConfiguration(fmt.Sprintf("MAX_PROJECTS must be positive, got %d", c.MaxProjects), nil)
	}
	if c.CrawlInterval <= 0 {
		return errors.NewConfiguration("CRAWL_INTERVAL_SECONDS must be positive", nil)
	}
	if c.RetryDelay < 0 {
		return errors.NewConfiguration("RETRY_DELAY_SECONDS must not be negative", nil)
	}
	if c.PageSize <= 0 {
		return errors.NewConfiguration(fmt.Sprintf("PAGE_SIZE must be positive, got %d", c.PageSize), nil)
	}
	if c.TelegramToken != "" && c.TelegramChatID == 0 {
		return errors.NewConfiguration("TELEGRAM_CHAT_ID is required when TELEGRAM_TOKEN is set", nil)
	}
	return nil
}

// PageCap bounds the number of page fetches a single sweep may attempt.
func (c *Config) PageCap() int {
	return PageCapFor(c.MaxProjects)
}

// PageCapFor returns maxProjects/10, never less than one page.
func PageCapFor(maxProjects int) int {
	if maxProjects/10 < 1 {
		return 1
	}
	return maxProjects / 10
}

// DefaultSettingsPath returns the settings file location under the XDG config home
func DefaultSettingsPath() string {
	return filepath.Join(xdg.ConfigHome, "projectwatcher", "settings.yaml")
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
