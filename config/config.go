// Package config loads bot configuration from the environment
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// BypassMode selects the large-file escape hatch
type BypassMode string

const (
	// BypassOff disables the relay; oversized files get direct links
	BypassOff BypassMode = "off"
	// BypassRelay uploads oversized files through the relay account
	BypassRelay BypassMode = "relay"
)

// Config holds all configuration for the media fetch bot
type Config struct {
	Telegram  TelegramConfig
	Relay     RelayConfig
	Delivery  DeliveryConfig
	Selection SelectionConfig
	Kafka     KafkaConfig
	Extractor ExtractorConfig
	Logging   LoggingConfig
}

// TelegramConfig holds Telegram bot configuration
type TelegramConfig struct {
	BotToken string
}

// RelayConfig holds the relay (userbot) account configuration
type RelayConfig struct {
	Mode       BypassMode
	APIID      int
	APIHash    string
	SessionDir string
}

// DeliveryConfig holds delivery tier thresholds and timeouts
type DeliveryConfig struct {
	InlineLimitBytes  int64
	FetchTimeout      time.Duration
	DirectURLMaxBytes int64
}

// SelectionConfig holds the selection store parameters
type SelectionConfig struct {
	TTL      time.Duration
	Capacity int
	CacheTTL time.Duration
}

// KafkaConfig holds Kafka configuration. Empty brokers disable events.
type KafkaConfig struct {
	Brokers []string
}

// ExtractorConfig holds the yt-dlp tool configuration
type ExtractorConfig struct {
	BinPath     string
	CookiesFile string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string
}

// Result provides config parts for fx dependency injection using fx.Out pattern
type Result struct {
	fx.Out

	Config    *Config
	Telegram  *TelegramConfig
	Relay     *RelayConfig
	Delivery  *DeliveryConfig
	Selection *SelectionConfig
	Kafka     *KafkaConfig
	Extractor *ExtractorConfig
	Logging   *LoggingConfig
}

// Out loads configuration and returns Result for fx injection
func Out() (Result, error) {
	cfg, err := Load()
	if err != nil {
		return Result{}, err
	}

	return Result{
		Config:    cfg,
		Telegram:  &cfg.Telegram,
		Relay:     &cfg.Relay,
		Delivery:  &cfg.Delivery,
		Selection: &cfg.Selection,
		Kafka:     &cfg.Kafka,
		Extractor: &cfg.Extractor,
		Logging:   &cfg.Logging,
	}, nil
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	cfg := &Config{
		Telegram: TelegramConfig{
			BotToken: getEnv("BOT_TOKEN", ""),
		},
		Relay: RelayConfig{
			Mode:       BypassMode(getEnv("BYPASS_MODE", string(BypassOff))),
			APIID:      getEnvInt("TG_API_ID", 0),
			APIHash:    getEnv("TG_API_HASH", ""),
			SessionDir: getEnv("RELAY_SESSION_DIR", "./sessions"),
		},
		Delivery: DeliveryConfig{
			InlineLimitBytes:  int64(getEnvInt("INLINE_LIMIT_MB", 48)) << 20,
			FetchTimeout:      getEnvDuration("FETCH_TIMEOUT", 10*time.Minute),
			DirectURLMaxBytes: int64(getEnvInt("DIRECT_URL_MAX_MB", 4096)) << 20,
		},
		Selection: SelectionConfig{
			TTL:      getEnvDuration("SELECTION_TTL", 10*time.Minute),
			Capacity: getEnvInt("SELECTION_CAPACITY", 1000),
			CacheTTL: getEnvDuration("DELIVERY_CACHE_TTL", 24*time.Hour),
		},
		Kafka: KafkaConfig{
			Brokers: splitNonEmpty(getEnv("KAFKA_BROKERS", "")),
		},
		Extractor: ExtractorConfig{
			BinPath:     getEnv("YTDLP_PATH", "yt-dlp"),
			CookiesFile: getEnv("YTDLP_COOKIES", ""),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("BOT_TOKEN is required")
	}

	switch c.Relay.Mode {
	case BypassOff:
	case BypassRelay:
		if c.Relay.APIID == 0 || c.Relay.APIHash == "" {
			return fmt.Errorf("TG_API_ID and TG_API_HASH are required when BYPASS_MODE=relay")
		}
	default:
		return fmt.Errorf("unknown BYPASS_MODE %q", c.Relay.Mode)
	}

	if c.Delivery.InlineLimitBytes <= 0 {
		return fmt.Errorf("INLINE_LIMIT_MB must be positive")
	}
	if c.Selection.Capacity <= 0 {
		return fmt.Errorf("SELECTION_CAPACITY must be positive")
	}

	return nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt gets an integer environment variable with default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

// getEnvDuration gets a duration environment variable with default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}

// splitNonEmpty splits a comma-separated list dropping empty items
func splitNonEmpty(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
