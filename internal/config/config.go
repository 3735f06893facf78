package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/outage-notifier/internal/domain"
)

// State backends.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	ProviderBaseURL string
	City            string
	Street          string
	House           string
	Timezone        string
	Location        *time.Location

	PollInterval time.Duration
	FetchTimeout time.Duration
	ResendWindow time.Duration

	MergePolicy           domain.MergePolicy
	EmergencyPolicy       domain.EmergencyPolicy
	EmergencyEndedNotices bool

	StateBackend string
	StateFile    string
	DatabaseURL  string

	// Delivery channels.
	TelegramBotToken    string
	TelegramChatID      string
	TelegramEditInPlace bool
	WebhookURL          string
	DeliveryMaxAttempts int
	DeliveryBackoff     time.Duration

	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// TelegramEnabled reports whether the Telegram channel is configured.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != "" && c.TelegramChatID != ""
}

// Load reads configuration from environment variables, applying defaults where
// unset. Variables from ENV_FILE (default .env) are applied first and never
// override the real environment.
func Load() (*Config, error) {
	if err := loadEnvFile(sharedcfg.EnvOrDefault("ENV_FILE", ".env")); err != nil {
		return nil, err
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ProviderBaseURL: strings.TrimRight(sharedcfg.EnvOrDefault("PROVIDER_BASE_URL", "https://www.dtek-krem.com.ua"), "/"),
		City:            os.Getenv("CITY"),
		Street:          os.Getenv("STREET"),
		House:           strings.TrimSpace(os.Getenv("HOUSE")),
		Timezone:        sharedcfg.EnvOrDefault("TIMEZONE", "Europe/Kyiv"),
		StateBackend:    strings.ToLower(sharedcfg.EnvOrDefault("STATE_BACKEND", BackendFile)),
		StateFile:       sharedcfg.EnvOrDefault("STATE_FILE", "artifacts/last-message.json"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),

		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:   os.Getenv("TELEGRAM_CHAT_ID"),
		WebhookURL:       os.Getenv("WEBHOOK_URL"),

		KafkaBrokers: sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "outage-notifications"),

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	if cfg.House == "" {
		return nil, errors.New("HOUSE is required")
	}
	if cfg.Location, err = time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	if cfg.PollInterval, err = parseDuration("POLL_INTERVAL", "5m"); err != nil {
		return nil, err
	}
	if cfg.FetchTimeout, err = parseDuration("FETCH_TIMEOUT", "60s"); err != nil {
		return nil, err
	}
	if cfg.ResendWindow, err = parseDuration("RESEND_WINDOW", domain.DefaultResendWindow.String()); err != nil {
		return nil, err
	}
	if cfg.DeliveryBackoff, err = parseDuration("DELIVERY_BACKOFF", "1s"); err != nil {
		return nil, err
	}
	if cfg.DeliveryMaxAttempts, err = parsePositiveInt("DELIVERY_MAX_ATTEMPTS", 3); err != nil {
		return nil, err
	}

	if cfg.EmergencyEndedNotices, err = parseBool("EMERGENCY_ENDED_NOTICES", false); err != nil {
		return nil, err
	}
	if cfg.TelegramEditInPlace, err = parseBool("TELEGRAM_EDIT_IN_PLACE", true); err != nil {
		return nil, err
	}
	if cfg.KafkaEnabled, err = parseBool("KAFKA_ENABLED", false); err != nil {
		return nil, err
	}

	if cfg.MergePolicy, err = domain.ParseMergePolicy(os.Getenv("MERGE_POLICY")); err != nil {
		return nil, fmt.Errorf("invalid MERGE_POLICY: %w", err)
	}
	if cfg.EmergencyPolicy, err = loadEmergencyPolicy(os.Getenv("EMERGENCY_POLICY"), os.Getenv("EMERGENCY_POLICY_FILE")); err != nil {
		return nil, err
	}

	switch cfg.StateBackend {
	case BackendFile:
		if cfg.StateFile == "" {
			return nil, errors.New("STATE_FILE is required for the file backend")
		}
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is required for the postgres backend")
		}
	default:
		return nil, fmt.Errorf("invalid STATE_BACKEND %q", cfg.StateBackend)
	}

	if (cfg.TelegramBotToken == "") != (cfg.TelegramChatID == "") {
		return nil, errors.New("TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID must be set together")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaTopic == "" {
			return nil, errors.New("KAFKA_TOPIC is required when KAFKA_ENABLED is true")
		}
	}

	return cfg, nil
}

func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load ENV_FILE %s: %w", path, err)
	}
	return nil
}

func parseDuration(key, def string) (time.Duration, error) {
	s := sharedcfg.EnvOrDefault(key, def)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, s)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, s)
	}
	return n, nil
}

func parseBool(key string, def bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q", key, s)
	}
	return b, nil
}

// policyFile is the YAML shape of EMERGENCY_POLICY_FILE. Only the lists of the
// selected policy are used.
type policyFile struct {
	Policy                string `yaml:"policy"`
	domain.KeywordPolicy  `yaml:",inline"`
	domain.TypeCodePolicy `yaml:",inline"`
}

// loadEmergencyPolicy resolves the classifier policy. A policy named in the
// file applies when EMERGENCY_POLICY is unset; lists from the file replace
// the built-in defaults.
func loadEmergencyPolicy(name, path string) (domain.EmergencyPolicy, error) {
	var file policyFile
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read EMERGENCY_POLICY_FILE: %w", err)
		}
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse EMERGENCY_POLICY_FILE: %w", err)
		}
		if name == "" {
			name = file.Policy
		}
	}

	policy, err := domain.PolicyByName(name)
	if err != nil {
		return nil, fmt.Errorf("invalid EMERGENCY_POLICY: %w", err)
	}
	switch p := policy.(type) {
	case domain.KeywordPolicy:
		if len(file.KeywordPolicy.EmergencyPhrases) > 0 {
			p.EmergencyPhrases = file.KeywordPolicy.EmergencyPhrases
		}
		if len(file.KeywordPolicy.ScheduledPhrases) > 0 {
			p.ScheduledPhrases = file.KeywordPolicy.ScheduledPhrases
		}
		return p, nil
	case domain.TypeCodePolicy:
		if len(file.TypeCodePolicy.Codes) > 0 {
			p.Codes = file.TypeCodePolicy.Codes
		}
		return p, nil
	default:
		return policy, nil
	}
}
