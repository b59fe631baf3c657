package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	// AmoCRM configuration
	AmoAccountID string
	AmoToken     string
	AmoBaseURL   string // optional override; empty means https://<account>.amocrm.ru

	// Telegram configuration
	TelegramToken string
	AdminChatIDs  []int64 // chat IDs the revenue report is delivered to

	// Discord configuration (optional second delivery channel)
	DiscordToken     string
	DiscordChannelID string

	// Report configuration
	ReportHour          int            // Hour when daemon mode posts the report (0-23)
	ReportLocation      *time.Location // Timezone for day windows and the daily trigger
	ChartEnabled        bool           // Attach a revenue bar chart to the report
	ResolveManagerNames bool           // Resolve manager IDs to names via the CRM users API

	// CRM HTTP client settings
	HTTPTimeout time.Duration
	MaxRetries  int // retry attempts for transient CRM errors

	// Daemon mode
	HealthAddr string // liveness listener address, empty disables it

	// OpenTelemetry configuration
	OTelEnabled              bool
	OTelServiceName          string
	OTelExporterType         string // "console", "otlp" or "none"
	OTelOTLPEndpoint         string
	OTelExportIntervalMillis int64

	// Environment
	Environment string // "development", "production" or "test"
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		// AmoCRM
		AmoAccountID: os.Getenv("AMOCRM_ACCOUNT_ID"),
		AmoToken:     os.Getenv("AMOCRM_TOKEN"),
		AmoBaseURL:   os.Getenv("AMOCRM_BASE_URL"),

		// Telegram
		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),

		// Discord
		DiscordToken:     os.Getenv("DISCORD_TOKEN"),
		DiscordChannelID: os.Getenv("DISCORD_CHANNEL_ID"),

		// Daemon
		HealthAddr: os.Getenv("HEALTH_ADDR"),

		// OpenTelemetry with defaults
		OTelServiceName:          getEnvWithDefault("OTEL_SERVICE_NAME", "revreport"),
		OTelExporterType:         getEnvWithDefault("OTEL_EXPORTER_TYPE", "none"),
		OTelOTLPEndpoint:         getEnvWithDefault("OTEL_OTLP_ENDPOINT", "localhost:4317"),
		OTelExportIntervalMillis: 10000,

		// Environment
		Environment: os.Getenv("ENVIRONMENT"),
	}

	var err error
	if config.AdminChatIDs, err = parseChatIDs(os.Getenv("ADMIN_CHAT_IDS")); err != nil {
		return nil, err
	}
	if config.ReportHour, err = getEnvInt("REPORT_HOUR", 18); err != nil {
		return nil, err
	}
	if config.MaxRetries, err = getEnvInt("MAX_RETRIES", 3); err != nil {
		return nil, err
	}
	if config.HTTPTimeout, err = getEnvDuration("HTTP_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if config.ChartEnabled, err = getEnvBool("REPORT_CHART_ENABLED", false); err != nil {
		return nil, err
	}
	if config.ResolveManagerNames, err = getEnvBool("RESOLVE_MANAGER_NAMES", true); err != nil {
		return nil, err
	}
	if config.OTelEnabled, err = getEnvBool("OTEL_ENABLED", false); err != nil {
		return nil, err
	}
	if interval := os.Getenv("OTEL_EXPORT_INTERVAL_MS"); interval != "" {
		parsed, err := strconv.ParseInt(interval, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid OTEL_EXPORT_INTERVAL_MS %q: %w", interval, err)
		}
		config.OTelExportIntervalMillis = parsed
	}

	tz := getEnvWithDefault("REPORT_TIMEZONE", "Local")
	if config.ReportLocation, err = time.LoadLocation(tz); err != nil {
		return nil, fmt.Errorf("invalid REPORT_TIMEZONE %q: %w", tz, err)
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		if err := config.validate(); err != nil {
			return nil, err
		}
	}

	return config, nil
}

// validate checks required configuration so a bad environment fails before
// any network call is made
func (c *Config) validate() error {
	if c.AmoAccountID == "" {
		return fmt.Errorf("AMOCRM_ACCOUNT_ID is required")
	}
	if c.AmoToken == "" {
		return fmt.Errorf("AMOCRM_TOKEN is required")
	}
	if c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	if len(c.AdminChatIDs) == 0 {
		return fmt.Errorf("ADMIN_CHAT_IDS is required")
	}
	if c.ReportHour < 0 || c.ReportHour > 23 {
		return fmt.Errorf("REPORT_HOUR must be between 0 and 23, got %d", c.ReportHour)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("MAX_RETRIES must not be negative, got %d", c.MaxRetries)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %v", c.HTTPTimeout)
	}
	switch c.OTelExporterType {
	case "console", "otlp", "none":
	default:
		return fmt.Errorf("OTEL_EXPORTER_TYPE must be console, otlp or none, got %q", c.OTelExporterType)
	}
	if c.OTelExportIntervalMillis <= 0 {
		return fmt.Errorf("OTEL_EXPORT_INTERVAL_MS must be positive, got %d", c.OTelExportIntervalMillis)
	}
	if (c.DiscordToken == "") != (c.DiscordChannelID == "") {
		return fmt.Errorf("DISCORD_TOKEN and DISCORD_CHANNEL_ID must be set together")
	}
	return nil
}

// CRMBaseURL returns the AmoCRM API base URL for the configured account
func (c *Config) CRMBaseURL() string {
	if c.AmoBaseURL != "" {
		return strings.TrimRight(c.AmoBaseURL, "/")
	}
	return fmt.Sprintf("https://%s.amocrm.ru", c.AmoAccountID)
}

// DiscordEnabled reports whether the Discord delivery channel is configured
func (c *Config) DiscordEnabled() bool {
	return c.DiscordToken != "" && c.DiscordChannelID != ""
}

// parseChatIDs parses a comma-separated list of chat IDs. Malformed entries are
// a configuration error rather than silently dropped: a typo must not shrink
// the recipient list.
func parseChatIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid chat ID %q in ADMIN_CHAT_IDS", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return parsed, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return parsed, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return parsed, nil
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:         "test",
		AmoAccountID:        "testaccount",
		AmoToken:            "test-token",
		TelegramToken:       "test-bot-token",
		AdminChatIDs:        []int64{111111},
		ReportHour:          18,
		ReportLocation:      time.UTC,
		ResolveManagerNames: true,
		HTTPTimeout:         10 * time.Second,
		MaxRetries:          3,
		OTelServiceName:     "revreport",
		OTelExporterType:    "none",
	}
}
