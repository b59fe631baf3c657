package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("AMOCRM_ACCOUNT_ID", "acme")
	t.Setenv("AMOCRM_TOKEN", "crm-token")
	t.Setenv("TELEGRAM_BOT_TOKEN", "bot-token")
	t.Setenv("ADMIN_CHAT_IDS", "111,222")
	t.Setenv("ENVIRONMENT", "production")
}

func TestLoadWithRequiredEnv(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "acme", cfg.AmoAccountID)
	assert.Equal(t, []int64{111, 222}, cfg.AdminChatIDs)
	assert.Equal(t, 18, cfg.ReportHour)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.True(t, cfg.ResolveManagerNames)
	assert.False(t, cfg.ChartEnabled)
	assert.Equal(t, "https://acme.amocrm.ru", cfg.CRMBaseURL())
	assert.False(t, cfg.DiscordEnabled())
}

func TestLoadMissingRequiredVars(t *testing.T) {
	required := []string{"AMOCRM_ACCOUNT_ID", "AMOCRM_TOKEN", "TELEGRAM_BOT_TOKEN", "ADMIN_CHAT_IDS"}

	for _, missing := range required {
		t.Run(missing, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(missing, "")

			_, err := Load()

			require.Error(t, err)
			assert.Contains(t, err.Error(), missing)
		})
	}
}

func TestLoadInvalidChatID(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ADMIN_CHAT_IDS", "111,not-a-number")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ADMIN_CHAT_IDS")
}

func TestLoadInvalidReportHour(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("REPORT_HOUR", "24")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "REPORT_HOUR")
}

func TestLoadNonPositiveExportInterval(t *testing.T) {
	for _, value := range []string{"0", "-500"} {
		t.Run(value, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv("OTEL_EXPORT_INTERVAL_MS", value)

			_, err := Load()

			require.Error(t, err)
			assert.Contains(t, err.Error(), "OTEL_EXPORT_INTERVAL_MS")
		})
	}
}

func TestLoadInvalidTimezone(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("REPORT_TIMEZONE", "Not/AZone")

	_, err := Load()

	assert.Error(t, err)
}

func TestLoadDiscordMustBeSetTogether(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DISCORD_TOKEN", "discord-token")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "DISCORD_CHANNEL_ID")
}

func TestLoadDiscordEnabled(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DISCORD_TOKEN", "discord-token")
	t.Setenv("DISCORD_CHANNEL_ID", "12345")

	cfg, err := Load()

	require.NoError(t, err)
	assert.True(t, cfg.DiscordEnabled())
}

func TestLoadBaseURLOverride(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("AMOCRM_BASE_URL", "http://localhost:8080/")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", cfg.CRMBaseURL())
}

func TestLoadOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("REPORT_HOUR", "9")
	t.Setenv("MAX_RETRIES", "5")
	t.Setenv("HTTP_TIMEOUT", "30s")
	t.Setenv("REPORT_CHART_ENABLED", "true")
	t.Setenv("REPORT_TIMEZONE", "Europe/Moscow")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 9, cfg.ReportHour)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.True(t, cfg.ChartEnabled)
	assert.Equal(t, "Europe/Moscow", cfg.ReportLocation.String())
}

func TestLoadTestEnvironmentSkipsValidation(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("AMOCRM_ACCOUNT_ID", "")
	t.Setenv("AMOCRM_TOKEN", "")
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("ADMIN_CHAT_IDS", "")

	_, err := Load()

	assert.NoError(t, err)
}
