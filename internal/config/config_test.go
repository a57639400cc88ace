package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Config_EnvironmentOverrideWorksCorrect(t *testing.T) {

	os.Setenv("CONFIG_PATH", "../../configs/config.yaml")

	os.Setenv("SCRAPER_SOURCES", "urbania,properati")
	os.Setenv("SCRAPER_CRON_SCHEDULE", "0 8 * * *")
	os.Setenv("SCRAPER_MAX_REQUESTS_PER_SECOND", "2.5")
	os.Setenv("SMTP_HOST", "smtp.override.pe")
	os.Setenv("SMTP_FROM", "override@inmoalert.pe")
	os.Setenv("SMTP_USERNAME", "mailer")
	os.Setenv("SMTP_PASSWORD", "secret")
	os.Setenv("API_AUTH_TOKEN", "overrideToken")
	os.Setenv("DB_CONNECTION_STRING", "newConnectionString")
	os.Setenv("LOG_LEVEL", "DEBUG")

	cfg := Get()

	assert.Equal(t, []string{"urbania", "properati"}, cfg.Scraper.Sources)
	assert.Equal(t, "0 8 * * *", cfg.Scraper.CronSchedule)
	assert.Equal(t, float32(2.5), cfg.Scraper.MaxRequestsPerSecond)
	assert.Equal(t, "smtp.override.pe", cfg.Notifier.Host)
	assert.Equal(t, "override@inmoalert.pe", cfg.Notifier.From)
	assert.Equal(t, "mailer", cfg.Notifier.Username)
	assert.Equal(t, "overrideToken", cfg.API.AuthToken)
	assert.Equal(t, "newConnectionString", cfg.DB.ConnectionString)
	assert.Equal(t, LevelDebug, cfg.Logger.LogLevel)
}

func Test_Config_Defaults_ShouldFillUnsetScraperValues(t *testing.T) {

	os.Setenv("CONFIG_PATH", "../../configs/config.yaml")

	cfg := Get()

	assert.Equal(t, 5, cfg.Scraper.MaxPages)
	assert.Equal(t, 60, cfg.Scraper.MaxListingsPerSource)
	assert.Equal(t, 90, cfg.Scraper.AuditRetentionDays)
}
