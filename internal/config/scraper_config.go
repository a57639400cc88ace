package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type ScraperConfig struct {
	Sources              []string      `mapstructure:"sources"`
	MaxPages             int           `mapstructure:"max_pages"`
	MaxListingsPerSource int           `mapstructure:"max_listings_per_source"`
	FetchTimeout         time.Duration `mapstructure:"fetch_timeout"`
	MaxRetries           int           `mapstructure:"max_retries"`
	RetryBaseDelay       time.Duration `mapstructure:"retry_base_delay"`
	RequestDelay         time.Duration `mapstructure:"request_delay"`
	MaxRequestsPerSecond float32       `mapstructure:"max_requests_per_second"`
	SelectorsFile        string        `mapstructure:"selectors_file"`
	CronSchedule         string        `mapstructure:"cron_schedule"`
	AuditRetentionDays   int           `mapstructure:"audit_retention_days"`
}

func (config ScraperConfig) validate() error {

	var missingFields []string

	if len(config.Sources) == 0 {
		missingFields = append(missingFields, "sources")
	}
	if config.MaxPages <= 0 {
		missingFields = append(missingFields, "max_pages")
	}
	if config.MaxListingsPerSource <= 0 {
		missingFields = append(missingFields, "max_listings_per_source")
	}

	if len(missingFields) > 0 {
		return fmt.Errorf("missing or invalid variables: %s", strings.Join(missingFields, ", "))
	}

	return nil
}

func (config ScraperConfig) bindEnvironmentVariables() error {
	var errs []error

	if err := viper.BindEnv("scraper.sources", "SCRAPER_SOURCES"); err != nil {
		errs = append(errs, err)
	}
	if err := viper.BindEnv("scraper.cron_schedule", "SCRAPER_CRON_SCHEDULE"); err != nil {
		errs = append(errs, err)
	}
	if err := viper.BindEnv("scraper.selectors_file", "SCRAPER_SELECTORS_FILE"); err != nil {
		errs = append(errs, err)
	}
	if err := viper.BindEnv("scraper.max_requests_per_second", "SCRAPER_MAX_REQUESTS_PER_SECOND"); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return createMultiError(errs)
	}

	return nil
}
