package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type NotifierConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

func (config NotifierConfig) validate() error {

	var missingFields []string

	if config.Host == "" {
		missingFields = append(missingFields, "host")
	}
	if config.From == "" {
		missingFields = append(missingFields, "from")
	}

	if len(missingFields) > 0 {
		return fmt.Errorf("missing required variables: %s", strings.Join(missingFields, ", "))
	}

	return nil
}

func (config NotifierConfig) bindEnvironmentVariables() error {
	var errs []error

	if err := viper.BindEnv("notifier.host", "SMTP_HOST"); err != nil {
		errs = append(errs, err)
	}
	if err := viper.BindEnv("notifier.port", "SMTP_PORT"); err != nil {
		errs = append(errs, err)
	}
	if err := viper.BindEnv("notifier.username", "SMTP_USERNAME"); err != nil {
		errs = append(errs, err)
	}
	if err := viper.BindEnv("notifier.password", "SMTP_PASSWORD"); err != nil {
		errs = append(errs, err)
	}
	if err := viper.BindEnv("notifier.from", "SMTP_FROM"); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return createMultiError(errs)
	}

	return nil
}

func createMultiError(errs []error) error {
	return fmt.Errorf("multiple errors occurred: %w", errors.Join(errs...))
}
