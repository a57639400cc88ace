package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type APIConfig struct {
	Port      int    `mapstructure:"port"`
	AuthToken string `mapstructure:"auth_token"`
}

func (config APIConfig) validate() error {
	if config.AuthToken == "" {
		return fmt.Errorf("missing variable: api auth token")
	}
	return nil
}

func (config APIConfig) bindEnvironmentVariables() error {

	err := viper.BindEnv("api.port", "API_PORT")
	if err != nil {
		return err
	}

	return viper.BindEnv("api.auth_token", "API_AUTH_TOKEN")
}
