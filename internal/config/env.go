package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Env holds the environment overrides understood by the CLI.
// Command-line flags take precedence over these.
type Env struct {
	Host     string        `env:"IOMETER_HOST" env-description:"Bridge hostname or IP address"`
	Timeout  time.Duration `env:"IOMETER_TIMEOUT" env-description:"Per-attempt request timeout, e.g. 5s"`
	LogLevel string        `env:"IOMETER_LOG_LEVEL" env-description:"Log level: debug, info, warn or error"`
}

// LoadEnv reads the IOMETER_* environment variables.
func LoadEnv() (*Env, error) {
	var env Env
	if err := cleanenv.ReadEnv(&env); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	if env.Timeout < 0 {
		return nil, fmt.Errorf("IOMETER_TIMEOUT must not be negative, got %s", env.Timeout)
	}
	return &env, nil
}

// EnvUsage describes the supported environment variables.
func EnvUsage() (string, error) {
	var env Env
	return cleanenv.GetDescription(&env, nil)
}
