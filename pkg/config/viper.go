package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Options describes where a service looks for its settings.
type Options struct {
	// Dir is searched for Name.yaml before the working directory and ./config.
	Dir  string
	Name string

	// EnvFile is loaded into the process environment before anything is
	// read. A missing file is not an error.
	EnvFile string

	// Defaults maps config keys to default values.
	Defaults map[string]interface{}
	// Env maps config keys to explicit environment variable names, for
	// variables that do not follow the KEY_SUBKEY convention.
	Env map[string]string
}

// Load builds a viper instance from, in increasing precedence: defaults,
// the YAML file if one exists, and the environment.
func Load(opts Options) (*viper.Viper, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read %s: %w", envFile, err)
	}

	v := viper.New()
	for key, value := range opts.Defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName(opts.Name)
	v.SetConfigType("yaml")
	if opts.Dir != "" {
		v.AddConfigPath(opts.Dir)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for key, env := range opts.Env {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return v, nil
}

// GetEnv returns environment variable value or default.
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
