// loader.go implements the configuration loading lifecycle:
//
//  1. Enforce UTC as the process timezone to prevent drift bugs.
//  2. Load a .env file via godotenv (non-fatal if absent, never overrides
//     variables already set in the environment).
//  3. Process envconfig struct tags to populate the Config struct.
//  4. Populate BuildInfo from linker-injected variables.
//  5. Validate the struct using go-playground/validator.
package config

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// ConfigErrorType categorizes configuration failures.
type ConfigErrorType string

const (
	// ErrParsing indicates a malformed environment value.
	ErrParsing ConfigErrorType = "PARSING"
	// ErrValidation indicates a value that parsed but failed validation.
	ErrValidation ConfigErrorType = "VALIDATION"
)

// ConfigError is the diagnostic error type returned by LoadConfig.
type ConfigError struct {
	Type    ConfigErrorType
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Err != nil {
		return "[" + string(e.Type) + "] " + e.Message + ": " + e.Err.Error()
	}
	return "[" + string(e.Type) + "] " + e.Message
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// LoadConfig loads and validates the tour-finder configuration from the
// environment, optionally seeded by a .env file in the working directory.
func LoadConfig() (*Config, error) {
	time.Local = time.UTC

	// Silently succeeds when no .env file exists and never overrides
	// variables already present in the environment.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, &ConfigError{
			Type:    ErrParsing,
			Message: "failed to process environment configuration",
			Err:     err,
		}
	}

	cfg.Build = NewBuildInfo()

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, &ConfigError{
			Type:    ErrValidation,
			Message: "configuration validation failed",
			Err:     err,
		}
	}

	return &cfg, nil
}
