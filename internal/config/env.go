package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"

	ferrors "git.home.luguber.info/inful/sssg/internal/foundation/errors"
)

// Environment variables read on top of the config file.
const (
	EnvSource   = "SRC"
	EnvOutput   = "DIST"
	EnvPort     = "SSSG_PORT"
	EnvLogLevel = "SSSG_LOG_LEVEL"
)

var envFiles = []string{".env", ".env.local"}

// loadEnvFiles loads .env and .env.local when present. godotenv.Load never
// overrides variables already set in the process environment.
func loadEnvFiles() {
	for _, name := range envFiles {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		_ = godotenv.Load(name)
	}
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv(EnvSource); v != "" {
		cfg.Source = v
	}
	if v := os.Getenv(EnvOutput); v != "" {
		cfg.Output = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = LogLevel(v)
	}
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return ferrors.ValidationError("invalid " + EnvPort).WithCause(err).Build()
		}
		cfg.Dev.Port = port
	}
	return nil
}
