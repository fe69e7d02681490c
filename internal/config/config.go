package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/sssg/internal/foundation/errors"
)

// DefaultFile is the config file looked up when --config is not given.
const DefaultFile = "sssg.yaml"

// Config is the sssg configuration. Every field is optional; Load fills defaults.
type Config struct {
	Source  string        `yaml:"source"`
	Output  string        `yaml:"output"`
	Dev     DevConfig     `yaml:"dev"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Journal JournalConfig `yaml:"journal"`
}

// DevConfig configures the watcher and the development server.
type DevConfig struct {
	Host              string        `yaml:"host"`
	Port              int           `yaml:"port"`
	PortAttempts      int           `yaml:"port_attempts"`
	Debounce          time.Duration `yaml:"debounce"`
	ReconcileInterval time.Duration `yaml:"reconcile_interval"`
	LiveReload        *bool         `yaml:"live_reload"`
}

// LiveReloadEnabled reports whether live reload is on (default true).
func (d DevConfig) LiveReloadEnabled() bool {
	return d.LiveReload == nil || *d.LiveReload
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// MetricsConfig toggles the Prometheus endpoint on the dev server.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// JournalConfig points at the SQLite build journal. An empty path disables it.
type JournalConfig struct {
	Path string `yaml:"path"`
}

// Load reads configPath (if it exists), loads .env files, applies environment
// overrides and defaults, and validates the result. A missing file is not an
// error when it is the default file name.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	cfg := &Config{}
	if configPath == "" {
		configPath = DefaultFile
	}
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to parse config file").
				Fatal().
				WithContext("path", configPath).
				Build()
		}
	case os.IsNotExist(err) && configPath == DefaultFile:
		// Running without a config file is the common case.
	default:
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read config file").
			Fatal().
			WithContext("path", configPath).
			Build()
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyDefaults fills unset fields.
func ApplyDefaults(cfg *Config) {
	if cfg.Source == "" {
		cfg.Source = "src"
	}
	if cfg.Output == "" {
		cfg.Output = "dist"
	}
	if cfg.Dev.Host == "" {
		cfg.Dev.Host = "localhost"
	}
	if cfg.Dev.Port == 0 {
		cfg.Dev.Port = 8000
	}
	if cfg.Dev.PortAttempts <= 0 {
		cfg.Dev.PortAttempts = 11
	}
	if cfg.Dev.Debounce <= 0 {
		cfg.Dev.Debounce = 100 * time.Millisecond
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = LogLevelInfo
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = LogFormatText
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/__sssg/metrics"
	}
}

// Validate rejects configurations the engine cannot run with.
func Validate(cfg *Config) error {
	if cfg.Dev.Port < 0 || cfg.Dev.Port > 65535 {
		return ferrors.ValidationError(fmt.Sprintf("dev.port out of range: %d", cfg.Dev.Port)).Build()
	}
	if cfg.Dev.ReconcileInterval < 0 {
		return ferrors.ValidationError("dev.reconcile_interval must not be negative").Build()
	}
	if cfg.Source == cfg.Output {
		return ferrors.ValidationError("source and output directories must differ").
			WithContext("path", cfg.Source).
			Build()
	}
	if _, err := logLevelNormalizer.NormalizeWithError(string(cfg.Logging.Level)); err != nil {
		return ferrors.ValidationError("logging.level").WithCause(err).Build()
	}
	if _, err := logFormatNormalizer.NormalizeWithError(string(cfg.Logging.Format)); err != nil {
		return ferrors.ValidationError("logging.format").WithCause(err).Build()
	}
	return nil
}
