// Package config holds the configuration of the seal service binary.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/4chain-ag/go-seal-services/pkg/core/graph/closing"
	"github.com/4chain-ag/go-seal-services/pkg/internal/config"
	"github.com/4chain-ag/go-seal-services/pkg/server"
	"github.com/gookit/slog"
)

// EnvPrefix prefixes every environment variable read by LoadFromPath.
const EnvPrefix = "SEALS"

// DefaultConfigFilePath is the default path to the configuration file.
const DefaultConfigFilePath = config.DefaultConfigFilePath

// Config contains the settings of the seal service and its dependencies.
type Config struct {
	Server  server.Config  `mapstructure:"server"`
	Storage StorageConfig  `mapstructure:"storage"`
	Ledger  LedgerConfig   `mapstructure:"ledger"`
	Closing closing.Config `mapstructure:"closing"`
	Logger  LoggerConfig   `mapstructure:"logger"`
}

// NewDefault returns a Config suitable for local development: an in-memory
// graph and ledger and a freshly generated admin token.
func NewDefault() Config {
	return Config{
		Server:  server.DefaultConfig(),
		Storage: DefaultStorageConfig(),
		Ledger:  DefaultLedgerConfig(),
		Logger:  DefaultLoggerConfig(),
	}
}

// Validate checks every section of the configuration.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Server.AdminBearerToken) == "" {
		errs = append(errs, errors.New("server: admin bearer token is required"))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server: port %d out of range", c.Server.Port))
	}
	if err := c.Storage.validate(); err != nil {
		errs = append(errs, fmt.Errorf("storage: %w", err))
	}
	if err := c.Ledger.validate(); err != nil {
		errs = append(errs, fmt.Errorf("ledger: %w", err))
	}
	if err := c.Logger.validate(); err != nil {
		errs = append(errs, fmt.Errorf("logger: %w", err))
	}
	return errors.Join(errs...)
}

// Export writes the configuration to path. The format follows the file
// extension: JSON for ".json", environment variables for ".env" and
// ".dotenv", YAML for ".yaml" and ".yml".
func (c *Config) Export(path string) error {
	if err := config.ToFile(c, path, EnvPrefix); err != nil {
		return fmt.Errorf("failed to export configuration: %w", err)
	}
	return nil
}

// NewLoader creates a configuration loader reading SEALS_* variables.
func NewLoader() *config.Loader[Config] {
	return config.NewLoader(NewDefault, EnvPrefix)
}

// LoadFromPath loads the configuration from the file at path, environment
// variables and defaults, and validates the result. A missing file at
// DefaultConfigFilePath falls back to defaults.
func LoadFromPath(path string) (Config, error) {
	loader := NewLoader()
	if err := loader.SetConfigFilePath(path); err != nil {
		return Config{}, fmt.Errorf("invalid config file path: %w", err)
	}

	cfg, err := loader.Load()
	if err != nil {
		return Config{}, fmt.Errorf("config loader load operation failed: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}

	slog.Infof("Config loaded: storage=%s ledger=%s", cfg.Storage.Driver, cfg.Ledger.Driver)
	return cfg, nil
}

// SupportedExts returns the list of supported configuration file extensions.
func SupportedExts() []string {
	return config.SupportedExts
}
