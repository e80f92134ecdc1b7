package config

import (
	"fmt"
	stdslog "log/slog"
	"os"

	"github.com/gookit/slog"
)

// LoggerConfig represents the logger configuration.
type LoggerConfig struct {
	Level       string `mapstructure:"level"`
	Format      string `mapstructure:"format"`
	PrettyPrint bool   `mapstructure:"pretty_print"`
}

// DefaultLoggerConfig logs info and above as JSON.
func DefaultLoggerConfig() LoggerConfig {
	return LoggerConfig{
		Level:  "info",
		Format: "json",
	}
}

// Apply configures the process loggers: the gookit logger used by the
// binaries and the log/slog default used by the core packages.
func (c LoggerConfig) Apply() error {
	if err := c.validate(); err != nil {
		return err
	}

	var level stdslog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.Level, err)
	}
	opts := &stdslog.HandlerOptions{Level: level}

	slog.SetLogLevel(slog.LevelByName(c.Level))
	switch c.Format {
	case "json":
		slog.SetFormatter(slog.NewJSONFormatter(func(f *slog.JSONFormatter) {
			f.PrettyPrint = c.PrettyPrint
		}))
		stdslog.SetDefault(stdslog.New(stdslog.NewJSONHandler(os.Stderr, opts)))
	default:
		slog.SetFormatter(slog.NewTextFormatter())
		stdslog.SetDefault(stdslog.New(stdslog.NewTextHandler(os.Stderr, opts)))
	}
	return nil
}

func (c LoggerConfig) validate() error {
	switch c.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Level)
	}
	if c.Format != "json" && c.Format != "text" {
		return fmt.Errorf("unknown log format %q", c.Format)
	}
	return nil
}
