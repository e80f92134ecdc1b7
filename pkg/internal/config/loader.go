// Package config loads typed configuration from defaults, an optional file
// and environment variables, and writes configuration back to files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	DefaultConfigFilePath = "config.yaml"
)

var SupportedExts = []string{"yaml", "yml", "json", "dotenv", "env"}

// Loader resolves a configuration of type T.
type Loader[T any] struct {
	cfg            T
	envPrefix      string
	configFilePath string
	configFileExt  string
	viper          *viper.Viper
}

func NewLoader[T any](defaults func() T, envPrefix string) *Loader[T] {
	return &Loader[T]{
		cfg:            defaults(),
		envPrefix:      envPrefix,
		configFilePath: DefaultConfigFilePath,
		configFileExt:  "yaml",
		viper:          viper.New(),
	}
}

func (l *Loader[T]) SetConfigFilePath(path string) error {
	ext, err := fileExt(path)
	if err != nil {
		return err
	}
	l.configFilePath = path
	l.configFileExt = ext
	return nil
}

// Load resolves the configuration. Values are taken, by priority, from:
//  1. environment variables
//  2. the config file ("yaml", "yml", "json", "env", "dotenv")
//  3. the defaults
//
// A missing file at DefaultConfigFilePath is not an error. Nested keys map to
// environment variables joined with underscores, so the key storage.dsn
// under the prefix SEALS is read from SEALS_STORAGE_DSN.
func (l *Loader[T]) Load() (T, error) {
	if err := l.setViperDefaults(); err != nil {
		return l.cfg, err
	}

	l.prepareViper()

	if err := l.loadFromFile(); err != nil {
		return l.cfg, err
	}

	if err := l.viperToCfg(); err != nil {
		return l.cfg, err
	}

	return l.cfg, nil
}

func (l *Loader[T]) setViperDefaults() error {
	defaultsMap := make(map[string]any)
	if err := mapstructure.Decode(l.cfg, &defaultsMap); err != nil {
		return fmt.Errorf("error occurred while setting defaults: %w", err)
	}

	for k, v := range flatten("", defaultsMap) {
		l.viper.SetDefault(k, v)
	}

	return nil
}

func (l *Loader[T]) prepareViper() {
	l.viper.SetEnvPrefix(l.envPrefix)
	l.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.viper.AutomaticEnv()
}

func (l *Loader[T]) loadFromFile() error {
	if l.configFilePath == DefaultConfigFilePath {
		if _, err := os.Stat(l.configFilePath); os.IsNotExist(err) {
			return nil
		}
	}

	l.viper.SetConfigFile(l.configFilePath)
	if err := l.viper.ReadInConfig(); err != nil {
		return fmt.Errorf("error while reading config file: %w", err)
	}

	if l.configFileExt == "dotenv" || l.configFileExt == "env" {
		// .env files flatten nested keys with underscores instead of dots.
		prefix := l.envPrefix
		if prefix != "" {
			prefix += "_"
		}
		for _, key := range l.viper.AllKeys() {
			alias := strings.ToLower(prefix + strings.ReplaceAll(key, ".", "_"))
			if alias != key {
				l.viper.RegisterAlias(alias, key)
			}
		}
	}

	return nil
}

func (l *Loader[T]) viperToCfg() error {
	if err := l.viper.Unmarshal(&l.cfg); err != nil {
		return fmt.Errorf("error while unmarshalling config from viper: %w", err)
	}
	return nil
}

// flatten turns nested maps into dotted keys so that every leaf gets its own
// default and is therefore visible to AutomaticEnv.
func flatten(prefix string, in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			for nk, nv := range flatten(key, nested) {
				out[nk] = nv
			}
			continue
		}
		out[key] = v
	}
	return out
}

func fileExt(path string) (string, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if !slices.Contains(SupportedExts, ext) {
		return "", fmt.Errorf("unsupported config file extension: %s", ext)
	}
	return ext, nil
}
