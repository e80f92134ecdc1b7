package config_test

import (
	"testing"
	"time"

	"github.com/4chain-ag/go-seal-services/pkg/internal/config"
	"github.com/stretchr/testify/require"
)

func TestLoader_Defaults(t *testing.T) {
	// given:
	l := config.NewLoader(defaults, "NODE")

	// when:
	cfg, err := l.Load()

	// then:
	require.NoError(t, err)
	require.Equal(t, defaults(), cfg)
}

func TestLoader_Sources(t *testing.T) {
	tests := map[string]struct {
		prefix   string
		file     string
		ext      string
		env      map[string]string
		expected nodeConfig
	}{
		"env variables override defaults": {
			prefix: "NODE",
			env: map[string]string{
				"NODE_LISTEN_PORT":               "2",
				"NODE_STORE_SECTION_DRIVER_NAME": "badger",
			},
			expected: nodeConfig{Name: "default-node", Port: 2, Timeout: time.Second, Store: storeConfig{Driver: "badger"}},
		},
		"yaml file overrides defaults": {
			prefix:   "NODE",
			file:     yamlConfig,
			ext:      "yaml",
			expected: nodeConfig{Name: "default-node", Port: 3, Timeout: time.Second, Store: storeConfig{Driver: "sqlite"}},
		},
		"env variables override yaml file": {
			prefix:   "NODE",
			file:     yamlConfig,
			ext:      "yml",
			env:      map[string]string{"NODE_LISTEN_PORT": "2"},
			expected: nodeConfig{Name: "default-node", Port: 2, Timeout: time.Second, Store: storeConfig{Driver: "sqlite"}},
		},
		"dotenv file with prefix": {
			prefix:   "NODE",
			file:     dotEnvConfig,
			ext:      "env",
			env:      map[string]string{"NODE_NAME": "env-node"},
			expected: nodeConfig{Name: "env-node", Port: 4, Timeout: time.Second, Store: storeConfig{Driver: "badger"}},
		},
		"dotenv file without prefix": {
			file:     dotEnvConfigEmptyPrefix,
			ext:      "dotenv",
			env:      map[string]string{"NAME": "env-node"},
			expected: nodeConfig{Name: "env-node", Port: 4, Timeout: time.Second, Store: storeConfig{Driver: "badger"}},
		},
		"env variables override dotenv file": {
			prefix:   "NODE",
			file:     dotEnvConfig,
			ext:      "env",
			env:      map[string]string{"NODE_STORE_SECTION_DRIVER_NAME": "memory"},
			expected: nodeConfig{Name: "default-node", Port: 4, Timeout: time.Second, Store: storeConfig{Driver: "memory"}},
		},
		"json file with duration": {
			prefix:   "NODE",
			file:     jsonConfig,
			ext:      "json",
			expected: nodeConfig{Name: "default-node", Port: 5, Timeout: 3 * time.Second, Store: storeConfig{Driver: "sqlite"}},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			// given:
			for k, v := range test.env {
				t.Setenv(k, v)
			}
			l := config.NewLoader(defaults, test.prefix)
			if test.file != "" {
				require.NoError(t, l.SetConfigFilePath(tempConfig(t, test.file, test.ext)))
			}

			// when:
			cfg, err := l.Load()

			// then:
			require.NoError(t, err)
			require.Equal(t, test.expected, cfg)
		})
	}
}

func TestLoader_ShouldRejectUnsupportedExtension(t *testing.T) {
	// given:
	l := config.NewLoader(defaults, "NODE")

	// when:
	err := l.SetConfigFilePath("config.toml")

	// then:
	require.ErrorContains(t, err, "unsupported config file extension: toml")
}

func TestLoader_ShouldFailOnMissingExplicitFile(t *testing.T) {
	// given:
	l := config.NewLoader(defaults, "NODE")
	require.NoError(t, l.SetConfigFilePath(t.TempDir()+"/absent.yaml"))

	// when:
	_, err := l.Load()

	// then:
	require.Error(t, err)
}
