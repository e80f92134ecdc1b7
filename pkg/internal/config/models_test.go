package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type nodeConfig struct {
	Name    string        `mapstructure:"name"`
	Port    int           `mapstructure:"listen_port"`
	Timeout time.Duration `mapstructure:"timeout"`
	Store   storeConfig   `mapstructure:"store_section"`
}

type storeConfig struct {
	Driver string `mapstructure:"driver_name"`
}

func defaults() nodeConfig {
	return nodeConfig{
		Name:    "default-node",
		Port:    1,
		Timeout: time.Second,
		Store: storeConfig{
			Driver: "memory",
		},
	}
}

const yamlConfig = `
listen_port: 3
store_section:
  driver_name: sqlite
`

const dotEnvConfig = `
NODE_LISTEN_PORT=4
NODE_STORE_SECTION_DRIVER_NAME="badger"
`

const dotEnvConfigEmptyPrefix = `
LISTEN_PORT=4
STORE_SECTION_DRIVER_NAME="badger"
`

const jsonConfig = `
{
	"listen_port": 5,
	"timeout": "3s",
	"store_section": {
		"driver_name": "sqlite"
	}
}
`

func tempConfig(t *testing.T, content, extension string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config."+extension)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}
