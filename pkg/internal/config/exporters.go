package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"
)

// ToFile writes cfg to path in the format named by its extension. envPrefix
// is only used for env and dotenv files.
func ToFile(cfg any, path, envPrefix string) error {
	ext, err := fileExt(path)
	if err != nil {
		return err
	}
	switch ext {
	case "json":
		return ToJSONFile(cfg, path)
	case "env", "dotenv":
		return ToEnvFile(cfg, path, envPrefix)
	default:
		return ToYAMLFile(cfg, path)
	}
}

// ToJSONFile exports the given config struct into a JSON file.
func ToJSONFile(cfg any, filename string) error {
	mapData, err := toMap(cfg)
	if err != nil {
		return err
	}

	jsonData, err := json.MarshalIndent(mapData, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal map to json: %w", err)
	}
	return write(filename, jsonData, "json")
}

// ToYAMLFile exports the given config struct into a YAML file.
func ToYAMLFile(cfg any, filename string) error {
	mapData, err := toMap(cfg)
	if err != nil {
		return err
	}

	yamlData, err := yaml.Marshal(mapData)
	if err != nil {
		return fmt.Errorf("failed to marshal map to yaml: %w", err)
	}
	return write(filename, yamlData, "yaml")
}

// ToEnvFile exports the given config struct as KEY="value" lines, one per
// leaf, sorted by key.
func ToEnvFile(cfg any, filename string, envPrefix string) error {
	mapData, err := toMap(cfg)
	if err != nil {
		return err
	}
	if len(mapData) == 0 {
		return fmt.Errorf("config appears empty or unsupported, nothing to write")
	}

	lines := make([]string, 0, len(mapData))
	for k, v := range flatten("", mapData) {
		key := strings.ToUpper(strings.ReplaceAll(k, ".", "_"))
		if envPrefix != "" {
			key = strings.ToUpper(envPrefix) + "_" + key
		}
		lines = append(lines, fmt.Sprintf(`%s="%v"`, key, v))
	}
	sort.Strings(lines)

	return write(filename, []byte(strings.Join(lines, "\n")+"\n"), "env")
}

func toMap(cfg any) (map[string]any, error) {
	var mapData map[string]any
	if err := mapstructure.Decode(cfg, &mapData); err != nil {
		return nil, fmt.Errorf("failed to decode config to map: %w", err)
	}
	return mapData, nil
}

func write(filename string, data []byte, format string) error {
	if err := os.WriteFile(filename, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s to file: %w", format, err)
	}
	return nil
}
