package config

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// PrettyPrintAs writes cfg to w in the given format (json, yaml or yml).
// The admin bearer token is masked.
func PrettyPrintAs(w io.Writer, cfg Config, format string) error {
	cfg.Server.AdminBearerToken = mask(cfg.Server.AdminBearerToken)
	cfg.Ledger.WhatsOnChain.APIKey = mask(cfg.Ledger.WhatsOnChain.APIKey)

	var (
		data []byte
		err  error
	)
	switch strings.ToLower(format) {
	case "json":
		data, err = json.MarshalIndent(cfg, "", "  ")
	case "yaml", "yml":
		data, err = yaml.Marshal(cfg)
	default:
		return fmt.Errorf("unsupported print format: %s", format)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config for printing: %w", err)
	}

	_, err = fmt.Fprintf(w, "Loaded Configuration:\n%s\n", data)
	return err
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "****"
}
