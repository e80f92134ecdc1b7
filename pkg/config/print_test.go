package config_test

import (
	"bytes"
	"testing"

	"github.com/4chain-ag/go-seal-services/pkg/config"
	"github.com/stretchr/testify/require"
)

func TestPrettyPrintAs(t *testing.T) {
	for _, format := range []string{"json", "yaml", "YML"} {
		t.Run(format, func(t *testing.T) {
			// given:
			cfg := config.NewDefault()
			cfg.Server.AdminBearerToken = "super-secret-token"
			cfg.Ledger.WhatsOnChain.APIKey = "woc-secret-key"
			var out bytes.Buffer

			// when:
			err := config.PrettyPrintAs(&out, cfg, format)

			// then:
			require.NoError(t, err)
			require.Contains(t, out.String(), "Loaded Configuration:")
			require.Contains(t, out.String(), "****")
			require.NotContains(t, out.String(), "super-secret-token")
			require.NotContains(t, out.String(), "woc-secret-key")
			require.Equal(t, "super-secret-token", cfg.Server.AdminBearerToken)
		})
	}

	t.Run("unsupported format", func(t *testing.T) {
		// when:
		err := config.PrettyPrintAs(&bytes.Buffer{}, config.NewDefault(), "toml")

		// then:
		require.ErrorContains(t, err, "unsupported print format")
	})
}
