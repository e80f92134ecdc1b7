package config

import (
	"errors"
	"fmt"

	"github.com/4chain-ag/go-seal-services/pkg/core/graph/closing"
	"github.com/4chain-ag/go-seal-services/pkg/ledger"
)

const (
	LedgerMemory       = "memory"
	LedgerWhatsOnChain = "woc"
)

// LedgerConfig selects the witness ledger the closing validator consults.
type LedgerConfig struct {
	// Driver is memory or woc.
	Driver       string                    `mapstructure:"driver"`
	WhatsOnChain ledger.WhatsOnChainConfig `mapstructure:"whatsonchain"`
}

// DefaultLedgerConfig uses the in-memory ledger and carries the public
// WhatsOnChain endpoint for when the driver is switched.
func DefaultLedgerConfig() LedgerConfig {
	return LedgerConfig{
		Driver:       LedgerMemory,
		WhatsOnChain: ledger.DefaultWhatsOnChainConfig(),
	}
}

// Open creates the configured ledger.
func (c LedgerConfig) Open() (closing.WitnessLedger, error) {
	switch c.Driver {
	case LedgerMemory:
		return ledger.NewMemory(), nil
	case LedgerWhatsOnChain:
		return ledger.NewWhatsOnChain(c.WhatsOnChain)
	default:
		return nil, fmt.Errorf("unknown ledger driver %q", c.Driver)
	}
}

func (c LedgerConfig) validate() error {
	switch c.Driver {
	case LedgerMemory:
		return nil
	case LedgerWhatsOnChain:
		if c.WhatsOnChain.BaseURL == "" {
			return errors.New("whatsonchain base url is required")
		}
		if c.WhatsOnChain.Network != "main" && c.WhatsOnChain.Network != "test" {
			return fmt.Errorf("unknown whatsonchain network %q", c.WhatsOnChain.Network)
		}
		return nil
	default:
		return fmt.Errorf("unknown ledger driver %q", c.Driver)
	}
}
