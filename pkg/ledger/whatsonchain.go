package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/4chain-ag/go-seal-services/pkg/core/graph/closing"
	"github.com/4chain-ag/go-seal-services/pkg/core/seal"
	"github.com/bsv-blockchain/go-sdk/chainhash"
	"github.com/bsv-blockchain/go-sdk/transaction"
	"github.com/go-resty/resty/v2"
	lru "github.com/hashicorp/golang-lru/v2"
)

// WhatsOnChainConfig configures the WhatsOnChain ledger adapter.
type WhatsOnChainConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Network   string        `mapstructure:"network"`
	APIKey    string        `mapstructure:"api_key"`
	CacheSize int           `mapstructure:"cache_size"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// DefaultWhatsOnChainConfig returns the public mainnet endpoint configuration.
func DefaultWhatsOnChainConfig() WhatsOnChainConfig {
	return WhatsOnChainConfig{
		BaseURL:   "https://api.whatsonchain.com",
		Network:   "main",
		CacheSize: 4096,
		Timeout:   10 * time.Second,
	}
}

type txStatus struct {
	Txid          string `json:"txid"`
	BlockHash     string `json:"blockhash"`
	BlockHeight   uint32 `json:"blockheight"`
	Confirmations uint32 `json:"confirmations"`
}

// WhatsOnChain resolves witness transactions through the WhatsOnChain REST
// API. Confirmed transactions are cached; unconfirmed ones are fetched again
// on every call so that their status can change.
type WhatsOnChain struct {
	client  *resty.Client
	network string
	cache   *lru.Cache[chainhash.Hash, *closing.Witness]
}

// NewWhatsOnChain returns a ledger adapter for cfg.
func NewWhatsOnChain(cfg WhatsOnChainConfig) (*WhatsOnChain, error) {
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultWhatsOnChainConfig().CacheSize
	}
	cache, err := lru.New[chainhash.Hash, *closing.Witness](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating witness cache: %w", err)
	}

	client := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout)
	if cfg.APIKey != "" {
		client.SetHeader("Authorization", cfg.APIKey)
	}

	return &WhatsOnChain{client: client, network: cfg.Network, cache: cache}, nil
}

// Resolve implements closing.WitnessLedger.
func (w *WhatsOnChain) Resolve(ctx context.Context, txid chainhash.Hash) (*closing.Witness, error) {
	if witness, ok := w.cache.Get(txid); ok {
		return witness, nil
	}

	params := map[string]string{"network": w.network, "txid": txid.String()}
	start := time.Now()
	res, err := w.client.R().
		SetContext(ctx).
		SetPathParams(params).
		Get("/v1/bsv/{network}/tx/{txid}/hex")
	if err != nil {
		return nil, fmt.Errorf("fetching raw transaction %s: %w", txid.String(), err)
	}
	if res.StatusCode() == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", closing.ErrNotFound, txid.String())
	}
	if res.IsError() {
		return nil, fmt.Errorf("fetching raw transaction %s: unexpected status %d", txid.String(), res.StatusCode())
	}

	tx, err := transaction.NewTransactionFromHex(strings.TrimSpace(res.String()))
	if err != nil {
		return nil, fmt.Errorf("parsing raw transaction %s: %w", txid.String(), err)
	}
	if got := tx.TxID(); !got.IsEqual(&txid) {
		return nil, fmt.Errorf("ledger returned transaction %s for %s", got.String(), txid.String())
	}

	var status txStatus
	res, err = w.client.R().
		SetContext(ctx).
		SetPathParams(params).
		SetResult(&status).
		Get("/v1/bsv/{network}/tx/hash/{txid}")
	if err != nil {
		return nil, fmt.Errorf("fetching status of %s: %w", txid.String(), err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("fetching status of %s: unexpected status %d", txid.String(), res.StatusCode())
	}

	witness := &closing.Witness{Txid: txid, Tx: tx, Confirmed: status.Confirmations > 0}
	if witness.Confirmed {
		w.cache.Add(txid, witness)
	}
	slog.Debug("witness resolved", "txid", txid.String(), "confirmed", witness.Confirmed, "duration", time.Since(start))
	return witness, nil
}

// Spends implements closing.WitnessLedger.
func (w *WhatsOnChain) Spends(tx *transaction.Transaction, outpoint seal.Outpoint) bool {
	return closing.SpendsOutpoint(tx, outpoint)
}
