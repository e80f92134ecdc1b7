// Package ledger provides WitnessLedger implementations.
package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/4chain-ag/go-seal-services/pkg/core/graph/closing"
	"github.com/4chain-ag/go-seal-services/pkg/core/seal"
	"github.com/bsv-blockchain/go-sdk/chainhash"
	"github.com/bsv-blockchain/go-sdk/transaction"
)

// Memory is an in-process ledger. Importers use it to hold the transactions a
// consignment ships with; tests use it as a fake chain.
type Memory struct {
	mu  sync.RWMutex
	txs map[chainhash.Hash]*closing.Witness
}

// NewMemory returns an empty ledger.
func NewMemory() *Memory {
	return &Memory{txs: make(map[chainhash.Hash]*closing.Witness)}
}

// Add records tx with the given confirmation status and returns its witness.
func (m *Memory) Add(tx *transaction.Transaction, confirmed bool) *closing.Witness {
	w := closing.NewWitness(tx, confirmed)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txs[w.Txid] = w
	return w
}

// Confirm marks a known transaction as confirmed.
func (m *Memory) Confirm(txid chainhash.Hash) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.txs[txid]
	if !ok {
		return fmt.Errorf("%w: %s", closing.ErrNotFound, txid.String())
	}
	confirmed := *w
	confirmed.Confirmed = true
	m.txs[txid] = &confirmed
	return nil
}

// Resolve implements closing.WitnessLedger.
func (m *Memory) Resolve(_ context.Context, txid chainhash.Hash) (*closing.Witness, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.txs[txid]
	if !ok {
		return nil, fmt.Errorf("%w: %s", closing.ErrNotFound, txid.String())
	}
	return w, nil
}

// Spends implements closing.WitnessLedger.
func (m *Memory) Spends(tx *transaction.Transaction, outpoint seal.Outpoint) bool {
	return closing.SpendsOutpoint(tx, outpoint)
}
