package closing

import (
	"context"
	"errors"

	"github.com/4chain-ag/go-seal-services/pkg/core/seal"
	"github.com/bsv-blockchain/go-sdk/chainhash"
	"github.com/bsv-blockchain/go-sdk/transaction"
)

// ErrNotFound is returned by a WitnessLedger that cannot resolve a txid.
var ErrNotFound = errors.New("not-found")

// Witness is a transaction as resolved by the witness ledger.
type Witness struct {
	Txid      chainhash.Hash
	Tx        *transaction.Transaction
	Confirmed bool
}

// NewWitness wraps tx, computing its txid.
func NewWitness(tx *transaction.Transaction, confirmed bool) *Witness {
	return &Witness{Txid: *tx.TxID(), Tx: tx, Confirmed: confirmed}
}

// WitnessLedger is the external collaborator that knows which transactions
// exist and what they spend. Retries and timeouts are its concern.
type WitnessLedger interface {
	// Resolve returns the transaction with the given txid or ErrNotFound.
	Resolve(ctx context.Context, txid chainhash.Hash) (*Witness, error)
	// Spends reports whether tx spends outpoint exactly once.
	Spends(tx *transaction.Transaction, outpoint seal.Outpoint) bool
}

// SpendsOutpoint reports whether exactly one input of tx spends outpoint.
func SpendsOutpoint(tx *transaction.Transaction, outpoint seal.Outpoint) bool {
	if tx == nil {
		return false
	}
	matches := 0
	for _, input := range tx.Inputs {
		if input.SourceTXID == nil || input.SourceTxOutIndex != outpoint.Vout {
			continue
		}
		if input.SourceTXID.IsEqual(&outpoint.Txid) {
			matches++
		}
	}
	return matches == 1
}
