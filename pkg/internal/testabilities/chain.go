// Package testabilities holds fixtures shared by tests across packages.
package testabilities

import (
	"encoding/binary"
	"sync/atomic"
	"testing"

	"github.com/4chain-ag/go-seal-services/pkg/core/seal"
	"github.com/bsv-blockchain/go-sdk/chainhash"
	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/bsv-blockchain/go-sdk/transaction"
)

var fundingCounter atomic.Uint64

// FundingTx returns a transaction with the given number of outputs. Every call
// yields a distinct txid.
func FundingTx(t testing.TB, outputs int) *transaction.Transaction {
	t.Helper()
	var source chainhash.Hash
	binary.LittleEndian.PutUint64(source[:8], fundingCounter.Add(1))
	source[31] = 0xfe

	tx := transaction.NewTransaction()
	tx.AddInput(&transaction.TransactionInput{
		SourceTXID:       &source,
		SourceTxOutIndex: 0,
		UnlockingScript:  &script.Script{},
		SequenceNumber:   0xffffffff,
	})
	addOutputs(tx, outputs)
	return tx
}

// SpendingTx returns a transaction spending each outpoint once and carrying
// the given number of outputs.
func SpendingTx(t testing.TB, outputs int, spends ...seal.Outpoint) *transaction.Transaction {
	t.Helper()
	tx := transaction.NewTransaction()
	for _, op := range spends {
		txid := op.Txid
		tx.AddInput(&transaction.TransactionInput{
			SourceTXID:       &txid,
			SourceTxOutIndex: op.Vout,
			UnlockingScript:  &script.Script{},
			SequenceNumber:   0xffffffff,
		})
	}
	addOutputs(tx, outputs)
	return tx
}

// Outpoint returns the outpoint of output vout of tx.
func Outpoint(tx *transaction.Transaction, vout uint32) seal.Outpoint {
	return seal.NewOutpoint(*tx.TxID(), vout)
}

func addOutputs(tx *transaction.Transaction, n int) {
	for i := 0; i < n; i++ {
		tx.AddOutput(&transaction.TransactionOutput{
			Satoshis:      uint64(1000 + i),
			LockingScript: &script.Script{script.OpTRUE},
		})
	}
}
