package graph

import (
	"context"

	"github.com/bsv-blockchain/go-sdk/chainhash"
)

// Store persists the seal graph. All reads and writes go through a Tx;
// an Update either commits every change made by fn or none of them.
// Updates are serialized; Views may run concurrently and never observe a
// partially applied Update.
type Store interface {
	View(ctx context.Context, fn func(tx Tx) error) error
	Update(ctx context.Context, fn func(tx Tx) error) error
	Close() error
}

// Tx is a store transaction. Write methods fail inside View.
type Tx interface {
	// InsertSeal stores a new record and assigns its id.
	InsertSeal(r *Record) (SealID, error)
	UpdateSeal(r *Record) error
	// FindSeal returns ErrNotFound for an unknown id.
	FindSeal(id SealID) (*Record, error)
	// ReserveBlinding returns ErrAlreadyExists if blinding is taken in scope.
	ReserveBlinding(scope string, blinding uint64) error
	// FindWitness returns ErrNotFound for an unknown txid.
	FindWitness(txid chainhash.Hash) (*Witness, error)
	PutWitness(w *Witness) error
}
