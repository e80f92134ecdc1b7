package storage

import (
	"fmt"
	"time"

	"github.com/4chain-ag/go-seal-services/pkg/core/graph"
	"github.com/4chain-ag/go-seal-services/pkg/core/seal"
	"github.com/bsv-blockchain/go-sdk/chainhash"
)

// recordDocument is the persisted form of graph.Record.
type recordDocument struct {
	ID         uint64           `cbor:"1,keyasint"`
	Scope      string           `cbor:"2,keyasint"`
	Seal       seal.Envelope    `cbor:"3,keyasint"`
	Commitment *seal.Commitment `cbor:"4,keyasint,omitempty"`
	Closed     bool             `cbor:"5,keyasint"`
	ClosedBy   []byte           `cbor:"6,keyasint,omitempty"`
	CreatedBy  []byte           `cbor:"7,keyasint,omitempty"`
	CreatedAt  int64            `cbor:"8,keyasint"`
}

func newRecordDocument(r *graph.Record) recordDocument {
	return recordDocument{
		ID:         uint64(r.ID),
		Scope:      r.Scope,
		Seal:       seal.Wrap(r.Seal),
		Commitment: r.Commitment,
		Closed:     r.Closed,
		ClosedBy:   hashBytes(r.ClosedBy),
		CreatedBy:  hashBytes(r.CreatedBy),
		CreatedAt:  r.CreatedAt.UnixNano(),
	}
}

func (d recordDocument) record() (*graph.Record, error) {
	s, err := d.Seal.Open()
	if err != nil {
		return nil, fmt.Errorf("seal %d: %w", d.ID, err)
	}
	closedBy, err := hashFromBytes(d.ClosedBy)
	if err != nil {
		return nil, fmt.Errorf("seal %d closed by: %w", d.ID, err)
	}
	createdBy, err := hashFromBytes(d.CreatedBy)
	if err != nil {
		return nil, fmt.Errorf("seal %d created by: %w", d.ID, err)
	}
	return &graph.Record{
		ID:         graph.SealID(d.ID),
		Scope:      d.Scope,
		Seal:       s,
		Commitment: d.Commitment,
		Closed:     d.Closed,
		ClosedBy:   closedBy,
		CreatedBy:  createdBy,
		CreatedAt:  time.Unix(0, d.CreatedAt).UTC(),
	}, nil
}

// witnessDocument is the persisted form of graph.Witness.
type witnessDocument struct {
	Txid      []byte         `cbor:"1,keyasint"`
	RawTx     []byte         `cbor:"2,keyasint"`
	Confirmed bool           `cbor:"3,keyasint"`
	Closes    []graph.SealID `cbor:"4,keyasint"`
	Creates   []graph.SealID `cbor:"5,keyasint"`
}

func newWitnessDocument(w *graph.Witness) witnessDocument {
	return witnessDocument{
		Txid:      w.Txid.CloneBytes(),
		RawTx:     w.RawTx,
		Confirmed: w.Confirmed,
		Closes:    w.Closes,
		Creates:   w.Creates,
	}
}

func (d witnessDocument) witness() (*graph.Witness, error) {
	txid, err := chainhash.NewHash(d.Txid)
	if err != nil {
		return nil, err
	}
	return &graph.Witness{
		Txid:      *txid,
		RawTx:     d.RawTx,
		Confirmed: d.Confirmed,
		Closes:    d.Closes,
		Creates:   d.Creates,
	}, nil
}

func hashBytes(h *chainhash.Hash) []byte {
	if h == nil {
		return nil
	}
	return h.CloneBytes()
}

func hashFromBytes(b []byte) (*chainhash.Hash, error) {
	if len(b) == 0 {
		return nil, nil
	}
	return chainhash.NewHash(b)
}
