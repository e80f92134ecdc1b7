// Package storage provides graph.Store backends.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/4chain-ag/go-seal-services/pkg/core/graph"
	"github.com/bsv-blockchain/go-sdk/chainhash"
)

// ErrReadOnly is returned by write methods called inside a View.
var ErrReadOnly = errors.New("read-only-transaction")

type blindingKey struct {
	scope    string
	blinding uint64
}

// Memory keeps the graph in process memory. Updates stage their writes and
// apply them only when fn succeeds.
type Memory struct {
	mu        sync.RWMutex
	seals     map[graph.SealID]*graph.Record
	witnesses map[chainhash.Hash]*graph.Witness
	blindings map[blindingKey]struct{}
	lastID    graph.SealID
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		seals:     make(map[graph.SealID]*graph.Record),
		witnesses: make(map[chainhash.Hash]*graph.Witness),
		blindings: make(map[blindingKey]struct{}),
	}
}

// View implements graph.Store.
func (m *Memory) View(ctx context.Context, fn func(tx graph.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fn(&memoryTx{store: m})
}

// Update implements graph.Store.
func (m *Memory) Update(ctx context.Context, fn func(tx graph.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memoryTx{
		store:     m,
		writable:  true,
		seals:     make(map[graph.SealID]*graph.Record),
		witnesses: make(map[chainhash.Hash]*graph.Witness),
		blindings: make(map[blindingKey]struct{}),
		lastID:    m.lastID,
	}
	if err := fn(tx); err != nil {
		return err
	}

	for id, record := range tx.seals {
		m.seals[id] = record
	}
	for txid, witness := range tx.witnesses {
		m.witnesses[txid] = witness
	}
	for key := range tx.blindings {
		m.blindings[key] = struct{}{}
	}
	m.lastID = tx.lastID
	return nil
}

// Close implements graph.Store.
func (m *Memory) Close() error {
	return nil
}

type memoryTx struct {
	store     *Memory
	writable  bool
	seals     map[graph.SealID]*graph.Record
	witnesses map[chainhash.Hash]*graph.Witness
	blindings map[blindingKey]struct{}
	lastID    graph.SealID
}

func (tx *memoryTx) InsertSeal(r *graph.Record) (graph.SealID, error) {
	if !tx.writable {
		return 0, ErrReadOnly
	}
	tx.lastID++
	r.ID = tx.lastID
	tx.seals[r.ID] = r.Clone()
	return r.ID, nil
}

func (tx *memoryTx) UpdateSeal(r *graph.Record) error {
	if !tx.writable {
		return ErrReadOnly
	}
	if _, err := tx.FindSeal(r.ID); err != nil {
		return err
	}
	tx.seals[r.ID] = r.Clone()
	return nil
}

func (tx *memoryTx) FindSeal(id graph.SealID) (*graph.Record, error) {
	if record, ok := tx.seals[id]; ok {
		return record.Clone(), nil
	}
	if record, ok := tx.store.seals[id]; ok {
		return record.Clone(), nil
	}
	return nil, fmt.Errorf("%w: seal %s", graph.ErrNotFound, id)
}

func (tx *memoryTx) ReserveBlinding(scope string, blinding uint64) error {
	if !tx.writable {
		return ErrReadOnly
	}
	key := blindingKey{scope: scope, blinding: blinding}
	_, staged := tx.blindings[key]
	_, stored := tx.store.blindings[key]
	if staged || stored {
		return graph.ErrAlreadyExists
	}
	tx.blindings[key] = struct{}{}
	return nil
}

func (tx *memoryTx) FindWitness(txid chainhash.Hash) (*graph.Witness, error) {
	if witness, ok := tx.witnesses[txid]; ok {
		return witness.Clone(), nil
	}
	if witness, ok := tx.store.witnesses[txid]; ok {
		return witness.Clone(), nil
	}
	return nil, fmt.Errorf("%w: witness %s", graph.ErrNotFound, txid.String())
}

func (tx *memoryTx) PutWitness(w *graph.Witness) error {
	if !tx.writable {
		return ErrReadOnly
	}
	tx.witnesses[w.Txid] = w.Clone()
	return nil
}
