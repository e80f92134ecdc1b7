package storage

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/4chain-ag/go-seal-services/pkg/core/graph"
	"github.com/4chain-ag/go-seal-services/pkg/internal/codec"
	"github.com/bsv-blockchain/go-sdk/chainhash"
	"github.com/dgraph-io/badger/v2"
)

const (
	codeSeal     byte = 0x01
	codeWitness  byte = 0x02
	codeBlinding byte = 0x03
	codeLastID   byte = 0x04
)

// Badger stores the graph in a badger key/value database. Records and
// witnesses are CBOR encoded under one-byte key prefixes.
type Badger struct {
	db *badger.DB
	// mu serializes updates so that overlapping closes never reach badger's
	// optimistic conflict detection.
	mu sync.Mutex
}

// NewBadger opens (or creates) the database in dir. An empty dir keeps the
// database in memory.
func NewBadger(dir string) (*Badger, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger database: %w", err)
	}
	return &Badger{db: db}, nil
}

// View implements graph.Store.
func (b *Badger) View(ctx context.Context, fn func(tx graph.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.View(func(txn *badger.Txn) error {
		return fn(&badgerTx{txn: txn})
	})
}

// Update implements graph.Store.
func (b *Badger) Update(ctx context.Context, fn func(tx graph.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.db.Update(func(txn *badger.Txn) error {
		return fn(&badgerTx{txn: txn, writable: true})
	})
}

// Close implements graph.Store.
func (b *Badger) Close() error {
	return b.db.Close()
}

type badgerTx struct {
	txn      *badger.Txn
	writable bool
}

func (tx *badgerTx) InsertSeal(r *graph.Record) (graph.SealID, error) {
	if !tx.writable {
		return 0, ErrReadOnly
	}
	var last uint64
	item, err := tx.txn.Get([]byte{codeLastID})
	switch {
	case err == nil:
		if err := item.Value(func(val []byte) error {
			last = binary.BigEndian.Uint64(val)
			return nil
		}); err != nil {
			return 0, err
		}
	case !errors.Is(err, badger.ErrKeyNotFound):
		return 0, fmt.Errorf("could not load last seal id: %w", err)
	}

	r.ID = graph.SealID(last + 1)
	if err := tx.txn.Set([]byte{codeLastID}, binary.BigEndian.AppendUint64(nil, uint64(r.ID))); err != nil {
		return 0, fmt.Errorf("could not store last seal id: %w", err)
	}
	if err := tx.put(sealKey(r.ID), newRecordDocument(r)); err != nil {
		return 0, err
	}
	return r.ID, nil
}

func (tx *badgerTx) UpdateSeal(r *graph.Record) error {
	if !tx.writable {
		return ErrReadOnly
	}
	if _, err := tx.FindSeal(r.ID); err != nil {
		return err
	}
	return tx.put(sealKey(r.ID), newRecordDocument(r))
}

func (tx *badgerTx) FindSeal(id graph.SealID) (*graph.Record, error) {
	var doc recordDocument
	if err := tx.retrieve(sealKey(id), &doc); err != nil {
		return nil, fmt.Errorf("seal %s: %w", id, err)
	}
	return doc.record()
}

func (tx *badgerTx) ReserveBlinding(scope string, blinding uint64) error {
	if !tx.writable {
		return ErrReadOnly
	}
	key := blindingKeyBytes(scope, blinding)
	_, err := tx.txn.Get(key)
	if err == nil {
		return graph.ErrAlreadyExists
	}
	if !errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("could not check blinding: %w", err)
	}
	return tx.txn.Set(key, []byte{1})
}

func (tx *badgerTx) FindWitness(txid chainhash.Hash) (*graph.Witness, error) {
	var doc witnessDocument
	if err := tx.retrieve(witnessKey(txid), &doc); err != nil {
		return nil, fmt.Errorf("witness %s: %w", txid.String(), err)
	}
	return doc.witness()
}

func (tx *badgerTx) PutWitness(w *graph.Witness) error {
	if !tx.writable {
		return ErrReadOnly
	}
	return tx.put(witnessKey(w.Txid), newWitnessDocument(w))
}

func (tx *badgerTx) put(key []byte, entity any) error {
	val, err := codec.Marshal(entity)
	if err != nil {
		return fmt.Errorf("could not encode entity: %w", err)
	}
	if err := tx.txn.Set(key, val); err != nil {
		return fmt.Errorf("could not store data: %w", err)
	}
	return nil
}

func (tx *badgerTx) retrieve(key []byte, entity any) error {
	item, err := tx.txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return graph.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("could not load data: %w", err)
	}
	return item.Value(func(val []byte) error {
		return codec.Unmarshal(val, entity)
	})
}

func sealKey(id graph.SealID) []byte {
	return binary.BigEndian.AppendUint64([]byte{codeSeal}, uint64(id))
}

func witnessKey(txid chainhash.Hash) []byte {
	return append([]byte{codeWitness}, txid[:]...)
}

func blindingKeyBytes(scope string, blinding uint64) []byte {
	key := append([]byte{codeBlinding}, scope...)
	key = append(key, 0x00)
	return binary.BigEndian.AppendUint64(key, blinding)
}
