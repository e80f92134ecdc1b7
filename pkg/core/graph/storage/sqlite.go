package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/4chain-ag/go-seal-services/pkg/core/graph"
	"github.com/4chain-ag/go-seal-services/pkg/core/seal"
	"github.com/bsv-blockchain/go-sdk/chainhash"
	_ "github.com/mattn/go-sqlite3"
)

// SQLite stores the graph in a SQLite database in WAL mode. Writes go through
// a single connection; reads use a separate pool.
type SQLite struct {
	wDB *sql.DB
	rDB *sql.DB
}

func NewSQLite(conn string) (*SQLite, error) {
	if wdb, err := openSQLite(conn); err != nil {
		return nil, err
	} else if _, err = wdb.Exec(`CREATE TABLE IF NOT EXISTS seals(
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			scope TEXT NOT NULL,
			kind TEXT NOT NULL,
			seal TEXT NOT NULL,
			commitment TEXT,
			closed BOOL NOT NULL DEFAULT false,
			closed_by TEXT,
			created_by TEXT,
			created_at TEXT NOT NULL
		)`); err != nil {
		return nil, err
	} else if _, err = wdb.Exec(`CREATE INDEX IF NOT EXISTS idx_seals_closed_by ON seals(closed_by)`); err != nil {
		return nil, err
	} else if _, err = wdb.Exec(`CREATE TABLE IF NOT EXISTS witnesses(
			txid TEXT PRIMARY KEY,
			raw_tx BLOB NOT NULL,
			confirmed BOOL NOT NULL DEFAULT false,
			closes TEXT NOT NULL DEFAULT '[]',
			creates TEXT NOT NULL DEFAULT '[]',
			created_at TEXT NOT NULL DEFAULT current_timestamp,
			updated_at TEXT NOT NULL DEFAULT current_timestamp
		)`); err != nil {
		return nil, err
	} else if _, err = wdb.Exec(`CREATE TABLE IF NOT EXISTS blindings(
			scope TEXT NOT NULL,
			blinding TEXT NOT NULL,
			PRIMARY KEY(scope, blinding)
		)`); err != nil {
		return nil, err
	} else if rdb, err := openSQLite(conn); err != nil {
		return nil, err
	} else {
		wdb.SetMaxOpenConns(1)
		return &SQLite{wDB: wdb, rDB: rdb}, nil
	}
}

func openSQLite(conn string) (*sql.DB, error) {
	if db, err := sql.Open("sqlite3", conn); err != nil {
		return nil, err
	} else if _, err = db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return nil, err
	} else if _, err = db.Exec("PRAGMA synchronous=NORMAL;"); err != nil {
		return nil, err
	} else if _, err = db.Exec("PRAGMA busy_timeout=5000;"); err != nil {
		return nil, err
	} else if _, err = db.Exec("PRAGMA temp_store=MEMORY;"); err != nil {
		return nil, err
	} else if _, err = db.Exec("PRAGMA mmap_size=30000000000;"); err != nil {
		return nil, err
	} else {
		return db, nil
	}
}

// View implements graph.Store.
func (s *SQLite) View(ctx context.Context, fn func(tx graph.Tx) error) error {
	return runSQL(ctx, s.rDB, false, fn)
}

// Update implements graph.Store.
func (s *SQLite) Update(ctx context.Context, fn func(tx graph.Tx) error) error {
	return runSQL(ctx, s.wDB, true, fn)
}

// Close implements graph.Store.
func (s *SQLite) Close() error {
	return errors.Join(s.wDB.Close(), s.rDB.Close())
}

func runSQL(ctx context.Context, db *sql.DB, writable bool, fn func(tx graph.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(&sqliteTx{ctx: ctx, tx: tx, writable: writable}); err != nil {
		return errors.Join(err, tx.Rollback())
	}
	if !writable {
		return tx.Rollback()
	}
	return tx.Commit()
}

type sqliteTx struct {
	ctx      context.Context
	tx       *sql.Tx
	writable bool
}

func (t *sqliteTx) InsertSeal(r *graph.Record) (graph.SealID, error) {
	if !t.writable {
		return 0, ErrReadOnly
	}
	res, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO seals(scope, kind, seal, commitment, closed, closed_by, created_by, created_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Scope,
		r.Seal.Kind().String(),
		r.Seal.String(),
		nullCommitment(r.Commitment),
		r.Closed,
		nullHash(r.ClosedBy),
		nullHash(r.CreatedBy),
		r.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	r.ID = graph.SealID(id)
	return r.ID, nil
}

func (t *sqliteTx) UpdateSeal(r *graph.Record) error {
	if !t.writable {
		return ErrReadOnly
	}
	res, err := t.tx.ExecContext(t.ctx, `
		UPDATE seals
		SET kind = ?, seal = ?, closed = ?, closed_by = ?, created_by = ?
		WHERE id = ?`,
		r.Seal.Kind().String(),
		r.Seal.String(),
		r.Closed,
		nullHash(r.ClosedBy),
		nullHash(r.CreatedBy),
		int64(r.ID),
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return fmt.Errorf("%w: seal %s", graph.ErrNotFound, r.ID)
	}
	return nil
}

func (t *sqliteTx) FindSeal(id graph.SealID) (*graph.Record, error) {
	var (
		r          = &graph.Record{ID: id}
		kind       string
		text       string
		commitment sql.NullString
		closedBy   sql.NullString
		createdBy  sql.NullString
		createdAt  string
	)
	if err := t.tx.QueryRowContext(t.ctx, `
		SELECT scope, kind, seal, commitment, closed, closed_by, created_by, created_at
		FROM seals
		WHERE id = ?`, int64(id)).Scan(
		&r.Scope,
		&kind,
		&text,
		&commitment,
		&r.Closed,
		&closedBy,
		&createdBy,
		&createdAt,
	); err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: seal %s", graph.ErrNotFound, id)
	} else if err != nil {
		return nil, err
	}

	var err error
	if r.Seal, err = parseStoredSeal(kind, text); err != nil {
		return nil, fmt.Errorf("seal %s: %w", id, err)
	} else if r.ClosedBy, err = parseNullHash(closedBy); err != nil {
		return nil, err
	} else if r.CreatedBy, err = parseNullHash(createdBy); err != nil {
		return nil, err
	} else if r.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, err
	}
	if commitment.Valid {
		c, err := seal.ParseCommitment(commitment.String)
		if err != nil {
			return nil, err
		}
		r.Commitment = &c
	}
	return r, nil
}

func (t *sqliteTx) ReserveBlinding(scope string, blinding uint64) error {
	if !t.writable {
		return ErrReadOnly
	}
	res, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO blindings(scope, blinding)
		VALUES(?, ?)
		ON CONFLICT(scope, blinding) DO NOTHING`,
		scope,
		strconv.FormatUint(blinding, 10),
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return graph.ErrAlreadyExists
	}
	return nil
}

func (t *sqliteTx) FindWitness(txid chainhash.Hash) (*graph.Witness, error) {
	w := &graph.Witness{Txid: txid}
	var closes, creates []byte
	if err := t.tx.QueryRowContext(t.ctx, `
		SELECT raw_tx, confirmed, closes, creates
		FROM witnesses
		WHERE txid = ?`, txid.String()).Scan(
		&w.RawTx,
		&w.Confirmed,
		&closes,
		&creates,
	); err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: witness %s", graph.ErrNotFound, txid.String())
	} else if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(closes, &w.Closes); err != nil {
		return nil, err
	} else if err := json.Unmarshal(creates, &w.Creates); err != nil {
		return nil, err
	}
	return w, nil
}

func (t *sqliteTx) PutWitness(w *graph.Witness) error {
	if !t.writable {
		return ErrReadOnly
	}
	closes, err := marshalIDs(w.Closes)
	if err != nil {
		return err
	}
	creates, err := marshalIDs(w.Creates)
	if err != nil {
		return err
	}
	_, err = t.tx.ExecContext(t.ctx, `
		INSERT INTO witnesses(txid, raw_tx, confirmed, closes, creates)
		VALUES(?, ?, ?, ?, ?)
		ON CONFLICT(txid) DO UPDATE SET
			confirmed = excluded.confirmed,
			closes = excluded.closes,
			creates = excluded.creates,
			updated_at = current_timestamp`,
		w.Txid.String(),
		w.RawTx,
		w.Confirmed,
		closes,
		creates,
	)
	return err
}

func marshalIDs(ids []graph.SealID) ([]byte, error) {
	if len(ids) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(ids)
}

func parseStoredSeal(kind, text string) (seal.Seal, error) {
	k, err := seal.ParseKind(kind)
	if err != nil {
		return nil, err
	}
	return seal.Parse(k, text)
}

func nullHash(h *chainhash.Hash) sql.NullString {
	if h == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: h.String(), Valid: true}
}

func parseNullHash(s sql.NullString) (*chainhash.Hash, error) {
	if !s.Valid {
		return nil, nil
	}
	return chainhash.NewHashFromHex(s.String)
}

func nullCommitment(c *seal.Commitment) sql.NullString {
	if c == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: c.String(), Valid: true}
}
