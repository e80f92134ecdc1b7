// Package graph maintains the seal graph: which seals exist, which are
// closed, and which witness transaction closed them and created their
// successors.
package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/4chain-ag/go-seal-services/pkg/core/graph/closing"
	"github.com/4chain-ag/go-seal-services/pkg/core/seal"
	"github.com/bsv-blockchain/go-sdk/chainhash"
	"github.com/bsv-blockchain/go-sdk/transaction"
)

// ErrEmptyBatch is returned by Close when there is nothing to close or create.
var ErrEmptyBatch = errors.New("empty-batch")

// Claim names a seal a witness closes. Reveal opens the seal if the graph
// only holds its concealed form.
type Claim struct {
	ID     SealID
	Reveal *seal.BlindSeal
}

// Graph is the handle to a seal graph. It is safe for concurrent use; all
// mutation goes through the Store's Update.
type Graph struct {
	store     Store
	validator *closing.Validator
	now       func() time.Time
}

// New returns a Graph over store. Panics if store or validator is nil.
func New(store Store, validator *closing.Validator) *Graph {
	if store == nil {
		panic("seal graph store cannot be nil")
	}
	if validator == nil {
		panic("closing validator cannot be nil")
	}
	return &Graph{store: store, validator: validator, now: time.Now}
}

// Validator returns the closing validator the graph delegates to.
func (g *Graph) Validator() *closing.Validator {
	return g.validator
}

// RegisterSeal adds s to the graph under the given issuance scope. Seals that
// carry a blinding factor reserve it within the scope.
func (g *Graph) RegisterSeal(ctx context.Context, scope string, s seal.Seal) (SealID, error) {
	if s == nil {
		return 0, fmt.Errorf("%w: nil seal", seal.ErrMalformedSeal)
	}
	if _, err := seal.Parse(s.Kind(), s.String()); err != nil {
		return 0, err
	}

	record := &Record{Scope: scope, Seal: s, CreatedAt: g.now().UTC()}
	if secret, err := seal.Conceal(s); err == nil {
		commitment := secret.Commitment()
		record.Commitment = &commitment
	}

	var id SealID
	err := g.store.Update(ctx, func(tx Tx) error {
		if blinding, ok := blindingOf(s); ok {
			if err := reserveBlinding(tx, scope, blinding); err != nil {
				return err
			}
		}
		var err error
		id, err = tx.InsertSeal(record)
		return err
	})
	if err != nil {
		slog.Error("failed to register seal", "scope", scope, "kind", s.Kind().String(), "error", err)
		return 0, err
	}
	slog.Debug("seal registered", "seal_id", id, "scope", scope, "kind", s.Kind().String())
	return id, nil
}

// Seal returns the record of id.
func (g *Graph) Seal(ctx context.Context, id SealID) (*Record, error) {
	var record *Record
	err := g.store.View(ctx, func(tx Tx) error {
		var err error
		record, err = tx.FindSeal(id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// IsClosed reports whether the seal has been closed.
func (g *Graph) IsClosed(ctx context.Context, id SealID) (bool, error) {
	record, err := g.Seal(ctx, id)
	if err != nil {
		return false, err
	}
	return record.Closed, nil
}

// Witness returns the closing transaction with the given txid.
func (g *Graph) Witness(ctx context.Context, txid chainhash.Hash) (*Witness, error) {
	var witness *Witness
	err := g.store.View(ctx, func(tx Tx) error {
		var err error
		witness, err = tx.FindWitness(txid)
		return err
	})
	if err != nil {
		return nil, err
	}
	return witness, nil
}

// Close records that witness closes every claimed seal and anchors every
// endpoint seal to one of its outputs. The whole batch commits or nothing
// does; of two overlapping batches racing, one fails with
// seal.ErrSealAlreadyClosed.
//
// Anchors are resolved against the witness ledger before the graph is
// locked; the closing check itself runs inside the update.
func (g *Graph) Close(ctx context.Context, witness *closing.Witness, claims []Claim, endpoints []SealID) (*Witness, error) {
	if witness == nil || witness.Tx == nil {
		return nil, closing.ErrMissingWitness
	}
	if len(claims) == 0 && len(endpoints) == 0 {
		return nil, ErrEmptyBatch
	}
	start := time.Now()
	txid := witness.Txid

	var candidates []closing.Candidate
	err := g.store.View(ctx, func(tx Tx) error {
		var err error
		_, candidates, err = loadClaims(tx, claims)
		return err
	})
	if err == nil {
		err = g.validator.ResolveAnchors(ctx, candidates)
	}
	if err != nil {
		slog.Error("failed to resolve closing anchors", "txid", txid.String(), "error", err)
		return nil, err
	}

	var result *Witness
	err = g.store.Update(ctx, func(tx Tx) error {
		records, candidates, err := loadClaims(tx, claims)
		if err != nil {
			return err
		}
		closures, err := g.validator.Check(witness, candidates)
		if err != nil {
			return err
		}
		if err := checkAcyclic(tx, txid, records, closures, endpoints); err != nil {
			return err
		}

		for i, closure := range closures {
			record := records[i]
			if record.Seal.IsConcealed() {
				if err := revealRecord(tx, record, closure.Revealed); err != nil {
					return err
				}
			}
			record.Closed = true
			record.ClosedBy = &txid
			if err := tx.UpdateSeal(record); err != nil {
				return err
			}
		}

		created, err := anchorEndpoints(tx, witness, endpoints)
		if err != nil {
			return err
		}

		result, err = tx.FindWitness(txid)
		if errors.Is(err, ErrNotFound) {
			result, err = &Witness{Txid: txid, RawTx: witness.Tx.Bytes()}, nil
		}
		if err != nil {
			return err
		}
		result.Confirmed = result.Confirmed || witness.Confirmed
		for _, record := range records {
			result.Closes = append(result.Closes, record.ID)
		}
		result.Creates = append(result.Creates, created...)
		return tx.PutWitness(result)
	})
	if err != nil {
		slog.Error("failed to close seals", "txid", txid.String(), "claims", len(claims), "endpoints", len(endpoints), "error", err)
		return nil, err
	}

	slog.Debug("seals closed", "txid", txid.String(), "closed", len(claims), "created", len(endpoints), "duration", time.Since(start))
	return result, nil
}

// Anchor binds an endpoint seal to txid. When the graph already holds the
// witness with that txid, the seal becomes one of the seals it creates.
func (g *Graph) Anchor(ctx context.Context, id SealID, txid chainhash.Hash) (seal.Seal, error) {
	var anchored seal.Seal
	err := g.store.Update(ctx, func(tx Tx) error {
		record, err := tx.FindSeal(id)
		if err != nil {
			return err
		}
		if record.CreatedBy != nil && !record.CreatedBy.IsEqual(&txid) {
			return fmt.Errorf("%w: seal %s was created by %s", seal.ErrAlreadyAnchored, id, record.CreatedBy.String())
		}
		anchored, err = anchorSeal(record.Seal, txid)
		if err != nil {
			return err
		}
		record.Seal = anchored

		witness, err := tx.FindWitness(txid)
		if errors.Is(err, ErrNotFound) {
			return tx.UpdateSeal(record)
		}
		if err != nil {
			return err
		}
		if err := linkCreated(witness, record); err != nil {
			return err
		}
		if err := tx.UpdateSeal(record); err != nil {
			return err
		}
		return tx.PutWitness(witness)
	})
	if err != nil {
		slog.Error("failed to anchor seal", "seal_id", id, "txid", txid.String(), "error", err)
		return nil, err
	}
	return anchored, nil
}

// Conceal returns the concealed form of the seal as committed at
// registration. The stored representation is not changed.
func (g *Graph) Conceal(ctx context.Context, id SealID) (seal.SecretSeal, error) {
	record, err := g.Seal(ctx, id)
	if err != nil {
		return seal.SecretSeal{}, err
	}
	return record.Secret()
}

// Reveal checks material against the commitment of the seal and, if the graph
// held only the concealed form, replaces it with the revealed one.
func (g *Graph) Reveal(ctx context.Context, id SealID, material seal.BlindSeal) (seal.Seal, error) {
	var revealed seal.Seal
	err := g.store.Update(ctx, func(tx Tx) error {
		record, err := tx.FindSeal(id)
		if err != nil {
			return err
		}
		secret, err := record.Secret()
		if err != nil {
			return err
		}
		opened, err := secret.Reveal(material)
		if err != nil {
			return err
		}
		if !record.Seal.IsConcealed() {
			revealed = record.Seal
			return nil
		}
		if err := revealRecord(tx, record, opened); err != nil {
			return err
		}
		revealed = opened
		return tx.UpdateSeal(record)
	})
	if err != nil {
		slog.Error("failed to reveal seal", "seal_id", id, "error", err)
		return nil, err
	}
	return revealed, nil
}

func loadClaims(tx Tx, claims []Claim) ([]*Record, []closing.Candidate, error) {
	records := make([]*Record, 0, len(claims))
	candidates := make([]closing.Candidate, 0, len(claims))
	for _, claim := range claims {
		record, err := tx.FindSeal(claim.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("seal %s: %w", claim.ID, err)
		}
		records = append(records, record)
		candidates = append(candidates, closing.Candidate{
			Label:     "seal " + claim.ID.String(),
			Seal:      record.Seal,
			Reveal:    claim.Reveal,
			CarriedBy: record.CreatedBy,
			Closed:    record.Closed,
		})
	}
	return records, candidates, nil
}

// checkAcyclic rejects a witness that spends its own output, closes a seal it
// also creates, or already created one of the ancestors of a claimed seal.
func checkAcyclic(tx Tx, txid chainhash.Hash, records []*Record, closures []closing.Closure, endpoints []SealID) error {
	for _, closure := range closures {
		if closure.Outpoint.Txid.IsEqual(&txid) {
			return fmt.Errorf("%w: %s spends its own output %s", ErrGraphCycle, txid.String(), closure.Outpoint)
		}
	}

	claimed := make(map[SealID]struct{}, len(records))
	for _, record := range records {
		claimed[record.ID] = struct{}{}
	}
	for _, id := range endpoints {
		if _, ok := claimed[id]; ok {
			return fmt.Errorf("%w: seal %s is both closed and created by %s", ErrGraphCycle, id, txid.String())
		}
	}

	seen := make(map[SealID]struct{}, len(records))
	queue := append([]*Record(nil), records...)
	for len(queue) > 0 {
		record := queue[0]
		queue = queue[1:]
		if _, ok := seen[record.ID]; ok {
			continue
		}
		seen[record.ID] = struct{}{}
		if record.CreatedBy == nil {
			continue
		}
		if record.CreatedBy.IsEqual(&txid) {
			return fmt.Errorf("%w: %s is an ancestor of seal %s", ErrGraphCycle, txid.String(), record.ID)
		}
		parent, err := tx.FindWitness(*record.CreatedBy)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		for _, id := range parent.Closes {
			ancestor, err := tx.FindSeal(id)
			if err != nil {
				return err
			}
			queue = append(queue, ancestor)
		}
	}
	return nil
}

func anchorEndpoints(tx Tx, witness *closing.Witness, endpoints []SealID) ([]SealID, error) {
	created := make([]SealID, 0, len(endpoints))
	for _, id := range endpoints {
		record, err := tx.FindSeal(id)
		if err != nil {
			return nil, fmt.Errorf("endpoint %s: %w", id, err)
		}
		if record.CreatedBy != nil {
			if record.CreatedBy.IsEqual(&witness.Txid) {
				continue
			}
			return nil, fmt.Errorf("%w: endpoint %s was created by %s", seal.ErrAlreadyAnchored, id, record.CreatedBy.String())
		}
		anchored, err := anchorSeal(record.Seal, witness.Txid)
		if err != nil {
			return nil, fmt.Errorf("endpoint %s: %w", id, err)
		}
		op, err := seal.OutpointOf(anchored)
		if err != nil {
			return nil, fmt.Errorf("endpoint %s: %w", id, err)
		}
		if int(op.Vout) >= len(witness.Tx.Outputs) {
			return nil, fmt.Errorf("%w: %s has no output %d for endpoint %s", seal.ErrOutpointMismatch, witness.Txid.String(), op.Vout, id)
		}
		txid := witness.Txid
		record.Seal = anchored
		record.CreatedBy = &txid
		if err := tx.UpdateSeal(record); err != nil {
			return nil, err
		}
		created = append(created, id)
	}
	return created, nil
}

// linkCreated records that witness created the anchored seal of record.
func linkCreated(witness *Witness, record *Record) error {
	if slices.Contains(witness.Closes, record.ID) {
		return fmt.Errorf("%w: seal %s is both closed and created by %s", ErrGraphCycle, record.ID, witness.Txid.String())
	}
	op, err := seal.OutpointOf(record.Seal)
	if err != nil {
		return err
	}
	tx, err := transaction.NewTransactionFromBytes(witness.RawTx)
	if err != nil {
		return fmt.Errorf("witness %s: %w", witness.Txid.String(), err)
	}
	if int(op.Vout) >= len(tx.Outputs) {
		return fmt.Errorf("%w: %s has no output %d for seal %s", seal.ErrOutpointMismatch, witness.Txid.String(), op.Vout, record.ID)
	}
	txid := witness.Txid
	record.CreatedBy = &txid
	if !slices.Contains(witness.Creates, record.ID) {
		witness.Creates = append(witness.Creates, record.ID)
	}
	return nil
}

func anchorSeal(s seal.Seal, txid chainhash.Hash) (seal.Seal, error) {
	switch v := s.(type) {
	case seal.Outpoint:
		if !v.Txid.IsEqual(&txid) {
			return nil, fmt.Errorf("%w: %s is bound to %s", seal.ErrAlreadyAnchored, v, v.Txid.String())
		}
		return v, nil
	case seal.BlindSeal:
		return v.Anchor(txid)
	case seal.ExplicitSeal:
		return v.Anchor(txid)
	case seal.VoutSeal:
		return v.Anchor(txid), nil
	case seal.TerminalSeal:
		if vout, ok := v.Vout(); ok {
			return vout.Anchor(txid), nil
		}
	}
	return nil, fmt.Errorf("%w: cannot anchor %s seal", seal.ErrSealNotRevealed, s.Kind())
}

func revealRecord(tx Tx, record *Record, revealed seal.Seal) error {
	if blinding, ok := blindingOf(revealed); ok {
		if err := reserveBlinding(tx, record.Scope, blinding); err != nil {
			return err
		}
	}
	record.Seal = revealed
	return nil
}

func reserveBlinding(tx Tx, scope string, blinding uint64) error {
	err := tx.ReserveBlinding(scope, blinding)
	if errors.Is(err, ErrAlreadyExists) {
		return fmt.Errorf("%w: blinding %d in scope %q", ErrBlindingReused, blinding, scope)
	}
	return err
}

func blindingOf(s seal.Seal) (uint64, bool) {
	switch v := s.(type) {
	case seal.BlindSeal:
		return v.Blinding, true
	case seal.VoutSeal:
		return v.Blinding, true
	case seal.TerminalSeal:
		if vout, ok := v.Vout(); ok {
			return vout.Blinding, true
		}
	}
	return 0, false
}
