package consignment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/4chain-ag/go-seal-services/pkg/core/graph"
	"github.com/4chain-ag/go-seal-services/pkg/core/graph/closing"
	"github.com/4chain-ag/go-seal-services/pkg/core/graph/storage"
	"github.com/4chain-ag/go-seal-services/pkg/core/seal"
	"github.com/bsv-blockchain/go-sdk/transaction"
)

// Report is the outcome of an import.
type Report struct {
	ID       ID
	Transfer bool
	// Graph is the partial seal graph rebuilt from the consignment.
	Graph *graph.Graph
	// SealIDs maps consignment seal positions to ids in Graph.
	SealIDs []graph.SealID
	// Terminals are the ids in Graph of the terminal seals.
	Terminals []graph.SealID
	Accepted  []RevealedAssignment
	Pending   []PendingAssignment
}

// Importer verifies consignments against the recipient's own ledger and
// reveal book. Nothing the sender claims is taken on trust: every witness is
// resolved and every closure is validated again.
type Importer struct {
	ledger closing.WitnessLedger
	book   RevealBook
	core   CoreValidator
	cfg    closing.Config
}

// NewImporter returns an Importer. Panics if ledger or core is nil; a nil book
// reveals nothing.
func NewImporter(ledger closing.WitnessLedger, book RevealBook, core CoreValidator, cfg closing.Config) *Importer {
	if ledger == nil {
		panic("witness ledger cannot be nil")
	}
	if core == nil {
		panic("core validator cannot be nil")
	}
	if book == nil {
		book = NewRevealBook()
	}
	return &Importer{ledger: ledger, book: book, core: core, cfg: cfg}
}

// Import rebuilds the seal graph carried by c, validates every witness and
// hands the assignments whose seals it could verify to the core validator.
func (i *Importer) Import(ctx context.Context, c *Consignment) (*Report, error) {
	start := time.Now()
	report, err := i.doImport(ctx, c)
	if err != nil {
		slog.Error("failed to import consignment", "id", c.ID.String(), "error", err)
		return nil, err
	}
	slog.Debug("consignment imported", "id", c.ID.String(), "type", c.Type(), "accepted", len(report.Accepted), "pending", len(report.Pending), "duration", time.Since(start))
	return report, nil
}

func (i *Importer) doImport(ctx context.Context, c *Consignment) (*Report, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	witnesses := make([]*closing.Witness, len(c.Witnesses))
	for w, entry := range c.Witnesses {
		resolved, err := i.resolveWitness(ctx, entry.RawTx)
		if err != nil {
			return nil, fmt.Errorf("witness %d: %w", w, err)
		}
		witnesses[w] = resolved
	}

	g := graph.New(storage.NewMemory(), closing.NewValidator(i.ledger, i.cfg))
	scope := c.ID.String()
	ids := make([]graph.SealID, len(c.Seals))
	for idx, entry := range c.Seals {
		s, err := entry.Seal.Open()
		if err != nil {
			return nil, fmt.Errorf("seal %d: %w", idx, err)
		}
		if ids[idx], err = g.RegisterSeal(ctx, scope, s); err != nil {
			return nil, fmt.Errorf("seal %d: %w", idx, err)
		}
		if !s.IsConcealed() {
			continue
		}
		secret, err := seal.Conceal(s)
		if err != nil {
			return nil, fmt.Errorf("seal %d: %w", idx, err)
		}
		if material, ok := i.book.Lookup(secret); ok {
			if _, err := g.Reveal(ctx, ids[idx], material); err != nil {
				return nil, fmt.Errorf("seal %d: %w", idx, err)
			}
		}
	}

	for w, entry := range c.Witnesses {
		claims := make([]graph.Claim, 0, len(entry.Closes))
		for _, idx := range entry.Closes {
			claims = append(claims, graph.Claim{ID: ids[idx]})
		}
		endpoints := make([]graph.SealID, 0, len(entry.Creates))
		for _, idx := range entry.Creates {
			record, err := g.Seal(ctx, ids[idx])
			if err != nil {
				return nil, err
			}
			if record.Seal.IsConcealed() {
				continue
			}
			endpoints = append(endpoints, ids[idx])
		}
		if _, err := g.Close(ctx, witnesses[w], claims, endpoints); err != nil {
			return nil, fmt.Errorf("witness %d: %w", w, err)
		}
	}

	report := &Report{ID: c.ID, Transfer: c.Transfer, Graph: g, SealIDs: ids}
	for _, idx := range c.Terminals {
		report.Terminals = append(report.Terminals, ids[idx])
	}
	for a, entry := range c.Assignments {
		id := ids[entry.Seal]
		record, err := g.Seal(ctx, id)
		if err != nil {
			return nil, err
		}
		pending := PendingAssignment{Index: a, SealID: id, Seal: record.Seal, State: entry.State}
		if record.Seal.IsConcealed() {
			pending.Reason = fmt.Errorf("%w: no reveal material for seal %d", seal.ErrSealNotRevealed, entry.Seal)
			report.Pending = append(report.Pending, pending)
			continue
		}
		op, err := seal.OutpointOf(record.Seal)
		if err != nil {
			pending.Reason = err
			report.Pending = append(report.Pending, pending)
			continue
		}
		if _, err := i.ledger.Resolve(ctx, op.Txid); err != nil {
			return nil, fmt.Errorf("assignment %d anchor %s: %w", a, op.Txid.String(), err)
		}
		report.Accepted = append(report.Accepted, RevealedAssignment{
			Index:    a,
			SealID:   id,
			Seal:     record.Seal,
			Outpoint: op,
			State:    entry.State,
			Closed:   record.Closed,
		})
	}

	if len(report.Accepted) > 0 {
		if err := i.core.ValidateAssignments(ctx, report.Accepted); err != nil {
			return nil, fmt.Errorf("core validation: %w", err)
		}
	}
	return report, nil
}

// resolveWitness parses raw and looks the transaction up in the recipient's
// ledger. The ledger's view of the transaction is what gets validated.
func (i *Importer) resolveWitness(ctx context.Context, raw []byte) (*closing.Witness, error) {
	tx, err := transaction.NewTransactionFromBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedConsignment, err)
	}
	txid := tx.TxID()
	resolved, err := i.ledger.Resolve(ctx, *txid)
	if err != nil {
		return nil, err
	}
	if !resolved.Txid.IsEqual(txid) {
		return nil, fmt.Errorf("%w: ledger returned %s for %s", ErrWitnessMismatch, resolved.Txid.String(), txid.String())
	}
	return resolved, nil
}
