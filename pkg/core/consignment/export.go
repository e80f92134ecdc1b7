package consignment

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/4chain-ag/go-seal-services/pkg/core/graph"
	"github.com/4chain-ag/go-seal-services/pkg/core/seal"
	"github.com/bsv-blockchain/go-sdk/chainhash"
)

// Assignment is state the sender transfers, bound to a seal of its graph.
type Assignment struct {
	SealID     graph.SealID
	State      []byte
	Disclosure Disclosure
}

// ExportOption customizes Export.
type ExportOption func(*exporter)

// AsContract exports a contract consignment: the history and state of the
// seals for the record, instead of a transfer to the recipient.
func AsContract() ExportOption {
	return func(e *exporter) {
		e.contract = true
	}
}

// Export builds a consignment carrying the given assignments together with
// the full closing history of their seals. History seals are always
// disclosed blind so that the recipient can check every spend; assignment
// seals follow their disclosure, and endpoints not anchored yet travel as
// terminal seals.
func Export(ctx context.Context, g *graph.Graph, assignments []Assignment, opts ...ExportOption) (*Consignment, error) {
	start := time.Now()
	e := exporter{
		ctx:     ctx,
		g:       g,
		records: make(map[graph.SealID]*graph.Record),
		history: make(map[graph.SealID]struct{}),
	}
	for _, opt := range opts {
		opt(&e)
	}
	c, err := e.export(assignments)
	if err != nil {
		slog.Error("failed to export consignment", "assignments", len(assignments), "error", err)
		return nil, err
	}
	slog.Debug("consignment exported", "id", c.ID.String(), "type", c.Type(), "seals", len(c.Seals), "witnesses", len(c.Witnesses), "duration", time.Since(start))
	return c, nil
}

type exporter struct {
	ctx      context.Context
	g        *graph.Graph
	records  map[graph.SealID]*graph.Record
	history  map[graph.SealID]struct{}
	contract bool
}

func (e *exporter) export(assignments []Assignment) (*Consignment, error) {
	for _, a := range assignments {
		if !a.Disclosure.Valid() {
			return nil, fmt.Errorf("%w: seal %s has unknown disclosure %d", ErrMalformedConsignment, a.SealID, a.Disclosure)
		}
		if err := e.load(a.SealID); err != nil {
			return nil, err
		}
		for id, err := range e.g.Ancestors(e.ctx, a.SealID) {
			if err != nil {
				return nil, fmt.Errorf("ancestors of seal %s: %w", a.SealID, err)
			}
			e.history[id] = struct{}{}
			if err := e.load(id); err != nil {
				return nil, err
			}
		}
	}

	order, err := e.witnessOrder()
	if err != nil {
		return nil, err
	}
	witnessIndex := make(map[chainhash.Hash]uint32, len(order))
	for i, w := range order {
		witnessIndex[w.Txid] = uint32(i)
	}

	sealIDs := e.sealOrder(order)
	sealIndex := make(map[graph.SealID]uint32, len(sealIDs))
	for i, id := range sealIDs {
		sealIndex[id] = uint32(i)
	}

	disclosure := make(map[graph.SealID]Disclosure, len(assignments))
	for _, a := range assignments {
		if _, ok := e.history[a.SealID]; ok {
			continue
		}
		if prev, ok := disclosure[a.SealID]; !ok || a.Disclosure < prev {
			disclosure[a.SealID] = a.Disclosure
		}
	}

	c := &Consignment{Version: Version, Transfer: !e.contract}
	for _, id := range sealIDs {
		record := e.records[id]
		policy, ok := disclosure[id]
		if !ok {
			policy = DisclosureBlind
		}
		disclosed, err := disclose(record, policy)
		if err != nil {
			return nil, fmt.Errorf("seal %s: %w", id, err)
		}
		entry := SealEntry{Seal: seal.Wrap(disclosed)}
		if record.CreatedBy != nil {
			idx := witnessIndex[*record.CreatedBy]
			entry.CreatedBy = &idx
		}
		c.Seals = append(c.Seals, entry)
	}

	for _, w := range order {
		entry := WitnessEntry{RawTx: w.RawTx}
		for _, id := range w.Closes {
			idx, ok := sealIndex[id]
			if !ok {
				return nil, fmt.Errorf("%w: witness %s closes seal %s outside the history", ErrWitnessMismatch, w.Txid.String(), id)
			}
			entry.Closes = append(entry.Closes, idx)
		}
		for _, id := range w.Creates {
			if idx, ok := sealIndex[id]; ok {
				entry.Creates = append(entry.Creates, idx)
			}
		}
		c.Witnesses = append(c.Witnesses, entry)
	}

	for _, a := range assignments {
		c.Assignments = append(c.Assignments, AssignmentEntry{
			Seal:       sealIndex[a.SealID],
			State:      a.State,
			Disclosure: a.Disclosure,
		})
	}
	c.Terminals = terminalsOf(c.Assignments)
	if c.Transfer && len(c.Terminals) == 0 {
		return nil, fmt.Errorf("%w: transfer consignment has no terminal seal", ErrMalformedConsignment)
	}

	if c.ID, err = c.ComputeID(); err != nil {
		return nil, err
	}
	return c, nil
}

func (e *exporter) load(id graph.SealID) error {
	if _, ok := e.records[id]; ok {
		return nil
	}
	record, err := e.g.Seal(e.ctx, id)
	if err != nil {
		return err
	}
	e.records[id] = record
	return nil
}

// witnessOrder returns every witness that created an exported seal, each
// listed after the witnesses that created the seals it closes.
func (e *exporter) witnessOrder() ([]*graph.Witness, error) {
	var (
		order   []*graph.Witness
		visited = make(map[chainhash.Hash]bool)
		visit   func(txid chainhash.Hash) error
	)
	visit = func(txid chainhash.Hash) error {
		if visited[txid] {
			return nil
		}
		visited[txid] = true
		w, err := e.g.Witness(e.ctx, txid)
		if err != nil {
			return err
		}
		for _, id := range w.Closes {
			if err := e.load(id); err != nil {
				return err
			}
			if parent := e.records[id].CreatedBy; parent != nil {
				if err := visit(*parent); err != nil {
					return err
				}
			}
		}
		order = append(order, w)
		return nil
	}

	for _, id := range sortedIDs(e.records) {
		if parent := e.records[id].CreatedBy; parent != nil {
			if err := visit(*parent); err != nil {
				return nil, err
			}
		}
	}
	return order, nil
}

// sealOrder lists root seals first, then the seals of each witness in
// witness order.
func (e *exporter) sealOrder(order []*graph.Witness) []graph.SealID {
	byWitness := make(map[chainhash.Hash][]graph.SealID)
	var ids []graph.SealID
	for _, id := range sortedIDs(e.records) {
		if parent := e.records[id].CreatedBy; parent != nil {
			byWitness[*parent] = append(byWitness[*parent], id)
			continue
		}
		ids = append(ids, id)
	}
	for _, w := range order {
		ids = append(ids, byWitness[w.Txid]...)
	}
	return ids
}

func sortedIDs(records map[graph.SealID]*graph.Record) []graph.SealID {
	ids := make([]graph.SealID, 0, len(records))
	for id := range records {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// disclose returns the form of the record's seal the recipient receives.
func disclose(record *graph.Record, policy Disclosure) (seal.Seal, error) {
	if policy == DisclosureConcealed {
		secret, err := record.Secret()
		if err != nil {
			return nil, err
		}
		return seal.TerminalFromSecret(secret), nil
	}
	if record.Seal.IsConcealed() {
		return nil, fmt.Errorf("%w: cannot disclose concealed seal as %s", seal.ErrSealNotRevealed, policy)
	}

	if _, err := seal.OutpointOf(record.Seal); err != nil && record.CreatedBy == nil {
		switch s := record.Seal.(type) {
		case seal.VoutSeal:
			return seal.TerminalFromVout(s), nil
		case seal.BlindSeal:
			return seal.TerminalFromVout(seal.NewVoutSeal(s.Method, s.Vout, s.Blinding)), nil
		default:
			return record.Seal, nil
		}
	}

	if blind, ok := record.Seal.(seal.BlindSeal); ok && policy == DisclosureExplicit {
		return blind.Explicit(), nil
	}
	return record.Seal, nil
}
