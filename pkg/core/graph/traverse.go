package graph

import (
	"context"
	"iter"
)

// Ancestors yields, breadth first, every seal whose closure led to the
// creation of id, walking back toward genesis. Each step reads the store in
// its own View, so the sequence is lazy and may be abandoned at any point.
// The traversal is finite since the graph is acyclic and every seal is
// yielded once.
func (g *Graph) Ancestors(ctx context.Context, id SealID) iter.Seq2[SealID, error] {
	return func(yield func(SealID, error) bool) {
		seen := map[SealID]struct{}{id: {}}
		queue := []SealID{id}
		for len(queue) > 0 {
			current := queue[0]
			queue = queue[1:]

			parents, err := g.parents(ctx, current)
			if err != nil {
				yield(0, err)
				return
			}
			for _, parent := range parents {
				if _, ok := seen[parent]; ok {
					continue
				}
				seen[parent] = struct{}{}
				if !yield(parent, nil) {
					return
				}
				queue = append(queue, parent)
			}
		}
	}
}

// Successors yields the seals anchored by the witness that closed id. The
// sequence is empty while id is open.
func (g *Graph) Successors(ctx context.Context, id SealID) iter.Seq2[SealID, error] {
	return func(yield func(SealID, error) bool) {
		var children []SealID
		err := g.store.View(ctx, func(tx Tx) error {
			record, err := tx.FindSeal(id)
			if err != nil || record.ClosedBy == nil {
				return err
			}
			witness, err := tx.FindWitness(*record.ClosedBy)
			if err != nil {
				return err
			}
			children = witness.Creates
			return nil
		})
		if err != nil {
			yield(0, err)
			return
		}
		for _, child := range children {
			if !yield(child, nil) {
				return
			}
		}
	}
}

func (g *Graph) parents(ctx context.Context, id SealID) ([]SealID, error) {
	var parents []SealID
	err := g.store.View(ctx, func(tx Tx) error {
		record, err := tx.FindSeal(id)
		if err != nil || record.CreatedBy == nil {
			return err
		}
		witness, err := tx.FindWitness(*record.CreatedBy)
		if err != nil {
			return err
		}
		parents = witness.Closes
		return nil
	})
	return parents, err
}

// Collect drains seq into a slice, stopping at the first error.
func Collect(seq iter.Seq2[SealID, error]) ([]SealID, error) {
	var ids []SealID
	for id, err := range seq {
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
