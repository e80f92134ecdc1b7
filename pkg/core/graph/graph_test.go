package graph_test

import (
	"context"
	"sync"
	"testing"

	"github.com/4chain-ag/go-seal-services/pkg/core/graph"
	"github.com/4chain-ag/go-seal-services/pkg/core/graph/closing"
	"github.com/4chain-ag/go-seal-services/pkg/core/seal"
	"github.com/4chain-ag/go-seal-services/pkg/internal/testabilities"
	"github.com/4chain-ag/go-seal-services/pkg/ledger"
	"github.com/bsv-blockchain/go-sdk/transaction"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	t     *testing.T
	ctx   context.Context
	graph *graph.Graph
	chain *ledger.Memory
}

func newFixture(t *testing.T, open testabilities.StoreFactory, cfg closing.Config) *fixture {
	t.Helper()
	chain := ledger.NewMemory()
	return &fixture{
		t:     t,
		ctx:   context.Background(),
		graph: graph.New(open(t), closing.NewValidator(chain, cfg)),
		chain: chain,
	}
}

// fund puts a confirmed funding transaction on the chain.
func (f *fixture) fund(outputs int) *transaction.Transaction {
	tx := testabilities.FundingTx(f.t, outputs)
	f.chain.Add(tx, true)
	return tx
}

// spendsAnything accepts any witness as spending any outpoint, so that
// graph-level checks can be reached with transactions no real chain holds.
type spendsAnything struct {
	*ledger.Memory
}

func (spendsAnything) Spends(*transaction.Transaction, seal.Outpoint) bool {
	return true
}

func newSpendsAnythingFixture(t *testing.T, open testabilities.StoreFactory) *fixture {
	t.Helper()
	chain := ledger.NewMemory()
	return &fixture{
		t:     t,
		ctx:   context.Background(),
		graph: graph.New(open(t), closing.NewValidator(spendsAnything{chain}, closing.Config{})),
		chain: chain,
	}
}

func (f *fixture) register(s seal.Seal) graph.SealID {
	f.t.Helper()
	id, err := f.graph.RegisterSeal(f.ctx, "issuer", s)
	require.NoError(f.t, err)
	return id
}

func (f *fixture) witness(outputs int, spends ...seal.Outpoint) *closing.Witness {
	return f.chain.Add(testabilities.SpendingTx(f.t, outputs, spends...), true)
}

func (f *fixture) requireClosed(id graph.SealID, expected bool) {
	f.t.Helper()
	closed, err := f.graph.IsClosed(f.ctx, id)
	require.NoError(f.t, err)
	require.Equal(f.t, expected, closed)
}

func claims(ids ...graph.SealID) []graph.Claim {
	out := make([]graph.Claim, 0, len(ids))
	for _, id := range ids {
		out = append(out, graph.Claim{ID: id})
	}
	return out
}

func TestGraph_Close(t *testing.T) {
	for name, open := range testabilities.StoreFactories() {
		t.Run(name, func(t *testing.T) {
			t.Run("should close seal at most once", func(t *testing.T) {
				// given:
				f := newFixture(t, open, closing.Config{})
				funding := f.fund(1)
				op := testabilities.Outpoint(funding, 0)
				id := f.register(op.Blind(seal.MethodOpret, 1))
				first := f.witness(1, op)
				second := f.witness(2, op)

				// when:
				recorded, err := f.graph.Close(f.ctx, first, claims(id), nil)
				againErr := closeErr(f.graph.Close(f.ctx, first, claims(id), nil))
				otherErr := closeErr(f.graph.Close(f.ctx, second, claims(id), nil))

				// then:
				require.NoError(t, err)
				require.Equal(t, first.Txid, recorded.Txid)
				require.Equal(t, []graph.SealID{id}, recorded.Closes)
				require.ErrorIs(t, againErr, seal.ErrSealAlreadyClosed)
				require.ErrorIs(t, otherErr, seal.ErrSealAlreadyClosed)

				record, err := f.graph.Seal(f.ctx, id)
				require.NoError(t, err)
				require.True(t, record.Closed)
				require.Equal(t, first.Txid, *record.ClosedBy)
			})

			t.Run("should leave batch untouched when one seal is already closed", func(t *testing.T) {
				// given:
				f := newFixture(t, open, closing.Config{})
				funding := f.fund(2)
				a := f.register(testabilities.Outpoint(funding, 0))
				b := f.register(testabilities.Outpoint(funding, 1))
				_, err := f.graph.Close(f.ctx, f.witness(1, testabilities.Outpoint(funding, 1)), claims(b), nil)
				require.NoError(t, err)
				batch := f.witness(1, testabilities.Outpoint(funding, 0), testabilities.Outpoint(funding, 1))

				// when:
				_, err = f.graph.Close(f.ctx, batch, claims(a, b), nil)

				// then:
				require.ErrorIs(t, err, seal.ErrSealAlreadyClosed)
				f.requireClosed(a, false)
				f.requireClosed(b, true)
				_, err = f.graph.Witness(f.ctx, batch.Txid)
				require.ErrorIs(t, err, graph.ErrNotFound)
			})

			t.Run("should let exactly one of two overlapping closes succeed", func(t *testing.T) {
				// given:
				f := newFixture(t, open, closing.Config{})
				funding := f.fund(3)
				a := f.register(testabilities.Outpoint(funding, 0))
				b := f.register(testabilities.Outpoint(funding, 1))
				c := f.register(testabilities.Outpoint(funding, 2))
				left := f.witness(1, testabilities.Outpoint(funding, 0), testabilities.Outpoint(funding, 1))
				right := f.witness(1, testabilities.Outpoint(funding, 1), testabilities.Outpoint(funding, 2))

				// when:
				var wg sync.WaitGroup
				errs := make([]error, 2)
				wg.Add(2)
				go func() {
					defer wg.Done()
					errs[0] = closeErr(f.graph.Close(f.ctx, left, claims(a, b), nil))
				}()
				go func() {
					defer wg.Done()
					errs[1] = closeErr(f.graph.Close(f.ctx, right, claims(b, c), nil))
				}()
				wg.Wait()

				// then:
				succeeded := 0
				for _, err := range errs {
					if err == nil {
						succeeded++
						continue
					}
					require.ErrorIs(t, err, seal.ErrSealAlreadyClosed)
				}
				require.Equal(t, 1, succeeded)
				f.requireClosed(b, true)
				if errs[0] == nil {
					f.requireClosed(a, true)
					f.requireClosed(c, false)
				} else {
					f.requireClosed(a, false)
					f.requireClosed(c, true)
				}
			})

			t.Run("should anchor endpoints in the same update", func(t *testing.T) {
				// given:
				f := newFixture(t, open, closing.Config{})
				funding := f.fund(1)
				genesis := f.register(testabilities.Outpoint(funding, 0))
				endpoint := f.register(seal.NewVoutSeal(seal.MethodTapret, 1, 5))
				witness := f.witness(2, testabilities.Outpoint(funding, 0))

				// when:
				recorded, err := f.graph.Close(f.ctx, witness, claims(genesis), []graph.SealID{endpoint})

				// then:
				require.NoError(t, err)
				require.Equal(t, []graph.SealID{endpoint}, recorded.Creates)
				record, err := f.graph.Seal(f.ctx, endpoint)
				require.NoError(t, err)
				require.Equal(t, seal.NewBlindSeal(seal.MethodTapret, witness.Txid, 1, 5), record.Seal)
				require.Equal(t, witness.Txid, *record.CreatedBy)
			})

			t.Run("should reject endpoint beyond witness outputs and keep claims open", func(t *testing.T) {
				// given:
				f := newFixture(t, open, closing.Config{})
				funding := f.fund(1)
				genesis := f.register(testabilities.Outpoint(funding, 0))
				endpoint := f.register(seal.NewVoutSeal(seal.MethodOpret, 3, 6))
				witness := f.witness(2, testabilities.Outpoint(funding, 0))

				// when:
				_, err := f.graph.Close(f.ctx, witness, claims(genesis), []graph.SealID{endpoint})

				// then:
				require.ErrorIs(t, err, seal.ErrOutpointMismatch)
				f.requireClosed(genesis, false)
				record, err := f.graph.Seal(f.ctx, endpoint)
				require.NoError(t, err)
				require.Nil(t, record.CreatedBy)
			})

			t.Run("should reject seal both closed and created by one witness", func(t *testing.T) {
				// given:
				f := newFixture(t, open, closing.Config{})
				funding := f.fund(2)
				a := f.register(testabilities.Outpoint(funding, 0))
				b := f.register(testabilities.Outpoint(funding, 1).Blind(seal.MethodOpret, 8))
				witness := f.witness(2, testabilities.Outpoint(funding, 0), testabilities.Outpoint(funding, 1))

				// when:
				_, err := f.graph.Close(f.ctx, witness, claims(a, b), []graph.SealID{b})

				// then:
				require.ErrorIs(t, err, graph.ErrGraphCycle)
				f.requireClosed(a, false)
				f.requireClosed(b, false)
			})

			t.Run("should reject witness spending its own output", func(t *testing.T) {
				// given:
				f := newSpendsAnythingFixture(t, open)
				witness := f.witness(1, testabilities.Outpoint(f.fund(1), 0))
				id := f.register(seal.NewOutpoint(witness.Txid, 0))

				// when:
				_, err := f.graph.Close(f.ctx, witness, claims(id), nil)

				// then:
				require.ErrorIs(t, err, graph.ErrGraphCycle)
				f.requireClosed(id, false)
			})

			t.Run("should reject witness that created an ancestor of the claimed seal", func(t *testing.T) {
				// given:
				f := newSpendsAnythingFixture(t, open)
				funding := f.fund(1)
				genesis := f.register(testabilities.Outpoint(funding, 0))
				first := f.register(seal.NewVoutSeal(seal.MethodOpret, 0, 20))
				second := f.register(seal.NewVoutSeal(seal.MethodOpret, 0, 21))

				issue := f.witness(1, testabilities.Outpoint(funding, 0))
				_, err := f.graph.Close(f.ctx, issue, claims(genesis), []graph.SealID{first})
				require.NoError(t, err)
				transfer := f.witness(1, seal.NewOutpoint(issue.Txid, 0))
				_, err = f.graph.Close(f.ctx, transfer, claims(first), []graph.SealID{second})
				require.NoError(t, err)

				// when:
				_, err = f.graph.Close(f.ctx, issue, claims(second), nil)

				// then:
				require.ErrorIs(t, err, graph.ErrGraphCycle)
				f.requireClosed(second, false)
				witness, err := f.graph.Witness(f.ctx, issue.Txid)
				require.NoError(t, err)
				require.Equal(t, []graph.SealID{genesis}, witness.Closes)
			})

			t.Run("should fail when anchor is unknown to the ledger", func(t *testing.T) {
				// given:
				f := newFixture(t, open, closing.Config{})
				offChain := testabilities.FundingTx(t, 1)
				id := f.register(testabilities.Outpoint(offChain, 0))
				witness := f.witness(1, testabilities.Outpoint(offChain, 0))

				// when:
				_, err := f.graph.Close(f.ctx, witness, claims(id), nil)

				// then:
				require.ErrorIs(t, err, closing.ErrNotFound)
				f.requireClosed(id, false)
			})

			t.Run("should reject unconfirmed witness when confirmation is required", func(t *testing.T) {
				// given:
				f := newFixture(t, open, closing.Config{RequireConfirmation: true})
				funding := f.fund(1)
				id := f.register(testabilities.Outpoint(funding, 0))
				witness := f.chain.Add(testabilities.SpendingTx(t, 1, testabilities.Outpoint(funding, 0)), false)

				// when:
				_, err := f.graph.Close(f.ctx, witness, claims(id), nil)

				// then:
				require.ErrorIs(t, err, closing.ErrWitnessUnconfirmed)
				f.requireClosed(id, false)
			})

			t.Run("should close concealed seal only with reveal material", func(t *testing.T) {
				// given:
				f := newFixture(t, open, closing.Config{})
				funding := f.fund(1)
				blind := testabilities.Outpoint(funding, 0).Blind(seal.MethodOpret, 4242)
				id := f.register(blind.Conceal())
				witness := f.witness(1, testabilities.Outpoint(funding, 0))

				// when:
				_, hiddenErr := f.graph.Close(f.ctx, witness, claims(id), nil)
				_, err := f.graph.Close(f.ctx, witness, []graph.Claim{{ID: id, Reveal: &blind}}, nil)

				// then:
				require.ErrorIs(t, hiddenErr, seal.ErrSealNotRevealed)
				require.NoError(t, err)
				record, err := f.graph.Seal(f.ctx, id)
				require.NoError(t, err)
				require.True(t, record.Closed)
				require.Equal(t, blind, record.Seal)
			})

			t.Run("should reject empty batch and missing witness", func(t *testing.T) {
				// given:
				f := newFixture(t, open, closing.Config{})

				// when:
				_, emptyErr := f.graph.Close(f.ctx, f.witness(1), nil, nil)
				_, missingErr := f.graph.Close(f.ctx, nil, claims(1), nil)

				// then:
				require.ErrorIs(t, emptyErr, graph.ErrEmptyBatch)
				require.ErrorIs(t, missingErr, closing.ErrMissingWitness)
			})
		})
	}
}

func TestGraph_Traversal(t *testing.T) {
	for name, open := range testabilities.StoreFactories() {
		t.Run(name, func(t *testing.T) {
			// given:
			f := newFixture(t, open, closing.Config{})
			funding := f.fund(1)
			genesis := f.register(testabilities.Outpoint(funding, 0))
			first := f.register(seal.NewVoutSeal(seal.MethodOpret, 0, 10))
			second := f.register(seal.NewVoutSeal(seal.MethodOpret, 1, 11))
			third := f.register(seal.NewVoutSeal(seal.MethodOpret, 0, 12))

			issue := f.witness(2, testabilities.Outpoint(funding, 0))
			_, err := f.graph.Close(f.ctx, issue, claims(genesis), []graph.SealID{first, second})
			require.NoError(t, err)

			transfer := f.witness(1, seal.NewOutpoint(issue.Txid, 0))
			_, err = f.graph.Close(f.ctx, transfer, claims(first), []graph.SealID{third})
			require.NoError(t, err)

			tests := map[string]struct {
				seq      func() ([]graph.SealID, error)
				expected []graph.SealID
			}{
				"ancestors of leaf": {
					seq:      func() ([]graph.SealID, error) { return graph.Collect(f.graph.Ancestors(f.ctx, third)) },
					expected: []graph.SealID{first, genesis},
				},
				"ancestors of genesis": {
					seq: func() ([]graph.SealID, error) { return graph.Collect(f.graph.Ancestors(f.ctx, genesis)) },
				},
				"successors of genesis": {
					seq:      func() ([]graph.SealID, error) { return graph.Collect(f.graph.Successors(f.ctx, genesis)) },
					expected: []graph.SealID{first, second},
				},
				"successors of open seal": {
					seq: func() ([]graph.SealID, error) { return graph.Collect(f.graph.Successors(f.ctx, second)) },
				},
			}

			for name, test := range tests {
				t.Run(name, func(t *testing.T) {
					// when:
					ids, err := test.seq()

					// then:
					require.NoError(t, err)
					require.Equal(t, test.expected, ids)
				})
			}
		})
	}
}

func TestGraph_Ancestors_ShouldStop_WhenConsumerBreaks(t *testing.T) {
	// given:
	f := newFixture(t, testabilities.StoreFactories()["memory"], closing.Config{})
	funding := f.fund(2)
	a := f.register(testabilities.Outpoint(funding, 0))
	b := f.register(testabilities.Outpoint(funding, 1))
	child := f.register(seal.NewVoutSeal(seal.MethodOpret, 0, 1))
	witness := f.witness(1, testabilities.Outpoint(funding, 0), testabilities.Outpoint(funding, 1))
	_, err := f.graph.Close(f.ctx, witness, claims(a, b), []graph.SealID{child})
	require.NoError(t, err)

	// when:
	var seen []graph.SealID
	for id, err := range f.graph.Ancestors(f.ctx, child) {
		require.NoError(t, err)
		seen = append(seen, id)
		break
	}

	// then:
	require.Equal(t, []graph.SealID{a}, seen)
}

func TestGraph_Traversal_ShouldFail_ForUnknownSeal(t *testing.T) {
	// given:
	f := newFixture(t, testabilities.StoreFactories()["memory"], closing.Config{})

	// when:
	_, ancestorsErr := graph.Collect(f.graph.Ancestors(f.ctx, 99))
	_, successorsErr := graph.Collect(f.graph.Successors(f.ctx, 99))

	// then:
	require.ErrorIs(t, ancestorsErr, graph.ErrNotFound)
	require.ErrorIs(t, successorsErr, graph.ErrNotFound)
}

func closeErr(_ *graph.Witness, err error) error {
	return err
}
