package graph_test

import (
	"testing"

	"github.com/4chain-ag/go-seal-services/pkg/core/graph"
	"github.com/4chain-ag/go-seal-services/pkg/core/graph/closing"
	"github.com/4chain-ag/go-seal-services/pkg/core/seal"
	"github.com/4chain-ag/go-seal-services/pkg/internal/testabilities"
	"github.com/stretchr/testify/require"
)

func TestGraph_RegisterSeal(t *testing.T) {
	for name, open := range testabilities.StoreFactories() {
		t.Run(name, func(t *testing.T) {
			t.Run("should store seal with its commitment", func(t *testing.T) {
				// given:
				f := newFixture(t, open, closing.Config{})
				blind := testabilities.Outpoint(testabilities.FundingTx(t, 1), 0).Blind(seal.MethodOpret, 12345)

				// when:
				id, err := f.graph.RegisterSeal(f.ctx, "alice", blind)

				// then:
				require.NoError(t, err)
				record, err := f.graph.Seal(f.ctx, id)
				require.NoError(t, err)
				require.Equal(t, id, record.ID)
				require.Equal(t, "alice", record.Scope)
				require.Equal(t, blind, record.Seal)
				require.Equal(t, blind.Conceal().Commitment(), *record.Commitment)
				require.False(t, record.Closed)
				require.False(t, record.CreatedAt.IsZero())
			})

			t.Run("should store outpoint without commitment", func(t *testing.T) {
				// given:
				f := newFixture(t, open, closing.Config{})

				// when:
				id := f.register(testabilities.Outpoint(testabilities.FundingTx(t, 1), 0))

				// then:
				record, err := f.graph.Seal(f.ctx, id)
				require.NoError(t, err)
				require.Nil(t, record.Commitment)
			})

			t.Run("should reject blinding reused in the same scope", func(t *testing.T) {
				// given:
				f := newFixture(t, open, closing.Config{})
				funding := testabilities.FundingTx(t, 2)
				_, err := f.graph.RegisterSeal(f.ctx, "alice", testabilities.Outpoint(funding, 0).Blind(seal.MethodOpret, 7))
				require.NoError(t, err)

				// when:
				_, sameScopeErr := f.graph.RegisterSeal(f.ctx, "alice", seal.NewVoutSeal(seal.MethodTapret, 1, 7))
				_, otherScopeErr := f.graph.RegisterSeal(f.ctx, "bob", testabilities.Outpoint(funding, 1).Blind(seal.MethodOpret, 7))

				// then:
				require.ErrorIs(t, sameScopeErr, graph.ErrBlindingReused)
				require.NoError(t, otherScopeErr)
			})

			t.Run("should reject malformed seal", func(t *testing.T) {
				// given:
				f := newFixture(t, open, closing.Config{})

				// when:
				_, nilErr := f.graph.RegisterSeal(f.ctx, "alice", nil)
				_, methodErr := f.graph.RegisterSeal(f.ctx, "alice", seal.NewVoutSeal(seal.Method(9), 0, 1))

				// then:
				require.ErrorIs(t, nilErr, seal.ErrMalformedSeal)
				require.ErrorIs(t, methodErr, seal.ErrMalformedSeal)
			})

			t.Run("should return not found for unknown seal", func(t *testing.T) {
				// given:
				f := newFixture(t, open, closing.Config{})

				// when:
				_, err := f.graph.IsClosed(f.ctx, 404)

				// then:
				require.ErrorIs(t, err, graph.ErrNotFound)
			})
		})
	}
}

func TestGraph_Anchor(t *testing.T) {
	for name, open := range testabilities.StoreFactories() {
		t.Run(name, func(t *testing.T) {
			// given:
			f := newFixture(t, open, closing.Config{})
			id := f.register(seal.NewVoutSeal(seal.MethodOpret, 1, 999))
			txid := *testabilities.FundingTx(t, 2).TxID()
			other := *testabilities.FundingTx(t, 2).TxID()

			// when:
			anchored, err := f.graph.Anchor(f.ctx, id, txid)
			again, againErr := f.graph.Anchor(f.ctx, id, txid)
			_, conflictErr := f.graph.Anchor(f.ctx, id, other)

			// then:
			require.NoError(t, err)
			require.Equal(t, "opret:"+txid.String()+":1#999", anchored.String())
			require.NoError(t, againErr)
			require.Equal(t, anchored, again)
			require.ErrorIs(t, conflictErr, seal.ErrAlreadyAnchored)

			record, err := f.graph.Seal(f.ctx, id)
			require.NoError(t, err)
			require.Equal(t, anchored, record.Seal)
		})
	}
}

func TestGraph_Anchor_ShouldLinkSeal_WhenWitnessIsKnown(t *testing.T) {
	for name, open := range testabilities.StoreFactories() {
		t.Run(name, func(t *testing.T) {
			// given:
			f := newFixture(t, open, closing.Config{})
			funding := f.fund(1)
			genesis := f.register(testabilities.Outpoint(funding, 0))
			first := f.register(seal.NewVoutSeal(seal.MethodOpret, 0, 10))
			late := f.register(seal.NewVoutSeal(seal.MethodOpret, 1, 11))
			issue := f.witness(2, testabilities.Outpoint(funding, 0))
			_, err := f.graph.Close(f.ctx, issue, claims(genesis), []graph.SealID{first})
			require.NoError(t, err)

			// when:
			_, err = f.graph.Anchor(f.ctx, late, issue.Txid)
			require.NoError(t, err)
			_, err = f.graph.Anchor(f.ctx, late, issue.Txid)

			// then:
			require.NoError(t, err)

			record, err := f.graph.Seal(f.ctx, late)
			require.NoError(t, err)
			require.Equal(t, &issue.Txid, record.CreatedBy)

			witness, err := f.graph.Witness(f.ctx, issue.Txid)
			require.NoError(t, err)
			require.Equal(t, []graph.SealID{first, late}, witness.Creates)

			successors, err := graph.Collect(f.graph.Successors(f.ctx, genesis))
			require.NoError(t, err)
			require.Equal(t, []graph.SealID{first, late}, successors)

			ancestors, err := graph.Collect(f.graph.Ancestors(f.ctx, late))
			require.NoError(t, err)
			require.Equal(t, []graph.SealID{genesis}, ancestors)
		})
	}
}

func TestGraph_Anchor_ShouldFail_WhenKnownWitnessHasNoSuchOutput(t *testing.T) {
	for name, open := range testabilities.StoreFactories() {
		t.Run(name, func(t *testing.T) {
			// given:
			f := newFixture(t, open, closing.Config{})
			funding := f.fund(1)
			genesis := f.register(testabilities.Outpoint(funding, 0))
			endpoint := f.register(seal.NewVoutSeal(seal.MethodOpret, 5, 12))
			issue := f.witness(1, testabilities.Outpoint(funding, 0))
			_, err := f.graph.Close(f.ctx, issue, claims(genesis), nil)
			require.NoError(t, err)

			// when:
			_, err = f.graph.Anchor(f.ctx, endpoint, issue.Txid)

			// then:
			require.ErrorIs(t, err, seal.ErrOutpointMismatch)
			record, err := f.graph.Seal(f.ctx, endpoint)
			require.NoError(t, err)
			require.Nil(t, record.CreatedBy)
			require.Equal(t, seal.NewVoutSeal(seal.MethodOpret, 5, 12), record.Seal)
		})
	}
}

func TestGraph_ConcealAndReveal(t *testing.T) {
	for name, open := range testabilities.StoreFactories() {
		t.Run(name, func(t *testing.T) {
			t.Run("should conceal without changing stored seal", func(t *testing.T) {
				// given:
				f := newFixture(t, open, closing.Config{})
				blind := testabilities.Outpoint(testabilities.FundingTx(t, 1), 0).Blind(seal.MethodTapret, 31)
				id := f.register(blind)

				// when:
				secret, err := f.graph.Conceal(f.ctx, id)

				// then:
				require.NoError(t, err)
				require.Equal(t, blind.Conceal(), secret)
				record, err := f.graph.Seal(f.ctx, id)
				require.NoError(t, err)
				require.Equal(t, blind, record.Seal)
			})

			t.Run("should keep registration commitment after anchoring", func(t *testing.T) {
				// given:
				f := newFixture(t, open, closing.Config{})
				endpoint := seal.NewVoutSeal(seal.MethodOpret, 0, 4242)
				id := f.register(endpoint)
				_, err := f.graph.Anchor(f.ctx, id, *testabilities.FundingTx(t, 1).TxID())
				require.NoError(t, err)

				// when:
				secret, err := f.graph.Conceal(f.ctx, id)

				// then:
				require.NoError(t, err)
				require.Equal(t, endpoint.Conceal(), secret)
			})

			t.Run("should not conceal seal without blinding", func(t *testing.T) {
				// given:
				f := newFixture(t, open, closing.Config{})
				id := f.register(testabilities.Outpoint(testabilities.FundingTx(t, 1), 0))

				// when:
				_, err := f.graph.Conceal(f.ctx, id)

				// then:
				require.ErrorIs(t, err, seal.ErrSealNotRevealed)
			})

			t.Run("should reveal concealed seal with matching material only", func(t *testing.T) {
				// given:
				f := newFixture(t, open, closing.Config{})
				op := testabilities.Outpoint(testabilities.FundingTx(t, 1), 0)
				blind := op.Blind(seal.MethodOpret, 555)
				id := f.register(blind.Conceal())

				// when:
				_, mismatchErr := f.graph.Reveal(f.ctx, id, op.Blind(seal.MethodOpret, 556))
				revealed, err := f.graph.Reveal(f.ctx, id, blind)

				// then:
				require.ErrorIs(t, mismatchErr, seal.ErrRevealMismatch)
				require.NoError(t, err)
				require.Equal(t, blind, revealed)
				record, err := f.graph.Seal(f.ctx, id)
				require.NoError(t, err)
				require.Equal(t, blind, record.Seal)
				require.Equal(t, blind.Conceal().Commitment(), *record.Commitment)
			})

			t.Run("should reject reveal whose blinding is already used in scope", func(t *testing.T) {
				// given:
				f := newFixture(t, open, closing.Config{})
				funding := testabilities.FundingTx(t, 2)
				f.register(testabilities.Outpoint(funding, 0).Blind(seal.MethodOpret, 77))
				hidden := testabilities.Outpoint(funding, 1).Blind(seal.MethodOpret, 77)
				id := f.register(hidden.Conceal())

				// when:
				_, err := f.graph.Reveal(f.ctx, id, hidden)

				// then:
				require.ErrorIs(t, err, graph.ErrBlindingReused)
				record, err := f.graph.Seal(f.ctx, id)
				require.NoError(t, err)
				require.True(t, record.Seal.IsConcealed())
			})
		})
	}
}
