package closing_test

import (
	"context"
	"testing"

	"github.com/4chain-ag/go-seal-services/pkg/core/graph/closing"
	"github.com/4chain-ag/go-seal-services/pkg/core/seal"
	"github.com/4chain-ag/go-seal-services/pkg/internal/testabilities"
	"github.com/4chain-ag/go-seal-services/pkg/ledger"
	"github.com/stretchr/testify/require"
)

func TestValidator_Check(t *testing.T) {
	funding := testabilities.FundingTx(t, 3)
	fundingTxid := *funding.TxID()
	first := testabilities.Outpoint(funding, 0)
	second := testabilities.Outpoint(funding, 1)
	third := testabilities.Outpoint(funding, 2)

	blind := first.Blind(seal.MethodOpret, 42)
	wrong := second.Blind(seal.MethodOpret, 42)

	tests := map[string]struct {
		witness     *closing.Witness
		candidates  []closing.Candidate
		cfg         closing.Config
		expectedErr error
		expectedOps []seal.Outpoint
	}{
		"single outpoint closed by its spender": {
			witness:     closing.NewWitness(testabilities.SpendingTx(t, 1, first), true),
			candidates:  []closing.Candidate{{Label: "a", Seal: first}},
			expectedOps: []seal.Outpoint{first},
		},
		"batch closed together": {
			witness: closing.NewWitness(testabilities.SpendingTx(t, 1, first, second), true),
			candidates: []closing.Candidate{
				{Label: "a", Seal: first.Blind(seal.MethodTapret, 1)},
				{Label: "b", Seal: second.Explicit(seal.MethodOpret)},
			},
			expectedOps: []seal.Outpoint{first, second},
		},
		"witness that spends a different outpoint": {
			witness:     closing.NewWitness(testabilities.SpendingTx(t, 1, third), true),
			candidates:  []closing.Candidate{{Label: "a", Seal: first}},
			expectedErr: seal.ErrOutpointMismatch,
		},
		"one of the batch not spent": {
			witness: closing.NewWitness(testabilities.SpendingTx(t, 1, first), true),
			candidates: []closing.Candidate{
				{Label: "a", Seal: first},
				{Label: "b", Seal: second},
			},
			expectedErr: seal.ErrOutpointMismatch,
		},
		"seal already closed": {
			witness:     closing.NewWitness(testabilities.SpendingTx(t, 1, first), true),
			candidates:  []closing.Candidate{{Label: "a", Seal: first, Closed: true}},
			expectedErr: seal.ErrSealAlreadyClosed,
		},
		"outpoint claimed twice": {
			witness: closing.NewWitness(testabilities.SpendingTx(t, 1, first), true),
			candidates: []closing.Candidate{
				{Label: "a", Seal: first},
				{Label: "b", Seal: first.Blind(seal.MethodOpret, 9)},
			},
			expectedErr: closing.ErrDuplicateClaim,
		},
		"unconfirmed witness when confirmation required": {
			witness:     closing.NewWitness(testabilities.SpendingTx(t, 1, first), false),
			candidates:  []closing.Candidate{{Label: "a", Seal: first}},
			cfg:         closing.Config{RequireConfirmation: true},
			expectedErr: closing.ErrWitnessUnconfirmed,
		},
		"unconfirmed witness when confirmation not required": {
			witness:     closing.NewWitness(testabilities.SpendingTx(t, 1, first), false),
			candidates:  []closing.Candidate{{Label: "a", Seal: first}},
			expectedOps: []seal.Outpoint{first},
		},
		"concealed seal without reveal": {
			witness:     closing.NewWitness(testabilities.SpendingTx(t, 1, first), true),
			candidates:  []closing.Candidate{{Label: "a", Seal: blind.Conceal()}},
			expectedErr: seal.ErrSealNotRevealed,
		},
		"concealed seal with wrong reveal": {
			witness:     closing.NewWitness(testabilities.SpendingTx(t, 1, first), true),
			candidates:  []closing.Candidate{{Label: "a", Seal: blind.Conceal(), Reveal: &wrong}},
			expectedErr: seal.ErrRevealMismatch,
		},
		"concealed seal with matching reveal": {
			witness:     closing.NewWitness(testabilities.SpendingTx(t, 1, first), true),
			candidates:  []closing.Candidate{{Label: "a", Seal: blind.Conceal(), Reveal: &blind}},
			expectedOps: []seal.Outpoint{first},
		},
		"vout seal carried by funding transaction": {
			witness: closing.NewWitness(testabilities.SpendingTx(t, 1, third), true),
			candidates: []closing.Candidate{
				{Label: "a", Seal: seal.NewVoutSeal(seal.MethodOpret, 2, 5), CarriedBy: &fundingTxid},
			},
			expectedOps: []seal.Outpoint{third},
		},
		"vout seal not carried by any transaction": {
			witness:     closing.NewWitness(testabilities.SpendingTx(t, 1, third), true),
			candidates:  []closing.Candidate{{Label: "a", Seal: seal.NewVoutSeal(seal.MethodOpret, 2, 5)}},
			expectedErr: seal.ErrSealNotRevealed,
		},
		"missing witness": {
			candidates:  []closing.Candidate{{Label: "a", Seal: first}},
			expectedErr: closing.ErrMissingWitness,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			// given:
			validator := closing.NewValidator(ledger.NewMemory(), test.cfg)

			// when:
			closures, err := validator.Check(test.witness, test.candidates)

			// then:
			if test.expectedErr != nil {
				require.ErrorIs(t, err, test.expectedErr)
				require.Nil(t, closures)
				return
			}
			require.NoError(t, err)
			require.Len(t, closures, len(test.expectedOps))
			for i, op := range test.expectedOps {
				require.Equal(t, op, closures[i].Outpoint)
				require.Equal(t, test.candidates[i].Label, closures[i].Label)
				require.False(t, closures[i].Revealed.IsConcealed())
			}
		})
	}
}

func TestValidator_ResolveAnchors(t *testing.T) {
	t.Run("should resolve anchors known to the ledger", func(t *testing.T) {
		// given:
		chain := ledger.NewMemory()
		funding := testabilities.FundingTx(t, 2)
		chain.Add(funding, true)
		validator := closing.NewValidator(chain, closing.Config{})

		// when:
		err := validator.ResolveAnchors(context.Background(), []closing.Candidate{
			{Label: "a", Seal: testabilities.Outpoint(funding, 0)},
			{Label: "b", Seal: testabilities.Outpoint(funding, 1)},
		})

		// then:
		require.NoError(t, err)
	})

	t.Run("should fail for anchor unknown to the ledger", func(t *testing.T) {
		// given:
		validator := closing.NewValidator(ledger.NewMemory(), closing.Config{})
		funding := testabilities.FundingTx(t, 1)

		// when:
		err := validator.ResolveAnchors(context.Background(), []closing.Candidate{
			{Label: "a", Seal: testabilities.Outpoint(funding, 0)},
		})

		// then:
		require.ErrorIs(t, err, closing.ErrNotFound)
	})

	t.Run("should fail for concealed seal without reveal", func(t *testing.T) {
		// given:
		validator := closing.NewValidator(ledger.NewMemory(), closing.Config{})
		funding := testabilities.FundingTx(t, 1)
		secret := testabilities.Outpoint(funding, 0).Blind(seal.MethodOpret, 3).Conceal()

		// when:
		err := validator.ResolveAnchors(context.Background(), []closing.Candidate{{Label: "a", Seal: secret}})

		// then:
		require.ErrorIs(t, err, seal.ErrSealNotRevealed)
	})
}

func TestNewValidator_ShouldPanic_WhenLedgerIsNil(t *testing.T) {
	require.Panics(t, func() { closing.NewValidator(nil, closing.Config{}) })
}
