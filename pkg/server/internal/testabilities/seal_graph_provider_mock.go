package testabilities

import (
	"context"
	"iter"
	"testing"

	"github.com/4chain-ag/go-seal-services/pkg/core/graph"
	"github.com/4chain-ag/go-seal-services/pkg/core/seal"
	"github.com/bsv-blockchain/go-sdk/chainhash"
	"github.com/stretchr/testify/require"
)

// SealGraphProviderMockExpectations defines the expected behavior of the SealGraphProviderMock during a test.
type SealGraphProviderMockExpectations struct {
	// Error is returned from every call, and yielded by lineage walks.
	Error error

	// ID is returned from RegisterSeal.
	ID graph.SealID

	// Record is returned from Seal.
	Record *graph.Record

	// Lineage is yielded by Ancestors and Successors.
	Lineage []graph.SealID

	// Secret is returned from Conceal.
	Secret seal.SecretSeal

	// Anchored is returned from Anchor.
	Anchored seal.Seal

	// Call indicates whether the provider is expected to be called during the test.
	Call bool
}

// SealGraphProviderMock is a mock implementation of app.SealGraphProvider.
type SealGraphProviderMock struct {
	t            *testing.T
	expectations SealGraphProviderMockExpectations
	called       bool

	// RegisteredScope and RegisteredSeal hold the arguments of RegisterSeal.
	RegisteredScope string
	RegisteredSeal  seal.Seal
}

// NewSealGraphProviderMock creates a new SealGraphProviderMock with the given expectations.
func NewSealGraphProviderMock(t *testing.T, expectations SealGraphProviderMockExpectations) *SealGraphProviderMock {
	return &SealGraphProviderMock{t: t, expectations: expectations}
}

func (m *SealGraphProviderMock) RegisterSeal(_ context.Context, scope string, s seal.Seal) (graph.SealID, error) {
	m.called = true
	m.RegisteredScope = scope
	m.RegisteredSeal = s
	return m.expectations.ID, m.expectations.Error
}

func (m *SealGraphProviderMock) Seal(context.Context, graph.SealID) (*graph.Record, error) {
	m.called = true
	return m.expectations.Record, m.expectations.Error
}

func (m *SealGraphProviderMock) Ancestors(context.Context, graph.SealID) iter.Seq2[graph.SealID, error] {
	return m.lineage()
}

func (m *SealGraphProviderMock) Successors(context.Context, graph.SealID) iter.Seq2[graph.SealID, error] {
	return m.lineage()
}

func (m *SealGraphProviderMock) lineage() iter.Seq2[graph.SealID, error] {
	m.called = true
	return func(yield func(graph.SealID, error) bool) {
		if m.expectations.Error != nil {
			yield(0, m.expectations.Error)
			return
		}
		for _, id := range m.expectations.Lineage {
			if !yield(id, nil) {
				return
			}
		}
	}
}

func (m *SealGraphProviderMock) Conceal(context.Context, graph.SealID) (seal.SecretSeal, error) {
	m.called = true
	return m.expectations.Secret, m.expectations.Error
}

func (m *SealGraphProviderMock) Anchor(context.Context, graph.SealID, chainhash.Hash) (seal.Seal, error) {
	m.called = true
	return m.expectations.Anchored, m.expectations.Error
}

// AssertCalled verifies that the provider was called if it was expected to be.
func (m *SealGraphProviderMock) AssertCalled() {
	m.t.Helper()
	require.Equal(m.t, m.expectations.Call, m.called, "Discrepancy between expected and actual provider call")
}
