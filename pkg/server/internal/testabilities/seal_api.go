package testabilities

import (
	"context"
	"testing"

	"github.com/4chain-ag/go-seal-services/pkg/core/consignment"
	"github.com/4chain-ag/go-seal-services/pkg/core/graph"
	"github.com/4chain-ag/go-seal-services/pkg/core/graph/closing"
	"github.com/4chain-ag/go-seal-services/pkg/core/graph/storage"
	"github.com/4chain-ag/go-seal-services/pkg/core/seal"
	"github.com/4chain-ag/go-seal-services/pkg/ledger"
	"github.com/4chain-ag/go-seal-services/pkg/server"
	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

// AdminToken is the admin bearer token of every SealAPI.
const AdminToken = "test-admin-token"

// SealAPI is an in-memory seal service reachable over the Fiber test
// transport, together with the ledger and graph behind it.
type SealAPI struct {
	t       *testing.T
	Ledger  *ledger.Memory
	Graph   *graph.Graph
	Book    *consignment.MemoryRevealBook
	fixture *server.ServerTestFixture
}

// NewSealAPI creates a SealAPI over chain. A nil chain gets a fresh ledger.
func NewSealAPI(t *testing.T, chain *ledger.Memory, opts ...server.ServerOption) *SealAPI {
	t.Helper()
	if chain == nil {
		chain = ledger.NewMemory()
	}
	g := graph.New(storage.NewMemory(), closing.NewValidator(chain, closing.Config{}))
	book := consignment.NewRevealBook()
	opts = append([]server.ServerOption{
		server.WithGraph(g),
		server.WithRevealBook(book),
		server.WithAdminBearerToken(AdminToken),
	}, opts...)

	return &SealAPI{
		t:       t,
		Ledger:  chain,
		Graph:   g,
		Book:    book,
		fixture: server.NewServerTestFixture(t, opts...),
	}
}

// Client returns a client without credentials.
func (a *SealAPI) Client() *resty.Client {
	return a.fixture.Client()
}

// Admin returns a request carrying the admin bearer token.
func (a *SealAPI) Admin() *resty.Request {
	return a.fixture.Client().R().SetAuthToken(AdminToken)
}

// Register registers s directly in the graph under scope "issuer".
func (a *SealAPI) Register(s seal.Seal) graph.SealID {
	a.t.Helper()
	id, err := a.Graph.RegisterSeal(context.Background(), "issuer", s)
	require.NoError(a.t, err)
	return id
}

// RequireStatus fails the test unless res has the expected status.
func RequireStatus(t *testing.T, expected int, res *resty.Response) {
	t.Helper()
	require.Equal(t, expected, res.StatusCode(), "unexpected status, body: %s", res.String())
}
