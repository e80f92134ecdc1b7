package app

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"github.com/4chain-ag/go-seal-services/pkg/core/graph"
	"github.com/4chain-ag/go-seal-services/pkg/core/seal"
	"github.com/bsv-blockchain/go-sdk/chainhash"
)

// SealGraphProvider defines the seal graph operations exposed over HTTP.
type SealGraphProvider interface {
	RegisterSeal(ctx context.Context, scope string, s seal.Seal) (graph.SealID, error)
	Seal(ctx context.Context, id graph.SealID) (*graph.Record, error)
	Ancestors(ctx context.Context, id graph.SealID) iter.Seq2[graph.SealID, error]
	Successors(ctx context.Context, id graph.SealID) iter.Seq2[graph.SealID, error]
	Conceal(ctx context.Context, id graph.SealID) (seal.SecretSeal, error)
	Anchor(ctx context.Context, id graph.SealID, txid chainhash.Hash) (seal.Seal, error)
}

// SealService validates requester input and delegates to the seal graph.
type SealService struct {
	provider SealGraphProvider
}

// NewSealService creates a new SealService with the given provider.
// Panics if the provider is nil.
func NewSealService(provider SealGraphProvider) *SealService {
	if provider == nil {
		panic("seal graph provider cannot be nil")
	}
	return &SealService{provider: provider}
}

// RegisterSeal parses text with the grammar of kind and registers the seal
// under scope.
func (s *SealService) RegisterSeal(ctx context.Context, scope, kind, text string) (graph.SealID, error) {
	scope = strings.TrimSpace(scope)
	if scope == "" {
		return 0, NewEmptyScopeError()
	}
	parsed, err := ParseSeal(kind, text)
	if err != nil {
		return 0, err
	}

	id, err := s.provider.RegisterSeal(ctx, scope, parsed)
	if err != nil {
		return 0, NewSealGraphError(err)
	}
	return id, nil
}

// GetSeal returns the record of the seal with the given textual id.
func (s *SealService) GetSeal(ctx context.Context, id string) (*graph.Record, error) {
	sealID, err := ParseSealID(id)
	if err != nil {
		return nil, err
	}
	record, err := s.provider.Seal(ctx, sealID)
	if err != nil {
		return nil, NewSealGraphError(err)
	}
	return record, nil
}

// Ancestors returns the ids of every seal whose closing led to the seal.
func (s *SealService) Ancestors(ctx context.Context, id string) ([]graph.SealID, error) {
	return s.lineage(ctx, id, s.provider.Ancestors)
}

// Successors returns the ids of every seal created by closing the seal.
func (s *SealService) Successors(ctx context.Context, id string) ([]graph.SealID, error) {
	return s.lineage(ctx, id, s.provider.Successors)
}

func (s *SealService) lineage(ctx context.Context, id string, walk func(context.Context, graph.SealID) iter.Seq2[graph.SealID, error]) ([]graph.SealID, error) {
	sealID, err := ParseSealID(id)
	if err != nil {
		return nil, err
	}
	ids, err := graph.Collect(walk(ctx, sealID))
	if err != nil {
		return nil, NewSealGraphError(err)
	}
	return ids, nil
}

// Conceal returns the concealed form of the seal.
func (s *SealService) Conceal(ctx context.Context, id string) (seal.SecretSeal, error) {
	sealID, err := ParseSealID(id)
	if err != nil {
		return seal.SecretSeal{}, err
	}
	secret, err := s.provider.Conceal(ctx, sealID)
	if err != nil {
		return seal.SecretSeal{}, NewSealGraphError(err)
	}
	return secret, nil
}

// Anchor binds the endpoint seal to the transaction with the given txid.
func (s *SealService) Anchor(ctx context.Context, id, txid string) (seal.Seal, error) {
	sealID, err := ParseSealID(id)
	if err != nil {
		return nil, err
	}
	hash, err := ParseTxid(txid)
	if err != nil {
		return nil, err
	}
	anchored, err := s.provider.Anchor(ctx, sealID, hash)
	if err != nil {
		return nil, NewSealGraphError(err)
	}
	return anchored, nil
}

// ParseSeal decodes text with the grammar of the named seal kind.
func ParseSeal(kind, text string) (seal.Seal, error) {
	k, err := seal.ParseKind(kind)
	if err != nil {
		return nil, NewUnknownSealKindError(kind)
	}
	parsed, err := seal.Parse(k, strings.TrimSpace(text))
	if err != nil {
		return nil, NewSealGraphError(err)
	}
	return parsed, nil
}

// ParseSealID decodes a textual seal id.
func ParseSealID(id string) (graph.SealID, error) {
	sealID, err := graph.ParseSealID(id)
	if err != nil || sealID == 0 {
		return 0, NewInvalidSealIDError(id)
	}
	return sealID, nil
}

// ParseTxid decodes a transaction id in display order.
func ParseTxid(txid string) (chainhash.Hash, error) {
	if len(txid) != chainhash.MaxHashStringSize {
		return chainhash.Hash{}, NewInvalidTxidError(txid)
	}
	hash, err := chainhash.NewHashFromHex(txid)
	if err != nil {
		return chainhash.Hash{}, NewInvalidTxidError(txid)
	}
	return *hash, nil
}

// NewEmptyScopeError returns an Error indicating that a seal was submitted
// without an issuance scope.
func NewEmptyScopeError() Error {
	return Error{
		errorType: ErrorTypeIncorrectInput,
		err:       "seal scope cannot be empty",
		slug:      "A non-empty scope must be provided to register a seal.",
	}
}

// NewUnknownSealKindError returns an Error indicating that the seal kind is
// not one of the supported variants.
func NewUnknownSealKindError(kind string) Error {
	return Error{
		errorType: ErrorTypeIncorrectInput,
		err:       fmt.Sprintf("unknown seal kind %q", kind),
		slug:      "The seal kind must be one of: outpoint, blind, secret, explicit, vout, terminal.",
	}
}

// NewInvalidSealIDError returns an Error indicating that a seal id is not a
// positive decimal integer.
func NewInvalidSealIDError(id string) Error {
	return Error{
		errorType: ErrorTypeIncorrectInput,
		err:       fmt.Sprintf("invalid seal id %q", id),
		slug:      "The seal id must be a positive decimal integer.",
	}
}

// NewInvalidTxidError returns an Error indicating that a transaction id is
// not 64 hexadecimal characters.
func NewInvalidTxidError(txid string) Error {
	return Error{
		errorType: ErrorTypeIncorrectInput,
		err:       fmt.Sprintf("invalid txid %q", txid),
		slug:      "The transaction id must be 64 hexadecimal characters.",
	}
}
