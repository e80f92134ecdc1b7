package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/4chain-ag/go-seal-services/pkg/core/graph"
	"github.com/4chain-ag/go-seal-services/pkg/core/graph/closing"
	"github.com/4chain-ag/go-seal-services/pkg/core/seal"
	"github.com/bsv-blockchain/go-sdk/chainhash"
	"github.com/bsv-blockchain/go-sdk/transaction"
)

// WitnessProvider defines the seal graph operations used to close seals.
type WitnessProvider interface {
	Close(ctx context.Context, witness *closing.Witness, claims []graph.Claim, endpoints []graph.SealID) (*graph.Witness, error)
	Witness(ctx context.Context, txid chainhash.Hash) (*graph.Witness, error)
}

// WitnessResolver looks transactions up in the witness ledger.
type WitnessResolver interface {
	Resolve(ctx context.Context, txid chainhash.Hash) (*closing.Witness, error)
}

// ClaimInput names a seal a witness closes, with optional reveal material in
// BlindSeal text form.
type ClaimInput struct {
	SealID string
	Reveal string
}

// CloseSealsInput is a request to close seals with a witness transaction.
type CloseSealsInput struct {
	RawTx     string
	Claims    []ClaimInput
	Endpoints []string
}

// WitnessService closes seals with witness transactions.
type WitnessService struct {
	provider WitnessProvider
	resolver WitnessResolver
}

// NewWitnessService creates a new WitnessService. Panics if the provider or
// the resolver is nil.
func NewWitnessService(provider WitnessProvider, resolver WitnessResolver) *WitnessService {
	if provider == nil {
		panic("witness provider cannot be nil")
	}
	if resolver == nil {
		panic("witness resolver cannot be nil")
	}
	return &WitnessService{provider: provider, resolver: resolver}
}

// CloseSeals parses the witness transaction and the claims and closes the
// claimed seals atomically. The witness must be known to the ledger; the
// caller retries once it has been broadcast.
func (s *WitnessService) CloseSeals(ctx context.Context, in CloseSealsInput) (*graph.Witness, error) {
	tx, err := transaction.NewTransactionFromHex(strings.TrimSpace(in.RawTx))
	if err != nil {
		return nil, NewInvalidWitnessTxError(err)
	}

	claims := make([]graph.Claim, 0, len(in.Claims))
	for _, c := range in.Claims {
		id, err := ParseSealID(c.SealID)
		if err != nil {
			return nil, err
		}
		claim := graph.Claim{ID: id}
		if c.Reveal != "" {
			material, err := seal.ParseBlindSeal(strings.TrimSpace(c.Reveal))
			if err != nil {
				return nil, NewSealGraphError(err)
			}
			claim.Reveal = &material
		}
		claims = append(claims, claim)
	}
	endpoints := make([]graph.SealID, 0, len(in.Endpoints))
	for _, e := range in.Endpoints {
		id, err := ParseSealID(e)
		if err != nil {
			return nil, err
		}
		endpoints = append(endpoints, id)
	}

	witness, err := s.resolver.Resolve(ctx, *tx.TxID())
	if err != nil {
		return nil, NewSealGraphError(err)
	}

	result, err := s.provider.Close(ctx, witness, claims, endpoints)
	if err != nil {
		return nil, NewSealGraphError(err)
	}
	return result, nil
}

// GetWitness returns the witness record of the transaction with the given txid.
func (s *WitnessService) GetWitness(ctx context.Context, txid string) (*graph.Witness, error) {
	hash, err := ParseTxid(txid)
	if err != nil {
		return nil, err
	}
	witness, err := s.provider.Witness(ctx, hash)
	if errors.Is(err, graph.ErrNotFound) {
		return nil, NewWitnessNotFoundError(txid)
	}
	if err != nil {
		return nil, NewSealGraphError(err)
	}
	return witness, nil
}

// NewInvalidWitnessTxError returns an Error indicating that the witness
// transaction could not be decoded.
func NewInvalidWitnessTxError(err error) Error {
	return Error{
		errorType: ErrorTypeIncorrectInput,
		err:       fmt.Sprintf("invalid witness transaction: %v", err),
		slug:      "The witness transaction must be a hex encoded raw transaction.",
	}
}

// NewWitnessNotFoundError returns an Error indicating that no witness with the
// given txid closed seals in the graph.
func NewWitnessNotFoundError(txid string) Error {
	return Error{
		errorType: ErrorTypeNotFound,
		err:       fmt.Sprintf("witness %s not found", txid),
		slug:      "The requested witness does not exist.",
	}
}
