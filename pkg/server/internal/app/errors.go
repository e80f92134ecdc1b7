package app

import (
	"context"
	"errors"

	"github.com/4chain-ag/go-seal-services/pkg/core/consignment"
	"github.com/4chain-ag/go-seal-services/pkg/core/graph"
	"github.com/4chain-ag/go-seal-services/pkg/core/graph/closing"
	"github.com/4chain-ag/go-seal-services/pkg/core/seal"
)

// ErrorType represents a generic category of error used as descriptor
// to clarify the nature of a failure that occurred in dependencies.
type ErrorType struct {
	s string
}

func (e ErrorType) String() string { return e.s }

var (
	ErrorTypeProviderFailure   = ErrorType{"provider-failure"}
	ErrorTypeAuthorization     = ErrorType{"authorization"}
	ErrorTypeAccessForbidden   = ErrorType{"access-forbidden"}
	ErrorTypeIncorrectInput    = ErrorType{"incorrect-input"}
	ErrorTypeNotFound          = ErrorType{"not-found"}
	ErrorTypeConflict          = ErrorType{"conflict"}
	ErrorTypeUnknown           = ErrorType{"unknown"}
	ErrorTypeOperationTimeout  = ErrorType{"operation-timeout"}
	ErrorTypeRawDataProcessing = ErrorType{"raw-data-processing"}
)

// Error defines a generic application-layer error that should be translated
// into a specific response format for the requester.
//
// The source error message may contain internal details, so only the slug is
// meant to reach the requester. The error type drives the translation.
type Error struct {
	err       string
	slug      string
	errorType ErrorType
}

func (e Error) Slug() string         { return e.slug }
func (e Error) IsZero() bool         { return e == Error{} }
func (e Error) Error() string        { return e.err }
func (e Error) ErrorType() ErrorType { return e.errorType }

// NewIncorrectInputError returns an error that handles invalid input data,
// typically caused by partial state, inappropriate data formats, or other
// issues related to incorrect input.
func NewIncorrectInputError(err, slug string) Error {
	return Error{slug: slug, err: err, errorType: ErrorTypeIncorrectInput}
}

// NewProviderFailureError returns an error that handles service dependency failures,
// internal processing issues, unavailability, connection problems, or other issues
// that should not be exposed to the requester.
func NewProviderFailureError(err, slug string) Error {
	return Error{slug: slug, err: err, errorType: ErrorTypeProviderFailure}
}

// NewNotFoundError returns an error for a referenced seal, witness or
// transaction that does not exist.
func NewNotFoundError(err, slug string) Error {
	return Error{slug: slug, err: err, errorType: ErrorTypeNotFound}
}

// NewConflictError returns an error for a request that is well formed but
// contradicts the current state of the seal graph.
func NewConflictError(err, slug string) Error {
	return Error{slug: slug, err: err, errorType: ErrorTypeConflict}
}

// NewAuthorizationError returns an error that handles authorization failures,
// such as missing or invalid credentials when attempting to access a restricted resource.
func NewAuthorizationError(err, slug string) Error {
	return Error{slug: slug, err: err, errorType: ErrorTypeAuthorization}
}

// NewAccessForbiddenError returns an error that handles access control failures,
// such as valid credentials without the necessary permissions to access a resource.
func NewAccessForbiddenError(err, slug string) Error {
	return Error{slug: slug, err: err, errorType: ErrorTypeAccessForbidden}
}

// NewRawDataProcessingError returns an error that handles issues encountered
// during raw data processing, such as invalid or corrupt input data that prevents
// successful processing.
func NewRawDataProcessingError(err, slug string) Error {
	return Error{slug: slug, err: err, errorType: ErrorTypeRawDataProcessing}
}

// NewUnknownError returns an error that represents an unexpected or unclassified
// issue that doesn't fall into predefined error categories.
func NewUnknownError(err, slug string) Error {
	return Error{slug: slug, err: err, errorType: ErrorTypeUnknown}
}

// NewContextCancellationError returns an error indicating that the submitted request exceeded the context timeout limit or
// that a context cancellation signal was emitted.
func NewContextCancellationError() Error {
	const msg = "The submitted request context has been canceled or exceeds the timeout limit."
	return Error{errorType: ErrorTypeOperationTimeout, err: msg, slug: msg}
}

type domainError struct {
	target    error
	errorType ErrorType
	slug      string
}

// domainErrors is ordered: the first matching target wins.
var domainErrors = []domainError{
	{graph.ErrNotFound, ErrorTypeNotFound, "The requested seal does not exist."},
	{closing.ErrNotFound, ErrorTypeNotFound, "A referenced transaction is unknown to the witness ledger."},
	{seal.ErrMalformedSeal, ErrorTypeIncorrectInput, "The seal does not match the grammar of its kind."},
	{seal.ErrChecksumMismatch, ErrorTypeIncorrectInput, "The concealed seal checksum does not match its commitment."},
	{seal.ErrRevealMismatch, ErrorTypeIncorrectInput, "The reveal material does not open the concealed seal."},
	{seal.ErrSealNotRevealed, ErrorTypeIncorrectInput, "The operation needs the revealed form of a concealed seal."},
	{seal.ErrOutpointMismatch, ErrorTypeIncorrectInput, "The witness transaction does not spend the claimed seal."},
	{seal.ErrSealAlreadyClosed, ErrorTypeConflict, "The seal has already been closed."},
	{seal.ErrAlreadyAnchored, ErrorTypeConflict, "The seal is already anchored to another transaction."},
	{graph.ErrBlindingReused, ErrorTypeConflict, "The blinding factor is already used in this scope."},
	{graph.ErrGraphCycle, ErrorTypeConflict, "The witness would make the seal graph cyclic."},
	{graph.ErrAlreadyExists, ErrorTypeConflict, "The record already exists."},
	{graph.ErrEmptyBatch, ErrorTypeIncorrectInput, "At least one seal must be claimed by the witness."},
	{closing.ErrWitnessUnconfirmed, ErrorTypeConflict, "The witness transaction is not confirmed yet."},
	{closing.ErrDuplicateClaim, ErrorTypeIncorrectInput, "The same seal is claimed more than once."},
	{closing.ErrMissingWitness, ErrorTypeIncorrectInput, "A witness transaction must be provided."},
	{consignment.ErrUnsupportedVersion, ErrorTypeIncorrectInput, "The consignment version is not supported."},
	{consignment.ErrMalformedConsignment, ErrorTypeIncorrectInput, "The consignment is malformed."},
	{consignment.ErrWitnessMismatch, ErrorTypeIncorrectInput, "The consignment witnesses do not match the seals they create."},
}

// NewSealGraphError translates an error returned by the seal graph, the
// closing validator or the consignment codec into an Error.
func NewSealGraphError(err error) Error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return NewContextCancellationError()
	}
	for _, d := range domainErrors {
		if errors.Is(err, d.target) {
			return Error{err: err.Error(), slug: d.slug, errorType: d.errorType}
		}
	}
	return NewProviderFailureError(err.Error(), "Unable to process the seal operation due to an internal error. Please try again later or contact the support team.")
}
