package graph

import "errors"

var (
	// ErrNotFound is returned for an unknown seal id or witness txid.
	ErrNotFound = errors.New("not-found")
	// ErrAlreadyExists is returned by a Tx when a unique key is taken.
	ErrAlreadyExists = errors.New("already-exists")
	// ErrBlindingReused is returned when a blinding factor is registered twice
	// within one issuance scope.
	ErrBlindingReused = errors.New("blinding-reused")
	// ErrGraphCycle is returned when a closure would make a seal an ancestor of
	// itself.
	ErrGraphCycle = errors.New("graph-cycle")
)
