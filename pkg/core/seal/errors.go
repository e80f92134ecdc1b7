package seal

import "errors"

var (
	// ErrMalformedSeal is returned when a seal string does not match the grammar of its variant.
	ErrMalformedSeal = errors.New("malformed-seal")
	// ErrChecksumMismatch is returned when a SecretSeal checksum does not match its commitment.
	ErrChecksumMismatch = errors.New("checksum-mismatch")
	// ErrRevealMismatch is returned when reveal material does not hash to the held commitment.
	ErrRevealMismatch = errors.New("reveal-mismatch")
	// ErrSealNotRevealed is returned when an operation needs the outpoint of a concealed seal
	// and no reveal material was supplied.
	ErrSealNotRevealed = errors.New("seal-not-revealed")
	// ErrOutpointMismatch is returned when a witness transaction does not spend the seal outpoint.
	ErrOutpointMismatch = errors.New("outpoint-mismatch")
	// ErrSealAlreadyClosed is returned on a second closing attempt of the same seal.
	ErrSealAlreadyClosed = errors.New("seal-already-closed")
	// ErrAlreadyAnchored is returned when a seal bound to one transaction is anchored to another.
	ErrAlreadyAnchored = errors.New("already-anchored")
)
