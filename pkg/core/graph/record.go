package graph

import (
	"slices"
	"strconv"
	"time"

	"github.com/4chain-ag/go-seal-services/pkg/core/seal"
	"github.com/bsv-blockchain/go-sdk/chainhash"
)

// SealID is the handle of a seal in the graph. Ids are allocated by the store
// and never reused.
type SealID uint64

func (id SealID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// ParseSealID is the inverse of SealID.String.
func ParseSealID(s string) (SealID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return SealID(v), nil
}

// Record is a seal node together with its closure state.
type Record struct {
	ID    SealID
	Scope string
	// Seal is the current representation. Reveal and anchoring replace it;
	// the identity stays the same.
	Seal seal.Seal
	// Commitment is the concealed form computed at registration. Nil for
	// seals without a blinding factor.
	Commitment *seal.Commitment
	Closed     bool
	ClosedBy   *chainhash.Hash
	// CreatedBy is the witness that anchored the seal as one of its outputs.
	// Nil for seals registered directly (genesis).
	CreatedBy *chainhash.Hash
	CreatedAt time.Time
}

// Secret returns the concealed form the seal was registered with. Anchoring
// an endpoint does not change it.
func (r *Record) Secret() (seal.SecretSeal, error) {
	if r.Commitment != nil {
		return seal.NewSecretSeal(*r.Commitment), nil
	}
	return seal.Conceal(r.Seal)
}

// Clone returns a copy of r that can be modified without touching r.
func (r *Record) Clone() *Record {
	c := *r
	return &c
}

// Witness is a closing transaction known to the graph.
type Witness struct {
	Txid      chainhash.Hash
	RawTx     []byte
	Confirmed bool
	// Closes lists the seals this transaction closed.
	Closes []SealID
	// Creates lists the endpoint seals this transaction anchored.
	Creates []SealID
}

// Clone returns a deep copy of w.
func (w *Witness) Clone() *Witness {
	c := *w
	c.RawTx = slices.Clone(w.RawTx)
	c.Closes = slices.Clone(w.Closes)
	c.Creates = slices.Clone(w.Creates)
	return &c
}
