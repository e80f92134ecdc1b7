package consignment

import (
	"context"
	"sync"

	"github.com/4chain-ag/go-seal-services/pkg/core/graph"
	"github.com/4chain-ag/go-seal-services/pkg/core/seal"
)

// RevealBook holds the reveal material of seals the recipient defined itself.
type RevealBook interface {
	// Lookup returns the material opening secret, if known.
	Lookup(secret seal.SecretSeal) (seal.BlindSeal, bool)
}

// MemoryRevealBook is a RevealBook kept in memory.
type MemoryRevealBook struct {
	mu    sync.RWMutex
	seals map[seal.Commitment]seal.BlindSeal
}

// NewRevealBook returns a book holding the given material.
func NewRevealBook(material ...seal.BlindSeal) *MemoryRevealBook {
	book := &MemoryRevealBook{seals: make(map[seal.Commitment]seal.BlindSeal, len(material))}
	for _, m := range material {
		book.Add(m)
	}
	return book
}

// Add records material under its commitment.
func (b *MemoryRevealBook) Add(material seal.BlindSeal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seals[material.Conceal().Commitment()] = material
}

// AddEndpoint records the material of an endpoint seal handed to a sender.
func (b *MemoryRevealBook) AddEndpoint(endpoint seal.VoutSeal) {
	b.Add(endpoint.Blind())
}

// Lookup implements RevealBook.
func (b *MemoryRevealBook) Lookup(secret seal.SecretSeal) (seal.BlindSeal, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	material, ok := b.seals[secret.Commitment()]
	return material, ok
}

// RevealedAssignment is an assignment whose seal the recipient verified.
type RevealedAssignment struct {
	// Index is the position of the assignment in the consignment.
	Index    int
	SealID   graph.SealID
	Seal     seal.Seal
	Outpoint seal.Outpoint
	State    []byte
	// Closed reports whether the history in the consignment already spends
	// the seal.
	Closed bool
}

// PendingAssignment is an assignment whose seal could not be verified yet.
type PendingAssignment struct {
	Index  int
	SealID graph.SealID
	Seal   seal.Seal
	State  []byte
	Reason error
}

// CoreValidator enforces the contract rules on revealed state. This package
// never interprets state payloads.
type CoreValidator interface {
	ValidateAssignments(ctx context.Context, assignments []RevealedAssignment) error
}

// CoreValidatorFunc adapts a function to CoreValidator.
type CoreValidatorFunc func(ctx context.Context, assignments []RevealedAssignment) error

// ValidateAssignments implements CoreValidator.
func (f CoreValidatorFunc) ValidateAssignments(ctx context.Context, assignments []RevealedAssignment) error {
	return f(ctx, assignments)
}
