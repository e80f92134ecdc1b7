// Package closing implements the validation that turns a witness transaction
// into seal closures.
//
// Validation is split in two so that ledger lookups never happen while the
// seal graph holds its write lock: ResolveAnchors talks to the ledger, Check
// is a pure function over already-resolved data.
package closing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/4chain-ag/go-seal-services/pkg/core/seal"
	"github.com/bsv-blockchain/go-sdk/chainhash"
)

var (
	// ErrWitnessUnconfirmed is returned when confirmation is required and the
	// witness is not confirmed by the ledger yet.
	ErrWitnessUnconfirmed = errors.New("witness-unconfirmed")
	// ErrDuplicateClaim is returned when one batch claims the same outpoint twice.
	ErrDuplicateClaim = errors.New("duplicate-claim")
	// ErrMissingWitness is returned when no witness transaction is supplied.
	ErrMissingWitness = errors.New("missing-witness")
)

// Candidate is a seal claimed to be closed by a witness, as known to the caller.
type Candidate struct {
	// Label identifies the claim in errors and logs.
	Label string
	Seal  seal.Seal
	// Reveal opens a concealed Seal.
	Reveal *seal.BlindSeal
	// CarriedBy is the witness that anchored the seal. It supplies the txid of
	// seals committed with "~".
	CarriedBy *chainhash.Hash
	Closed    bool
}

// Closure is a validated claim.
type Closure struct {
	Label    string
	Outpoint seal.Outpoint
	// Revealed is the seal in revealed form.
	Revealed seal.Seal
}

// Config tunes the validator.
type Config struct {
	RequireConfirmation bool `mapstructure:"require_confirmation"`
}

// Validator checks witness transactions against the seals they claim to close.
type Validator struct {
	ledger WitnessLedger
	cfg    Config
}

// NewValidator returns a Validator backed by ledger. Panics if ledger is nil.
func NewValidator(ledger WitnessLedger, cfg Config) *Validator {
	if ledger == nil {
		panic("witness ledger cannot be nil")
	}
	return &Validator{ledger: ledger, cfg: cfg}
}

// Ledger returns the witness ledger the validator consults.
func (v *Validator) Ledger() WitnessLedger {
	return v.ledger
}

// Config returns the options the validator was created with.
func (v *Validator) Config() Config {
	return v.cfg
}

// Resolve finds the outpoint of a candidate, revealing it first if it is
// concealed.
func (v *Validator) Resolve(c Candidate) (seal.Outpoint, seal.Seal, error) {
	revealed := c.Seal
	if c.Seal.IsConcealed() {
		secret, err := seal.Conceal(c.Seal)
		if err != nil {
			return seal.Outpoint{}, nil, err
		}
		if c.Reveal == nil {
			return seal.Outpoint{}, nil, fmt.Errorf("%w: %s is concealed", seal.ErrSealNotRevealed, c.Label)
		}
		material, err := secret.Reveal(*c.Reveal)
		if err != nil {
			return seal.Outpoint{}, nil, fmt.Errorf("%s: %w", c.Label, err)
		}
		revealed = material
	}

	switch s := revealed.(type) {
	case seal.BlindSeal:
		if s.Txid == nil && c.CarriedBy != nil {
			return seal.NewOutpoint(*c.CarriedBy, s.Vout), revealed, nil
		}
	case seal.ExplicitSeal:
		if s.Txid == nil && c.CarriedBy != nil {
			return seal.NewOutpoint(*c.CarriedBy, s.Vout), revealed, nil
		}
	case seal.VoutSeal:
		if c.CarriedBy != nil {
			return seal.NewOutpoint(*c.CarriedBy, s.Vout), revealed, nil
		}
	case seal.TerminalSeal:
		if vout, ok := s.Vout(); ok && c.CarriedBy != nil {
			return seal.NewOutpoint(*c.CarriedBy, vout.Vout), revealed, nil
		}
	}

	op, err := seal.OutpointOf(revealed)
	if err != nil {
		return seal.Outpoint{}, nil, fmt.Errorf("%s: %w", c.Label, err)
	}
	return op, revealed, nil
}

// ResolveAnchors asks the ledger for every transaction the candidates are
// anchored to. An anchor the ledger cannot resolve fails validation.
func (v *Validator) ResolveAnchors(ctx context.Context, candidates []Candidate) error {
	seen := make(map[chainhash.Hash]struct{}, len(candidates))
	for _, c := range candidates {
		op, _, err := v.Resolve(c)
		if err != nil {
			return err
		}
		if _, ok := seen[op.Txid]; ok {
			continue
		}
		seen[op.Txid] = struct{}{}
		if _, err := v.ledger.Resolve(ctx, op.Txid); err != nil {
			slog.Error("failed to resolve seal anchor", "seal", c.Label, "txid", op.Txid.String(), "error", err)
			return fmt.Errorf("resolving anchor %s of %s: %w", op.Txid.String(), c.Label, err)
		}
	}
	return nil
}

// Check validates that witness closes every candidate. It does not consult the
// ledger beyond the pure Spends check.
func (v *Validator) Check(witness *Witness, candidates []Candidate) ([]Closure, error) {
	if witness == nil || witness.Tx == nil {
		return nil, ErrMissingWitness
	}
	if v.cfg.RequireConfirmation && !witness.Confirmed {
		return nil, fmt.Errorf("%w: %s", ErrWitnessUnconfirmed, witness.Txid.String())
	}

	closures := make([]Closure, 0, len(candidates))
	claimed := make(map[seal.Outpoint]string, len(candidates))
	for _, c := range candidates {
		op, revealed, err := v.Resolve(c)
		if err != nil {
			return nil, err
		}
		if other, ok := claimed[op]; ok {
			return nil, fmt.Errorf("%w: %s and %s both claim %s", ErrDuplicateClaim, other, c.Label, op)
		}
		claimed[op] = c.Label

		if !v.ledger.Spends(witness.Tx, op) {
			return nil, fmt.Errorf("%w: %s does not spend %s of %s", seal.ErrOutpointMismatch, witness.Txid.String(), op, c.Label)
		}
		if c.Closed {
			return nil, fmt.Errorf("%w: %s", seal.ErrSealAlreadyClosed, c.Label)
		}
		closures = append(closures, Closure{Label: c.Label, Outpoint: op, Revealed: revealed})
	}
	return closures, nil
}
