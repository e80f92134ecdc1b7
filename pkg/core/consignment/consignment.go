// Package consignment packages seals, their closing history and the state
// assigned to them for transfer to another party, and verifies such packages
// on the receiving side.
package consignment

import (
	"errors"
	"fmt"
	"slices"

	"github.com/4chain-ag/go-seal-services/pkg/core/seal"
	"github.com/4chain-ag/go-seal-services/pkg/internal/codec"
)

// Version is the only consignment format version this package reads and writes.
const Version uint16 = 1

var (
	// ErrUnsupportedVersion is returned for a consignment of another format version.
	ErrUnsupportedVersion = errors.New("unsupported-version")
	// ErrMalformedConsignment is returned for a structurally invalid consignment.
	ErrMalformedConsignment = errors.New("malformed-consignment")
	// ErrWitnessMismatch is returned when the witnesses of a consignment
	// disagree with its seals or with the recipient's ledger.
	ErrWitnessMismatch = errors.New("witness-mismatch")
)

// Consignment types as rendered in armor headers.
const (
	TypeTransfer = "transfer"
	TypeContract = "contract"
)

// Consignment is the transfer container. Seals are listed ancestor first;
// witnesses, assignments and terminals refer to seals by their position in
// Seals.
type Consignment struct {
	Version uint16 `json:"version" cbor:"1,keyasint"`
	// ID is derived from the content by ComputeID.
	ID          ID                `json:"id" cbor:"2,keyasint"`
	Seals       []SealEntry       `json:"seals" cbor:"3,keyasint"`
	Witnesses   []WitnessEntry    `json:"witnesses" cbor:"4,keyasint"`
	Assignments []AssignmentEntry `json:"assignments" cbor:"5,keyasint"`
	// Transfer is set when the consignment hands state over to the recipient
	// and unset for a contract consignment carrying history for the record.
	Transfer bool `json:"transfer" cbor:"6,keyasint"`
	// Terminals are the seals the assignments bind, in ascending position.
	Terminals []uint32 `json:"terminals,omitempty" cbor:"7,keyasint,omitempty"`
}

// Type returns TypeTransfer or TypeContract.
func (c *Consignment) Type() string {
	if c.Transfer {
		return TypeTransfer
	}
	return TypeContract
}

// SealEntry is one seal in the form chosen by the disclosure policy.
type SealEntry struct {
	Seal seal.Envelope `json:"seal" cbor:"1,keyasint"`
	// CreatedBy is the index of the witness that anchored the seal.
	CreatedBy *uint32 `json:"created_by,omitempty" cbor:"2,keyasint,omitempty"`
}

// WitnessEntry is a closing transaction and the seals it closes and creates.
type WitnessEntry struct {
	RawTx   []byte   `json:"raw_tx" cbor:"1,keyasint"`
	Closes  []uint32 `json:"closes" cbor:"2,keyasint"`
	Creates []uint32 `json:"creates,omitempty" cbor:"3,keyasint,omitempty"`
}

// AssignmentEntry binds an opaque state payload to a seal.
type AssignmentEntry struct {
	Seal       uint32     `json:"seal" cbor:"1,keyasint"`
	State      []byte     `json:"state" cbor:"2,keyasint"`
	Disclosure Disclosure `json:"disclosure" cbor:"3,keyasint"`
}

// MarshalBinary encodes c as deterministic CBOR.
func (c *Consignment) MarshalBinary() ([]byte, error) {
	return codec.Marshal(c)
}

// UnmarshalBinary decodes CBOR produced by MarshalBinary and checks the
// format version.
func (c *Consignment) UnmarshalBinary(data []byte) error {
	var decoded Consignment
	if err := codec.Unmarshal(data, &decoded); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedConsignment, err)
	}
	if decoded.Version != Version {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, decoded.Version)
	}
	*c = decoded
	return nil
}

// Validate checks the structure of c: the version, that every index is in
// range, and that witnesses are listed after the witnesses whose seals they
// close.
func (c *Consignment) Validate() error {
	if c.Version != Version {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, c.Version)
	}
	seals := uint32(len(c.Seals))
	witnesses := uint32(len(c.Witnesses))

	for i, entry := range c.Seals {
		if entry.CreatedBy != nil && *entry.CreatedBy >= witnesses {
			return fmt.Errorf("%w: seal %d created by unknown witness %d", ErrMalformedConsignment, i, *entry.CreatedBy)
		}
	}
	for w, witness := range c.Witnesses {
		if len(witness.RawTx) == 0 {
			return fmt.Errorf("%w: witness %d has no transaction", ErrMalformedConsignment, w)
		}
		if len(witness.Closes) == 0 {
			return fmt.Errorf("%w: witness %d closes no seal", ErrMalformedConsignment, w)
		}
		for _, idx := range witness.Closes {
			if idx >= seals {
				return fmt.Errorf("%w: witness %d closes unknown seal %d", ErrMalformedConsignment, w, idx)
			}
			if parent := c.Seals[idx].CreatedBy; parent != nil && int(*parent) >= w {
				return fmt.Errorf("%w: witness %d closes seal %d created by later witness %d", ErrMalformedConsignment, w, idx, *parent)
			}
		}
		for _, idx := range witness.Creates {
			if idx >= seals {
				return fmt.Errorf("%w: witness %d creates unknown seal %d", ErrMalformedConsignment, w, idx)
			}
			if creator := c.Seals[idx].CreatedBy; creator == nil || int(*creator) != w {
				return fmt.Errorf("%w: witness %d lists seal %d it did not create", ErrWitnessMismatch, w, idx)
			}
		}
	}
	for i, entry := range c.Seals {
		if entry.CreatedBy == nil {
			continue
		}
		if !slices.Contains(c.Witnesses[*entry.CreatedBy].Creates, uint32(i)) {
			return fmt.Errorf("%w: seal %d not listed by its witness %d", ErrWitnessMismatch, i, *entry.CreatedBy)
		}
	}
	for a, assignment := range c.Assignments {
		if assignment.Seal >= seals {
			return fmt.Errorf("%w: assignment %d refers to unknown seal %d", ErrMalformedConsignment, a, assignment.Seal)
		}
		if !assignment.Disclosure.Valid() {
			return fmt.Errorf("%w: assignment %d has unknown disclosure %d", ErrMalformedConsignment, a, assignment.Disclosure)
		}
	}
	if err := c.validateTerminals(); err != nil {
		return err
	}

	id, err := c.ComputeID()
	if err != nil {
		return err
	}
	if id != c.ID {
		return fmt.Errorf("%w: id %s does not match content id %s", ErrMalformedConsignment, c.ID, id)
	}
	return nil
}

// validateTerminals checks that Terminals lists exactly the assigned seals.
func (c *Consignment) validateTerminals() error {
	if !slices.Equal(c.Terminals, terminalsOf(c.Assignments)) {
		return fmt.Errorf("%w: terminals %v do not match the assigned seals", ErrMalformedConsignment, c.Terminals)
	}
	if c.Transfer && len(c.Terminals) == 0 {
		return fmt.Errorf("%w: transfer consignment has no terminal seal", ErrMalformedConsignment)
	}
	return nil
}

func terminalsOf(assignments []AssignmentEntry) []uint32 {
	var terminals []uint32
	for _, a := range assignments {
		if !slices.Contains(terminals, a.Seal) {
			terminals = append(terminals, a.Seal)
		}
	}
	slices.Sort(terminals)
	return terminals
}
