package app

import (
	"context"
	"fmt"

	"github.com/4chain-ag/go-seal-services/pkg/core/consignment"
	"github.com/4chain-ag/go-seal-services/pkg/core/seal"
)

// ConsignmentExporter builds consignments from the local seal graph.
type ConsignmentExporter interface {
	Export(ctx context.Context, assignments []consignment.Assignment, opts ...consignment.ExportOption) (*consignment.Consignment, error)
}

// ConsignmentImporter verifies consignments received from other parties.
type ConsignmentImporter interface {
	Import(ctx context.Context, c *consignment.Consignment) (*consignment.Report, error)
}

// RevealBookProvider stores reveal material of seals this party defined.
type RevealBookProvider interface {
	Add(material seal.BlindSeal)
}

// ConsignmentFormat names an encoding of a consignment.
type ConsignmentFormat string

const (
	ConsignmentFormatBinary ConsignmentFormat = "binary"
	ConsignmentFormatArmor  ConsignmentFormat = "armor"
)

// AssignmentInput is one state assignment to export.
type AssignmentInput struct {
	SealID     string
	State      []byte
	Disclosure string
}

// ExportInput is a request to export a consignment. An empty Type exports a
// transfer consignment.
type ExportInput struct {
	Type        string
	Assignments []AssignmentInput
}

// ConsignmentService exports and imports consignments.
type ConsignmentService struct {
	exporter ConsignmentExporter
	importer ConsignmentImporter
	book     RevealBookProvider
}

// NewConsignmentService creates a new ConsignmentService. Panics if any
// dependency is nil.
func NewConsignmentService(exporter ConsignmentExporter, importer ConsignmentImporter, book RevealBookProvider) *ConsignmentService {
	if exporter == nil {
		panic("consignment exporter cannot be nil")
	}
	if importer == nil {
		panic("consignment importer cannot be nil")
	}
	if book == nil {
		panic("reveal book cannot be nil")
	}
	return &ConsignmentService{exporter: exporter, importer: importer, book: book}
}

// Export builds a consignment of the requested type for the given assignments.
func (s *ConsignmentService) Export(ctx context.Context, in ExportInput) (*consignment.Consignment, error) {
	var opts []consignment.ExportOption
	switch in.Type {
	case "", consignment.TypeTransfer:
	case consignment.TypeContract:
		opts = append(opts, consignment.AsContract())
	default:
		return nil, NewInvalidConsignmentTypeError(in.Type)
	}
	if len(in.Assignments) == 0 {
		return nil, NewEmptyAssignmentsError()
	}
	assignments := make([]consignment.Assignment, 0, len(in.Assignments))
	for i, a := range in.Assignments {
		id, err := ParseSealID(a.SealID)
		if err != nil {
			return nil, err
		}
		disclosure := consignment.DisclosureBlind
		if a.Disclosure != "" {
			if disclosure, err = consignment.ParseDisclosure(a.Disclosure); err != nil {
				return nil, NewInvalidDisclosureError(i, a.Disclosure)
			}
		}
		assignments = append(assignments, consignment.Assignment{SealID: id, State: a.State, Disclosure: disclosure})
	}

	c, err := s.exporter.Export(ctx, assignments, opts...)
	if err != nil {
		return nil, NewSealGraphError(err)
	}
	return c, nil
}

// Import decodes data in the given format and verifies the consignment.
func (s *ConsignmentService) Import(ctx context.Context, data []byte, format ConsignmentFormat) (*consignment.Report, error) {
	if len(data) == 0 {
		return nil, NewEmptyConsignmentError()
	}

	var (
		c   *consignment.Consignment
		err error
	)
	switch format {
	case ConsignmentFormatArmor:
		c, err = consignment.ParseArmored(data)
	default:
		c = new(consignment.Consignment)
		err = c.UnmarshalBinary(data)
	}
	if err != nil {
		return nil, NewSealGraphError(err)
	}

	report, err := s.importer.Import(ctx, c)
	if err != nil {
		return nil, NewSealGraphError(err)
	}
	return report, nil
}

// AddRevealMaterial records the material of a seal this party handed out in
// concealed form. Both blind and vout seals are accepted.
func (s *ConsignmentService) AddRevealMaterial(kind, text string) (seal.SecretSeal, error) {
	parsed, err := ParseSeal(kind, text)
	if err != nil {
		return seal.SecretSeal{}, err
	}

	switch v := parsed.(type) {
	case seal.BlindSeal:
		s.book.Add(v)
		return v.Conceal(), nil
	case seal.VoutSeal:
		s.book.Add(v.Blind())
		return v.Conceal(), nil
	default:
		return seal.SecretSeal{}, NewUnsupportedRevealKindError(parsed.Kind())
	}
}

// NewEmptyAssignmentsError returns an Error indicating that an export was
// requested without assignments.
func NewEmptyAssignmentsError() Error {
	return Error{
		errorType: ErrorTypeIncorrectInput,
		err:       "assignments cannot be empty",
		slug:      "At least one assignment must be provided to export a consignment.",
	}
}

// NewInvalidDisclosureError returns an Error indicating that an assignment
// names an unknown disclosure policy.
func NewInvalidDisclosureError(i int, disclosure string) Error {
	return Error{
		errorType: ErrorTypeIncorrectInput,
		err:       fmt.Sprintf("assignment %d: unknown disclosure %q", i, disclosure),
		slug:      "The disclosure must be one of: explicit, blind, concealed.",
	}
}

// NewInvalidConsignmentTypeError returns an Error indicating that an export
// names an unknown consignment type.
func NewInvalidConsignmentTypeError(typ string) Error {
	return Error{
		errorType: ErrorTypeIncorrectInput,
		err:       fmt.Sprintf("unknown consignment type %q", typ),
		slug:      "The consignment type must be one of: transfer, contract.",
	}
}

// NewEmptyConsignmentError returns an Error indicating that the consignment
// payload is empty.
func NewEmptyConsignmentError() Error {
	const msg = "The submitted consignment is empty."
	return Error{errorType: ErrorTypeIncorrectInput, err: msg, slug: msg}
}

// NewUnsupportedRevealKindError returns an Error indicating that the seal
// kind carries no reveal material.
func NewUnsupportedRevealKindError(kind seal.Kind) Error {
	return Error{
		errorType: ErrorTypeIncorrectInput,
		err:       fmt.Sprintf("%s seal carries no reveal material", kind),
		slug:      "Reveal material must be a blind or vout seal.",
	}
}
