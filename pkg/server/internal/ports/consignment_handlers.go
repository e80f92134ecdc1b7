package ports

import (
	"context"

	"github.com/4chain-ag/go-seal-services/pkg/core/consignment"
	"github.com/4chain-ag/go-seal-services/pkg/core/seal"
	"github.com/4chain-ag/go-seal-services/pkg/server/internal/app"
	"github.com/gofiber/fiber/v2"
)

// FormatQueryParam selects the consignment encoding of an export response.
const FormatQueryParam = "format"

// MIMEArmoredConsignment is the content type of ASCII armored consignments.
const MIMEArmoredConsignment = fiber.MIMETextPlain

// ConsignmentService defines the interface for exporting and importing consignments.
type ConsignmentService interface {
	Export(ctx context.Context, in app.ExportInput) (*consignment.Consignment, error)
	Import(ctx context.Context, data []byte, format app.ConsignmentFormat) (*consignment.Report, error)
	AddRevealMaterial(kind, text string) (seal.SecretSeal, error)
}

// ConsignmentHandler serves the /consignments routes.
type ConsignmentHandler struct {
	service ConsignmentService
}

// NewConsignmentHandler creates a new ConsignmentHandler. Panics if the service is nil.
func NewConsignmentHandler(service ConsignmentService) *ConsignmentHandler {
	if service == nil {
		panic("consignment service is nil")
	}
	return &ConsignmentHandler{service: service}
}

// Export handles POST /consignments/export. The consignment is returned as
// CBOR octet-stream, or as ASCII armor when ?format=armor is given.
func (h *ConsignmentHandler) Export(c *fiber.Ctx) error {
	var body ExportConsignmentRequest
	if err := c.BodyParser(&body); err != nil {
		return NewRequestBodyParserError(err)
	}

	in := app.ExportInput{Type: body.Type, Assignments: make([]app.AssignmentInput, 0, len(body.Assignments))}
	for _, a := range body.Assignments {
		in.Assignments = append(in.Assignments, app.AssignmentInput{SealID: a.SealID, State: a.State, Disclosure: a.Disclosure})
	}

	exported, err := h.service.Export(c.UserContext(), in)
	if err != nil {
		return err
	}

	if app.ConsignmentFormat(c.Query(FormatQueryParam)) == app.ConsignmentFormatArmor {
		armored, err := exported.Armor()
		if err != nil {
			return app.NewProviderFailureError(err.Error(), "Unable to encode the consignment.")
		}
		c.Set(fiber.HeaderContentType, MIMEArmoredConsignment)
		return c.Status(fiber.StatusOK).Send(armored)
	}

	data, err := exported.MarshalBinary()
	if err != nil {
		return app.NewProviderFailureError(err.Error(), "Unable to encode the consignment.")
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEOctetStream)
	return c.Status(fiber.StatusOK).Send(data)
}

// Import handles POST /consignments/import. The body is CBOR octet-stream or
// ASCII armored text; the response is the verification report.
func (h *ConsignmentHandler) Import(c *fiber.Ctx) error {
	format := app.ConsignmentFormatBinary
	if c.Is("txt") {
		format = app.ConsignmentFormatArmor
	}

	report, err := h.service.Import(c.UserContext(), c.Body(), format)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(NewImportConsignmentResponse(report))
}

// AddRevealMaterial handles POST /consignments/reveals.
func (h *ConsignmentHandler) AddRevealMaterial(c *fiber.Ctx) error {
	var body RevealMaterialRequest
	if err := c.BodyParser(&body); err != nil {
		return NewRequestBodyParserError(err)
	}

	secret, err := h.service.AddRevealMaterial(body.Kind, body.Seal)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(ConcealSealResponse{Secret: secret.String()})
}
