package ports

import (
	"context"

	"github.com/4chain-ag/go-seal-services/pkg/core/graph"
	"github.com/4chain-ag/go-seal-services/pkg/server/internal/app"
	"github.com/gofiber/fiber/v2"
)

// WitnessService defines the interface for closing seals with witnesses.
type WitnessService interface {
	CloseSeals(ctx context.Context, in app.CloseSealsInput) (*graph.Witness, error)
	GetWitness(ctx context.Context, txid string) (*graph.Witness, error)
}

// WitnessHandler serves the /witnesses routes.
type WitnessHandler struct {
	service WitnessService
}

// NewWitnessHandler creates a new WitnessHandler. Panics if the service is nil.
func NewWitnessHandler(service WitnessService) *WitnessHandler {
	if service == nil {
		panic("witness service is nil")
	}
	return &WitnessHandler{service: service}
}

// Close handles POST /witnesses. The claimed seals are closed and the
// endpoints anchored in one atomic batch.
func (h *WitnessHandler) Close(c *fiber.Ctx) error {
	var body CloseSealsRequest
	if err := c.BodyParser(&body); err != nil {
		return NewRequestBodyParserError(err)
	}

	in := app.CloseSealsInput{RawTx: body.RawTx, Endpoints: body.Endpoints}
	for _, claim := range body.Claims {
		in.Claims = append(in.Claims, app.ClaimInput{SealID: claim.SealID, Reveal: claim.Reveal})
	}

	witness, err := h.service.CloseSeals(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(NewWitnessResponse(witness))
}

// Get handles GET /witnesses/:txid.
func (h *WitnessHandler) Get(c *fiber.Ctx) error {
	witness, err := h.service.GetWitness(c.UserContext(), c.Params("txid"))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(NewWitnessResponse(witness))
}
