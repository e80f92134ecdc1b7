package ports

import (
	"context"

	"github.com/4chain-ag/go-seal-services/pkg/core/graph"
	"github.com/4chain-ag/go-seal-services/pkg/core/seal"
	"github.com/gofiber/fiber/v2"
)

// SealService defines the interface for the seal graph application service.
type SealService interface {
	RegisterSeal(ctx context.Context, scope, kind, text string) (graph.SealID, error)
	GetSeal(ctx context.Context, id string) (*graph.Record, error)
	Ancestors(ctx context.Context, id string) ([]graph.SealID, error)
	Successors(ctx context.Context, id string) ([]graph.SealID, error)
	Conceal(ctx context.Context, id string) (seal.SecretSeal, error)
	Anchor(ctx context.Context, id, txid string) (seal.Seal, error)
}

// SealHandler serves the /seals routes.
type SealHandler struct {
	service SealService
}

// NewSealHandler creates a new SealHandler. Panics if the service is nil.
func NewSealHandler(service SealService) *SealHandler {
	if service == nil {
		panic("seal service is nil")
	}
	return &SealHandler{service: service}
}

// Register handles POST /seals. On success it returns HTTP 201 with the id of
// the new seal.
func (h *SealHandler) Register(c *fiber.Ctx) error {
	var body RegisterSealRequest
	if err := c.BodyParser(&body); err != nil {
		return NewRequestBodyParserError(err)
	}

	id, err := h.service.RegisterSeal(c.UserContext(), body.Scope, body.Kind, body.Seal)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(RegisterSealResponse{ID: id.String()})
}

// Get handles GET /seals/:id.
func (h *SealHandler) Get(c *fiber.Ctx) error {
	record, err := h.service.GetSeal(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(NewSealResponse(record))
}

// Ancestors handles GET /seals/:id/ancestors.
func (h *SealHandler) Ancestors(c *fiber.Ctx) error {
	ids, err := h.service.Ancestors(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(NewSealIDsResponse(ids))
}

// Successors handles GET /seals/:id/successors.
func (h *SealHandler) Successors(c *fiber.Ctx) error {
	ids, err := h.service.Successors(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(NewSealIDsResponse(ids))
}

// Conceal handles POST /seals/:id/conceal.
func (h *SealHandler) Conceal(c *fiber.Ctx) error {
	secret, err := h.service.Conceal(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(ConcealSealResponse{Secret: secret.String()})
}

// Anchor handles POST /seals/:id/anchor.
func (h *SealHandler) Anchor(c *fiber.Ctx) error {
	var body AnchorSealRequest
	if err := c.BodyParser(&body); err != nil {
		return NewRequestBodyParserError(err)
	}

	anchored, err := h.service.Anchor(c.UserContext(), c.Params("id"), body.Txid)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(AnchorSealResponse{Kind: anchored.Kind().String(), Seal: anchored.String()})
}
