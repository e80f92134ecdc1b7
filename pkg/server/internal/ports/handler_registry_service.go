package ports

import (
	"github.com/gofiber/fiber/v2"
)

// HandlerRegistryService is the central registry mapping API routes to their
// handler implementations.
type HandlerRegistryService struct {
	seals        *SealHandler
	witnesses    *WitnessHandler
	consignments *ConsignmentHandler
}

// NewHandlerRegistryService creates and returns a new HandlerRegistryService instance.
func NewHandlerRegistryService(seals SealService, witnesses WitnessService, consignments ConsignmentService) *HandlerRegistryService {
	return &HandlerRegistryService{
		seals:        NewSealHandler(seals),
		witnesses:    NewWitnessHandler(witnesses),
		consignments: NewConsignmentHandler(consignments),
	}
}

// RegisterRoutes mounts every route under /api/v1. Routes that mutate the
// seal graph or the reveal book, or that expose blinding factors, are guarded
// by admin.
func (h *HandlerRegistryService) RegisterRoutes(router fiber.Router, admin fiber.Handler) {
	api := router.Group("/api/v1")

	api.Post("/seals", admin, h.seals.Register)
	api.Get("/seals/:id", admin, h.seals.Get)
	api.Get("/seals/:id/ancestors", h.seals.Ancestors)
	api.Get("/seals/:id/successors", h.seals.Successors)
	api.Post("/seals/:id/conceal", admin, h.seals.Conceal)
	api.Post("/seals/:id/anchor", admin, h.seals.Anchor)

	api.Post("/witnesses", admin, h.witnesses.Close)
	api.Get("/witnesses/:txid", h.witnesses.Get)

	api.Post("/consignments/export", admin, h.consignments.Export)
	api.Post("/consignments/import", h.consignments.Import)
	api.Post("/consignments/reveals", admin, h.consignments.AddRevealMaterial)
}
