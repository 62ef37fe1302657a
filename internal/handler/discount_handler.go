package handler

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/fairyhunter13/marketplace-settlement/internal/model"
)

// DiscountServiceInterface defines the interface for discount template
// and claim business logic.
type DiscountServiceInterface interface {
	CreateTemplate(ctx context.Context, token, shopID uuid.UUID, req *model.CreateTemplateRequest) (*model.DiscountTemplate, error)
	UpdateTemplate(ctx context.Context, token, shopID, templateID uuid.UUID, req *model.UpdateTemplateRequest) error
	ToggleTemplate(ctx context.Context, token, shopID, templateID uuid.UUID, active bool) error
	Claim(ctx context.Context, shopID, templateID uuid.UUID, claimer string) (*model.DiscountTicket, error)
	PruneClaims(ctx context.Context, token, shopID, templateID uuid.UUID, claimers []string) error
}

// DiscountHandler handles HTTP requests for discount operations.
type DiscountHandler struct {
	service   DiscountServiceInterface
	validator *validator.Validate
}

// NewDiscountHandler creates a new DiscountHandler with the given
// service and validator.
func NewDiscountHandler(svc DiscountServiceInterface, v *validator.Validate) *DiscountHandler {
	return &DiscountHandler{service: svc, validator: v}
}

// CreateTemplate handles POST /api/shops/:shopID/templates.
func (h *DiscountHandler) CreateTemplate(c *fiber.Ctx) error {
	shopID, err := shopIDParam(c)
	if err != nil {
		return err
	}
	var req model.CreateTemplateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, formatValidationError(err))
	}

	tpl, err := h.service.CreateTemplate(c.Context(), adminToken(c), shopID, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(tpl)
}

// UpdateTemplate handles PUT /api/shops/:shopID/templates/:templateID.
// Permitted only while the template has issued no claims and has not
// finished.
func (h *DiscountHandler) UpdateTemplate(c *fiber.Ctx) error {
	shopID, err := shopIDParam(c)
	if err != nil {
		return err
	}
	templateID, err := templateIDParam(c)
	if err != nil {
		return err
	}
	var req model.UpdateTemplateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, formatValidationError(err))
	}
	if err := h.service.UpdateTemplate(c.Context(), adminToken(c), shopID, templateID, &req); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ToggleTemplate handles POST
// /api/shops/:shopID/templates/:templateID/toggle.
func (h *DiscountHandler) ToggleTemplate(c *fiber.Ctx) error {
	shopID, err := shopIDParam(c)
	if err != nil {
		return err
	}
	templateID, err := templateIDParam(c)
	if err != nil {
		return err
	}
	var req model.ToggleTemplateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, formatValidationError(err))
	}
	if err := h.service.ToggleTemplate(c.Context(), adminToken(c), shopID, templateID, *req.Active); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ClaimTicket handles POST
// /api/shops/:shopID/templates/:templateID/claim. Claiming needs no
// administrator token; any address may claim once per template.
func (h *DiscountHandler) ClaimTicket(c *fiber.Ctx) error {
	shopID, err := shopIDParam(c)
	if err != nil {
		return err
	}
	templateID, err := templateIDParam(c)
	if err != nil {
		return err
	}
	var req model.ClaimTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, formatValidationError(err))
	}

	ticket, err := h.service.Claim(c.Context(), shopID, templateID, req.ClaimerAddress)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(ticket)
}

// PruneClaims handles POST
// /api/shops/:shopID/templates/:templateID/prune-claims.
func (h *DiscountHandler) PruneClaims(c *fiber.Ctx) error {
	shopID, err := shopIDParam(c)
	if err != nil {
		return err
	}
	templateID, err := templateIDParam(c)
	if err != nil {
		return err
	}
	var req model.PruneClaimsRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, formatValidationError(err))
	}
	if err := h.service.PruneClaims(c.Context(), adminToken(c), shopID, templateID, req.Claimers); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
