package handler

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/fairyhunter13/marketplace-settlement/internal/model"
)

// CatalogServiceInterface defines the interface for listing business
// logic.
type CatalogServiceInterface interface {
	AddListing(ctx context.Context, token, shopID uuid.UUID, req *model.AddListingRequest) (*model.Listing, error)
	SetStock(ctx context.Context, token, shopID uuid.UUID, listingID, stock int64) error
	RemoveListing(ctx context.Context, token, shopID uuid.UUID, listingID int64) error
	AttachSpotlight(ctx context.Context, token, shopID uuid.UUID, listingID int64, templateID uuid.UUID) error
	ClearSpotlight(ctx context.Context, token, shopID uuid.UUID, listingID int64) error
	GetListing(ctx context.Context, shopID uuid.UUID, listingID int64) (*model.Listing, error)
}

// CatalogHandler handles HTTP requests for listing operations.
type CatalogHandler struct {
	service   CatalogServiceInterface
	validator *validator.Validate
}

// NewCatalogHandler creates a new CatalogHandler with the given
// service and validator.
func NewCatalogHandler(svc CatalogServiceInterface, v *validator.Validate) *CatalogHandler {
	return &CatalogHandler{service: svc, validator: v}
}

// AddListing handles POST /api/shops/:shopID/listings.
func (h *CatalogHandler) AddListing(c *fiber.Ctx) error {
	shopID, err := shopIDParam(c)
	if err != nil {
		return err
	}
	var req model.AddListingRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, formatValidationError(err))
	}

	listing, err := h.service.AddListing(c.Context(), adminToken(c), shopID, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(listing)
}

// GetListing handles GET /api/shops/:shopID/listings/:listingID.
func (h *CatalogHandler) GetListing(c *fiber.Ctx) error {
	shopID, err := shopIDParam(c)
	if err != nil {
		return err
	}
	listingID, err := listingIDParam(c)
	if err != nil {
		return err
	}
	listing, err := h.service.GetListing(c.Context(), shopID, listingID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(listing)
}

// SetStock handles PUT /api/shops/:shopID/listings/:listingID/stock.
// Zero is a valid target and makes the listing unpurchasable without
// removing it.
func (h *CatalogHandler) SetStock(c *fiber.Ctx) error {
	shopID, err := shopIDParam(c)
	if err != nil {
		return err
	}
	listingID, err := listingIDParam(c)
	if err != nil {
		return err
	}
	var req model.SetStockRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, formatValidationError(err))
	}
	if err := h.service.SetStock(c.Context(), adminToken(c), shopID, listingID, *req.Stock); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RemoveListing handles DELETE /api/shops/:shopID/listings/:listingID.
func (h *CatalogHandler) RemoveListing(c *fiber.Ctx) error {
	shopID, err := shopIDParam(c)
	if err != nil {
		return err
	}
	listingID, err := listingIDParam(c)
	if err != nil {
		return err
	}
	if err := h.service.RemoveListing(c.Context(), adminToken(c), shopID, listingID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AttachSpotlight handles PUT
// /api/shops/:shopID/listings/:listingID/spotlight.
func (h *CatalogHandler) AttachSpotlight(c *fiber.Ctx) error {
	shopID, err := shopIDParam(c)
	if err != nil {
		return err
	}
	listingID, err := listingIDParam(c)
	if err != nil {
		return err
	}
	var req model.AttachSpotlightRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, formatValidationError(err))
	}
	if err := h.service.AttachSpotlight(c.Context(), adminToken(c), shopID, listingID, req.TemplateID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ClearSpotlight handles DELETE
// /api/shops/:shopID/listings/:listingID/spotlight.
func (h *CatalogHandler) ClearSpotlight(c *fiber.Ctx) error {
	shopID, err := shopIDParam(c)
	if err != nil {
		return err
	}
	listingID, err := listingIDParam(c)
	if err != nil {
		return err
	}
	if err := h.service.ClearSpotlight(c.Context(), adminToken(c), shopID, listingID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
