package handler

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/fairyhunter13/marketplace-settlement/internal/model"
)

// ShopServiceInterface defines the interface for shop business logic.
type ShopServiceInterface interface {
	Create(ctx context.Context, req *model.CreateShopRequest) (*model.CreateShopResponse, error)
	Disable(ctx context.Context, token, shopID uuid.UUID) error
	UpdateOwner(ctx context.Context, token, shopID uuid.UUID, req *model.UpdateOwnerRequest) error
	Get(ctx context.Context, shopID uuid.UUID) (*model.Shop, error)
}

// ShopHandler handles HTTP requests for shop operations.
type ShopHandler struct {
	service   ShopServiceInterface
	validator *validator.Validate
}

// NewShopHandler creates a new ShopHandler with the given service and
// validator.
func NewShopHandler(svc ShopServiceInterface, v *validator.Validate) *ShopHandler {
	return &ShopHandler{service: svc, validator: v}
}

// CreateShop handles POST /api/shops. The response carries the
// administrator token exactly once.
func (h *ShopHandler) CreateShop(c *fiber.Ctx) error {
	var req model.CreateShopRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, formatValidationError(err))
	}

	resp, err := h.service.Create(c.Context(), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// GetShop handles GET /api/shops/:shopID.
func (h *ShopHandler) GetShop(c *fiber.Ctx) error {
	shopID, err := shopIDParam(c)
	if err != nil {
		return err
	}
	shop, err := h.service.Get(c.Context(), shopID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(shop)
}

// DisableShop handles POST /api/shops/:shopID/disable. Disabling is
// permanent; there is no re-enable route.
func (h *ShopHandler) DisableShop(c *fiber.Ctx) error {
	shopID, err := shopIDParam(c)
	if err != nil {
		return err
	}
	if err := h.service.Disable(c.Context(), adminToken(c), shopID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// UpdateOwner handles PUT /api/shops/:shopID/owner. The new address
// receives payouts for all future purchases.
func (h *ShopHandler) UpdateOwner(c *fiber.Ctx) error {
	shopID, err := shopIDParam(c)
	if err != nil {
		return err
	}
	var req model.UpdateOwnerRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, formatValidationError(err))
	}
	if err := h.service.UpdateOwner(c.Context(), adminToken(c), shopID, &req); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
