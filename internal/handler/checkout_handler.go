package handler

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/fairyhunter13/marketplace-settlement/internal/model"
)

// CheckoutServiceInterface defines the interface for quote and
// purchase business logic.
type CheckoutServiceInterface interface {
	PreviewQuote(ctx context.Context, shopID uuid.UUID, req *model.QuoteRequest) (*model.QuoteResponse, error)
	Buy(ctx context.Context, shopID uuid.UUID, req *model.BuyRequest) (*model.PurchaseResponse, error)
	BuyWithDiscount(ctx context.Context, shopID uuid.UUID, req *model.BuyWithDiscountRequest) (*model.PurchaseResponse, error)
	ClaimAndBuy(ctx context.Context, shopID uuid.UUID, req *model.ClaimAndBuyRequest) (*model.PurchaseResponse, error)
}

// CheckoutHandler handles HTTP requests for quotes and purchases.
type CheckoutHandler struct {
	service   CheckoutServiceInterface
	validator *validator.Validate
}

// NewCheckoutHandler creates a new CheckoutHandler with the given
// service and validator.
func NewCheckoutHandler(svc CheckoutServiceInterface, v *validator.Validate) *CheckoutHandler {
	return &CheckoutHandler{service: svc, validator: v}
}

// PreviewQuote handles POST /api/shops/:shopID/quote. Read-only; the
// settling price is recomputed at purchase time.
func (h *CheckoutHandler) PreviewQuote(c *fiber.Ctx) error {
	shopID, err := shopIDParam(c)
	if err != nil {
		return err
	}
	var req model.QuoteRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, formatValidationError(err))
	}

	quote, err := h.service.PreviewQuote(c.Context(), shopID, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(quote)
}

// Buy handles POST /api/shops/:shopID/buy.
func (h *CheckoutHandler) Buy(c *fiber.Ctx) error {
	shopID, err := shopIDParam(c)
	if err != nil {
		return err
	}
	var req model.BuyRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, formatValidationError(err))
	}

	resp, err := h.service.Buy(c.Context(), shopID, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// BuyWithDiscount handles POST /api/shops/:shopID/buy-with-discount.
func (h *CheckoutHandler) BuyWithDiscount(c *fiber.Ctx) error {
	shopID, err := shopIDParam(c)
	if err != nil {
		return err
	}
	var req model.BuyWithDiscountRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, formatValidationError(err))
	}

	resp, err := h.service.BuyWithDiscount(c.Context(), shopID, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// ClaimAndBuy handles POST /api/shops/:shopID/claim-and-buy.
func (h *CheckoutHandler) ClaimAndBuy(c *fiber.Ctx) error {
	shopID, err := shopIDParam(c)
	if err != nil {
		return err
	}
	var req model.ClaimAndBuyRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, formatValidationError(err))
	}

	resp, err := h.service.ClaimAndBuy(c.Context(), shopID, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}
