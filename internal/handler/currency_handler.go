package handler

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/fairyhunter13/marketplace-settlement/internal/model"
)

// CurrencyServiceInterface defines the interface for payment-currency
// business logic.
type CurrencyServiceInterface interface {
	Register(ctx context.Context, token, shopID uuid.UUID, req *model.RegisterCurrencyRequest) (*model.AcceptedCurrency, error)
	Deregister(ctx context.Context, token, shopID uuid.UUID, currency string) error
}

// CurrencyHandler handles HTTP requests for accepted-currency
// operations.
type CurrencyHandler struct {
	service   CurrencyServiceInterface
	validator *validator.Validate
}

// NewCurrencyHandler creates a new CurrencyHandler with the given
// service and validator.
func NewCurrencyHandler(svc CurrencyServiceInterface, v *validator.Validate) *CurrencyHandler {
	return &CurrencyHandler{service: svc, validator: v}
}

// RegisterCurrency handles POST /api/shops/:shopID/currencies.
func (h *CurrencyHandler) RegisterCurrency(c *fiber.Ctx) error {
	shopID, err := shopIDParam(c)
	if err != nil {
		return err
	}
	var req model.RegisterCurrencyRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, formatValidationError(err))
	}

	entry, err := h.service.Register(c.Context(), adminToken(c), shopID, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(entry)
}

// DeregisterCurrency handles DELETE
// /api/shops/:shopID/currencies/:currency. Pending quotes against the
// currency simply fail at settlement time.
func (h *CurrencyHandler) DeregisterCurrency(c *fiber.Ctx) error {
	shopID, err := shopIDParam(c)
	if err != nil {
		return err
	}
	currency := c.Params("currency")
	if currency == "" {
		return badRequest(c, "invalid request: currency is required")
	}
	if err := h.service.Deregister(c.Context(), adminToken(c), shopID, currency); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
