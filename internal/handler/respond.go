package handler

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/marketplace-settlement/internal/pricing"
	"github.com/fairyhunter13/marketplace-settlement/internal/service"
)

// adminTokenHeader carries the shop administrator credential issued at
// shop creation.
const adminTokenHeader = "X-Admin-Token"

// adminToken parses the credential header. A missing or malformed
// token yields uuid.Nil, which the services reject as unauthorized.
func adminToken(c *fiber.Ctx) uuid.UUID {
	token, err := uuid.Parse(c.Get(adminTokenHeader))
	if err != nil {
		return uuid.Nil
	}
	return token
}

func shopIDParam(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("shopID"))
	if err != nil {
		return uuid.Nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request: shop id must be a uuid",
			"code":  "INVALID_INPUT",
		})
	}
	return id, nil
}

func templateIDParam(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("templateID"))
	if err != nil {
		return uuid.Nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request: template id must be a uuid",
			"code":  "INVALID_INPUT",
		})
	}
	return id, nil
}

func listingIDParam(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("listingID"), 10, 64)
	if err != nil || id < 0 {
		return 0, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request: listing id must be a non-negative integer",
			"code":  "INVALID_INPUT",
		})
	}
	return id, nil
}

// formatValidationError converts validator errors into a single
// human-readable message naming the first offending field.
func formatValidationError(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			field := fe.Field()
			switch fe.Tag() {
			case "required":
				return "invalid request: " + field + " is required"
			case "notblank":
				return "invalid request: " + field + " cannot be whitespace only"
			case "max":
				return "invalid request: " + field + " exceeds maximum length"
			case "oneof":
				return "invalid request: " + field + " has an unsupported value"
			case "gte", "min":
				return "invalid request: " + field + " is below the minimum"
			default:
				return "invalid request: " + field + " is invalid"
			}
		}
	}
	return "invalid request"
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": message,
		"code":  "INVALID_INPUT",
	})
}

// respondError maps an engine error onto an HTTP status and the stable
// error code. Anything outside the taxonomy is logged and reported as
// an opaque internal error.
func respondError(c *fiber.Ctx, err error) error {
	code := service.Code(err)
	status := statusFor(err)
	if status == fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
		return c.Status(status).JSON(fiber.Map{
			"error": "internal server error",
			"code":  code,
		})
	}
	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, service.ErrShopNotFound),
		errors.Is(err, service.ErrListingNotFound),
		errors.Is(err, service.ErrCurrencyNotFound),
		errors.Is(err, service.ErrTemplateNotFound),
		errors.Is(err, service.ErrTicketNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrCurrencyAlreadyRegistered),
		errors.Is(err, service.ErrAlreadyClaimed),
		errors.Is(err, service.ErrListingHasActiveDiscount),
		errors.Is(err, service.ErrTemplateFinalized),
		errors.Is(err, service.ErrClaimsNotPrunable),
		errors.Is(err, service.ErrOutOfStock):
		return fiber.StatusConflict
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrZeroStock),
		errors.Is(err, service.ErrInvalidFeedID),
		errors.Is(err, service.ErrUnsupportedDecimals),
		errors.Is(err, service.ErrInvalidGuardrailCap),
		errors.Is(err, service.ErrInvalidDiscountRule),
		errors.Is(err, service.ErrInvalidSchedule):
		return fiber.StatusBadRequest
	case errors.Is(err, service.ErrShopDisabled),
		errors.Is(err, service.ErrCrossReferenceMismatch),
		errors.Is(err, service.ErrItemTypeMismatch),
		errors.Is(err, service.ErrTemplateInactive),
		errors.Is(err, service.ErrTemplateTooEarly),
		errors.Is(err, service.ErrTemplateExpired),
		errors.Is(err, service.ErrTemplateMaxedOut),
		errors.Is(err, service.ErrDiscountMismatch),
		errors.Is(err, service.ErrTicketClaimerMismatch),
		errors.Is(err, service.ErrInsufficientPayment),
		errors.Is(err, service.ErrOracleObjectMismatch),
		errors.Is(err, service.ErrFeedIdentifierMismatch),
		errors.Is(err, pricing.ErrPriceNonPositive),
		errors.Is(err, pricing.ErrConfidenceExceedsPrice),
		errors.Is(err, pricing.ErrConfidenceTooWide),
		errors.Is(err, pricing.ErrPriceTooStale),
		errors.Is(err, pricing.ErrStatusNotTrading),
		errors.Is(err, pricing.ErrExponentTooLarge),
		errors.Is(err, pricing.ErrOverflow),
		errors.Is(err, pricing.ErrDivisionByZero):
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}
