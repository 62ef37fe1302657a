package service

import (
	"errors"

	"github.com/fairyhunter13/marketplace-settlement/internal/pricing"
)

// Sentinel errors for every abort the engine can produce. Each maps to
// a stable identifying code via Code; the codes are part of the
// external contract and must not change.
var (
	// ErrUnauthorized is returned when the presented administrator
	// token does not bind to the target shop.
	ErrUnauthorized = errors.New("administrator credential does not match shop")

	// ErrInvalidInput is returned for empty or malformed input values.
	ErrInvalidInput = errors.New("invalid input")

	// ErrZeroStock is returned when creating a listing with zero stock.
	ErrZeroStock = errors.New("listing created with zero stock")

	// ErrShopNotFound is returned when the shop record is absent.
	ErrShopNotFound = errors.New("shop not found")

	// ErrShopDisabled is returned when a disabled shop receives a
	// checkout or claim.
	ErrShopDisabled = errors.New("shop is disabled")

	// ErrListingNotFound is returned when the listing is absent from
	// this shop.
	ErrListingNotFound = errors.New("listing not found")

	// ErrListingHasActiveDiscount blocks removal of a listing while
	// active listing-scoped templates still target it.
	ErrListingHasActiveDiscount = errors.New("listing still targeted by active discount templates")

	// ErrCurrencyAlreadyRegistered is returned when the currency type
	// is already accepted by the shop.
	ErrCurrencyAlreadyRegistered = errors.New("currency already registered")

	// ErrCurrencyNotFound is returned when the shop does not accept the
	// currency.
	ErrCurrencyNotFound = errors.New("currency not registered for shop")

	// ErrInvalidFeedID is returned when the feed id is not exactly 32
	// bytes.
	ErrInvalidFeedID = errors.New("feed id must be exactly 32 bytes")

	// ErrUnsupportedDecimals is returned when currency decimals exceed
	// the maximum supported scaling power.
	ErrUnsupportedDecimals = errors.New("currency decimals exceed supported scaling power")

	// ErrInvalidGuardrailCap is returned when a guardrail override is
	// zero or negative.
	ErrInvalidGuardrailCap = errors.New("guardrail cap must be positive")

	// ErrCrossReferenceMismatch is returned when a referenced record
	// belongs to a different shop, listing or template.
	ErrCrossReferenceMismatch = errors.New("record reference belongs to a different parent")

	// ErrItemTypeMismatch is returned when the listing's recorded item
	// type differs from the type being minted.
	ErrItemTypeMismatch = errors.New("listing item type mismatch")

	// ErrOutOfStock is returned when a listing has no stock left at
	// checkout.
	ErrOutOfStock = errors.New("listing out of stock")

	// ErrTemplateNotFound is returned when the discount template is
	// absent.
	ErrTemplateNotFound = errors.New("discount template not found")

	// ErrTemplateInactive is returned when the template is toggled off.
	ErrTemplateInactive = errors.New("discount template inactive")

	// ErrTemplateTooEarly is returned before the template's start time.
	ErrTemplateTooEarly = errors.New("discount template not yet started")

	// ErrTemplateExpired is returned at or after the template's expiry.
	ErrTemplateExpired = errors.New("discount template expired")

	// ErrTemplateMaxedOut is returned when the redemption cap blocks a
	// claim or redemption.
	ErrTemplateMaxedOut = errors.New("discount template redemption cap reached")

	// ErrTemplateFinalized blocks updates once claims exist or the
	// template has finished.
	ErrTemplateFinalized = errors.New("discount template can no longer be updated")

	// ErrAlreadyClaimed is returned when the claimer already holds a
	// claim marker for the template.
	ErrAlreadyClaimed = errors.New("discount already claimed by address")

	// ErrClaimsNotPrunable blocks pruning while the template is still
	// live.
	ErrClaimsNotPrunable = errors.New("claim markers not prunable until template finishes")

	// ErrInvalidDiscountRule is returned for a percent rule above
	// 10000 bps or an unknown rule kind.
	ErrInvalidDiscountRule = errors.New("invalid discount rule")

	// ErrInvalidSchedule is returned when expiry does not follow start.
	ErrInvalidSchedule = errors.New("template expiry must follow start")

	// ErrTicketNotFound is returned when the discount ticket is absent.
	ErrTicketNotFound = errors.New("discount ticket not found")

	// ErrDiscountMismatch is returned when the ticket's template, shop
	// or listing binding does not match the purchase.
	ErrDiscountMismatch = errors.New("ticket does not match purchase")

	// ErrTicketClaimerMismatch is returned when the buyer is not the
	// ticket's original claimer.
	ErrTicketClaimerMismatch = errors.New("ticket claimer does not match buyer")

	// ErrInsufficientPayment is returned when the supplied payment is
	// below the quote.
	ErrInsufficientPayment = errors.New("payment below quoted amount")

	// ErrOracleObjectMismatch is returned when the supplied oracle
	// object identity differs from the registered one.
	ErrOracleObjectMismatch = errors.New("oracle object identity mismatch")

	// ErrFeedIdentifierMismatch is returned when the supplied feed id
	// differs from the registered one.
	ErrFeedIdentifierMismatch = errors.New("oracle feed identifier mismatch")
)

// Code returns the stable identifying code for an engine error, or
// INTERNAL for anything outside the taxonomy.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return "UNAUTHORIZED"
	case errors.Is(err, ErrInvalidInput):
		return "INVALID_INPUT"
	case errors.Is(err, ErrZeroStock):
		return "ZERO_STOCK"
	case errors.Is(err, ErrShopNotFound):
		return "SHOP_NOT_FOUND"
	case errors.Is(err, ErrShopDisabled):
		return "SHOP_DISABLED"
	case errors.Is(err, ErrListingNotFound):
		return "LISTING_NOT_FOUND"
	case errors.Is(err, ErrListingHasActiveDiscount):
		return "LISTING_HAS_ACTIVE_DISCOUNT"
	case errors.Is(err, ErrCurrencyAlreadyRegistered):
		return "CURRENCY_ALREADY_REGISTERED"
	case errors.Is(err, ErrCurrencyNotFound):
		return "CURRENCY_NOT_FOUND"
	case errors.Is(err, ErrInvalidFeedID):
		return "INVALID_FEED_ID"
	case errors.Is(err, ErrUnsupportedDecimals):
		return "UNSUPPORTED_DECIMALS"
	case errors.Is(err, ErrInvalidGuardrailCap):
		return "INVALID_GUARDRAIL_CAP"
	case errors.Is(err, ErrCrossReferenceMismatch):
		return "CROSS_REFERENCE_MISMATCH"
	case errors.Is(err, ErrItemTypeMismatch):
		return "ITEM_TYPE_MISMATCH"
	case errors.Is(err, ErrOutOfStock):
		return "OUT_OF_STOCK"
	case errors.Is(err, ErrTemplateNotFound):
		return "TEMPLATE_NOT_FOUND"
	case errors.Is(err, ErrTemplateInactive):
		return "TEMPLATE_INACTIVE"
	case errors.Is(err, ErrTemplateTooEarly):
		return "TEMPLATE_TOO_EARLY"
	case errors.Is(err, ErrTemplateExpired):
		return "TEMPLATE_EXPIRED"
	case errors.Is(err, ErrTemplateMaxedOut):
		return "TEMPLATE_MAXED_OUT"
	case errors.Is(err, ErrTemplateFinalized):
		return "TEMPLATE_FINALIZED"
	case errors.Is(err, ErrAlreadyClaimed):
		return "ALREADY_CLAIMED"
	case errors.Is(err, ErrClaimsNotPrunable):
		return "CLAIMS_NOT_PRUNABLE"
	case errors.Is(err, ErrInvalidDiscountRule):
		return "INVALID_DISCOUNT_RULE"
	case errors.Is(err, ErrInvalidSchedule):
		return "INVALID_SCHEDULE"
	case errors.Is(err, ErrTicketNotFound):
		return "TICKET_NOT_FOUND"
	case errors.Is(err, ErrDiscountMismatch):
		return "DISCOUNT_MISMATCH"
	case errors.Is(err, ErrTicketClaimerMismatch):
		return "TICKET_CLAIMER_MISMATCH"
	case errors.Is(err, ErrInsufficientPayment):
		return "INSUFFICIENT_PAYMENT"
	case errors.Is(err, ErrOracleObjectMismatch):
		return "ORACLE_OBJECT_MISMATCH"
	case errors.Is(err, ErrFeedIdentifierMismatch):
		return "FEED_IDENTIFIER_MISMATCH"
	case errors.Is(err, pricing.ErrPriceNonPositive):
		return "PRICE_NON_POSITIVE"
	case errors.Is(err, pricing.ErrConfidenceExceedsPrice):
		return "CONFIDENCE_EXCEEDS_PRICE"
	case errors.Is(err, pricing.ErrConfidenceTooWide):
		return "CONFIDENCE_INTERVAL_TOO_WIDE"
	case errors.Is(err, pricing.ErrPriceTooStale):
		return "PRICE_TOO_STALE"
	case errors.Is(err, pricing.ErrStatusNotTrading):
		return "PRICE_STATUS_NOT_TRADING"
	case errors.Is(err, pricing.ErrExponentTooLarge):
		return "EXPONENT_TOO_LARGE"
	case errors.Is(err, pricing.ErrOverflow):
		return "OVERFLOW"
	case errors.Is(err, pricing.ErrDivisionByZero):
		return "DIVISION_BY_ZERO"
	default:
		return "INTERNAL"
	}
}
