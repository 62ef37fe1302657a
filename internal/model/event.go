package model

import "github.com/google/uuid"

// Event kinds. These strings and the payload field names below are a
// stable contract consumed by external indexers; do not rename.
const (
	EventShopCreated       = "shop.created"
	EventShopDisabled      = "shop.disabled"
	EventOwnerUpdated      = "shop.owner_updated"
	EventListingAdded      = "listing.added"
	EventListingStockSet   = "listing.stock_set"
	EventListingRemoved    = "listing.removed"
	EventSpotlightAttached = "listing.spotlight_attached"
	EventSpotlightCleared  = "listing.spotlight_cleared"
	EventCurrencyAdded     = "currency.registered"
	EventCurrencyRemoved   = "currency.deregistered"
	EventTemplateCreated   = "template.created"
	EventTemplateUpdated   = "template.updated"
	EventTemplateToggled   = "template.toggled"
	EventClaimsPruned      = "template.claims_pruned"
	EventTicketClaimed     = "ticket.claimed"
	EventPurchaseCompleted = "purchase.completed"
)

// ShopEvent covers shop creation, disabling and owner rotation.
type ShopEvent struct {
	ShopID       uuid.UUID `json:"shop_id"`
	Name         string    `json:"name,omitempty"`
	OwnerAddress string    `json:"owner_address,omitempty"`
}

// ListingEvent covers listing creation, stock changes, removal and
// spotlight updates.
type ListingEvent struct {
	ShopID     uuid.UUID  `json:"shop_id"`
	ListingID  int64      `json:"listing_id"`
	ItemType   string     `json:"item_type,omitempty"`
	Name       string     `json:"name,omitempty"`
	Stock      *int64     `json:"stock,omitempty"`
	TemplateID *uuid.UUID `json:"template_id,omitempty"`
}

// CurrencyEvent covers currency registration and removal.
type CurrencyEvent struct {
	ShopID   uuid.UUID `json:"shop_id"`
	Currency string    `json:"currency"`
	FeedID   string    `json:"feed_id,omitempty"`
	Decimals uint8     `json:"decimals,omitempty"`
}

// TemplateEvent covers template creation, updates, toggles and claim
// pruning.
type TemplateEvent struct {
	ShopID     uuid.UUID `json:"shop_id"`
	TemplateID uuid.UUID `json:"template_id"`
	Active     *bool     `json:"active,omitempty"`
	Pruned     []string  `json:"pruned,omitempty"`
}

// TicketClaimedEvent records a successful claim.
type TicketClaimedEvent struct {
	ShopID         uuid.UUID `json:"shop_id"`
	TemplateID     uuid.UUID `json:"template_id"`
	TicketID       uuid.UUID `json:"ticket_id"`
	ClaimerAddress string    `json:"claimer_address"`
}

// PurchaseCompletedEvent records a settled checkout.
type PurchaseCompletedEvent struct {
	ShopID               uuid.UUID  `json:"shop_id"`
	ListingID            int64      `json:"listing_id"`
	ReceiptID            uuid.UUID  `json:"receipt_id"`
	Buyer                string     `json:"buyer"`
	Currency             string     `json:"currency"`
	AmountPaid           int64      `json:"amount_paid"`
	BasePriceCents       int64      `json:"base_price_cents"`
	DiscountedPriceCents int64      `json:"discounted_price_cents"`
	DiscountTemplateID   *uuid.UUID `json:"discount_template_id,omitempty"`
	FeedID               string     `json:"feed_id"`
}
