package model

import (
	"time"

	"github.com/google/uuid"
)

// Listing represents one purchasable item. IDs are allocated from a
// per-shop monotonic counter and are never reused, even after removal.
type Listing struct {
	ShopID              uuid.UUID  `json:"shop_id"`
	ID                  int64      `json:"id"`
	ItemType            string     `json:"item_type"`
	Name                string     `json:"name"`
	BasePriceCents      int64      `json:"base_price_cents"`
	Stock               int64      `json:"stock"`
	SpotlightTemplateID *uuid.UUID `json:"spotlight_template_id,omitempty"`
	CreatedAt           time.Time  `json:"-"`
}

// AddListingRequest is the DTO for creating a listing.
type AddListingRequest struct {
	ItemType            string     `json:"item_type" validate:"required,notblank,max=255"`
	Name                string     `json:"name" validate:"required,notblank,max=255"`
	BasePriceCents      *int64     `json:"base_price_cents" validate:"required"`
	Stock               *int64     `json:"stock" validate:"required"`
	SpotlightTemplateID *uuid.UUID `json:"spotlight_template_id"`
}

// SetStockRequest is the DTO for replacing a listing's stock. Zero is
// allowed and pauses sales without delisting.
type SetStockRequest struct {
	Stock *int64 `json:"stock" validate:"required"`
}

// AttachSpotlightRequest is the DTO for pointing a listing at a
// discount template.
type AttachSpotlightRequest struct {
	TemplateID uuid.UUID `json:"template_id" validate:"required"`
}
