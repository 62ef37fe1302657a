package model

import (
	"time"

	"github.com/google/uuid"
)

// Shop is the root record every listing, currency and discount template
// hangs off. Disabling is permanent and blocks checkouts and claims but
// not administrative reads.
type Shop struct {
	ID            uuid.UUID `json:"id"`
	OwnerAddress  string    `json:"owner_address"`
	Name          string    `json:"name"`
	Disabled      bool      `json:"disabled"`
	NextListingID int64     `json:"-"`
	CreatedAt     time.Time `json:"-"`
}

// CreateShopRequest is the DTO for creating a shop.
type CreateShopRequest struct {
	Name         string `json:"name" validate:"required,notblank,max=255"`
	OwnerAddress string `json:"owner_address" validate:"required,notblank,max=255"`
}

// CreateShopResponse carries the freshly issued administrator token.
// The token is returned exactly once; losing it means losing authority
// over the shop.
type CreateShopResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	OwnerAddress string    `json:"owner_address"`
	AdminToken   uuid.UUID `json:"admin_token"`
}

// UpdateOwnerRequest is the DTO for rotating a shop's payout address.
type UpdateOwnerRequest struct {
	OwnerAddress string `json:"owner_address" validate:"required,notblank,max=255"`
}
