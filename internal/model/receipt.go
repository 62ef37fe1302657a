package model

import (
	"time"

	"github.com/google/uuid"
)

// Receipt is minted exactly once per successful checkout and is
// immutable after creation. Name and item type are snapshots of the
// listing at purchase time.
type Receipt struct {
	ID         uuid.UUID `json:"id"`
	ShopID     uuid.UUID `json:"shop_id"`
	ListingID  int64     `json:"listing_id"`
	ItemType   string    `json:"item_type"`
	Name       string    `json:"name"`
	MintTo     string    `json:"mint_to"`
	AcquiredAt time.Time `json:"acquired_at"`
}

// TransferKind distinguishes the two legs of a payment split.
type TransferKind string

const (
	// TransferPayout routes exactly the quoted amount to the shop owner.
	TransferPayout TransferKind = "payout"
	// TransferRefund routes the leftover payment back to the buyer's
	// refund address. May be zero.
	TransferRefund TransferKind = "refund"
)

// Transfer is one ledger row of a payment split.
type Transfer struct {
	ID        uuid.UUID    `json:"id"`
	ReceiptID uuid.UUID    `json:"receipt_id"`
	Kind      TransferKind `json:"kind"`
	ToAddress string       `json:"to_address"`
	Currency  string       `json:"currency"`
	Amount    int64        `json:"amount"`
	CreatedAt time.Time    `json:"-"`
}
