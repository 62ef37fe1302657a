package model

import "github.com/google/uuid"

// BuyRequest is the DTO for a plain checkout. BuyerAddress stands in
// for the transaction signer of the hosting platform; ItemType must
// match the listing's recorded tag.
type BuyRequest struct {
	QuoteRequest
	ItemType      string `json:"item_type" validate:"required,notblank,max=255"`
	BuyerAddress  string `json:"buyer_address" validate:"required,notblank,max=255"`
	PaymentAmount int64  `json:"payment_amount" validate:"gte=0"`
	MintTo        string `json:"mint_to" validate:"required,notblank,max=255"`
	RefundTo      string `json:"refund_to" validate:"required,notblank,max=255"`
}

// BuyWithDiscountRequest redeems a previously claimed ticket as part of
// the checkout. The ticket must bind to the given template, this shop,
// the buyer address, and (when scoped) the listing being bought.
type BuyWithDiscountRequest struct {
	BuyRequest
	TemplateID uuid.UUID `json:"template_id" validate:"required"`
	TicketID   uuid.UUID `json:"ticket_id" validate:"required"`
}

// ClaimAndBuyRequest claims from the template and redeems in the same
// atomic operation, without persisting an intermediate ticket.
type ClaimAndBuyRequest struct {
	BuyRequest
	TemplateID uuid.UUID `json:"template_id" validate:"required"`
}

// PurchaseResponse reports the settled amounts alongside the receipt.
type PurchaseResponse struct {
	Receipt              Receipt    `json:"receipt"`
	Currency             string     `json:"currency"`
	AmountPaid           int64      `json:"amount_paid"`
	Refunded             int64      `json:"refunded"`
	BasePriceCents       int64      `json:"base_price_cents"`
	DiscountedPriceCents int64      `json:"discounted_price_cents"`
	DiscountTemplateID   *uuid.UUID `json:"discount_template_id,omitempty"`
}
