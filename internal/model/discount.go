package model

import (
	"time"

	"github.com/google/uuid"
)

// RuleKind discriminates the two discount rule variants.
type RuleKind string

const (
	// RuleFixed subtracts a fixed number of cents, floored at zero.
	RuleFixed RuleKind = "fixed"
	// RulePercent keeps (10000-bps)/10000 of the base price, rounded up.
	RulePercent RuleKind = "percent"
)

// MaxPercentBps is the full-discount upper bound for percent rules.
const MaxPercentBps = 10000

// DiscountRule is the tagged pair (kind, value): cents for fixed rules,
// basis points for percent rules.
type DiscountRule struct {
	Kind  RuleKind `json:"kind" validate:"required,oneof=fixed percent"`
	Value int64    `json:"value" validate:"gte=0"`
}

// DiscountTemplate is a promotion: a rule, a schedule window, an
// optional redemption cap, and the two counters that track its
// lifecycle. Redemptions never exceed ClaimsIssued.
type DiscountTemplate struct {
	ID             uuid.UUID    `json:"id"`
	ShopID         uuid.UUID    `json:"shop_id"`
	ListingID      *int64       `json:"listing_id,omitempty"`
	Rule           DiscountRule `json:"rule"`
	StartsAt       int64        `json:"starts_at"`
	ExpiresAt      *int64       `json:"expires_at,omitempty"`
	MaxRedemptions *int64       `json:"max_redemptions,omitempty"`
	ClaimsIssued   int64        `json:"claims_issued"`
	Redemptions    int64        `json:"redemptions"`
	Active         bool         `json:"active"`
	CreatedAt      time.Time    `json:"-"`
}

// Expired reports whether the template's expiry has passed.
func (t *DiscountTemplate) Expired(now int64) bool {
	return t.ExpiresAt != nil && now >= *t.ExpiresAt
}

// Maxed reports whether the redemption cap has been reached.
func (t *DiscountTemplate) Maxed() bool {
	return t.MaxRedemptions != nil && t.Redemptions >= *t.MaxRedemptions
}

// Finished reports whether the template has permanently ended: expired
// or redeemed up to its cap. A finished template can no longer be
// updated, claimed from, or redeemed, and its claim markers become
// prunable.
func (t *DiscountTemplate) Finished(now int64) bool {
	return t.Expired(now) || t.Maxed()
}

// ClaimCapReached reports whether issuing one more claim would push
// either counter past the redemption cap.
func (t *DiscountTemplate) ClaimCapReached() bool {
	if t.MaxRedemptions == nil {
		return false
	}
	return t.ClaimsIssued >= *t.MaxRedemptions || t.Redemptions >= *t.MaxRedemptions
}

// DiscountTicket is the single-use token a successful claim produces.
// It is transferable as a record, but redemption requires the buyer
// address to equal ClaimerAddress. Consumed (deleted) exactly once, at
// the end of a successful purchase.
type DiscountTicket struct {
	ID             uuid.UUID `json:"id"`
	TemplateID     uuid.UUID `json:"template_id"`
	ShopID         uuid.UUID `json:"shop_id"`
	ListingID      *int64    `json:"listing_id,omitempty"`
	ClaimerAddress string    `json:"claimer_address"`
	CreatedAt      time.Time `json:"-"`
}

// CreateTemplateRequest is the DTO for creating a discount template.
type CreateTemplateRequest struct {
	ListingID      *int64       `json:"listing_id"`
	Rule           DiscountRule `json:"rule"`
	StartsAt       int64        `json:"starts_at"`
	ExpiresAt      *int64       `json:"expires_at"`
	MaxRedemptions *int64       `json:"max_redemptions"`
}

// UpdateTemplateRequest replaces a template's rule, schedule and cap.
// Only permitted while no claim has been issued and the template has
// not finished.
type UpdateTemplateRequest struct {
	Rule           DiscountRule `json:"rule"`
	StartsAt       int64        `json:"starts_at"`
	ExpiresAt      *int64       `json:"expires_at"`
	MaxRedemptions *int64       `json:"max_redemptions"`
}

// ToggleTemplateRequest flips the administrator-controlled active flag.
type ToggleTemplateRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// ClaimTicketRequest is the DTO for claiming a discount ticket.
type ClaimTicketRequest struct {
	ClaimerAddress string `json:"claimer_address" validate:"required,notblank,max=255"`
}

// PruneClaimsRequest lists the claim markers to drop once the owning
// template is finished or toggled off.
type PruneClaimsRequest struct {
	Claimers []string `json:"claimers" validate:"required,min=1,dive,required,notblank,max=255"`
}
