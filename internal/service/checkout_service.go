package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/marketplace-settlement/internal/model"
	"github.com/fairyhunter13/marketplace-settlement/internal/pricing"
	"github.com/fairyhunter13/marketplace-settlement/pkg/database"
)

// ReceiptRepositoryInterface defines the receipt data access the
// services need.
type ReceiptRepositoryInterface interface {
	Insert(ctx context.Context, tx database.TxQuerier, receipt *model.Receipt) error
}

// TransferRepositoryInterface defines the payment-ledger data access
// the services need.
type TransferRepositoryInterface interface {
	Insert(ctx context.Context, tx database.TxQuerier, transfer *model.Transfer) error
}

// CheckoutService settles purchases. Every checkout variant runs as a
// single transaction: stock, discount counters, ticket consumption,
// receipt and both transfer legs land together or not at all.
type CheckoutService struct {
	db           DB
	shopRepo     ShopRepositoryInterface
	listingRepo  ListingRepositoryInterface
	currencyRepo CurrencyRepositoryInterface
	templateRepo TemplateRepositoryInterface
	ticketRepo   TicketRepositoryInterface
	claimRepo    ClaimRepositoryInterface
	receiptRepo  ReceiptRepositoryInterface
	transferRepo TransferRepositoryInterface
	eventRepo    EventRepositoryInterface
	now          func() int64
}

// NewCheckoutService creates a new CheckoutService.
func NewCheckoutService(
	db DB,
	shopRepo ShopRepositoryInterface,
	listingRepo ListingRepositoryInterface,
	currencyRepo CurrencyRepositoryInterface,
	templateRepo TemplateRepositoryInterface,
	ticketRepo TicketRepositoryInterface,
	claimRepo ClaimRepositoryInterface,
	receiptRepo ReceiptRepositoryInterface,
	transferRepo TransferRepositoryInterface,
	eventRepo EventRepositoryInterface,
) *CheckoutService {
	return &CheckoutService{
		db:           db,
		shopRepo:     shopRepo,
		listingRepo:  listingRepo,
		currencyRepo: currencyRepo,
		templateRepo: templateRepo,
		ticketRepo:   ticketRepo,
		claimRepo:    claimRepo,
		receiptRepo:  receiptRepo,
		transferRepo: transferRepo,
		eventRepo:    eventRepo,
		now:          func() int64 { return time.Now().Unix() },
	}
}

// WithClock overrides the time source. Used by tests.
func (s *CheckoutService) WithClock(now func() int64) *CheckoutService {
	s.now = now
	return s
}

// resolveGuardrails narrows the seller's registered ceilings by the
// buyer's per-request overrides. Overrides only ever tighten.
func resolveGuardrails(entry *model.AcceptedCurrency, overrides model.GuardrailOverrides) pricing.Guardrails {
	return pricing.Guardrails{
		MaxPriceAgeSecs:  pricing.ResolveCap(overrides.MaxPriceAgeSecs, entry.MaxPriceAgeSecs),
		MaxConfRatioBps:  pricing.ResolveCap(overrides.MaxConfRatioBps, entry.MaxConfRatioBps),
		MaxStatusLagSecs: pricing.ResolveCap(overrides.MaxStatusLagSecs, entry.MaxStatusLagSecs),
	}
}

// checkOracleIdentity verifies the caller-supplied feed and oracle
// object against the registered entry, so a quote can never be settled
// against a feed other than the one the seller registered.
func checkOracleIdentity(entry *model.AcceptedCurrency, feedID, oracleObjectID string) error {
	decoded, err := ParseFeedID(feedID)
	if err != nil {
		return err
	}
	if !bytes.Equal(decoded, entry.FeedID) {
		return ErrFeedIdentifierMismatch
	}
	if oracleObjectID != entry.OracleObjectID {
		return ErrOracleObjectMismatch
	}
	return nil
}

func observation(o model.PriceObservation) pricing.Observation {
	return pricing.Observation{
		Price:           o.Price,
		Conf:            o.Conf,
		Expo:            o.Expo,
		PublishTime:     o.PublishTime,
		AttestationTime: o.AttestationTime,
	}
}

// PreviewQuote runs the full oracle validation and conversion without
// touching any state. The result is advisory: the settling price is
// recomputed inside the purchase transaction.
func (s *CheckoutService) PreviewQuote(ctx context.Context, shopID uuid.UUID, req *model.QuoteRequest) (*model.QuoteResponse, error) {
	if req == nil {
		return nil, ErrInvalidInput
	}
	shop, err := s.shopRepo.Get(ctx, s.db, shopID)
	if err != nil {
		return nil, err
	}
	if shop == nil {
		return nil, ErrShopNotFound
	}
	if shop.Disabled {
		return nil, ErrShopDisabled
	}
	listing, err := s.listingRepo.Get(ctx, s.db, shopID, req.ListingID)
	if err != nil {
		return nil, err
	}
	if listing == nil {
		return nil, ErrListingNotFound
	}
	entry, err := s.currencyRepo.Get(ctx, s.db, shopID, req.Currency)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, ErrCurrencyNotFound
	}
	if err := checkOracleIdentity(entry, req.FeedID, req.OracleObjectID); err != nil {
		return nil, err
	}

	guards := resolveGuardrails(entry, req.Guardrails)
	amount, err := pricing.Quote(listing.BasePriceCents, entry.Decimals, observation(req.Observation), guards, s.now())
	if err != nil {
		return nil, err
	}
	return &model.QuoteResponse{
		ListingID:      req.ListingID,
		Currency:       req.Currency,
		BasePriceCents: listing.BasePriceCents,
		QuoteAmount:    amount,
	}, nil
}

// discountPlan selects the discount variant of a checkout. The zero
// plan means no discount.
type discountPlan struct {
	templateID uuid.UUID
	ticketID   uuid.UUID
	// claim issues the claim marker in the same transaction instead of
	// consuming a previously persisted ticket.
	claim bool
}

// Buy settles a plain checkout at the listing's base price.
func (s *CheckoutService) Buy(ctx context.Context, shopID uuid.UUID, req *model.BuyRequest) (*model.PurchaseResponse, error) {
	return s.buy(ctx, shopID, req, nil)
}

// BuyWithDiscount settles a checkout that redeems a previously claimed
// ticket. The ticket is consumed atomically with the purchase; a failed
// purchase leaves it intact.
func (s *CheckoutService) BuyWithDiscount(ctx context.Context, shopID uuid.UUID, req *model.BuyWithDiscountRequest) (*model.PurchaseResponse, error) {
	if req == nil {
		return nil, ErrInvalidInput
	}
	return s.buy(ctx, shopID, &req.BuyRequest, &discountPlan{templateID: req.TemplateID, ticketID: req.TicketID})
}

// ClaimAndBuy claims from the template and redeems in one transaction.
// No ticket is persisted; the claim marker and both counters still
// advance, so the address spends its one claim here.
func (s *CheckoutService) ClaimAndBuy(ctx context.Context, shopID uuid.UUID, req *model.ClaimAndBuyRequest) (*model.PurchaseResponse, error) {
	if req == nil {
		return nil, ErrInvalidInput
	}
	return s.buy(ctx, shopID, &req.BuyRequest, &discountPlan{templateID: req.TemplateID, claim: true})
}

func (s *CheckoutService) buy(ctx context.Context, shopID uuid.UUID, req *model.BuyRequest, plan *discountPlan) (*model.PurchaseResponse, error) {
	if req == nil {
		return nil, ErrInvalidInput
	}
	now := s.now()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	shop, err := s.shopRepo.Get(ctx, tx, shopID)
	if err != nil {
		return nil, err
	}
	if shop == nil {
		return nil, ErrShopNotFound
	}
	if shop.Disabled {
		return nil, ErrShopDisabled
	}

	listing, err := s.listingRepo.GetForUpdate(ctx, tx, shopID, req.ListingID)
	if err != nil {
		return nil, err
	}
	if listing.ItemType != req.ItemType {
		return nil, ErrItemTypeMismatch
	}
	if listing.Stock <= 0 {
		return nil, ErrOutOfStock
	}

	price := listing.BasePriceCents
	var discountTemplateID *uuid.UUID
	if plan != nil {
		price, err = s.applyDiscountPlan(ctx, tx, shopID, req, plan, listing.BasePriceCents, now)
		if err != nil {
			return nil, err
		}
		discountTemplateID = &plan.templateID
	}

	entry, err := s.currencyRepo.Get(ctx, tx, shopID, req.Currency)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, ErrCurrencyNotFound
	}
	if err := checkOracleIdentity(entry, req.FeedID, req.OracleObjectID); err != nil {
		return nil, err
	}
	guards := resolveGuardrails(entry, req.Guardrails)
	quoteAmount, err := pricing.Quote(price, entry.Decimals, observation(req.Observation), guards, now)
	if err != nil {
		return nil, err
	}
	if req.PaymentAmount < quoteAmount {
		return nil, ErrInsufficientPayment
	}

	if plan != nil {
		if err := s.settleDiscountPlan(ctx, tx, plan); err != nil {
			return nil, err
		}
	}
	if err := s.listingRepo.DecrementStock(ctx, tx, shopID, req.ListingID); err != nil {
		return nil, err
	}

	receipt := model.Receipt{
		ID:         uuid.New(),
		ShopID:     shopID,
		ListingID:  req.ListingID,
		ItemType:   listing.ItemType,
		Name:       listing.Name,
		MintTo:     req.MintTo,
		AcquiredAt: time.Unix(now, 0).UTC(),
	}
	if err := s.receiptRepo.Insert(ctx, tx, &receipt); err != nil {
		return nil, err
	}

	refunded := req.PaymentAmount - quoteAmount
	payout := model.Transfer{
		ID:        uuid.New(),
		ReceiptID: receipt.ID,
		Kind:      model.TransferPayout,
		ToAddress: shop.OwnerAddress,
		Currency:  req.Currency,
		Amount:    quoteAmount,
	}
	if err := s.transferRepo.Insert(ctx, tx, &payout); err != nil {
		return nil, err
	}
	// The refund leg is written even when zero so every receipt has
	// both legs of the split on the ledger.
	refund := model.Transfer{
		ID:        uuid.New(),
		ReceiptID: receipt.ID,
		Kind:      model.TransferRefund,
		ToAddress: req.RefundTo,
		Currency:  req.Currency,
		Amount:    refunded,
	}
	if err := s.transferRepo.Insert(ctx, tx, &refund); err != nil {
		return nil, err
	}

	event := model.PurchaseCompletedEvent{
		ShopID:               shopID,
		ListingID:            req.ListingID,
		ReceiptID:            receipt.ID,
		Buyer:                req.BuyerAddress,
		Currency:             req.Currency,
		AmountPaid:           req.PaymentAmount,
		BasePriceCents:       listing.BasePriceCents,
		DiscountedPriceCents: price,
		DiscountTemplateID:   discountTemplateID,
		FeedID:               req.FeedID,
	}
	if err := s.eventRepo.Insert(ctx, tx, shopID, model.EventPurchaseCompleted, event); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	log.Info().
		Str("shop_id", shopID.String()).
		Int64("listing_id", req.ListingID).
		Str("receipt_id", receipt.ID.String()).
		Str("currency", req.Currency).
		Int64("amount", quoteAmount).
		Int64("refunded", refunded).
		Msg("purchase settled")

	return &model.PurchaseResponse{
		Receipt:              receipt,
		Currency:             req.Currency,
		AmountPaid:           req.PaymentAmount,
		Refunded:             refunded,
		BasePriceCents:       listing.BasePriceCents,
		DiscountedPriceCents: price,
		DiscountTemplateID:   discountTemplateID,
	}, nil
}

// applyDiscountPlan validates the discount path and returns the
// discounted price. For the ticket variant it checks the ticket's four
// bindings; for the claim variant it inserts the claim marker, whose
// uniqueness rejects a second claim by the same address.
func (s *CheckoutService) applyDiscountPlan(ctx context.Context, tx database.TxQuerier, shopID uuid.UUID, req *model.BuyRequest, plan *discountPlan, basePriceCents, now int64) (int64, error) {
	if !plan.claim {
		ticket, err := s.ticketRepo.GetForUpdate(ctx, tx, plan.ticketID)
		if err != nil {
			return 0, err
		}
		if ticket.TemplateID != plan.templateID || ticket.ShopID != shopID {
			return 0, ErrDiscountMismatch
		}
		if ticket.ListingID != nil && *ticket.ListingID != req.ListingID {
			return 0, ErrDiscountMismatch
		}
		if ticket.ClaimerAddress != req.BuyerAddress {
			return 0, ErrTicketClaimerMismatch
		}
	}

	tpl, err := s.templateRepo.GetForUpdate(ctx, tx, plan.templateID)
	if err != nil {
		return 0, err
	}
	if tpl.ShopID != shopID {
		return 0, ErrCrossReferenceMismatch
	}
	if tpl.ListingID != nil && *tpl.ListingID != req.ListingID {
		return 0, ErrDiscountMismatch
	}
	if plan.claim {
		if err := checkClaimable(tpl, now); err != nil {
			return 0, err
		}
		if err := s.claimRepo.Insert(ctx, tx, plan.templateID, req.BuyerAddress); err != nil {
			return 0, err
		}
	}
	if err := checkRedeemable(tpl, now); err != nil {
		return 0, err
	}
	return pricing.ApplyDiscount(basePriceCents, tpl.Rule), nil
}

// settleDiscountPlan performs the discount side effects once payment
// has cleared: counters advance and a redeemed ticket is consumed.
func (s *CheckoutService) settleDiscountPlan(ctx context.Context, tx database.TxQuerier, plan *discountPlan) error {
	if plan.claim {
		if err := s.templateRepo.IncrementClaims(ctx, tx, plan.templateID); err != nil {
			return err
		}
	} else {
		if err := s.ticketRepo.Delete(ctx, tx, plan.ticketID); err != nil {
			return err
		}
	}
	return s.templateRepo.IncrementRedemptions(ctx, tx, plan.templateID)
}
