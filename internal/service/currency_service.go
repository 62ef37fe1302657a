package service

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/marketplace-settlement/internal/model"
	"github.com/fairyhunter13/marketplace-settlement/internal/pricing"
	"github.com/fairyhunter13/marketplace-settlement/pkg/database"
)

// CurrencyRepositoryInterface defines the accepted-currency data
// access the services need.
type CurrencyRepositoryInterface interface {
	Insert(ctx context.Context, q database.TxQuerier, entry *model.AcceptedCurrency) error
	Get(ctx context.Context, q database.TxQuerier, shopID uuid.UUID, currency string) (*model.AcceptedCurrency, error)
	Delete(ctx context.Context, q database.TxQuerier, shopID uuid.UUID, currency string) error
}

// CurrencyService manages the set of payment currencies a shop
// accepts.
type CurrencyService struct {
	db           DB
	shopRepo     ShopRepositoryInterface
	currencyRepo CurrencyRepositoryInterface
	eventRepo    EventRepositoryInterface
}

// NewCurrencyService creates a new CurrencyService.
func NewCurrencyService(db DB, shopRepo ShopRepositoryInterface, currencyRepo CurrencyRepositoryInterface, eventRepo EventRepositoryInterface) *CurrencyService {
	return &CurrencyService{db: db, shopRepo: shopRepo, currencyRepo: currencyRepo, eventRepo: eventRepo}
}

// ParseFeedID decodes a hex feed identifier and enforces the exact
// 32-byte length.
func ParseFeedID(raw string) ([]byte, error) {
	decoded, err := hex.DecodeString(raw)
	if err != nil || len(decoded) != model.FeedIDLength {
		return nil, ErrInvalidFeedID
	}
	return decoded, nil
}

// Register accepts a new payment currency. Guardrail overrides may
// only tighten the module-wide ceilings; a zero override is rejected
// outright rather than silently disabling the check.
func (s *CurrencyService) Register(ctx context.Context, token, shopID uuid.UUID, req *model.RegisterCurrencyRequest) (*model.AcceptedCurrency, error) {
	if req == nil || req.Decimals == nil {
		return nil, ErrInvalidInput
	}
	feedID, err := ParseFeedID(req.FeedID)
	if err != nil {
		return nil, err
	}
	if *req.Decimals > pricing.MaxScalingPower {
		return nil, ErrUnsupportedDecimals
	}
	for _, override := range []*int64{req.MaxPriceAgeSecs, req.MaxConfRatioBps, req.MaxStatusLagSecs} {
		if override != nil && *override <= 0 {
			return nil, ErrInvalidGuardrailCap
		}
	}
	if err := authorize(ctx, s.db, s.shopRepo, token, shopID); err != nil {
		return nil, err
	}

	entry := &model.AcceptedCurrency{
		ShopID:           shopID,
		Currency:         req.Currency,
		FeedID:           feedID,
		OracleObjectID:   req.OracleObjectID,
		Decimals:         *req.Decimals,
		Symbol:           req.Symbol,
		MaxPriceAgeSecs:  pricing.ResolveCap(req.MaxPriceAgeSecs, pricing.DefaultMaxPriceAgeSecs),
		MaxConfRatioBps:  pricing.ResolveCap(req.MaxConfRatioBps, pricing.DefaultMaxConfRatioBps),
		MaxStatusLagSecs: pricing.ResolveCap(req.MaxStatusLagSecs, pricing.DefaultMaxStatusLagSecs),
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.currencyRepo.Insert(ctx, tx, entry); err != nil {
		return nil, err
	}
	event := model.CurrencyEvent{
		ShopID:   shopID,
		Currency: entry.Currency,
		FeedID:   hex.EncodeToString(entry.FeedID),
		Decimals: entry.Decimals,
	}
	if err := s.eventRepo.Insert(ctx, tx, shopID, model.EventCurrencyAdded, event); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	log.Info().
		Str("shop_id", shopID.String()).
		Str("currency", entry.Currency).
		Uint8("decimals", entry.Decimals).
		Msg("currency registered")

	return entry, nil
}

// Deregister stops accepting a currency.
func (s *CurrencyService) Deregister(ctx context.Context, token, shopID uuid.UUID, currency string) error {
	if err := authorize(ctx, s.db, s.shopRepo, token, shopID); err != nil {
		return err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.currencyRepo.Delete(ctx, tx, shopID, currency); err != nil {
		return err
	}
	event := model.CurrencyEvent{ShopID: shopID, Currency: currency}
	if err := s.eventRepo.Insert(ctx, tx, shopID, model.EventCurrencyRemoved, event); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
