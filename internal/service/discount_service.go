package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/marketplace-settlement/internal/model"
	"github.com/fairyhunter13/marketplace-settlement/pkg/database"
)

// TicketRepositoryInterface defines the ticket data access the
// services need.
type TicketRepositoryInterface interface {
	Insert(ctx context.Context, q database.TxQuerier, ticket *model.DiscountTicket) error
	GetForUpdate(ctx context.Context, tx database.TxQuerier, id uuid.UUID) (*model.DiscountTicket, error)
	Delete(ctx context.Context, tx database.TxQuerier, id uuid.UUID) error
}

// ClaimRepositoryInterface defines the claim-marker data access the
// services need.
type ClaimRepositoryInterface interface {
	Insert(ctx context.Context, tx database.TxQuerier, templateID uuid.UUID, claimer string) error
	Delete(ctx context.Context, q database.TxQuerier, templateID uuid.UUID, claimer string) error
}

// DiscountService manages discount templates, claim markers and
// single-use tickets.
type DiscountService struct {
	db           DB
	shopRepo     ShopRepositoryInterface
	listingRepo  ListingRepositoryInterface
	templateRepo TemplateRepositoryInterface
	ticketRepo   TicketRepositoryInterface
	claimRepo    ClaimRepositoryInterface
	eventRepo    EventRepositoryInterface
	now          func() int64
}

// NewDiscountService creates a new DiscountService.
func NewDiscountService(db DB, shopRepo ShopRepositoryInterface, listingRepo ListingRepositoryInterface, templateRepo TemplateRepositoryInterface, ticketRepo TicketRepositoryInterface, claimRepo ClaimRepositoryInterface, eventRepo EventRepositoryInterface) *DiscountService {
	return &DiscountService{
		db:           db,
		shopRepo:     shopRepo,
		listingRepo:  listingRepo,
		templateRepo: templateRepo,
		ticketRepo:   ticketRepo,
		claimRepo:    claimRepo,
		eventRepo:    eventRepo,
		now:          func() int64 { return time.Now().Unix() },
	}
}

// WithClock overrides the time source. Used by tests.
func (s *DiscountService) WithClock(now func() int64) *DiscountService {
	s.now = now
	return s
}

// validateRuleAndSchedule checks the rule variant and window ordering
// shared by create and update.
func validateRuleAndSchedule(rule model.DiscountRule, startsAt int64, expiresAt, maxRedemptions *int64) error {
	switch rule.Kind {
	case model.RuleFixed:
		if rule.Value < 0 {
			return ErrInvalidDiscountRule
		}
	case model.RulePercent:
		if rule.Value < 0 || rule.Value > model.MaxPercentBps {
			return ErrInvalidDiscountRule
		}
	default:
		return ErrInvalidDiscountRule
	}
	if expiresAt != nil && *expiresAt <= startsAt {
		return ErrInvalidSchedule
	}
	if maxRedemptions != nil && *maxRedemptions <= 0 {
		return ErrInvalidInput
	}
	return nil
}

// CreateTemplate records a new discount template with zero counters
// and the active flag set.
func (s *DiscountService) CreateTemplate(ctx context.Context, token, shopID uuid.UUID, req *model.CreateTemplateRequest) (*model.DiscountTemplate, error) {
	if req == nil {
		return nil, ErrInvalidInput
	}
	if err := validateRuleAndSchedule(req.Rule, req.StartsAt, req.ExpiresAt, req.MaxRedemptions); err != nil {
		return nil, err
	}
	if err := authorize(ctx, s.db, s.shopRepo, token, shopID); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if req.ListingID != nil {
		listing, err := s.listingRepo.Get(ctx, tx, shopID, *req.ListingID)
		if err != nil {
			return nil, err
		}
		if listing == nil {
			return nil, ErrCrossReferenceMismatch
		}
	}

	tpl := &model.DiscountTemplate{
		ID:             uuid.New(),
		ShopID:         shopID,
		ListingID:      req.ListingID,
		Rule:           req.Rule,
		StartsAt:       req.StartsAt,
		ExpiresAt:      req.ExpiresAt,
		MaxRedemptions: req.MaxRedemptions,
		Active:         true,
	}
	if err := s.templateRepo.Insert(ctx, tx, tpl); err != nil {
		return nil, err
	}
	event := model.TemplateEvent{ShopID: shopID, TemplateID: tpl.ID}
	if err := s.eventRepo.Insert(ctx, tx, shopID, model.EventTemplateCreated, event); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	log.Info().
		Str("shop_id", shopID.String()).
		Str("template_id", tpl.ID.String()).
		Str("rule_kind", string(tpl.Rule.Kind)).
		Msg("discount template created")

	return tpl, nil
}

// UpdateTemplate replaces the rule, schedule and cap. Permitted only
// while no ticket has ever been claimed and the template has not
// finished; afterwards the template is immutable so issued tickets
// keep the terms they were claimed under.
func (s *DiscountService) UpdateTemplate(ctx context.Context, token, shopID, templateID uuid.UUID, req *model.UpdateTemplateRequest) error {
	if req == nil {
		return ErrInvalidInput
	}
	if err := validateRuleAndSchedule(req.Rule, req.StartsAt, req.ExpiresAt, req.MaxRedemptions); err != nil {
		return err
	}
	if err := authorize(ctx, s.db, s.shopRepo, token, shopID); err != nil {
		return err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tpl, err := s.templateRepo.GetForUpdate(ctx, tx, templateID)
	if err != nil {
		return err
	}
	if tpl.ShopID != shopID {
		return ErrCrossReferenceMismatch
	}
	if tpl.ClaimsIssued != 0 || tpl.Redemptions != 0 || tpl.Finished(s.now()) {
		return ErrTemplateFinalized
	}

	tpl.Rule = req.Rule
	tpl.StartsAt = req.StartsAt
	tpl.ExpiresAt = req.ExpiresAt
	tpl.MaxRedemptions = req.MaxRedemptions
	if err := s.templateRepo.Update(ctx, tx, tpl); err != nil {
		return err
	}
	event := model.TemplateEvent{ShopID: shopID, TemplateID: templateID}
	if err := s.eventRepo.Insert(ctx, tx, shopID, model.EventTemplateUpdated, event); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ToggleTemplate flips the active flag. Always allowed; the flag is
// orthogonal to the time-based phase.
func (s *DiscountService) ToggleTemplate(ctx context.Context, token, shopID, templateID uuid.UUID, active bool) error {
	if err := authorize(ctx, s.db, s.shopRepo, token, shopID); err != nil {
		return err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tpl, err := s.templateRepo.GetForUpdate(ctx, tx, templateID)
	if err != nil {
		return err
	}
	if tpl.ShopID != shopID {
		return ErrCrossReferenceMismatch
	}
	if err := s.templateRepo.SetActive(ctx, tx, templateID, active); err != nil {
		return err
	}
	event := model.TemplateEvent{ShopID: shopID, TemplateID: templateID, Active: &active}
	if err := s.eventRepo.Insert(ctx, tx, shopID, model.EventTemplateToggled, event); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// checkClaimable verifies the template currently allows issuing one
// more claim.
func checkClaimable(tpl *model.DiscountTemplate, now int64) error {
	if !tpl.Active {
		return ErrTemplateInactive
	}
	if now < tpl.StartsAt {
		return ErrTemplateTooEarly
	}
	if tpl.Expired(now) {
		return ErrTemplateExpired
	}
	if tpl.ClaimCapReached() {
		return ErrTemplateMaxedOut
	}
	return nil
}

// checkRedeemable verifies the template currently allows one more
// redemption.
func checkRedeemable(tpl *model.DiscountTemplate, now int64) error {
	if !tpl.Active {
		return ErrTemplateInactive
	}
	if now < tpl.StartsAt {
		return ErrTemplateTooEarly
	}
	if tpl.Expired(now) {
		return ErrTemplateExpired
	}
	if tpl.Maxed() {
		return ErrTemplateMaxedOut
	}
	return nil
}

// Claim issues a single-use ticket to the claimer. The claim marker's
// uniqueness enforces one claim per address for the template's whole
// lifetime.
func (s *DiscountService) Claim(ctx context.Context, shopID, templateID uuid.UUID, claimer string) (*model.DiscountTicket, error) {
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

	tpl, err := s.templateRepo.GetForUpdate(ctx, tx, templateID)
	if err != nil {
		return nil, err
	}
	if tpl.ShopID != shopID {
		return nil, ErrCrossReferenceMismatch
	}
	if err := checkClaimable(tpl, s.now()); err != nil {
		return nil, err
	}
	if err := s.claimRepo.Insert(ctx, tx, templateID, claimer); err != nil {
		return nil, err
	}
	if err := s.templateRepo.IncrementClaims(ctx, tx, templateID); err != nil {
		return nil, err
	}

	ticket := &model.DiscountTicket{
		ID:             uuid.New(),
		TemplateID:     templateID,
		ShopID:         shopID,
		ListingID:      tpl.ListingID,
		ClaimerAddress: claimer,
	}
	if err := s.ticketRepo.Insert(ctx, tx, ticket); err != nil {
		return nil, err
	}
	event := model.TicketClaimedEvent{
		ShopID:         shopID,
		TemplateID:     templateID,
		TicketID:       ticket.ID,
		ClaimerAddress: claimer,
	}
	if err := s.eventRepo.Insert(ctx, tx, shopID, model.EventTicketClaimed, event); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	log.Info().
		Str("shop_id", shopID.String()).
		Str("template_id", templateID.String()).
		Str("ticket_id", ticket.ID.String()).
		Msg("discount ticket claimed")

	return ticket, nil
}

// PruneClaims removes claim markers. Only allowed once the template is
// finished or toggled off, so pruning can never weaken the
// one-claim-per-address guarantee of a live promotion. Idempotent per
// claimer.
func (s *DiscountService) PruneClaims(ctx context.Context, token, shopID, templateID uuid.UUID, claimers []string) error {
	if len(claimers) == 0 {
		return ErrInvalidInput
	}
	if err := authorize(ctx, s.db, s.shopRepo, token, shopID); err != nil {
		return err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tpl, err := s.templateRepo.GetForUpdate(ctx, tx, templateID)
	if err != nil {
		return err
	}
	if tpl.ShopID != shopID {
		return ErrCrossReferenceMismatch
	}
	if tpl.Active && !tpl.Finished(s.now()) {
		return ErrClaimsNotPrunable
	}
	for _, claimer := range claimers {
		if err := s.claimRepo.Delete(ctx, tx, templateID, claimer); err != nil {
			return err
		}
	}
	event := model.TemplateEvent{ShopID: shopID, TemplateID: templateID, Pruned: claimers}
	if err := s.eventRepo.Insert(ctx, tx, shopID, model.EventClaimsPruned, event); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
