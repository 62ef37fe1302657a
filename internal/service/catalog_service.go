package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/marketplace-settlement/internal/model"
	"github.com/fairyhunter13/marketplace-settlement/pkg/database"
)

// ListingRepositoryInterface defines the listing data access the
// services need.
type ListingRepositoryInterface interface {
	Insert(ctx context.Context, q database.TxQuerier, listing *model.Listing) error
	Get(ctx context.Context, q database.TxQuerier, shopID uuid.UUID, id int64) (*model.Listing, error)
	GetForUpdate(ctx context.Context, tx database.TxQuerier, shopID uuid.UUID, id int64) (*model.Listing, error)
	SetStock(ctx context.Context, q database.TxQuerier, shopID uuid.UUID, id, stock int64) error
	DecrementStock(ctx context.Context, tx database.TxQuerier, shopID uuid.UUID, id int64) error
	Delete(ctx context.Context, q database.TxQuerier, shopID uuid.UUID, id int64) error
	SetSpotlight(ctx context.Context, q database.TxQuerier, shopID uuid.UUID, id int64, templateID *uuid.UUID) error
}

// TemplateRepositoryInterface defines the template data access the
// services need.
type TemplateRepositoryInterface interface {
	Insert(ctx context.Context, q database.TxQuerier, tpl *model.DiscountTemplate) error
	Get(ctx context.Context, q database.TxQuerier, id uuid.UUID) (*model.DiscountTemplate, error)
	GetForUpdate(ctx context.Context, tx database.TxQuerier, id uuid.UUID) (*model.DiscountTemplate, error)
	Update(ctx context.Context, q database.TxQuerier, tpl *model.DiscountTemplate) error
	SetActive(ctx context.Context, q database.TxQuerier, id uuid.UUID, active bool) error
	IncrementClaims(ctx context.Context, tx database.TxQuerier, id uuid.UUID) error
	IncrementRedemptions(ctx context.Context, tx database.TxQuerier, id uuid.UUID) error
	CountActiveForListing(ctx context.Context, q database.TxQuerier, shopID uuid.UUID, listingID int64) (int64, error)
}

// CatalogService provides listing management.
type CatalogService struct {
	db           DB
	shopRepo     ShopRepositoryInterface
	listingRepo  ListingRepositoryInterface
	templateRepo TemplateRepositoryInterface
	eventRepo    EventRepositoryInterface
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(db DB, shopRepo ShopRepositoryInterface, listingRepo ListingRepositoryInterface, templateRepo TemplateRepositoryInterface, eventRepo EventRepositoryInterface) *CatalogService {
	return &CatalogService{
		db:           db,
		shopRepo:     shopRepo,
		listingRepo:  listingRepo,
		templateRepo: templateRepo,
		eventRepo:    eventRepo,
	}
}

// AddListing creates a listing under the shop. The listing id comes
// from the shop's monotonic counter. A spotlight reference must belong
// to this shop and, when listing-scoped, target the id being
// allocated.
func (s *CatalogService) AddListing(ctx context.Context, token, shopID uuid.UUID, req *model.AddListingRequest) (*model.Listing, error) {
	if req == nil || req.BasePriceCents == nil || req.Stock == nil {
		return nil, ErrInvalidInput
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.ItemType) == "" || *req.BasePriceCents <= 0 {
		return nil, ErrInvalidInput
	}
	if *req.Stock == 0 {
		return nil, ErrZeroStock
	}
	if *req.Stock < 0 {
		return nil, ErrInvalidInput
	}
	if err := authorize(ctx, s.db, s.shopRepo, token, shopID); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	id, err := s.shopRepo.AllocateListingID(ctx, tx, shopID)
	if err != nil {
		return nil, err
	}

	if req.SpotlightTemplateID != nil {
		tpl, err := s.templateRepo.Get(ctx, tx, *req.SpotlightTemplateID)
		if err != nil {
			return nil, err
		}
		if tpl == nil || tpl.ShopID != shopID {
			return nil, ErrCrossReferenceMismatch
		}
		if tpl.ListingID != nil && *tpl.ListingID != id {
			return nil, ErrCrossReferenceMismatch
		}
	}

	listing := &model.Listing{
		ShopID:              shopID,
		ID:                  id,
		ItemType:            req.ItemType,
		Name:                req.Name,
		BasePriceCents:      *req.BasePriceCents,
		Stock:               *req.Stock,
		SpotlightTemplateID: req.SpotlightTemplateID,
	}
	if err := s.listingRepo.Insert(ctx, tx, listing); err != nil {
		return nil, err
	}

	event := model.ListingEvent{
		ShopID:    shopID,
		ListingID: id,
		ItemType:  listing.ItemType,
		Name:      listing.Name,
		Stock:     &listing.Stock,
	}
	if err := s.eventRepo.Insert(ctx, tx, shopID, model.EventListingAdded, event); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	log.Info().
		Str("shop_id", shopID.String()).
		Int64("listing_id", id).
		Int64("stock", listing.Stock).
		Msg("listing added")

	return listing, nil
}

// SetStock replaces a listing's stock. Zero pauses sales without
// delisting.
func (s *CatalogService) SetStock(ctx context.Context, token, shopID uuid.UUID, listingID, stock int64) error {
	if stock < 0 {
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

	if err := s.listingRepo.SetStock(ctx, tx, shopID, listingID, stock); err != nil {
		return err
	}
	event := model.ListingEvent{ShopID: shopID, ListingID: listingID, Stock: &stock}
	if err := s.eventRepo.Insert(ctx, tx, shopID, model.EventListingStockSet, event); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// RemoveListing deletes a listing. Removal is rejected while active
// listing-scoped templates still target it, so a live promotion can
// never dangle.
func (s *CatalogService) RemoveListing(ctx context.Context, token, shopID uuid.UUID, listingID int64) error {
	if err := authorize(ctx, s.db, s.shopRepo, token, shopID); err != nil {
		return err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := s.listingRepo.GetForUpdate(ctx, tx, shopID, listingID); err != nil {
		return err
	}
	count, err := s.templateRepo.CountActiveForListing(ctx, tx, shopID, listingID)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrListingHasActiveDiscount
	}
	if err := s.listingRepo.Delete(ctx, tx, shopID, listingID); err != nil {
		return err
	}
	event := model.ListingEvent{ShopID: shopID, ListingID: listingID}
	if err := s.eventRepo.Insert(ctx, tx, shopID, model.EventListingRemoved, event); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// AttachSpotlight points a listing at a discount template. The
// template must belong to this shop and, when listing-scoped, target
// this listing.
func (s *CatalogService) AttachSpotlight(ctx context.Context, token, shopID uuid.UUID, listingID int64, templateID uuid.UUID) error {
	if err := authorize(ctx, s.db, s.shopRepo, token, shopID); err != nil {
		return err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	listing, err := s.listingRepo.GetForUpdate(ctx, tx, shopID, listingID)
	if err != nil {
		return err
	}
	tpl, err := s.templateRepo.Get(ctx, tx, templateID)
	if err != nil {
		return err
	}
	if tpl == nil || tpl.ShopID != shopID {
		return ErrCrossReferenceMismatch
	}
	if tpl.ListingID != nil && *tpl.ListingID != listing.ID {
		return ErrCrossReferenceMismatch
	}
	if err := s.listingRepo.SetSpotlight(ctx, tx, shopID, listingID, &templateID); err != nil {
		return err
	}
	event := model.ListingEvent{ShopID: shopID, ListingID: listingID, TemplateID: &templateID}
	if err := s.eventRepo.Insert(ctx, tx, shopID, model.EventSpotlightAttached, event); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ClearSpotlight removes the listing's spotlight pointer.
func (s *CatalogService) ClearSpotlight(ctx context.Context, token, shopID uuid.UUID, listingID int64) error {
	if err := authorize(ctx, s.db, s.shopRepo, token, shopID); err != nil {
		return err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := s.listingRepo.GetForUpdate(ctx, tx, shopID, listingID); err != nil {
		return err
	}
	if err := s.listingRepo.SetSpotlight(ctx, tx, shopID, listingID, nil); err != nil {
		return err
	}
	event := model.ListingEvent{ShopID: shopID, ListingID: listingID}
	if err := s.eventRepo.Insert(ctx, tx, shopID, model.EventSpotlightCleared, event); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// GetListing retrieves one listing.
func (s *CatalogService) GetListing(ctx context.Context, shopID uuid.UUID, listingID int64) (*model.Listing, error) {
	listing, err := s.listingRepo.Get(ctx, s.db, shopID, listingID)
	if err != nil {
		return nil, err
	}
	if listing == nil {
		return nil, ErrListingNotFound
	}
	return listing, nil
}
