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

// ShopRepositoryInterface defines the shop and credential data access
// the services need.
type ShopRepositoryInterface interface {
	CredentialResolver
	Insert(ctx context.Context, q database.TxQuerier, shop *model.Shop, token uuid.UUID) error
	Get(ctx context.Context, q database.TxQuerier, id uuid.UUID) (*model.Shop, error)
	SetDisabled(ctx context.Context, q database.TxQuerier, id uuid.UUID) error
	UpdateOwner(ctx context.Context, q database.TxQuerier, id uuid.UUID, owner string) error
	AllocateListingID(ctx context.Context, tx database.TxQuerier, shopID uuid.UUID) (int64, error)
}

// ShopService provides shop lifecycle and credential issuance.
type ShopService struct {
	db        DB
	shopRepo  ShopRepositoryInterface
	eventRepo EventRepositoryInterface
}

// NewShopService creates a new ShopService.
func NewShopService(db DB, shopRepo ShopRepositoryInterface, eventRepo EventRepositoryInterface) *ShopService {
	return &ShopService{db: db, shopRepo: shopRepo, eventRepo: eventRepo}
}

// Create registers a shop and issues its administrator credential. The
// credential token is returned exactly once; it cannot be recovered.
func (s *ShopService) Create(ctx context.Context, req *model.CreateShopRequest) (*model.CreateShopResponse, error) {
	if req == nil || strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.OwnerAddress) == "" {
		return nil, ErrInvalidInput
	}

	shop := &model.Shop{
		ID:           uuid.New(),
		OwnerAddress: req.OwnerAddress,
		Name:         req.Name,
	}
	token := uuid.New()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.shopRepo.Insert(ctx, tx, shop, token); err != nil {
		return nil, err
	}
	event := model.ShopEvent{ShopID: shop.ID, Name: shop.Name, OwnerAddress: shop.OwnerAddress}
	if err := s.eventRepo.Insert(ctx, tx, shop.ID, model.EventShopCreated, event); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	log.Info().
		Str("shop_id", shop.ID.String()).
		Str("name", shop.Name).
		Msg("shop created")

	return &model.CreateShopResponse{
		ID:           shop.ID,
		Name:         shop.Name,
		OwnerAddress: shop.OwnerAddress,
		AdminToken:   token,
	}, nil
}

// Disable permanently disables a shop. All future checkouts and claims
// abort; administrative reads keep working.
func (s *ShopService) Disable(ctx context.Context, token, shopID uuid.UUID) error {
	if err := authorize(ctx, s.db, s.shopRepo, token, shopID); err != nil {
		return err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.shopRepo.SetDisabled(ctx, tx, shopID); err != nil {
		return err
	}
	if err := s.eventRepo.Insert(ctx, tx, shopID, model.EventShopDisabled, model.ShopEvent{ShopID: shopID}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// UpdateOwner rotates the payout address.
func (s *ShopService) UpdateOwner(ctx context.Context, token, shopID uuid.UUID, req *model.UpdateOwnerRequest) error {
	if req == nil || strings.TrimSpace(req.OwnerAddress) == "" {
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

	if err := s.shopRepo.UpdateOwner(ctx, tx, shopID, req.OwnerAddress); err != nil {
		return err
	}
	event := model.ShopEvent{ShopID: shopID, OwnerAddress: req.OwnerAddress}
	if err := s.eventRepo.Insert(ctx, tx, shopID, model.EventOwnerUpdated, event); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Get retrieves a shop record. Reads stay available after disabling.
func (s *ShopService) Get(ctx context.Context, shopID uuid.UUID) (*model.Shop, error) {
	shop, err := s.shopRepo.Get(ctx, s.db, shopID)
	if err != nil {
		return nil, err
	}
	if shop == nil {
		return nil, ErrShopNotFound
	}
	return shop, nil
}
