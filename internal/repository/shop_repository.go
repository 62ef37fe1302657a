package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fairyhunter13/marketplace-settlement/internal/model"
	"github.com/fairyhunter13/marketplace-settlement/internal/service"
	"github.com/fairyhunter13/marketplace-settlement/pkg/database"
)

// ShopRepository provides data access for shops and their
// administrator credentials using pgx.
type ShopRepository struct{}

// NewShopRepository creates a new ShopRepository.
func NewShopRepository(_ *pgxpool.Pool) *ShopRepository {
	return &ShopRepository{}
}

// Insert stores a new shop together with its administrator credential.
// The credential is never readable again through any repository method
// other than the point lookup in ShopIDByCredential.
func (r *ShopRepository) Insert(ctx context.Context, q database.TxQuerier, shop *model.Shop, token uuid.UUID) error {
	_, err := q.Exec(ctx,
		`INSERT INTO shops (id, owner_address, name) VALUES ($1, $2, $3)`,
		shop.ID, shop.OwnerAddress, shop.Name)
	if err != nil {
		return fmt.Errorf("insert shop: %w", err)
	}
	_, err = q.Exec(ctx,
		`INSERT INTO admin_credentials (token, shop_id) VALUES ($1, $2)`,
		token, shop.ID)
	if err != nil {
		return fmt.Errorf("insert credential: %w", err)
	}
	return nil
}

// Get retrieves a shop by id. Returns nil, nil when absent.
func (r *ShopRepository) Get(ctx context.Context, q database.TxQuerier, id uuid.UUID) (*model.Shop, error) {
	query := `SELECT id, owner_address, name, disabled, next_listing_id, created_at
		FROM shops WHERE id = $1`

	var shop model.Shop
	err := q.QueryRow(ctx, query, id).Scan(
		&shop.ID,
		&shop.OwnerAddress,
		&shop.Name,
		&shop.Disabled,
		&shop.NextListingID,
		&shop.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get shop %s: %w", id, err)
	}
	return &shop, nil
}

// ShopIDByCredential resolves an administrator token to the shop it
// was issued for. Returns uuid.Nil, nil when the token is unknown.
func (r *ShopRepository) ShopIDByCredential(ctx context.Context, q database.TxQuerier, token uuid.UUID) (uuid.UUID, error) {
	var shopID uuid.UUID
	err := q.QueryRow(ctx,
		`SELECT shop_id FROM admin_credentials WHERE token = $1`, token).Scan(&shopID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, nil
		}
		return uuid.Nil, fmt.Errorf("resolve credential: %w", err)
	}
	return shopID, nil
}

// SetDisabled permanently disables a shop.
func (r *ShopRepository) SetDisabled(ctx context.Context, q database.TxQuerier, id uuid.UUID) error {
	tag, err := q.Exec(ctx, `UPDATE shops SET disabled = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("disable shop %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrShopNotFound
	}
	return nil
}

// UpdateOwner rotates the shop's payout address.
func (r *ShopRepository) UpdateOwner(ctx context.Context, q database.TxQuerier, id uuid.UUID, owner string) error {
	tag, err := q.Exec(ctx, `UPDATE shops SET owner_address = $2 WHERE id = $1`, id, owner)
	if err != nil {
		return fmt.Errorf("update owner for shop %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrShopNotFound
	}
	return nil
}

// AllocateListingID reserves the next listing id for the shop. Must be
// called within a transaction; the row update serializes concurrent
// allocations so ids stay monotonic and are never reused.
func (r *ShopRepository) AllocateListingID(ctx context.Context, tx database.TxQuerier, shopID uuid.UUID) (int64, error) {
	var next int64
	err := tx.QueryRow(ctx,
		`UPDATE shops SET next_listing_id = next_listing_id + 1
		 WHERE id = $1 RETURNING next_listing_id - 1`, shopID).Scan(&next)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, service.ErrShopNotFound
		}
		return 0, fmt.Errorf("allocate listing id for shop %s: %w", shopID, err)
	}
	return next, nil
}
