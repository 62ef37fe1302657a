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

// ListingRepository provides data access for listings using pgx.
type ListingRepository struct{}

// NewListingRepository creates a new ListingRepository.
func NewListingRepository(_ *pgxpool.Pool) *ListingRepository {
	return &ListingRepository{}
}

const listingColumns = `shop_id, id, item_type, name, base_price_cents, stock, spotlight_template_id, created_at`

func scanListing(row pgx.Row) (*model.Listing, error) {
	var listing model.Listing
	err := row.Scan(
		&listing.ShopID,
		&listing.ID,
		&listing.ItemType,
		&listing.Name,
		&listing.BasePriceCents,
		&listing.Stock,
		&listing.SpotlightTemplateID,
		&listing.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

// Insert stores a new listing.
func (r *ListingRepository) Insert(ctx context.Context, q database.TxQuerier, listing *model.Listing) error {
	_, err := q.Exec(ctx,
		`INSERT INTO listings (shop_id, id, item_type, name, base_price_cents, stock, spotlight_template_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		listing.ShopID, listing.ID, listing.ItemType, listing.Name,
		listing.BasePriceCents, listing.Stock, listing.SpotlightTemplateID)
	if err != nil {
		return fmt.Errorf("insert listing: %w", err)
	}
	return nil
}

// Get retrieves a listing. Returns nil, nil when absent so the service
// layer chooses the error.
func (r *ListingRepository) Get(ctx context.Context, q database.TxQuerier, shopID uuid.UUID, id int64) (*model.Listing, error) {
	row := q.QueryRow(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE shop_id = $1 AND id = $2`,
		shopID, id)
	listing, err := scanListing(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get listing %d: %w", id, err)
	}
	return listing, nil
}

// GetForUpdate retrieves a listing with a row lock, serializing all
// mutations of this listing behind the caller's transaction.
func (r *ListingRepository) GetForUpdate(ctx context.Context, tx database.TxQuerier, shopID uuid.UUID, id int64) (*model.Listing, error) {
	row := tx.QueryRow(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE shop_id = $1 AND id = $2 FOR UPDATE`,
		shopID, id)
	listing, err := scanListing(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrListingNotFound
		}
		return nil, fmt.Errorf("get listing %d for update: %w", id, err)
	}
	return listing, nil
}

// SetStock replaces the stock value. Zero pauses sales.
func (r *ListingRepository) SetStock(ctx context.Context, q database.TxQuerier, shopID uuid.UUID, id, stock int64) error {
	tag, err := q.Exec(ctx,
		`UPDATE listings SET stock = $3 WHERE shop_id = $1 AND id = $2`,
		shopID, id, stock)
	if err != nil {
		return fmt.Errorf("set stock for listing %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrListingNotFound
	}
	return nil
}

// DecrementStock reduces stock by one. Must be called within a
// transaction after GetForUpdate verified stock > 0.
func (r *ListingRepository) DecrementStock(ctx context.Context, tx database.TxQuerier, shopID uuid.UUID, id int64) error {
	_, err := tx.Exec(ctx,
		`UPDATE listings SET stock = stock - 1 WHERE shop_id = $1 AND id = $2`,
		shopID, id)
	if err != nil {
		return fmt.Errorf("decrement stock for listing %d: %w", id, err)
	}
	return nil
}

// Delete removes a listing.
func (r *ListingRepository) Delete(ctx context.Context, q database.TxQuerier, shopID uuid.UUID, id int64) error {
	tag, err := q.Exec(ctx,
		`DELETE FROM listings WHERE shop_id = $1 AND id = $2`, shopID, id)
	if err != nil {
		return fmt.Errorf("delete listing %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrListingNotFound
	}
	return nil
}

// SetSpotlight updates the spotlight pointer; nil clears it.
func (r *ListingRepository) SetSpotlight(ctx context.Context, q database.TxQuerier, shopID uuid.UUID, id int64, templateID *uuid.UUID) error {
	tag, err := q.Exec(ctx,
		`UPDATE listings SET spotlight_template_id = $3 WHERE shop_id = $1 AND id = $2`,
		shopID, id, templateID)
	if err != nil {
		return fmt.Errorf("set spotlight for listing %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrListingNotFound
	}
	return nil
}
