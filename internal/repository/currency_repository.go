package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fairyhunter13/marketplace-settlement/internal/model"
	"github.com/fairyhunter13/marketplace-settlement/internal/service"
	"github.com/fairyhunter13/marketplace-settlement/pkg/database"
)

// CurrencyRepository provides data access for accepted currencies
// using pgx.
type CurrencyRepository struct{}

// NewCurrencyRepository creates a new CurrencyRepository.
func NewCurrencyRepository(_ *pgxpool.Pool) *CurrencyRepository {
	return &CurrencyRepository{}
}

// Insert stores a new accepted currency. Returns
// service.ErrCurrencyAlreadyRegistered on a duplicate (shop, currency)
// key.
func (r *CurrencyRepository) Insert(ctx context.Context, q database.TxQuerier, entry *model.AcceptedCurrency) error {
	_, err := q.Exec(ctx,
		`INSERT INTO accepted_currencies
		 (shop_id, currency, feed_id, oracle_object_id, decimals, symbol,
		  max_price_age_secs, max_conf_ratio_bps, max_status_lag_secs)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		entry.ShopID, entry.Currency, entry.FeedID, entry.OracleObjectID,
		entry.Decimals, entry.Symbol,
		entry.MaxPriceAgeSecs, entry.MaxConfRatioBps, entry.MaxStatusLagSecs)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return service.ErrCurrencyAlreadyRegistered
		}
		return fmt.Errorf("insert currency: %w", err)
	}
	return nil
}

// Get retrieves the entry for a currency. Returns nil, nil when the
// shop does not accept the currency.
func (r *CurrencyRepository) Get(ctx context.Context, q database.TxQuerier, shopID uuid.UUID, currency string) (*model.AcceptedCurrency, error) {
	query := `SELECT shop_id, currency, feed_id, oracle_object_id, decimals, symbol,
		max_price_age_secs, max_conf_ratio_bps, max_status_lag_secs, created_at
		FROM accepted_currencies WHERE shop_id = $1 AND currency = $2`

	var entry model.AcceptedCurrency
	err := q.QueryRow(ctx, query, shopID, currency).Scan(
		&entry.ShopID,
		&entry.Currency,
		&entry.FeedID,
		&entry.OracleObjectID,
		&entry.Decimals,
		&entry.Symbol,
		&entry.MaxPriceAgeSecs,
		&entry.MaxConfRatioBps,
		&entry.MaxStatusLagSecs,
		&entry.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get currency %s: %w", currency, err)
	}
	return &entry, nil
}

// Delete removes the entry for a currency.
func (r *CurrencyRepository) Delete(ctx context.Context, q database.TxQuerier, shopID uuid.UUID, currency string) error {
	tag, err := q.Exec(ctx,
		`DELETE FROM accepted_currencies WHERE shop_id = $1 AND currency = $2`,
		shopID, currency)
	if err != nil {
		return fmt.Errorf("delete currency %s: %w", currency, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrCurrencyNotFound
	}
	return nil
}
