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

// TemplateRepository provides data access for discount templates
// using pgx.
type TemplateRepository struct{}

// NewTemplateRepository creates a new TemplateRepository.
func NewTemplateRepository(_ *pgxpool.Pool) *TemplateRepository {
	return &TemplateRepository{}
}

const templateColumns = `id, shop_id, listing_id, rule_kind, rule_value, starts_at, expires_at,
	max_redemptions, claims_issued, redemptions, active, created_at`

func scanTemplate(row pgx.Row) (*model.DiscountTemplate, error) {
	var tpl model.DiscountTemplate
	err := row.Scan(
		&tpl.ID,
		&tpl.ShopID,
		&tpl.ListingID,
		&tpl.Rule.Kind,
		&tpl.Rule.Value,
		&tpl.StartsAt,
		&tpl.ExpiresAt,
		&tpl.MaxRedemptions,
		&tpl.ClaimsIssued,
		&tpl.Redemptions,
		&tpl.Active,
		&tpl.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}

// Insert stores a new discount template.
func (r *TemplateRepository) Insert(ctx context.Context, q database.TxQuerier, tpl *model.DiscountTemplate) error {
	_, err := q.Exec(ctx,
		`INSERT INTO discount_templates
		 (id, shop_id, listing_id, rule_kind, rule_value, starts_at, expires_at, max_redemptions, active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		tpl.ID, tpl.ShopID, tpl.ListingID, tpl.Rule.Kind, tpl.Rule.Value,
		tpl.StartsAt, tpl.ExpiresAt, tpl.MaxRedemptions, tpl.Active)
	if err != nil {
		return fmt.Errorf("insert template: %w", err)
	}
	return nil
}

// Get retrieves a template. Returns nil, nil when absent.
func (r *TemplateRepository) Get(ctx context.Context, q database.TxQuerier, id uuid.UUID) (*model.DiscountTemplate, error) {
	row := q.QueryRow(ctx,
		`SELECT `+templateColumns+` FROM discount_templates WHERE id = $1`, id)
	tpl, err := scanTemplate(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get template %s: %w", id, err)
	}
	return tpl, nil
}

// GetForUpdate retrieves a template with a row lock, serializing all
// claim and redemption accounting for this template.
func (r *TemplateRepository) GetForUpdate(ctx context.Context, tx database.TxQuerier, id uuid.UUID) (*model.DiscountTemplate, error) {
	row := tx.QueryRow(ctx,
		`SELECT `+templateColumns+` FROM discount_templates WHERE id = $1 FOR UPDATE`, id)
	tpl, err := scanTemplate(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrTemplateNotFound
		}
		return nil, fmt.Errorf("get template %s for update: %w", id, err)
	}
	return tpl, nil
}

// Update replaces the rule, schedule and cap. The service enforces
// that no claims exist yet.
func (r *TemplateRepository) Update(ctx context.Context, q database.TxQuerier, tpl *model.DiscountTemplate) error {
	_, err := q.Exec(ctx,
		`UPDATE discount_templates
		 SET rule_kind = $2, rule_value = $3, starts_at = $4, expires_at = $5, max_redemptions = $6
		 WHERE id = $1`,
		tpl.ID, tpl.Rule.Kind, tpl.Rule.Value, tpl.StartsAt, tpl.ExpiresAt, tpl.MaxRedemptions)
	if err != nil {
		return fmt.Errorf("update template %s: %w", tpl.ID, err)
	}
	return nil
}

// SetActive flips the administrator-controlled active flag.
func (r *TemplateRepository) SetActive(ctx context.Context, q database.TxQuerier, id uuid.UUID, active bool) error {
	tag, err := q.Exec(ctx,
		`UPDATE discount_templates SET active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("toggle template %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrTemplateNotFound
	}
	return nil
}

// IncrementClaims bumps the issued-claim counter. Must run inside the
// transaction that locked the template.
func (r *TemplateRepository) IncrementClaims(ctx context.Context, tx database.TxQuerier, id uuid.UUID) error {
	_, err := tx.Exec(ctx,
		`UPDATE discount_templates SET claims_issued = claims_issued + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment claims for template %s: %w", id, err)
	}
	return nil
}

// IncrementRedemptions bumps the redemption counter. Must run inside
// the transaction that locked the template.
func (r *TemplateRepository) IncrementRedemptions(ctx context.Context, tx database.TxQuerier, id uuid.UUID) error {
	_, err := tx.Exec(ctx,
		`UPDATE discount_templates SET redemptions = redemptions + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment redemptions for template %s: %w", id, err)
	}
	return nil
}

// CountActiveForListing counts active templates scoped to the given
// listing. Used to block listing removal while promotions target it.
func (r *TemplateRepository) CountActiveForListing(ctx context.Context, q database.TxQuerier, shopID uuid.UUID, listingID int64) (int64, error) {
	var count int64
	err := q.QueryRow(ctx,
		`SELECT COUNT(*) FROM discount_templates
		 WHERE shop_id = $1 AND listing_id = $2 AND active`, shopID, listingID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count templates for listing %d: %w", listingID, err)
	}
	return count, nil
}
