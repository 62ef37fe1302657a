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

// TicketRepository provides data access for single-use discount
// tickets using pgx.
type TicketRepository struct{}

// NewTicketRepository creates a new TicketRepository.
func NewTicketRepository(_ *pgxpool.Pool) *TicketRepository {
	return &TicketRepository{}
}

// Insert stores a freshly claimed ticket.
func (r *TicketRepository) Insert(ctx context.Context, q database.TxQuerier, ticket *model.DiscountTicket) error {
	_, err := q.Exec(ctx,
		`INSERT INTO discount_tickets (id, template_id, shop_id, listing_id, claimer_address)
		 VALUES ($1, $2, $3, $4, $5)`,
		ticket.ID, ticket.TemplateID, ticket.ShopID, ticket.ListingID, ticket.ClaimerAddress)
	if err != nil {
		return fmt.Errorf("insert ticket: %w", err)
	}
	return nil
}

// GetForUpdate retrieves a ticket with a row lock so two purchases
// cannot redeem it concurrently.
func (r *TicketRepository) GetForUpdate(ctx context.Context, tx database.TxQuerier, id uuid.UUID) (*model.DiscountTicket, error) {
	var ticket model.DiscountTicket
	err := tx.QueryRow(ctx,
		`SELECT id, template_id, shop_id, listing_id, claimer_address, created_at
		 FROM discount_tickets WHERE id = $1 FOR UPDATE`, id).Scan(
		&ticket.ID,
		&ticket.TemplateID,
		&ticket.ShopID,
		&ticket.ListingID,
		&ticket.ClaimerAddress,
		&ticket.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrTicketNotFound
		}
		return nil, fmt.Errorf("get ticket %s for update: %w", id, err)
	}
	return &ticket, nil
}

// Delete consumes a ticket. Runs inside the purchase transaction so a
// failed purchase leaves the ticket intact.
func (r *TicketRepository) Delete(ctx context.Context, tx database.TxQuerier, id uuid.UUID) error {
	tag, err := tx.Exec(ctx, `DELETE FROM discount_tickets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete ticket %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrTicketNotFound
	}
	return nil
}

// ClaimRepository provides data access for claim markers using pgx.
// A marker's existence proves the address has claimed once from the
// template.
type ClaimRepository struct{}

// NewClaimRepository creates a new ClaimRepository.
func NewClaimRepository(_ *pgxpool.Pool) *ClaimRepository {
	return &ClaimRepository{}
}

// Insert writes a claim marker. Returns service.ErrAlreadyClaimed when
// the (template, claimer) pair already exists.
func (r *ClaimRepository) Insert(ctx context.Context, tx database.TxQuerier, templateID uuid.UUID, claimer string) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO discount_claims (template_id, claimer_address) VALUES ($1, $2)`,
		templateID, claimer)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return service.ErrAlreadyClaimed
		}
		return fmt.Errorf("insert claim marker: %w", err)
	}
	return nil
}

// Delete removes a claim marker if present. Idempotent per claimer.
func (r *ClaimRepository) Delete(ctx context.Context, q database.TxQuerier, templateID uuid.UUID, claimer string) error {
	_, err := q.Exec(ctx,
		`DELETE FROM discount_claims WHERE template_id = $1 AND claimer_address = $2`,
		templateID, claimer)
	if err != nil {
		return fmt.Errorf("delete claim marker: %w", err)
	}
	return nil
}
