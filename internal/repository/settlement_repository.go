package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fairyhunter13/marketplace-settlement/internal/model"
	"github.com/fairyhunter13/marketplace-settlement/pkg/database"
)

// ReceiptRepository provides data access for purchase receipts.
type ReceiptRepository struct{}

// NewReceiptRepository creates a new ReceiptRepository.
func NewReceiptRepository(_ *pgxpool.Pool) *ReceiptRepository {
	return &ReceiptRepository{}
}

// Insert mints a receipt. Receipts are immutable; there is no update
// path.
func (r *ReceiptRepository) Insert(ctx context.Context, tx database.TxQuerier, receipt *model.Receipt) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO receipts (id, shop_id, listing_id, item_type, name, mint_to, acquired_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		receipt.ID, receipt.ShopID, receipt.ListingID, receipt.ItemType,
		receipt.Name, receipt.MintTo, receipt.AcquiredAt)
	if err != nil {
		return fmt.Errorf("insert receipt: %w", err)
	}
	return nil
}

// TransferRepository provides data access for the payment ledger.
type TransferRepository struct{}

// NewTransferRepository creates a new TransferRepository.
func NewTransferRepository(_ *pgxpool.Pool) *TransferRepository {
	return &TransferRepository{}
}

// Insert records one leg of a payment split.
func (r *TransferRepository) Insert(ctx context.Context, tx database.TxQuerier, transfer *model.Transfer) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO transfers (id, receipt_id, kind, to_address, currency, amount)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		transfer.ID, transfer.ReceiptID, transfer.Kind, transfer.ToAddress,
		transfer.Currency, transfer.Amount)
	if err != nil {
		return fmt.Errorf("insert transfer: %w", err)
	}
	return nil
}

// EventRepository persists lifecycle events for external indexing.
// Events are written in the same transaction as the transition they
// describe, so a rolled-back operation emits nothing.
type EventRepository struct{}

// NewEventRepository creates a new EventRepository.
func NewEventRepository(_ *pgxpool.Pool) *EventRepository {
	return &EventRepository{}
}

// Insert appends one event row. The payload is marshalled as-is; its
// field names are part of the stable event schema.
func (r *EventRepository) Insert(ctx context.Context, q database.TxQuerier, shopID uuid.UUID, kind string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", kind, err)
	}
	_, err = q.Exec(ctx,
		`INSERT INTO settlement_events (shop_id, kind, payload) VALUES ($1, $2, $3)`,
		shopID, kind, body)
	if err != nil {
		return fmt.Errorf("insert %s event: %w", kind, err)
	}
	return nil
}
