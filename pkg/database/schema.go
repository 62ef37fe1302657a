package database

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// schema is the full settlement schema. Statements are idempotent so
// Migrate can run on every startup.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS shops (
		id UUID PRIMARY KEY,
		owner_address TEXT NOT NULL,
		name TEXT NOT NULL,
		disabled BOOLEAN NOT NULL DEFAULT FALSE,
		next_listing_id BIGINT NOT NULL DEFAULT 1,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS admin_credentials (
		token UUID PRIMARY KEY,
		shop_id UUID NOT NULL REFERENCES shops(id)
	)`,
	`CREATE TABLE IF NOT EXISTS listings (
		shop_id UUID NOT NULL REFERENCES shops(id),
		id BIGINT NOT NULL,
		item_type TEXT NOT NULL,
		name TEXT NOT NULL,
		base_price_cents BIGINT NOT NULL CHECK (base_price_cents > 0),
		stock BIGINT NOT NULL CHECK (stock >= 0),
		spotlight_template_id UUID,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (shop_id, id)
	)`,
	`CREATE TABLE IF NOT EXISTS accepted_currencies (
		shop_id UUID NOT NULL REFERENCES shops(id),
		currency TEXT NOT NULL,
		feed_id BYTEA NOT NULL,
		oracle_object_id TEXT NOT NULL,
		decimals SMALLINT NOT NULL,
		symbol TEXT NOT NULL,
		max_price_age_secs BIGINT NOT NULL,
		max_conf_ratio_bps BIGINT NOT NULL,
		max_status_lag_secs BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (shop_id, currency)
	)`,
	`CREATE TABLE IF NOT EXISTS discount_templates (
		id UUID PRIMARY KEY,
		shop_id UUID NOT NULL REFERENCES shops(id),
		listing_id BIGINT,
		rule_kind TEXT NOT NULL CHECK (rule_kind IN ('fixed', 'percent')),
		rule_value BIGINT NOT NULL CHECK (rule_value >= 0),
		starts_at BIGINT NOT NULL,
		expires_at BIGINT,
		max_redemptions BIGINT,
		claims_issued BIGINT NOT NULL DEFAULT 0,
		redemptions BIGINT NOT NULL DEFAULT 0 CHECK (redemptions <= claims_issued),
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS discount_claims (
		template_id UUID NOT NULL REFERENCES discount_templates(id),
		claimer_address TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (template_id, claimer_address)
	)`,
	`CREATE TABLE IF NOT EXISTS discount_tickets (
		id UUID PRIMARY KEY,
		template_id UUID NOT NULL REFERENCES discount_templates(id),
		shop_id UUID NOT NULL REFERENCES shops(id),
		listing_id BIGINT,
		claimer_address TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS receipts (
		id UUID PRIMARY KEY,
		shop_id UUID NOT NULL REFERENCES shops(id),
		listing_id BIGINT NOT NULL,
		item_type TEXT NOT NULL,
		name TEXT NOT NULL,
		mint_to TEXT NOT NULL,
		acquired_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS transfers (
		id UUID PRIMARY KEY,
		receipt_id UUID NOT NULL REFERENCES receipts(id),
		kind TEXT NOT NULL CHECK (kind IN ('payout', 'refund')),
		to_address TEXT NOT NULL,
		currency TEXT NOT NULL,
		amount BIGINT NOT NULL CHECK (amount >= 0),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS settlement_events (
		id BIGSERIAL PRIMARY KEY,
		shop_id UUID NOT NULL,
		kind TEXT NOT NULL,
		payload JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_settlement_events_shop_kind
		ON settlement_events (shop_id, kind)`,
	`CREATE INDEX IF NOT EXISTS idx_discount_templates_listing
		ON discount_templates (shop_id, listing_id) WHERE listing_id IS NOT NULL`,
}

// Migrate applies the schema against the given pool.
func Migrate(ctx context.Context, q TxQuerier) error {
	for i, stmt := range schema {
		if _, err := q.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i, err)
		}
	}
	log.Info().Int("statements", len(schema)).Msg("database schema applied")
	return nil
}
