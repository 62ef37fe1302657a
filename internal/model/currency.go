package model

import (
	"time"

	"github.com/google/uuid"
)

// FeedIDLength is the exact byte length of an oracle feed identifier.
const FeedIDLength = 32

// AcceptedCurrency binds a payment currency to its oracle feed and the
// seller-set guardrail ceilings. The feed id and oracle object id are
// fixed at registration and re-validated on every quote.
type AcceptedCurrency struct {
	ShopID           uuid.UUID `json:"shop_id"`
	Currency         string    `json:"currency"`
	FeedID           []byte    `json:"-"`
	OracleObjectID   string    `json:"oracle_object_id"`
	Decimals         uint8     `json:"decimals"`
	Symbol           string    `json:"symbol"`
	MaxPriceAgeSecs  int64     `json:"max_price_age_secs"`
	MaxConfRatioBps  int64     `json:"max_conf_ratio_bps"`
	MaxStatusLagSecs int64     `json:"max_status_lag_secs"`
	CreatedAt        time.Time `json:"-"`
}

// RegisterCurrencyRequest is the DTO for accepting a payment currency.
// FeedID is hex encoded and must decode to exactly 32 bytes. Guardrail
// overrides are optional; zero values are rejected and requested values
// are clamped to the module-wide ceilings.
type RegisterCurrencyRequest struct {
	Currency         string `json:"currency" validate:"required,notblank,max=64"`
	FeedID           string `json:"feed_id" validate:"required,notblank"`
	OracleObjectID   string `json:"oracle_object_id" validate:"required,notblank,max=255"`
	Decimals         *uint8 `json:"decimals" validate:"required"`
	Symbol           string `json:"symbol" validate:"required,notblank,max=16"`
	MaxPriceAgeSecs  *int64 `json:"max_price_age_secs"`
	MaxConfRatioBps  *int64 `json:"max_conf_ratio_bps"`
	MaxStatusLagSecs *int64 `json:"max_status_lag_secs"`
}

// GuardrailOverrides is the buyer-supplied tightening of the seller's
// guardrail caps, carried on checkout and quote requests.
type GuardrailOverrides struct {
	MaxPriceAgeSecs  *int64 `json:"max_price_age_secs"`
	MaxConfRatioBps  *int64 `json:"max_conf_ratio_bps"`
	MaxStatusLagSecs *int64 `json:"max_status_lag_secs"`
}
