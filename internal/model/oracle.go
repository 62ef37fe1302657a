package model

// PriceObservation is a signed oracle price attestation as supplied by
// the caller: a fixed-point price (Price x 10^Expo), a confidence
// width in the same scale, and the publish/attestation timestamps in
// unix seconds. The engine validates it against the registered currency
// entry before any arithmetic.
type PriceObservation struct {
	Price           int64  `json:"price" validate:"required"`
	Conf            uint64 `json:"conf"`
	Expo            int32  `json:"expo"`
	PublishTime     int64  `json:"publish_time" validate:"required"`
	AttestationTime int64  `json:"attestation_time" validate:"required"`
}

// QuoteRequest is the DTO for the read-only quote preview and the
// pricing section of every checkout request. FeedID is hex encoded.
type QuoteRequest struct {
	ListingID      int64              `json:"listing_id" validate:"required"`
	Currency       string             `json:"currency" validate:"required,notblank,max=64"`
	FeedID         string             `json:"feed_id" validate:"required,notblank"`
	OracleObjectID string             `json:"oracle_object_id" validate:"required,notblank"`
	Observation    PriceObservation   `json:"observation"`
	Guardrails     GuardrailOverrides `json:"guardrails"`
}

// QuoteResponse reports the deterministic conversion result.
type QuoteResponse struct {
	ListingID      int64  `json:"listing_id"`
	Currency       string `json:"currency"`
	BasePriceCents int64  `json:"base_price_cents"`
	QuoteAmount    int64  `json:"quote_amount"`
}
