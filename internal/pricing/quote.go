// Package pricing implements the deterministic conversion from a
// reference-currency price to payment-currency smallest units using a
// supplied oracle observation. All arithmetic is integer-only with
// 128-bit checked intermediates; no floating point is used anywhere.
package pricing

import (
	"errors"
	"math"

	"github.com/holiman/uint256"
)

const (
	// MaxScalingPower bounds both currency decimals and the magnitude
	// of an observation exponent.
	MaxScalingPower = 38

	// Module-wide guardrail ceilings. Sellers may tighten these at
	// currency registration but never loosen them.
	DefaultMaxPriceAgeSecs  = 120
	DefaultMaxConfRatioBps  = 1000
	DefaultMaxStatusLagSecs = 60

	bpsDenominator = 10000
	centsPerUnit   = 100

	// Intermediate products must fit 128 bits, the final quote int64.
	maxIntermediateBits = 128
)

var (
	// ErrPriceNonPositive rejects a zero or negative mantissa.
	ErrPriceNonPositive = errors.New("pricing: oracle price is not positive")

	// ErrConfidenceExceedsPrice rejects observations whose confidence
	// width is not strictly smaller than the price itself.
	ErrConfidenceExceedsPrice = errors.New("pricing: confidence width exceeds price")

	// ErrConfidenceTooWide rejects observations whose relative
	// confidence exceeds the effective basis-point ceiling.
	ErrConfidenceTooWide = errors.New("pricing: confidence interval too wide")

	// ErrPriceTooStale rejects observations older than the effective
	// max age.
	ErrPriceTooStale = errors.New("pricing: price too stale")

	// ErrStatusNotTrading rejects observations whose attestation lags
	// publication beyond the effective cap, or precedes it.
	ErrStatusNotTrading = errors.New("pricing: price status not trading")

	// ErrExponentTooLarge rejects exponent magnitudes beyond
	// MaxScalingPower.
	ErrExponentTooLarge = errors.New("pricing: exponent magnitude too large")

	// ErrOverflow rejects any intermediate above 128 bits or a quote
	// that does not fit the output width.
	ErrOverflow = errors.New("pricing: arithmetic overflow")

	// ErrDivisionByZero rejects a zero divisor.
	ErrDivisionByZero = errors.New("pricing: division by zero")
)

// Observation is one oracle price attestation: price = Price x 10^Expo
// with confidence width Conf in the same scale. Timestamps are unix
// seconds.
type Observation struct {
	Price           int64
	Conf            uint64
	Expo            int32
	PublishTime     int64
	AttestationTime int64
}

// Guardrails are the effective (already resolved) validation ceilings
// for one quote.
type Guardrails struct {
	MaxPriceAgeSecs  int64
	MaxConfRatioBps  int64
	MaxStatusLagSecs int64
}

// ResolveCap applies the tightening rule shared by the registry and
// checkout: a requested override may lower a cap, never raise it, and
// non-positive requests fall back to the cap.
func ResolveCap(requested *int64, cap int64) int64 {
	if requested == nil || *requested <= 0 || *requested >= cap {
		return cap
	}
	return *requested
}

// Quote converts usdCents into payment-currency smallest units using
// the conservative lower bound of the observation (mantissa minus
// confidence) and ceiling division, so the seller is never undercharged
// by rounding or by oracle uncertainty.
func Quote(usdCents int64, decimals uint8, obs Observation, guards Guardrails, now int64) (int64, error) {
	if obs.Price <= 0 {
		return 0, ErrPriceNonPositive
	}
	mantissa := uint64(obs.Price)
	if mantissa <= obs.Conf {
		return 0, ErrConfidenceExceedsPrice
	}
	if guards.MaxConfRatioBps <= 0 {
		return 0, ErrConfidenceTooWide
	}
	left := new(uint256.Int).Mul(uint256.NewInt(obs.Conf), uint256.NewInt(bpsDenominator))
	right := new(uint256.Int).Mul(uint256.NewInt(mantissa), uint256.NewInt(uint64(guards.MaxConfRatioBps)))
	if left.Cmp(right) > 0 {
		return 0, ErrConfidenceTooWide
	}
	if now-obs.PublishTime > guards.MaxPriceAgeSecs {
		return 0, ErrPriceTooStale
	}
	lag := obs.AttestationTime - obs.PublishTime
	if lag < 0 || lag > guards.MaxStatusLagSecs {
		return 0, ErrStatusNotTrading
	}

	if decimals > MaxScalingPower {
		return 0, ErrExponentTooLarge
	}
	// Range-check before negating: -MinInt32 is MinInt32 again in
	// int32, which would sail past the bound and turn pow10 into an
	// unbounded loop.
	if obs.Expo > MaxScalingPower || obs.Expo < -MaxScalingPower {
		return 0, ErrExponentTooLarge
	}
	expoMag := obs.Expo
	if expoMag < 0 {
		expoMag = -expoMag
	}

	conservative := mantissa - obs.Conf

	numerator, err := checkedMul(uint256.NewInt(uint64(usdCents)), pow10(uint(decimals)))
	if err != nil {
		return 0, err
	}
	denominator, err := checkedMul(uint256.NewInt(conservative), uint256.NewInt(centsPerUnit))
	if err != nil {
		return 0, err
	}
	scale := pow10(uint(expoMag))
	if obs.Expo < 0 {
		numerator, err = checkedMul(numerator, scale)
	} else {
		denominator, err = checkedMul(denominator, scale)
	}
	if err != nil {
		return 0, err
	}

	quote, err := ceilDiv(numerator, denominator)
	if err != nil {
		return 0, err
	}
	if !quote.IsUint64() || quote.Uint64() > math.MaxInt64 {
		return 0, ErrOverflow
	}
	return int64(quote.Uint64()), nil
}

// CeilDiv divides rounding toward positive infinity. The zero divisor
// is rejected rather than panicking so callers surface it as a typed
// failure.
func CeilDiv(num, den int64) (int64, error) {
	if den == 0 {
		return 0, ErrDivisionByZero
	}
	q := num / den
	if num%den != 0 && (num > 0) == (den > 0) {
		q++
	}
	return q, nil
}

// checkedMul multiplies two values already known to fit 128 bits and
// fails when the product does not.
func checkedMul(a, b *uint256.Int) (*uint256.Int, error) {
	product := new(uint256.Int).Mul(a, b)
	if product.BitLen() > maxIntermediateBits {
		return nil, ErrOverflow
	}
	return product, nil
}

func ceilDiv(num, den *uint256.Int) (*uint256.Int, error) {
	if den.IsZero() {
		return nil, ErrDivisionByZero
	}
	quotient := new(uint256.Int)
	remainder := new(uint256.Int)
	quotient.DivMod(num, den, remainder)
	if !remainder.IsZero() {
		quotient.AddUint64(quotient, 1)
	}
	return quotient, nil
}

func pow10(n uint) *uint256.Int {
	result := uint256.NewInt(1)
	ten := uint256.NewInt(10)
	for i := uint(0); i < n; i++ {
		result.Mul(result, ten)
	}
	return result
}
