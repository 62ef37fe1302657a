package pricing

import (
	"github.com/holiman/uint256"

	"github.com/fairyhunter13/marketplace-settlement/internal/model"
)

// ApplyDiscount computes the discounted price in cents. The result is
// never negative and never exceeds the base price. Percent rules round
// the kept fraction up so the discount never exceeds the advertised
// percentage.
func ApplyDiscount(baseCents int64, rule model.DiscountRule) int64 {
	if baseCents <= 0 {
		return 0
	}
	switch rule.Kind {
	case model.RuleFixed:
		if rule.Value >= baseCents {
			return 0
		}
		return baseCents - rule.Value
	case model.RulePercent:
		keepBps := int64(model.MaxPercentBps) - rule.Value
		if keepBps <= 0 {
			return 0
		}
		if keepBps >= model.MaxPercentBps {
			return baseCents
		}
		numerator := new(uint256.Int).Mul(
			uint256.NewInt(uint64(baseCents)),
			uint256.NewInt(uint64(keepBps)),
		)
		quotient, remainder := new(uint256.Int), new(uint256.Int)
		quotient.DivMod(numerator, uint256.NewInt(bpsDenominator), remainder)
		if !remainder.IsZero() {
			quotient.AddUint64(quotient, 1)
		}
		// keepBps < 10000 guarantees the result fits back into int64.
		return int64(quotient.Uint64())
	}
	return baseCents
}
