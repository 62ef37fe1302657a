//go:build stress

package stress

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/marketplace-settlement/internal/model"
	"github.com/fairyhunter13/marketplace-settlement/internal/service"
)

// TestScale_MixedTraffic runs a bazaar of shops under mixed buyer
// traffic (plain buys, claims, redemptions) and then audits the ledger
// invariants that must survive any interleaving.
func TestScale_MixedTraffic(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping scale test in short mode")
	}
	cleanupTables(t)

	const (
		shops          = 4
		buyersPerShop  = 25
		stockPerShop   = 40
		redemptionCap  = 10
		paymentPerUnit = 20_000_000
	)

	ctx := context.Background()

	for i := 0; i < shops; i++ {
		shopID, token, listingID := newShopWithCatalog(t, fmt.Sprintf("Bazaar%d", i), 1500, stockPerShop)
		tpl, err := discountService.CreateTemplate(ctx, token, shopID, &model.CreateTemplateRequest{
			Rule:           model.DiscountRule{Kind: model.RulePercent, Value: 2000},
			StartsAt:       time.Now().Unix() - 10,
			MaxRedemptions: int64Ptr(redemptionCap),
		})
		require.NoError(t, err)

		var wg sync.WaitGroup
		for b := 0; b < buyersPerShop; b++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				buyer := fmt.Sprintf("0xbuyer-%d", n)
				if n%2 == 0 {
					// Even buyers try the discount path.
					_, err := checkoutService.ClaimAndBuy(ctx, shopID, &model.ClaimAndBuyRequest{
						BuyRequest: *newBuyRequest(listingID, buyer, paymentPerUnit),
						TemplateID: tpl.ID,
					})
					if err != nil && !errors.Is(err, service.ErrTemplateMaxedOut) && !errors.Is(err, service.ErrOutOfStock) {
						t.Errorf("claim-and-buy: %v", err)
					}
					return
				}
				_, err := checkoutService.Buy(ctx, shopID, newBuyRequest(listingID, buyer, paymentPerUnit))
				if err != nil && !errors.Is(err, service.ErrOutOfStock) {
					t.Errorf("buy: %v", err)
				}
			}(b)
		}
		wg.Wait()
	}

	// Audit 1: redemption caps and counter ordering hold everywhere.
	rows, err := testPool.Query(ctx,
		"SELECT claims_issued, redemptions FROM discount_templates")
	require.NoError(t, err)
	defer rows.Close()
	for rows.Next() {
		var claims, redemptions int64
		require.NoError(t, rows.Scan(&claims, &redemptions))
		assert.LessOrEqual(t, redemptions, claims)
		assert.LessOrEqual(t, redemptions, int64(redemptionCap))
	}
	require.NoError(t, rows.Err())

	// Audit 2: every receipt has exactly two transfer legs.
	var receipts, legs int
	require.NoError(t, testPool.QueryRow(ctx, "SELECT COUNT(*) FROM receipts").Scan(&receipts))
	require.NoError(t, testPool.QueryRow(ctx, "SELECT COUNT(*) FROM transfers").Scan(&legs))
	assert.Equal(t, receipts*2, legs)
	assert.Positive(t, receipts)

	// Audit 3: payouts plus refunds add up to what buyers paid.
	var total int64
	require.NoError(t, testPool.QueryRow(ctx,
		"SELECT COALESCE(SUM(amount), 0) FROM transfers").Scan(&total))
	assert.Equal(t, int64(receipts)*paymentPerUnit, total,
		"the two legs of every split must conserve the payment")

	// Audit 4: no listing oversold.
	var sold int64
	require.NoError(t, testPool.QueryRow(ctx,
		"SELECT COALESCE(SUM($1 - stock), 0) FROM listings", stockPerShop).Scan(&sold))
	assert.Equal(t, int64(receipts), sold)
}
