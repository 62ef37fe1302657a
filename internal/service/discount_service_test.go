package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/marketplace-settlement/internal/model"
	"github.com/fairyhunter13/marketplace-settlement/pkg/database"
)

const testNow = int64(1_700_000_000)

func fixedClock() func() int64 {
	return func() int64 { return testNow }
}

func percentRule(bps int64) model.DiscountRule {
	return model.DiscountRule{Kind: model.RulePercent, Value: bps}
}

func liveTemplate(shopID uuid.UUID) *model.DiscountTemplate {
	return &model.DiscountTemplate{
		ID:       uuid.New(),
		ShopID:   shopID,
		Rule:     percentRule(1000),
		StartsAt: testNow - 100,
		Active:   true,
	}
}

func newDiscountService(shopRepo ShopRepositoryInterface, listingRepo ListingRepositoryInterface, templateRepo TemplateRepositoryInterface, ticketRepo TicketRepositoryInterface, claimRepo ClaimRepositoryInterface, events EventRepositoryInterface) *DiscountService {
	return NewDiscountService(&mockDB{}, shopRepo, listingRepo, templateRepo, ticketRepo, claimRepo, events).WithClock(fixedClock())
}

func TestDiscountService_CreateTemplate_Success(t *testing.T) {
	token := uuid.New()
	shopID := uuid.New()
	var captured *model.DiscountTemplate
	templateRepo := &mockTemplateRepository{
		insertFn: func(ctx context.Context, q database.TxQuerier, tpl *model.DiscountTemplate) error {
			captured = tpl
			return nil
		},
	}
	events := &mockEventRepository{}

	svc := newDiscountService(authorizedShopRepo(token, shopID), &mockListingRepository{}, templateRepo, &mockTicketRepository{}, &mockClaimRepository{}, events)
	tpl, err := svc.CreateTemplate(context.Background(), token, shopID, &model.CreateTemplateRequest{
		Rule:           percentRule(2500),
		StartsAt:       testNow,
		ExpiresAt:      int64Ptr(testNow + 3600),
		MaxRedemptions: int64Ptr(100),
	})

	require.NoError(t, err)
	assert.True(t, tpl.Active, "templates start active")
	assert.Zero(t, captured.ClaimsIssued)
	assert.Zero(t, captured.Redemptions)
	assert.Equal(t, []string{model.EventTemplateCreated}, events.kinds)
}

func TestDiscountService_CreateTemplate_InvalidRule(t *testing.T) {
	token := uuid.New()
	shopID := uuid.New()
	svc := newDiscountService(authorizedShopRepo(token, shopID), &mockListingRepository{}, &mockTemplateRepository{}, &mockTicketRepository{}, &mockClaimRepository{}, &mockEventRepository{})

	cases := []model.DiscountRule{
		percentRule(10001),
		percentRule(-1),
		{Kind: model.RuleFixed, Value: -5},
		{Kind: "bogus", Value: 100},
	}
	for _, rule := range cases {
		_, err := svc.CreateTemplate(context.Background(), token, shopID, &model.CreateTemplateRequest{
			Rule:     rule,
			StartsAt: testNow,
		})
		assert.ErrorIs(t, err, ErrInvalidDiscountRule, "rule=%+v", rule)
	}
}

func TestDiscountService_CreateTemplate_InvalidSchedule(t *testing.T) {
	token := uuid.New()
	shopID := uuid.New()
	svc := newDiscountService(authorizedShopRepo(token, shopID), &mockListingRepository{}, &mockTemplateRepository{}, &mockTicketRepository{}, &mockClaimRepository{}, &mockEventRepository{})

	_, err := svc.CreateTemplate(context.Background(), token, shopID, &model.CreateTemplateRequest{
		Rule:      percentRule(1000),
		StartsAt:  testNow,
		ExpiresAt: int64Ptr(testNow),
	})

	assert.ErrorIs(t, err, ErrInvalidSchedule, "expiry equal to start leaves an empty window")
}

func TestDiscountService_CreateTemplate_NonPositiveCap(t *testing.T) {
	token := uuid.New()
	shopID := uuid.New()
	svc := newDiscountService(authorizedShopRepo(token, shopID), &mockListingRepository{}, &mockTemplateRepository{}, &mockTicketRepository{}, &mockClaimRepository{}, &mockEventRepository{})

	_, err := svc.CreateTemplate(context.Background(), token, shopID, &model.CreateTemplateRequest{
		Rule:           percentRule(1000),
		StartsAt:       testNow,
		MaxRedemptions: int64Ptr(0),
	})

	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDiscountService_CreateTemplate_UnknownListing(t *testing.T) {
	token := uuid.New()
	shopID := uuid.New()
	svc := newDiscountService(authorizedShopRepo(token, shopID), &mockListingRepository{}, &mockTemplateRepository{}, &mockTicketRepository{}, &mockClaimRepository{}, &mockEventRepository{})

	_, err := svc.CreateTemplate(context.Background(), token, shopID, &model.CreateTemplateRequest{
		ListingID: int64Ptr(42),
		Rule:      percentRule(1000),
		StartsAt:  testNow,
	})

	assert.ErrorIs(t, err, ErrCrossReferenceMismatch)
}

func TestDiscountService_UpdateTemplate_Success(t *testing.T) {
	token := uuid.New()
	shopID := uuid.New()
	tpl := liveTemplate(shopID)
	var updated *model.DiscountTemplate
	templateRepo := &mockTemplateRepository{
		getForUpdateFn: func(ctx context.Context, tx database.TxQuerier, id uuid.UUID) (*model.DiscountTemplate, error) {
			return tpl, nil
		},
		updateFn: func(ctx context.Context, q database.TxQuerier, t *model.DiscountTemplate) error {
			updated = t
			return nil
		},
	}
	events := &mockEventRepository{}

	svc := newDiscountService(authorizedShopRepo(token, shopID), &mockListingRepository{}, templateRepo, &mockTicketRepository{}, &mockClaimRepository{}, events)
	err := svc.UpdateTemplate(context.Background(), token, shopID, tpl.ID, &model.UpdateTemplateRequest{
		Rule:     percentRule(5000),
		StartsAt: testNow + 10,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(5000), updated.Rule.Value)
	assert.Equal(t, []string{model.EventTemplateUpdated}, events.kinds)
}

func TestDiscountService_UpdateTemplate_AfterClaims(t *testing.T) {
	token := uuid.New()
	shopID := uuid.New()
	tpl := liveTemplate(shopID)
	tpl.ClaimsIssued = 1
	templateRepo := &mockTemplateRepository{
		getForUpdateFn: func(ctx context.Context, tx database.TxQuerier, id uuid.UUID) (*model.DiscountTemplate, error) {
			return tpl, nil
		},
	}

	svc := newDiscountService(authorizedShopRepo(token, shopID), &mockListingRepository{}, templateRepo, &mockTicketRepository{}, &mockClaimRepository{}, &mockEventRepository{})
	err := svc.UpdateTemplate(context.Background(), token, shopID, tpl.ID, &model.UpdateTemplateRequest{
		Rule:     percentRule(5000),
		StartsAt: testNow,
	})

	assert.ErrorIs(t, err, ErrTemplateFinalized, "issued tickets keep the terms they were claimed under")
}

func TestDiscountService_UpdateTemplate_AfterExpiry(t *testing.T) {
	token := uuid.New()
	shopID := uuid.New()
	tpl := liveTemplate(shopID)
	tpl.ExpiresAt = int64Ptr(testNow - 1)
	templateRepo := &mockTemplateRepository{
		getForUpdateFn: func(ctx context.Context, tx database.TxQuerier, id uuid.UUID) (*model.DiscountTemplate, error) {
			return tpl, nil
		},
	}

	svc := newDiscountService(authorizedShopRepo(token, shopID), &mockListingRepository{}, templateRepo, &mockTicketRepository{}, &mockClaimRepository{}, &mockEventRepository{})
	err := svc.UpdateTemplate(context.Background(), token, shopID, tpl.ID, &model.UpdateTemplateRequest{
		Rule:     percentRule(5000),
		StartsAt: testNow,
	})

	assert.ErrorIs(t, err, ErrTemplateFinalized)
}

func TestDiscountService_UpdateTemplate_OtherShop(t *testing.T) {
	token := uuid.New()
	shopID := uuid.New()
	tpl := liveTemplate(uuid.New())
	templateRepo := &mockTemplateRepository{
		getForUpdateFn: func(ctx context.Context, tx database.TxQuerier, id uuid.UUID) (*model.DiscountTemplate, error) {
			return tpl, nil
		},
	}

	svc := newDiscountService(authorizedShopRepo(token, shopID), &mockListingRepository{}, templateRepo, &mockTicketRepository{}, &mockClaimRepository{}, &mockEventRepository{})
	err := svc.UpdateTemplate(context.Background(), token, shopID, tpl.ID, &model.UpdateTemplateRequest{
		Rule:     percentRule(5000),
		StartsAt: testNow,
	})

	assert.ErrorIs(t, err, ErrCrossReferenceMismatch)
}

func TestDiscountService_ToggleTemplate_Success(t *testing.T) {
	token := uuid.New()
	shopID := uuid.New()
	tpl := liveTemplate(shopID)
	var toggledTo *bool
	templateRepo := &mockTemplateRepository{
		getForUpdateFn: func(ctx context.Context, tx database.TxQuerier, id uuid.UUID) (*model.DiscountTemplate, error) {
			return tpl, nil
		},
		setActiveFn: func(ctx context.Context, q database.TxQuerier, id uuid.UUID, active bool) error {
			toggledTo = &active
			return nil
		},
	}
	events := &mockEventRepository{}

	svc := newDiscountService(authorizedShopRepo(token, shopID), &mockListingRepository{}, templateRepo, &mockTicketRepository{}, &mockClaimRepository{}, events)
	err := svc.ToggleTemplate(context.Background(), token, shopID, tpl.ID, false)

	require.NoError(t, err)
	require.NotNil(t, toggledTo)
	assert.False(t, *toggledTo)
	assert.Equal(t, []string{model.EventTemplateToggled}, events.kinds)
}

func claimFixture(shopID uuid.UUID, tpl *model.DiscountTemplate) (*mockShopRepository, *mockTemplateRepository) {
	shopRepo := &mockShopRepository{
		getFn: func(ctx context.Context, q database.TxQuerier, id uuid.UUID) (*model.Shop, error) {
			return &model.Shop{ID: shopID, Name: "Shop", OwnerAddress: "0xowner"}, nil
		},
	}
	templateRepo := &mockTemplateRepository{
		getForUpdateFn: func(ctx context.Context, tx database.TxQuerier, id uuid.UUID) (*model.DiscountTemplate, error) {
			return tpl, nil
		},
	}
	return shopRepo, templateRepo
}

func TestDiscountService_Claim_Success(t *testing.T) {
	shopID := uuid.New()
	tpl := liveTemplate(shopID)
	tpl.ListingID = int64Ptr(3)
	shopRepo, templateRepo := claimFixture(shopID, tpl)
	var markerClaimer string
	claimRepo := &mockClaimRepository{
		insertFn: func(ctx context.Context, tx database.TxQuerier, templateID uuid.UUID, claimer string) error {
			markerClaimer = claimer
			return nil
		},
	}
	claimsBumped := false
	templateRepo.incrementClaimsFn = func(ctx context.Context, tx database.TxQuerier, id uuid.UUID) error {
		claimsBumped = true
		return nil
	}
	var storedTicket *model.DiscountTicket
	ticketRepo := &mockTicketRepository{
		insertFn: func(ctx context.Context, q database.TxQuerier, ticket *model.DiscountTicket) error {
			storedTicket = ticket
			return nil
		},
	}
	events := &mockEventRepository{}

	svc := newDiscountService(shopRepo, &mockListingRepository{}, templateRepo, ticketRepo, claimRepo, events)
	ticket, err := svc.Claim(context.Background(), shopID, tpl.ID, "0xalice")

	require.NoError(t, err)
	assert.Equal(t, "0xalice", markerClaimer)
	assert.True(t, claimsBumped)
	assert.Equal(t, ticket.ID, storedTicket.ID)
	assert.Equal(t, tpl.ID, ticket.TemplateID)
	assert.Equal(t, "0xalice", ticket.ClaimerAddress)
	require.NotNil(t, ticket.ListingID, "ticket inherits the template's listing scope")
	assert.Equal(t, int64(3), *ticket.ListingID)
	assert.Equal(t, []string{model.EventTicketClaimed}, events.kinds)
}

func TestDiscountService_Claim_LifecycleRejections(t *testing.T) {
	shopID := uuid.New()

	inactive := liveTemplate(shopID)
	inactive.Active = false

	early := liveTemplate(shopID)
	early.StartsAt = testNow + 100

	expired := liveTemplate(shopID)
	expired.ExpiresAt = int64Ptr(testNow)

	maxed := liveTemplate(shopID)
	maxed.MaxRedemptions = int64Ptr(2)
	maxed.ClaimsIssued = 2

	redeemedOut := liveTemplate(shopID)
	redeemedOut.MaxRedemptions = int64Ptr(2)
	redeemedOut.ClaimsIssued = 2
	redeemedOut.Redemptions = 2

	cases := []struct {
		name string
		tpl  *model.DiscountTemplate
		want error
	}{
		{"inactive", inactive, ErrTemplateInactive},
		{"before window", early, ErrTemplateTooEarly},
		{"expired", expired, ErrTemplateExpired},
		{"claims at cap", maxed, ErrTemplateMaxedOut},
		{"redemptions at cap", redeemedOut, ErrTemplateMaxedOut},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			shopRepo, templateRepo := claimFixture(shopID, tc.tpl)
			svc := newDiscountService(shopRepo, &mockListingRepository{}, templateRepo, &mockTicketRepository{}, &mockClaimRepository{}, &mockEventRepository{})

			_, err := svc.Claim(context.Background(), shopID, tc.tpl.ID, "0xalice")

			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestDiscountService_Claim_Duplicate(t *testing.T) {
	shopID := uuid.New()
	tpl := liveTemplate(shopID)
	shopRepo, templateRepo := claimFixture(shopID, tpl)
	claimRepo := &mockClaimRepository{
		insertFn: func(ctx context.Context, tx database.TxQuerier, templateID uuid.UUID, claimer string) error {
			return ErrAlreadyClaimed
		},
	}

	svc := newDiscountService(shopRepo, &mockListingRepository{}, templateRepo, &mockTicketRepository{}, claimRepo, &mockEventRepository{})
	_, err := svc.Claim(context.Background(), shopID, tpl.ID, "0xalice")

	assert.ErrorIs(t, err, ErrAlreadyClaimed)
}

func TestDiscountService_Claim_DisabledShop(t *testing.T) {
	shopID := uuid.New()
	tpl := liveTemplate(shopID)
	_, templateRepo := claimFixture(shopID, tpl)
	shopRepo := &mockShopRepository{
		getFn: func(ctx context.Context, q database.TxQuerier, id uuid.UUID) (*model.Shop, error) {
			return &model.Shop{ID: shopID, Disabled: true}, nil
		},
	}

	svc := newDiscountService(shopRepo, &mockListingRepository{}, templateRepo, &mockTicketRepository{}, &mockClaimRepository{}, &mockEventRepository{})
	_, err := svc.Claim(context.Background(), shopID, tpl.ID, "0xalice")

	assert.ErrorIs(t, err, ErrShopDisabled)
}

func TestDiscountService_Claim_TemplateFromOtherShop(t *testing.T) {
	shopID := uuid.New()
	tpl := liveTemplate(uuid.New())
	shopRepo, templateRepo := claimFixture(shopID, tpl)

	svc := newDiscountService(shopRepo, &mockListingRepository{}, templateRepo, &mockTicketRepository{}, &mockClaimRepository{}, &mockEventRepository{})
	_, err := svc.Claim(context.Background(), shopID, tpl.ID, "0xalice")

	assert.ErrorIs(t, err, ErrCrossReferenceMismatch)
}

func TestDiscountService_PruneClaims_WhileLive(t *testing.T) {
	token := uuid.New()
	shopID := uuid.New()
	tpl := liveTemplate(shopID)
	templateRepo := &mockTemplateRepository{
		getForUpdateFn: func(ctx context.Context, tx database.TxQuerier, id uuid.UUID) (*model.DiscountTemplate, error) {
			return tpl, nil
		},
	}

	svc := newDiscountService(authorizedShopRepo(token, shopID), &mockListingRepository{}, templateRepo, &mockTicketRepository{}, &mockClaimRepository{}, &mockEventRepository{})
	err := svc.PruneClaims(context.Background(), token, shopID, tpl.ID, []string{"0xalice"})

	assert.ErrorIs(t, err, ErrClaimsNotPrunable, "pruning a live promotion would unlock second claims")
}

func TestDiscountService_PruneClaims_AfterToggleOff(t *testing.T) {
	token := uuid.New()
	shopID := uuid.New()
	tpl := liveTemplate(shopID)
	tpl.Active = false
	templateRepo := &mockTemplateRepository{
		getForUpdateFn: func(ctx context.Context, tx database.TxQuerier, id uuid.UUID) (*model.DiscountTemplate, error) {
			return tpl, nil
		},
	}
	var pruned []string
	claimRepo := &mockClaimRepository{
		deleteFn: func(ctx context.Context, q database.TxQuerier, templateID uuid.UUID, claimer string) error {
			pruned = append(pruned, claimer)
			return nil
		},
	}
	events := &mockEventRepository{}

	svc := newDiscountService(authorizedShopRepo(token, shopID), &mockListingRepository{}, templateRepo, &mockTicketRepository{}, claimRepo, events)
	err := svc.PruneClaims(context.Background(), token, shopID, tpl.ID, []string{"0xalice", "0xbob"})

	require.NoError(t, err)
	assert.Equal(t, []string{"0xalice", "0xbob"}, pruned)
	assert.Equal(t, []string{model.EventClaimsPruned}, events.kinds)
}

func TestDiscountService_PruneClaims_AfterExpiry(t *testing.T) {
	token := uuid.New()
	shopID := uuid.New()
	tpl := liveTemplate(shopID)
	tpl.ExpiresAt = int64Ptr(testNow - 10)
	templateRepo := &mockTemplateRepository{
		getForUpdateFn: func(ctx context.Context, tx database.TxQuerier, id uuid.UUID) (*model.DiscountTemplate, error) {
			return tpl, nil
		},
	}

	svc := newDiscountService(authorizedShopRepo(token, shopID), &mockListingRepository{}, templateRepo, &mockTicketRepository{}, &mockClaimRepository{}, &mockEventRepository{})
	err := svc.PruneClaims(context.Background(), token, shopID, tpl.ID, []string{"0xalice"})

	require.NoError(t, err)
}

func TestDiscountService_PruneClaims_EmptyList(t *testing.T) {
	token := uuid.New()
	shopID := uuid.New()

	svc := newDiscountService(authorizedShopRepo(token, shopID), &mockListingRepository{}, &mockTemplateRepository{}, &mockTicketRepository{}, &mockClaimRepository{}, &mockEventRepository{})
	err := svc.PruneClaims(context.Background(), token, shopID, uuid.New(), nil)

	assert.ErrorIs(t, err, ErrInvalidInput)
}
