package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/fairyhunter13/marketplace-settlement/internal/model"
	"github.com/fairyhunter13/marketplace-settlement/pkg/database"
)

func int64Ptr(v int64) *int64 { return &v }

// mockTx is a mock implementation of pgx.Tx for testing transactions.
type mockTx struct {
	commitFn   func(ctx context.Context) error
	rollbackFn func(ctx context.Context) error
}

func (m *mockTx) Begin(ctx context.Context) (pgx.Tx, error) {
	return nil, errors.New("nested transactions not supported")
}

func (m *mockTx) Commit(ctx context.Context) error {
	if m.commitFn != nil {
		return m.commitFn(ctx)
	}
	return nil
}

func (m *mockTx) Rollback(ctx context.Context) error {
	if m.rollbackFn != nil {
		return m.rollbackFn(ctx)
	}
	return nil
}

func (m *mockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}

func (m *mockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	return nil
}

func (m *mockTx) LargeObjects() pgx.LargeObjects {
	return pgx.LargeObjects{}
}

func (m *mockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}

func (m *mockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (m *mockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func (m *mockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

func (m *mockTx) Conn() *pgx.Conn {
	return nil
}

// mockDB is a mock implementation of the DB interface.
type mockDB struct {
	beginFn func(ctx context.Context) (pgx.Tx, error)
}

func (m *mockDB) Begin(ctx context.Context) (pgx.Tx, error) {
	if m.beginFn != nil {
		return m.beginFn(ctx)
	}
	return &mockTx{}, nil
}

func (m *mockDB) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (m *mockDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func (m *mockDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

// mockShopRepository is a mock implementation of ShopRepositoryInterface.
type mockShopRepository struct {
	shopIDByCredentialFn func(ctx context.Context, q database.TxQuerier, token uuid.UUID) (uuid.UUID, error)
	insertFn             func(ctx context.Context, q database.TxQuerier, shop *model.Shop, token uuid.UUID) error
	getFn                func(ctx context.Context, q database.TxQuerier, id uuid.UUID) (*model.Shop, error)
	setDisabledFn        func(ctx context.Context, q database.TxQuerier, id uuid.UUID) error
	updateOwnerFn        func(ctx context.Context, q database.TxQuerier, id uuid.UUID, owner string) error
	allocateListingIDFn  func(ctx context.Context, tx database.TxQuerier, shopID uuid.UUID) (int64, error)
}

func (m *mockShopRepository) ShopIDByCredential(ctx context.Context, q database.TxQuerier, token uuid.UUID) (uuid.UUID, error) {
	if m.shopIDByCredentialFn != nil {
		return m.shopIDByCredentialFn(ctx, q, token)
	}
	return uuid.Nil, nil
}

func (m *mockShopRepository) Insert(ctx context.Context, q database.TxQuerier, shop *model.Shop, token uuid.UUID) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, q, shop, token)
	}
	return nil
}

func (m *mockShopRepository) Get(ctx context.Context, q database.TxQuerier, id uuid.UUID) (*model.Shop, error) {
	if m.getFn != nil {
		return m.getFn(ctx, q, id)
	}
	return nil, nil
}

func (m *mockShopRepository) SetDisabled(ctx context.Context, q database.TxQuerier, id uuid.UUID) error {
	if m.setDisabledFn != nil {
		return m.setDisabledFn(ctx, q, id)
	}
	return nil
}

func (m *mockShopRepository) UpdateOwner(ctx context.Context, q database.TxQuerier, id uuid.UUID, owner string) error {
	if m.updateOwnerFn != nil {
		return m.updateOwnerFn(ctx, q, id, owner)
	}
	return nil
}

func (m *mockShopRepository) AllocateListingID(ctx context.Context, tx database.TxQuerier, shopID uuid.UUID) (int64, error) {
	if m.allocateListingIDFn != nil {
		return m.allocateListingIDFn(ctx, tx, shopID)
	}
	return 0, nil
}

// authorizedShopRepo returns a shop repo whose credential check accepts
// the given token for the given shop.
func authorizedShopRepo(token, shopID uuid.UUID) *mockShopRepository {
	return &mockShopRepository{
		shopIDByCredentialFn: func(ctx context.Context, q database.TxQuerier, presented uuid.UUID) (uuid.UUID, error) {
			if presented == token {
				return shopID, nil
			}
			return uuid.Nil, nil
		},
	}
}

// mockListingRepository is a mock implementation of ListingRepositoryInterface.
type mockListingRepository struct {
	insertFn         func(ctx context.Context, q database.TxQuerier, listing *model.Listing) error
	getFn            func(ctx context.Context, q database.TxQuerier, shopID uuid.UUID, id int64) (*model.Listing, error)
	getForUpdateFn   func(ctx context.Context, tx database.TxQuerier, shopID uuid.UUID, id int64) (*model.Listing, error)
	setStockFn       func(ctx context.Context, q database.TxQuerier, shopID uuid.UUID, id, stock int64) error
	decrementStockFn func(ctx context.Context, tx database.TxQuerier, shopID uuid.UUID, id int64) error
	deleteFn         func(ctx context.Context, q database.TxQuerier, shopID uuid.UUID, id int64) error
	setSpotlightFn   func(ctx context.Context, q database.TxQuerier, shopID uuid.UUID, id int64, templateID *uuid.UUID) error
}

func (m *mockListingRepository) Insert(ctx context.Context, q database.TxQuerier, listing *model.Listing) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, q, listing)
	}
	return nil
}

func (m *mockListingRepository) Get(ctx context.Context, q database.TxQuerier, shopID uuid.UUID, id int64) (*model.Listing, error) {
	if m.getFn != nil {
		return m.getFn(ctx, q, shopID, id)
	}
	return nil, nil
}

func (m *mockListingRepository) GetForUpdate(ctx context.Context, tx database.TxQuerier, shopID uuid.UUID, id int64) (*model.Listing, error) {
	if m.getForUpdateFn != nil {
		return m.getForUpdateFn(ctx, tx, shopID, id)
	}
	return nil, ErrListingNotFound
}

func (m *mockListingRepository) SetStock(ctx context.Context, q database.TxQuerier, shopID uuid.UUID, id, stock int64) error {
	if m.setStockFn != nil {
		return m.setStockFn(ctx, q, shopID, id, stock)
	}
	return nil
}

func (m *mockListingRepository) DecrementStock(ctx context.Context, tx database.TxQuerier, shopID uuid.UUID, id int64) error {
	if m.decrementStockFn != nil {
		return m.decrementStockFn(ctx, tx, shopID, id)
	}
	return nil
}

func (m *mockListingRepository) Delete(ctx context.Context, q database.TxQuerier, shopID uuid.UUID, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, q, shopID, id)
	}
	return nil
}

func (m *mockListingRepository) SetSpotlight(ctx context.Context, q database.TxQuerier, shopID uuid.UUID, id int64, templateID *uuid.UUID) error {
	if m.setSpotlightFn != nil {
		return m.setSpotlightFn(ctx, q, shopID, id, templateID)
	}
	return nil
}

// mockTemplateRepository is a mock implementation of TemplateRepositoryInterface.
type mockTemplateRepository struct {
	insertFn                func(ctx context.Context, q database.TxQuerier, tpl *model.DiscountTemplate) error
	getFn                   func(ctx context.Context, q database.TxQuerier, id uuid.UUID) (*model.DiscountTemplate, error)
	getForUpdateFn          func(ctx context.Context, tx database.TxQuerier, id uuid.UUID) (*model.DiscountTemplate, error)
	updateFn                func(ctx context.Context, q database.TxQuerier, tpl *model.DiscountTemplate) error
	setActiveFn             func(ctx context.Context, q database.TxQuerier, id uuid.UUID, active bool) error
	incrementClaimsFn       func(ctx context.Context, tx database.TxQuerier, id uuid.UUID) error
	incrementRedemptionsFn  func(ctx context.Context, tx database.TxQuerier, id uuid.UUID) error
	countActiveForListingFn func(ctx context.Context, q database.TxQuerier, shopID uuid.UUID, listingID int64) (int64, error)
}

func (m *mockTemplateRepository) Insert(ctx context.Context, q database.TxQuerier, tpl *model.DiscountTemplate) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, q, tpl)
	}
	return nil
}

func (m *mockTemplateRepository) Get(ctx context.Context, q database.TxQuerier, id uuid.UUID) (*model.DiscountTemplate, error) {
	if m.getFn != nil {
		return m.getFn(ctx, q, id)
	}
	return nil, nil
}

func (m *mockTemplateRepository) GetForUpdate(ctx context.Context, tx database.TxQuerier, id uuid.UUID) (*model.DiscountTemplate, error) {
	if m.getForUpdateFn != nil {
		return m.getForUpdateFn(ctx, tx, id)
	}
	return nil, ErrTemplateNotFound
}

func (m *mockTemplateRepository) Update(ctx context.Context, q database.TxQuerier, tpl *model.DiscountTemplate) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, q, tpl)
	}
	return nil
}

func (m *mockTemplateRepository) SetActive(ctx context.Context, q database.TxQuerier, id uuid.UUID, active bool) error {
	if m.setActiveFn != nil {
		return m.setActiveFn(ctx, q, id, active)
	}
	return nil
}

func (m *mockTemplateRepository) IncrementClaims(ctx context.Context, tx database.TxQuerier, id uuid.UUID) error {
	if m.incrementClaimsFn != nil {
		return m.incrementClaimsFn(ctx, tx, id)
	}
	return nil
}

func (m *mockTemplateRepository) IncrementRedemptions(ctx context.Context, tx database.TxQuerier, id uuid.UUID) error {
	if m.incrementRedemptionsFn != nil {
		return m.incrementRedemptionsFn(ctx, tx, id)
	}
	return nil
}

func (m *mockTemplateRepository) CountActiveForListing(ctx context.Context, q database.TxQuerier, shopID uuid.UUID, listingID int64) (int64, error) {
	if m.countActiveForListingFn != nil {
		return m.countActiveForListingFn(ctx, q, shopID, listingID)
	}
	return 0, nil
}

// mockCurrencyRepository is a mock implementation of CurrencyRepositoryInterface.
type mockCurrencyRepository struct {
	insertFn func(ctx context.Context, q database.TxQuerier, entry *model.AcceptedCurrency) error
	getFn    func(ctx context.Context, q database.TxQuerier, shopID uuid.UUID, currency string) (*model.AcceptedCurrency, error)
	deleteFn func(ctx context.Context, q database.TxQuerier, shopID uuid.UUID, currency string) error
}

func (m *mockCurrencyRepository) Insert(ctx context.Context, q database.TxQuerier, entry *model.AcceptedCurrency) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, q, entry)
	}
	return nil
}

func (m *mockCurrencyRepository) Get(ctx context.Context, q database.TxQuerier, shopID uuid.UUID, currency string) (*model.AcceptedCurrency, error) {
	if m.getFn != nil {
		return m.getFn(ctx, q, shopID, currency)
	}
	return nil, nil
}

func (m *mockCurrencyRepository) Delete(ctx context.Context, q database.TxQuerier, shopID uuid.UUID, currency string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, q, shopID, currency)
	}
	return nil
}

// mockTicketRepository is a mock implementation of TicketRepositoryInterface.
type mockTicketRepository struct {
	insertFn       func(ctx context.Context, q database.TxQuerier, ticket *model.DiscountTicket) error
	getForUpdateFn func(ctx context.Context, tx database.TxQuerier, id uuid.UUID) (*model.DiscountTicket, error)
	deleteFn       func(ctx context.Context, tx database.TxQuerier, id uuid.UUID) error
}

func (m *mockTicketRepository) Insert(ctx context.Context, q database.TxQuerier, ticket *model.DiscountTicket) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, q, ticket)
	}
	return nil
}

func (m *mockTicketRepository) GetForUpdate(ctx context.Context, tx database.TxQuerier, id uuid.UUID) (*model.DiscountTicket, error) {
	if m.getForUpdateFn != nil {
		return m.getForUpdateFn(ctx, tx, id)
	}
	return nil, ErrTicketNotFound
}

func (m *mockTicketRepository) Delete(ctx context.Context, tx database.TxQuerier, id uuid.UUID) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, tx, id)
	}
	return nil
}

// mockClaimRepository is a mock implementation of ClaimRepositoryInterface.
type mockClaimRepository struct {
	insertFn func(ctx context.Context, tx database.TxQuerier, templateID uuid.UUID, claimer string) error
	deleteFn func(ctx context.Context, q database.TxQuerier, templateID uuid.UUID, claimer string) error
}

func (m *mockClaimRepository) Insert(ctx context.Context, tx database.TxQuerier, templateID uuid.UUID, claimer string) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, tx, templateID, claimer)
	}
	return nil
}

func (m *mockClaimRepository) Delete(ctx context.Context, q database.TxQuerier, templateID uuid.UUID, claimer string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, q, templateID, claimer)
	}
	return nil
}

// mockReceiptRepository is a mock implementation of ReceiptRepositoryInterface.
type mockReceiptRepository struct {
	insertFn func(ctx context.Context, tx database.TxQuerier, receipt *model.Receipt) error
}

func (m *mockReceiptRepository) Insert(ctx context.Context, tx database.TxQuerier, receipt *model.Receipt) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, tx, receipt)
	}
	return nil
}

// mockTransferRepository is a mock implementation of TransferRepositoryInterface.
type mockTransferRepository struct {
	transfers []model.Transfer
	insertFn  func(ctx context.Context, tx database.TxQuerier, transfer *model.Transfer) error
}

func (m *mockTransferRepository) Insert(ctx context.Context, tx database.TxQuerier, transfer *model.Transfer) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, tx, transfer)
	}
	m.transfers = append(m.transfers, *transfer)
	return nil
}

// mockEventRepository records the event kinds written during a test.
type mockEventRepository struct {
	kinds    []string
	payloads []any
	insertFn func(ctx context.Context, q database.TxQuerier, shopID uuid.UUID, kind string, payload any) error
}

func (m *mockEventRepository) Insert(ctx context.Context, q database.TxQuerier, shopID uuid.UUID, kind string, payload any) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, q, shopID, kind, payload)
	}
	m.kinds = append(m.kinds, kind)
	m.payloads = append(m.payloads, payload)
	return nil
}
