package service

import (
	"context"
	"testing"

	"backend/internal/model"
	"backend/pkg/apperr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ledgerFixture struct {
	service  LedgerService
	products *fakeProductRepo
	moves    *fakeMovementRepo
	audit    *fakeAuditRepo
	notifier *fakeNotifier
}

func newLedgerFixture(products ...*model.Product) *ledgerFixture {
	f := &ledgerFixture{
		products: newFakeProductRepo(products...),
		moves:    &fakeMovementRepo{},
		audit:    &fakeAuditRepo{},
		notifier: &fakeNotifier{},
	}
	f.service = NewLedgerService(f.products, f.moves, f.audit, &fakeTxManager{}, f.notifier)
	return f
}

func trackedProduct(companyID uuid.UUID, sku string, stock, minimum int) *model.Product {
	return &model.Product{
		ID:             uuid.New(),
		CompanyID:      companyID,
		SKU:            sku,
		Name:           "Product " + sku,
		StockOnHand:    stock,
		ReorderMinimum: minimum,
		TracksStock:    true,
	}
}

func TestApplyMovementOut(t *testing.T) {
	companyID := uuid.New()
	product := trackedProduct(companyID, "SKU-1", 10, 2)
	f := newLedgerFixture(product)

	result, err := f.service.ApplyMovement(context.Background(), ApplyMovementInput{
		ProductID:  product.ID,
		Quantity:   -3,
		ReasonCode: model.ReasonSale,
	})
	require.NoError(t, err)

	assert.Equal(t, 10, result.StockBefore)
	assert.Equal(t, 7, result.StockAfter)
	assert.False(t, result.LowStock)
	assert.Equal(t, 7, product.StockOnHand)

	rows := f.moves.byProduct(product.ID)
	require.Len(t, rows, 1)
	assert.Equal(t, model.MovementOut, rows[0].Kind)
	assert.Equal(t, 3, rows[0].Quantity)
	assert.Equal(t, 10, rows[0].StockBefore)
	assert.Equal(t, 7, rows[0].StockAfter)
	assert.Equal(t, model.ReasonSale, rows[0].ReasonCode)
}

func TestApplyMovementIn(t *testing.T) {
	companyID := uuid.New()
	product := trackedProduct(companyID, "SKU-1", 4, 2)
	f := newLedgerFixture(product)

	result, err := f.service.ApplyMovement(context.Background(), ApplyMovementInput{
		ProductID:  product.ID,
		Quantity:   6,
		ReasonCode: model.ReasonPurchase,
	})
	require.NoError(t, err)

	assert.Equal(t, 10, result.StockAfter)
	rows := f.moves.byProduct(product.ID)
	require.Len(t, rows, 1)
	assert.Equal(t, model.MovementIn, rows[0].Kind)
	assert.Equal(t, 6, rows[0].Quantity)
}

func TestApplyMovementInsufficientStock(t *testing.T) {
	companyID := uuid.New()
	product := trackedProduct(companyID, "SKU-1", 2, 0)
	f := newLedgerFixture(product)

	_, err := f.service.ApplyMovement(context.Background(), ApplyMovementInput{
		ProductID:  product.ID,
		Quantity:   -5,
		ReasonCode: model.ReasonSale,
	})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeInsufficientStock))

	// Nothing written, stock untouched
	assert.Equal(t, 2, product.StockOnHand)
	assert.Empty(t, f.moves.byProduct(product.ID))
}

func TestApplyMovementUntrackedProduct(t *testing.T) {
	companyID := uuid.New()
	product := trackedProduct(companyID, "SVC-1", 0, 0)
	product.TracksStock = false
	f := newLedgerFixture(product)

	_, err := f.service.ApplyMovement(context.Background(), ApplyMovementInput{
		ProductID:  product.ID,
		Quantity:   1,
		ReasonCode: model.ReasonManualAdjustment,
	})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
}

func TestApplyMovementZeroQuantity(t *testing.T) {
	f := newLedgerFixture()

	_, err := f.service.ApplyMovement(context.Background(), ApplyMovementInput{
		ProductID:  uuid.New(),
		Quantity:   0,
		ReasonCode: model.ReasonManualAdjustment,
	})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
}

func TestApplyMovementUnknownProduct(t *testing.T) {
	f := newLedgerFixture()

	_, err := f.service.ApplyMovement(context.Background(), ApplyMovementInput{
		ProductID:  uuid.New(),
		Quantity:   1,
		ReasonCode: model.ReasonManualAdjustment,
	})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
}

func TestApplyMovementLowStockFlag(t *testing.T) {
	companyID := uuid.New()
	product := trackedProduct(companyID, "SKU-1", 5, 3)
	f := newLedgerFixture(product)

	// Landing exactly on the minimum counts as low.
	result, err := f.service.ApplyMovement(context.Background(), ApplyMovementInput{
		ProductID:  product.ID,
		Quantity:   -2,
		ReasonCode: model.ReasonSale,
	})
	require.NoError(t, err)
	assert.True(t, result.LowStock)
	assert.Equal(t, 3, result.ReorderMinimum)
}

func TestAdjustStock(t *testing.T) {
	companyID := uuid.New()
	product := trackedProduct(companyID, "SKU-1", 10, 2)
	f := newLedgerFixture(product)

	result, err := f.service.AdjustStock(context.Background(), companyID.String(), uuid.NewString(), AdjustStockRequest{
		ProductID: product.ID.String(),
		Quantity:  -4,
		Notes:     "cycle count correction",
	})
	require.NoError(t, err)

	assert.Equal(t, 6, result.StockAfter)
	rows := f.moves.byProduct(product.ID)
	require.Len(t, rows, 1)
	assert.Equal(t, model.ReasonManualAdjustment, rows[0].ReasonCode)
	assert.Equal(t, "cycle count correction", rows[0].Notes)

	assert.Equal(t, []string{model.ActionAdjustStock}, f.audit.actions())
	assert.Empty(t, f.notifier.stockAlerts)
}

func TestAdjustStockFiresLowStockAlert(t *testing.T) {
	companyID := uuid.New()
	product := trackedProduct(companyID, "SKU-1", 5, 4)
	f := newLedgerFixture(product)

	_, err := f.service.AdjustStock(context.Background(), companyID.String(), uuid.NewString(), AdjustStockRequest{
		ProductID: product.ID.String(),
		Quantity:  -2,
		Notes:     "damage write-off",
	})
	require.NoError(t, err)

	require.Len(t, f.notifier.stockAlerts, 1)
	alert := f.notifier.stockAlerts[0]
	assert.Equal(t, "stock_alert", alert.Event)
	assert.Equal(t, product.ID.String(), alert.ProductID)
	assert.Equal(t, 3, alert.StockAfter)
	assert.Equal(t, 4, alert.Minimum)
}

func TestAdjustStockOtherCompany(t *testing.T) {
	product := trackedProduct(uuid.New(), "SKU-1", 10, 2)
	f := newLedgerFixture(product)

	_, err := f.service.AdjustStock(context.Background(), uuid.NewString(), uuid.NewString(), AdjustStockRequest{
		ProductID: product.ID.String(),
		Quantity:  -1,
		Notes:     "x",
	})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
	assert.Equal(t, 10, product.StockOnHand)
}
