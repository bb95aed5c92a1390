package service

import (
	"context"
	"testing"
	"time"

	"backend/internal/model"
	"backend/pkg/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type purchaseFixture struct {
	service   *purchaseService
	companyID uuid.UUID
	supplier  *model.Supplier
	purchases *fakePurchaseRepo
	products  *fakeProductRepo
	moves     *fakeMovementRepo
	audit     *fakeAuditRepo
}

func newPurchaseFixture(t *testing.T, products ...*model.Product) *purchaseFixture {
	t.Helper()

	companyID := uuid.New()
	supplier := &model.Supplier{
		ID:        uuid.New(),
		CompanyID: companyID,
		Name:      "Distribuidora Norte",
	}
	for _, p := range products {
		p.CompanyID = companyID
	}

	f := &purchaseFixture{
		companyID: companyID,
		supplier:  supplier,
		purchases: newFakePurchaseRepo(),
		products:  newFakeProductRepo(products...),
		moves:     &fakeMovementRepo{},
		audit:     &fakeAuditRepo{},
	}
	ledger := NewLedgerService(f.products, f.moves, f.audit, &fakeTxManager{}, nil)
	svc := NewPurchaseService(
		f.purchases, f.products, newFakeSupplierRepo(supplier),
		ledger, f.audit, &fakeTxManager{},
	)
	f.service = svc.(*purchaseService)
	f.service.now = func() time.Time {
		return time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	}
	return f
}

func (f *purchaseFixture) create(t *testing.T, lines ...PurchaseLineRequest) *PurchaseResponse {
	t.Helper()
	res, err := f.service.CreatePurchase(context.Background(), f.companyID.String(), uuid.NewString(), CreatePurchaseRequest{
		SupplierID: f.supplier.ID.String(),
		Reference:  "PO-1001",
		Lines:      lines,
	})
	require.NoError(t, err)
	return res
}

func TestCreatePurchase(t *testing.T) {
	product := trackedProduct(uuid.Nil, "SKU-1", 5, 0)
	f := newPurchaseFixture(t, product)

	res := f.create(t, PurchaseLineRequest{
		ProductID: product.ID.String(),
		Quantity:  10,
		UnitCost:  decimal.RequireFromString("42.50"),
	})

	assert.Equal(t, model.PurchaseStatusPending, res.Status)
	assert.Equal(t, "425.00", res.Total.StringFixed(2))
	assert.Equal(t, "Distribuidora Norte", res.SupplierName)
	require.Len(t, res.Lines, 1)

	// Creation never moves stock.
	assert.Equal(t, 5, product.StockOnHand)
	assert.Empty(t, f.moves.byProduct(product.ID))
	assert.Equal(t, []string{model.ActionCreatePurchase}, f.audit.actions())
}

func TestCreatePurchaseUnknownSupplier(t *testing.T) {
	product := trackedProduct(uuid.Nil, "SKU-1", 0, 0)
	f := newPurchaseFixture(t, product)

	_, err := f.service.CreatePurchase(context.Background(), f.companyID.String(), "", CreatePurchaseRequest{
		SupplierID: uuid.NewString(),
		Lines: []PurchaseLineRequest{{
			ProductID: product.ID.String(),
			Quantity:  1,
			UnitCost:  decimal.RequireFromString("10.00"),
		}},
	})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
}

func TestReceivePurchase(t *testing.T) {
	tracked := trackedProduct(uuid.Nil, "SKU-1", 5, 0)
	untracked := trackedProduct(uuid.Nil, "SVC-1", 0, 0)
	untracked.TracksStock = false
	f := newPurchaseFixture(t, tracked, untracked)

	created := f.create(t,
		PurchaseLineRequest{ProductID: tracked.ID.String(), Quantity: 10, UnitCost: decimal.RequireFromString("42.50")},
		PurchaseLineRequest{ProductID: untracked.ID.String(), Quantity: 1, UnitCost: decimal.RequireFromString("100.00")},
	)

	res, err := f.service.ReceivePurchase(context.Background(), f.companyID.String(), uuid.NewString(), created.ID)
	require.NoError(t, err)

	assert.Equal(t, model.PurchaseStatusReceived, res.Status)
	assert.NotEmpty(t, res.ReceivedAt)
	assert.Equal(t, 15, tracked.StockOnHand)

	rows := f.moves.byProduct(tracked.ID)
	require.Len(t, rows, 1)
	assert.Equal(t, model.MovementIn, rows[0].Kind)
	assert.Equal(t, 10, rows[0].Quantity)
	assert.Equal(t, model.ReasonPurchase, rows[0].ReasonCode)
	require.NotNil(t, rows[0].ReferenceID)
	assert.Equal(t, created.ID, rows[0].ReferenceID.String())

	// The untracked line is received without a movement.
	assert.Empty(t, f.moves.byProduct(untracked.ID))
	assert.Equal(t, []string{model.ActionCreatePurchase, model.ActionReceivePurchase}, f.audit.actions())
}

func TestReceivePurchaseTwiceRejected(t *testing.T) {
	product := trackedProduct(uuid.Nil, "SKU-1", 0, 0)
	f := newPurchaseFixture(t, product)

	created := f.create(t, PurchaseLineRequest{ProductID: product.ID.String(), Quantity: 4, UnitCost: decimal.RequireFromString("10.00")})

	_, err := f.service.ReceivePurchase(context.Background(), f.companyID.String(), "", created.ID)
	require.NoError(t, err)

	_, err = f.service.ReceivePurchase(context.Background(), f.companyID.String(), "", created.ID)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeInvalidState))
	assert.Equal(t, 4, product.StockOnHand)
	assert.Len(t, f.moves.byProduct(product.ID), 1)
}

func TestVoidPendingPurchase(t *testing.T) {
	product := trackedProduct(uuid.Nil, "SKU-1", 0, 0)
	f := newPurchaseFixture(t, product)

	created := f.create(t, PurchaseLineRequest{ProductID: product.ID.String(), Quantity: 4, UnitCost: decimal.RequireFromString("10.00")})

	res, err := f.service.VoidPurchase(context.Background(), f.companyID.String(), "", created.ID, VoidPurchaseRequest{
		Reason: "supplier cancelled",
	})
	require.NoError(t, err)

	assert.Equal(t, model.PurchaseStatusVoid, res.Status)
	assert.Contains(t, res.Notes, "supplier cancelled")
	assert.Equal(t, 0, product.StockOnHand)
	assert.Empty(t, f.moves.byProduct(product.ID))
}

func TestVoidReceivedPurchaseRejected(t *testing.T) {
	product := trackedProduct(uuid.Nil, "SKU-1", 0, 0)
	f := newPurchaseFixture(t, product)

	created := f.create(t, PurchaseLineRequest{ProductID: product.ID.String(), Quantity: 4, UnitCost: decimal.RequireFromString("10.00")})

	_, err := f.service.ReceivePurchase(context.Background(), f.companyID.String(), "", created.ID)
	require.NoError(t, err)

	_, err = f.service.VoidPurchase(context.Background(), f.companyID.String(), "", created.ID, VoidPurchaseRequest{Reason: "too late"})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeInvalidState))
	assert.Equal(t, 4, product.StockOnHand)
}

func TestGetPurchaseOtherCompany(t *testing.T) {
	product := trackedProduct(uuid.Nil, "SKU-1", 0, 0)
	f := newPurchaseFixture(t, product)

	created := f.create(t, PurchaseLineRequest{ProductID: product.ID.String(), Quantity: 1, UnitCost: decimal.RequireFromString("10.00")})

	_, err := f.service.GetPurchase(context.Background(), uuid.NewString(), created.ID)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
}
