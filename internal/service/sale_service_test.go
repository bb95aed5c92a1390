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

type saleFixture struct {
	service  *saleService
	company  *model.Company
	client   *model.Client
	sales    *fakeSaleRepo
	products *fakeProductRepo
	moves    *fakeMovementRepo
	audit    *fakeAuditRepo
	notifier *fakeNotifier
}

func newSaleFixture(t *testing.T, client *model.Client, products ...*model.Product) *saleFixture {
	t.Helper()

	company := &model.Company{
		ID:              uuid.New(),
		Name:            "Comercial La Esquina",
		Currency:        "PESOS",
		TaxID:           "900.123.456-7",
		InvoicePrefix:   "SETP",
		SoftwareID:      "a1b2c3d4",
		EnvironmentFlag: model.EnvironmentTest,
		PIN:             "75315",
	}
	client.CompanyID = company.ID
	for _, p := range products {
		p.CompanyID = company.ID
	}

	f := &saleFixture{
		company:  company,
		client:   client,
		sales:    newFakeSaleRepo(),
		products: newFakeProductRepo(products...),
		moves:    &fakeMovementRepo{},
		audit:    &fakeAuditRepo{},
		notifier: &fakeNotifier{},
	}
	ledger := NewLedgerService(f.products, f.moves, f.audit, &fakeTxManager{}, nil)
	svc := NewSaleService(
		f.sales, f.products, newFakeClientRepo(client), newFakeCompanyRepo(company),
		ledger, f.audit, &fakeTxManager{}, f.notifier,
	)
	f.service = svc.(*saleService)
	f.service.now = func() time.Time {
		return time.Date(2026, 3, 15, 14, 30, 0, 0, time.UTC)
	}
	return f
}

func naturalClient() *model.Client {
	return &model.Client{
		ID:             uuid.New(),
		Name:           "Ana Torres",
		DocumentType:   model.DocTypeNationalID,
		DocumentNumber: "1020304050",
		PersonType:     model.PersonTypeNatural,
	}
}

func cashRequest(clientID uuid.UUID, amount string, lines ...SaleLineRequest) IssueSaleRequest {
	return IssueSaleRequest{
		ClientID: clientID.String(),
		Lines:    lines,
		Payments: []PaymentRequest{{Method: "CASH", Amount: decimal.RequireFromString(amount)}},
	}
}

func TestIssueSale(t *testing.T) {
	client := naturalClient()
	product := trackedProduct(uuid.Nil, "SKU-1", 50, 5)
	f := newSaleFixture(t, client, product)

	req := IssueSaleRequest{
		ClientID: client.ID.String(),
		Lines: []SaleLineRequest{{
			ProductID: product.ID.String(),
			Quantity:  2,
			UnitPrice: decimal.RequireFromString("1000.00"),
			Discount:  decimal.RequireFromString("100.00"),
		}},
		Taxes: []SaleTaxRequest{{
			TaxCode: "01",
			Base:    decimal.RequireFromString("1900.00"),
			Rate:    decimal.RequireFromString("19"),
			Amount:  decimal.RequireFromString("361.00"),
		}},
		Payments: []PaymentRequest{{Method: "CASH", Amount: decimal.RequireFromString("2300.00")}},
	}

	res, err := f.service.IssueSale(context.Background(), f.company.ID.String(), uuid.NewString(), req)
	require.NoError(t, err)

	assert.Equal(t, "SETP-000001", res.InvoiceNumber)
	assert.Equal(t, model.SaleStatusPosted, res.Status)
	assert.Equal(t, "2000.00", res.Subtotal.StringFixed(2))
	assert.Equal(t, "100.00", res.Discount.StringFixed(2))
	assert.Equal(t, "361.00", res.TaxAmount.StringFixed(2))
	assert.Equal(t, "0.00", res.WithholdingTotal.StringFixed(2))
	assert.Equal(t, "2261.00", res.Total.StringFixed(2))
	assert.Equal(t, "39.00", res.Change.StringFixed(2))
	assert.Equal(t, "Ana Torres", res.ClientName)
	require.Len(t, res.Lines, 1)
	assert.Equal(t, "2000.00", res.Lines[0].LineSubtotal.StringFixed(2))
	assert.Len(t, res.AuthenticationCode, 96)
	assert.NotEmpty(t, res.ScannablePayload)
	assert.Contains(t, res.AmountInWords, "PESOS")

	// Stock moved once, tied back to the sale
	assert.Equal(t, 48, product.StockOnHand)
	rows := f.moves.byProduct(product.ID)
	require.Len(t, rows, 1)
	assert.Equal(t, model.MovementOut, rows[0].Kind)
	assert.Equal(t, 2, rows[0].Quantity)
	assert.Equal(t, model.ReasonSale, rows[0].ReasonCode)
	require.NotNil(t, rows[0].ReferenceID)
	assert.Equal(t, res.ID, rows[0].ReferenceID.String())

	// Tender and tax breakdown persisted with the sale
	require.Len(t, f.sales.payments, 1)
	assert.Equal(t, "CASH", f.sales.payments[0].Method)
	require.Len(t, f.sales.taxes, 1)
	assert.Equal(t, "01", f.sales.taxes[0].TaxCode)

	assert.Equal(t, []string{model.ActionIssueSale}, f.audit.actions())
	require.Len(t, f.notifier.salesPosted, 1)
	assert.Equal(t, "SETP-000001", f.notifier.salesPosted[0].InvoiceNumber)
	assert.Empty(t, f.notifier.stockAlerts)
}

func TestIssueSaleSequenceAdvances(t *testing.T) {
	client := naturalClient()
	product := trackedProduct(uuid.Nil, "SKU-1", 50, 0)
	f := newSaleFixture(t, client, product)

	line := SaleLineRequest{ProductID: product.ID.String(), Quantity: 1, UnitPrice: decimal.RequireFromString("100.00")}

	first, err := f.service.IssueSale(context.Background(), f.company.ID.String(), "", cashRequest(client.ID, "100.00", line))
	require.NoError(t, err)
	second, err := f.service.IssueSale(context.Background(), f.company.ID.String(), "", cashRequest(client.ID, "100.00", line))
	require.NoError(t, err)

	assert.Equal(t, "SETP-000001", first.InvoiceNumber)
	assert.Equal(t, "SETP-000002", second.InvoiceNumber)
}

func TestIssueSaleBackorderSkipsStock(t *testing.T) {
	client := naturalClient()
	inStock := trackedProduct(uuid.Nil, "SKU-1", 10, 0)
	ordered := trackedProduct(uuid.Nil, "SKU-2", 0, 0)
	f := newSaleFixture(t, client, inStock, ordered)

	req := cashRequest(client.ID, "300.00",
		SaleLineRequest{ProductID: inStock.ID.String(), Quantity: 1, UnitPrice: decimal.RequireFromString("100.00")},
		SaleLineRequest{ProductID: ordered.ID.String(), Quantity: 5, UnitPrice: decimal.RequireFromString("40.00"), FulfillmentMode: model.FulfillmentBackorder},
	)

	res, err := f.service.IssueSale(context.Background(), f.company.ID.String(), "", req)
	require.NoError(t, err)

	// The backordered line sold without stock and without a movement.
	assert.Equal(t, "300.00", res.Total.StringFixed(2))
	assert.Equal(t, 9, inStock.StockOnHand)
	assert.Equal(t, 0, ordered.StockOnHand)
	assert.Len(t, f.moves.byProduct(inStock.ID), 1)
	assert.Empty(t, f.moves.byProduct(ordered.ID))
}

func TestIssueSaleUntrackedProductSkipsStock(t *testing.T) {
	client := naturalClient()
	service := trackedProduct(uuid.Nil, "SVC-1", 0, 0)
	service.TracksStock = false
	f := newSaleFixture(t, client, service)

	req := cashRequest(client.ID, "500.00",
		SaleLineRequest{ProductID: service.ID.String(), Quantity: 1, UnitPrice: decimal.RequireFromString("500.00")})

	_, err := f.service.IssueSale(context.Background(), f.company.ID.String(), "", req)
	require.NoError(t, err)
	assert.Empty(t, f.moves.byProduct(service.ID))
}

func TestIssueSaleInsufficientStockRollsBack(t *testing.T) {
	client := naturalClient()
	product := trackedProduct(uuid.Nil, "SKU-1", 1, 0)
	f := newSaleFixture(t, client, product)

	req := cashRequest(client.ID, "500.00",
		SaleLineRequest{ProductID: product.ID.String(), Quantity: 5, UnitPrice: decimal.RequireFromString("100.00")})

	_, err := f.service.IssueSale(context.Background(), f.company.ID.String(), "", req)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeInsufficientStock))
	assert.Empty(t, f.notifier.salesPosted)
}

func TestIssueSalePaymentShortfall(t *testing.T) {
	client := naturalClient()
	product := trackedProduct(uuid.Nil, "SKU-1", 10, 0)
	f := newSaleFixture(t, client, product)

	line := SaleLineRequest{ProductID: product.ID.String(), Quantity: 1, UnitPrice: decimal.RequireFromString("100.00")}

	// Two cents short: rejected.
	_, err := f.service.IssueSale(context.Background(), f.company.ID.String(), "", cashRequest(client.ID, "99.98", line))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodePaymentShortfall))
	if e := apperr.As(err); assert.NotNil(t, e) {
		assert.Equal(t, "0.02", e.Details()["shortfall"])
	}

	// One cent short is inside the tolerance.
	res, err := f.service.IssueSale(context.Background(), f.company.ID.String(), "", cashRequest(client.ID, "99.99", line))
	require.NoError(t, err)
	assert.Equal(t, "0.00", res.Change.StringFixed(2))
}

func TestIssueSaleDiscountIdentity(t *testing.T) {
	client := naturalClient()
	product := trackedProduct(uuid.Nil, "SKU-1", 10, 0)
	f := newSaleFixture(t, client, product)

	// Line subtotals stay gross; the discount comes off the total exactly
	// once at the header.
	req := cashRequest(client.ID, "1900.00", SaleLineRequest{
		ProductID: product.ID.String(),
		Quantity:  2,
		UnitPrice: decimal.RequireFromString("1000.00"),
		Discount:  decimal.RequireFromString("100.00"),
	})

	res, err := f.service.IssueSale(context.Background(), f.company.ID.String(), "", req)
	require.NoError(t, err)

	assert.Equal(t, "2000.00", res.Subtotal.StringFixed(2))
	assert.Equal(t, "100.00", res.Discount.StringFixed(2))
	assert.Equal(t, "1900.00", res.Total.StringFixed(2))

	lineSum := decimal.Zero
	for _, line := range res.Lines {
		lineSum = lineSum.Add(line.LineSubtotal)
	}
	assert.True(t, lineSum.Equal(res.Subtotal), "line subtotals must sum to the header subtotal")

	identity := res.Subtotal.Add(res.TaxAmount).Sub(res.Discount).Sub(res.WithholdingTotal)
	assert.True(t, identity.Equal(res.Total), "total must equal subtotal + tax - discount - withholdings")
}

func TestIssueSaleOnCredit(t *testing.T) {
	client := naturalClient()
	product := trackedProduct(uuid.Nil, "SKU-1", 10, 0)
	f := newSaleFixture(t, client, product)

	// No tender at all: the sale posts with the full total outstanding.
	req := IssueSaleRequest{
		ClientID: client.ID.String(),
		Lines: []SaleLineRequest{{
			ProductID: product.ID.String(),
			Quantity:  1,
			UnitPrice: decimal.RequireFromString("100.00"),
		}},
	}

	res, err := f.service.IssueSale(context.Background(), f.company.ID.String(), "", req)
	require.NoError(t, err)

	assert.Equal(t, model.SaleStatusPosted, res.Status)
	assert.Equal(t, "100.00", res.Total.StringFixed(2))
	assert.Equal(t, "0.00", res.Change.StringFixed(2))
	assert.Empty(t, f.sales.payments)
	assert.Equal(t, 9, product.StockOnHand)
}

func TestIssueSaleShortfallDoesNotBurnSequence(t *testing.T) {
	client := naturalClient()
	product := trackedProduct(uuid.Nil, "SKU-1", 10, 0)
	f := newSaleFixture(t, client, product)

	line := SaleLineRequest{ProductID: product.ID.String(), Quantity: 1, UnitPrice: decimal.RequireFromString("100.00")}

	_, err := f.service.IssueSale(context.Background(), f.company.ID.String(), "", cashRequest(client.ID, "50.00", line))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodePaymentShortfall))

	// The rejected draft never reached the numbering step.
	assert.EqualValues(t, 0, f.company.CurrentSequenceNumber)
	res, err := f.service.IssueSale(context.Background(), f.company.ID.String(), "", cashRequest(client.ID, "100.00", line))
	require.NoError(t, err)
	assert.Equal(t, "SETP-000001", res.InvoiceNumber)
}

func TestIssueSaleLargeTaxpayerWithholding(t *testing.T) {
	client := naturalClient()
	client.IsLargeTaxpayer = true
	product := trackedProduct(uuid.Nil, "SKU-1", 10, 0)
	f := newSaleFixture(t, client, product)

	// 2.5% income withholding on the 1000.00 subtotal nets the total to 975.00.
	req := cashRequest(client.ID, "975.00",
		SaleLineRequest{ProductID: product.ID.String(), Quantity: 1, UnitPrice: decimal.RequireFromString("1000.00")})

	res, err := f.service.IssueSale(context.Background(), f.company.ID.String(), "", req)
	require.NoError(t, err)
	assert.Equal(t, "25.00", res.WithholdingTotal.StringFixed(2))
	assert.Equal(t, "975.00", res.Total.StringFixed(2))
}

func TestIssueSaleClientFromOtherCompany(t *testing.T) {
	client := naturalClient()
	product := trackedProduct(uuid.Nil, "SKU-1", 10, 0)
	f := newSaleFixture(t, client, product)
	client.CompanyID = uuid.New()

	req := cashRequest(client.ID, "100.00",
		SaleLineRequest{ProductID: product.ID.String(), Quantity: 1, UnitPrice: decimal.RequireFromString("100.00")})

	_, err := f.service.IssueSale(context.Background(), f.company.ID.String(), "", req)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
}

func TestIssueSaleUnknownCompany(t *testing.T) {
	client := naturalClient()
	product := trackedProduct(uuid.Nil, "SKU-1", 10, 0)
	f := newSaleFixture(t, client, product)

	req := cashRequest(client.ID, "100.00",
		SaleLineRequest{ProductID: product.ID.String(), Quantity: 1, UnitPrice: decimal.RequireFromString("100.00")})

	_, err := f.service.IssueSale(context.Background(), uuid.NewString(), "", req)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
}

func TestIssueSaleDiscountExceedsLine(t *testing.T) {
	client := naturalClient()
	product := trackedProduct(uuid.Nil, "SKU-1", 10, 0)
	f := newSaleFixture(t, client, product)

	req := cashRequest(client.ID, "100.00", SaleLineRequest{
		ProductID: product.ID.String(),
		Quantity:  1,
		UnitPrice: decimal.RequireFromString("100.00"),
		Discount:  decimal.RequireFromString("150.00"),
	})

	_, err := f.service.IssueSale(context.Background(), f.company.ID.String(), "", req)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
}

func TestIssueSaleLowStockAlert(t *testing.T) {
	client := naturalClient()
	product := trackedProduct(uuid.Nil, "SKU-1", 6, 5)
	f := newSaleFixture(t, client, product)

	req := cashRequest(client.ID, "200.00",
		SaleLineRequest{ProductID: product.ID.String(), Quantity: 2, UnitPrice: decimal.RequireFromString("100.00")})

	_, err := f.service.IssueSale(context.Background(), f.company.ID.String(), "", req)
	require.NoError(t, err)

	require.Len(t, f.notifier.stockAlerts, 1)
	assert.Equal(t, 4, f.notifier.stockAlerts[0].StockAfter)
	assert.Equal(t, 5, f.notifier.stockAlerts[0].Minimum)
}

func TestVoidSaleRestoresStock(t *testing.T) {
	client := naturalClient()
	immediate := trackedProduct(uuid.Nil, "SKU-1", 10, 0)
	ordered := trackedProduct(uuid.Nil, "SKU-2", 0, 0)
	f := newSaleFixture(t, client, immediate, ordered)

	req := cashRequest(client.ID, "500.00",
		SaleLineRequest{ProductID: immediate.ID.String(), Quantity: 3, UnitPrice: decimal.RequireFromString("100.00")},
		SaleLineRequest{ProductID: ordered.ID.String(), Quantity: 2, UnitPrice: decimal.RequireFromString("100.00"), FulfillmentMode: model.FulfillmentBackorder},
	)
	posted, err := f.service.IssueSale(context.Background(), f.company.ID.String(), "", req)
	require.NoError(t, err)
	assert.Equal(t, 7, immediate.StockOnHand)

	voided, err := f.service.VoidSale(context.Background(), f.company.ID.String(), uuid.NewString(), posted.ID, VoidSaleRequest{
		Reason: "customer returned the order",
	})
	require.NoError(t, err)

	assert.Equal(t, model.SaleStatusVoid, voided.Status)
	assert.Contains(t, voided.Notes, "customer returned the order")
	assert.Equal(t, 10, immediate.StockOnHand)
	// The backordered line never moved stock, so the void leaves it alone.
	assert.Equal(t, 0, ordered.StockOnHand)
	assert.Empty(t, f.moves.byProduct(ordered.ID))

	// OUT at issuance, IN at void.
	rows := f.moves.byProduct(immediate.ID)
	require.Len(t, rows, 2)
	assert.Equal(t, model.MovementOut, rows[0].Kind)
	assert.Equal(t, model.MovementIn, rows[1].Kind)
	assert.Equal(t, 3, rows[1].Quantity)

	assert.Equal(t, []string{model.ActionIssueSale, model.ActionVoidSale}, f.audit.actions())
}

func TestVoidSaleTwiceRejected(t *testing.T) {
	client := naturalClient()
	product := trackedProduct(uuid.Nil, "SKU-1", 10, 0)
	f := newSaleFixture(t, client, product)

	posted, err := f.service.IssueSale(context.Background(), f.company.ID.String(), "", cashRequest(client.ID, "100.00",
		SaleLineRequest{ProductID: product.ID.String(), Quantity: 1, UnitPrice: decimal.RequireFromString("100.00")}))
	require.NoError(t, err)

	_, err = f.service.VoidSale(context.Background(), f.company.ID.String(), "", posted.ID, VoidSaleRequest{Reason: "first"})
	require.NoError(t, err)

	_, err = f.service.VoidSale(context.Background(), f.company.ID.String(), "", posted.ID, VoidSaleRequest{Reason: "second"})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeInvalidState))
	assert.Equal(t, 10, product.StockOnHand)
}

func TestGetSaleOtherCompany(t *testing.T) {
	client := naturalClient()
	product := trackedProduct(uuid.Nil, "SKU-1", 10, 0)
	f := newSaleFixture(t, client, product)

	posted, err := f.service.IssueSale(context.Background(), f.company.ID.String(), "", cashRequest(client.ID, "100.00",
		SaleLineRequest{ProductID: product.ID.String(), Quantity: 1, UnitPrice: decimal.RequireFromString("100.00")}))
	require.NoError(t, err)

	_, err = f.service.GetSale(context.Background(), uuid.NewString(), posted.ID)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
}
