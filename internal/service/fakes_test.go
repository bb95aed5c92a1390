package service

import (
	"context"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// In-memory repository fakes. They run service transactions as plain function
// calls, so a test observes exactly the rows a committed transaction would
// have written.

type fakeTxManager struct{ calls int }

func (m *fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	m.calls++
	return fn(ctx)
}

type fakeProductRepo struct {
	products map[uuid.UUID]*model.Product
}

func newFakeProductRepo(products ...*model.Product) *fakeProductRepo {
	repo := &fakeProductRepo{products: map[uuid.UUID]*model.Product{}}
	for _, p := range products {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		repo.products[p.ID] = p
	}
	return repo
}

func (r *fakeProductRepo) Create(ctx context.Context, product *model.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	r.products[product.ID] = product
	return nil
}

func (r *fakeProductRepo) Update(ctx context.Context, product *model.Product) error {
	r.products[product.ID] = product
	return nil
}

func (r *fakeProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.products, id)
	return nil
}

func (r *fakeProductRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	product, ok := r.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return product, nil
}

func (r *fakeProductRepo) FindBySKU(ctx context.Context, companyID uuid.UUID, sku string) (*model.Product, error) {
	for _, p := range r.products {
		if p.CompanyID == companyID && p.SKU == sku {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeProductRepo) List(ctx context.Context, companyID uuid.UUID, page, limit int, search string) ([]model.Product, int64, error) {
	var out []model.Product
	for _, p := range r.products {
		if p.CompanyID == companyID {
			out = append(out, *p)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeProductRepo) UpdateStock(ctx context.Context, id uuid.UUID, stock int) error {
	product, ok := r.products[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	product.StockOnHand = stock
	return nil
}

func (r *fakeProductRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	return r.FindByID(ctx, id)
}

type fakeMovementRepo struct {
	movements []*model.InventoryMovement
}

func (r *fakeMovementRepo) Create(ctx context.Context, movement *model.InventoryMovement) error {
	if movement.ID == uuid.Nil {
		movement.ID = uuid.New()
	}
	r.movements = append(r.movements, movement)
	return nil
}

func (r *fakeMovementRepo) ListByProduct(ctx context.Context, productID uuid.UUID, page, limit int) ([]model.InventoryMovement, int64, error) {
	var out []model.InventoryMovement
	for _, m := range r.movements {
		if m.ProductID == productID {
			out = append(out, *m)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeMovementRepo) LatestByProduct(ctx context.Context, productID uuid.UUID) (*model.InventoryMovement, error) {
	for i := len(r.movements) - 1; i >= 0; i-- {
		if r.movements[i].ProductID == productID {
			return r.movements[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeMovementRepo) byProduct(productID uuid.UUID) []*model.InventoryMovement {
	var out []*model.InventoryMovement
	for _, m := range r.movements {
		if m.ProductID == productID {
			out = append(out, m)
		}
	}
	return out
}

type fakeAuditRepo struct {
	entries []*model.AuditLog
}

func (r *fakeAuditRepo) Log(ctx context.Context, entry *model.AuditLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeAuditRepo) List(ctx context.Context, action string, page, limit int) ([]model.AuditLog, int64, error) {
	var out []model.AuditLog
	for _, e := range r.entries {
		if action == "" || e.Action == action {
			out = append(out, *e)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeAuditRepo) actions() []string {
	out := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Action)
	}
	return out
}

type fakeCompanyRepo struct {
	companies map[uuid.UUID]*model.Company
}

func newFakeCompanyRepo(companies ...*model.Company) *fakeCompanyRepo {
	repo := &fakeCompanyRepo{companies: map[uuid.UUID]*model.Company{}}
	for _, c := range companies {
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		repo.companies[c.ID] = c
	}
	return repo
}

func (r *fakeCompanyRepo) Create(ctx context.Context, company *model.Company) error {
	if company.ID == uuid.Nil {
		company.ID = uuid.New()
	}
	r.companies[company.ID] = company
	return nil
}

func (r *fakeCompanyRepo) Update(ctx context.Context, company *model.Company) error {
	r.companies[company.ID] = company
	return nil
}

func (r *fakeCompanyRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Company, error) {
	company, ok := r.companies[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return company, nil
}

func (r *fakeCompanyRepo) NextInvoiceSequence(ctx context.Context, id uuid.UUID) (*model.Company, int64, error) {
	company, ok := r.companies[id]
	if !ok {
		return nil, 0, gorm.ErrRecordNotFound
	}
	company.CurrentSequenceNumber++
	return company, company.CurrentSequenceNumber, nil
}

type fakeClientRepo struct {
	clients map[uuid.UUID]*model.Client
}

func newFakeClientRepo(clients ...*model.Client) *fakeClientRepo {
	repo := &fakeClientRepo{clients: map[uuid.UUID]*model.Client{}}
	for _, c := range clients {
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		repo.clients[c.ID] = c
	}
	return repo
}

func (r *fakeClientRepo) Create(ctx context.Context, client *model.Client) error {
	if client.ID == uuid.Nil {
		client.ID = uuid.New()
	}
	r.clients[client.ID] = client
	return nil
}

func (r *fakeClientRepo) Update(ctx context.Context, client *model.Client) error {
	r.clients[client.ID] = client
	return nil
}

func (r *fakeClientRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.clients, id)
	return nil
}

func (r *fakeClientRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Client, error) {
	client, ok := r.clients[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return client, nil
}

func (r *fakeClientRepo) List(ctx context.Context, companyID uuid.UUID, page, limit int, search string) ([]model.Client, int64, error) {
	var out []model.Client
	for _, c := range r.clients {
		if c.CompanyID == companyID {
			out = append(out, *c)
		}
	}
	return out, int64(len(out)), nil
}

type fakeSupplierRepo struct {
	suppliers map[uuid.UUID]*model.Supplier
}

func newFakeSupplierRepo(suppliers ...*model.Supplier) *fakeSupplierRepo {
	repo := &fakeSupplierRepo{suppliers: map[uuid.UUID]*model.Supplier{}}
	for _, s := range suppliers {
		if s.ID == uuid.Nil {
			s.ID = uuid.New()
		}
		repo.suppliers[s.ID] = s
	}
	return repo
}

func (r *fakeSupplierRepo) Create(ctx context.Context, supplier *model.Supplier) error {
	if supplier.ID == uuid.Nil {
		supplier.ID = uuid.New()
	}
	r.suppliers[supplier.ID] = supplier
	return nil
}

func (r *fakeSupplierRepo) Update(ctx context.Context, supplier *model.Supplier) error {
	r.suppliers[supplier.ID] = supplier
	return nil
}

func (r *fakeSupplierRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.suppliers, id)
	return nil
}

func (r *fakeSupplierRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Supplier, error) {
	supplier, ok := r.suppliers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return supplier, nil
}

func (r *fakeSupplierRepo) List(ctx context.Context, companyID uuid.UUID, page, limit int, search string) ([]model.Supplier, int64, error) {
	var out []model.Supplier
	for _, s := range r.suppliers {
		if s.CompanyID == companyID {
			out = append(out, *s)
		}
	}
	return out, int64(len(out)), nil
}

type fakeSaleRepo struct {
	sales    map[uuid.UUID]*model.Sale
	lines    []*model.SaleLine
	taxes    []*model.SaleTax
	payments []*model.Payment
}

func newFakeSaleRepo() *fakeSaleRepo {
	return &fakeSaleRepo{sales: map[uuid.UUID]*model.Sale{}}
}

func (r *fakeSaleRepo) Create(ctx context.Context, sale *model.Sale) error {
	if sale.ID == uuid.Nil {
		sale.ID = uuid.New()
	}
	r.sales[sale.ID] = sale
	return nil
}

func (r *fakeSaleRepo) CreateLine(ctx context.Context, line *model.SaleLine) error {
	if line.ID == uuid.Nil {
		line.ID = uuid.New()
	}
	r.lines = append(r.lines, line)
	return nil
}

func (r *fakeSaleRepo) CreateTax(ctx context.Context, tax *model.SaleTax) error {
	if tax.ID == uuid.Nil {
		tax.ID = uuid.New()
	}
	r.taxes = append(r.taxes, tax)
	return nil
}

func (r *fakeSaleRepo) CreatePayment(ctx context.Context, payment *model.Payment) error {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	r.payments = append(r.payments, payment)
	return nil
}

func (r *fakeSaleRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	sale, ok := r.sales[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return sale, nil
}

func (r *fakeSaleRepo) FindByIDWithLines(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	sale, ok := r.sales[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	sale.Lines = nil
	for _, line := range r.lines {
		if line.SaleID == id {
			sale.Lines = append(sale.Lines, *line)
		}
	}
	return sale, nil
}

func (r *fakeSaleRepo) Update(ctx context.Context, sale *model.Sale) error {
	r.sales[sale.ID] = sale
	return nil
}

func (r *fakeSaleRepo) List(ctx context.Context, filter repository.SaleListFilter) ([]model.Sale, int64, error) {
	var out []model.Sale
	for _, s := range r.sales {
		if s.CompanyID != filter.CompanyID {
			continue
		}
		if filter.Status != "" && s.Status != filter.Status {
			continue
		}
		out = append(out, *s)
	}
	return out, int64(len(out)), nil
}

type fakePurchaseRepo struct {
	purchases map[uuid.UUID]*model.Purchase
	lines     []*model.PurchaseLine
}

func newFakePurchaseRepo() *fakePurchaseRepo {
	return &fakePurchaseRepo{purchases: map[uuid.UUID]*model.Purchase{}}
}

func (r *fakePurchaseRepo) Create(ctx context.Context, purchase *model.Purchase) error {
	if purchase.ID == uuid.Nil {
		purchase.ID = uuid.New()
	}
	r.purchases[purchase.ID] = purchase
	return nil
}

func (r *fakePurchaseRepo) CreateLine(ctx context.Context, line *model.PurchaseLine) error {
	if line.ID == uuid.Nil {
		line.ID = uuid.New()
	}
	r.lines = append(r.lines, line)
	return nil
}

func (r *fakePurchaseRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Purchase, error) {
	purchase, ok := r.purchases[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return purchase, nil
}

func (r *fakePurchaseRepo) FindByIDWithLines(ctx context.Context, id uuid.UUID) (*model.Purchase, error) {
	purchase, ok := r.purchases[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	purchase.Lines = nil
	for _, line := range r.lines {
		if line.PurchaseID == id {
			purchase.Lines = append(purchase.Lines, *line)
		}
	}
	return purchase, nil
}

func (r *fakePurchaseRepo) Update(ctx context.Context, purchase *model.Purchase) error {
	r.purchases[purchase.ID] = purchase
	return nil
}

func (r *fakePurchaseRepo) List(ctx context.Context, companyID uuid.UUID, status string, page, limit int) ([]model.Purchase, int64, error) {
	var out []model.Purchase
	for _, p := range r.purchases {
		if p.CompanyID != companyID {
			continue
		}
		if status != "" && p.Status != status {
			continue
		}
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

// fakeNotifier records every event so tests can assert ordering and absence.
type fakeNotifier struct {
	stockAlerts []StockAlertEvent
	salesPosted []SalePostedEvent
}

func (n *fakeNotifier) NotifyStockAlert(event StockAlertEvent) {
	n.stockAlerts = append(n.stockAlerts, event)
}

func (n *fakeNotifier) NotifySalePosted(event SalePostedEvent) {
	n.salesPosted = append(n.salesPosted, event)
}
