package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SaleListFilter struct {
	CompanyID     uuid.UUID
	Status        string
	InvoiceNumber string // partial match
	Page          int
	Limit         int
}

type SaleRepository interface {
	Create(ctx context.Context, sale *model.Sale) error
	CreateLine(ctx context.Context, line *model.SaleLine) error
	CreateTax(ctx context.Context, tax *model.SaleTax) error
	CreatePayment(ctx context.Context, payment *model.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	FindByIDWithLines(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	Update(ctx context.Context, sale *model.Sale) error
	List(ctx context.Context, filter SaleListFilter) ([]model.Sale, int64, error)
}

type saleRepository struct {
	db *gorm.DB
}

func NewSaleRepository(db *gorm.DB) SaleRepository {
	return &saleRepository{db: db}
}

func (r *saleRepository) Create(ctx context.Context, sale *model.Sale) error {
	return GetDB(ctx, r.db).Create(sale).Error
}

func (r *saleRepository) CreateLine(ctx context.Context, line *model.SaleLine) error {
	return GetDB(ctx, r.db).Create(line).Error
}

func (r *saleRepository) CreateTax(ctx context.Context, tax *model.SaleTax) error {
	return GetDB(ctx, r.db).Create(tax).Error
}

func (r *saleRepository) CreatePayment(ctx context.Context, payment *model.Payment) error {
	return GetDB(ctx, r.db).Create(payment).Error
}

func (r *saleRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	var sale model.Sale
	if err := GetDB(ctx, r.db).First(&sale, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *saleRepository) FindByIDWithLines(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	var sale model.Sale
	if err := GetDB(ctx, r.db).
		Preload("Lines").
		Preload("Taxes").
		Preload("Payments").
		Preload("Client").
		First(&sale, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *saleRepository) Update(ctx context.Context, sale *model.Sale) error {
	return GetDB(ctx, r.db).Save(sale).Error
}

func (r *saleRepository) List(ctx context.Context, filter SaleListFilter) ([]model.Sale, int64, error) {
	var sales []model.Sale
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Sale{}).Where("company_id = ?", filter.CompanyID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.InvoiceNumber != "" {
		query = query.Where("invoice_number ILIKE ?", "%"+filter.InvoiceNumber+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := query.
		Preload("Lines").
		Preload("Client").
		Order("created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&sales).Error; err != nil {
		return nil, 0, err
	}

	return sales, total, nil
}
