package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PurchaseRepository interface {
	Create(ctx context.Context, purchase *model.Purchase) error
	CreateLine(ctx context.Context, line *model.PurchaseLine) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Purchase, error)
	FindByIDWithLines(ctx context.Context, id uuid.UUID) (*model.Purchase, error)
	Update(ctx context.Context, purchase *model.Purchase) error
	List(ctx context.Context, companyID uuid.UUID, status string, page, limit int) ([]model.Purchase, int64, error)
}

type purchaseRepository struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) PurchaseRepository {
	return &purchaseRepository{db: db}
}

func (r *purchaseRepository) Create(ctx context.Context, purchase *model.Purchase) error {
	return GetDB(ctx, r.db).Create(purchase).Error
}

func (r *purchaseRepository) CreateLine(ctx context.Context, line *model.PurchaseLine) error {
	return GetDB(ctx, r.db).Create(line).Error
}

func (r *purchaseRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Purchase, error) {
	var purchase model.Purchase
	if err := GetDB(ctx, r.db).First(&purchase, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (r *purchaseRepository) FindByIDWithLines(ctx context.Context, id uuid.UUID) (*model.Purchase, error) {
	var purchase model.Purchase
	if err := GetDB(ctx, r.db).
		Preload("Lines").
		Preload("Supplier").
		First(&purchase, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (r *purchaseRepository) Update(ctx context.Context, purchase *model.Purchase) error {
	return GetDB(ctx, r.db).Save(purchase).Error
}

func (r *purchaseRepository) List(ctx context.Context, companyID uuid.UUID, status string, page, limit int) ([]model.Purchase, int64, error) {
	var purchases []model.Purchase
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Purchase{}).Where("company_id = ?", companyID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.
		Preload("Lines").
		Preload("Supplier").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&purchases).Error; err != nil {
		return nil, 0, err
	}

	return purchases, total, nil
}
