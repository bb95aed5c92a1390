package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MovementRepository interface {
	Create(ctx context.Context, movement *model.InventoryMovement) error
	ListByProduct(ctx context.Context, productID uuid.UUID, page, limit int) ([]model.InventoryMovement, int64, error)
	LatestByProduct(ctx context.Context, productID uuid.UUID) (*model.InventoryMovement, error)
}

type movementRepository struct {
	db *gorm.DB
}

func NewMovementRepository(db *gorm.DB) MovementRepository {
	return &movementRepository{db: db}
}

func (r *movementRepository) Create(ctx context.Context, movement *model.InventoryMovement) error {
	return GetDB(ctx, r.db).Create(movement).Error
}

func (r *movementRepository) ListByProduct(ctx context.Context, productID uuid.UUID, page, limit int) ([]model.InventoryMovement, int64, error) {
	var movements []model.InventoryMovement
	var total int64

	db := GetDB(ctx, r.db).Model(&model.InventoryMovement{}).Where("product_id = ?", productID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&movements).Error; err != nil {
		return nil, 0, err
	}

	return movements, total, nil
}

func (r *movementRepository) LatestByProduct(ctx context.Context, productID uuid.UUID) (*model.InventoryMovement, error) {
	var movement model.InventoryMovement
	if err := GetDB(ctx, r.db).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		First(&movement).Error; err != nil {
		return nil, err
	}
	return &movement, nil
}
