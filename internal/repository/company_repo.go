package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CompanyRepository interface {
	Create(ctx context.Context, company *model.Company) error
	Update(ctx context.Context, company *model.Company) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Company, error)
	// NextInvoiceSequence atomically increments and returns the company's
	// invoice counter. Must be called inside the posting transaction: the row
	// lock is what keeps concurrent sales from sharing a number.
	NextInvoiceSequence(ctx context.Context, id uuid.UUID) (*model.Company, int64, error)
}

type companyRepository struct {
	db *gorm.DB
}

func NewCompanyRepository(db *gorm.DB) CompanyRepository {
	return &companyRepository{db: db}
}

func (r *companyRepository) Create(ctx context.Context, company *model.Company) error {
	return GetDB(ctx, r.db).Create(company).Error
}

func (r *companyRepository) Update(ctx context.Context, company *model.Company) error {
	return GetDB(ctx, r.db).Save(company).Error
}

func (r *companyRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Company, error) {
	var company model.Company
	if err := GetDB(ctx, r.db).First(&company, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *companyRepository) NextInvoiceSequence(ctx context.Context, id uuid.UUID) (*model.Company, int64, error) {
	db := GetDB(ctx, r.db)

	var company model.Company
	if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&company).Error; err != nil {
		return nil, 0, err
	}

	next := company.CurrentSequenceNumber + 1
	if err := db.Model(&company).Update("current_sequence_number", next).Error; err != nil {
		return nil, 0, err
	}
	company.CurrentSequenceNumber = next

	return &company, next, nil
}
