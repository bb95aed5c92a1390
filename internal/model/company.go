package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EnvironmentFlag values for the fiscal profile
const (
	EnvironmentProduction = "1"
	EnvironmentTest       = "2"
)

// Company is the tenant. Every core entity is scoped to one company.
// CurrentSequenceNumber is the single source of truth for invoice numbering
// and is only ever touched through CompanyRepository.NextInvoiceSequence.
type Company struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name     string    `gorm:"type:varchar(255);not null" json:"name"`
	Currency string    `gorm:"type:varchar(10);not null;default:'PESOS'" json:"currency"`

	// Fiscal profile used by the invoice encoder
	TaxID                 string `gorm:"type:varchar(50);not null" json:"tax_id"`
	InvoicePrefix         string `gorm:"type:varchar(20);not null" json:"invoice_prefix"`
	CurrentSequenceNumber int64  `gorm:"not null;default:0" json:"current_sequence_number"`
	SoftwareID            string `gorm:"type:varchar(100)" json:"software_id"`
	EnvironmentFlag       string `gorm:"type:varchar(1);not null;default:'2'" json:"environment_flag"`
	PIN                   string `gorm:"type:varchar(100);column:pin" json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
