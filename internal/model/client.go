package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PersonType enum constants
const (
	PersonTypeNatural = "NATURAL"
	PersonTypeLegal   = "LEGAL"
)

// Counterparty document-type codes as used by the fiscal encoder
const (
	DocTypeNationalID = "13"
	DocTypeTaxID      = "31"
	DocTypePassport   = "41"
)

// Client is the sale counterparty. Its fiscal attributes feed both the
// withholding calculator and the invoice authentication code.
type Client struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CompanyID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"company_id"`
	Name            string         `gorm:"type:varchar(255);not null" json:"name"`
	DocumentType    string         `gorm:"type:varchar(5);not null;default:'13'" json:"document_type"`
	DocumentNumber  string         `gorm:"type:varchar(50);not null" json:"document_number"`
	PersonType      string         `gorm:"type:varchar(10);not null;default:'NATURAL'" json:"person_type"`
	IsLargeTaxpayer bool           `gorm:"default:false;not null" json:"is_large_taxpayer"`
	Phone           string         `gorm:"type:varchar(50)" json:"phone"`
	Email           string         `gorm:"type:varchar(255)" json:"email"`
	Address         string         `gorm:"type:text" json:"address"`
	IsActive        bool           `gorm:"default:true" json:"is_active"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// Supplier is the purchase counterparty.
type Supplier struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CompanyID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"company_id"`
	Name           string         `gorm:"type:varchar(255);not null" json:"name"`
	DocumentNumber string         `gorm:"type:varchar(50)" json:"document_number"`
	ContactPerson  string         `gorm:"type:varchar(255)" json:"contact_person"`
	Phone          string         `gorm:"type:varchar(50)" json:"phone"`
	Email          string         `gorm:"type:varchar(255)" json:"email"`
	Address        string         `gorm:"type:text" json:"address"`
	IsActive       bool           `gorm:"default:true" json:"is_active"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}
