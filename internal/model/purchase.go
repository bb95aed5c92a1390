package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseStatus enum constants. Only PENDING purchases may be received, and
// only PENDING purchases may be voided — once RECEIVED, stock has already
// moved and the purchase can only be corrected through manual adjustments.
const (
	PurchaseStatusPending  = "PENDING"
	PurchaseStatusReceived = "RECEIVED"
	PurchaseStatusVoid     = "VOID"
)

// Purchase mirrors Sale for inbound stock.
type Purchase struct {
	ID           uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CompanyID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"company_id"`
	SupplierID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"supplier_id"`
	Supplier     *Supplier       `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	Reference    string          `gorm:"type:varchar(100)" json:"reference"`
	Status       string          `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	Total        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"total"`
	Notes        string          `gorm:"type:text" json:"notes"`
	ReceivedAt   *time.Time      `json:"received_at"`
	ReceivedByID *uuid.UUID      `gorm:"type:uuid" json:"received_by_id"`
	Lines        []PurchaseLine  `gorm:"foreignKey:PurchaseID" json:"lines"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// PurchaseLine is one inbound line.
type PurchaseLine struct {
	ID         uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PurchaseID uuid.UUID       `gorm:"type:uuid;not null;index" json:"purchase_id"`
	ProductID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Product    *Product        `gorm:"foreignKey:ProductID" json:"-"`
	Quantity   int             `gorm:"type:int;not null" json:"quantity"`
	UnitCost   decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_cost"`
}
