package model

import (
	"time"

	"github.com/google/uuid"
)

// MovementKind enum constants
const (
	MovementIn  = "IN"
	MovementOut = "OUT"
)

// ReasonCode enum constants
const (
	ReasonSale             = "SALE"
	ReasonPurchase         = "PURCHASE"
	ReasonManualAdjustment = "MANUAL_ADJUSTMENT"
)

// InventoryMovement is the append-only stock ledger. Every Product stock
// mutation produces exactly one row; StockAfter must equal
// StockBefore + Quantity for IN and StockBefore - Quantity for OUT.
type InventoryMovement struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CompanyID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"company_id"`
	ProductID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"product_id"`
	Kind        string     `gorm:"type:varchar(10);not null" json:"kind"`
	Quantity    int        `gorm:"type:int;not null" json:"quantity"` // non-negative magnitude
	StockBefore int        `gorm:"type:int;not null" json:"stock_before"`
	StockAfter  int        `gorm:"type:int;not null" json:"stock_after"`
	ReasonCode  string     `gorm:"type:varchar(30);not null;index" json:"reason_code"`
	ReferenceID *uuid.UUID `gorm:"type:uuid;index" json:"reference_id"` // Sale/Purchase id, nil for manual
	Notes       string     `gorm:"type:text" json:"notes"`
	ActorID     *uuid.UUID `gorm:"type:uuid" json:"actor_id"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
}
