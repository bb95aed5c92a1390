package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents a sellable item. StockOnHand is a denormalized cache of
// the latest InventoryMovement.StockAfter and is mutated only by the ledger
// service; TracksStock=false marks services which never carry stock.
// SKU uniqueness is scoped to the owning company, so two tenants may reuse
// the same code.
type Product struct {
	ID             uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CompanyID      uuid.UUID       `gorm:"type:uuid;not null;index:idx_products_company_sku,unique" json:"company_id"`
	SKU            string          `gorm:"type:varchar(100);not null;index:idx_products_company_sku,unique" json:"sku"`
	Name           string          `gorm:"type:varchar(255);not null" json:"name"`
	StockOnHand    int             `gorm:"type:int;default:0;not null" json:"stock_on_hand"`
	ReorderMinimum int             `gorm:"type:int;default:0;not null" json:"reorder_minimum"`
	TracksStock    bool            `gorm:"default:true;not null" json:"tracks_stock"`
	PurchaseCost   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"purchase_cost"`
	RetailPrice    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"retail_price"`
	WholesalePrice decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"wholesale_price"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `gorm:"index" json:"-"`
}
