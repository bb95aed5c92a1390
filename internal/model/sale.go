package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleStatus enum constants
const (
	SaleStatusPosted = "POSTED"
	SaleStatusVoid   = "VOID"
)

// FulfillmentMode enum constants
const (
	FulfillmentImmediate = "IMMEDIATE"
	FulfillmentBackorder = "BACKORDER"
)

// Sale is a posted invoice. Rows are never deleted; voiding flips the status
// and appends an annotation so the trail stays reconstructible.
// Subtotal/TaxAmount are pre-withholding; Total is net of the header
// Discount and withholdings.
type Sale struct {
	ID            uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CompanyID     uuid.UUID `gorm:"type:uuid;not null;index:idx_sales_company_invoice,unique" json:"company_id"`
	ClientID      uuid.UUID `gorm:"type:uuid;not null;index" json:"client_id"`
	Client        *Client   `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	SellerID      *uuid.UUID `gorm:"type:uuid" json:"seller_id"`
	InvoiceNumber string    `gorm:"type:varchar(30);not null;index:idx_sales_company_invoice,unique" json:"invoice_number"`
	Status        string    `gorm:"type:varchar(20);not null;default:'POSTED';index" json:"status"`

	Subtotal         decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"subtotal"`
	Discount         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"discount"`
	TaxAmount        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"tax_amount"`
	WithholdingTotal decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"withholding_total"`
	Total            decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"total"`

	AuthenticationCode string `gorm:"type:varchar(96)" json:"authentication_code"`
	ScannablePayload   string `gorm:"type:text" json:"scannable_payload"`
	AmountInWords      string `gorm:"type:text" json:"amount_in_words"`

	Notes     string     `gorm:"type:text" json:"notes"`
	Lines     []SaleLine `gorm:"foreignKey:SaleID" json:"lines"`
	Taxes     []SaleTax  `gorm:"foreignKey:SaleID" json:"taxes"`
	Payments  []Payment  `gorm:"foreignKey:SaleID" json:"payments"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// SaleLine is one cart line. LineSubtotal is the gross quantity × unit price;
// line discounts roll up into the header Discount and come off the total once.
// BACKORDER lines never touch stock at issuance.
type SaleLine struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SaleID          uuid.UUID       `gorm:"type:uuid;not null;index" json:"sale_id"`
	ProductID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Product         *Product        `gorm:"foreignKey:ProductID" json:"-"`
	Quantity        int             `gorm:"type:int;not null" json:"quantity"`
	UnitPrice       decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_price"`
	Discount        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"discount"`
	LineSubtotal    decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"line_subtotal"`
	FulfillmentMode string          `gorm:"type:varchar(20);not null;default:'IMMEDIATE'" json:"fulfillment_mode"`
}

// SaleTax is an itemized tax breakdown row supplied by the cart.
type SaleTax struct {
	ID      uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SaleID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"sale_id"`
	TaxCode string          `gorm:"type:varchar(10);not null" json:"tax_code"`
	Base    decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"base"`
	Rate    decimal.Decimal `gorm:"type:decimal(10,4);not null" json:"rate"`
	Amount  decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"amount"`
}

// Payment is a tender row. Surplus over the sale total is change and is not
// persisted anywhere.
type Payment struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SaleID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"sale_id"`
	Method    string          `gorm:"type:varchar(30);not null" json:"method"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"amount"`
	Reference string          `gorm:"type:varchar(100)" json:"reference"`
	CreatedAt time.Time       `json:"created_at"`
}
