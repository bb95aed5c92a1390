// Package fiscal implements the deterministic invoice encodings required by
// the tax authority: the authentication digest, the scannable QR payload and
// the withholding calculation. Everything here is pure — persistence and
// transport stay in the service layer.
package fiscal

import (
	"crypto/sha512"
	"encoding/hex"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Fixed tax-type codes hashed into the authentication digest. Only the VAT
// pair carries a real amount under the current rule set; the other two are
// zero-filled placeholders that remain part of the hashed byte sequence.
const (
	taxCodeVAT         = "01"
	taxCodeConsumption = "04"
	taxCodeLocal       = "03"

	zeroAmount = "0.00"
)

// Document carries every field the encoders hash or render. Subtotal and
// TaxAmount are pre-withholding; Total is the net payable. Field formatting
// is a compatibility contract with the external verifier — do not change the
// order, padding or decimal precision.
type Document struct {
	InvoiceNumber        string
	IssuedAt             time.Time
	Subtotal             decimal.Decimal
	TaxAmount            decimal.Decimal
	Total                decimal.Decimal
	IssuerTaxID          string
	CounterpartyDocType  string
	CounterpartyDocument string
	SoftwareID           string
	EnvironmentFlag      string // "1" production, "2" test
	PIN                  string
}

// AuthenticationCode returns the hex SHA-384 digest of the document's fields
// concatenated in the authority's fixed order.
func AuthenticationCode(doc Document) string {
	var b strings.Builder
	b.WriteString(doc.InvoiceNumber)
	b.WriteString(doc.IssuedAt.Format("20060102"))
	b.WriteString(doc.IssuedAt.Format("150405"))
	b.WriteString(doc.Subtotal.StringFixed(2))
	b.WriteString(taxCodeVAT)
	b.WriteString(doc.TaxAmount.StringFixed(2))
	b.WriteString(taxCodeConsumption)
	b.WriteString(zeroAmount)
	b.WriteString(taxCodeLocal)
	b.WriteString(zeroAmount)
	b.WriteString(doc.Total.StringFixed(2))
	b.WriteString(digitsOnly(doc.IssuerTaxID))
	b.WriteString(doc.CounterpartyDocType)
	b.WriteString(digitsOnly(doc.CounterpartyDocument))
	b.WriteString(doc.SoftwareID)
	b.WriteString(doc.EnvironmentFlag)
	b.WriteString(doc.PIN)

	sum := sha512.Sum384([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// digitsOnly strips every non-digit character, so "900.123.456-7" and
// "9001234567" hash identically.
func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
