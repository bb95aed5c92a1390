package fiscal

import "github.com/shopspring/decimal"

// Withholding rates fixed by statute.
var (
	incomeWithholdingRate = decimal.New(25, -3) // 2.5% of subtotal, large taxpayers only
	vatWithholdingRate    = decimal.New(15, -2) // 15% of the tax amount
	localTaxRate          = decimal.New(1, -2)  // 1% of subtotal, legal entities only

	// vatWithholdingFloor is the statutory minimum sale total (27 tax units)
	// below which no VAT withholding applies.
	vatWithholdingFloor = decimal.New(980_000, 0)
)

// Withholdings holds the three independently rounded withholding amounts.
type Withholdings struct {
	Income   decimal.Decimal
	VAT      decimal.Decimal
	LocalTax decimal.Decimal
}

// Total sums the three withholdings.
func (w Withholdings) Total() decimal.Decimal {
	return w.Income.Add(w.VAT).Add(w.LocalTax)
}

// ComputeWithholdings derives the withholding amounts from a sale's
// pre-withholding figures and the counterparty's classification. Each amount
// is rounded half-up to 2 decimals on its own; callers subtract Total() from
// the sale total to obtain the net payable.
func ComputeWithholdings(subtotal, taxAmount, total decimal.Decimal, isLargeTaxpayer, isLegalEntity bool) Withholdings {
	var w Withholdings

	w.Income = decimal.Zero
	if isLargeTaxpayer {
		w.Income = subtotal.Mul(incomeWithholdingRate).Round(2)
	}

	w.VAT = decimal.Zero
	if taxAmount.IsPositive() && total.GreaterThan(vatWithholdingFloor) {
		w.VAT = taxAmount.Mul(vatWithholdingRate).Round(2)
	}

	w.LocalTax = decimal.Zero
	if isLegalEntity {
		w.LocalTax = subtotal.Mul(localTaxRate).Round(2)
	}

	return w
}
