package fiscal

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestComputeWithholdingsFlags(t *testing.T) {
	subtotal, tax, total := d("1000.00"), d("190.00"), d("1190.00")

	// No flags, total below the VAT floor: nothing withheld.
	w := ComputeWithholdings(subtotal, tax, total, false, false)
	assert.True(t, w.Income.IsZero())
	assert.True(t, w.VAT.IsZero())
	assert.True(t, w.LocalTax.IsZero())
	assert.True(t, w.Total().IsZero())

	// Large taxpayer: income withholding only.
	w = ComputeWithholdings(subtotal, tax, total, true, false)
	assert.Equal(t, "25.00", w.Income.StringFixed(2))
	assert.True(t, w.VAT.IsZero())
	assert.True(t, w.LocalTax.IsZero())

	// Legal entity: local tax withholding only.
	w = ComputeWithholdings(subtotal, tax, total, false, true)
	assert.True(t, w.Income.IsZero())
	assert.Equal(t, "10.00", w.LocalTax.StringFixed(2))
}

func TestComputeWithholdingsVATFloor(t *testing.T) {
	subtotal, tax := d("1000000.00"), d("190000.00")

	// Above the floor and positive tax: 15% of the tax amount.
	w := ComputeWithholdings(subtotal, tax, d("1190000.00"), false, false)
	assert.Equal(t, "28500.00", w.VAT.StringFixed(2))

	// At the floor exactly: not withheld (floor is strict).
	w = ComputeWithholdings(subtotal, tax, d("980000.00"), false, false)
	assert.True(t, w.VAT.IsZero())

	// Above the floor but zero tax: nothing to withhold from.
	w = ComputeWithholdings(subtotal, decimal.Zero, d("1190000.00"), false, false)
	assert.True(t, w.VAT.IsZero())
}

func TestComputeWithholdingsRounding(t *testing.T) {
	// 1001 * 2.5% = 25.025 -> 25.03 half-up.
	w := ComputeWithholdings(d("1001.00"), decimal.Zero, d("1001.00"), true, false)
	assert.Equal(t, "25.03", w.Income.StringFixed(2))

	// 999.50 * 1% = 9.995 -> 10.00 half-up.
	w = ComputeWithholdings(d("999.50"), decimal.Zero, d("999.50"), false, true)
	assert.Equal(t, "10.00", w.LocalTax.StringFixed(2))
}

func TestComputeWithholdingsCombined(t *testing.T) {
	subtotal, tax, total := d("2000000.00"), d("380000.00"), d("2380000.00")

	w := ComputeWithholdings(subtotal, tax, total, true, true)
	assert.Equal(t, "50000.00", w.Income.StringFixed(2))
	assert.Equal(t, "57000.00", w.VAT.StringFixed(2))
	assert.Equal(t, "20000.00", w.LocalTax.StringFixed(2))
	assert.Equal(t, "127000.00", w.Total().StringFixed(2))
}
