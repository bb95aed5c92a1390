package fiscal

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDocument() Document {
	return Document{
		InvoiceNumber:        "POS-000042",
		IssuedAt:             time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC),
		Subtotal:             decimal.RequireFromString("1000.00"),
		TaxAmount:            decimal.RequireFromString("190.00"),
		Total:                decimal.RequireFromString("1190.00"),
		IssuerTaxID:          "900.123.456-7",
		CounterpartyDocType:  "13",
		CounterpartyDocument: "1.020.304.050",
		SoftwareID:           "a1b2c3d4",
		EnvironmentFlag:      "2",
		PIN:                  "75315",
	}
}

func TestAuthenticationCodeDeterministic(t *testing.T) {
	doc := testDocument()

	first := AuthenticationCode(doc)
	second := AuthenticationCode(doc)

	assert.Equal(t, first, second)
	assert.Len(t, first, 96) // SHA-384 hex
	assert.Regexp(t, "^[0-9a-f]+$", first)
}

func TestAuthenticationCodeFieldSensitivity(t *testing.T) {
	base := AuthenticationCode(testDocument())

	changed := testDocument()
	changed.IssuedAt = changed.IssuedAt.Add(time.Second)
	assert.NotEqual(t, base, AuthenticationCode(changed))

	changed = testDocument()
	changed.Total = decimal.RequireFromString("1190.01")
	assert.NotEqual(t, base, AuthenticationCode(changed))

	changed = testDocument()
	changed.EnvironmentFlag = "1"
	assert.NotEqual(t, base, AuthenticationCode(changed))

	changed = testDocument()
	changed.PIN = "75316"
	assert.NotEqual(t, base, AuthenticationCode(changed))
}

func TestAuthenticationCodeStripsNonDigits(t *testing.T) {
	clean := testDocument()
	clean.IssuerTaxID = "9001234567"
	clean.CounterpartyDocument = "1020304050"

	assert.Equal(t, AuthenticationCode(testDocument()), AuthenticationCode(clean))
}

func TestAuthenticationCodeDecimalFormatting(t *testing.T) {
	// 1000 and 1000.00 must format identically: padding is part of the contract.
	padded := testDocument()
	padded.Subtotal = decimal.NewFromInt(1000)
	padded.TaxAmount = decimal.NewFromInt(190)
	padded.Total = decimal.NewFromInt(1190)

	assert.Equal(t, AuthenticationCode(testDocument()), AuthenticationCode(padded))
}

func TestScannablePayload(t *testing.T) {
	doc := testDocument()
	code := AuthenticationCode(doc)

	uri, err := ScannablePayload(doc, code)
	require.NoError(t, err)

	const prefix = "data:image/png;base64,"
	require.True(t, len(uri) > len(prefix))
	assert.Equal(t, prefix, uri[:len(prefix)])
}

func TestDigitsOnly(t *testing.T) {
	assert.Equal(t, "9001234567", digitsOnly("900.123.456-7"))
	assert.Equal(t, "", digitsOnly("N/A"))
	assert.Equal(t, "42", digitsOnly("42"))
}
