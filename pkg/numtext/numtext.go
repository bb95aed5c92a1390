package numtext

import "strings"

// Spanish cardinal words for printed invoice amounts. The output matches the
// wording printed on fiscal documents, which joins tens and units with "Y"
// and uses the apocopated "UN" only before MIL and MILLÓN.

var units = [10]string{
	"CERO", "UNO", "DOS", "TRES", "CUATRO",
	"CINCO", "SEIS", "SIETE", "OCHO", "NUEVE",
}

var teens = [10]string{
	"DIEZ", "ONCE", "DOCE", "TRECE", "CATORCE",
	"QUINCE", "DIECISEIS", "DIECISIETE", "DIECIOCHO", "DIECINUEVE",
}

var tens = [10]string{
	"", "", "VEINTE", "TREINTA", "CUARENTA",
	"CINCUENTA", "SESENTA", "SETENTA", "OCHENTA", "NOVENTA",
}

var hundreds = [10]string{
	"", "CIENTO", "DOSCIENTOS", "TRESCIENTOS", "CUATROCIENTOS",
	"QUINIENTOS", "SEISCIENTOS", "SETECIENTOS", "OCHOCIENTOS", "NOVECIENTOS",
}

// groupToWords renders 1..999. Exactly 100 is the irregular CIEN; anything
// 101..199 uses CIENTO.
func groupToWords(n int64) string {
	if n == 100 {
		return "CIEN"
	}

	var parts []string
	if h := n / 100; h > 0 {
		parts = append(parts, hundreds[h])
	}

	r := n % 100
	switch {
	case r == 0:
	case r < 10:
		parts = append(parts, units[r])
	case r < 20:
		parts = append(parts, teens[r-10])
	default:
		t, u := r/10, r%10
		if u == 0 {
			parts = append(parts, tens[t])
		} else {
			parts = append(parts, tens[t]+" Y "+units[u])
		}
	}

	return strings.Join(parts, " ")
}

// AmountToWords converts a non-negative integer amount into its Spanish
// written form, e.g. 1500000 -> "UN MILLÓN QUINIENTOS MIL".
func AmountToWords(n int64) string {
	if n <= 0 {
		return units[0]
	}

	var parts []string

	if millions := n / 1_000_000; millions > 0 {
		if millions == 1 {
			parts = append(parts, "UN MILLÓN")
		} else {
			parts = append(parts, groupToWords(millions)+" MILLONES")
		}
	}

	if thousands := (n % 1_000_000) / 1000; thousands > 0 {
		if thousands == 1 {
			parts = append(parts, "UN MIL")
		} else {
			parts = append(parts, groupToWords(thousands)+" MIL")
		}
	}

	if rest := n % 1000; rest > 0 {
		parts = append(parts, groupToWords(rest))
	}

	return strings.Join(parts, " ")
}

// WithCurrency appends the currency suffix, e.g. "CIEN PESOS".
func WithCurrency(n int64, currency string) string {
	return AmountToWords(n) + " " + currency
}
