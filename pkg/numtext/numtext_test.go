package numtext

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAmountToWords(t *testing.T) {
	cases := []struct {
		amount int64
		want   string
	}{
		{0, "CERO"},
		{1, "UNO"},
		{7, "SIETE"},
		{10, "DIEZ"},
		{15, "QUINCE"},
		{19, "DIECINUEVE"},
		{20, "VEINTE"},
		{21, "VEINTE Y UNO"},
		{47, "CUARENTA Y SIETE"},
		{100, "CIEN"},
		{101, "CIENTO UNO"},
		{115, "CIENTO QUINCE"},
		{121, "CIENTO VEINTE Y UNO"},
		{500, "QUINIENTOS"},
		{999, "NOVECIENTOS NOVENTA Y NUEVE"},
		{1000, "UN MIL"},
		{1001, "UN MIL UNO"},
		{2000, "DOS MIL"},
		{21_000, "VEINTE Y UNO MIL"},
		{100_000, "CIEN MIL"},
		{123_456, "CIENTO VEINTE Y TRES MIL CUATROCIENTOS CINCUENTA Y SEIS"},
		{1_000_000, "UN MILLÓN"},
		{1_500_000, "UN MILLÓN QUINIENTOS MIL"},
		{2_000_000, "DOS MILLONES"},
		{2_000_100, "DOS MILLONES CIEN"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, AmountToWords(tc.amount), "amount %d", tc.amount)
	}
}

func TestWithCurrency(t *testing.T) {
	assert.Equal(t, "CIEN PESOS", WithCurrency(100, "PESOS"))
	assert.Equal(t, "CERO PESOS", WithCurrency(0, "PESOS"))
	assert.Equal(t, "UN MILLÓN PESOS", WithCurrency(1_000_000, "PESOS"))
}
