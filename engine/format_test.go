package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"dealbridge/engine"
)

func TestFormatDisplay(t *testing.T) {
	e := newTestEngine(&fakeStore{})

	tests := []struct {
		name  string
		price engine.NormalizedPrice
		want  string
	}{
		{
			name:  "VAT21 with VAT0 equivalent",
			price: engine.NormalizedPrice{Normalized: 121, Raw: 121, TaxType: engine.TaxTypeVAT21},
			want:  "€121.00 (VAT21) / €100.00 (VAT0)",
		},
		{
			name:  "VAT0 with gross equivalent",
			price: engine.NormalizedPrice{Normalized: 121, Raw: 100, TaxType: engine.TaxTypeVAT0},
			want:  "€100.00 (VAT0) / €121.00 (VAT21)",
		},
		{
			name:  "Margin rendered on the gross side",
			price: engine.NormalizedPrice{Normalized: 147.5, Raw: 147.5, TaxType: engine.TaxTypeMargin},
			want:  "€147.50 (Margin) / €121.90 (VAT0)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.FormatDisplay(tt.price))
		})
	}
}

func TestFormatDisplayCustomSymbol(t *testing.T) {
	e := engine.New(&fakeStore{}, engine.Config{CurrencySymbol: "$"}, nil)
	got := e.FormatDisplay(engine.NormalizedPrice{Raw: 100, TaxType: engine.TaxTypeVAT21})
	assert.Equal(t, "$100.00 (VAT21) / $82.64 (VAT0)", got)
}
