package engine_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"dealbridge/engine"
)

func TestNormalize(t *testing.T) {
	e := newTestEngine(&fakeStore{})

	tests := []struct {
		name    string
		price   float64
		taxType engine.TaxType
		want    float64
		ok      bool
	}{
		{name: "VAT0 grossed up", price: 100, taxType: engine.TaxTypeVAT0, want: 121, ok: true},
		{name: "Margin unchanged", price: 100, taxType: engine.TaxTypeMargin, want: 100, ok: true},
		{name: "VAT21 unchanged", price: 100, taxType: engine.TaxTypeVAT21, want: 100, ok: true},
		{name: "NaN rejected", price: math.NaN(), taxType: engine.TaxTypeMargin, ok: false},
		{name: "infinity rejected", price: math.Inf(1), taxType: engine.TaxTypeVAT0, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := e.Normalize(tt.price, tt.taxType)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestNormalizeCustomRate(t *testing.T) {
	e := engine.New(&fakeStore{}, engine.Config{VATRate: 1.19}, nil)
	got, ok := e.Normalize(100, engine.TaxTypeVAT0)
	assert.True(t, ok)
	assert.InDelta(t, 119, got, 1e-9)
}

func TestDenormalizeRoundTrip(t *testing.T) {
	e := newTestEngine(&fakeStore{})

	// VAT0 ↔ 毛價的換算必須在浮點容差內互為反運算
	for _, price := range []float64{0.01, 1, 99.95, 108.9, 1234.56} {
		gross, ok := e.Normalize(price, engine.TaxTypeVAT0)
		assert.True(t, ok)
		assert.InDelta(t, price, e.Denormalize(gross, engine.TaxTypeVAT0), 1e-9)
	}

	assert.InDelta(t, 121, e.Denormalize(121, engine.TaxTypeMargin), 1e-9)
	assert.InDelta(t, 121, e.Denormalize(121, engine.TaxTypeVAT21), 1e-9)
}
