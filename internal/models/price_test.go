package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceSpecValidate(t *testing.T) {
	cases := []struct {
		name    string
		spec    PriceSpec
		wantErr bool
	}{
		{"flat", FlatPrice(decimal.NewFromInt(45)), false},
		{"flat negative", FlatPrice(decimal.NewFromInt(-1)), true},
		{"tiered", TieredPrice(PriceTier{Size: "S", Amount: decimal.NewFromInt(50)}, PriceTier{Size: "M", Amount: decimal.NewFromInt(60)}), false},
		{"tiered empty", PriceSpec{Kind: PriceTiered}, true},
		{"tiered duplicate", TieredPrice(PriceTier{Size: "m", Amount: decimal.NewFromInt(50)}, PriceTier{Size: "M", Amount: decimal.NewFromInt(60)}), true},
		{"tiered generic size", TieredPrice(PriceTier{Size: "Standart", Amount: decimal.NewFromInt(50)}), true},
		{"unknown kind", PriceSpec{Kind: "bundle"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.spec.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPriceSpecFor(t *testing.T) {
	flat := FlatPrice(decimal.NewFromInt(30))
	amount, ok := flat.For("XL")
	assert.True(t, ok)
	assert.True(t, amount.Equal(decimal.NewFromInt(30)))

	tiered := TieredPrice(PriceTier{Size: "M", Amount: decimal.NewFromInt(70)})
	_, ok = tiered.For("L")
	assert.False(t, ok)
	amount, ok = tiered.For(" m ")
	assert.True(t, ok)
	assert.True(t, amount.Equal(decimal.NewFromInt(70)))
}

func TestPriceSpecScanValue(t *testing.T) {
	in := TieredPrice(PriceTier{Size: "L", Amount: decimal.RequireFromString("82.50")})
	v, err := in.Value()
	require.NoError(t, err)

	var out PriceSpec
	require.NoError(t, out.Scan([]byte(v.(string))))
	assert.Equal(t, PriceTiered, out.Kind)
	amount, ok := out.For("L")
	assert.True(t, ok)
	assert.Equal(t, "82.5", amount.String())

	assert.Error(t, out.Scan(42))
}

func TestNormalizeSize(t *testing.T) {
	assert.Equal(t, GenericSize, NormalizeSize(" Standart "))
	assert.Equal(t, GenericSize, NormalizeSize(""))
	assert.Equal(t, "M", NormalizeSize("m"))
}

func TestCariTransactionTypeDelta(t *testing.T) {
	d, err := CariDebit.Delta(decimal.NewFromInt(150))
	require.NoError(t, err)
	assert.Equal(t, "150", d.String())

	d, err = CariPayment.Delta(decimal.NewFromInt(50))
	require.NoError(t, err)
	assert.Equal(t, "-50", d.String())

	_, err = CariTransactionType("REFUND").Delta(decimal.NewFromInt(1))
	assert.Error(t, err)
}

func TestPaymentMethod(t *testing.T) {
	assert.True(t, PaymentCari.IsDeferred())
	assert.False(t, PaymentCash.IsDeferred())
	assert.False(t, PaymentMethod("BTC").Valid())
}
