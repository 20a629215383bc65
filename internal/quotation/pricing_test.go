package quotation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sourcedesk/sourcedesk/internal/settings"
)

func TestComputePricingFullBreakdown(t *testing.T) {
	q := Quotation{
		FreightCost:   100,
		InsuranceCost: 0, // derive from settings
		OtherCosts:    50000,
	}
	items := []Item{
		{Quantity: 2, UnitPrice: 100, TariffPercent: 5},
	}

	b := ComputePricing(q, items, settings.DefaultSnapshot())

	require.InDelta(t, 200.0, b.SubtotalFOBUSD, 1e-9)
	require.InDelta(t, 10.0, b.TariffTotalUSD, 1e-9)
	require.InDelta(t, 100.0, b.FreightIntlUSD, 1e-9)
	// (200 + 100) * 1.5%
	require.InDelta(t, 4.5, b.InsuranceUSD, 1e-9)
	require.InDelta(t, 150.0, b.InspectionUSD, 1e-9)
	require.InDelta(t, 464.5, b.SubtotalUSD, 1e-9)
	require.InDelta(t, 4200.0, b.ExchangeRate, 1e-9)
	require.InDelta(t, 1950900.0, b.SubtotalLocal, 1e-6)
	require.InDelta(t, 50000.0, b.FreightNationalLocal, 1e-9)
	require.InDelta(t, 200000.0, b.NationalizationLocal, 1e-9)
	require.InDelta(t, 2200900.0, b.SubtotalBeforeMarginLocal, 1e-6)
	require.InDelta(t, 20.0, b.MarginPercent, 1e-9)
	require.InDelta(t, 440180.0, b.MarginLocal, 1e-6)
	require.InDelta(t, 2641080.0, b.TotalLocal, 1e-6)
}

func TestComputePricingExplicitInsurance(t *testing.T) {
	q := Quotation{FreightCost: 100, InsuranceCost: 25}
	items := []Item{{Quantity: 1, UnitPrice: 500}}

	b := ComputePricing(q, items, settings.DefaultSnapshot())

	require.InDelta(t, 25.0, b.InsuranceUSD, 1e-9)
}

func TestComputePricingNoItems(t *testing.T) {
	q := Quotation{FreightCost: 80}

	b := ComputePricing(q, nil, settings.DefaultSnapshot())

	require.Zero(t, b.SubtotalFOBUSD)
	require.Zero(t, b.TariffTotalUSD)
	// Fixed costs still apply: insurance on freight alone, inspection,
	// nationalization, margin.
	require.InDelta(t, 80*1.5/100, b.InsuranceUSD, 1e-9)
	require.Greater(t, b.TotalLocal, 0.0)
}

func TestComputePricingDeterministic(t *testing.T) {
	q := Quotation{FreightCost: 42.5, OtherCosts: 12345}
	items := []Item{
		{Quantity: 3, UnitPrice: 19.99, TariffPercent: 10},
		{Quantity: 7, UnitPrice: 4.25, TariffPercent: 0},
	}
	snap := settings.Snapshot{
		MarginPercent:          18,
		InspectionCostUSD:      120,
		InsurancePercent:       2,
		NationalizationCostCOP: 175000,
		ExchangeRateUSDCOP:     4015.33,
	}

	first := ComputePricing(q, items, snap)
	second := ComputePricing(q, items, snap)

	require.Equal(t, first, second)
}

func TestApplyBreakdown(t *testing.T) {
	q := Quotation{DiscountPercent: 10}
	b := Breakdown{SubtotalUSD: 464.5, TotalLocal: 2641080}

	ApplyBreakdown(&q, b)

	require.InDelta(t, 464.5, q.Subtotal, 1e-9)
	require.InDelta(t, 2641080.0, q.Total, 1e-6)
	require.InDelta(t, 264108.0, q.DiscountAmount, 1e-6)
	require.InDelta(t, 2376972.0, q.GrandTotal, 1e-6)
}

func TestApplyBreakdownNoDiscount(t *testing.T) {
	q := Quotation{}
	ApplyBreakdown(&q, Breakdown{SubtotalUSD: 100, TotalLocal: 420000})

	require.Zero(t, q.DiscountAmount)
	require.InDelta(t, 420000.0, q.GrandTotal, 1e-9)
}
