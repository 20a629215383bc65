package quotation

import "github.com/sourcedesk/sourcedesk/internal/settings"

// Breakdown carries every intermediate of the pricing computation. It is the
// single source of truth for display and export; callers must not re-derive
// any of these values independently.
type Breakdown struct {
	SubtotalFOBUSD            float64 `json:"subtotal_fob_usd"`
	TariffTotalUSD            float64 `json:"tariff_total_usd"`
	FreightIntlUSD            float64 `json:"freight_intl_usd"`
	InsuranceUSD              float64 `json:"insurance_usd"`
	InspectionUSD             float64 `json:"inspection_usd"`
	SubtotalUSD               float64 `json:"subtotal_usd"`
	ExchangeRate              float64 `json:"exchange_rate"`
	SubtotalLocal             float64 `json:"subtotal_local"`
	FreightNationalLocal      float64 `json:"freight_national_local"`
	NationalizationLocal      float64 `json:"nationalization_local"`
	SubtotalBeforeMarginLocal float64 `json:"subtotal_before_margin_local"`
	MarginPercent             float64 `json:"margin_percentage"`
	MarginLocal               float64 `json:"margin_local"`
	TotalLocal                float64 `json:"total_local"`
}

// ComputePricing derives the full cost breakdown for a quotation from its
// line items, quotation-level cost fields, and a pricing settings snapshot.
// Pure: no side effects, no I/O, identical inputs yield identical output.
//
// Insurance uses the quotation's explicit cost when positive; a zero value
// means "derive from the insurance percentage". An explicit waiver is not
// representable; that matches the behavior the business runs on today.
func ComputePricing(q Quotation, items []Item, s settings.Snapshot) Breakdown {
	var subtotalFOB, tariffTotal float64
	for _, item := range items {
		value := item.UnitPrice * float64(item.Quantity)
		subtotalFOB += value
		tariffTotal += value * item.TariffPercent / 100
	}

	freightIntl := q.FreightCost

	insurance := q.InsuranceCost
	if insurance <= 0 {
		insurance = (subtotalFOB + freightIntl) * s.InsurancePercent / 100
	}

	inspection := s.InspectionCostUSD

	subtotalUSD := subtotalFOB + tariffTotal + freightIntl + inspection + insurance
	subtotalLocal := subtotalUSD * s.ExchangeRateUSDCOP

	beforeMargin := subtotalLocal + q.OtherCosts + s.NationalizationCostCOP
	margin := beforeMargin * s.MarginPercent / 100

	return Breakdown{
		SubtotalFOBUSD:            subtotalFOB,
		TariffTotalUSD:            tariffTotal,
		FreightIntlUSD:            freightIntl,
		InsuranceUSD:              insurance,
		InspectionUSD:             inspection,
		SubtotalUSD:               subtotalUSD,
		ExchangeRate:              s.ExchangeRateUSDCOP,
		SubtotalLocal:             subtotalLocal,
		FreightNationalLocal:      q.OtherCosts,
		NationalizationLocal:      s.NationalizationCostCOP,
		SubtotalBeforeMarginLocal: beforeMargin,
		MarginPercent:             s.MarginPercent,
		MarginLocal:               margin,
		TotalLocal:                beforeMargin + margin,
	}
}

// ApplyBreakdown overwrites the quotation's derived fields from a computed
// breakdown. This is the only way derived fields may change.
func ApplyBreakdown(q *Quotation, b Breakdown) {
	q.Subtotal = b.SubtotalUSD
	q.Total = b.TotalLocal
	q.DiscountAmount = b.TotalLocal * q.DiscountPercent / 100
	q.GrandTotal = b.TotalLocal - q.DiscountAmount
}
