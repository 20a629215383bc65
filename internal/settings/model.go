// Package settings supplies the named numeric pricing parameters used by the
// quotation pricing calculator. Values are administered out of band; readers
// always receive a complete snapshot, with documented defaults filling any
// key an administrator has not configured yet.
package settings

import "time"

// Setting keys as stored in the pricing_settings table.
const (
	KeyDefaultMarginPercentage = "default_margin_percentage"
	KeyInspectionCostUSD       = "inspection_cost_usd"
	KeyInsurancePercentage     = "insurance_percentage"
	KeyNationalizationCostCOP  = "nationalization_cost_cop"
	KeyExchangeRateUSDCOP      = "exchange_rate_usd_cop"
)

// Defaults applied when a key is absent. The system must remain able to
// quote before every parameter has been configured.
const (
	DefaultMarginPercentage      = 20.0
	DefaultInspectionCostUSD     = 150.0
	DefaultInsurancePercentage   = 1.5
	DefaultNationalizationCostCOP = 200000.0
	DefaultExchangeRateUSDCOP    = 4200.0
)

// Setting is one stored pricing parameter.
type Setting struct {
	Key       string    `json:"key" db:"key"`
	Value     float64   `json:"value" db:"value"`
	UpdatedBy int64     `json:"updated_by" db:"updated_by"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Snapshot is the complete set of pricing parameters at one point in time.
// It is passed by value into the pricing calculator, never read through a
// hidden global.
type Snapshot struct {
	MarginPercent          float64 `json:"default_margin_percentage"`
	InspectionCostUSD      float64 `json:"inspection_cost_usd"`
	InsurancePercent       float64 `json:"insurance_percentage"`
	NationalizationCostCOP float64 `json:"nationalization_cost_cop"`
	ExchangeRateUSDCOP     float64 `json:"exchange_rate_usd_cop"`
}

// DefaultSnapshot returns a snapshot with every key at its documented default.
func DefaultSnapshot() Snapshot {
	return Snapshot{
		MarginPercent:          DefaultMarginPercentage,
		InspectionCostUSD:      DefaultInspectionCostUSD,
		InsurancePercent:       DefaultInsurancePercentage,
		NationalizationCostCOP: DefaultNationalizationCostCOP,
		ExchangeRateUSDCOP:     DefaultExchangeRateUSDCOP,
	}
}

// SnapshotFromMap builds a snapshot from stored values, falling back to the
// documented default for each absent key.
func SnapshotFromMap(values map[string]float64) Snapshot {
	snap := DefaultSnapshot()
	if v, ok := values[KeyDefaultMarginPercentage]; ok {
		snap.MarginPercent = v
	}
	if v, ok := values[KeyInspectionCostUSD]; ok {
		snap.InspectionCostUSD = v
	}
	if v, ok := values[KeyInsurancePercentage]; ok {
		snap.InsurancePercent = v
	}
	if v, ok := values[KeyNationalizationCostCOP]; ok {
		snap.NationalizationCostCOP = v
	}
	if v, ok := values[KeyExchangeRateUSDCOP]; ok {
		snap.ExchangeRateUSDCOP = v
	}
	return snap
}

// KnownKey reports whether key names a recognised pricing parameter.
func KnownKey(key string) bool {
	switch key {
	case KeyDefaultMarginPercentage, KeyInspectionCostUSD, KeyInsurancePercentage,
		KeyNationalizationCostCOP, KeyExchangeRateUSDCOP:
		return true
	}
	return false
}
