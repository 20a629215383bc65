package quotation

import "time"

type CreateQuotationRequest struct {
	ClientID        int64      `json:"client_id" validate:"required,gt=0"`
	Number          *string    `json:"number,omitempty" validate:"omitempty,max=50"`
	Incoterm        string     `json:"incoterm" validate:"required,max=10"`
	Currency        string     `json:"currency" validate:"required,len=3"`
	FreightCost     float64    `json:"freight_cost" validate:"gte=0"`
	InsuranceCost   float64    `json:"insurance_cost" validate:"gte=0"`
	OtherCosts      float64    `json:"other_costs" validate:"gte=0"`
	DiscountPercent float64    `json:"discount_percent" validate:"gte=0,lte=100"`
	ValidFrom       *time.Time `json:"valid_from,omitempty"`
	ValidUntil      *time.Time `json:"valid_until,omitempty"`
	Notes           *string    `json:"notes,omitempty"`
	Terms           *string    `json:"terms,omitempty"`
	Items           []ItemInput `json:"items" validate:"dive"`
}

// ItemInput creates one line item. Catalog reference is optional; free-text
// items carry their own product name and sku.
type ItemInput struct {
	ProductID     *int64  `json:"product_id,omitempty" validate:"omitempty,gt=0"`
	ProductName   string  `json:"product_name" validate:"required,max=200"`
	SKU           *string `json:"sku,omitempty" validate:"omitempty,max=50"`
	Description   *string `json:"description,omitempty"`
	Quantity      int     `json:"quantity" validate:"required,gt=0"`
	UnitOfMeasure string  `json:"unit_of_measure" validate:"max=20"`
	UnitCost      float64 `json:"unit_cost" validate:"gte=0"`
	UnitPrice     float64 `json:"unit_price" validate:"gte=0"`
	MarkupPercent float64 `json:"markup_percent" validate:"gte=0,lte=1000"`
	TariffPercent float64 `json:"tariff_percent" validate:"gte=0,lte=100"`
	TariffAmount  float64 `json:"tariff_amount" validate:"gte=0"`
	FreightAmount float64 `json:"freight_amount" validate:"gte=0"`
	SortOrder     int     `json:"sort_order" validate:"gte=0"`
	Notes         *string `json:"notes,omitempty"`
}

// UpdateItemInput applies a partial update; only supplied fields change.
type UpdateItemInput struct {
	ProductID     *int64   `json:"product_id,omitempty" validate:"omitempty,gt=0"`
	ProductName   *string  `json:"product_name,omitempty" validate:"omitempty,max=200"`
	SKU           *string  `json:"sku,omitempty" validate:"omitempty,max=50"`
	Description   *string  `json:"description,omitempty"`
	Quantity      *int     `json:"quantity,omitempty" validate:"omitempty,gt=0"`
	UnitOfMeasure *string  `json:"unit_of_measure,omitempty" validate:"omitempty,max=20"`
	UnitCost      *float64 `json:"unit_cost,omitempty" validate:"omitempty,gte=0"`
	UnitPrice     *float64 `json:"unit_price,omitempty" validate:"omitempty,gte=0"`
	MarkupPercent *float64 `json:"markup_percent,omitempty" validate:"omitempty,gte=0,lte=1000"`
	TariffPercent *float64 `json:"tariff_percent,omitempty" validate:"omitempty,gte=0,lte=100"`
	TariffAmount  *float64 `json:"tariff_amount,omitempty" validate:"omitempty,gte=0"`
	FreightAmount *float64 `json:"freight_amount,omitempty" validate:"omitempty,gte=0"`
	SortOrder     *int     `json:"sort_order,omitempty" validate:"omitempty,gte=0"`
	Notes         *string  `json:"notes,omitempty"`
}

// UpdateQuotationRequest changes header-level cost fields and the validity
// window. Every change triggers a recomputation of derived totals.
type UpdateQuotationRequest struct {
	FreightCost     *float64   `json:"freight_cost,omitempty" validate:"omitempty,gte=0"`
	InsuranceCost   *float64   `json:"insurance_cost,omitempty" validate:"omitempty,gte=0"`
	OtherCosts      *float64   `json:"other_costs,omitempty" validate:"omitempty,gte=0"`
	DiscountPercent *float64   `json:"discount_percent,omitempty" validate:"omitempty,gte=0,lte=100"`
	ValidFrom       *time.Time `json:"valid_from,omitempty"`
	ValidUntil      *time.Time `json:"valid_until,omitempty"`
	Notes           *string    `json:"notes,omitempty"`
	Terms           *string    `json:"terms,omitempty"`
}

type TransitionRequest struct {
	Status Status `json:"status" validate:"required"`
}

type ListQuotationsRequest struct {
	ClientID *int64     `json:"client_id,omitempty"`
	Status   *Status    `json:"status,omitempty"`
	DateFrom *time.Time `json:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty"`
	Limit    int        `json:"limit" validate:"gte=0,lte=1000"`
	Offset   int        `json:"offset" validate:"gte=0"`
}
