package quotation

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a quotation. Mutated only through
// Transition so the adjacency rules in workflow.go always hold.
type Status string

const (
	StatusDraft       Status = "draft"
	StatusSent        Status = "sent"
	StatusViewed      Status = "viewed"
	StatusNegotiating Status = "negotiating"
	StatusAccepted    Status = "accepted"
	StatusRejected    Status = "rejected"
	StatusExpired     Status = "expired"
)

// Quotation is the aggregate root composing line items, workflow status and
// cost fields. Derived money fields change only via recalculation; Subtotal
// is expressed in USD, Total/DiscountAmount/GrandTotal in the local currency.
type Quotation struct {
	ID       int64     `json:"id" db:"id"`
	Number   string    `json:"number" db:"number"`
	PublicID uuid.UUID `json:"public_id" db:"public_id"`
	ClientID int64     `json:"client_id" db:"client_id"`

	Status   Status `json:"status" db:"status"`
	Incoterm string `json:"incoterm" db:"incoterm"`
	Currency string `json:"currency" db:"currency"`

	FreightCost     float64 `json:"freight_cost" db:"freight_cost"`
	InsuranceCost   float64 `json:"insurance_cost" db:"insurance_cost"`
	OtherCosts      float64 `json:"other_costs" db:"other_costs"`
	DiscountPercent float64 `json:"discount_percent" db:"discount_percent"`

	Subtotal       float64 `json:"subtotal" db:"subtotal"`
	Total          float64 `json:"total" db:"total"`
	DiscountAmount float64 `json:"discount_amount" db:"discount_amount"`
	GrandTotal     float64 `json:"grand_total" db:"grand_total"`

	ValidFrom  *time.Time `json:"valid_from,omitempty" db:"valid_from"`
	ValidUntil *time.Time `json:"valid_until,omitempty" db:"valid_until"`

	Notes *string `json:"notes,omitempty" db:"notes"`
	Terms *string `json:"terms,omitempty" db:"terms"`

	CreatedBy int64     `json:"created_by" db:"created_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	Items []Item `json:"items,omitempty" db:"-"`
}

// Item is a line item owned by exactly one quotation. Free-text items are
// allowed: ProductID is optional and ProductName/SKU carry the description.
type Item struct {
	ID          int64 `json:"id" db:"id"`
	QuotationID int64 `json:"quotation_id" db:"quotation_id"`

	ProductID   *int64  `json:"product_id,omitempty" db:"product_id"`
	ProductName string  `json:"product_name" db:"product_name"`
	SKU         *string `json:"sku,omitempty" db:"sku"`
	Description *string `json:"description,omitempty" db:"description"`

	Quantity      int     `json:"quantity" db:"quantity"`
	UnitOfMeasure string  `json:"unit_of_measure" db:"unit_of_measure"`
	UnitCost      float64 `json:"unit_cost" db:"unit_cost"`
	UnitPrice     float64 `json:"unit_price" db:"unit_price"`

	MarkupPercent float64 `json:"markup_percent" db:"markup_percent"`
	TariffPercent float64 `json:"tariff_percent" db:"tariff_percent"`
	TariffAmount  float64 `json:"tariff_amount" db:"tariff_amount"`
	FreightAmount float64 `json:"freight_amount" db:"freight_amount"`

	LineTotal float64 `json:"line_total" db:"line_total"`

	SortOrder int     `json:"sort_order" db:"sort_order"`
	Notes     *string `json:"notes,omitempty" db:"notes"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ComputeLineTotal derives the item total from its inputs. Called on every
// mutation of quantity, price, tariff or freight so the stored value never
// drifts from its inputs.
func (i *Item) ComputeLineTotal() {
	i.LineTotal = float64(i.Quantity)*i.UnitPrice + i.TariffAmount + i.FreightAmount
}

// QuotationWithClient decorates a quotation with listing display fields.
type QuotationWithClient struct {
	Quotation
	ClientName    string `json:"client_name" db:"client_name"`
	CreatedByName string `json:"created_by_name" db:"created_by_name"`
}
