// Package products exposes the catalog products a quotation line item may
// reference. Free-text items bypass the catalog entirely.
package products

import "time"

type Product struct {
	ID            int64     `json:"id" db:"id"`
	SKU           string    `json:"sku" db:"sku"`
	Name          string    `json:"name" db:"name"`
	Description   *string   `json:"description,omitempty" db:"description"`
	UnitOfMeasure string    `json:"unit_of_measure" db:"unit_of_measure"`
	UnitCost      float64   `json:"unit_cost" db:"unit_cost"`
	SupplierID    *int64    `json:"supplier_id,omitempty" db:"supplier_id"`
	IsActive      bool      `json:"is_active" db:"is_active"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

type ListProductsRequest struct {
	Search   *string `json:"search,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
	Limit    int     `json:"limit" validate:"gte=0,lte=1000"`
	Offset   int     `json:"offset" validate:"gte=0"`
}
