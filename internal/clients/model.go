// Package clients exposes the client directory referenced by quotations.
// Client records are administered by the CRM surface; this service only
// reads them to verify references and decorate listings.
package clients

import "time"

type Client struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	TaxID     *string   `json:"tax_id,omitempty" db:"tax_id"`
	Email     *string   `json:"email,omitempty" db:"email"`
	Phone     *string   `json:"phone,omitempty" db:"phone"`
	Country   string    `json:"country" db:"country"`
	City      *string   `json:"city,omitempty" db:"city"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type ListClientsRequest struct {
	Search   *string `json:"search,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
	Limit    int     `json:"limit" validate:"gte=0,lte=1000"`
	Offset   int     `json:"offset" validate:"gte=0"`
}
