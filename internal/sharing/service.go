package sharing

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sourcedesk/sourcedesk/internal/quotation"
	"github.com/sourcedesk/sourcedesk/internal/shared"
)

// QuotationAccess is the slice of the quotation service the share surface
// needs: a fresh load on resolve, and the viewed transition hook.
type QuotationAccess interface {
	Get(ctx context.Context, id int64) (*quotation.Quotation, error)
	Transition(ctx context.Context, id int64, to quotation.Status) (*quotation.Quotation, error)
}

// PublicQuotation is the redacted projection served to unauthenticated
// viewers. Internal costs (unit cost, markup, tariff composition) are never
// included.
type PublicQuotation struct {
	Number     string       `json:"number"`
	Status     string       `json:"status"`
	Incoterm   string       `json:"incoterm"`
	Currency   string       `json:"currency"`
	ValidFrom  *time.Time   `json:"valid_from,omitempty"`
	ValidUntil *time.Time   `json:"valid_until,omitempty"`
	Items      []PublicItem `json:"items"`

	Total          float64 `json:"total"`
	DiscountAmount float64 `json:"discount_amount"`
	GrandTotal     float64 `json:"grand_total"`

	Notes *string `json:"notes,omitempty"`
	Terms *string `json:"terms,omitempty"`
}

// PublicItem carries only client-facing line fields.
type PublicItem struct {
	ProductName   string  `json:"product_name"`
	SKU           *string `json:"sku,omitempty"`
	Description   *string `json:"description,omitempty"`
	Quantity      int     `json:"quantity"`
	UnitOfMeasure string  `json:"unit_of_measure"`
	UnitPrice     float64 `json:"unit_price"`
	LineTotal     float64 `json:"line_total"`
	SortOrder     int     `json:"sort_order"`
}

// ShareLink is the result of issuing a share token.
type ShareLink struct {
	Token     string    `json:"token"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Service coordinates token issuance and resolution.
type Service struct {
	issuer     *Issuer
	quotations QuotationAccess
	baseURL    string
}

// NewService constructs a Service. baseURL is the externally reachable origin
// used to build share URLs.
func NewService(issuer *Issuer, quotations QuotationAccess, baseURL string) *Service {
	return &Service{issuer: issuer, quotations: quotations, baseURL: strings.TrimRight(baseURL, "/")}
}

// Issue creates a share token for an existing quotation.
func (s *Service) Issue(ctx context.Context, quotationID int64) (*ShareLink, error) {
	if _, err := s.quotations.Get(ctx, quotationID); err != nil {
		return nil, err
	}
	token, expiresAt, err := s.issuer.Issue(quotationID)
	if err != nil {
		return nil, err
	}
	return &ShareLink{
		Token:     token,
		URL:       s.baseURL + "/public/quotations/" + token,
		ExpiresAt: expiresAt,
	}, nil
}

// Resolve verifies a token and returns the quotation's public projection.
// A quotation still in sent is moved to viewed, best effort: the open signal
// must never break a valid share link.
func (s *Service) Resolve(ctx context.Context, token string) (*PublicQuotation, error) {
	quotationID, err := s.issuer.Verify(token)
	if err != nil {
		return nil, err
	}

	q, err := s.quotations.Get(ctx, quotationID)
	if err != nil {
		return nil, err
	}

	if q.Status == quotation.StatusSent {
		if updated, err := s.quotations.Transition(ctx, quotationID, quotation.StatusViewed); err == nil {
			q = updated
		} else if !errors.Is(err, shared.ErrInvalidTransition) && !errors.Is(err, shared.ErrConflict) {
			return nil, err
		}
	}

	return projectPublic(q), nil
}

func projectPublic(q *quotation.Quotation) *PublicQuotation {
	view := &PublicQuotation{
		Number:         q.Number,
		Status:         string(q.Status),
		Incoterm:       q.Incoterm,
		Currency:       q.Currency,
		ValidFrom:      q.ValidFrom,
		ValidUntil:     q.ValidUntil,
		Total:          q.Total,
		DiscountAmount: q.DiscountAmount,
		GrandTotal:     q.GrandTotal,
		Notes:          q.Notes,
		Terms:          q.Terms,
	}
	view.Items = make([]PublicItem, 0, len(q.Items))
	for _, item := range q.Items {
		view.Items = append(view.Items, PublicItem{
			ProductName:   item.ProductName,
			SKU:           item.SKU,
			Description:   item.Description,
			Quantity:      item.Quantity,
			UnitOfMeasure: item.UnitOfMeasure,
			UnitPrice:     item.UnitPrice,
			LineTotal:     item.LineTotal,
			SortOrder:     item.SortOrder,
		})
	}
	return view
}
