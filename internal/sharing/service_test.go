package sharing

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sourcedesk/sourcedesk/internal/quotation"
	"github.com/sourcedesk/sourcedesk/internal/shared"
)

type fakeQuotations struct {
	byID        map[int64]*quotation.Quotation
	transitions []quotation.Status
}

func (f *fakeQuotations) Get(ctx context.Context, id int64) (*quotation.Quotation, error) {
	q, ok := f.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *q
	return &copied, nil
}

func (f *fakeQuotations) Transition(ctx context.Context, id int64, to quotation.Status) (*quotation.Quotation, error) {
	q, ok := f.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	if err := quotation.Transition(q, to); err != nil {
		return nil, err
	}
	f.transitions = append(f.transitions, to)
	copied := *q
	return &copied, nil
}

func newShareService(quotations *fakeQuotations) *Service {
	issuer := NewIssuer("test-secret", time.Hour)
	return NewService(issuer, quotations, "https://quotes.example.com/")
}

func sentQuotation(id int64) *quotation.Quotation {
	return &quotation.Quotation{
		ID:       id,
		Number:   "COT-2609-0001",
		Status:   quotation.StatusSent,
		Incoterm: "FOB",
		Currency: "USD",
		Total:    2641080,
		Items: []quotation.Item{
			{ProductName: "Pump", Quantity: 2, UnitPrice: 100, UnitCost: 60, MarkupPercent: 40, LineTotal: 200, SortOrder: 1},
		},
	}
}

func TestIssueBuildsShareURL(t *testing.T) {
	quotations := &fakeQuotations{byID: map[int64]*quotation.Quotation{42: sentQuotation(42)}}
	svc := newShareService(quotations)

	link, err := svc.Issue(context.Background(), 42)
	require.NoError(t, err)
	require.NotEmpty(t, link.Token)
	require.Equal(t, "https://quotes.example.com/public/quotations/"+link.Token, link.URL)
	require.True(t, link.ExpiresAt.After(time.Now()))
}

func TestIssueUnknownQuotation(t *testing.T) {
	svc := newShareService(&fakeQuotations{byID: map[int64]*quotation.Quotation{}})

	_, err := svc.Issue(context.Background(), 42)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestResolveMarksSentAsViewed(t *testing.T) {
	quotations := &fakeQuotations{byID: map[int64]*quotation.Quotation{42: sentQuotation(42)}}
	svc := newShareService(quotations)

	link, err := svc.Issue(context.Background(), 42)
	require.NoError(t, err)

	view, err := svc.Resolve(context.Background(), link.Token)
	require.NoError(t, err)
	require.Equal(t, string(quotation.StatusViewed), view.Status)
	require.Equal(t, []quotation.Status{quotation.StatusViewed}, quotations.transitions)

	// A second open is not another transition.
	view, err = svc.Resolve(context.Background(), link.Token)
	require.NoError(t, err)
	require.Equal(t, string(quotation.StatusViewed), view.Status)
	require.Len(t, quotations.transitions, 1)
}

func TestResolveLeavesLaterStatusesAlone(t *testing.T) {
	q := sentQuotation(42)
	q.Status = quotation.StatusAccepted
	quotations := &fakeQuotations{byID: map[int64]*quotation.Quotation{42: q}}
	svc := newShareService(quotations)

	link, err := svc.Issue(context.Background(), 42)
	require.NoError(t, err)

	view, err := svc.Resolve(context.Background(), link.Token)
	require.NoError(t, err)
	require.Equal(t, string(quotation.StatusAccepted), view.Status)
	require.Empty(t, quotations.transitions)
}

func TestResolveInvalidToken(t *testing.T) {
	svc := newShareService(&fakeQuotations{byID: map[int64]*quotation.Quotation{}})

	_, err := svc.Resolve(context.Background(), "garbage")
	require.ErrorIs(t, err, shared.ErrInvalidToken)
}

func TestResolveDeletedQuotation(t *testing.T) {
	quotations := &fakeQuotations{byID: map[int64]*quotation.Quotation{42: sentQuotation(42)}}
	svc := newShareService(quotations)

	link, err := svc.Issue(context.Background(), 42)
	require.NoError(t, err)

	delete(quotations.byID, 42)
	_, err = svc.Resolve(context.Background(), link.Token)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestPublicProjectionRedactsInternals(t *testing.T) {
	quotations := &fakeQuotations{byID: map[int64]*quotation.Quotation{42: sentQuotation(42)}}
	svc := newShareService(quotations)

	link, err := svc.Issue(context.Background(), 42)
	require.NoError(t, err)

	view, err := svc.Resolve(context.Background(), link.Token)
	require.NoError(t, err)

	payload, err := json.Marshal(view)
	require.NoError(t, err)
	body := string(payload)
	require.NotContains(t, body, "unit_cost")
	require.NotContains(t, body, "markup")
	require.NotContains(t, body, "client_id")
	require.NotContains(t, body, "created_by")
	require.True(t, strings.Contains(body, "unit_price"))
	require.True(t, strings.Contains(body, "grand_total"))
}
