package quotation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/sourcedesk/sourcedesk/internal/shared"
)

type stubExporter struct {
	err error
}

func (s stubExporter) Render(ctx context.Context, q *Quotation, b Breakdown) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []byte("%PDF-1.4 " + q.Number), nil
}

type stubDispatcher struct {
	err        error
	quotations []int64
	recipients []string
}

func (s *stubDispatcher) EnqueueSendQuotation(ctx context.Context, quotationID int64, recipient string) error {
	if s.err != nil {
		return s.err
	}
	s.quotations = append(s.quotations, quotationID)
	s.recipients = append(s.recipients, recipient)
	return nil
}

func newTestRouter(t *testing.T) (*chi.Mux, *Service, *stubDispatcher) {
	t.Helper()
	svc, _ := newTestService()
	dispatcher := &stubDispatcher{}
	handler := NewHandler(slog.Default(), svc, stubExporter{}, dispatcher)
	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := shared.ContextWithActor(r.Context(), shared.Actor{UserID: 7, Email: "ops@sourcedesk.co"})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	handler.MountRoutes(router)
	return router, svc, dispatcher
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandlerCreateAndShow(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/quotations", map[string]any{
		"client_id": 1,
		"incoterm":  "FOB",
		"currency":  "USD",
		"items": []map[string]any{
			{"product_name": "Pump", "quantity": 2, "unit_price": 100.0},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created Quotation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, StatusDraft, created.Status)
	require.Equal(t, int64(7), created.CreatedBy)

	rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/quotations/%d", created.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHandlerCreateValidation(t *testing.T) {
	router, _, _ := newTestRouter(t)

	// Missing incoterm and currency.
	rec := doJSON(t, router, http.MethodPost, "/quotations", map[string]any{"client_id": 1})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "application/json")
}

func TestHandlerShowNotFound(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/quotations/999", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerTransitionConflict(t *testing.T) {
	router, svc, _ := newTestRouter(t)
	q := createQuotation(t, svc)

	rec := doJSON(t, router, http.MethodPost, fmt.Sprintf("/quotations/%d/transition", q.ID), map[string]any{"status": "accepted"})
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, router, http.MethodPost, fmt.Sprintf("/quotations/%d/transition", q.ID), map[string]any{"status": "sent"})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHandlerListFilters(t *testing.T) {
	router, svc, _ := newTestRouter(t)
	q := createQuotation(t, svc)
	createQuotation(t, svc)
	_, err := svc.Transition(context.Background(), q.ID, StatusSent)
	require.NoError(t, err)

	rec := doJSON(t, router, http.MethodGet, "/quotations?status=sent", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Quotations []QuotationWithClient `json:"quotations"`
		Total      int                   `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 1, body.Total)

	rec = doJSON(t, router, http.MethodGet, "/quotations?status=bogus", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerItemLifecycle(t *testing.T) {
	router, svc, _ := newTestRouter(t)
	q := createQuotation(t, svc)

	rec := doJSON(t, router, http.MethodPost, fmt.Sprintf("/quotations/%d/items", q.ID), map[string]any{
		"product_name": "Spare kit", "quantity": 3, "unit_price": 25.0,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var item Item
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &item))

	rec = doJSON(t, router, http.MethodPatch, fmt.Sprintf("/items/%d", item.ID), map[string]any{"quantity": 5})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &item))
	require.Equal(t, 5, item.Quantity)

	rec = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/items/%d", item.ID), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// Idempotent: deleting again still succeeds.
	rec = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/items/%d", item.ID), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHandlerPricingBreakdown(t *testing.T) {
	router, svc, _ := newTestRouter(t)
	q := createQuotation(t, svc, ItemInput{ProductName: "Pump", Quantity: 2, UnitPrice: 100})

	rec := doJSON(t, router, http.MethodGet, fmt.Sprintf("/quotations/%d/pricing", q.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var b Breakdown
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b))
	require.InDelta(t, 200.0, b.SubtotalFOBUSD, 1e-9)
	require.Greater(t, b.TotalLocal, 0.0)
}

func TestHandlerClone(t *testing.T) {
	router, svc, _ := newTestRouter(t)
	q := createQuotation(t, svc, ItemInput{ProductName: "Pump", Quantity: 2, UnitPrice: 100})

	rec := doJSON(t, router, http.MethodPost, fmt.Sprintf("/quotations/%d/clone", q.ID), nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var clone Quotation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &clone))
	require.NotEqual(t, q.ID, clone.ID)
	require.Equal(t, StatusDraft, clone.Status)
}

func TestHandlerExport(t *testing.T) {
	router, svc, _ := newTestRouter(t)
	q := createQuotation(t, svc)

	rec := doJSON(t, router, http.MethodGet, fmt.Sprintf("/quotations/%d/export", q.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Header().Get("Content-Disposition"), q.Number)
}

func TestHandlerSendQueues(t *testing.T) {
	router, svc, dispatcher := newTestRouter(t)
	q := createQuotation(t, svc)

	rec := doJSON(t, router, http.MethodPost, fmt.Sprintf("/quotations/%d/send", q.ID), map[string]any{
		"recipient_email": "buyer@example.com",
	})
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, []int64{q.ID}, dispatcher.quotations)
	require.Equal(t, []string{"buyer@example.com"}, dispatcher.recipients)
}

func TestHandlerSendRejectsBadEmail(t *testing.T) {
	router, svc, dispatcher := newTestRouter(t)
	q := createQuotation(t, svc)

	rec := doJSON(t, router, http.MethodPost, fmt.Sprintf("/quotations/%d/send", q.ID), map[string]any{
		"recipient_email": "not-an-email",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, dispatcher.quotations)
}

func TestHandlerSendQueueDown(t *testing.T) {
	router, svc, dispatcher := newTestRouter(t)
	dispatcher.err = errors.New("redis unavailable")
	q := createQuotation(t, svc)

	rec := doJSON(t, router, http.MethodPost, fmt.Sprintf("/quotations/%d/send", q.ID), map[string]any{
		"recipient_email": "buyer@example.com",
	})
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandlerDelete(t *testing.T) {
	router, svc, _ := newTestRouter(t)
	q := createQuotation(t, svc)

	rec := doJSON(t, router, http.MethodDelete, fmt.Sprintf("/quotations/%d", q.ID), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/quotations/%d", q.ID), nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
