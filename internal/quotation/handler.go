package quotation

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/sourcedesk/sourcedesk/internal/platform/httpx"
	"github.com/sourcedesk/sourcedesk/internal/shared"
)

// DocumentExporter renders a consistent, fully-priced quotation snapshot
// into a paginated document.
type DocumentExporter interface {
	Render(ctx context.Context, q *Quotation, b Breakdown) ([]byte, error)
}

// Dispatcher enqueues background delivery of a quotation to a recipient.
type Dispatcher interface {
	EnqueueSendQuotation(ctx context.Context, quotationID int64, recipient string) error
}

type Handler struct {
	logger     *slog.Logger
	service    *Service
	validator  *validator.Validate
	exporter   DocumentExporter
	dispatcher Dispatcher
}

func NewHandler(logger *slog.Logger, service *Service, exporter DocumentExporter, dispatcher Dispatcher) *Handler {
	return &Handler{
		logger:     logger,
		service:    service,
		validator:  validator.New(),
		exporter:   exporter,
		dispatcher: dispatcher,
	}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/quotations", h.List)
	r.Post("/quotations", h.Create)
	r.Get("/quotations/{id}", h.Show)
	r.Patch("/quotations/{id}", h.Update)
	r.Delete("/quotations/{id}", h.Delete)
	r.Get("/quotations/{id}/pricing", h.Pricing)
	r.Post("/quotations/{id}/transition", h.Transition)
	r.Post("/quotations/{id}/clone", h.Clone)
	r.Get("/quotations/{id}/export", h.Export)
	r.Post("/quotations/{id}/send", h.Send)

	r.Post("/quotations/{id}/items", h.AddItem)
	r.Patch("/items/{itemID}", h.UpdateItem)
	r.Delete("/items/{itemID}", h.RemoveItem)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	req := ListQuotationsRequest{Limit: 50}

	if status := r.URL.Query().Get("status"); status != "" {
		s := Status(status)
		if !ValidStatus(s) {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", fmt.Sprintf("unknown status %q", status))
			return
		}
		req.Status = &s
	}
	if clientID, err := strconv.ParseInt(r.URL.Query().Get("client_id"), 10, 64); err == nil && clientID > 0 {
		req.ClientID = &clientID
	}
	if from := parseDate(r.URL.Query().Get("date_from")); from != nil {
		req.DateFrom = from
	}
	if to := parseDate(r.URL.Query().Get("date_to")); to != nil {
		req.DateTo = to
	}
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && limit > 0 && limit <= 1000 {
		req.Limit = limit
	}
	if offset, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && offset >= 0 {
		req.Offset = offset
	}

	quotations, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list quotations", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"quotations": quotations, "total": total})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateQuotationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	actor, _ := shared.ActorFromContext(r.Context())
	q, err := h.service.Create(r.Context(), req, actor.UserID)
	if err != nil {
		h.logger.Error("create quotation", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, q)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := h.quotationID(w, r)
	if !ok {
		return
	}
	q, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.quotationID(w, r)
	if !ok {
		return
	}

	var req UpdateQuotationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	q, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		h.logger.Error("update quotation", slog.Int64("id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.quotationID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Pricing(w http.ResponseWriter, r *http.Request) {
	id, ok := h.quotationID(w, r)
	if !ok {
		return
	}
	breakdown, err := h.service.Pricing(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, breakdown)
}

func (h *Handler) Transition(w http.ResponseWriter, r *http.Request) {
	id, ok := h.quotationID(w, r)
	if !ok {
		return
	}

	var req TransitionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	q, err := h.service.Transition(r.Context(), id, req.Status)
	if err != nil {
		h.logger.Warn("transition rejected",
			slog.Int64("id", id),
			slog.String("target", string(req.Status)),
			slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func (h *Handler) Clone(w http.ResponseWriter, r *http.Request) {
	id, ok := h.quotationID(w, r)
	if !ok {
		return
	}

	actor, _ := shared.ActorFromContext(r.Context())
	clone, err := h.service.Clone(r.Context(), id, actor.UserID)
	if err != nil {
		h.logger.Error("clone quotation", slog.Int64("source_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, clone)
}

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	id, ok := h.quotationID(w, r)
	if !ok {
		return
	}

	q, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	breakdown, err := h.service.Pricing(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	pdf, err := h.exporter.Render(r.Context(), q, *breakdown)
	if err != nil {
		h.logger.Error("export quotation", slog.Int64("id", id), slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Export Failed", "document renderer unavailable")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", q.Number+".pdf"))
	_, _ = w.Write(pdf)
}

type sendRequest struct {
	RecipientEmail string `json:"recipient_email" validate:"required,email"`
}

func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	id, ok := h.quotationID(w, r)
	if !ok {
		return
	}

	var req sendRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	if _, err := h.service.Get(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.dispatcher.EnqueueSendQuotation(r.Context(), id, req.RecipientEmail); err != nil {
		h.logger.Error("enqueue quotation email", slog.Int64("id", id), slog.Any("error", err))
		httpx.Problem(w, http.StatusServiceUnavailable, "Queue Unavailable", "could not enqueue delivery")
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]any{"queued": true})
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.quotationID(w, r)
	if !ok {
		return
	}

	var input ItemInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validator.Struct(input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	item, err := h.service.AddItem(r.Context(), id, input)
	if err != nil {
		h.logger.Error("add item", slog.Int64("quotation_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, item)
}

func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	if err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}

	var input UpdateItemInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validator.Struct(input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	item, err := h.service.UpdateItem(r.Context(), itemID, input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	if err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	if err := h.service.RemoveItem(r.Context(), itemID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) quotationID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid quotation id", shared.ErrValidation))
		return 0, false
	}
	return id, true
}

func parseDate(value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil
	}
	return &t
}
