package sharing

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sourcedesk/sourcedesk/internal/platform/httpx"
	"github.com/sourcedesk/sourcedesk/internal/shared"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes mounts the authenticated share-issuance endpoint.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/quotations/{id}/share", h.Issue)
}

// MountPublicRoutes mounts the unauthenticated share surface. Only retrieval
// by token is supported; no other verb exists on this surface.
func (h *Handler) MountPublicRoutes(r chi.Router) {
	r.Get("/public/quotations/{token}", h.Resolve)
}

func (h *Handler) Issue(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}

	link, err := h.service.Issue(r.Context(), id)
	if err != nil {
		h.logger.Error("issue share token", slog.Int64("quotation_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, link)
}

func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		httpx.RespondError(w, shared.ErrInvalidToken)
		return
	}

	view, err := h.service.Resolve(r.Context(), token)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}
