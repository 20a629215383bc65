package settings

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/sourcedesk/sourcedesk/internal/platform/httpx"
	"github.com/sourcedesk/sourcedesk/internal/shared"
)

type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/settings/pricing", h.Show)
	r.Put("/settings/pricing/{key}", h.Update)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("load pricing settings", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, snap)
}

type updateSettingRequest struct {
	Value float64 `json:"value" validate:"gte=0"`
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var req updateSettingRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	actor, _ := shared.ActorFromContext(r.Context())
	if err := h.service.Update(r.Context(), key, req.Value, actor.UserID); err != nil {
		h.logger.Error("update pricing setting", slog.String("key", key), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	snap, err := h.service.Snapshot(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, snap)
}
