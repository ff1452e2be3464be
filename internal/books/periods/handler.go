package periods

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/microbooks/microbooks/internal/platform/httpx"
)

// Handler wires HTTP endpoints for reporting periods.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers period routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Post("/{id}/transition", h.transition)
}

type createPeriodRequest struct {
	EntityID     int64 `json:"entity_id" validate:"required,gt=0"`
	CalendarYear int   `json:"calendar_year" validate:"required,gte=1900"`
}

type transitionRequest struct {
	Status string `json:"status" validate:"required,oneof=OPEN ADJUSTING CLOSED"`
}

type periodResponse struct {
	ID           int64  `json:"id"`
	EntityID     int64  `json:"entity_id"`
	CalendarYear int    `json:"calendar_year"`
	PeriodCount  int    `json:"period_count"`
	Status       string `json:"status"`
}

func toPeriodResponse(p ReportingPeriod) periodResponse {
	return periodResponse{
		ID:           p.ID,
		EntityID:     p.EntityID,
		CalendarYear: p.CalendarYear,
		PeriodCount:  p.PeriodCount,
		Status:       string(p.Status),
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	entityID, err := strconv.ParseInt(r.URL.Query().Get("entity_id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "entity_id query parameter required")
		return
	}
	list, err := h.service.List(r.Context(), entityID)
	if err != nil {
		h.logger.Error("list periods", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]periodResponse, 0, len(list))
	for _, p := range list {
		out = append(out, toPeriodResponse(p))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createPeriodRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	period, err := h.service.Create(r.Context(), req.EntityID, req.CalendarYear)
	if err != nil {
		h.logger.Warn("create period", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toPeriodResponse(period))
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid period id")
		return
	}
	var req transitionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	period, err := h.service.Transition(r.Context(), id, Status(req.Status))
	if err != nil {
		h.logger.Warn("transition period", slog.Int64("id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPeriodResponse(period))
}
