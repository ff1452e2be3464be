package taxes

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/microbooks/microbooks/internal/platform/httpx"
)

// Handler wires HTTP endpoints for taxes.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers tax routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
}

type createTaxRequest struct {
	EntityID  int64  `json:"entity_id" validate:"required,gt=0"`
	Name      string `json:"name" validate:"required"`
	Code      string `json:"code" validate:"required"`
	Rate      string `json:"rate" validate:"required"`
	AccountID int64  `json:"account_id"`
}

type taxResponse struct {
	ID        int64  `json:"id"`
	EntityID  int64  `json:"entity_id"`
	Name      string `json:"name"`
	Code      string `json:"code"`
	Rate      string `json:"rate"`
	AccountID int64  `json:"account_id,omitempty"`
}

func toTaxResponse(t Tax) taxResponse {
	return taxResponse{
		ID:        t.ID,
		EntityID:  t.EntityID,
		Name:      t.Name,
		Code:      t.Code,
		Rate:      t.Rate.String(),
		AccountID: t.AccountID,
	}
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid tax id")
		return
	}
	tax, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toTaxResponse(tax))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createTaxRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	rate, err := decimal.NewFromString(req.Rate)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "rate must be a decimal string")
		return
	}
	tax, err := h.service.Create(r.Context(), Tax{
		EntityID:  req.EntityID,
		Name:      req.Name,
		Code:      req.Code,
		Rate:      rate,
		AccountID: req.AccountID,
	})
	if err != nil {
		h.logger.Warn("create tax", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toTaxResponse(tax))
}
