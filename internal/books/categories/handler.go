package categories

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/microbooks/microbooks/internal/books/accounts"
	"github.com/microbooks/microbooks/internal/platform/httpx"
)

// Handler wires HTTP endpoints for categories.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers category routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
}

type createCategoryRequest struct {
	EntityID    int64  `json:"entity_id" validate:"required,gt=0"`
	Name        string `json:"name" validate:"required"`
	AccountType string `json:"account_type" validate:"required"`
}

type categoryResponse struct {
	ID          int64  `json:"id"`
	EntityID    int64  `json:"entity_id"`
	Name        string `json:"name"`
	AccountType string `json:"account_type"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	entityID, err := strconv.ParseInt(r.URL.Query().Get("entity_id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "entity_id query parameter required")
		return
	}
	list, err := h.service.List(r.Context(), entityID)
	if err != nil {
		h.logger.Error("list categories", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]categoryResponse, 0, len(list))
	for _, c := range list {
		out = append(out, categoryResponse{ID: c.ID, EntityID: c.EntityID, Name: c.Name, AccountType: string(c.AccountType)})
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	category, err := h.service.Create(r.Context(), Category{
		EntityID:    req.EntityID,
		Name:        req.Name,
		AccountType: accounts.AccountType(req.AccountType),
	})
	if err != nil {
		h.logger.Warn("create category", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, categoryResponse{ID: category.ID, EntityID: category.EntityID, Name: category.Name, AccountType: string(category.AccountType)})
}
