package balances

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/microbooks/microbooks/internal/books/config"
	"github.com/microbooks/microbooks/internal/platform/httpx"
)

// Handler wires HTTP endpoints for opening balances.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers opening balance routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
}

type createBalanceRequest struct {
	EntityID        int64  `json:"entity_id" validate:"required,gt=0"`
	AccountID       int64  `json:"account_id" validate:"required,gt=0"`
	CurrencyID      int64  `json:"currency_id" validate:"required,gt=0"`
	TransactionDate string `json:"transaction_date" validate:"required"`
	TransactionNo   string `json:"transaction_no"`
	TransactionType string `json:"transaction_type" validate:"required,oneof=CLIENT_INVOICE SUPPLIER_BILL JOURNAL_ENTRY"`
	Amount          string `json:"amount" validate:"required"`
	Credited        bool   `json:"credited"`
}

type balanceResponse struct {
	ID              int64     `json:"id"`
	EntityID        int64     `json:"entity_id"`
	AccountID       int64     `json:"account_id"`
	TransactionDate time.Time `json:"transaction_date"`
	TransactionNo   string    `json:"transaction_no,omitempty"`
	TransactionType string    `json:"transaction_type"`
	Amount          string    `json:"amount"`
	Credited        bool      `json:"credited"`
}

func toBalanceResponse(b Balance) balanceResponse {
	return balanceResponse{
		ID:              b.ID,
		EntityID:        b.EntityID,
		AccountID:       b.AccountID,
		TransactionDate: b.TransactionDate,
		TransactionNo:   b.TransactionNo,
		TransactionType: string(b.TransactionType),
		Amount:          b.Amount.String(),
		Credited:        b.Credited,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	accountID, err := strconv.ParseInt(r.URL.Query().Get("account_id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "account_id query parameter required")
		return
	}
	list, err := h.service.ListByAccount(r.Context(), accountID)
	if err != nil {
		h.logger.Error("list balances", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]balanceResponse, 0, len(list))
	for _, b := range list {
		out = append(out, toBalanceResponse(b))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createBalanceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	date, err := time.Parse(time.RFC3339, req.TransactionDate)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "transaction_date must be RFC3339")
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "amount must be a decimal string")
		return
	}
	balance, err := h.service.Create(r.Context(), Balance{
		EntityID:        req.EntityID,
		AccountID:       req.AccountID,
		CurrencyID:      req.CurrencyID,
		TransactionDate: date,
		TransactionNo:   req.TransactionNo,
		TransactionType: config.TransactionType(req.TransactionType),
		Amount:          amount,
		Credited:        req.Credited,
	})
	if err != nil {
		h.logger.Warn("create opening balance", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toBalanceResponse(balance))
}
