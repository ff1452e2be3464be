package transactions

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
	internalShared "github.com/microbooks/microbooks/internal/shared"
)

// Handler wires HTTP endpoints for transactions and their line items.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	idempotency *internalShared.IdempotencyStore
	validator   *validator.Validate
}

// NewHandler constructs a Handler instance. The idempotency store may be nil,
// in which case the Idempotency-Key header is ignored.
func NewHandler(logger *slog.Logger, service *Service, idempotency *internalShared.IdempotencyStore) *Handler {
	return &Handler{logger: logger, service: service, idempotency: idempotency, validator: validator.New()}
}

// MountRoutes registers transaction routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Post("/line-items", h.createLineItem)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.remove)
	r.Post("/{id}/line-items", h.attachLineItem)
	r.Delete("/{id}/line-items/{lineItemID}", h.detachLineItem)
	r.Post("/{id}/post", h.post)
	r.Get("/{id}/contribution", h.contribution)
}

type transactionRequest struct {
	EntityID          int64  `json:"entity_id" validate:"required,gt=0"`
	TransactionDate   string `json:"transaction_date" validate:"required"`
	TransactionType   string `json:"transaction_type" validate:"required,oneof=CASH_SALE CLIENT_INVOICE CREDIT_NOTE CLIENT_RECEIPT SUPPLIER_BILL CASH_PURCHASE DEBIT_NOTE SUPPLIER_PAYMENT CONTRA_ENTRY JOURNAL_ENTRY"`
	Narration         string `json:"narration"`
	Reference         string `json:"reference"`
	AccountID         int64  `json:"account_id" validate:"required,gt=0"`
	Compound          bool   `json:"compound"`
	MainAccountAmount string `json:"main_account_amount"`
}

type lineItemRequest struct {
	EntityID     int64  `json:"entity_id" validate:"required,gt=0"`
	AccountID    int64  `json:"account_id" validate:"required,gt=0"`
	Amount       string `json:"amount" validate:"required"`
	Quantity     string `json:"quantity"`
	TaxID        *int64 `json:"tax_id"`
	TaxInclusive bool   `json:"tax_inclusive"`
	Credited     bool   `json:"credited"`
	Narration    string `json:"narration"`
}

type attachRequest struct {
	LineItemID int64 `json:"line_item_id" validate:"required"`
}

type lineItemResponse struct {
	ID           int64  `json:"id"`
	AccountID    int64  `json:"account_id"`
	Amount       string `json:"amount"`
	Quantity     string `json:"quantity"`
	TaxID        *int64 `json:"tax_id,omitempty"`
	TaxInclusive bool   `json:"tax_inclusive"`
	Credited     bool   `json:"credited"`
	Narration    string `json:"narration,omitempty"`
}

type transactionResponse struct {
	ID                int64              `json:"id"`
	EntityID          int64              `json:"entity_id"`
	TransactionDate   time.Time          `json:"transaction_date"`
	TransactionNo     string             `json:"transaction_no"`
	TransactionType   string             `json:"transaction_type"`
	Narration         string             `json:"narration,omitempty"`
	Reference         string             `json:"reference,omitempty"`
	AccountID         int64              `json:"account_id"`
	Credited          bool               `json:"credited"`
	Compound          bool               `json:"compound"`
	MainAccountAmount string             `json:"main_account_amount,omitempty"`
	Amount            string             `json:"amount"`
	Posted            bool               `json:"is_posted"`
	LineItems         []lineItemResponse `json:"line_items"`
}

func toLineItemResponse(li LineItem) lineItemResponse {
	return lineItemResponse{
		ID:           li.ID,
		AccountID:    li.AccountID,
		Amount:       li.Amount.String(),
		Quantity:     li.Quantity.String(),
		TaxID:        li.TaxID,
		TaxInclusive: li.TaxInclusive,
		Credited:     li.Credited,
		Narration:    li.Narration,
	}
}

func toTransactionResponse(t Transaction) transactionResponse {
	items := make([]lineItemResponse, 0, len(t.LineItems))
	for _, li := range t.LineItems {
		items = append(items, toLineItemResponse(li))
	}
	resp := transactionResponse{
		ID:              t.ID,
		EntityID:        t.EntityID,
		TransactionDate: t.TransactionDate,
		TransactionNo:   t.TransactionNo,
		TransactionType: string(t.TransactionType),
		Narration:       t.Narration,
		Reference:       t.Reference,
		AccountID:       t.AccountID,
		Credited:        t.Credited,
		Compound:        t.Compound,
		Amount:          t.Amount().String(),
		Posted:          t.Posted,
		LineItems:       items,
	}
	if t.Compound {
		resp.MainAccountAmount = t.MainAccountAmount.String()
	}
	return resp
}

func (h *Handler) decodeTransaction(r *http.Request) (Transaction, bool, string) {
	var req transactionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		return Transaction{}, false, "malformed JSON body"
	}
	if err := h.validator.Struct(req); err != nil {
		return Transaction{}, false, err.Error()
	}
	date, err := time.Parse(time.RFC3339, req.TransactionDate)
	if err != nil {
		return Transaction{}, false, "transaction_date must be RFC3339"
	}
	txn := Transaction{
		EntityID:        req.EntityID,
		TransactionDate: date,
		TransactionType: config.TransactionType(req.TransactionType),
		Narration:       req.Narration,
		Reference:       req.Reference,
		AccountID:       req.AccountID,
		Compound:        req.Compound,
	}
	if req.MainAccountAmount != "" {
		txn.MainAccountAmount, err = decimal.NewFromString(req.MainAccountAmount)
		if err != nil {
			return Transaction{}, false, "main_account_amount must be a decimal string"
		}
	}
	return txn, true, ""
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	entityID, err := strconv.ParseInt(r.URL.Query().Get("entity_id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "entity_id query parameter required")
		return
	}
	list, err := h.service.List(r.Context(), entityID)
	if err != nil {
		h.logger.Error("list transactions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	meta := internalShared.NewPagination(page, perPage, len(list))
	start := (meta.Page - 1) * meta.PerPage
	if start > len(list) {
		start = len(list)
	}
	end := start + meta.PerPage
	if end > len(list) {
		end = len(list)
	}
	out := make([]transactionResponse, 0, end-start)
	for _, t := range list[start:end] {
		out = append(out, toTransactionResponse(t))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"data":       out,
		"pagination": paginationResponse(meta),
	})
}

type paginationMeta struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func paginationResponse(p internalShared.Pagination) paginationMeta {
	return paginationMeta{Page: p.Page, PerPage: p.PerPage, Total: p.Total, TotalPages: p.TotalPages}
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid transaction id")
		return
	}
	txn, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toTransactionResponse(txn))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	txn, ok, detail := h.decodeTransaction(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", detail)
		return
	}
	created, err := h.service.Create(r.Context(), txn)
	if err != nil {
		h.logger.Warn("create transaction", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toTransactionResponse(created))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid transaction id")
		return
	}
	txn, ok, detail := h.decodeTransaction(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", detail)
		return
	}
	txn.ID = id
	updated, err := h.service.Update(r.Context(), txn)
	if err != nil {
		h.logger.Warn("update transaction", slog.Int64("id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toTransactionResponse(updated))
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid transaction id")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.logger.Warn("delete transaction", slog.Int64("id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) createLineItem(w http.ResponseWriter, r *http.Request) {
	var req lineItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "amount must be a decimal string")
		return
	}
	quantity := decimal.Zero
	if req.Quantity != "" {
		quantity, err = decimal.NewFromString(req.Quantity)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "quantity must be a decimal string")
			return
		}
	}
	li, err := h.service.CreateLineItem(r.Context(), LineItem{
		EntityID:     req.EntityID,
		AccountID:    req.AccountID,
		Amount:       amount,
		Quantity:     quantity,
		TaxID:        req.TaxID,
		TaxInclusive: req.TaxInclusive,
		Credited:     req.Credited,
		Narration:    req.Narration,
	})
	if err != nil {
		h.logger.Warn("create line item", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toLineItemResponse(li))
}

func (h *Handler) attachLineItem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid transaction id")
		return
	}
	var req attachRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.service.AttachLineItem(r.Context(), id, req.LineItemID); err != nil {
		h.logger.Warn("attach line item", slog.Int64("transaction_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) detachLineItem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid transaction id")
		return
	}
	lineItemID, err := strconv.ParseInt(chi.URLParam(r, "lineItemID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid line item id")
		return
	}
	if err := h.service.DetachLineItem(r.Context(), id, lineItemID); err != nil {
		h.logger.Warn("detach line item", slog.Int64("transaction_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) post(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid transaction id")
		return
	}
	if key := r.Header.Get("Idempotency-Key"); key != "" && h.idempotency != nil {
		if err := h.idempotency.CheckAndInsert(r.Context(), key, "books.post"); err != nil {
			httpx.RespondError(w, err)
			return
		}
	}
	posted, err := h.service.Post(r.Context(), id)
	if err != nil {
		h.logger.Warn("post transaction", slog.Int64("id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toTransactionResponse(posted))
}

func (h *Handler) contribution(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid transaction id")
		return
	}
	accountID, err := strconv.ParseInt(r.URL.Query().Get("account_id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "account_id query parameter required")
		return
	}
	amount, err := h.service.Contribution(r.Context(), id, accountID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"contribution": amount.String()})
}
