package balances

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func newTestRouter(repo *stubBalanceRepo) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(logger, NewService(repo))
	r := chi.NewRouter()
	r.Route("/balances", handler.MountRoutes)
	return r
}

func TestHandlerCreateAcceptsFullTypeName(t *testing.T) {
	router := newTestRouter(newStubBalanceRepo())

	body := `{
		"entity_id": 1,
		"account_id": 1,
		"currency_id": 1,
		"transaction_date": "2024-11-30T00:00:00Z",
		"transaction_type": "CLIENT_INVOICE",
		"amount": "250"
	}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/balances", strings.NewReader(body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var resp balanceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.TransactionType != "CLIENT_INVOICE" {
		t.Fatalf("transaction_type = %q, want CLIENT_INVOICE", resp.TransactionType)
	}
}

func TestHandlerCreateRejectsNonEnumTypeName(t *testing.T) {
	router := newTestRouter(newStubBalanceRepo())

	for _, typeName := range []string{"IN", "CASH_SALE", "BOGUS"} {
		body := `{
			"entity_id": 1,
			"account_id": 1,
			"currency_id": 1,
			"transaction_date": "2024-11-30T00:00:00Z",
			"transaction_type": "` + typeName + `",
			"amount": "250"
		}`
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/balances", strings.NewReader(body)))

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("type %q: status = %d, want 400: %s", typeName, rec.Code, rec.Body.String())
		}
	}
}
