package reports

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/microbooks/microbooks/internal/platform/httpx"
)

// Handler wires HTTP endpoints for financial statements.
type Handler struct {
	logger *slog.Logger
	port   BalancePort
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, port BalancePort) *Handler {
	return &Handler{logger: logger, port: port}
}

// MountRoutes registers report routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/income-statement", h.incomeStatement)
}

type incomeStatementResponse struct {
	From        time.Time         `json:"from"`
	To          time.Time         `json:"to"`
	Sections    map[string]string `json:"sections"`
	GrossProfit string            `json:"gross_profit"`
	NetProfit   string            `json:"net_profit"`
}

func (h *Handler) incomeStatement(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	entityID, err := strconv.ParseInt(query.Get("entity_id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "entity_id query parameter required")
		return
	}
	from, err := time.Parse(time.RFC3339, query.Get("from"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "from must be RFC3339")
		return
	}
	to, err := time.Parse(time.RFC3339, query.Get("to"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "to must be RFC3339")
		return
	}
	statement, err := BuildIncomeStatement(r.Context(), h.port, entityID, from, to)
	if err != nil {
		h.logger.Error("income statement", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	sections := make(map[string]string, len(statement.Sections))
	for section, total := range statement.Sections {
		sections[string(section)] = total.String()
	}
	httpx.JSON(w, http.StatusOK, incomeStatementResponse{
		From:        statement.From,
		To:          statement.To,
		Sections:    sections,
		GrossProfit: statement.GrossProfit.String(),
		NetProfit:   statement.NetProfit.String(),
	})
}
