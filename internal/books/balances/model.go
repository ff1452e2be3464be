// Package balances records opening balances: amounts brought forward from
// before the current reporting period. Transactions dated at the exact
// period start are rejected by the transaction validator and routed here.
package balances

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/microbooks/microbooks/internal/books/config"
)

// Balance is one opening balance row.
type Balance struct {
	ID                int64
	EntityID          int64
	AccountID         int64
	ReportingPeriodID int64
	TransactionDate   time.Time
	TransactionNo     string
	TransactionType   config.TransactionType
	Amount            decimal.Decimal
	Credited          bool
	CurrencyID        int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
