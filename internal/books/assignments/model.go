// Package assignments implements clearance: linking a posted transaction
// with available balance (the assigning side, e.g. a payment) to reduce the
// outstanding balance of another posted transaction (the assigned side, e.g.
// an invoice).
package assignments

import (
	"time"

	"github.com/shopspring/decimal"
)

// Assignment records one clearance amount between two transactions.
type Assignment struct {
	ID          int64
	EntityID    int64
	AssigningID int64
	AssignedID  int64
	Amount      decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
