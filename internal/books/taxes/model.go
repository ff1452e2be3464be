// Package taxes models the rates charged on transaction line items. Tax
// amounts post to a CONTROL account so they never distort income statement
// sections.
package taxes

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tax is a named rate tied to a control account.
type Tax struct {
	ID        int64
	EntityID  int64
	Name      string
	Code      string
	Rate      decimal.Decimal
	AccountID int64
	CreatedAt time.Time
	UpdatedAt time.Time
}
