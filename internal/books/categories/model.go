// Package categories groups accounts of one type for reporting.
package categories

import (
	"time"

	"github.com/microbooks/microbooks/internal/books/accounts"
)

// Category labels a group of accounts sharing one account type.
type Category struct {
	ID          int64
	EntityID    int64
	Name        string
	AccountType accounts.AccountType
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
