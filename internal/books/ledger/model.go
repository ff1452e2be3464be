// Package ledger implements the double entry posting engine. Entries are
// append only and are produced exclusively by posting a validated
// transaction; callers never insert or remove them directly.
package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryType enumerates the two sides of the double entry.
type EntryType string

const (
	EntryTypeDebit  EntryType = "DEBIT"
	EntryTypeCredit EntryType = "CREDIT"
)

// Opposite returns the other side of the double entry.
func (t EntryType) Opposite() EntryType {
	if t == EntryTypeDebit {
		return EntryTypeCredit
	}
	return EntryTypeDebit
}

// EntryTypeFor maps a credited flag to the ledger side it posts to.
func EntryTypeFor(credited bool) EntryType {
	if credited {
		return EntryTypeCredit
	}
	return EntryTypeDebit
}

// Entry is one immutable ledger row.
type Entry struct {
	ID            int64
	EntityID      int64
	TransactionID int64
	PostingID     uuid.UUID
	PostAccountID int64
	CurrencyID    int64
	EntryType     EntryType
	Amount        decimal.Decimal
	CreatedAt     time.Time
}

// Contribution returns the net signed amount (debit minus credit) the
// entries post against the account. Both sums are applied unconditionally.
func Contribution(entries []Entry, accountID int64) decimal.Decimal {
	debit, credit := decimal.Zero, decimal.Zero
	for _, e := range entries {
		if e.PostAccountID != accountID {
			continue
		}
		if e.EntryType == EntryTypeDebit {
			debit = debit.Add(e.Amount)
		} else {
			credit = credit.Add(e.Amount)
		}
	}
	return debit.Sub(credit)
}
