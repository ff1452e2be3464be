// Package transactions implements the transaction aggregate: the validated,
// balanced unit of work that owns line items and, once posted, an immutable
// set of ledger entries.
package transactions

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/microbooks/microbooks/internal/books/config"
	"github.com/microbooks/microbooks/internal/books/ledger"
)

// LineItem is one row of a transaction. TaxRate and TaxAccountID are
// resolved from the tax row when the line item is loaded.
type LineItem struct {
	ID            int64
	EntityID      int64
	TransactionID int64
	AccountID     int64
	Amount        decimal.Decimal
	Quantity      decimal.Decimal
	TaxID         *int64
	TaxInclusive  bool
	Credited      bool
	Narration     string
	CreatedAt     time.Time
	UpdatedAt     time.Time

	TaxRate      decimal.Decimal
	TaxAccountID int64
}

func (l LineItem) ledgerLine() ledger.Line {
	return ledger.Line{
		AccountID:    l.AccountID,
		Amount:       l.Amount,
		Quantity:     l.Quantity,
		Credited:     l.Credited,
		TaxRate:      l.TaxRate,
		TaxAccountID: l.TaxAccountID,
		TaxInclusive: l.TaxInclusive,
	}
}

// Total returns the amount the line item contributes to the main account.
func (l LineItem) Total() decimal.Decimal {
	return l.ledgerLine().Total()
}

// Transaction is an original source document.
type Transaction struct {
	ID                int64
	EntityID          int64
	TransactionDate   time.Time
	TransactionNo     string
	TransactionType   config.TransactionType
	Narration         string
	Reference         string
	MainAccountAmount decimal.Decimal
	Credited          bool
	Compound          bool
	CurrencyID        int64
	AccountID         int64
	LineItems         []LineItem
	Posted            bool
	DeletedAt         *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsPosted reports whether ledger entries exist for the transaction.
func (t Transaction) IsPosted() bool {
	return t.Posted
}

// Amount sums the line items on the opposite side of the main account,
// including tax where the tax is not already part of the line amount.
func (t Transaction) Amount() decimal.Decimal {
	total := decimal.Zero
	for _, li := range t.LineItems {
		if li.Credited == t.Credited {
			continue
		}
		total = total.Add(li.Total())
	}
	return total
}

// posting converts the transaction into a ledger posting request.
func (t Transaction) posting() ledger.Posting {
	lines := make([]ledger.Line, 0, len(t.LineItems))
	for _, li := range t.LineItems {
		lines = append(lines, li.ledgerLine())
	}
	return ledger.Posting{
		EntityID:      t.EntityID,
		TransactionID: t.ID,
		MainAccountID: t.AccountID,
		CurrencyID:    t.CurrencyID,
		Credited:      t.Credited,
		Compound:      t.Compound,
		MainAmount:    t.MainAccountAmount,
		Lines:         lines,
	}
}
