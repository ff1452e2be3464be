package ledger

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/microbooks/microbooks/internal/books/shared"
)

// amountScale matches the numeric(13,4) column scale of ledger rows.
const amountScale = 4

var hundred = decimal.NewFromInt(100)

// Line carries the resolved posting inputs of one transaction line item.
// Tax fields are zero valued when the line item carries no tax.
type Line struct {
	AccountID    int64
	Amount       decimal.Decimal
	Quantity     decimal.Decimal
	Credited     bool
	TaxRate      decimal.Decimal
	TaxAccountID int64
	TaxInclusive bool
}

// Base returns amount times quantity rounded to the ledger scale.
func (l Line) Base() decimal.Decimal {
	return l.Amount.Mul(l.Quantity).Round(amountScale)
}

// Tax returns the tax charged on the line.
func (l Line) Tax() decimal.Decimal {
	if l.TaxRate.IsZero() {
		return decimal.Zero
	}
	return l.Base().Mul(l.TaxRate).Div(hundred).Round(amountScale)
}

// Total returns the amount the line contributes to the transaction main
// account: base plus tax unless the tax is already included in the amount.
func (l Line) Total() decimal.Decimal {
	if l.TaxInclusive {
		return l.Base()
	}
	return l.Base().Add(l.Tax())
}

// Posting describes one validated transaction about to be written to the
// ledger.
type Posting struct {
	EntityID      int64
	TransactionID int64
	MainAccountID int64
	CurrencyID    int64
	Credited      bool
	Compound      bool
	MainAmount    decimal.Decimal
	Lines         []Line
}

// Build produces the balanced set of ledger entries for the posting. Every
// returned batch satisfies sum(DEBIT) == sum(CREDIT); an unbalanced compound
// posting fails with ErrUnbalancedTransaction and nothing is emitted.
func Build(p Posting) ([]Entry, error) {
	if len(p.Lines) == 0 {
		return nil, shared.ErrMissingLineItem
	}
	postingID := uuid.New()
	var entries []Entry
	add := func(accountID int64, entryType EntryType, amount decimal.Decimal) {
		if amount.IsZero() {
			return
		}
		entries = append(entries, Entry{
			EntityID:      p.EntityID,
			TransactionID: p.TransactionID,
			PostingID:     postingID,
			PostAccountID: accountID,
			CurrencyID:    p.CurrencyID,
			EntryType:     entryType,
			Amount:        amount,
		})
	}

	if p.Compound {
		add(p.MainAccountID, EntryTypeFor(p.Credited), p.MainAmount.Round(amountScale))
		for _, line := range p.Lines {
			side := EntryTypeFor(line.Credited)
			base, tax := line.Base(), line.Tax()
			if line.TaxInclusive {
				base = base.Sub(tax)
			}
			add(line.AccountID, side, base)
			add(line.TaxAccountID, side, tax)
		}
		return finish(entries)
	}

	for _, line := range p.Lines {
		lineSide := EntryTypeFor(line.Credited)
		mainSide := lineSide.Opposite()
		base, tax := line.Base(), line.Tax()
		if line.TaxInclusive {
			base = base.Sub(tax)
		}
		// Matched pairs keep every intermediate state balanced.
		add(line.AccountID, lineSide, base)
		add(p.MainAccountID, mainSide, base)
		add(line.TaxAccountID, lineSide, tax)
		add(p.MainAccountID, mainSide, tax)
	}
	return finish(entries)
}

// finish validates the assembled batch. Zero amounts are skipped by add, so
// a posting whose lines all net to zero ends up with no rows and must fail
// rather than post nothing.
func finish(entries []Entry) ([]Entry, error) {
	if len(entries) == 0 {
		return nil, shared.ErrMissingLineItem
	}
	if err := checkBalanced(entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func checkBalanced(entries []Entry) error {
	debit, credit := decimal.Zero, decimal.Zero
	for _, e := range entries {
		if e.EntryType == EntryTypeDebit {
			debit = debit.Add(e.Amount)
		} else {
			credit = credit.Add(e.Amount)
		}
	}
	if !debit.Equal(credit) {
		return shared.ErrUnbalancedTransaction
	}
	return nil
}
