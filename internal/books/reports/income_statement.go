// Package reports computes financial statement section totals from posted
// ledger amounts. Rendering and layout stay outside the engine.
package reports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/microbooks/microbooks/internal/books/accounts"
)

// Section names one income statement grouping.
type Section string

const (
	SectionOperatingRevenues    Section = "OPERATING_REVENUES"
	SectionNonOperatingRevenues Section = "NON_OPERATING_REVENUES"
	SectionOperatingExpenses    Section = "OPERATING_EXPENSES"
	SectionNonOperatingExpenses Section = "NON_OPERATING_EXPENSES"
)

// sectionTypes maps sections to the account types they aggregate.
var sectionTypes = map[Section][]accounts.AccountType{
	SectionOperatingRevenues:    {accounts.AccountTypeOperatingRevenue},
	SectionNonOperatingRevenues: {accounts.AccountTypeNonOperatingRevenue},
	SectionOperatingExpenses:    {accounts.AccountTypeOperatingExpense},
	SectionNonOperatingExpenses: {accounts.AccountTypeDirectExpense, accounts.AccountTypeOverheadExpense, accounts.AccountTypeOtherExpense},
}

// BalancePort supplies per account ledger sums.
type BalancePort interface {
	TypeBalances(ctx context.Context, entityID int64, types []accounts.AccountType, from, to time.Time) ([]accounts.Balance, error)
}

// IncomeStatement holds raw section totals (debit minus credit, so revenue
// sections carry negative amounts) and the derived results.
type IncomeStatement struct {
	From, To    time.Time
	Sections    map[Section]decimal.Decimal
	GrossProfit decimal.Decimal
	NetProfit   decimal.Decimal
}

// BuildIncomeStatement aggregates the entity's ledger into income statement
// sections over the window.
func BuildIncomeStatement(ctx context.Context, port BalancePort, entityID int64, from, to time.Time) (IncomeStatement, error) {
	statement := IncomeStatement{
		From:     from,
		To:       to,
		Sections: make(map[Section]decimal.Decimal, len(sectionTypes)),
	}
	for section, types := range sectionTypes {
		balances, err := port.TypeBalances(ctx, entityID, types, from, to)
		if err != nil {
			return IncomeStatement{}, err
		}
		total := decimal.Zero
		for _, b := range balances {
			total = total.Add(b.Amount)
		}
		statement.Sections[section] = total
	}
	statement.GrossProfit = statement.Sections[SectionOperatingRevenues].
		Add(statement.Sections[SectionOperatingExpenses]).Neg()
	statement.NetProfit = statement.GrossProfit.
		Sub(statement.Sections[SectionNonOperatingRevenues]).
		Sub(statement.Sections[SectionNonOperatingExpenses])
	return statement, nil
}
