package accounts

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType enumerates chart of accounts categories.
type AccountType string

const (
	// Balance sheet: assets.
	AccountTypeNonCurrentAsset AccountType = "NON_CURRENT_ASSET"
	AccountTypeContraAsset     AccountType = "CONTRA_ASSET"
	AccountTypeInventory       AccountType = "INVENTORY"
	AccountTypeBank            AccountType = "BANK"
	AccountTypeCurrentAsset    AccountType = "CURRENT_ASSET"
	AccountTypeReceivable      AccountType = "RECEIVABLE"

	// Balance sheet: liabilities.
	AccountTypeNonCurrentLiability AccountType = "NON_CURRENT_LIABILITY"
	AccountTypeControl             AccountType = "CONTROL"
	AccountTypeCurrentLiability    AccountType = "CURRENT_LIABILITY"
	AccountTypePayable             AccountType = "PAYABLE"
	AccountTypeReconciliation      AccountType = "RECONCILIATION"

	// Balance sheet: equity.
	AccountTypeEquity AccountType = "EQUITY"

	// Income statement: revenues.
	AccountTypeOperatingRevenue    AccountType = "OPERATING_REVENUE"
	AccountTypeNonOperatingRevenue AccountType = "NON_OPERATING_REVENUE"

	// Income statement: expenses.
	AccountTypeOperatingExpense AccountType = "OPERATING_EXPENSE"
	AccountTypeDirectExpense    AccountType = "DIRECT_EXPENSE"
	AccountTypeOverheadExpense  AccountType = "OVERHEAD_EXPENSE"
	AccountTypeOtherExpense     AccountType = "OTHER_EXPENSE"
)

// AllAccountTypes lists every member of the chart of accounts enum.
var AllAccountTypes = []AccountType{
	AccountTypeNonCurrentAsset, AccountTypeContraAsset, AccountTypeInventory,
	AccountTypeBank, AccountTypeCurrentAsset, AccountTypeReceivable,
	AccountTypeNonCurrentLiability, AccountTypeControl, AccountTypeCurrentLiability,
	AccountTypePayable, AccountTypeReconciliation,
	AccountTypeEquity,
	AccountTypeOperatingRevenue, AccountTypeNonOperatingRevenue,
	AccountTypeOperatingExpense, AccountTypeDirectExpense,
	AccountTypeOverheadExpense, AccountTypeOtherExpense,
}

// IsValidAccountType reports whether t is a member of the enum.
func IsValidAccountType(t AccountType) bool {
	for _, at := range AllAccountTypes {
		if at == t {
			return true
		}
	}
	return false
}

// IncomeStatementTypes lists account types that appear on the income
// statement. These accounts cannot carry opening balances.
var IncomeStatementTypes = []AccountType{
	AccountTypeOperatingRevenue,
	AccountTypeNonOperatingRevenue,
	AccountTypeOperatingExpense,
	AccountTypeDirectExpense,
	AccountTypeOverheadExpense,
	AccountTypeOtherExpense,
}

// IsIncomeStatementType reports whether the type belongs to the income statement.
func IsIncomeStatementType(t AccountType) bool {
	for _, it := range IncomeStatementTypes {
		if it == t {
			return true
		}
	}
	return false
}

// Account models a chart of accounts node.
type Account struct {
	ID         int64
	EntityID   int64
	Name       string
	Type       AccountType
	CurrencyID int64
	CategoryID *int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Balance pairs an account with a ledger derived closing balance.
type Balance struct {
	AccountID int64
	Amount    decimal.Decimal
}
