// Package config carries the enumerated transaction type metadata: labels,
// document number prefixes, the account types each transaction type may post
// against, and the clearance rules between types. It is built once and
// passed to the services that need it rather than read from globals.
package config

import (
	"github.com/microbooks/microbooks/internal/books/accounts"
	"github.com/microbooks/microbooks/internal/books/ledger"
)

// TransactionType enumerates the supported source document types.
type TransactionType string

const (
	TypeCashSale        TransactionType = "CASH_SALE"
	TypeClientInvoice   TransactionType = "CLIENT_INVOICE"
	TypeCreditNote      TransactionType = "CREDIT_NOTE"
	TypeClientReceipt   TransactionType = "CLIENT_RECEIPT"
	TypeSupplierBill    TransactionType = "SUPPLIER_BILL"
	TypeCashPurchase    TransactionType = "CASH_PURCHASE"
	TypeDebitNote       TransactionType = "DEBIT_NOTE"
	TypeSupplierPayment TransactionType = "SUPPLIER_PAYMENT"
	TypeContraEntry     TransactionType = "CONTRA_ENTRY"
	TypeJournalEntry    TransactionType = "JOURNAL_ENTRY"
)

// TypeSpec is the capability record of one transaction type.
type TypeSpec struct {
	Label    string
	NoPrefix string
	// Credited is the default side of the main account entry.
	Credited bool
	// Compound permits line items on both sides of the double entry.
	Compound bool
	// Taxable permits tax on line items.
	Taxable bool
	// MainAccountTypes constrains the transaction main account. Empty means
	// any type is acceptable.
	MainAccountTypes []accounts.AccountType
	// LineItemAccountTypes constrains line item accounts. Empty means any.
	LineItemAccountTypes []accounts.AccountType
	// Clears lists the transaction types this type may be assigned to as the
	// clearing side of an assignment.
	Clears []TransactionType
	// ClearedBy lists the transaction types that may clear this type.
	ClearedBy []TransactionType
}

// Config is the injected bookkeeping rule set.
type Config struct {
	Types map[TransactionType]TypeSpec
	// IncreasingEntryType maps an account type to the ledger side that grows
	// its balance. The opposite side reduces it.
	IncreasingEntryType map[accounts.AccountType]ledger.EntryType
}

// Spec returns the capability record for the type, zero valued when unknown.
func (c *Config) Spec(t TransactionType) TypeSpec {
	return c.Types[t]
}

// Prefix returns the document number prefix for the type.
func (c *Config) Prefix(t TransactionType) string {
	return c.Types[t].NoPrefix
}

// CanClear reports whether assigning may be the clearing side against
// assigned, per the allowed assigning type set of the assigned type.
func (c *Config) CanClear(assigning, assigned TransactionType) bool {
	for _, t := range c.Types[assigning].Clears {
		if t == assigned {
			return true
		}
	}
	return false
}

// ClearableBy reports whether assigned accepts assigning as its clearing
// transaction type.
func (c *Config) ClearableBy(assigned, assigning TransactionType) bool {
	for _, t := range c.Types[assigned].ClearedBy {
		if t == assigning {
			return true
		}
	}
	return false
}

// ReducingEntryType returns the ledger side that reduces the balance of the
// account type. A clearance entry must sit on this side.
func (c *Config) ReducingEntryType(t accounts.AccountType) ledger.EntryType {
	return c.IncreasingEntryType[t].Opposite()
}

// Default returns the rule set shipped with the engine.
func Default() *Config {
	clearables := []TransactionType{TypeClientInvoice, TypeSupplierBill, TypeJournalEntry}
	receivableClearing := []TransactionType{TypeClientReceipt, TypeCreditNote, TypeJournalEntry}
	payableClearing := []TransactionType{TypeSupplierPayment, TypeDebitNote, TypeJournalEntry}

	return &Config{
		Types: map[TransactionType]TypeSpec{
			TypeCashSale: {
				Label:                "Cash Sale",
				NoPrefix:             "CS",
				Credited:             false,
				Taxable:              true,
				MainAccountTypes:     []accounts.AccountType{accounts.AccountTypeBank},
				LineItemAccountTypes: []accounts.AccountType{accounts.AccountTypeOperatingRevenue},
			},
			TypeClientInvoice: {
				Label:                "Client Invoice",
				NoPrefix:             "IN",
				Credited:             false,
				Taxable:              true,
				MainAccountTypes:     []accounts.AccountType{accounts.AccountTypeReceivable},
				LineItemAccountTypes: []accounts.AccountType{accounts.AccountTypeOperatingRevenue},
				ClearedBy:            receivableClearing,
			},
			TypeCreditNote: {
				Label:                "Credit Note",
				NoPrefix:             "CN",
				Credited:             true,
				Taxable:              true,
				MainAccountTypes:     []accounts.AccountType{accounts.AccountTypeReceivable},
				LineItemAccountTypes: []accounts.AccountType{accounts.AccountTypeOperatingRevenue},
				Clears:               clearables,
			},
			TypeClientReceipt: {
				Label:                "Client Receipt",
				NoPrefix:             "RC",
				Credited:             true,
				Taxable:              false,
				MainAccountTypes:     []accounts.AccountType{accounts.AccountTypeReceivable},
				LineItemAccountTypes: []accounts.AccountType{accounts.AccountTypeBank},
				Clears:               clearables,
			},
			TypeSupplierBill: {
				Label:    "Supplier Bill",
				NoPrefix: "BL",
				Credited: true,
				Taxable:  true,
				MainAccountTypes: []accounts.AccountType{
					accounts.AccountTypePayable,
				},
				LineItemAccountTypes: []accounts.AccountType{
					accounts.AccountTypeOperatingExpense,
					accounts.AccountTypeDirectExpense,
					accounts.AccountTypeOverheadExpense,
					accounts.AccountTypeOtherExpense,
					accounts.AccountTypeNonCurrentAsset,
					accounts.AccountTypeCurrentAsset,
					accounts.AccountTypeInventory,
				},
				ClearedBy: payableClearing,
			},
			TypeCashPurchase: {
				Label:    "Cash Purchase",
				NoPrefix: "CP",
				Credited: true,
				Taxable:  true,
				MainAccountTypes: []accounts.AccountType{
					accounts.AccountTypeBank,
				},
				LineItemAccountTypes: []accounts.AccountType{
					accounts.AccountTypeOperatingExpense,
					accounts.AccountTypeDirectExpense,
					accounts.AccountTypeOverheadExpense,
					accounts.AccountTypeOtherExpense,
					accounts.AccountTypeNonCurrentAsset,
					accounts.AccountTypeCurrentAsset,
					accounts.AccountTypeInventory,
				},
			},
			TypeDebitNote: {
				Label:    "Debit Note",
				NoPrefix: "DN",
				Credited: false,
				Taxable:  true,
				MainAccountTypes: []accounts.AccountType{
					accounts.AccountTypePayable,
				},
				LineItemAccountTypes: []accounts.AccountType{
					accounts.AccountTypeOperatingExpense,
					accounts.AccountTypeDirectExpense,
					accounts.AccountTypeOverheadExpense,
					accounts.AccountTypeOtherExpense,
					accounts.AccountTypeNonCurrentAsset,
					accounts.AccountTypeCurrentAsset,
					accounts.AccountTypeInventory,
				},
				Clears: clearables,
			},
			TypeSupplierPayment: {
				Label:                "Supplier Payment",
				NoPrefix:             "PY",
				Credited:             false,
				Taxable:              false,
				MainAccountTypes:     []accounts.AccountType{accounts.AccountTypePayable},
				LineItemAccountTypes: []accounts.AccountType{accounts.AccountTypeBank},
				Clears:               clearables,
			},
			TypeContraEntry: {
				Label:                "Contra Entry",
				NoPrefix:             "CE",
				Credited:             false,
				Taxable:              false,
				MainAccountTypes:     []accounts.AccountType{accounts.AccountTypeBank},
				LineItemAccountTypes: []accounts.AccountType{accounts.AccountTypeBank},
			},
			TypeJournalEntry: {
				Label:     "Journal Entry",
				NoPrefix:  "JN",
				Credited:  true,
				Compound:  true,
				Taxable:   true,
				Clears:    clearables,
				ClearedBy: []TransactionType{TypeClientReceipt, TypeSupplierPayment, TypeCreditNote, TypeDebitNote, TypeJournalEntry},
			},
		},
		IncreasingEntryType: map[accounts.AccountType]ledger.EntryType{
			accounts.AccountTypeNonCurrentAsset:     ledger.EntryTypeDebit,
			accounts.AccountTypeContraAsset:         ledger.EntryTypeCredit,
			accounts.AccountTypeInventory:           ledger.EntryTypeDebit,
			accounts.AccountTypeBank:                ledger.EntryTypeDebit,
			accounts.AccountTypeCurrentAsset:        ledger.EntryTypeDebit,
			accounts.AccountTypeReceivable:          ledger.EntryTypeDebit,
			accounts.AccountTypeNonCurrentLiability: ledger.EntryTypeCredit,
			accounts.AccountTypeControl:             ledger.EntryTypeCredit,
			accounts.AccountTypeCurrentLiability:    ledger.EntryTypeCredit,
			accounts.AccountTypePayable:             ledger.EntryTypeCredit,
			accounts.AccountTypeReconciliation:      ledger.EntryTypeCredit,
			accounts.AccountTypeEquity:              ledger.EntryTypeCredit,
			accounts.AccountTypeOperatingRevenue:    ledger.EntryTypeCredit,
			accounts.AccountTypeNonOperatingRevenue: ledger.EntryTypeCredit,
			accounts.AccountTypeOperatingExpense:    ledger.EntryTypeDebit,
			accounts.AccountTypeDirectExpense:       ledger.EntryTypeDebit,
			accounts.AccountTypeOverheadExpense:     ledger.EntryTypeDebit,
			accounts.AccountTypeOtherExpense:        ledger.EntryTypeDebit,
		},
	}
}
