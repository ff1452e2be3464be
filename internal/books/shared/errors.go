// Package shared holds the error taxonomy common to the bookkeeping modules.
//
// Every rule violation surfaces as one of these sentinels, wrapped at the
// call site with the offending context (%w), so callers can both match with
// errors.Is and render a message. Store failures (pgx errors) are never
// translated into these.
package shared

import "errors"

// Period gating.
var (
	// ErrClosedReportingPeriod indicates a transaction dated inside a CLOSED period.
	ErrClosedReportingPeriod = errors.New("books: reporting period is closed")
	// ErrAdjustingReportingPeriod indicates a non journal entry dated inside an ADJUSTING period.
	ErrAdjustingReportingPeriod = errors.New("books: only journal entries may be recorded in an adjusting reporting period")
	// ErrInvalidTransactionDate indicates a transaction dated at the exact period start.
	ErrInvalidTransactionDate = errors.New("books: transaction date cannot be the exact start of the reporting period, use an opening balance instead")
	// ErrMissingReportingPeriod indicates no period covers the transaction date.
	ErrMissingReportingPeriod = errors.New("books: no reporting period for date")
	// ErrDuplicateReportingPeriod indicates a second period for the same calendar year.
	ErrDuplicateReportingPeriod = errors.New("books: a reporting period already exists for that calendar year")
	// ErrMultipleOpenPeriods indicates a second OPEN period for the entity.
	ErrMultipleOpenPeriods = errors.New("books: only one reporting period may be open per entity")
	// ErrInvalidPeriodTransition indicates a status change outside OPEN -> ADJUSTING -> CLOSED.
	ErrInvalidPeriodTransition = errors.New("books: reporting period status transition not allowed")
)

// Transaction integrity.
var (
	// ErrPostedTransaction indicates an attempted change to a posted transaction.
	ErrPostedTransaction = errors.New("books: posted transaction cannot be modified")
	// ErrInvalidTransactionType indicates the type changed after first persist.
	ErrInvalidTransactionType = errors.New("books: transaction type cannot be changed once persisted")
	// ErrUnknownTransactionType indicates a type with no registered specification.
	ErrUnknownTransactionType = errors.New("books: unknown transaction type")
	// ErrMissingLineItem indicates posting without line items.
	ErrMissingLineItem = errors.New("books: transaction requires at least one line item to post")
	// ErrRedundantTransaction indicates a line item on the transaction main account.
	ErrRedundantTransaction = errors.New("books: line item account is the same as the transaction main account")
	// ErrUnbalancedTransaction indicates total debits do not equal total credits.
	ErrUnbalancedTransaction = errors.New("books: total debit amounts do not match total credit amounts")
	// ErrLineItemNotPersisted indicates an attach of a line item without an id.
	ErrLineItemNotPersisted = errors.New("books: line item must be persisted before attachment")
	// ErrMissingMainAccountAmount indicates a compound journal entry without a main account amount.
	ErrMissingMainAccountAmount = errors.New("books: compound journal entry requires a main account amount")
	// ErrNegativeValue indicates an amount or quantity below zero.
	ErrNegativeValue = errors.New("books: value cannot be negative")
)

// Assignment / clearance.
var (
	// ErrUnpostedAssignment indicates clearing with an unposted transaction.
	ErrUnpostedAssignment = errors.New("books: unposted transaction cannot be cleared or assigned")
	// ErrSelfClearance indicates a transaction clearing itself.
	ErrSelfClearance = errors.New("books: transaction cannot clear or be assigned to itself")
	// ErrCompoundTransactionAssignment indicates a compound transaction in an assignment.
	ErrCompoundTransactionAssignment = errors.New("books: compound transaction cannot be cleared or assigned")
	// ErrInvalidAssignmentAccount indicates differing main accounts.
	ErrInvalidAssignmentAccount = errors.New("books: clearing and cleared transactions must share the same main account")
	// ErrUnassignableTransaction indicates the assigning type may not clear the assigned type.
	ErrUnassignableTransaction = errors.New("books: transaction type cannot be assigned")
	// ErrUnclearableTransaction indicates the assigned type may not be cleared by the assigning type.
	ErrUnclearableTransaction = errors.New("books: transaction type cannot be cleared")
	// ErrInvalidClearanceEntryType indicates the clearance entry would increase the outstanding balance.
	ErrInvalidClearanceEntryType = errors.New("books: entry increases the outstanding balance on the account instead of reducing it")
	// ErrMixedAssignment indicates a transaction holding both assigning and assigned roles.
	ErrMixedAssignment = errors.New("books: transaction cannot be both assigned and assigning")
	// ErrOverclearance indicates clearing a transaction with no outstanding balance.
	ErrOverclearance = errors.New("books: transaction is already fully cleared")
	// ErrInsufficientBalance indicates the assigning transaction lacks available balance.
	ErrInsufficientBalance = errors.New("books: insufficient balance available for assignment")
)

// Account and type checks.
var (
	// ErrInvalidAccountType indicates an account type outside the allowed set.
	ErrInvalidAccountType = errors.New("books: invalid account type")
	// ErrInvalidMainAccount indicates a main account type not allowed for the transaction type.
	ErrInvalidMainAccount = errors.New("books: invalid main account type for transaction")
	// ErrInvalidLineItemAccount indicates a line item account type not allowed for the transaction type.
	ErrInvalidLineItemAccount = errors.New("books: invalid line item account type for transaction")
	// ErrInvalidCategoryAccountType indicates an account assigned to a category of a different type.
	ErrInvalidCategoryAccountType = errors.New("books: account type does not match category account type")
	// ErrInvalidBalanceAccount indicates an opening balance on an income statement account.
	ErrInvalidBalanceAccount = errors.New("books: income statement accounts cannot have an opening balance")
	// ErrInvalidBalanceDate indicates an opening balance dated inside the current period.
	ErrInvalidBalanceDate = errors.New("books: balance date must be earlier than the first day of the reporting period")
	// ErrInvalidBalanceTransaction indicates an opening balance with a disallowed transaction type.
	ErrInvalidBalanceTransaction = errors.New("books: balance transaction must be a client invoice, supplier bill or journal entry")
	// ErrInvalidTaxAccount indicates a tax account that is not a control account.
	ErrInvalidTaxAccount = errors.New("books: tax account must be of type control")
	// ErrMissingTaxAccount indicates a non zero rate tax without a control account.
	ErrMissingTaxAccount = errors.New("books: non zero rate tax requires a control account")
	// ErrInvalidTaxCharge indicates tax applied to a transaction type that cannot be taxed.
	ErrInvalidTaxCharge = errors.New("books: transaction type cannot be charged tax")
)

// Lookups.
var (
	// ErrTransactionNotFound indicates a missing transaction row.
	ErrTransactionNotFound = errors.New("books: transaction not found")
	// ErrAccountNotFound indicates a missing account row.
	ErrAccountNotFound = errors.New("books: account not found")
	// ErrLineItemNotFound indicates a missing line item row.
	ErrLineItemNotFound = errors.New("books: line item not found")
	// ErrAssignmentNotFound indicates a missing assignment row.
	ErrAssignmentNotFound = errors.New("books: assignment not found")
	// ErrCategoryNotFound indicates a missing category row.
	ErrCategoryNotFound = errors.New("books: category not found")
	// ErrTaxNotFound indicates a missing tax row.
	ErrTaxNotFound = errors.New("books: tax not found")
	// ErrPeriodNotFound indicates a missing reporting period row.
	ErrPeriodNotFound = errors.New("books: reporting period not found")
)

var domainErrors = []error{
	ErrClosedReportingPeriod, ErrAdjustingReportingPeriod, ErrInvalidTransactionDate,
	ErrMissingReportingPeriod, ErrDuplicateReportingPeriod, ErrMultipleOpenPeriods,
	ErrInvalidPeriodTransition,
	ErrPostedTransaction, ErrInvalidTransactionType, ErrUnknownTransactionType, ErrMissingLineItem,
	ErrRedundantTransaction, ErrUnbalancedTransaction, ErrLineItemNotPersisted,
	ErrMissingMainAccountAmount, ErrNegativeValue,
	ErrUnpostedAssignment, ErrSelfClearance, ErrCompoundTransactionAssignment,
	ErrInvalidAssignmentAccount, ErrUnassignableTransaction, ErrUnclearableTransaction,
	ErrInvalidClearanceEntryType, ErrMixedAssignment, ErrOverclearance, ErrInsufficientBalance,
	ErrInvalidAccountType, ErrInvalidMainAccount, ErrInvalidLineItemAccount,
	ErrInvalidCategoryAccountType, ErrInvalidBalanceAccount, ErrInvalidBalanceDate,
	ErrInvalidBalanceTransaction, ErrInvalidTaxAccount, ErrMissingTaxAccount, ErrInvalidTaxCharge,
	ErrTransactionNotFound, ErrAccountNotFound, ErrLineItemNotFound,
	ErrAssignmentNotFound, ErrCategoryNotFound, ErrTaxNotFound, ErrPeriodNotFound,
}

// IsDomainError reports whether err wraps any sentinel from this taxonomy.
func IsDomainError(err error) bool {
	for _, sentinel := range domainErrors {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
