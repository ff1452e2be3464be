package balances

import (
	"context"
	"fmt"

	"github.com/microbooks/microbooks/internal/books/accounts"
	"github.com/microbooks/microbooks/internal/books/config"
	"github.com/microbooks/microbooks/internal/books/periods"
	"github.com/microbooks/microbooks/internal/books/shared"
)

// Repository encapsulates DB operations for opening balances.
type Repository interface {
	GetAccount(ctx context.Context, id int64) (accounts.Account, error)
	GetOpenPeriod(ctx context.Context, entityID int64) (periods.ReportingPeriod, error)
	Insert(ctx context.Context, balance Balance) (Balance, error)
	ListByAccount(ctx context.Context, accountID int64) ([]Balance, error)
}

// balanceTypes are the transaction types an opening balance may represent.
var balanceTypes = []config.TransactionType{
	config.TypeClientInvoice,
	config.TypeSupplierBill,
	config.TypeJournalEntry,
}

// Service validates and records opening balances.
type Service struct {
	repo Repository
}

// NewService returns a balance service over the repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListByAccount returns the account's opening balances.
func (s *Service) ListByAccount(ctx context.Context, accountID int64) ([]Balance, error) {
	return s.repo.ListByAccount(ctx, accountID)
}

// Create validates and inserts an opening balance against the entity's open
// reporting period.
func (s *Service) Create(ctx context.Context, balance Balance) (Balance, error) {
	if balance.Amount.IsNegative() {
		return Balance{}, fmt.Errorf("%w: balance amount", shared.ErrNegativeValue)
	}
	if !validBalanceType(balance.TransactionType) {
		return Balance{}, fmt.Errorf("%w: got %s", shared.ErrInvalidBalanceTransaction, balance.TransactionType)
	}
	account, err := s.repo.GetAccount(ctx, balance.AccountID)
	if err != nil {
		return Balance{}, err
	}
	if accounts.IsIncomeStatementType(account.Type) {
		return Balance{}, fmt.Errorf("%w: account %q is %s", shared.ErrInvalidBalanceAccount, account.Name, account.Type)
	}
	period, err := s.repo.GetOpenPeriod(ctx, balance.EntityID)
	if err != nil {
		return Balance{}, err
	}
	if !balance.TransactionDate.Before(period.Interval().Start) {
		return Balance{}, shared.ErrInvalidBalanceDate
	}
	balance.ReportingPeriodID = period.ID
	balance.CurrencyID = account.CurrencyID
	return s.repo.Insert(ctx, balance)
}

func validBalanceType(t config.TransactionType) bool {
	for _, bt := range balanceTypes {
		if bt == t {
			return true
		}
	}
	return false
}
