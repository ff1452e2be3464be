package accounts

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/microbooks/microbooks/internal/books/shared"
)

// Service manages the chart of accounts and ledger derived balances.
type Service struct {
	repo Repository
}

// NewService returns an account service over the repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get fetches an account by id.
func (s *Service) Get(ctx context.Context, id int64) (Account, error) {
	return s.repo.Get(ctx, id)
}

// List returns the entity's chart of accounts.
func (s *Service) List(ctx context.Context, entityID int64) ([]Account, error) {
	return s.repo.List(ctx, entityID)
}

// Create validates and inserts an account. An account placed in a category
// must share the category's account type.
func (s *Service) Create(ctx context.Context, account Account) (Account, error) {
	if !IsValidAccountType(account.Type) {
		return Account{}, fmt.Errorf("%w: %q", shared.ErrInvalidAccountType, account.Type)
	}
	if account.CategoryID != nil {
		categoryType, err := s.repo.CategoryType(ctx, *account.CategoryID)
		if err != nil {
			return Account{}, err
		}
		if categoryType != account.Type {
			return Account{}, fmt.Errorf("%w: cannot assign %s account to %s category",
				shared.ErrInvalidCategoryAccountType, account.Type, categoryType)
		}
	}
	return s.repo.Insert(ctx, account)
}

// ClosingBalance returns the account's net posted amount up to asOf.
func (s *Service) ClosingBalance(ctx context.Context, accountID int64, asOf time.Time) (decimal.Decimal, error) {
	return s.repo.ClosingBalance(ctx, accountID, asOf)
}

// SectionBalance sums the per account balances of the given types over the
// window. Reporting sections are built from these totals.
func (s *Service) SectionBalance(ctx context.Context, entityID int64, types []AccountType, from, to time.Time) (decimal.Decimal, error) {
	balances, err := s.repo.TypeBalances(ctx, entityID, types, from, to)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, b := range balances {
		total = total.Add(b.Amount)
	}
	return total, nil
}
