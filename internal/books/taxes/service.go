package taxes

import (
	"context"
	"fmt"

	"github.com/microbooks/microbooks/internal/books/accounts"
	"github.com/microbooks/microbooks/internal/books/shared"
)

// Repository encapsulates DB operations for taxes.
type Repository interface {
	Get(ctx context.Context, id int64) (Tax, error)
	GetAccount(ctx context.Context, id int64) (accounts.Account, error)
	Insert(ctx context.Context, tax Tax) (Tax, error)
}

// Service validates and records taxes.
type Service struct {
	repo Repository
}

// NewService returns a tax service over the repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get fetches a tax by id.
func (s *Service) Get(ctx context.Context, id int64) (Tax, error) {
	return s.repo.Get(ctx, id)
}

// Create validates and inserts a tax. Non zero rates require a control
// account to receive the tax amounts.
func (s *Service) Create(ctx context.Context, tax Tax) (Tax, error) {
	if tax.Rate.IsNegative() {
		return Tax{}, fmt.Errorf("%w: tax rate", shared.ErrNegativeValue)
	}
	if tax.AccountID == 0 {
		if !tax.Rate.IsZero() {
			return Tax{}, shared.ErrMissingTaxAccount
		}
		return s.repo.Insert(ctx, tax)
	}
	account, err := s.repo.GetAccount(ctx, tax.AccountID)
	if err != nil {
		return Tax{}, err
	}
	if account.Type != accounts.AccountTypeControl {
		return Tax{}, fmt.Errorf("%w: account %q is %s", shared.ErrInvalidTaxAccount, account.Name, account.Type)
	}
	return s.repo.Insert(ctx, tax)
}
