package categories

import (
	"context"
	"fmt"

	"github.com/microbooks/microbooks/internal/books/accounts"
	"github.com/microbooks/microbooks/internal/books/shared"
)

// Service manages reporting categories.
type Service struct {
	repo Repository
}

// NewService returns a category service over the repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get fetches a category by id.
func (s *Service) Get(ctx context.Context, id int64) (Category, error) {
	return s.repo.Get(ctx, id)
}

// List returns the entity's categories.
func (s *Service) List(ctx context.Context, entityID int64) ([]Category, error) {
	return s.repo.List(ctx, entityID)
}

// Create validates the account type and inserts the category.
func (s *Service) Create(ctx context.Context, category Category) (Category, error) {
	if !accounts.IsValidAccountType(category.AccountType) {
		return Category{}, fmt.Errorf("%w: %q", shared.ErrInvalidAccountType, category.AccountType)
	}
	return s.repo.Insert(ctx, category)
}
