package periods

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/microbooks/microbooks/internal/books/shared"
)

// Service resolves dates to reporting periods and manages the period
// lifecycle. Creation invariants: one period per calendar year per entity
// and at most one OPEN period per entity.
type Service struct {
	repo Repository
}

// NewService returns a period service over the repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetPeriod returns the period owning the date's calendar year.
func (s *Service) GetPeriod(ctx context.Context, entityID int64, date time.Time) (ReportingPeriod, error) {
	period, err := s.repo.GetByYear(ctx, entityID, date.Year())
	if err != nil {
		if errors.Is(err, shared.ErrMissingReportingPeriod) {
			return ReportingPeriod{}, fmt.Errorf("%w: entity %d year %d", shared.ErrMissingReportingPeriod, entityID, date.Year())
		}
		return ReportingPeriod{}, err
	}
	return period, nil
}

// List returns the entity's periods ordered by year.
func (s *Service) List(ctx context.Context, entityID int64) ([]ReportingPeriod, error) {
	return s.repo.List(ctx, entityID)
}

// Create opens a new reporting period for the calendar year. The existing
// period rows are locked so two concurrent creations serialize.
func (s *Service) Create(ctx context.Context, entityID int64, year int) (ReportingPeriod, error) {
	var created ReportingPeriod
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		existing, err := tx.ListForUpdate(ctx, entityID)
		if err != nil {
			return err
		}
		count := 1
		for _, p := range existing {
			if p.CalendarYear == year {
				return fmt.Errorf("%w: %d", shared.ErrDuplicateReportingPeriod, year)
			}
			if p.Status == StatusOpen {
				return shared.ErrMultipleOpenPeriods
			}
			count++
		}
		created, err = tx.Insert(ctx, ReportingPeriod{
			EntityID:     entityID,
			CalendarYear: year,
			PeriodCount:  count,
			Status:       StatusOpen,
		})
		return err
	})
	if err != nil {
		return ReportingPeriod{}, err
	}
	return created, nil
}

// Transition moves a period through OPEN -> ADJUSTING -> CLOSED. A closed
// period never reopens.
func (s *Service) Transition(ctx context.Context, id int64, target Status) (ReportingPeriod, error) {
	var period ReportingPeriod
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !validTransition(current.Status, target) {
			return fmt.Errorf("%w: %s to %s", shared.ErrInvalidPeriodTransition, current.Status, target)
		}
		if err := tx.UpdateStatus(ctx, id, target); err != nil {
			return err
		}
		period = current
		period.Status = target
		return nil
	})
	if err != nil {
		return ReportingPeriod{}, err
	}
	return period, nil
}

func validTransition(current, target Status) bool {
	switch current {
	case StatusOpen:
		return target == StatusAdjusting || target == StatusClosed
	case StatusAdjusting:
		return target == StatusClosed
	}
	return false
}
