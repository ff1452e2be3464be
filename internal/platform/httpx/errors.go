// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	books "github.com/microbooks/microbooks/internal/books/shared"
	"github.com/microbooks/microbooks/internal/shared"
)

// Generic sentinel errors for handlers outside the books domain.
var (
	ErrNotFound   = errors.New("resource not found")
	ErrValidation = errors.New("validation failed")
)

var notFoundErrors = []error{
	ErrNotFound,
	books.ErrTransactionNotFound,
	books.ErrAccountNotFound,
	books.ErrLineItemNotFound,
	books.ErrAssignmentNotFound,
	books.ErrCategoryNotFound,
	books.ErrTaxNotFound,
	books.ErrPeriodNotFound,
	books.ErrMissingReportingPeriod,
}

var conflictErrors = []error{
	books.ErrPostedTransaction,
	books.ErrDuplicateReportingPeriod,
	books.ErrMultipleOpenPeriods,
	shared.ErrIdempotencyConflict,
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// RespondError maps domain errors to HTTP responses using RFC7807. Anything
// from the bookkeeping error taxonomy that is neither a lookup miss nor a
// state conflict is a semantic rejection of a well-formed request.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case isAny(err, notFoundErrors):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case isAny(err, conflictErrors):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case books.IsDomainError(err):
		Problem(w, http.StatusUnprocessableEntity, "Unprocessable", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
