/*
errors.go - Centralized error types for the inventory domain

PURPOSE:
  All domain errors in one place for consistency and discoverability.
  Callers classify errors with the Is* helpers instead of matching
  on strings.

ERROR CATEGORIES:
  1. Validation errors  - Malformed or out-of-range input
  2. Referential errors - Operation references a missing record
  3. Invariant errors   - Mutation would violate quantity >= 0
  4. Conflict errors    - Catalog uniqueness violations

USAGE:
  if errors.Is(err, inventory.ErrInsufficientStock) {
      // reject with the shortage details
  }

SEE ALSO:
  - ledger.go: Produces validation/invariant errors
  - store/sqlite: Maps UNIQUE constraint failures to conflict errors
*/
package inventory

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidQuantity is returned when a quantity is zero or negative.
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")

	// ErrReasonRequired is returned when a loss/theft adjustment has a
	// blank or whitespace-only reason.
	ErrReasonRequired = errors.New("reason is required for loss/theft")

	// ErrInvalidTransactionType is returned when an adjustment names a
	// type outside {LOSS, THEFT}.
	ErrInvalidTransactionType = errors.New("invalid transaction type")

	// ErrInsufficientStock is returned when a decrement exceeds the
	// current stock quantity. Distinguished from generic validation so
	// callers can prompt for a smaller quantity.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrNoInventory is returned when a book has no inventory row yet.
	ErrNoInventory = errors.New("no inventory found for this book")

	// ErrBookNotFound is returned when a referenced book doesn't exist.
	ErrBookNotFound = errors.New("book not found")

	// ErrGenreNotFound is returned when a referenced genre doesn't exist.
	ErrGenreNotFound = errors.New("genre not found")

	// ErrInvalidPeriod is returned when a reporting period is not one
	// of the known values.
	ErrInvalidPeriod = errors.New("invalid period")

	// ErrDuplicateISBN is returned when creating a book with an ISBN
	// that already exists.
	ErrDuplicateISBN = errors.New("a book with this ISBN already exists")

	// ErrDuplicateGenreName is returned when creating a genre with a
	// name that already exists.
	ErrDuplicateGenreName = errors.New("a genre with this name already exists")

	// ErrGenreInUse is returned when deleting a genre that books still
	// reference.
	ErrGenreInUse = errors.New("genre is referenced by existing books")

	// ErrBookHasSales is returned when deleting a book with recorded
	// sales. Sales history is price-stable and must survive.
	ErrBookHasSales = errors.New("book has recorded sales")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientStockError reports a stock shortage with details.
type InsufficientStockError struct {
	BookID    string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for book %s: available %d, requested %d",
		e.BookID, e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input
// or a rejected mutation. These map to HTTP 400.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrReasonRequired) ||
		errors.Is(err, ErrInvalidTransactionType) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrNoInventory) ||
		errors.Is(err, ErrInvalidPeriod)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrBookNotFound) ||
		errors.Is(err, ErrGenreNotFound)
}

// IsConflict returns true if the error is a uniqueness or referential
// conflict. These map to HTTP 409.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateISBN) ||
		errors.Is(err, ErrDuplicateGenreName) ||
		errors.Is(err, ErrGenreInUse) ||
		errors.Is(err, ErrBookHasSales)
}
