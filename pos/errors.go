/*
errors.go - Centralized error types for the POS engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The storage and API layers wrap or map these errors; they never invent
  their own taxonomy.

ERROR CATEGORIES:
  1. Request errors   - Malformed input, caller's fault, no side effects
  2. Business errors  - Stock/catalog rule violations
  3. Consistency gaps - Degraded-mode partial debits (real inconsistency)
  4. Store errors     - Infrastructure failures, safe to retry whole op

USAGE:
  if errors.Is(err, pos.ErrInsufficientStock) {
      var short *pos.InsufficientStockError
      errors.As(err, &short)
      // short.VariantID names the offending variant
  }

SEE ALSO:
  - checkout.go: Produces stock and partial-debit errors
  - ledger.go: Produces validation errors
  - api/handlers.go: Maps errors to HTTP status codes
*/
package pos

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidRequest is returned for malformed or missing input.
	// Guaranteed: no mutation was attempted.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrUnknownVariant is returned when a referenced variant does not exist.
	// Guaranteed: no stock mutation occurred.
	ErrUnknownVariant = errors.New("unknown variant")

	// ErrInsufficientStock is returned when a conditional debit finds less
	// stock than requested. In transactional mode no mutation survives.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrPartialStockDebit is returned only in degraded mode, when a debit
	// fails after earlier lines of the same sale already decremented stock.
	// Those decrements are NOT reversed; manual reconciliation is required.
	ErrPartialStockDebit = errors.New("partial stock debit")

	// ErrStorageUnavailable wraps infrastructure failures. Safe to retry the
	// whole operation in transactional mode.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrProductNotFound is returned when a referenced product doesn't exist.
	ErrProductNotFound = errors.New("product not found")

	// ErrVariantNotFound is returned when a variant lookup by ID misses.
	ErrVariantNotFound = errors.New("variant not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError reports a specific invalid field in a request.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid request: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidRequest
}

// UnknownVariantError lists the cart variant IDs with no catalog entry.
type UnknownVariantError struct {
	Missing []VariantID
}

func (e *UnknownVariantError) Error() string {
	ids := make([]string, len(e.Missing))
	for i, id := range e.Missing {
		ids[i] = string(id)
	}
	return fmt.Sprintf("unknown variant: %s", strings.Join(ids, ", "))
}

func (e *UnknownVariantError) Unwrap() error {
	return ErrUnknownVariant
}

// InsufficientStockError names the variant that came up short.
type InsufficientStockError struct {
	VariantID VariantID
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for variant %s: requested %d, available %d",
		e.VariantID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// AppliedDebit records one stock decrement that was already applied when a
// degraded-mode sale aborted.
type AppliedDebit struct {
	VariantID VariantID
	Quantity  int
}

// PartialDebitError reports a degraded-mode consistency gap: the listed
// debits were applied and NOT rolled back before the failing line aborted
// the sale. Carries enough detail for manual correction.
type PartialDebitError struct {
	Applied []AppliedDebit
	Failed  VariantID
	Cause   error
}

func (e *PartialDebitError) Error() string {
	return fmt.Sprintf("partial stock debit: %d line(s) already debited before variant %s failed: %v",
		len(e.Applied), e.Failed, e.Cause)
}

func (e *PartialDebitError) Unwrap() error {
	return ErrPartialStockDebit
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is the caller's fault (400-class).
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrUnknownVariant)
}

// IsConflict returns true for business-rule violations (409-class).
func IsConflict(err error) bool {
	return errors.Is(err, ErrInsufficientStock) &&
		!errors.Is(err, ErrPartialStockDebit)
}

// IsNotFound returns true if the error indicates a missing catalog entry.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrVariantNotFound)
}
