/*
errors.go - Centralized error types for the lot engine

PURPOSE:
  All engine error values in one place for consistency and discoverability.
  Callers classify with errors.Is; the helpers below map errors to the two
  classes the API surface cares about.

ERROR CATEGORIES:
  1. Validation errors - payload rejected before any ledger call
  2. State errors - action illegal for the lot's current state
  3. Concurrency errors - a submission is already in flight

SUBMISSION ERRORS:
  Ledger rejections are NOT wrapped in a sentinel: the adapter's error is
  propagated as-is so its message reaches the caller unchanged, and local
  lot state is left untouched.
*/
package wheel

import "errors"

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidInput is returned when an action payload fails validation.
	// Validation happens before any ledger call; nothing was submitted.
	// The message is deliberately generic: validators are booleans and do
	// not report which field failed.
	ErrInvalidInput = errors.New("invalid input")

	// ErrLotNotFound is returned when an action references a lot number
	// that is not in the collection.
	ErrLotNotFound = errors.New("lot not found")

	// ErrLotBusy is returned when an action targets a lot that already has
	// a submission in flight. Actions are rejected, not queued.
	ErrLotBusy = errors.New("action already in flight for lot")

	// ErrActionUnavailable is returned when an action is not legal for the
	// lot's current state (e.g. covering an already-covered lot).
	ErrActionUnavailable = errors.New("action not available in current lot state")

	// ErrSubmissionPending is returned when the active dialog is dismissed
	// while its submission is still in flight.
	ErrSubmissionPending = errors.New("submission in progress")
)

// IsClientError reports whether the error is user-correctable: the caller
// may retry with corrected input or after the in-flight action completes.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrLotNotFound) ||
		errors.Is(err, ErrLotBusy) ||
		errors.Is(err, ErrActionUnavailable) ||
		errors.Is(err, ErrSubmissionPending)
}
