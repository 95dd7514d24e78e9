package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mmynk/splitledger/internal/storage"
)

var (
	// ErrValidation is returned before any write when the input is invalid.
	ErrValidation = errors.New("validation error")

	// ErrLimitExceeded is returned when an outcome would push a category
	// past its limit. Nothing was written.
	ErrLimitExceeded = errors.New("category limit exceeded")

	// ErrNotMember is returned when the acting user does not belong to the profile.
	ErrNotMember = errors.New("not a member of the profile")

	// Store errors surface unchanged so callers can match either name.
	ErrNotFound           = storage.ErrNotFound
	ErrStorageUnavailable = storage.ErrUnavailable
	ErrConflict           = storage.ErrConflict
	ErrAlreadyExists      = storage.ErrDuplicate
	ErrInUse              = storage.ErrInUse
)

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// PartialFailure reports a logical transaction that failed after some of
// its steps committed and whose compensation failed too. An inconsistency
// marker has been recorded for the profile.
type PartialFailure struct {
	Operation string
	ProfileID string

	// Completed lists the steps that are still committed.
	Completed []string

	// Failed lists the step that failed followed by the compensations that failed.
	Failed []string

	// Err joins the step error and the compensation errors.
	Err error
}

func (e *PartialFailure) Error() string {
	return fmt.Sprintf("%s partially applied (committed: %s; failed: %s): %v",
		e.Operation, strings.Join(e.Completed, ", "), strings.Join(e.Failed, ", "), e.Err)
}

func (e *PartialFailure) Unwrap() error {
	return e.Err
}
