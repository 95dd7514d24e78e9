package service

import (
	"context"
	"errors"
	"fmt"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/money"
)

// connectError maps ledger, store and auth errors onto connect codes.
// Errors that already carry a code pass through.
func connectError(err error) error {
	if err == nil {
		return nil
	}
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return err
	}
	return connect.NewError(codeOf(err), err)
}

func codeOf(err error) connect.Code {
	// PartialFailure wraps store errors, so it is checked first.
	var partial *ledger.PartialFailure
	if errors.As(err, &partial) {
		return connect.CodeAborted
	}

	switch {
	case errors.Is(err, ledger.ErrValidation),
		errors.Is(err, money.ErrInvalidAmount),
		errors.Is(err, money.ErrPrecision),
		errors.Is(err, auth.ErrWeakPassword):
		return connect.CodeInvalidArgument
	case errors.Is(err, ledger.ErrLimitExceeded), errors.Is(err, ledger.ErrInUse):
		return connect.CodeFailedPrecondition
	case errors.Is(err, ledger.ErrNotMember):
		return connect.CodePermissionDenied
	case errors.Is(err, ledger.ErrNotFound):
		return connect.CodeNotFound
	case errors.Is(err, ledger.ErrConflict):
		return connect.CodeAborted
	case errors.Is(err, ledger.ErrAlreadyExists), errors.Is(err, auth.ErrEmailExists):
		return connect.CodeAlreadyExists
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidToken):
		return connect.CodeUnauthenticated
	case errors.Is(err, ledger.ErrStorageUnavailable):
		return connect.CodeUnavailable
	case errors.Is(err, context.Canceled):
		return connect.CodeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return connect.CodeDeadlineExceeded
	}
	return connect.CodeInternal
}

// invalidArgument builds a validation error for a request field.
func invalidArgument(format string, args ...any) error {
	return connect.NewError(connect.CodeInvalidArgument,
		fmt.Errorf("%w: %s", ledger.ErrValidation, fmt.Sprintf(format, args...)))
}

// caller returns the authenticated user of the call.
func caller(ctx context.Context) (string, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	return userID, nil
}
