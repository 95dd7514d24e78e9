package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmynk/splitledger/internal/models"
)

// compensationTimeout bounds the compensating steps, which run even after
// the caller's context is cancelled.
const compensationTimeout = 10 * time.Second

// step is a committed step and the action that reverses it.
type step struct {
	name string
	undo func(ctx context.Context) error
}

// saga runs the steps of one logical transaction in order and undoes the
// committed ones in reverse when a later step fails. It holds a lease on
// the profile from beginSaga to end, during which the profile's totals are
// never recomputed.
type saga struct {
	ledger    *Ledger
	operation string
	profileID string
	entityID  string
	leaseID   string
	done      []step
}

func (l *Ledger) beginSaga(ctx context.Context, operation, profileID string) (*saga, error) {
	leaseID, err := l.store.BeginSaga(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("%s: begin: %w", operation, err)
	}
	return &saga{ledger: l, operation: operation, profileID: profileID, leaseID: leaseID}, nil
}

// end releases the lease, even when ctx is already cancelled. A lease that
// cannot be released expires after storage.SagaLeaseTTL.
func (s *saga) end(ctx context.Context) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()
	if err := s.ledger.store.EndSaga(cctx, s.leaseID); err != nil {
		slog.WarnContext(ctx, "Failed to release saga lease",
			"operation", s.operation,
			"profile_id", s.profileID,
			"lease_id", s.leaseID,
			"error", err,
		)
	}
}

// do runs action as the named step. On success the step's undo is pushed;
// undo may be nil for the final step.
func (s *saga) do(ctx context.Context, name string, action func(ctx context.Context) error, undo func(ctx context.Context) error) error {
	if err := action(ctx); err != nil {
		return s.fail(ctx, name, err)
	}
	if undo != nil {
		s.done = append(s.done, step{name: name, undo: undo})
	}
	return nil
}

// fail compensates every committed step in reverse order. If every
// compensation succeeds the original error is returned and nothing of the
// transaction remains. Otherwise an inconsistency is recorded and a
// *PartialFailure is returned.
func (s *saga) fail(ctx context.Context, failedStep string, cause error) error {
	cause = fmt.Errorf("%s: %s: %w", s.operation, failedStep, cause)
	if len(s.done) == 0 {
		return cause
	}

	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	var (
		stillCommitted []string
		failed         = []string{failedStep}
		errs           = []error{cause}
	)
	for i := len(s.done) - 1; i >= 0; i-- {
		st := s.done[i]
		err := st.undo(cctx)
		s.ledger.metrics.Compensation(s.operation, err)
		if err != nil {
			slog.ErrorContext(ctx, "Compensation failed",
				"operation", s.operation,
				"step", st.name,
				"profile_id", s.profileID,
				"error", err,
			)
			stillCommitted = append(stillCommitted, st.name)
			failed = append(failed, "undo "+st.name)
			errs = append(errs, fmt.Errorf("undo %s: %w", st.name, err))
		}
	}

	if len(stillCommitted) == 0 {
		slog.WarnContext(ctx, "Transaction compensated",
			"operation", s.operation,
			"profile_id", s.profileID,
			"failed_step", failedStep,
			"error", cause,
		)
		return cause
	}

	partial := &PartialFailure{
		Operation: s.operation,
		ProfileID: s.profileID,
		Completed: stillCommitted,
		Failed:    failed,
		Err:       errors.Join(errs...),
	}
	s.ledger.markInconsistent(cctx, s.operation, s.profileID, s.entityID, partial)
	return partial
}

// markInconsistent records, logs and publishes an inconsistency marker.
// A failure to record it is logged; the caller still gets the PartialFailure.
func (l *Ledger) markInconsistent(ctx context.Context, operation, profileID, entityID string, cause error) {
	marker := &models.Inconsistency{
		ProfileID: profileID,
		Operation: operation,
		EntityID:  entityID,
		Detail:    cause.Error(),
	}
	l.metrics.Inconsistency(operation)

	if err := l.store.RecordInconsistency(ctx, marker); err != nil {
		slog.ErrorContext(ctx, "Failed to record inconsistency",
			"operation", operation,
			"profile_id", profileID,
			"entity_id", entityID,
			"detail", marker.Detail,
			"error", err,
		)
	} else {
		slog.ErrorContext(ctx, "Profile totals left inconsistent",
			"inconsistency_id", marker.ID,
			"operation", operation,
			"profile_id", profileID,
			"entity_id", entityID,
			"error", cause,
		)
	}

	if l.publisher == nil {
		return
	}
	if err := l.publisher.PublishInconsistency(ctx, marker); err != nil {
		slog.ErrorContext(ctx, "Failed to publish inconsistency",
			"profile_id", profileID,
			"error", err,
		)
	}
}
