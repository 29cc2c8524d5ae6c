// Package cascade removes a permit together with every record that depends
// on it.
//
// Steps run in reference order: each subtype details root before the child
// rows it points at, then side records, then the permit itself. A step that
// matches no rows succeeds, since most subtypes do not apply to a given permit.
package cascade

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"permitflow/internal/permit/store"
	"permitflow/internal/platform/metrics"
	dErrors "permitflow/pkg/domain-errors"
	"permitflow/pkg/platform/sentinel"
	"permitflow/pkg/requestcontext"
)

// Plan is the deletion order. Every table except permits is keyed by permit_id.
var Plan = []store.Table{
	store.TableBuildingDetails,
	store.TableBuildingApplicants,
	store.TableBuildingConstructions,
	store.TableBuildingInspectors,
	store.TableBuildingEngineers,

	store.TableBusinessDetails,
	store.TableBusinessTaxpayers,
	store.TableBusinessEstablishments,
	store.TableBusinessEmployments,
	store.TableBusinessLessors,

	store.TableMotorela,

	store.TableDocuments,
	store.TablePayments,
	store.TableAuditLogs,
	store.TableUploadedImages,
	store.TableNotifications,
}

// Engine deletes permit aggregates.
type Engine struct {
	client  store.Client
	tx      store.Transactor
	atomic  bool
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Engine)

// WithTransaction runs the whole cascade in one transaction through tx.
func WithTransaction(tx store.Transactor) Option {
	return func(e *Engine) {
		e.tx = tx
		e.atomic = tx != nil
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

func New(client store.Client, opts ...Option) *Engine {
	e := &Engine{client: client, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ErrGuardRejected is returned by DeleteIf when the permit row no longer
// matches the guard. Nothing is deleted in that case.
var ErrGuardRejected = errors.New("permit does not match delete guard")

// Delete removes permitID and its dependents. Ownership and status checks
// belong to the caller.
//
// With a transaction the first failure aborts and rolls back. Without one,
// every step is attempted; the permit row is only removed when all dependents
// were, and the step failures are joined into the returned error.
func (e *Engine) Delete(ctx context.Context, permitID uuid.UUID) error {
	return e.DeleteIf(ctx, permitID, nil)
}

// DeleteIf is Delete for a permit whose row still matches guard, for example
// {"status": "pending"}. The permit row is claimed with a guarded update before
// any dependent is touched, and the final delete carries the same guard.
func (e *Engine) DeleteIf(ctx context.Context, permitID uuid.UUID, guard store.Filter) error {
	root := store.Filter{"id": permitID}
	for col, v := range guard {
		root[col] = v
	}

	if e.atomic {
		err := e.tx.RunInTx(ctx, func(txCtx context.Context) error {
			if err := e.claim(txCtx, root, guard); err != nil {
				return err
			}
			for _, table := range Plan {
				if err := e.step(txCtx, table, store.Filter{"permit_id": permitID}); err != nil {
					return err
				}
			}
			return e.step(txCtx, store.TablePermits, root)
		})
		switch {
		case err == nil:
			return nil
		case errors.Is(err, ErrGuardRejected):
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete permit")
	}

	if err := e.claim(ctx, root, guard); err != nil {
		if errors.Is(err, ErrGuardRejected) {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete permit")
	}
	var errs []error
	for _, table := range Plan {
		if err := e.step(ctx, table, store.Filter{"permit_id": permitID}); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		if err := e.step(ctx, store.TablePermits, root); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete permit")
	}
	return nil
}

// claim touches the guarded permit row. Inside a Postgres transaction this
// also holds the row lock until the cascade commits.
func (e *Engine) claim(ctx context.Context, root, guard store.Filter) error {
	if len(guard) == 0 {
		return nil
	}
	_, err := e.client.Update(ctx, store.TablePermits, root, store.Row{"updated_at": requestcontext.Now(ctx)})
	if errors.Is(err, sentinel.ErrNotFound) {
		return ErrGuardRejected
	}
	if err != nil {
		return fmt.Errorf("claim permit: %w", err)
	}
	return nil
}

func (e *Engine) step(ctx context.Context, table store.Table, key store.Filter) error {
	if err := e.client.Delete(ctx, table, key); err != nil {
		e.metrics.IncrementCascadeFailure(string(table))
		e.logger.ErrorContext(ctx, "cascade delete step failed",
			"table", table,
			"key", key,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return fmt.Errorf("delete %s: %w", table, err)
	}
	return nil
}
