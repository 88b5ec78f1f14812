package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/allisson/secretstore/internal/database"
	transitionDomain "github.com/allisson/secretstore/internal/transition/domain"
)

// TransitionWorker is the single consumer of the migration unit queue.
type TransitionWorker struct {
	config    Config
	txManager database.TxManager
	repo      TransitionRepository
	migrator  SecretMigrator
	logger    *slog.Logger
}

// NewTransitionWorker creates a TransitionWorker.
func NewTransitionWorker(
	config Config,
	txManager database.TxManager,
	repo TransitionRepository,
	migrator SecretMigrator,
	logger *slog.Logger,
) *TransitionWorker {
	return &TransitionWorker{
		config:    config,
		txManager: txManager,
		repo:      repo,
		migrator:  migrator,
		logger:    logger,
	}
}

// Start runs the processing loop until ctx is cancelled.
func (w *TransitionWorker) Start(ctx context.Context) error {
	w.logger.Info("starting transition worker",
		slog.Duration("interval", w.config.Interval),
		slog.Int("batch_size", w.config.BatchSize),
		slog.Int("max_retries", w.config.MaxRetries),
	)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("stopping transition worker")
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.ProcessBatch(ctx); err != nil {
				w.logger.Error("failed to process migration units", slog.Any("error", err))
			}
		}
	}
}

// ProcessBatch claims and handles units one transaction at a time. A failed
// attempt ends the batch so retries are spread across ticks; units with fewer
// retries are claimed first, so a failing unit does not hold back the rest.
func (w *TransitionWorker) ProcessBatch(ctx context.Context) (int, error) {
	processed := 0
	for processed < w.config.BatchSize {
		if err := ctx.Err(); err != nil {
			return processed, err
		}

		claimed, failed, err := w.processNext(ctx)
		if err != nil {
			return processed, err
		}
		if !claimed {
			break
		}
		processed++
		if failed {
			break
		}
	}

	if processed > 0 {
		w.logger.Debug("migration units processed", slog.Int("count", processed))
	}
	return processed, nil
}

func (w *TransitionWorker) processNext(ctx context.Context) (claimed, failed bool, err error) {
	var unit *transitionDomain.MigrationUnit
	var migrateErr error
	err = w.txManager.WithTx(ctx, func(txCtx context.Context) error {
		units, err := w.repo.ClaimPendingUnits(txCtx, 1)
		if err != nil {
			return err
		}
		if len(units) == 0 {
			return nil
		}
		unit = units[0]

		migrated, err := w.migrator.Migrate(txCtx, unit.AccountID, unit.SecretID, unit.From, unit.To)
		if err != nil {
			migrateErr = err
			return err
		}
		w.complete(unit, migrated)
		if err := w.repo.UpdateUnit(txCtx, unit); err != nil {
			return err
		}
		return w.refresh(txCtx, unit)
	})
	if unit == nil || migrateErr == nil {
		return unit != nil, false, err
	}

	// The failed attempt was rolled back; the retry is booked separately.
	w.fail(unit, migrateErr)
	err = w.txManager.WithTx(ctx, func(txCtx context.Context) error {
		if err := w.repo.UpdateUnit(txCtx, unit); err != nil {
			return err
		}
		return w.refresh(txCtx, unit)
	})
	return true, true, err
}

func (w *TransitionWorker) complete(unit *transitionDomain.MigrationUnit, migrated bool) {
	now := time.Now().UTC()
	unit.Status = transitionDomain.UnitCompleted
	unit.ProcessedAt = &now

	w.logger.Info("secret migrated",
		slog.String("unit_id", unit.ID.String()),
		slog.String("secret_id", unit.SecretID.String()),
		slog.Bool("rewritten", migrated),
	)
}

func (w *TransitionWorker) fail(unit *transitionDomain.MigrationUnit, err error) {
	unit.Retries++
	msg := err.Error()
	unit.LastError = &msg
	if unit.Retries >= w.config.MaxRetries {
		now := time.Now().UTC()
		unit.Status = transitionDomain.UnitFailed
		unit.ProcessedAt = &now
	}

	w.logger.Error("failed to migrate secret",
		slog.String("unit_id", unit.ID.String()),
		slog.String("secret_id", unit.SecretID.String()),
		slog.Int("retries", unit.Retries),
		slog.String("status", string(unit.Status)),
		slog.Any("error", err),
	)
}

// refresh moves the transition header to the status its units imply.
func (w *TransitionWorker) refresh(ctx context.Context, unit *transitionDomain.MigrationUnit) error {
	transition, err := w.repo.Get(ctx, unit.TransitionID)
	if err != nil {
		return err
	}

	status := transition.Counts.Status()
	if status == transition.Status {
		return nil
	}
	if err := w.repo.UpdateStatus(ctx, transition.ID, status); err != nil {
		return err
	}
	if status.Terminal() {
		w.logger.Info("transition finished",
			slog.String("transition_id", transition.ID.String()),
			slog.String("status", string(status)),
			slog.Int("completed", transition.Counts.Completed),
			slog.Int("failed", transition.Counts.Failed),
		)
	}
	return nil
}

var _ Worker = (*TransitionWorker)(nil)
