package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	managerDomain "github.com/allisson/secretstore/internal/manager/domain"
	managerUseCase "github.com/allisson/secretstore/internal/manager/usecase"
	transitionDomain "github.com/allisson/secretstore/internal/transition/domain"
)

// RunStartTransition enqueues moving the account's secrets from one backend
// to another. The running server's worker performs the migration.
func RunStartTransition(
	ctx context.Context,
	manager managerUseCase.SecretManager,
	logger *slog.Logger,
	writer io.Writer,
	exec managerDomain.ExecutionContext,
	from, to string,
	format string,
) error {
	fromTarget, err := ParseTarget(from)
	if err != nil {
		return err
	}
	toTarget, err := ParseTarget(to)
	if err != nil {
		return err
	}

	transition, err := manager.TransitionSecrets(ctx, exec, fromTarget, toTarget)
	if err != nil {
		return fmt.Errorf("failed to start transition: %w", err)
	}

	logger.Info("transition enqueued",
		slog.String("transition_id", transition.ID.String()),
		slog.Int("total_units", transition.TotalUnits),
	)
	return writeTransition(writer, transition, format)
}

// RunGetTransition prints a transition with its unit counts.
func RunGetTransition(
	ctx context.Context,
	manager managerUseCase.SecretManager,
	writer io.Writer,
	exec managerDomain.ExecutionContext,
	id uuid.UUID,
	format string,
) error {
	transition, err := manager.GetTransition(ctx, exec, id)
	if err != nil {
		return fmt.Errorf("failed to get transition: %w", err)
	}
	return writeTransition(writer, transition, format)
}

func writeTransition(writer io.Writer, t *transitionDomain.Transition, format string) error {
	if format == "json" {
		return writeJSON(writer, map[string]any{
			"id":           t.ID,
			"account_id":   t.AccountID,
			"from":         t.From.String(),
			"to":           t.To.String(),
			"status":       t.Status,
			"total_units":  t.TotalUnits,
			"pending":      t.Counts.Pending,
			"completed":    t.Counts.Completed,
			"failed":       t.Counts.Failed,
			"requested_by": t.RequestedBy,
			"created_at":   t.CreatedAt,
			"updated_at":   t.UpdatedAt,
		})
	}

	_, _ = fmt.Fprintf(writer, "Transition %s: %s -> %s\n", t.ID, t.From, t.To)
	_, _ = fmt.Fprintf(writer, "Status: %s\n", t.Status)
	_, _ = fmt.Fprintf(writer, "Units: %d total, %d pending, %d completed, %d failed\n",
		t.TotalUnits, t.Counts.Pending, t.Counts.Completed, t.Counts.Failed)
	return nil
}
