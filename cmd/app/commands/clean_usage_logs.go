package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	auditUseCase "github.com/allisson/secretstore/internal/audit/usecase"
)

// RunCleanUsageLogs deletes usage log entries older than days. With dryRun it
// only reports how many would go.
func RunCleanUsageLogs(
	ctx context.Context,
	audit auditUseCase.AuditUseCase,
	logger *slog.Logger,
	writer io.Writer,
	days int,
	dryRun bool,
	format string,
) error {
	if days < 0 {
		return fmt.Errorf("days must be a positive number, got: %d", days)
	}

	logger.Info("cleaning usage logs", slog.Int("days", days), slog.Bool("dry_run", dryRun))

	count, err := audit.DeleteUsageLogsOlderThan(ctx, days, dryRun)
	if err != nil {
		return fmt.Errorf("failed to delete usage logs: %w", err)
	}

	if format == "json" {
		return writeJSON(writer, map[string]any{
			"count":   count,
			"days":    days,
			"dry_run": dryRun,
		})
	}

	if dryRun {
		_, _ = fmt.Fprintf(writer, "Dry-run mode: Would delete %d usage log(s) older than %d day(s)\n", count, days)
	} else {
		_, _ = fmt.Fprintf(writer, "Successfully deleted %d usage log(s) older than %d day(s)\n", count, days)
	}
	return nil
}
