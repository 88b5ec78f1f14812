package commands

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	managerDomain "github.com/allisson/secretstore/internal/manager/domain"
	managerUseCase "github.com/allisson/secretstore/internal/manager/usecase"
)

// RunListSecrets prints the account's secret inventory without values.
func RunListSecrets(
	ctx context.Context,
	manager managerUseCase.SecretManager,
	writer io.Writer,
	exec managerDomain.ExecutionContext,
	offset, limit int,
	format string,
) error {
	values, err := manager.ListEncryptedValues(ctx, exec, offset, limit)
	if err != nil {
		return fmt.Errorf("failed to list secrets: %w", err)
	}
	if format == "json" {
		return writeJSON(writer, values)
	}

	tw := tabwriter.NewWriter(writer, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tNAME\tTYPE\tENCRYPTION\tKMS\tCREATED BY\tUPDATED AT")
	for _, v := range values {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			v.ID, v.Name, v.Type, v.EncryptionType, v.KmsName, v.CreatedBy.Email, v.UpdatedAt.Format(time.RFC3339))
	}
	return tw.Flush()
}

// RunChangeLogs prints a secret's change history, newest first.
func RunChangeLogs(
	ctx context.Context,
	manager managerUseCase.SecretManager,
	writer io.Writer,
	exec managerDomain.ExecutionContext,
	secretID uuid.UUID,
	format string,
) error {
	logs, err := manager.GetChangeLogs(ctx, exec, secretID)
	if err != nil {
		return fmt.Errorf("failed to get change logs: %w", err)
	}
	if format == "json" {
		return writeJSON(writer, logs)
	}

	tw := tabwriter.NewWriter(writer, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "WHEN\tUSER\tDESCRIPTION")
	for _, l := range logs {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", l.CreatedAt.Format(time.RFC3339), l.User.Email, l.Description)
	}
	return tw.Flush()
}

// RunUsageLogs prints a page of a secret's resolutions, newest first.
func RunUsageLogs(
	ctx context.Context,
	manager managerUseCase.SecretManager,
	writer io.Writer,
	exec managerDomain.ExecutionContext,
	secretID uuid.UUID,
	offset, limit int,
	format string,
) error {
	logs, err := manager.GetUsageLogs(ctx, exec, secretID, offset, limit)
	if err != nil {
		return fmt.Errorf("failed to get usage logs: %w", err)
	}
	if format == "json" {
		return writeJSON(writer, logs)
	}

	tw := tabwriter.NewWriter(writer, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "WHEN\tAPP\tWORKFLOW EXECUTION\tENV")
	for _, l := range logs {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			l.CreatedAt.Format(time.RFC3339), l.AppID, l.WorkflowExecutionID, l.EnvID)
	}
	return tw.Flush()
}
