package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/secretstore/internal/audit/domain"
	apperrors "github.com/allisson/secretstore/internal/errors"
)

const defaultUsageLogLimit = 50

type auditUseCase struct {
	changeLogRepo ChangeLogRepository
	usageLogRepo  UsageLogRepository
}

func (a *auditUseCase) RecordChange(
	ctx context.Context,
	secretID uuid.UUID,
	accountID string,
	user auditDomain.User,
	description auditDomain.Description,
) error {
	if !description.Valid() {
		return auditDomain.ErrInvalidDescription
	}

	entry := &auditDomain.ChangeLog{
		ID:          uuid.Must(uuid.NewV7()),
		SecretID:    secretID,
		AccountID:   accountID,
		User:        user,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
	if err := a.changeLogRepo.Create(ctx, entry); err != nil {
		return apperrors.Wrap(err, "failed to record change log")
	}
	return nil
}

func (a *auditUseCase) RecordUsage(
	ctx context.Context,
	secretID uuid.UUID,
	accountID string,
	usage UsageContext,
) error {
	entry := &auditDomain.UsageLog{
		ID:                  uuid.Must(uuid.NewV7()),
		SecretID:            secretID,
		AccountID:           accountID,
		AppID:               usage.AppID,
		WorkflowExecutionID: usage.WorkflowExecutionID,
		EnvID:               usage.EnvID,
		CreatedAt:           time.Now().UTC(),
	}
	if err := a.usageLogRepo.Create(ctx, entry); err != nil {
		return apperrors.Wrap(err, "failed to record usage log")
	}
	return nil
}

func (a *auditUseCase) GetChangeLogs(
	ctx context.Context,
	accountID string,
	secretID uuid.UUID,
) ([]*auditDomain.ChangeLog, error) {
	entries, err := a.changeLogRepo.ListBySecret(ctx, accountID, secretID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list change logs")
	}
	return entries, nil
}

func (a *auditUseCase) GetUsageLogs(
	ctx context.Context,
	accountID string,
	secretID uuid.UUID,
	offset, limit int,
) ([]*auditDomain.UsageLog, error) {
	if limit <= 0 {
		limit = defaultUsageLogLimit
	}
	entries, err := a.usageLogRepo.ListBySecret(ctx, accountID, secretID, max(offset, 0), limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list usage logs")
	}
	return entries, nil
}

func (a *auditUseCase) DeleteUsageLogsOlderThan(ctx context.Context, days int, dryRun bool) (int64, error) {
	if days < 0 {
		return 0, apperrors.Wrapf(apperrors.ErrInvalidInput, "days must not be negative, got %d", days)
	}

	olderThan := time.Now().UTC().AddDate(0, 0, -days)
	count, err := a.usageLogRepo.DeleteOlderThan(ctx, olderThan, dryRun)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete usage logs")
	}
	return count, nil
}

// NewAuditUseCase creates the audit use case.
func NewAuditUseCase(changeLogRepo ChangeLogRepository, usageLogRepo UsageLogRepository) AuditUseCase {
	return &auditUseCase{
		changeLogRepo: changeLogRepo,
		usageLogRepo:  usageLogRepo,
	}
}
