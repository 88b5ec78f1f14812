// Package usecase records and reads the change and usage logs.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/secretstore/internal/audit/domain"
)

// ChangeLogRepository persists change log entries.
type ChangeLogRepository interface {
	Create(ctx context.Context, entry *auditDomain.ChangeLog) error
	// ListBySecret returns entries newest first.
	ListBySecret(ctx context.Context, accountID string, secretID uuid.UUID) ([]*auditDomain.ChangeLog, error)
}

// UsageLogRepository persists usage log entries.
type UsageLogRepository interface {
	Create(ctx context.Context, entry *auditDomain.UsageLog) error
	// ListBySecret returns entries newest first.
	ListBySecret(
		ctx context.Context,
		accountID string,
		secretID uuid.UUID,
		offset, limit int,
	) ([]*auditDomain.UsageLog, error)
	DeleteOlderThan(ctx context.Context, olderThan time.Time, dryRun bool) (int64, error)
}

// UsageContext is the execution context a resolution is attributed to.
type UsageContext struct {
	AppID               string
	WorkflowExecutionID string
	EnvID               string
}

// AuditUseCase appends and reads audit entries. Record calls persist before
// returning; callers run them inside their own transaction.
type AuditUseCase interface {
	RecordChange(
		ctx context.Context,
		secretID uuid.UUID,
		accountID string,
		user auditDomain.User,
		description auditDomain.Description,
	) error
	RecordUsage(ctx context.Context, secretID uuid.UUID, accountID string, usage UsageContext) error
	GetChangeLogs(ctx context.Context, accountID string, secretID uuid.UUID) ([]*auditDomain.ChangeLog, error)
	GetUsageLogs(
		ctx context.Context,
		accountID string,
		secretID uuid.UUID,
		offset, limit int,
	) ([]*auditDomain.UsageLog, error)
	// DeleteUsageLogsOlderThan removes usage entries older than days. With
	// dryRun it only counts them.
	DeleteUsageLogsOlderThan(ctx context.Context, days int, dryRun bool) (int64, error)
}
