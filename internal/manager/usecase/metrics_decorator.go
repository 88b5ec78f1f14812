package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/secretstore/internal/audit/domain"
	managerDomain "github.com/allisson/secretstore/internal/manager/domain"
	"github.com/allisson/secretstore/internal/metrics"
	secretsDomain "github.com/allisson/secretstore/internal/secrets/domain"
	transitionDomain "github.com/allisson/secretstore/internal/transition/domain"
)

// secretManagerWithMetrics decorates SecretManager with metrics instrumentation.
type secretManagerWithMetrics struct {
	next    SecretManager
	metrics metrics.BusinessMetrics
}

// NewSecretManagerWithMetrics wraps a SecretManager with metrics recording.
func NewSecretManagerWithMetrics(manager SecretManager, m metrics.BusinessMetrics) SecretManager {
	return &secretManagerWithMetrics{
		next:    manager,
		metrics: m,
	}
}

func (s *secretManagerWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "manager", operation, status)
	s.metrics.RecordDuration(ctx, "manager", operation, time.Since(start), status)
}

func (s *secretManagerWithMetrics) EncryptFields(
	ctx context.Context,
	exec managerDomain.ExecutionContext, e managerDomain.Encryptable,
) error {
	start := time.Now()
	err := s.next.EncryptFields(ctx, exec, e)
	s.record(ctx, "encrypt_fields", start, err)
	return err
}

func (s *secretManagerWithMetrics) DecryptFields(
	ctx context.Context,
	exec managerDomain.ExecutionContext, e managerDomain.Encryptable,
) error {
	start := time.Now()
	err := s.next.DecryptFields(ctx, exec, e)
	s.record(ctx, "decrypt_fields", start, err)
	return err
}

func (s *secretManagerWithMetrics) DetachFields(
	ctx context.Context,
	exec managerDomain.ExecutionContext, e managerDomain.Encryptable, names ...string,
) error {
	start := time.Now()
	err := s.next.DetachFields(ctx, exec, e, names...)
	s.record(ctx, "detach_fields", start, err)
	return err
}

func (s *secretManagerWithMetrics) GetEncryptionDetails(
	ctx context.Context,
	exec managerDomain.ExecutionContext, e managerDomain.Encryptable,
) ([]*managerDomain.EncryptionDetail, error) {
	start := time.Now()
	details, err := s.next.GetEncryptionDetails(ctx, exec, e)
	s.record(ctx, "encryption_details", start, err)
	return details, err
}

func (s *secretManagerWithMetrics) SaveSecret(
	ctx context.Context,
	exec managerDomain.ExecutionContext, input SaveSecretInput,
) (*secretsDomain.EncryptedSecret, error) {
	start := time.Now()
	secret, err := s.next.SaveSecret(ctx, exec, input)
	s.record(ctx, "secret_save", start, err)
	return secret, err
}

func (s *secretManagerWithMetrics) SaveFile(
	ctx context.Context,
	exec managerDomain.ExecutionContext, input SaveFileInput,
) (*secretsDomain.EncryptedSecret, error) {
	start := time.Now()
	secret, err := s.next.SaveFile(ctx, exec, input)
	s.record(ctx, "file_save", start, err)
	return secret, err
}

func (s *secretManagerWithMetrics) UpdateFile(
	ctx context.Context,
	exec managerDomain.ExecutionContext, input UpdateFileInput,
) (*secretsDomain.EncryptedSecret, error) {
	start := time.Now()
	secret, err := s.next.UpdateFile(ctx, exec, input)
	s.record(ctx, "file_update", start, err)
	return secret, err
}

func (s *secretManagerWithMetrics) DeleteSecret(
	ctx context.Context,
	exec managerDomain.ExecutionContext, ownerID string, id uuid.UUID,
) (bool, error) {
	start := time.Now()
	deleted, err := s.next.DeleteSecret(ctx, exec, ownerID, id)
	s.record(ctx, "secret_delete", start, err)
	return deleted, err
}

func (s *secretManagerWithMetrics) TransitionSecrets(
	ctx context.Context,
	exec managerDomain.ExecutionContext, from, to secretsDomain.Target,
) (*transitionDomain.Transition, error) {
	start := time.Now()
	transition, err := s.next.TransitionSecrets(ctx, exec, from, to)
	s.record(ctx, "transition_start", start, err)
	return transition, err
}

func (s *secretManagerWithMetrics) GetTransition(
	ctx context.Context,
	exec managerDomain.ExecutionContext, id uuid.UUID,
) (*transitionDomain.Transition, error) {
	start := time.Now()
	transition, err := s.next.GetTransition(ctx, exec, id)
	s.record(ctx, "transition_get", start, err)
	return transition, err
}

func (s *secretManagerWithMetrics) ListEncryptedValues(
	ctx context.Context,
	exec managerDomain.ExecutionContext, offset, limit int,
) ([]*managerDomain.EncryptedValue, error) {
	start := time.Now()
	values, err := s.next.ListEncryptedValues(ctx, exec, offset, limit)
	s.record(ctx, "secret_list", start, err)
	return values, err
}

func (s *secretManagerWithMetrics) GetChangeLogs(
	ctx context.Context,
	exec managerDomain.ExecutionContext, secretID uuid.UUID,
) ([]*auditDomain.ChangeLog, error) {
	start := time.Now()
	logs, err := s.next.GetChangeLogs(ctx, exec, secretID)
	s.record(ctx, "change_logs_get", start, err)
	return logs, err
}

func (s *secretManagerWithMetrics) GetUsageLogs(
	ctx context.Context,
	exec managerDomain.ExecutionContext, secretID uuid.UUID, offset, limit int,
) ([]*auditDomain.UsageLog, error) {
	start := time.Now()
	logs, err := s.next.GetUsageLogs(ctx, exec, secretID, offset, limit)
	s.record(ctx, "usage_logs_get", start, err)
	return logs, err
}
