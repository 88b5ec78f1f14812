// Package mocks provides testify mocks for the secret manager.
package mocks

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	auditDomain "github.com/allisson/secretstore/internal/audit/domain"
	managerDomain "github.com/allisson/secretstore/internal/manager/domain"
	managerUseCase "github.com/allisson/secretstore/internal/manager/usecase"
	secretsDomain "github.com/allisson/secretstore/internal/secrets/domain"
	transitionDomain "github.com/allisson/secretstore/internal/transition/domain"
)

// MockSecretManager is a mock SecretManager.
type MockSecretManager struct {
	mock.Mock
}

var _ managerUseCase.SecretManager = (*MockSecretManager)(nil)

// NewMockSecretManager creates a mock that asserts its expectations on cleanup.
func NewMockSecretManager(t *testing.T) *MockSecretManager {
	m := &MockSecretManager{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockSecretManager) EncryptFields(
	ctx context.Context,
	exec managerDomain.ExecutionContext, e managerDomain.Encryptable,
) error {
	args := m.Called(ctx, exec, e)
	return args.Error(0)
}

func (m *MockSecretManager) DecryptFields(
	ctx context.Context,
	exec managerDomain.ExecutionContext, e managerDomain.Encryptable,
) error {
	args := m.Called(ctx, exec, e)
	return args.Error(0)
}

func (m *MockSecretManager) GetEncryptionDetails(
	ctx context.Context,
	exec managerDomain.ExecutionContext, e managerDomain.Encryptable,
) ([]*managerDomain.EncryptionDetail, error) {
	args := m.Called(ctx, exec, e)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*managerDomain.EncryptionDetail), args.Error(1)
}

func (m *MockSecretManager) SaveSecret(
	ctx context.Context,
	exec managerDomain.ExecutionContext, input managerUseCase.SaveSecretInput,
) (*secretsDomain.EncryptedSecret, error) {
	args := m.Called(ctx, exec, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*secretsDomain.EncryptedSecret), args.Error(1)
}

func (m *MockSecretManager) SaveFile(
	ctx context.Context,
	exec managerDomain.ExecutionContext, input managerUseCase.SaveFileInput,
) (*secretsDomain.EncryptedSecret, error) {
	args := m.Called(ctx, exec, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*secretsDomain.EncryptedSecret), args.Error(1)
}

func (m *MockSecretManager) UpdateFile(
	ctx context.Context,
	exec managerDomain.ExecutionContext, input managerUseCase.UpdateFileInput,
) (*secretsDomain.EncryptedSecret, error) {
	args := m.Called(ctx, exec, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*secretsDomain.EncryptedSecret), args.Error(1)
}

func (m *MockSecretManager) TransitionSecrets(
	ctx context.Context,
	exec managerDomain.ExecutionContext, from, to secretsDomain.Target,
) (*transitionDomain.Transition, error) {
	args := m.Called(ctx, exec, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transitionDomain.Transition), args.Error(1)
}

func (m *MockSecretManager) GetTransition(
	ctx context.Context,
	exec managerDomain.ExecutionContext, id uuid.UUID,
) (*transitionDomain.Transition, error) {
	args := m.Called(ctx, exec, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transitionDomain.Transition), args.Error(1)
}

func (m *MockSecretManager) ListEncryptedValues(
	ctx context.Context,
	exec managerDomain.ExecutionContext, offset, limit int,
) ([]*managerDomain.EncryptedValue, error) {
	args := m.Called(ctx, exec, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*managerDomain.EncryptedValue), args.Error(1)
}

func (m *MockSecretManager) GetChangeLogs(
	ctx context.Context,
	exec managerDomain.ExecutionContext, secretID uuid.UUID,
) ([]*auditDomain.ChangeLog, error) {
	args := m.Called(ctx, exec, secretID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*auditDomain.ChangeLog), args.Error(1)
}

func (m *MockSecretManager) GetUsageLogs(
	ctx context.Context,
	exec managerDomain.ExecutionContext, secretID uuid.UUID, offset, limit int,
) ([]*auditDomain.UsageLog, error) {
	args := m.Called(ctx, exec, secretID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*auditDomain.UsageLog), args.Error(1)
}

func (m *MockSecretManager) DetachFields(
	ctx context.Context,
	exec managerDomain.ExecutionContext,
	e managerDomain.Encryptable,
	names ...string,
) error {
	args := m.Called(ctx, exec, e, names)
	return args.Error(0)
}

func (m *MockSecretManager) DeleteSecret(
	ctx context.Context,
	exec managerDomain.ExecutionContext,
	ownerID string,
	id uuid.UUID,
) (bool, error) {
	args := m.Called(ctx, exec, ownerID, id)
	return args.Bool(0), args.Error(1)
}
