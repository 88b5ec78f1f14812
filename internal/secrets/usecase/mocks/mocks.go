// Package mocks provides testify mocks for the secret store.
package mocks

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	auditUseCase "github.com/allisson/secretstore/internal/audit/usecase"
	secretsDomain "github.com/allisson/secretstore/internal/secrets/domain"
	secretsUseCase "github.com/allisson/secretstore/internal/secrets/usecase"
)

// MockSecretRepository is a mock SecretRepository.
type MockSecretRepository struct {
	mock.Mock
}

// NewMockSecretRepository creates a mock that asserts its expectations on cleanup.
func NewMockSecretRepository(t *testing.T) *MockSecretRepository {
	m := &MockSecretRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockSecretRepository) Create(ctx context.Context, secret *secretsDomain.EncryptedSecret) error {
	args := m.Called(ctx, secret)
	return args.Error(0)
}

func (m *MockSecretRepository) Get(ctx context.Context, id uuid.UUID) (*secretsDomain.EncryptedSecret, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*secretsDomain.EncryptedSecret), args.Error(1)
}

func (m *MockSecretRepository) GetForUpdate(
	ctx context.Context,
	id uuid.UUID,
) (*secretsDomain.EncryptedSecret, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*secretsDomain.EncryptedSecret), args.Error(1)
}

func (m *MockSecretRepository) UpdateEncryption(ctx context.Context, secret *secretsDomain.EncryptedSecret) error {
	args := m.Called(ctx, secret)
	return args.Error(0)
}

func (m *MockSecretRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSecretRepository) AddParent(ctx context.Context, id uuid.UUID, parentID string) error {
	args := m.Called(ctx, id, parentID)
	return args.Error(0)
}

func (m *MockSecretRepository) RemoveParent(ctx context.Context, id uuid.UUID, parentID string) error {
	args := m.Called(ctx, id, parentID)
	return args.Error(0)
}

func (m *MockSecretRepository) List(
	ctx context.Context,
	accountID string,
	offset, limit int,
) ([]*secretsDomain.EncryptedSecret, error) {
	args := m.Called(ctx, accountID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*secretsDomain.EncryptedSecret), args.Error(1)
}

func (m *MockSecretRepository) ListIDsByTarget(
	ctx context.Context,
	accountID string,
	target secretsDomain.Target,
) ([]uuid.UUID, error) {
	args := m.Called(ctx, accountID, target)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockSecretRepository) CountByKmsID(ctx context.Context, kmsID uuid.UUID) (int64, error) {
	args := m.Called(ctx, kmsID)
	return args.Get(0).(int64), args.Error(1)
}

// MockSecretUseCase is a mock SecretUseCase.
type MockSecretUseCase struct {
	mock.Mock
}

// NewMockSecretUseCase creates a mock that asserts its expectations on cleanup.
func NewMockSecretUseCase(t *testing.T) *MockSecretUseCase {
	m := &MockSecretUseCase{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockSecretUseCase) Put(
	ctx context.Context,
	input secretsUseCase.PutInput,
) (*secretsDomain.EncryptedSecret, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*secretsDomain.EncryptedSecret), args.Error(1)
}

func (m *MockSecretUseCase) Resolve(
	ctx context.Context,
	accountID string,
	id uuid.UUID,
	usage auditUseCase.UsageContext,
) ([]byte, error) {
	args := m.Called(ctx, accountID, id, usage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockSecretUseCase) Detach(ctx context.Context, accountID, ownerID string, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, accountID, ownerID, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockSecretUseCase) Update(
	ctx context.Context,
	input secretsUseCase.UpdateInput,
) (*secretsDomain.EncryptedSecret, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*secretsDomain.EncryptedSecret), args.Error(1)
}

func (m *MockSecretUseCase) UpdateInPlace(
	ctx context.Context,
	input secretsUseCase.UpdateInPlaceInput,
) (*secretsDomain.EncryptedSecret, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*secretsDomain.EncryptedSecret), args.Error(1)
}

func (m *MockSecretUseCase) Get(
	ctx context.Context,
	accountID string,
	id uuid.UUID,
) (*secretsDomain.EncryptedSecret, error) {
	args := m.Called(ctx, accountID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*secretsDomain.EncryptedSecret), args.Error(1)
}

func (m *MockSecretUseCase) List(
	ctx context.Context,
	accountID string,
	offset, limit int,
) ([]*secretsDomain.EncryptedSecret, error) {
	args := m.Called(ctx, accountID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*secretsDomain.EncryptedSecret), args.Error(1)
}

func (m *MockSecretUseCase) ActiveTarget(ctx context.Context, accountID string) (secretsDomain.Target, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(secretsDomain.Target), args.Error(1)
}

func (m *MockSecretUseCase) Migrate(
	ctx context.Context,
	accountID string,
	id uuid.UUID,
	from, to secretsDomain.Target,
) (bool, error) {
	args := m.Called(ctx, accountID, id, from, to)
	return args.Bool(0), args.Error(1)
}

var (
	_ secretsUseCase.SecretRepository = (*MockSecretRepository)(nil)
	_ secretsUseCase.SecretUseCase    = (*MockSecretUseCase)(nil)
)
