// Package mocks provides test doubles for the KMS config use case.
package mocks

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	cryptoDomain "github.com/allisson/secretstore/internal/crypto/domain"
	kmsconfigDomain "github.com/allisson/secretstore/internal/kmsconfig/domain"
	kmsconfigUseCase "github.com/allisson/secretstore/internal/kmsconfig/usecase"
)

// MockKmsConfigRepository is a mock KmsConfigRepository.
type MockKmsConfigRepository struct {
	mock.Mock
}

// NewMockKmsConfigRepository creates a mock that asserts its expectations on cleanup.
func NewMockKmsConfigRepository(t *testing.T) *MockKmsConfigRepository {
	m := &MockKmsConfigRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockKmsConfigRepository) Create(ctx context.Context, cfg *kmsconfigDomain.KmsConfig) error {
	return m.Called(ctx, cfg).Error(0)
}

func (m *MockKmsConfigRepository) Update(ctx context.Context, cfg *kmsconfigDomain.KmsConfig) error {
	return m.Called(ctx, cfg).Error(0)
}

func (m *MockKmsConfigRepository) Get(ctx context.Context, id uuid.UUID) (*kmsconfigDomain.KmsConfig, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*kmsconfigDomain.KmsConfig), args.Error(1)
}

func (m *MockKmsConfigRepository) GetDefault(
	ctx context.Context,
	accountID string,
) (*kmsconfigDomain.KmsConfig, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*kmsconfigDomain.KmsConfig), args.Error(1)
}

func (m *MockKmsConfigRepository) ListByAccount(
	ctx context.Context,
	accountID string,
) ([]*kmsconfigDomain.KmsConfig, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*kmsconfigDomain.KmsConfig), args.Error(1)
}

func (m *MockKmsConfigRepository) LockAccount(ctx context.Context, accountID string) error {
	return m.Called(ctx, accountID).Error(0)
}

func (m *MockKmsConfigRepository) ClearDefault(ctx context.Context, accountID string) error {
	return m.Called(ctx, accountID).Error(0)
}

func (m *MockKmsConfigRepository) SetDefault(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockKmsConfigRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// MockUsageCounter is a mock UsageCounter.
type MockUsageCounter struct {
	mock.Mock
}

// NewMockUsageCounter creates a mock that asserts its expectations on cleanup.
func NewMockUsageCounter(t *testing.T) *MockUsageCounter {
	m := &MockUsageCounter{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockUsageCounter) CountByKmsID(ctx context.Context, kmsID uuid.UUID) (int64, error) {
	args := m.Called(ctx, kmsID)
	return args.Get(0).(int64), args.Error(1)
}

// MockKmsConfigUseCase is a mock KmsConfigUseCase for consumers of the registry.
type MockKmsConfigUseCase struct {
	mock.Mock
}

// NewMockKmsConfigUseCase creates a mock that asserts its expectations on cleanup.
func NewMockKmsConfigUseCase(t *testing.T) *MockKmsConfigUseCase {
	m := &MockKmsConfigUseCase{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockKmsConfigUseCase) Get(ctx context.Context, accountID string) (*kmsconfigDomain.KmsConfig, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*kmsconfigDomain.KmsConfig), args.Error(1)
}

func (m *MockKmsConfigUseCase) GetByID(
	ctx context.Context,
	accountID string,
	id uuid.UUID,
) (*kmsconfigDomain.KmsConfig, error) {
	args := m.Called(ctx, accountID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*kmsconfigDomain.KmsConfig), args.Error(1)
}

func (m *MockKmsConfigUseCase) Credentials(
	ctx context.Context,
	cfg *kmsconfigDomain.KmsConfig,
) (*cryptoDomain.Credentials, error) {
	args := m.Called(ctx, cfg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cryptoDomain.Credentials), args.Error(1)
}

func (m *MockKmsConfigUseCase) Save(
	ctx context.Context,
	input kmsconfigUseCase.SaveInput,
) (*kmsconfigDomain.KmsConfigView, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*kmsconfigDomain.KmsConfigView), args.Error(1)
}

func (m *MockKmsConfigUseCase) List(
	ctx context.Context,
	accountID string,
	includeGlobal bool,
) ([]*kmsconfigDomain.KmsConfigView, error) {
	args := m.Called(ctx, accountID, includeGlobal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*kmsconfigDomain.KmsConfigView), args.Error(1)
}

func (m *MockKmsConfigUseCase) Delete(ctx context.Context, accountID string, id uuid.UUID) error {
	args := m.Called(ctx, accountID, id)
	return args.Error(0)
}

var (
	_ kmsconfigUseCase.KmsConfigRepository = (*MockKmsConfigRepository)(nil)
	_ kmsconfigUseCase.UsageCounter        = (*MockUsageCounter)(nil)
	_ kmsconfigUseCase.KmsConfigUseCase    = (*MockKmsConfigUseCase)(nil)
)
