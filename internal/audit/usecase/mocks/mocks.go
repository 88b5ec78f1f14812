// Package mocks provides testify mocks for the audit use case and repositories.
package mocks

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	auditDomain "github.com/allisson/secretstore/internal/audit/domain"
	auditUseCase "github.com/allisson/secretstore/internal/audit/usecase"
)

// MockChangeLogRepository is a mock ChangeLogRepository.
type MockChangeLogRepository struct {
	mock.Mock
}

// NewMockChangeLogRepository creates a mock that asserts its expectations on cleanup.
func NewMockChangeLogRepository(t *testing.T) *MockChangeLogRepository {
	m := &MockChangeLogRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockChangeLogRepository) Create(ctx context.Context, entry *auditDomain.ChangeLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockChangeLogRepository) ListBySecret(
	ctx context.Context,
	accountID string,
	secretID uuid.UUID,
) ([]*auditDomain.ChangeLog, error) {
	args := m.Called(ctx, accountID, secretID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*auditDomain.ChangeLog), args.Error(1)
}

// MockUsageLogRepository is a mock UsageLogRepository.
type MockUsageLogRepository struct {
	mock.Mock
}

// NewMockUsageLogRepository creates a mock that asserts its expectations on cleanup.
func NewMockUsageLogRepository(t *testing.T) *MockUsageLogRepository {
	m := &MockUsageLogRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockUsageLogRepository) Create(ctx context.Context, entry *auditDomain.UsageLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockUsageLogRepository) ListBySecret(
	ctx context.Context,
	accountID string,
	secretID uuid.UUID,
	offset, limit int,
) ([]*auditDomain.UsageLog, error) {
	args := m.Called(ctx, accountID, secretID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*auditDomain.UsageLog), args.Error(1)
}

func (m *MockUsageLogRepository) DeleteOlderThan(ctx context.Context, olderThan time.Time, dryRun bool) (int64, error) {
	args := m.Called(ctx, olderThan, dryRun)
	return args.Get(0).(int64), args.Error(1)
}

// MockAuditUseCase is a mock AuditUseCase.
type MockAuditUseCase struct {
	mock.Mock
}

// NewMockAuditUseCase creates a mock that asserts its expectations on cleanup.
func NewMockAuditUseCase(t *testing.T) *MockAuditUseCase {
	m := &MockAuditUseCase{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockAuditUseCase) RecordChange(
	ctx context.Context,
	secretID uuid.UUID,
	accountID string,
	user auditDomain.User,
	description auditDomain.Description,
) error {
	args := m.Called(ctx, secretID, accountID, user, description)
	return args.Error(0)
}

func (m *MockAuditUseCase) RecordUsage(
	ctx context.Context,
	secretID uuid.UUID,
	accountID string,
	usage auditUseCase.UsageContext,
) error {
	args := m.Called(ctx, secretID, accountID, usage)
	return args.Error(0)
}

func (m *MockAuditUseCase) GetChangeLogs(
	ctx context.Context,
	accountID string,
	secretID uuid.UUID,
) ([]*auditDomain.ChangeLog, error) {
	args := m.Called(ctx, accountID, secretID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*auditDomain.ChangeLog), args.Error(1)
}

func (m *MockAuditUseCase) GetUsageLogs(
	ctx context.Context,
	accountID string,
	secretID uuid.UUID,
	offset, limit int,
) ([]*auditDomain.UsageLog, error) {
	args := m.Called(ctx, accountID, secretID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*auditDomain.UsageLog), args.Error(1)
}

func (m *MockAuditUseCase) DeleteUsageLogsOlderThan(ctx context.Context, days int, dryRun bool) (int64, error) {
	args := m.Called(ctx, days, dryRun)
	return args.Get(0).(int64), args.Error(1)
}

var (
	_ auditUseCase.ChangeLogRepository = (*MockChangeLogRepository)(nil)
	_ auditUseCase.UsageLogRepository  = (*MockUsageLogRepository)(nil)
	_ auditUseCase.AuditUseCase        = (*MockAuditUseCase)(nil)
)
