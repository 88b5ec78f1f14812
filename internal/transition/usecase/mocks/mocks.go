// Package mocks provides testify mocks for the transition use case interfaces.
package mocks

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	transitionDomain "github.com/allisson/secretstore/internal/transition/domain"
	transitionUseCase "github.com/allisson/secretstore/internal/transition/usecase"
)

// MockTransitionRepository is a mock TransitionRepository.
type MockTransitionRepository struct {
	mock.Mock
}

// NewMockTransitionRepository creates a mock that asserts its expectations on cleanup.
func NewMockTransitionRepository(t *testing.T) *MockTransitionRepository {
	m := &MockTransitionRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockTransitionRepository) Create(ctx context.Context, transition *transitionDomain.Transition) error {
	args := m.Called(ctx, transition)
	return args.Error(0)
}

func (m *MockTransitionRepository) Get(ctx context.Context, id uuid.UUID) (*transitionDomain.Transition, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transitionDomain.Transition), args.Error(1)
}

func (m *MockTransitionRepository) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status transitionDomain.Status,
) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockTransitionRepository) CreateUnits(ctx context.Context, units []*transitionDomain.MigrationUnit) error {
	args := m.Called(ctx, units)
	return args.Error(0)
}

func (m *MockTransitionRepository) ClaimPendingUnits(
	ctx context.Context,
	limit int,
) ([]*transitionDomain.MigrationUnit, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*transitionDomain.MigrationUnit), args.Error(1)
}

func (m *MockTransitionRepository) UpdateUnit(ctx context.Context, unit *transitionDomain.MigrationUnit) error {
	args := m.Called(ctx, unit)
	return args.Error(0)
}

func (m *MockTransitionRepository) CountByKmsID(ctx context.Context, kmsID uuid.UUID) (int64, error) {
	args := m.Called(ctx, kmsID)
	return args.Get(0).(int64), args.Error(1)
}

// MockTransitionUseCase is a mock TransitionUseCase.
type MockTransitionUseCase struct {
	mock.Mock
}

// NewMockTransitionUseCase creates a mock that asserts its expectations on cleanup.
func NewMockTransitionUseCase(t *testing.T) *MockTransitionUseCase {
	m := &MockTransitionUseCase{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockTransitionUseCase) Start(
	ctx context.Context,
	input transitionUseCase.StartInput,
) (*transitionDomain.Transition, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transitionDomain.Transition), args.Error(1)
}

func (m *MockTransitionUseCase) Get(
	ctx context.Context,
	accountID string,
	id uuid.UUID,
) (*transitionDomain.Transition, error) {
	args := m.Called(ctx, accountID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transitionDomain.Transition), args.Error(1)
}

var (
	_ transitionUseCase.TransitionRepository = (*MockTransitionRepository)(nil)
	_ transitionUseCase.TransitionUseCase    = (*MockTransitionUseCase)(nil)
)
