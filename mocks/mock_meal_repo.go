package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"calai/internal/domain"
)

// MockMealRepo is a mock implementation of port.MealRepository.
type MockMealRepo struct {
	mock.Mock
}

func (m *MockMealRepo) Save(ctx context.Context, record *domain.MealRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockMealRepo) GetByID(ctx context.Context, id string) (*domain.MealRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MealRecord), args.Error(1)
}

func (m *MockMealRepo) ListBySession(ctx context.Context, sessionID string, limit int) ([]domain.MealRecord, error) {
	args := m.Called(ctx, sessionID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.MealRecord), args.Error(1)
}

func (m *MockMealRepo) ListAll(ctx context.Context, limit int) ([]domain.MealRecord, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.MealRecord), args.Error(1)
}
