package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"calai/internal/domain"
)

// MockChatHistoryRepo is a mock implementation of port.ChatHistoryRepository.
type MockChatHistoryRepo struct {
	mock.Mock
}

func (m *MockChatHistoryRepo) Append(ctx context.Context, sessionID string, turn domain.ChatTurn) error {
	args := m.Called(ctx, sessionID, turn)
	return args.Error(0)
}

func (m *MockChatHistoryRepo) Recent(ctx context.Context, sessionID string, limit int) ([]domain.ChatTurn, error) {
	args := m.Called(ctx, sessionID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ChatTurn), args.Error(1)
}
