package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockAnswerSource is a mock implementation of port.AnswerSource.
type MockAnswerSource struct {
	mock.Mock
}

func (m *MockAnswerSource) Ask(ctx context.Context, question string) (string, error) {
	args := m.Called(ctx, question)
	return args.String(0), args.Error(1)
}
