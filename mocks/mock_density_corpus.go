package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockDensityCorpus is a mock implementation of port.DensityCorpus.
type MockDensityCorpus struct {
	mock.Mock
}

func (m *MockDensityCorpus) Search(ctx context.Context, ingredient string, topK int) ([]string, error) {
	args := m.Called(ctx, ingredient, topK)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
