package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"calai/internal/port"
)

// MockWebSearcher is a mock implementation of port.WebSearcher.
type MockWebSearcher struct {
	mock.Mock
}

func (m *MockWebSearcher) Search(ctx context.Context, query port.SearchQuery) (*port.SearchResult, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.SearchResult), args.Error(1)
}
