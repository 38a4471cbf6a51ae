package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"calai/internal/domain"
)

// MockPhotoRepo is a mock implementation of port.PhotoRepository.
type MockPhotoRepo struct {
	mock.Mock
}

func (m *MockPhotoRepo) Save(ctx context.Context, meta *domain.PhotoMeta) error {
	args := m.Called(ctx, meta)
	return args.Error(0)
}

func (m *MockPhotoRepo) GetByID(ctx context.Context, id string) (*domain.PhotoMeta, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PhotoMeta), args.Error(1)
}
