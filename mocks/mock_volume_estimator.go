package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"calai/internal/port"
)

// MockVolumeEstimator is a mock implementation of port.VolumeEstimator.
type MockVolumeEstimator struct {
	mock.Mock
}

func (m *MockVolumeEstimator) Estimate(ctx context.Context, imagePath string) (*port.VolumeEstimate, error) {
	args := m.Called(ctx, imagePath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.VolumeEstimate), args.Error(1)
}
