package port

import (
	"context"

	"calai/internal/domain"
)

// VolumeEstimate is the segmentation service's output for one image.
type VolumeEstimate struct {
	Segments     []domain.FoodSegment
	MetadataPath string
}

// VolumeEstimator abstracts the image segmentation and volume
// estimation service.
type VolumeEstimator interface {
	Estimate(ctx context.Context, imagePath string) (*VolumeEstimate, error)
}
