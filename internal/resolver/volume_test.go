package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"calai/internal/domain"
)

func testPolicy() ReviewPolicy {
	return ReviewPolicy{MinConfidence: 0.7, MaxDeviation: 0.5}
}

func TestReviewPolicyAcceptsConfidentSuggestion(t *testing.T) {
	volume, accepted := testPolicy().Apply(domain.VerifiedVolume{
		OriginalVolumeLitres:  0.2,
		SuggestedVolumeLitres: 0.25,
		Confidence:            0.9,
		AdjustmentMade:        true,
	})

	assert.True(t, accepted)
	assert.Equal(t, 0.25, volume)
}

func TestReviewPolicyRejects(t *testing.T) {
	tests := []struct {
		name string
		v    domain.VerifiedVolume
	}{
		{
			"no adjustment made",
			domain.VerifiedVolume{OriginalVolumeLitres: 0.2, SuggestedVolumeLitres: 0.25, Confidence: 0.9},
		},
		{
			"non-positive suggestion",
			domain.VerifiedVolume{OriginalVolumeLitres: 0.2, SuggestedVolumeLitres: 0, Confidence: 0.9, AdjustmentMade: true},
		},
		{
			"confidence at threshold",
			domain.VerifiedVolume{OriginalVolumeLitres: 0.2, SuggestedVolumeLitres: 0.25, Confidence: 0.7, AdjustmentMade: true},
		},
		{
			"deviation too large",
			domain.VerifiedVolume{OriginalVolumeLitres: 0.2, SuggestedVolumeLitres: 0.5, Confidence: 0.9, AdjustmentMade: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			volume, accepted := testPolicy().Apply(tt.v)
			assert.False(t, accepted)
			assert.Equal(t, tt.v.OriginalVolumeLitres, volume)
		})
	}
}

func TestReviewPolicyZeroOriginal(t *testing.T) {
	// With no original measurement the deviation gate cannot apply.
	volume, accepted := testPolicy().Apply(domain.VerifiedVolume{
		OriginalVolumeLitres:  0,
		SuggestedVolumeLitres: 0.1,
		Confidence:            0.95,
		AdjustmentMade:        true,
	})

	assert.True(t, accepted)
	assert.Equal(t, 0.1, volume)
}
