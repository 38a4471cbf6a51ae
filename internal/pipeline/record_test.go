package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calai/internal/resolver"
)

func testPolicy() resolver.ReviewPolicy {
	return resolver.ReviewPolicy{MinConfidence: 0.7, MaxDeviation: 0.5}
}

func TestNormalizeInputVerifiedVolumes(t *testing.T) {
	data := []byte(`{
		"verified_volumes": [
			{
				"segment_id": 1, "food_name": "dal curry",
				"original_volume_litres": 0.2, "suggested_volume_litres": 0.24,
				"confidence": 0.9, "adjustment_made": true,
				"reasoning": "plate depth suggests more"
			},
			{
				"segment_id": 2, "food_name": "rice",
				"original_volume_litres": 0.15, "suggested_volume_litres": 0.4,
				"confidence": 0.9, "adjustment_made": true
			}
		],
		"overall_assessment_confidence": 0.85
	}`)

	items, shape, err := NormalizeInput(data, testPolicy())
	require.NoError(t, err)
	assert.Equal(t, "verified_volumes", shape)
	require.Len(t, items, 2)

	// Accepted: confident and within the deviation bound.
	assert.Equal(t, 0.24, items[0].VolumeLitres)
	assert.True(t, items[0].VolumeAdjusted)
	assert.Equal(t, 0.2, items[0].OriginalVolumeLitres)
	assert.Equal(t, "plate depth suggests more", items[0].VerificationReasoning)

	// Rejected: suggestion deviates too far from the measurement.
	assert.Equal(t, 0.15, items[1].VolumeLitres)
	assert.False(t, items[1].VolumeAdjusted)
}

func TestNormalizeInputConfirmedResults(t *testing.T) {
	data := []byte(`{
		"confirmed_results": [
			{"segment_id": 1, "final_food_name": "paneer curry", "volume_litres": 0.18,
			 "clarifications": {"protein": "paneer, not tofu"}}
		]
	}`)

	items, shape, err := NormalizeInput(data, testPolicy())
	require.NoError(t, err)
	assert.Equal(t, "confirmed_results", shape)
	require.Len(t, items, 1)
	assert.Equal(t, "paneer curry", items[0].FoodName)
	assert.Equal(t, 0.18, items[0].VolumeLitres)
	assert.False(t, items[0].VolumeAdjusted)

	// What the user settled travels with the food into decomposition.
	assert.Equal(t, map[string]string{"protein": "paneer, not tofu"}, items[0].Clarifications)
}

func TestNormalizeInputUnknownShape(t *testing.T) {
	_, _, err := NormalizeInput([]byte(`{"something_else": []}`), testPolicy())
	assert.Error(t, err)
}

func TestNormalizeInputBadJSON(t *testing.T) {
	_, _, err := NormalizeInput([]byte(`not json`), testPolicy())
	assert.Error(t, err)
}
