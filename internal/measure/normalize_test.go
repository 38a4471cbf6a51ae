package measure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calai/internal/domain"
)

func TestNormalizeRescales(t *testing.T) {
	d := &domain.Decomposition{
		TotalVolumeLitres: 0.2,
		IngredientVolumes: []domain.IngredientComponent{
			{IngredientName: "rice", Percentage: 45},
			{IngredientName: "lentils", Percentage: 65},
		},
	}

	require.NoError(t, Normalize(d, 1.0))

	assert.InDelta(t, 40.9, d.IngredientVolumes[0].Percentage, 0.05)
	assert.InDelta(t, 59.1, d.IngredientVolumes[1].Percentage, 0.05)
	assert.InDelta(t, 100.0, d.IngredientVolumes[0].Percentage+d.IngredientVolumes[1].Percentage, 1e-9)

	// Volumes recomputed from the corrected percentages.
	assert.InDelta(t, 0.0818, d.IngredientVolumes[0].VolumeLitres, 0.0005)
	assert.InDelta(t, 0.1182, d.IngredientVolumes[1].VolumeLitres, 0.0005)
}

func TestNormalizeWithinTolerance(t *testing.T) {
	d := &domain.Decomposition{
		TotalVolumeLitres: 0.1,
		IngredientVolumes: []domain.IngredientComponent{
			{IngredientName: "soup", Percentage: 100.5, VolumeLitres: 0.1},
		},
	}

	require.NoError(t, Normalize(d, 1.0))

	// Untouched: the sum is inside the tolerance band.
	assert.Equal(t, 100.5, d.IngredientVolumes[0].Percentage)
	assert.Equal(t, 0.1, d.IngredientVolumes[0].VolumeLitres)
}

func TestNormalizeZeroSum(t *testing.T) {
	d := &domain.Decomposition{
		TotalVolumeLitres: 0.1,
		IngredientVolumes: []domain.IngredientComponent{
			{IngredientName: "a", Percentage: 0},
			{IngredientName: "b", Percentage: 0},
		},
	}

	err := Normalize(d, 1.0)
	assert.ErrorIs(t, err, domain.ErrZeroPercentageSum)
}
