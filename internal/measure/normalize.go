package measure

import (
	"math"

	"calai/internal/domain"
)

// Normalize rescales a decomposition whose ingredient percentages do
// not sum to 100 within tolerance, then recomputes component volumes
// from the corrected percentages. A zero percentage sum cannot be
// rescaled and returns domain.ErrZeroPercentageSum.
func Normalize(d *domain.Decomposition, tolerance float64) error {
	sum := 0.0
	for _, c := range d.IngredientVolumes {
		sum += c.Percentage
	}

	if math.Abs(sum-100) <= tolerance {
		return nil
	}
	if sum == 0 {
		return domain.ErrZeroPercentageSum
	}

	factor := 100 / sum
	for i := range d.IngredientVolumes {
		c := &d.IngredientVolumes[i]
		c.Percentage *= factor
		c.VolumeLitres = ComponentVolume(c.Percentage, d.TotalVolumeLitres)
	}
	return nil
}
