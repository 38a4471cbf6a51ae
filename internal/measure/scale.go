package measure

import (
	"math"

	"calai/internal/domain"
)

// MassFromVolume converts a volume in litres and a density in kg/L to
// a mass in grams.
func MassFromVolume(volumeLitres, densityKgPerL float64) float64 {
	return volumeLitres * densityKgPerL * 1000
}

// ComponentVolume returns the share of a total volume covered by a
// percentage.
func ComponentVolume(percentage, totalVolumeLitres float64) float64 {
	return percentage / 100 * totalVolumeLitres
}

// ScaleServing scales per-serving nutrition facts to an actual mass.
// It returns all-zero facts and false when the source has no data or a
// non-positive serving size, so a zero result is never produced by a
// division against a bad divisor. The result is not rounded: a mass
// equal to the serving size returns the source values exactly, and
// rounding is left to the meal summary.
func ScaleServing(src *domain.ServingNutrition, totalMassGrams float64) (domain.NutritionFacts, bool) {
	if src == nil || !src.Found || src.ServingSizeGrams <= 0 {
		return domain.NutritionFacts{}, false
	}
	factor := totalMassGrams / src.ServingSizeGrams
	return domain.NutritionFacts{
		CaloriesKcal:   src.CaloriesKcal * factor,
		ProteinG:       src.ProteinG * factor,
		FatG:           src.FatG * factor,
		CarbohydratesG: src.CarbohydratesG * factor,
	}, true
}

// SumMeal computes element-wise totals across all segments of a meal.
func SumMeal(segments []domain.SegmentNutrition) domain.MealSummary {
	var s domain.MealSummary
	for _, seg := range segments {
		s.CaloriesKcal += seg.Nutrition.CaloriesKcal
		s.ProteinG += seg.Nutrition.ProteinG
		s.FatG += seg.Nutrition.FatG
		s.CarbohydratesG += seg.Nutrition.CarbohydratesG
		s.TotalMassGrams += seg.TotalMassGrams
		s.SegmentCount++
		if seg.DataMissing {
			s.MissingSegments++
		}
	}
	s.CaloriesKcal = Round1(s.CaloriesKcal)
	s.ProteinG = Round1(s.ProteinG)
	s.FatG = Round1(s.FatG)
	s.CarbohydratesG = Round1(s.CarbohydratesG)
	s.TotalMassGrams = Round1(s.TotalMassGrams)
	return s
}

// Round1 rounds to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
