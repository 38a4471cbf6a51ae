package validator

import (
	"fmt"
	"math"

	"calai/internal/config"
	"calai/internal/domain"
)

// Plausibility holds the tunable bounds used to gate values flowing
// through the pipeline. All bounds come from config, not code.
type Plausibility struct {
	DensityMin          float64
	DensityMax          float64
	PercentageTolerance float64
	MassTolerance       float64
}

// FromConfig builds a Plausibility checker from validation config.
func FromConfig(cfg *config.ValidationConfig) *Plausibility {
	return &Plausibility{
		DensityMin:          cfg.DensityMin,
		DensityMax:          cfg.DensityMax,
		PercentageTolerance: cfg.PercentageTolerance,
		MassTolerance:       cfg.MassTolerance,
	}
}

// ValidDensity reports whether a density in kg/L is physically
// plausible for food.
func (p *Plausibility) ValidDensity(density float64) bool {
	return density >= p.DensityMin && density <= p.DensityMax
}

// CheckDensity validates one resolved density value.
func (p *Plausibility) CheckDensity(ingredient string, density float64) Result {
	fp := fmt.Sprintf("density[%s]", ingredient)
	expected := fmt.Sprintf("%.2f..%.2f", p.DensityMin, p.DensityMax)
	return checkResult(p.ValidDensity(density), fp, expected, fmtf(density), "Plausibility: Density")
}

// PercentageSum returns the sum of component percentages.
func PercentageSum(components []domain.IngredientComponent) float64 {
	var sum float64
	for _, c := range components {
		sum += c.Percentage
	}
	return sum
}

// ValidPercentageSum reports whether component percentages sum to 100
// within tolerance.
func (p *Plausibility) ValidPercentageSum(components []domain.IngredientComponent) bool {
	return math.Abs(PercentageSum(components)-100) <= p.PercentageTolerance
}

// CheckPercentageSum validates that a decomposition's ingredient
// percentages account for the whole dish.
func (p *Plausibility) CheckPercentageSum(foodName string, components []domain.IngredientComponent) Result {
	sum := PercentageSum(components)
	fp := fmt.Sprintf("decomposition[%s].percentages", foodName)
	expected := fmt.Sprintf("100±%.1f", p.PercentageTolerance)
	passed := math.Abs(sum-100) <= p.PercentageTolerance
	return checkResult(passed, fp, expected, fmtf(sum), "Plausibility: Percentage Sum")
}

// ValidServingSize reports whether a serving size can be used as a
// scaling divisor.
func (p *Plausibility) ValidServingSize(grams float64) bool {
	return grams > 0
}

// CheckMassReconciliation validates that ingredient masses add up to
// the segment total.
func (p *Plausibility) CheckMassReconciliation(fm *domain.FoodMass) Result {
	var sum float64
	for _, im := range fm.IngredientMasses {
		sum += im.MassGrams
	}
	fp := fmt.Sprintf("mass[%s].total_mass_grams", fm.FoodName)
	passed := math.Abs(sum-fm.TotalMassGrams) <= p.MassTolerance
	return checkResult(passed, fp, fmtf(sum), fmtf(fm.TotalMassGrams), "Plausibility: Mass Reconciliation")
}
