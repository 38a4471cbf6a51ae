package service

import (
	"context"
	"log"

	"calai/internal/domain"
	"calai/internal/measure"
	"calai/internal/resolver"
)

// NutritionService acquires per-serving nutrition for each segment and
// scales it to the computed mass.
type NutritionService interface {
	Compute(ctx context.Context, masses []domain.FoodMass) ([]domain.SegmentNutrition, domain.MealSummary, error)
}

type nutritionService struct {
	nutrition *resolver.NutritionResolver
}

// NewNutritionService creates a new NutritionService implementation.
func NewNutritionService(nutrition *resolver.NutritionResolver) NutritionService {
	return &nutritionService{nutrition: nutrition}
}

func (s *nutritionService) Compute(ctx context.Context, masses []domain.FoodMass) ([]domain.SegmentNutrition, domain.MealSummary, error) {
	segments := make([]domain.SegmentNutrition, 0, len(masses))
	for _, fm := range masses {
		serving := s.nutrition.Resolve(ctx, fm.FoodName)

		seg := domain.SegmentNutrition{
			SegmentID:      fm.SegmentID,
			FoodName:       fm.FoodName,
			TotalMassGrams: fm.TotalMassGrams,
			Source:         serving,
		}

		scaled, ok := measure.ScaleServing(serving, fm.TotalMassGrams)
		seg.Nutrition = scaled
		seg.DataMissing = !ok
		if !ok {
			log.Printf("service.nutritionService: no usable nutrition data for %q, reporting zeros", fm.FoodName)
		}
		segments = append(segments, seg)
	}
	return segments, measure.SumMeal(segments), nil
}
