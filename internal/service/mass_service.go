package service

import (
	"context"
	"log"

	"calai/internal/domain"
	"calai/internal/measure"
	"calai/internal/resolver"
	"calai/internal/validator"
)

// MassService converts ingredient volumes to masses through the
// density lookup chain.
type MassService interface {
	Compute(ctx context.Context, decomposed []domain.Decomposition) ([]domain.FoodMass, error)
}

type massService struct {
	densities *resolver.DensityResolver
	checker   *validator.Plausibility
}

// NewMassService creates a new MassService implementation.
func NewMassService(densities *resolver.DensityResolver, checker *validator.Plausibility) MassService {
	return &massService{densities: densities, checker: checker}
}

func (s *massService) Compute(ctx context.Context, decomposed []domain.Decomposition) ([]domain.FoodMass, error) {
	out := make([]domain.FoodMass, 0, len(decomposed))
	for _, d := range decomposed {
		fm := domain.FoodMass{
			SegmentID:         d.SegmentID,
			FoodName:          d.OriginalFoodName,
			IsBasicIngredient: d.IsBasicIngredient,
		}

		for _, c := range d.IngredientVolumes {
			res := s.densities.Resolve(ctx, c.IngredientName)
			mass := measure.MassFromVolume(c.VolumeLitres, res.DensityKgPerL)
			fm.IngredientMasses = append(fm.IngredientMasses, domain.IngredientMass{
				IngredientName: c.IngredientName,
				VolumeLitres:   c.VolumeLitres,
				DensityKgPerL:  res.DensityKgPerL,
				MassGrams:      measure.Round1(mass),
				Method:         res.Method,
				Details:        res.Details,
			})
			fm.TotalMassGrams += mass
		}
		fm.TotalMassGrams = measure.Round1(fm.TotalMassGrams)

		if r := s.checker.CheckMassReconciliation(&fm); !r.Passed {
			log.Printf("service.massService: %s", r.Message)
		}
		out = append(out, fm)
	}
	return out, nil
}
