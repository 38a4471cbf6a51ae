package resolver

import (
	"context"
	"log"

	"calai/internal/domain"
	"calai/internal/validator"
)

// DensityStrategy is one step of the density lookup chain.
type DensityStrategy interface {
	Name() string
	Method() domain.DensityMethod
	Resolve(ctx context.Context, ingredient string) (*domain.DensityResult, error)
}

// DensityResolver tries strategies in order and accepts the first
// plausible result. A strategy returning a value outside the
// plausibility bounds is treated the same as a strategy that failed.
// Resolution never fails: when every strategy is exhausted the
// configured default density is returned.
type DensityResolver struct {
	strategies     []DensityStrategy
	checker        *validator.Plausibility
	defaultDensity float64
}

// NewDensityResolver creates a resolver over an ordered strategy chain.
func NewDensityResolver(strategies []DensityStrategy, checker *validator.Plausibility, defaultDensity float64) *DensityResolver {
	return &DensityResolver{
		strategies:     strategies,
		checker:        checker,
		defaultDensity: defaultDensity,
	}
}

// Resolve returns a plausible density for the ingredient, with the
// method that produced it.
func (r *DensityResolver) Resolve(ctx context.Context, ingredient string) *domain.DensityResult {
	for _, s := range r.strategies {
		res, err := s.Resolve(ctx, ingredient)
		if err != nil {
			log.Printf("resolver.DensityResolver: %s failed for %q: %v", s.Name(), ingredient, err)
			continue
		}
		if !r.checker.ValidDensity(res.DensityKgPerL) {
			log.Printf("resolver.DensityResolver: %s returned implausible density %.3f for %q, discarding", s.Name(), res.DensityKgPerL, ingredient)
			continue
		}
		return res
	}

	log.Printf("resolver.DensityResolver: all strategies exhausted for %q, using default %.2f", ingredient, r.defaultDensity)
	return &domain.DensityResult{
		DensityKgPerL: r.defaultDensity,
		Method:        domain.DensityMethodEstimate,
		Details:       "default density, all lookups exhausted",
	}
}
