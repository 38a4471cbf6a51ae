package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"calai/internal/config"
	"calai/internal/domain"
	"calai/internal/validator"
)

type stubStrategy struct {
	name    string
	density float64
	err     error
	calls   int
}

func (s *stubStrategy) Name() string                 { return s.name }
func (s *stubStrategy) Method() domain.DensityMethod { return domain.DensityMethodEstimate }

func (s *stubStrategy) Resolve(ctx context.Context, ingredient string) (*domain.DensityResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &domain.DensityResult{DensityKgPerL: s.density, Method: s.Method(), Details: s.name}, nil
}

func testResolverChecker() *validator.Plausibility {
	return validator.FromConfig(&config.ValidationConfig{
		DensityMin: 0.05, DensityMax: 2.0,
	})
}

func TestDensityResolverShortCircuits(t *testing.T) {
	first := &stubStrategy{name: "first", density: 0.75}
	second := &stubStrategy{name: "second", density: 1.0}

	r := NewDensityResolver([]DensityStrategy{first, second}, testResolverChecker(), 1.0)
	res := r.Resolve(context.Background(), "cooked rice")

	assert.Equal(t, 0.75, res.DensityKgPerL)
	assert.Equal(t, "first", res.Details)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 0, second.calls)
}

func TestDensityResolverFallsThroughOnError(t *testing.T) {
	first := &stubStrategy{name: "first", err: errors.New("corpus unreachable")}
	second := &stubStrategy{name: "second", density: 0.6}

	r := NewDensityResolver([]DensityStrategy{first, second}, testResolverChecker(), 1.0)
	res := r.Resolve(context.Background(), "steamed broccoli")

	assert.Equal(t, 0.6, res.DensityKgPerL)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
}

func TestDensityResolverDiscardsImplausible(t *testing.T) {
	// A density outside the physical bounds counts as no result.
	first := &stubStrategy{name: "first", density: 12.5}
	second := &stubStrategy{name: "second", density: 0.9}

	r := NewDensityResolver([]DensityStrategy{first, second}, testResolverChecker(), 1.0)
	res := r.Resolve(context.Background(), "mystery stew")

	assert.Equal(t, 0.9, res.DensityKgPerL)
}

func TestDensityResolverDefault(t *testing.T) {
	first := &stubStrategy{name: "first", err: errors.New("down")}
	second := &stubStrategy{name: "second", density: 0.001}

	r := NewDensityResolver([]DensityStrategy{first, second}, testResolverChecker(), 1.0)
	res := r.Resolve(context.Background(), "unknown")

	assert.Equal(t, 1.0, res.DensityKgPerL)
	assert.Equal(t, domain.DensityMethodEstimate, res.Method)
	assert.Contains(t, res.Details, "default density")
}

func TestDensityResolverNoStrategies(t *testing.T) {
	r := NewDensityResolver(nil, testResolverChecker(), 1.0)
	res := r.Resolve(context.Background(), "anything")
	assert.Equal(t, 1.0, res.DensityKgPerL)
}
