package service

import (
	"context"

	"calai/internal/domain"
	"calai/internal/port"
)

// MealService exposes the meal history.
type MealService interface {
	Get(ctx context.Context, id string) (*domain.MealRecord, error)
	List(ctx context.Context, sessionID string, limit int) ([]domain.MealRecord, error)
}

type mealService struct {
	mealRepo port.MealRepository
}

// NewMealService creates a new MealService implementation.
func NewMealService(mealRepo port.MealRepository) MealService {
	return &mealService{mealRepo: mealRepo}
}

func (s *mealService) Get(ctx context.Context, id string) (*domain.MealRecord, error) {
	return s.mealRepo.GetByID(ctx, id)
}

func (s *mealService) List(ctx context.Context, sessionID string, limit int) ([]domain.MealRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if sessionID == "" {
		return s.mealRepo.ListAll(ctx, limit)
	}
	return s.mealRepo.ListBySession(ctx, sessionID, limit)
}
