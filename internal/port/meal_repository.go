package port

import (
	"context"

	"calai/internal/domain"
)

// MealRepository persists analysis outcomes for the meal history.
type MealRepository interface {
	Save(ctx context.Context, record *domain.MealRecord) error
	GetByID(ctx context.Context, id string) (*domain.MealRecord, error)
	ListBySession(ctx context.Context, sessionID string, limit int) ([]domain.MealRecord, error)
	ListAll(ctx context.Context, limit int) ([]domain.MealRecord, error)
}

// ChatHistoryRepository persists conversational turns per session.
type ChatHistoryRepository interface {
	Append(ctx context.Context, sessionID string, turn domain.ChatTurn) error
	Recent(ctx context.Context, sessionID string, limit int) ([]domain.ChatTurn, error)
}

// PhotoRepository persists uploaded photo metadata.
type PhotoRepository interface {
	Save(ctx context.Context, meta *domain.PhotoMeta) error
	GetByID(ctx context.Context, id string) (*domain.PhotoMeta, error)
}
