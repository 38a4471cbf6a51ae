package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"calai/internal/domain"
	"calai/internal/pipeline"
	"calai/internal/port"
)

// AnalyzeInput is the DTO for an analysis request.
type AnalyzeInput struct {
	SessionID   string
	Query       string
	ImagePath   string
	ImageBytes  []byte
	ContentType string
}

// AnalyzeOutput is either a pipeline report or a conversational reply,
// depending on how the request was routed.
type AnalyzeOutput struct {
	Route       domain.Route              `json:"route"`
	RouteReason string                    `json:"route_reason,omitempty"`
	RunID       string                    `json:"run_id,omitempty"`
	Report      *pipeline.NutritionReport `json:"report,omitempty"`
	Reply       string                    `json:"reply,omitempty"`
}

// AnalyzeService routes an incoming request and executes the chosen
// path, persisting pipeline outcomes to the meal history.
type AnalyzeService interface {
	Analyze(ctx context.Context, input AnalyzeInput) (*AnalyzeOutput, error)
}

type analyzeService struct {
	router   RouterService
	runner   *pipeline.Runner
	chat     ChatService
	mealRepo port.MealRepository
}

// NewAnalyzeService creates a new AnalyzeService implementation.
func NewAnalyzeService(router RouterService, runner *pipeline.Runner, chat ChatService, mealRepo port.MealRepository) AnalyzeService {
	return &analyzeService{router: router, runner: runner, chat: chat, mealRepo: mealRepo}
}

func (s *analyzeService) Analyze(ctx context.Context, input AnalyzeInput) (*AnalyzeOutput, error) {
	route, reason, err := s.router.Decide(ctx, input.Query, input.ImagePath != "")
	if err != nil {
		return nil, fmt.Errorf("routing request: %w", err)
	}
	log.Printf("service.analyzeService: routed to %s (%s)", route, reason)

	if route == domain.RouteConversational {
		reply, err := s.chat.Chat(ctx, input.SessionID, input.Query, input.ImageBytes, input.ContentType)
		if err != nil {
			return nil, err
		}
		return &AnalyzeOutput{Route: route, RouteReason: reason, Reply: reply}, nil
	}

	if input.ImagePath == "" {
		return nil, domain.ErrMissingImage
	}

	result, err := s.runner.Run(ctx, input.ImagePath)
	if err != nil {
		return nil, err
	}

	record := &domain.MealRecord{
		ID:         uuid.New(),
		SessionID:  input.SessionID,
		Query:      input.Query,
		ImagePath:  input.ImagePath,
		Summary:    result.Report.Totals,
		Segments:   result.Report.Segments,
		AnalyzedAt: time.Now().UTC(),
	}
	if err := s.mealRepo.Save(ctx, record); err != nil {
		// The analysis succeeded; history is best effort.
		log.Printf("service.analyzeService: failed to save meal record: %v", err)
	}

	return &AnalyzeOutput{
		Route:       route,
		RouteReason: reason,
		RunID:       result.RunID,
		Report:      result.Report,
	}, nil
}
