package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"calai/internal/domain"
	"calai/internal/llm"
	"calai/internal/port"
)

// RouterService decides whether a request runs the analysis pipeline
// or goes to the conversational assistant.
type RouterService interface {
	Decide(ctx context.Context, query string, hasImage bool) (domain.Route, string, error)
}

type routerService struct {
	model port.ChatModel
}

// NewRouterService creates a new RouterService implementation.
func NewRouterService(model port.ChatModel) RouterService {
	return &routerService{model: model}
}

type routeReply struct {
	Route     string `json:"route"`
	Reasoning string `json:"reasoning"`
}

// Decide applies the fixed rules first; only ambiguous requests reach
// the classifier, and classifier trouble defaults to conversation
// rather than an expensive pipeline run.
func (s *routerService) Decide(ctx context.Context, query string, hasImage bool) (domain.Route, string, error) {
	if !hasImage {
		return domain.RouteConversational, "no image attached", nil
	}
	if strings.TrimSpace(query) == "" {
		return domain.RoutePipeline, "image with no query", nil
	}

	prompt := fmt.Sprintf(`A user sent a food photo with this message: %q

Decide what they want:
- "pipeline": they want the meal in the photo analyzed for nutrition
- "conversational": they are asking a question or chatting about food

Reply with JSON only:
{"route": "pipeline"|"conversational", "reasoning": "<one sentence>"}`, query)

	out, err := s.model.Complete(ctx, port.ChatInput{Prompt: prompt, MaxTokens: 256})
	if err != nil {
		log.Printf("service.routerService: classifier failed, defaulting to conversational: %v", err)
		return domain.RouteConversational, "classifier unavailable", nil
	}

	var reply routeReply
	if err := llm.DecodeJSON(out.Text, &reply); err != nil {
		log.Printf("service.routerService: unparseable classifier reply, defaulting to conversational: %v", err)
		return domain.RouteConversational, "classifier reply unparseable", nil
	}

	if reply.Route == string(domain.RoutePipeline) {
		return domain.RoutePipeline, reply.Reasoning, nil
	}
	return domain.RouteConversational, reply.Reasoning, nil
}
