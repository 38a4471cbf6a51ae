package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"calai/internal/domain"
	"calai/internal/port"
)

// ChatService is the conversational assistant. It answers food and
// nutrition questions with the user's recent meal history in context.
type ChatService interface {
	Chat(ctx context.Context, sessionID, message string, imageBytes []byte, contentType string) (string, error)
}

type chatService struct {
	model    port.ChatModel
	history  port.ChatHistoryRepository
	mealRepo port.MealRepository
}

// NewChatService creates a new ChatService implementation.
func NewChatService(model port.ChatModel, history port.ChatHistoryRepository, mealRepo port.MealRepository) ChatService {
	return &chatService{model: model, history: history, mealRepo: mealRepo}
}

const chatSystem = `You are a friendly nutrition assistant. Answer questions about food,
meals, and nutrition. When the user's logged meals are relevant, use
them. Be concrete and brief; give numbers when you have them. Do not
invent nutrition values for meals you have no data on.`

func (s *chatService) Chat(ctx context.Context, sessionID, message string, imageBytes []byte, contentType string) (string, error) {
	prompt := s.buildPrompt(ctx, sessionID, message)

	out, err := s.model.Complete(ctx, port.ChatInput{
		System:      chatSystem,
		Prompt:      prompt,
		ImageBytes:  imageBytes,
		ContentType: contentType,
		MaxTokens:   2048,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	now := time.Now().UTC()
	if err := s.history.Append(ctx, sessionID, domain.ChatTurn{Role: domain.ChatRoleUser, Content: message, Timestamp: now}); err != nil {
		log.Printf("service.chatService: failed to store user turn: %v", err)
	}
	if err := s.history.Append(ctx, sessionID, domain.ChatTurn{Role: domain.ChatRoleAssistant, Content: out.Text, Timestamp: now}); err != nil {
		log.Printf("service.chatService: failed to store assistant turn: %v", err)
	}
	return out.Text, nil
}

func (s *chatService) buildPrompt(ctx context.Context, sessionID, message string) string {
	var sb strings.Builder

	meals, err := s.mealRepo.ListBySession(ctx, sessionID, 5)
	if err != nil {
		log.Printf("service.chatService: failed to load meal history: %v", err)
	}
	if len(meals) > 0 {
		sb.WriteString("Recent logged meals:\n")
		for _, m := range meals {
			fmt.Fprintf(&sb, "- %s: %.0f kcal, %.1f g protein, %.1f g fat, %.1f g carbs\n",
				m.AnalyzedAt.Format("Jan 2 15:04"),
				m.Summary.CaloriesKcal, m.Summary.ProteinG, m.Summary.FatG, m.Summary.CarbohydratesG)
		}
		sb.WriteString("\n")
	}

	turns, err := s.history.Recent(ctx, sessionID, 10)
	if err != nil {
		log.Printf("service.chatService: failed to load chat history: %v", err)
	}
	if len(turns) > 0 {
		sb.WriteString("Conversation so far:\n")
		for _, t := range turns {
			fmt.Fprintf(&sb, "%s: %s\n", t.Role, t.Content)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("User: ")
	sb.WriteString(message)
	return sb.String()
}
