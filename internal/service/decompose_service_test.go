package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"calai/internal/config"
	"calai/internal/domain"
	"calai/internal/port"
	"calai/internal/service"
	"calai/mocks"
)

func decomposeValidation() *config.ValidationConfig {
	return &config.ValidationConfig{PercentageTolerance: 5}
}

func TestDecompose_KeepsTopThreeSources(t *testing.T) {
	searcher := new(mocks.MockWebSearcher)
	searcher.On("Search", mock.Anything, mock.Anything).Return(&port.SearchResult{
		Hits: []port.SearchHit{
			{URL: "https://a.example/recipe", Content: "half potato"},
			{URL: "https://b.example/recipe", Content: "some peas"},
			{URL: "https://c.example/recipe", Content: "tomato base"},
			{URL: "https://d.example/recipe", Content: "spices"},
			{URL: "https://e.example/recipe", Content: "onion"},
		},
	}, nil)

	model := new(mocks.MockChatModel)
	model.On("Complete", mock.Anything, mock.Anything).Return(&port.ChatOutput{
		Text: `{"is_basic_ingredient": false, "reasoning": "mixed curry",
			"ingredients": [
				{"ingredient_name": "potato", "percentage": 60},
				{"ingredient_name": "peas", "percentage": 40}
			]}`,
	}, nil)

	svc := service.NewDecomposeService(model, searcher, decomposeValidation())
	out, err := svc.Decompose(context.Background(), []domain.FoodItem{
		{SegmentID: 1, FoodName: "aloo matar", VolumeLitres: 0.2},
	})

	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, []string{
		"https://a.example/recipe",
		"https://b.example/recipe",
		"https://c.example/recipe",
	}, out[0].Sources)
}

func TestDecompose_PromptCarriesClarifications(t *testing.T) {
	searcher := new(mocks.MockWebSearcher)
	searcher.On("Search", mock.Anything, mock.Anything).Return(&port.SearchResult{
		Hits: []port.SearchHit{{URL: "https://a.example/recipe", Content: "paneer cubes in gravy"}},
	}, nil)

	model := new(mocks.MockChatModel)
	model.On("Complete", mock.Anything, mock.MatchedBy(func(input port.ChatInput) bool {
		return strings.Contains(input.Prompt, "The user clarified:") &&
			strings.Contains(input.Prompt, "protein: paneer, not tofu")
	})).Return(&port.ChatOutput{
		Text: `{"is_basic_ingredient": false, "reasoning": "curry",
			"ingredients": [{"ingredient_name": "paneer", "percentage": 100}]}`,
	}, nil)

	svc := service.NewDecomposeService(model, searcher, decomposeValidation())
	out, err := svc.Decompose(context.Background(), []domain.FoodItem{
		{SegmentID: 1, FoodName: "paneer curry", VolumeLitres: 0.18,
			Clarifications: map[string]string{"protein": "paneer, not tofu"}},
	})

	require.NoError(t, err)
	require.Len(t, out, 1)
	model.AssertExpectations(t)
}
