package resolver

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"calai/internal/domain"
	"calai/internal/port"
	"calai/mocks"
)

type stubNutritionStrategy struct {
	name  string
	res   *domain.ServingNutrition
	err   error
	calls int
}

func (s *stubNutritionStrategy) Name() string { return s.name }

func (s *stubNutritionStrategy) Lookup(ctx context.Context, foodName string) (*domain.ServingNutrition, error) {
	s.calls++
	return s.res, s.err
}

func TestNutritionResolverShortCircuits(t *testing.T) {
	first := &stubNutritionStrategy{name: "first", res: &domain.ServingNutrition{
		Found: true, ServingSizeGrams: 100,
		NutritionFacts: domain.NutritionFacts{CaloriesKcal: 130},
	}}
	second := &stubNutritionStrategy{name: "second", res: &domain.ServingNutrition{Found: true, ServingSizeGrams: 50}}

	r := NewNutritionResolver([]NutritionStrategy{first, second})
	res := r.Resolve(context.Background(), "cooked rice")

	assert.True(t, res.Found)
	assert.Equal(t, 130.0, res.CaloriesKcal)
	assert.Equal(t, 0, second.calls)
}

func TestNutritionResolverSkipsUnusableServing(t *testing.T) {
	// Found without a serving size in grams is not usable.
	first := &stubNutritionStrategy{name: "first", res: &domain.ServingNutrition{Found: true, ServingSizeGrams: 0}}
	second := &stubNutritionStrategy{name: "second", err: errors.New("source down")}

	r := NewNutritionResolver([]NutritionStrategy{first, second})
	res := r.Resolve(context.Background(), "mystery dish")

	assert.False(t, res.Found)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
}

func simplifyPrompt(input port.ChatInput) bool {
	return strings.Contains(input.Prompt, "short dish name")
}

func extractPrompt(input port.ChatInput) bool {
	return strings.Contains(input.Prompt, "Extract per-serving nutrition facts")
}

func TestWebNutritionLookupSearchesSimplifiedName(t *testing.T) {
	model := new(mocks.MockChatModel)
	model.On("Complete", mock.Anything, mock.MatchedBy(simplifyPrompt)).Return(&port.ChatOutput{
		Text: `{"simple_name": "Pav Bhaji"}`,
	}, nil)
	model.On("Complete", mock.Anything, mock.MatchedBy(extractPrompt)).Return(&port.ChatOutput{
		Text: `{"found": true, "serving_size_grams": 250, "calories_kcal": 400, "protein_g": 10, "fat_g": 15, "carbohydrates_g": 55, "source_url": "https://example.com/pav-bhaji", "reasoning": "per plate"}`,
	}, nil)

	searcher := new(mocks.MockWebSearcher)
	searcher.On("Search", mock.Anything, mock.MatchedBy(func(q port.SearchQuery) bool {
		return strings.HasPrefix(q.Query, "Pav Bhaji ") && !strings.Contains(q.Query, "Butter")
	})).Return(&port.SearchResult{
		Hits: []port.SearchHit{{URL: "https://example.com/pav-bhaji", Content: "400 kcal per 250g plate"}},
	}, nil)

	s := &WebNutritionStrategy{Searcher: searcher, Model: model}
	res, err := s.Lookup(context.Background(), "Pav Bhaji with Generous Butter (50g Added)")

	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, 250.0, res.ServingSizeGrams)
	assert.Equal(t, 400.0, res.CaloriesKcal)
	searcher.AssertExpectations(t)
}

func TestWebNutritionLookupFallsBackToRawName(t *testing.T) {
	model := new(mocks.MockChatModel)
	model.On("Complete", mock.Anything, mock.MatchedBy(simplifyPrompt)).Return(nil, errors.New("model down"))
	model.On("Complete", mock.Anything, mock.MatchedBy(extractPrompt)).Return(&port.ChatOutput{
		Text: `{"found": true, "serving_size_grams": 150, "calories_kcal": 200}`,
	}, nil)

	searcher := new(mocks.MockWebSearcher)
	searcher.On("Search", mock.Anything, mock.MatchedBy(func(q port.SearchQuery) bool {
		return strings.HasPrefix(q.Query, "large bowl of dal makhani ")
	})).Return(&port.SearchResult{
		Hits: []port.SearchHit{{URL: "https://example.com/dal", Content: "200 kcal per 150g"}},
	}, nil)

	s := &WebNutritionStrategy{Searcher: searcher, Model: model}
	res, err := s.Lookup(context.Background(), "large bowl of dal makhani")

	require.NoError(t, err)
	assert.True(t, res.Found)
	searcher.AssertExpectations(t)
}
