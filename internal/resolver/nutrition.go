package resolver

import (
	"context"
	"fmt"
	"log"
	"strings"

	"calai/internal/domain"
	"calai/internal/llm"
	"calai/internal/port"
)

// NutritionStrategy is one step of the nutrition lookup chain.
type NutritionStrategy interface {
	Name() string
	Lookup(ctx context.Context, foodName string) (*domain.ServingNutrition, error)
}

// NutritionResolver tries strategies in order and accepts the first
// result with data and a usable serving size. When every strategy is
// exhausted it returns an explicit not-found record rather than
// failing, so one unknown food never sinks a whole meal.
type NutritionResolver struct {
	strategies []NutritionStrategy
}

// NewNutritionResolver creates a resolver over an ordered strategy chain.
func NewNutritionResolver(strategies []NutritionStrategy) *NutritionResolver {
	return &NutritionResolver{strategies: strategies}
}

// Resolve returns per-serving nutrition for the food, or a record with
// Found=false when no source had it.
func (r *NutritionResolver) Resolve(ctx context.Context, foodName string) *domain.ServingNutrition {
	for _, s := range r.strategies {
		res, err := s.Lookup(ctx, foodName)
		if err != nil {
			log.Printf("resolver.NutritionResolver: %s failed for %q: %v", s.Name(), foodName, err)
			continue
		}
		if !res.Found || res.ServingSizeGrams <= 0 {
			log.Printf("resolver.NutritionResolver: %s returned no usable data for %q", s.Name(), foodName)
			continue
		}
		return res
	}
	return &domain.ServingNutrition{
		Found:     false,
		Reasoning: "no nutrition source had usable data",
	}
}

// WebNutritionStrategy searches the web for per-serving nutrition
// facts and has the model extract structured values.
type WebNutritionStrategy struct {
	Searcher port.WebSearcher
	Model    port.ChatModel
}

func (s *WebNutritionStrategy) Name() string { return "web" }

type nutritionReply struct {
	Found            bool    `json:"found"`
	ServingSizeGrams float64 `json:"serving_size_grams"`
	CaloriesKcal     float64 `json:"calories_kcal"`
	ProteinG         float64 `json:"protein_g"`
	FatG             float64 `json:"fat_g"`
	CarbohydratesG   float64 `json:"carbohydrates_g"`
	SourceURL        string  `json:"source_url"`
	Reasoning        string  `json:"reasoning"`
}

type searchQueryReply struct {
	SimpleName string `json:"simple_name"`
}

// simplifyQuery strips portion notes and descriptors from a food name
// so nutrition databases can match it. The raw name is the fallback
// when the model cannot help.
func (s *WebNutritionStrategy) simplifyQuery(ctx context.Context, foodName string) string {
	prompt := fmt.Sprintf(`Reduce this food description to the short dish name a nutrition
database would list it under. Drop portion notes, preparation details,
and quantities.

Examples:
"Pav Bhaji with Generous Butter (50g Added)" -> "Pav Bhaji"
"Large bowl of homemade chicken biryani" -> "Chicken Biryani"
"2 slices of whole wheat toast with butter" -> "Whole Wheat Toast"

Food description: %q

Reply with JSON only:
{"simple_name": "<short dish name>"}`, foodName)

	out, err := s.Model.Complete(ctx, port.ChatInput{Prompt: prompt, MaxTokens: 256})
	if err != nil {
		log.Printf("resolver.WebNutritionStrategy: query simplification failed for %q, searching raw name: %v", foodName, err)
		return foodName
	}
	var reply searchQueryReply
	if err := llm.DecodeJSON(out.Text, &reply); err != nil {
		log.Printf("resolver.WebNutritionStrategy: query simplification failed for %q, searching raw name: %v", foodName, err)
		return foodName
	}
	if strings.TrimSpace(reply.SimpleName) == "" {
		return foodName
	}
	log.Printf("resolver.WebNutritionStrategy: simplified %q to %q for search", foodName, reply.SimpleName)
	return reply.SimpleName
}

func (s *WebNutritionStrategy) Lookup(ctx context.Context, foodName string) (*domain.ServingNutrition, error) {
	simpleName := s.simplifyQuery(ctx, foodName)
	result, err := s.Searcher.Search(ctx, port.SearchQuery{
		Query: fmt.Sprintf("%s nutrition facts calories protein fat carbohydrates per serving", simpleName),
	})
	if err != nil {
		return nil, fmt.Errorf("web search: %w", err)
	}

	var sb strings.Builder
	if result.Answer != "" {
		sb.WriteString(result.Answer)
		sb.WriteString("\n")
	}
	var urls []string
	for _, hit := range result.Hits {
		sb.WriteString(hit.Content)
		sb.WriteString("\n")
		urls = append(urls, hit.URL)
	}
	if sb.Len() == 0 {
		return nil, fmt.Errorf("empty search results for %q", foodName)
	}

	prompt := fmt.Sprintf(`Extract per-serving nutrition facts for %q from these search results.
The serving size must be in grams. Use the most credible source.
Candidate source URLs: %s

Search results:
%s

Reply with JSON only:
{"found": true|false, "serving_size_grams": <number>, "calories_kcal": <number>,
 "protein_g": <number>, "fat_g": <number>, "carbohydrates_g": <number>,
 "source_url": "<url>", "reasoning": "<one sentence>"}
Set found to false if the results have no usable nutrition data.`, foodName, strings.Join(urls, ", "), sb.String())

	out, err := s.Model.Complete(ctx, port.ChatInput{Prompt: prompt, MaxTokens: 1024})
	if err != nil {
		return nil, fmt.Errorf("extracting nutrition: %w", err)
	}

	var reply nutritionReply
	if err := llm.DecodeJSON(out.Text, &reply); err != nil {
		return nil, err
	}
	return &domain.ServingNutrition{
		Found:            reply.Found,
		ServingSizeGrams: reply.ServingSizeGrams,
		NutritionFacts: domain.NutritionFacts{
			CaloriesKcal:   reply.CaloriesKcal,
			ProteinG:       reply.ProteinG,
			FatG:           reply.FatG,
			CarbohydratesG: reply.CarbohydratesG,
		},
		SourceURL: reply.SourceURL,
		Reasoning: reply.Reasoning,
	}, nil
}
