package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"calai/internal/config"
	"calai/internal/domain"
	"calai/internal/llm"
	"calai/internal/measure"
	"calai/internal/port"
)

// DecomposeService breaks each food into ingredient components with
// volume shares, backed by web search for unfamiliar dishes.
type DecomposeService interface {
	Decompose(ctx context.Context, items []domain.FoodItem) ([]domain.Decomposition, error)
}

type decomposeService struct {
	model     port.ChatModel
	searcher  port.WebSearcher
	tolerance float64
}

// NewDecomposeService creates a new DecomposeService implementation.
func NewDecomposeService(model port.ChatModel, searcher port.WebSearcher, cfg *config.ValidationConfig) DecomposeService {
	return &decomposeService{
		model:     model,
		searcher:  searcher,
		tolerance: cfg.PercentageTolerance,
	}
}

type decomposeReply struct {
	IsBasicIngredient bool   `json:"is_basic_ingredient"`
	Reasoning         string `json:"reasoning"`
	Ingredients       []struct {
		IngredientName string  `json:"ingredient_name"`
		Percentage     float64 `json:"percentage"`
		Notes          string  `json:"notes"`
	} `json:"ingredients"`
}

func (s *decomposeService) Decompose(ctx context.Context, items []domain.FoodItem) ([]domain.Decomposition, error) {
	var out []domain.Decomposition
	var failed int
	for _, item := range items {
		d, err := s.decomposeOne(ctx, item)
		if err != nil {
			log.Printf("service.decomposeService: segment %d (%s) failed, dropping from meal: %v", item.SegmentID, item.FoodName, err)
			failed++
			continue
		}
		out = append(out, *d)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("decomposition failed for all %d items", failed)
	}
	return out, nil
}

func (s *decomposeService) decomposeOne(ctx context.Context, item domain.FoodItem) (*domain.Decomposition, error) {
	searchContext, sources := s.searchComposition(ctx, item.FoodName)

	prompt := fmt.Sprintf(`Break down %q into its ingredients by volume share.
Total portion volume: %.3f L.
%s
If this is a single basic ingredient (plain rice, an apple, a glass of
milk), set is_basic_ingredient true with one 100%% component.
Percentages must sum to 100.
%s
Reply with JSON only:
{"is_basic_ingredient": true|false, "reasoning": "<one sentence>",
 "ingredients": [{"ingredient_name": "<name>", "percentage": <number>, "notes": "<optional>"}, ...]}`,
		item.FoodName, item.VolumeLitres, clarificationContext(item.Clarifications), searchContext)

	out, err := s.model.Complete(ctx, port.ChatInput{Prompt: prompt, MaxTokens: 2048})
	if err != nil {
		return nil, fmt.Errorf("decomposing: %w", err)
	}

	var reply decomposeReply
	if err := llm.DecodeJSON(out.Text, &reply); err != nil {
		return nil, err
	}
	if len(reply.Ingredients) == 0 {
		return nil, fmt.Errorf("model returned no ingredients")
	}

	d := &domain.Decomposition{
		SegmentID:         item.SegmentID,
		OriginalFoodName:  item.FoodName,
		TotalVolumeLitres: item.VolumeLitres,
		IsBasicIngredient: reply.IsBasicIngredient,
		Reasoning:         reply.Reasoning,
		Sources:           sources,
	}
	for _, ing := range reply.Ingredients {
		d.IngredientVolumes = append(d.IngredientVolumes, domain.IngredientComponent{
			IngredientName: ing.IngredientName,
			Percentage:     ing.Percentage,
			VolumeLitres:   measure.ComponentVolume(ing.Percentage, item.VolumeLitres),
			Notes:          ing.Notes,
		})
	}

	if err := measure.Normalize(d, s.tolerance); err != nil {
		if errors.Is(err, domain.ErrZeroPercentageSum) {
			return nil, err
		}
		return nil, fmt.Errorf("normalizing percentages: %w", err)
	}
	return d, nil
}

// clarificationContext renders the facts the user settled during the
// dialogue, sorted for a stable prompt.
func clarificationContext(clarifications map[string]string) string {
	if len(clarifications) == 0 {
		return ""
	}
	aspects := make([]string, 0, len(clarifications))
	for aspect := range clarifications {
		aspects = append(aspects, aspect)
	}
	sort.Strings(aspects)

	var sb strings.Builder
	sb.WriteString("The user clarified:\n")
	for _, aspect := range aspects {
		fmt.Fprintf(&sb, "- %s: %s\n", aspect, clarifications[aspect])
	}
	return sb.String()
}

// searchComposition fetches typical composition data for composite
// dishes. Search failure is not fatal: the model can still decompose
// common dishes from its own knowledge.
func (s *decomposeService) searchComposition(ctx context.Context, foodName string) (string, []string) {
	result, err := s.searcher.Search(ctx, port.SearchQuery{
		Query: fmt.Sprintf("%s typical ingredients proportions recipe", foodName),
	})
	if err != nil {
		log.Printf("service.decomposeService: composition search failed for %q: %v", foodName, err)
		return "", nil
	}

	var sb strings.Builder
	var sources []string
	if result.Answer != "" {
		sb.WriteString(result.Answer)
		sb.WriteString("\n")
	}
	for _, hit := range result.Hits {
		sb.WriteString(hit.Content)
		sb.WriteString("\n")
		// Keep the top three URLs; the record does not need every hit.
		if len(sources) < 3 {
			sources = append(sources, hit.URL)
		}
	}
	if sb.Len() == 0 {
		return "", nil
	}
	return fmt.Sprintf("\nReference material on typical composition:\n%s\n", sb.String()), sources
}
