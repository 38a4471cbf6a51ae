package resolver

import (
	"context"
	"fmt"
	"strings"

	"calai/internal/domain"
	"calai/internal/llm"
	"calai/internal/port"
)

// densityReply is the JSON shape every density strategy asks the model for.
type densityReply struct {
	Found         bool    `json:"found"`
	DensityKgPerL float64 `json:"density_kg_per_l"`
	Reasoning     string  `json:"reasoning"`
}

const densityReplyFormat = `Reply with JSON only:
{"found": true|false, "density_kg_per_l": <number>, "reasoning": "<one sentence>"}
Set found to false if the material does not state or imply a density for this ingredient.`

// CorpusStrategy looks the ingredient up in the density reference
// corpus and has the model extract a value from the retrieved chunks.
type CorpusStrategy struct {
	Corpus port.DensityCorpus
	Model  port.ChatModel
	TopK   int
}

func (s *CorpusStrategy) Name() string                 { return "corpus" }
func (s *CorpusStrategy) Method() domain.DensityMethod { return domain.DensityMethodCorpus }

func (s *CorpusStrategy) Resolve(ctx context.Context, ingredient string) (*domain.DensityResult, error) {
	topK := s.TopK
	if topK == 0 {
		topK = 3
	}
	chunks, err := s.Corpus.Search(ctx, ingredient+" density", topK)
	if err != nil {
		return nil, fmt.Errorf("corpus search: %w", err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no corpus matches for %q", ingredient)
	}

	prompt := fmt.Sprintf(`Extract the density of %q in kg/L from these reference table excerpts.
Convert units if needed (1 g/mL = 1 kg/L, 1 g/cm3 = 1 kg/L).

Excerpts:
%s

%s`, ingredient, strings.Join(chunks, "\n---\n"), densityReplyFormat)

	out, err := s.Model.Complete(ctx, port.ChatInput{Prompt: prompt, MaxTokens: 512})
	if err != nil {
		return nil, fmt.Errorf("extracting density: %w", err)
	}

	var reply densityReply
	if err := llm.DecodeJSON(out.Text, &reply); err != nil {
		return nil, err
	}
	if !reply.Found {
		return nil, fmt.Errorf("no density for %q in corpus excerpts", ingredient)
	}
	return &domain.DensityResult{
		DensityKgPerL: reply.DensityKgPerL,
		Method:        s.Method(),
		Details:       reply.Reasoning,
	}, nil
}

// WebStrategy searches the web for the ingredient's density and has
// the model extract a value from the results.
type WebStrategy struct {
	Searcher port.WebSearcher
	Model    port.ChatModel
}

func (s *WebStrategy) Name() string                 { return "web" }
func (s *WebStrategy) Method() domain.DensityMethod { return domain.DensityMethodWeb }

func (s *WebStrategy) Resolve(ctx context.Context, ingredient string) (*domain.DensityResult, error) {
	result, err := s.Searcher.Search(ctx, port.SearchQuery{
		Query: fmt.Sprintf("density of %s in g/ml kg/l food", ingredient),
	})
	if err != nil {
		return nil, fmt.Errorf("web search: %w", err)
	}

	var sb strings.Builder
	if result.Answer != "" {
		sb.WriteString(result.Answer)
		sb.WriteString("\n")
	}
	for _, hit := range result.Hits {
		sb.WriteString(hit.Content)
		sb.WriteString("\n")
	}
	if sb.Len() == 0 {
		return nil, fmt.Errorf("empty search results for %q", ingredient)
	}

	prompt := fmt.Sprintf(`Extract the density of %q in kg/L from these search results.
Convert units if needed (1 g/mL = 1 kg/L).

Search results:
%s

%s`, ingredient, sb.String(), densityReplyFormat)

	out, err := s.Model.Complete(ctx, port.ChatInput{Prompt: prompt, MaxTokens: 512})
	if err != nil {
		return nil, fmt.Errorf("extracting density: %w", err)
	}

	var reply densityReply
	if err := llm.DecodeJSON(out.Text, &reply); err != nil {
		return nil, err
	}
	if !reply.Found {
		return nil, fmt.Errorf("no density for %q in search results", ingredient)
	}
	return &domain.DensityResult{
		DensityKgPerL: reply.DensityKgPerL,
		Method:        s.Method(),
		Details:       reply.Reasoning,
	}, nil
}

// textureDensities maps coarse food texture categories to typical
// densities in kg/L. Used both as model guidance and as the fallback
// when the model is unavailable.
var textureDensities = []struct {
	category string
	density  float64
	keywords []string
}{
	{"airy baked goods", 0.25, []string{"bread", "cake", "muffin", "croissant", "popcorn", "chips", "cracker"}},
	{"leafy greens", 0.15, []string{"lettuce", "salad", "spinach", "greens", "kale", "cabbage"}},
	{"cooked grains", 0.75, []string{"rice", "pasta", "noodle", "oat", "quinoa", "couscous"}},
	{"fried foods", 0.55, []string{"fries", "fried", "tempura", "pakora"}},
	{"dense vegetables", 0.6, []string{"broccoli", "carrot", "potato", "cauliflower", "vegetable", "bean"}},
	{"fruits", 0.65, []string{"apple", "banana", "berry", "fruit", "grape", "mango"}},
	{"meats and fish", 1.05, []string{"chicken", "beef", "pork", "fish", "meat", "steak", "lamb", "egg"}},
	{"oils and fats", 0.92, []string{"oil", "butter", "ghee", "fat"}},
	{"liquids and sauces", 1.0, []string{"soup", "juice", "milk", "water", "sauce", "curry", "yogurt", "smoothie"}},
}

// lookupTexture returns the texture-table density for an ingredient
// name, or 0 when no category keyword matches.
func lookupTexture(ingredient string) (float64, string) {
	name := strings.ToLower(ingredient)
	for _, t := range textureDensities {
		for _, kw := range t.keywords {
			if strings.Contains(name, kw) {
				return t.density, t.category
			}
		}
	}
	return 0, ""
}

func textureGuidelines() string {
	var sb strings.Builder
	for _, t := range textureDensities {
		fmt.Fprintf(&sb, "- %s: ~%.2f kg/L\n", t.category, t.density)
	}
	return sb.String()
}

// EstimateStrategy asks the model for an informed estimate, guided by
// the texture table. When the model is unavailable it falls back to
// the table directly, so this strategy only fails for ingredients no
// category matches.
type EstimateStrategy struct {
	Model port.ChatModel
}

func (s *EstimateStrategy) Name() string                 { return "estimate" }
func (s *EstimateStrategy) Method() domain.DensityMethod { return domain.DensityMethodEstimate }

func (s *EstimateStrategy) Resolve(ctx context.Context, ingredient string) (*domain.DensityResult, error) {
	prompt := fmt.Sprintf(`Estimate the density of %q in kg/L as served.
Typical densities by texture:
%s
%s`, ingredient, textureGuidelines(), densityReplyFormat)

	out, err := s.Model.Complete(ctx, port.ChatInput{Prompt: prompt, MaxTokens: 512})
	if err == nil {
		var reply densityReply
		if derr := llm.DecodeJSON(out.Text, &reply); derr == nil && reply.Found {
			return &domain.DensityResult{
				DensityKgPerL: reply.DensityKgPerL,
				Method:        s.Method(),
				Details:       reply.Reasoning,
			}, nil
		}
	}

	if d, category := lookupTexture(ingredient); d > 0 {
		return &domain.DensityResult{
			DensityKgPerL: d,
			Method:        s.Method(),
			Details:       fmt.Sprintf("texture table (%s)", category),
		}, nil
	}
	return nil, fmt.Errorf("no estimate for %q", ingredient)
}
