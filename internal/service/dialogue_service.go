package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"

	"calai/internal/config"
	"calai/internal/domain"
	"calai/internal/llm"
	"calai/internal/port"
)

// DialogueService runs the clarification exchange: it decides which
// segments are worth a question, puts them to the user in one batch,
// and merges the answers into the confirmed foods.
type DialogueService interface {
	Confirm(ctx context.Context, analyses []domain.SegmentAnalysis) ([]domain.ConfirmedFood, string, error)
}

type dialogueService struct {
	model        port.ChatModel
	answers      port.AnswerSource
	maxQuestions int
	threshold    float64
}

// NewDialogueService creates a new DialogueService implementation.
func NewDialogueService(model port.ChatModel, answers port.AnswerSource, cfg *config.PipelineConfig) DialogueService {
	maxQuestions := cfg.MaxQuestions
	if maxQuestions == 0 {
		maxQuestions = 3
	}
	threshold := cfg.ConfidenceThreshold
	if threshold == 0 {
		threshold = 0.95
	}
	return &dialogueService{
		model:        model,
		answers:      answers,
		maxQuestions: maxQuestions,
		threshold:    threshold,
	}
}

func (s *dialogueService) Confirm(ctx context.Context, analyses []domain.SegmentAnalysis) ([]domain.ConfirmedFood, string, error) {
	phase := domain.PhaseCollecting
	log.Printf("service.dialogueService: phase=%s, %d segments", phase, len(analyses))

	candidates := s.collect(analyses)

	var asked []askedQuestion
	if len(candidates) > 0 {
		phase = domain.PhaseRanking
		log.Printf("service.dialogueService: phase=%s, %d candidates", phase, len(candidates))
		questions := s.rank(ctx, candidates)

		phase = domain.PhaseAwaitingAnswer
		log.Printf("service.dialogueService: phase=%s, asking %d questions in one batch", phase, len(questions))
		bulk, err := s.answers.Ask(ctx, batchPrompt(questions))
		if err != nil {
			return nil, "", fmt.Errorf("asking clarification questions: %w", err)
		}
		asked = s.parseBulkAnswers(ctx, questions, bulk)
	}

	phase = domain.PhaseMerging
	log.Printf("service.dialogueService: phase=%s, %d answers", phase, len(asked))
	confirmed := s.merge(ctx, analyses, asked)

	suggestions := s.collectSuggestions(ctx, confirmed)

	phase = domain.PhaseDone
	log.Printf("service.dialogueService: phase=%s, %d foods confirmed", phase, len(confirmed))
	return confirmed, suggestions, nil
}

type askedQuestion struct {
	question domain.ClarificationQuestion
	answer   string
}

// collect picks the segments whose identification would benefit from a
// user answer.
func (s *dialogueService) collect(analyses []domain.SegmentAnalysis) []domain.ClarificationQuestion {
	var out []domain.ClarificationQuestion
	for _, a := range analyses {
		if a.Confidence >= s.threshold && len(a.MajorUncertainties) == 0 && !a.AmbiguityFlag {
			continue
		}
		question := a.MostImportantQuestion
		if question == "" {
			question = fmt.Sprintf("Can you confirm this is %s?", a.FoodName)
		}
		out = append(out, domain.ClarificationQuestion{
			SegmentID:  a.SegmentID,
			FoodName:   a.FoodName,
			Question:   question,
			Confidence: a.Confidence,
		})
	}
	return out
}

type rankReply struct {
	SegmentIDs []int  `json:"segment_ids"`
	Reasoning  string `json:"reasoning"`
}

// rank orders candidate questions by information value and truncates
// to the cap. The model picks the order; when it fails, the least
// confident segments go first. Either way each segment appears at most
// once.
func (s *dialogueService) rank(ctx context.Context, candidates []domain.ClarificationQuestion) []domain.ClarificationQuestion {
	byID := make(map[int]domain.ClarificationQuestion, len(candidates))
	var listing strings.Builder
	for _, c := range candidates {
		byID[c.SegmentID] = c
		fmt.Fprintf(&listing, "- segment %d: %s (confidence %.2f): %s\n", c.SegmentID, c.FoodName, c.Confidence, c.Question)
	}

	prompt := fmt.Sprintf(`These clarification questions are candidates to put to the user about
their meal photo. Order them so the most valuable questions come first:
prefer questions that change the nutrition outcome the most.

Candidates:
%s
Reply with JSON only:
{"segment_ids": [<ordered ids, best first>], "reasoning": "<one sentence>"}`, listing.String())

	ordered := make([]domain.ClarificationQuestion, 0, s.maxQuestions)
	seen := make(map[int]bool)

	out, err := s.model.Complete(ctx, port.ChatInput{Prompt: prompt, MaxTokens: 512})
	if err == nil {
		var reply rankReply
		if derr := llm.DecodeJSON(out.Text, &reply); derr == nil {
			for _, id := range reply.SegmentIDs {
				q, ok := byID[id]
				if !ok || seen[id] {
					continue
				}
				seen[id] = true
				ordered = append(ordered, q)
				if len(ordered) == s.maxQuestions {
					return ordered
				}
			}
		}
	}
	if err != nil {
		log.Printf("service.dialogueService: ranking model failed, falling back to confidence order: %v", err)
	}

	// Deterministic fallback, and top-up when the model returned fewer
	// ids than the cap.
	rest := make([]domain.ClarificationQuestion, 0, len(candidates))
	for _, c := range candidates {
		if !seen[c.SegmentID] {
			rest = append(rest, c)
		}
	}
	sort.SliceStable(rest, func(i, j int) bool { return rest[i].Confidence < rest[j].Confidence })
	for _, c := range rest {
		if len(ordered) == s.maxQuestions {
			break
		}
		ordered = append(ordered, c)
	}
	return ordered
}

// batchPrompt renders the selected questions as one numbered block so
// the user can answer them all in a single reply.
func batchPrompt(questions []domain.ClarificationQuestion) string {
	var sb strings.Builder
	sb.WriteString("Please answer the following questions about your meal (one reply covering all of them):\n")
	for i, q := range questions {
		fmt.Fprintf(&sb, "%d. [%s] %s\n", i+1, q.FoodName, q.Question)
	}
	return sb.String()
}

type bulkAnswersReply struct {
	Answers map[string]string `json:"answers"`
}

// parseBulkAnswers maps the user's single free-form reply back onto
// the individual questions. The model does the attribution; when it
// fails, or skips a question, that question simply goes unanswered and
// the original identification stands.
func (s *dialogueService) parseBulkAnswers(ctx context.Context, questions []domain.ClarificationQuestion, bulk string) []askedQuestion {
	if strings.TrimSpace(bulk) == "" {
		return nil
	}

	var listing strings.Builder
	for _, q := range questions {
		fmt.Fprintf(&listing, "- segment %d (%s): %s\n", q.SegmentID, q.FoodName, q.Question)
	}

	prompt := fmt.Sprintf(`The user was asked several questions about their meal and gave one
combined reply. Extract the answer to each question from the reply.

Questions:
%s
User reply: %q

Use null for questions the reply does not address.
Reply with JSON only:
{"answers": {"<segment id>": "<answer or null>", ...}}`, listing.String(), bulk)

	out, err := s.model.Complete(ctx, port.ChatInput{Prompt: prompt, MaxTokens: 1024})
	if err != nil {
		log.Printf("service.dialogueService: bulk answer parsing failed, keeping original identifications: %v", err)
		return nil
	}
	var reply bulkAnswersReply
	if err := llm.DecodeJSON(out.Text, &reply); err != nil {
		log.Printf("service.dialogueService: bulk answer parsing failed, keeping original identifications: %v", err)
		return nil
	}

	var asked []askedQuestion
	for _, q := range questions {
		answer, ok := reply.Answers[strconv.Itoa(q.SegmentID)]
		if !ok || strings.TrimSpace(answer) == "" || strings.EqualFold(answer, "null") {
			continue
		}
		asked = append(asked, askedQuestion{question: q, answer: answer})
	}
	return asked
}

type mergeReply struct {
	FinalFoodName  string            `json:"final_food_name"`
	Clarifications map[string]string `json:"clarifications"`
}

// merge folds user answers into the confirmed foods. Answers refine
// the identification but never silently discard it: when the merge
// model is unavailable the original name stands and the raw answer is
// kept alongside it.
func (s *dialogueService) merge(ctx context.Context, analyses []domain.SegmentAnalysis, asked []askedQuestion) []domain.ConfirmedFood {
	answersByID := make(map[int]askedQuestion, len(asked))
	for _, aq := range asked {
		answersByID[aq.question.SegmentID] = aq
	}

	confirmed := make([]domain.ConfirmedFood, 0, len(analyses))
	for _, a := range analyses {
		food := domain.ConfirmedFood{
			SegmentID:     a.SegmentID,
			FinalFoodName: a.FoodName,
			VolumeLitres:  a.OriginalVolumeLitres,
		}

		aq, hasAnswer := answersByID[a.SegmentID]
		if hasAnswer {
			food.QuestionAsked = aq.question.Question
			food.UserResponse = aq.answer

			merged, err := s.mergeOne(ctx, a, aq)
			if err != nil {
				log.Printf("service.dialogueService: merge failed for segment %d, keeping original name: %v", a.SegmentID, err)
			} else {
				if merged.FinalFoodName != "" {
					food.FinalFoodName = merged.FinalFoodName
				}
				food.Clarifications = merged.Clarifications
			}
		}

		confirmed = append(confirmed, food)
	}
	return confirmed
}

func (s *dialogueService) mergeOne(ctx context.Context, a domain.SegmentAnalysis, aq askedQuestion) (*mergeReply, error) {
	prompt := fmt.Sprintf(`A food was identified as %q (confidence %.2f).
The user was asked: %q
The user answered: %q

Fold the answer into the identification. The answer refines the name,
it does not replace the observation; if the answer contradicts what the
image clearly shows, keep the identified food and note the conflict.

Reply with JSON only:
{"final_food_name": "<refined name>",
 "clarifications": {"<aspect>": "<what the answer settled>"}}`,
		a.FoodName, a.Confidence, aq.question.Question, aq.answer)

	out, err := s.model.Complete(ctx, port.ChatInput{Prompt: prompt, MaxTokens: 1024})
	if err != nil {
		return nil, err
	}
	var reply mergeReply
	if err := llm.DecodeJSON(out.Text, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

type refineReply struct {
	Updates []struct {
		SegmentID int    `json:"segment_id"`
		NewName   string `json:"new_name"`
		Changed   bool   `json:"changed"`
	} `json:"updates"`
}

// collectSuggestions gives the user one last chance to volunteer
// details no question covered, and applies any resulting renames in
// place. The user's own words are returned so later stages can see
// them too. Failures here never lose a confirmation.
func (s *dialogueService) collectSuggestions(ctx context.Context, confirmed []domain.ConfirmedFood) string {
	suggestions, err := s.answers.Ask(ctx, "Any additional details you'd like to add about the meal? (ingredients, preparation, brands; leave empty to skip)")
	if err != nil {
		log.Printf("service.dialogueService: suggestion prompt failed, skipping refinement: %v", err)
		return ""
	}
	suggestions = strings.TrimSpace(suggestions)
	if suggestions == "" {
		return ""
	}

	var listing strings.Builder
	for _, c := range confirmed {
		fmt.Fprintf(&listing, "- segment %d: %s\n", c.SegmentID, c.FinalFoodName)
	}

	prompt := fmt.Sprintf(`The user added details about their meal after confirmation.

Confirmed foods:
%s
User details: %q

Update food names only where the details actually change them.
Reply with JSON only:
{"updates": [{"segment_id": <id>, "new_name": "<name>", "changed": true|false}, ...]}`,
		listing.String(), suggestions)

	out, err := s.model.Complete(ctx, port.ChatInput{Prompt: prompt, MaxTokens: 1024})
	if err != nil {
		log.Printf("service.dialogueService: suggestion refinement failed, keeping confirmed names: %v", err)
		return suggestions
	}
	var reply refineReply
	if err := llm.DecodeJSON(out.Text, &reply); err != nil {
		log.Printf("service.dialogueService: suggestion refinement failed, keeping confirmed names: %v", err)
		return suggestions
	}

	byID := make(map[int]int, len(confirmed))
	for i, c := range confirmed {
		byID[c.SegmentID] = i
	}
	for _, u := range reply.Updates {
		if !u.Changed || u.NewName == "" {
			continue
		}
		i, ok := byID[u.SegmentID]
		if !ok {
			continue
		}
		log.Printf("service.dialogueService: segment %d renamed %q -> %q from user details", u.SegmentID, confirmed[i].FinalFoodName, u.NewName)
		confirmed[i].FinalFoodName = u.NewName
	}
	return suggestions
}
