package service_test

import (
	"context"
	"errors"
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

func dialogueConfig() *config.PipelineConfig {
	return &config.PipelineConfig{MaxQuestions: 3, ConfidenceThreshold: 0.95}
}

func rankPrompt(input port.ChatInput) bool {
	return strings.Contains(input.Prompt, "clarification questions are candidates")
}

func bulkParsePrompt(input port.ChatInput) bool {
	return strings.Contains(input.Prompt, "combined reply")
}

func mergePrompt(input port.ChatInput) bool {
	return strings.Contains(input.Prompt, "Fold the answer")
}

func refinePrompt(input port.ChatInput) bool {
	return strings.Contains(input.Prompt, "added details about their meal")
}

func questionAsk(q string) bool {
	return strings.Contains(q, "Please answer the following")
}

func suggestionAsk(q string) bool {
	return strings.Contains(q, "additional details")
}

func TestDialogueConfirm_NoQuestionsWhenConfident(t *testing.T) {
	model := new(mocks.MockChatModel)
	answers := new(mocks.MockAnswerSource)
	answers.On("Ask", mock.Anything, mock.MatchedBy(suggestionAsk)).Return("", nil)
	svc := service.NewDialogueService(model, answers, dialogueConfig())

	analyses := []domain.SegmentAnalysis{
		{SegmentID: 1, FoodName: "steamed rice", Confidence: 0.98, OriginalVolumeLitres: 0.2},
		{SegmentID: 2, FoodName: "dal", Confidence: 0.97, OriginalVolumeLitres: 0.15},
	}

	confirmed, suggestions, err := svc.Confirm(context.Background(), analyses)

	require.NoError(t, err)
	require.Len(t, confirmed, 2)
	assert.Equal(t, "steamed rice", confirmed[0].FinalFoodName)
	assert.Equal(t, 0.2, confirmed[0].VolumeLitres)
	assert.Empty(t, suggestions)

	// Only the final details prompt goes out; no clarification questions.
	answers.AssertNumberOfCalls(t, "Ask", 1)
	model.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestDialogueConfirm_AsksAllQuestionsInOneBatch(t *testing.T) {
	model := new(mocks.MockChatModel)
	// Ranking, parsing, and merging all unavailable; the deterministic
	// order takes over and the original identifications stand.
	model.On("Complete", mock.Anything, mock.Anything).Return(nil, errors.New("model down"))

	answers := new(mocks.MockAnswerSource)
	answers.On("Ask", mock.Anything, mock.MatchedBy(questionAsk)).Return("all fine", nil)
	answers.On("Ask", mock.Anything, mock.MatchedBy(suggestionAsk)).Return("", nil)

	svc := service.NewDialogueService(model, answers, dialogueConfig())

	analyses := []domain.SegmentAnalysis{
		{SegmentID: 1, FoodName: "a", Confidence: 0.5},
		{SegmentID: 2, FoodName: "b", Confidence: 0.4},
		{SegmentID: 3, FoodName: "c", Confidence: 0.3},
		{SegmentID: 4, FoodName: "d", Confidence: 0.2},
		{SegmentID: 5, FoodName: "e", Confidence: 0.1},
	}

	confirmed, _, err := svc.Confirm(context.Background(), analyses)

	require.NoError(t, err)
	assert.Len(t, confirmed, 5)

	// One batched prompt plus the details prompt, never one Ask per
	// question.
	answers.AssertNumberOfCalls(t, "Ask", 2)

	// Capped at three, least confident first: segments 5, 4, 3.
	batch := answers.Calls[0].Arguments.String(1)
	assert.Contains(t, batch, "1. [e]")
	assert.Contains(t, batch, "2. [d]")
	assert.Contains(t, batch, "3. [c]")
	assert.NotContains(t, batch, "[b]")

	// Bulk parsing was unavailable, so no answer is attributed to any
	// segment and the original names stand.
	assert.Equal(t, "e", confirmed[4].FinalFoodName)
	assert.Empty(t, confirmed[4].UserResponse)
}

func TestDialogueConfirm_BulkAnswerAttributedPerSegment(t *testing.T) {
	model := new(mocks.MockChatModel)
	model.On("Complete", mock.Anything, mock.MatchedBy(rankPrompt)).Return(&port.ChatOutput{
		Text: `{"segment_ids": [2, 1], "reasoning": "curry identity matters most"}`,
	}, nil)
	model.On("Complete", mock.Anything, mock.MatchedBy(bulkParsePrompt)).Return(&port.ChatOutput{
		Text: `{"answers": {"2": "paneer", "1": "null"}}`,
	}, nil)
	model.On("Complete", mock.Anything, mock.MatchedBy(mergePrompt)).Return(nil, errors.New("merge down"))
	model.On("Complete", mock.Anything, mock.MatchedBy(refinePrompt)).Return(nil, errors.New("refine down"))

	answers := new(mocks.MockAnswerSource)
	answers.On("Ask", mock.Anything, mock.MatchedBy(questionAsk)).Return("the curry is paneer, not sure about the bread", nil)
	answers.On("Ask", mock.Anything, mock.MatchedBy(suggestionAsk)).Return("", nil)

	svc := service.NewDialogueService(model, answers, dialogueConfig())

	analyses := []domain.SegmentAnalysis{
		{SegmentID: 1, FoodName: "flatbread", Confidence: 0.6, MostImportantQuestion: "Is this naan or roti?"},
		{SegmentID: 2, FoodName: "curry", Confidence: 0.5, MostImportantQuestion: "Is this paneer or tofu?"},
	}

	confirmed, _, err := svc.Confirm(context.Background(), analyses)

	require.NoError(t, err)
	require.Len(t, confirmed, 2)

	// Segment 2 got an answer out of the combined reply; segment 1's
	// "null" means unanswered.
	assert.Equal(t, "paneer", confirmed[1].UserResponse)
	assert.Equal(t, "Is this paneer or tofu?", confirmed[1].QuestionAsked)
	assert.Empty(t, confirmed[0].UserResponse)
	assert.Empty(t, confirmed[0].QuestionAsked)
}

func TestDialogueConfirm_MergeRefinesName(t *testing.T) {
	model := new(mocks.MockChatModel)
	model.On("Complete", mock.Anything, mock.MatchedBy(rankPrompt)).Return(&port.ChatOutput{
		Text: `{"segment_ids": [1], "reasoning": "only one candidate"}`,
	}, nil)
	model.On("Complete", mock.Anything, mock.MatchedBy(bulkParsePrompt)).Return(&port.ChatOutput{
		Text: `{"answers": {"1": "it's basmati"}}`,
	}, nil)
	model.On("Complete", mock.Anything, mock.MatchedBy(mergePrompt)).Return(&port.ChatOutput{
		Text: `{"final_food_name": "basmati rice", "clarifications": {"variety": "basmati"}}`,
	}, nil)

	answers := new(mocks.MockAnswerSource)
	answers.On("Ask", mock.Anything, mock.MatchedBy(questionAsk)).Return("it's basmati", nil)
	answers.On("Ask", mock.Anything, mock.MatchedBy(suggestionAsk)).Return("", nil)

	svc := service.NewDialogueService(model, answers, dialogueConfig())

	analyses := []domain.SegmentAnalysis{
		{SegmentID: 1, FoodName: "white rice", Confidence: 0.7, MostImportantQuestion: "What kind of rice is this?", OriginalVolumeLitres: 0.2},
	}

	confirmed, suggestions, err := svc.Confirm(context.Background(), analyses)

	require.NoError(t, err)
	require.Len(t, confirmed, 1)
	assert.Equal(t, "basmati rice", confirmed[0].FinalFoodName)
	assert.Equal(t, "What kind of rice is this?", confirmed[0].QuestionAsked)
	assert.Equal(t, "it's basmati", confirmed[0].UserResponse)
	assert.Equal(t, map[string]string{"variety": "basmati"}, confirmed[0].Clarifications)
	assert.Empty(t, suggestions)
}

func TestDialogueConfirm_UserDetailsRefineConfirmedNames(t *testing.T) {
	model := new(mocks.MockChatModel)
	model.On("Complete", mock.Anything, mock.MatchedBy(refinePrompt)).Return(&port.ChatOutput{
		Text: `{"updates": [{"segment_id": 1, "new_name": "ghee rice", "changed": true}, {"segment_id": 2, "changed": false}]}`,
	}, nil)

	answers := new(mocks.MockAnswerSource)
	answers.On("Ask", mock.Anything, mock.MatchedBy(suggestionAsk)).Return("the rice was cooked in ghee", nil)

	svc := service.NewDialogueService(model, answers, dialogueConfig())

	analyses := []domain.SegmentAnalysis{
		{SegmentID: 1, FoodName: "steamed rice", Confidence: 0.98, OriginalVolumeLitres: 0.2},
		{SegmentID: 2, FoodName: "dal", Confidence: 0.97, OriginalVolumeLitres: 0.15},
	}

	confirmed, suggestions, err := svc.Confirm(context.Background(), analyses)

	require.NoError(t, err)
	require.Len(t, confirmed, 2)
	assert.Equal(t, "ghee rice", confirmed[0].FinalFoodName)
	assert.Equal(t, "dal", confirmed[1].FinalFoodName)

	// The suggestions come from the user, not the model.
	assert.Equal(t, "the rice was cooked in ghee", suggestions)
}

func TestDialogueConfirm_RefinementFailureKeepsNames(t *testing.T) {
	model := new(mocks.MockChatModel)
	model.On("Complete", mock.Anything, mock.MatchedBy(refinePrompt)).Return(nil, errors.New("model down"))

	answers := new(mocks.MockAnswerSource)
	answers.On("Ask", mock.Anything, mock.MatchedBy(suggestionAsk)).Return("extra cheese on top", nil)

	svc := service.NewDialogueService(model, answers, dialogueConfig())

	confirmed, suggestions, err := svc.Confirm(context.Background(), []domain.SegmentAnalysis{
		{SegmentID: 1, FoodName: "pizza slice", Confidence: 0.99, OriginalVolumeLitres: 0.3},
	})

	require.NoError(t, err)
	require.Len(t, confirmed, 1)
	assert.Equal(t, "pizza slice", confirmed[0].FinalFoodName)
	assert.Equal(t, "extra cheese on top", suggestions)
}

func TestDialogueConfirm_AnswerFailureAborts(t *testing.T) {
	model := new(mocks.MockChatModel)
	model.On("Complete", mock.Anything, mock.Anything).Return(nil, errors.New("model down"))

	answers := new(mocks.MockAnswerSource)
	answers.On("Ask", mock.Anything, mock.Anything).Return("", domain.ErrAnswerTimeout)

	svc := service.NewDialogueService(model, answers, dialogueConfig())

	_, _, err := svc.Confirm(context.Background(), []domain.SegmentAnalysis{
		{SegmentID: 1, FoodName: "soup", Confidence: 0.4},
	})

	assert.ErrorIs(t, err, domain.ErrAnswerTimeout)
}
