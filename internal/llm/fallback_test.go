package llm_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"calai/internal/llm"
	"calai/internal/port"
	"calai/mocks"
)

func fallbackOutput(model string) *port.ChatOutput {
	return &port.ChatOutput{Text: `{"ok":true}`, ModelUsed: model}
}

func chatInput() port.ChatInput {
	return port.ChatInput{Prompt: "identify the foods in this photo"}
}

func TestFallbackModel_FirstSucceeds(t *testing.T) {
	m1 := new(mocks.MockChatModel)
	m2 := new(mocks.MockChatModel)
	m3 := new(mocks.MockChatModel)

	input := chatInput()
	m1.On("Complete", mock.Anything, input).Return(fallbackOutput("claude"), nil)

	fm := llm.NewFallbackModel(
		[]port.ChatModel{m1, m2, m3},
		[]string{"claude", "gemini", "openai"},
	)

	result, err := fm.Complete(context.Background(), input)

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, "claude", result.ModelUsed)
	m2.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
	m3.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestFallbackModel_FirstFails_SecondSucceeds(t *testing.T) {
	m1 := new(mocks.MockChatModel)
	m2 := new(mocks.MockChatModel)

	input := chatInput()
	m1.On("Complete", mock.Anything, input).Return(nil, errors.New("generic error"))
	m2.On("Complete", mock.Anything, input).Return(fallbackOutput("gemini"), nil)

	fm := llm.NewFallbackModel(
		[]port.ChatModel{m1, m2},
		[]string{"claude", "gemini"},
	)

	result, err := fm.Complete(context.Background(), input)

	assert.NoError(t, err)
	assert.Equal(t, "gemini", result.ModelUsed)
}

func TestFallbackModel_TwoRateLimited_ThirdSucceeds(t *testing.T) {
	m1 := new(mocks.MockChatModel)
	m2 := new(mocks.MockChatModel)
	m3 := new(mocks.MockChatModel)

	input := chatInput()
	m1.On("Complete", mock.Anything, input).Return(nil, llm.NewRateLimitError("claude", errors.New("429"), 60))
	m2.On("Complete", mock.Anything, input).Return(nil, llm.NewRateLimitError("gemini", errors.New("429"), 30))
	m3.On("Complete", mock.Anything, input).Return(fallbackOutput("openai"), nil)

	fm := llm.NewFallbackModel(
		[]port.ChatModel{m1, m2, m3},
		[]string{"claude", "gemini", "openai"},
	)

	result, err := fm.Complete(context.Background(), input)

	assert.NoError(t, err)
	assert.Equal(t, "openai", result.ModelUsed)
}

func TestFallbackModel_AllRateLimited(t *testing.T) {
	m1 := new(mocks.MockChatModel)
	m2 := new(mocks.MockChatModel)

	input := chatInput()
	m1.On("Complete", mock.Anything, input).Return(nil, llm.NewRateLimitError("claude", errors.New("429"), 60))
	m2.On("Complete", mock.Anything, input).Return(nil, llm.NewRateLimitError("gemini", errors.New("429"), 30))

	fm := llm.NewFallbackModel(
		[]port.ChatModel{m1, m2},
		[]string{"claude", "gemini"},
	)

	result, err := fm.Complete(context.Background(), input)

	assert.Nil(t, result)
	assert.Error(t, err)

	var rlErr *llm.RateLimitError
	require.True(t, errors.As(err, &rlErr))
	assert.Equal(t, "all", rlErr.Provider)
}

func TestFallbackModel_AllFail_NonRateLimit(t *testing.T) {
	m1 := new(mocks.MockChatModel)
	m2 := new(mocks.MockChatModel)

	input := chatInput()
	m1.On("Complete", mock.Anything, input).Return(nil, errors.New("error 1"))
	m2.On("Complete", mock.Anything, input).Return(nil, errors.New("error 2"))

	fm := llm.NewFallbackModel(
		[]port.ChatModel{m1, m2},
		[]string{"claude", "gemini"},
	)

	result, err := fm.Complete(context.Background(), input)

	assert.Nil(t, result)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "all providers failed")

	var rlErr *llm.RateLimitError
	assert.False(t, errors.As(err, &rlErr))
}

func TestFallbackModel_CircuitAutoCloses(t *testing.T) {
	m1 := new(mocks.MockChatModel)
	m2 := new(mocks.MockChatModel)

	input := chatInput()

	// First call: m1 rate limited with 1s retry, m2 succeeds
	m1.On("Complete", mock.Anything, input).Return(nil, llm.NewRateLimitError("claude", errors.New("429"), 1)).Once()
	m2.On("Complete", mock.Anything, input).Return(fallbackOutput("gemini"), nil).Once()

	fm := llm.NewFallbackModel(
		[]port.ChatModel{m1, m2},
		[]string{"claude", "gemini"},
	)

	result, err := fm.Complete(context.Background(), input)
	assert.NoError(t, err)
	assert.Equal(t, "gemini", result.ModelUsed)

	// Wait out the cooldown window
	time.Sleep(1100 * time.Millisecond)

	// Second call: m1 should be retried and succeed
	m1.On("Complete", mock.Anything, input).Return(fallbackOutput("claude"), nil).Once()

	result, err = fm.Complete(context.Background(), input)
	assert.NoError(t, err)
	assert.Equal(t, "claude", result.ModelUsed)
}

func TestFallbackModel_SkipsOpenCircuit(t *testing.T) {
	m1 := new(mocks.MockChatModel)
	m2 := new(mocks.MockChatModel)

	input := chatInput()

	// First call: m1 rate limited with 60s, m2 succeeds
	m1.On("Complete", mock.Anything, input).Return(nil, llm.NewRateLimitError("claude", errors.New("429"), 60)).Once()
	m2.On("Complete", mock.Anything, input).Return(fallbackOutput("gemini"), nil)

	fm := llm.NewFallbackModel(
		[]port.ChatModel{m1, m2},
		[]string{"claude", "gemini"},
	)

	_, err := fm.Complete(context.Background(), input)
	require.NoError(t, err)

	// Second call: m1 is still cooling down, so only m2 runs
	result, err := fm.Complete(context.Background(), input)
	assert.NoError(t, err)
	assert.Equal(t, "gemini", result.ModelUsed)
	m1.AssertNumberOfCalls(t, "Complete", 1)
}
