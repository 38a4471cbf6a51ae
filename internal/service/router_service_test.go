package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"calai/internal/domain"
	"calai/internal/port"
	"calai/internal/service"
	"calai/mocks"
)

func TestRouterDecide_NoImage(t *testing.T) {
	model := new(mocks.MockChatModel)
	svc := service.NewRouterService(model)

	route, reason, err := svc.Decide(context.Background(), "how much protein should I eat?", false)

	require.NoError(t, err)
	assert.Equal(t, domain.RouteConversational, route)
	assert.Equal(t, "no image attached", reason)
	model.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestRouterDecide_ImageNoQuery(t *testing.T) {
	model := new(mocks.MockChatModel)
	svc := service.NewRouterService(model)

	route, _, err := svc.Decide(context.Background(), "   ", true)

	require.NoError(t, err)
	assert.Equal(t, domain.RoutePipeline, route)
	model.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestRouterDecide_ClassifierPipeline(t *testing.T) {
	model := new(mocks.MockChatModel)
	model.On("Complete", mock.Anything, mock.Anything).Return(&port.ChatOutput{
		Text: `{"route": "pipeline", "reasoning": "asks for calories of the pictured meal"}`,
	}, nil)

	svc := service.NewRouterService(model)
	route, reason, err := svc.Decide(context.Background(), "how many calories is this?", true)

	require.NoError(t, err)
	assert.Equal(t, domain.RoutePipeline, route)
	assert.Equal(t, "asks for calories of the pictured meal", reason)
}

func TestRouterDecide_ClassifierConversational(t *testing.T) {
	model := new(mocks.MockChatModel)
	model.On("Complete", mock.Anything, mock.Anything).Return(&port.ChatOutput{
		Text: `{"route": "conversational", "reasoning": "asking about the dish's origin"}`,
	}, nil)

	svc := service.NewRouterService(model)
	route, _, err := svc.Decide(context.Background(), "where is this dish from?", true)

	require.NoError(t, err)
	assert.Equal(t, domain.RouteConversational, route)
}

func TestRouterDecide_ClassifierFailureDefaultsConversational(t *testing.T) {
	model := new(mocks.MockChatModel)
	model.On("Complete", mock.Anything, mock.Anything).Return(nil, errors.New("model down"))

	svc := service.NewRouterService(model)
	route, reason, err := svc.Decide(context.Background(), "what do you think?", true)

	require.NoError(t, err)
	assert.Equal(t, domain.RouteConversational, route)
	assert.Equal(t, "classifier unavailable", reason)
}

func TestRouterDecide_UnparseableReplyDefaultsConversational(t *testing.T) {
	model := new(mocks.MockChatModel)
	model.On("Complete", mock.Anything, mock.Anything).Return(&port.ChatOutput{
		Text: "I would route this to the pipeline.",
	}, nil)

	svc := service.NewRouterService(model)
	route, _, err := svc.Decide(context.Background(), "analyze please", true)

	require.NoError(t, err)
	assert.Equal(t, domain.RouteConversational, route)
}
