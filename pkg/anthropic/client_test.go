package anthropic

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockClient implements Client for testing.
type MockClient struct {
	mock.Mock
}

func (m *MockClient) CreateMessage(ctx context.Context, req MessageRequest) (*MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*MessageResponse), args.Error(1)
}

func TestCreateMessage_MockClient(t *testing.T) {
	mc := new(MockClient)
	req := MessageRequest{
		Model:     "claude-haiku-4-5-20251001",
		MaxTokens: 2000,
		Messages:  []Message{{Role: "user", Content: "Hello"}},
	}
	mc.On("CreateMessage", mock.Anything, req).Return(&MessageResponse{
		Content: []ContentBlock{{Type: "text", Text: "Hi"}},
	}, nil)
	mc.On("CreateMessage", mock.Anything, mock.Anything).Return(nil, errors.New("boom"))

	resp, err := mc.CreateMessage(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "Hi", resp.Text())

	_, err = mc.CreateMessage(context.Background(), MessageRequest{Model: "other"})
	assert.Error(t, err)
}

func TestMessageResponse_TextSkipsNonText(t *testing.T) {
	r := &MessageResponse{Content: []ContentBlock{
		{Type: "thinking", Text: "hidden"},
		{Type: "text", Text: "visible"},
		{Type: "text", Text: ""},
	}}
	assert.Equal(t, "visible", r.Text())
}

func TestEstimateCost(t *testing.T) {
	u := TokenUsage{InputTokens: 1_000_000, OutputTokens: 1_000_000}
	assert.InDelta(t, 4.80, u.EstimateCost("claude-haiku-4-5-20251001"), 0.0001)
	assert.InDelta(t, 18.00, u.EstimateCost("claude-sonnet-4-5-20250929"), 0.0001)
	assert.Equal(t, 0.0, u.EstimateCost("unknown-model"))
}

func TestLogCost_DoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		TokenUsage{InputTokens: 10, OutputTokens: 5}.LogCost("claude-haiku-4-5-20251001", "draft")
	})
}
