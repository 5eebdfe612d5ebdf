package enrich

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/directory-cli/internal/config"
	"github.com/sells-group/directory-cli/internal/model"
	"github.com/sells-group/directory-cli/pkg/anthropic"
)

type mockAnthropicClient struct {
	mock.Mock
}

func (m *mockAnthropicClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

var _ anthropic.Client = (*mockAnthropicClient)(nil)

func testCfg() config.AnthropicConfig {
	return config.AnthropicConfig{
		Model:          "claude-haiku-4-5-20251001",
		MaxTokens:      1024,
		RequestsPerSec: 1000, // don't throttle tests
		TimeoutSecs:    5,
	}
}

func TestParseSuggestions(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantFields map[string]string
		wantAdj    int
		wantIssues []string
	}{
		{
			name:       "plain object",
			text:       `{"suggested_phone": "555-123-4567", "confidence_adjustment": 5}`,
			wantFields: map[string]string{"phone": "555-123-4567"},
			wantAdj:    5,
		},
		{
			name:       "fenced json",
			text:       "```json\n{\"suggested_zip\": \"62704\"}\n```",
			wantFields: map[string]string{"zip": "62704"},
		},
		{
			name:       "surrounding prose",
			text:       `Here are my findings: {"suggested_email": "jane@clinic.com", "issues_found": ["email domain typo"]} Hope that helps.`,
			wantFields: map[string]string{"email": "jane@clinic.com"},
			wantIssues: []string{"email domain typo"},
		},
		{
			name:       "adjustment clamped",
			text:       `{"confidence_adjustment": 90}`,
			wantFields: map[string]string{},
			wantAdj:    maxAdjustment,
		},
		{
			name:       "negative adjustment clamped",
			text:       `{"confidence_adjustment": -45.7}`,
			wantFields: map[string]string{},
			wantAdj:    -maxAdjustment,
		},
		{
			name:       "empty suggested values dropped",
			text:       `{"suggested_phone": "", "suggested_city": "Springfield"}`,
			wantFields: map[string]string{"city": "Springfield"},
		},
		{
			name:       "garbage yields empty set",
			text:       "I could not produce JSON, sorry.",
			wantFields: map[string]string{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseSuggestions(tc.text)
			assert.Equal(t, tc.wantFields, got.Fields)
			assert.Equal(t, tc.wantAdj, got.Adjustment)
			assert.Equal(t, tc.wantIssues, got.Issues)
		})
	}
}

func TestSuggestCorrections(t *testing.T) {
	ai := &mockAnthropicClient{}
	ai.On("CreateMessage", mock.Anything, mock.AnythingOfType("anthropic.MessageRequest")).
		Return(&anthropic.MessageResponse{
			Content: []anthropic.ContentBlock{{Type: "text", Text: `{"suggested_state": "IL", "confidence_adjustment": 3}`}},
			Usage:   anthropic.TokenUsage{InputTokens: 100, OutputTokens: 20},
		}, nil)

	client := New(ai, testCfg())
	got, err := client.SuggestCorrections(context.Background(), &model.Provider{Name: "Jane Smith", State: "Illinois"})

	require.NoError(t, err)
	assert.Equal(t, map[string]string{"state": "IL"}, got.Fields)
	assert.Equal(t, 3, got.Adjustment)
	ai.AssertExpectations(t)
}

func TestSuggestCorrections_TransportError(t *testing.T) {
	ai := &mockAnthropicClient{}
	ai.On("CreateMessage", mock.Anything, mock.AnythingOfType("anthropic.MessageRequest")).
		Return(nil, assert.AnError)

	client := New(ai, testCfg())
	got, err := client.SuggestCorrections(context.Background(), &model.Provider{Name: "Jane Smith"})

	assert.Error(t, err)
	assert.Nil(t, got)
}

func TestStubClient(t *testing.T) {
	stub := &StubClient{}

	got, err := stub.SuggestCorrections(context.Background(), &model.Provider{Phone: "123"})
	require.NoError(t, err)
	assert.Equal(t, "555-000-0000", got.Fields["phone"])

	got, err = stub.SuggestCorrections(context.Background(), &model.Provider{Phone: "555-123-4567"})
	require.NoError(t, err)
	assert.Empty(t, got.Fields)
}
