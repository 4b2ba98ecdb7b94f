package openai

import (
	"context"
	"errors"
	"testing"

	"github.com/lumenpay/invoiceflow/graph/model"
)

func TestNewChatModel_DefaultsModelName(t *testing.T) {
	m := NewChatModel("test-api-key", "")
	if m.modelName != "gpt-4o" {
		t.Errorf("expected default model gpt-4o, got %q", m.modelName)
	}
}

func TestChat_ReturnsTextAndToolCalls(t *testing.T) {
	mockClient := &mockOpenAIClient{
		response: "Hello! How can I help you?",
		toolCalls: []model.ToolCall{
			{Name: "search", Input: map[string]interface{}{"query": "test"}},
		},
	}
	m := &ChatModel{client: mockClient, modelName: "gpt-4o"}

	out, err := m.Chat(context.Background(), []model.Message{
		{Role: model.RoleSystem, Content: "You are helpful."},
		{Role: model.RoleUser, Content: "Hi there!"},
	}, nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out.Text != "Hello! How can I help you?" {
		t.Errorf("unexpected text: %q", out.Text)
	}
	if len(out.ToolCalls) != 1 || out.ToolCalls[0].Name != "search" {
		t.Errorf("expected one search tool call, got %+v", out.ToolCalls)
	}
	if mockClient.callCount != 1 {
		t.Errorf("expected 1 API call, got %d", mockClient.callCount)
	}
}

func TestChat_RespectsContextCancellation(t *testing.T) {
	m := &ChatModel{client: &mockOpenAIClient{response: "unused"}, modelName: "gpt-4o"}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Chat(ctx, []model.Message{{Role: model.RoleUser, Content: "Test"}}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestChat_RequiresAPIKey(t *testing.T) {
	m := NewChatModel("", "gpt-4o")
	_, err := m.Chat(context.Background(), []model.Message{{Role: model.RoleUser, Content: "Test"}}, nil)
	if err == nil {
		t.Error("expected error for empty API key")
	}
}

func TestChat_RetriesTransientErrorsThenSucceeds(t *testing.T) {
	mockClient := &mockOpenAIClient{
		errors:   []error{errors.New("temporary network error"), errors.New("timeout"), nil},
		response: "Success after retries",
	}
	m := &ChatModel{client: mockClient, modelName: "gpt-4o", maxRetries: 3}

	out, err := m.Chat(context.Background(), []model.Message{{Role: model.RoleUser, Content: "Test"}}, nil)
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if out.Text != "Success after retries" {
		t.Errorf("unexpected text: %q", out.Text)
	}
	if mockClient.callCount != 3 {
		t.Errorf("expected 3 attempts, got %d", mockClient.callCount)
	}
}

func TestChat_DoesNotRetryNonTransientErrors(t *testing.T) {
	mockClient := &mockOpenAIClient{err: errors.New("invalid API key")}
	m := &ChatModel{client: mockClient, modelName: "gpt-4o", maxRetries: 3}

	_, err := m.Chat(context.Background(), []model.Message{{Role: model.RoleUser, Content: "Test"}}, nil)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if mockClient.callCount != 1 {
		t.Errorf("expected 1 attempt (no retries), got %d", mockClient.callCount)
	}
}

func TestChat_StopsAtMaxRetriesOnRateLimit(t *testing.T) {
	mockClient := &mockOpenAIClient{err: &rateLimitError{message: "rate limit"}}
	m := &ChatModel{client: mockClient, modelName: "gpt-4o", maxRetries: 2}

	_, err := m.Chat(context.Background(), []model.Message{{Role: model.RoleUser, Content: "Test"}}, nil)
	if err == nil {
		t.Fatal("expected error after max retries, got nil")
	}
	if mockClient.callCount != 3 {
		t.Errorf("expected 3 attempts (initial + 2 retries), got %d", mockClient.callCount)
	}
}

func TestParseToolInput_FallsBackToRawOnInvalidJSON(t *testing.T) {
	got := parseToolInput("not json")
	if got["_raw"] != "not json" {
		t.Errorf("expected _raw fallback, got %+v", got)
	}
}

func TestParseToolInput_DecodesValidJSON(t *testing.T) {
	got := parseToolInput(`{"location":"Paris"}`)
	if got["location"] != "Paris" {
		t.Errorf("expected decoded location, got %+v", got)
	}
}

type mockOpenAIClient struct {
	response     string
	toolCalls    []model.ToolCall
	err          error
	errors       []error
	callCount    int
	lastMessages []model.Message
}

func (m *mockOpenAIClient) createChatCompletion(_ context.Context, messages []model.Message, _ []model.ToolSpec) (model.ChatOut, error) {
	m.callCount++
	m.lastMessages = messages

	if len(m.errors) > 0 {
		if m.callCount <= len(m.errors) {
			if err := m.errors[m.callCount-1]; err != nil {
				return model.ChatOut{}, err
			}
		}
	} else if m.err != nil {
		return model.ChatOut{}, m.err
	}

	return model.ChatOut{Text: m.response, ToolCalls: m.toolCalls}, nil
}
