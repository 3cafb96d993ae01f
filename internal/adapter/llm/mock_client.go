package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MockClient is an offline LLMClient. On a fresh user turn with tools
// offered it asks for the doctor directory; otherwise it replies with text
// that echoes the latest tool result or user message.
type MockClient struct{}

// NewMockClient creates a new mock LLM client.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// CreateChatCompletion returns a mock response.
func (m *MockClient) CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	msg := &ChatMessage{Role: RoleAssistant}
	finish := "stop"
	if len(req.Tools) > 0 && !toolResultSinceLastUser(req.Messages) {
		msg.ToolCalls = []ToolCall{{
			ID:       "call_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12],
			Type:     "function",
			Function: ToolCallFunction{Name: req.Tools[0].Function.Name, Arguments: "{}"},
		}}
		finish = "tool_calls"
	} else {
		msg.Content = m.generateMockResponse(req)
	}

	completion := len(msg.Content) / 4
	return &ChatCompletionResponse{
		ID:      fmt.Sprintf("mock-chatcmpl-%d", time.Now().UnixNano()),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   req.Model,
		Choices: []Choice{{Index: 0, Message: msg, FinishReason: finish}},
		Usage: &Usage{
			PromptTokens:     m.estimateTokens(req),
			CompletionTokens: completion,
			TotalTokens:      m.estimateTokens(req) + completion,
		},
	}, nil
}

func toolResultSinceLastUser(messages []ChatMessage) bool {
	for i := len(messages) - 1; i >= 0; i-- {
		switch messages[i].Role {
		case RoleTool:
			return true
		case RoleUser:
			return false
		}
	}
	return false
}

// generateMockResponse generates a mock response based on the request.
func (m *MockClient) generateMockResponse(req *ChatCompletionRequest) string {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		msg := req.Messages[i]
		switch msg.Role {
		case RoleTool:
			return fmt.Sprintf("[MOCK] Tool %s returned: %s", msg.Name, truncate(msg.Content, 200))
		case RoleUser:
			return fmt.Sprintf("[MOCK] Received your message: %q. This is a mock response.", truncate(msg.Content, 100))
		}
	}
	return "[MOCK] This is a mock response from the LLM client."
}

// estimateTokens provides a rough token count estimate.
func (m *MockClient) estimateTokens(req *ChatCompletionRequest) int {
	total := 0
	for _, msg := range req.Messages {
		total += len(msg.Content) / 4
	}
	return total
}

// truncate truncates a string to the given length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
