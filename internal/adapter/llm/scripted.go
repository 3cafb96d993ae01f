package llm

import (
	"context"
	"errors"
	"sync"
)

// ErrScriptExhausted is returned when a ScriptedClient runs out of steps.
var ErrScriptExhausted = errors.New("scripted client: no more steps")

// Step produces one completion for a recorded request.
type Step func(req *ChatCompletionRequest) (*ChatCompletionResponse, error)

// ScriptedClient replays a fixed sequence of steps and records every request.
// The last step repeats when Repeat is set.
type ScriptedClient struct {
	mu       sync.Mutex
	steps    []Step
	next     int
	requests []ChatCompletionRequest
	Repeat   bool
}

// NewScriptedClient creates a client that answers with steps in order.
func NewScriptedClient(steps ...Step) *ScriptedClient {
	return &ScriptedClient{steps: steps}
}

// CreateChatCompletion records req and runs the next step.
func (s *ScriptedClient) CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error) {
	s.mu.Lock()
	snapshot := *req
	snapshot.Messages = append([]ChatMessage(nil), req.Messages...)
	snapshot.Tools = append([]Tool(nil), req.Tools...)
	s.requests = append(s.requests, snapshot)

	var step Step
	switch {
	case s.next < len(s.steps):
		step = s.steps[s.next]
		s.next++
	case s.Repeat && len(s.steps) > 0:
		step = s.steps[len(s.steps)-1]
	}
	s.mu.Unlock()

	if step == nil {
		return nil, ErrScriptExhausted
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return step(&snapshot)
}

// Requests returns the requests seen so far.
func (s *ScriptedClient) Requests() []ChatCompletionRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ChatCompletionRequest(nil), s.requests...)
}

// Reply answers with plain assistant text.
func Reply(content string) Step {
	return func(*ChatCompletionRequest) (*ChatCompletionResponse, error) {
		return &ChatCompletionResponse{
			Object:  "chat.completion",
			Choices: []Choice{{Message: &ChatMessage{Role: RoleAssistant, Content: content}, FinishReason: "stop"}},
		}, nil
	}
}

// CallTools answers with the given tool calls.
func CallTools(calls ...ToolCall) Step {
	return func(*ChatCompletionRequest) (*ChatCompletionResponse, error) {
		for i := range calls {
			if calls[i].Type == "" {
				calls[i].Type = "function"
			}
		}
		return &ChatCompletionResponse{
			Object:  "chat.completion",
			Choices: []Choice{{Message: &ChatMessage{Role: RoleAssistant, ToolCalls: calls}, FinishReason: "tool_calls"}},
		}, nil
	}
}

// Fail answers with err.
func Fail(err error) Step {
	return func(*ChatCompletionRequest) (*ChatCompletionResponse, error) {
		return nil, err
	}
}

// Call builds a tool call.
func Call(id, name, arguments string) ToolCall {
	return ToolCall{ID: id, Type: "function", Function: ToolCallFunction{Name: name, Arguments: arguments}}
}
