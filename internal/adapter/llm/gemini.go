package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// DefaultGeminiModel is used when no Gemini model is configured.
const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiClient adapts the Gemini API to the chat completion contract.
type GeminiClient struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGeminiClient creates a Gemini-backed client.
func NewGeminiClient(ctx context.Context, apiKey, model string, timeout time.Duration) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiClient{client: client, model: model, timeout: timeout}, nil
}

// Close releases the underlying connection.
func (g *GeminiClient) Close() error {
	return g.client.Close()
}

// CreateChatCompletion maps the request onto a Gemini chat session and sends the last turn.
func (g *GeminiClient) CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	model := g.client.GenerativeModel(g.model)
	if req.Temperature != nil {
		model.SetTemperature(float32(*req.Temperature))
	}
	if len(req.Tools) > 0 {
		model.Tools = toGeminiTools(req.Tools)
		model.ToolConfig = &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{Mode: genai.FunctionCallingAuto},
		}
	}

	system, contents, err := toGeminiContents(req.Messages)
	if err != nil {
		return nil, err
	}
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}
	if len(contents) == 0 {
		return nil, errors.New("gemini: request has no conversational content")
	}

	cs := model.StartChat()
	cs.History = contents[:len(contents)-1]
	last := contents[len(contents)-1]

	resp, err := cs.SendMessage(ctx, last.Parts...)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	return fromGeminiResponse(resp, g.model)
}

func toGeminiTools(tools []Tool) []*genai.Tool {
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		decl := &genai.FunctionDeclaration{
			Name:        t.Function.Name,
			Description: t.Function.Description,
		}
		if schema := toGeminiSchema(t.Function.Parameters); schema != nil && len(schema.Properties) > 0 {
			decl.Parameters = schema
		}
		decls = append(decls, decl)
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

// jsonSchema is the subset of JSON schema the tool definitions use.
type jsonSchema struct {
	Type        string                `json:"type"`
	Description string                `json:"description"`
	Properties  map[string]jsonSchema `json:"properties"`
	Required    []string              `json:"required"`
}

func toGeminiSchema(params interface{}) *genai.Schema {
	if params == nil {
		return nil
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return nil
	}
	var s jsonSchema
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	return convertSchema(s)
}

func convertSchema(s jsonSchema) *genai.Schema {
	out := &genai.Schema{
		Type:        geminiType(s.Type),
		Description: s.Description,
		Required:    s.Required,
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = convertSchema(prop)
		}
	}
	return out
}

func geminiType(t string) genai.Type {
	switch t {
	case "object":
		return genai.TypeObject
	case "integer":
		return genai.TypeInteger
	case "number":
		return genai.TypeNumber
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	default:
		return genai.TypeString
	}
}

// toGeminiContents folds leading system messages into the system instruction.
// Later system messages are sent as user text. Consecutive turns of the same
// role are merged since Gemini requires alternation.
func toGeminiContents(messages []ChatMessage) (string, []*genai.Content, error) {
	var system []string
	var contents []*genai.Content
	leading := true

	push := func(role string, parts ...genai.Part) {
		if len(parts) == 0 {
			return
		}
		if n := len(contents); n > 0 && contents[n-1].Role == role {
			contents[n-1].Parts = append(contents[n-1].Parts, parts...)
			return
		}
		contents = append(contents, &genai.Content{Role: role, Parts: parts})
	}

	for _, msg := range messages {
		if msg.Role == RoleSystem && leading {
			system = append(system, msg.Content)
			continue
		}
		leading = false

		switch msg.Role {
		case RoleSystem:
			push("user", genai.Text("[context]\n"+msg.Content))
		case RoleUser:
			push("user", genai.Text(msg.Content))
		case RoleAssistant:
			var parts []genai.Part
			if msg.Content != "" {
				parts = append(parts, genai.Text(msg.Content))
			}
			for _, call := range msg.ToolCalls {
				args := map[string]any{}
				if call.Function.Arguments != "" {
					if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
						return "", nil, fmt.Errorf("gemini: invalid arguments for %s: %w", call.Function.Name, err)
					}
				}
				parts = append(parts, genai.FunctionCall{Name: call.Function.Name, Args: args})
			}
			push("model", parts...)
		case RoleTool:
			push("user", genai.FunctionResponse{Name: msg.Name, Response: toolResponse(msg.Content)})
		default:
			return "", nil, fmt.Errorf("gemini: unsupported message role %q", msg.Role)
		}
	}
	return strings.Join(system, "\n\n"), contents, nil
}

func toolResponse(content string) map[string]any {
	var decoded any
	if err := json.Unmarshal([]byte(content), &decoded); err != nil {
		return map[string]any{"result": content}
	}
	if obj, ok := decoded.(map[string]any); ok {
		return obj
	}
	return map[string]any{"result": decoded}
}

func fromGeminiResponse(resp *genai.GenerateContentResponse, model string) (*ChatCompletionResponse, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errors.New("gemini: empty response")
	}
	cand := resp.Candidates[0]

	msg := &ChatMessage{Role: RoleAssistant}
	var text []string
	for _, part := range cand.Content.Parts {
		switch p := part.(type) {
		case genai.Text:
			text = append(text, string(p))
		case genai.FunctionCall:
			args, err := json.Marshal(p.Args)
			if err != nil {
				return nil, fmt.Errorf("gemini: encode call arguments: %w", err)
			}
			msg.ToolCalls = append(msg.ToolCalls, ToolCall{
				ID:       "call_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12],
				Type:     "function",
				Function: ToolCallFunction{Name: p.Name, Arguments: string(args)},
			})
		}
	}
	msg.Content = strings.Join(text, "")

	finish := "stop"
	if len(msg.ToolCalls) > 0 {
		finish = "tool_calls"
	}

	out := &ChatCompletionResponse{
		ID:      "gemini-" + uuid.NewString(),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   model,
		Choices: []Choice{{Index: 0, Message: msg, FinishReason: finish}},
	}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = &Usage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}
	return out, nil
}
