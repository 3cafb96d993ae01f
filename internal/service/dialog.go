package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xiaot623/healthflow/internal/adapter/llm"
	"github.com/xiaot623/healthflow/internal/domain"
	"github.com/xiaot623/healthflow/internal/tools"
	"github.com/xiaot623/healthflow/policy"
)

const (
	defaultMaxToolIterations = 6
	defaultToolTimeout       = 15 * time.Second
	temperature              = 0.1
)

// ProcessPrompt runs one dialog turn for caller and returns the assistant's reply.
// The user's turns are serialized; the session is saved whatever the outcome.
func (s *Service) ProcessPrompt(ctx context.Context, caller *domain.User, prompt string) (string, error) {
	if s.llmClient == nil {
		return "", ErrModelNotConfigured
	}
	if caller == nil {
		return "", ErrUnauthenticated
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", ErrEmptyPrompt
	}

	// A disconnecting client must not abort a booking halfway.
	ctx = context.WithoutCancel(ctx)
	ctx, span := s.metrics.tracer.Start(ctx, "dialog.turn", trace.WithAttributes(
		attribute.Int64("user.id", caller.ID),
		attribute.String("user.role", string(caller.Role)),
	))
	defer span.End()

	logger := s.logger.With(zap.Int64("user_id", caller.ID))

	var reply string
	err := s.conversations.Update(caller.ID, func(sess *domain.ConversationSession) error {
		t := &turn{svc: s, caller: caller, sess: sess, now: s.now(), logger: logger}
		var err error
		reply, err = t.run(ctx, prompt)
		return err
	})

	outcome := "ok"
	if err != nil {
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error("dialog turn failed", zap.Error(err))
	}
	s.metrics.turns.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	if err != nil {
		return "", err
	}
	return reply, nil
}

// turn holds the state of one ProcessPrompt call.
type turn struct {
	svc    *Service
	caller *domain.User
	sess   *domain.ConversationSession
	now    time.Time
	logger *zap.Logger
}

func (t *turn) run(ctx context.Context, prompt string) (string, error) {
	s := t.svc

	if len(t.sess.Messages) == 0 {
		t.append(domain.Message{Role: domain.RoleSystem, Content: systemPrompt(t.caller, t.now, s.loc)})
	}
	t.append(domain.Message{Role: domain.RoleUser, Content: prompt})

	res := s.timeResolver.Resolve(prompt, t.now)
	intent := s.intents.Extract(prompt)
	if intent.DoctorName != "" {
		t.sess.Context.DoctorName = intent.DoctorName
	}
	if res.Success {
		t.sess.Context.Date = res.Date
		t.sess.Context.Time = res.Time
	}
	t.append(domain.Message{
		Role:    domain.RoleSystem,
		Content: contextSummary(intent, res, t.sess.Context, t.now, s.loc),
	})

	maxIterations := s.config.MaxToolIterations
	if maxIterations <= 0 {
		maxIterations = defaultMaxToolIterations
	}

	for i := 0; i < maxIterations; i++ {
		msg, err := t.complete(ctx, s.toolDefs)
		if err != nil {
			return "", err
		}
		if len(msg.ToolCalls) == 0 {
			return msg.Content, nil
		}
		for _, call := range msg.ToolCalls {
			t.append(domain.Message{
				Role:       domain.RoleTool,
				ToolCallID: call.ID,
				Name:       call.Function.Name,
				Content:    t.callTool(ctx, call),
			})
		}
	}

	t.logger.Warn("tool iteration limit reached", zap.Int("iterations", maxIterations))
	msg, err := t.complete(ctx, nil)
	if err != nil {
		return "", err
	}
	return msg.Content, nil
}

func (t *turn) append(msg domain.Message) {
	msg.CreatedAt = t.now
	t.sess.Messages = append(t.sess.Messages, msg)
}

// complete sends the history to the model and records the assistant reply.
func (t *turn) complete(ctx context.Context, toolDefs []llm.Tool) (*llm.ChatMessage, error) {
	s := t.svc
	temp := temperature
	req := &llm.ChatCompletionRequest{
		Model:       s.config.LLMModel,
		Messages:    toChatMessages(t.sess.Messages),
		Temperature: &temp,
	}
	if len(toolDefs) > 0 {
		req.Tools = toolDefs
		req.ToolChoice = "auto"
	}

	ctx, span := s.metrics.tracer.Start(ctx, "llm.chat_completion", trace.WithAttributes(
		attribute.String("llm.model", req.Model),
		attribute.Int("llm.messages", len(req.Messages)),
		attribute.Bool("llm.tools", len(toolDefs) > 0),
	))
	defer span.End()

	start := time.Now()
	resp, err := s.llmClient.CreateChatCompletion(ctx, req)
	outcome := "ok"
	if err == nil && resp.FirstMessage() == nil {
		err = errors.New("model returned no message")
	}
	if err != nil {
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.metrics.llmDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
		attribute.String("model", req.Model),
		attribute.String("outcome", outcome),
	))
	if err != nil {
		return nil, &ModelError{Err: err}
	}
	if resp.Usage != nil {
		span.SetAttributes(attribute.Int("llm.total_tokens", resp.Usage.TotalTokens))
	}

	msg := resp.FirstMessage()
	recorded := fromChatMessage(msg)
	if len(toolDefs) == 0 {
		// Calls nobody will answer must not reach the history.
		recorded.ToolCalls = nil
	}
	t.append(recorded)
	return msg, nil
}

// callTool decodes, authorizes and executes one tool call and returns the
// content of the tool message. Failures are reported to the model, not to the caller.
func (t *turn) callTool(ctx context.Context, call llm.ToolCall) string {
	s := t.svc
	name := call.Function.Name

	ctx, span := s.metrics.tracer.Start(ctx, "tool."+name, trace.WithAttributes(
		attribute.String("tool.call_id", call.ID),
	))
	defer span.End()

	content, outcome := t.executeTool(ctx, call)
	span.SetAttributes(attribute.String("tool.outcome", outcome))
	if outcome != "ok" {
		span.SetStatus(codes.Error, outcome)
	}
	s.metrics.toolCalls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tool", name),
		attribute.String("outcome", outcome),
	))
	t.logger.Info("tool call", zap.String("tool", name), zap.String("call_id", call.ID), zap.String("outcome", outcome))
	return content
}

func (t *turn) executeTool(ctx context.Context, call llm.ToolCall) (string, string) {
	s := t.svc
	name := call.Function.Name

	inv, err := tools.Decode(name, call.Function.Arguments)
	if errors.Is(err, tools.ErrUnknownTool) {
		return errorContent("Unknown tool: " + name), "unknown"
	}
	if err != nil {
		return errorContent("Tool execution failed: " + err.Error()), "invalid"
	}
	inv = tools.WithPatient(inv, t.caller.ID)

	if s.policyEngine != nil {
		decision, reasons, err := s.policyEngine.Evaluate(ctx, policy.Input{
			ToolName: name,
			Args:     policyArgs(inv),
			Caller:   policy.Caller{ID: t.caller.ID, Role: string(t.caller.Role)},
			NowUnix:  t.now.Unix(),
		})
		if err != nil {
			return errorContent("Tool execution failed: " + err.Error()), "error"
		}
		if decision == policy.DecisionBlock {
			return errorContent("Tool call blocked by policy: " + reasons), "blocked"
		}
	}

	timeout := s.config.ToolTimeout()
	if timeout <= 0 {
		timeout = defaultToolTimeout
	}
	toolCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := s.registry.Execute(toolCtx, inv)
	if err != nil {
		t.logger.Warn("tool execution failed", zap.String("tool", name), zap.Error(err))
		return errorContent("Tool execution failed: " + err.Error()), "error"
	}
	content, err := result.Content()
	if err != nil {
		return errorContent("Tool execution failed: " + err.Error()), "error"
	}
	t.applyResult(result)
	return content, "ok"
}

// applyResult folds a tool result into the running context.
func (t *turn) applyResult(result tools.Result) {
	switch p := result.Payload.(type) {
	case tools.DoctorPayload:
		t.sess.Context.DoctorID = p.ID
	case tools.SlotsPayload:
		t.sess.Context.AvailableSlots = append([]string(nil), p.AvailableSlots...)
	case tools.BookingPayload:
		if p.Success {
			t.sess.Context = domain.ExtractedContext{}
		}
	}
}

func policyArgs(inv tools.Invocation) map[string]interface{} {
	switch v := inv.(type) {
	case *tools.FindDoctorByNameArgs:
		return map[string]interface{}{"doctor_name": v.DoctorName}
	case *tools.CheckPatientAvailabilityArgs:
		return map[string]interface{}{
			"patient_id": v.PatientID,
			"start_time": v.StartTime.Format(time.RFC3339),
			"start_unix": v.StartTime.Unix(),
		}
	case *tools.GetAvailableSlotsArgs:
		return map[string]interface{}{"doctor_id": v.DoctorID, "date": v.Date}
	case *tools.BookAppointmentArgs:
		return map[string]interface{}{
			"patient_id": v.PatientID,
			"doctor_id":  v.DoctorID,
			"start_time": v.StartTime.Format(time.RFC3339),
			"start_unix": v.StartTime.Unix(),
			"notes":      v.Notes,
		}
	}
	return map[string]interface{}{}
}

func errorContent(msg string) string {
	b, err := json.Marshal(map[string]string{"error": msg})
	if err != nil {
		return fmt.Sprintf(`{"error":%q}`, msg)
	}
	return string(b)
}

func toChatMessages(msgs []domain.Message) []llm.ChatMessage {
	out := make([]llm.ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		cm := llm.ChatMessage{
			Role:       string(m.Role),
			Content:    m.Content,
			Name:       m.Name,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			cm.ToolCalls = append(cm.ToolCalls, llm.ToolCall{
				ID:       tc.ID,
				Type:     "function",
				Function: llm.ToolCallFunction{Name: tc.Name, Arguments: tc.Arguments},
			})
		}
		out = append(out, cm)
	}
	return out
}

func fromChatMessage(m *llm.ChatMessage) domain.Message {
	msg := domain.Message{Role: domain.RoleAssistant, Content: m.Content}
	for _, tc := range m.ToolCalls {
		msg.ToolCalls = append(msg.ToolCalls, domain.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return msg
}
