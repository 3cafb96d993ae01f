package domain

import "time"

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Message is a single entry of a conversation history.
type Message struct {
	Role       MessageRole `json:"role"`
	Content    string      `json:"content"`
	ToolCalls  []ToolCall  `json:"tool_calls,omitempty"`
	ToolCallID string      `json:"tool_call_id,omitempty"`
	Name       string      `json:"name,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

// ExtractedContext is the running scheduling context of a conversation.
type ExtractedContext struct {
	DoctorName     string   `json:"doctor_name,omitempty"`
	DoctorID       int64    `json:"doctor_id,omitempty"`
	Date           string   `json:"date,omitempty"`
	Time           string   `json:"time,omitempty"`
	AvailableSlots []string `json:"available_slots,omitempty"`
}

// IsEmpty reports whether no field of the context is set.
func (c ExtractedContext) IsEmpty() bool {
	return c.DoctorName == "" && c.DoctorID == 0 && c.Date == "" && c.Time == "" && len(c.AvailableSlots) == 0
}

// ConversationSession is the per-user history plus extracted context.
type ConversationSession struct {
	UserID    int64            `json:"user_id"`
	Messages  []Message        `json:"messages"`
	Context   ExtractedContext `json:"context"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Clone returns a deep copy of the session.
func (s *ConversationSession) Clone() *ConversationSession {
	if s == nil {
		return nil
	}
	out := &ConversationSession{
		UserID:    s.UserID,
		Context:   s.Context,
		UpdatedAt: s.UpdatedAt,
	}
	out.Context.AvailableSlots = append([]string(nil), s.Context.AvailableSlots...)
	out.Messages = make([]Message, len(s.Messages))
	for i, m := range s.Messages {
		m.ToolCalls = append([]ToolCall(nil), m.ToolCalls...)
		out.Messages[i] = m
	}
	return out
}

// ConversationSummary is the public view of a session.
type ConversationSummary struct {
	Context      ExtractedContext `json:"context"`
	MessageCount int              `json:"message_count"`
}
