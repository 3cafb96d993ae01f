package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xiaot623/healthflow/internal/domain"
)

// RecordPrompt persists a completed turn. Failures are logged only.
func (s *Service) RecordPrompt(ctx context.Context, userID int64, prompt, response string) {
	entry := &domain.PromptHistory{UserID: userID, Prompt: prompt, Response: response, CreatedAt: s.now().UTC()}
	if err := s.store.CreatePromptHistory(ctx, entry); err != nil {
		s.logger.Warn("failed to save prompt history", zap.Int64("user_id", userID), zap.Error(err))
	}
}

// PromptHistory returns the caller's most recent prompts, newest first.
func (s *Service) PromptHistory(ctx context.Context, userID int64, limit int) ([]domain.PromptHistory, error) {
	items, err := s.store.ListPromptHistory(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list prompt history: %w", err)
	}
	return items, nil
}

// ConversationSummary reports the caller's running context and history size.
func (s *Service) ConversationSummary(userID int64) domain.ConversationSummary {
	return s.conversations.Summary(userID)
}

// ClearConversation drops the caller's history and context.
func (s *Service) ClearConversation(userID int64) {
	s.conversations.ClearAll(userID)
}

// ClearContext resets the caller's extracted context and keeps the history.
func (s *Service) ClearContext(userID int64) {
	s.conversations.ClearContext(userID)
}
