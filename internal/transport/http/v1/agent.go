package v1

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/xiaot623/healthflow/internal/domain"
	"github.com/xiaot623/healthflow/internal/service"
)

// Prompt runs one dialog turn.
// POST /v1/agent/prompt
func (h *Handler) Prompt(c echo.Context) error {
	ctx := c.Request().Context()
	user := currentUser(c)

	var req domain.PromptRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}

	reply, err := h.service.ProcessPrompt(ctx, user, req.Prompt)
	if errors.Is(err, service.ErrEmptyPrompt) {
		return writeError(c, err)
	}
	if err != nil {
		h.logger.Warn("prompt failed", zap.Int64("user_id", user.ID), zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, domain.PromptResponse{Error: err.Error()})
	}

	h.service.RecordPrompt(ctx, user.ID, req.Prompt, reply)
	return c.JSON(http.StatusOK, domain.PromptResponse{Response: reply})
}

// History lists the caller's past prompts, newest first.
// GET /v1/agent/history?limit=N
func (h *Handler) History(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return errorJSON(c, http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = n
	}

	items, err := h.service.PromptHistory(c.Request().Context(), currentUser(c).ID, limit)
	if err != nil {
		return writeError(c, err)
	}
	if items == nil {
		items = []domain.PromptHistory{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"history": items})
}

// GetConversation reports the running context and history length.
// GET /v1/agent/conversation
func (h *Handler) GetConversation(c echo.Context) error {
	return c.JSON(http.StatusOK, h.service.ConversationSummary(currentUser(c).ID))
}

// ClearConversation drops history and context.
// DELETE /v1/agent/conversation
func (h *Handler) ClearConversation(c echo.Context) error {
	h.service.ClearConversation(currentUser(c).ID)
	return c.JSON(http.StatusOK, map[string]string{"message": "Conversation history cleared"})
}

// ClearContext resets the extracted context.
// DELETE /v1/agent/conversation/context
func (h *Handler) ClearContext(c echo.Context) error {
	h.service.ClearContext(currentUser(c).ID)
	return c.JSON(http.StatusOK, map[string]string{"message": "Conversation context cleared"})
}
