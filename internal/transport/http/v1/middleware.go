package v1

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xiaot623/healthflow/internal/domain"
)

const userContextKey = "user"

// RequireAuth resolves the bearer token to a user and stores it on the context.
func (h *Handler) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
		if !ok {
			return errorJSON(c, http.StatusUnauthorized, "missing bearer token")
		}
		user, err := h.service.Authenticate(c.Request().Context(), token)
		if err != nil {
			return writeError(c, err)
		}
		c.Set(userContextKey, user)
		return next(c)
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

// currentUser returns the user set by RequireAuth.
func currentUser(c echo.Context) *domain.User {
	user, _ := c.Get(userContextKey).(*domain.User)
	return user
}

// PromptLimiter holds one token bucket per user.
type PromptLimiter struct {
	mu       sync.Mutex
	limiters map[int64]*rate.Limiter
	limit    rate.Limit
	burst    int
	logger   *zap.Logger
}

// NewPromptLimiter allows perMinute prompts per user with the given burst.
func NewPromptLimiter(perMinute float64, burst int, logger *zap.Logger) *PromptLimiter {
	if burst <= 0 {
		burst = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PromptLimiter{
		limiters: make(map[int64]*rate.Limiter),
		limit:    rate.Limit(perMinute / time.Minute.Seconds()),
		burst:    burst,
		logger:   logger,
	}
}

// Allow reports whether userID may send another prompt now.
func (l *PromptLimiter) Allow(userID int64) bool {
	l.mu.Lock()
	limiter, ok := l.limiters[userID]
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[userID] = limiter
	}
	l.mu.Unlock()
	return limiter.Allow()
}

// Middleware rejects prompts over the user's budget. It must run after RequireAuth.
func (l *PromptLimiter) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user := currentUser(c)
		if user != nil && !l.Allow(user.ID) {
			l.logger.Warn("Rate limit exceeded", zap.Int64("user_id", user.ID))
			return errorJSON(c, http.StatusTooManyRequests, "Rate limit exceeded. Try again later.")
		}
		return next(c)
	}
}
