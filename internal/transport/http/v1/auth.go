package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/healthflow/internal/domain"
)

// Register creates an account.
// POST /v1/auth/register
func (h *Handler) Register(c echo.Context) error {
	var req domain.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}
	user, err := h.service.Register(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, user)
}

// Login exchanges credentials for a bearer token.
// POST /v1/auth/login
func (h *Handler) Login(c echo.Context) error {
	var req domain.LoginRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}
	tok, err := h.service.Login(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, tok)
}

// Me returns the authenticated user.
// GET /v1/users/me
func (h *Handler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, currentUser(c))
}

// ListDoctors returns the doctor directory.
// GET /v1/doctors
func (h *Handler) ListDoctors(c echo.Context) error {
	doctors, err := h.service.ListDoctors(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	if doctors == nil {
		doctors = []domain.User{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"doctors": doctors})
}
