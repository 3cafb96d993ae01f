package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/healthflow/internal/domain"
)

// ListAppointments lists the caller's appointments.
// GET /v1/appointments
func (h *Handler) ListAppointments(c echo.Context) error {
	appts, err := h.service.ListAppointments(c.Request().Context(), currentUser(c))
	if err != nil {
		return writeError(c, err)
	}
	if appts == nil {
		appts = []domain.Appointment{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"appointments": appts})
}

// CreateAppointment books directly for the caller.
// POST /v1/appointments
func (h *Handler) CreateAppointment(c echo.Context) error {
	var req domain.AppointmentCreate
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}

	appt, err := h.service.CreateAppointment(c.Request().Context(), currentUser(c), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, appt)
}

// UpdateAppointment changes status or notes.
// PATCH /v1/appointments/:id
func (h *Handler) UpdateAppointment(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return errorJSON(c, http.StatusBadRequest, "invalid appointment id")
	}

	var req domain.AppointmentUpdate
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}

	appt, err := h.service.UpdateAppointment(c.Request().Context(), currentUser(c), id, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, appt)
}
