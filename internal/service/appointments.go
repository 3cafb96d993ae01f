package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/xiaot623/healthflow/internal/domain"
	"github.com/xiaot623/healthflow/internal/repository"
	"github.com/xiaot623/healthflow/internal/tools"
)

// ListAppointments returns the caller's appointments, as patient or doctor.
func (s *Service) ListAppointments(ctx context.Context, caller *domain.User) ([]domain.Appointment, error) {
	appts, err := s.store.ListAppointmentsByUser(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appts, nil
}

// CreateAppointment books an appointment without the assistant. Callers may
// only book for themselves.
func (s *Service) CreateAppointment(ctx context.Context, caller *domain.User, req domain.AppointmentCreate) (*domain.Appointment, error) {
	if req.PatientID != caller.ID {
		return nil, fmt.Errorf("%w: you can only book appointments for yourself", ErrForbidden)
	}
	if req.StartTime.IsZero() {
		return nil, fmt.Errorf("%w: start_time is required", ErrInvalidInput)
	}
	if req.EndTime.IsZero() {
		req.EndTime = req.StartTime.Add(tools.SlotLength)
	}
	if !req.EndTime.After(req.StartTime) {
		return nil, fmt.Errorf("%w: end_time must be after start_time", ErrInvalidInput)
	}

	patient, err := s.store.GetUserByID(ctx, req.PatientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load patient: %w", err)
	}
	doctor, err := s.store.GetUserByID(ctx, req.DoctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load doctor: %w", err)
	}
	if patient == nil || !doctor.IsDoctor() {
		return nil, fmt.Errorf("%w: doctor or patient with the provided id", ErrNotFound)
	}

	appt := &domain.Appointment{
		PatientID: patient.ID,
		DoctorID:  doctor.ID,
		StartTime: req.StartTime.UTC(),
		EndTime:   req.EndTime.UTC(),
		Status:    domain.AppointmentStatusScheduled,
		Notes:     req.Notes,
	}
	if err := s.store.CreateAppointment(ctx, appt); err != nil {
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}
	s.logger.Info("appointment created", zap.Int64("appointment_id", appt.ID), zap.Int64("patient_id", patient.ID), zap.Int64("doctor_id", doctor.ID))
	return appt, nil
}

// UpdateAppointment lets the appointment's doctor change its status or notes.
func (s *Service) UpdateAppointment(ctx context.Context, caller *domain.User, id int64, update domain.AppointmentUpdate) (*domain.Appointment, error) {
	if update.Status == nil && update.Notes == nil {
		return nil, fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}
	if update.Status != nil && !update.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *update.Status)
	}

	appt, err := s.store.GetAppointment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load appointment: %w", err)
	}
	if appt == nil {
		return nil, ErrNotFound
	}
	if !caller.IsDoctor() || appt.DoctorID != caller.ID {
		return nil, ErrForbidden
	}

	updated, err := s.store.UpdateAppointment(ctx, id, update)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update appointment: %w", err)
	}
	s.logger.Info("appointment updated", zap.Int64("appointment_id", id), zap.Int64("doctor_id", caller.ID))
	return updated, nil
}
