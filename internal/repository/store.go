// Package repository persists directory users, appointments and prompt history.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/xiaot623/healthflow/internal/domain"
)

var (
	// ErrNotFound is returned when a row that must exist is missing.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEmail is returned when registering an email twice.
	ErrDuplicateEmail = errors.New("email already registered")
)

// Store defines the interface for data persistence.
type Store interface {
	// User operations
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	ListUsersByRole(ctx context.Context, role domain.UserRole) ([]domain.User, error)
	FindDoctorByName(ctx context.Context, name string) (*domain.User, error)

	// Appointment operations
	CreateAppointment(ctx context.Context, appt *domain.Appointment) error
	GetAppointment(ctx context.Context, id int64) (*domain.Appointment, error)
	ListAppointmentsByUser(ctx context.Context, userID int64) ([]domain.Appointment, error)
	ListAppointmentsByDoctorForDay(ctx context.Context, doctorID int64, dayStart, dayEnd time.Time) ([]domain.Appointment, error)
	FindPatientConflict(ctx context.Context, patientID int64, startsBy, endsAfter time.Time) (*domain.Appointment, error)
	UpdateAppointment(ctx context.Context, id int64, update domain.AppointmentUpdate) (*domain.Appointment, error)

	// Prompt history operations
	CreatePromptHistory(ctx context.Context, entry *domain.PromptHistory) error
	ListPromptHistory(ctx context.Context, userID int64, limit int) ([]domain.PromptHistory, error)

	Close() error
}

var _ Store = (*SQLiteStore)(nil)
