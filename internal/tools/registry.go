// Package tools implements the scheduling tools the model can call.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xiaot623/healthflow/internal/domain"
)

const (
	dateLayout = "2006-01-02"
	// SlotLength is the length of a bookable slot and of every appointment.
	SlotLength = 30 * time.Minute
	// conflictWindow is how far past the requested start an existing
	// appointment may begin and still count as a conflict.
	conflictWindow = 29 * time.Minute
)

// UserDirectory looks up directory users.
type UserDirectory interface {
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
	ListUsersByRole(ctx context.Context, role domain.UserRole) ([]domain.User, error)
	FindDoctorByName(ctx context.Context, name string) (*domain.User, error)
}

// AppointmentStore persists appointments.
type AppointmentStore interface {
	CreateAppointment(ctx context.Context, appt *domain.Appointment) error
	GetAppointment(ctx context.Context, id int64) (*domain.Appointment, error)
	ListAppointmentsByUser(ctx context.Context, userID int64) ([]domain.Appointment, error)
	ListAppointmentsByDoctorForDay(ctx context.Context, doctorID int64, dayStart, dayEnd time.Time) ([]domain.Appointment, error)
	FindPatientConflict(ctx context.Context, patientID int64, startsBy, endsAfter time.Time) (*domain.Appointment, error)
	UpdateAppointment(ctx context.Context, id int64, update domain.AppointmentUpdate) (*domain.Appointment, error)
}

// CalendarService creates calendar events and returns a link to them.
type CalendarService interface {
	CreateEvent(ctx context.Context, event domain.CalendarEvent) (string, error)
}

// EmailService delivers booking confirmations.
type EmailService interface {
	SendConfirmation(ctx context.Context, c domain.Confirmation) error
}

// Deps are the collaborators a Registry executes against.
type Deps struct {
	Users        UserDirectory
	Appointments AppointmentStore
	Calendar     CalendarService
	Email        EmailService
	Location     *time.Location
	Logger       *zap.Logger
}

// Registry executes decoded tool invocations.
type Registry struct {
	users        UserDirectory
	appointments AppointmentStore
	calendar     CalendarService
	email        EmailService
	loc          *time.Location
	logger       *zap.Logger
}

// NewRegistry creates a registry over deps.
func NewRegistry(deps Deps) *Registry {
	r := &Registry{
		users:        deps.Users,
		appointments: deps.Appointments,
		calendar:     deps.Calendar,
		email:        deps.Email,
		loc:          deps.Location,
		logger:       deps.Logger,
	}
	if r.loc == nil {
		r.loc = time.UTC
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	return r
}

// Result is the outcome of one tool execution. Payload is one of the payload
// types in payloads.go and is sent to the model as JSON.
type Result struct {
	Tool    Name
	Payload interface{}
}

// Content renders the payload as the tool message body.
func (r Result) Content() (string, error) {
	b, err := json.Marshal(r.Payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal %s result: %w", r.Tool, err)
	}
	return string(b), nil
}

// Execute runs inv. A returned error means the tool itself failed; not-found
// outcomes are ordinary payloads.
func (r *Registry) Execute(ctx context.Context, inv Invocation) (Result, error) {
	var (
		payload interface{}
		err     error
	)
	switch v := inv.(type) {
	case *FindAllDoctorsArgs:
		payload, err = r.findAllDoctors(ctx)
	case *FindDoctorByNameArgs:
		payload, err = r.findDoctorByName(ctx, v)
	case *CheckPatientAvailabilityArgs:
		payload, err = r.checkPatientAvailability(ctx, v)
	case *GetAvailableSlotsArgs:
		payload, err = r.getAvailableSlots(ctx, v)
	case *BookAppointmentArgs:
		payload = r.bookAppointment(ctx, v)
	default:
		return Result{}, fmt.Errorf("%w: %T", ErrUnknownTool, inv)
	}
	if err != nil {
		return Result{}, err
	}
	return Result{Tool: inv.Tool(), Payload: payload}, nil
}
