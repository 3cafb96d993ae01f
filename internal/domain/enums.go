// Package domain defines the core domain models for the scheduling assistant.
package domain

// UserRole represents the role of a directory user.
type UserRole string

const (
	UserRolePatient UserRole = "patient"
	UserRoleDoctor  UserRole = "doctor"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	return r == UserRolePatient || r == UserRoleDoctor
}

// AppointmentStatus represents the lifecycle state of an appointment.
type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
)

// Valid reports whether s is a known status.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusScheduled, AppointmentStatusCancelled, AppointmentStatusCompleted:
		return true
	}
	return false
}

// MessageRole is the role of a conversation message.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleTool      MessageRole = "tool"
)

// Intent is the coarse classification of a user prompt.
type Intent string

const (
	IntentBook         Intent = "book"
	IntentAvailability Intent = "availability"
	IntentQuery        Intent = "query"
	IntentUnclear      Intent = "unclear"
)
