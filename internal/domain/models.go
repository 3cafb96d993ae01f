package domain

import "time"

// User represents a directory entry (patient or doctor).
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	Role         UserRole  `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsDoctor reports whether the user has the doctor role.
func (u *User) IsDoctor() bool {
	return u != nil && u.Role == UserRoleDoctor
}

// Appointment represents a booked consultation slot.
type Appointment struct {
	ID        int64             `json:"id"`
	PatientID int64             `json:"patient_id"`
	DoctorID  int64             `json:"doctor_id"`
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time"`
	Status    AppointmentStatus `json:"status"`
	Notes     string            `json:"notes,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// AppointmentCreate is the body of a direct booking. A zero EndTime means
// one 30-minute slot.
type AppointmentCreate struct {
	PatientID int64     `json:"patient_id"`
	DoctorID  int64     `json:"doctor_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Notes     string    `json:"notes,omitempty"`
}

// AppointmentUpdate holds the mutable fields of an appointment.
// Nil fields are left unchanged.
type AppointmentUpdate struct {
	Status *AppointmentStatus `json:"status,omitempty"`
	Notes  *string            `json:"notes,omitempty"`
}

// PromptHistory is a persisted prompt/response pair.
type PromptHistory struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Prompt    string    `json:"prompt"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"created_at"`
}
