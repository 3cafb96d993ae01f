package tools

// ErrorPayload reports a lookup that found nothing.
type ErrorPayload struct {
	Error string `json:"error"`
}

// DoctorPayload is a doctor directory entry.
type DoctorPayload struct {
	ID       int64  `json:"id"`
	FullName string `json:"full_name"`
}

// AvailabilityPayload answers check_patient_availability.
type AvailabilityPayload struct {
	IsAvailable bool   `json:"is_available"`
	Reason      string `json:"reason"`
}

// SlotsPayload lists free "HH:MM" slot starts.
type SlotsPayload struct {
	AvailableSlots []string `json:"available_slots"`
}

// MessagePayload carries an informational message such as "no slots".
type MessagePayload struct {
	Message string `json:"message"`
}

// BookingPayload is the outcome of book_appointment.
type BookingPayload struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
