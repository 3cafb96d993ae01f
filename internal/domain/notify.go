package domain

import "time"

// CalendarEvent describes an event pushed to an external calendar.
type CalendarEvent struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	Attendees   []string
	TimeZone    string
}

// Confirmation is the content of a booking confirmation email.
type Confirmation struct {
	To          string
	PatientName string
	DoctorName  string
	TimeText    string
}
