package domain

import "time"

// TimeResolution is the outcome of resolving a time expression.
type TimeResolution struct {
	// Instant is the resolved UTC instant; nil when no time of day was found.
	Instant *time.Time `json:"instant,omitempty"`
	Date    string     `json:"date"`
	Time    string     `json:"time,omitempty"`
	Success bool       `json:"success"`
	Reason  string     `json:"reason,omitempty"`
}

// IntentResult is the outcome of classifying a prompt.
type IntentResult struct {
	Intent     Intent `json:"intent"`
	DoctorName string `json:"doctor_name,omitempty"`
}
