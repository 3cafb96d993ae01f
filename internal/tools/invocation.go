package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Name identifies one of the tools the model may call.
type Name string

const (
	FindAllDoctors           Name = "find_all_doctors"
	FindDoctorByName         Name = "find_doctor_by_name"
	CheckPatientAvailability Name = "check_patient_availability"
	GetAvailableSlots        Name = "get_available_slots"
	BookAppointment          Name = "book_appointment"
)

// Names lists every tool in declaration order.
var Names = []Name{FindAllDoctors, FindDoctorByName, CheckPatientAvailability, GetAvailableSlots, BookAppointment}

// ErrUnknownTool is returned by Decode for names outside the closed set.
var ErrUnknownTool = errors.New("unknown tool")

// Invocation is a decoded, validated tool call. The concrete types below are
// the only implementations.
type Invocation interface {
	Tool() Name
	isInvocation()
}

// FindAllDoctorsArgs takes no arguments.
type FindAllDoctorsArgs struct{}

// FindDoctorByNameArgs looks a doctor up by a name fragment.
type FindDoctorByNameArgs struct {
	DoctorName string
}

// CheckPatientAvailabilityArgs checks the patient's own calendar.
type CheckPatientAvailabilityArgs struct {
	PatientID int64
	StartTime time.Time
}

// GetAvailableSlotsArgs asks for a doctor's free slots on a local date.
type GetAvailableSlotsArgs struct {
	DoctorID int64
	Date     string
}

// BookAppointmentArgs books a slot for a patient.
type BookAppointmentArgs struct {
	PatientID int64
	DoctorID  int64
	StartTime time.Time
	Notes     string
}

func (*FindAllDoctorsArgs) Tool() Name           { return FindAllDoctors }
func (*FindDoctorByNameArgs) Tool() Name         { return FindDoctorByName }
func (*CheckPatientAvailabilityArgs) Tool() Name { return CheckPatientAvailability }
func (*GetAvailableSlotsArgs) Tool() Name        { return GetAvailableSlots }
func (*BookAppointmentArgs) Tool() Name          { return BookAppointment }

func (*FindAllDoctorsArgs) isInvocation()           {}
func (*FindDoctorByNameArgs) isInvocation()         {}
func (*CheckPatientAvailabilityArgs) isInvocation() {}
func (*GetAvailableSlotsArgs) isInvocation()        {}
func (*BookAppointmentArgs) isInvocation()          {}

// Decode parses raw model arguments for the named tool and validates them.
// patient_id is optional here; the caller's identity replaces it before execution.
func Decode(name string, raw string) (Invocation, error) {
	if strings.TrimSpace(raw) == "" {
		raw = "{}"
	}

	switch Name(name) {
	case FindAllDoctors:
		return &FindAllDoctorsArgs{}, nil

	case FindDoctorByName:
		var in struct {
			DoctorName string `json:"doctor_name"`
		}
		if err := unmarshalArgs(raw, &in); err != nil {
			return nil, err
		}
		in.DoctorName = strings.TrimSpace(in.DoctorName)
		if in.DoctorName == "" {
			return nil, fmt.Errorf("doctor_name is required")
		}
		return &FindDoctorByNameArgs{DoctorName: in.DoctorName}, nil

	case CheckPatientAvailability:
		var in struct {
			PatientID flexID `json:"patient_id"`
			StartTime string `json:"start_time"`
		}
		if err := unmarshalArgs(raw, &in); err != nil {
			return nil, err
		}
		start, err := ParseInstant(in.StartTime)
		if err != nil {
			return nil, err
		}
		return &CheckPatientAvailabilityArgs{PatientID: int64(in.PatientID), StartTime: start}, nil

	case GetAvailableSlots:
		var in struct {
			DoctorID flexID `json:"doctor_id"`
			Date     string `json:"date"`
			DateStr  string `json:"date_str"`
		}
		if err := unmarshalArgs(raw, &in); err != nil {
			return nil, err
		}
		if in.DoctorID <= 0 {
			return nil, fmt.Errorf("doctor_id is required")
		}
		date := strings.TrimSpace(in.Date)
		if date == "" {
			date = strings.TrimSpace(in.DateStr)
		}
		if _, err := time.Parse(dateLayout, date); err != nil {
			return nil, fmt.Errorf("date must be YYYY-MM-DD, got %q", date)
		}
		return &GetAvailableSlotsArgs{DoctorID: int64(in.DoctorID), Date: date}, nil

	case BookAppointment:
		var in struct {
			PatientID flexID `json:"patient_id"`
			DoctorID  flexID `json:"doctor_id"`
			StartTime string `json:"start_time"`
			Notes     string `json:"notes"`
		}
		if err := unmarshalArgs(raw, &in); err != nil {
			return nil, err
		}
		if in.DoctorID <= 0 {
			return nil, fmt.Errorf("doctor_id is required")
		}
		start, err := ParseInstant(in.StartTime)
		if err != nil {
			return nil, err
		}
		return &BookAppointmentArgs{
			PatientID: int64(in.PatientID),
			DoctorID:  int64(in.DoctorID),
			StartTime: start,
			Notes:     strings.TrimSpace(in.Notes),
		}, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
}

// WithPatient returns inv with its patient replaced by patientID when the tool
// acts on a patient's behalf. Other invocations are returned unchanged.
func WithPatient(inv Invocation, patientID int64) Invocation {
	switch v := inv.(type) {
	case *CheckPatientAvailabilityArgs:
		c := *v
		c.PatientID = patientID
		return &c
	case *BookAppointmentArgs:
		c := *v
		c.PatientID = patientID
		return &c
	}
	return inv
}

func unmarshalArgs(raw string, v interface{}) error {
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

var instantLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseInstant parses an ISO 8601 instant. Values without a zone are UTC.
func ParseInstant(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("start_time is required")
	}
	for _, layout := range instantLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("start_time must be an ISO 8601 instant, got %q", s)
}

// flexID accepts numeric ids sent either as JSON numbers or numeric strings.
type flexID int64

func (f *flexID) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || n != float64(int64(n)) {
		return fmt.Errorf("invalid id %s", string(b))
	}
	*f = flexID(n)
	return nil
}
