package tools

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeTypedInvocations(t *testing.T) {
	inv, err := Decode("find_all_doctors", "")
	require.NoError(t, err)
	assert.IsType(t, &FindAllDoctorsArgs{}, inv)

	inv, err = Decode("find_doctor_by_name", `{"doctor_name":"  Smith "}`)
	require.NoError(t, err)
	assert.Equal(t, &FindDoctorByNameArgs{DoctorName: "Smith"}, inv)

	inv, err = Decode("get_available_slots", `{"doctor_id":"3","date_str":"2025-06-17"}`)
	require.NoError(t, err)
	assert.Equal(t, &GetAvailableSlotsArgs{DoctorID: 3, Date: "2025-06-17"}, inv)

	inv, err = Decode("book_appointment", `{"patient_id":99,"doctor_id":2,"start_time":"2025-06-17T09:30:00Z","notes":"cough"}`)
	require.NoError(t, err)
	book, ok := inv.(*BookAppointmentArgs)
	require.True(t, ok)
	assert.Equal(t, int64(99), book.PatientID)
	assert.Equal(t, int64(2), book.DoctorID)
	assert.True(t, book.StartTime.Equal(time.Date(2025, 6, 17, 9, 30, 0, 0, time.UTC)))
	assert.Equal(t, BookAppointment, inv.Tool())
}

func TestDecodeRejectsInvalidArguments(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"find_doctor_by_name", `{}`},
		{"find_doctor_by_name", `not json`},
		{"check_patient_availability", `{"patient_id":1}`},
		{"check_patient_availability", `{"start_time":"tomorrow"}`},
		{"get_available_slots", `{"date":"2025-06-17"}`},
		{"get_available_slots", `{"doctor_id":1,"date":"17/06/2025"}`},
		{"book_appointment", `{"doctor_id":1.5,"start_time":"2025-06-17T09:30:00Z"}`},
		{"book_appointment", `{"start_time":"2025-06-17T09:30:00Z"}`},
		{"book_appointment", `{"doctor_id":"abc","start_time":"2025-06-17T09:30:00Z"}`},
	}
	for _, tt := range tests {
		_, err := Decode(tt.name, tt.raw)
		assert.Error(t, err, "%s %s", tt.name, tt.raw)
	}

	_, err := Decode("delete_everything", `{}`)
	assert.True(t, errors.Is(err, ErrUnknownTool))
}

func TestWithPatientOverridesOnlyPatientScopedTools(t *testing.T) {
	book := &BookAppointmentArgs{PatientID: 99, DoctorID: 2}
	got := WithPatient(book, 7).(*BookAppointmentArgs)
	assert.Equal(t, int64(7), got.PatientID)
	assert.Equal(t, int64(99), book.PatientID, "original must not be mutated")

	check := WithPatient(&CheckPatientAvailabilityArgs{PatientID: 5}, 7).(*CheckPatientAvailabilityArgs)
	assert.Equal(t, int64(7), check.PatientID)

	slots := &GetAvailableSlotsArgs{DoctorID: 2, Date: "2025-06-17"}
	assert.Same(t, slots, WithPatient(slots, 7))
}

func TestParseInstant(t *testing.T) {
	want := time.Date(2025, 6, 17, 9, 30, 0, 0, time.UTC)
	for _, s := range []string{
		"2025-06-17T09:30:00Z",
		"2025-06-17T15:00:00+05:30",
		"2025-06-17T09:30:00",
		"2025-06-17 09:30",
	} {
		got, err := ParseInstant(s)
		require.NoError(t, err, s)
		assert.True(t, got.Equal(want), "%s -> %s", s, got)
	}
}

func TestDefinitionsCoverEveryTool(t *testing.T) {
	defs := Definitions()
	require.Len(t, defs, len(Names))
	for i, d := range defs {
		assert.Equal(t, Names[i], d.Name)
		assert.NotEmpty(t, d.Description)
		require.NotNil(t, d.Parameters)
		for _, req := range d.Parameters.Required {
			assert.Contains(t, d.Parameters.Properties, req)
		}
	}
}

func TestFindClosestSlots(t *testing.T) {
	available := []string{"09:00", "09:30", "10:00", "14:00", "14:30", "16:30"}

	assert.Equal(t, []string{"14:00", "14:30", "10:00"}, FindClosestSlots(available, "13:45", 3))
	assert.Equal(t, []string{"09:00", "09:30"}, FindClosestSlots(available, "bad", 2))
	assert.Len(t, FindClosestSlots(available[:2], "09:00", 5), 2)
	assert.Nil(t, FindClosestSlots(nil, "09:00", 3))
}
