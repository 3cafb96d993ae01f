package tools

import (
	"context"
	"fmt"
	"time"
)

const (
	workdayStartHour = 9
	workdayEndHour   = 17
)

func (r *Registry) checkPatientAvailability(ctx context.Context, args *CheckPatientAvailabilityArgs) (interface{}, error) {
	conflict, err := r.appointments.FindPatientConflict(ctx, args.PatientID, args.StartTime.Add(conflictWindow), args.StartTime)
	if err != nil {
		return nil, fmt.Errorf("failed to check availability: %w", err)
	}
	if conflict != nil {
		return AvailabilityPayload{IsAvailable: false, Reason: "You already have another appointment scheduled at that time."}, nil
	}
	return AvailabilityPayload{IsAvailable: true, Reason: "You have no other appointment at that time."}, nil
}

// getAvailableSlots walks the 09:00-17:00 local grid and drops slots whose
// start equals the start of one of the doctor's appointments that day.
// Appointments that straddle a slot without sharing its start do not block it.
func (r *Registry) getAvailableSlots(ctx context.Context, args *GetAvailableSlotsArgs) (interface{}, error) {
	day, err := time.ParseInLocation(dateLayout, args.Date, r.loc)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", args.Date, err)
	}

	appts, err := r.appointments.ListAppointmentsByDoctorForDay(ctx, args.DoctorID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("failed to load schedule: %w", err)
	}
	booked := make(map[int64]bool, len(appts))
	for _, a := range appts {
		booked[a.StartTime.Unix()] = true
	}

	slots := []string{}
	start := time.Date(day.Year(), day.Month(), day.Day(), workdayStartHour, 0, 0, 0, r.loc)
	end := time.Date(day.Year(), day.Month(), day.Day(), workdayEndHour, 0, 0, 0, r.loc)
	for slot := start; slot.Before(end); slot = slot.Add(SlotLength) {
		if !booked[slot.Unix()] {
			slots = append(slots, slot.In(r.loc).Format("15:04"))
		}
	}

	if len(slots) == 0 {
		return MessagePayload{Message: fmt.Sprintf("No available slots found for Dr. ID %d on %s.", args.DoctorID, args.Date)}, nil
	}
	return SlotsPayload{AvailableSlots: slots}, nil
}
