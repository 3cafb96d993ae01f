package tools

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xiaot623/healthflow/internal/domain"
)

const confirmationTimeLayout = "Monday, January 02, 2006 at 03:04 PM"

// bookAppointment never returns an error: every failure is reported to the
// model as an unsuccessful BookingPayload.
func (r *Registry) bookAppointment(ctx context.Context, args *BookAppointmentArgs) BookingPayload {
	patient, err := r.users.GetUserByID(ctx, args.PatientID)
	if err != nil {
		return bookingFailed(err)
	}
	doctor, err := r.users.GetUserByID(ctx, args.DoctorID)
	if err != nil {
		return bookingFailed(err)
	}
	if patient == nil || doctor == nil || !doctor.IsDoctor() {
		return BookingPayload{Success: false, Message: "Could not find patient or doctor."}
	}

	appt := &domain.Appointment{
		PatientID: patient.ID,
		DoctorID:  doctor.ID,
		StartTime: args.StartTime,
		EndTime:   args.StartTime.Add(SlotLength),
		Status:    domain.AppointmentStatusScheduled,
		Notes:     args.Notes,
	}
	if err := r.appointments.CreateAppointment(ctx, appt); err != nil {
		return bookingFailed(err)
	}

	logger := r.logger.With(zap.Int64("appointment_id", appt.ID), zap.Int64("patient_id", patient.ID), zap.Int64("doctor_id", doctor.ID))
	logger.Info("appointment booked", zap.Time("start", appt.StartTime))

	link, calErr := r.createEvent(ctx, patient, doctor, appt)
	if calErr != nil {
		logger.Warn("calendar event failed", zap.Error(calErr))
	}

	mailErr := r.sendConfirmation(ctx, patient, doctor, appt)
	if mailErr != nil {
		logger.Warn("confirmation email failed", zap.Error(mailErr))
	}

	if calErr == nil && link == "" {
		calErr = fmt.Errorf("no event link returned")
	}
	return BookingPayload{Success: true, Message: bookedMessage(link, calErr, mailErr)}
}

// bookedMessage words a successful booking for each calendar/email outcome.
func bookedMessage(link string, calErr, mailErr error) string {
	switch {
	case calErr == nil && mailErr == nil:
		return fmt.Sprintf("Great! Your appointment is confirmed. You can [view the event here](%s).", link)
	case calErr == nil:
		return fmt.Sprintf("Your appointment is confirmed. You can [view the event here](%s), but we couldn't send a confirmation email: %v", link, mailErr)
	case mailErr == nil:
		return fmt.Sprintf("Appointment booked and email sent, but we couldn't create a calendar event: %v", calErr)
	default:
		return fmt.Sprintf("Appointment booked, but we couldn't create a calendar event (%v) or send a confirmation email (%v).", calErr, mailErr)
	}
}

func (r *Registry) createEvent(ctx context.Context, patient, doctor *domain.User, appt *domain.Appointment) (string, error) {
	if r.calendar == nil {
		return "", fmt.Errorf("calendar is not configured")
	}
	return r.calendar.CreateEvent(ctx, domain.CalendarEvent{
		Summary:     fmt.Sprintf("Appointment: %s with %s", patient.FullName, doctor.FullName),
		Description: appt.Notes,
		Start:       appt.StartTime,
		End:         appt.EndTime,
		Attendees:   []string{patient.Email, doctor.Email},
		TimeZone:    r.loc.String(),
	})
}

func (r *Registry) sendConfirmation(ctx context.Context, patient, doctor *domain.User, appt *domain.Appointment) error {
	if r.email == nil {
		return fmt.Errorf("email is not configured")
	}
	return r.email.SendConfirmation(ctx, domain.Confirmation{
		To:          patient.Email,
		PatientName: patient.FullName,
		DoctorName:  doctor.FullName,
		TimeText:    appt.StartTime.In(r.loc).Format(confirmationTimeLayout),
	})
}

func bookingFailed(err error) BookingPayload {
	return BookingPayload{Success: false, Message: fmt.Sprintf("Failed to book appointment: %v", err)}
}
