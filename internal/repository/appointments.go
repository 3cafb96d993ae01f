package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/xiaot623/healthflow/internal/domain"
)

const appointmentColumns = `id, patient_id, doctor_id, start_at, end_at, status, notes, created_at`

// CreateAppointment inserts an appointment and sets its ID.
func (s *SQLiteStore) CreateAppointment(ctx context.Context, appt *domain.Appointment) error {
	if appt.Status == "" {
		appt.Status = domain.AppointmentStatusScheduled
	}
	if appt.CreatedAt.IsZero() {
		appt.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO appointments (patient_id, doctor_id, start_at, end_at, status, notes, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		appt.PatientID, appt.DoctorID, appt.StartTime.Unix(), appt.EndTime.Unix(), appt.Status, nullString(appt.Notes), appt.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	appt.ID = id
	return nil
}

// GetAppointment retrieves an appointment; nil when missing.
func (s *SQLiteStore) GetAppointment(ctx context.Context, id int64) (*domain.Appointment, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = ?`, id)
	return scanAppointment(row)
}

// ListAppointmentsByUser lists appointments where the user is patient or doctor.
func (s *SQLiteStore) ListAppointmentsByUser(ctx context.Context, userID int64) ([]domain.Appointment, error) {
	return s.queryAppointments(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE patient_id = ? OR doctor_id = ? ORDER BY start_at`,
		userID, userID)
}

// ListAppointmentsByDoctorForDay lists a doctor's appointments starting in [dayStart, dayEnd).
func (s *SQLiteStore) ListAppointmentsByDoctorForDay(ctx context.Context, doctorID int64, dayStart, dayEnd time.Time) ([]domain.Appointment, error) {
	return s.queryAppointments(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE doctor_id = ? AND start_at >= ? AND start_at < ? ORDER BY start_at`,
		doctorID, dayStart.Unix(), dayEnd.Unix())
}

// FindPatientConflict returns one appointment of the patient that starts no later
// than startsBy and ends after endsAfter; nil when there is none.
func (s *SQLiteStore) FindPatientConflict(ctx context.Context, patientID int64, startsBy, endsAfter time.Time) (*domain.Appointment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE patient_id = ? AND start_at <= ? AND end_at > ? ORDER BY start_at LIMIT 1`,
		patientID, startsBy.Unix(), endsAfter.Unix())
	return scanAppointment(row)
}

// UpdateAppointment applies update and returns the stored appointment.
func (s *SQLiteStore) UpdateAppointment(ctx context.Context, id int64, update domain.AppointmentUpdate) (*domain.Appointment, error) {
	var sets []string
	var args []interface{}
	if update.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *update.Status)
	}
	if update.Notes != nil {
		sets = append(sets, "notes = ?")
		args = append(args, nullString(*update.Notes))
	}

	if len(sets) > 0 {
		args = append(args, id)
		res, err := s.db.ExecContext(ctx, `UPDATE appointments SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
		if err != nil {
			return nil, err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if affected == 0 {
			return nil, ErrNotFound
		}
	}

	appt, err := s.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt == nil {
		return nil, ErrNotFound
	}
	return appt, nil
}

func (s *SQLiteStore) queryAppointments(ctx context.Context, query string, args ...interface{}) ([]domain.Appointment, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appts []domain.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, *a)
	}
	return appts, rows.Err()
}

func scanAppointment(row rowScanner) (*domain.Appointment, error) {
	var a domain.Appointment
	var startAt, endAt int64
	var notes sql.NullString
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &startAt, &endAt, &a.Status, &notes, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a.StartTime = time.Unix(startAt, 0).UTC()
	a.EndTime = time.Unix(endAt, 0).UTC()
	if notes.Valid {
		a.Notes = notes.String
	}
	return &a, nil
}
