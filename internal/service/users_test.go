package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/healthflow/internal/auth"
	"github.com/xiaot623/healthflow/internal/domain"
)

func withTokens(t *testing.T, f *fixture) {
	t.Helper()
	tokens, err := auth.NewTokens("test-secret", 30*time.Minute)
	require.NoError(t, err)
	f.svc.tokens = tokens
}

func TestRegisterLoginAuthenticate(t *testing.T) {
	f := newFixture(t, nil)
	withTokens(t, f)
	ctx := context.Background()

	user, err := f.svc.Register(ctx, domain.RegisterRequest{
		Email:    " New@Example.com ",
		Password: "correct horse",
		FullName: "New Patient",
	})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", user.Email)
	assert.Equal(t, domain.UserRolePatient, user.Role)

	_, err = f.svc.Register(ctx, domain.RegisterRequest{Email: "new@example.com", Password: "correct horse", FullName: "Dup"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = f.svc.Login(ctx, domain.LoginRequest{Email: "new@example.com", Password: "wrong password"})
	assert.ErrorIs(t, err, ErrUnauthenticated)

	tok, err := f.svc.Login(ctx, domain.LoginRequest{Email: "NEW@example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, "bearer", tok.TokenType)
	assert.Equal(t, int64(1800), tok.ExpiresIn)

	me, err := f.svc.Authenticate(ctx, tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, me.ID)

	_, err = f.svc.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestRegisterValidates(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	cases := []domain.RegisterRequest{
		{Email: "not-an-email", Password: "long enough", FullName: "X"},
		{Email: "a@example.com", Password: "short", FullName: "X"},
		{Email: "a@example.com", Password: "long enough", FullName: " "},
		{Email: "a@example.com", Password: "long enough", FullName: "X", Role: "admin"},
	}
	for _, req := range cases {
		_, err := f.svc.Register(ctx, req)
		assert.ErrorIs(t, err, ErrInvalidInput, "%+v", req)
	}
}

func TestUpdateAppointmentRequiresOwningDoctor(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	appt := &domain.Appointment{
		PatientID: f.patient.ID,
		DoctorID:  f.doctor.ID,
		StartTime: referenceNow.Add(24 * time.Hour),
		EndTime:   referenceNow.Add(24*time.Hour + 30*time.Minute),
		Status:    domain.AppointmentStatusScheduled,
	}
	require.NoError(t, f.store.CreateAppointment(ctx, appt))

	cancelled := domain.AppointmentStatusCancelled
	_, err := f.svc.UpdateAppointment(ctx, f.patient, appt.ID, domain.AppointmentUpdate{Status: &cancelled})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.UpdateAppointment(ctx, f.doctor, appt.ID+100, domain.AppointmentUpdate{Status: &cancelled})
	assert.ErrorIs(t, err, ErrNotFound)

	bogus := domain.AppointmentStatus("postponed")
	_, err = f.svc.UpdateAppointment(ctx, f.doctor, appt.ID, domain.AppointmentUpdate{Status: &bogus})
	assert.ErrorIs(t, err, ErrInvalidInput)

	notes := "bring reports"
	updated, err := f.svc.UpdateAppointment(ctx, f.doctor, appt.ID, domain.AppointmentUpdate{Status: &cancelled, Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, domain.AppointmentStatusCancelled, updated.Status)
	assert.Equal(t, "bring reports", updated.Notes)

	list, err := f.svc.ListAppointments(ctx, f.patient)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestPromptHistoryAndConversationControls(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	f.svc.RecordPrompt(ctx, f.patient.ID, "first", "one")
	f.svc.RecordPrompt(ctx, f.patient.ID, "second", "two")
	items, err := f.svc.PromptHistory(ctx, f.patient.ID, 10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "second", items[0].Prompt)

	f.conversations.Save(f.patient.ID, &domain.ConversationSession{
		Messages: []domain.Message{{Role: domain.RoleUser, Content: "hi"}},
		Context:  domain.ExtractedContext{DoctorName: "Smith"},
	})
	f.svc.ClearContext(f.patient.ID)
	state := f.svc.ConversationSummary(f.patient.ID)
	assert.True(t, state.Context.IsEmpty())
	assert.Equal(t, 1, state.MessageCount)

	f.svc.ClearConversation(f.patient.ID)
	assert.Zero(t, f.svc.ConversationSummary(f.patient.ID).MessageCount)
}
