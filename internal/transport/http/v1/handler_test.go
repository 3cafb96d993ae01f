package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xiaot623/healthflow/internal/adapter/llm"
	"github.com/xiaot623/healthflow/internal/auth"
	"github.com/xiaot623/healthflow/internal/config"
	"github.com/xiaot623/healthflow/internal/domain"
	"github.com/xiaot623/healthflow/internal/repository"
	"github.com/xiaot623/healthflow/internal/service"
	"github.com/xiaot623/healthflow/tests/helpers"
)

type testAPI struct {
	e     *echo.Echo
	store *repository.SQLiteStore
}

func newTestAPI(t *testing.T, client llm.LLMClient, limiter *PromptLimiter) *testAPI {
	t.Helper()
	store := helpers.NewTestSQLiteStore(t)
	tokens, err := auth.NewTokens("test-secret", 30*time.Minute)
	require.NoError(t, err)

	svc := service.New(service.Deps{
		Store:  store,
		LLM:    client,
		Tokens: tokens,
		Config: &config.Config{
			HTTPPort:          8080,
			AppTimezone:       "Asia/Kolkata",
			LLMModel:          "mock",
			MaxToolIterations: 6,
			ToolTimeoutMS:     5000,
		},
		Logger: zaptest.NewLogger(t),
	})

	e := echo.New()
	NewHandler(svc, limiter, zaptest.NewLogger(t)).RegisterRoutes(e)
	return &testAPI{e: e, store: store}
}

func (a *testAPI) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) signup(t *testing.T, email string, role domain.UserRole) (int64, string) {
	t.Helper()
	body := `{"email":"` + email + `","password":"password123","full_name":"Test User","role":"` + string(role) + `"}`
	rec := a.do(t, http.MethodPost, "/v1/auth/register", "", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var user domain.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))

	rec = a.do(t, http.MethodPost, "/v1/auth/login", "", `{"email":"`+email+`","password":"password123"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var tok domain.TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tok))
	return user.ID, tok.AccessToken
}

func TestAuthFlow(t *testing.T) {
	api := newTestAPI(t, nil, nil)
	_, token := api.signup(t, "pat@example.com", domain.UserRolePatient)

	rec := api.do(t, http.MethodGet, "/v1/users/me", token, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"email":"pat@example.com"`)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = api.do(t, http.MethodGet, "/v1/users/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(t, http.MethodGet, "/v1/users/me", "not-a-token", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(t, http.MethodPost, "/v1/auth/register", "", `{"email":"pat@example.com","password":"password123","full_name":"Again"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPromptWithMockModel(t *testing.T) {
	api := newTestAPI(t, llm.NewMockClient(), nil)
	helpers.CreateUser(t, api.store, "smith@clinic.test", "Dr. John Smith", domain.UserRoleDoctor)
	_, token := api.signup(t, "pat@example.com", domain.UserRolePatient)

	rec := api.do(t, http.MethodPost, "/v1/agent/prompt", token, `{"prompt":"which doctors are available?"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp domain.PromptResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Response, "[MOCK] Tool find_all_doctors returned")
	assert.Contains(t, resp.Response, "Dr. John Smith")

	rec = api.do(t, http.MethodGet, "/v1/agent/history", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "which doctors are available?")

	rec = api.do(t, http.MethodGet, "/v1/agent/conversation", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var summary domain.ConversationSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 6, summary.MessageCount)

	rec = api.do(t, http.MethodDelete, "/v1/agent/conversation", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = api.do(t, http.MethodGet, "/v1/agent/conversation", token, "")
	assert.Contains(t, rec.Body.String(), `"message_count":0`)

	rec = api.do(t, http.MethodPost, "/v1/agent/prompt", token, `{"prompt":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPromptWithoutModelIsUnavailable(t *testing.T) {
	api := newTestAPI(t, nil, nil)
	_, token := api.signup(t, "pat@example.com", domain.UserRolePatient)

	rec := api.do(t, http.MethodPost, "/v1/agent/prompt", token, `{"prompt":"hello"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), service.ErrModelNotConfigured.Error())

	rec = api.do(t, http.MethodGet, "/v1/agent/history", token, "")
	assert.Contains(t, rec.Body.String(), `"history":[]`)
}

func TestPromptRateLimit(t *testing.T) {
	limiter := NewPromptLimiter(1, 1, nil)
	api := newTestAPI(t, llm.NewScriptedClient(llm.Reply("hi"), llm.Reply("hi")), limiter)
	_, token := api.signup(t, "pat@example.com", domain.UserRolePatient)

	rec := api.do(t, http.MethodPost, "/v1/agent/prompt", token, `{"prompt":"hello"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = api.do(t, http.MethodPost, "/v1/agent/prompt", token, `{"prompt":"hello again"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestAppointmentsEndpoints(t *testing.T) {
	api := newTestAPI(t, nil, nil)
	patientID, patientToken := api.signup(t, "pat@example.com", domain.UserRolePatient)
	doctorID, doctorToken := api.signup(t, "doc@example.com", domain.UserRoleDoctor)

	start := time.Date(2030, 1, 7, 4, 30, 0, 0, time.UTC)
	appt := &domain.Appointment{PatientID: patientID, DoctorID: doctorID, StartTime: start, EndTime: start.Add(30 * time.Minute), Status: domain.AppointmentStatusScheduled}
	require.NoError(t, api.store.CreateAppointment(context.Background(), appt))

	rec := api.do(t, http.MethodGet, "/v1/appointments", patientToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"scheduled"`)

	path := "/v1/appointments/" + jsonInt(appt.ID)
	rec = api.do(t, http.MethodPatch, path, patientToken, `{"status":"cancelled"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(t, http.MethodPatch, path, doctorToken, `{"status":"completed","notes":"all good"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"status":"completed"`)

	rec = api.do(t, http.MethodPatch, "/v1/appointments/abc", doctorToken, `{"status":"completed"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodGet, "/v1/doctors", patientToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "doc@example.com")
}

func jsonInt(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func TestCreateAppointmentEndpoint(t *testing.T) {
	api := newTestAPI(t, nil, nil)
	patientID, patientToken := api.signup(t, "pat@example.com", domain.UserRolePatient)
	otherID, _ := api.signup(t, "other@example.com", domain.UserRolePatient)
	doctorID, _ := api.signup(t, "doc@example.com", domain.UserRoleDoctor)

	body := func(patient, doctor int64) string {
		return `{"patient_id":` + jsonInt(patient) + `,"doctor_id":` + jsonInt(doctor) + `,"start_time":"2030-01-07T04:30:00Z","notes":"checkup"}`
	}

	rec := api.do(t, http.MethodPost, "/v1/appointments", patientToken, body(otherID, doctorID))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(t, http.MethodPost, "/v1/appointments", patientToken, body(patientID, 9999))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, http.MethodPost, "/v1/appointments", patientToken, body(patientID, otherID))
	assert.Equal(t, http.StatusNotFound, rec.Code, "a patient cannot be booked as the doctor")

	rec = api.do(t, http.MethodPost, "/v1/appointments", patientToken, `{"patient_id":`+jsonInt(patientID)+`,"doctor_id":`+jsonInt(doctorID)+`}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodPost, "/v1/appointments", patientToken, body(patientID, doctorID))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var appt domain.Appointment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &appt))
	assert.NotZero(t, appt.ID)
	assert.Equal(t, domain.AppointmentStatusScheduled, appt.Status)
	assert.Equal(t, "checkup", appt.Notes)
	assert.Equal(t, 30*time.Minute, appt.EndTime.Sub(appt.StartTime))

	stored, err := api.store.ListAppointmentsByUser(context.Background(), patientID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, doctorID, stored[0].DoctorID)

	rec = api.do(t, http.MethodPost, "/v1/appointments", "", body(patientID, doctorID))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
