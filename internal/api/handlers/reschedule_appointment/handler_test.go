package reschedule_appointment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SalonScheduler/internal/api/handlers"
	"github.com/m04kA/SMC-SalonScheduler/internal/api/middleware"
	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
	"github.com/m04kA/SMC-SalonScheduler/internal/service/appointments/models"
	rescheduleAppointment "github.com/m04kA/SMC-SalonScheduler/internal/usecase/reschedule_appointment"
	"github.com/m04kA/SMC-SalonScheduler/pkg/logger"
	"github.com/m04kA/SMC-SalonScheduler/pkg/ptr"
)

type fakeUseCase struct {
	got  *rescheduleAppointment.Request
	resp *rescheduleAppointment.Response
	err  error
}

func (f *fakeUseCase) Execute(_ context.Context, req *rescheduleAppointment.Request) (*rescheduleAppointment.Response, error) {
	f.got = req
	return f.resp, f.err
}

func serve(uc *fakeUseCase, body string) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	r.Handle("/appointments/{appointmentId}/reschedule",
		middleware.Auth(http.HandlerFunc(NewHandler(uc, logger.NewNop()).Handle))).Methods(http.MethodPatch)

	req := httptest.NewRequest(http.MethodPatch, "/appointments/7/reschedule", strings.NewReader(body))
	req.Header.Set(middleware.HeaderUserID, "42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandle_Reschedules(t *testing.T) {
	uc := &fakeUseCase{resp: &rescheduleAppointment.Response{
		Appointment: &domain.Appointment{
			ID:              7,
			Date:            time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC),
			StartTime:       "11:00",
			DurationMinutes: 60,
			StylistID:       ptr.Ptr(int64(5)),
			Status:          domain.StatusScheduled,
		},
	}}

	w := serve(uc, `{"date":"2026-03-03","startTime":"11:00","stylistId":5}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(7), uc.got.AppointmentID)
	assert.Equal(t, "2026-03-03", uc.got.Date.Format(domain.DateFormat))
	assert.Equal(t, "11:00", uc.got.StartTime.String())
	require.NotNil(t, uc.got.StylistID)
	assert.Equal(t, int64(5), *uc.got.StylistID)
	require.NotNil(t, uc.got.Actor.UserID)
	assert.Equal(t, int64(42), *uc.got.Actor.UserID)

	var resp models.AppointmentResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "2026-03-03", resp.Date)
	assert.Equal(t, "11:00", resp.StartTime)
}

func TestHandle_BadRequest(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"date":`},
		{"bad date", `{"date":"03.03.2026","startTime":"11:00"}`},
		{"bad time", `{"date":"2026-03-03","startTime":"11"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &fakeUseCase{}
			w := serve(uc, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Nil(t, uc.got)
		})
	}
}

func TestHandle_SlotTakenMessage(t *testing.T) {
	w := serve(&fakeUseCase{err: rescheduleAppointment.ErrSlotNotAvailable}, `{"date":"2026-03-03","startTime":"11:00"}`)

	require.Equal(t, http.StatusConflict, w.Code)
	var resp handlers.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, msgSlotNotAvailable, resp.Message)
}

func TestHandle_ErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: appointment is already at the requested slot", rescheduleAppointment.ErrInvalidInput), http.StatusBadRequest},
		{rescheduleAppointment.ErrInvalidDate, http.StatusBadRequest},
		{rescheduleAppointment.ErrAppointmentNotFound, http.StatusNotFound},
		{rescheduleAppointment.ErrAccessDenied, http.StatusForbidden},
		{rescheduleAppointment.ErrCannotReschedule, http.StatusConflict},
		{rescheduleAppointment.ErrSlotNotAvailable, http.StatusConflict},
		{rescheduleAppointment.ErrStylistNotFound, http.StatusNotFound},
		{rescheduleAppointment.ErrStylistCannotPerform, http.StatusBadRequest},
		{rescheduleAppointment.ErrIntegrity, http.StatusInternalServerError},
		{rescheduleAppointment.ErrInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			w := serve(&fakeUseCase{err: tt.err}, `{"date":"2026-03-03","startTime":"11:00"}`)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}
