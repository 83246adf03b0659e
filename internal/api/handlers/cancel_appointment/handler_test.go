package cancel_appointment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SalonScheduler/internal/api/middleware"
	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
	cancelAppointment "github.com/m04kA/SMC-SalonScheduler/internal/usecase/cancel_appointment"
	"github.com/m04kA/SMC-SalonScheduler/pkg/logger"
)

type fakeUseCase struct {
	got  *cancelAppointment.Request
	resp *cancelAppointment.Response
	err  error
}

func (f *fakeUseCase) Execute(_ context.Context, req *cancelAppointment.Request) (*cancelAppointment.Response, error) {
	f.got = req
	return f.resp, f.err
}

func serve(uc *fakeUseCase, body string) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	r.Handle("/appointments/{appointmentId}/cancel",
		middleware.Auth(http.HandlerFunc(NewHandler(uc, logger.NewNop()).Handle))).Methods(http.MethodPatch)

	req := httptest.NewRequest(http.MethodPatch, "/appointments/7/cancel", strings.NewReader(body))
	req.Header.Set(middleware.HeaderUserID, "42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandle_Cancels(t *testing.T) {
	uc := &fakeUseCase{resp: &cancelAppointment.Response{
		Appointment: &domain.Appointment{ID: 7, Status: domain.StatusCancelled},
	}}

	w := serve(uc, `{"cancellationReason":"sick"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(7), uc.got.AppointmentID)
	require.NotNil(t, uc.got.Reason)
	assert.Equal(t, "sick", *uc.got.Reason)
	require.NotNil(t, uc.got.Actor.UserID)
	assert.Equal(t, int64(42), *uc.got.Actor.UserID)

	var resp CancelAppointmentResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "cancelled", resp.Status)
	assert.False(t, resp.AlreadyCancelled)
}

func TestHandle_EmptyBody(t *testing.T) {
	uc := &fakeUseCase{resp: &cancelAppointment.Response{
		Appointment:      &domain.Appointment{ID: 7, Status: domain.StatusCancelled},
		AlreadyCancelled: true,
	}}

	w := serve(uc, "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, uc.got.Reason)
}

func TestHandle_ErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{cancelAppointment.ErrInvalidInput, http.StatusBadRequest},
		{cancelAppointment.ErrAppointmentNotFound, http.StatusNotFound},
		{cancelAppointment.ErrAccessDenied, http.StatusForbidden},
		{cancelAppointment.ErrCannotCancel, http.StatusConflict},
		{cancelAppointment.ErrInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, serve(&fakeUseCase{err: tt.err}, "").Code)
		})
	}
}
