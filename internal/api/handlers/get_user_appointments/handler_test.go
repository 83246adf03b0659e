package get_user_appointments

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SalonScheduler/internal/api/middleware"
	"github.com/m04kA/SMC-SalonScheduler/internal/service/appointments"
	"github.com/m04kA/SMC-SalonScheduler/internal/service/appointments/models"
	"github.com/m04kA/SMC-SalonScheduler/pkg/logger"
)

type fakeService struct {
	got *models.GetUserAppointmentsRequest
	err error
}

func (f *fakeService) GetUserAppointments(_ context.Context, req *models.GetUserAppointmentsRequest) (*models.AppointmentListResponse, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.AppointmentListResponse{Appointments: []models.AppointmentResponse{}}, nil
}

func serve(svc *fakeService, target string) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	r.Handle("/users/{userId}/appointments",
		middleware.Auth(http.HandlerFunc(NewHandler(svc, logger.NewNop()).Handle))).Methods(http.MethodGet)

	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set(middleware.HeaderUserID, "42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandle_PassesFilter(t *testing.T) {
	svc := &fakeService{}

	w := serve(svc, "/users/42/appointments?status=pending_deposit")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(42), svc.got.UserID)
	require.NotNil(t, svc.got.Status)
	assert.Equal(t, "pending_deposit", *svc.got.Status)
	require.NotNil(t, svc.got.Actor.UserID)
	assert.Equal(t, int64(42), *svc.got.Actor.UserID)
}

func TestHandle_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		target string
		err    error
		want   int
	}{
		{"bad user id", "/users/abc/appointments", nil, http.StatusBadRequest},
		{"foreign user", "/users/7/appointments", appointments.ErrAccessDenied, http.StatusForbidden},
		{"bad status", "/users/42/appointments?status=lost", appointments.ErrInvalidInput, http.StatusBadRequest},
		{"internal", "/users/42/appointments", appointments.ErrInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, serve(&fakeService{err: tt.err}, tt.target).Code)
		})
	}
}
