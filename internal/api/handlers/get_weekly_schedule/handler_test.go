package get_weekly_schedule

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SalonScheduler/internal/service/schedule"
	"github.com/m04kA/SMC-SalonScheduler/internal/service/schedule/models"
	"github.com/m04kA/SMC-SalonScheduler/pkg/logger"
)

type fakeService struct {
	got    *int64
	called bool
	err    error
}

func (f *fakeService) GetWeeklySchedule(_ context.Context, stylistID *int64) (*models.WeeklyScheduleResponse, error) {
	f.got, f.called = stylistID, true
	if f.err != nil {
		return nil, f.err
	}
	return &models.WeeklyScheduleResponse{StylistID: stylistID, Days: []models.DayScheduleDTO{}}, nil
}

func serve(svc *fakeService, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	NewHandler(svc, logger.NewNop()).Handle(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestHandle(t *testing.T) {
	t.Run("salon schedule", func(t *testing.T) {
		svc := &fakeService{}
		require.Equal(t, http.StatusOK, serve(svc, "/admin/schedule").Code)
		assert.True(t, svc.called)
		assert.Nil(t, svc.got)
	})

	t.Run("stylist schedule", func(t *testing.T) {
		svc := &fakeService{}
		require.Equal(t, http.StatusOK, serve(svc, "/admin/schedule?stylistId=3").Code)
		require.NotNil(t, svc.got)
		assert.Equal(t, int64(3), *svc.got)
	})

	t.Run("bad stylist id", func(t *testing.T) {
		svc := &fakeService{}
		assert.Equal(t, http.StatusBadRequest, serve(svc, "/admin/schedule?stylistId=-1").Code)
		assert.False(t, svc.called)
	})

	t.Run("unknown stylist", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, serve(&fakeService{err: schedule.ErrStylistNotFound}, "/admin/schedule?stylistId=9").Code)
	})

	t.Run("internal", func(t *testing.T) {
		assert.Equal(t, http.StatusInternalServerError, serve(&fakeService{err: schedule.ErrInternal}, "/admin/schedule").Code)
	})
}
