package delete_blocked_period

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"

	"github.com/m04kA/SMC-SalonScheduler/internal/service/schedule"
	"github.com/m04kA/SMC-SalonScheduler/pkg/logger"
)

type fakeService struct {
	deleted []int64
	err     error
}

func (f *fakeService) DeleteBlockedPeriod(_ context.Context, id int64) error {
	f.deleted = append(f.deleted, id)
	return f.err
}

func serve(svc *fakeService, target string) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	r.HandleFunc("/admin/blocked-periods/{blockedPeriodId}", NewHandler(svc, logger.NewNop()).Handle).Methods(http.MethodDelete)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, target, nil))
	return w
}

func TestHandle(t *testing.T) {
	tests := []struct {
		name   string
		target string
		err    error
		want   int
	}{
		{"deleted", "/admin/blocked-periods/5", nil, http.StatusNoContent},
		{"not found", "/admin/blocked-periods/5", schedule.ErrBlockedPeriodNotFound, http.StatusNotFound},
		{"internal", "/admin/blocked-periods/5", schedule.ErrInternal, http.StatusInternalServerError},
		{"bad id", "/admin/blocked-periods/abc", nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{err: tt.err}
			assert.Equal(t, tt.want, serve(svc, tt.target).Code)
		})
	}

	svc := &fakeService{}
	serve(svc, "/admin/blocked-periods/5")
	assert.Equal(t, []int64{5}, svc.deleted)
}
