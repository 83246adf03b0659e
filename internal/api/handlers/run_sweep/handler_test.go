package run_sweep

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SalonScheduler/internal/api/middleware"
	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
	runSweeps "github.com/m04kA/SMC-SalonScheduler/internal/usecase/run_sweeps"
	"github.com/m04kA/SMC-SalonScheduler/pkg/logger"
)

type fakeUseCase struct {
	got     domain.SweepName
	reports []*domain.SweepReport
	err     error
}

func (f *fakeUseCase) Execute(_ context.Context, name domain.SweepName) ([]*domain.SweepReport, error) {
	f.got = name
	return f.reports, f.err
}

func serve(uc *fakeUseCase, sweep, token string) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	internal := r.PathPrefix("/internal").Subrouter()
	internal.Use(middleware.SweepToken("s3cret"))
	internal.HandleFunc("/sweeps/{sweep}", NewHandler(uc, logger.NewNop()).Handle).Methods(http.MethodPost)

	req := httptest.NewRequest(http.MethodPost, "/internal/sweeps/"+sweep, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandle_ReportsCounts(t *testing.T) {
	uc := &fakeUseCase{reports: []*domain.SweepReport{
		{Sweep: domain.SweepExpireHolds, Processed: 3, Succeeded: 2, Skipped: 1},
	}}

	w := serve(uc, "expire-holds", "s3cret")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.SweepExpireHolds, uc.got)

	var resp SweepListResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Len(t, resp.Sweeps, 1)
	assert.Equal(t, SweepResponse{Sweep: "expire-holds", Processed: 3, Succeeded: 2, Skipped: 1}, resp.Sweeps[0])
}

func TestHandle_LockedSweepIsOK(t *testing.T) {
	uc := &fakeUseCase{reports: []*domain.SweepReport{{Sweep: domain.SweepSendReminders, Locked: true}}}

	w := serve(uc, "send-reminders", "s3cret")

	require.Equal(t, http.StatusOK, w.Code)
	var resp SweepListResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.True(t, resp.Sweeps[0].Locked)
}

func TestHandle_Errors(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, serve(&fakeUseCase{}, "all", "wrong").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(&fakeUseCase{}, "all", "").Code)

	unknown := &fakeUseCase{err: fmt.Errorf("%w: %q", runSweeps.ErrUnknownSweep, "vacuum")}
	assert.Equal(t, http.StatusNotFound, serve(unknown, "vacuum", "s3cret").Code)

	failed := &fakeUseCase{
		reports: []*domain.SweepReport{{Sweep: domain.SweepExpireHolds}},
		err:     fmt.Errorf("%w: resync-calendar: %w", runSweeps.ErrSweepFailed, errors.New("boom")),
	}
	w := serve(failed, "all", "s3cret")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	var resp SweepListResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Len(t, resp.Sweeps, 1)
	assert.NotEmpty(t, resp.Errors)
}
