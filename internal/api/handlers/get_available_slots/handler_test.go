package get_available_slots

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
	getAvailableSlots "github.com/m04kA/SMC-SalonScheduler/internal/usecase/get_available_slots"
	"github.com/m04kA/SMC-SalonScheduler/internal/usecase/usecasetest"
	"github.com/m04kA/SMC-SalonScheduler/pkg/ptr"
)

func newHandler(t *testing.T) (*Handler, *usecasetest.Env) {
	env := usecasetest.NewEnv(t)
	uc := getAvailableSlots.NewUseCase(env.Calculator, env.Store.Catalog, env.Log)
	return NewHandler(uc, env.Log), env
}

func get(h *Handler, query string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.Handle(w, httptest.NewRequest(http.MethodGet, "/api/v1/available-slots?"+query, nil))
	return w
}

func TestHandle_ReturnsFreeSlots(t *testing.T) {
	h, env := newHandler(t)
	env.AddStylist(10)
	env.Book(usecasetest.Monday, ptr.Ptr(int64(10)), "09:00", 420, domain.StatusScheduled)

	w := get(h, "date=2026-03-02&durationMinutes=60&stylistId=10")
	require.Equal(t, http.StatusOK, w.Code)

	var resp AvailableSlotsResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "2026-03-02", resp.Date)
	assert.Equal(t, []string{"16:00"}, resp.Slots)
}

func TestHandle_PastDateIsEmptyList(t *testing.T) {
	h, _ := newHandler(t)

	w := get(h, "date=2026-03-01&durationMinutes=30")
	require.Equal(t, http.StatusOK, w.Code)

	var resp AvailableSlotsResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.NotNil(t, resp.Slots)
	assert.Empty(t, resp.Slots)
}

func TestHandle_Errors(t *testing.T) {
	h, _ := newHandler(t)

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"missing date", "durationMinutes=30", http.StatusBadRequest},
		{"bad date", "date=2026-3-2&durationMinutes=30", http.StatusBadRequest},
		{"zero duration", "date=2026-03-02&durationMinutes=0", http.StatusBadRequest},
		{"nothing to size", "date=2026-03-02", http.StatusBadRequest},
		{"bad services", "date=2026-03-02&serviceIds=1,x", http.StatusBadRequest},
		{"unknown service", "date=2026-03-02&serviceIds=77", http.StatusNotFound},
		{"unknown stylist", "date=2026-03-02&durationMinutes=30&stylistId=99", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, get(h, tt.query).Code)
		})
	}
}
