package schedule

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
	"github.com/m04kA/SMC-SalonScheduler/internal/infra/storage/memory"
	"github.com/m04kA/SMC-SalonScheduler/internal/service/schedule/models"
	"github.com/m04kA/SMC-SalonScheduler/pkg/logger"
	"github.com/m04kA/SMC-SalonScheduler/pkg/ptr"
)

type invalidations struct {
	mu    sync.Mutex
	dates []string
	all   int
}

func (i *invalidations) InvalidateDate(_ context.Context, date time.Time) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.dates = append(i.dates, date.Format(domain.DateFormat))
}

func (i *invalidations) InvalidateAll(context.Context) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.all++
}

func newService(t *testing.T) (*Service, *memory.Store, *invalidations) {
	t.Helper()
	store := memory.NewStore()
	inv := &invalidations{}
	return NewService(store.Schedules, store.Stylists, store.Settings, inv, logger.NewNop()), store, inv
}

func TestUpdateWeeklySchedule(t *testing.T) {
	ctx := context.Background()
	svc, _, inv := newService(t)

	resp, err := svc.UpdateWeeklySchedule(ctx, &models.UpdateWeeklyScheduleRequest{Days: []models.DayScheduleDTO{
		{Weekday: 1, IsOpen: true, OpenTime: "09:00", CloseTime: "18:00"},
		{Weekday: 0, IsOpen: false},
	}})
	require.NoError(t, err)
	require.Len(t, resp.Days, 2)
	assert.Equal(t, 0, resp.Days[0].Weekday)
	assert.Equal(t, "09:00", resp.Days[1].OpenTime)
	assert.Equal(t, 1, inv.all)
}

func TestUpdateWeeklySchedule_Validation(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)

	cases := map[string][]models.DayScheduleDTO{
		"close before open": {{Weekday: 1, IsOpen: true, OpenTime: "18:00", CloseTime: "09:00"}},
		"duplicate weekday": {{Weekday: 1}, {Weekday: 1}},
		"weekday range":     {{Weekday: 7}},
		"bad time":          {{Weekday: 2, IsOpen: true, OpenTime: "9am", CloseTime: "18:00"}},
	}
	for name, days := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.UpdateWeeklySchedule(ctx, &models.UpdateWeeklyScheduleRequest{Days: days})
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	_, err := svc.UpdateWeeklySchedule(ctx, &models.UpdateWeeklyScheduleRequest{StylistID: ptr.Ptr(int64(42))})
	assert.ErrorIs(t, err, ErrStylistNotFound)
}

func TestBlockedPeriods(t *testing.T) {
	ctx := context.Background()
	svc, store, inv := newService(t)
	stylist := store.AddStylist(domain.Stylist{Name: "Anna", IsActive: true})

	salonWide, err := svc.CreateBlockedPeriod(ctx, &models.CreateBlockedPeriodRequest{
		StartsAt: time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC),
		EndsAt:   time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Reason:   "holiday",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-03-08", "2026-03-09"}, inv.dates)

	_, err = svc.CreateBlockedPeriod(ctx, &models.CreateBlockedPeriodRequest{
		StylistID: ptr.Ptr(stylist.ID),
		StartsAt:  time.Date(2026, 3, 12, 13, 0, 0, 0, time.UTC),
		EndsAt:    time.Date(2026, 3, 12, 14, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	all, err := svc.ListBlockedPeriods(ctx, &models.ListBlockedPeriodsRequest{})
	require.NoError(t, err)
	assert.Len(t, all.BlockedPeriods, 2)

	from := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC)
	window, err := svc.ListBlockedPeriods(ctx, &models.ListBlockedPeriodsRequest{From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, window.BlockedPeriods, 1)
	assert.Equal(t, "2026-03-12T13:00", window.BlockedPeriods[0].StartsAt)

	_, err = svc.CreateBlockedPeriod(ctx, &models.CreateBlockedPeriodRequest{StartsAt: to, EndsAt: from})
	assert.ErrorIs(t, err, ErrInvalidInput)

	require.NoError(t, svc.DeleteBlockedPeriod(ctx, salonWide.ID))
	assert.ErrorIs(t, svc.DeleteBlockedPeriod(ctx, salonWide.ID), ErrBlockedPeriodNotFound)
}

func TestDepositPolicy(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)

	policy, err := svc.GetDepositPolicy(ctx)
	require.NoError(t, err)
	assert.False(t, policy.Enabled)

	_, err = svc.UpdateDepositPolicy(ctx, &models.UpdateDepositPolicyRequest{Enabled: true, Percentage: 120})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.UpdateDepositPolicy(ctx, &models.UpdateDepositPolicyRequest{Enabled: true, Percentage: 30, WaiveAfterCompleted: 2})
	require.NoError(t, err)

	policy, err = svc.GetDepositPolicy(ctx)
	require.NoError(t, err)
	assert.True(t, policy.Enabled)
	assert.Equal(t, int64(30), policy.Percentage)
	assert.Equal(t, 2, policy.WaiveAfterCompleted)
}

func TestGetCalendarConnections(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newService(t)
	store.AddStylist(domain.Stylist{Name: "Anna", IsActive: true,
		Calendar: &domain.CalendarConnection{CalendarID: "anna@example.com", RefreshToken: "r", NeedsReconnect: true}})
	store.AddStylist(domain.Stylist{Name: "Olga", IsActive: false})

	resp, err := svc.GetCalendarConnections(ctx)
	require.NoError(t, err)
	require.Len(t, resp.Connections, 2)
	assert.True(t, resp.Connections[0].Connected)
	assert.True(t, resp.Connections[0].NeedsReconnect)
	assert.False(t, resp.Connections[1].Connected)
}
