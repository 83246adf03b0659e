package availability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
	"github.com/m04kA/SMC-SalonScheduler/internal/infra/cache/slots"
	"github.com/m04kA/SMC-SalonScheduler/internal/infra/storage/memory"
	"github.com/m04kA/SMC-SalonScheduler/pkg/logger"
	"github.com/m04kA/SMC-SalonScheduler/pkg/ptr"
	"github.com/m04kA/SMC-SalonScheduler/pkg/types"
)

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

// 2026-03-02 - понедельник
var monday = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func openWeek(t *testing.T, open, close string) *domain.WeeklySchedule {
	t.Helper()
	days := make([]domain.DaySchedule, 0, 7)
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		days = append(days, domain.DaySchedule{
			Weekday:   wd,
			IsOpen:    true,
			OpenTime:  types.TimeString(open),
			CloseTime: types.TimeString(close),
		})
	}
	return &domain.WeeklySchedule{Days: days}
}

type fixture struct {
	store *memory.Store
	clock *fixedClock
	calc  *Calculator
}

func newFixture(t *testing.T, cache SlotCache) *fixture {
	t.Helper()

	store := memory.NewStore()
	require.NoError(t, store.Schedules.ReplaceWeeklySchedule(context.Background(), openWeek(t, "09:00", "17:00")))

	clock := &fixedClock{now: monday.Add(8 * time.Hour)}
	calc := NewCalculator(store.Schedules, store.Appointments, store.Stylists, cache, nil,
		Config{StepMinutes: 30, Location: time.UTC}, logger.NewNop()).WithTimeProvider(clock)

	return &fixture{store: store, clock: clock, calc: calc}
}

func (f *fixture) book(stylistID *int64, start string, minutes int, status domain.AppointmentStatus) *domain.Appointment {
	return f.store.PutAppointment(domain.Appointment{
		Date:            monday,
		StartTime:       types.TimeString(start),
		DurationMinutes: minutes,
		StylistID:       stylistID,
		Status:          status,
		CustomerEmail:   "c@example.com",
	})
}

func TestComputeSlots_ExistingAppointmentScenario(t *testing.T) {
	f := newFixture(t, nil)
	f.book(nil, "10:00", 60, domain.StatusScheduled)

	got, err := f.calc.ComputeSlots(context.Background(), SlotQuery{Date: monday, DurationMinutes: 30})
	require.NoError(t, err)

	want := []types.TimeString{"09:00", "09:30"}
	for m := 11 * 60; m <= 16*60+30; m += 30 {
		ts, _ := types.FromMinutes(m)
		want = append(want, ts)
	}
	assert.Equal(t, want, got)
}

func TestComputeSlots_NeverOverlapsActiveAppointments(t *testing.T) {
	f := newFixture(t, nil)
	stylist := f.store.AddStylist(domain.Stylist{Name: "Kate", IsActive: true})
	f.book(&stylist.ID, "09:30", 45, domain.StatusPendingPayment)
	f.book(&stylist.ID, "13:00", 90, domain.StatusScheduled)
	f.book(&stylist.ID, "15:00", 60, domain.StatusCancelled)

	for _, duration := range []int{15, 30, 60, 90, 120} {
		got, err := f.calc.ComputeSlots(context.Background(), SlotQuery{Date: monday, StylistID: &stylist.ID, DurationMinutes: duration})
		require.NoError(t, err)

		appointments, err := f.store.Appointments.List(context.Background(), domain.AppointmentFilter{StylistID: &stylist.ID})
		require.NoError(t, err)

		for _, slot := range got {
			candidate := domain.Interval{Start: slot.Minutes(), End: slot.Minutes() + duration}
			assert.LessOrEqual(t, candidate.End, 17*60)
			for _, a := range appointments {
				if a.IsActive() {
					assert.False(t, candidate.Overlaps(a.Interval()), "slot %s/%d overlaps appointment %s", slot, duration, a.StartTime)
				}
			}
		}
	}

	got, err := f.calc.ComputeSlots(context.Background(), SlotQuery{Date: monday, StylistID: &stylist.ID, DurationMinutes: 60})
	require.NoError(t, err)
	assert.Contains(t, got, types.TimeString("15:00"), "cancelled appointment frees its slot")
}

func TestComputeSlots_EdgeCases(t *testing.T) {
	ctx := context.Background()

	t.Run("closed day", func(t *testing.T) {
		f := newFixture(t, nil)
		ws := openWeek(t, "09:00", "17:00")
		ws.Days[time.Monday].IsOpen = false
		require.NoError(t, f.store.Schedules.ReplaceWeeklySchedule(ctx, ws))

		got, err := f.calc.ComputeSlots(ctx, SlotQuery{Date: monday, DurationMinutes: 30})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("duration longer than window", func(t *testing.T) {
		f := newFixture(t, nil)
		got, err := f.calc.ComputeSlots(ctx, SlotQuery{Date: monday, DurationMinutes: 9 * 60})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("past date", func(t *testing.T) {
		f := newFixture(t, nil)
		got, err := f.calc.ComputeSlots(ctx, SlotQuery{Date: monday.AddDate(0, 0, -1), DurationMinutes: 30})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("invalid duration", func(t *testing.T) {
		f := newFixture(t, nil)
		_, err := f.calc.ComputeSlots(ctx, SlotQuery{Date: monday, DurationMinutes: 0})
		assert.ErrorIs(t, err, ErrInvalidDuration)
	})

	t.Run("same day drops passed starts", func(t *testing.T) {
		f := newFixture(t, nil)
		f.clock.now = monday.Add(15*time.Hour + 10*time.Minute)

		got, err := f.calc.ComputeSlots(ctx, SlotQuery{Date: monday, DurationMinutes: 30})
		require.NoError(t, err)
		assert.Equal(t, []types.TimeString{"15:30", "16:00", "16:30"}, got)
	})

	t.Run("unknown stylist", func(t *testing.T) {
		f := newFixture(t, nil)
		_, err := f.calc.ComputeSlots(ctx, SlotQuery{Date: monday, StylistID: ptr.Ptr(int64(99)), DurationMinutes: 30})
		assert.ErrorIs(t, err, ErrStylistNotFound)
	})
}

func TestComputeSlots_BlockedPeriodsUnion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	stylist := f.store.AddStylist(domain.Stylist{Name: "Kate", IsActive: true})

	_, err := f.store.Schedules.CreateBlockedPeriod(ctx, &domain.BlockedPeriod{
		StartsAt: monday.Add(12 * time.Hour),
		EndsAt:   monday.Add(13 * time.Hour),
		Reason:   "lunch",
	})
	require.NoError(t, err)
	_, err = f.store.Schedules.CreateBlockedPeriod(ctx, &domain.BlockedPeriod{
		StylistID: &stylist.ID,
		StartsAt:  monday.Add(12*time.Hour + 30*time.Minute),
		EndsAt:    monday.Add(14 * time.Hour),
		Reason:    "training",
	})
	require.NoError(t, err)
	// Многодневная блокировка, начавшаяся накануне
	_, err = f.store.Schedules.CreateBlockedPeriod(ctx, &domain.BlockedPeriod{
		StylistID: &stylist.ID,
		StartsAt:  monday.Add(-10 * time.Hour),
		EndsAt:    monday.Add(9*time.Hour + 30*time.Minute),
	})
	require.NoError(t, err)

	got, err := f.calc.ComputeSlots(ctx, SlotQuery{Date: monday, StylistID: &stylist.ID, DurationMinutes: 60})
	require.NoError(t, err)

	assert.Equal(t, []types.TimeString{"09:30", "10:00", "10:30", "11:00", "14:00", "14:30", "15:00", "15:30", "16:00"}, got)
}

func TestComputeSlots_StylistOverrideAndAnyStylistUnion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	early := f.store.AddStylist(domain.Stylist{Name: "Early", IsActive: true})
	late := f.store.AddStylist(domain.Stylist{Name: "Late", IsActive: true})
	f.store.AddStylist(domain.Stylist{Name: "Colorist", IsActive: true, ServiceIDs: []int64{500}})

	earlyWeek := &domain.WeeklySchedule{StylistID: &early.ID, Days: []domain.DaySchedule{
		{Weekday: time.Monday, IsOpen: true, OpenTime: "09:00", CloseTime: "11:00"},
	}}
	lateWeek := &domain.WeeklySchedule{StylistID: &late.ID, Days: []domain.DaySchedule{
		{Weekday: time.Monday, IsOpen: true, OpenTime: "15:00", CloseTime: "17:00"},
	}}
	require.NoError(t, f.store.Schedules.ReplaceWeeklySchedule(ctx, earlyWeek))
	require.NoError(t, f.store.Schedules.ReplaceWeeklySchedule(ctx, lateWeek))

	f.book(&early.ID, "09:00", 60, domain.StatusScheduled)

	got, err := f.calc.ComputeSlots(ctx, SlotQuery{Date: monday, DurationMinutes: 60, ServiceIDs: []int64{1}})
	require.NoError(t, err)
	assert.Equal(t, []types.TimeString{"10:00", "15:00", "15:30", "16:00"}, got)

	stylistID, err := f.calc.FindFreeStylist(ctx, SlotQuery{Date: monday, DurationMinutes: 60, ServiceIDs: []int64{1}}, "10:00")
	require.NoError(t, err)
	assert.Equal(t, early.ID, *stylistID)

	_, err = f.calc.FindFreeStylist(ctx, SlotQuery{Date: monday, DurationMinutes: 60, ServiceIDs: []int64{1}}, "12:00")
	assert.ErrorIs(t, err, ErrNoFreeStylist)

	// Услугу 500 выполняет только колорист с расписанием салона
	got, err = f.calc.ComputeSlots(ctx, SlotQuery{Date: monday, DurationMinutes: 60, ServiceIDs: []int64{500}})
	require.NoError(t, err)
	assert.Len(t, got, 15)
}

func TestComputeSlots_ExcludeAppointmentForReschedule(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	moving := f.book(nil, "10:00", 60, domain.StatusScheduled)

	ok, err := f.calc.IsSlotAvailable(ctx, SlotQuery{Date: monday, DurationMinutes: 60}, "10:30")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.calc.IsSlotAvailable(ctx, SlotQuery{Date: monday, DurationMinutes: 60, ExcludeAppointmentID: &moving.ID}, "10:30")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestComputeSlots_CacheInvalidation(t *testing.T) {
	ctx := context.Background()
	cache := slots.NewMemoryCache(time.Minute)
	f := newFixture(t, cache)

	q := SlotQuery{Date: monday, DurationMinutes: 60}
	first, err := f.calc.ComputeSlots(ctx, q)
	require.NoError(t, err)
	assert.Contains(t, first, types.TimeString("10:00"))

	f.book(nil, "10:00", 60, domain.StatusScheduled)

	cached, err := f.calc.ComputeSlots(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, first, cached, "read cache serves the stale list until invalidated")

	f.calc.InvalidateDate(ctx, monday)
	fresh, err := f.calc.ComputeSlots(ctx, q)
	require.NoError(t, err)
	assert.NotContains(t, fresh, types.TimeString("10:00"))

	// Проверка при фиксации не использует кэш
	f.calc.InvalidateAll(ctx)
	_, _ = f.calc.ComputeSlots(ctx, q)
	f.book(nil, "14:00", 60, domain.StatusScheduled)
	ok, err := f.calc.IsSlotAvailable(ctx, q, "14:00")
	require.NoError(t, err)
	assert.False(t, ok)
}
