package availability

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
	"github.com/m04kA/SMC-SalonScheduler/internal/infra/cache/slots"
	stylistRepo "github.com/m04kA/SMC-SalonScheduler/internal/infra/storage/stylist"
	"github.com/m04kA/SMC-SalonScheduler/pkg/types"
)

// Calculator рассчитывает свободные слоты по расписанию, блокировкам и записям
type Calculator struct {
	scheduleRepo    ScheduleRepository
	appointmentRepo AppointmentRepository
	stylistRepo     StylistRepository
	cache           SlotCache
	metrics         Metrics
	timeProvider    TimeProvider
	logger          Logger
	cfg             Config
	group           singleflight.Group
}

// NewCalculator создает калькулятор доступности
func NewCalculator(
	scheduleRepo ScheduleRepository,
	appointmentRepo AppointmentRepository,
	stylistRepo StylistRepository,
	cache SlotCache,
	metrics Metrics,
	cfg Config,
	logger Logger,
) *Calculator {
	if cfg.StepMinutes <= 0 {
		cfg.StepMinutes = domain.DefaultSlotStepMinutes
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cache == nil {
		cache = slots.Nop{}
	}

	return &Calculator{
		scheduleRepo:    scheduleRepo,
		appointmentRepo: appointmentRepo,
		stylistRepo:     stylistRepo,
		cache:           cache,
		metrics:         metrics,
		timeProvider:    &RealTimeProvider{},
		logger:          logger,
		cfg:             cfg,
	}
}

// WithTimeProvider подменяет источник времени
func (c *Calculator) WithTimeProvider(tp TimeProvider) *Calculator {
	c.timeProvider = tp
	return c
}

// Location часовой пояс салона
func (c *Calculator) Location() *time.Location {
	return c.cfg.Location
}

// ComputeSlots возвращает свободные начала слотов в порядке возрастания
// Закрытый день, прошедшая дата или слишком длинная услуга дают пустой список
func (c *Calculator) ComputeSlots(ctx context.Context, q SlotQuery) ([]types.TimeString, error) {
	if q.DurationMinutes <= 0 {
		return nil, ErrInvalidDuration
	}

	now := c.timeProvider.Now().In(c.cfg.Location)
	if isDateInPast(q.Date, now) {
		return []types.TimeString{}, nil
	}

	if q.ExcludeAppointmentID != nil {
		return c.compute(ctx, q, now)
	}

	key := slots.Key(q.Date, q.StylistID, q.DurationMinutes, q.ServiceIDs)
	if cached, ok := c.cache.Get(ctx, key); ok {
		c.countCache("hit")
		return filterPassed(cached, q.Date, now, c.cfg.MinNoticeMinutes), nil
	}
	c.countCache("miss")

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		computed, err := c.compute(ctx, q, now)
		if err != nil {
			return nil, err
		}
		c.cache.Set(ctx, key, computed)
		return computed, nil
	})
	if err != nil {
		return nil, err
	}

	return append([]types.TimeString(nil), v.([]types.TimeString)...), nil
}

// IsSlotAvailable проверяет одно начало слота без кэша (перед фиксацией записи)
func (c *Calculator) IsSlotAvailable(ctx context.Context, q SlotQuery, start types.TimeString) (bool, error) {
	_, err := c.FindFreeStylist(ctx, q, start)
	if errors.Is(err, ErrNoFreeStylist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// FindFreeStylist возвращает свободного мастера с наименьшим ID
// Для салона без мастеров возвращает nil без ошибки, если время свободно
func (c *Calculator) FindFreeStylist(ctx context.Context, q SlotQuery, start types.TimeString) (*int64, error) {
	if q.DurationMinutes <= 0 {
		return nil, ErrInvalidDuration
	}

	startMinute := start.Minutes()
	if startMinute < 0 {
		return nil, ErrNoFreeStylist
	}

	now := c.timeProvider.Now().In(c.cfg.Location)
	if isDateInPast(q.Date, now) {
		return nil, ErrNoFreeStylist
	}

	targets, err := c.targets(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return nil, ErrNoFreeStylist
	}

	day, err := c.loadDay(ctx, q.Date)
	if err != nil {
		return nil, err
	}

	for _, t := range targets {
		starts, err := c.startsFor(ctx, day, t, q, now)
		if err != nil {
			return nil, err
		}
		if containsStart(starts, startMinute) {
			return t.stylistID(), nil
		}
	}

	return nil, ErrNoFreeStylist
}

// InvalidateDate сбрасывает кэш на дату
func (c *Calculator) InvalidateDate(ctx context.Context, date time.Time) {
	c.cache.InvalidateDate(ctx, date)
}

// InvalidateAll сбрасывает весь кэш слотов (изменение недельного расписания)
func (c *Calculator) InvalidateAll(ctx context.Context) {
	c.cache.Clear(ctx)
}

func (c *Calculator) compute(ctx context.Context, q SlotQuery, now time.Time) ([]types.TimeString, error) {
	targets, err := c.targets(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return []types.TimeString{}, nil
	}

	day, err := c.loadDay(ctx, q.Date)
	if err != nil {
		return nil, err
	}

	lists := make([][]int, 0, len(targets))
	for _, t := range targets {
		starts, err := c.startsFor(ctx, day, t, q, now)
		if err != nil {
			return nil, err
		}
		lists = append(lists, starts)
	}

	return toTimeStrings(mergeStarts(lists...))
}

// targets определяет мастеров для расчета
// Без мастеров в салоне расчет ведется по расписанию салона и записям без мастера
func (c *Calculator) targets(ctx context.Context, q SlotQuery) ([]target, error) {
	if q.StylistID != nil {
		stylist, err := c.stylistRepo.GetByID(ctx, *q.StylistID)
		if errors.Is(err, stylistRepo.ErrStylistNotFound) {
			return nil, fmt.Errorf("%w: id=%d", ErrStylistNotFound, *q.StylistID)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: get stylist: %v", ErrLoadData, err)
		}
		if !stylist.IsActive {
			return nil, fmt.Errorf("%w: id=%d is inactive", ErrStylistNotFound, *q.StylistID)
		}
		if !stylist.CanPerform(q.ServiceIDs) {
			return nil, nil
		}
		return []target{{stylist: stylist}}, nil
	}

	stylists, err := c.stylistRepo.List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("%w: list stylists: %v", ErrLoadData, err)
	}
	if len(stylists) == 0 {
		return []target{{}}, nil
	}

	result := make([]target, 0, len(stylists))
	for _, s := range stylists {
		if s.CanPerform(q.ServiceIDs) && !slices.Contains(q.SkipStylistIDs, s.ID) {
			result = append(result, target{stylist: s})
		}
	}
	return result, nil
}

func (c *Calculator) loadDay(ctx context.Context, date time.Time) (*dayData, error) {
	salon, err := c.scheduleRepo.GetWeeklySchedule(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: salon schedule: %v", ErrLoadData, err)
	}

	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	blocks, err := c.scheduleRepo.ListBlockedPeriods(ctx, domain.BlockedPeriodFilter{
		From: dayStart,
		To:   dayStart.AddDate(0, 0, 1),
		All:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: blocked periods: %v", ErrLoadData, err)
	}

	appointments, err := c.appointmentRepo.List(ctx, domain.AppointmentFilter{
		StartDate: &dayStart,
		EndDate:   &dayStart,
		Statuses:  domain.ActiveStatuses,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: appointments: %v", ErrLoadData, err)
	}

	return &dayData{salon: salon, blocks: blocks, appointments: appointments}, nil
}

func (c *Calculator) startsFor(ctx context.Context, day *dayData, t target, q SlotQuery, now time.Time) ([]int, error) {
	var stylistSchedule *domain.WeeklySchedule
	if t.stylist != nil {
		ws, err := c.scheduleRepo.GetWeeklySchedule(ctx, &t.stylist.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: stylist schedule: %v", ErrLoadData, err)
		}
		stylistSchedule = ws
	}

	window, ok := domain.EffectiveDay(day.salon, stylistSchedule, q.Date).Window()
	if !ok {
		return nil, nil
	}

	earliest := earliestStart(q.Date, now, c.cfg.MinNoticeMinutes)
	if earliest < 0 {
		return nil, nil
	}

	busy := busyIntervals(day, q.Date, t.stylistID(), q.ExcludeAppointmentID)
	return freeStarts(window, busy, c.cfg.StepMinutes, q.DurationMinutes, earliest), nil
}

func (c *Calculator) countCache(result string) {
	if c.metrics != nil {
		c.metrics.IncSlotCache(result)
	}
}

func toTimeStrings(starts []int) ([]types.TimeString, error) {
	result := make([]types.TimeString, 0, len(starts))
	for _, start := range starts {
		ts, err := types.FromMinutes(start)
		if err != nil {
			return nil, err
		}
		result = append(result, ts)
	}
	return result, nil
}

// filterPassed убирает из закэшированного списка слоты, время которых уже прошло
func filterPassed(cached []types.TimeString, date, now time.Time, minNoticeMinutes int) []types.TimeString {
	earliest := earliestStart(date, now, minNoticeMinutes)
	result := make([]types.TimeString, 0, len(cached))
	if earliest < 0 {
		return result
	}
	for _, ts := range cached {
		if ts.Minutes() >= earliest {
			result = append(result, ts)
		}
	}
	return result
}
