package resync_calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
)

const (
	defaultBatchSize = 200
	defaultHorizon   = 60 * 24 * time.Hour
)

// Config параметры прохода
type Config struct {
	Horizon   time.Duration  // Насколько вперед досинхронизируются записи
	BatchSize int
	Location  *time.Location // Часовой пояс салона
}

// UseCase проход досинхронизации календаря
// Подбирает предстоящие записи, событие для которых не создалось при подтверждении
type UseCase struct {
	appointmentRepo AppointmentRepository
	stylistRepo     StylistRepository
	calendar        CalendarSyncer
	timeProvider    TimeProvider
	cfg             Config
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	appointmentRepo AppointmentRepository,
	stylistRepo StylistRepository,
	calendar CalendarSyncer,
	cfg Config,
	logger Logger,
) *UseCase {
	if cfg.Horizon <= 0 {
		cfg.Horizon = defaultHorizon
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &UseCase{
		appointmentRepo: appointmentRepo,
		stylistRepo:     stylistRepo,
		calendar:        calendar,
		timeProvider:    &RealTimeProvider{},
		cfg:             cfg,
		logger:          logger,
	}
}

// WithTimeProvider подменяет источник времени
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// Execute создает недостающие события календаря
// Мастера без календаря или с отозванным доступом пропускаются
func (uc *UseCase) Execute(ctx context.Context) (*domain.SweepReport, error) {
	local := uc.timeProvider.Now().In(uc.cfg.Location)
	until := local.Add(uc.cfg.Horizon)
	report := &domain.SweepReport{Sweep: domain.SweepResyncCalendar}

	missing, err := uc.appointmentRepo.List(ctx, domain.AppointmentFilter{
		Statuses:             []domain.AppointmentStatus{domain.StatusScheduled},
		HasStylist:           true,
		MissingCalendarEvent: true,
		StartsAfter:          &local,
		StartsBefore:         &until,
		Limit:                uc.cfg.BatchSize,
	})
	if err != nil {
		uc.logger.Error("ResyncCalendar: failed to list appointments: %v", err)
		return nil, fmt.Errorf("resync_calendar: failed to list appointments: %w", err)
	}

	stylists := make(map[int64]*domain.Stylist)

	for _, appointment := range missing {
		report.Processed++

		stylist, err := uc.stylist(ctx, stylists, *appointment.StylistID)
		if err != nil {
			report.Failed++
			uc.logger.Error("ResyncCalendar: appointment id=%d: %v", appointment.ID, err)
			continue
		}
		if !stylist.HasCalendar() || stylist.Calendar.NeedsReconnect {
			report.Skipped++
			continue
		}

		eventID, err := uc.calendar.Sync(ctx, appointment, stylist)
		switch {
		case err != nil:
			report.Failed++
			uc.logger.Warn("ResyncCalendar: appointment id=%d not synced: %v", appointment.ID, err)
		case eventID == nil:
			// Доступ к календарю отозван во время прохода
			report.Skipped++
			delete(stylists, stylist.ID)
		default:
			report.Succeeded++
		}
	}

	if report.Processed > 0 {
		uc.logger.Info("ResyncCalendar: processed=%d, synced=%d, skipped=%d, failed=%d",
			report.Processed, report.Succeeded, report.Skipped, report.Failed)
	}

	return report, nil
}

// stylist читает мастера один раз за проход; после отзыва доступа перечитывает
func (uc *UseCase) stylist(ctx context.Context, cache map[int64]*domain.Stylist, id int64) (*domain.Stylist, error) {
	if s, ok := cache[id]; ok {
		return s, nil
	}
	s, err := uc.stylistRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get stylist id=%d: %w", id, err)
	}
	cache[id] = s
	return s, nil
}
