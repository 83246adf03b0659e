package complete_appointments

import (
	"context"
	"fmt"
	"time"

	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
)

const defaultBatchSize = 500

// Config параметры прохода
type Config struct {
	Grace     time.Duration  // Через сколько после начала визит считается состоявшимся
	Location  *time.Location // Часовой пояс салона
	BatchSize int
}

// UseCase проход завершения визитов
type UseCase struct {
	appointmentRepo AppointmentRepository
	sideEffects     SideEffects
	metrics         Metrics
	timeProvider    TimeProvider
	cfg             Config
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	appointmentRepo AppointmentRepository,
	sideEffects SideEffects,
	metrics Metrics,
	cfg Config,
	logger Logger,
) *UseCase {
	if cfg.Grace <= 0 {
		cfg.Grace = domain.DefaultCompleteGrace
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	return &UseCase{
		appointmentRepo: appointmentRepo,
		sideEffects:     sideEffects,
		metrics:         metrics,
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

// Execute переводит scheduled записи, начавшиеся раньше now - grace, в completed
func (uc *UseCase) Execute(ctx context.Context) (*domain.SweepReport, error) {
	now := uc.timeProvider.Now()
	cutoff := now.In(uc.cfg.Location).Add(-uc.cfg.Grace)
	report := &domain.SweepReport{Sweep: domain.SweepCompleteAppointments}

	due, err := uc.appointmentRepo.List(ctx, domain.AppointmentFilter{
		Statuses:     []domain.AppointmentStatus{domain.StatusScheduled},
		StartsBefore: &cutoff,
		Limit:        uc.cfg.BatchSize,
	})
	if err != nil {
		uc.logger.Error("CompleteAppointments: failed to list appointments: %v", err)
		return nil, fmt.Errorf("complete_appointments: failed to list appointments: %w", err)
	}

	for _, appointment := range due {
		report.Processed++

		moved, err := uc.appointmentRepo.Transition(ctx, domain.StatusTransition{
			AppointmentID: appointment.ID,
			From:          []domain.AppointmentStatus{domain.StatusScheduled},
			To:            domain.StatusCompleted,
			At:            now,
		})
		switch {
		case err != nil:
			report.Failed++
			uc.logger.Error("CompleteAppointments: appointment id=%d: %v", appointment.ID, err)
		case !moved:
			report.Skipped++
		default:
			report.Succeeded++
			appointment.Status = domain.StatusCompleted
			appointment.CompletedAt = &now
			if uc.metrics != nil {
				uc.metrics.IncAppointmentTransition(string(domain.StatusScheduled), string(domain.StatusCompleted))
			}
			uc.sideEffects.Completed(appointment)
		}
	}

	if report.Processed > 0 {
		uc.logger.Info("CompleteAppointments: processed=%d, completed=%d, skipped=%d, failed=%d",
			report.Processed, report.Succeeded, report.Skipped, report.Failed)
	}

	return report, nil
}
