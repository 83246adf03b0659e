package send_reminders

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
)

const defaultBatchSize = 200

// Config параметры рассылки
type Config struct {
	Lookahead    time.Duration  // Окно, в котором начинаются записи для напоминания
	ClaimTTL     time.Duration  // Через сколько захват считается брошенным
	SendInterval time.Duration  // Минимальный интервал между отправками; 0 = без ограничения
	BatchSize    int            // Максимум записей за проход
	Location     *time.Location // Часовой пояс салона
}

// UseCase проход рассылки напоминаний
// Каждая запись захватывается перед отправкой, поэтому пересекающиеся проходы не отправляют дважды
type UseCase struct {
	appointmentRepo AppointmentRepository
	reminder        Reminder
	timeProvider    TimeProvider
	cfg             Config
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(appointmentRepo AppointmentRepository, reminder Reminder, cfg Config, logger Logger) *UseCase {
	if cfg.Lookahead <= 0 {
		cfg.Lookahead = domain.DefaultReminderLookahead
	}
	if cfg.ClaimTTL <= 0 {
		cfg.ClaimTTL = domain.DefaultReminderClaimTTL
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &UseCase{
		appointmentRepo: appointmentRepo,
		reminder:        reminder,
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

// Execute отправляет напоминания о записях, начинающихся в ближайшие Lookahead
// Запись отмечается напомненной только после успешной отправки; при ошибке захват снимается
func (uc *UseCase) Execute(ctx context.Context) (*domain.SweepReport, error) {
	now := uc.timeProvider.Now()
	local := now.In(uc.cfg.Location)
	until := local.Add(uc.cfg.Lookahead)
	report := &domain.SweepReport{Sweep: domain.SweepSendReminders}

	upcoming, err := uc.appointmentRepo.List(ctx, domain.AppointmentFilter{
		Statuses:        []domain.AppointmentStatus{domain.StatusScheduled},
		StartsAfter:     &local,
		StartsBefore:    &until,
		ReminderPending: true,
		Limit:           uc.cfg.BatchSize,
	})
	if err != nil {
		uc.logger.Error("SendReminders: failed to list appointments: %v", err)
		return nil, fmt.Errorf("send_reminders: failed to list appointments: %w", err)
	}

	var limiter *rate.Limiter
	if uc.cfg.SendInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(uc.cfg.SendInterval), 1)
	}

	for _, appointment := range upcoming {
		report.Processed++

		claimed, err := uc.appointmentRepo.ClaimReminder(ctx, appointment.ID, now, now.Add(-uc.cfg.ClaimTTL))
		if err != nil {
			report.Failed++
			uc.logger.Error("SendReminders: failed to claim appointment id=%d: %v", appointment.ID, err)
			continue
		}
		if !claimed {
			report.Skipped++
			continue
		}

		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				// Проход прерван: освобождаем захват, остальное подберет следующий запуск
				uc.release(appointment.ID)
				report.Skipped++
				uc.logger.Warn("SendReminders: stopped early: %v", err)
				break
			}
		}

		if err := uc.reminder.Reminder(ctx, appointment); err != nil {
			report.Failed++
			uc.logger.Warn("SendReminders: reminder for appointment id=%d not delivered: %v", appointment.ID, err)
			uc.release(appointment.ID)
			continue
		}

		if err := uc.appointmentRepo.MarkReminderSent(ctx, appointment.ID, uc.timeProvider.Now()); err != nil {
			// Напоминание ушло, захват истечет сам; повтор возможен только после ClaimTTL
			report.Failed++
			uc.logger.Error("SendReminders: failed to mark appointment id=%d reminded: %v", appointment.ID, err)
			continue
		}
		report.Succeeded++
	}

	if report.Processed > 0 {
		uc.logger.Info("SendReminders: processed=%d, sent=%d, skipped=%d, failed=%d",
			report.Processed, report.Succeeded, report.Skipped, report.Failed)
	}

	return report, nil
}

func (uc *UseCase) release(appointmentID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := uc.appointmentRepo.ReleaseReminderClaim(ctx, appointmentID); err != nil {
		uc.logger.Error("SendReminders: failed to release claim of appointment id=%d: %v", appointmentID, err)
	}
}
