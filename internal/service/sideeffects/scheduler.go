package sideeffects

import (
	"context"
	"fmt"
	"time"

	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
	"github.com/m04kA/SMC-SalonScheduler/internal/integrations/events"
	"github.com/m04kA/SMC-SalonScheduler/internal/worker"
)

// Scheduler ставит в очередь побочные эффекты зафиксированного перехода:
// синхронизацию календаря, уведомление клиента и событие жизненного цикла
// Ошибки побочных эффектов логируются и не влияют на сам переход
type Scheduler struct {
	executor        Executor
	appointmentRepo AppointmentRepository
	stylistRepo     StylistRepository
	calendar        CalendarSyncer
	notifier        Notifier
	publisher       Publisher
	timeProvider    TimeProvider
	logger          Logger
}

// NewScheduler создает планировщик побочных эффектов
func NewScheduler(
	executor Executor,
	appointmentRepo AppointmentRepository,
	stylistRepo StylistRepository,
	calendar CalendarSyncer,
	notifier Notifier,
	publisher Publisher,
	logger Logger,
) *Scheduler {
	return &Scheduler{
		executor:        executor,
		appointmentRepo: appointmentRepo,
		stylistRepo:     stylistRepo,
		calendar:        calendar,
		notifier:        notifier,
		publisher:       publisher,
		timeProvider:    realTimeProvider{},
		logger:          logger,
	}
}

// WithTimeProvider подменяет источник времени для событий
func (s *Scheduler) WithTimeProvider(tp TimeProvider) *Scheduler {
	s.timeProvider = tp
	return s
}

// Scheduled запись подтверждена (сразу или после оплаты депозита)
func (s *Scheduler) Scheduled(appointment *domain.Appointment) {
	s.syncCalendar(appointment.ID)
	s.notify(appointment.ID, domain.NotificationConfirmation)
	s.publish(events.TypeScheduled, appointment)
}

// Rescheduled запись перенесена; previousStylistID мастер до переноса
func (s *Scheduler) Rescheduled(appointment *domain.Appointment, previousStylistID *int64) {
	if sameStylist(previousStylistID, appointment.StylistID) {
		s.syncCalendar(appointment.ID)
	} else {
		s.moveCalendar(appointment.ID, previousStylistID)
	}
	s.notify(appointment.ID, domain.NotificationReschedule)
	s.publish(events.TypeRescheduled, appointment)
}

// Cancelled запись отменена; при истечении холда клиента не уведомляем
func (s *Scheduler) Cancelled(appointment *domain.Appointment, notifyCustomer bool) {
	s.removeCalendar(appointment.ID)
	if notifyCustomer {
		s.notify(appointment.ID, domain.NotificationCancellation)
	}
	s.publish(events.TypeCancelled, appointment)
}

// Completed визит завершен
func (s *Scheduler) Completed(appointment *domain.Appointment) {
	s.publish(events.TypeCompleted, appointment)
}

// Reminder отправляет напоминание синхронно; используется задачей рассылки
func (s *Scheduler) Reminder(ctx context.Context, appointment *domain.Appointment) error {
	if _, err := s.notifier.Notify(ctx, domain.NotificationReminder, appointment); err != nil {
		return err
	}
	return nil
}

func (s *Scheduler) syncCalendar(appointmentID int64) {
	s.submit(fmt.Sprintf("calendar-sync:%d", appointmentID), func(ctx context.Context) error {
		appointment, stylist, err := s.load(ctx, appointmentID)
		if err != nil {
			return err
		}
		// запись успели отменить, пока задача ждала в очереди
		if appointment.Status != domain.StatusScheduled {
			return nil
		}
		_, err = s.calendar.Sync(ctx, appointment, stylist)
		return err
	})
}

func (s *Scheduler) moveCalendar(appointmentID int64, previousStylistID *int64) {
	s.submit(fmt.Sprintf("calendar-move:%d", appointmentID), func(ctx context.Context) error {
		appointment, stylist, err := s.load(ctx, appointmentID)
		if err != nil {
			return err
		}
		var previous *domain.Stylist
		if previousStylistID != nil {
			previous, err = s.stylistRepo.GetByID(ctx, *previousStylistID)
			if err != nil {
				return err
			}
		}
		_, err = s.calendar.Move(ctx, appointment, previous, stylist)
		return err
	})
}

func (s *Scheduler) removeCalendar(appointmentID int64) {
	s.submit(fmt.Sprintf("calendar-remove:%d", appointmentID), func(ctx context.Context) error {
		appointment, stylist, err := s.load(ctx, appointmentID)
		if err != nil {
			return err
		}
		return s.calendar.Remove(ctx, appointment, stylist)
	})
}

func (s *Scheduler) notify(appointmentID int64, kind domain.NotificationKind) {
	s.submit(fmt.Sprintf("notify-%s:%d", kind, appointmentID), func(ctx context.Context) error {
		appointment, err := s.appointmentRepo.GetByID(ctx, appointmentID)
		if err != nil {
			return err
		}
		result, err := s.notifier.Notify(ctx, kind, appointment)
		if err != nil {
			return err
		}
		s.logger.Info("notify: %s for appointment_id=%d sent via %s", kind, appointmentID, result.Channel)
		return nil
	})
}

func (s *Scheduler) publish(eventType events.Type, appointment *domain.Appointment) {
	event := events.NewEvent(eventType, appointment, s.timeProvider.Now())
	s.submit(fmt.Sprintf("publish-%s:%d", eventType, appointment.ID), func(ctx context.Context) error {
		return s.publisher.Publish(ctx, event)
	})
}

func (s *Scheduler) load(ctx context.Context, appointmentID int64) (*domain.Appointment, *domain.Stylist, error) {
	appointment, err := s.appointmentRepo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, nil, err
	}
	if appointment.StylistID == nil {
		return appointment, nil, nil
	}
	stylist, err := s.stylistRepo.GetByID(ctx, *appointment.StylistID)
	if err != nil {
		return nil, nil, err
	}
	return appointment, stylist, nil
}

func (s *Scheduler) submit(name string, run func(ctx context.Context) error) {
	if err := s.executor.Submit(worker.Task{Name: name, Run: run}); err != nil {
		s.logger.Warn("submit: task %s dropped: %v", name, err)
	}
}

func sameStylist(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

type realTimeProvider struct{}

func (realTimeProvider) Now() time.Time {
	return time.Now()
}
