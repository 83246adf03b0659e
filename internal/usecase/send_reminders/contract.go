package send_reminders

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
)

// AppointmentRepository интерфейс репозитория записей
type AppointmentRepository interface {
	List(ctx context.Context, filter domain.AppointmentFilter) ([]*domain.Appointment, error)
	ClaimReminder(ctx context.Context, id int64, now, staleBefore time.Time) (bool, error)
	MarkReminderSent(ctx context.Context, id int64, at time.Time) error
	ReleaseReminderClaim(ctx context.Context, id int64) error
}

// Reminder интерфейс синхронной отправки напоминания
type Reminder interface {
	Reminder(ctx context.Context, appointment *domain.Appointment) error
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
