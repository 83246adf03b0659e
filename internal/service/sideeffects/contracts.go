package sideeffects

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
	"github.com/m04kA/SMC-SalonScheduler/internal/integrations/events"
	"github.com/m04kA/SMC-SalonScheduler/internal/service/notifications"
	"github.com/m04kA/SMC-SalonScheduler/internal/worker"
)

// AppointmentRepository интерфейс репозитория записей
type AppointmentRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Appointment, error)
}

// StylistRepository интерфейс репозитория мастеров
type StylistRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Stylist, error)
}

// CalendarSyncer интерфейс синхронизации календаря
type CalendarSyncer interface {
	Sync(ctx context.Context, appointment *domain.Appointment, stylist *domain.Stylist) (*string, error)
	Move(ctx context.Context, appointment *domain.Appointment, from, to *domain.Stylist) (*string, error)
	Remove(ctx context.Context, appointment *domain.Appointment, stylist *domain.Stylist) error
}

// Notifier интерфейс отправки уведомлений
type Notifier interface {
	Notify(ctx context.Context, kind domain.NotificationKind, appointment *domain.Appointment) (notifications.Result, error)
}

// Publisher интерфейс публикации событий
type Publisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// Executor исполнитель фоновых задач
type Executor = worker.Executor

// TimeProvider интерфейс для получения текущего времени
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
}
