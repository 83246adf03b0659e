package calendarsync

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SalonScheduler/internal/integrations/googlecalendar"
)

// CalendarProvider интерфейс календаря мастера
type CalendarProvider interface {
	UpsertEvent(ctx context.Context, conn googlecalendar.Connection, eventID string, ev googlecalendar.Event) (*googlecalendar.Result, error)
	DeleteEvent(ctx context.Context, conn googlecalendar.Connection, eventID string) (*googlecalendar.Result, error)
}

// AppointmentRepository интерфейс репозитория записей
type AppointmentRepository interface {
	SetCalendarEventID(ctx context.Context, id int64, eventID *string) error
	AttachCalendarEvent(ctx context.Context, id int64, eventID string) (bool, error)
}

// StylistRepository интерфейс репозитория мастеров
type StylistRepository interface {
	UpdateCalendarToken(ctx context.Context, id int64, accessToken, refreshToken string, expiry time.Time) error
	SetCalendarNeedsReconnect(ctx context.Context, id int64, needsReconnect bool) error
}

// Metrics интерфейс метрик синхронизации
type Metrics interface {
	IncCalendarSync(operation, outcome string)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
