package reschedule_appointment

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
	"github.com/m04kA/SMC-SalonScheduler/internal/service/availability"
	"github.com/m04kA/SMC-SalonScheduler/pkg/types"
)

// AppointmentRepository интерфейс репозитория записей
type AppointmentRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Appointment, error)
	Reschedule(ctx context.Context, id int64, date time.Time, start types.TimeString, stylistID *int64) error
	LockSlotScope(ctx context.Context, stylistID *int64, date time.Time) error
}

// StylistRepository интерфейс репозитория мастеров
type StylistRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Stylist, error)
}

// Availability интерфейс калькулятора доступности
type Availability interface {
	IsSlotAvailable(ctx context.Context, q availability.SlotQuery, start types.TimeString) (bool, error)
	InvalidateDate(ctx context.Context, date time.Time)
	Location() *time.Location
}

// SideEffects интерфейс постановки побочных эффектов в очередь
type SideEffects interface {
	Rescheduled(appointment *domain.Appointment, previousStylistID *int64)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
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
