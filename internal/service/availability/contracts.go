package availability

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
	"github.com/m04kA/SMC-SalonScheduler/pkg/types"
)

// ScheduleRepository интерфейс репозитория расписаний
type ScheduleRepository interface {
	GetWeeklySchedule(ctx context.Context, stylistID *int64) (*domain.WeeklySchedule, error)
	ListBlockedPeriods(ctx context.Context, filter domain.BlockedPeriodFilter) ([]*domain.BlockedPeriod, error)
}

// AppointmentRepository интерфейс репозитория записей
type AppointmentRepository interface {
	List(ctx context.Context, filter domain.AppointmentFilter) ([]*domain.Appointment, error)
}

// StylistRepository интерфейс репозитория мастеров
type StylistRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Stylist, error)
	List(ctx context.Context, onlyActive bool) ([]*domain.Stylist, error)
}

// SlotCache кэш рассчитанных списков слотов
type SlotCache interface {
	Get(ctx context.Context, key string) ([]types.TimeString, bool)
	Set(ctx context.Context, key string, slots []types.TimeString)
	InvalidateDate(ctx context.Context, date time.Time)
	Clear(ctx context.Context)
}

// Metrics интерфейс метрик кэша
type Metrics interface {
	IncSlotCache(result string)
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
