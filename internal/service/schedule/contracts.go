package schedule

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
)

// ScheduleRepository интерфейс репозитория расписаний и блокировок
type ScheduleRepository interface {
	GetWeeklySchedule(ctx context.Context, stylistID *int64) (*domain.WeeklySchedule, error)
	ReplaceWeeklySchedule(ctx context.Context, schedule *domain.WeeklySchedule) error
	ListBlockedPeriods(ctx context.Context, filter domain.BlockedPeriodFilter) ([]*domain.BlockedPeriod, error)
	CreateBlockedPeriod(ctx context.Context, block *domain.BlockedPeriod) (*domain.BlockedPeriod, error)
	DeleteBlockedPeriod(ctx context.Context, id int64) (*domain.BlockedPeriod, error)
}

// StylistRepository интерфейс репозитория мастеров
type StylistRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Stylist, error)
	List(ctx context.Context, onlyActive bool) ([]*domain.Stylist, error)
}

// SettingsRepository интерфейс хранилища политики депозитов
type SettingsRepository interface {
	GetDepositPolicy(ctx context.Context) (*domain.DepositPolicy, error)
	SaveDepositPolicy(ctx context.Context, policy *domain.DepositPolicy) (*domain.DepositPolicy, error)
}

// SlotInvalidator сброс кэша слотов после изменения расписания
type SlotInvalidator interface {
	InvalidateDate(ctx context.Context, date time.Time)
	InvalidateAll(ctx context.Context)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
