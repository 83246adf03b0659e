package create_appointment

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
	"github.com/m04kA/SMC-SalonScheduler/internal/service/availability"
	"github.com/m04kA/SMC-SalonScheduler/internal/service/deposits"
	"github.com/m04kA/SMC-SalonScheduler/pkg/types"
)

// AppointmentRepository интерфейс репозитория записей
type AppointmentRepository interface {
	Create(ctx context.Context, appointment *domain.Appointment) (*domain.Appointment, error)
	Transition(ctx context.Context, t domain.StatusTransition) (bool, error)
	LockSlotScope(ctx context.Context, stylistID *int64, date time.Time) error
}

// CatalogRepository интерфейс справочника услуг
type CatalogRepository interface {
	GetServicesByIDs(ctx context.Context, ids []int64) ([]*domain.Service, error)
}

// StylistRepository интерфейс репозитория мастеров
type StylistRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Stylist, error)
}

// Availability интерфейс калькулятора доступности
type Availability interface {
	IsSlotAvailable(ctx context.Context, q availability.SlotQuery, start types.TimeString) (bool, error)
	FindFreeStylist(ctx context.Context, q availability.SlotQuery, start types.TimeString) (*int64, error)
	InvalidateDate(ctx context.Context, date time.Time)
	Location() *time.Location
}

// DepositManager интерфейс менеджера депозитов
type DepositManager interface {
	RequiresDeposit(ctx context.Context, customer deposits.Customer) (bool, *domain.DepositPolicy, error)
	ReserveHold(ctx context.Context, appointment *domain.Appointment, amount int64, expiresAt time.Time) (*domain.Deposit, error)
	CreateHold(ctx context.Context, appointment *domain.Appointment, deposit *domain.Deposit) (*deposits.Hold, error)
	Forfeit(ctx context.Context, depositID int64, at time.Time) (bool, error)
}

// SideEffects интерфейс постановки побочных эффектов в очередь
type SideEffects interface {
	Scheduled(appointment *domain.Appointment)
	Cancelled(appointment *domain.Appointment, notifyCustomer bool)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// Metrics интерфейс метрик переходов статуса
type Metrics interface {
	IncAppointmentTransition(from, to string)
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
