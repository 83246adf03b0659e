package confirm_deposit

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
	"github.com/m04kA/SMC-SalonScheduler/internal/integrations/payments"
)

// AppointmentRepository интерфейс репозитория записей
type AppointmentRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Appointment, error)
	Transition(ctx context.Context, t domain.StatusTransition) (bool, error)
}

// DepositManager интерфейс менеджера депозитов
type DepositManager interface {
	ParseWebhook(payload []byte, signature string) (*payments.PaymentEvent, error)
	FindForEvent(ctx context.Context, event *payments.PaymentEvent) (*domain.Deposit, error)
	MarkPaid(ctx context.Context, depositID int64, at time.Time) (bool, error)
}

// SideEffects интерфейс постановки побочных эффектов в очередь
type SideEffects interface {
	Scheduled(appointment *domain.Appointment)
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
