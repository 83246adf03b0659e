package deposits

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
	"github.com/m04kA/SMC-SalonScheduler/internal/integrations/payments"
)

// SettingsRepository интерфейс хранилища политики депозитов
type SettingsRepository interface {
	GetDepositPolicy(ctx context.Context) (*domain.DepositPolicy, error)
}

// AppointmentRepository интерфейс репозитория записей
type AppointmentRepository interface {
	CountCompleted(ctx context.Context, email string, userID *int64) (int, error)
	SetDepositID(ctx context.Context, id int64, depositID int64) error
}

// DepositRepository интерфейс репозитория депозитов
type DepositRepository interface {
	Create(ctx context.Context, d *domain.Deposit) (*domain.Deposit, error)
	GetByID(ctx context.Context, id int64) (*domain.Deposit, error)
	GetByExternalRef(ctx context.Context, ref string) (*domain.Deposit, error)
	AttachCheckout(ctx context.Context, id int64, externalRef, paymentURL string) error
	Transition(ctx context.Context, id int64, from, to domain.DepositStatus, at time.Time) (bool, error)
}

// PaymentProvider интерфейс платежного провайдера
type PaymentProvider interface {
	CreateCheckout(ctx context.Context, req payments.CheckoutRequest) (*payments.Checkout, error)
	ParseWebhook(payload []byte, signature string) (*payments.PaymentEvent, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
