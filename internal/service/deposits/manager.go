package deposits

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
	"github.com/m04kA/SMC-SalonScheduler/internal/integrations/payments"
	depositRepo "github.com/m04kA/SMC-SalonScheduler/internal/infra/storage/deposit"
	settingsRepo "github.com/m04kA/SMC-SalonScheduler/internal/infra/storage/settings"
)

// idempotencyNamespace пространство имен для ключей идемпотентности checkout-сессий
var idempotencyNamespace = uuid.MustParse("0d3f6b0e-5c43-4d8e-9a55-7d2c1b6f4e21")

// Manager управляет депозитами, удерживающими слот до оплаты
type Manager struct {
	settingsRepo    SettingsRepository
	appointmentRepo AppointmentRepository
	depositRepo     DepositRepository
	provider        PaymentProvider
	cfg             Config
	logger          Logger
}

// NewManager создает менеджер депозитов
func NewManager(
	settingsRepo SettingsRepository,
	appointmentRepo AppointmentRepository,
	depositRepo DepositRepository,
	provider PaymentProvider,
	cfg Config,
	logger Logger,
) *Manager {
	return &Manager{
		settingsRepo:    settingsRepo,
		appointmentRepo: appointmentRepo,
		depositRepo:     depositRepo,
		provider:        provider,
		cfg:             cfg,
		logger:          logger,
	}
}

// DefaultPolicy политика при отсутствии настроек: депозиты выключены
func DefaultPolicy() *domain.DepositPolicy {
	return &domain.DepositPolicy{
		Enabled:             false,
		Percentage:          domain.DefaultDepositPercentage,
		WaiveAfterCompleted: domain.DefaultWaiveAfterCompleted,
	}
}

// Policy возвращает действующую политику депозитов
func (m *Manager) Policy(ctx context.Context) (*domain.DepositPolicy, error) {
	policy, err := m.settingsRepo.GetDepositPolicy(ctx)
	if errors.Is(err, settingsRepo.ErrPolicyNotFound) {
		return DefaultPolicy(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Policy - get policy: %v", ErrRepository, err)
	}
	return policy, nil
}

// RequiresDeposit решает, нужен ли депозит клиенту
// Незарегистрированным клиентам депозит нужен всегда, зарегистрированным - пока не набрано
// WaiveAfterCompleted завершенных визитов
func (m *Manager) RequiresDeposit(ctx context.Context, customer Customer) (bool, *domain.DepositPolicy, error) {
	policy, err := m.Policy(ctx)
	if err != nil {
		return false, nil, err
	}

	if !policy.Enabled || policy.Percentage <= 0 {
		return false, policy, nil
	}
	if customer.UserID == nil {
		return true, policy, nil
	}

	completed, err := m.appointmentRepo.CountCompleted(ctx, customer.Email, customer.UserID)
	if err != nil {
		return false, nil, fmt.Errorf("%w: RequiresDeposit - count completed: %v", ErrRepository, err)
	}

	return completed < policy.WaiveAfterCompleted, policy, nil
}

// CalculateAmount сумма депозита в минорных единицах, округление половины вверх
func CalculateAmount(totalPrice, percentage int64) int64 {
	if percentage < 0 {
		percentage = 0
	}
	if percentage > 100 {
		percentage = 100
	}
	if totalPrice <= 0 {
		return 0
	}
	return (totalPrice*percentage + 50) / 100
}

// ReserveHold создает pending-депозит записи; вызывается в транзакции создания записи
func (m *Manager) ReserveHold(ctx context.Context, appointment *domain.Appointment, amount int64, expiresAt time.Time) (*domain.Deposit, error) {
	deposit, err := m.depositRepo.Create(ctx, &domain.Deposit{
		AppointmentID: appointment.ID,
		Amount:        amount,
		Currency:      m.cfg.Currency,
		Status:        domain.DepositPending,
		ExpiresAt:     expiresAt,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: ReserveHold - appointment_id=%d: %w", ErrRepository, appointment.ID, err)
	}

	if err := m.appointmentRepo.SetDepositID(ctx, appointment.ID, deposit.ID); err != nil {
		return nil, fmt.Errorf("%w: ReserveHold - link deposit: %w", ErrRepository, err)
	}
	appointment.DepositID = &deposit.ID

	return deposit, nil
}

// CreateHold создает платеж у провайдера и сохраняет ссылку на оплату
func (m *Manager) CreateHold(ctx context.Context, appointment *domain.Appointment, deposit *domain.Deposit) (*Hold, error) {
	checkout, err := m.provider.CreateCheckout(ctx, payments.CheckoutRequest{
		DepositID:      deposit.ID,
		AppointmentID:  appointment.ID,
		Amount:         deposit.Amount,
		Currency:       deposit.Currency,
		Description:    describe(appointment),
		CustomerEmail:  appointment.CustomerEmail,
		IdempotencyKey: uuid.NewSHA1(idempotencyNamespace, []byte("deposit-"+strconv.FormatInt(deposit.ID, 10))).String(),
	})
	if err != nil {
		m.logger.Error("CreateHold: provider failed for deposit_id=%d: %v", deposit.ID, err)
		return nil, fmt.Errorf("%w: %v", ErrPaymentProvider, err)
	}

	if err := m.depositRepo.AttachCheckout(ctx, deposit.ID, checkout.ExternalRef, checkout.PaymentURL); err != nil {
		return nil, fmt.Errorf("%w: CreateHold - attach checkout: %v", ErrRepository, err)
	}

	m.logger.Info("CreateHold: deposit_id=%d, appointment_id=%d, amount=%d %s",
		deposit.ID, appointment.ID, deposit.Amount, deposit.Currency)

	return &Hold{DepositID: deposit.ID, PaymentURL: checkout.PaymentURL}, nil
}

// ParseWebhook проверяет подпись и разбирает событие провайдера
func (m *Manager) ParseWebhook(payload []byte, signature string) (*payments.PaymentEvent, error) {
	event, err := m.provider.ParseWebhook(payload, signature)
	if errors.Is(err, payments.ErrInvalidSignature) || errors.Is(err, payments.ErrInvalidPayload) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if err != nil {
		return nil, err
	}
	return event, nil
}

// FindForEvent находит депозит по metadata события или ID checkout-сессии
func (m *Manager) FindForEvent(ctx context.Context, event *payments.PaymentEvent) (*domain.Deposit, error) {
	var (
		deposit *domain.Deposit
		err     error
	)
	switch {
	case event.DepositID != nil:
		deposit, err = m.depositRepo.GetByID(ctx, *event.DepositID)
	case event.ExternalRef != "":
		deposit, err = m.depositRepo.GetByExternalRef(ctx, event.ExternalRef)
	default:
		return nil, ErrDepositNotFound
	}

	if errors.Is(err, depositRepo.ErrDepositNotFound) {
		return nil, fmt.Errorf("%w: event %s", ErrDepositNotFound, event.EventID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: FindForEvent: %w", ErrRepository, err)
	}
	return deposit, nil
}

// MarkPaid переводит депозит pending -> paid; false, если депозит уже не pending
func (m *Manager) MarkPaid(ctx context.Context, depositID int64, at time.Time) (bool, error) {
	ok, err := m.depositRepo.Transition(ctx, depositID, domain.DepositPending, domain.DepositPaid, at)
	if err != nil {
		return false, fmt.Errorf("%w: MarkPaid - deposit_id=%d: %w", ErrRepository, depositID, err)
	}
	return ok, nil
}

// Forfeit переводит депозит pending -> forfeited
func (m *Manager) Forfeit(ctx context.Context, depositID int64, at time.Time) (bool, error) {
	ok, err := m.depositRepo.Transition(ctx, depositID, domain.DepositPending, domain.DepositForfeited, at)
	if err != nil {
		return false, fmt.Errorf("%w: Forfeit - deposit_id=%d: %w", ErrRepository, depositID, err)
	}
	return ok, nil
}

func describe(a *domain.Appointment) string {
	return fmt.Sprintf("Deposit for appointment #%d on %s %s", a.ID, a.Date.Format(domain.DateFormat), a.StartTime)
}
