package confirm_deposit

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
	"github.com/m04kA/SMC-SalonScheduler/internal/integrations/payments"
	"github.com/m04kA/SMC-SalonScheduler/internal/service/deposits"
	"github.com/m04kA/SMC-SalonScheduler/pkg/ptr"
)

// UseCase use case подтверждения оплаты депозита
type UseCase struct {
	appointmentRepo AppointmentRepository
	deposits        DepositManager
	sideEffects     SideEffects
	txManager       TransactionManager
	metrics         Metrics
	timeProvider    TimeProvider
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	appointmentRepo AppointmentRepository,
	deposits DepositManager,
	sideEffects SideEffects,
	txManager TransactionManager,
	metrics Metrics,
	logger Logger,
) *UseCase {
	return &UseCase{
		appointmentRepo: appointmentRepo,
		deposits:        deposits,
		sideEffects:     sideEffects,
		txManager:       txManager,
		metrics:         metrics,
		timeProvider:    &RealTimeProvider{},
		logger:          logger,
	}
}

// WithTimeProvider подменяет источник времени
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// Execute обрабатывает webhook провайдера
// Повторные и запоздавшие сигналы идемпотентны: переход pending_payment -> scheduled выполняется не более одного раза
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	// 1. Проверяем подпись и разбираем событие
	event, err := uc.deposits.ParseWebhook(req.Payload, req.Signature)
	if err != nil {
		if errors.Is(err, deposits.ErrInvalidSignature) {
			uc.logger.Warn("ConfirmDeposit: rejected webhook: %v", err)
			return nil, ErrInvalidSignature
		}
		uc.logger.Error("ConfirmDeposit: failed to parse webhook: %v", err)
		return nil, fmt.Errorf("%w: failed to parse webhook: %v", ErrInternal, err)
	}

	response := &Response{Outcome: OutcomeIgnored, EventID: event.EventID}
	if event.Kind != payments.EventPaid {
		uc.logger.Info("ConfirmDeposit: event %s (%s) ignored", event.EventID, event.EventType)
		return response, nil
	}

	now := uc.timeProvider.Now()
	var confirmed *domain.Appointment

	// 2. В транзакции фиксируем оплату и подтверждаем запись
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		deposit, err := uc.deposits.FindForEvent(txCtx, event)
		if err != nil {
			if errors.Is(err, deposits.ErrDepositNotFound) {
				uc.logger.Warn("ConfirmDeposit: no deposit for event %s: %v", event.EventID, err)
				return nil
			}
			return fmt.Errorf("%w: failed to find deposit: %v", ErrInternal, err)
		}
		response.DepositID = ptr.Ptr(deposit.ID)
		response.AppointmentID = ptr.Ptr(deposit.AppointmentID)

		appointment, err := uc.appointmentRepo.GetByID(txCtx, deposit.AppointmentID)
		if err != nil {
			return fmt.Errorf("%w: failed to get appointment id=%d: %v", ErrInternal, deposit.AppointmentID, err)
		}

		switch {
		case deposit.Status == domain.DepositForfeited || appointment.Status == domain.StatusCancelled:
			// Холд истек или запись отменена: оплату не принимаем в запись, нужен возврат
			uc.logger.Warn("ConfirmDeposit: payment for expired hold, deposit_id=%d, appointment_id=%d, status=%s",
				deposit.ID, appointment.ID, appointment.Status)
			response.Outcome = OutcomeHoldExpired
			return nil

		case deposit.Status == domain.DepositPaid || appointment.Status != domain.StatusPendingPayment:
			if deposit.IsPending() {
				if _, err := uc.deposits.MarkPaid(txCtx, deposit.ID, now); err != nil {
					return fmt.Errorf("%w: failed to mark deposit paid: %v", ErrInternal, err)
				}
			}
			response.Outcome = OutcomeAlreadyConfirmed
			return nil
		}

		// 2.1. Депозит pending -> paid
		if _, err := uc.deposits.MarkPaid(txCtx, deposit.ID, now); err != nil {
			return fmt.Errorf("%w: failed to mark deposit paid: %v", ErrInternal, err)
		}

		// 2.2. Запись pending_payment -> scheduled
		moved, err := uc.appointmentRepo.Transition(txCtx, domain.StatusTransition{
			AppointmentID: appointment.ID,
			From:          []domain.AppointmentStatus{domain.StatusPendingPayment},
			To:            domain.StatusScheduled,
			At:            now,
		})
		if err != nil {
			return fmt.Errorf("%w: failed to confirm appointment id=%d: %v", ErrInternal, appointment.ID, err)
		}
		if !moved {
			response.Outcome = OutcomeAlreadyConfirmed
			return nil
		}

		appointment.Status = domain.StatusScheduled
		appointment.HoldExpiresAt = nil
		confirmed = appointment
		response.Outcome = OutcomeConfirmed
		return nil
	})
	if err != nil {
		uc.logger.Error("ConfirmDeposit: event %s failed: %v", event.EventID, err)
		return nil, err
	}

	// 3. Подтвержденная запись: календарь, уведомление и событие
	if confirmed != nil {
		if uc.metrics != nil {
			uc.metrics.IncAppointmentTransition(string(domain.StatusPendingPayment), string(domain.StatusScheduled))
		}
		uc.sideEffects.Scheduled(confirmed)
		uc.logger.Info("ConfirmDeposit: appointment id=%d confirmed by event %s", confirmed.ID, event.EventID)
	}

	return response, nil
}
