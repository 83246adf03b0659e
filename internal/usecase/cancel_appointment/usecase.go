package cancel_appointment

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
	appointmentRepo "github.com/m04kA/SMC-SalonScheduler/internal/infra/storage/appointment"
)

// UseCase use case отмены записи
type UseCase struct {
	appointmentRepo AppointmentRepository
	deposits        DepositManager
	slots           SlotInvalidator
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
	slots SlotInvalidator,
	sideEffects SideEffects,
	txManager TransactionManager,
	metrics Metrics,
	logger Logger,
) *UseCase {
	return &UseCase{
		appointmentRepo: appointmentRepo,
		deposits:        deposits,
		slots:           slots,
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

// Execute отменяет запись из pending_payment или scheduled
// Повторная отмена уже отмененной записи ничего не меняет
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CancelAppointment: id=%d, role=%s", req.AppointmentID, req.Actor.Role)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CancelAppointment: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем запись и проверяем права
	appointment, err := uc.appointmentRepo.GetByID(ctx, req.AppointmentID)
	if err != nil {
		if errors.Is(err, appointmentRepo.ErrAppointmentNotFound) {
			uc.logger.Warn("CancelAppointment: appointment id=%d not found", req.AppointmentID)
			return nil, ErrAppointmentNotFound
		}
		uc.logger.Error("CancelAppointment: failed to get appointment id=%d: %v", req.AppointmentID, err)
		return nil, fmt.Errorf("%w: failed to get appointment: %v", ErrInternal, err)
	}

	if !req.Actor.CanManage(appointment) {
		uc.logger.Warn("CancelAppointment: access denied to appointment id=%d", appointment.ID)
		return nil, ErrAccessDenied
	}

	// 3. Проверяем статус
	switch appointment.Status {
	case domain.StatusCancelled:
		uc.logger.Info("CancelAppointment: appointment id=%d is already cancelled", appointment.ID)
		return &Response{Appointment: appointment, AlreadyCancelled: true}, nil
	case domain.StatusCompleted:
		uc.logger.Warn("CancelAppointment: appointment id=%d is completed", appointment.ID)
		return nil, ErrCannotCancel
	}

	now := uc.timeProvider.Now()
	from := appointment.Status
	cancelledBy := req.Actor.CancelledBy(appointment)
	alreadyCancelled := false

	// 4. Отменяем запись и сжигаем неоплаченный депозит
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		moved, err := uc.appointmentRepo.Transition(txCtx, domain.StatusTransition{
			AppointmentID: appointment.ID,
			From:          domain.CancellableStatuses,
			To:            domain.StatusCancelled,
			At:            now,
			Reason:        normalizeReason(req.Reason),
			CancelledBy:   &cancelledBy,
		})
		if err != nil {
			return fmt.Errorf("%w: failed to cancel appointment: %v", ErrInternal, err)
		}

		if !moved {
			// Статус успел измениться параллельно
			fresh, err := uc.appointmentRepo.GetByID(txCtx, appointment.ID)
			if err != nil {
				return fmt.Errorf("%w: failed to reload appointment: %v", ErrInternal, err)
			}
			if fresh.Status == domain.StatusCancelled {
				appointment = fresh
				alreadyCancelled = true
				return nil
			}
			return ErrCannotCancel
		}

		if appointment.DepositID != nil {
			if _, err := uc.deposits.Forfeit(txCtx, *appointment.DepositID, now); err != nil {
				return fmt.Errorf("%w: failed to forfeit deposit: %v", ErrInternal, err)
			}
		}

		appointment, err = uc.appointmentRepo.GetByID(txCtx, appointment.ID)
		if err != nil {
			return fmt.Errorf("%w: failed to reload appointment: %v", ErrInternal, err)
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrCannotCancel) {
			uc.logger.Error("CancelAppointment: id=%d failed: %v", req.AppointmentID, err)
		}
		return nil, err
	}

	if alreadyCancelled {
		return &Response{Appointment: appointment, AlreadyCancelled: true}, nil
	}

	// 5. Освобождаем слот и ставим побочные эффекты
	uc.slots.InvalidateDate(ctx, appointment.Date)
	if uc.metrics != nil {
		uc.metrics.IncAppointmentTransition(string(from), string(domain.StatusCancelled))
	}
	uc.sideEffects.Cancelled(appointment, true)

	uc.logger.Info("CancelAppointment: appointment id=%d cancelled by %s", appointment.ID, cancelledBy)

	return &Response{Appointment: appointment}, nil
}
