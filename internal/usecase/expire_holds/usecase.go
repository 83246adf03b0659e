package expire_holds

import (
	"context"
	"fmt"

	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
	"github.com/m04kA/SMC-SalonScheduler/pkg/ptr"
)

const defaultBatchSize = 500

// Config параметры прохода
type Config struct {
	BatchSize int
}

// UseCase проход истечения холдов: неоплаченные записи отменяются системой, депозиты сжигаются
type UseCase struct {
	appointmentRepo AppointmentRepository
	deposits        DepositManager
	slots           SlotInvalidator
	sideEffects     SideEffects
	txManager       TransactionManager
	metrics         Metrics
	timeProvider    TimeProvider
	cfg             Config
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
	cfg Config,
	logger Logger,
) *UseCase {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	return &UseCase{
		appointmentRepo: appointmentRepo,
		deposits:        deposits,
		slots:           slots,
		sideEffects:     sideEffects,
		txManager:       txManager,
		metrics:         metrics,
		timeProvider:    &RealTimeProvider{},
		cfg:             cfg,
		logger:          logger,
	}
}

// WithTimeProvider подменяет источник времени
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// Execute отменяет pending_payment записи с истекшим холдом
// Запись, оплаченная параллельно, пропускается: переход условный
func (uc *UseCase) Execute(ctx context.Context) (*domain.SweepReport, error) {
	now := uc.timeProvider.Now()
	report := &domain.SweepReport{Sweep: domain.SweepExpireHolds}

	expired, err := uc.appointmentRepo.List(ctx, domain.AppointmentFilter{
		Statuses:          []domain.AppointmentStatus{domain.StatusPendingPayment},
		HoldExpiredBefore: &now,
		Limit:             uc.cfg.BatchSize,
	})
	if err != nil {
		uc.logger.Error("ExpireHolds: failed to list expired holds: %v", err)
		return nil, fmt.Errorf("expire_holds: failed to list appointments: %w", err)
	}

	for _, appointment := range expired {
		report.Processed++

		expiredNow, err := uc.expire(ctx, appointment)
		switch {
		case err != nil:
			report.Failed++
			uc.logger.Error("ExpireHolds: appointment id=%d: %v", appointment.ID, err)
		case !expiredNow:
			report.Skipped++
		default:
			report.Succeeded++
			uc.slots.InvalidateDate(ctx, appointment.Date)
			if uc.metrics != nil {
				uc.metrics.IncAppointmentTransition(string(domain.StatusPendingPayment), string(domain.StatusCancelled))
			}
			uc.sideEffects.Cancelled(appointment, false)
		}
	}

	if report.Processed > 0 {
		uc.logger.Info("ExpireHolds: processed=%d, expired=%d, skipped=%d, failed=%d",
			report.Processed, report.Succeeded, report.Skipped, report.Failed)
	}

	return report, nil
}

func (uc *UseCase) expire(ctx context.Context, appointment *domain.Appointment) (bool, error) {
	now := uc.timeProvider.Now()
	moved := false

	err := uc.txManager.Do(ctx, func(txCtx context.Context) error {
		var err error
		moved, err = uc.appointmentRepo.Transition(txCtx, domain.StatusTransition{
			AppointmentID: appointment.ID,
			From:          []domain.AppointmentStatus{domain.StatusPendingPayment},
			To:            domain.StatusCancelled,
			At:            now,
			Reason:        ptr.Ptr(domain.HoldExpiredReason),
			CancelledBy:   ptr.Ptr(domain.CancelledBySystem),
		})
		if err != nil || !moved {
			return err
		}

		if appointment.DepositID != nil {
			if _, err := uc.deposits.Forfeit(txCtx, *appointment.DepositID, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	if moved {
		appointment.Status = domain.StatusCancelled
		appointment.CancelledBy = ptr.Ptr(domain.CancelledBySystem)
		appointment.CancellationReason = ptr.Ptr(domain.HoldExpiredReason)
		appointment.CancelledAt = &now
	}
	return moved, nil
}
