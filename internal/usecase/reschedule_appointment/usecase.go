package reschedule_appointment

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
	appointmentRepo "github.com/m04kA/SMC-SalonScheduler/internal/infra/storage/appointment"
	stylistRepo "github.com/m04kA/SMC-SalonScheduler/internal/infra/storage/stylist"
	"github.com/m04kA/SMC-SalonScheduler/internal/service/availability"
)

// UseCase use case переноса записи
type UseCase struct {
	appointmentRepo AppointmentRepository
	stylistRepo     StylistRepository
	availability    Availability
	sideEffects     SideEffects
	txManager       TransactionManager
	timeProvider    TimeProvider
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	appointmentRepo AppointmentRepository,
	stylistRepo StylistRepository,
	availability Availability,
	sideEffects SideEffects,
	txManager TransactionManager,
	logger Logger,
) *UseCase {
	return &UseCase{
		appointmentRepo: appointmentRepo,
		stylistRepo:     stylistRepo,
		availability:    availability,
		sideEffects:     sideEffects,
		txManager:       txManager,
		timeProvider:    &RealTimeProvider{},
		logger:          logger,
	}
}

// WithTimeProvider подменяет источник времени
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// Execute переносит запись на новый слот
// При конфликте запись не меняется и уведомление не отправляется
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("RescheduleAppointment: id=%d, date=%s, time=%s, role=%s",
		req.AppointmentID, req.Date.Format(domain.DateFormat), req.StartTime, req.Actor.Role)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("RescheduleAppointment: validation failed: %v", err)
		return nil, err
	}

	loc := uc.availability.Location()
	newDate := dateOnly(req.Date, loc)
	if isDateInPast(newDate, uc.timeProvider.Now()) {
		uc.logger.Warn("RescheduleAppointment: date %s is in the past", newDate.Format(domain.DateFormat))
		return nil, ErrInvalidDate
	}

	// 2. Получаем запись и проверяем права
	current, err := uc.load(ctx, req)
	if err != nil {
		return nil, err
	}

	newStylistID := current.StylistID
	if req.StylistID != nil && !sameStylist(req.StylistID, current.StylistID) {
		// 3. Проверяем нового мастера
		if err := uc.checkStylist(ctx, *req.StylistID, current.ServiceIDs()); err != nil {
			return nil, err
		}
		newStylistID = req.StylistID
	}

	if newDate.Equal(dateOnly(current.Date, loc)) && req.StartTime == current.StartTime && sameStylist(newStylistID, current.StylistID) {
		uc.logger.Warn("RescheduleAppointment: appointment id=%d is already at the requested slot", current.ID)
		return nil, fmt.Errorf("%w: appointment is already at the requested slot", ErrInvalidInput)
	}

	var updated *domain.Appointment

	// 4. Блокируем старую и новую области, перепроверяем слот и переносим
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		for _, scope := range lockOrder(
			slotScope{stylistID: current.StylistID, date: current.Date},
			slotScope{stylistID: newStylistID, date: newDate},
		) {
			if err := uc.appointmentRepo.LockSlotScope(txCtx, scope.stylistID, scope.date); err != nil {
				return fmt.Errorf("%w: failed to lock slot scope: %v", ErrInternal, err)
			}
		}

		// 4.1. Статус мог измениться, пока ждали блокировку
		fresh, err := uc.appointmentRepo.GetByID(txCtx, current.ID)
		if err != nil {
			return fmt.Errorf("%w: failed to reload appointment: %v", ErrInternal, err)
		}
		if !fresh.CanBeRescheduled() {
			return ErrCannotReschedule
		}

		// 4.2. Проверяем новый слот без учета самой записи
		ok, err := uc.availability.IsSlotAvailable(txCtx, availability.SlotQuery{
			Date:                 newDate,
			StylistID:            newStylistID,
			DurationMinutes:      fresh.DurationMinutes,
			ServiceIDs:           fresh.ServiceIDs(),
			ExcludeAppointmentID: &fresh.ID,
		}, req.StartTime)
		if err != nil {
			if errors.Is(err, availability.ErrStylistNotFound) {
				return ErrStylistNotFound
			}
			return fmt.Errorf("%w: availability check failed: %v", ErrInternal, err)
		}
		if !ok {
			uc.logger.Warn("RescheduleAppointment: slot %s %s is not available for appointment id=%d",
				newDate.Format(domain.DateFormat), req.StartTime, fresh.ID)
			return ErrSlotNotAvailable
		}

		// 4.3. Переносим
		if err := uc.appointmentRepo.Reschedule(txCtx, fresh.ID, newDate, req.StartTime, newStylistID); err != nil {
			if errors.Is(err, appointmentRepo.ErrOverlap) {
				uc.logger.Error("RescheduleAppointment: storage rejected overlapping appointment: %v", err)
				return fmt.Errorf("%w: %v", ErrIntegrity, err)
			}
			return fmt.Errorf("%w: failed to reschedule: %v", ErrInternal, err)
		}

		updated, err = uc.appointmentRepo.GetByID(txCtx, fresh.ID)
		if err != nil {
			return fmt.Errorf("%w: failed to reload appointment: %v", ErrInternal, err)
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrSlotNotAvailable) && !errors.Is(err, ErrCannotReschedule) {
			uc.logger.Error("RescheduleAppointment: id=%d failed: %v", req.AppointmentID, err)
		}
		return nil, err
	}

	// 5. Сбрасываем кэш обеих дат
	uc.availability.InvalidateDate(ctx, current.Date)
	if !newDate.Equal(current.Date) {
		uc.availability.InvalidateDate(ctx, newDate)
	}

	// 6. Календарь, уведомление о переносе и событие
	uc.sideEffects.Rescheduled(updated, current.StylistID)

	uc.logger.Info("RescheduleAppointment: appointment id=%d moved to %s %s",
		updated.ID, updated.Date.Format(domain.DateFormat), updated.StartTime)

	return &Response{Appointment: updated}, nil
}

func (uc *UseCase) load(ctx context.Context, req *Request) (*domain.Appointment, error) {
	appointment, err := uc.appointmentRepo.GetByID(ctx, req.AppointmentID)
	if err != nil {
		if errors.Is(err, appointmentRepo.ErrAppointmentNotFound) {
			uc.logger.Warn("RescheduleAppointment: appointment id=%d not found", req.AppointmentID)
			return nil, ErrAppointmentNotFound
		}
		uc.logger.Error("RescheduleAppointment: failed to get appointment id=%d: %v", req.AppointmentID, err)
		return nil, fmt.Errorf("%w: failed to get appointment: %v", ErrInternal, err)
	}

	if !req.Actor.CanManage(appointment) {
		uc.logger.Warn("RescheduleAppointment: access denied to appointment id=%d", appointment.ID)
		return nil, ErrAccessDenied
	}

	if !appointment.CanBeRescheduled() {
		uc.logger.Warn("RescheduleAppointment: appointment id=%d has status %s", appointment.ID, appointment.Status)
		return nil, ErrCannotReschedule
	}

	return appointment, nil
}

func (uc *UseCase) checkStylist(ctx context.Context, stylistID int64, serviceIDs []int64) error {
	stylist, err := uc.stylistRepo.GetByID(ctx, stylistID)
	if err != nil {
		if errors.Is(err, stylistRepo.ErrStylistNotFound) {
			return ErrStylistNotFound
		}
		return fmt.Errorf("%w: failed to get stylist: %v", ErrInternal, err)
	}
	if !stylist.IsActive {
		return ErrStylistNotFound
	}
	if !stylist.CanPerform(serviceIDs) {
		return ErrStylistCannotPerform
	}
	return nil
}
