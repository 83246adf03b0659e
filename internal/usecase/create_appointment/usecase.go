package create_appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
	appointmentRepo "github.com/m04kA/SMC-SalonScheduler/internal/infra/storage/appointment"
	catalogRepo "github.com/m04kA/SMC-SalonScheduler/internal/infra/storage/catalog"
	stylistRepo "github.com/m04kA/SMC-SalonScheduler/internal/infra/storage/stylist"
	"github.com/m04kA/SMC-SalonScheduler/internal/service/availability"
	"github.com/m04kA/SMC-SalonScheduler/internal/service/deposits"
	"github.com/m04kA/SMC-SalonScheduler/pkg/ptr"
)

// anyStylistAttempts сколько раз выбирается "любой" мастер, если выбранного заняли
const anyStylistAttempts = 2

// Config параметры создания записи
type Config struct {
	HoldTimeout time.Duration // Время удержания слота до оплаты депозита
}

// UseCase use case для создания записи
type UseCase struct {
	appointmentRepo AppointmentRepository
	catalogRepo     CatalogRepository
	stylistRepo     StylistRepository
	availability    Availability
	deposits        DepositManager
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
	catalogRepo CatalogRepository,
	stylistRepo StylistRepository,
	availability Availability,
	deposits DepositManager,
	sideEffects SideEffects,
	txManager TransactionManager,
	metrics Metrics,
	cfg Config,
	logger Logger,
) *UseCase {
	if cfg.HoldTimeout <= 0 {
		cfg.HoldTimeout = domain.DefaultHoldTimeout
	}
	return &UseCase{
		appointmentRepo: appointmentRepo,
		catalogRepo:     catalogRepo,
		stylistRepo:     stylistRepo,
		availability:    availability,
		deposits:        deposits,
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

// Execute выполняет use case создания записи
// Проверка слота и вставка выполняются в сериализуемой транзакции под advisory-блокировкой
// (мастер, дата), поэтому из двух одновременных попыток на один слот успешна только одна
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateAppointment: date=%s, time=%s, services=%v, stylist=%s, email=%s",
		req.Date.Format(domain.DateFormat), req.StartTime, req.ServiceIDs, formatStylist(req.StylistID), req.CustomerEmail)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateAppointment: validation failed: %v", err)
		return nil, err
	}

	loc := uc.availability.Location()
	date := dateOnly(req.Date, loc)
	now := uc.timeProvider.Now()

	if isDateInPast(date, now) {
		uc.logger.Warn("CreateAppointment: date %s is in the past", date.Format(domain.DateFormat))
		return nil, ErrInvalidDate
	}

	// 2. Получаем услуги
	services, err := uc.catalogRepo.GetServicesByIDs(ctx, req.ServiceIDs)
	if err != nil {
		if errors.Is(err, catalogRepo.ErrServiceNotFound) {
			uc.logger.Warn("CreateAppointment: services %v not found", req.ServiceIDs)
			return nil, fmt.Errorf("%w: %v", ErrServiceNotFound, err)
		}
		uc.logger.Error("CreateAppointment: failed to get services: %v", err)
		return nil, fmt.Errorf("%w: failed to get services: %v", ErrInternal, err)
	}

	snapshot, duration, total, err := buildServices(services)
	if err != nil {
		uc.logger.Warn("CreateAppointment: %v", err)
		return nil, err
	}

	// 3. Проверяем выбранного мастера
	if req.StylistID != nil {
		if err := uc.checkStylist(ctx, *req.StylistID, req.ServiceIDs); err != nil {
			return nil, err
		}
	}

	// 4. Решаем, нужен ли депозит
	requiresDeposit, policy, err := uc.deposits.RequiresDeposit(ctx, deposits.Customer{
		Email:  req.CustomerEmail,
		UserID: req.CustomerUserID,
	})
	if err != nil {
		uc.logger.Error("CreateAppointment: failed to resolve deposit policy: %v", err)
		return nil, fmt.Errorf("%w: failed to resolve deposit policy: %v", ErrInternal, err)
	}
	depositAmount := int64(0)
	if requiresDeposit {
		depositAmount = deposits.CalculateAmount(total, policy.Percentage)
		requiresDeposit = depositAmount > 0
	}

	source := req.Source
	if source == "" {
		source = domain.SourceWeb
	}

	var (
		created *domain.Appointment
		deposit *domain.Deposit
	)

	// 5. Проверяем слот и сохраняем запись в сериализуемой транзакции
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		query := availability.SlotQuery{
			Date:            date,
			StylistID:       req.StylistID,
			DurationMinutes: duration,
			ServiceIDs:      req.ServiceIDs,
		}

		// 5.1. Выбираем мастера, блокируем (мастер, дата) и перепроверяем слот
		stylistID, err := uc.reserveSlot(txCtx, query, req)
		if err != nil {
			return err
		}

		// 5.2. Создаем запись
		appointment := &domain.Appointment{
			Date:            date,
			StartTime:       req.StartTime,
			DurationMinutes: duration,
			StylistID:       stylistID,
			Services:        snapshot,
			TotalPrice:      total,
			CustomerName:    strings.TrimSpace(req.CustomerName),
			CustomerEmail:   strings.TrimSpace(req.CustomerEmail),
			CustomerUserID:  req.CustomerUserID,
			Status:          domain.StatusScheduled,
			Source:          source,
		}
		if requiresDeposit {
			appointment.Status = domain.StatusPendingPayment
			appointment.HoldExpiresAt = ptr.Ptr(now.Add(uc.cfg.HoldTimeout))
		}

		created, err = uc.appointmentRepo.Create(txCtx, appointment)
		if err != nil {
			if errors.Is(err, appointmentRepo.ErrOverlap) {
				uc.logger.Error("CreateAppointment: storage rejected overlapping appointment: %v", err)
				return fmt.Errorf("%w: %v", ErrIntegrity, err)
			}
			uc.logger.Error("CreateAppointment: failed to create appointment: %v", err)
			return fmt.Errorf("%w: failed to create appointment: %v", ErrInternal, err)
		}

		// 5.3. Резервируем депозит в той же транзакции
		if requiresDeposit {
			deposit, err = uc.deposits.ReserveHold(txCtx, created, depositAmount, *created.HoldExpiresAt)
			if err != nil {
				uc.logger.Error("CreateAppointment: failed to reserve deposit: %v", err)
				return fmt.Errorf("%w: failed to reserve deposit: %v", ErrInternal, err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	// 6. Сбрасываем кэш слотов на дату
	uc.availability.InvalidateDate(ctx, date)
	uc.observe("", created.Status)

	uc.logger.Info("CreateAppointment: created appointment id=%d, status=%s, stylist=%s",
		created.ID, created.Status, formatStylist(created.StylistID))

	response := &Response{Appointment: created, Deposit: deposit}

	// 7. Создаем платеж депозита; при отказе провайдера освобождаем слот
	if deposit != nil {
		hold, err := uc.deposits.CreateHold(ctx, created, deposit)
		if err != nil {
			uc.releaseHold(ctx, created, deposit)
			return nil, fmt.Errorf("%w: %v", ErrPaymentProvider, err)
		}
		deposit.PaymentURL = ptr.Ptr(hold.PaymentURL)
		response.PaymentURL = deposit.PaymentURL
		return response, nil
	}

	// 8. Подтвержденная запись: календарь, уведомление и событие
	uc.sideEffects.Scheduled(created)

	return response, nil
}

// checkStylist проверяет, что мастер активен и выполняет все выбранные услуги
func (uc *UseCase) checkStylist(ctx context.Context, stylistID int64, serviceIDs []int64) error {
	stylist, err := uc.stylistRepo.GetByID(ctx, stylistID)
	if err != nil {
		if errors.Is(err, stylistRepo.ErrStylistNotFound) {
			uc.logger.Warn("CreateAppointment: stylist id=%d not found", stylistID)
			return ErrStylistNotFound
		}
		uc.logger.Error("CreateAppointment: failed to get stylist id=%d: %v", stylistID, err)
		return fmt.Errorf("%w: failed to get stylist: %v", ErrInternal, err)
	}

	if !stylist.IsActive {
		uc.logger.Warn("CreateAppointment: stylist id=%d is inactive", stylistID)
		return ErrStylistNotFound
	}
	if !stylist.CanPerform(serviceIDs) {
		uc.logger.Warn("CreateAppointment: stylist id=%d cannot perform services %v", stylistID, serviceIDs)
		return ErrStylistCannotPerform
	}

	return nil
}

// reserveSlot выбирает мастера для "любого" мастера, берет блокировку и перепроверяет слот
// Если выбранного мастера заняли, пока ждали блокировку, выбор повторяется среди остальных
func (uc *UseCase) reserveSlot(ctx context.Context, query availability.SlotQuery, req *Request) (*int64, error) {
	if query.StylistID != nil {
		return uc.lockAndCheck(ctx, query, req)
	}

	var lost []int64
	for attempt := 0; attempt < anyStylistAttempts; attempt++ {
		query.SkipStylistIDs = lost
		picked, err := uc.availability.FindFreeStylist(ctx, query, req.StartTime)
		if err != nil {
			return nil, uc.mapAvailabilityError(err, req)
		}

		pickedQuery := query
		pickedQuery.StylistID = picked
		stylistID, err := uc.lockAndCheck(ctx, pickedQuery, req)
		if !errors.Is(err, ErrSlotNotAvailable) || picked == nil {
			return stylistID, err
		}
		lost = append(lost, *picked)
	}

	return nil, ErrSlotNotAvailable
}

func (uc *UseCase) lockAndCheck(ctx context.Context, query availability.SlotQuery, req *Request) (*int64, error) {
	if err := uc.appointmentRepo.LockSlotScope(ctx, query.StylistID, query.Date); err != nil {
		uc.logger.Error("CreateAppointment: failed to lock slot scope: %v", err)
		return nil, fmt.Errorf("%w: failed to lock slot scope: %v", ErrInternal, err)
	}

	ok, err := uc.availability.IsSlotAvailable(ctx, query, req.StartTime)
	if err != nil {
		return nil, uc.mapAvailabilityError(err, req)
	}
	if !ok {
		uc.logger.Warn("CreateAppointment: slot %s %s is taken for stylist %s",
			query.Date.Format(domain.DateFormat), req.StartTime, formatStylist(query.StylistID))
		return nil, ErrSlotNotAvailable
	}

	return query.StylistID, nil
}

func (uc *UseCase) mapAvailabilityError(err error, req *Request) error {
	switch {
	case errors.Is(err, availability.ErrNoFreeStylist):
		uc.logger.Warn("CreateAppointment: no free stylist at %s %s",
			req.Date.Format(domain.DateFormat), req.StartTime)
		return ErrSlotNotAvailable
	case errors.Is(err, availability.ErrStylistNotFound):
		return ErrStylistNotFound
	case errors.Is(err, availability.ErrInvalidDuration):
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	default:
		uc.logger.Error("CreateAppointment: availability check failed: %v", err)
		return fmt.Errorf("%w: availability check failed: %v", ErrInternal, err)
	}
}

// releaseHold отменяет запись, для которой не удалось создать платеж, и освобождает слот
func (uc *UseCase) releaseHold(ctx context.Context, appointment *domain.Appointment, deposit *domain.Deposit) {
	now := uc.timeProvider.Now()

	cancelled, err := uc.appointmentRepo.Transition(ctx, domain.StatusTransition{
		AppointmentID: appointment.ID,
		From:          []domain.AppointmentStatus{domain.StatusPendingPayment},
		To:            domain.StatusCancelled,
		At:            now,
		Reason:        ptr.Ptr("payment provider unavailable"),
		CancelledBy:   ptr.Ptr(domain.CancelledBySystem),
	})
	if err != nil {
		uc.logger.Error("CreateAppointment: failed to cancel appointment id=%d after provider failure: %v", appointment.ID, err)
		return
	}

	if _, err := uc.deposits.Forfeit(ctx, deposit.ID, now); err != nil {
		uc.logger.Error("CreateAppointment: failed to forfeit deposit id=%d: %v", deposit.ID, err)
	}

	uc.availability.InvalidateDate(ctx, appointment.Date)

	if cancelled {
		appointment.Status = domain.StatusCancelled
		uc.observe(domain.StatusPendingPayment, domain.StatusCancelled)
		uc.logger.Warn("CreateAppointment: appointment id=%d cancelled, payment provider failed", appointment.ID)
	}
}

func (uc *UseCase) observe(from, to domain.AppointmentStatus) {
	if uc.metrics == nil {
		return
	}
	if from == "" {
		from = "new"
	}
	uc.metrics.IncAppointmentTransition(string(from), string(to))
}

func formatStylist(id *int64) string {
	if id == nil {
		return "any"
	}
	return fmt.Sprintf("%d", *id)
}
