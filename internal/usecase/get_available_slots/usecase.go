package get_available_slots

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
	catalogStorage "github.com/m04kA/SMC-SalonScheduler/internal/infra/storage/catalog"
	"github.com/m04kA/SMC-SalonScheduler/internal/service/availability"
)

// UseCase use case для получения доступных слотов
type UseCase struct {
	availability Availability
	catalogRepo  CatalogRepository
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(availability Availability, catalogRepo CatalogRepository, logger Logger) *UseCase {
	return &UseCase{
		availability: availability,
		catalogRepo:  catalogRepo,
		logger:       logger,
	}
}

// Execute выполняет use case получения доступных слотов
// Закрытый день и прошедшая дата дают пустой список, а не ошибку
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("GetAvailableSlots: validation failed: %v", err)
		return nil, err
	}

	// 2. Длительность из услуг, если не задана явно
	duration := req.DurationMinutes
	if len(req.ServiceIDs) > 0 {
		services, err := uc.catalogRepo.GetServicesByIDs(ctx, req.ServiceIDs)
		if errors.Is(err, catalogStorage.ErrServiceNotFound) {
			uc.logger.Warn("GetAvailableSlots: %v", err)
			return nil, fmt.Errorf("%w: %v", ErrServiceNotFound, err)
		}
		if err != nil {
			uc.logger.Error("GetAvailableSlots: failed to get services %v: %v", req.ServiceIDs, err)
			return nil, fmt.Errorf("%w: failed to get services: %v", ErrInternal, err)
		}
		total, err := totalDuration(req.ServiceIDs, services)
		if err != nil {
			uc.logger.Warn("GetAvailableSlots: %v", err)
			return nil, err
		}
		if duration == 0 {
			duration = total
		}
	}

	// 3. Расчет слотов
	slots, err := uc.availability.ComputeSlots(ctx, availability.SlotQuery{
		Date:            req.Date,
		StylistID:       req.StylistID,
		DurationMinutes: duration,
		ServiceIDs:      req.ServiceIDs,
	})
	if err != nil {
		switch {
		case errors.Is(err, availability.ErrStylistNotFound):
			uc.logger.Warn("GetAvailableSlots: stylist id=%d not found", *req.StylistID)
			return nil, ErrStylistNotFound
		case errors.Is(err, availability.ErrInvalidDuration):
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		uc.logger.Error("GetAvailableSlots: failed to compute slots for %s: %v", req.Date.Format(domain.DateFormat), err)
		return nil, fmt.Errorf("%w: failed to compute slots: %v", ErrInternal, err)
	}

	return &Response{
		Date:            req.Date,
		StylistID:       req.StylistID,
		DurationMinutes: duration,
		Slots:           slots,
	}, nil
}
