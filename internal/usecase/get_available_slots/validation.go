package get_available_slots

import (
	"fmt"

	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	if req.DurationMinutes < 0 {
		return fmt.Errorf("%w: durationMinutes must be positive", ErrInvalidInput)
	}
	if req.DurationMinutes > domain.MaxAppointmentMinutes {
		return fmt.Errorf("%w: durationMinutes must not exceed %d", ErrInvalidInput, domain.MaxAppointmentMinutes)
	}
	if req.DurationMinutes == 0 && len(req.ServiceIDs) == 0 {
		return fmt.Errorf("%w: durationMinutes or serviceIds is required", ErrInvalidInput)
	}

	if len(req.ServiceIDs) > domain.MaxServicesPerAppointment {
		return fmt.Errorf("%w: at most %d services per appointment", ErrInvalidInput, domain.MaxServicesPerAppointment)
	}
	seen := make(map[int64]struct{}, len(req.ServiceIDs))
	for _, id := range req.ServiceIDs {
		if id <= 0 {
			return fmt.Errorf("%w: serviceId must be positive", ErrInvalidInput)
		}
		if _, ok := seen[id]; ok {
			return fmt.Errorf("%w: duplicate serviceId %d", ErrInvalidInput, id)
		}
		seen[id] = struct{}{}
	}

	if req.StylistID != nil && *req.StylistID <= 0 {
		return fmt.Errorf("%w: stylistId must be positive", ErrInvalidInput)
	}

	return nil
}

// totalDuration суммирует длительность услуг; отключенная или отсутствующая услуга дает ErrServiceNotFound
func totalDuration(ids []int64, services []*domain.Service) (int, error) {
	byID := make(map[int64]*domain.Service, len(services))
	for _, s := range services {
		byID[s.ID] = s
	}

	total := 0
	for _, id := range ids {
		s, ok := byID[id]
		if !ok || !s.IsActive {
			return 0, fmt.Errorf("%w: id=%d", ErrServiceNotFound, id)
		}
		total += s.DurationMinutes
	}
	return total, nil
}
