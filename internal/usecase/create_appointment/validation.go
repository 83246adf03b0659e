package create_appointment

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	if req.StartTime.IsZero() {
		return fmt.Errorf("%w: startTime is required", ErrInvalidInput)
	}
	if err := req.StartTime.Validate(); err != nil {
		return fmt.Errorf("%w: invalid startTime format: %v", ErrInvalidInput, err)
	}

	if len(req.ServiceIDs) == 0 {
		return fmt.Errorf("%w: at least one service is required", ErrInvalidInput)
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

	name := strings.TrimSpace(req.CustomerName)
	if name == "" {
		return fmt.Errorf("%w: customer name is required", ErrInvalidInput)
	}
	if len([]rune(name)) > domain.MaxCustomerNameLength {
		return fmt.Errorf("%w: customer name is too long", ErrInvalidInput)
	}

	if err := validateEmail(req.CustomerEmail); err != nil {
		return err
	}

	if req.Source != "" && !req.Source.IsValid() {
		return fmt.Errorf("%w: unknown source %q", ErrInvalidInput, req.Source)
	}

	return nil
}

// validateEmail проверяет адрес клиента; допускается только голый адрес без имени
func validateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("%w: customer email is required", ErrInvalidInput)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("%w: invalid customer email", ErrInvalidInput)
	}
	return nil
}

// buildServices собирает снимок услуг, общую длительность и стоимость
func buildServices(services []*domain.Service) ([]domain.AppointmentService, int, int64, error) {
	snapshot := make([]domain.AppointmentService, 0, len(services))
	duration := 0
	var total int64

	for _, s := range services {
		if !s.IsActive {
			return nil, 0, 0, fmt.Errorf("%w: id=%d is inactive", ErrServiceNotFound, s.ID)
		}
		snapshot = append(snapshot, domain.AppointmentService{
			ServiceID:       s.ID,
			Name:            s.Name,
			DurationMinutes: s.DurationMinutes,
			Price:           s.Price,
		})
		duration += s.DurationMinutes
		total += s.Price
	}

	if duration <= 0 {
		return nil, 0, 0, fmt.Errorf("%w: total duration must be positive", ErrInvalidInput)
	}
	if duration > domain.MaxAppointmentMinutes {
		return nil, 0, 0, fmt.Errorf("%w: total duration exceeds %d minutes", ErrInvalidInput, domain.MaxAppointmentMinutes)
	}

	return snapshot, duration, total, nil
}

// dateOnly обнуляет время, оставляя календарную дату в часовом поясе салона
func dateOnly(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// isDateInPast проверяет, что дата раньше сегодняшнего дня
func isDateInPast(date, now time.Time) bool {
	return date.Before(dateOnly(now.In(date.Location()), date.Location()))
}
