package reschedule_appointment

import (
	"fmt"
	"sort"
	"time"

	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.AppointmentID <= 0 {
		return fmt.Errorf("%w: appointmentId must be positive", ErrInvalidInput)
	}

	if req.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	if req.StartTime.IsZero() {
		return fmt.Errorf("%w: startTime is required", ErrInvalidInput)
	}
	if err := req.StartTime.Validate(); err != nil {
		return fmt.Errorf("%w: invalid startTime format: %v", ErrInvalidInput, err)
	}

	if req.StylistID != nil && *req.StylistID <= 0 {
		return fmt.Errorf("%w: stylistId must be positive", ErrInvalidInput)
	}

	return nil
}

// slotScope пара (мастер, дата), на которую берется advisory-блокировка
type slotScope struct {
	stylistID *int64
	date      time.Time
}

func (s slotScope) key() string {
	id := int64(0)
	if s.stylistID != nil {
		id = *s.stylistID
	}
	return fmt.Sprintf("%020d:%s", id, s.date.Format(domain.DateFormat))
}

// lockOrder возвращает уникальные области блокировки в детерминированном порядке,
// чтобы встречные переносы не взаимоблокировались
func lockOrder(scopes ...slotScope) []slotScope {
	seen := make(map[string]struct{}, len(scopes))
	result := make([]slotScope, 0, len(scopes))
	for _, s := range scopes {
		if _, ok := seen[s.key()]; ok {
			continue
		}
		seen[s.key()] = struct{}{}
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].key() < result[j].key() })
	return result
}

func sameStylist(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func dateOnly(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func isDateInPast(date, now time.Time) bool {
	return date.Before(dateOnly(now.In(date.Location()), date.Location()))
}
