package get_available_slots

import (
	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
	getAvailableSlots "github.com/m04kA/SMC-SalonScheduler/internal/usecase/get_available_slots"
)

// AvailableSlotsResponse HTTP response model
type AvailableSlotsResponse struct {
	Date            string   `json:"date"`
	StylistID       *int64   `json:"stylistId,omitempty"`
	DurationMinutes int      `json:"durationMinutes"`
	Slots           []string `json:"slots"` // ["09:00", "09:30"]
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *getAvailableSlots.Response) *AvailableSlotsResponse {
	slots := make([]string, 0, len(resp.Slots))
	for _, s := range resp.Slots {
		slots = append(slots, s.String())
	}
	return &AvailableSlotsResponse{
		Date:            resp.Date.Format(domain.DateFormat),
		StylistID:       resp.StylistID,
		DurationMinutes: resp.DurationMinutes,
		Slots:           slots,
	}
}
