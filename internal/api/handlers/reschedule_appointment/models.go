package reschedule_appointment

import (
	"github.com/m04kA/SMC-SalonScheduler/internal/api/handlers"
	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
	rescheduleAppointment "github.com/m04kA/SMC-SalonScheduler/internal/usecase/reschedule_appointment"
	"github.com/m04kA/SMC-SalonScheduler/pkg/types"
)

// RescheduleAppointmentRequest HTTP request model
type RescheduleAppointmentRequest struct {
	Date      string `json:"date"`      // "2026-03-03"
	StartTime string `json:"startTime"` // "11:00"
	StylistID *int64 `json:"stylistId,omitempty"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *RescheduleAppointmentRequest) ToUseCaseRequest(appointmentID int64, actor domain.Actor) (*rescheduleAppointment.Request, error) {
	date, err := handlers.ParseDate(r.Date)
	if err != nil {
		return nil, err
	}

	startTime, err := types.NewTimeStringFromString(r.StartTime)
	if err != nil {
		return nil, err
	}

	return &rescheduleAppointment.Request{
		AppointmentID: appointmentID,
		Actor:         actor,
		Date:          date,
		StartTime:     startTime,
		StylistID:     r.StylistID,
	}, nil
}
