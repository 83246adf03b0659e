package cancel_appointment

import (
	"github.com/m04kA/SMC-SalonScheduler/internal/service/appointments/models"
	cancelAppointment "github.com/m04kA/SMC-SalonScheduler/internal/usecase/cancel_appointment"
)

// CancelAppointmentRequest HTTP request model
type CancelAppointmentRequest struct {
	CancellationReason *string `json:"cancellationReason,omitempty"`
}

// CancelAppointmentResponse HTTP response model
type CancelAppointmentResponse struct {
	models.AppointmentResponse
	AlreadyCancelled bool `json:"alreadyCancelled"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *cancelAppointment.Response) *CancelAppointmentResponse {
	return &CancelAppointmentResponse{
		AppointmentResponse: *models.FromDomainAppointment(resp.Appointment),
		AlreadyCancelled:    resp.AlreadyCancelled,
	}
}
