package create_appointment

import (
	"github.com/m04kA/SMC-SalonScheduler/internal/api/handlers"
	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
	"github.com/m04kA/SMC-SalonScheduler/internal/service/appointments/models"
	createAppointment "github.com/m04kA/SMC-SalonScheduler/internal/usecase/create_appointment"
	"github.com/m04kA/SMC-SalonScheduler/pkg/types"
)

// CreateAppointmentRequest HTTP request model
type CreateAppointmentRequest struct {
	Date          string  `json:"date"`      // "2026-03-02"
	StartTime     string  `json:"startTime"` // "10:00"
	ServiceIDs    []int64 `json:"serviceIds"`
	StylistID     *int64  `json:"stylistId,omitempty"` // nil = любой мастер
	CustomerName  string  `json:"customerName"`
	CustomerEmail string  `json:"customerEmail"`
	Source        string  `json:"source,omitempty"` // web, telegram, line, admin
}

// CreateAppointmentResponse HTTP response model
type CreateAppointmentResponse struct {
	models.AppointmentResponse
	PaymentURL *string `json:"paymentUrl,omitempty"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateAppointmentRequest) ToUseCaseRequest(userID *int64) (*createAppointment.Request, error) {
	date, err := handlers.ParseDate(r.Date)
	if err != nil {
		return nil, err
	}

	startTime, err := types.NewTimeStringFromString(r.StartTime)
	if err != nil {
		return nil, err
	}

	return &createAppointment.Request{
		Date:           date,
		StartTime:      startTime,
		ServiceIDs:     r.ServiceIDs,
		StylistID:      r.StylistID,
		CustomerName:   r.CustomerName,
		CustomerEmail:  r.CustomerEmail,
		CustomerUserID: userID,
		Source:         domain.BookingSource(r.Source),
	}, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *createAppointment.Response) *CreateAppointmentResponse {
	result := &CreateAppointmentResponse{
		AppointmentResponse: *models.FromDomainAppointment(resp.Appointment),
		PaymentURL:          resp.PaymentURL,
	}
	result.Deposit = models.FromDomainDeposit(resp.Deposit)
	return result
}
