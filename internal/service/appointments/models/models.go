package models

import (
	"errors"
	"time"

	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
)

var (
	// ErrInvalidStatus возвращается при некорректном статусе
	ErrInvalidStatus = errors.New("invalid appointment status")

	// ErrInvalidPeriod возвращается, когда конец периода раньше начала
	ErrInvalidPeriod = errors.New("end date is before start date")
)

// Request модели

// GetUserAppointmentsRequest запрос на получение записей пользователя
type GetUserAppointmentsRequest struct {
	Actor  domain.Actor
	UserID int64
	Status *string
}

// ListAppointmentsRequest запрос на выборку записей салона
type ListAppointmentsRequest struct {
	Actor            domain.Actor
	StylistID        *int64
	StartDate        *time.Time
	EndDate          *time.Time
	Status           *string
	IncludeCancelled bool
}

// ToDomainFilter конвертирует request в domain фильтр
func (r *ListAppointmentsRequest) ToDomainFilter() (domain.AppointmentFilter, error) {
	filter := domain.AppointmentFilter{
		StartDate: r.StartDate,
		EndDate:   r.EndDate,
		StylistID: r.StylistID,
	}

	if r.StartDate != nil && r.EndDate != nil && r.EndDate.Before(*r.StartDate) {
		return filter, ErrInvalidPeriod
	}

	switch {
	case r.Status != nil:
		status, err := ToDomainStatus(*r.Status)
		if err != nil {
			return filter, err
		}
		filter.Statuses = []domain.AppointmentStatus{status}
	case !r.IncludeCancelled:
		filter.Statuses = domain.ActiveStatuses
	}

	return filter, nil
}

// Response модели

// ServiceResponse услуга в записи
type ServiceResponse struct {
	ServiceID       int64  `json:"serviceId"`
	Name            string `json:"name"`
	DurationMinutes int    `json:"durationMinutes"`
	Price           int64  `json:"price"`
}

// DepositResponse депозит записи
type DepositResponse struct {
	ID         int64   `json:"id"`
	Amount     int64   `json:"amount"`
	Currency   string  `json:"currency"`
	Status     string  `json:"status"`
	PaymentURL *string `json:"paymentUrl,omitempty"`
	ExpiresAt  string  `json:"expiresAt"`
}

// AppointmentResponse ответ с данными записи
type AppointmentResponse struct {
	ID              int64             `json:"id"`
	Date            string            `json:"date"`      // "2026-03-02"
	StartTime       string            `json:"startTime"` // "10:00"
	DurationMinutes int               `json:"durationMinutes"`
	StylistID       *int64            `json:"stylistId,omitempty"`
	Services        []ServiceResponse `json:"services"`
	TotalPrice      int64             `json:"totalPrice"`
	Status          string            `json:"status"`
	Source          string            `json:"source"`

	CustomerName   string `json:"customerName"`
	CustomerEmail  string `json:"customerEmail"`
	CustomerUserID *int64 `json:"customerUserId,omitempty"`

	HoldExpiresAt      *string          `json:"holdExpiresAt,omitempty"`
	Deposit            *DepositResponse `json:"deposit,omitempty"`
	CalendarSynced     bool             `json:"calendarSynced"`
	CancellationReason *string          `json:"cancellationReason,omitempty"`
	CancelledBy        *string          `json:"cancelledBy,omitempty"`
	CancelledAt        *string          `json:"cancelledAt,omitempty"` // ISO 8601 format

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AppointmentListResponse ответ со списком записей
type AppointmentListResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
}

// Методы конвертации

// FromDomainAppointment конвертирует domain модель в DTO
func FromDomainAppointment(a *domain.Appointment) *AppointmentResponse {
	if a == nil {
		return nil
	}

	resp := &AppointmentResponse{
		ID:                 a.ID,
		Date:               a.Date.Format(domain.DateFormat),
		StartTime:          a.StartTime.String(),
		DurationMinutes:    a.DurationMinutes,
		StylistID:          a.StylistID,
		Services:           make([]ServiceResponse, 0, len(a.Services)),
		TotalPrice:         a.TotalPrice,
		Status:             string(a.Status),
		Source:             string(a.Source),
		CustomerName:       a.CustomerName,
		CustomerEmail:      a.CustomerEmail,
		CustomerUserID:     a.CustomerUserID,
		CalendarSynced:     a.CalendarEventID != nil,
		CancellationReason: a.CancellationReason,
		HoldExpiresAt:      formatTime(a.HoldExpiresAt),
		CancelledAt:        formatTime(a.CancelledAt),
		CreatedAt:          a.CreatedAt,
		UpdatedAt:          a.UpdatedAt,
	}

	for _, s := range a.Services {
		resp.Services = append(resp.Services, ServiceResponse{
			ServiceID:       s.ServiceID,
			Name:            s.Name,
			DurationMinutes: s.DurationMinutes,
			Price:           s.Price,
		})
	}

	if a.CancelledBy != nil {
		by := string(*a.CancelledBy)
		resp.CancelledBy = &by
	}

	return resp
}

// FromDomainDeposit конвертирует депозит в DTO
func FromDomainDeposit(d *domain.Deposit) *DepositResponse {
	if d == nil {
		return nil
	}
	resp := &DepositResponse{
		ID:        d.ID,
		Amount:    d.Amount,
		Currency:  d.Currency,
		Status:    string(d.Status),
		ExpiresAt: d.ExpiresAt.Format(time.RFC3339),
	}
	if d.IsPending() {
		resp.PaymentURL = d.PaymentURL
	}
	return resp
}

// FromDomainAppointmentList конвертирует список domain моделей в DTO
func FromDomainAppointmentList(list []*domain.Appointment) *AppointmentListResponse {
	resp := &AppointmentListResponse{
		Appointments: make([]AppointmentResponse, 0, len(list)),
	}
	for _, a := range list {
		if item := FromDomainAppointment(a); item != nil {
			resp.Appointments = append(resp.Appointments, *item)
		}
	}
	return resp
}

// ToDomainStatus конвертирует строку в domain.AppointmentStatus с валидацией
func ToDomainStatus(status string) (domain.AppointmentStatus, error) {
	s := domain.AppointmentStatus(status)
	if !s.IsValid() {
		return "", ErrInvalidStatus
	}
	return s, nil
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
