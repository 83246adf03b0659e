package domain

import (
	"time"

	"github.com/m04kA/SMC-SalonScheduler/pkg/types"
)

// AppointmentStatus represents the lifecycle status of an appointment
type AppointmentStatus string

const (
	StatusPendingPayment AppointmentStatus = "pending_payment"
	StatusScheduled      AppointmentStatus = "scheduled"
	StatusCompleted      AppointmentStatus = "completed"
	StatusCancelled      AppointmentStatus = "cancelled"
)

// IsValid returns true for known statuses
func (s AppointmentStatus) IsValid() bool {
	switch s {
	case StatusPendingPayment, StatusScheduled, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

// BookingSource is the channel an appointment was booked through
type BookingSource string

const (
	SourceWeb      BookingSource = "web"
	SourceTelegram BookingSource = "telegram"
	SourceLine     BookingSource = "line"
	SourceAdmin    BookingSource = "admin"
)

// IsValid returns true for known sources
func (s BookingSource) IsValid() bool {
	switch s {
	case SourceWeb, SourceTelegram, SourceLine, SourceAdmin:
		return true
	default:
		return false
	}
}

// CancelledBy identifies who cancelled an appointment
type CancelledBy string

const (
	CancelledByCustomer CancelledBy = "customer"
	CancelledByStylist  CancelledBy = "stylist"
	CancelledByAdmin    CancelledBy = "admin"
	CancelledBySystem   CancelledBy = "system"
)

// AppointmentService is a snapshot of a booked service
type AppointmentService struct {
	ServiceID       int64
	Name            string
	DurationMinutes int
	Price           int64 // minor units
}

// Appointment represents a salon appointment
type Appointment struct {
	ID              int64
	Date            time.Time // calendar date in the salon time zone
	StartTime       types.TimeString
	DurationMinutes int
	StylistID       *int64 // nil = unassigned (salon without stylists)

	Services   []AppointmentService
	TotalPrice int64 // minor units

	CustomerName   string
	CustomerEmail  string
	CustomerUserID *int64

	Status          AppointmentStatus
	Source          BookingSource
	CalendarEventID *string
	DepositID       *int64
	HoldExpiresAt   *time.Time

	ReminderClaimedAt *time.Time
	ReminderSentAt    *time.Time

	CancellationReason *string
	CancelledBy        *CancelledBy
	CancelledAt        *time.Time
	CompletedAt        *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActive returns true if the appointment occupies its slot
func (a *Appointment) IsActive() bool {
	return a.Status != StatusCancelled
}

// IsTerminal returns true for completed and cancelled appointments
func (a *Appointment) IsTerminal() bool {
	return a.Status == StatusCompleted || a.Status == StatusCancelled
}

// CanBeCancelled returns true if the appointment can move to cancelled
func (a *Appointment) CanBeCancelled() bool {
	return a.Status == StatusPendingPayment || a.Status == StatusScheduled
}

// CanBeRescheduled returns true if the appointment can be moved to another slot
func (a *Appointment) CanBeRescheduled() bool {
	return a.Status == StatusScheduled
}

// Interval returns the occupied [start, end) interval in minutes of the day
func (a *Appointment) Interval() Interval {
	start := a.StartTime.Minutes()
	return Interval{Start: start, End: start + a.DurationMinutes}
}

// StartsAt returns the start moment in the given location
func (a *Appointment) StartsAt(loc *time.Location) time.Time {
	return a.StartTime.On(a.Date, loc)
}

// EndsAt returns the end moment in the given location
func (a *Appointment) EndsAt(loc *time.Location) time.Time {
	return a.StartsAt(loc).Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// IsOwnedBy returns true if the appointment belongs to the user
func (a *Appointment) IsOwnedBy(userID int64) bool {
	return a.CustomerUserID != nil && *a.CustomerUserID == userID
}

// ServiceIDs returns ids of booked services
func (a *Appointment) ServiceIDs() []int64 {
	ids := make([]int64, 0, len(a.Services))
	for _, s := range a.Services {
		ids = append(ids, s.ServiceID)
	}
	return ids
}

// AppointmentFilter фильтр выборки записей
type AppointmentFilter struct {
	StartDate      *time.Time          // Начало периода (включительно)
	EndDate        *time.Time          // Конец периода (включительно)
	StylistID      *int64              // Записи конкретного мастера
	Unassigned     bool                // Только записи без мастера
	HasStylist     bool                // Только записи с мастером
	Statuses       []AppointmentStatus // Пусто = любые статусы
	CustomerUserID *int64
	CustomerEmail  *string

	// Границы по времени начала записи (настенное время салона)
	StartsAfter  *time.Time
	StartsBefore *time.Time

	HoldExpiredBefore    *time.Time // pending_payment с истекшим холдом
	ReminderPending      bool       // Напоминание ещё не отправлено
	MissingCalendarEvent bool       // Нет ссылки на событие календаря

	Limit int
}

// StatusTransition условный переход статуса записи
// Применяется только если текущий статус входит в From
type StatusTransition struct {
	AppointmentID int64
	From          []AppointmentStatus
	To            AppointmentStatus
	At            time.Time
	Reason        *string
	CancelledBy   *CancelledBy
}
