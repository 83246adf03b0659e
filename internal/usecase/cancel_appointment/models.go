package cancel_appointment

import "github.com/m04kA/SMC-SalonScheduler/internal/domain"

// Request модель запроса на отмену записи
type Request struct {
	AppointmentID int64
	Actor         domain.Actor
	Reason        *string // Причина отмены (опционально)
}

// Response модель ответа с отмененной записью
type Response struct {
	Appointment      *domain.Appointment
	AlreadyCancelled bool // Запись была отменена раньше, ничего не изменилось
}
