package reschedule_appointment

import "errors"

var (
	// ErrAppointmentNotFound возвращается, когда запись не найдена
	ErrAppointmentNotFound = errors.New("reschedule_appointment: appointment not found")

	// ErrAccessDenied возвращается, когда переносить запись может только владелец, мастер или администратор
	ErrAccessDenied = errors.New("reschedule_appointment: access denied")

	// ErrCannotReschedule возвращается для записей не в статусе scheduled
	ErrCannotReschedule = errors.New("reschedule_appointment: only scheduled appointments can be rescheduled")

	// ErrStylistNotFound возвращается, когда новый мастер не найден или неактивен
	ErrStylistNotFound = errors.New("reschedule_appointment: stylist not found")

	// ErrStylistCannotPerform возвращается, когда новый мастер не выполняет услуги записи
	ErrStylistCannotPerform = errors.New("reschedule_appointment: stylist does not perform booked services")

	// ErrInvalidDate возвращается при дате в прошлом
	ErrInvalidDate = errors.New("reschedule_appointment: invalid appointment date")

	// ErrSlotNotAvailable возвращается, когда новый слот занят
	ErrSlotNotAvailable = errors.New("reschedule_appointment: slot is not available")

	// ErrIntegrity возвращается, когда БД отклонила пересекающуюся запись
	ErrIntegrity = errors.New("reschedule_appointment: overlapping appointment rejected by storage")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("reschedule_appointment: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("reschedule_appointment: internal error")
)
