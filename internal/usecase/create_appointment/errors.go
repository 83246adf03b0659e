package create_appointment

import "errors"

var (
	// ErrServiceNotFound возвращается, когда услуга не найдена или снята с продажи
	ErrServiceNotFound = errors.New("create_appointment: service not found")

	// ErrStylistNotFound возвращается, когда мастер не найден или неактивен
	ErrStylistNotFound = errors.New("create_appointment: stylist not found")

	// ErrStylistCannotPerform возвращается, когда мастер не выполняет выбранные услуги
	ErrStylistCannotPerform = errors.New("create_appointment: stylist does not perform selected services")

	// ErrInvalidDate возвращается при дате в прошлом
	ErrInvalidDate = errors.New("create_appointment: invalid appointment date")

	// ErrSlotNotAvailable возвращается, когда слот уже занят или вне рабочего времени
	ErrSlotNotAvailable = errors.New("create_appointment: slot is not available")

	// ErrPaymentProvider возвращается, когда провайдер не создал платеж депозита
	ErrPaymentProvider = errors.New("create_appointment: payment provider failed")

	// ErrIntegrity возвращается, когда БД отклонила пересекающуюся запись
	ErrIntegrity = errors.New("create_appointment: overlapping appointment rejected by storage")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("create_appointment: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_appointment: internal error")
)
