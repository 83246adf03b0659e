package availability

import "errors"

var (
	// ErrInvalidDuration длительность должна быть положительной
	ErrInvalidDuration = errors.New("availability: duration must be positive")

	// ErrStylistNotFound мастер не найден или неактивен
	ErrStylistNotFound = errors.New("availability: stylist not found")

	// ErrNoFreeStylist ни один мастер не свободен на выбранное время
	ErrNoFreeStylist = errors.New("availability: no free stylist for the slot")

	// ErrLoadData ошибка чтения расписания
	ErrLoadData = errors.New("availability: failed to load schedule data")
)
