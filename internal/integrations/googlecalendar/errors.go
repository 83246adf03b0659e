package googlecalendar

import "errors"

var (
	// ErrTokenInvalid токен календаря отозван или не обновляется; требуется переподключение
	ErrTokenInvalid = errors.New("googlecalendar client: token is invalid")

	// ErrEventNotFound событие удалено в календаре (404/410)
	ErrEventNotFound = errors.New("googlecalendar client: event not found")

	// ErrProvider прочие ошибки провайдера
	ErrProvider = errors.New("googlecalendar client: provider error")
)
