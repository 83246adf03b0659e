package line

import "errors"

var (
	// ErrNotConfigured не задан токен канала
	ErrNotConfigured = errors.New("line client: channel token is not configured")

	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("line client: internal error")

	// ErrInvalidResponse возвращается при отказе Messaging API
	ErrInvalidResponse = errors.New("line client: invalid response")
)
