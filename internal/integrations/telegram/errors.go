package telegram

import "errors"

var (
	// ErrNotConfigured не задан токен бота
	ErrNotConfigured = errors.New("telegram client: bot token is not configured")

	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("telegram client: internal error")

	// ErrInvalidResponse возвращается при отказе Bot API
	ErrInvalidResponse = errors.New("telegram client: invalid response")
)
