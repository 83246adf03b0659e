package email

import "errors"

var (
	// ErrNotConfigured не задан SMTP сервер
	ErrNotConfigured = errors.New("email client: smtp is not configured")

	// ErrSend ошибка отправки письма
	ErrSend = errors.New("email client: failed to send")
)
