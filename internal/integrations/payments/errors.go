package payments

import "errors"

var (
	// ErrProvider ошибка платежного провайдера (сеть, 5xx, отказ в создании сессии)
	ErrProvider = errors.New("payments client: provider error")

	// ErrNotConfigured провайдер не настроен (нет секретного ключа)
	ErrNotConfigured = errors.New("payments client: provider is not configured")

	// ErrInvalidSignature подпись webhook не прошла проверку
	ErrInvalidSignature = errors.New("payments client: invalid webhook signature")

	// ErrInvalidPayload событие не удалось разобрать
	ErrInvalidPayload = errors.New("payments client: invalid webhook payload")
)
