package deposits

import "errors"

var (
	// ErrPaymentProvider не удалось создать платеж у провайдера
	ErrPaymentProvider = errors.New("deposits: payment provider failed")

	// ErrInvalidSignature webhook не прошел проверку подписи
	ErrInvalidSignature = errors.New("deposits: invalid webhook signature")

	// ErrDepositNotFound депозит из события не найден
	ErrDepositNotFound = errors.New("deposits: deposit not found")

	// ErrRepository ошибка хранилища
	ErrRepository = errors.New("deposits: repository error")
)
