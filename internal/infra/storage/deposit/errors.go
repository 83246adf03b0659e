package deposit

import "errors"

var (
	// ErrDepositNotFound возвращается, когда депозит не найден
	ErrDepositNotFound = errors.New("deposit.repository: deposit not found")

	// ErrDepositExists возвращается при попытке создать второй депозит для записи
	ErrDepositExists = errors.New("deposit.repository: deposit already exists for appointment")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("deposit.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("deposit.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("deposit.repository: failed to scan row")
)
