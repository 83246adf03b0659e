package contact

import "errors"

var (
	// ErrContactNotFound возвращается, когда у клиента нет привязанных мессенджеров
	ErrContactNotFound = errors.New("contact.repository: contact not found")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("contact.repository: failed to build query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("contact.repository: failed to scan row")
)
