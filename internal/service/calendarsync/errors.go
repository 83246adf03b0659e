package calendarsync

import "errors"

var (
	// ErrProvider календарь недоступен или вернул ошибку
	ErrProvider = errors.New("calendarsync: calendar provider failed")

	// ErrRepository ошибка сохранения результата синхронизации
	ErrRepository = errors.New("calendarsync: repository error")
)
