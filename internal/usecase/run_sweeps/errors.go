package run_sweeps

import "errors"

var (
	// ErrUnknownSweep возвращается для неизвестного имени прохода
	ErrUnknownSweep = errors.New("run_sweeps: unknown sweep")

	// ErrLock возвращается, когда блокировку не удалось проверить
	ErrLock = errors.New("run_sweeps: failed to acquire sweep lock")

	// ErrSweepFailed возвращается, когда проход завершился ошибкой
	ErrSweepFailed = errors.New("run_sweeps: sweep failed")
)
