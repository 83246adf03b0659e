package run_sweeps

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
	"github.com/m04kA/SMC-SalonScheduler/internal/infra/locker"
)

// Sweep один периодический проход
type Sweep interface {
	Execute(ctx context.Context) (*domain.SweepReport, error)
}

// Locker гарантирует единственный запуск прохода
type Locker interface {
	TryLock(ctx context.Context, name string, ttl time.Duration) (locker.Release, bool, error)
}

// Metrics интерфейс метрик проходов
type Metrics interface {
	ObserveSweep(sweep string, succeeded, failed, skipped int, duration time.Duration)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
