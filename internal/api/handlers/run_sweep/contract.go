package run_sweep

import (
	"context"

	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
)

type RunSweepsUseCase interface {
	Execute(ctx context.Context, name domain.SweepName) ([]*domain.SweepReport, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
