package run_sweeps

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
)

const defaultLockTTL = 10 * time.Minute

// Config параметры запуска
type Config struct {
	LockTTL time.Duration // Время жизни блокировки прохода
}

// UseCase запускает проходы по имени под блокировкой
// "all" запускает все проходы параллельно; сбой одного не прерывает остальные
type UseCase struct {
	sweeps  map[domain.SweepName]Sweep
	locker  Locker
	metrics Metrics
	cfg     Config
	logger  Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(sweeps map[domain.SweepName]Sweep, locker Locker, metrics Metrics, cfg Config, logger Logger) *UseCase {
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = defaultLockTTL
	}
	return &UseCase{
		sweeps:  sweeps,
		locker:  locker,
		metrics: metrics,
		cfg:     cfg,
		logger:  logger,
	}
}

// Execute запускает проход name или все проходы
func (uc *UseCase) Execute(ctx context.Context, name domain.SweepName) ([]*domain.SweepReport, error) {
	if !name.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSweep, name)
	}

	if name != domain.SweepAll {
		report, err := uc.run(ctx, name)
		if err != nil {
			return nil, err
		}
		return []*domain.SweepReport{report}, nil
	}

	reports := make([]*domain.SweepReport, len(domain.Sweeps))
	errs := make([]error, len(domain.Sweeps))

	var wg sync.WaitGroup
	for i, sweepName := range domain.Sweeps {
		i, sweepName := i, sweepName
		wg.Add(1)
		go func() {
			defer wg.Done()
			reports[i], errs[i] = uc.run(ctx, sweepName)
		}()
	}
	wg.Wait()

	result := make([]*domain.SweepReport, 0, len(reports))
	for _, r := range reports {
		if r != nil {
			result = append(result, r)
		}
	}

	return result, errors.Join(errs...)
}

func (uc *UseCase) run(ctx context.Context, name domain.SweepName) (*domain.SweepReport, error) {
	sweep, ok := uc.sweeps[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q is not configured", ErrUnknownSweep, name)
	}

	release, acquired, err := uc.locker.TryLock(ctx, string(name), uc.cfg.LockTTL)
	if err != nil {
		uc.logger.Error("RunSweeps: %s: %v", name, err)
		return nil, fmt.Errorf("%w: %s: %v", ErrLock, name, err)
	}
	if !acquired {
		uc.logger.Warn("RunSweeps: %s is already running, skipped", name)
		return &domain.SweepReport{Sweep: name, Locked: true}, nil
	}
	defer release(context.WithoutCancel(ctx))

	started := time.Now()
	report, err := sweep.Execute(ctx)
	if err != nil {
		uc.logger.Error("RunSweeps: %s failed: %v", name, err)
		return nil, fmt.Errorf("%w: %s: %w", ErrSweepFailed, name, err)
	}

	if uc.metrics != nil {
		uc.metrics.ObserveSweep(string(name), report.Succeeded, report.Failed, report.Skipped, time.Since(started))
	}

	return report, nil
}
