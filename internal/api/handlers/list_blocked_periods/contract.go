package list_blocked_periods

import (
	"context"

	"github.com/m04kA/SMC-SalonScheduler/internal/service/schedule/models"
)

type ScheduleService interface {
	ListBlockedPeriods(ctx context.Context, req *models.ListBlockedPeriodsRequest) (*models.BlockedPeriodListResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
