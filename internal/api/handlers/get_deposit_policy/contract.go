package get_deposit_policy

import (
	"context"

	"github.com/m04kA/SMC-SalonScheduler/internal/service/schedule/models"
)

type ScheduleService interface {
	GetDepositPolicy(ctx context.Context) (*models.DepositPolicyResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
