package payment_webhook

import (
	"context"

	confirmDeposit "github.com/m04kA/SMC-SalonScheduler/internal/usecase/confirm_deposit"
)

type ConfirmDepositUseCase interface {
	Execute(ctx context.Context, req *confirmDeposit.Request) (*confirmDeposit.Response, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
