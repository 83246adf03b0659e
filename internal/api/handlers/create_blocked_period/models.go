package create_blocked_period

import (
	"time"

	"github.com/m04kA/SMC-SalonScheduler/internal/service/schedule/models"
)

// CreateBlockedPeriodRequest HTTP request model
type CreateBlockedPeriodRequest struct {
	StylistID *int64 `json:"stylistId,omitempty"` // nil = весь салон
	StartsAt  string `json:"startsAt"`            // "2026-03-02T12:00"
	EndsAt    string `json:"endsAt"`
	Reason    string `json:"reason"`
}

// ToServiceRequest конвертирует HTTP запрос в модель сервиса
func (r *CreateBlockedPeriodRequest) ToServiceRequest() (*models.CreateBlockedPeriodRequest, error) {
	startsAt, err := time.Parse(models.BlockTimeFormat, r.StartsAt)
	if err != nil {
		return nil, err
	}
	endsAt, err := time.Parse(models.BlockTimeFormat, r.EndsAt)
	if err != nil {
		return nil, err
	}
	return &models.CreateBlockedPeriodRequest{
		StylistID: r.StylistID,
		StartsAt:  startsAt,
		EndsAt:    endsAt,
		Reason:    r.Reason,
	}, nil
}
