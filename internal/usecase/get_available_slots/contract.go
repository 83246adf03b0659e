package get_available_slots

import (
	"context"

	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
	"github.com/m04kA/SMC-SalonScheduler/internal/service/availability"
	"github.com/m04kA/SMC-SalonScheduler/pkg/types"
)

// Availability интерфейс калькулятора доступности
type Availability interface {
	ComputeSlots(ctx context.Context, q availability.SlotQuery) ([]types.TimeString, error)
}

// CatalogRepository интерфейс справочника услуг
type CatalogRepository interface {
	GetServicesByIDs(ctx context.Context, ids []int64) ([]*domain.Service, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
