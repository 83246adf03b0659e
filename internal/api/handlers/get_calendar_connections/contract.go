package get_calendar_connections

import (
	"context"

	"github.com/m04kA/SMC-SalonScheduler/internal/service/schedule/models"
)

type ScheduleService interface {
	GetCalendarConnections(ctx context.Context) (*models.CalendarConnectionListResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
