package reschedule_appointment

import (
	"time"

	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
	"github.com/m04kA/SMC-SalonScheduler/pkg/types"
)

// Request модель запроса на перенос записи
type Request struct {
	AppointmentID int64
	Actor         domain.Actor
	Date          time.Time        // Новая дата
	StartTime     types.TimeString // Новое время начала
	StylistID     *int64           // nil = оставить текущего мастера
}

// Response модель ответа с перенесенной записью
type Response struct {
	Appointment *domain.Appointment
}
