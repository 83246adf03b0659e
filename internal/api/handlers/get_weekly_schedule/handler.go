package get_weekly_schedule

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-SalonScheduler/internal/api/handlers"
	"github.com/m04kA/SMC-SalonScheduler/internal/service/schedule"
)

const (
	msgInvalidStylistID = "некорректный ID мастера"
	msgStylistNotFound  = "мастер не найден"
)

type Handler struct {
	service ScheduleService
	logger  Logger
}

func NewHandler(service ScheduleService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/admin/schedule?stylistId=
// Без stylistId возвращается расписание салона
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	stylistID, err := handlers.QueryInt64(r, "stylistId")
	if err != nil {
		h.logger.Warn("GET /admin/schedule - %v", err)
		handlers.RespondBadRequest(w, msgInvalidStylistID)
		return
	}

	result, err := h.service.GetWeeklySchedule(r.Context(), stylistID)
	if err != nil {
		switch {
		case errors.Is(err, schedule.ErrStylistNotFound):
			handlers.RespondNotFound(w, msgStylistNotFound)
		default:
			h.logger.Error("GET /admin/schedule - Failed to get schedule: %v", err)
			handlers.RespondInternalError(w)
		}
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}
