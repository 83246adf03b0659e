package update_weekly_schedule

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-SalonScheduler/internal/api/handlers"
	"github.com/m04kA/SMC-SalonScheduler/internal/service/schedule"
	"github.com/m04kA/SMC-SalonScheduler/internal/service/schedule/models"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidStylistID   = "некорректный ID мастера"
	msgStylistNotFound    = "мастер не найден"
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

// Handle PUT /api/v1/admin/schedule?stylistId=
// Расписание заменяется целиком; stylistId из query имеет приоритет над телом
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	stylistID, err := handlers.QueryInt64(r, "stylistId")
	if err != nil {
		handlers.RespondBadRequest(w, msgInvalidStylistID)
		return
	}

	var req models.UpdateWeeklyScheduleRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PUT /admin/schedule - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	if stylistID != nil {
		req.StylistID = stylistID
	}

	result, err := h.service.UpdateWeeklySchedule(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, schedule.ErrInvalidInput):
			h.logger.Warn("PUT /admin/schedule - Invalid schedule: %v", err)
			handlers.RespondBadRequest(w, err.Error())
		case errors.Is(err, schedule.ErrStylistNotFound):
			handlers.RespondNotFound(w, msgStylistNotFound)
		default:
			h.logger.Error("PUT /admin/schedule - Failed to update schedule: %v", err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PUT /admin/schedule - Schedule updated: stylist=%v", req.StylistID)
	handlers.RespondJSON(w, http.StatusOK, result)
}
