package list_blocked_periods

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-SalonScheduler/internal/api/handlers"
	"github.com/m04kA/SMC-SalonScheduler/internal/service/schedule"
	"github.com/m04kA/SMC-SalonScheduler/internal/service/schedule/models"
)

const msgInvalidQuery = "некорректные параметры запроса"

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

// Handle GET /api/v1/admin/blocked-periods
// Query params: from, to (YYYY-MM-DD, включительно), stylistId (optional)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	req, err := toServiceRequest(r)
	if err != nil {
		h.logger.Warn("GET /admin/blocked-periods - Invalid query: %v", err)
		handlers.RespondBadRequest(w, msgInvalidQuery)
		return
	}

	result, err := h.service.ListBlockedPeriods(r.Context(), req)
	if err != nil {
		if errors.Is(err, schedule.ErrInvalidInput) {
			handlers.RespondBadRequest(w, err.Error())
			return
		}
		h.logger.Error("GET /admin/blocked-periods - Failed to list blocked periods: %v", err)
		handlers.RespondInternalError(w)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

func toServiceRequest(r *http.Request) (*models.ListBlockedPeriodsRequest, error) {
	from, err := handlers.QueryDate(r, "from")
	if err != nil {
		return nil, err
	}
	to, err := handlers.QueryDate(r, "to")
	if err != nil {
		return nil, err
	}
	if to != nil {
		end := to.AddDate(0, 0, 1)
		to = &end
	}
	stylistID, err := handlers.QueryInt64(r, "stylistId")
	if err != nil {
		return nil, err
	}
	return &models.ListBlockedPeriodsRequest{From: from, To: to, StylistID: stylistID}, nil
}
