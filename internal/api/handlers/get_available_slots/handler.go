package get_available_slots

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/m04kA/SMC-SalonScheduler/internal/api/handlers"
	getAvailableSlots "github.com/m04kA/SMC-SalonScheduler/internal/usecase/get_available_slots"
)

const (
	msgMissingDate       = "дата обязательна"
	msgInvalidDate       = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgInvalidDuration   = "некорректная длительность"
	msgInvalidServiceIDs = "некорректный список услуг"
	msgInvalidStylistID  = "некорректный ID мастера"
	msgServiceNotFound   = "услуга не найдена"
	msgStylistNotFound   = "мастер не найден"
)

type Handler struct {
	useCase GetAvailableSlotsUseCase
	logger  Logger
}

func NewHandler(useCase GetAvailableSlotsUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/available-slots
// Query params: date (required), durationMinutes или serviceIds, stylistId (optional)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	dateStr := strings.TrimSpace(query.Get("date"))
	if dateStr == "" {
		h.logger.Warn("GET /available-slots - Missing date")
		handlers.RespondBadRequest(w, msgMissingDate)
		return
	}
	date, err := handlers.ParseDate(dateStr)
	if err != nil {
		h.logger.Warn("GET /available-slots - %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	var duration int
	if raw := strings.TrimSpace(query.Get("durationMinutes")); raw != "" {
		duration, err = strconv.Atoi(raw)
		if err != nil || duration <= 0 {
			h.logger.Warn("GET /available-slots - Invalid duration %q", raw)
			handlers.RespondBadRequest(w, msgInvalidDuration)
			return
		}
	}

	serviceIDs, err := handlers.QueryInt64List(r, "serviceIds")
	if err != nil {
		h.logger.Warn("GET /available-slots - %v", err)
		handlers.RespondBadRequest(w, msgInvalidServiceIDs)
		return
	}

	stylistID, err := handlers.QueryInt64(r, "stylistId")
	if err != nil {
		h.logger.Warn("GET /available-slots - %v", err)
		handlers.RespondBadRequest(w, msgInvalidStylistID)
		return
	}

	result, err := h.useCase.Execute(r.Context(), &getAvailableSlots.Request{
		Date:            date,
		DurationMinutes: duration,
		ServiceIDs:      serviceIDs,
		StylistID:       stylistID,
	})
	if err != nil {
		switch {
		case errors.Is(err, getAvailableSlots.ErrInvalidInput):
			h.logger.Warn("GET /available-slots - Invalid input: %v", err)
			handlers.RespondBadRequest(w, err.Error())

		case errors.Is(err, getAvailableSlots.ErrServiceNotFound):
			h.logger.Warn("GET /available-slots - Service not found: %v", serviceIDs)
			handlers.RespondNotFound(w, msgServiceNotFound)

		case errors.Is(err, getAvailableSlots.ErrStylistNotFound):
			h.logger.Warn("GET /available-slots - Stylist not found: stylist_id=%d", *stylistID)
			handlers.RespondNotFound(w, msgStylistNotFound)

		default:
			h.logger.Error("GET /available-slots - Failed to get slots: date=%s, error=%v", dateStr, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
