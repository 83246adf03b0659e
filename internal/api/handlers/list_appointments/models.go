package list_appointments

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/m04kA/SMC-SalonScheduler/internal/api/handlers"
	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
	"github.com/m04kA/SMC-SalonScheduler/internal/service/appointments/models"
)

// ToServiceRequest формирует запрос к сервису из query параметров
// date задает один день; from/to задают период
func ToServiceRequest(r *http.Request, actor domain.Actor) (*models.ListAppointmentsRequest, error) {
	req := &models.ListAppointmentsRequest{Actor: actor}

	stylistID, err := handlers.QueryInt64(r, "stylistId")
	if err != nil {
		return nil, err
	}
	req.StylistID = stylistID

	query := r.URL.Query()
	if s := query.Get("status"); s != "" {
		req.Status = &s
	}

	date, err := handlers.QueryDate(r, "date")
	if err != nil {
		return nil, err
	}
	if date != nil {
		req.StartDate, req.EndDate = date, date
	} else {
		if req.StartDate, err = handlers.QueryDate(r, "from"); err != nil {
			return nil, err
		}
		if req.EndDate, err = handlers.QueryDate(r, "to"); err != nil {
			return nil, err
		}
	}

	if raw := query.Get("includeCancelled"); raw != "" {
		include, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid includeCancelled value: %w", err)
		}
		req.IncludeCancelled = include
	}

	return req, nil
}
