package run_sweep

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-SalonScheduler/internal/api/handlers"
	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
	runSweeps "github.com/m04kA/SMC-SalonScheduler/internal/usecase/run_sweeps"
)

const msgUnknownSweep = "неизвестный проход"

type Handler struct {
	useCase RunSweepsUseCase
	logger  Logger
}

func NewHandler(useCase RunSweepsUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/internal/sweeps/{sweep}
// Занятый другим запуском проход возвращается с locked=true и кодом 200
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	name := domain.SweepName(mux.Vars(r)["sweep"])

	reports, err := h.useCase.Execute(r.Context(), name)
	if errors.Is(err, runSweeps.ErrUnknownSweep) {
		h.logger.Warn("POST /internal/sweeps/{sweep} - Unknown sweep %q", name)
		handlers.RespondNotFound(w, msgUnknownSweep)
		return
	}

	resp := FromReports(reports)
	if err != nil {
		h.logger.Error("POST /internal/sweeps/{sweep} - Sweep %s failed: %v", name, err)
		resp.Errors = []string{err.Error()}
		handlers.RespondJSON(w, http.StatusInternalServerError, resp)
		return
	}

	h.logger.Info("POST /internal/sweeps/{sweep} - Sweep %s finished: %d reports", name, len(reports))
	handlers.RespondJSON(w, http.StatusOK, resp)
}
