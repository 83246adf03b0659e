package run_sweep

import "github.com/m04kA/SMC-SalonScheduler/internal/domain"

// SweepResponse итог одного прохода
type SweepResponse struct {
	Sweep     string `json:"sweep"`
	Processed int    `json:"processed"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
	Skipped   int    `json:"skipped"`
	Locked    bool   `json:"locked,omitempty"`
}

// SweepListResponse итоги запуска
type SweepListResponse struct {
	Sweeps []SweepResponse `json:"sweeps"`
	Errors []string        `json:"errors,omitempty"`
}

// FromReports конвертирует отчеты в HTTP response
func FromReports(reports []*domain.SweepReport) *SweepListResponse {
	resp := &SweepListResponse{Sweeps: make([]SweepResponse, 0, len(reports))}
	for _, r := range reports {
		resp.Sweeps = append(resp.Sweeps, SweepResponse{
			Sweep:     string(r.Sweep),
			Processed: r.Processed,
			Succeeded: r.Succeeded,
			Failed:    r.Failed,
			Skipped:   r.Skipped,
			Locked:    r.Locked,
		})
	}
	return resp
}
