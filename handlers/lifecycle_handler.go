package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/tournament-predictor/services"
)

// LifecycleHandler запускает фоновые проходы вручную, вне расписания.
type LifecycleHandler struct {
	lifecycleService services.LifecycleService
}

func NewLifecycleHandler(ls services.LifecycleService) *LifecycleHandler {
	return &LifecycleHandler{lifecycleService: ls}
}

// RunHandler обрабатывает POST /api/lifecycle/{sweep}
func (h *LifecycleHandler) RunHandler(w http.ResponseWriter, r *http.Request) {
	var (
		result interface{}
		err    error
	)
	switch chi.URLParam(r, "sweep") {
	case services.SweepUpcoming:
		result, err = h.lifecycleService.SweepUpcoming(r.Context())
	case services.SweepMissing:
		result, err = h.lifecycleService.SweepMissing(r.Context())
	case services.SweepCleanup:
		result, err = h.lifecycleService.CleanupPlaceholders(r.Context())
	case services.SweepCompletedCheck:
		result, err = h.lifecycleService.CheckCompletedMatches(r.Context())
	case services.SweepDailyReport:
		result, err = h.lifecycleService.DailyReport(r.Context())
	default:
		notFoundResponse(w, r, errors.New("unknown lifecycle sweep"))
		return
	}
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	dataResponse(w, r, http.StatusOK, result, "")
}
