package handlers

import (
	"net/http"

	"github.com/Dosada05/tournament-predictor/services"
)

type PredictorHandler struct {
	predictorService services.PredictorService
	dashboardService services.DashboardService
}

func NewPredictorHandler(ps services.PredictorService, ds services.DashboardService) *PredictorHandler {
	return &PredictorHandler{
		predictorService: ps,
		dashboardService: ds,
	}
}

// ListHandler обрабатывает GET /api/predictors
func (h *PredictorHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	predictors, err := h.predictorService.ListPredictors(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	listResponse(w, r, predictors, len(predictors))
}

// ListWithStatsHandler обрабатывает GET /api/predictors/stats
func (h *PredictorHandler) ListWithStatsHandler(w http.ResponseWriter, r *http.Request) {
	predictors, err := h.dashboardService.ListPredictorsWithStats(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	listResponse(w, r, predictors, len(predictors))
}

// GetByIDHandler обрабатывает GET /api/predictors/{predictorID}
func (h *PredictorHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "predictorID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	predictor, err := h.predictorService.GetPredictor(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	dataResponse(w, r, http.StatusOK, predictor, "")
}

// StatsHandler обрабатывает GET /api/predictors/{predictorID}/stats
func (h *PredictorHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "predictorID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	view, err := h.dashboardService.GetPredictorStats(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	dataResponse(w, r, http.StatusOK, view, "")
}

// CreateHandler обрабатывает POST /api/predictors
func (h *PredictorHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var input services.CreatePredictorInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	predictor, err := h.predictorService.CreatePredictor(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	dataResponse(w, r, http.StatusCreated, predictor, "Predictor created successfully")
}

// UpdateHandler обрабатывает PUT /api/predictors/{predictorID}
func (h *PredictorHandler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "predictorID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.UpdatePredictorInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	predictor, err := h.predictorService.UpdatePredictor(r.Context(), id, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	dataResponse(w, r, http.StatusOK, predictor, "Predictor updated successfully")
}

// DeleteHandler обрабатывает DELETE /api/predictors/{predictorID}
func (h *PredictorHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "predictorID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.predictorService.DeletePredictor(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	messageResponse(w, r, "Predictor deleted successfully")
}
