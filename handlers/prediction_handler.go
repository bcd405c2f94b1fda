package handlers

import (
	"net/http"

	"github.com/Dosada05/tournament-predictor/services"
)

type PredictionHandler struct {
	predictionService services.PredictionService
	dashboardService  services.DashboardService
}

func NewPredictionHandler(ps services.PredictionService, ds services.DashboardService) *PredictionHandler {
	return &PredictionHandler{
		predictionService: ps,
		dashboardService:  ds,
	}
}

// ListHandler обрабатывает GET /api/predictions
func (h *PredictionHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	predictions, err := h.predictionService.ListPredictions(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	listResponse(w, r, predictions, len(predictions))
}

// StatsHandler обрабатывает GET /api/predictions/stats
func (h *PredictionHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboardService.GetPredictionStats(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	dataResponse(w, r, http.StatusOK, stats, "")
}

// ListByMatchHandler обрабатывает GET /api/predictions/match/{matchID}
func (h *PredictionHandler) ListByMatchHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	predictions, err := h.predictionService.ListPredictionsByMatch(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	listResponse(w, r, predictions, len(predictions))
}

// ListByPredictorHandler обрабатывает GET /api/predictions/predictor/{predictorID}
func (h *PredictionHandler) ListByPredictorHandler(w http.ResponseWriter, r *http.Request) {
	predictorID, err := getIDFromURL(r, "predictorID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	predictions, err := h.predictionService.ListPredictionsByPredictor(r.Context(), predictorID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	listResponse(w, r, predictions, len(predictions))
}

// GetByIDHandler обрабатывает GET /api/predictions/{predictionID}
func (h *PredictionHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "predictionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	details, err := h.predictionService.GetPrediction(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	dataResponse(w, r, http.StatusOK, details, "")
}

// CreateHandler обрабатывает POST /api/predictions
func (h *PredictionHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var input services.CreatePredictionInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	prediction, err := h.predictionService.CreatePrediction(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	dataResponse(w, r, http.StatusCreated, prediction, "Prediction created successfully")
}

// UpdateHandler обрабатывает PUT /api/predictions/{predictionID}
func (h *PredictionHandler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "predictionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.UpdatePredictionInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	prediction, err := h.predictionService.UpdatePrediction(r.Context(), id, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	dataResponse(w, r, http.StatusOK, prediction, "Prediction updated successfully")
}

// DeleteHandler обрабатывает DELETE /api/predictions/{predictionID}
func (h *PredictionHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "predictionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.predictionService.DeletePrediction(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	messageResponse(w, r, "Prediction deleted successfully")
}
