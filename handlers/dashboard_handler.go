package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/Dosada05/tournament-predictor/services"
)

type DashboardHandler struct {
	dashboardService services.DashboardService
	exportService    services.ExportService
}

func NewDashboardHandler(ds services.DashboardService, es services.ExportService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: ds,
		exportService:    es,
	}
}

// StatsHandler обрабатывает GET /api/dashboard/stats
func (h *DashboardHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboardService.GetDashboardStats(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	dataResponse(w, r, http.StatusOK, stats, "")
}

// LeaderboardHandler обрабатывает GET /api/dashboard/leaderboard?tournamentId=&limit=
func (h *DashboardHandler) LeaderboardHandler(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r, "limit", services.DefaultLeaderboardLimit)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	entries, err := h.dashboardService.GetLeaderboard(r.Context(), r.URL.Query().Get("tournamentId"), limit)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	listResponse(w, r, entries, len(entries))
}

// TournamentComparisonHandler обрабатывает GET /api/dashboard/tournament-comparison
func (h *DashboardHandler) TournamentComparisonHandler(w http.ResponseWriter, r *http.Request) {
	comparison, err := h.dashboardService.GetTournamentComparison(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	listResponse(w, r, comparison, len(comparison))
}

// TrendsHandler обрабатывает GET /api/dashboard/trends?days=
func (h *DashboardHandler) TrendsHandler(w http.ResponseWriter, r *http.Request) {
	days, err := intQuery(r, "days", services.DefaultTrendDays)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	trends, err := h.dashboardService.GetPredictionTrends(r.Context(), days)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	listResponse(w, r, trends, len(trends))
}

// PredictorPerformanceHandler обрабатывает GET /api/dashboard/predictor-performance/{predictorID}?days=
func (h *DashboardHandler) PredictorPerformanceHandler(w http.ResponseWriter, r *http.Request) {
	predictorID, err := getIDFromURL(r, "predictorID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	days, err := intQuery(r, "days", services.DefaultTrendDays)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	performance, err := h.dashboardService.GetPredictorPerformance(r.Context(), predictorID, days)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	dataResponse(w, r, http.StatusOK, performance, "")
}

// ExportHandler обрабатывает GET /api/dashboard/export?type=&tournamentId=&archive=
// Без archive отдает CSV файлом, с archive=true сохраняет его в хранилище и возвращает ссылку.
func (h *DashboardHandler) ExportHandler(w http.ResponseWriter, r *http.Request) {
	archive, err := boolQuery(r, "archive")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	query := r.URL.Query()
	file, err := h.exportService.Export(r.Context(), services.ExportRequest{
		Type:         services.ExportType(query.Get("type")),
		TournamentID: query.Get("tournamentId"),
		Archive:      archive,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if file.Archive != nil {
		dataResponse(w, r, http.StatusOK, jsonResponse{
			"filename": file.Filename,
			"rows":     file.Rows,
			"archive":  file.Archive,
		}, "Export archived successfully")
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(file.Data); err != nil {
		serverErrorResponse(w, r, err)
	}
}
