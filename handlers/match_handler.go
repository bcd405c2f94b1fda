package handlers

import (
	"context"
	"net/http"

	"github.com/Dosada05/tournament-predictor/services"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(ms services.MatchService) *MatchHandler {
	return &MatchHandler{
		matchService: ms,
	}
}

type winnerInput struct {
	Winner string `json:"winner"`
}

// ListHandler обрабатывает GET /api/matches
func (h *MatchHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	matches, err := h.matchService.ListMatches(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	listResponse(w, r, matches, len(matches))
}

// ListUpcomingHandler обрабатывает GET /api/matches/upcoming
func (h *MatchHandler) ListUpcomingHandler(w http.ResponseWriter, r *http.Request) {
	matches, err := h.matchService.ListUpcomingMatches(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	listResponse(w, r, matches, len(matches))
}

// ListCompletedHandler обрабатывает GET /api/matches/completed
func (h *MatchHandler) ListCompletedHandler(w http.ResponseWriter, r *http.Request) {
	matches, err := h.matchService.ListCompletedMatches(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	listResponse(w, r, matches, len(matches))
}

// ListByTournamentHandler обрабатывает GET /api/matches/tournament/{tournamentID}
func (h *MatchHandler) ListByTournamentHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matches, err := h.matchService.ListMatchesByTournament(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	listResponse(w, r, matches, len(matches))
}

// GetByIDHandler обрабатывает GET /api/matches/{matchID}
func (h *MatchHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	details, err := h.matchService.GetMatch(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	dataResponse(w, r, http.StatusOK, details, "")
}

// CreateHandler обрабатывает POST /api/matches
func (h *MatchHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var input services.CreateMatchInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.CreateMatch(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	dataResponse(w, r, http.StatusCreated, match, "Match created successfully")
}

// UpdateHandler обрабатывает PUT /api/matches/{matchID}
func (h *MatchHandler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.UpdateMatchInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.UpdateMatch(r.Context(), id, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	dataResponse(w, r, http.StatusOK, match, "Match updated successfully")
}

// SetWinnerHandler обрабатывает PUT /api/matches/{matchID}/winner
func (h *MatchHandler) SetWinnerHandler(w http.ResponseWriter, r *http.Request) {
	h.applyResult(w, r, h.matchService.SetMatchWinner, "Match winner set and predictions updated")
}

// CorrectResultHandler обрабатывает PUT /api/matches/{matchID}/correction
func (h *MatchHandler) CorrectResultHandler(w http.ResponseWriter, r *http.Request) {
	h.applyResult(w, r, h.matchService.CorrectMatchResult, "Match result corrected and predictions rescored")
}

func (h *MatchHandler) applyResult(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, id, winner string) (*services.MatchResult, error), message string) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input winnerInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := apply(r.Context(), id, input.Winner)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	dataResponse(w, r, http.StatusOK, result, message)
}

// DeleteHandler обрабатывает DELETE /api/matches/{matchID}
func (h *MatchHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.matchService.DeleteMatch(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	messageResponse(w, r, "Match deleted successfully")
}
