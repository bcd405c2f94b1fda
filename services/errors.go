package services

import (
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-predictor/repositories"
)

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	ErrPredictorNotFound  = fmt.Errorf("%w: predictor not found", ErrNotFound)
	ErrTournamentNotFound = fmt.Errorf("%w: tournament not found", ErrNotFound)
	ErrMatchNotFound      = fmt.Errorf("%w: match not found", ErrNotFound)
	ErrPredictionNotFound = fmt.Errorf("%w: prediction not found", ErrNotFound)
	ErrNoDataToExport     = fmt.Errorf("%w: no data found to export", ErrNotFound)

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed = errors.New("validation failed")

	ErrNameRequired           = fmt.Errorf("%w: name is required", ErrValidationFailed)
	ErrParentNotFound         = fmt.Errorf("%w: parent predictor not found", ErrValidationFailed)
	ErrSelfParent             = fmt.Errorf("%w: predictor cannot be its own parent", ErrValidationFailed)
	ErrParentCycle            = fmt.Errorf("%w: parent assignment would create a cycle", ErrValidationFailed)
	ErrTournamentDatesMissing = fmt.Errorf("%w: name, start date and end date are required", ErrValidationFailed)
	ErrInvalidDate            = fmt.Errorf("%w: invalid date format", ErrValidationFailed)
	ErrInvalidDateRange       = fmt.Errorf("%w: end date must be after start date", ErrValidationFailed)
	ErrStartInPast            = fmt.Errorf("%w: start date cannot be in the past", ErrValidationFailed)
	ErrMatchesOutsideWindow   = fmt.Errorf("%w: existing matches fall outside the new tournament dates", ErrValidationFailed)
	ErrMatchFieldsRequired    = fmt.Errorf("%w: tournament, team A, team B and match time are required", ErrValidationFailed)
	ErrSameTeams              = fmt.Errorf("%w: team A and team B must differ", ErrValidationFailed)
	ErrReferencedTournament   = fmt.Errorf("%w: tournament not found", ErrValidationFailed)
	ErrMatchOutsideTournament = fmt.Errorf("%w: match time must be within tournament dates", ErrValidationFailed)
	ErrMatchInPast            = fmt.Errorf("%w: match time cannot be in the past", ErrValidationFailed)
	ErrInvalidMatchStatus     = fmt.Errorf("%w: invalid match status", ErrValidationFailed)
	ErrWinnerRequired         = fmt.Errorf("%w: winner is required", ErrValidationFailed)
	ErrInvalidWinner          = fmt.Errorf("%w: winner must be one of the participating teams", ErrValidationFailed)
	ErrMatchNotDecided        = fmt.Errorf("%w: match has no result to correct", ErrValidationFailed)
	ErrDecidedMatchChange     = fmt.Errorf("%w: match already has a winner, use result correction instead", ErrValidationFailed)
	ErrPredictionFields       = fmt.Errorf("%w: match, predictor and predicted winner are required", ErrValidationFailed)
	ErrPickRequired           = fmt.Errorf("%w: predicted winner is required", ErrValidationFailed)
	ErrReferencedMatch        = fmt.Errorf("%w: match not found", ErrValidationFailed)
	ErrReferencedPredictor    = fmt.Errorf("%w: predictor not found", ErrValidationFailed)
	ErrMatchCompleted         = fmt.Errorf("%w: match is already completed", ErrValidationFailed)
	ErrInvalidPick            = fmt.Errorf("%w: predicted winner must be one of the participating teams", ErrValidationFailed)
	ErrDuplicatePrediction    = fmt.Errorf("%w: prediction already exists for this match and predictor", ErrValidationFailed)
	ErrInvalidExportType      = fmt.Errorf("%w: invalid export type, must be one of: predictors, tournaments, matches, predictions, leaderboard", ErrValidationFailed)

	// Удаление сущности, на которую ссылаются другие
	ErrHasDependents = errors.New("entity has dependents")

	ErrPredictorHasChildren    = fmt.Errorf("%w: cannot delete predictor with child predictors", ErrHasDependents)
	ErrPredictorHasPredictions = fmt.Errorf("%w: cannot delete predictor with existing predictions", ErrHasDependents)
	ErrTournamentHasMatches    = fmt.Errorf("%w: cannot delete tournament with existing matches", ErrHasDependents)
	ErrMatchHasPredictions     = fmt.Errorf("%w: cannot delete match with existing predictions", ErrHasDependents)

	// Запись изменилась между чтением и записью
	ErrVersionConflict = errors.New("resource was modified concurrently, retry the request")

	ErrArchiveUnavailable = fmt.Errorf("%w: export archive storage is not configured", ErrValidationFailed)
)

// handleRepositoryError переводит ошибки хранилища в ошибки сервисного слоя.
func handleRepositoryError(err error, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrNotFound):
		return notFound
	case errors.Is(err, repositories.ErrVersionConflict):
		return ErrVersionConflict
	case errors.Is(err, repositories.ErrDuplicate):
		return ErrDuplicatePrediction
	default:
		return err
	}
}
