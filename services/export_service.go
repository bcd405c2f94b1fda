package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/gosimple/slug"
	"github.com/rs/zerolog/log"

	"github.com/Dosada05/tournament-predictor/metrics"
	"github.com/Dosada05/tournament-predictor/models"
	"github.com/Dosada05/tournament-predictor/repositories"
	"github.com/Dosada05/tournament-predictor/stats"
	"github.com/Dosada05/tournament-predictor/storage"
)

type ExportType string

const (
	ExportPredictors  ExportType = "predictors"
	ExportTournaments ExportType = "tournaments"
	ExportMatches     ExportType = "matches"
	ExportPredictions ExportType = "predictions"
	ExportLeaderboard ExportType = "leaderboard"

	csvContentType = "text/csv"
	unknownValue   = "Unknown"
)

// ExportFile - готовый CSV. Archive заполнен, если файл сохранен в хранилище.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
	Rows        int
	Archive     *storage.UploadResult
}

type ExportRequest struct {
	Type         ExportType
	TournamentID string
	Archive      bool
}

type ExportService interface {
	Export(ctx context.Context, req ExportRequest) (*ExportFile, error)
}

type exportService struct {
	store    *repositories.Store
	uploader storage.FileUploader
	opts     Options
}

// NewExportService - uploader может быть nil, тогда архивирование недоступно.
func NewExportService(store *repositories.Store, uploader storage.FileUploader, opts Options) ExportService {
	return &exportService{store: store, uploader: uploader, opts: opts.withDefaults()}
}

func (s *exportService) Export(ctx context.Context, req ExportRequest) (*ExportFile, error) {
	if req.Archive && s.uploader == nil {
		return nil, ErrArchiveUnavailable
	}

	var (
		header []string
		rows   [][]string
		name   string
		err    error
	)
	switch req.Type {
	case ExportPredictors:
		header, rows, err = s.predictorRows(ctx)
		name = "predictors"
	case ExportTournaments:
		header, rows, err = s.tournamentRows(ctx)
		name = "tournaments"
	case ExportMatches:
		header, rows, name, err = s.matchRows(ctx, req.TournamentID)
	case ExportPredictions:
		header, rows, name, err = s.predictionRows(ctx, req.TournamentID)
	case ExportLeaderboard:
		header, rows, name, err = s.leaderboardRows(ctx, req.TournamentID)
	default:
		return nil, ErrInvalidExportType
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoDataToExport
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("failed to write csv rows: %w", err)
	}

	file := &ExportFile{
		Filename:    name + ".csv",
		ContentType: csvContentType,
		Data:        buf.Bytes(),
		Rows:        len(rows),
	}

	if req.Archive {
		key := storage.ExportKey(file.Filename, s.opts.Now())
		result, err := s.uploader.Upload(ctx, key, csvContentType, bytes.NewReader(file.Data))
		if err != nil {
			return nil, fmt.Errorf("failed to archive export: %w", err)
		}
		file.Archive = result
		log.Info().Str("type", string(req.Type)).Str("key", result.Key).Str("location", result.Location).Msg("export archived")
	}

	metrics.ExportsTotal.WithLabelValues(string(req.Type), strconv.FormatBool(file.Archive != nil)).Inc()
	return file, nil
}

// scopedTournament загружает турнир для выгрузки по одному турниру.
func (s *exportService) scopedTournament(ctx context.Context, tournamentID string) (*models.Tournament, []models.Match, error) {
	tournament, err := s.store.Tournaments.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, nil, handleRepositoryError(err, ErrTournamentNotFound)
	}
	matches, err := s.store.Matches.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list tournament matches: %w", err)
	}
	return tournament, matches, nil
}

func (s *exportService) predictorRows(ctx context.Context) ([]string, [][]string, error) {
	predictors, err := s.store.Predictors.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list predictors: %w", err)
	}
	header := []string{"id", "name", "parentPredictorId", "createdDate"}
	rows := make([][]string, 0, len(predictors))
	for _, p := range predictors {
		rows = append(rows, []string{p.ID, p.Name, p.ParentPredictorID, formatTime(p.CreatedDate)})
	}
	return header, rows, nil
}

func (s *exportService) tournamentRows(ctx context.Context) ([]string, [][]string, error) {
	tournaments, err := s.store.Tournaments.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	header := []string{"id", "name", "startDate", "endDate", "createdDate"}
	rows := make([][]string, 0, len(tournaments))
	for _, t := range tournaments {
		rows = append(rows, []string{t.ID, t.Name, formatTime(t.StartDate), formatTime(t.EndDate), formatTime(t.CreatedDate)})
	}
	return header, rows, nil
}

func (s *exportService) matchRows(ctx context.Context, tournamentID string) ([]string, [][]string, string, error) {
	name := "matches"
	var matches []models.Match
	tournamentNames := make(map[string]string)

	if tournamentID != "" {
		tournament, scoped, err := s.scopedTournament(ctx, tournamentID)
		if err != nil {
			return nil, nil, "", err
		}
		matches = scoped
		tournamentNames[tournament.ID] = tournament.Name
		name = "matches_" + slug.Make(tournament.Name)
	} else {
		var err error
		if matches, err = s.store.Matches.List(ctx); err != nil {
			return nil, nil, "", fmt.Errorf("failed to list matches: %w", err)
		}
		tournaments, err := s.store.Tournaments.List(ctx)
		if err != nil {
			return nil, nil, "", fmt.Errorf("failed to list tournaments: %w", err)
		}
		for _, t := range tournaments {
			tournamentNames[t.ID] = t.Name
		}
	}

	header := []string{"id", "tournamentId", "tournamentName", "teamA", "teamB", "matchTime", "status", "winner", "createdDate"}
	rows := make([][]string, 0, len(matches))
	for _, m := range matches {
		rows = append(rows, []string{
			m.ID, m.TournamentID, lookup(tournamentNames, m.TournamentID), m.TeamA, m.TeamB,
			formatTime(m.MatchTime), string(m.Status), m.Winner, formatTime(m.CreatedDate),
		})
	}
	return header, rows, name, nil
}

func (s *exportService) predictionRows(ctx context.Context, tournamentID string) ([]string, [][]string, string, error) {
	name := "predictions"
	snap, err := loadSnapshot(ctx, s.store)
	if err != nil {
		return nil, nil, "", err
	}

	predictions := snap.predictions
	matches := snap.matches
	if tournamentID != "" {
		tournament, scoped, err := s.scopedTournament(ctx, tournamentID)
		if err != nil {
			return nil, nil, "", err
		}
		matches = scoped
		predictions = stats.FilterByMatches(predictions, stats.MatchIDs(scoped))
		name = "predictions_" + slug.Make(tournament.Name)
	}

	matchByID := make(map[string]*models.Match, len(matches))
	for i := range matches {
		matchByID[matches[i].ID] = &matches[i]
	}
	tournamentNames := make(map[string]string, len(snap.tournaments))
	for _, t := range snap.tournaments {
		tournamentNames[t.ID] = t.Name
	}
	predictors := predictorIndex(snap.predictors)

	header := []string{
		"id", "matchId", "predictorId", "predictorName", "teamA", "teamB", "tournamentName",
		"predictedWinner", "predictionTime", "isCorrect", "resultStatus", "createdDate",
	}
	rows := make([][]string, 0, len(predictions))
	for _, p := range predictions {
		predictorName, teamA, teamB, tournamentName := unknownValue, unknownValue, unknownValue, unknownValue
		if predictor, ok := predictors[p.PredictorID]; ok {
			predictorName = predictor.Name
		}
		if m, ok := matchByID[p.MatchID]; ok {
			teamA, teamB = m.TeamA, m.TeamB
			tournamentName = lookup(tournamentNames, m.TournamentID)
		}
		predictionTime := ""
		if p.PredictionTime != nil {
			predictionTime = formatTime(*p.PredictionTime)
		}
		rows = append(rows, []string{
			p.ID, p.MatchID, p.PredictorID, predictorName, teamA, teamB, tournamentName,
			p.PredictedWinner, predictionTime, p.IsCorrect.String(), string(p.ResultStatus), formatTime(p.CreatedDate),
		})
	}
	return header, rows, name, nil
}

// leaderboardRows - без турнира выгружаются все участники, с турниром только сделавшие в нем прогнозы.
func (s *exportService) leaderboardRows(ctx context.Context, tournamentID string) ([]string, [][]string, string, error) {
	name := "leaderboard"
	var matchIDs map[string]struct{}
	if tournamentID != "" {
		tournament, scoped, err := s.scopedTournament(ctx, tournamentID)
		if err != nil {
			return nil, nil, "", err
		}
		matchIDs = stats.MatchIDs(scoped)
		name = "leaderboard_" + slug.Make(tournament.Name)
	}

	predictors, err := s.store.Predictors.List(ctx)
	if err != nil {
		return nil, nil, "", fmt.Errorf("failed to list predictors: %w", err)
	}
	predictions, err := s.store.Predictions.List(ctx)
	if err != nil {
		return nil, nil, "", fmt.Errorf("failed to list predictions: %w", err)
	}

	header := []string{"rank", "id", "name", "total", "correct", "wrong", "notPredicted", "accuracy"}
	entries := stats.Leaderboard(predictors, predictions, matchIDs, 0)
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			strconv.Itoa(e.Rank), e.ID, e.Name,
			strconv.Itoa(e.Total), strconv.Itoa(e.Correct), strconv.Itoa(e.Wrong), strconv.Itoa(e.NotPredicted),
			strconv.FormatFloat(e.Accuracy, 'f', 2, 64),
		})
	}
	return header, rows, name, nil
}

func lookup(names map[string]string, id string) string {
	if name, ok := names[id]; ok {
		return name
	}
	return unknownValue
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
