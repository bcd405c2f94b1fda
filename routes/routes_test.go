package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v4"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/tournament-predictor/handlers"
	"github.com/Dosada05/tournament-predictor/live"
	"github.com/Dosada05/tournament-predictor/repositories"
	"github.com/Dosada05/tournament-predictor/services"
)

const testSecret = "test-secret"

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Count   int             `json:"count"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

type testServer struct {
	*httptest.Server
	hub   *live.Hub
	token string
}

func newTestServer(t *testing.T, secret string) *testServer {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	hub := live.NewHub()
	go hub.Run(ctx)

	store := repositories.NewMemoryStore()
	opts := services.Options{Now: func() time.Time { return testNow }, Location: time.UTC, Events: hub}
	predictorService := services.NewPredictorService(store)
	tournamentService := services.NewTournamentService(store, opts)
	matchService := services.NewMatchService(store, opts)
	predictionService := services.NewPredictionService(store, opts)
	dashboardService := services.NewDashboardService(store, opts)
	exportService := services.NewExportService(store, nil, opts)
	lifecycleService := services.NewLifecycleService(store, services.LifecycleWindows{
		Upcoming:          48 * time.Hour,
		MissingGrace:      time.Hour,
		PlaceholderMaxAge: 7 * 24 * time.Hour,
	}, opts)

	router := chi.NewRouter()
	SetupRoutes(router, Handlers{
		Predictor:  handlers.NewPredictorHandler(predictorService, dashboardService),
		Tournament: handlers.NewTournamentHandler(tournamentService),
		Match:      handlers.NewMatchHandler(matchService),
		Prediction: handlers.NewPredictionHandler(predictionService, dashboardService),
		Dashboard:  handlers.NewDashboardHandler(dashboardService, exportService),
		Lifecycle:  handlers.NewLifecycleHandler(lifecycleService),
		WebSocket:  handlers.NewWebSocketHandler(hub, tournamentService, ""),
		Health:     handlers.NewHealthHandler(nil),
	}, Options{
		FrontendURL:  "http://localhost:3000",
		JWTSecretKey: secret,
	})

	srv := &testServer{Server: httptest.NewServer(router), hub: hub}
	if secret != "" {
		srv.token = signToken(t, secret, "admin")
	}
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return srv
}

func signToken(t *testing.T, secret, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "user-1",
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func (s *testServer) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, s.URL+path, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func (s *testServer) call(t *testing.T, method, path, body string, wantStatus int) envelope {
	t.Helper()
	resp := s.do(t, method, path, body)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, wantStatus, resp.StatusCode, "body: %s", raw)

	var env envelope
	require.NoError(t, json.Unmarshal(raw, &env), "body: %s", raw)
	return env
}

func decodeData(t *testing.T, env envelope, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

type idVersion struct {
	ID      string `json:"id"`
	Version int    `json:"version"`
}

// seedMatch создает участника, турнир и матч через API.
func (s *testServer) seedMatch(t *testing.T) (predictorID, tournamentID, matchID string) {
	t.Helper()
	var ref idVersion

	env := s.call(t, http.MethodPost, "/api/predictors", `{"name":"Alice"}`, http.StatusCreated)
	decodeData(t, env, &ref)
	predictorID = ref.ID

	env = s.call(t, http.MethodPost, "/api/tournaments",
		`{"name":"Spring Cup","startDate":"2024-06-10","endDate":"2024-06-30"}`, http.StatusCreated)
	decodeData(t, env, &ref)
	tournamentID = ref.ID

	env = s.call(t, http.MethodPost, "/api/matches",
		`{"tournamentId":"`+tournamentID+`","teamA":"Lions","teamB":"Tigers","matchTime":"2024-06-15T18:00:00Z"}`, http.StatusCreated)
	decodeData(t, env, &ref)
	matchID = ref.ID
	return predictorID, tournamentID, matchID
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, "")

	resp := srv.do(t, http.MethodGet, "/health", "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "OK", body["status"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestUnknownRouteReturnsJSON(t *testing.T) {
	srv := newTestServer(t, "")

	env := srv.call(t, http.MethodGet, "/api/nothing-here", "", http.StatusNotFound)
	assert.False(t, env.Success)
	assert.Equal(t, "route not found", env.Error)
}

func TestCreatePredictorEnvelope(t *testing.T) {
	srv := newTestServer(t, "")

	env := srv.call(t, http.MethodPost, "/api/predictors", `{"name":"  Alice  "}`, http.StatusCreated)
	assert.True(t, env.Success)
	assert.Equal(t, "Predictor created successfully", env.Message)

	var predictor struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	decodeData(t, env, &predictor)
	assert.NotEmpty(t, predictor.ID)
	assert.Equal(t, "Alice", predictor.Name)

	list := srv.call(t, http.MethodGet, "/api/predictors", "", http.StatusOK)
	assert.Equal(t, 1, list.Count)
}

func TestAdminRoutesRequireToken(t *testing.T) {
	srv := newTestServer(t, testSecret)
	admin := srv.token

	t.Run("missing token", func(t *testing.T) {
		srv.token = ""
		env := srv.call(t, http.MethodPost, "/api/predictors", `{"name":"Alice"}`, http.StatusUnauthorized)
		assert.False(t, env.Success)
	})

	t.Run("garbage token", func(t *testing.T) {
		srv.token = "not-a-jwt"
		srv.call(t, http.MethodPost, "/api/predictors", `{"name":"Alice"}`, http.StatusUnauthorized)
	})

	t.Run("token signed with another key", func(t *testing.T) {
		srv.token = signToken(t, "other-secret", "admin")
		srv.call(t, http.MethodPost, "/api/predictors", `{"name":"Alice"}`, http.StatusUnauthorized)
	})

	t.Run("non-admin role", func(t *testing.T) {
		srv.token = signToken(t, testSecret, "member")
		srv.call(t, http.MethodPost, "/api/predictors", `{"name":"Alice"}`, http.StatusForbidden)
	})

	t.Run("admin", func(t *testing.T) {
		srv.token = admin
		srv.call(t, http.MethodPost, "/api/predictors", `{"name":"Alice"}`, http.StatusCreated)
	})

	t.Run("reads stay public", func(t *testing.T) {
		srv.token = ""
		env := srv.call(t, http.MethodGet, "/api/predictors", "", http.StatusOK)
		assert.Equal(t, 1, env.Count)
	})
}

func TestPredictionsArePublic(t *testing.T) {
	srv := newTestServer(t, testSecret)
	predictorID, _, matchID := srv.seedMatch(t)

	srv.token = ""
	env := srv.call(t, http.MethodPost, "/api/predictions",
		`{"matchId":"`+matchID+`","predictorId":"`+predictorID+`","predictedWinner":"Lions"}`, http.StatusCreated)
	var prediction idVersion
	decodeData(t, env, &prediction)

	srv.call(t, http.MethodDelete, "/api/predictions/"+prediction.ID, "", http.StatusUnauthorized)
}

func TestScoringFlow(t *testing.T) {
	srv := newTestServer(t, "")
	predictorID, tournamentID, matchID := srv.seedMatch(t)

	env := srv.call(t, http.MethodPost, "/api/predictions",
		`{"matchId":"`+matchID+`","predictorId":"`+predictorID+`","predictedWinner":"Lions"}`, http.StatusCreated)
	var prediction idVersion
	decodeData(t, env, &prediction)

	env = srv.call(t, http.MethodPut, "/api/matches/"+matchID+"/winner", `{"winner":"Lions"}`, http.StatusOK)
	var result struct {
		PredictionsScored int  `json:"predictionsScored"`
		Correction        bool `json:"correction"`
	}
	decodeData(t, env, &result)
	assert.Equal(t, 1, result.PredictionsScored)
	assert.False(t, result.Correction)

	env = srv.call(t, http.MethodGet, "/api/predictions/"+prediction.ID, "", http.StatusOK)
	var details struct {
		IsCorrect    string `json:"isCorrect"`
		ResultStatus string `json:"resultStatus"`
		Match        struct {
			Winner string `json:"winner"`
		} `json:"match"`
	}
	decodeData(t, env, &details)
	assert.Equal(t, "true", details.IsCorrect)
	assert.Equal(t, "✅ Correct", details.ResultStatus)
	assert.Equal(t, "Lions", details.Match.Winner)

	env = srv.call(t, http.MethodGet, "/api/dashboard/leaderboard?tournamentId="+tournamentID, "", http.StatusOK)
	require.Equal(t, 1, env.Count)
	var board []struct {
		ID      string `json:"id"`
		Correct int    `json:"correct"`
		Rank    int    `json:"rank"`
	}
	decodeData(t, env, &board)
	assert.Equal(t, predictorID, board[0].ID)
	assert.Equal(t, 1, board[0].Correct)
	assert.Equal(t, 1, board[0].Rank)

	// Исправление результата пересчитывает прогноз
	env = srv.call(t, http.MethodPut, "/api/matches/"+matchID+"/correction", `{"winner":"Tigers"}`, http.StatusOK)
	decodeData(t, env, &result)
	assert.True(t, result.Correction)

	env = srv.call(t, http.MethodGet, "/api/predictions/"+prediction.ID, "", http.StatusOK)
	decodeData(t, env, &details)
	assert.Equal(t, "false", details.IsCorrect)

	// Завершенный матч больше не принимает прогнозы
	srv.call(t, http.MethodPut, "/api/predictions/"+prediction.ID, `{"predictedWinner":"Tigers"}`, http.StatusBadRequest)
}

func TestErrorMapping(t *testing.T) {
	srv := newTestServer(t, "")
	predictorID, tournamentID, matchID := srv.seedMatch(t)
	srv.call(t, http.MethodPost, "/api/predictions",
		`{"matchId":"`+matchID+`","predictorId":"`+predictorID+`","predictedWinner":"Tigers"}`, http.StatusCreated)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"missing match", http.MethodGet, "/api/matches/missing", "", http.StatusNotFound},
		{"missing predictor stats", http.MethodGet, "/api/predictors/missing/stats", "", http.StatusNotFound},
		{"malformed json", http.MethodPost, "/api/predictors", `{"name":`, http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/api/predictors", `{"name":"Bob","age":3}`, http.StatusBadRequest},
		{"empty body", http.MethodPost, "/api/tournaments", "", http.StatusBadRequest},
		{"same teams", http.MethodPost, "/api/matches",
			`{"tournamentId":"` + tournamentID + `","teamA":"Lions","teamB":"Lions","matchTime":"2024-06-16T18:00:00Z"}`, http.StatusBadRequest},
		{"duplicate prediction", http.MethodPost, "/api/predictions",
			`{"matchId":"` + matchID + `","predictorId":"` + predictorID + `","predictedWinner":"Lions"}`, http.StatusBadRequest},
		{"winner outside match", http.MethodPut, "/api/matches/" + matchID + "/winner", `{"winner":"Bears"}`, http.StatusBadRequest},
		{"correction before result", http.MethodPut, "/api/matches/" + matchID + "/correction", `{"winner":"Lions"}`, http.StatusBadRequest},
		{"predictor with predictions", http.MethodDelete, "/api/predictors/" + predictorID, "", http.StatusBadRequest},
		{"tournament with matches", http.MethodDelete, "/api/tournaments/" + tournamentID, "", http.StatusBadRequest},
		{"stale version", http.MethodPut, "/api/predictors/" + predictorID, `{"name":"Alice B","version":99}`, http.StatusConflict},
		{"bad limit", http.MethodGet, "/api/dashboard/leaderboard?limit=zero", "", http.StatusBadRequest},
		{"method not allowed", http.MethodPatch, "/api/predictors/" + predictorID, "", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := srv.call(t, tt.method, tt.path, tt.body, tt.status)
			assert.False(t, env.Success)
			assert.NotEmpty(t, env.Error)
		})
	}
}

func TestExport(t *testing.T) {
	srv := newTestServer(t, "")
	srv.seedMatch(t)

	resp := srv.do(t, http.MethodGet, "/api/dashboard/export?type=predictors", "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename="predictors.csv"`, resp.Header.Get("Content-Disposition"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Alice")

	env := srv.call(t, http.MethodGet, "/api/dashboard/export?type=predictors&archive=true", "", http.StatusBadRequest)
	assert.Contains(t, env.Error, "not configured")

	srv.call(t, http.MethodGet, "/api/dashboard/export?type=bogus", "", http.StatusBadRequest)
	srv.call(t, http.MethodGet, "/api/dashboard/export?type=predictions", "", http.StatusNotFound)
}

func TestLifecycleTrigger(t *testing.T) {
	srv := newTestServer(t, "")

	srv.call(t, http.MethodPost, "/api/lifecycle/everything", "", http.StatusNotFound)

	env := srv.call(t, http.MethodPost, "/api/lifecycle/"+services.SweepUpcoming, "", http.StatusOK)
	var result struct {
		Sweep string `json:"sweep"`
	}
	decodeData(t, env, &result)
	assert.Equal(t, services.SweepUpcoming, result.Sweep)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, "")
	srv.call(t, http.MethodGet, "/api/predictors", "", http.StatusOK)

	resp := srv.do(t, http.MethodGet, "/metrics", "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.Contains(body, []byte("predictor_http_requests_total")))
}

func TestWebSocketReceivesMatchResult(t *testing.T) {
	srv := newTestServer(t, "")
	_, tournamentID, matchID := srv.seedMatch(t)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/tournaments/" + tournamentID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	room := live.TournamentRoom(tournamentID)
	require.Eventually(t, func() bool { return srv.hub.ClientCount(room) == 1 }, 2*time.Second, 10*time.Millisecond)

	srv.call(t, http.MethodPut, "/api/matches/"+matchID+"/winner", `{"winner":"Tigers"}`, http.StatusOK)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg struct {
		Type   string `json:"type"`
		RoomID string `json:"roomId"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, live.EventMatchResult, msg.Type)
}

func TestWebSocketUnknownTournament(t *testing.T) {
	srv := newTestServer(t, "")

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/tournaments/missing"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
