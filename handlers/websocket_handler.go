package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Dosada05/tournament-predictor/live"
	"github.com/Dosada05/tournament-predictor/services"
)

type WebSocketHandler struct {
	hub               *live.Hub
	tournamentService services.TournamentService
	upgrader          websocket.Upgrader
}

// NewWebSocketHandler - allowedOrigin пустой разрешает любые Origin (разработка).
func NewWebSocketHandler(hub *live.Hub, ts services.TournamentService, allowedOrigin string) *WebSocketHandler {
	return &WebSocketHandler{
		hub:               hub,
		tournamentService: ts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowedOrigin == "" || origin == "" || origin == allowedOrigin
			},
		},
	}
}

// ServeDashboard обрабатывает /ws/dashboard: все события результатов и фоновых проходов.
func (h *WebSocketHandler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, live.DashboardRoom)
}

// ServeTournament обрабатывает /ws/tournaments/{tournamentID}: результаты матчей одного турнира.
func (h *WebSocketHandler) ServeTournament(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if _, err := h.tournamentService.GetTournament(r.Context(), tournamentID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.serve(w, r, live.TournamentRoom(tournamentID))
}

func (h *WebSocketHandler) serve(w http.ResponseWriter, r *http.Request, room string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам отвечает клиенту ошибкой
		log.Warn().Err(err).Str("room", room).Msg("failed to upgrade websocket connection")
		return
	}

	client := live.NewClient(h.hub, conn, room)
	if !h.hub.Join(client) {
		conn.Close()
		return
	}
	go client.WritePump()
	go client.ReadPump()

	log.Debug().Str("room", room).Str("remote_addr", r.RemoteAddr).Msg("websocket client connected")
}
