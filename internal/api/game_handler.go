package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/ericogr/duel-arena/internal/bot"
	"github.com/ericogr/duel-arena/internal/hub"
	"github.com/ericogr/duel-arena/internal/service"
	"github.com/ericogr/duel-arena/internal/session"
	"github.com/ericogr/duel-arena/internal/storage"
)

// Arena is the live match surface behind the websocket endpoint.
type Arena interface {
	Connected(participantID, name string, c hub.Conn)
	Disconnected(participantID string, c hub.Conn)
	Handle(ctx context.Context, participantID string, frame []byte)
	Games() []session.Info
	Bots() []bot.Profile
	Snapshot() service.Snapshot
}

// ProgressReader serves the read-only progression endpoints.
type ProgressReader interface {
	Progress(ctx context.Context, participantID string) (*storage.CharacterProfile, error)
	Outcomes(ctx context.Context, participantID string, limit int) ([]storage.MatchOutcome, error)
	TopPlayers(ctx context.Context, limit int) ([]storage.CharacterProfile, error)
}

// GameHandler groups all game-related HTTP handlers.
type GameHandler struct {
	arena    Arena
	progress ProgressReader
	upgrader websocket.Upgrader
}

// NewGameHandler creates a handler. An empty allowedOrigins accepts any
// websocket origin.
func NewGameHandler(arena Arena, progress ProgressReader, allowedOrigins []string) *GameHandler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			allowed[strings.ToLower(o)] = struct{}{}
		}
	}
	return &GameHandler{
		arena:    arena,
		progress: progress,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowed) == 0 {
					return true
				}
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				_, ok := allowed[strings.ToLower(origin)]
				return ok
			},
		},
	}
}
