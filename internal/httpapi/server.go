package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/149189/NexTalk/internal/chat"
	"github.com/149189/NexTalk/internal/config"
	"github.com/149189/NexTalk/internal/memory"
	"github.com/149189/NexTalk/internal/observability"
	"github.com/149189/NexTalk/internal/session"
)

// TurnHandler is the orchestrator surface the transport depends on.
type TurnHandler interface {
	HandleTurn(ctx context.Context, sessionID, userText, userProfileID string) (chat.TurnResult, error)
}

type Server struct {
	cfg          config.Config
	orchestrator TurnHandler
	sessions     session.Store
	memories     memory.Store
	metrics      *observability.Metrics
	log          zerolog.Logger
	upgrader     websocket.Upgrader
}

func New(
	cfg config.Config,
	orchestrator TurnHandler,
	sessions session.Store,
	memories memory.Store,
	metrics *observability.Metrics,
	log zerolog.Logger,
) *Server {
	return &Server{
		cfg:          cfg,
		orchestrator: orchestrator,
		sessions:     sessions,
		memories:     memories,
		metrics:      metrics,
		log:          log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Default: only allow browser websocket connections from the
				// same origin, so other sites cannot drive a user's chat
				// session if the service is ever exposed beyond localhost.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})
	r.Get("/v1/perf/latency", s.handlePerfLatency)

	r.Post("/v1/chat", s.handleChat)
	r.Get("/v1/chat/ws", s.handleChatWS)
	r.Get("/v1/session/{id}/messages", s.handleSessionMessages)
	r.Post("/v1/session/{id}/clear", s.handleClearSession)
	r.Get("/v1/memory/{userProfileID}", s.handleListMemories)
	r.Post("/v1/memory/{userProfileID}", s.handleCreateMemory)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func (s *Server) handlePerfLatency(w http.ResponseWriter, _ *http.Request) {
	if s.metrics == nil {
		respondJSON(w, http.StatusOK, observability.TurnStageSnapshot{})
		return
	}
	respondJSON(w, http.StatusOK, s.metrics.SnapshotTurnStages())
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}

// respondMappedError translates core error taxonomy to transport statuses.
func respondMappedError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrInvalidArgument) || errors.Is(err, memory.ErrInvalidArgument):
		respondError(w, http.StatusBadRequest, "invalid_argument", err.Error())
	case errors.Is(err, session.ErrUnavailable) || errors.Is(err, memory.ErrUnavailable):
		respondError(w, http.StatusServiceUnavailable, "store_unavailable", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal", err.Error())
	}
}
