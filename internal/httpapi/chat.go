package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/149189/NexTalk/internal/chat"
	"github.com/149189/NexTalk/internal/session"
)

const shortHistoryLimit = 10

type chatRequest struct {
	SessionID     string `json:"session_id"`
	UserProfileID string `json:"user_profile_id,omitempty"`
	Message       string `json:"message"`
}

type chatResponse struct {
	Reply          string               `json:"reply"`
	Degraded       bool                 `json:"degraded"`
	SaveSuggestion *chat.SaveSuggestion `json:"save_suggestion,omitempty"`
	ShortHistory   []session.Turn       `json:"short_history"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	result, err := s.orchestrator.HandleTurn(r.Context(), req.SessionID, req.Message, req.UserProfileID)
	if err != nil {
		respondMappedError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, s.buildChatResponse(r, req.SessionID, result))
}

func (s *Server) buildChatResponse(r *http.Request, sessionID string, result chat.TurnResult) chatResponse {
	resp := chatResponse{
		Reply:        result.ReplyText,
		Degraded:     result.Degraded,
		ShortHistory: []session.Turn{},
	}
	if result.Suggestion.Suggest {
		suggestion := result.Suggestion
		resp.SaveSuggestion = &suggestion
	}
	// Best effort: the turn already succeeded, a history read failure only
	// trims the response payload.
	if history, err := s.sessions.ReadRecent(r.Context(), sessionID, shortHistoryLimit); err == nil {
		resp.ShortHistory = history
	}
	return resp
}

// Websocket frames. The reply is already complete before the first frame
// is written; word framing is presentation only.
type wsClientMessage struct {
	Message string `json:"message"`
}

type wsFrame struct {
	Type           string               `json:"type"`
	Text           string               `json:"text,omitempty"`
	Reply          string               `json:"reply,omitempty"`
	Degraded       bool                 `json:"degraded,omitempty"`
	SaveSuggestion *chat.SaveSuggestion `json:"save_suggestion,omitempty"`
	Code           string               `json:"code,omitempty"`
}

func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing_session_id", "query parameter session_id is required")
		return
	}
	userProfileID := strings.TrimSpace(r.URL.Query().Get("user_profile_id"))

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	conn.SetReadLimit(1 << 20)

	for {
		var msg wsClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}

		result, err := s.orchestrator.HandleTurn(r.Context(), sessionID, msg.Message, userProfileID)
		if err != nil {
			_ = s.writeFrame(conn, wsFrame{Type: "error", Code: "turn_failed", Text: err.Error()})
			continue
		}

		for _, word := range strings.Fields(result.ReplyText) {
			if err := s.writeFrame(conn, wsFrame{Type: "reply_delta", Text: word}); err != nil {
				return
			}
		}

		end := wsFrame{Type: "turn_end", Reply: result.ReplyText, Degraded: result.Degraded}
		if result.Suggestion.Suggest {
			suggestion := result.Suggestion
			end.SaveSuggestion = &suggestion
		}
		if err := s.writeFrame(conn, end); err != nil {
			return
		}
	}
}

func (s *Server) writeFrame(conn *websocket.Conn, frame wsFrame) error {
	_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return conn.WriteJSON(frame)
}
