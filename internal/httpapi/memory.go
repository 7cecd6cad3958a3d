package httpapi

import (
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
)

type createMemoryRequest struct {
	MemType         string `json:"mem_type"`
	Content         string `json:"content"`
	SourceSessionID string `json:"source_session_id,omitempty"`
}

func (s *Server) handleListMemories(w http.ResponseWriter, r *http.Request) {
	userProfileID := strings.TrimSpace(chi.URLParam(r, "userProfileID"))
	if userProfileID == "" {
		respondError(w, http.StatusBadRequest, "invalid_argument", "missing user profile id")
		return
	}

	records, err := s.memories.List(r.Context(), userProfileID)
	if err != nil {
		respondMappedError(w, err)
		return
	}

	// The store contract is unordered; the transport sorts newest-first
	// for display.
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	respondJSON(w, http.StatusOK, records)
}

func (s *Server) handleCreateMemory(w http.ResponseWriter, r *http.Request) {
	userProfileID := strings.TrimSpace(chi.URLParam(r, "userProfileID"))
	if userProfileID == "" {
		respondError(w, http.StatusBadRequest, "invalid_argument", "missing user profile id")
		return
	}

	var req createMemoryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	record, err := s.memories.Create(r.Context(), userProfileID, req.MemType, req.Content, req.SourceSessionID)
	if err != nil {
		respondMappedError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, record)
}
