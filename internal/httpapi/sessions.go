package httpapi

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/fonotreino/fonotreino/internal/session"
)

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req session.StartRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}
	req.ClientID = strings.TrimSpace(req.ClientID)
	req.SpecialistID = strings.TrimSpace(req.SpecialistID)
	req.Difficulty = strings.TrimSpace(req.Difficulty)

	msgs, err := s.sessions.Start(r.Context(), req)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, msgs)
}

func (s *Server) handleSubmitAudio(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(chi.URLParam(r, "id"))
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "session id is required")
		return
	}

	if err := r.ParseMultipartForm(s.maxAudioBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "expected a multipart form with an audio file")
		return
	}

	file, _, err := r.FormFile("audio")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "form field \"audio\" is required")
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(io.LimitReader(file, s.maxAudioBytes+1))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "failed to read audio upload")
		return
	}
	if int64(len(audio)) > s.maxAudioBytes {
		respondError(w, http.StatusRequestEntityTooLarge, "invalid_request", "audio upload exceeds the size limit")
		return
	}
	if len(audio) == 0 {
		respondError(w, http.StatusBadRequest, "invalid_request", "audio upload is empty")
		return
	}

	// Absent or unparseable flag falls back to the word-by-word strategy.
	useHolistic, _ := strconv.ParseBool(r.FormValue("useHolisticScorer"))

	msgs, err := s.sessions.SubmitAudio(r.Context(), sessionID, audio, useHolistic)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, msgs)
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(chi.URLParam(r, "id"))

	msg, err := s.sessions.GetState(r.Context(), sessionID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, msg)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(chi.URLParam(r, "id"))

	msg, err := s.sessions.Cancel(r.Context(), sessionID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, msg)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	clientID := strings.TrimSpace(chi.URLParam(r, "clientId"))

	entries, err := s.sessions.History(r.Context(), clientID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	if entries == nil {
		entries = []session.HistoryEntry{}
	}
	respondJSON(w, http.StatusOK, entries)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	clientID := strings.TrimSpace(chi.URLParam(r, "clientId"))

	stats, err := s.dashboard.Dashboard(r.Context(), clientID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}
