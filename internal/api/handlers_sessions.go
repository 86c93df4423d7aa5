package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/forensiclab/cluewords/internal/models"
	"github.com/forensiclab/cluewords/internal/repository"
)

// sessionRequest is the save payload sent by the browser. An id selects an
// existing session to overwrite; without one a new session is created.
type sessionRequest struct {
	SessionID        string             `json:"session_id"`
	SessionName      string             `json:"session_name"`
	CaseNumber       string             `json:"case_number"`
	PoliceStation    string             `json:"police_station"`
	District         string             `json:"district"`
	CRNumber         string             `json:"cr_number"`
	SpeakerName      string             `json:"speaker_name"`
	QuestionFilename string             `json:"question_filename"`
	ControlFilename  string             `json:"control_filename"`
	QuestionFilePath string             `json:"question_file_path"`
	ControlFilePath  string             `json:"control_file_path"`
	BandpassEnabled  bool               `json:"bandpass_enabled"`
	Annotations      models.Annotations `json:"annotations"`
}

// GET /api/v1/sessions - all saved sessions, most recently updated first.
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.sessionRepo.List()
	if err != nil {
		log.Printf("sessions: list: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to fetch sessions")
		return
	}
	out := make([]map[string]interface{}, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, sess.ToDict())
	}
	s.respondJSON(w, http.StatusOK, out)
}

// POST /api/v1/sessions - create-or-update with full field overwrite.
func (s *Server) handleSaveSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid session payload")
		return
	}

	var sess *models.Session
	if req.SessionID != "" {
		id, err := uuid.Parse(req.SessionID)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid session id")
			return
		}
		existing, err := s.sessionRepo.Get(id)
		if errors.Is(err, repository.ErrSessionNotFound) {
			s.respondError(w, http.StatusNotFound, "Session not found")
			return
		}
		if err != nil {
			log.Printf("sessions: get: %v", err)
			s.respondError(w, http.StatusInternalServerError, "Failed to save session")
			return
		}
		sess = existing
	} else {
		sess = &models.Session{}
	}

	sess.Name = req.SessionName
	sess.CaseNumber = req.CaseNumber
	sess.PoliceStation = req.PoliceStation
	sess.District = req.District
	sess.CRNumber = req.CRNumber
	sess.SpeakerName = req.SpeakerName
	sess.QuestionFilename = req.QuestionFilename
	sess.ControlFilename = req.ControlFilename
	sess.QuestionFilePath = req.QuestionFilePath
	sess.ControlFilePath = req.ControlFilePath
	sess.BandpassEnabled = req.BandpassEnabled
	if err := sess.SetAnnotations(req.Annotations); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid annotations")
		return
	}

	var err error
	if req.SessionID != "" {
		err = s.sessionRepo.Update(sess)
	} else {
		err = s.sessionRepo.Create(sess)
	}
	if err != nil {
		log.Printf("sessions: save: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to save session")
		return
	}
	s.respondJSON(w, http.StatusOK, sess.ToDict())
}

// GET /api/v1/sessions/{id}
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid session id")
		return
	}
	sess, err := s.sessionRepo.Get(id)
	if errors.Is(err, repository.ErrSessionNotFound) {
		s.respondError(w, http.StatusNotFound, "Session not found")
		return
	}
	if err != nil {
		log.Printf("sessions: get: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to load session")
		return
	}
	s.respondJSON(w, http.StatusOK, sess.ToDict())
}

// DELETE /api/v1/sessions/{id}
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid session id")
		return
	}
	err = s.sessionRepo.Delete(id)
	if errors.Is(err, repository.ErrSessionNotFound) {
		s.respondError(w, http.StatusNotFound, "Session not found")
		return
	}
	if err != nil {
		log.Printf("sessions: delete: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to delete session")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"message": "Session deleted successfully"})
}
