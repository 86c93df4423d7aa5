package api

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"

	"github.com/google/uuid"

	"github.com/forensiclab/cluewords/internal/ffmpeg"
	"github.com/forensiclab/cluewords/internal/models"
	"github.com/forensiclab/cluewords/internal/workspace"
)

const maxUploadBytes = 512 << 20

// POST /api/v1/audio/standardize - accept one recording, store the raw bytes
// in the case workspace and produce the canonical-format browser preview.
func (s *Server) handleStandardize(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}

	file, header, err := r.FormFile("audio_file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "No audio file provided.")
		return
	}
	defer file.Close()
	if header.Filename == "" {
		s.respondError(w, http.StatusBadRequest, "No file selected.")
		return
	}

	role := models.Role(r.FormValue("type"))
	if !role.Valid() {
		s.respondError(w, http.StatusBadRequest, "Invalid panel type.")
		return
	}

	c, err := s.resolveCase(r.FormValue("case_id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Fixed per-role slot inside the workspace: re-uploading a role
	// overwrites its previous recording.
	rawPath := c.UploadPath(string(role))
	dst, err := os.Create(rawPath)
	if err != nil {
		log.Printf("standardize: save upload: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to store uploaded file.")
		return
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		log.Printf("standardize: save upload: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to store uploaded file.")
		return
	}
	dst.Close()

	if err := ffmpeg.Standardize(r.Context(), s.config.FFmpegPath, rawPath, c.StandardizedPath(string(role))); err != nil {
		log.Printf("standardize: %v", err)
		s.respondError(w, http.StatusInternalServerError, fmt.Sprintf("Audio processing failed: could not decode %s file.", role))
		return
	}
	c.Touch()

	s.wsHub.Broadcast("upload:done", map[string]interface{}{
		"case_id":  c.ID,
		"role":     role,
		"filename": header.Filename,
	})

	s.respondJSON(w, http.StatusOK, Response{Success: true, Data: map[string]interface{}{
		"case_id":           c.ID,
		"url":               fmt.Sprintf("/previews/%s/standardized/%s.wav", c.ID, role),
		"original_filename": header.Filename,
	}})
}

// resolveCase opens the workspace named by caseID, or allocates a fresh one
// when the client has no case yet.
func (s *Server) resolveCase(caseID string) (*workspace.Case, error) {
	if caseID == "" {
		return s.workspaces.Create()
	}
	id, err := uuid.Parse(caseID)
	if err != nil {
		return nil, fmt.Errorf("invalid case id")
	}
	c, err := s.workspaces.Open(id)
	if err != nil {
		return nil, fmt.Errorf("unknown case id")
	}
	return c, nil
}
