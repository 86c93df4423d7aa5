package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/forensiclab/cluewords/internal/archive"
	"github.com/forensiclab/cluewords/internal/audio"
	"github.com/forensiclab/cluewords/internal/extract"
	"github.com/forensiclab/cluewords/internal/ffmpeg"
	"github.com/forensiclab/cluewords/internal/matching"
	"github.com/forensiclab/cluewords/internal/models"
	"github.com/forensiclab/cluewords/internal/report"
	"github.com/forensiclab/cluewords/internal/workspace"
)

// POST /api/v1/process - run the clueword pipeline and return the archive.
//
// Validation failures abort with 400 before any side effect. A no-match
// result is a distinct 400. Everything else that fails inside the pipeline
// surfaces as a generic 500 with no partial archive returned.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	annotationsData := r.FormValue("annotations")
	if annotationsData == "" {
		s.respondError(w, http.StatusBadRequest, "No annotations provided.")
		return
	}
	var annotations models.Annotations
	if err := json.Unmarshal([]byte(annotationsData), &annotations); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid JSON in annotations data.")
		return
	}
	if len(annotations.Question) == 0 || len(annotations.Control) == 0 {
		s.respondError(w, http.StatusBadRequest, "Both question and control annotations are required.")
		return
	}
	if err := validateAnnotations(annotations); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	qFilename := r.FormValue("question_original_filename")
	cFilename := r.FormValue("control_original_filename")
	if qFilename == "" || cFilename == "" {
		s.respondError(w, http.StatusBadRequest, "Original filenames are required.")
		return
	}

	enableBandpass := strings.ToLower(r.FormValue("enable_bandpass")) != "false"

	caseInfo := models.CaseInfo{
		CaseNumber:    r.FormValue("case_number"),
		PoliceStation: r.FormValue("police_station"),
		District:      r.FormValue("district"),
		CRNumber:      r.FormValue("cr_adr_number"),
		SpeakerName:   r.FormValue("speaker_name"),
	}

	c, err := s.resolveCase(r.FormValue("case_id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !fileExists(c.UploadPath("question")) || !fileExists(c.UploadPath("control")) {
		s.respondError(w, http.StatusBadRequest, "Original audio files not found.")
		return
	}

	err = s.runPipeline(r.Context(), c, annotations, qFilename, cFilename, enableBandpass, caseInfo)
	switch {
	case errors.Is(err, matching.ErrNoMatches):
		s.respondError(w, http.StatusBadRequest, matching.ErrNoMatches.Error())
		return
	case errors.Is(err, ffmpeg.ErrDecode):
		log.Printf("process: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Audio processing failed: could not decode source audio.")
		return
	case err != nil:
		log.Printf("process: %v", err)
		s.respondError(w, http.StatusInternalServerError, "An internal server error occurred during processing.")
		return
	}
	c.Touch()

	s.wsHub.Broadcast("process:done", map[string]interface{}{"case_id": c.ID})

	w.Header().Set("Content-Disposition", `attachment; filename="clueword_analysis.zip"`)
	w.Header().Set("Content-Type", "application/zip")
	http.ServeFile(w, r, c.ArchivePath())
}

// runPipeline decodes both sources, matches, extracts, reports and archives.
func (s *Server) runPipeline(ctx context.Context, c *workspace.Case, annotations models.Annotations, qFilename, cFilename string, enableBandpass bool, caseInfo models.CaseInfo) error {
	matches, err := matching.Match(annotations.Question, annotations.Control)
	if err != nil {
		return err
	}

	qClip, err := s.decodeSource(ctx, c, "question")
	if err != nil {
		return err
	}
	cClip, err := s.decodeSource(ctx, c, "control")
	if err != nil {
		return err
	}

	if err := c.ResetOutput(); err != nil {
		return err
	}

	extractor := &extract.Extractor{
		Filter: s.filter,
		LowHz:  s.config.BandpassLowHz,
		HighHz: s.config.BandpassHighHz,
		Progress: func(done, total int, label string) {
			s.wsHub.Broadcast("process:progress", map[string]interface{}{
				"case_id": c.ID,
				"done":    done,
				"total":   total,
				"label":   label,
			})
		},
	}
	rows, err := extractor.Extract(ctx, matches, qClip, cClip, c.OutputDir(), enableBandpass)
	if err != nil {
		return err
	}

	if _, err := report.Write(c.OutputDir(), report.Params{
		Rows:             rows,
		QuestionFilename: qFilename,
		ControlFilename:  cFilename,
		MatchCount:       len(matches),
		BandpassEnabled:  enableBandpass,
		CaseInfo:         caseInfo,
	}); err != nil {
		return err
	}

	return archive.Create(c.OutputDir(), c.ArchivePath())
}

// decodeSource re-decodes a raw upload into a canonical clip. The decode goes
// through ffmpeg so any format the codec layer accepts works as input.
func (s *Server) decodeSource(ctx context.Context, c *workspace.Case, role string) (*audio.Clip, error) {
	canonical := filepath.Join(c.Dir(), role+"_decoded.wav")
	if err := ffmpeg.Standardize(ctx, s.config.FFmpegPath, c.UploadPath(role), canonical); err != nil {
		return nil, err
	}
	defer os.Remove(canonical)
	return audio.ReadWAV(canonical)
}

func validateAnnotations(a models.Annotations) error {
	for _, set := range []models.AnnotationSet{a.Question, a.Control} {
		for _, ann := range set {
			if ann.Start < 0 || ann.End <= ann.Start {
				return fmt.Errorf("invalid annotation %q: end must be greater than start", ann.Label)
			}
		}
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
