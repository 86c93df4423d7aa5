package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ──────────────────── Roles ────────────────────

// Role identifies which of the two recordings an upload or annotation belongs to.
type Role string

const (
	RoleQuestion Role = "question"
	RoleControl  Role = "control"
)

// Valid reports whether r is one of the two known panel roles.
func (r Role) Valid() bool {
	return r == RoleQuestion || r == RoleControl
}

// ──────────────────── Annotations ────────────────────

// Annotation is one labeled time interval marked by the investigator.
// Start and End are seconds into the recording.
type Annotation struct {
	Label string  `json:"label"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// AnnotationSet is an ordered sequence of annotations for one timeline,
// in the order the investigator created them.
type AnnotationSet []Annotation

// Annotations carries both timelines as serialized by the browser.
type Annotations struct {
	Question AnnotationSet `json:"question"`
	Control  AnnotationSet `json:"control"`
}

// Match pairs a question annotation with the control annotation that shares
// its normalized label.
type Match struct {
	Question Annotation `json:"question"`
	Control  Annotation `json:"control"`
}

// ReportRow is one side of one match as it appears in the analysis report.
type ReportRow struct {
	Role       string  `json:"role"`
	Label      string  `json:"label"`
	StartMs    float64 `json:"start_ms"`
	EndMs      float64 `json:"end_ms"`
	DurationMs float64 `json:"duration_ms"`
}

// ──────────────────── Case metadata ────────────────────

// CaseInfo is free-form case metadata printed on the report header.
// No validation beyond presence; absent fields render as "N/A".
type CaseInfo struct {
	CaseNumber    string `json:"case_number"`
	PoliceStation string `json:"police_station"`
	District      string `json:"district"`
	CRNumber      string `json:"cr_adr_number"`
	SpeakerName   string `json:"speaker_name"`
}

// ──────────────────── Sessions ────────────────────

// Session is a saved unit of partial work: case metadata, both annotation
// timelines and the bandpass flag, keyed by an opaque id.
type Session struct {
	ID               uuid.UUID `json:"id" db:"id"`
	Name             string    `json:"session_name" db:"session_name"`
	CaseNumber       string    `json:"case_number" db:"case_number"`
	PoliceStation    string    `json:"police_station" db:"police_station"`
	District         string    `json:"district" db:"district"`
	CRNumber         string    `json:"cr_number" db:"cr_number"`
	SpeakerName      string    `json:"speaker_name" db:"speaker_name"`
	QuestionFilename string    `json:"question_filename" db:"question_filename"`
	ControlFilename  string    `json:"control_filename" db:"control_filename"`
	QuestionFilePath string    `json:"question_file_path" db:"question_file_path"`
	ControlFilePath  string    `json:"control_file_path" db:"control_file_path"`
	AnnotationsData  []byte    `json:"-" db:"annotations_data"`
	BandpassEnabled  bool      `json:"bandpass_enabled" db:"bandpass_enabled"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// SetAnnotations stores both timelines as the session's JSON blob.
func (s *Session) SetAnnotations(a Annotations) error {
	data, err := json.Marshal(a)
	if err != nil {
		return err
	}
	s.AnnotationsData = data
	return nil
}

// GetAnnotations decodes the stored blob, defaulting to empty timelines when
// the blob is absent or unreadable.
func (s *Session) GetAnnotations() Annotations {
	a := Annotations{Question: AnnotationSet{}, Control: AnnotationSet{}}
	if len(s.AnnotationsData) == 0 {
		return a
	}
	if err := json.Unmarshal(s.AnnotationsData, &a); err != nil {
		return Annotations{Question: AnnotationSet{}, Control: AnnotationSet{}}
	}
	if a.Question == nil {
		a.Question = AnnotationSet{}
	}
	if a.Control == nil {
		a.Control = AnnotationSet{}
	}
	return a
}

// ToDict is the JSON shape the browser consumes, annotations inlined.
func (s *Session) ToDict() map[string]interface{} {
	return map[string]interface{}{
		"id":                 s.ID,
		"session_name":       s.Name,
		"case_number":        s.CaseNumber,
		"police_station":     s.PoliceStation,
		"district":           s.District,
		"cr_number":          s.CRNumber,
		"speaker_name":       s.SpeakerName,
		"question_filename":  s.QuestionFilename,
		"control_filename":   s.ControlFilename,
		"annotations":        s.GetAnnotations(),
		"bandpass_enabled":   s.BandpassEnabled,
		"created_at":         s.CreatedAt,
		"updated_at":         s.UpdatedAt,
	}
}
