package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/forensiclab/cluewords/internal/models"
)

var ErrSessionNotFound = errors.New("session not found")

type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `id, session_name, case_number, police_station, district, cr_number,
	speaker_name, question_filename, control_filename, question_file_path, control_file_path,
	annotations_data, bandpass_enabled, created_at, updated_at`

// List returns all saved sessions, most recently updated first.
func (r *SessionRepository) List() ([]*models.Session, error) {
	rows, err := r.db.Query(`SELECT ` + sessionColumns + `
		FROM forensic_sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// Get fetches one session by id. Returns ErrSessionNotFound for unknown ids.
func (r *SessionRepository) Get(id uuid.UUID) (*models.Session, error) {
	row := r.db.QueryRow(`SELECT `+sessionColumns+`
		FROM forensic_sessions WHERE id = $1`, id)
	s, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, ErrSessionNotFound
	}
	return s, err
}

// Create inserts a new session and fills in its id and timestamps.
func (r *SessionRepository) Create(s *models.Session) error {
	s.ID = uuid.New()
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now
	_, err := r.db.Exec(`INSERT INTO forensic_sessions (`+sessionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		s.ID, s.Name, s.CaseNumber, s.PoliceStation, s.District, s.CRNumber,
		s.SpeakerName, s.QuestionFilename, s.ControlFilename, s.QuestionFilePath,
		s.ControlFilePath, string(s.AnnotationsData), s.BandpassEnabled, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// Update overwrites every mutable field of an existing session.
func (r *SessionRepository) Update(s *models.Session) error {
	s.UpdatedAt = time.Now().UTC()
	res, err := r.db.Exec(`UPDATE forensic_sessions SET
		session_name = $2, case_number = $3, police_station = $4, district = $5,
		cr_number = $6, speaker_name = $7, question_filename = $8, control_filename = $9,
		question_file_path = $10, control_file_path = $11, annotations_data = $12,
		bandpass_enabled = $13, updated_at = $14
		WHERE id = $1`,
		s.ID, s.Name, s.CaseNumber, s.PoliceStation, s.District, s.CRNumber,
		s.SpeakerName, s.QuestionFilename, s.ControlFilename, s.QuestionFilePath,
		s.ControlFilePath, string(s.AnnotationsData), s.BandpassEnabled, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// Delete removes a session by id. Returns ErrSessionNotFound for unknown ids.
func (r *SessionRepository) Delete(id uuid.UUID) error {
	res, err := r.db.Exec(`DELETE FROM forensic_sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row rowScanner) (*models.Session, error) {
	var s models.Session
	var annotations string
	err := row.Scan(&s.ID, &s.Name, &s.CaseNumber, &s.PoliceStation, &s.District,
		&s.CRNumber, &s.SpeakerName, &s.QuestionFilename, &s.ControlFilename,
		&s.QuestionFilePath, &s.ControlFilePath, &annotations, &s.BandpassEnabled,
		&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.AnnotationsData = []byte(annotations)
	return &s, nil
}
