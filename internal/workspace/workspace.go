// Package workspace manages per-case working directories. Each active case
// gets its own uuid-keyed directory tree, so concurrent cases never share
// upload or output paths.
package workspace

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a case id has no workspace on disk.
var ErrNotFound = errors.New("case workspace not found")

// Manager creates and resolves case workspaces under a fixed root.
type Manager struct {
	Root string
}

func NewManager(root string) *Manager {
	return &Manager{Root: root}
}

// Case is one case's directory layout.
type Case struct {
	ID  uuid.UUID
	dir string
}

// Create allocates a fresh workspace with upload/standardized/output dirs.
func (m *Manager) Create() (*Case, error) {
	id := uuid.New()
	c := &Case{ID: id, dir: filepath.Join(m.Root, id.String())}
	for _, d := range []string{c.UploadsDir(), c.StandardizedDir(), c.OutputDir()} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("create workspace: %w", err)
		}
	}
	return c, nil
}

// Open resolves an existing workspace by case id.
func (m *Manager) Open(id uuid.UUID) (*Case, error) {
	c := &Case{ID: id, dir: filepath.Join(m.Root, id.String())}
	if _, err := os.Stat(c.dir); err != nil {
		return nil, ErrNotFound
	}
	return c, nil
}

// Sweep removes case workspaces that have been idle longer than ttl and
// returns how many were deleted.
func (m *Manager) Sweep(ttl time.Duration) (int, error) {
	entries, err := os.ReadDir(m.Root)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read workspace root: %w", err)
	}
	cutoff := time.Now().Add(-ttl)
	removed := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := uuid.Parse(e.Name()); err != nil {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(m.Root, e.Name())
		if err := os.RemoveAll(path); err != nil {
			log.Printf("workspace: failed to sweep %s: %v", path, err)
			continue
		}
		removed++
	}
	return removed, nil
}

func (c *Case) Dir() string             { return c.dir }
func (c *Case) UploadsDir() string      { return filepath.Join(c.dir, "uploads") }
func (c *Case) StandardizedDir() string { return filepath.Join(c.dir, "standardized") }
func (c *Case) OutputDir() string       { return filepath.Join(c.dir, "output") }

// UploadPath is the fixed per-role slot for the raw uploaded bytes. A second
// upload for the same role overwrites the first.
func (c *Case) UploadPath(role string) string {
	return filepath.Join(c.UploadsDir(), role+"_original")
}

// StandardizedPath is the per-role canonical-format preview file.
func (c *Case) StandardizedPath(role string) string {
	return filepath.Join(c.StandardizedDir(), role+".wav")
}

// ArchivePath is where the final deliverable zip lands. Reprocessing a case
// overwrites the prior archive.
func (c *Case) ArchivePath() string {
	return filepath.Join(c.dir, "clueword_analysis.zip")
}

// ResetOutput clears the output tree before a processing run.
func (c *Case) ResetOutput() error {
	if err := os.RemoveAll(c.OutputDir()); err != nil {
		return fmt.Errorf("clear output dir: %w", err)
	}
	return os.MkdirAll(c.OutputDir(), 0o755)
}

// Touch bumps the workspace mtime so active cases survive sweeps.
func (c *Case) Touch() {
	now := time.Now()
	if err := os.Chtimes(c.dir, now, now); err != nil {
		log.Printf("workspace: touch %s: %v", c.dir, err)
	}
}
