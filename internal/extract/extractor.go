// Package extract cuts matched clueword segments out of the source recordings
// and lays them out one directory per match.
package extract

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/forensiclab/cluewords/internal/audio"
	"github.com/forensiclab/cluewords/internal/ffmpeg"
	"github.com/forensiclab/cluewords/internal/models"
)

// Extractor slices matched segments and writes the per-clueword output tree.
type Extractor struct {
	Filter ffmpeg.Filter
	LowHz  int
	HighHz int

	// Progress, when set, is called after each match is written.
	Progress func(done, total int, label string)
}

// Extract processes every match against the two source clips and returns the
// report rows in output order (question row then control row per match).
// Filter failures degrade to the unfiltered segment and never abort the run.
func (e *Extractor) Extract(ctx context.Context, matches []models.Match, qClip, cClip *audio.Clip, outputDir string, enableBandpass bool) ([]models.ReportRow, error) {
	var rows []models.ReportRow
	fallbacks := 0

	for i, m := range matches {
		dirName := SafeLabel(m.Question.Label)
		if dirName == "" {
			// Counter covers fallback-named directories only, so two
			// symbol-only labels in one run get distinct ordinals.
			fallbacks++
			dirName = fmt.Sprintf("clueword_%d", fallbacks)
		}
		dir := filepath.Join(outputDir, dirName)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create clueword dir: %w", err)
		}

		qRow, err := e.writeSide(ctx, dir, "question", m.Question, qClip, enableBandpass)
		if err != nil {
			return nil, err
		}
		rows = append(rows, qRow)

		cRow, err := e.writeSide(ctx, dir, "control", m.Control, cClip, enableBandpass)
		if err != nil {
			return nil, err
		}
		rows = append(rows, cRow)

		if e.Progress != nil {
			e.Progress(i+1, len(matches), m.Question.Label)
		}
	}
	return rows, nil
}

// writeSide extracts one side of one match: slice, force-canonical, write the
// plain wav and, when enabled, the bandpass-filtered wav.
func (e *Extractor) writeSide(ctx context.Context, dir, role string, ann models.Annotation, src *audio.Clip, enableBandpass bool) (models.ReportRow, error) {
	startMs := ann.Start * 1000
	endMs := ann.End * 1000

	seg := src.SliceMs(startMs, endMs).Canonical()
	if err := seg.WriteWAV(filepath.Join(dir, role+".wav")); err != nil {
		return models.ReportRow{}, fmt.Errorf("write %s segment: %w", role, err)
	}

	if enableBandpass {
		filtered, err := e.Filter.Apply(ctx, seg, e.LowHz, e.HighHz)
		if err != nil {
			log.Printf("warning: bandpass filter failed for %q (%s), using unfiltered segment: %v", ann.Label, role, err)
			filtered = seg
		}
		if err := filtered.WriteWAV(filepath.Join(dir, "bpf_"+role+".wav")); err != nil {
			return models.ReportRow{}, fmt.Errorf("write filtered %s segment: %w", role, err)
		}
	}

	return models.ReportRow{
		Role:       titleRole(role),
		Label:      ann.Label,
		StartMs:    startMs,
		EndMs:      endMs,
		DurationMs: endMs - startMs,
	}, nil
}

// SafeLabel reduces a label to a filesystem-safe directory name: alphanumeric
// runes, spaces and underscores survive, everything else is stripped, then
// trailing whitespace is trimmed.
func SafeLabel(label string) string {
	var b strings.Builder
	for _, r := range label {
		if r == ' ' || r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return strings.TrimRightFunc(b.String(), unicode.IsSpace)
}

func titleRole(role string) string {
	if role == "" {
		return role
	}
	return strings.ToUpper(role[:1]) + role[1:]
}
