package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/forensiclab/cluewords/internal/models"
)

func TestFormatTime(t *testing.T) {
	cases := []struct {
		ms   float64
		want string
	}{
		{0, "00:00:00:000"},
		{3661001, "01:01:01:001"},
		{999, "00:00:00:999"},
		{1000, "00:00:01:000"},
		{59999, "00:00:59:999"},
		{60000, "00:01:00:000"},
		{3600000, "01:00:00:000"},
		{1500.9, "00:00:01:500"}, // truncation, never rounding
	}
	for _, c := range cases {
		if got := FormatTime(c.ms); got != c.want {
			t.Errorf("FormatTime(%v) = %q, want %q", c.ms, got, c.want)
		}
	}
}

func row(role, label string, start, end float64) models.ReportRow {
	return models.ReportRow{Role: role, Label: label, StartMs: start, EndMs: end, DurationMs: end - start}
}

func TestGroupRowsPairsByLabelInFirstSeenOrder(t *testing.T) {
	rows := []models.ReportRow{
		row("Question", "cat", 1000, 2000),
		row("Control", "cat", 5000, 5500),
		row("Question", "dog", 3000, 4000),
		row("Control", "dog", 6000, 7000),
	}
	pairs := groupRows(rows)
	if len(pairs) != 2 {
		t.Fatalf("got %d pairs, want 2", len(pairs))
	}
	if pairs[0].label != "cat" || pairs[1].label != "dog" {
		t.Errorf("pair order = %q, %q", pairs[0].label, pairs[1].label)
	}
	if pairs[0].question.StartMs != 1000 || pairs[0].control.StartMs != 5000 {
		t.Errorf("cat pair sides wrong: %+v", pairs[0])
	}
}

func TestGroupRowsPairsAcrossLabelSpellings(t *testing.T) {
	// Matched sides keep their own raw spelling, so the sides of one match
	// can differ in case and whitespace. They must still land in one pair.
	rows := []models.ReportRow{
		row("Question", "cat", 1000, 2000),
		row("Control", "CAT ", 5000, 5500),
	}
	pairs := groupRows(rows)
	if len(pairs) != 1 {
		t.Fatalf("got %d pairs, want 1", len(pairs))
	}
	pr := pairs[0]
	if pr.label != "cat" {
		t.Errorf("pair label = %q, want first-seen %q", pr.label, "cat")
	}
	if pr.question == nil || pr.control == nil {
		t.Fatalf("pair incomplete: %+v", pr)
	}
	if pr.question.DurationMs != 1000 || pr.control.DurationMs != 500 {
		t.Errorf("durations = %v, %v, want 1000, 500", pr.question.DurationMs, pr.control.DurationMs)
	}
}

func TestGroupRowsDropsIncompletePairs(t *testing.T) {
	rows := []models.ReportRow{
		row("Question", "lonely", 0, 100),
		row("Question", "cat", 1000, 2000),
		row("Control", "cat", 5000, 5500),
	}
	pairs := groupRows(rows)
	if len(pairs) != 1 || pairs[0].label != "cat" {
		t.Fatalf("incomplete pair not dropped: %+v", pairs)
	}
}

func TestWriteProducesPDF(t *testing.T) {
	dir := t.TempDir()
	path, err := Write(dir, Params{
		Rows: []models.ReportRow{
			row("Question", "cat", 1000, 2000),
			row("Control", "cat", 5000, 5500),
		},
		QuestionFilename: "question.mp3",
		ControlFilename:  "control.wav",
		MatchCount:       1,
		BandpassEnabled:  true,
		CaseInfo:         models.CaseInfo{CaseNumber: "C-42"},
		GeneratedAt:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if filepath.Base(path) != "analysis_report.pdf" {
		t.Fatalf("wrote %q, want analysis_report.pdf", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if len(data) == 0 || !strings.HasPrefix(string(data[:4]), "%PDF") {
		t.Errorf("report is not a PDF document")
	}
}

func TestWriteFallback(t *testing.T) {
	dir := t.TempDir()
	p := Params{
		Rows: []models.ReportRow{
			row("Question", "cat", 1000, 2000),
			row("Control", "cat", 5000, 5500),
		},
		QuestionFilename: "q.mp3",
		ControlFilename:  "c.mp3",
		MatchCount:       1,
		GeneratedAt:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	path, err := writeFallback(dir, p)
	if err != nil {
		t.Fatalf("writeFallback: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read fallback: %v", err)
	}
	text := string(data)
	for _, want := range []string{
		"Forensic Clueword Analysis Report",
		"Question File: q.mp3",
		"Control File: c.mp3",
		"Matches Found: 1",
		"cat",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("fallback report missing %q", want)
		}
	}
}
