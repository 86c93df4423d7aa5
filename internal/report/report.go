// Package report renders the clueword analysis report: a tabular PDF
// document, with a plain-text fallback so the deliverable always contains the
// analysis facts even when document generation breaks.
package report

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/forensiclab/cluewords/internal/matching"
	"github.com/forensiclab/cluewords/internal/models"
)

// Params carries everything the report prints.
type Params struct {
	Rows             []models.ReportRow
	QuestionFilename string
	ControlFilename  string
	MatchCount       int
	BandpassEnabled  bool
	CaseInfo         models.CaseInfo
	GeneratedAt      time.Time // zero means now
}

// Write renders the report into outputDir and returns the path of the file it
// wrote. A failed PDF render degrades to analysis_report.txt; only the
// fallback write itself can return an error.
func Write(outputDir string, p Params) (string, error) {
	if p.GeneratedAt.IsZero() {
		p.GeneratedAt = time.Now()
	}
	pdfPath := filepath.Join(outputDir, "analysis_report.pdf")
	if err := writePDF(pdfPath, p); err != nil {
		log.Printf("warning: report generation failed, writing plain-text fallback: %v", err)
		return writeFallback(outputDir, p)
	}
	return pdfPath, nil
}

// ──────────────────── PDF document ────────────────────

func writePDF(path string, p Params) error {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	// Title
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, "Clueword Sheet", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	// Case information block; every field renders, absent values as N/A.
	caseRows := [][2]string{
		{"Case No.", orNA(p.CaseInfo.CaseNumber)},
		{"Police Station Name", orNA(p.CaseInfo.PoliceStation)},
		{"District", orNA(p.CaseInfo.District)},
		{"C.R./A.D.R. No.", orNA(p.CaseInfo.CRNumber)},
		{"Speaker Name", orNA(p.CaseInfo.SpeakerName)},
	}
	for _, row := range caseRows {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(60, 8, row[0], "1", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(130, 8, row[1], "1", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, "Report generated on: "+p.GeneratedAt.Format("2006-01-02 15:04:05"), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Total Matching Cluewords Found: %d", p.MatchCount), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 8, "Analysis Summary", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(0, 5, fmt.Sprintf("This forensic analysis identified %d matching cluewords between the question and control audio recordings. Each matching clueword has been extracted as separate audio segments for further analysis.", p.MatchCount), "", "L", false)
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 8, "Detailed Analysis", "", 1, "L", false, 0, "")

	const (
		labelW = 49
		colW   = 38
	)

	// File header pair: one merged cell per source file.
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(labelW+3*colW, 8, "Question File: "+p.QuestionFilename, "1", 0, "L", false, 0, "")
	pdf.CellFormat(3*colW, 8, "Control File: "+p.ControlFilename, "1", 1, "L", false, 0, "")

	// Subheaders
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(labelW, 8, "Clueword", "1", 0, "L", false, 0, "")
	for i := 0; i < 2; i++ {
		pdf.CellFormat(colW, 8, "Start (HH:MM:SS:MS)", "1", 0, "C", false, 0, "")
		pdf.CellFormat(colW, 8, "End (HH:MM:SS:MS)", "1", 0, "C", false, 0, "")
		pdf.CellFormat(colW, 8, "Duration (ms)", "1", boolToLn(i == 1), "C", false, 0, "")
	}

	pdf.SetFont("Helvetica", "", 9)
	for _, pr := range groupRows(p.Rows) {
		pdf.CellFormat(labelW, 7, pr.label, "1", 0, "L", false, 0, "")
		for _, side := range []*models.ReportRow{pr.question, pr.control} {
			pdf.CellFormat(colW, 7, FormatTime(side.StartMs), "1", 0, "C", false, 0, "")
			pdf.CellFormat(colW, 7, FormatTime(side.EndMs), "1", 0, "C", false, 0, "")
			pdf.CellFormat(colW, 7, fmt.Sprintf("%.0f", side.DurationMs), "1", boolToLn(side == pr.control), "C", false, 0, "")
		}
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 8, "Notes", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	notes := []string{
		"All audio segments have been standardized to 44100Hz, mono, 16-bit format",
		"Matching is performed using case-insensitive label comparison",
		"Time values are referenced to the original audio files",
	}
	if p.BandpassEnabled {
		notes = append(notes,
			"Each clueword directory contains 4 files: question.wav, control.wav, bpf_question.wav, bpf_control.wav",
			"BPF (Bandpass Filtered) files use 400Hz-4000Hz frequency range for enhanced voice clarity")
	} else {
		notes = append(notes, "Each clueword directory contains 2 files: question.wav, control.wav")
	}
	notes = append(notes, "Duration values are shown in milliseconds")
	for _, n := range notes {
		pdf.CellFormat(0, 6, "- "+n, "", 1, "L", false, 0, "")
	}

	if pdf.Err() {
		return pdf.Error()
	}
	return pdf.OutputFileAndClose(path)
}

// ──────────────────── Plain-text fallback ────────────────────

func writeFallback(outputDir string, p Params) (string, error) {
	path := filepath.Join(outputDir, "analysis_report.txt")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("write fallback report: %w", err)
	}
	defer f.Close()

	fmt.Fprintf(f, "Forensic Clueword Analysis Report\n")
	fmt.Fprintf(f, "Generated: %s\n", p.GeneratedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(f, "Question File: %s\n", p.QuestionFilename)
	fmt.Fprintf(f, "Control File: %s\n", p.ControlFilename)
	fmt.Fprintf(f, "Matches Found: %d\n\n", p.MatchCount)
	fmt.Fprintf(f, "Detailed Analysis:\n")
	for _, row := range p.Rows {
		fmt.Fprintf(f, "%s\t%s\t%.1f\t%.1f\t%.1f\n", row.Role, row.Label, row.StartMs, row.EndMs, row.DurationMs)
	}
	return path, nil
}

// ──────────────────── Row grouping ────────────────────

type labelPair struct {
	label    string
	question *models.ReportRow
	control  *models.ReportRow
}

// groupRows folds the flat row list into question/control pairs per label,
// first-seen order. Pairing keys on the normalized label because matched
// sides keep their own raw spelling ("cat" vs "CAT "); the pair displays the
// first-seen raw label. A label missing one side is dropped; the matcher
// never produces one, this only guards the grouping itself.
func groupRows(rows []models.ReportRow) []*labelPair {
	byLabel := make(map[string]*labelPair)
	var order []*labelPair
	for i := range rows {
		row := &rows[i]
		key := matching.Normalize(row.Label)
		pr, ok := byLabel[key]
		if !ok {
			pr = &labelPair{label: row.Label}
			byLabel[key] = pr
			order = append(order, pr)
		}
		switch row.Role {
		case "Question":
			pr.question = row
		case "Control":
			pr.control = row
		}
	}
	var complete []*labelPair
	for _, pr := range order {
		if pr.question != nil && pr.control != nil {
			complete = append(complete, pr)
		}
	}
	return complete
}

// FormatTime renders milliseconds as HH:MM:SS:MS, zero padded, truncating
// (never rounding) fractional values.
func FormatTime(ms float64) string {
	totalSeconds := int(ms / 1000)
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60
	msRem := int(ms) % 1000
	return fmt.Sprintf("%02d:%02d:%02d:%03d", hours, minutes, seconds, msRem)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func boolToLn(last bool) int {
	if last {
		return 1
	}
	return 0
}
