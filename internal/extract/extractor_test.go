package extract

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/forensiclab/cluewords/internal/audio"
	"github.com/forensiclab/cluewords/internal/models"
)

// failingFilter simulates a broken external filter process.
type failingFilter struct{}

func (failingFilter) Apply(ctx context.Context, clip *audio.Clip, lowHz, highHz int) (*audio.Clip, error) {
	return nil, errors.New("filter binary missing")
}

// halvingFilter is a working stand-in that halves every sample.
type halvingFilter struct{}

func (halvingFilter) Apply(ctx context.Context, clip *audio.Clip, lowHz, highHz int) (*audio.Clip, error) {
	out := &audio.Clip{Samples: make([]int, len(clip.Samples)), Rate: clip.Rate, Channels: clip.Channels}
	for i, s := range clip.Samples {
		out.Samples[i] = s / 2
	}
	return out, nil
}

// testClip builds a mono canonical clip of the given length in seconds with a
// deterministic ramp so slices are distinguishable.
func testClip(seconds float64) *audio.Clip {
	frames := int(seconds * audio.CanonicalRate)
	samples := make([]int, frames)
	for i := range samples {
		samples[i] = (i % 200) - 100
	}
	return &audio.Clip{Samples: samples, Rate: audio.CanonicalRate, Channels: 1}
}

func TestSafeLabel(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"cat", "cat"},
		{"two words", "two words"},
		{"under_score", "under_score"},
		{"semi;colon/slash", "semicolonslash"},
		{"trailing space ", "trailing space"},
		{"???", ""},
		{"", ""},
		{"mixed: a/b_c 9!", "mixed ab_c 9"},
	}
	for _, c := range cases {
		if got := SafeLabel(c.in); got != c.want {
			t.Errorf("SafeLabel(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestExtractWritesSegmentsAndRows(t *testing.T) {
	dir := t.TempDir()
	e := &Extractor{Filter: failingFilter{}, LowHz: 400, HighHz: 4000}

	matches := []models.Match{{
		Question: models.Annotation{Label: "cat", Start: 1.0, End: 2.0},
		Control:  models.Annotation{Label: "CAT ", Start: 5.0, End: 5.5},
	}}
	rows, err := e.Extract(context.Background(), matches, testClip(10), testClip(10), dir, false)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	q, c := rows[0], rows[1]
	if q.Role != "Question" || c.Role != "Control" {
		t.Errorf("row roles = %q, %q", q.Role, c.Role)
	}
	if q.DurationMs != 1000 || c.DurationMs != 500 {
		t.Errorf("durations = %v, %v, want 1000, 500", q.DurationMs, c.DurationMs)
	}
	if q.DurationMs != q.EndMs-q.StartMs {
		t.Errorf("question duration %v != end-start %v", q.DurationMs, q.EndMs-q.StartMs)
	}

	matchDir := filepath.Join(dir, "cat")
	qClip, err := audio.ReadWAV(filepath.Join(matchDir, "question.wav"))
	if err != nil {
		t.Fatalf("read question.wav: %v", err)
	}
	if got := qClip.DurationMs(); got != 1000 {
		t.Errorf("question.wav duration = %vms, want 1000", got)
	}
	cClip, err := audio.ReadWAV(filepath.Join(matchDir, "control.wav"))
	if err != nil {
		t.Fatalf("read control.wav: %v", err)
	}
	if got := cClip.DurationMs(); got != 500 {
		t.Errorf("control.wav duration = %vms, want 500", got)
	}

	// Bandpass disabled: no bpf files.
	if _, err := os.Stat(filepath.Join(matchDir, "bpf_question.wav")); !os.IsNotExist(err) {
		t.Errorf("bpf_question.wav written with bandpass disabled")
	}
}

func TestExtractFilterFailureDegradesToUnfiltered(t *testing.T) {
	dir := t.TempDir()
	e := &Extractor{Filter: failingFilter{}, LowHz: 400, HighHz: 4000}

	matches := []models.Match{{
		Question: models.Annotation{Label: "dog", Start: 0.5, End: 1.5},
		Control:  models.Annotation{Label: "dog", Start: 2.0, End: 3.0},
	}}
	if _, err := e.Extract(context.Background(), matches, testClip(5), testClip(5), dir, true); err != nil {
		t.Fatalf("Extract: %v", err)
	}

	matchDir := filepath.Join(dir, "dog")
	for _, role := range []string{"question", "control"} {
		plain, err := os.ReadFile(filepath.Join(matchDir, role+".wav"))
		if err != nil {
			t.Fatalf("read %s.wav: %v", role, err)
		}
		filtered, err := os.ReadFile(filepath.Join(matchDir, "bpf_"+role+".wav"))
		if err != nil {
			t.Fatalf("read bpf_%s.wav: %v", role, err)
		}
		if !bytes.Equal(plain, filtered) {
			t.Errorf("bpf_%s.wav differs from unfiltered segment after filter failure", role)
		}
	}
}

func TestExtractAppliesWorkingFilter(t *testing.T) {
	dir := t.TempDir()
	e := &Extractor{Filter: halvingFilter{}, LowHz: 400, HighHz: 4000}

	matches := []models.Match{{
		Question: models.Annotation{Label: "owl", Start: 0, End: 1},
		Control:  models.Annotation{Label: "owl", Start: 0, End: 1},
	}}
	if _, err := e.Extract(context.Background(), matches, testClip(2), testClip(2), dir, true); err != nil {
		t.Fatalf("Extract: %v", err)
	}

	plain, err := audio.ReadWAV(filepath.Join(dir, "owl", "question.wav"))
	if err != nil {
		t.Fatalf("read question.wav: %v", err)
	}
	filtered, err := audio.ReadWAV(filepath.Join(dir, "owl", "bpf_question.wav"))
	if err != nil {
		t.Fatalf("read bpf_question.wav: %v", err)
	}
	if len(plain.Samples) != len(filtered.Samples) {
		t.Fatalf("filtered length %d != plain length %d", len(filtered.Samples), len(plain.Samples))
	}
	for i := range plain.Samples {
		if filtered.Samples[i] != plain.Samples[i]/2 {
			t.Fatalf("sample %d: filtered %d, want %d", i, filtered.Samples[i], plain.Samples[i]/2)
		}
	}
}

func TestExtractFallbackDirectoryNaming(t *testing.T) {
	dir := t.TempDir()
	e := &Extractor{Filter: failingFilter{}}

	// Two symbol-only labels and one normal one. The fallback counter covers
	// only fallback-named directories, so ordinals are 1 and 2 even though a
	// named match sits between them.
	matches := []models.Match{
		{Question: models.Annotation{Label: "???", Start: 0, End: 0.1}, Control: models.Annotation{Label: "???", Start: 0, End: 0.1}},
		{Question: models.Annotation{Label: "fox", Start: 0, End: 0.1}, Control: models.Annotation{Label: "fox", Start: 0, End: 0.1}},
		{Question: models.Annotation{Label: "!!!", Start: 0, End: 0.1}, Control: models.Annotation{Label: "!!!", Start: 0, End: 0.1}},
	}
	if _, err := e.Extract(context.Background(), matches, testClip(1), testClip(1), dir, false); err != nil {
		t.Fatalf("Extract: %v", err)
	}

	for _, want := range []string{"clueword_1", "fox", "clueword_2"} {
		if _, err := os.Stat(filepath.Join(dir, want)); err != nil {
			t.Errorf("expected directory %q: %v", want, err)
		}
	}
}

func TestExtractReportsProgress(t *testing.T) {
	dir := t.TempDir()
	var calls []int
	e := &Extractor{
		Filter:   failingFilter{},
		Progress: func(done, total int, label string) { calls = append(calls, done) },
	}
	matches := []models.Match{
		{Question: models.Annotation{Label: "a", Start: 0, End: 0.1}, Control: models.Annotation{Label: "a", Start: 0, End: 0.1}},
		{Question: models.Annotation{Label: "b", Start: 0, End: 0.1}, Control: models.Annotation{Label: "b", Start: 0, End: 0.1}},
	}
	if _, err := e.Extract(context.Background(), matches, testClip(1), testClip(1), dir, false); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(calls) != 2 || calls[0] != 1 || calls[1] != 2 {
		t.Errorf("progress calls = %v, want [1 2]", calls)
	}
}
