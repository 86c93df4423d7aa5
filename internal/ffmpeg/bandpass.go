package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/forensiclab/cluewords/internal/audio"
)

// Filter restricts a clip to a frequency passband. Implementations report
// failure through the error return; the degrade-to-unfiltered policy belongs
// to the caller, not here.
type Filter interface {
	Apply(ctx context.Context, clip *audio.Clip, lowHz, highHz int) (*audio.Clip, error)
}

// BandpassFilter applies highpass+lowpass via an external ffmpeg process.
type BandpassFilter struct {
	FFmpegPath string
}

func NewBandpassFilter(ffmpegPath string) *BandpassFilter {
	return &BandpassFilter{FFmpegPath: ffmpegPath}
}

// Apply round-trips the clip through ffmpeg with a
// highpass=f=<low>,lowpass=f=<high> filter chain.
func (f *BandpassFilter) Apply(ctx context.Context, clip *audio.Clip, lowHz, highHz int) (*audio.Clip, error) {
	in, err := os.CreateTemp("", "bpf_in_*.wav")
	if err != nil {
		return nil, fmt.Errorf("create temp input: %w", err)
	}
	inPath := in.Name()
	in.Close()
	defer os.Remove(inPath)

	out, err := os.CreateTemp("", "bpf_out_*.wav")
	if err != nil {
		return nil, fmt.Errorf("create temp output: %w", err)
	}
	outPath := out.Name()
	out.Close()
	defer os.Remove(outPath)

	if err := clip.WriteWAV(inPath); err != nil {
		return nil, fmt.Errorf("write filter input: %w", err)
	}

	args := []string{
		"-hide_banner",
		"-y",
		"-i", inPath,
		"-af", fmt.Sprintf("highpass=f=%d,lowpass=f=%d", lowHz, highHz),
		"-acodec", "pcm_s16le",
		outPath,
	}
	cmd := exec.CommandContext(ctx, f.FFmpegPath, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg bandpass: %v (output: %s)", err, lastLines(string(output), 10))
	}

	filtered, err := audio.ReadWAV(outPath)
	if err != nil {
		return nil, fmt.Errorf("read filter output: %w", err)
	}
	return filtered, nil
}
