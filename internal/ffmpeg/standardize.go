package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/forensiclab/cluewords/internal/audio"
)

// ErrDecode marks input bytes the codec layer could not decode.
var ErrDecode = errors.New("audio decode failed")

// Standardize decodes srcPath and re-encodes it at dstPath in the canonical
// analysis format: 44.1kHz, mono, 16-bit PCM WAV.
func Standardize(ctx context.Context, ffmpegPath, srcPath, dstPath string) error {
	args := []string{
		"-hide_banner",
		"-y",
		"-i", srcPath,
		"-ar", strconv.Itoa(audio.CanonicalRate),
		"-ac", strconv.Itoa(audio.CanonicalChannels),
		"-acodec", "pcm_s16le",
		dstPath,
	}

	cmd := exec.CommandContext(ctx, ffmpegPath, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: ffmpeg: %v (output: %s)", ErrDecode, err, lastLines(string(output), 10))
	}
	return nil
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[len(lines)-n:], "\n")
}
