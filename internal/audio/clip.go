// Package audio holds the canonical PCM representation every pipeline stage
// works with: 44.1kHz, mono, 16-bit. Decoding arbitrary upload formats into
// this shape is ffmpeg's job; this package only reads, slices and writes WAV.
package audio

import (
	"fmt"
	"os"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	CanonicalRate     = 44100
	CanonicalChannels = 1
	CanonicalBitDepth = 16
)

// Clip is decoded PCM audio. Samples are interleaved when Channels > 1.
type Clip struct {
	Samples  []int
	Rate     int
	Channels int
}

// ReadWAV decodes a WAV file into a Clip.
func ReadWAV(path string) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("not a valid wav file: %s", path)
	}
	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("read pcm buffer: %w", err)
	}
	return &Clip{
		Samples:  buf.Data,
		Rate:     buf.Format.SampleRate,
		Channels: buf.Format.NumChannels,
	}, nil
}

// WriteWAV encodes the clip as 16-bit PCM WAV.
func (c *Clip) WriteWAV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav: %w", err)
	}
	defer f.Close()

	encoder := wav.NewEncoder(f, c.Rate, CanonicalBitDepth, c.Channels, 1)
	buf := &gaudio.IntBuffer{
		Format:         &gaudio.Format{NumChannels: c.Channels, SampleRate: c.Rate},
		Data:           c.Samples,
		SourceBitDepth: CanonicalBitDepth,
	}
	if err := encoder.Write(buf); err != nil {
		encoder.Close()
		return fmt.Errorf("write pcm: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("finalize wav: %w", err)
	}
	return nil
}

// Frames is the number of sample frames (samples per channel).
func (c *Clip) Frames() int {
	if c.Channels == 0 {
		return 0
	}
	return len(c.Samples) / c.Channels
}

// DurationMs is the clip length in milliseconds.
func (c *Clip) DurationMs() float64 {
	if c.Rate == 0 {
		return 0
	}
	return float64(c.Frames()) / float64(c.Rate) * 1000.0
}

// SliceMs cuts [startMs, endMs) out of the clip. Fractional milliseconds are
// truncated at sample granularity: frame = int(ms * rate / 1000). Bounds are
// clamped to the clip length.
func (c *Clip) SliceMs(startMs, endMs float64) *Clip {
	startFrame := int(startMs * float64(c.Rate) / 1000.0)
	endFrame := int(endMs * float64(c.Rate) / 1000.0)
	if startFrame < 0 {
		startFrame = 0
	}
	if startFrame > c.Frames() {
		startFrame = c.Frames()
	}
	if endFrame > c.Frames() {
		endFrame = c.Frames()
	}
	if endFrame < startFrame {
		endFrame = startFrame
	}
	out := make([]int, (endFrame-startFrame)*c.Channels)
	copy(out, c.Samples[startFrame*c.Channels:endFrame*c.Channels])
	return &Clip{Samples: out, Rate: c.Rate, Channels: c.Channels}
}

// Canonical returns the clip downmixed to mono and resampled to 44.1kHz.
// Clips that are already canonical are returned unchanged.
func (c *Clip) Canonical() *Clip {
	out := c
	if out.Channels > 1 {
		out = out.downmix()
	}
	if out.Rate != CanonicalRate {
		out = out.resample(CanonicalRate)
	}
	return out
}

// downmix averages interleaved channels into one.
func (c *Clip) downmix() *Clip {
	frames := c.Frames()
	mono := make([]int, frames)
	for i := 0; i < frames; i++ {
		sum := 0
		for ch := 0; ch < c.Channels; ch++ {
			sum += c.Samples[i*c.Channels+ch]
		}
		mono[i] = sum / c.Channels
	}
	return &Clip{Samples: mono, Rate: c.Rate, Channels: 1}
}

// resample performs linear interpolation to the target rate. Uploads are
// standardized by ffmpeg before they reach this package, so this only runs
// for clips produced outside the normal path.
func (c *Clip) resample(rate int) *Clip {
	if c.Frames() == 0 {
		return &Clip{Samples: nil, Rate: rate, Channels: c.Channels}
	}
	srcFrames := c.Frames()
	dstFrames := int(float64(srcFrames) * float64(rate) / float64(c.Rate))
	out := make([]int, dstFrames*c.Channels)
	for i := 0; i < dstFrames; i++ {
		pos := float64(i) * float64(c.Rate) / float64(rate)
		i0 := int(pos)
		i1 := i0 + 1
		if i1 >= srcFrames {
			i1 = srcFrames - 1
		}
		frac := pos - float64(i0)
		for ch := 0; ch < c.Channels; ch++ {
			s0 := float64(c.Samples[i0*c.Channels+ch])
			s1 := float64(c.Samples[i1*c.Channels+ch])
			out[i*c.Channels+ch] = int(s0 + (s1-s0)*frac)
		}
	}
	return &Clip{Samples: out, Rate: rate, Channels: c.Channels}
}
