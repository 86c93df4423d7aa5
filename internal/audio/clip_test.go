package audio

import (
	"path/filepath"
	"testing"
)

func ramp(frames, channels int) *Clip {
	samples := make([]int, frames*channels)
	for i := range samples {
		samples[i] = i % 1000
	}
	return &Clip{Samples: samples, Rate: CanonicalRate, Channels: channels}
}

func TestSliceMsExactFrames(t *testing.T) {
	clip := ramp(CanonicalRate*10, 1)

	seg := clip.SliceMs(1000, 2000)
	if got := seg.Frames(); got != CanonicalRate {
		t.Errorf("1s slice = %d frames, want %d", got, CanonicalRate)
	}
	if got := seg.DurationMs(); got != 1000 {
		t.Errorf("slice duration = %vms, want 1000", got)
	}
}

func TestSliceMsTruncatesFractionalMilliseconds(t *testing.T) {
	clip := ramp(CanonicalRate, 1)

	// 0.5ms at 44.1kHz is 22.05 frames; truncation keeps 22.
	seg := clip.SliceMs(0, 0.5)
	if got := seg.Frames(); got != 22 {
		t.Errorf("0.5ms slice = %d frames, want 22", got)
	}
}

func TestSliceMsClampsToClipBounds(t *testing.T) {
	clip := ramp(CanonicalRate, 1) // 1 second

	seg := clip.SliceMs(500, 5000)
	if got := seg.DurationMs(); got != 500 {
		t.Errorf("clamped slice duration = %vms, want 500", got)
	}
	if empty := clip.SliceMs(2000, 3000); empty.Frames() != 0 {
		t.Errorf("out-of-range slice has %d frames, want 0", empty.Frames())
	}
}

func TestCanonicalDownmixesStereo(t *testing.T) {
	stereo := &Clip{
		Samples:  []int{100, 200, -100, 100, 0, 0},
		Rate:     CanonicalRate,
		Channels: 2,
	}
	mono := stereo.Canonical()
	if mono.Channels != 1 {
		t.Fatalf("channels = %d, want 1", mono.Channels)
	}
	want := []int{150, 0, 0}
	for i, s := range mono.Samples {
		if s != want[i] {
			t.Errorf("sample %d = %d, want %d", i, s, want[i])
		}
	}
}

func TestCanonicalIsIdempotentOnCanonicalClips(t *testing.T) {
	clip := ramp(100, 1)
	if got := clip.Canonical(); got != clip {
		t.Errorf("Canonical() copied an already-canonical clip")
	}
}

func TestCanonicalResamples(t *testing.T) {
	clip := &Clip{Samples: make([]int, 22050), Rate: 22050, Channels: 1} // 1 second
	out := clip.Canonical()
	if out.Rate != CanonicalRate {
		t.Fatalf("rate = %d, want %d", out.Rate, CanonicalRate)
	}
	if got := out.Frames(); got != CanonicalRate {
		t.Errorf("resampled frames = %d, want %d", got, CanonicalRate)
	}
}

func TestWAVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.wav")
	clip := ramp(4410, 1)

	if err := clip.WriteWAV(path); err != nil {
		t.Fatalf("WriteWAV: %v", err)
	}
	got, err := ReadWAV(path)
	if err != nil {
		t.Fatalf("ReadWAV: %v", err)
	}
	if got.Rate != clip.Rate || got.Channels != clip.Channels {
		t.Fatalf("format = %d/%dch, want %d/%dch", got.Rate, got.Channels, clip.Rate, clip.Channels)
	}
	if len(got.Samples) != len(clip.Samples) {
		t.Fatalf("sample count = %d, want %d", len(got.Samples), len(clip.Samples))
	}
	for i := range clip.Samples {
		if got.Samples[i] != clip.Samples[i] {
			t.Fatalf("sample %d = %d, want %d", i, got.Samples[i], clip.Samples[i])
		}
	}
}
