package audio

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// writeTestWAV writes a 16-bit PCM WAV with the given per-channel samples.
func writeTestWAV(t *testing.T, path string, sampleRate int, channels [][]float64) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating test WAV: %v", err)
	}
	defer f.Close()

	nch := len(channels)
	frames := len(channels[0])
	data := make([]int, frames*nch)
	for i := 0; i < frames; i++ {
		for c := 0; c < nch; c++ {
			data[i*nch+c] = int(math.Round(channels[c][i] * 32767))
		}
	}

	enc := wav.NewEncoder(f, sampleRate, 16, nch, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: nch, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("writing test WAV: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("closing test WAV: %v", err)
	}
}

func makeSine(freq, level float64, sampleRate int, durS float64) []float64 {
	n := int(float64(sampleRate) * durS)
	out := make([]float64, n)
	for i := range out {
		out[i] = level * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return out
}

func TestReadWAVStereo(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stereo.wav")

	left := makeSine(440, 0.5, 8000, 0.25)
	right := makeSine(440, 0.25, 8000, 0.25)
	writeTestWAV(t, path, 8000, [][]float64{left, right})

	buf, err := ReadWAV(path)
	if err != nil {
		t.Fatalf("ReadWAV: %v", err)
	}

	if buf.SampleRate != 8000 {
		t.Errorf("sample rate = %d, want 8000", buf.SampleRate)
	}
	if buf.NumChannels() != 2 {
		t.Fatalf("channels = %d, want 2", buf.NumChannels())
	}
	if buf.NumFrames() != len(left) {
		t.Errorf("frames = %d, want %d", buf.NumFrames(), len(left))
	}

	// Channels must keep their identity: left is twice the right level.
	var peakL, peakR float64
	for i := range buf.Channels[0] {
		if v := math.Abs(buf.Channels[0][i]); v > peakL {
			peakL = v
		}
		if v := math.Abs(buf.Channels[1][i]); v > peakR {
			peakR = v
		}
	}
	if math.Abs(peakL-0.5) > 0.01 {
		t.Errorf("left peak = %.3f, want ~0.5", peakL)
	}
	if math.Abs(peakR-0.25) > 0.01 {
		t.Errorf("right peak = %.3f, want ~0.25", peakR)
	}
}

func TestReadWAVRejectsGarbage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "garbage.wav")
	if err := os.WriteFile(path, []byte("not a wav file at all"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := ReadWAV(path); err == nil {
		t.Error("expected error for garbage input")
	}
}

func TestBufferMonoDownmix(t *testing.T) {
	buf := &Buffer{
		SampleRate: 48000,
		Channels: [][]float64{
			{1.0, 0.0, -1.0},
			{0.0, 0.0, -1.0},
		},
	}

	mono := buf.Mono()
	want := []float64{0.5, 0.0, -1.0}
	for i, w := range want {
		if math.Abs(mono[i]-w) > 1e-12 {
			t.Errorf("mono[%d] = %v, want %v", i, mono[i], w)
		}
	}
	if buf.Duration() != 3.0/48000.0 {
		t.Errorf("duration = %v", buf.Duration())
	}
}

func TestSupportedFile(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"song.wav", true},
		{"song.WAV", true},
		{"song.flac", true},
		{"song.aif", true},
		{"song.m4a", true},
		{"song.mp3", true},
		{"song.txt", false},
		{"song.ogg", false},
		{"song", false},
	}
	for _, tt := range tests {
		if got := SupportedFile(tt.name); got != tt.want {
			t.Errorf("SupportedFile(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
