package audio

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-audio/wav"
)

// wavFormatPCM and wavFormatExtensible are the WAVE format tags accepted
// by the native reader. Everything else goes through the ffmpeg fallback.
const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

// ReadWAV decodes an integer PCM WAV file into per-channel float64
// samples normalized to [-1, 1].
func ReadWAV(path string) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return nil, errors.New("not a valid WAV file")
	}
	if d.WavAudioFormat != wavFormatPCM && d.WavAudioFormat != wavFormatExtensible {
		return nil, fmt.Errorf("unsupported WAV audio format %d: only integer PCM supported", d.WavAudioFormat)
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decoding PCM data: %w", err)
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels <= 0 {
		return nil, errors.New("WAV file has no decodable audio data")
	}

	bitDepth := int(d.BitDepth)
	if buf.SourceBitDepth > 0 {
		bitDepth = buf.SourceBitDepth
	}
	if bitDepth < 8 || bitDepth > 32 {
		return nil, fmt.Errorf("unsupported bit depth %d", bitDepth)
	}
	scale := 1.0 / float64(int64(1)<<(bitDepth-1))

	nch := buf.Format.NumChannels
	frames := len(buf.Data) / nch
	channels := make([][]float64, nch)
	for c := 0; c < nch; c++ {
		channels[c] = make([]float64, frames)
	}
	for i := 0; i < frames; i++ {
		for c := 0; c < nch; c++ {
			channels[c][i] = float64(buf.Data[i*nch+c]) * scale
		}
	}

	return &Buffer{
		SampleRate: buf.Format.SampleRate,
		Channels:   channels,
	}, nil
}
