// Package audio decodes audio files into normalized float64 buffers.
package audio

// Buffer holds decoded PCM audio: one sample slice per channel, values
// nominally in [-1, 1]. A Buffer is immutable after decode and owned by
// the task that processes it.
type Buffer struct {
	SampleRate int
	Channels   [][]float64
}

func (b *Buffer) NumChannels() int {
	return len(b.Channels)
}

// NumFrames returns the number of sample frames (per-channel samples).
func (b *Buffer) NumFrames() int {
	if len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

// Duration returns the buffer length in seconds.
func (b *Buffer) Duration() float64 {
	if b.SampleRate <= 0 {
		return 0
	}
	return float64(b.NumFrames()) / float64(b.SampleRate)
}

// Mono returns a mono downmix, averaging all channels per frame.
// Single-channel buffers return the channel as-is.
func (b *Buffer) Mono() []float64 {
	if len(b.Channels) == 0 {
		return nil
	}
	if len(b.Channels) == 1 {
		return b.Channels[0]
	}
	n := b.NumFrames()
	out := make([]float64, n)
	scale := 1.0 / float64(len(b.Channels))
	for _, ch := range b.Channels {
		for i := 0; i < n && i < len(ch); i++ {
			out[i] += ch[i] * scale
		}
	}
	return out
}
