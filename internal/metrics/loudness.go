package metrics

import "math"

// BS.1770 K-weighting prototype parameters. The coefficients are
// recomputed per sample rate from the analog prototype, which reproduces
// the published 48 kHz table and stays correct at other rates.
const (
	kShelfFc     = 1681.9744509555319
	kShelfGainDB = 3.999843853973347
	kShelfQ      = 0.7071752369554196
	kHighpassFc  = 38.13547087602444
	kHighpassQ   = 0.5003270373238773

	loudnessOffset = -0.691

	absoluteGateLUFS = -70.0
	relativeGateLU   = 10.0

	blockSec = 0.400 // momentary / gating block
	blockHop = 0.100

	shortTermSec = 3.0
	shortTermHop = 1.0
)

type biquad struct {
	b0, b1, b2, a1, a2 float64
}

func (f biquad) apply(x []float64) []float64 {
	out := make([]float64, len(x))
	var x1, x2, y1, y2 float64
	for i, v := range x {
		y := f.b0*v + f.b1*x1 + f.b2*x2 - f.a1*y1 - f.a2*y2
		x2, x1 = x1, v
		y2, y1 = y1, y
		out[i] = y
	}
	return out
}

func highShelf(fs float64, fc, q, gainDB float64) biquad {
	a := math.Pow(10, gainDB/40)
	w0 := 2 * math.Pi * fc / fs
	cw, sw := math.Cos(w0), math.Sin(w0)
	alpha := sw / (2 * q)

	b0 := a * ((a + 1) + (a-1)*cw + 2*math.Sqrt(a)*alpha)
	b1 := -2 * a * ((a - 1) + (a+1)*cw)
	b2 := a * ((a + 1) + (a-1)*cw - 2*math.Sqrt(a)*alpha)
	a0 := (a + 1) - (a-1)*cw + 2*math.Sqrt(a)*alpha
	a1 := 2 * ((a - 1) - (a+1)*cw)
	a2 := (a + 1) - (a-1)*cw - 2*math.Sqrt(a)*alpha

	return biquad{b0 / a0, b1 / a0, b2 / a0, a1 / a0, a2 / a0}
}

func highPass(fs float64, fc, q float64) biquad {
	w0 := 2 * math.Pi * fc / fs
	cw, sw := math.Cos(w0), math.Sin(w0)
	alpha := sw / (2 * q)

	b0 := (1 + cw) / 2
	b1 := -(1 + cw)
	b2 := (1 + cw) / 2
	a0 := 1 + alpha
	a1 := -2 * cw
	a2 := 1 - alpha

	return biquad{b0 / a0, b1 / a0, b2 / a0, a1 / a0, a2 / a0}
}

// channelWeight returns the BS.1770 channel weighting: surround
// channels (index 3 and 4) count 1.41, everything else 1.0.
func channelWeight(i int) float64 {
	if i == 3 || i == 4 {
		return 1.41
	}
	return 1.0
}

// Meter computes BS.1770 / R128 style loudness measurements over a
// fixed buffer. The K-weighted signal is filtered once and shared by
// the integrated, short-term and momentary measurements.
type Meter struct {
	fs       int
	weighted [][]float64
	weights  []float64
}

func NewMeter(channels [][]float64, fs int) *Meter {
	shelf := highShelf(float64(fs), kShelfFc, kShelfQ, kShelfGainDB)
	hp := highPass(float64(fs), kHighpassFc, kHighpassQ)

	weighted := make([][]float64, len(channels))
	weights := make([]float64, len(channels))
	for i, ch := range channels {
		weighted[i] = hp.apply(shelf.apply(ch))
		weights[i] = channelWeight(i)
	}
	return &Meter{fs: fs, weighted: weighted, weights: weights}
}

// blockLoudness returns the loudness of the window [start, start+size).
func (m *Meter) blockLoudness(start, size int) float64 {
	var power float64
	for i, ch := range m.weighted {
		power += m.weights[i] * meanSquare(ch[start:start+size])
	}
	return loudnessOffset + 10*math.Log10(power)
}

// windowSeries computes loudness for every full window of winSec
// seconds advancing by hopSec.
func (m *Meter) windowSeries(winSec, hopSec float64) []float64 {
	if len(m.weighted) == 0 {
		return nil
	}
	n := len(m.weighted[0])
	size := int(winSec * float64(m.fs))
	hop := int(hopSec * float64(m.fs))
	if size <= 0 || hop <= 0 || n < size {
		return nil
	}
	var out []float64
	for start := 0; start+size <= n; start += hop {
		out = append(out, m.blockLoudness(start, size))
	}
	return out
}

// Integrated returns the gated integrated loudness in LUFS: 400 ms
// blocks at 75% overlap, an absolute gate at -70 LUFS and a relative
// gate 10 LU below the absolute-gated mean. ok is false when the buffer
// is shorter than one block or every block is gated out.
func (m *Meter) Integrated() (float64, bool) {
	if len(m.weighted) == 0 {
		return 0, false
	}
	n := len(m.weighted[0])
	size := int(blockSec * float64(m.fs))
	hop := int(blockHop * float64(m.fs))
	if size <= 0 || n < size {
		return 0, false
	}

	type block struct {
		loudness float64
		power    float64
	}
	var blocks []block
	for start := 0; start+size <= n; start += hop {
		var power float64
		for i, ch := range m.weighted {
			power += m.weights[i] * meanSquare(ch[start:start+size])
		}
		blocks = append(blocks, block{loudnessOffset + 10*math.Log10(power), power})
	}

	// Absolute gate.
	var absPower float64
	var absCount int
	for _, b := range blocks {
		if b.loudness > absoluteGateLUFS {
			absPower += b.power
			absCount++
		}
	}
	if absCount == 0 {
		return 0, false
	}

	// Relative gate, 10 LU below the absolute-gated mean loudness.
	gateRel := loudnessOffset + 10*math.Log10(absPower/float64(absCount)) - relativeGateLU

	var relPower float64
	var relCount int
	for _, b := range blocks {
		if b.loudness > absoluteGateLUFS && b.loudness > gateRel {
			relPower += b.power
			relCount++
		}
	}
	if relCount == 0 {
		return 0, false
	}

	lufs := loudnessOffset + 10*math.Log10(relPower/float64(relCount))
	if math.IsNaN(lufs) || math.IsInf(lufs, 0) {
		return 0, false
	}
	return lufs, true
}

// ShortTerm returns the 3 s / 1 s hop short-term loudness series.
func (m *Meter) ShortTerm() []float64 {
	return m.windowSeries(shortTermSec, shortTermHop)
}

// Momentary returns the 400 ms / 100 ms hop momentary loudness series.
func (m *Meter) Momentary() []float64 {
	return m.windowSeries(blockSec, blockHop)
}

// P95 reduces a loudness series to its 95th percentile over finite
// values, which is robust against spikes and silent windows.
func P95(series []float64) (float64, bool) {
	f := finite(series)
	if len(f) == 0 {
		return 0, false
	}
	return percentile(f, 95), true
}

// LRA returns the loudness range: the spread between the 10th and 95th
// percentile of the ungated short-term loudness distribution. ok is
// false with fewer than two short-term windows.
func (m *Meter) LRA() (float64, bool) {
	st := finite(m.ShortTerm())
	if len(st) < 2 {
		return 0, false
	}
	lra := percentile(st, 95) - percentile(st, 10)
	if math.IsNaN(lra) || math.IsInf(lra, 0) {
		return 0, false
	}
	return lra, true
}
