package metrics

import "math"

// epsLinear keeps log conversions finite on silent material; a zero
// signal reports as -240 dBFS rather than -Inf.
const epsLinear = 1e-12

// RMSdBFS returns the root-mean-square level in dBFS (full scale = 1.0).
func RMSdBFS(x []float64) float64 {
	rms := math.Sqrt(meanSquare(x)) + epsLinear
	return 20 * math.Log10(rms)
}

// PeakdBFS returns the absolute sample peak in dBFS.
func PeakdBFS(x []float64) float64 {
	var peak float64
	for _, v := range x {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	return 20 * math.Log10(peak+epsLinear)
}

// CrestDB returns the crest factor, the headroom between peak and RMS.
func CrestDB(peakDB, rmsDB float64) float64 {
	return peakDB - rmsDB
}

// True-peak oversampling parameters: 4x interpolation with an 8-tap
// windowed-sinc kernel per phase.
const (
	truePeakOversample = 4
	truePeakTapsHalf   = 4 // kernel spans [-4, +4) input samples
)

// TruePeakDBFS estimates the true peak in dBFS after 4x oversampling
// with polyphase windowed-sinc interpolation, catching inter-sample
// overshoot that sample-peak measurement misses. ok is false when the
// buffer is empty or contains no signal.
func TruePeakDBFS(x []float64) (float64, bool) {
	if len(x) == 0 {
		return 0, false
	}

	var peak float64
	for _, v := range x {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}

	if len(x) > 1 {
		for phase := 1; phase < truePeakOversample; phase++ {
			d := float64(phase) / truePeakOversample
			taps := sincKernel(d)
			for i := 0; i < len(x); i++ {
				var acc float64
				for k, c := range taps {
					idx := i + k - (truePeakTapsHalf - 1)
					if idx < 0 {
						idx = 0
					} else if idx >= len(x) {
						idx = len(x) - 1
					}
					acc += x[idx] * c
				}
				if a := math.Abs(acc); a > peak {
					peak = a
				}
			}
		}
	}

	if !math.IsInf(peak, 0) && peak > 0 && !math.IsNaN(peak) {
		return 20 * math.Log10(peak), true
	}
	return 0, false
}

// sincKernel builds interpolation taps for a fractional offset d in
// (0,1): a sinc windowed with a Hann lobe over the kernel span.
func sincKernel(d float64) []float64 {
	taps := make([]float64, 2*truePeakTapsHalf)
	var sum float64
	for k := range taps {
		t := float64(k-(truePeakTapsHalf-1)) - d
		taps[k] = sinc(t) * hannLobe(t/truePeakTapsHalf)
		sum += taps[k]
	}
	// Normalize to unity DC gain so level is preserved.
	for k := range taps {
		taps[k] /= sum
	}
	return taps
}

func sinc(t float64) float64 {
	if t == 0 {
		return 1
	}
	return math.Sin(math.Pi*t) / (math.Pi * t)
}

func hannLobe(t float64) float64 {
	if t < -1 || t > 1 {
		return 0
	}
	return 0.5 + 0.5*math.Cos(math.Pi*t)
}
