package metrics

import (
	"math"
	"math/rand"
)

// Synthetic test signals, mirroring the calibration material the tool
// is normally run against.

func sine(freq, level float64, fs int, durS float64) []float64 {
	n := int(float64(fs) * durS)
	out := make([]float64, n)
	for i := range out {
		out[i] = level * math.Sin(2*math.Pi*freq*float64(i)/float64(fs))
	}
	return out
}

func sineWithPhase(freq, level, phase float64, fs int, durS float64) []float64 {
	n := int(float64(fs) * durS)
	out := make([]float64, n)
	for i := range out {
		out[i] = level * math.Sin(2*math.Pi*freq*float64(i)/float64(fs)+phase)
	}
	return out
}

func whiteNoise(level float64, fs int, durS float64, seed int64) []float64 {
	n := int(float64(fs) * durS)
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	peak := 0.0
	for i := range out {
		out[i] = rng.NormFloat64()
		if a := math.Abs(out[i]); a > peak {
			peak = a
		}
	}
	for i := range out {
		out[i] = out[i] / (peak + 1e-12) * level
	}
	return out
}

func squareWave(freq, level float64, fs int, durS float64) []float64 {
	n := int(float64(fs) * durS)
	out := make([]float64, n)
	for i := range out {
		if math.Sin(2*math.Pi*freq*float64(i)/float64(fs)) >= 0 {
			out[i] = level
		} else {
			out[i] = -level
		}
	}
	return out
}

// burstTone alternates segments of tone and near-silence over a low
// noise floor, the shape the time-domain SNR estimator is built for.
func burstTone(fs int, durS, segS, toneLevel, noiseLevel float64, seed int64) []float64 {
	out := whiteNoise(noiseLevel, fs, durS, seed)
	seg := int(segS * float64(fs))
	for i := range out {
		if (i/seg)%2 == 0 {
			out[i] += toneLevel * math.Sin(2*math.Pi*1000*float64(i)/float64(fs))
		}
	}
	return out
}

func mix(a, b []float64) []float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		v := a[i] + b[i]
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		out[i] = v
	}
	return out
}
