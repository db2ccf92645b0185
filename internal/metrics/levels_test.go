package metrics

import (
	"math"
	"testing"
)

func TestRMSMonotonicWithGain(t *testing.T) {
	quiet := sine(1000, 0.1, 48000, 2)
	loud := sine(1000, 0.5, 48000, 2)

	rms1 := RMSdBFS(quiet)
	rms2 := RMSdBFS(loud)

	// 0.5 vs 0.1 is about +14 dB; check the direction with margin.
	if rms2 < rms1+3 {
		t.Errorf("RMS not monotonic with gain: quiet=%.2f loud=%.2f", rms1, rms2)
	}
}

func TestSineLevels(t *testing.T) {
	// Full-scale sine: peak 0 dBFS, RMS -3.01 dBFS, crest ~3 dB.
	s := sine(1000, 1.0, 48000, 1)

	peak := PeakdBFS(s)
	rms := RMSdBFS(s)
	crest := CrestDB(peak, rms)

	if math.Abs(peak) > 0.05 {
		t.Errorf("peak = %.3f dBFS, want ~0", peak)
	}
	if math.Abs(rms+3.01) > 0.05 {
		t.Errorf("rms = %.3f dBFS, want ~-3.01", rms)
	}
	if math.Abs(crest-3.01) > 0.1 {
		t.Errorf("crest = %.3f dB, want ~3.01", crest)
	}
}

func TestDigitalSilenceLevels(t *testing.T) {
	z := make([]float64, 48000)

	if rms := RMSdBFS(z); rms > -80 {
		t.Errorf("silence RMS = %.2f dBFS, want below -80", rms)
	}
	if peak := PeakdBFS(z); peak > -60 {
		t.Errorf("silence peak = %.2f dBFS, want below -60", peak)
	}
	if _, ok := TruePeakDBFS(z); ok {
		t.Error("true peak of silence should be NA")
	}
}

func TestCrestDecreasesAsRMSRises(t *testing.T) {
	// Same peak level, different RMS: a square wave carries far more
	// RMS than a sine, so its crest factor must be lower.
	sn := sine(1000, 0.5, 48000, 1)
	sq := squareWave(1000, 0.5, 48000, 1)

	crestSine := CrestDB(PeakdBFS(sn), RMSdBFS(sn))
	crestSquare := CrestDB(PeakdBFS(sq), RMSdBFS(sq))

	if crestSine <= crestSquare {
		t.Errorf("crest(sine)=%.2f should exceed crest(square)=%.2f", crestSine, crestSquare)
	}
	if crestSquare > 0.5 {
		t.Errorf("square wave crest = %.2f dB, want ~0", crestSquare)
	}
}

func TestTruePeakCatchesIntersamplePeaks(t *testing.T) {
	// A tone at fs/4 sampled at 45 degrees phase never hits its real
	// peak on a sample: sample peak is level/sqrt(2), true peak is the
	// level itself (~3 dB higher).
	s := sineWithPhase(12000, 0.5, math.Pi/4, 48000, 1)

	samplePeak := PeakdBFS(s)
	truePeak, ok := TruePeakDBFS(s)
	if !ok {
		t.Fatal("true peak should be measurable")
	}

	if truePeak < samplePeak+2 {
		t.Errorf("true peak %.2f should exceed sample peak %.2f by ~3 dB", truePeak, samplePeak)
	}
	if truePeak > samplePeak+4 {
		t.Errorf("true peak %.2f implausibly far above sample peak %.2f", truePeak, samplePeak)
	}
}

func TestTruePeakMatchesSamplePeakForLowFrequency(t *testing.T) {
	// A low-frequency tone is densely sampled; oversampling should not
	// move the peak by more than a fraction of a dB.
	s := sine(100, 0.5, 48000, 1)

	samplePeak := PeakdBFS(s)
	truePeak, ok := TruePeakDBFS(s)
	if !ok {
		t.Fatal("true peak should be measurable")
	}
	if math.Abs(truePeak-samplePeak) > 0.2 {
		t.Errorf("true peak %.2f vs sample peak %.2f, want near-equal", truePeak, samplePeak)
	}
}
