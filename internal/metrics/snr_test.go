package metrics

import "testing"

// These tests pin the hybrid estimator's tuning constants: frame size,
// percentile cutoffs, the 6 dB separation gate and the 20x spectral
// prominence requirement. If a constant changes, these fail.

func TestSNRBurstySignalUsesTimeDomain(t *testing.T) {
	sig := burstTone(8000, 4, 0.25, 0.5, 0.005, 1)

	est := EstimateSNR(sig, 8000)
	if est.Method != SNRTimeDomain {
		t.Fatalf("method = %v, want time-domain", est.Method)
	}
	// Tone at 0.5 over a 0.005 noise floor: roughly 35-45 dB.
	if est.DB < 25 || est.DB > 55 {
		t.Errorf("SNR = %.2f dB, want in (25, 55)", est.DB)
	}
}

func TestSNRMonotonicWithNoise(t *testing.T) {
	clean := burstTone(8000, 4, 0.25, 0.5, 0.005, 1)
	dirty := burstTone(8000, 4, 0.25, 0.5, 0.05, 1)

	estClean := EstimateSNR(clean, 8000)
	estDirty := EstimateSNR(dirty, 8000)
	if estClean.Method != SNRTimeDomain || estDirty.Method != SNRTimeDomain {
		t.Fatalf("methods = %v/%v, want time-domain for both", estClean.Method, estDirty.Method)
	}
	if estDirty.DB >= estClean.DB {
		t.Errorf("SNR should strictly decrease with injected noise: clean=%.2f dirty=%.2f",
			estClean.DB, estDirty.DB)
	}
}

func TestSNRPureToneUsesSpectral(t *testing.T) {
	sig := sine(1000, 0.3, 48000, 2)

	est := EstimateSNR(sig, 48000)
	if est.Method != SNRSpectral {
		t.Fatalf("method = %v, want spectral for a constant tone", est.Method)
	}
	// A clean digitally generated tone has a very high spectral SNR.
	if est.DB < 20 {
		t.Errorf("SNR = %.2f dB, want above 20 for a clean tone", est.DB)
	}
}

func TestSNRToneWithNoiseLowerThanCleanTone(t *testing.T) {
	clean := sine(1000, 0.3, 48000, 2)
	noisy := mix(sine(1000, 0.3, 48000, 2), whiteNoise(0.01, 48000, 2, 7))

	estClean := EstimateSNR(clean, 48000)
	estNoisy := EstimateSNR(noisy, 48000)
	if estClean.Method == SNRUnreliable || estNoisy.Method == SNRUnreliable {
		t.Fatalf("methods = %v/%v, want reliable estimates", estClean.Method, estNoisy.Method)
	}
	if estNoisy.DB >= estClean.DB {
		t.Errorf("noisy tone SNR %.2f should be below clean tone SNR %.2f",
			estNoisy.DB, estClean.DB)
	}
}

func TestSNRWhiteNoiseUnreliable(t *testing.T) {
	// Steady broadband noise has neither quiet frames nor a spectral
	// line; both estimators must decline.
	sig := whiteNoise(0.1, 48000, 2, 3)

	est := EstimateSNR(sig, 48000)
	if est.Method != SNRUnreliable {
		t.Errorf("method = %v (%.2f dB), want unreliable for steady noise", est.Method, est.DB)
	}
}

func TestSNRShortBufferUnreliable(t *testing.T) {
	// Below the 0.5 s minimum evaluation length.
	sig := sine(1000, 0.3, 48000, 0.3)

	est := EstimateSNR(sig, 48000)
	if est.Method != SNRUnreliable {
		t.Errorf("method = %v, want unreliable below 0.5 s", est.Method)
	}
}

func TestSNRMethodString(t *testing.T) {
	tests := []struct {
		m    SNRMethod
		want string
	}{
		{SNRTimeDomain, "time-domain"},
		{SNRSpectral, "spectral"},
		{SNRUnreliable, "unreliable"},
	}
	for _, tt := range tests {
		if got := tt.m.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.m, got, tt.want)
		}
	}
}
