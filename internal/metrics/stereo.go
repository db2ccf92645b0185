package metrics

import "math"

// Silent-channel thresholds, shared with the file-level silence gate
// defaults.
const (
	SilentRMSdBFS  = -80.0
	SilentPeakdBFS = -60.0
)

// ChannelImbalanceDB returns the absolute dB difference between the RMS
// levels of two channels. ok is false when either level is not finite.
func ChannelImbalanceDB(l, r []float64) (float64, bool) {
	lDB := RMSdBFS(l)
	rDB := RMSdBFS(r)
	if math.IsNaN(lDB) || math.IsNaN(rDB) || math.IsInf(lDB, 0) || math.IsInf(rDB, 0) {
		return 0, false
	}
	return math.Abs(lDB - rDB), true
}

// LRCorrelation returns the Pearson correlation between two channels at
// zero lag. ok is false when either channel has (near) zero variance.
func LRCorrelation(l, r []float64) (float64, bool) {
	n := len(l)
	if len(r) < n {
		n = len(r)
	}
	if n == 0 {
		return 0, false
	}

	meanL := mean(l[:n])
	meanR := mean(r[:n])
	var cov, varL, varR float64
	for i := 0; i < n; i++ {
		dl := l[i] - meanL
		dr := r[i] - meanR
		cov += dl * dr
		varL += dl * dl
		varR += dr * dr
	}

	stdL := math.Sqrt(varL / float64(n))
	stdR := math.Sqrt(varR / float64(n))
	if stdL <= epsLinear || stdR <= epsLinear {
		return 0, false
	}
	return cov / math.Sqrt(varL*varR), true
}

// ChannelRow holds per-channel measurements for the optional side table
// of multichannel files.
type ChannelRow struct {
	Index int
	Peak  Value
	RMS   Value
	Crest Value
	LUFS  Value
	LRA   Value
}

// AnalyzeChannels computes per-channel levels and loudness plus
// silent-channel detection. Returns nil rows for mono input.
func AnalyzeChannels(channels [][]float64, fs int) (rows []ChannelRow, silent []int) {
	if len(channels) < 2 {
		return nil, nil
	}

	silent = []int{}
	for i, ch := range channels {
		peakDB := PeakdBFS(ch)
		rmsDB := RMSdBFS(ch)
		row := ChannelRow{
			Index: i,
			Peak:  Some(peakDB),
			RMS:   Some(rmsDB),
			Crest: Some(CrestDB(peakDB, rmsDB)),
		}

		meter := NewMeter([][]float64{ch}, fs)
		if lufs, ok := meter.Integrated(); ok {
			row.LUFS = Some(lufs)
		}
		if lra, ok := meter.LRA(); ok {
			row.LRA = Some(lra)
		}
		rows = append(rows, row)

		if rmsDB < SilentRMSdBFS || peakDB < SilentPeakdBFS {
			silent = append(silent, i)
		}
	}
	return rows, silent
}
