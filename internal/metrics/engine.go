// Package metrics computes loudness, noise, dynamics and stereo-health
// measurements from decoded audio buffers.
package metrics

import (
	"math"

	"github.com/soundops/audioqc/internal/audio"
)

// Metric names. These are the keys of the engine output, the rule file
// and the report columns.
const (
	MetricPeak          = "peak_dbfs"
	MetricTruePeak      = "true_peak_dbfs"
	MetricRMS           = "rms_dbfs"
	MetricCrest         = "crest_db"
	MetricLUFS          = "lufs"
	MetricLUFSShortTerm = "lufs_s"
	MetricLUFSMomentary = "lufs_m"
	MetricLRA           = "lra"
	MetricSNR           = "snr_db"
	MetricImbalance     = "channel_imbalance_db"
	MetricCorrelation   = "lr_corr"
)

// Order is the canonical metric order used everywhere a metric set is
// rendered. It is fixed so reports stay byte-comparable across runs.
var Order = []string{
	MetricPeak,
	MetricTruePeak,
	MetricRMS,
	MetricCrest,
	MetricLUFS,
	MetricLUFSShortTerm,
	MetricLUFSMomentary,
	MetricLRA,
	MetricSNR,
	MetricImbalance,
	MetricCorrelation,
}

// Units maps metric names to their display unit.
var Units = map[string]string{
	MetricPeak:          "dBFS",
	MetricTruePeak:      "dBFS",
	MetricRMS:           "dBFS",
	MetricCrest:         "dB",
	MetricLUFS:          "LUFS",
	MetricLUFSShortTerm: "LUFS",
	MetricLUFSMomentary: "LUFS",
	MetricLRA:           "LU",
	MetricSNR:           "dB",
	MetricImbalance:     "dB",
	MetricCorrelation:   "",
}

// Known reports whether name is a computed metric.
func Known(name string) bool {
	_, ok := Units[name]
	return ok
}

// Value is a metric measurement; Valid == false means NA. NA values
// never influence any verdict.
type Value struct {
	Float64 float64
	Valid   bool
}

func Some(v float64) Value {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Value{}
	}
	return Value{Float64: v, Valid: true}
}

// Result is the full metric set for one buffer.
type Result struct {
	SampleRate int
	Duration   float64
	Values     map[string]Value
	SNRMethod  SNRMethod
	Channels   []ChannelRow
	Silent     []int
}

// Value returns the named metric, NA when absent.
func (r *Result) Value(name string) Value {
	return r.Values[name]
}

// Analyze computes the full metric set for a buffer. The main metric
// table is measured on a mono downmix; multichannel buffers also get a
// per-channel side table. Individual metric failures degrade to NA and
// never abort the analysis.
func Analyze(buf *audio.Buffer) *Result {
	res := &Result{
		SampleRate: buf.SampleRate,
		Duration:   buf.Duration(),
		Values:     make(map[string]Value, len(Order)),
	}
	for _, name := range Order {
		res.Values[name] = Value{}
	}

	mono := buf.Mono()
	if len(mono) == 0 {
		return res
	}

	peakDB := guard(func() Value { return Some(PeakdBFS(mono)) })
	rmsDB := guard(func() Value { return Some(RMSdBFS(mono)) })
	res.Values[MetricPeak] = peakDB
	res.Values[MetricRMS] = rmsDB

	res.Values[MetricCrest] = guard(func() Value {
		if !peakDB.Valid || !rmsDB.Valid {
			return Value{}
		}
		// Crest factor is meaningless on numerically silent material.
		if math.Pow(10, rmsDB.Float64/20) <= 2*epsLinear {
			return Value{}
		}
		return Some(CrestDB(peakDB.Float64, rmsDB.Float64))
	})

	res.Values[MetricTruePeak] = guard(func() Value {
		if tp, ok := TruePeakDBFS(mono); ok {
			return Some(tp)
		}
		return Value{}
	})

	guardErr(func() {
		meter := NewMeter(buf.Channels, buf.SampleRate)
		if lufs, ok := meter.Integrated(); ok {
			res.Values[MetricLUFS] = Some(lufs)
		}
		if st, ok := P95(meter.ShortTerm()); ok {
			res.Values[MetricLUFSShortTerm] = Some(st)
		}
		if mom, ok := P95(meter.Momentary()); ok {
			res.Values[MetricLUFSMomentary] = Some(mom)
		}
		if lra, ok := meter.LRA(); ok {
			res.Values[MetricLRA] = Some(lra)
		}
	})

	guardErr(func() {
		est := EstimateSNR(mono, buf.SampleRate)
		res.SNRMethod = est.Method
		if est.Method != SNRUnreliable {
			res.Values[MetricSNR] = Some(est.DB)
		}
	})

	if buf.NumChannels() >= 2 {
		guardErr(func() {
			l, r := buf.Channels[0], buf.Channels[1]
			if imb, ok := ChannelImbalanceDB(l, r); ok {
				res.Values[MetricImbalance] = Some(imb)
			}
			if corr, ok := LRCorrelation(l, r); ok {
				res.Values[MetricCorrelation] = Some(corr)
			}
			res.Channels, res.Silent = AnalyzeChannels(buf.Channels, buf.SampleRate)
		})
	}

	return res
}

// guard converts a panicking metric computation into NA.
func guard(fn func() Value) (v Value) {
	defer func() {
		if recover() != nil {
			v = Value{}
		}
	}()
	return fn()
}

// guardErr runs a metric group, swallowing panics; affected metrics
// simply stay NA.
func guardErr(fn func()) {
	defer func() {
		_ = recover()
	}()
	fn()
}
