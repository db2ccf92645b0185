package qa

import (
	"strings"

	"github.com/soundops/audioqc/internal/metrics"
	"github.com/soundops/audioqc/internal/rules"
)

// SilenceReason is the overall-verdict reason for gated files.
const SilenceReason = "near-silence/missing content"

// Default silence-gate thresholds, used when the rule set does not
// configure rms_dbfs.min / peak_dbfs.min.
const (
	defaultSilenceRMS  = -80.0
	defaultSilencePeak = -60.0
)

// Judge classifies a single value against a rule. The PASS band
// [min, max] is inclusive on both ends; warn bounds extend it to a WARN
// band on their side. NA values are never judged.
func Judge(v metrics.Value, r rules.Rule) Verdict {
	if !v.Valid {
		return NA
	}
	val := v.Float64

	hasMin := r.Min != nil
	hasMax := r.Max != nil

	switch {
	case hasMin && hasMax && *r.Min <= val && val <= *r.Max:
		return Pass
	case hasMin && !hasMax && val >= *r.Min:
		return Pass
	case hasMax && !hasMin && val <= *r.Max:
		return Pass
	}

	if hasMin && val < *r.Min {
		if r.WarnMin != nil && val >= *r.WarnMin {
			return Warn
		}
		return Fail
	}
	if hasMax && val > *r.Max {
		if r.WarnMax != nil && val <= *r.WarnMax {
			return Warn
		}
		return Fail
	}

	// No bounds configured at all.
	return Pass
}

// SilenceGated reports whether a file trips the silence gate: RMS below
// its minimum OR peak below its minimum. The gate uses the configured
// rms_dbfs.min / peak_dbfs.min when present, otherwise the defaults.
func SilenceGated(res *metrics.Result, set rules.Set) bool {
	rmsMin := defaultSilenceRMS
	if r, ok := set.Rule(metrics.MetricRMS); ok && r.Min != nil {
		rmsMin = *r.Min
	}
	peakMin := defaultSilencePeak
	if r, ok := set.Rule(metrics.MetricPeak); ok && r.Min != nil {
		peakMin = *r.Min
	}

	rms := res.Value(metrics.MetricRMS)
	peak := res.Value(metrics.MetricPeak)
	return (rms.Valid && rms.Float64 < rmsMin) || (peak.Valid && peak.Float64 < peakMin)
}

// Evaluate judges every metric of a result and aggregates the overall
// verdict. Precedence: silence gate FAIL, then any metric FAIL, then
// any WARN, then PASS. Metrics without a rule (and NA values) are
// reported but excluded from aggregation.
func Evaluate(res *metrics.Result, set rules.Set) (verdicts []MetricVerdict, overall Verdict, reason string) {
	verdicts = make([]MetricVerdict, 0, len(metrics.Order))
	var fails, warns []string

	for _, name := range metrics.Order {
		mv := MetricVerdict{
			Name:    name,
			Value:   res.Value(name),
			Unit:    metrics.Units[name],
			Verdict: NA,
		}
		if r, ok := set.Rule(name); ok {
			mv.Verdict = Judge(mv.Value, r)
		}
		switch mv.Verdict {
		case Fail:
			fails = append(fails, name)
		case Warn:
			warns = append(warns, name)
		}
		verdicts = append(verdicts, mv)
	}

	if SilenceGated(res, set) {
		return verdicts, Fail, SilenceReason
	}

	switch {
	case len(fails) > 0:
		return verdicts, Fail, strings.Join(fails, ",")
	case len(warns) > 0:
		return verdicts, Warn, strings.Join(warns, ",")
	default:
		return verdicts, Pass, ""
	}
}
