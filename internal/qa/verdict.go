// Package qa classifies computed metrics against threshold rules and
// aggregates per-file verdicts.
package qa

import (
	"github.com/soundops/audioqc/internal/audio"
	"github.com/soundops/audioqc/internal/metrics"
)

// Verdict classifies a metric or a whole file.
type Verdict string

const (
	Pass Verdict = "PASS"
	Warn Verdict = "WARN"
	Fail Verdict = "FAIL"
	// NA marks metrics that were not computed or have no rule; NA
	// never participates in aggregation.
	NA Verdict = "NA"
)

// Status is the per-file processing state.
type Status int

const (
	StatusPending Status = iota
	StatusDecoding
	StatusComputing
	StatusEvaluated
	StatusErrored
	StatusReported
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusDecoding:
		return "decoding"
	case StatusComputing:
		return "computing"
	case StatusEvaluated:
		return "evaluated"
	case StatusErrored:
		return "errored"
	case StatusReported:
		return "reported"
	default:
		return "unknown"
	}
}

// MetricVerdict is one judged measurement.
type MetricVerdict struct {
	Name    string
	Value   metrics.Value
	Unit    string
	Verdict Verdict
}

// FileReport is the terminal result for one file. Once built it is
// never mutated, except for the Reported status transition.
type FileReport struct {
	Path       string
	SizeBytes  int64
	SampleRate int
	DurationS  float64
	Meta       *audio.Meta

	// Verdicts holds one entry per metric in canonical order.
	Verdicts []MetricVerdict
	Channels []metrics.ChannelRow
	Silent   []int

	Overall Verdict
	Reason  string
	// Err is set for decode or unrecoverable compute failures; such
	// files are excluded from metric tables.
	Err    string
	Status Status
}

// Errored reports whether the file failed before evaluation.
func (f *FileReport) Errored() bool {
	return f.Err != ""
}

// Verdict returns the verdict for a named metric, NA when absent.
func (f *FileReport) Verdict(name string) Verdict {
	if mv := f.Metric(name); mv != nil {
		return mv.Verdict
	}
	return NA
}

// Metric returns the entry for a named metric, nil when absent.
func (f *FileReport) Metric(name string) *MetricVerdict {
	for i := range f.Verdicts {
		if f.Verdicts[i].Name == name {
			return &f.Verdicts[i]
		}
	}
	return nil
}
