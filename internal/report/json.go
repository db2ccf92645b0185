// Package report renders batch results as Markdown and JSON.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/soundops/audioqc/internal/audio"
	"github.com/soundops/audioqc/internal/batch"
	"github.com/soundops/audioqc/internal/qa"
)

// ErrWrite marks an unwritable output destination. It is fatal for the
// run but surfaces only after processing completes.
var ErrWrite = errors.New("report: write failed")

// SchemaVersion is bumped only on breaking JSON layout changes; CI
// baseline diffs depend on the keys and nesting staying stable.
const SchemaVersion = 1

type jsonMetric struct {
	Value   *float64 `json:"value"`
	Unit    string   `json:"unit"`
	Verdict string   `json:"verdict"`
}

type jsonChannel struct {
	Channel  int      `json:"ch"`
	PeakDBFS *float64 `json:"peak_dbfs"`
	RMSdBFS  *float64 `json:"rms_dbfs"`
	CrestDB  *float64 `json:"crest_db"`
	LUFS     *float64 `json:"lufs"`
	LRA      *float64 `json:"lra"`
}

type jsonFile struct {
	Path           string                `json:"path"`
	SizeBytes      int64                 `json:"size_bytes"`
	SampleRate     int                   `json:"sample_rate,omitempty"`
	DurationS      float64               `json:"duration_s,omitempty"`
	Meta           *audio.Meta           `json:"meta,omitempty"`
	Metrics        map[string]jsonMetric `json:"metrics,omitempty"`
	Channels       []jsonChannel         `json:"channels,omitempty"`
	SilentChannels []int                 `json:"silent_channels"`
	OverallVerdict string                `json:"overall_verdict"`
	Reason         string                `json:"reason,omitempty"`
	Error          string                `json:"error,omitempty"`
}

type jsonSummary struct {
	Pass    int `json:"pass"`
	Warn    int `json:"warn"`
	Fail    int `json:"fail"`
	Errored int `json:"errored"`
}

type jsonPayload struct {
	SchemaVersion int         `json:"schema_version"`
	Version       string      `json:"version"`
	RunID         string      `json:"run_id"`
	GeneratedAt   string      `json:"generated_at"`
	Dir           string      `json:"dir"`
	Thresholds    string      `json:"thresholds"`
	Files         []jsonFile  `json:"files"`
	Summary       jsonSummary `json:"summary"`
	ExitCode      int         `json:"exit_code"`
}

func floatPtr(v qa.MetricVerdict) *float64 {
	if !v.Value.Valid {
		return nil
	}
	f := v.Value.Float64
	return &f
}

func fileJSON(fr *qa.FileReport) jsonFile {
	jf := jsonFile{
		Path:           fr.Path,
		SizeBytes:      fr.SizeBytes,
		SampleRate:     fr.SampleRate,
		DurationS:      fr.DurationS,
		Meta:           fr.Meta,
		SilentChannels: fr.Silent,
		OverallVerdict: string(fr.Overall),
		Reason:         fr.Reason,
		Error:          fr.Err,
	}
	if jf.SilentChannels == nil {
		jf.SilentChannels = []int{}
	}

	if !fr.Errored() {
		jf.Metrics = make(map[string]jsonMetric, len(fr.Verdicts))
		for _, mv := range fr.Verdicts {
			jf.Metrics[mv.Name] = jsonMetric{
				Value:   floatPtr(mv),
				Unit:    mv.Unit,
				Verdict: string(mv.Verdict),
			}
		}
		for _, ch := range fr.Channels {
			jf.Channels = append(jf.Channels, jsonChannel{
				Channel:  ch.Index,
				PeakDBFS: valuePtr(ch.Peak.Float64, ch.Peak.Valid),
				RMSdBFS:  valuePtr(ch.RMS.Float64, ch.RMS.Valid),
				CrestDB:  valuePtr(ch.Crest.Float64, ch.Crest.Valid),
				LUFS:     valuePtr(ch.LUFS.Float64, ch.LUFS.Valid),
				LRA:      valuePtr(ch.LRA.Float64, ch.LRA.Valid),
			})
		}
	}
	return jf
}

func valuePtr(v float64, valid bool) *float64 {
	if !valid {
		return nil
	}
	return &v
}

// WriteJSON renders the machine-readable batch result.
func WriteJSON(w io.Writer, rep *batch.Report) error {
	payload := jsonPayload{
		SchemaVersion: SchemaVersion,
		Version:       rep.Version,
		RunID:         rep.RunID,
		GeneratedAt:   rep.GeneratedAt.Format(time.RFC3339),
		Dir:           rep.Dir,
		Thresholds:    rep.RuleFile,
		Files:         make([]jsonFile, 0, len(rep.Files)),
		Summary: jsonSummary{
			Pass:    rep.Summary.Pass,
			Warn:    rep.Summary.Warn,
			Fail:    rep.Summary.Fail,
			Errored: rep.Summary.Errored,
		},
		ExitCode: rep.ExitCode,
	}
	for _, fr := range rep.Files {
		payload.Files = append(payload.Files, fileJSON(fr))
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return nil
}

// WriteFileJSON renders a single file report, used by the analyze
// subcommand.
func WriteFileJSON(w io.Writer, fr *qa.FileReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(fileJSON(fr)); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return nil
}

// WriteJSONFile writes the JSON report to path, creating parent
// directories as needed.
func WriteJSONFile(path string, rep *batch.Report) error {
	f, err := createOutput(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteJSON(f, rep)
}

func createOutput(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: creating %s: %v", ErrWrite, dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return f, nil
}

// CheckWritable verifies the output destination before workers start,
// so the batch fails fast on an unwritable path.
func CheckWritable(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %s is not writable: %v", ErrWrite, dir, err)
	}
	probe := filepath.Join(dir, fmt.Sprintf(".audioqc-write-test-%d", time.Now().UnixNano()))
	f, err := os.Create(probe)
	if err != nil {
		return fmt.Errorf("%w: %s is not writable: %v", ErrWrite, dir, err)
	}
	f.Close()
	if err := os.Remove(probe); err != nil {
		return fmt.Errorf("%w: %s is not writable: %v", ErrWrite, dir, err)
	}
	return nil
}
