// Package batch runs the per-file analysis pipeline across a worker
// pool and aggregates deterministic batch reports.
package batch

import (
	"context"
	"os"
	"runtime"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/soundops/audioqc/internal/audio"
	"github.com/soundops/audioqc/internal/metrics"
	"github.com/soundops/audioqc/internal/qa"
	"github.com/soundops/audioqc/internal/rules"
)

// Logger is the logging surface the orchestrator needs.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Summary counts terminal per-file outcomes.
type Summary struct {
	Pass    int
	Warn    int
	Fail    int
	Errored int
}

// Report is the batch result: path-ordered file reports plus summary
// and the derived process exit code. It is assembled only after every
// file has reached a terminal state.
type Report struct {
	RunID       string
	Version     string
	GeneratedAt time.Time
	Dir         string
	RuleFile    string
	Elapsed     time.Duration
	Files       []*qa.FileReport
	Summary     Summary
	ExitCode    int
}

// Orchestrator drives Decode -> Metrics -> Silence Gate -> Evaluator
// per file over a bounded worker pool. The rule set is immutable for
// the lifetime of the orchestrator, so concurrent Run calls are safe.
type Orchestrator struct {
	set      rules.Set
	dec      audio.Decoder
	log      Logger
	workers  int
	version  string
	ruleFile string
	progress func()
}

type Option func(*Orchestrator)

// WithWorkers bounds the pool size. Values below 1 fall back to the
// default (NumCPU).
func WithWorkers(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.workers = n
		}
	}
}

func WithDecoder(d audio.Decoder) Option {
	return func(o *Orchestrator) { o.dec = d }
}

func WithLogger(l Logger) Option {
	return func(o *Orchestrator) { o.log = l }
}

func WithVersion(v string) Option {
	return func(o *Orchestrator) { o.version = v }
}

// WithRuleFile records the threshold file path in the report header.
func WithRuleFile(path string) Option {
	return func(o *Orchestrator) { o.ruleFile = path }
}

// WithProgress registers a callback invoked once per completed file,
// from the collector goroutine only.
func WithProgress(fn func()) Option {
	return func(o *Orchestrator) { o.progress = fn }
}

func New(set rules.Set, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		set:     set,
		workers: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.dec == nil {
		o.dec = audio.NewFileDecoder("")
	}
	return o
}

// Run processes every path and returns the assembled report. Per-file
// failures are recorded, never escalated; Run itself only fails through
// the context.
func (o *Orchestrator) Run(ctx context.Context, dir string, paths []string) *Report {
	start := time.Now()

	workers := o.workers
	if workers > len(paths) {
		workers = len(paths)
	}
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan string, len(paths))
	results := make(chan *qa.FileReport, len(paths))

	for w := 0; w < workers; w++ {
		go func() {
			for path := range jobs {
				results <- o.processFile(ctx, path)
			}
		}()
	}
	for _, p := range paths {
		jobs <- p
	}
	close(jobs)

	files := make([]*qa.FileReport, 0, len(paths))
	for range paths {
		fr := <-results
		files = append(files, fr)
		if o.progress != nil {
			o.progress()
		}
	}

	// Completion order depends on scheduling; report order must not.
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	rep := &Report{
		RunID:       uuid.New().String(),
		Version:     o.version,
		GeneratedAt: time.Now().UTC(),
		Dir:         dir,
		RuleFile:    o.ruleFile,
		Elapsed:     time.Since(start),
		Files:       files,
	}
	for _, fr := range files {
		fr.Status = qa.StatusReported
		switch {
		case fr.Errored():
			rep.Summary.Errored++
		case fr.Overall == qa.Fail:
			rep.Summary.Fail++
		case fr.Overall == qa.Warn:
			rep.Summary.Warn++
		default:
			rep.Summary.Pass++
		}
	}
	if rep.Summary.Fail > 0 || rep.Summary.Errored > 0 {
		rep.ExitCode = 1
	}
	return rep
}

// processFile runs the full pipeline for one file and always returns a
// terminal report: Evaluated or Errored.
func (o *Orchestrator) processFile(ctx context.Context, path string) *qa.FileReport {
	fr := &qa.FileReport{Path: path, Status: qa.StatusPending}
	if info, err := os.Stat(path); err == nil {
		fr.SizeBytes = info.Size()
	}

	fr.Status = qa.StatusDecoding
	buf, err := o.dec.Decode(ctx, path)
	if err != nil {
		if o.log != nil {
			o.log.Errorf("decode %s: %v", path, err)
		}
		fr.Err = err.Error()
		fr.Overall = qa.Fail
		fr.Status = qa.StatusErrored
		return fr
	}
	fr.Meta = audio.ReadMeta(path)

	fr.Status = qa.StatusComputing
	res := metrics.Analyze(buf)
	fr.SampleRate = res.SampleRate
	fr.DurationS = res.Duration
	fr.Channels = res.Channels
	fr.Silent = res.Silent

	fr.Verdicts, fr.Overall, fr.Reason = qa.Evaluate(res, o.set)
	fr.Status = qa.StatusEvaluated

	if o.log != nil {
		o.log.Debugf("%s: %s (snr method: %s)", path, fr.Overall, res.SNRMethod)
	}
	return fr
}
