package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/soundops/audioqc/internal/batch"
	"github.com/soundops/audioqc/internal/metrics"
	"github.com/soundops/audioqc/internal/qa"
)

// summaryColumns is the per-file metric order of the main table.
var summaryColumns = []string{
	metrics.MetricPeak,
	metrics.MetricTruePeak,
	metrics.MetricRMS,
	metrics.MetricCrest,
	metrics.MetricLUFS,
	metrics.MetricLUFSShortTerm,
	metrics.MetricLUFSMomentary,
	metrics.MetricLRA,
	metrics.MetricSNR,
}

var summaryHeaders = []string{
	"peak (dBFS)", "TP (dBFS)", "rms (dBFS)", "crest (dB)",
	"LUFS", "LUFS-S", "LUFS-M", "LRA (LU)", "SNR (dB)",
}

func fmtValue(v metrics.Value) string {
	if !v.Valid {
		return "n/a"
	}
	return fmt.Sprintf("%.1f", v.Float64)
}

func fmtMetric(fr *qa.FileReport, name string) string {
	mv := fr.Metric(name)
	if mv == nil {
		return "n/a"
	}
	return fmtValue(mv.Value)
}

// WriteMarkdown renders the human-readable batch report.
func WriteMarkdown(w io.Writer, rep *batch.Report) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Audio QC Report\n\n")
	fmt.Fprintf(&b, "- Directory: `%s`\n", rep.Dir)
	fmt.Fprintf(&b, "- Thresholds: `%s`\n", rep.RuleFile)
	fmt.Fprintf(&b, "- Generated: %s\n", rep.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "- Run: %s (audioqc %s)\n", rep.RunID, rep.Version)
	fmt.Fprintf(&b, "- Elapsed: %s\n\n", rep.Elapsed.Round(time.Millisecond))

	fmt.Fprintf(&b, "**PASS %d / WARN %d / FAIL %d**", rep.Summary.Pass, rep.Summary.Warn, rep.Summary.Fail)
	if rep.Summary.Errored > 0 {
		fmt.Fprintf(&b, " (errored %d)", rep.Summary.Errored)
	}
	b.WriteString("\n\n")

	b.WriteString("| file | size | sr | " + strings.Join(summaryHeaders, " | ") + " | verdict | reason |\n")
	b.WriteString("|---|---:|---:|" + strings.Repeat("---:|", len(summaryHeaders)) + "---|---|\n")
	for _, fr := range rep.Files {
		if fr.Errored() {
			continue
		}
		cells := make([]string, 0, len(summaryColumns)+5)
		cells = append(cells,
			fr.Path,
			humanize.Bytes(uint64(fr.SizeBytes)),
			fmt.Sprintf("%d", fr.SampleRate),
		)
		for _, name := range summaryColumns {
			cells = append(cells, fmtMetric(fr, name))
		}
		cells = append(cells, string(fr.Overall), fr.Reason)
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	b.WriteString("\n")

	writeStereoSection(&b, rep)
	writeChannelSection(&b, rep)
	writeErrorSection(&b, rep)
	writeNotes(&b)

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return nil
}

func writeStereoSection(b *strings.Builder, rep *batch.Report) {
	rows := 0
	for _, fr := range rep.Files {
		if !fr.Errored() && len(fr.Channels) > 1 {
			rows++
		}
	}
	if rows == 0 {
		return
	}
	b.WriteString("## Stereo\n\n")
	b.WriteString("| file | imbalance (dB) | L/R corr | silent channels |\n")
	b.WriteString("|---|---:|---:|---|\n")
	for _, fr := range rep.Files {
		if fr.Errored() || len(fr.Channels) <= 1 {
			continue
		}
		silent := "-"
		if len(fr.Silent) > 0 {
			parts := make([]string, len(fr.Silent))
			for i, ch := range fr.Silent {
				parts[i] = fmt.Sprintf("%d", ch)
			}
			silent = strings.Join(parts, ",")
		}
		fmt.Fprintf(b, "| %s | %s | %s | %s |\n",
			fr.Path,
			fmtMetric(fr, metrics.MetricImbalance),
			fmtMetric(fr, metrics.MetricCorrelation),
			silent)
	}
	b.WriteString("\n")
}

func writeChannelSection(b *strings.Builder, rep *batch.Report) {
	wrote := false
	for _, fr := range rep.Files {
		if fr.Errored() || len(fr.Channels) == 0 {
			continue
		}
		if !wrote {
			b.WriteString("## Per-channel\n\n")
			wrote = true
		}
		fmt.Fprintf(b, "### %s\n\n", fr.Path)
		b.WriteString("| ch | peak (dBFS) | rms (dBFS) | crest (dB) | LUFS | LRA (LU) |\n")
		b.WriteString("|---:|---:|---:|---:|---:|---:|\n")
		for _, ch := range fr.Channels {
			fmt.Fprintf(b, "| %d | %s | %s | %s | %s | %s |\n",
				ch.Index,
				fmtValue(ch.Peak), fmtValue(ch.RMS), fmtValue(ch.Crest),
				fmtValue(ch.LUFS), fmtValue(ch.LRA))
		}
		b.WriteString("\n")
	}
}

func writeErrorSection(b *strings.Builder, rep *batch.Report) {
	if rep.Summary.Errored == 0 {
		return
	}
	b.WriteString("## Errors\n\n")
	for _, fr := range rep.Files {
		if fr.Errored() {
			fmt.Fprintf(b, "- `%s`: %s\n", fr.Path, fr.Err)
		}
	}
	b.WriteString("\n")
}

func writeNotes(b *strings.Builder) {
	b.WriteString("## Notes\n\n")
	b.WriteString("- LUFS is BS.1770 integrated loudness; LUFS-S and LUFS-M are the 95th percentile of short-term (3 s) and momentary (400 ms) loudness.\n")
	b.WriteString("- TP is an oversampled true-peak estimate and can exceed the sample peak.\n")
	b.WriteString("- SNR is a heuristic estimate; n/a means the signal was too short or no reliable estimate was possible.\n")
	b.WriteString("- Near-silent files fail regardless of thresholds.\n")
}

// WriteMarkdownFile writes the Markdown report to path, creating
// parent directories as needed.
func WriteMarkdownFile(path string, rep *batch.Report) error {
	f, err := createOutput(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteMarkdown(f, rep)
}
