package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"github.com/soundops/audioqc/internal/audio"
	"github.com/soundops/audioqc/internal/batch"
	"github.com/soundops/audioqc/internal/qa"
	"github.com/soundops/audioqc/internal/report"
	"github.com/soundops/audioqc/internal/rules"
	"github.com/soundops/audioqc/internal/storage"
	"github.com/soundops/audioqc/pkg/logger"
)

const version = "0.3.0"

// exit codes: 0 clean, 1 QC failures, 2 configuration or I/O errors.
const (
	exitOK    = 0
	exitQC    = 1
	exitFatal = 2
)

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(exitFatal)
	}

	switch os.Args[1] {
	case "analyze":
		os.Exit(handleAnalyze(os.Args[2:]))
	case "batch":
		os.Exit(handleBatch(os.Args[2:]))
	case "runs":
		os.Exit(handleRuns(os.Args[2:]))
	case "version", "-version", "--version":
		fmt.Printf("audioqc %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(exitFatal)
	}
}

func printUsage() {
	fmt.Print(`audioqc - batch loudness and quality checks for audio files

Usage:
  audioqc analyze <file> [flags]     Analyze one file, JSON to stdout
  audioqc batch <dir> [flags]        Analyze a directory
  audioqc runs [flags]               List recorded runs
  audioqc version

Analyze flags:
  -thresholds <file>   Threshold YAML (default thresholds.yaml if present)

Batch flags:
  -thresholds <file>   Threshold YAML (default thresholds.yaml if present)
  -out <file>          Markdown report path (default report.md)
  -out-json <file>     JSON report path (optional)
  -jobs <n>            Worker count (default: number of CPUs)
  -db <file>           Record the run in a SQLite database (optional)

Runs flags:
  -db <file>           SQLite database path (default audioqc.sqlite3)
  -dir <path>          Only runs for this directory
  -n <count>           Max runs to list (default 10)

Environment:
  AUDIOQC_TEMP_DIR     Directory for ffmpeg transcode temp files
  LOG_LEVEL            DEBUG, INFO, WARN, ERROR
`)
}

// signalContext cancels on SIGINT/SIGTERM so in-flight ffmpeg children
// are killed with the run.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func loadRules(log *logger.Logger, path string) (rules.Set, string, int) {
	explicit := path != ""
	if path == "" {
		path = "thresholds.yaml"
	}
	set, err := rules.Load(path, log)
	if err != nil {
		log.Errorf("loading thresholds: %v", err)
		return nil, path, exitFatal
	}
	if len(set) == 0 && explicit {
		log.Warnf("no usable rules in %s; every metric will pass", path)
	}
	return set, path, exitOK
}

func handleAnalyze(args []string) int {
	log := logger.GetLogger()

	cmd := flag.NewFlagSet("analyze", flag.ExitOnError)
	thresholds := cmd.String("thresholds", "", "threshold YAML file")
	cmd.Parse(args)

	if cmd.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: audioqc analyze <file> [flags]")
		return exitFatal
	}
	path := cmd.Arg(0)

	set, ruleFile, code := loadRules(log, *thresholds)
	if code != exitOK {
		return code
	}
	log.Debugf("thresholds: %s (%d rules)", ruleFile, len(set))

	ctx, cancel := signalContext()
	defer cancel()

	dec := audio.NewFileDecoder(getEnvOrDefault("AUDIOQC_TEMP_DIR", ""))
	orch := batch.New(set,
		batch.WithDecoder(dec),
		batch.WithLogger(log),
		batch.WithVersion(version),
		batch.WithRuleFile(ruleFile),
		batch.WithWorkers(1),
	)
	rep := orch.Run(ctx, ".", []string{path})

	fr := rep.Files[0]
	if err := report.WriteFileJSON(os.Stdout, fr); err != nil {
		log.Errorf("writing JSON: %v", err)
		return exitFatal
	}
	if fr.Errored() || fr.Overall == qa.Fail {
		return exitQC
	}
	return exitOK
}

func handleBatch(args []string) int {
	log := logger.GetLogger()

	cmd := flag.NewFlagSet("batch", flag.ExitOnError)
	thresholds := cmd.String("thresholds", "", "threshold YAML file")
	out := cmd.String("out", "report.md", "markdown report path")
	outJSON := cmd.String("out-json", "", "JSON report path")
	jobs := cmd.Int("jobs", 0, "worker count")
	dbPath := cmd.String("db", "", "record the run in this SQLite database")
	cmd.Parse(args)

	if cmd.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: audioqc batch <dir> [flags]")
		return exitFatal
	}
	dir := cmd.Arg(0)

	set, ruleFile, code := loadRules(log, *thresholds)
	if code != exitOK {
		return code
	}

	paths, err := batch.Discover(dir)
	if err != nil {
		log.Errorf("scanning %s: %v", dir, err)
		return exitFatal
	}
	if len(paths) == 0 {
		log.Warnf("no supported audio files in %s", dir)
	}

	// Fail on unwritable outputs before spending minutes decoding.
	if err := report.CheckWritable(*out); err != nil {
		log.Errorf("%v", err)
		return exitFatal
	}
	if *outJSON != "" {
		if err := report.CheckWritable(*outJSON); err != nil {
			log.Errorf("%v", err)
			return exitFatal
		}
	}

	var store *storage.Store
	if *dbPath != "" {
		store, err = storage.Open(*dbPath)
		if err != nil {
			log.Errorf("opening run database: %v", err)
			return exitFatal
		}
		defer store.Close()
	}

	ctx, cancel := signalContext()
	defer cancel()

	opts := []batch.Option{
		batch.WithDecoder(audio.NewFileDecoder(getEnvOrDefault("AUDIOQC_TEMP_DIR", ""))),
		batch.WithLogger(log),
		batch.WithVersion(version),
		batch.WithRuleFile(ruleFile),
		batch.WithWorkers(*jobs),
	}
	if isatty.IsTerminal(os.Stderr.Fd()) && len(paths) > 0 {
		bar := progressbar.NewOptions(len(paths),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("analyzing"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		opts = append(opts, batch.WithProgress(func() { bar.Add(1) }))
	}

	log.Infof("analyzing %d files in %s with thresholds from %s", len(paths), dir, ruleFile)
	start := time.Now()
	rep := batch.New(set, opts...).Run(ctx, dir, paths)

	if err := report.WriteMarkdownFile(*out, rep); err != nil {
		log.Errorf("%v", err)
		return exitFatal
	}
	if *outJSON != "" {
		if err := report.WriteJSONFile(*outJSON, rep); err != nil {
			log.Errorf("%v", err)
			return exitFatal
		}
	}
	// The reports already exist at this point, so a history write
	// failure downgrades to a warning.
	if store != nil {
		if err := store.SaveRun(rep); err != nil {
			log.Warnf("recording run: %v", err)
		}
	}

	log.Infof("done in %s: PASS %d / WARN %d / FAIL %d (errored %d), report at %s",
		time.Since(start).Round(time.Millisecond),
		rep.Summary.Pass, rep.Summary.Warn, rep.Summary.Fail, rep.Summary.Errored, *out)

	if ctx.Err() != nil {
		log.Errorf("interrupted")
		return exitFatal
	}
	return rep.ExitCode
}

func handleRuns(args []string) int {
	log := logger.GetLogger()

	cmd := flag.NewFlagSet("runs", flag.ExitOnError)
	dbPath := cmd.String("db", storage.DefaultDBFile, "SQLite database path")
	dir := cmd.String("dir", "", "only runs for this directory")
	limit := cmd.Int("n", 10, "max runs to list")
	cmd.Parse(args)

	store, err := storage.Open(*dbPath)
	if err != nil {
		log.Errorf("opening run database: %v", err)
		return exitFatal
	}
	defer store.Close()

	runs, err := store.Runs(*dir, *limit)
	if err != nil {
		log.Errorf("listing runs: %v", err)
		return exitFatal
	}
	if len(runs) == 0 {
		fmt.Println("no recorded runs")
		return exitOK
	}

	for _, r := range runs {
		fmt.Printf("%s  %s  %-20s  pass=%d warn=%d fail=%d errored=%d exit=%d\n",
			r.CreatedAt.Format(time.RFC3339), r.ID, r.Dir,
			r.Pass, r.Warn, r.Fail, r.Errored, r.ExitCode)
	}
	return exitOK
}
