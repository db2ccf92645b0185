package rules

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

type testLogger struct {
	warnings []string
}

func (l *testLogger) Warnf(format string, args ...any) {
	l.warnings = append(l.warnings, fmt.Sprintf(format, args...))
}

func writeRules(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "thresholds.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadBasicRules(t *testing.T) {
	path := writeRules(t, `
lufs:
  min: -24
  max: -16
  warn_min: -26
snr_db:
  min: 40
true_peak_dbfs:
  max: -1
`)

	set, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(set) != 3 {
		t.Fatalf("loaded %d rules, want 3", len(set))
	}

	r, ok := set.Rule("lufs")
	if !ok {
		t.Fatal("lufs rule missing")
	}
	if *r.Min != -24 || *r.Max != -16 || *r.WarnMin != -26 || r.WarnMax != nil {
		t.Errorf("lufs rule = %+v", r)
	}

	if r, _ := set.Rule("snr_db"); r.Min == nil || r.Max != nil {
		t.Errorf("snr_db should be a one-sided min rule: %+v", r)
	}
}

func TestLoadMissingFileIsEmptySet(t *testing.T) {
	log := &testLogger{}
	set, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), log)
	if err != nil {
		t.Fatalf("missing file should not be an error: %v", err)
	}
	if len(set) != 0 {
		t.Errorf("set = %v, want empty", set)
	}
	if len(log.warnings) != 1 {
		t.Errorf("warnings = %v, want one", log.warnings)
	}
}

func TestLoadUnknownMetricIgnoredWithWarning(t *testing.T) {
	path := writeRules(t, `
lufs:
  min: -24
wow_flutter:
  min: 0
`)

	log := &testLogger{}
	set, err := Load(path, log)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := set.Rule("wow_flutter"); ok {
		t.Error("unknown metric should be dropped")
	}
	if _, ok := set.Rule("lufs"); !ok {
		t.Error("known metric should survive")
	}
	if len(log.warnings) != 1 {
		t.Errorf("warnings = %v, want exactly one", log.warnings)
	}
}

func TestLoadMalformedYAMLIsConfigError(t *testing.T) {
	path := writeRules(t, "lufs: [not, a, rule")

	_, err := Load(path, nil)
	if !errors.Is(err, ErrConfig) {
		t.Errorf("err = %v, want ErrConfig", err)
	}
}

func TestLoadInconsistentBandsAreConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"min above max", "lufs: {min: -16, max: -24}"},
		{"warn_min above min", "lufs: {min: -24, max: -16, warn_min: -20}"},
		{"warn_max below max", "lufs: {min: -24, max: -16, warn_max: -18}"},
		{"warn_min without min", "lufs: {max: -16, warn_min: -26}"},
		{"warn_max without max", "lufs: {min: -24, warn_max: -10}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeRules(t, tt.content)
			if _, err := Load(path, nil); !errors.Is(err, ErrConfig) {
				t.Errorf("err = %v, want ErrConfig", err)
			}
		})
	}
}
