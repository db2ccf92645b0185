// Package rules loads and validates the threshold rule file that drives
// PASS / WARN / FAIL classification.
package rules

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/soundops/audioqc/internal/metrics"
)

// ErrConfig marks a malformed or inconsistent rule file. It is fatal:
// the batch must not start with a broken rule set.
var ErrConfig = errors.New("rules: invalid configuration")

// Rule is the PASS band for one metric, with optional WARN extensions.
// Absent bounds are one-sided: a rule with only min passes everything
// at or above min. Values in [warn_min, min) or (max, warn_max] are
// WARN instead of FAIL.
type Rule struct {
	Min     *float64 `yaml:"min"`
	Max     *float64 `yaml:"max"`
	WarnMin *float64 `yaml:"warn_min"`
	WarnMax *float64 `yaml:"warn_max"`
}

// Set maps metric names to their rules. A Set is loaded once per batch
// and treated as immutable afterwards.
type Set map[string]Rule

// Rule returns the rule for a metric and whether one is configured.
func (s Set) Rule(name string) (Rule, bool) {
	r, ok := s[name]
	return r, ok
}

type warnLogger interface {
	Warnf(format string, args ...any)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(ruleStructLevel, Rule{})
	return v
}

// ruleStructLevel enforces band consistency: max must not undercut min,
// warn bounds must widen the pass band and require the bound they
// extend.
func ruleStructLevel(sl validator.StructLevel) {
	r := sl.Current().Interface().(Rule)

	if r.Min != nil && r.Max != nil && *r.Min > *r.Max {
		sl.ReportError(r.Max, "max", "Max", "gtemin", "")
	}
	if r.WarnMin != nil {
		if r.Min == nil {
			sl.ReportError(r.WarnMin, "warn_min", "WarnMin", "requiresmin", "")
		} else if *r.WarnMin > *r.Min {
			sl.ReportError(r.WarnMin, "warn_min", "WarnMin", "ltemin", "")
		}
	}
	if r.WarnMax != nil {
		if r.Max == nil {
			sl.ReportError(r.WarnMax, "warn_max", "WarnMax", "requiresmax", "")
		} else if *r.WarnMax < *r.Max {
			sl.ReportError(r.WarnMax, "warn_max", "WarnMax", "gtemax", "")
		}
	}
}

// Load reads a YAML rule file. A missing file yields an empty set (so
// runs without thresholds still report metrics); anything malformed is
// ErrConfig. Rules for unknown metric names are dropped with a warning.
func Load(path string, log warnLogger) (Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if log != nil {
				log.Warnf("thresholds file %s not found, metrics will not be judged", path)
			}
			return Set{}, nil
		}
		return nil, fmt.Errorf("%w: reading %s: %v", ErrConfig, path, err)
	}

	var raw map[string]Rule
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrConfig, path, err)
	}

	set := make(Set, len(raw))
	// Sorted iteration keeps warning order stable.
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		rule := raw[name]
		if !metrics.Known(name) {
			if log != nil {
				log.Warnf("thresholds: ignoring rule for unknown metric %q", name)
			}
			continue
		}
		if err := validate.Struct(rule); err != nil {
			return nil, fmt.Errorf("%w: rule %q: %v", ErrConfig, name, err)
		}
		set[name] = rule
	}
	return set, nil
}
