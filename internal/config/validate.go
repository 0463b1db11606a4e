package config

import (
	"fmt"
	"strings"

	"etlgate/internal/schema"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced to users but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding for a Pipeline.
//
// Path is a dotted path into the config (e.g. "load[0].options.table").
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue has SeverityError.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Known step kinds per section. Unknown kinds are warnings so that kinds
// registered by other packages still pass the linter.
var (
	ExtractKinds   = []string{"file", "http"}
	TransformKinds = []string{"normalize", "coerce", "dedup", "require", "rename", "select"}
	QualityKinds   = []string{"completion", "outlier", "uniqueness", "value_range", "contract"}
	LoadKinds      = []string{"sql", "file"}
)

// ValidatePipeline performs static validation / linting of a Pipeline.
//
// It does not mutate the pipeline. Callers decide whether warnings are fatal.
//
//	issues := config.ValidatePipeline(p)
//	for _, iss := range issues {
//	    fmt.Printf("%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
//	}
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it is used for metrics labeling and identifying runs",
		})
	}

	issues = append(issues, validateSteps("extract", p.Extract, ExtractKinds, true, validateExtract)...)
	issues = append(issues, validateSteps("transform", p.Transform, TransformKinds, true, validateTransform)...)
	issues = append(issues, validateSteps("quality", p.Quality, QualityKinds, false, validateQuality)...)
	issues = append(issues, validateSteps("load", p.Load, LoadKinds, true, validateLoad)...)

	if len(p.Extract) == 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "extract",
			Message:  "no extract steps configured; the pipeline starts from an empty dataset",
		})
	}
	if len(p.Quality) == 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "quality",
			Message:  "no quality checks configured; the gate always passes",
		})
	}
	if len(p.Load) == 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "load",
			Message:  "no load steps configured; nothing will be persisted",
		})
	}

	return issues
}

type kindCheck func(path string, s Step) []Issue

// validateSteps applies the checks common to every section and then the
// kind-specific ones.
func validateSteps(section string, steps []Step, known []string, nameRequired bool, check kindCheck) []Issue {
	var issues []Issue
	seen := map[string]int{}

	for i, s := range steps {
		path := fmt.Sprintf("%s[%d]", section, i)

		name := strings.TrimSpace(s.Name)
		switch {
		case name == "" && nameRequired:
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".name",
				Message:  section + " step name must not be empty",
			})
		case name != "":
			if j, dup := seen[name]; dup {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     path + ".name",
					Message:  fmt.Sprintf("duplicate name %q (also used by %s[%d])", name, section, j),
				})
			} else {
				seen[name] = i
			}
		}

		if strings.TrimSpace(s.Kind) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".kind",
				Message:  section + " kind must not be empty",
			})
			continue
		}
		if !contains(known, s.Kind) {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     path + ".kind",
				Message:  fmt.Sprintf("unknown %s kind %q; ensure a matching implementation is registered", section, s.Kind),
			})
			continue
		}
		issues = append(issues, check(path, s)...)
	}
	return issues
}

func validateExtract(path string, s Step) []Issue {
	var issues []Issue
	switch s.Kind {
	case "file":
		if s.Options.String("paths_file", "") == "" {
			issues = append(issues, requireString(path, s.Options, "path", "file extract requires a non-empty path or paths_file")...)
		}
	case "http":
		if s.Options.String("urls_file", "") == "" {
			issues = append(issues, requireString(path, s.Options, "url", "http extract requires a non-empty url or urls_file")...)
		}
	}
	switch f := s.Options.String("format", "csv"); f {
	case "csv", "json", "ndjson":
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     path + ".options.format",
			Message:  fmt.Sprintf("unsupported format %q; want csv, json or ndjson", f),
		})
	}
	return issues
}

func validateTransform(path string, s Step) []Issue {
	var issues []Issue
	switch s.Kind {
	case "coerce":
		if len(s.Options.StringMap("types")) == 0 {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     path + ".options.types",
				Message:  "coerce transform has no types; it will not change anything",
			})
		}
	case "dedup":
		issues = append(issues, requireList(path, s.Options, "keys", "dedup transform requires key columns")...)
	case "require":
		issues = append(issues, requireList(path, s.Options, "fields", "require transform requires fields")...)
	case "rename":
		if len(s.Options.StringMap("map")) == 0 && !s.Options.Bool("snake_ascii", false) {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     path + ".options",
				Message:  "rename transform has neither map nor snake_ascii; it will not change anything",
			})
		}
	case "select":
		issues = append(issues, requireList(path, s.Options, "columns", "select transform requires columns")...)
	}
	return issues
}

func validateQuality(path string, s Step) []Issue {
	var issues []Issue
	switch s.Kind {
	case "completion", "outlier":
		issues = append(issues, requireList(path, s.Options, "columns", s.Kind+" check requires columns")...)
	case "value_range":
		issues = append(issues, requireString(path, s.Options, "column", "value_range check requires a column")...)
		lo, hasMin := s.Options.FloatPtr("min")
		hi, hasMax := s.Options.FloatPtr("max")
		if !hasMin && !hasMax {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".options",
				Message:  "value_range check requires a numeric min, max, or both",
			})
		} else if hasMin && hasMax && *lo > *hi {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".options",
				Message:  fmt.Sprintf("value_range min %v is greater than max %v", *lo, *hi),
			})
		}
	case "contract":
		var c schema.Contract
		found, err := s.Options.DecodeInto("contract", &c)
		switch {
		case !found:
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".options.contract",
				Message:  "contract check requires a contract",
			})
		case err != nil:
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".options.contract",
				Message:  fmt.Sprintf("contract is not a valid schema contract: %v", err),
			})
		case len(c.Fields) == 0:
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     path + ".options.contract",
				Message:  "contract has no fields; it will not enforce anything",
			})
		}
	}
	return issues
}

func validateLoad(path string, s Step) []Issue {
	var issues []Issue
	switch s.Kind {
	case "sql":
		issues = append(issues, requireString(path, s.Options, "driver", "sql load requires a driver")...)
		issues = append(issues, requireString(path, s.Options, "dsn", "sql load requires a dsn")...)
		issues = append(issues, requireString(path, s.Options, "table", "sql load requires a table")...)
		if n := s.Options.Int("batch_size", 0); n < 0 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".options.batch_size",
				Message:  "batch_size must not be negative",
			})
		}
	case "file":
		issues = append(issues, requireString(path, s.Options, "path", "file load requires a non-empty path")...)
		switch f := s.Options.String("format", "csv"); f {
		case "csv", "ndjson":
		default:
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".options.format",
				Message:  fmt.Sprintf("unsupported format %q; want csv or ndjson", f),
			})
		}
	}
	return issues
}

func requireString(path string, o Options, key, msg string) []Issue {
	if strings.TrimSpace(o.String(key, "")) != "" {
		return nil
	}
	return []Issue{{Severity: SeverityError, Path: path + ".options." + key, Message: msg}}
}

func requireList(path string, o Options, key, msg string) []Issue {
	if len(o.StringSlice(key)) > 0 {
		return nil
	}
	return []Issue{{Severity: SeverityError, Path: path + ".options." + key, Message: msg}}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
