package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks the run.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced but does not block.
	SeverityWarning IssueSeverity = "warning"
)

// Issue is a single validation finding. Path is a dotted path into the
// config, e.g. "period.month".
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

var (
	knownEncodings = map[string]struct{}{
		"": {}, "utf-8": {}, "utf8": {}, "windows-1252": {}, "cp1252": {}, "latin1": {}, "iso-8859-1": {},
	}
	knownDialects = map[string]struct{}{
		"postgres": {}, "postgresql": {}, "pg": {}, "sqlite": {}, "sqlite3": {}, "mssql": {}, "sqlserver": {},
	}
	knownBackends = map[string]struct{}{
		"": {}, "none": {}, "pushgateway": {}, "datadog": {},
	}
)

// ValidateRun performs static checks on a fully layered Run. It does not
// touch the filesystem.
func ValidateRun(r Run) []Issue {
	var issues []Issue
	add := func(sev IssueSeverity, path, format string, args ...interface{}) {
		issues = append(issues, Issue{Severity: sev, Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(r.Job) == "" {
		add(SeverityError, "job", "job must not be empty; it labels logs and metrics")
	}

	// Inputs.
	if strings.TrimSpace(r.Inputs.Dealers) == "" {
		add(SeverityError, "inputs.dealers", "dealer export path is required")
	}
	if strings.TrimSpace(r.Inputs.Sales) == "" {
		add(SeverityError, "inputs.sales", "sales export path is required")
	}
	if _, ok := knownEncodings[strings.ToLower(r.Inputs.Encoding)]; !ok {
		add(SeverityError, "inputs.encoding", "unsupported encoding %q (want utf-8 or windows-1252)", r.Inputs.Encoding)
	}
	if r.Inputs.Comma != "" {
		if utf8.RuneCountInString(r.Inputs.Comma) != 1 {
			add(SeverityError, "inputs.comma", "comma must be a single character, got %q", r.Inputs.Comma)
		} else if c := r.Inputs.CommaRune(); c == '"' || c == '\r' || c == '\n' {
			add(SeverityError, "inputs.comma", "invalid delimiter %q", r.Inputs.Comma)
		}
	}

	// Outputs.
	if r.Output.CSV == "" && r.Output.XLSX == "" {
		add(SeverityWarning, "output", "no output file configured; results are printed only")
	}
	if r.Output.XLSX != "" && !strings.EqualFold(filepath.Ext(r.Output.XLSX), ".xlsx") {
		add(SeverityWarning, "output.xlsx", "workbook path %q does not end in .xlsx", r.Output.XLSX)
	}

	// Period.
	if strings.TrimSpace(r.Period.RepID) == "" {
		add(SeverityError, "period.rep_id", "rep_id must not be empty")
	}
	if r.Period.Month < 1 || r.Period.Month > 12 {
		add(SeverityError, "period.month", "month must be 1..12, got %d", r.Period.Month)
	}
	if r.Period.Year < 1 {
		add(SeverityError, "period.year", "year must be positive, got %d", r.Period.Year)
	} else if r.Period.Year < 2000 || r.Period.Year > 2100 {
		add(SeverityWarning, "period.year", "year %d looks unlikely", r.Period.Year)
	}

	// SQL.
	if !r.SQL.Disabled {
		if _, ok := knownDialects[strings.ToLower(r.SQL.Dialect)]; !ok {
			add(SeverityError, "sql.dialect", "unknown dialect %q (want postgres, sqlite or mssql)", r.SQL.Dialect)
		}
	}

	// Report.
	if r.Report.Top < 0 {
		add(SeverityError, "report.top", "top must not be negative")
	}
	if r.Report.DealerSample < 0 {
		add(SeverityError, "report.dealer_sample", "dealer_sample must not be negative")
	}

	// Tolerance.
	if r.Tolerance.Min > r.Tolerance.Max {
		add(SeverityError, "tolerance", "min %.2f is greater than max %.2f", r.Tolerance.Min, r.Tolerance.Max)
	} else if r.Tolerance.Min > 100 || r.Tolerance.Max < 100 {
		add(SeverityWarning, "tolerance", "[%.2f, %.2f] excludes 100; every account will be flagged", r.Tolerance.Min, r.Tolerance.Max)
	}

	// Metrics. Unknown backends are warnings; the run falls back to none.
	b := strings.ToLower(r.Metrics.Backend)
	if _, ok := knownBackends[b]; !ok {
		add(SeverityWarning, "metrics.backend", "unknown backend %q; metrics disabled", r.Metrics.Backend)
	}
	switch b {
	case "pushgateway":
		if strings.TrimSpace(r.Metrics.PushgatewayURL) == "" {
			add(SeverityError, "metrics.pushgateway_url", "pushgateway backend requires a URL")
		}
	case "datadog":
		if strings.TrimSpace(r.Metrics.DatadogAddr) == "" {
			add(SeverityError, "metrics.datadog_addr", "datadog backend requires an agent address")
		}
	}

	return issues
}

// HasErrors reports whether any issue has error severity.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Err folds error-severity issues into one error matching ErrInvalid, or
// returns nil when there are none.
func Err(issues []Issue) error {
	var errs []error
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			errs = append(errs, iss)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}
