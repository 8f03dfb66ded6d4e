package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func valid() Run {
	r := Run{
		Inputs: Inputs{Dealers: "d.csv", Sales: "s.csv"},
	}
	r.ApplyDefaults(time.Date(2025, time.November, 3, 0, 0, 0, 0, time.UTC))
	return r
}

func TestDecode(t *testing.T) {
	t.Parallel()

	const js = `{
	  "job": "mix-nov",
	  "inputs":  { "dealers": "a.csv", "sales": "b.csv", "encoding": "windows-1252", "comma": ";" },
	  "output":  { "csv": "out/mix.csv", "xlsx": "out/mix.xlsx" },
	  "period":  { "rep_id": "78", "year": 2025, "month": 11 },
	  "sql":     { "dialect": "mssql", "all": true, "ddl": true },
	  "report":  { "top": 5 },
	  "tolerance": { "min": 98.5, "max": 101.5 },
	  "metrics": { "backend": "datadog", "datadog_addr": "127.0.0.1:8125", "datadog_tags": ["env:test"] },
	  "mapping": "configs/mapping.yaml",
	  "strict": true
	}`
	r, err := Decode(strings.NewReader(js))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if r.Job != "mix-nov" || r.Inputs.CommaRune() != ';' || r.Inputs.Encoding != "windows-1252" {
		t.Fatalf("inputs = %+v", r.Inputs)
	}
	if r.Period != (Period{RepID: "78", Year: 2025, Month: 11}) {
		t.Fatalf("period = %+v", r.Period)
	}
	if !r.SQL.All || !r.SQL.DDL || r.SQL.Dialect != "mssql" {
		t.Fatalf("sql = %+v", r.SQL)
	}
	if r.Tolerance.Min != 98.5 || r.Tolerance.Max != 101.5 {
		t.Fatalf("tolerance = %+v", r.Tolerance)
	}
	if len(r.Metrics.DatadogTags) != 1 || !r.Strict || r.Mapping == "" {
		t.Fatalf("decoded = %+v", r)
	}
	if issues := ValidateRun(r); HasErrors(issues) {
		t.Fatalf("unexpected issues: %v", issues)
	}
}

func TestDecode_Rejects(t *testing.T) {
	t.Parallel()

	for _, in := range []string{`{"job": 3}`, `{"unknown_field": true}`, `{`} {
		if _, err := Decode(strings.NewReader(in)); !errors.Is(err, ErrInvalid) {
			t.Errorf("Decode(%s) err = %v, want ErrInvalid", in, err)
		}
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	p := filepath.Join(t.TempDir(), "run.json")
	if err := os.WriteFile(p, []byte(`{"inputs":{"dealers":"x.csv"}}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	r, err := Load(p)
	if err != nil || r.Inputs.Dealers != "x.csv" {
		t.Fatalf("Load = %+v, %v", r, err)
	}

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, ErrInvalid) || !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("missing file err = %v, want ErrInvalid and ErrNotExist", err)
	}
}

func TestPrecedence_ConfigOverEnvOverDefault(t *testing.T) {
	t.Parallel()

	r := Run{Inputs: Inputs{Dealers: "from-config.csv"}, Period: Period{Month: 4}}
	r.ApplyEnv(envMap(map[string]string{
		"PRODUCTMIX_DEALERS":       "from-env.csv",
		"PRODUCTMIX_SALES":         "env-sales.csv",
		"PRODUCTMIX_MONTH":         "7",
		"PRODUCTMIX_YEAR":          "2024",
		"PRODUCTMIX_TOP":           "not-a-number",
		"PUSHGATEWAY_URL":          "http://gw:9091",
		"PRODUCTMIX_STRICT":        "true",
		"PRODUCTMIX_TOLERANCE_MAX": "102",
	}))
	r.ApplyDefaults(time.Date(2025, time.November, 1, 0, 0, 0, 0, time.UTC))

	if r.Inputs.Dealers != "from-config.csv" {
		t.Fatalf("config value overridden by env: %q", r.Inputs.Dealers)
	}
	if r.Inputs.Sales != "env-sales.csv" {
		t.Fatalf("env value not applied: %q", r.Inputs.Sales)
	}
	if r.Period.Month != 4 || r.Period.Year != 2024 {
		t.Fatalf("period = %+v, want month from config and year from env", r.Period)
	}
	if r.Report.Top != DefaultTop {
		t.Fatalf("top = %d; malformed env should fall through to default", r.Report.Top)
	}
	if r.Metrics.PushgatewayURL != "http://gw:9091" || !r.Strict {
		t.Fatalf("metrics/strict = %+v, %v", r.Metrics, r.Strict)
	}
	if r.Tolerance.Min != DefaultToleranceMin || r.Tolerance.Max != 102 {
		t.Fatalf("tolerance = %+v", r.Tolerance)
	}
	if r.Job != DefaultJob || r.Output.CSV != DefaultOutputCSV || r.Period.RepID != DefaultRepID || r.SQL.Dialect != DefaultDialect {
		t.Fatalf("defaults not applied: %+v", r)
	}
}

func TestApplyDefaults_PushgatewayURL(t *testing.T) {
	t.Parallel()

	r := Run{Metrics: Metrics{Backend: "pushgateway"}}
	r.ApplyDefaults(time.Now())
	if r.Metrics.PushgatewayURL != DefaultPushgateway {
		t.Fatalf("pushgateway url = %q", r.Metrics.PushgatewayURL)
	}
	r = Run{}
	r.ApplyDefaults(time.Now())
	if r.Metrics.PushgatewayURL != "" || r.Metrics.Backend != "none" {
		t.Fatalf("metrics = %+v", r.Metrics)
	}
}

func TestValidateRun(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		mutate   func(r *Run)
		wantPath string
		wantSev  IssueSeverity
	}{
		{"missing_dealers", func(r *Run) { r.Inputs.Dealers = "" }, "inputs.dealers", SeverityError},
		{"missing_sales", func(r *Run) { r.Inputs.Sales = " " }, "inputs.sales", SeverityError},
		{"bad_encoding", func(r *Run) { r.Inputs.Encoding = "ebcdic" }, "inputs.encoding", SeverityError},
		{"long_comma", func(r *Run) { r.Inputs.Comma = ";;" }, "inputs.comma", SeverityError},
		{"quote_comma", func(r *Run) { r.Inputs.Comma = `"` }, "inputs.comma", SeverityError},
		{"month_13", func(r *Run) { r.Period.Month = 13 }, "period.month", SeverityError},
		{"odd_year", func(r *Run) { r.Period.Year = 1999 }, "period.year", SeverityWarning},
		{"blank_rep", func(r *Run) { r.Period.RepID = "" }, "period.rep_id", SeverityError},
		{"dialect", func(r *Run) { r.SQL.Dialect = "oracle" }, "sql.dialect", SeverityError},
		{"negative_top", func(r *Run) { r.Report.Top = -1 }, "report.top", SeverityError},
		{"inverted_tolerance", func(r *Run) { r.Tolerance.Min = 102 }, "tolerance", SeverityError},
		{"tolerance_excludes_100", func(r *Run) { r.Tolerance.Min, r.Tolerance.Max = 90, 95 }, "tolerance", SeverityWarning},
		{"unknown_backend", func(r *Run) { r.Metrics.Backend = "statsd" }, "metrics.backend", SeverityWarning},
		{"pushgateway_no_url", func(r *Run) { r.Metrics.Backend = "pushgateway" }, "metrics.pushgateway_url", SeverityError},
		{"datadog_no_addr", func(r *Run) { r.Metrics.Backend = "datadog" }, "metrics.datadog_addr", SeverityError},
		{"xlsx_ext", func(r *Run) { r.Output.XLSX = "mix.csv" }, "output.xlsx", SeverityWarning},
		{"no_outputs", func(r *Run) { r.Output.CSV = "" }, "output", SeverityWarning},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := valid()
			tt.mutate(&r)
			issues := ValidateRun(r)
			for _, iss := range issues {
				if iss.Path == tt.wantPath && iss.Severity == tt.wantSev {
					return
				}
			}
			t.Fatalf("issues = %v; want %s at %s", issues, tt.wantSev, tt.wantPath)
		})
	}
}

func TestValidRunHasNoIssues(t *testing.T) {
	t.Parallel()

	if issues := ValidateRun(valid()); len(issues) != 0 {
		t.Fatalf("issues = %v", issues)
	}
	r := valid()
	r.SQL.Disabled = true
	r.SQL.Dialect = "whatever"
	if issues := ValidateRun(r); len(issues) != 0 {
		t.Fatalf("disabled SQL still validated: %v", issues)
	}
}

func TestErr(t *testing.T) {
	t.Parallel()

	if err := Err([]Issue{{Severity: SeverityWarning, Path: "x", Message: "y"}}); err != nil {
		t.Fatalf("warnings only: %v", err)
	}
	err := Err([]Issue{{Severity: SeverityError, Path: "period.month", Message: "bad"}})
	if !errors.Is(err, ErrInvalid) || !strings.Contains(err.Error(), "period.month") {
		t.Fatalf("Err = %v", err)
	}
}

func TestLoad_SampleConfig(t *testing.T) {
	r, err := Load(filepath.Join("..", "..", "configs", "sample.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	r.ApplyDefaults(time.Date(2025, time.November, 1, 0, 0, 0, 0, time.UTC))
	if issues := ValidateRun(r); HasErrors(issues) {
		t.Fatalf("sample config has errors: %v", issues)
	}
	if r.Period.Month != 10 || !r.SQL.DDL || r.Mapping != "configs/mapping.yaml" {
		t.Fatalf("r = %+v", r)
	}
}
